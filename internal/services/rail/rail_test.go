package rail

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"railpay/internal/models"
	"railpay/internal/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func idr(s string) money.Money { return money.MustParse(s, "IDR") }

func startGateway(t *testing.T, handler fasthttp.RequestHandler) *Gateway {
	t.Helper()
	return startGatewayWithLogger(t, handler, nil)
}

func startGatewayWithLogger(t *testing.T, handler fasthttp.RequestHandler, log *zap.Logger) *Gateway {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: handler}
	go func() { _ = server.Serve(ln) }()
	t.Cleanup(func() { _ = server.Shutdown() })

	client := &fasthttp.Client{Dial: func(addr string) (net.Conn, error) { return ln.Dial() }}
	return NewGateway("http://rails.local/", 200*time.Millisecond, client, log)
}

func sampleRequest() TransferRequest {
	return TransferRequest{
		TransactionID:          "tx-1",
		ReferenceNumber:        "TRX20260101ABCD",
		SenderAccountID:        "acc-1",
		RecipientAccountNumber: "0987654321",
		Amount:                 idr("150000"),
	}
}

func TestGateway_Success(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]interface{}
	g := startGateway(t, func(ctx *fasthttp.RequestCtx) {
		gotPath = string(ctx.Path())
		gotKey = string(ctx.Request.Header.Peek("Idempotency-Key"))
		_ = json.Unmarshal(ctx.PostBody(), &gotBody)
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString(`{"reference":"BF-1","status":"ACCEPTED"}`)
	})

	receipt, err := NewBifastAdapter(g).InitiateTransfer(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "BF-1", receipt.RailReference)
	assert.Equal(t, "/v1/rails/bifast/transfers", gotPath)
	assert.Equal(t, "TRX20260101ABCD", gotKey)
	assert.Equal(t, "IDR", gotBody["currency"])
	assert.Equal(t, "BIFAST", gotBody["rail"])
}

func TestGateway_MalformedAcceptedBody(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	g := startGatewayWithLogger(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusAccepted)
		ctx.SetBodyString(`<html>accepted</html>`)
	}, zap.New(core))

	receipt, err := NewBifastAdapter(g).InitiateTransfer(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Empty(t, receipt.RailReference)

	entries := logs.FilterMessage("unreadable rail gateway response body").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "TRX20260101ABCD", entries[0].ContextMap()["reference"])
	assert.EqualValues(t, fasthttp.StatusAccepted, entries[0].ContextMap()["status"])
}

func TestGateway_Rejected(t *testing.T) {
	g := startGateway(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusUnprocessableEntity)
		ctx.SetBodyString(`{"message":"recipient account closed"}`)
	})

	_, err := NewSknAdapter(g).InitiateTransfer(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrRailRejected)
	assert.EqualError(t, err, "SKN rejected transfer: recipient account closed")
}

func TestGateway_ServerErrorAndTimeout(t *testing.T) {
	g := startGateway(t, func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == "/v1/rails/qris/transfers" {
			time.Sleep(time.Second)
		}
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	})

	_, err := NewRgsAdapter(g).InitiateTransfer(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrRailUnavailable)
	assert.Contains(t, err.Error(), "status 503")

	_, err = NewQrisAdapter(g).InitiateTransfer(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrRailUnavailable)
	assert.Contains(t, err.Error(), "timed out")
}

func TestLimits(t *testing.T) {
	limits := DefaultLimits()
	assert.NoError(t, limits.Check(models.RailBIFAST, idr("250000000")))
	assert.ErrorIs(t, limits.Check(models.RailBIFAST, idr("250000000.01")), ErrAmountOutOfRange)
	assert.ErrorIs(t, limits.Check(models.RailRTGS, idr("100000000")), ErrAmountOutOfRange)
	assert.NoError(t, limits.Check(models.RailRTGS, idr("100000000.01")))
	assert.ErrorIs(t, limits.Check(models.RailQRIS, idr("10000000.01")), ErrAmountOutOfRange)

	custom := limits.WithOverrides(map[string]string{"QRIS": "20000000", "SKN": ""})
	assert.NoError(t, custom.Check(models.RailQRIS, idr("15000000")))
	assert.ErrorIs(t, limits.Check(models.RailQRIS, idr("15000000")), ErrAmountOutOfRange)
}

func TestRegistry(t *testing.T) {
	reg := NewSimulatorRegistry(DefaultLimits())
	for _, r := range models.RailTypes() {
		a, err := reg.Get(r)
		require.NoError(t, err)
		assert.Equal(t, r, a.Rail())
	}
	_, err := reg.Get("SWIFT")
	assert.ErrorIs(t, err, ErrUnsupportedRail)

	partial := NewRegistry(DefaultLimits(), NewSimulator(models.RailBIFAST, 0), nil, nil, nil)
	assert.ErrorIs(t, partial.Validate(models.RailSKN, idr("1")), ErrUnsupportedRail)
	assert.NoError(t, partial.Validate(models.RailBIFAST, idr("1")))
}
