package rail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"railpay/internal/logger"
	"railpay/internal/models"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Gateway posts transfers to a clearing gateway over HTTP.
type Gateway struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

func NewGateway(baseURL string, timeout time.Duration, client *fasthttp.Client, log *zap.Logger) *Gateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if client == nil {
		client = &fasthttp.Client{
			Name:                "railpay",
			MaxConnsPerHost:     64,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		}
	}
	return &Gateway{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.OrNop(log).Named("rail_gateway"),
	}
}

type gatewayRequest struct {
	TransferRequest
	Currency string `json:"currency"`
	Rail     string `json:"rail"`
}

type gatewayResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

func (g *Gateway) Send(ctx context.Context, rail models.RailType, req TransferRequest) (*Receipt, error) {
	body, err := json.Marshal(gatewayRequest{
		TransferRequest: req,
		Currency:        req.Amount.Currency(),
		Rail:            string(rail),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode rail request: %w", err)
	}

	httpReq := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(httpReq)
	httpResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(httpResp)

	httpReq.SetRequestURI(fmt.Sprintf("%s/v1/rails/%s/transfers", g.baseURL, strings.ToLower(string(rail))))
	httpReq.Header.SetMethod(fasthttp.MethodPost)
	httpReq.Header.SetContentType("application/json")
	httpReq.Header.Set("Idempotency-Key", req.ReferenceNumber)
	httpReq.SetBody(body)

	timeout := g.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, ErrRailUnavailable.WithMessage(fmt.Sprintf("%s request timed out", rail))
	}

	if err := g.client.DoTimeout(httpReq, httpResp, timeout); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return nil, ErrRailUnavailable.WithMessage(fmt.Sprintf("%s request timed out", rail)).Wrap(err)
		}
		return nil, ErrRailUnavailable.WithMessage(fmt.Sprintf("%s unreachable", rail)).Wrap(err)
	}

	var out gatewayResponse
	status := httpResp.StatusCode()
	if raw := httpResp.Body(); len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			// An accepted transfer stays accepted; only its reference is lost.
			g.logger.Warn("unreadable rail gateway response body",
				zap.String("rail", string(rail)),
				zap.String("reference", req.ReferenceNumber),
				zap.Int("status", status),
				zap.Int("body_bytes", len(raw)),
				zap.Error(err))
		}
	}
	message := out.Message
	if message == "" {
		message = fmt.Sprintf("status %d", status)
	}

	switch {
	case status >= 500:
		g.logger.Warn("rail gateway error",
			zap.String("rail", string(rail)),
			zap.String("reference", req.ReferenceNumber),
			zap.Int("status", status))
		return nil, ErrRailUnavailable.WithMessage(fmt.Sprintf("%s unavailable: %s", rail, message))
	case status >= 300:
		return nil, ErrRailRejected.WithMessage(fmt.Sprintf("%s rejected transfer: %s", rail, message))
	}

	return &Receipt{
		RailReference: out.Reference,
		Status:        out.Status,
		AcceptedAt:    time.Now().UTC(),
	}, nil
}

type gatewayAdapter struct {
	rail    models.RailType
	gateway *Gateway
}

func (a *gatewayAdapter) Rail() models.RailType { return a.rail }

func (a *gatewayAdapter) InitiateTransfer(ctx context.Context, req TransferRequest) (*Receipt, error) {
	return a.gateway.Send(ctx, a.rail, req)
}

func NewBifastAdapter(g *Gateway) BifastServicePort {
	return &gatewayAdapter{rail: models.RailBIFAST, gateway: g}
}

func NewSknAdapter(g *Gateway) SknServicePort {
	return &gatewayAdapter{rail: models.RailSKN, gateway: g}
}

func NewRgsAdapter(g *Gateway) RgsServicePort {
	return &gatewayAdapter{rail: models.RailRTGS, gateway: g}
}

func NewQrisAdapter(g *Gateway) QrisServicePort {
	return &gatewayAdapter{rail: models.RailQRIS, gateway: g}
}

// NewGatewayRegistry serves every rail through one gateway.
func NewGatewayRegistry(g *Gateway, limits Limits) *Registry {
	return NewRegistry(limits, NewBifastAdapter(g), NewSknAdapter(g), NewRgsAdapter(g), NewQrisAdapter(g))
}
