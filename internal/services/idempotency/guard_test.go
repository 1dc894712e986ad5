package idempotency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"railpay/internal/models"
	"railpay/internal/money"
	"railpay/internal/repositories/cache"
	"railpay/internal/repositories/memory"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var amount = money.MustParse("150000.00", "IDR")

func newTx(key string) *models.Transaction {
	return models.NewTransaction("tx-1", "TRX-1", "acc-1", "0987654321", amount, models.RailBIFAST, key)
}

func fingerprint() Fingerprint {
	return NewFingerprint("acc-1", "0987654321", amount, models.RailBIFAST)
}

func fastConfig() Config {
	return Config{TTL: time.Minute, Wait: 100 * time.Millisecond, PollInterval: time.Millisecond, MaxPoll: 5 * time.Millisecond}
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, fingerprint(), FingerprintOf(newTx("k")))
	assert.NotEqual(t, fingerprint(), NewFingerprint("acc-1", "0987654321", money.MustParse("150000.01", "IDR"), models.RailBIFAST))
	assert.NotEqual(t, fingerprint(), NewFingerprint("acc-1", "0987654321", amount, models.RailSKN))
	assert.Len(t, string(fingerprint()), 64)
}

func TestGuard_ClaimThenReplay(t *testing.T) {
	ctx := context.Background()
	txs := memory.NewTransactionRepository()
	g := NewGuard(cache.NewMemoryStore(time.Minute), txs, fastConfig(), nil)

	d, err := g.Begin(ctx, "key-1", fingerprint())
	require.NoError(t, err)
	require.NotNil(t, d.Claim)
	assert.Nil(t, d.Existing)
	assert.Equal(t, "key-1", d.Claim.Key())

	require.NoError(t, txs.Create(ctx, newTx("key-1")))

	d, err = g.Begin(ctx, "key-1", fingerprint())
	require.NoError(t, err)
	require.NotNil(t, d.Existing)
	assert.Nil(t, d.Claim)
	assert.Equal(t, "tx-1", d.Existing.ID)
}

func TestGuard_Validation(t *testing.T) {
	ctx := context.Background()
	txs := memory.NewTransactionRepository()
	g := NewGuard(cache.NewMemoryStore(time.Minute), txs, fastConfig(), nil)

	_, err := g.Begin(ctx, "  ", fingerprint())
	assert.ErrorIs(t, err, ErrKeyRequired)

	require.NoError(t, txs.Create(ctx, newTx("key-1")))
	other := NewFingerprint("acc-2", "0987654321", amount, models.RailBIFAST)
	_, err = g.Begin(ctx, "key-1", other)
	assert.ErrorIs(t, err, ErrKeyReuse)
}

func TestGuard_DuplicateWaitsForHolder(t *testing.T) {
	ctx := context.Background()
	txs := memory.NewTransactionRepository()
	cfg := fastConfig()
	cfg.Wait = 2 * time.Second
	g := NewGuard(cache.NewMemoryStore(time.Minute), txs, cfg, nil)

	first, err := g.Begin(ctx, "key-1", fingerprint())
	require.NoError(t, err)
	require.NotNil(t, first.Claim)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = txs.Create(ctx, newTx("key-1"))
	}()

	second, err := g.Begin(ctx, "key-1", fingerprint())
	require.NoError(t, err)
	require.NotNil(t, second.Existing)
	assert.Equal(t, "tx-1", second.Existing.ID)
}

func TestGuard_DuplicateDifferentRequestWhileInFlight(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(cache.NewMemoryStore(time.Minute), memory.NewTransactionRepository(), fastConfig(), nil)

	_, err := g.Begin(ctx, "key-1", fingerprint())
	require.NoError(t, err)

	_, err = g.Begin(ctx, "key-1", NewFingerprint("acc-9", "1", amount, models.RailQRIS))
	assert.ErrorIs(t, err, ErrKeyReuse)
}

func TestGuard_InFlightSnapshotAndTimeout(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(cache.NewMemoryStore(time.Minute), memory.NewTransactionRepository(), fastConfig(), nil)

	first, err := g.Begin(ctx, "key-1", fingerprint())
	require.NoError(t, err)

	_, err = g.Begin(ctx, "key-1", fingerprint())
	assert.ErrorIs(t, err, ErrInProgress)

	first.Claim.Bind(ctx, newTx("key-1"))
	d, err := g.Begin(ctx, "key-1", fingerprint())
	require.NoError(t, err)
	require.NotNil(t, d.Existing)
	assert.Equal(t, "tx-1", d.Existing.ID)
	assert.Equal(t, models.TransactionStatusPending, d.Existing.Status)
	assert.True(t, d.Existing.Amount.Equal(amount))
}

func TestGuard_ReleasedClaimCanBeRetaken(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(cache.NewMemoryStore(time.Minute), memory.NewTransactionRepository(), fastConfig(), nil)

	first, err := g.Begin(ctx, "key-1", fingerprint())
	require.NoError(t, err)
	first.Claim.Release(ctx)

	second, err := g.Begin(ctx, "key-1", fingerprint())
	require.NoError(t, err)
	assert.NotNil(t, second.Claim)
}

func TestGuard_RedisConcurrentClaims(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	g := NewGuard(cache.NewCacheService(client, time.Minute, "railpay"), memory.NewTransactionRepository(), fastConfig(), nil)

	var claims atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := g.Begin(ctx, "key-1", fingerprint())
			if err == nil && d.Claim != nil {
				claims.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), claims.Load())
	assert.True(t, mr.Exists("railpay:idem:key-1"))
}

type brokenStore struct{ cache.Store }

func (brokenStore) SetNX(context.Context, string, interface{}, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

func TestGuard_StoreDownStillRuns(t *testing.T) {
	g := NewGuard(brokenStore{}, memory.NewTransactionRepository(), fastConfig(), nil)
	d, err := g.Begin(context.Background(), "key-1", fingerprint())
	require.NoError(t, err)
	require.NotNil(t, d.Claim)
	d.Claim.Bind(context.Background(), newTx("key-1"))
	d.Claim.Release(context.Background())
}
