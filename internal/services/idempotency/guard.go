// Package idempotency deduplicates transfer requests by client key.
//
// A request first looks for a transaction already persisted under its key.
// Otherwise it claims the key in a TTL store. Only the claim holder runs the
// transfer; duplicates that lose the claim wait for the holder's transaction
// to appear and replay it.
package idempotency

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	apperrors "railpay/internal/errors"
	"railpay/internal/logger"
	"railpay/internal/models"
	"railpay/internal/money"
	"railpay/internal/repositories"
	"railpay/internal/repositories/cache"
	"railpay/internal/resilience"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrKeyRequired = apperrors.New(apperrors.KindValidation, "IDEMPOTENCY_KEY_REQUIRED", "Idempotency-Key is required")
	ErrKeyReuse    = apperrors.New(apperrors.KindValidation, "IDEMPOTENCY_KEY_REUSE", "idempotency key was already used for a different request")
	ErrInProgress  = apperrors.New(apperrors.KindConflict, "REQUEST_IN_PROGRESS", "a request with this idempotency key is still in progress")
)

const keyPrefix = "idem:"

// Lookup finds the transaction recorded under an idempotency key. A missing
// transaction is reported as repositories.ErrTransactionNotFound.
type Lookup interface {
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error)
}

type Config struct {
	TTL          time.Duration
	Wait         time.Duration
	PollInterval time.Duration
	MaxPoll      time.Duration
}

// Fingerprint identifies the content of a transfer request.
type Fingerprint string

// NewFingerprint hashes the fields that define a transfer.
func NewFingerprint(sender, recipient string, amount money.Money, rail models.RailType) Fingerprint {
	h, _ := blake2b.New256(nil)
	for _, part := range []string{
		strings.TrimSpace(sender),
		strings.TrimSpace(recipient),
		amount.Amount().StringFixed(money.Scale),
		amount.Currency(),
		string(rail),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

func FingerprintOf(tx *models.Transaction) Fingerprint {
	return NewFingerprint(tx.SenderAccountID, tx.RecipientAccountNumber, tx.Amount, tx.RailType)
}

type claimRecord struct {
	Fingerprint Fingerprint         `json:"fingerprint"`
	ClaimedAt   time.Time           `json:"claimed_at"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
}

// Decision is the outcome of Begin. Exactly one field is set: Existing for a
// duplicate request, Claim for a request that should run.
type Decision struct {
	Existing *models.Transaction
	Claim    *Claim
}

type Guard struct {
	store  cache.Store
	lookup Lookup
	config Config
	logger *zap.Logger
}

func NewGuard(store cache.Store, lookup Lookup, config Config, log *zap.Logger) *Guard {
	if store == nil {
		panic("idempotency store is required")
	}
	if lookup == nil {
		panic("idempotency lookup is required")
	}
	if config.TTL <= 0 {
		config.TTL = 24 * time.Hour
	}
	if config.Wait <= 0 {
		config.Wait = 5 * time.Second
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 20 * time.Millisecond
	}
	if config.MaxPoll <= 0 {
		config.MaxPoll = 500 * time.Millisecond
	}
	return &Guard{
		store:  store,
		lookup: lookup,
		config: config,
		logger: logger.OrNop(log).Named("idempotency"),
	}
}

// Begin decides whether the request identified by key runs or replays.
func (g *Guard) Begin(ctx context.Context, key string, fp Fingerprint) (*Decision, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrKeyRequired
	}

	tx, err := g.persisted(ctx, key, fp)
	if err != nil || tx != nil {
		return &Decision{Existing: tx}, err
	}

	claimed, err := g.claim(ctx, key, fp)
	if err != nil {
		// The unique index on idempotency_key still rejects a second insert.
		g.logger.Warn("idempotency store unavailable, continuing without claim",
			zap.String("idempotency_key", key), zap.Error(err))
		return &Decision{Claim: &Claim{guard: g, key: key, fingerprint: fp, detached: true}}, nil
	}
	if claimed {
		return &Decision{Claim: &Claim{guard: g, key: key, fingerprint: fp}}, nil
	}
	return g.await(ctx, key, fp)
}

func (g *Guard) persisted(ctx context.Context, key string, fp Fingerprint) (*models.Transaction, error) {
	tx, err := g.lookup.FindByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if FingerprintOf(tx) != fp {
		return nil, ErrKeyReuse
	}
	return tx, nil
}

func (g *Guard) claim(ctx context.Context, key string, fp Fingerprint) (bool, error) {
	return g.store.SetNX(ctx, keyPrefix+key, claimRecord{Fingerprint: fp, ClaimedAt: time.Now().UTC()}, g.config.TTL)
}

// await polls for the claim holder's transaction until Wait elapses.
func (g *Guard) await(ctx context.Context, key string, fp Fingerprint) (*Decision, error) {
	deadline := time.Now().Add(g.config.Wait)
	var last claimRecord
	for attempt := 0; ; attempt++ {
		tx, err := g.persisted(ctx, key, fp)
		if err != nil || tx != nil {
			return &Decision{Existing: tx}, err
		}

		var rec claimRecord
		found, err := g.store.Get(ctx, keyPrefix+key, &rec)
		if err != nil {
			return nil, err
		}
		if !found {
			// Holder released its claim without persisting anything.
			claimed, err := g.claim(ctx, key, fp)
			if err != nil {
				return nil, err
			}
			if claimed {
				return &Decision{Claim: &Claim{guard: g, key: key, fingerprint: fp}}, nil
			}
			continue
		}
		if rec.Fingerprint != fp {
			return nil, ErrKeyReuse
		}
		last = rec

		if !time.Now().Before(deadline) {
			break
		}
		if err := resilience.Sleep(ctx, resilience.Backoff(g.config.PollInterval, g.config.MaxPoll, attempt)); err != nil {
			return nil, err
		}
	}

	if last.Transaction != nil {
		return &Decision{Existing: last.Transaction}, nil
	}
	return nil, ErrInProgress
}

// Claim is the right to run the request for one idempotency key.
type Claim struct {
	guard       *Guard
	key         string
	fingerprint Fingerprint
	detached    bool
}

func (c *Claim) Key() string { return c.key }

// Bind records the in-flight transaction so waiting duplicates can replay it
// before it is persisted.
func (c *Claim) Bind(ctx context.Context, tx *models.Transaction) {
	if c == nil || c.detached {
		return
	}
	snapshot := *tx
	rec := claimRecord{Fingerprint: c.fingerprint, ClaimedAt: time.Now().UTC(), Transaction: &snapshot}
	if err := c.guard.store.SetWithTTL(ctx, keyPrefix+c.key, rec, c.guard.config.TTL); err != nil {
		c.guard.logger.Warn("failed to bind idempotency claim",
			zap.String("idempotency_key", c.key), zap.Error(err))
	}
}

// Release gives the key up. Used when the request failed before anything
// was persisted under it.
func (c *Claim) Release(ctx context.Context) {
	if c == nil || c.detached {
		return
	}
	if err := c.guard.store.Delete(ctx, keyPrefix+c.key); err != nil {
		c.guard.logger.Warn("failed to release idempotency claim",
			zap.String("idempotency_key", c.key), zap.Error(err))
	}
}
