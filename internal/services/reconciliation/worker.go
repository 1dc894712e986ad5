// Package reconciliation finishes wallet commits and releases that failed
// while a transfer was being settled.
package reconciliation

import (
	"context"
	"errors"
	"time"

	"railpay/internal/logger"
	"railpay/internal/models"
	"railpay/internal/money"
	"railpay/internal/repositories"
	"railpay/internal/resilience"

	"go.uber.org/zap"
)

type WalletPort interface {
	CommitBalance(ctx context.Context, accountID, correlationID string, amount money.Money) error
	ReleaseBalance(ctx context.Context, accountID, correlationID string, amount money.Money) error
}

type Config struct {
	Interval    time.Duration
	BatchSize   int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	// ReleaseGrace is how long a RELEASE keeps retrying while its
	// reservation is missing; a reserve that timed out may still land.
	ReleaseGrace time.Duration
}

type Worker struct {
	pending repositories.PendingCommitRepository
	wallet  WalletPort
	config  Config
	logger  *zap.Logger
	now     func() time.Time
}

func NewWorker(pending repositories.PendingCommitRepository, wallet WalletPort, config Config, log *zap.Logger) *Worker {
	if pending == nil {
		panic("pending commit repository is required")
	}
	if wallet == nil {
		panic("wallet port is required")
	}
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.BaseBackoff <= 0 {
		config.BaseBackoff = 5 * time.Second
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 10 * time.Minute
	}
	if config.ReleaseGrace <= 0 {
		config.ReleaseGrace = 15 * time.Minute
	}
	return &Worker{
		pending: pending,
		wallet:  wallet,
		config:  config,
		logger:  logger.OrNop(log).Named("reconciliation"),
		now:     time.Now,
	}
}

// Run processes due entries every interval until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.logger.Info("reconciliation worker started", zap.Duration("interval", w.config.Interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reconciliation worker stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("reconciliation pass failed", zap.Error(err))
			}
		}
	}
}

// RunOnce processes one batch of due entries and returns how many settled.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	due, err := w.pending.Due(ctx, w.now().UTC(), w.config.BatchSize)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, p := range due {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}
		if w.process(ctx, p) {
			settled++
		}
	}
	return settled, nil
}

func (w *Worker) process(ctx context.Context, p *models.PendingCommit) bool {
	log := w.logger.With(
		zap.String("pending_id", p.ID),
		zap.String("transaction_id", p.TransactionID),
		zap.String("action", string(p.Action)),
		zap.Int("attempts", p.Attempts))

	var err error
	switch p.Action {
	case models.PendingActionRelease:
		err = w.wallet.ReleaseBalance(ctx, p.AccountID, p.CorrelationID, p.Amount)
		if errors.Is(err, repositories.ErrReservationNotFound) && w.now().Sub(p.CreatedAt) >= w.config.ReleaseGrace {
			log.Info("no reservation appeared within the grace period, nothing to release")
			err = nil
		}
	default:
		err = w.wallet.CommitBalance(ctx, p.AccountID, p.CorrelationID, p.Amount)
	}

	if err == nil {
		if markErr := w.pending.MarkDone(ctx, p.ID); markErr != nil {
			log.Error("settled but failed to mark done", zap.Error(markErr))
			return false
		}
		log.Info("pending settlement completed")
		return true
	}

	attempts := p.Attempts + 1
	delay := resilience.Exponential(w.config.BaseBackoff, attempts-1)
	if delay > w.config.MaxBackoff {
		delay = w.config.MaxBackoff
	}
	next := w.now().UTC().Add(delay)
	log.Warn("pending settlement failed, rescheduling", zap.Error(err), zap.Time("next_attempt_at", next))

	msg := err.Error()
	if len(msg) > 512 {
		msg = msg[:512]
	}
	if rerr := w.pending.Reschedule(ctx, p.ID, attempts, next, msg); rerr != nil {
		log.Error("failed to reschedule pending settlement", zap.Error(rerr))
	}
	return false
}
