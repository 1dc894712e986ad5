package wallet

import (
	"context"
	"errors"
	"time"

	"railpay/internal/logger"
	"railpay/internal/models"
	"railpay/internal/money"
	"railpay/internal/repositories"
	"railpay/internal/resilience"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type service struct {
	repo    repositories.WalletRepository
	config  WalletConfig
	metrics MetricsCollector
	logger  *zap.Logger
}

// NewService creates a new wallet service
func NewService(
	repo repositories.WalletRepository,
	config WalletConfig,
	metrics MetricsCollector,
	log *zap.Logger,
) Service {
	if repo == nil {
		panic("repo is required")
	}

	if config.DefaultCurrency == "" {
		config.DefaultCurrency = DefaultCurrency
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = DefaultRetryBackoff
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = DefaultMaxBackoff
	}

	// Metrics is optional, create no-op collector if nil
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:    repo,
		config:  config,
		metrics: metrics,
		logger:  logger.OrNop(log).Named("wallet"),
	}
}

func (s *service) CreateWallet(ctx context.Context, accountID, currency string) (*models.Wallet, error) {
	if currency == "" {
		currency = s.config.DefaultCurrency
	}
	w, err := models.NewWallet(accountID, currency)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *service) GetWallet(ctx context.Context, accountID string) (*models.Wallet, error) {
	return s.repo.GetByAccountID(ctx, accountID)
}

func (s *service) GetReservation(ctx context.Context, reservationID string) (*models.Reservation, error) {
	return s.repo.GetReservation(ctx, reservationID)
}

func (s *service) FindReservation(ctx context.Context, accountID, correlationID string) (*models.Reservation, error) {
	return s.repo.FindReservation(ctx, accountID, correlationID)
}

func (s *service) Deposit(ctx context.Context, accountID string, amount money.Money) (*models.Wallet, error) {
	start := time.Now()
	w, _, err := s.mutate(ctx, OpDeposit, accountID, func(w *models.Wallet) (*models.Reservation, error) {
		return nil, w.Deposit(amount)
	})
	s.record(OpDeposit, start, err)
	return w, err
}

// Reserve earmarks amount on the account's wallet for correlationID. A
// second call with the same correlation id returns the first reservation.
func (s *service) Reserve(ctx context.Context, accountID string, amount money.Money, correlationID string) (*models.Reservation, error) {
	if correlationID == "" {
		return nil, ErrCorrelationIDRequired
	}
	start := time.Now()

	if existing, err := s.existingReservation(ctx, accountID, correlationID, amount); existing != nil || err != nil {
		s.record(OpReserve, start, err)
		return existing, err
	}

	reservationID := uuid.NewString()
	_, res, err := s.mutate(ctx, OpReserve, accountID, func(w *models.Wallet) (*models.Reservation, error) {
		return w.Reserve(reservationID, correlationID, amount)
	})
	if errors.Is(err, repositories.ErrDuplicateKey) {
		// A concurrent call with the same correlation id won.
		res, err = s.existingReservation(ctx, accountID, correlationID, amount)
	}
	s.record(OpReserve, start, err)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("balance reserved",
		zap.String("account_id", accountID),
		zap.String("reservation_id", res.ID),
		zap.String("correlation_id", correlationID),
		zap.Stringer("amount", res.Amount))
	return res, nil
}

func (s *service) existingReservation(ctx context.Context, accountID, correlationID string, amount money.Money) (*models.Reservation, error) {
	res, err := s.repo.FindReservation(ctx, accountID, correlationID)
	if err != nil {
		if errors.Is(err, repositories.ErrReservationNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !res.Amount.Equal(amount) {
		return nil, ErrReservationAmountMismatch
	}
	return res, nil
}

// Commit settles a RESERVED reservation.
func (s *service) Commit(ctx context.Context, reservationID string) (*models.Reservation, error) {
	start := time.Now()
	res, err := s.terminate(ctx, OpCommit, reservationID, (*models.Wallet).Commit)
	s.record(OpCommit, start, err)
	return res, err
}

// Release compensates a RESERVED reservation.
func (s *service) Release(ctx context.Context, reservationID string) (*models.Reservation, error) {
	start := time.Now()
	res, err := s.terminate(ctx, OpRelease, reservationID, (*models.Wallet).Release)
	s.record(OpRelease, start, err)
	return res, err
}

func (s *service) terminate(ctx context.Context, op, reservationID string, apply func(*models.Wallet, *models.Reservation) error) (*models.Reservation, error) {
	res, err := s.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	_, out, err := s.mutate(ctx, op, res.WalletID, func(w *models.Wallet) (*models.Reservation, error) {
		// Re-read on every attempt; a concurrent commit or release may
		// have terminated it since.
		current, err := s.repo.GetReservation(ctx, reservationID)
		if err != nil {
			return nil, err
		}
		if err := apply(w, current); err != nil {
			return nil, err
		}
		return current, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("reservation terminated",
		zap.String("op", op),
		zap.String("reservation_id", reservationID),
		zap.String("state", string(out.State)))
	return out, nil
}

// mutate runs fn against a fresh copy of the wallet and stores the result
// with a compare-and-set on its version, retrying on conflict.
func (s *service) mutate(ctx context.Context, op, accountID string, fn func(*models.Wallet) (*models.Reservation, error)) (*models.Wallet, *models.Reservation, error) {
	for attempt := 0; attempt < s.config.MaxRetries; attempt++ {
		w, err := s.repo.GetByAccountID(ctx, accountID)
		if err != nil {
			return nil, nil, err
		}
		expected := w.Version

		res, err := fn(w)
		if err != nil {
			return nil, nil, err
		}

		err = s.repo.Save(ctx, w, expected, res)
		if err == nil {
			return w, res, nil
		}
		if !errors.Is(err, repositories.ErrVersionConflict) {
			return nil, nil, err
		}

		s.metrics.RecordConflict(op)
		if err := resilience.Sleep(ctx, resilience.Backoff(s.config.RetryBackoff, s.config.MaxBackoff, attempt)); err != nil {
			return nil, nil, err
		}
	}

	s.logger.Warn("wallet version conflicts exhausted retries",
		zap.String("op", op),
		zap.String("account_id", accountID),
		zap.Int("attempts", s.config.MaxRetries))
	return nil, nil, ErrConcurrencyConflict
}

func (s *service) record(op string, start time.Time, err error) {
	s.metrics.RecordOperationDuration(op, time.Since(start))
	if err != nil {
		s.metrics.RecordOperationResult(op, "error")
		s.metrics.RecordError(op, errorType(err))
		return
	}
	s.metrics.RecordOperationResult(op, "success")
}

func errorType(err error) string {
	switch {
	case errors.Is(err, models.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, models.ErrInvalidReservationState):
		return "invalid_state"
	case errors.Is(err, ErrConcurrencyConflict):
		return "conflict"
	case errors.Is(err, repositories.ErrWalletNotFound), errors.Is(err, repositories.ErrReservationNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
