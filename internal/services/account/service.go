// Package account manages the account lifecycle and ledger-side balance
// mutations. Every change is a compare-and-set on the account version.
package account

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	apperrors "railpay/internal/errors"
	"railpay/internal/logger"
	"railpay/internal/models"
	"railpay/internal/money"
	"railpay/internal/repositories"
	"railpay/internal/resilience"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrConcurrencyConflict = apperrors.New(apperrors.KindBusiness, "ACCOUNT_CONCURRENCY_CONFLICT", "account is busy, please retry")

// WalletOpener creates the wallet that backs an account's reservations.
type WalletOpener interface {
	CreateWallet(ctx context.Context, accountID, currency string) (*models.Wallet, error)
}

type Service interface {
	Open(ctx context.Context, req OpenRequest) (*models.Account, error)
	Get(ctx context.Context, id string) (*models.Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	Credit(ctx context.Context, id string, amount money.Money) (*models.Account, error)
	Debit(ctx context.Context, id string, amount money.Money) (*models.Account, error)
	Activate(ctx context.Context, id string) (*models.Account, error)
	Freeze(ctx context.Context, id string) (*models.Account, error)
	Unfreeze(ctx context.Context, id string) (*models.Account, error)
	Close(ctx context.Context, id string) (*models.Account, error)
}

type OpenRequest struct {
	OwnerID       string
	AccountNumber string
	Type          models.AccountType
	Currency      string
	Verified      bool
}

type Config struct {
	DefaultCurrency string
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxBackoff      time.Duration
}

type service struct {
	repo    repositories.AccountRepository
	wallets WalletOpener
	config  Config
	logger  *zap.Logger
}

func NewService(repo repositories.AccountRepository, wallets WalletOpener, config Config, log *zap.Logger) Service {
	if repo == nil {
		panic("repo is required")
	}
	if wallets == nil {
		panic("wallet opener is required")
	}
	if config.DefaultCurrency == "" {
		config.DefaultCurrency = "IDR"
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 10
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = 5 * time.Millisecond
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 100 * time.Millisecond
	}
	return &service{
		repo:    repo,
		wallets: wallets,
		config:  config,
		logger:  logger.OrNop(log).Named("account"),
	}
}

func (s *service) Open(ctx context.Context, req OpenRequest) (*models.Account, error) {
	currency := req.Currency
	if currency == "" {
		currency = s.config.DefaultCurrency
	}
	number := req.AccountNumber
	if number == "" {
		number = newAccountNumber()
	}

	acc, err := models.NewAccount(uuid.NewString(), req.OwnerID, number, req.Type, currency, req.Verified)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, acc); err != nil {
		return nil, err
	}
	if _, err := s.wallets.CreateWallet(ctx, acc.ID, currency); err != nil {
		return nil, fmt.Errorf("failed to open wallet for account %s: %w", acc.ID, err)
	}

	s.logger.Info("account opened",
		zap.String("account_id", acc.ID),
		zap.String("type", string(acc.Type)),
		zap.String("status", string(acc.Status)))
	return acc, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	return s.repo.GetByNumber(ctx, accountNumber)
}

func (s *service) Credit(ctx context.Context, id string, amount money.Money) (*models.Account, error) {
	return s.mutate(ctx, "credit", id, func(a *models.Account) error { return a.Credit(amount) })
}

func (s *service) Debit(ctx context.Context, id string, amount money.Money) (*models.Account, error) {
	return s.mutate(ctx, "debit", id, func(a *models.Account) error { return a.Debit(amount) })
}

func (s *service) Activate(ctx context.Context, id string) (*models.Account, error) {
	return s.mutate(ctx, "activate", id, (*models.Account).Activate)
}

func (s *service) Freeze(ctx context.Context, id string) (*models.Account, error) {
	return s.mutate(ctx, "freeze", id, (*models.Account).Freeze)
}

func (s *service) Unfreeze(ctx context.Context, id string) (*models.Account, error) {
	return s.mutate(ctx, "unfreeze", id, (*models.Account).Unfreeze)
}

func (s *service) Close(ctx context.Context, id string) (*models.Account, error) {
	return s.mutate(ctx, "close", id, (*models.Account).Close)
}

// mutate re-reads the account on every attempt, so a retried debit is
// checked against the balance the winning writer left behind.
func (s *service) mutate(ctx context.Context, op, id string, fn func(*models.Account) error) (*models.Account, error) {
	for attempt := 0; attempt < s.config.MaxRetries; attempt++ {
		acc, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		expected := acc.Version
		if err := fn(acc); err != nil {
			return nil, err
		}

		err = s.repo.Update(ctx, acc, expected)
		if err == nil {
			return acc, nil
		}
		if !errors.Is(err, repositories.ErrVersionConflict) {
			return nil, err
		}
		if err := resilience.Sleep(ctx, resilience.Backoff(s.config.RetryBackoff, s.config.MaxBackoff, attempt)); err != nil {
			return nil, err
		}
	}
	s.logger.Warn("account version conflicts exhausted retries",
		zap.String("op", op),
		zap.String("account_id", id))
	return nil, ErrConcurrencyConflict
}

func newAccountNumber() string {
	id := uuid.New()
	return fmt.Sprintf("%010d", binary.BigEndian.Uint64(id[:8])%10_000_000_000)
}
