package transfer

import (
	"context"

	"railpay/internal/models"
	"railpay/internal/money"
	"railpay/internal/services/idempotency"
	"railpay/internal/services/rail"
	"railpay/internal/services/wallet"
)

// TransactionPersistencePort stores the saga aggregate. Create is the
// first save of a transaction; Update saves a status change and appends it
// to the history.
type TransactionPersistencePort interface {
	Create(ctx context.Context, tx *models.Transaction) error
	Update(ctx context.Context, tx *models.Transaction, change models.StatusChange) error
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error)
}

// WalletServicePort addresses reservations by account and correlation id.
type WalletServicePort interface {
	ReserveBalance(ctx context.Context, accountID, correlationID string, amount money.Money) (wallet.ReserveResult, error)
	CommitBalance(ctx context.Context, accountID, correlationID string, amount money.Money) error
	ReleaseBalance(ctx context.Context, accountID, correlationID string, amount money.Money) error
}

type RailRegistry interface {
	Get(r models.RailType) (rail.Adapter, error)
	Validate(r models.RailType, amount money.Money) error
}

type TransactionEventPublisherPort interface {
	PublishTransactionInitiated(ctx context.Context, tx *models.Transaction) error
	PublishTransactionValidated(ctx context.Context, tx *models.Transaction) error
	PublishTransactionCompleted(ctx context.Context, tx *models.Transaction) error
	PublishTransactionFailed(ctx context.Context, tx *models.Transaction, reason string) error
}

type IdempotencyGuard interface {
	Begin(ctx context.Context, key string, fp idempotency.Fingerprint) (*idempotency.Decision, error)
}

type PendingQueue interface {
	Enqueue(ctx context.Context, p *models.PendingCommit) error
}

// AccountReader resolves the sender account before a transaction exists.
type AccountReader interface {
	Get(ctx context.Context, id string) (*models.Account, error)
}

// Service runs transfers and reads their outcome.
type Service interface {
	Transfer(ctx context.Context, req Request) (*Result, error)
	Get(ctx context.Context, id string) (*models.Transaction, error)
}
