// Package repositories provides the persistence layer: gorm repositories
// backed by PostgreSQL and the contracts the services depend on.
package repositories

import (
	"context"
	"time"

	"railpay/internal/models"
)

type AccountRepository interface {
	Create(ctx context.Context, acc *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	// Update stores acc only if the stored version equals expectedVersion,
	// otherwise it fails ErrVersionConflict.
	Update(ctx context.Context, acc *models.Account, expectedVersion int64) error
}

type WalletRepository interface {
	Create(ctx context.Context, w *models.Wallet) error
	GetByAccountID(ctx context.Context, accountID string) (*models.Wallet, error)
	// Save stores w only if the stored version equals expectedVersion and,
	// in the same unit of work, upserts r when it is not nil. A second
	// reservation for the same wallet and transaction fails ErrDuplicateKey.
	Save(ctx context.Context, w *models.Wallet, expectedVersion int64, r *models.Reservation) error
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	FindReservation(ctx context.Context, accountID, transactionID string) (*models.Reservation, error)
}

type TransactionRepository interface {
	// Create inserts a new transaction with its first history entry. A
	// reused idempotency key fails ErrDuplicateKey.
	Create(ctx context.Context, tx *models.Transaction) error
	// Update stores tx and appends change to its history.
	Update(ctx context.Context, tx *models.Transaction, change models.StatusChange) error
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error)
	History(ctx context.Context, id string) ([]models.StatusChange, error)
	ListBySender(ctx context.Context, accountID string, limit, offset int) ([]*models.Transaction, error)
}

type PendingCommitRepository interface {
	Enqueue(ctx context.Context, p *models.PendingCommit) error
	Due(ctx context.Context, now time.Time, limit int) ([]*models.PendingCommit, error)
	MarkDone(ctx context.Context, id string) error
	Reschedule(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error
}
