package repositories

import (
	"context"
	"fmt"

	"railpay/internal/models"

	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(newTransactionRecord(t)).Error; err != nil {
			if isDuplicate(err) {
				return ErrDuplicateKey.Wrap(err)
			}
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		if err := tx.Create(newStatusHistoryRecord(models.Initial(t))).Error; err != nil {
			return fmt.Errorf("failed to append status history: %w", err)
		}
		return nil
	})
}

func (r *transactionRepository) Update(ctx context.Context, t *models.Transaction, change models.StatusChange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := newTransactionRecord(t)
		result := tx.Model(&transactionRecord{}).
			Where("id = ?", t.ID).
			Updates(map[string]interface{}{
				"status":         rec.Status,
				"failure_reason": rec.FailureReason,
				"updated_at":     rec.UpdatedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update transaction: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTransactionNotFound
		}
		if err := tx.Create(newStatusHistoryRecord(change)).Error; err != nil {
			return fmt.Errorf("failed to append status history: %w", err)
		}
		return nil
	})
}

func (r *transactionRepository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *transactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error) {
	return r.first(ctx, "idempotency_key = ?", key)
}

func (r *transactionRepository) first(ctx context.Context, query string, arg interface{}) (*models.Transaction, error) {
	var rec transactionRecord
	if err := r.db.WithContext(ctx).Where(query, arg).First(&rec).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return rec.toModel()
}

func (r *transactionRepository) History(ctx context.Context, id string) ([]models.StatusChange, error) {
	var recs []statusHistoryRecord
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", id).
		Order("id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	out := make([]models.StatusChange, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toModel())
	}
	return out, nil
}

func (r *transactionRepository) ListBySender(ctx context.Context, accountID string, limit, offset int) ([]*models.Transaction, error) {
	var recs []transactionRecord
	err := r.db.WithContext(ctx).
		Where("sender_account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	out := make([]*models.Transaction, 0, len(recs))
	for i := range recs {
		t, err := recs[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
