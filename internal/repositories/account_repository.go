package repositories

import (
	"context"
	"fmt"

	"railpay/internal/models"

	"gorm.io/gorm"
)

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, acc *models.Account) error {
	if err := r.db.WithContext(ctx).Create(newAccountRecord(acc)).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicateKey.Wrap(err)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *accountRepository) GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	return r.first(ctx, "account_number = ?", accountNumber)
}

func (r *accountRepository) first(ctx context.Context, query string, arg interface{}) (*models.Account, error) {
	var rec accountRecord
	if err := r.db.WithContext(ctx).Where(query, arg).First(&rec).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return rec.toModel()
}

func (r *accountRepository) Update(ctx context.Context, acc *models.Account, expectedVersion int64) error {
	rec := newAccountRecord(acc)
	result := r.db.WithContext(ctx).
		Model(&accountRecord{}).
		Where("id = ? AND version = ?", acc.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":     rec.Status,
			"balance":    rec.Balance,
			"version":    rec.Version,
			"updated_at": rec.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}
