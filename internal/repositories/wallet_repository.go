package repositories

import (
	"context"
	"fmt"

	"railpay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(ctx context.Context, w *models.Wallet) error {
	if err := r.db.WithContext(ctx).Create(newWalletRecord(w)).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicateKey.Wrap(err)
		}
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *walletRepository) GetByAccountID(ctx context.Context, accountID string) (*models.Wallet, error) {
	var rec walletRecord
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&rec).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return rec.toModel()
}

func (r *walletRepository) Save(ctx context.Context, w *models.Wallet, expectedVersion int64, res *models.Reservation) error {
	return r.executeInTransaction(ctx, func(tx *gorm.DB) error {
		rec := newWalletRecord(w)
		result := tx.Model(&walletRecord{}).
			Where("account_id = ? AND version = ?", w.AccountID, expectedVersion).
			Updates(map[string]interface{}{
				"balance":          rec.Balance,
				"reserved_balance": rec.ReservedBalance,
				"version":          rec.Version,
				"updated_at":       rec.UpdatedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update wallet: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}
		if res == nil {
			return nil
		}

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
		}).Create(newReservationRecord(res)).Error
		if err != nil {
			if isDuplicate(err) {
				return ErrDuplicateKey.Wrap(err)
			}
			return fmt.Errorf("failed to save reservation: %w", err)
		}
		return nil
	})
}

func (r *walletRepository) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	return r.firstReservation(ctx, r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *walletRepository) FindReservation(ctx context.Context, accountID, transactionID string) (*models.Reservation, error) {
	return r.firstReservation(ctx, r.db.WithContext(ctx).
		Where("wallet_id = ? AND transaction_id = ?", accountID, transactionID))
}

func (r *walletRepository) firstReservation(ctx context.Context, q *gorm.DB) (*models.Reservation, error) {
	var rec reservationRecord
	if err := q.First(&rec).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return rec.toModel()
}

func (r *walletRepository) executeInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
