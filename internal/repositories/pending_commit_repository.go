package repositories

import (
	"context"
	"fmt"
	"time"

	"railpay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type pendingCommitRepository struct {
	db *gorm.DB
}

func NewPendingCommitRepository(db *gorm.DB) PendingCommitRepository {
	return &pendingCommitRepository{db: db}
}

// Enqueue is a no-op when the transaction already has a pending commit.
func (r *pendingCommitRepository) Enqueue(ctx context.Context, p *models.PendingCommit) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "transaction_id"}}, DoNothing: true}).
		Create(newPendingCommitRecord(p)).Error
	if err != nil {
		return fmt.Errorf("failed to enqueue pending commit: %w", err)
	}
	return nil
}

func (r *pendingCommitRepository) Due(ctx context.Context, now time.Time, limit int) ([]*models.PendingCommit, error) {
	var recs []pendingCommitRecord
	err := r.db.WithContext(ctx).
		Where("done = ? AND next_attempt_at <= ?", false, now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load pending commits: %w", err)
	}
	out := make([]*models.PendingCommit, 0, len(recs))
	for i := range recs {
		p, err := recs[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *pendingCommitRepository) MarkDone(ctx context.Context, id string) error {
	return r.update(ctx, id, map[string]interface{}{
		"done":       true,
		"last_error": "",
		"updated_at": time.Now().UTC(),
	})
}

func (r *pendingCommitRepository) Reschedule(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error {
	return r.update(ctx, id, map[string]interface{}{
		"attempts":        attempts,
		"next_attempt_at": next,
		"last_error":      lastErr,
		"updated_at":      time.Now().UTC(),
	})
}

func (r *pendingCommitRepository) update(ctx context.Context, id string, values map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&pendingCommitRecord{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return fmt.Errorf("failed to update pending commit: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPendingNotFound
	}
	return nil
}

