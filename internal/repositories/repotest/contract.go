// Package repotest checks that a repository implementation honours the
// contracts declared in package repositories.
package repotest

import (
	"context"
	"testing"
	"time"

	"railpay/internal/models"
	"railpay/internal/money"
	"railpay/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idr(s string) money.Money { return money.MustParse(s, "IDR") }

func AccountRepository(t *testing.T, repo repositories.AccountRepository) {
	ctx := context.Background()
	acc, err := models.NewAccount(uuid.NewString(), "owner-1", uuid.NewString()[:20], models.AccountTypeSavings, "IDR", true)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, acc))
	assert.ErrorIs(t, repo.Create(ctx, acc), repositories.ErrDuplicateKey)

	got, err := repo.GetByNumber(ctx, acc.AccountNumber)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	stale := *got
	require.NoError(t, got.Credit(idr("100000")))
	require.NoError(t, repo.Update(ctx, got, stale.Version))

	require.NoError(t, stale.Credit(idr("1")))
	assert.ErrorIs(t, repo.Update(ctx, &stale, stale.Version-1), repositories.ErrVersionConflict)

	reloaded, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "100000.00", reloaded.Balance.Amount().StringFixed(2))
	assert.Equal(t, got.Version, reloaded.Version)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repositories.ErrAccountNotFound)
}

func WalletRepository(t *testing.T, repo repositories.WalletRepository) {
	ctx := context.Background()
	w, err := models.NewWallet(uuid.NewString(), "IDR")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, w))

	v := w.Version
	require.NoError(t, w.Deposit(idr("500")))
	require.NoError(t, repo.Save(ctx, w, v, nil))

	v = w.Version
	res, err := w.Reserve(uuid.NewString(), "TRX-1", idr("200"))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, w, v, res))

	assert.ErrorIs(t, repo.Save(ctx, w, v, nil), repositories.ErrVersionConflict)

	found, err := repo.FindReservation(ctx, w.AccountID, "TRX-1")
	require.NoError(t, err)
	assert.Equal(t, res.ID, found.ID)
	assert.Equal(t, models.ReservationStateReserved, found.State)

	v = w.Version
	dup, err := w.Reserve(uuid.NewString(), "TRX-1", idr("1"))
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, w, v, dup), repositories.ErrDuplicateKey)

	stored, err := repo.GetByAccountID(ctx, w.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "200.00", stored.ReservedBalance.Amount().StringFixed(2))

	require.NoError(t, stored.Commit(found))
	require.NoError(t, repo.Save(ctx, stored, stored.Version-1, found))

	committed, err := repo.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStateCommitted, committed.State)

	stored, err = repo.GetByAccountID(ctx, w.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "300.00", stored.Balance.Amount().StringFixed(2))
	assert.True(t, stored.ReservedBalance.IsZero())
}

func TransactionRepository(t *testing.T, repo repositories.TransactionRepository) {
	ctx := context.Background()
	key := uuid.NewString()
	tx := models.NewTransaction(uuid.NewString(), "TRX"+uuid.NewString()[:8], "acc-1", "999", idr("10"), models.RailBIFAST, key)
	require.NoError(t, repo.Create(ctx, tx))

	dup := models.NewTransaction(uuid.NewString(), "TRX"+uuid.NewString()[:8], "acc-1", "999", idr("10"), models.RailBIFAST, key)
	assert.ErrorIs(t, repo.Create(ctx, dup), repositories.ErrDuplicateKey)

	change, err := tx.MarkValidating()
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, tx, change))
	change, err = tx.Fail("rail down")
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, tx, change))

	got, err := repo.FindByIdempotencyKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, models.TransactionStatusFailed, got.Status)
	assert.Equal(t, "rail down", got.FailureReason)

	history, err := repo.History(ctx, tx.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.TransactionStatusPending, history[0].To)
	assert.Equal(t, models.TransactionStatusFailed, history[2].To)

	list, err := repo.ListBySender(ctx, "acc-1", 10, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	_, err = repo.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repositories.ErrTransactionNotFound)
}

func PendingCommitRepository(t *testing.T, repo repositories.PendingCommitRepository) {
	ctx := context.Background()
	now := time.Now().UTC()
	p := &models.PendingCommit{
		ID:            uuid.NewString(),
		TransactionID: uuid.NewString(),
		AccountID:     "acc-1",
		CorrelationID: "TRX-9",
		Action:        models.PendingActionCommit,
		Amount:        idr("10"),
		NextAttemptAt: now.Add(-time.Second),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, repo.Enqueue(ctx, p))
	again := *p
	again.ID = uuid.NewString()
	require.NoError(t, repo.Enqueue(ctx, &again))

	due, err := repo.Due(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, p.ID, due[0].ID)
	assert.Equal(t, models.PendingActionCommit, due[0].Action)

	require.NoError(t, repo.Reschedule(ctx, p.ID, 1, now.Add(time.Minute), "wallet down"))
	due, err = repo.Due(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	require.NoError(t, repo.MarkDone(ctx, p.ID))
	due, err = repo.Due(ctx, now.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	assert.ErrorIs(t, repo.MarkDone(ctx, uuid.NewString()), repositories.ErrPendingNotFound)
}
