package reconciliation

import (
	"context"
	"errors"
	"testing"
	"time"

	"railpay/internal/models"
	"railpay/internal/money"
	"railpay/internal/repositories"
	"railpay/internal/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWallet struct {
	mock.Mock
}

func (m *MockWallet) CommitBalance(ctx context.Context, accountID, correlationID string, amount money.Money) error {
	return m.Called(accountID, correlationID, amount).Error(0)
}

func (m *MockWallet) ReleaseBalance(ctx context.Context, accountID, correlationID string, amount money.Money) error {
	return m.Called(accountID, correlationID, amount).Error(0)
}

var amount = money.MustParse("150000", "IDR")

func enqueue(t *testing.T, repo *memory.PendingCommitRepository, id, txID string, action models.PendingAction, at time.Time) {
	t.Helper()
	require.NoError(t, repo.Enqueue(context.Background(), &models.PendingCommit{
		ID:            id,
		TransactionID: txID,
		AccountID:     "acc-1",
		CorrelationID: "TRX-" + txID,
		Action:        action,
		Amount:        amount,
		NextAttemptAt: at,
		CreatedAt:     at,
		UpdatedAt:     at,
	}))
}

func TestWorker_RunOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	repo := memory.NewPendingCommitRepository()
	enqueue(t, repo, "p1", "tx1", models.PendingActionCommit, now.Add(-time.Minute))
	enqueue(t, repo, "p2", "tx2", models.PendingActionRelease, now.Add(-time.Hour))
	enqueue(t, repo, "p3", "tx3", models.PendingActionCommit, now.Add(time.Hour))

	w := &MockWallet{}
	w.On("CommitBalance", "acc-1", "TRX-tx1", amount).Return(nil).Once()
	w.On("ReleaseBalance", "acc-1", "TRX-tx2", amount).Return(repositories.ErrReservationNotFound).Once()

	worker := NewWorker(repo, w, Config{}, nil)
	worker.now = func() time.Time { return now }

	settled, err := worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, settled)
	w.AssertExpectations(t)

	due, err := repo.Due(ctx, now.Add(2*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "p3", due[0].ID)
}

func TestWorker_ReschedulesWithBackoff(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	repo := memory.NewPendingCommitRepository()
	enqueue(t, repo, "p1", "tx1", models.PendingActionCommit, now)

	w := &MockWallet{}
	w.On("CommitBalance", "acc-1", "TRX-tx1", amount).Return(errors.New("wallet down")).Twice()

	worker := NewWorker(repo, w, Config{BaseBackoff: time.Second, MaxBackoff: time.Minute}, nil)
	worker.now = func() time.Time { return now }

	settled, err := worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, settled)

	due, err := repo.Due(ctx, now.Add(time.Second), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].Attempts)
	assert.Equal(t, now.Add(time.Second), due[0].NextAttemptAt)
	assert.Equal(t, "wallet down", due[0].LastError)

	worker.now = func() time.Time { return now.Add(time.Second) }
	_, err = worker.RunOnce(ctx)
	require.NoError(t, err)
	due, err = repo.Due(ctx, now.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 2, due[0].Attempts)
	assert.Equal(t, now.Add(3*time.Second), due[0].NextAttemptAt)
}

func TestWorker_MissingReservationRetriedWithinGrace(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	repo := memory.NewPendingCommitRepository()
	enqueue(t, repo, "p1", "tx1", models.PendingActionRelease, now)

	w := &MockWallet{}
	w.On("ReleaseBalance", "acc-1", "TRX-tx1", amount).Return(repositories.ErrReservationNotFound).Once()
	w.On("ReleaseBalance", "acc-1", "TRX-tx1", amount).Return(nil).Once()

	worker := NewWorker(repo, w, Config{BaseBackoff: time.Second, ReleaseGrace: time.Minute}, nil)
	worker.now = func() time.Time { return now }

	settled, err := worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, settled)
	due, err := repo.Due(ctx, now.Add(time.Second), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].Attempts)

	// the reservation landed after the first attempt
	worker.now = func() time.Time { return now.Add(time.Second) }
	settled, err = worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)
	w.AssertExpectations(t)
}

func TestWorker_MissingReservationDoneAfterGrace(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	repo := memory.NewPendingCommitRepository()
	enqueue(t, repo, "p1", "tx1", models.PendingActionRelease, now)

	w := &MockWallet{}
	w.On("ReleaseBalance", "acc-1", "TRX-tx1", amount).Return(repositories.ErrReservationNotFound)

	worker := NewWorker(repo, w, Config{ReleaseGrace: time.Minute}, nil)
	worker.now = func() time.Time { return now.Add(2 * time.Minute) }

	settled, err := worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)
	due, err := repo.Due(ctx, now.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	repo := memory.NewPendingCommitRepository()
	enqueue(t, repo, "p1", "tx1", models.PendingActionCommit, time.Now().Add(-time.Minute))
	w := &MockWallet{}
	w.On("CommitBalance", "acc-1", "TRX-tx1", amount).Return(nil).Once()

	worker := NewWorker(repo, w, Config{Interval: 5 * time.Millisecond}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		due, _ := repo.Due(context.Background(), time.Now().Add(time.Hour), 10)
		return len(due) == 0
	}, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
