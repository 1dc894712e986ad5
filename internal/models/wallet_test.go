package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fundedWallet(t *testing.T, amount string) *Wallet {
	t.Helper()
	w, err := NewWallet("acc-1", "IDR")
	require.NoError(t, err)
	require.NoError(t, w.Deposit(idr(amount)))
	return w
}

func TestWallet_ReserveDrawsOnAvailable(t *testing.T) {
	w := fundedWallet(t, "1000")

	r1, err := w.Reserve("r1", "tx1", idr("600"))
	require.NoError(t, err)
	assert.Equal(t, ReservationStateReserved, r1.State)
	assert.Equal(t, "1000.00", w.Balance.Amount().StringFixed(2))
	assert.Equal(t, "400.00", w.Available().Amount().StringFixed(2))

	_, err = w.Reserve("r2", "tx2", idr("400.01"))
	assert.True(t, errors.Is(err, ErrInsufficientBalance))
	assert.Equal(t, "600.00", w.ReservedBalance.Amount().StringFixed(2))

	_, err = w.Reserve("r3", "tx3", idr("400"))
	require.NoError(t, err)
	assert.True(t, w.Available().IsZero())
}

func TestWallet_Commit(t *testing.T) {
	w := fundedWallet(t, "1000")
	r, err := w.Reserve("r1", "tx1", idr("250"))
	require.NoError(t, err)

	require.NoError(t, w.Commit(r))
	assert.Equal(t, ReservationStateCommitted, r.State)
	assert.Equal(t, "750.00", w.Balance.Amount().StringFixed(2))
	assert.True(t, w.ReservedBalance.IsZero())

	assert.True(t, errors.Is(w.Commit(r), ErrInvalidReservationState))
	assert.True(t, errors.Is(w.Release(r), ErrInvalidReservationState))
	assert.Equal(t, "750.00", w.Balance.Amount().StringFixed(2))
}

func TestWallet_Release(t *testing.T) {
	w := fundedWallet(t, "1000")
	r, err := w.Reserve("r1", "tx1", idr("250"))
	require.NoError(t, err)

	require.NoError(t, w.Release(r))
	assert.Equal(t, ReservationStateReleased, r.State)
	assert.Equal(t, "1000.00", w.Balance.Amount().StringFixed(2))
	assert.Equal(t, "1000.00", w.Available().Amount().StringFixed(2))

	assert.True(t, errors.Is(w.Release(r), ErrInvalidReservationState))
	assert.True(t, errors.Is(w.Commit(r), ErrInvalidReservationState))
}

func TestWallet_ForeignReservation(t *testing.T) {
	w := fundedWallet(t, "10")
	other := &Reservation{ID: "r", WalletID: "acc-9", Amount: idr("1"), State: ReservationStateReserved}
	assert.True(t, errors.Is(w.Commit(other), ErrReservationMismatch))
}
