package account

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"railpay/internal/models"
	"railpay/internal/money"
	"railpay/internal/repositories/memory"
	"railpay/internal/services/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idr(s string) money.Money { return money.MustParse(s, "IDR") }

func newService(t *testing.T) (Service, wallet.Service) {
	t.Helper()
	wallets := wallet.NewService(memory.NewWalletRepository(), wallet.WalletConfig{}, nil, nil)
	svc := NewService(memory.NewAccountRepository(), wallets, Config{RetryBackoff: time.Microsecond, MaxBackoff: time.Millisecond}, nil)
	return svc, wallets
}

func TestOpen_CreatesWallet(t *testing.T) {
	ctx := context.Background()
	svc, wallets := newService(t)

	acc, err := svc.Open(ctx, OpenRequest{OwnerID: "user-1", Type: models.AccountTypeSavings})
	require.NoError(t, err)
	assert.Len(t, acc.AccountNumber, 10)
	assert.Equal(t, models.AccountStatusPendingVerification, acc.Status)
	assert.Equal(t, "IDR", acc.Balance.Currency())

	w, err := wallets.GetWallet(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())

	byNumber, err := svc.GetByNumber(ctx, acc.AccountNumber)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, byNumber.ID)
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	acc, err := svc.Open(ctx, OpenRequest{OwnerID: "user-1", Type: models.AccountTypePocket})
	require.NoError(t, err)

	_, err = svc.Credit(ctx, acc.ID, idr("5"))
	assert.ErrorIs(t, err, models.ErrIllegalState)

	acc, err = svc.Activate(ctx, acc.ID)
	require.NoError(t, err)
	acc, err = svc.Credit(ctx, acc.ID, idr("5"))
	require.NoError(t, err)

	_, err = svc.Close(ctx, acc.ID)
	assert.EqualError(t, err, "Cannot close account with non-zero balance")

	_, err = svc.Freeze(ctx, acc.ID)
	require.NoError(t, err)
	_, err = svc.Unfreeze(ctx, acc.ID)
	require.NoError(t, err)
	_, err = svc.Debit(ctx, acc.ID, idr("5"))
	require.NoError(t, err)

	acc, err = svc.Close(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusClosed, acc.Status)
}

func TestConcurrentDebits_AtMostOneSucceeds(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	acc, err := svc.Open(ctx, OpenRequest{OwnerID: "user-1", Type: models.AccountTypeSavings, Verified: true})
	require.NoError(t, err)
	_, err = svc.Credit(ctx, acc.ID, idr("100000"))
	require.NoError(t, err)

	for round := 0; round < 20; round++ {
		var wg sync.WaitGroup
		errs := make([]error, 2)
		start := make(chan struct{})
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, errs[i] = svc.Debit(ctx, acc.ID, idr("60000"))
			}(i)
		}
		close(start)
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.True(t, errors.Is(err, models.ErrInsufficientFunds), err)
		}
		assert.Equal(t, 1, succeeded)

		got, err := svc.Get(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, "40000.00", got.Balance.Amount().StringFixed(2))

		_, err = svc.Credit(ctx, acc.ID, idr("60000"))
		require.NoError(t, err)
	}
}
