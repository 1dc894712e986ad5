package memory

import (
	"testing"

	"railpay/internal/repositories/repotest"
)

func TestAccountRepository(t *testing.T) {
	repotest.AccountRepository(t, NewAccountRepository())
}

func TestWalletRepository(t *testing.T) {
	repotest.WalletRepository(t, NewWalletRepository())
}

func TestTransactionRepository(t *testing.T) {
	repotest.TransactionRepository(t, NewTransactionRepository())
}

func TestPendingCommitRepository(t *testing.T) {
	repotest.PendingCommitRepository(t, NewPendingCommitRepository())
}
