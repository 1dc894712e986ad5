package transfer

import (
	"time"

	"railpay/internal/models"
	"railpay/internal/money"
	"railpay/internal/resilience"
)

// Request is a client's transfer order.
type Request struct {
	IdempotencyKey         string
	SenderAccountID        string
	RecipientAccountNumber string
	Amount                 money.Money
	RailType               models.RailType
	Description            string
	// RequestedBy, when set, must own the sender account.
	RequestedBy string
}

// Result is the outcome of Transfer. Replayed is true when the transaction
// was recorded by an earlier request with the same idempotency key.
type Result struct {
	TransactionID   string                   `json:"transaction_id"`
	ReferenceNumber string                   `json:"reference_number"`
	Status          models.TransactionStatus `json:"status"`
	FailureReason   string                   `json:"failure_reason,omitempty"`
	Replayed        bool                     `json:"replayed"`
	Transaction     *models.Transaction      `json:"transaction"`
}

func newResult(tx *models.Transaction, replayed bool) *Result {
	return &Result{
		TransactionID:   tx.ID,
		ReferenceNumber: tx.ReferenceNumber,
		Status:          tx.Status,
		FailureReason:   tx.FailureReason,
		Replayed:        replayed,
		Transaction:     tx,
	}
}

// Policies wraps each dependency call. Nil policies call straight through.
// Event publishing is guarded by the publisher's own policy.
type Policies struct {
	Wallet      *resilience.Policy
	Persistence *resilience.Policy
	Rails       map[models.RailType]*resilience.Policy
}

type Dependencies struct {
	Transactions TransactionPersistencePort
	Wallet       WalletServicePort
	Rails        RailRegistry
	Events       TransactionEventPublisherPort
	Guard        IdempotencyGuard
	Pending      PendingQueue
	Accounts     AccountReader
}

type Config struct {
	ReferencePrefix string
	// RetryDelay is when the first reconciliation attempt of a queued
	// commit or release is due.
	RetryDelay time.Duration
}
