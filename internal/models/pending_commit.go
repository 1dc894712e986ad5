package models

import (
	"time"

	"railpay/internal/money"
)

// PendingAction is the wallet call a pending entry still owes.
type PendingAction string

const (
	PendingActionCommit  PendingAction = "COMMIT"
	PendingActionRelease PendingAction = "RELEASE"
)

// PendingCommit records a reservation whose transaction reached a terminal
// state but whose wallet commit or release has not succeeded yet.
type PendingCommit struct {
	ID            string        `json:"id"`
	TransactionID string        `json:"transaction_id"`
	AccountID     string        `json:"account_id"`
	CorrelationID string        `json:"correlation_id"`
	Action        PendingAction `json:"action"`
	Amount        money.Money   `json:"amount"`
	Attempts      int           `json:"attempts"`
	NextAttemptAt time.Time     `json:"next_attempt_at"`
	LastError     string        `json:"last_error,omitempty"`
	Done          bool          `json:"done"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
