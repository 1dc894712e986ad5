package models

import "time"

// StatusChange is one append-only entry of a transaction's status history.
type StatusChange struct {
	TransactionID string            `json:"transaction_id"`
	From          TransactionStatus `json:"from"`
	To            TransactionStatus `json:"to"`
	Reason        string            `json:"reason,omitempty"`
	At            time.Time         `json:"at"`
}

// Initial is the history entry recorded when a transaction is first stored.
func Initial(t *Transaction) StatusChange {
	return StatusChange{TransactionID: t.ID, To: t.Status, At: t.CreatedAt}
}
