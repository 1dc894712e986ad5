// Package events publishes transaction lifecycle events to a message broker.
package events

import (
	"time"

	"railpay/internal/models"
)

type EventType string

const (
	TransactionInitiated EventType = "TRANSACTION_INITIATED"
	TransactionValidated EventType = "TRANSACTION_VALIDATED"
	TransactionCompleted EventType = "TRANSACTION_COMPLETED"
	TransactionFailed    EventType = "TRANSACTION_FAILED"
)

var topicSuffix = map[EventType]string{
	TransactionInitiated: "initiated",
	TransactionValidated: "validated",
	TransactionCompleted: "completed",
	TransactionFailed:    "failed",
}

// Topic returns "<prefix>.transactions.<stage>".
func Topic(prefix string, t EventType) string {
	return prefix + ".transactions." + topicSuffix[t]
}

// Event is the payload of every transaction event.
type Event struct {
	EventID            string    `json:"eventId"`
	EventType          EventType `json:"eventType"`
	TransactionID      string    `json:"transactionId"`
	ReferenceNumber    string    `json:"referenceNumber"`
	SenderAccountID    string    `json:"senderAccountId"`
	RecipientAccountID string    `json:"recipientAccountId"`
	Amount             string    `json:"amount"`
	Currency           string    `json:"currency"`
	Type               string    `json:"type"`
	Status             string    `json:"status"`
	RailType           string    `json:"railType"`
	FailureReason      string    `json:"failureReason,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

func newEvent(id string, t EventType, tx *models.Transaction, reason string) Event {
	return Event{
		EventID:            id,
		EventType:          t,
		TransactionID:      tx.ID,
		ReferenceNumber:    tx.ReferenceNumber,
		SenderAccountID:    tx.SenderAccountID,
		RecipientAccountID: tx.RecipientAccountNumber,
		Amount:             tx.Amount.Amount().StringFixed(2),
		Currency:           tx.Amount.Currency(),
		Type:               tx.Type,
		Status:             string(tx.Status),
		RailType:           string(tx.RailType),
		FailureReason:      reason,
		Timestamp:          time.Now().UTC(),
	}
}
