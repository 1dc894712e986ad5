package models

import (
	"fmt"
	"time"

	"railpay/internal/money"
)

type RailType string

const (
	RailBIFAST RailType = "BIFAST"
	RailSKN    RailType = "SKN"
	RailRTGS   RailType = "RTGS"
	RailQRIS   RailType = "QRIS"
)

var railTypes = []RailType{RailBIFAST, RailSKN, RailRTGS, RailQRIS}

func RailTypes() []RailType {
	return append([]RailType(nil), railTypes...)
}

func (r RailType) Valid() bool {
	for _, t := range railTypes {
		if t == r {
			return true
		}
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusValidating TransactionStatus = "VALIDATING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
)

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

const TransactionTypeTransfer = "TRANSFER"

// Transaction is the saga aggregate of a single transfer.
type Transaction struct {
	ID                     string            `json:"transaction_id"`
	ReferenceNumber        string            `json:"reference_number"`
	SenderAccountID        string            `json:"sender_account_id"`
	RecipientAccountNumber string            `json:"recipient_account_number"`
	Amount                 money.Money       `json:"amount"`
	RailType               RailType          `json:"rail_type"`
	Type                   string            `json:"type"`
	Status                 TransactionStatus `json:"status"`
	IdempotencyKey         string            `json:"idempotency_key"`
	FailureReason          string            `json:"failure_reason,omitempty"`
	Description            string            `json:"description,omitempty"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}

// NewTransaction returns a PENDING transfer.
func NewTransaction(id, reference, sender, recipient string, amount money.Money, rail RailType, idempotencyKey string) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		ID:                     id,
		ReferenceNumber:        reference,
		SenderAccountID:        sender,
		RecipientAccountNumber: recipient,
		Amount:                 amount,
		RailType:               rail,
		Type:                   TransactionTypeTransfer,
		Status:                 TransactionStatusPending,
		IdempotencyKey:         idempotencyKey,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

var allowedTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:    {TransactionStatusValidating, TransactionStatusFailed},
	TransactionStatusValidating: {TransactionStatusCompleted, TransactionStatusFailed},
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to TransactionStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (t *Transaction) transition(to TransactionStatus) (StatusChange, error) {
	if !CanTransition(t.Status, to) {
		return StatusChange{}, ErrInvalidTransition.WithMessage(
			fmt.Sprintf("transaction %s cannot move from %s to %s", t.ID, t.Status, to))
	}
	change := StatusChange{
		TransactionID: t.ID,
		From:          t.Status,
		To:            to,
		At:            time.Now().UTC(),
	}
	t.Status = to
	t.UpdatedAt = change.At
	return change, nil
}

func (t *Transaction) MarkValidating() (StatusChange, error) {
	return t.transition(TransactionStatusValidating)
}

func (t *Transaction) Complete() (StatusChange, error) {
	change, err := t.transition(TransactionStatusCompleted)
	if err == nil {
		t.FailureReason = ""
	}
	return change, err
}

// Fail moves the transaction to FAILED. A FAILED transaction always has a
// reason.
func (t *Transaction) Fail(reason string) (StatusChange, error) {
	if reason == "" {
		reason = "Transfer failed"
	}
	change, err := t.transition(TransactionStatusFailed)
	if err != nil {
		return change, err
	}
	t.FailureReason = reason
	change.Reason = reason
	return change, nil
}
