// Package rail dispatches transfers to external clearing networks.
package rail

import (
	"context"
	"fmt"
	"time"

	apperrors "railpay/internal/errors"
	"railpay/internal/models"
	"railpay/internal/money"
)

var (
	ErrUnsupportedRail  = apperrors.New(apperrors.KindValidation, "UNSUPPORTED_RAIL", "unsupported rail type")
	ErrAmountOutOfRange = apperrors.New(apperrors.KindValidation, "AMOUNT_OUT_OF_RANGE", "amount is outside the rail limits")
	// ErrRailUnavailable covers transport failures, timeouts and 5xx answers.
	ErrRailUnavailable = apperrors.New(apperrors.KindExternalRailFailure, "RAIL_UNAVAILABLE", "rail is unavailable")
	// ErrRailRejected is a definitive refusal by the clearing network.
	ErrRailRejected = apperrors.New(apperrors.KindBusiness, "RAIL_REJECTED", "rail rejected the transfer")
)

type TransferRequest struct {
	TransactionID          string      `json:"transaction_id"`
	ReferenceNumber        string      `json:"reference_number"`
	SenderAccountID        string      `json:"sender_account_id"`
	RecipientAccountNumber string      `json:"recipient_account_number"`
	Amount                 money.Money `json:"amount"`
	Description            string      `json:"description,omitempty"`
}

func NewTransferRequest(tx *models.Transaction) TransferRequest {
	return TransferRequest{
		TransactionID:          tx.ID,
		ReferenceNumber:        tx.ReferenceNumber,
		SenderAccountID:        tx.SenderAccountID,
		RecipientAccountNumber: tx.RecipientAccountNumber,
		Amount:                 tx.Amount,
		Description:            tx.Description,
	}
}

// Receipt is the clearing network's acknowledgement of a transfer.
type Receipt struct {
	RailReference string    `json:"rail_reference"`
	Status        string    `json:"status"`
	AcceptedAt    time.Time `json:"accepted_at"`
}

// Adapter sends a transfer to one clearing network. Any failure, including
// a timeout, is returned as an error.
type Adapter interface {
	Rail() models.RailType
	InitiateTransfer(ctx context.Context, req TransferRequest) (*Receipt, error)
}

// BifastServicePort is the real-time BI-FAST network.
type BifastServicePort interface{ Adapter }

// SknServicePort is the SKN batch clearing network.
type SknServicePort interface{ Adapter }

// RgsServicePort is real-time gross settlement (RTGS).
type RgsServicePort interface{ Adapter }

// QrisServicePort is the QRIS QR payment network.
type QrisServicePort interface{ Adapter }

// Registry selects the adapter for a transaction's rail type.
type Registry struct {
	adapters map[models.RailType]Adapter
	limits   Limits
}

func NewRegistry(limits Limits, bifast BifastServicePort, skn SknServicePort, rtgs RgsServicePort, qris QrisServicePort) *Registry {
	r := &Registry{adapters: make(map[models.RailType]Adapter), limits: limits}
	for _, a := range []Adapter{bifast, skn, rtgs, qris} {
		if a != nil {
			r.adapters[a.Rail()] = a
		}
	}
	return r
}

func (r *Registry) Get(rail models.RailType) (Adapter, error) {
	a, ok := r.adapters[rail]
	if !ok {
		return nil, ErrUnsupportedRail.WithMessage(fmt.Sprintf("unsupported rail type %q", rail))
	}
	return a, nil
}

// Validate checks that the rail is served and the amount within its limits.
func (r *Registry) Validate(rail models.RailType, amount money.Money) error {
	if _, err := r.Get(rail); err != nil {
		return err
	}
	return r.limits.Check(rail, amount)
}
