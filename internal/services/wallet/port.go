package wallet

import (
	"context"
	"errors"

	"railpay/internal/models"
	"railpay/internal/money"
)

// Port exposes the service through the account/correlation-id addressed
// contract the transfer saga consumes.
type Port struct {
	svc Service
}

func NewPort(svc Service) *Port {
	if svc == nil {
		panic("wallet service is required")
	}
	return &Port{svc: svc}
}

// ReserveBalance reports a refused reservation as a FAILED result rather
// than an error. Errors are reserved for infrastructure failures.
func (p *Port) ReserveBalance(ctx context.Context, accountID, correlationID string, amount money.Money) (ReserveResult, error) {
	res, err := p.svc.Reserve(ctx, accountID, amount, correlationID)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientBalance) {
			return ReserveResult{Status: ReservationFailed, Reason: models.ErrInsufficientBalance.Message}, nil
		}
		return ReserveResult{}, err
	}
	return ReserveResult{ReservationID: res.ID, Status: ReservationReserved}, nil
}

// CommitBalance commits the reservation made for correlationID. It is a
// no-op if that reservation is already committed.
func (p *Port) CommitBalance(ctx context.Context, accountID, correlationID string, amount money.Money) error {
	return p.finish(ctx, accountID, correlationID, amount, models.ReservationStateCommitted, p.svc.Commit)
}

// ReleaseBalance releases the reservation made for correlationID. It is a
// no-op if that reservation is already released.
func (p *Port) ReleaseBalance(ctx context.Context, accountID, correlationID string, amount money.Money) error {
	return p.finish(ctx, accountID, correlationID, amount, models.ReservationStateReleased, p.svc.Release)
}

func (p *Port) finish(
	ctx context.Context,
	accountID, correlationID string,
	amount money.Money,
	target models.ReservationState,
	apply func(context.Context, string) (*models.Reservation, error),
) error {
	res, err := p.svc.FindReservation(ctx, accountID, correlationID)
	if err != nil {
		return err
	}
	if !res.Amount.Equal(amount) {
		return ErrReservationAmountMismatch
	}
	if res.State == target {
		return nil
	}

	_, err = apply(ctx, res.ID)
	if errors.Is(err, models.ErrInvalidReservationState) {
		// A retried call may race its own earlier attempt.
		current, getErr := p.svc.GetReservation(ctx, res.ID)
		if getErr == nil && current.State == target {
			return nil
		}
	}
	return err
}
