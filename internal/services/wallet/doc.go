/*
Package wallet implements the balance reservation protocol.

A wallet holds a balance and the part of it that is reserved. Transfers
never debit a wallet directly; they go through three steps:

	// Earmark funds. Balance is untouched, reserved balance grows.
	res, err := svc.Reserve(ctx, accountID, amount, referenceNumber)

	// Settle: balance and reserved balance both shrink.
	_, err = svc.Commit(ctx, res.ID)

	// Or compensate: only the reserved balance shrinks.
	_, err = svc.Release(ctx, res.ID)

Every mutation is a compare-and-set on the wallet version, retried a
bounded number of times. Reserve is idempotent per account and
correlation id, so a retried call returns the existing reservation.

Port adapts the service to the reserveBalance/commitBalance/releaseBalance
contract used by the transfer saga. Its commit and release are no-ops for
a reservation already in the requested state.

Errors:
  - models.ErrInsufficientBalance: amount exceeds the available balance
  - models.ErrInvalidReservationState: reservation already committed or released
  - ErrConcurrencyConflict: version conflicts outlasted the retry budget
  - ErrReservationAmountMismatch: port call amount differs from the reservation
*/
package wallet
