package models

import (
	"fmt"
	"time"

	"railpay/internal/money"
)

type ReservationState string

const (
	ReservationStateReserved  ReservationState = "RESERVED"
	ReservationStateCommitted ReservationState = "COMMITTED"
	ReservationStateReleased  ReservationState = "RELEASED"
)

// Reservation earmarks funds on a wallet for one transaction. It reaches
// COMMITTED or RELEASED exactly once.
type Reservation struct {
	ID            string           `json:"reservation_id"`
	WalletID      string           `json:"wallet_id"`
	TransactionID string           `json:"transaction_id"`
	Amount        money.Money      `json:"amount"`
	State         ReservationState `json:"state"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func (r *Reservation) IsTerminal() bool {
	return r.State != ReservationStateReserved
}

// Wallet splits an account's funds into balance and the part of it that is
// reserved. ReservedBalance never exceeds Balance.
type Wallet struct {
	AccountID       string      `json:"account_id"`
	Balance         money.Money `json:"balance"`
	ReservedBalance money.Money `json:"reserved_balance"`
	Version         int64       `json:"version"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func NewWallet(accountID, currency string) (*Wallet, error) {
	zero, err := money.Zero(currency)
	if err != nil {
		return nil, err
	}
	return &Wallet{
		AccountID:       accountID,
		Balance:         zero,
		ReservedBalance: zero,
		UpdatedAt:       time.Now().UTC(),
	}, nil
}

// Available is the only figure a new reservation may draw against.
func (w *Wallet) Available() money.Money {
	avail, err := w.Balance.Subtract(w.ReservedBalance)
	if err != nil {
		zero, _ := money.Zero(w.Balance.Currency())
		return zero
	}
	return avail
}

func (w *Wallet) touch() {
	w.Version++
	w.UpdatedAt = time.Now().UTC()
}

// Deposit increases the balance. It is used to fund wallets outside the
// reservation protocol.
func (w *Wallet) Deposit(amount money.Money) error {
	if !amount.IsPositive() {
		return ErrInvalidArgument
	}
	next, err := w.Balance.Add(amount)
	if err != nil {
		return err
	}
	w.Balance = next
	w.touch()
	return nil
}

// Reserve earmarks amount against the available balance. Balance itself is
// untouched.
func (w *Wallet) Reserve(reservationID, transactionID string, amount money.Money) (*Reservation, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidArgument
	}
	exceeds, err := amount.IsGreaterThan(w.Available())
	if err != nil {
		return nil, err
	}
	if exceeds {
		return nil, ErrInsufficientBalance.WithMessage(
			fmt.Sprintf("Insufficient balance: requested %s, available %s", amount, w.Available()))
	}
	reserved, err := w.ReservedBalance.Add(amount)
	if err != nil {
		return nil, err
	}
	w.ReservedBalance = reserved
	w.touch()
	return &Reservation{
		ID:            reservationID,
		WalletID:      w.AccountID,
		TransactionID: transactionID,
		Amount:        amount,
		State:         ReservationStateReserved,
		CreatedAt:     w.UpdatedAt,
		UpdatedAt:     w.UpdatedAt,
	}, nil
}

func (w *Wallet) checkReservation(r *Reservation) error {
	if r.WalletID != w.AccountID {
		return ErrReservationMismatch
	}
	if r.State != ReservationStateReserved {
		return ErrInvalidReservationState.WithMessage(
			fmt.Sprintf("reservation %s is already %s", r.ID, r.State))
	}
	return nil
}

// Commit settles a reservation: balance and reserved balance both drop by
// its amount.
func (w *Wallet) Commit(r *Reservation) error {
	if err := w.checkReservation(r); err != nil {
		return err
	}
	balance, err := w.Balance.Subtract(r.Amount)
	if err != nil {
		return err
	}
	reserved, err := w.ReservedBalance.Subtract(r.Amount)
	if err != nil {
		return err
	}
	w.Balance, w.ReservedBalance = balance, reserved
	w.touch()
	r.State = ReservationStateCommitted
	r.UpdatedAt = w.UpdatedAt
	return nil
}

// Release returns a reservation's amount to the available balance.
func (w *Wallet) Release(r *Reservation) error {
	if err := w.checkReservation(r); err != nil {
		return err
	}
	reserved, err := w.ReservedBalance.Subtract(r.Amount)
	if err != nil {
		return err
	}
	w.ReservedBalance = reserved
	w.touch()
	r.State = ReservationStateReleased
	r.UpdatedAt = w.UpdatedAt
	return nil
}
