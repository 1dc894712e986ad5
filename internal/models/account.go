package models

import (
	"fmt"
	"strings"
	"time"

	"railpay/internal/money"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountStatusActive              AccountStatus = "ACTIVE"
	AccountStatusFrozen              AccountStatus = "FROZEN"
	AccountStatusClosed              AccountStatus = "CLOSED"
	AccountStatusPendingVerification AccountStatus = "PENDING_VERIFICATION"
)

type AccountType string

const (
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypePocket   AccountType = "POCKET"
)

// MaxBalance is the ceiling any credit must respect.
var MaxBalance = decimal.RequireFromString("999999999999.00")

var minimumBalances = map[AccountType]decimal.Decimal{
	AccountTypeSavings:  decimal.NewFromInt(10000),
	AccountTypeChecking: decimal.NewFromInt(50000),
	AccountTypePocket:   decimal.Zero,
}

// MinimumBalance returns the floor a debit may not cross for the account type.
func MinimumBalance(t AccountType) decimal.Decimal {
	return minimumBalances[t]
}

// ValidAccountType reports whether t is a known account type.
func ValidAccountType(t AccountType) bool {
	_, ok := minimumBalances[t]
	return ok
}

// Account is the ledger-side aggregate of a customer account.
// Version increments on every successful mutation and guards
// compare-and-set writes in the repositories.
type Account struct {
	ID            string        `json:"id"`
	OwnerID       string        `json:"owner_id"`
	AccountNumber string        `json:"account_number"`
	Type          AccountType   `json:"account_type"`
	Status        AccountStatus `json:"status"`
	Balance       money.Money   `json:"balance"`
	Version       int64         `json:"version"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewAccount opens an account with a zero balance. Unverified accounts start
// in PENDING_VERIFICATION and must be activated before they can move funds.
func NewAccount(id, ownerID, accountNumber string, accountType AccountType, currency string, verified bool) (*Account, error) {
	if !ValidAccountType(accountType) {
		return nil, ErrInvalidArgument.WithMessage(fmt.Sprintf("unknown account type %q", accountType))
	}
	zero, err := money.Zero(currency)
	if err != nil {
		return nil, err
	}
	status := AccountStatusPendingVerification
	if verified {
		status = AccountStatusActive
	}
	now := time.Now().UTC()
	return &Account{
		ID:            id,
		OwnerID:       ownerID,
		AccountNumber: accountNumber,
		Type:          accountType,
		Status:        status,
		Balance:       zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (a *Account) touch() {
	a.Version++
	a.UpdatedAt = time.Now().UTC()
}

func (a *Account) requireActive() error {
	if a.Status != AccountStatusActive {
		return ErrIllegalState.WithMessage(fmt.Sprintf("account %s is %s", a.ID, a.Status))
	}
	return nil
}

// Credit adds amount to the balance. On any failure the account is unchanged.
func (a *Account) Credit(amount money.Money) error {
	if err := a.requireActive(); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return ErrInvalidArgument
	}
	next, err := a.Balance.Add(amount)
	if err != nil {
		return err
	}
	if next.Amount().GreaterThan(MaxBalance) {
		return ErrInsufficientFunds.WithMessage("Credit would exceed maximum balance limit")
	}
	a.Balance = next
	a.touch()
	return nil
}

// Debit removes amount from the balance, keeping it at or above the
// minimum balance of the account type. On any failure the account is unchanged.
func (a *Account) Debit(amount money.Money) error {
	if err := a.requireActive(); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return ErrInvalidArgument
	}
	exceeds, err := amount.IsGreaterThan(a.Balance)
	if err != nil {
		return err
	}
	if exceeds {
		return ErrInsufficientFunds
	}
	next, err := a.Balance.Subtract(amount)
	if err != nil {
		return err
	}
	if next.Amount().LessThan(MinimumBalance(a.Type)) {
		return ErrInsufficientFunds.WithMessage("Debit would violate minimum balance requirement")
	}
	a.Balance = next
	a.touch()
	return nil
}

func (a *Account) Activate() error {
	if a.Status != AccountStatusPendingVerification {
		return ErrIllegalState.WithMessage("Only accounts pending verification can be activated")
	}
	a.Status = AccountStatusActive
	a.touch()
	return nil
}

func (a *Account) Freeze() error {
	if a.Status != AccountStatusActive {
		return ErrIllegalState.WithMessage("Only active accounts can be frozen")
	}
	a.Status = AccountStatusFrozen
	a.touch()
	return nil
}

func (a *Account) Unfreeze() error {
	if a.Status != AccountStatusFrozen {
		return ErrIllegalState.WithMessage("Only frozen accounts can be unfrozen")
	}
	a.Status = AccountStatusActive
	a.touch()
	return nil
}

func (a *Account) Close() error {
	if a.Status != AccountStatusActive {
		return ErrIllegalState.WithMessage("Only active accounts can be closed")
	}
	if !a.Balance.IsZero() {
		return ErrIllegalState.WithMessage("Cannot close account with non-zero balance")
	}
	a.Status = AccountStatusClosed
	a.touch()
	return nil
}

// IsOwnedBy is false whenever either side of the comparison is missing.
func (a *Account) IsOwnedBy(userID string) bool {
	if a == nil {
		return false
	}
	owner := strings.TrimSpace(a.OwnerID)
	userID = strings.TrimSpace(userID)
	if owner == "" || userID == "" {
		return false
	}
	return owner == userID
}
