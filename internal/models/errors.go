package models

import apperrors "railpay/internal/errors"

// Account errors
var (
	ErrIllegalState      = apperrors.New(apperrors.KindBusiness, "ILLEGAL_STATE", "account is not in a valid state for this operation")
	ErrInvalidArgument   = apperrors.New(apperrors.KindValidation, "INVALID_ARGUMENT", "amount must be greater than zero")
	ErrInsufficientFunds = apperrors.New(apperrors.KindBusiness, "INSUFFICIENT_FUNDS", "Insufficient funds")
)

// Wallet errors
var (
	ErrInsufficientBalance     = apperrors.New(apperrors.KindBusiness, "INSUFFICIENT_BALANCE", "Insufficient balance")
	ErrInvalidReservationState = apperrors.New(apperrors.KindBusiness, "INVALID_RESERVATION_STATE", "reservation is no longer reserved")
	ErrReservationMismatch     = apperrors.New(apperrors.KindValidation, "RESERVATION_MISMATCH", "reservation does not belong to this wallet")
)

// Transaction errors
var (
	ErrInvalidTransition = apperrors.New(apperrors.KindConflict, "INVALID_TRANSITION", "invalid transaction status transition")
)
