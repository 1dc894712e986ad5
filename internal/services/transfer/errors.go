package transfer

import apperrors "railpay/internal/errors"

var (
	ErrInvalidRequest     = apperrors.New(apperrors.KindValidation, "INVALID_TRANSFER", "invalid transfer request")
	ErrSelfTransfer       = apperrors.New(apperrors.KindValidation, "SELF_TRANSFER", "cannot transfer to the sender account")
	ErrSenderNotActive    = apperrors.New(apperrors.KindBusiness, "SENDER_NOT_ACTIVE", "sender account is not active")
	ErrReservationFailed  = apperrors.New(apperrors.KindReservationFailure, "RESERVATION_FAILED", "Insufficient balance")
	ErrNotOwner           = apperrors.New(apperrors.KindBusiness, "NOT_ACCOUNT_OWNER", "sender account does not belong to the caller")
	ErrTransactionMissing = apperrors.New(apperrors.KindNotFound, "TRANSACTION_NOT_FOUND", "transaction not found")
)

const (
	reasonInsufficientBalance = "Insufficient balance"
	reasonWalletUnavailable   = "Wallet service unavailable"
)
