package repositories

import apperrors "railpay/internal/errors"

var (
	ErrAccountNotFound     = apperrors.New(apperrors.KindNotFound, "ACCOUNT_NOT_FOUND", "account not found")
	ErrWalletNotFound      = apperrors.New(apperrors.KindNotFound, "WALLET_NOT_FOUND", "wallet not found")
	ErrReservationNotFound = apperrors.New(apperrors.KindNotFound, "RESERVATION_NOT_FOUND", "reservation not found")
	ErrTransactionNotFound = apperrors.New(apperrors.KindNotFound, "TRANSACTION_NOT_FOUND", "transaction not found")
	ErrPendingNotFound     = apperrors.New(apperrors.KindNotFound, "PENDING_COMMIT_NOT_FOUND", "pending commit not found")

	// ErrVersionConflict is returned by compare-and-set writes when the
	// stored version no longer matches the expected one.
	ErrVersionConflict = apperrors.New(apperrors.KindConcurrencyConflict, "VERSION_CONFLICT", "record was modified concurrently")
	ErrDuplicateKey    = apperrors.New(apperrors.KindConflict, "DUPLICATE_KEY", "record already exists")
)
