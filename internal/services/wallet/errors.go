package wallet

import apperrors "railpay/internal/errors"

// Service errors
var (
	ErrConcurrencyConflict       = apperrors.New(apperrors.KindBusiness, "WALLET_CONCURRENCY_CONFLICT", "wallet is busy, please retry")
	ErrReservationAmountMismatch = apperrors.New(apperrors.KindValidation, "RESERVATION_AMOUNT_MISMATCH", "amount does not match the reservation")
	ErrCorrelationIDRequired     = apperrors.New(apperrors.KindValidation, "CORRELATION_ID_REQUIRED", "correlation id is required")
)
