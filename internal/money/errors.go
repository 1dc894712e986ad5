package money

import apperrors "railpay/internal/errors"

var (
	ErrAmountRequired     = apperrors.New(apperrors.KindValidation, "AMOUNT_REQUIRED", "amount is required")
	ErrInvalidAmount      = apperrors.New(apperrors.KindValidation, "INVALID_AMOUNT", "amount must not have more than 2 fractional digits")
	ErrInvalidCurrency    = apperrors.New(apperrors.KindValidation, "INVALID_CURRENCY", "currency must be an ISO-4217 code")
	ErrCurrencyMismatch   = apperrors.New(apperrors.KindValidation, "CURRENCY_MISMATCH", "currency mismatch")
	ErrNegativeResult     = apperrors.New(apperrors.KindBusiness, "NEGATIVE_RESULT", "operation would produce a negative amount")
	ErrNegativeMultiplier = apperrors.New(apperrors.KindValidation, "NEGATIVE_MULTIPLIER", "multiplier must not be negative")
	ErrInvalidDivisor     = apperrors.New(apperrors.KindValidation, "INVALID_DIVISOR", "divisor must not be zero")
)
