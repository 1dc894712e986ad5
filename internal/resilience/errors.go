package resilience

import apperrors "railpay/internal/errors"

var (
	ErrTimeout     = apperrors.New(apperrors.KindInternal, "DEPENDENCY_TIMEOUT", "dependency call timed out")
	ErrCircuitOpen = apperrors.New(apperrors.KindInternal, "DEPENDENCY_UNAVAILABLE", "dependency is unavailable (circuit open)")
)
