package utils

import (
	apperrors "railpay/internal/errors"
	"railpay/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ClaimsKey is the Fiber locals key the auth middleware stores claims under.
const ClaimsKey = "claims"

var (
	ErrClaimsMissing = apperrors.New(apperrors.KindUnauthorized, "CLAIMS_MISSING", "request is not authenticated")
	ErrClaimsInvalid = apperrors.New(apperrors.KindUnauthorized, "CLAIMS_INVALID", "request carries malformed claims")
)

// GetUserClaims returns the claims the auth middleware stored for this request.
func GetUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	v := c.Locals(ClaimsKey)
	if v == nil {
		return nil, ErrClaimsMissing
	}
	claims, ok := v.(*models.UserClaims)
	if !ok || claims == nil {
		return nil, ErrClaimsInvalid
	}
	return claims, nil
}
