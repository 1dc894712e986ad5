package utils

import (
	"net/http/httptest"
	"testing"

	apperrors "railpay/internal/errors"
	"railpay/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserClaims(t *testing.T) {
	tests := []struct {
		name   string
		locals interface{}
		want   error
	}{
		{"missing", nil, ErrClaimsMissing},
		{"wrong type", "user-1", ErrClaimsInvalid},
		{"nil pointer", (*models.UserClaims)(nil), ErrClaimsInvalid},
		{"present", &models.UserClaims{UserID: "user-1"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			var got error
			app.Get("/", func(c *fiber.Ctx) error {
				if tt.locals != nil {
					c.Locals(ClaimsKey, tt.locals)
				}
				claims, err := GetUserClaims(c)
				got = err
				if err == nil {
					assert.Equal(t, "user-1", claims.UserID)
				}
				return c.SendStatus(fiber.StatusNoContent)
			})

			_, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
			assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(got))
		})
	}
}
