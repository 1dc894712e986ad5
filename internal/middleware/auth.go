// Package middleware provides HTTP middleware components for the application.
// It includes authentication, authorization, and request logging for the
// fiber web framework.
package middleware

import (
	"strings"

	"railpay/internal/logger"
	"railpay/internal/models"
	"railpay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthMiddleware validates bearer JWTs and stores their claims in the
// request context.
type AuthMiddleware struct {
	secret string
	logger *zap.Logger
}

func NewAuthMiddleware(secret string, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secret: secret,
		logger: logger.OrNop(log).Named("auth"),
	}
}

func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
	}

	claims, err := utils.ParseToken(m.secret, strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		m.logger.Debug("token rejected", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}
	if len(claims.Permissions) == 0 {
		claims.Permissions = models.GetDefaultPermissions(claims.Role)
	}

	c.Locals(utils.ClaimsKey, claims)
	c.Locals("userID", claims.UserID)
	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		if claims.Role == models.RoleAdmin || claims.HasPermission(permission) {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}
}

// IsPrivileged reports whether the caller may act on accounts it does not own.
func IsPrivileged(claims *models.UserClaims) bool {
	return claims != nil && (claims.Role == models.RoleAdmin || claims.Role == models.RoleOperator)
}
