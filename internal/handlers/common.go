// Package handlers exposes the services over HTTP.
package handlers

import (
	"context"

	"railpay/internal/middleware"
	"railpay/internal/models"
	"railpay/internal/repositories"
	"railpay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AccountGetter loads an account for ownership checks.
type AccountGetter interface {
	Get(ctx context.Context, id string) (*models.Account, error)
}

// authorizeAccount loads the account and checks the caller may act on it.
// Accounts of other owners are reported as missing.
func authorizeAccount(c *fiber.Ctx, accounts AccountGetter, id string) (*models.Account, error) {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return nil, fiber.ErrUnauthorized
	}
	acc, err := accounts.Get(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if !middleware.IsPrivileged(claims) && !acc.IsOwnedBy(claims.UserID) {
		return nil, repositories.ErrAccountNotFound
	}
	return acc, nil
}
