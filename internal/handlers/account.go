package handlers

import (
	"context"
	"strings"

	"railpay/internal/middleware"
	"railpay/internal/models"
	"railpay/internal/money"
	"railpay/internal/services/account"
	"railpay/internal/utils"
	"railpay/internal/utils/response"
	"railpay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type AccountHandler struct {
	service  account.Service
	currency string
}

func NewAccountHandler(s account.Service, defaultCurrency string) *AccountHandler {
	return &AccountHandler{service: s, currency: defaultCurrency}
}

type openAccountRequest struct {
	AccountType   string `json:"account_type" validate:"required,account_type"`
	Currency      string `json:"currency" validate:"omitempty,iso4217"`
	AccountNumber string `json:"account_number" validate:"omitempty,numeric,len=10"`
	OwnerID       string `json:"owner_id"`
}

type amountRequest struct {
	Amount   string `json:"amount" validate:"required,amount"`
	Currency string `json:"currency" validate:"omitempty,iso4217"`
}

// Open handles POST /api/v1/accounts. Customers open accounts for
// themselves pending verification; operators may open verified accounts
// for any owner.
func (h *AccountHandler) Open(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}
	var req openAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return response.DomainError(c, err)
	}

	open := account.OpenRequest{
		OwnerID:       claims.UserID,
		AccountNumber: req.AccountNumber,
		Type:          models.AccountType(strings.ToUpper(req.AccountType)),
		Currency:      req.Currency,
	}
	if open.Currency == "" {
		open.Currency = h.currency
	}
	if middleware.IsPrivileged(claims) {
		open.Verified = true
		if req.OwnerID != "" {
			open.OwnerID = req.OwnerID
		}
	}

	acc, err := h.service.Open(c.UserContext(), open)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Created(c, "account opened", acc)
}

// Get handles GET /api/v1/accounts/:id.
func (h *AccountHandler) Get(c *fiber.Ctx) error {
	acc, err := authorizeAccount(c, h.service, c.Params("id"))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "account found", acc)
}

// Credit handles POST /api/v1/accounts/:id/credit.
func (h *AccountHandler) Credit(c *fiber.Ctx) error {
	return h.move(c, "account credited", h.service.Credit)
}

// Debit handles POST /api/v1/accounts/:id/debit.
func (h *AccountHandler) Debit(c *fiber.Ctx) error {
	return h.move(c, "account debited", h.service.Debit)
}

func (h *AccountHandler) Activate(c *fiber.Ctx) error {
	return h.lifecycle(c, "account activated", h.service.Activate)
}

func (h *AccountHandler) Freeze(c *fiber.Ctx) error {
	return h.lifecycle(c, "account frozen", h.service.Freeze)
}

func (h *AccountHandler) Unfreeze(c *fiber.Ctx) error {
	return h.lifecycle(c, "account unfrozen", h.service.Unfreeze)
}

// Close lets owners close their own accounts.
func (h *AccountHandler) Close(c *fiber.Ctx) error {
	acc, err := authorizeAccount(c, h.service, c.Params("id"))
	if err != nil {
		return response.DomainError(c, err)
	}
	closed, err := h.service.Close(c.UserContext(), acc.ID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "account closed", closed)
}

type moveFunc func(ctx context.Context, id string, amount money.Money) (*models.Account, error)

func (h *AccountHandler) move(c *fiber.Ctx, message string, fn moveFunc) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return response.DomainError(c, err)
	}
	acc, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.DomainError(c, err)
	}
	currency := req.Currency
	if currency == "" {
		currency = acc.Balance.Currency()
	}
	amount, err := money.Parse(req.Amount, currency)
	if err != nil {
		return response.DomainError(c, err)
	}
	updated, err := fn(c.UserContext(), acc.ID, amount)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, message, updated)
}

func (h *AccountHandler) lifecycle(c *fiber.Ctx, message string, fn func(ctx context.Context, id string) (*models.Account, error)) error {
	acc, err := fn(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, message, acc)
}
