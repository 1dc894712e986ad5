package handlers

import (
	"context"
	"strings"

	"railpay/internal/middleware"
	"railpay/internal/models"
	"railpay/internal/money"
	"railpay/internal/services/transfer"
	"railpay/internal/utils"
	"railpay/internal/utils/response"
	"railpay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const HeaderIdempotencyKey = "Idempotency-Key"

// TransactionHistory reads stored transactions beyond the saga itself.
type TransactionHistory interface {
	History(ctx context.Context, id string) ([]models.StatusChange, error)
	ListBySender(ctx context.Context, accountID string, limit, offset int) ([]*models.Transaction, error)
}

// TransferHandler exposes transfer endpoints.
type TransferHandler struct {
	service  transfer.Service
	accounts AccountGetter
	history  TransactionHistory
	currency string
}

func NewTransferHandler(s transfer.Service, accounts AccountGetter, history TransactionHistory, defaultCurrency string) *TransferHandler {
	return &TransferHandler{service: s, accounts: accounts, history: history, currency: defaultCurrency}
}

type transferRequest struct {
	IdempotencyKey         string `json:"idempotency_key" validate:"required,max=128"`
	SenderAccountID        string `json:"sender_account_id" validate:"required"`
	RecipientAccountNumber string `json:"recipient_account_number" validate:"required,numeric,max=34"`
	Amount                 string `json:"amount" validate:"required,amount"`
	Currency               string `json:"currency" validate:"omitempty,iso4217"`
	RailType               string `json:"rail_type" validate:"required,rail"`
	Description            string `json:"description" validate:"max=140"`
}

// Create handles POST /api/v1/transfers. A rail failure is a 200 with
// status FAILED; a refused reservation is a 422 carrying the transaction.
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	req.IdempotencyKey = strings.TrimSpace(c.Get(HeaderIdempotencyKey))
	if req.Currency == "" {
		req.Currency = h.currency
	}
	if err := validation.Struct(&req); err != nil {
		return response.DomainError(c, err)
	}
	amount, err := money.Parse(req.Amount, req.Currency)
	if err != nil {
		return response.DomainError(c, err)
	}

	cmd := transfer.Request{
		IdempotencyKey:         req.IdempotencyKey,
		SenderAccountID:        req.SenderAccountID,
		RecipientAccountNumber: req.RecipientAccountNumber,
		Amount:                 amount,
		RailType:               models.RailType(strings.ToUpper(req.RailType)),
		Description:            req.Description,
	}
	if !middleware.IsPrivileged(claims) {
		cmd.RequestedBy = claims.UserID
	}

	result, err := h.service.Transfer(c.UserContext(), cmd)
	if err != nil {
		if result != nil {
			return response.DomainErrorWithData(c, err, result)
		}
		return response.DomainError(c, err)
	}
	message := "transfer processed"
	if result.Replayed {
		message = "transfer already processed"
	}
	return response.Success(c, message, result)
}

// Get handles GET /api/v1/transfers/:id.
func (h *TransferHandler) Get(c *fiber.Ctx) error {
	tx, err := h.load(c)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "transfer found", tx)
}

// History handles GET /api/v1/transfers/:id/history.
func (h *TransferHandler) History(c *fiber.Ctx) error {
	tx, err := h.load(c)
	if err != nil {
		return response.DomainError(c, err)
	}
	changes, err := h.history.History(c.UserContext(), tx.ID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "transfer history", changes)
}

// ListByAccount handles GET /api/v1/accounts/:id/transfers.
func (h *TransferHandler) ListByAccount(c *fiber.Ctx) error {
	acc, err := authorizeAccount(c, h.accounts, c.Params("id"))
	if err != nil {
		return response.DomainError(c, err)
	}
	page := utils.GetPagination(c, 1, 20)
	txs, err := h.history.ListBySender(c.UserContext(), acc.ID, page.Limit, page.Offset)
	if err != nil {
		return response.DomainError(c, err)
	}
	return c.JSON(utils.NewPaginatedResponse(txs, page))
}

func (h *TransferHandler) load(c *fiber.Ctx) (*models.Transaction, error) {
	tx, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	if _, err := authorizeAccount(c, h.accounts, tx.SenderAccountID); err != nil {
		return nil, transfer.ErrTransactionMissing
	}
	return tx, nil
}
