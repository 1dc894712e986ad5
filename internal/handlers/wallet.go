package handlers

import (
	"railpay/internal/money"
	"railpay/internal/services/wallet"
	"railpay/internal/utils/response"
	"railpay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	service  wallet.Service
	accounts AccountGetter
}

func NewWalletHandler(s wallet.Service, accounts AccountGetter) *WalletHandler {
	return &WalletHandler{service: s, accounts: accounts}
}

type walletView struct {
	AccountID       string      `json:"account_id"`
	Balance         money.Money `json:"balance"`
	ReservedBalance money.Money `json:"reserved_balance"`
	Available       money.Money `json:"available_balance"`
	Version         int64       `json:"version"`
}

// Get handles GET /api/v1/wallets/:accountId.
func (h *WalletHandler) Get(c *fiber.Ctx) error {
	acc, err := authorizeAccount(c, h.accounts, c.Params("accountId"))
	if err != nil {
		return response.DomainError(c, err)
	}
	w, err := h.service.GetWallet(c.UserContext(), acc.ID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "wallet found", walletView{
		AccountID:       w.AccountID,
		Balance:         w.Balance,
		ReservedBalance: w.ReservedBalance,
		Available:       w.Available(),
		Version:         w.Version,
	})
}

// Deposit handles POST /api/v1/wallets/:accountId/deposit, settling
// incoming funds into the wallet.
func (h *WalletHandler) Deposit(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return response.DomainError(c, err)
	}
	accountID := c.Params("accountId")
	w, err := h.service.GetWallet(c.UserContext(), accountID)
	if err != nil {
		return response.DomainError(c, err)
	}
	currency := req.Currency
	if currency == "" {
		currency = w.Balance.Currency()
	}
	amount, err := money.Parse(req.Amount, currency)
	if err != nil {
		return response.DomainError(c, err)
	}
	w, err = h.service.Deposit(c.UserContext(), accountID, amount)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "wallet credited", walletView{
		AccountID:       w.AccountID,
		Balance:         w.Balance,
		ReservedBalance: w.ReservedBalance,
		Available:       w.Available(),
		Version:         w.Version,
	})
}
