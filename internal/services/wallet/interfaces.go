package wallet

import (
	"context"

	"railpay/internal/models"
	"railpay/internal/money"
)

// Service defines the main wallet service interface
type Service interface {
	CreateWallet(ctx context.Context, accountID, currency string) (*models.Wallet, error)
	GetWallet(ctx context.Context, accountID string) (*models.Wallet, error)
	Deposit(ctx context.Context, accountID string, amount money.Money) (*models.Wallet, error)

	// Reservation protocol
	Reserve(ctx context.Context, accountID string, amount money.Money, correlationID string) (*models.Reservation, error)
	Commit(ctx context.Context, reservationID string) (*models.Reservation, error)
	Release(ctx context.Context, reservationID string) (*models.Reservation, error)

	GetReservation(ctx context.Context, reservationID string) (*models.Reservation, error)
	FindReservation(ctx context.Context, accountID, correlationID string) (*models.Reservation, error)
}
