package repositories

import (
	"time"

	"railpay/internal/models"
	"railpay/internal/money"

	"github.com/shopspring/decimal"
)

type accountRecord struct {
	ID            string          `gorm:"primaryKey;size:36"`
	OwnerID       string          `gorm:"index;size:64"`
	AccountNumber string          `gorm:"uniqueIndex;size:34;not null"`
	AccountType   string          `gorm:"size:16;not null"`
	Status        string          `gorm:"size:32;not null"`
	Balance       decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	Currency      string          `gorm:"size:3;not null"`
	Version       int64           `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (accountRecord) TableName() string { return "accounts" }

func newAccountRecord(a *models.Account) *accountRecord {
	return &accountRecord{
		ID:            a.ID,
		OwnerID:       a.OwnerID,
		AccountNumber: a.AccountNumber,
		AccountType:   string(a.Type),
		Status:        string(a.Status),
		Balance:       a.Balance.Amount(),
		Currency:      a.Balance.Currency(),
		Version:       a.Version,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func (r *accountRecord) toModel() (*models.Account, error) {
	balance, err := money.New(r.Balance, r.Currency)
	if err != nil {
		return nil, err
	}
	return &models.Account{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		AccountNumber: r.AccountNumber,
		Type:          models.AccountType(r.AccountType),
		Status:        models.AccountStatus(r.Status),
		Balance:       balance,
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}, nil
}

type walletRecord struct {
	AccountID       string          `gorm:"primaryKey;size:36"`
	Balance         decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	ReservedBalance decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	Currency        string          `gorm:"size:3;not null"`
	Version         int64           `gorm:"not null;default:0"`
	UpdatedAt       time.Time
}

func (walletRecord) TableName() string { return "wallets" }

func newWalletRecord(w *models.Wallet) *walletRecord {
	return &walletRecord{
		AccountID:       w.AccountID,
		Balance:         w.Balance.Amount(),
		ReservedBalance: w.ReservedBalance.Amount(),
		Currency:        w.Balance.Currency(),
		Version:         w.Version,
		UpdatedAt:       w.UpdatedAt,
	}
}

func (r *walletRecord) toModel() (*models.Wallet, error) {
	balance, err := money.New(r.Balance, r.Currency)
	if err != nil {
		return nil, err
	}
	reserved, err := money.New(r.ReservedBalance, r.Currency)
	if err != nil {
		return nil, err
	}
	return &models.Wallet{
		AccountID:       r.AccountID,
		Balance:         balance,
		ReservedBalance: reserved,
		Version:         r.Version,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

type reservationRecord struct {
	ID            string          `gorm:"primaryKey;size:36"`
	WalletID      string          `gorm:"size:36;not null;uniqueIndex:idx_reservation_wallet_tx"`
	TransactionID string          `gorm:"size:64;not null;uniqueIndex:idx_reservation_wallet_tx"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Currency      string          `gorm:"size:3;not null"`
	State         string          `gorm:"size:16;not null;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (reservationRecord) TableName() string { return "reservations" }

func newReservationRecord(r *models.Reservation) *reservationRecord {
	return &reservationRecord{
		ID:            r.ID,
		WalletID:      r.WalletID,
		TransactionID: r.TransactionID,
		Amount:        r.Amount.Amount(),
		Currency:      r.Amount.Currency(),
		State:         string(r.State),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (r *reservationRecord) toModel() (*models.Reservation, error) {
	amount, err := money.New(r.Amount, r.Currency)
	if err != nil {
		return nil, err
	}
	return &models.Reservation{
		ID:            r.ID,
		WalletID:      r.WalletID,
		TransactionID: r.TransactionID,
		Amount:        amount,
		State:         models.ReservationState(r.State),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}, nil
}

type transactionRecord struct {
	ID                     string          `gorm:"primaryKey;size:36"`
	ReferenceNumber        string          `gorm:"uniqueIndex;size:64;not null"`
	SenderAccountID        string          `gorm:"index;size:36;not null"`
	RecipientAccountNumber string          `gorm:"size:34;not null"`
	Amount                 decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Currency               string          `gorm:"size:3;not null"`
	RailType               string          `gorm:"size:16;not null"`
	Type                   string          `gorm:"size:32;not null"`
	Status                 string          `gorm:"size:16;not null;index"`
	IdempotencyKey         string          `gorm:"uniqueIndex;size:128;not null"`
	FailureReason          string          `gorm:"size:512"`
	Description            string          `gorm:"size:255"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (transactionRecord) TableName() string { return "transactions" }

func newTransactionRecord(t *models.Transaction) *transactionRecord {
	return &transactionRecord{
		ID:                     t.ID,
		ReferenceNumber:        t.ReferenceNumber,
		SenderAccountID:        t.SenderAccountID,
		RecipientAccountNumber: t.RecipientAccountNumber,
		Amount:                 t.Amount.Amount(),
		Currency:               t.Amount.Currency(),
		RailType:               string(t.RailType),
		Type:                   t.Type,
		Status:                 string(t.Status),
		IdempotencyKey:         t.IdempotencyKey,
		FailureReason:          t.FailureReason,
		Description:            t.Description,
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              t.UpdatedAt,
	}
}

func (r *transactionRecord) toModel() (*models.Transaction, error) {
	amount, err := money.New(r.Amount, r.Currency)
	if err != nil {
		return nil, err
	}
	return &models.Transaction{
		ID:                     r.ID,
		ReferenceNumber:        r.ReferenceNumber,
		SenderAccountID:        r.SenderAccountID,
		RecipientAccountNumber: r.RecipientAccountNumber,
		Amount:                 amount,
		RailType:               models.RailType(r.RailType),
		Type:                   r.Type,
		Status:                 models.TransactionStatus(r.Status),
		IdempotencyKey:         r.IdempotencyKey,
		FailureReason:          r.FailureReason,
		Description:            r.Description,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}, nil
}

// statusHistoryRecord rows are only ever inserted.
type statusHistoryRecord struct {
	ID            uint   `gorm:"primaryKey"`
	TransactionID string `gorm:"index;size:36;not null"`
	FromStatus    string `gorm:"size:16"`
	ToStatus      string `gorm:"size:16;not null"`
	Reason        string `gorm:"size:512"`
	CreatedAt     time.Time
}

func (statusHistoryRecord) TableName() string { return "transaction_status_history" }

func newStatusHistoryRecord(c models.StatusChange) *statusHistoryRecord {
	return &statusHistoryRecord{
		TransactionID: c.TransactionID,
		FromStatus:    string(c.From),
		ToStatus:      string(c.To),
		Reason:        c.Reason,
		CreatedAt:     c.At,
	}
}

func (r *statusHistoryRecord) toModel() models.StatusChange {
	return models.StatusChange{
		TransactionID: r.TransactionID,
		From:          models.TransactionStatus(r.FromStatus),
		To:            models.TransactionStatus(r.ToStatus),
		Reason:        r.Reason,
		At:            r.CreatedAt,
	}
}

type pendingCommitRecord struct {
	ID            string          `gorm:"primaryKey;size:36"`
	TransactionID string          `gorm:"uniqueIndex;size:36;not null"`
	AccountID     string          `gorm:"size:36;not null"`
	CorrelationID string          `gorm:"size:64;not null"`
	Action        string          `gorm:"size:16;not null;default:COMMIT"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Currency      string          `gorm:"size:3;not null"`
	Attempts      int             `gorm:"not null;default:0"`
	NextAttemptAt time.Time       `gorm:"index"`
	LastError     string          `gorm:"size:512"`
	Done          bool            `gorm:"not null;default:false;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (pendingCommitRecord) TableName() string { return "pending_commits" }

func newPendingCommitRecord(p *models.PendingCommit) *pendingCommitRecord {
	return &pendingCommitRecord{
		ID:            p.ID,
		TransactionID: p.TransactionID,
		AccountID:     p.AccountID,
		CorrelationID: p.CorrelationID,
		Action:        string(p.Action),
		Amount:        p.Amount.Amount(),
		Currency:      p.Amount.Currency(),
		Attempts:      p.Attempts,
		NextAttemptAt: p.NextAttemptAt,
		LastError:     p.LastError,
		Done:          p.Done,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (r *pendingCommitRecord) toModel() (*models.PendingCommit, error) {
	amount, err := money.New(r.Amount, r.Currency)
	if err != nil {
		return nil, err
	}
	return &models.PendingCommit{
		ID:            r.ID,
		TransactionID: r.TransactionID,
		AccountID:     r.AccountID,
		CorrelationID: r.CorrelationID,
		Action:        models.PendingAction(r.Action),
		Amount:        amount,
		Attempts:      r.Attempts,
		NextAttemptAt: r.NextAttemptAt,
		LastError:     r.LastError,
		Done:          r.Done,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}, nil
}

// Models lists every table for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&accountRecord{},
		&walletRecord{},
		&reservationRecord{},
		&transactionRecord{},
		&statusHistoryRecord{},
		&pendingCommitRecord{},
	}
}
