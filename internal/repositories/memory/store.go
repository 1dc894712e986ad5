// Package memory holds mutex-guarded repositories with the same contracts
// as the gorm ones. They back tests and STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"railpay/internal/models"
	"railpay/internal/repositories"
)

type AccountRepository struct {
	mu       sync.RWMutex
	byID     map[string]models.Account
	byNumber map[string]string
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:     make(map[string]models.Account),
		byNumber: make(map[string]string),
	}
}

func (r *AccountRepository) Create(ctx context.Context, acc *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[acc.ID]; ok {
		return repositories.ErrDuplicateKey
	}
	if _, ok := r.byNumber[acc.AccountNumber]; ok {
		return repositories.ErrDuplicateKey
	}
	r.byID[acc.ID] = *acc
	r.byNumber[acc.AccountNumber] = acc.ID
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.byID[id]
	if !ok {
		return nil, repositories.ErrAccountNotFound
	}
	return &acc, nil
}

func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	r.mu.RLock()
	id, ok := r.byNumber[accountNumber]
	r.mu.RUnlock()
	if !ok {
		return nil, repositories.ErrAccountNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *AccountRepository) Update(ctx context.Context, acc *models.Account, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[acc.ID]
	if !ok || stored.Version != expectedVersion {
		return repositories.ErrVersionConflict
	}
	r.byID[acc.ID] = *acc
	return nil
}

type WalletRepository struct {
	mu           sync.RWMutex
	wallets      map[string]models.Wallet
	reservations map[string]models.Reservation
	byTx         map[string]string
}

func NewWalletRepository() *WalletRepository {
	return &WalletRepository{
		wallets:      make(map[string]models.Wallet),
		reservations: make(map[string]models.Reservation),
		byTx:         make(map[string]string),
	}
}

func txKey(walletID, transactionID string) string {
	return walletID + "|" + transactionID
}

func (r *WalletRepository) Create(ctx context.Context, w *models.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[w.AccountID]; ok {
		return repositories.ErrDuplicateKey
	}
	r.wallets[w.AccountID] = *w
	return nil
}

func (r *WalletRepository) GetByAccountID(ctx context.Context, accountID string) (*models.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[accountID]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	return &w, nil
}

func (r *WalletRepository) Save(ctx context.Context, w *models.Wallet, expectedVersion int64, res *models.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.wallets[w.AccountID]
	if !ok || stored.Version != expectedVersion {
		return repositories.ErrVersionConflict
	}
	if res != nil {
		key := txKey(res.WalletID, res.TransactionID)
		if id, exists := r.byTx[key]; exists && id != res.ID {
			return repositories.ErrDuplicateKey
		}
		r.reservations[res.ID] = *res
		r.byTx[key] = res.ID
	}
	r.wallets[w.AccountID] = *w
	return nil
}

func (r *WalletRepository) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.reservations[id]
	if !ok {
		return nil, repositories.ErrReservationNotFound
	}
	return &res, nil
}

func (r *WalletRepository) FindReservation(ctx context.Context, accountID, transactionID string) (*models.Reservation, error) {
	r.mu.RLock()
	id, ok := r.byTx[txKey(accountID, transactionID)]
	r.mu.RUnlock()
	if !ok {
		return nil, repositories.ErrReservationNotFound
	}
	return r.GetReservation(ctx, id)
}

type TransactionRepository struct {
	mu      sync.RWMutex
	byID    map[string]models.Transaction
	byKey   map[string]string
	history map[string][]models.StatusChange
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		byID:    make(map[string]models.Transaction),
		byKey:   make(map[string]string),
		history: make(map[string][]models.StatusChange),
	}
}

func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKey[t.IdempotencyKey]; ok {
		return repositories.ErrDuplicateKey
	}
	if _, ok := r.byID[t.ID]; ok {
		return repositories.ErrDuplicateKey
	}
	r.byID[t.ID] = *t
	r.byKey[t.IdempotencyKey] = t.ID
	r.history[t.ID] = append(r.history[t.ID], models.Initial(t))
	return nil
}

func (r *TransactionRepository) Update(ctx context.Context, t *models.Transaction, change models.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[t.ID]; !ok {
		return repositories.ErrTransactionNotFound
	}
	r.byID[t.ID] = *t
	r.history[t.ID] = append(r.history[t.ID], change)
	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	return &t, nil
}

func (r *TransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error) {
	r.mu.RLock()
	id, ok := r.byKey[key]
	r.mu.RUnlock()
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *TransactionRepository) History(ctx context.Context, id string) ([]models.StatusChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.StatusChange{}, r.history[id]...), nil
}

func (r *TransactionRepository) ListBySender(ctx context.Context, accountID string, limit, offset int) ([]*models.Transaction, error) {
	r.mu.RLock()
	var out []*models.Transaction
	for _, t := range r.byID {
		if t.SenderAccountID == accountID {
			t := t
			out = append(out, &t)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []*models.Transaction{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type PendingCommitRepository struct {
	mu    sync.Mutex
	items map[string]models.PendingCommit
	byTx  map[string]string
}

func NewPendingCommitRepository() *PendingCommitRepository {
	return &PendingCommitRepository{
		items: make(map[string]models.PendingCommit),
		byTx:  make(map[string]string),
	}
}

func (r *PendingCommitRepository) Enqueue(ctx context.Context, p *models.PendingCommit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byTx[p.TransactionID]; ok {
		return nil
	}
	r.items[p.ID] = *p
	r.byTx[p.TransactionID] = p.ID
	return nil
}

func (r *PendingCommitRepository) Due(ctx context.Context, now time.Time, limit int) ([]*models.PendingCommit, error) {
	r.mu.Lock()
	var out []*models.PendingCommit
	for _, p := range r.items {
		if !p.Done && !p.NextAttemptAt.After(now) {
			p := p
			out = append(out, &p)
		}
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].NextAttemptAt.Before(out[j].NextAttemptAt) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *PendingCommitRepository) MarkDone(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return repositories.ErrPendingNotFound
	}
	p.Done = true
	p.LastError = ""
	p.UpdatedAt = time.Now().UTC()
	r.items[id] = p
	return nil
}

func (r *PendingCommitRepository) Reschedule(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return repositories.ErrPendingNotFound
	}
	p.Attempts = attempts
	p.NextAttemptAt = next
	p.LastError = lastErr
	p.UpdatedAt = time.Now().UTC()
	r.items[id] = p
	return nil
}

var (
	_ repositories.AccountRepository       = (*AccountRepository)(nil)
	_ repositories.WalletRepository        = (*WalletRepository)(nil)
	_ repositories.TransactionRepository   = (*TransactionRepository)(nil)
	_ repositories.PendingCommitRepository = (*PendingCommitRepository)(nil)
)
