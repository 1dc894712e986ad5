package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "railpay/internal/errors"
	"railpay/internal/logger"
	"railpay/internal/models"
	"railpay/internal/money"
	"railpay/internal/repositories"
	"railpay/internal/resilience"
	"railpay/internal/services/idempotency"
	"railpay/internal/services/rail"
	"railpay/internal/services/wallet"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type service struct {
	deps     Dependencies
	policies Policies
	config   Config
	logger   *zap.Logger
}

func NewService(deps Dependencies, policies Policies, config Config, log *zap.Logger) Service {
	if deps.Transactions == nil {
		panic("transaction persistence is required")
	}
	if deps.Wallet == nil {
		panic("wallet port is required")
	}
	if deps.Rails == nil {
		panic("rail registry is required")
	}
	if deps.Events == nil {
		panic("event publisher is required")
	}
	if deps.Guard == nil {
		panic("idempotency guard is required")
	}
	if deps.Pending == nil {
		panic("pending queue is required")
	}
	if config.ReferencePrefix == "" {
		config.ReferencePrefix = "TRX"
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 5 * time.Second
	}
	return &service{
		deps:     deps,
		policies: policies,
		config:   config,
		logger:   logger.OrNop(log).Named("transfer"),
	}
}

func (s *service) Get(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := resilience.Call(ctx, s.policies.Persistence, func(ctx context.Context) (*models.Transaction, error) {
		return s.deps.Transactions.FindByID(ctx, id)
	})
	if errors.Is(err, repositories.ErrTransactionNotFound) {
		return nil, ErrTransactionMissing
	}
	return tx, err
}

// Transfer runs the saga for req. A refused reservation returns the FAILED
// result together with ErrReservationFailed; a rail failure returns the
// FAILED result and a nil error.
//
// Only the shape of the request is checked before the idempotency guard, so
// a duplicate always gets the recorded outcome even if the sender account
// or the rail limits changed since.
func (s *service) Transfer(ctx context.Context, req Request) (*Result, error) {
	if err := s.validateShape(req); err != nil {
		return nil, err
	}

	fp := idempotency.NewFingerprint(req.SenderAccountID, req.RecipientAccountNumber, req.Amount, req.RailType)
	decision, err := s.deps.Guard.Begin(ctx, req.IdempotencyKey, fp)
	if err != nil {
		return nil, err
	}
	if decision.Existing != nil {
		s.logger.Info("replaying transfer",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.String("transaction_id", decision.Existing.ID),
			zap.String("status", string(decision.Existing.Status)))
		return newResult(decision.Existing, true), nil
	}
	claim := decision.Claim

	if err := s.validateSender(ctx, req); err != nil {
		claim.Release(ctx)
		return nil, err
	}

	tx := models.NewTransaction(
		uuid.NewString(),
		s.newReference(),
		req.SenderAccountID,
		req.RecipientAccountNumber,
		req.Amount,
		req.RailType,
		strings.TrimSpace(req.IdempotencyKey),
	)
	tx.Description = req.Description
	log := s.logger.With(
		zap.String("transaction_id", tx.ID),
		zap.String("reference", tx.ReferenceNumber),
		zap.String("rail", string(tx.RailType)))

	claim.Bind(ctx, tx)
	if err := s.create(ctx, tx); err != nil {
		existing, replay := s.duplicate(ctx, tx, err)
		if replay {
			return newResult(existing, true), nil
		}
		if existing == nil {
			claim.Release(ctx)
			return nil, err
		}
	}
	s.publish(ctx, log, "initiated", func(ctx context.Context) error {
		return s.deps.Events.PublishTransactionInitiated(ctx, tx)
	})

	if err := s.advance(ctx, tx, tx.MarkValidating); err != nil {
		return nil, err
	}
	s.publish(ctx, log, "validated", func(ctx context.Context) error {
		return s.deps.Events.PublishTransactionValidated(ctx, tx)
	})

	reserved, err := s.reserve(ctx, tx)
	if err != nil {
		log.Error("reservation call failed", zap.Error(err))
		reason := err.Error()
		if apperrors.KindOf(err) == apperrors.KindInternal {
			s.releaseUnknown(ctx, log, tx)
			reason = reasonWalletUnavailable
		}
		reserved = wallet.ReserveResult{Status: wallet.ReservationFailed, Reason: reason}
	}
	if reserved.Status != wallet.ReservationReserved {
		reason := reserved.Reason
		if reason == "" {
			reason = reasonInsufficientBalance
		}
		log.Info("reservation refused", zap.String("reason", reason))
		if err := s.fail(ctx, log, tx, reason); err != nil {
			return nil, err
		}
		return newResult(tx, false), ErrReservationFailed.WithMessage(reason)
	}

	if dispatchErr := s.dispatch(ctx, tx); dispatchErr != nil {
		log.Warn("rail dispatch failed, releasing reservation", zap.Error(dispatchErr))
		s.settle(ctx, log, tx, models.PendingActionRelease, s.deps.Wallet.ReleaseBalance)
		if err := s.fail(ctx, log, tx, dispatchErr.Error()); err != nil {
			return nil, err
		}
		return newResult(tx, false), nil
	}

	s.settle(ctx, log, tx, models.PendingActionCommit, s.deps.Wallet.CommitBalance)
	if err := s.advance(ctx, tx, tx.Complete); err != nil {
		return nil, err
	}
	s.publish(ctx, log, "completed", func(ctx context.Context) error {
		return s.deps.Events.PublishTransactionCompleted(ctx, tx)
	})
	log.Info("transfer completed")
	return newResult(tx, false), nil
}

func (s *service) validateShape(req Request) error {
	switch {
	case strings.TrimSpace(req.IdempotencyKey) == "":
		return idempotency.ErrKeyRequired
	case strings.TrimSpace(req.SenderAccountID) == "":
		return ErrInvalidRequest.WithMessage("sender account is required")
	case strings.TrimSpace(req.RecipientAccountNumber) == "":
		return ErrInvalidRequest.WithMessage("recipient account number is required")
	case req.Amount.Currency() == "":
		return ErrInvalidRequest.WithMessage("amount is required")
	case !req.Amount.IsPositive():
		return ErrInvalidRequest.WithMessage("amount must be greater than zero")
	case !req.RailType.Valid():
		return rail.ErrUnsupportedRail.WithMessage(fmt.Sprintf("unsupported rail type %q", req.RailType))
	}
	return nil
}

// validateSender checks the rail limits and the sender account as they are
// now. It runs only for requests that are not replays.
func (s *service) validateSender(ctx context.Context, req Request) error {
	if err := s.deps.Rails.Validate(req.RailType, req.Amount); err != nil {
		return err
	}

	if s.deps.Accounts == nil {
		return nil
	}
	sender, err := resilience.Call(ctx, s.policies.Persistence, func(ctx context.Context) (*models.Account, error) {
		return s.deps.Accounts.Get(ctx, req.SenderAccountID)
	})
	if err != nil {
		return err
	}
	if req.RequestedBy != "" && !sender.IsOwnedBy(req.RequestedBy) {
		return ErrNotOwner
	}
	if sender.Status != models.AccountStatusActive {
		return ErrSenderNotActive.WithMessage(fmt.Sprintf("sender account is %s", sender.Status))
	}
	if sender.AccountNumber == strings.TrimSpace(req.RecipientAccountNumber) {
		return ErrSelfTransfer
	}
	if sender.Balance.Currency() != req.Amount.Currency() {
		return ErrInvalidRequest.WithMessage(fmt.Sprintf("sender account holds %s, not %s", sender.Balance.Currency(), req.Amount.Currency()))
	}
	return nil
}

func (s *service) newReference() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return s.config.ReferencePrefix + time.Now().UTC().Format("20060102") + id[:12]
}

// duplicate resolves a failed first save. replay is true when another
// request already recorded a transaction under the same key; a non-nil
// existing with replay false means our own earlier attempt was stored.
func (s *service) duplicate(ctx context.Context, tx *models.Transaction, err error) (existing *models.Transaction, replay bool) {
	if !errors.Is(err, repositories.ErrDuplicateKey) {
		return nil, false
	}
	found, findErr := s.deps.Transactions.FindByIdempotencyKey(ctx, tx.IdempotencyKey)
	if findErr != nil {
		return nil, false
	}
	return found, found.ID != tx.ID
}

func (s *service) create(ctx context.Context, tx *models.Transaction) error {
	return s.policies.Persistence.Execute(ctx, func(ctx context.Context) error {
		return s.deps.Transactions.Create(ctx, tx)
	})
}

// advance applies a status transition and persists it.
func (s *service) advance(ctx context.Context, tx *models.Transaction, step func() (models.StatusChange, error)) error {
	change, err := step()
	if err != nil {
		return err
	}
	return s.policies.Persistence.Execute(ctx, func(ctx context.Context) error {
		return s.deps.Transactions.Update(ctx, tx, change)
	})
}

func (s *service) fail(ctx context.Context, log *zap.Logger, tx *models.Transaction, reason string) error {
	if err := s.advance(ctx, tx, func() (models.StatusChange, error) { return tx.Fail(reason) }); err != nil {
		return err
	}
	s.publish(ctx, log, "failed", func(ctx context.Context) error {
		return s.deps.Events.PublishTransactionFailed(ctx, tx, tx.FailureReason)
	})
	return nil
}

// reserve turns an open wallet circuit into a refused reservation.
func (s *service) reserve(ctx context.Context, tx *models.Transaction) (wallet.ReserveResult, error) {
	return resilience.WithFallback(ctx, s.policies.Wallet,
		func(ctx context.Context) (wallet.ReserveResult, error) {
			return s.deps.Wallet.ReserveBalance(ctx, tx.SenderAccountID, tx.ReferenceNumber, tx.Amount)
		},
		func(err error) (wallet.ReserveResult, error) {
			if errors.Is(err, resilience.ErrCircuitOpen) {
				return wallet.ReserveResult{Status: wallet.ReservationFailed, Reason: reasonWalletUnavailable}, nil
			}
			return wallet.ReserveResult{}, err
		})
}

func (s *service) dispatch(ctx context.Context, tx *models.Transaction) error {
	adapter, err := s.deps.Rails.Get(tx.RailType)
	if err != nil {
		return err
	}
	req := rail.NewTransferRequest(tx)
	return s.policies.Rails[tx.RailType].Execute(ctx, func(ctx context.Context) error {
		_, err := adapter.InitiateTransfer(ctx, req)
		return err
	})
}

// settle commits or releases the reservation. A call that still fails after
// the wallet policy is queued for the reconciliation worker; the reservation
// stays RESERVED until then.
func (s *service) settle(
	ctx context.Context,
	log *zap.Logger,
	tx *models.Transaction,
	action models.PendingAction,
	call func(ctx context.Context, accountID, correlationID string, amount money.Money) error,
) {
	err := s.policies.Wallet.Execute(ctx, func(ctx context.Context) error {
		return call(ctx, tx.SenderAccountID, tx.ReferenceNumber, tx.Amount)
	})
	if err == nil || (action == models.PendingActionRelease && errors.Is(err, repositories.ErrReservationNotFound)) {
		return
	}
	log.Error("wallet settlement failed, queueing for reconciliation",
		zap.String("action", string(action)), zap.Error(err))
	s.enqueue(ctx, log, tx, action, err)
}

// releaseUnknown compensates a reserve whose outcome is unknown. A call
// that timed out may still create the reservation after an immediate
// release found nothing, so a missing reservation is queued as well and
// the worker keeps retrying it for its grace period.
func (s *service) releaseUnknown(ctx context.Context, log *zap.Logger, tx *models.Transaction) {
	err := s.policies.Wallet.Execute(ctx, func(ctx context.Context) error {
		return s.deps.Wallet.ReleaseBalance(ctx, tx.SenderAccountID, tx.ReferenceNumber, tx.Amount)
	})
	if err == nil {
		return
	}
	log.Warn("reservation outcome unknown, queueing release", zap.Error(err))
	s.enqueue(ctx, log, tx, models.PendingActionRelease, err)
}

func (s *service) enqueue(ctx context.Context, log *zap.Logger, tx *models.Transaction, action models.PendingAction, err error) {
	now := time.Now().UTC()
	pending := &models.PendingCommit{
		ID:            uuid.NewString(),
		TransactionID: tx.ID,
		AccountID:     tx.SenderAccountID,
		CorrelationID: tx.ReferenceNumber,
		Action:        action,
		Amount:        tx.Amount,
		NextAttemptAt: now.Add(s.config.RetryDelay),
		LastError:     truncate(err.Error(), 512),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	enqueueErr := s.policies.Persistence.Execute(ctx, func(ctx context.Context) error {
		return s.deps.Pending.Enqueue(ctx, pending)
	})
	if enqueueErr != nil {
		log.Error("failed to queue wallet settlement",
			zap.String("action", string(action)),
			zap.String("account_id", tx.SenderAccountID),
			zap.String("amount", tx.Amount.String()),
			zap.Error(enqueueErr))
	}
}

// publish logs publishing failures; the transaction state is already stored.
// Retries and the breaker live in the publisher.
func (s *service) publish(ctx context.Context, log *zap.Logger, stage string, fn func(ctx context.Context) error) {
	if err := fn(ctx); err != nil {
		log.Warn("failed to publish transaction event", zap.String("stage", stage), zap.Error(err))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
