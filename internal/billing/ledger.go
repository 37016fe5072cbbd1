// Package billing records charges and debits user balances.
package billing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
	"github.com/Pseudotools/pseudorandom-worker/internal/observability"
)

const settleTimeout = 10 * time.Second

// Store is the part of the repository the ledger writes through.
type Store interface {
	CreateCharge(ctx context.Context, charge *entity.Charge) error
	UpdateChargeStatus(ctx context.Context, transactionID string, status entity.ChargeStatus) error
	GetUserProfile(ctx context.Context, userID string) (*entity.UserProfile, error)
	UpdateUserBalance(ctx context.Context, userID string, balance float64) error
}

// Ledger writes a Charge before touching the balance and marks the Charge
// unresolved when the debit fails. It is a best-effort saga: unresolved
// charges are settled out of band, never retried here.
type Ledger struct {
	store   Store
	locker  BalanceLocker
	metrics *observability.Metrics
	now     func() time.Time
	newID   func() string
}

// NewLedger creates a Ledger. A nil locker disables locking.
func NewLedger(store Store, locker BalanceLocker, metrics *observability.Metrics) *Ledger {
	if locker == nil {
		locker = NoopLocker{}
	}
	return &Ledger{
		store:   store,
		locker:  locker,
		metrics: metrics,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// ClampedBalance returns balance minus amount, floored at zero.
func ClampedBalance(balance, amount float64) float64 {
	return math.Max(0, balance-amount)
}

// ChargeAndDebit records a charge of amount against userID and debits the
// balance. The returned transaction id is valid even when err is a billing
// error from the debit step.
func (l *Ledger) ChargeAndDebit(ctx context.Context, userID string, amount float64, subtype entity.ChargeSubtype, description string) (string, error) {
	if l == nil || l.store == nil {
		return "", apperrors.Billing("create charge", errors.New("ledger not configured"))
	}

	charge := &entity.Charge{
		TransactionID: l.newID(),
		UserID:        userID,
		Amount:        amount,
		Type:          entity.TransactionCharge,
		Subtype:       subtype,
		Status:        entity.ChargeResolved,
		CreatedAt:     l.now().UTC(),
	}
	if d := strings.TrimSpace(description); d != "" {
		charge.Description = &d
	}

	logger := logrus.WithFields(logrus.Fields{
		"transaction_id": charge.TransactionID,
		"user_id":        userID,
		"amount":         amount,
		"subtype":        subtype,
	})

	if err := l.store.CreateCharge(ctx, charge); err != nil {
		logger.WithError(err).Error("failed to write charge")
		return "", apperrors.Billing("create charge", err)
	}

	if _, err := l.AdjustBalance(ctx, userID, -amount); err != nil {
		logger.WithError(err).Error("balance debit failed, marking charge unresolved")
		if updateErr := l.markUnresolved(ctx, charge.TransactionID); updateErr != nil {
			logger.WithError(updateErr).Error("failed to mark charge unresolved")
			err = errors.Join(err, fmt.Errorf("mark charge unresolved: %w", updateErr))
		}
		l.metrics.RecordCharge(ctx, string(subtype), string(entity.ChargeUnresolved), amount)
		return charge.TransactionID, apperrors.Billing("debit balance", err)
	}

	l.metrics.RecordCharge(ctx, string(subtype), string(entity.ChargeResolved), amount)
	logger.Info("charge resolved")
	return charge.TransactionID, nil
}

// markUnresolved writes on a context detached from ctx, so a cancelled caller
// cannot leave a resolved charge behind a failed debit.
func (l *Ledger) markUnresolved(ctx context.Context, transactionID string) error {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()
	return l.store.UpdateChargeStatus(sctx, transactionID, entity.ChargeUnresolved)
}

// AdjustBalance adds delta to the user's balance, flooring the result at zero,
// and returns the balance that was written. The stored value is re-read to
// confirm the write; a mismatch means a concurrent writer won and is logged.
func (l *Ledger) AdjustBalance(ctx context.Context, userID string, delta float64) (float64, error) {
	unlock, err := l.locker.Lock(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("lock balance: %w", err)
	}
	defer unlock()

	profile, err := l.store.GetUserProfile(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}

	next := ClampedBalance(profile.Balance, -delta)
	if err := l.store.UpdateUserBalance(ctx, userID, next); err != nil {
		return 0, fmt.Errorf("write balance: %w", err)
	}

	stored, err := l.store.GetUserProfile(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("verify balance: %w", err)
	}
	if stored.Balance != next {
		logrus.WithFields(logrus.Fields{
			"user_id":  userID,
			"previous": profile.Balance,
			"written":  next,
			"stored":   stored.Balance,
		}).Warn("balance changed concurrently with debit")
	}
	return next, nil
}
