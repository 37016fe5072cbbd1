package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
)

// GetUserProfile loads a userProfiles row.
func (r *Repository) GetUserProfile(ctx context.Context, userID string) (*entity.UserProfile, error) {
	const op = "get user profile"
	if err := r.ready(op); err != nil {
		return nil, err
	}
	id, err := requireID(op, "user id", userID)
	if err != nil {
		return nil, err
	}
	var profile entity.UserProfile
	if err := r.selectOne(ctx, op, tableUserProfiles, "user", "userId", id, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateUserBalance overwrites a user's balance.
func (r *Repository) UpdateUserBalance(ctx context.Context, userID string, balance float64) error {
	const op = "update user balance"
	if err := r.ready(op); err != nil {
		return err
	}
	id, err := requireID(op, "user id", userID)
	if err != nil {
		return err
	}
	n, err := r.update(ctx, op, tableUserProfiles, "user", "userId", id, map[string]interface{}{"balance": balance})
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NotFound("user", id)
	}
	return nil
}

// UpsertUserProfile creates or replaces a profile keyed by userId.
func (r *Repository) UpsertUserProfile(ctx context.Context, profile *entity.UserProfile) error {
	const op = "upsert user profile"
	if err := r.ready(op); err != nil {
		return err
	}
	if profile == nil {
		return apperrors.Persistence(op, fmt.Errorf("profile is nil"))
	}
	if _, err := requireID(op, "user id", profile.UserID); err != nil {
		return err
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now().UTC()
	}
	return r.insert(ctx, op, tableUserProfiles, "user", profile.UserID, []*entity.UserProfile{profile}, true, "userId")
}

// CreateCharge appends a transactions row.
func (r *Repository) CreateCharge(ctx context.Context, charge *entity.Charge) error {
	const op = "create charge"
	if err := r.ready(op); err != nil {
		return err
	}
	if charge == nil {
		return apperrors.Persistence(op, fmt.Errorf("charge is nil"))
	}
	if _, err := requireID(op, "transaction id", charge.TransactionID); err != nil {
		return err
	}
	return r.insert(ctx, op, tableTransactions, "charge", charge.TransactionID, []*entity.Charge{charge}, false, "")
}

// UpdateChargeStatus moves a charge to a new status.
func (r *Repository) UpdateChargeStatus(ctx context.Context, transactionID string, status entity.ChargeStatus) error {
	const op = "update charge status"
	if err := r.ready(op); err != nil {
		return err
	}
	id, err := requireID(op, "transaction id", transactionID)
	if err != nil {
		return err
	}
	n, err := r.update(ctx, op, tableTransactions, "charge", "transactionId", id, map[string]interface{}{"status": status})
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NotFound("charge", id)
	}
	return nil
}

// GetCharge loads a transactions row.
func (r *Repository) GetCharge(ctx context.Context, transactionID string) (*entity.Charge, error) {
	const op = "get charge"
	if err := r.ready(op); err != nil {
		return nil, err
	}
	id, err := requireID(op, "transaction id", transactionID)
	if err != nil {
		return nil, err
	}
	var charge entity.Charge
	if err := r.selectOne(ctx, op, tableTransactions, "charge", "transactionId", id, &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}
