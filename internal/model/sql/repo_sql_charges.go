package sql

import (
	"context"
	"fmt"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
)

// CreateCharge appends a ledger record.
func (r *GormRepository) CreateCharge(ctx context.Context, charge *entity.Charge) error {
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
	return classify(op, "charge", charge.TransactionID, r.db.WithContext(ctx).Create(charge).Error)
}

// UpdateChargeStatus moves a charge to a new status.
func (r *GormRepository) UpdateChargeStatus(ctx context.Context, transactionID string, status entity.ChargeStatus) error {
	const op = "update charge status"
	if err := r.ready(op); err != nil {
		return err
	}
	id, err := requireID(op, "transaction id", transactionID)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&entity.Charge{}).
		Where("transaction_id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return classify(op, "charge", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("charge", id)
	}
	return nil
}

// GetCharge loads a charge by transaction id.
func (r *GormRepository) GetCharge(ctx context.Context, transactionID string) (*entity.Charge, error) {
	const op = "get charge"
	if err := r.ready(op); err != nil {
		return nil, err
	}
	id, err := requireID(op, "transaction id", transactionID)
	if err != nil {
		return nil, err
	}
	var charge entity.Charge
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", id).First(&charge).Error; err != nil {
		return nil, classify(op, "charge", id, err)
	}
	return &charge, nil
}
