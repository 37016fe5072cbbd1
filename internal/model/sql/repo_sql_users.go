package sql

import (
	"context"
	"fmt"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
	"gorm.io/gorm/clause"
)

// GetUserProfile loads a user profile by ID.
func (r *GormRepository) GetUserProfile(ctx context.Context, userID string) (*entity.UserProfile, error) {
	const op = "get user profile"
	if err := r.ready(op); err != nil {
		return nil, err
	}
	id, err := requireID(op, "user id", userID)
	if err != nil {
		return nil, err
	}
	var profile entity.UserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", id).First(&profile).Error; err != nil {
		return nil, classify(op, "user", id, err)
	}
	return &profile, nil
}

// UpdateUserBalance overwrites a user's balance.
func (r *GormRepository) UpdateUserBalance(ctx context.Context, userID string, balance float64) error {
	const op = "update user balance"
	if err := r.ready(op); err != nil {
		return err
	}
	id, err := requireID(op, "user id", userID)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&entity.UserProfile{}).
		Where("user_id = ?", id).
		Update("balance", balance)
	if result.Error != nil {
		return classify(op, "user", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("user", id)
	}
	return nil
}

// UpsertUserProfile creates the profile or refreshes its balance and role.
func (r *GormRepository) UpsertUserProfile(ctx context.Context, profile *entity.UserProfile) error {
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
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "balance", "role", "updated_at"}),
	}).Create(profile).Error
	return classify(op, "user", profile.UserID, err)
}
