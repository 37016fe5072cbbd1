package model

import (
	"context"
	"strings"
	"time"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/config"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
	"github.com/sirupsen/logrus"
)

// SeedDevelopmentUser ensures the configured development user exists with a
// spendable balance. It never runs in production or against Supabase, whose
// profiles are owned by the web app.
func SeedDevelopmentUser(ctx context.Context, repo Repository, cfg config.Config) error {
	userID := strings.TrimSpace(cfg.DevSeedUserID)
	if repo == nil || userID == "" || cfg.IsProduction() || cfg.DBType == DBTypeSupabase {
		return nil
	}

	existing, err := repo.GetUserProfile(ctx, userID)
	switch {
	case err == nil && existing.Balance > 0:
		return nil
	case err != nil && !apperrors.IsNotFound(err):
		return err
	}

	now := time.Now().UTC()
	profile := &entity.UserProfile{
		UserID:    userID,
		Email:     userID + "@localhost",
		Balance:   cfg.DevSeedBalance,
		Role:      entity.UserRoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing != nil {
		profile.Email = existing.Email
		profile.Role = existing.Role
		profile.CreatedAt = existing.CreatedAt
	}
	if err := repo.UpsertUserProfile(ctx, profile); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"balance": profile.Balance,
	}).Info("seeded development user")
	return nil
}
