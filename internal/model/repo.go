package model

import (
	"context"

	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
)

// Repository 定义数据库操作接口
//
// Single-row updates and reads return an error matching apperrors.ErrNotFound
// when no row has the given id, and apperrors.ErrPersistence for store I/O
// failures. Inserts that collide with an existing key match
// apperrors.ErrConflict.
type Repository interface {
	// 预测任务
	CreateJob(ctx context.Context, job *entity.PredictionJob) error
	UpdateJob(ctx context.Context, jobID string, updates entity.JobUpdates) error
	GetJob(ctx context.Context, jobID string) (*entity.PredictionJob, error)

	// 渲染结果
	CreateRenders(ctx context.Context, renders []entity.Render) error
	UpdateRender(ctx context.Context, renderID string, updates entity.RenderUpdates) error
	// UpdateRenders applies the same patch to every listed render. It reports
	// not found unless every id matched a row.
	UpdateRenders(ctx context.Context, renderIDs []string, updates entity.RenderUpdates) error
	ListRenders(ctx context.Context, jobID string) ([]entity.Render, error)

	// 用户
	GetUserProfile(ctx context.Context, userID string) (*entity.UserProfile, error)
	UpdateUserBalance(ctx context.Context, userID string, balance float64) error
	UpsertUserProfile(ctx context.Context, profile *entity.UserProfile) error

	// 账单
	CreateCharge(ctx context.Context, charge *entity.Charge) error
	UpdateChargeStatus(ctx context.Context, transactionID string, status entity.ChargeStatus) error
	GetCharge(ctx context.Context, transactionID string) (*entity.Charge, error)
}
