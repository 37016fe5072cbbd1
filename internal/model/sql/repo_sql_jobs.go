package sql

import (
	"context"
	"fmt"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
)

// CreateJob inserts a new prediction job row.
func (r *GormRepository) CreateJob(ctx context.Context, job *entity.PredictionJob) error {
	const op = "create job"
	if err := r.ready(op); err != nil {
		return err
	}
	if job == nil {
		return apperrors.Persistence(op, fmt.Errorf("job is nil"))
	}
	if _, err := requireID(op, "job id", job.JobID); err != nil {
		return err
	}
	return classify(op, "job", job.JobID, r.db.WithContext(ctx).Create(job).Error)
}

// UpdateJob updates job fields using the patch's column map.
func (r *GormRepository) UpdateJob(ctx context.Context, jobID string, updates entity.JobUpdates) error {
	const op = "update job"
	if err := r.ready(op); err != nil {
		return err
	}
	id, err := requireID(op, "job id", jobID)
	if err != nil {
		return err
	}
	if updates.IsEmpty() {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&entity.PredictionJob{}).
		Where("job_id = ?", id).
		Updates(updates.ToMap())
	if result.Error != nil {
		return classify(op, "job", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("job", id)
	}
	return nil
}

// GetJob loads a job by id.
func (r *GormRepository) GetJob(ctx context.Context, jobID string) (*entity.PredictionJob, error) {
	const op = "get job"
	if err := r.ready(op); err != nil {
		return nil, err
	}
	id, err := requireID(op, "job id", jobID)
	if err != nil {
		return nil, err
	}
	var job entity.PredictionJob
	if err := r.db.WithContext(ctx).Where("job_id = ?", id).First(&job).Error; err != nil {
		return nil, classify(op, "job", id, err)
	}
	return &job, nil
}
