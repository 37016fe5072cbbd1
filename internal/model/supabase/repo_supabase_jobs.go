package supabase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
)

// CreateJob inserts a predictionJobs row.
func (r *Repository) CreateJob(ctx context.Context, job *entity.PredictionJob) error {
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
	return r.insert(ctx, op, tableJobs, "job", job.JobID, []*entity.PredictionJob{job}, false, "")
}

// UpdateJob patches a job and bumps updatedAt.
func (r *Repository) UpdateJob(ctx context.Context, jobID string, updates entity.JobUpdates) error {
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
	patch := updates.ToRecord()
	patch["updatedAt"] = time.Now().UTC()

	n, err := r.update(ctx, op, tableJobs, "job", "jobId", id, patch)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NotFound("job", id)
	}
	return nil
}

// GetJob loads a job by jobId.
func (r *Repository) GetJob(ctx context.Context, jobID string) (*entity.PredictionJob, error) {
	const op = "get job"
	if err := r.ready(op); err != nil {
		return nil, err
	}
	id, err := requireID(op, "job id", jobID)
	if err != nil {
		return nil, err
	}
	var job entity.PredictionJob
	if err := r.selectOne(ctx, op, tableJobs, "job", "jobId", id, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// CreateRenders inserts every render slot in one request.
func (r *Repository) CreateRenders(ctx context.Context, renders []entity.Render) error {
	const op = "create renders"
	if err := r.ready(op); err != nil {
		return err
	}
	if len(renders) == 0 {
		return nil
	}
	return r.insert(ctx, op, tableRenders, "render", renders[0].JobID, renders, false, "")
}

// UpdateRender patches one render.
func (r *Repository) UpdateRender(ctx context.Context, renderID string, updates entity.RenderUpdates) error {
	const op = "update render"
	if err := r.ready(op); err != nil {
		return err
	}
	id, err := requireID(op, "render id", renderID)
	if err != nil {
		return err
	}
	if updates.IsEmpty() {
		return nil
	}
	patch := updates.ToRecord()
	patch["updatedAt"] = time.Now().UTC()

	n, err := r.update(ctx, op, tableRenders, "render", "renderId", id, patch)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NotFound("render", id)
	}
	return nil
}

// UpdateRenders patches several renders in one request.
func (r *Repository) UpdateRenders(ctx context.Context, renderIDs []string, updates entity.RenderUpdates) error {
	const op = "update renders"
	if err := r.ready(op); err != nil {
		return err
	}
	if len(renderIDs) == 0 || updates.IsEmpty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return apperrors.Persistence(op, err)
	}
	patch := updates.ToRecord()
	patch["updatedAt"] = time.Now().UTC()

	joined := strings.Join(renderIDs, ",")
	body, _, err := r.client.From(tableRenders).Update(patch, "representation", "").In("renderId", renderIDs).Execute()
	if err != nil {
		return classify(op, "render", joined, err)
	}
	n, err := decodeRows(body, nil)
	if err != nil {
		return apperrors.Persistence(op, err)
	}
	if n < len(renderIDs) {
		return apperrors.NotFound("render", fmt.Sprintf("%s (%d of %d matched)", joined, n, len(renderIDs)))
	}
	return nil
}

// ListRenders returns a job's renders in slot order.
func (r *Repository) ListRenders(ctx context.Context, jobID string) ([]entity.Render, error) {
	const op = "list renders"
	if err := r.ready(op); err != nil {
		return nil, err
	}
	id, err := requireID(op, "job id", jobID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Persistence(op, err)
	}
	body, _, err := r.client.From(tableRenders).Select("*", "", false).Eq("jobId", id).Execute()
	if err != nil {
		return nil, classify(op, "render", id, err)
	}
	var renders []entity.Render
	if _, err := decodeRows(body, &renders); err != nil {
		return nil, apperrors.Persistence(op, err)
	}
	sort.Slice(renders, func(i, j int) bool { return entity.RenderIDLess(renders[i].RenderID, renders[j].RenderID) })
	return renders, nil
}
