package sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
)

// CreateRenders inserts all render slots of a job in one statement.
func (r *GormRepository) CreateRenders(ctx context.Context, renders []entity.Render) error {
	const op = "create renders"
	if err := r.ready(op); err != nil {
		return err
	}
	if len(renders) == 0 {
		return nil
	}
	return classify(op, "render", renders[0].JobID, r.db.WithContext(ctx).Create(&renders).Error)
}

// UpdateRender updates a single render.
func (r *GormRepository) UpdateRender(ctx context.Context, renderID string, updates entity.RenderUpdates) error {
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

	result := r.db.WithContext(ctx).
		Model(&entity.Render{}).
		Where("render_id = ?", id).
		Updates(updates.ToMap())
	if result.Error != nil {
		return classify(op, "render", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("render", id)
	}
	return nil
}

// UpdateRenders applies one patch to a set of renders.
func (r *GormRepository) UpdateRenders(ctx context.Context, renderIDs []string, updates entity.RenderUpdates) error {
	const op = "update renders"
	if err := r.ready(op); err != nil {
		return err
	}
	if len(renderIDs) == 0 || updates.IsEmpty() {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&entity.Render{}).
		Where("render_id IN ?", renderIDs).
		Updates(updates.ToMap())
	if result.Error != nil {
		return classify(op, "render", strings.Join(renderIDs, ","), result.Error)
	}
	if result.RowsAffected < int64(len(renderIDs)) {
		return apperrors.NotFound("render", fmt.Sprintf("%s (%d of %d matched)", strings.Join(renderIDs, ","), result.RowsAffected, len(renderIDs)))
	}
	return nil
}

// ListRenders returns a job's renders in slot order.
func (r *GormRepository) ListRenders(ctx context.Context, jobID string) ([]entity.Render, error) {
	const op = "list renders"
	if err := r.ready(op); err != nil {
		return nil, err
	}
	id, err := requireID(op, "job id", jobID)
	if err != nil {
		return nil, err
	}
	var renders []entity.Render
	if err := r.db.WithContext(ctx).Where("job_id = ?", id).Order("LENGTH(render_id) ASC, render_id ASC").Find(&renders).Error; err != nil {
		return nil, classify(op, "render", id, err)
	}
	return renders, nil
}
