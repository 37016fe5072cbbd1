package entity

import (
	"fmt"
	"time"
)

// Render is one expected output image slot of a job.
type Render struct {
	RenderID  string    `gorm:"column:render_id;primaryKey;type:varchar(191)" json:"renderId"`
	JobID     string    `gorm:"column:job_id;type:varchar(191);index;not null" json:"jobId"`
	SessionID string    `gorm:"column:session_id;type:varchar(191);index" json:"sessionId"`
	UserID    *string   `gorm:"column:user_id;type:varchar(191);index" json:"userId"`
	Type      JobType   `gorm:"column:type;type:varchar(32)" json:"type"`
	Status    JobStatus `gorm:"column:status;type:varchar(32);index;not null" json:"status"`
	URL       *string   `gorm:"column:url;type:text" json:"url"`
	Width     *int      `gorm:"column:width" json:"width"`
	Height    *int      `gorm:"column:height" json:"height"`
	Seed      *int64    `gorm:"column:seed" json:"seed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName overrides the default table name.
func (Render) TableName() string {
	return "renders"
}

// RenderID builds the id of the index-th render of a job: the job id and the
// index zero-padded to two digits. Indexes past 99 simply grow wider.
func RenderID(jobID string, index int) string {
	return fmt.Sprintf("%s-%02d", jobID, index)
}

// RenderIDLess orders render ids of one job by slot index.
func RenderIDLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// RenderIDs returns the ordered render ids for a job.
func RenderIDs(jobID string, count int) []string {
	if count <= 0 {
		return nil
	}
	ids := make([]string, count)
	for i := range ids {
		ids[i] = RenderID(jobID, i)
	}
	return ids
}

// NewPendingRenders pre-allocates the render slots of job in pending status.
func NewPendingRenders(job *PredictionJob, now time.Time) []Render {
	if job == nil {
		return nil
	}
	ids := RenderIDs(job.JobID, job.ExpectedImageCount)
	renders := make([]Render, len(ids))
	for i, id := range ids {
		renders[i] = Render{
			RenderID:  id,
			JobID:     job.JobID,
			SessionID: job.SessionID,
			UserID:    job.UserID,
			Type:      job.Type,
			Status:    StatusPending,
			Width:     job.ExpectedImageWidth,
			Height:    job.ExpectedImageHeight,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return renders
}
