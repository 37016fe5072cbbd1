package entity

import (
	"strings"
	"time"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
)

// JobInitialization is the inbound request to run one prediction job.
type JobInitialization struct {
	JobID                    string            `json:"jobId"`
	UserID                   string            `json:"userId"`
	SessionID                string            `json:"sessionId"`
	OriginEnvironment        OriginEnvironment `json:"originEnvironment"`
	OriginID                 string            `json:"originId"`
	ExpectedImageCount       int               `json:"expectedImageCount"`
	ExpectedImageWidth       *int              `json:"expectedImageWidth"`
	ExpectedImageHeight      *int              `json:"expectedImageHeight"`
	PredictionOutgoing       Outgoing          `json:"predictionOutgoing"`
	PredictionModelVersionID string            `json:"predictionModelVersionId,omitempty"`
	Environment              Environment       `json:"environment,omitempty"`
}

// Validate checks the fields a job cannot be created without.
func (init JobInitialization) Validate() error {
	if strings.TrimSpace(init.JobID) == "" {
		return apperrors.Validation("jobId", "jobId is required")
	}
	if strings.TrimSpace(init.UserID) == "" {
		return apperrors.Validation("userId", "userId is required")
	}
	if init.PredictionOutgoing.Payload == nil {
		return apperrors.Validation("predictionOutgoing.type", "predictionOutgoing.type is required")
	}
	if init.ExpectedImageCount <= 0 {
		return apperrors.Validation("expectedImageCount", "expectedImageCount must be positive")
	}
	return nil
}

// BuildJob turns a validated initialization into a pending job with every
// result field unset. It performs no I/O.
func BuildJob(init JobInitialization, now time.Time) (*PredictionJob, error) {
	if err := init.Validate(); err != nil {
		return nil, err
	}
	userID := init.UserID
	job := &PredictionJob{
		JobID:               init.JobID,
		Type:                init.PredictionOutgoing.JobType(),
		Status:              StatusPending,
		UserID:              &userID,
		SessionID:           init.SessionID,
		OriginEnvironment:   init.OriginEnvironment,
		OriginID:            init.OriginID,
		PredictionOutgoing:  init.PredictionOutgoing,
		ExpectedImageCount:  init.ExpectedImageCount,
		ExpectedImageWidth:  init.ExpectedImageWidth,
		ExpectedImageHeight: init.ExpectedImageHeight,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if v := strings.TrimSpace(init.PredictionModelVersionID); v != "" {
		job.PredictionModelVersionID = &v
	}
	return job, nil
}

// BuildErrorJob builds the stand-in job recorded when the real job could not
// be created. userResolved=false nulls the user id.
func BuildErrorJob(init JobInitialization, message string, userResolved bool, now time.Time) *PredictionJob {
	job := &PredictionJob{
		JobID:               init.JobID,
		Type:                JobTypeError,
		Status:              StatusError,
		SessionID:           init.SessionID,
		OriginEnvironment:   init.OriginEnvironment,
		OriginID:            init.OriginID,
		PredictionOutgoing:  init.PredictionOutgoing,
		ExpectedImageCount:  init.ExpectedImageCount,
		ExpectedImageWidth:  init.ExpectedImageWidth,
		ExpectedImageHeight: init.ExpectedImageHeight,
		ErrorMessage:        &message,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if userResolved && strings.TrimSpace(init.UserID) != "" {
		userID := init.UserID
		job.UserID = &userID
	}
	if v := strings.TrimSpace(init.PredictionModelVersionID); v != "" {
		job.PredictionModelVersionID = &v
	}
	return job
}
