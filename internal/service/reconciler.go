package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
	"github.com/Pseudotools/pseudorandom-worker/internal/inference"
	"github.com/Pseudotools/pseudorandom-worker/internal/model"
)

// ImageStore copies a provider result image into durable storage and returns
// its public URL.
type ImageStore interface {
	Put(ctx context.Context, sourceURL string, category entity.JobType, renderID string) (string, error)
}

// Biller charges a user for compute time and returns the transaction id.
type Biller interface {
	ChargeAndDebit(ctx context.Context, userID string, amount float64, subtype entity.ChargeSubtype, description string) (string, error)
}

const failedPredictionMessage = "Prediction failed or was canceled. Server reported error: "

// Reconciler applies a terminal provider answer to the job, its renders and
// the user's balance.
type Reconciler struct {
	repo   model.Repository
	images ImageStore
	biller Biller
	clock  *clock
}

// NewReconciler creates a Reconciler.
func NewReconciler(repo model.Repository, images ImageStore, biller Biller) *Reconciler {
	return &Reconciler{repo: repo, images: images, biller: biller, clock: realClock()}
}

// Reconcile dispatches on the terminal status. Only succeeded returns nil.
func (r *Reconciler) Reconcile(ctx context.Context, job *entity.PredictionJob, renderIDs []string, prediction *inference.Prediction, startedAt time.Time) error {
	status, err := inference.ParseStatus(prediction.Status)
	if err != nil {
		return err
	}
	switch status {
	case entity.StatusSucceeded:
		return r.succeed(ctx, job, renderIDs, prediction, startedAt)
	case entity.StatusCanceled, entity.StatusFailed:
		return r.fail(ctx, job.JobID, renderIDs, prediction)
	default:
		return apperrors.UnexpectedStatus(prediction.Status)
	}
}

// succeed extracts the result, stores every image, bills the user and then
// finalizes renders and job. Nothing is written to renders until every image
// is stored, and nothing is billed unless every render has an image.
func (r *Reconciler) succeed(ctx context.Context, job *entity.PredictionJob, renderIDs []string, prediction *inference.Prediction, startedAt time.Time) error {
	logger := logrus.WithFields(logrus.Fields{
		"job_id":        job.JobID,
		"prediction_id": prediction.ID,
	})

	incoming, err := inference.ExtractIncoming(job.Type, prediction)
	if err != nil {
		return err
	}
	computeTime := incoming.Metrics.PredictTime

	urls := incoming.Output.URLsResult
	if len(urls) != len(renderIDs) {
		return apperrors.CountMismatch(len(urls), len(renderIDs))
	}

	stored := make([]string, len(renderIDs))
	for i, renderID := range renderIDs {
		publicURL, err := r.images.Put(ctx, urls[i], job.Type, renderID)
		if err != nil {
			logger.WithError(err).WithField("render_id", renderID).Error("failed to store render image")
			return err
		}
		stored[i] = publicURL
	}

	userID := ""
	if job.UserID != nil {
		userID = *job.UserID
	}
	transactionID, err := r.biller.ChargeAndDebit(ctx, userID, computeTime, entity.SubtypeForJob(job.Type), "Prediction job "+job.JobID)
	if err != nil {
		return err
	}

	width, height := incoming.Output.Dimensions()
	for i, renderID := range renderIDs {
		updates := entity.RenderUpdates{
			Status: entity.Ptr(entity.StatusSucceeded),
			URL:    entity.Ptr(stored[i]),
			Width:  width,
			Height: height,
			Seed:   incoming.Output.SeedAt(i),
		}
		if err := r.repo.UpdateRender(ctx, renderID, updates); err != nil {
			return err
		}
	}

	deliveryTime := r.clock.now().Sub(startedAt).Seconds()
	if err := r.repo.UpdateJob(ctx, job.JobID, entity.JobUpdates{
		Status:             entity.Ptr(entity.StatusSucceeded),
		PredictionIncoming: incoming,
		ComputeTime:        entity.Ptr(computeTime),
		DeliveryTime:       entity.Ptr(deliveryTime),
		TransactionID:      entity.Ptr(transactionID),
		ServerLog:          entity.Ptr(prediction.Logs),
	}); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"compute_time":   computeTime,
		"delivery_time":  deliveryTime,
		"transaction_id": transactionID,
		"renders":        len(renderIDs),
	}).Info("prediction job succeeded")
	return nil
}

// fail records the provider logs, marks the renders errored and returns the
// provider's failure so the job itself is marked errored by the caller.
func (r *Reconciler) fail(ctx context.Context, jobID string, renderIDs []string, prediction *inference.Prediction) error {
	logger := logrus.WithFields(logrus.Fields{
		"job_id":        jobID,
		"prediction_id": prediction.ID,
		"status":        prediction.Status,
	})
	logger.WithField("server_log", prediction.Logs).Warn("prediction failed or was canceled")

	message := failedPredictionMessage + prediction.Error
	if err := r.repo.UpdateJob(ctx, jobID, entity.JobUpdates{ServerLog: entity.Ptr(prediction.Logs)}); err != nil {
		logger.WithError(err).Error("failed to update server log")
		return apperrors.Provider(fmt.Sprintf("Failed to update server log in the database. Also, %s", message))
	}

	if len(renderIDs) > 0 {
		if err := r.repo.UpdateRenders(ctx, renderIDs, entity.RenderUpdates{Status: entity.Ptr(entity.StatusError)}); err != nil {
			logger.WithError(err).Error("failed to mark renders as error")
		}
	}
	return apperrors.Provider(message)
}
