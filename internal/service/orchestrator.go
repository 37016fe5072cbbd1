// Package service runs prediction jobs end to end: creation, authorization,
// submission, polling and reconciliation, with a single compensating path
// for every failure after the job row exists.
package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
	"github.com/Pseudotools/pseudorandom-worker/internal/inference"
	"github.com/Pseudotools/pseudorandom-worker/internal/model"
	"github.com/Pseudotools/pseudorandom-worker/internal/observability"
)

const (
	initFailurePrefix = "An error occurred when initializing PredictionJob.: "
	runFailurePrefix  = "An error occurred after initializing PredictionJob: "
	badRequestPrefix  = "Bad Request: "
	successMessage    = "Prediction job exited successfully"

	compensationTimeout = 15 * time.Second
)

// Options configures an Orchestrator.
type Options struct {
	Versions inference.Versions
	Poll     PollConfig
}

// Outcome is the worker's answer for one job.
type Outcome struct {
	JobID      string
	Status     entity.JobStatus
	StatusCode int
	Message    string
	// Err is the failure behind a non-200 outcome.
	Err error
}

// Orchestrator sequences a job from initialization to its final state.
type Orchestrator struct {
	repo       model.Repository
	client     inference.Client
	poller     *Poller
	reconciler *Reconciler
	metrics    *observability.Metrics
	versions   inference.Versions
	clock      *clock
}

// NewOrchestrator wires the poller and reconciler around shared
// collaborators.
func NewOrchestrator(repo model.Repository, client inference.Client, images ImageStore, biller Biller, metrics *observability.Metrics, opts Options) *Orchestrator {
	c := realClock()
	poller := NewPoller(client, repo, metrics, opts.Poll)
	poller.clock = c
	reconciler := NewReconciler(repo, images, biller)
	reconciler.clock = c
	return &Orchestrator{
		repo:       repo,
		client:     client,
		poller:     poller,
		reconciler: reconciler,
		metrics:    metrics,
		versions:   opts.Versions,
		clock:      c,
	}
}

// Run executes one job. It never returns without an Outcome: failures after
// the job row exists are converted into an errored job and errored renders.
func (o *Orchestrator) Run(ctx context.Context, init entity.JobInitialization) Outcome {
	startedAt := o.clock.now()
	logger := logrus.WithFields(logrus.Fields{
		"job_id":  init.JobID,
		"user_id": init.UserID,
	})

	job, err := entity.BuildJob(init, startedAt.UTC())
	if err != nil {
		logger.WithError(err).Warn("rejected job initialization")
		return Outcome{JobID: init.JobID, StatusCode: http.StatusBadRequest, Message: badRequestPrefix + err.Error(), Err: err}
	}

	if err := o.repo.CreateJob(ctx, job); err != nil {
		logger.WithError(err).Error("failed to create prediction job")
		o.recordErrorJob(ctx, init, err)
		o.metrics.RecordJobRejected(ctx, string(job.Type))
		initErr := apperrors.Initialization("create prediction job", err)
		return Outcome{
			JobID:      init.JobID,
			Status:     entity.StatusError,
			StatusCode: http.StatusInternalServerError,
			Message:    initFailurePrefix + err.Error(),
			Err:        initErr,
		}
	}
	logger.Info("prediction job created")
	o.metrics.RecordJobStarted(ctx, string(job.Type))

	renderIDs, err := o.execute(ctx, job, startedAt)
	if err != nil {
		logger.WithError(err).Error("prediction job failed")
		o.compensate(ctx, job.JobID, renderIDs, err)
		o.metrics.RecordJobCompleted(ctx, string(job.Type), observability.OutcomeFailed, o.clock.now().Sub(startedAt))
		return Outcome{
			JobID:      job.JobID,
			Status:     entity.StatusError,
			StatusCode: http.StatusInternalServerError,
			Message:    runFailurePrefix + err.Error(),
			Err:        err,
		}
	}

	o.metrics.RecordJobCompleted(ctx, string(job.Type), observability.OutcomeSucceeded, o.clock.now().Sub(startedAt))
	return Outcome{JobID: job.JobID, Status: entity.StatusSucceeded, StatusCode: http.StatusOK, Message: successMessage}
}

// execute runs everything inside the compensating scope. renderIDs is
// returned as soon as the renders exist so compensation can reach them.
func (o *Orchestrator) execute(ctx context.Context, job *entity.PredictionJob, startedAt time.Time) (renderIDs []string, err error) {
	if _, err := o.authorize(ctx, job.UserID); err != nil {
		return nil, err
	}

	request, err := inference.BuildRequest(job.PredictionOutgoing, o.versions)
	if err != nil {
		return nil, err
	}

	renders := entity.NewPendingRenders(job, o.clock.now().UTC())
	if err := o.repo.CreateRenders(ctx, renders); err != nil {
		return nil, apperrors.Initialization("create pending renders", err)
	}
	renderIDs = make([]string, len(renders))
	for i := range renders {
		renderIDs[i] = renders[i].RenderID
	}
	ids := entity.StringArray(renderIDs)
	if err := o.repo.UpdateJob(ctx, job.JobID, entity.JobUpdates{RenderIDs: &ids}); err != nil {
		return renderIDs, err
	}

	prediction, err := o.client.Submit(ctx, request)
	if err != nil {
		return renderIDs, providerError("submit prediction", err)
	}
	submittedAt := o.clock.now()
	logrus.WithFields(logrus.Fields{
		"job_id":        job.JobID,
		"prediction_id": prediction.ID,
		"version":       request.Version,
		"renders":       len(renderIDs),
	}).Info("prediction submitted")

	final, err := o.poller.Wait(ctx, job.JobID, renderIDs, prediction.ID, submittedAt)
	if err != nil {
		return renderIDs, err
	}

	return renderIDs, o.reconciler.Reconcile(ctx, job, renderIDs, final, startedAt)
}

// authorize fails closed for missing or suspended users and for an empty
// balance.
func (o *Orchestrator) authorize(ctx context.Context, userID *string) (*entity.UserProfile, error) {
	id := ""
	if userID != nil {
		id = *userID
	}
	profile, err := o.repo.GetUserProfile(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Authorization("No user found with ID " + id)
		}
		return nil, err
	}
	if profile.Role == entity.UserRoleSuspended {
		return nil, apperrors.Authorization("User is suspended")
	}
	if profile.Balance <= 0 {
		return nil, apperrors.Authorization("User has insufficient balance")
	}
	return profile, nil
}

// compensate converges the job and its renders to error. Its own failures
// are logged and swallowed.
func (o *Orchestrator) compensate(ctx context.Context, jobID string, renderIDs []string, cause error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	logger := logrus.WithField("job_id", jobID)
	message := cause.Error()
	if err := o.repo.UpdateJob(cctx, jobID, entity.JobUpdates{
		Status:       entity.Ptr(entity.StatusError),
		ErrorMessage: &message,
	}); err != nil {
		logger.WithError(err).Error("failed to mark job as error")
	}

	if len(renderIDs) == 0 {
		return
	}
	if err := o.repo.UpdateRenders(cctx, renderIDs, entity.RenderUpdates{Status: entity.Ptr(entity.StatusError)}); err != nil {
		logger.WithError(err).WithField("renders", len(renderIDs)).Error("failed to mark renders as error")
		return
	}
	logger.WithField("renders", len(renderIDs)).Info("job and renders marked as error")
}

// recordErrorJob inserts a stand-in errored job when the real job could not
// be created, so the request is never silently lost.
func (o *Orchestrator) recordErrorJob(ctx context.Context, init entity.JobInitialization, cause error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	userResolved := false
	if strings.TrimSpace(init.UserID) != "" {
		_, err := o.repo.GetUserProfile(cctx, init.UserID)
		userResolved = err == nil
	}

	errorJob := entity.BuildErrorJob(init, cause.Error(), userResolved, o.clock.now().UTC())
	if err := o.repo.CreateJob(cctx, errorJob); err != nil {
		fields := logrus.Fields{"job_id": init.JobID}
		if errors.Is(err, apperrors.ErrConflict) {
			fields["reason"] = "job id already exists"
		}
		logrus.WithError(err).WithFields(fields).Error("failed to record error job")
		return
	}
	logrus.WithField("job_id", init.JobID).Info("recorded error job")
}
