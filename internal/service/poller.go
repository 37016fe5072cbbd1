package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
	"github.com/Pseudotools/pseudorandom-worker/internal/inference"
	"github.com/Pseudotools/pseudorandom-worker/internal/model"
	"github.com/Pseudotools/pseudorandom-worker/internal/observability"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultPollTimeout  = 8 * time.Minute
)

// PollConfig paces the polling loop.
type PollConfig struct {
	// Interval is the fixed delay between non-terminal polls.
	Interval time.Duration
	// Timeout is measured from submission and checked before every poll.
	Timeout time.Duration
}

func (c PollConfig) withDefaults() PollConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultPollInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultPollTimeout
	}
	return c
}

// Poller drives a submitted prediction to a terminal provider status and
// mirrors every observed status change onto the job and its renders.
type Poller struct {
	client  inference.Client
	repo    model.Repository
	metrics *observability.Metrics
	config  PollConfig
	clock   *clock
}

// NewPoller creates a Poller.
func NewPoller(client inference.Client, repo model.Repository, metrics *observability.Metrics, config PollConfig) *Poller {
	return &Poller{
		client:  client,
		repo:    repo,
		metrics: metrics,
		config:  config.withDefaults(),
		clock:   realClock(),
	}
}

// Wait polls predictionID until it reaches succeeded, canceled or failed.
// Poll failures, unknown statuses and an exhausted budget end the wait with
// an error; the provider-side prediction is abandoned, not canceled.
func (p *Poller) Wait(ctx context.Context, jobID string, renderIDs []string, predictionID string, submittedAt time.Time) (*inference.Prediction, error) {
	if predictionID == "" {
		return nil, apperrors.Provider("prediction id is required")
	}
	logger := logrus.WithFields(logrus.Fields{
		"job_id":        jobID,
		"prediction_id": predictionID,
	})

	current := entity.StatusPending
	for attempt := 1; ; attempt++ {
		if elapsed := p.clock.now().Sub(submittedAt); elapsed > p.config.Timeout {
			logger.WithField("attempt", attempt).Warn("prediction polling timed out")
			return nil, apperrors.Timeout(elapsed, p.config.Timeout)
		}

		prediction, err := p.client.Poll(ctx, predictionID)
		if err != nil {
			logger.WithError(err).WithField("attempt", attempt).Error("poll failed")
			return nil, providerError("poll prediction", err)
		}

		status, err := inference.ParseStatus(prediction.Status)
		if err != nil {
			logger.WithField("status", prediction.Status).Error("provider reported an unknown status")
			return nil, err
		}
		p.metrics.RecordPoll(ctx, string(status))

		if status != current {
			logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"from":    current,
				"status":  status,
			}).Info("prediction status changed")
			if err := p.propagate(ctx, jobID, renderIDs, status); err != nil {
				return nil, err
			}
			current = status
		}

		if status.IsTerminal() {
			return prediction, nil
		}

		if err := p.clock.sleep(ctx, p.config.Interval); err != nil {
			return nil, err
		}
	}
}

// propagate writes status to the job and then to every render.
func (p *Poller) propagate(ctx context.Context, jobID string, renderIDs []string, status entity.JobStatus) error {
	if err := p.repo.UpdateJob(ctx, jobID, entity.JobUpdates{Status: entity.Ptr(status)}); err != nil {
		return err
	}
	if len(renderIDs) == 0 {
		return nil
	}
	return p.repo.UpdateRenders(ctx, renderIDs, entity.RenderUpdates{Status: entity.Ptr(status)})
}

// providerError keeps classified errors and wraps anything else as a
// provider failure.
func providerError(op string, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.ProviderCause(op, err)
}
