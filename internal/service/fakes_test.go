package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
	"github.com/Pseudotools/pseudorandom-worker/internal/inference"
	"github.com/Pseudotools/pseudorandom-worker/internal/model"
)

// fakeRepo is an in-memory model.Repository with failure hooks.
type fakeRepo struct {
	mu       sync.Mutex
	jobs     map[string]*entity.PredictionJob
	renders  map[string]*entity.Render
	profiles map[string]*entity.UserProfile
	charges  map[string]*entity.Charge

	jobStatusHistory []entity.JobStatus

	createJobErr     error
	createRendersErr error
	updateJobErr     func(entity.JobUpdates) error
	updateBalanceErr error
}

var _ model.Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		jobs:     map[string]*entity.PredictionJob{},
		renders:  map[string]*entity.Render{},
		profiles: map[string]*entity.UserProfile{},
		charges:  map[string]*entity.Charge{},
	}
}

func (r *fakeRepo) addUser(id string, balance float64, role entity.UserRole) {
	r.profiles[id] = &entity.UserProfile{UserID: id, Balance: balance, Role: role}
}

func (r *fakeRepo) CreateJob(_ context.Context, job *entity.PredictionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createJobErr != nil {
		return r.createJobErr
	}
	if _, exists := r.jobs[job.JobID]; exists {
		return apperrors.Conflict("job", job.JobID)
	}
	copied := *job
	r.jobs[job.JobID] = &copied
	return nil
}

func (r *fakeRepo) UpdateJob(_ context.Context, jobID string, updates entity.JobUpdates) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateJobErr != nil {
		if err := r.updateJobErr(updates); err != nil {
			return err
		}
	}
	job, ok := r.jobs[jobID]
	if !ok {
		return apperrors.NotFound("job", jobID)
	}
	updates.Apply(job)
	if updates.Status != nil {
		r.jobStatusHistory = append(r.jobStatusHistory, *updates.Status)
	}
	return nil
}

func (r *fakeRepo) GetJob(_ context.Context, jobID string) (*entity.PredictionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, apperrors.NotFound("job", jobID)
	}
	copied := *job
	return &copied, nil
}

func (r *fakeRepo) CreateRenders(_ context.Context, renders []entity.Render) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createRendersErr != nil {
		return r.createRendersErr
	}
	for i := range renders {
		copied := renders[i]
		r.renders[copied.RenderID] = &copied
	}
	return nil
}

func (r *fakeRepo) UpdateRender(_ context.Context, renderID string, updates entity.RenderUpdates) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	render, ok := r.renders[renderID]
	if !ok {
		return apperrors.NotFound("render", renderID)
	}
	updates.Apply(render)
	return nil
}

func (r *fakeRepo) UpdateRenders(_ context.Context, renderIDs []string, updates entity.RenderUpdates) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range renderIDs {
		if _, ok := r.renders[id]; !ok {
			return apperrors.NotFound("render", id)
		}
	}
	for _, id := range renderIDs {
		updates.Apply(r.renders[id])
	}
	return nil
}

func (r *fakeRepo) ListRenders(_ context.Context, jobID string) ([]entity.Render, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Render
	for _, render := range r.renders {
		if render.JobID == jobID {
			out = append(out, *render)
		}
	}
	sort.Slice(out, func(i, j int) bool { return entity.RenderIDLess(out[i].RenderID, out[j].RenderID) })
	return out, nil
}

func (r *fakeRepo) GetUserProfile(_ context.Context, userID string) (*entity.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, apperrors.NotFound("user", userID)
	}
	copied := *profile
	return &copied, nil
}

func (r *fakeRepo) UpdateUserBalance(_ context.Context, userID string, balance float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateBalanceErr != nil {
		return r.updateBalanceErr
	}
	profile, ok := r.profiles[userID]
	if !ok {
		return apperrors.NotFound("user", userID)
	}
	profile.Balance = balance
	return nil
}

func (r *fakeRepo) UpsertUserProfile(_ context.Context, profile *entity.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *profile
	r.profiles[profile.UserID] = &copied
	return nil
}

func (r *fakeRepo) CreateCharge(_ context.Context, charge *entity.Charge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *charge
	r.charges[charge.TransactionID] = &copied
	return nil
}

func (r *fakeRepo) UpdateChargeStatus(_ context.Context, transactionID string, status entity.ChargeStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	charge, ok := r.charges[transactionID]
	if !ok {
		return apperrors.NotFound("charge", transactionID)
	}
	charge.Status = status
	return nil
}

func (r *fakeRepo) GetCharge(_ context.Context, transactionID string) (*entity.Charge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	charge, ok := r.charges[transactionID]
	if !ok {
		return nil, apperrors.NotFound("charge", transactionID)
	}
	copied := *charge
	return &copied, nil
}

func (r *fakeRepo) rendersFor(jobID string) []entity.Render {
	renders, _ := r.ListRenders(context.Background(), jobID)
	return renders
}

// pollStep is one scripted provider answer.
type pollStep struct {
	prediction *inference.Prediction
	err        error
}

// fakeClient replays scripted polls; the last step repeats once the script
// runs out.
type fakeClient struct {
	mu        sync.Mutex
	submitErr error
	submitted []inference.Request
	steps     []pollStep
	polls     int
}

func (c *fakeClient) Submit(_ context.Context, req inference.Request) (*inference.Prediction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitted = append(c.submitted, req)
	if c.submitErr != nil {
		return nil, c.submitErr
	}
	return &inference.Prediction{ID: "pred-1", Status: "starting"}, nil
}

func (c *fakeClient) Poll(_ context.Context, predictionID string) (*inference.Prediction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.steps) == 0 {
		return nil, errors.New("no scripted poll")
	}
	idx := c.polls
	if idx >= len(c.steps) {
		idx = len(c.steps) - 1
	}
	c.polls++
	step := c.steps[idx]
	return step.prediction, step.err
}

type fakeImages struct {
	mu   sync.Mutex
	puts []string
	err  error
}

func (f *fakeImages) Put(_ context.Context, sourceURL string, category entity.JobType, renderID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.puts = append(f.puts, sourceURL)
	return "https://cdn.example.com/" + string(category) + "/" + renderID + ".png", nil
}

// fakeClock advances only when the code under test sleeps.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps++
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) install(target *clock) {
	target.now = c.Now
	target.sleep = c.Sleep
}

func statusPrediction(status string) *inference.Prediction {
	raw, _ := json.Marshal(map[string]interface{}{"id": "pred-1", "status": status})
	return &inference.Prediction{ID: "pred-1", Status: status, Raw: raw}
}

func succeededPrediction(urls []string, seeds []int64, predictTime float64, logs string) *inference.Prediction {
	raw, _ := json.Marshal(map[string]interface{}{
		"id":     "pred-1",
		"status": "succeeded",
		"logs":   logs,
		"error":  nil,
		"output": map[string]interface{}{
			"urls_result": urls,
			"seeds":       seeds,
			"imgSize":     []int{1024, 768},
		},
		"metrics": map[string]interface{}{"predict_time": predictTime},
	})
	return &inference.Prediction{ID: "pred-1", Status: "succeeded", Logs: logs, Raw: raw}
}

func failedPrediction(status, logs, message string) *inference.Prediction {
	raw, _ := json.Marshal(map[string]interface{}{"id": "pred-1", "status": status, "logs": logs, "error": message})
	return &inference.Prediction{ID: "pred-1", Status: status, Logs: logs, Error: message, Raw: raw}
}
