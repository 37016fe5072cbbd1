package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/config"
	"github.com/sirupsen/logrus"
)

const (
	replicateDefaultBaseURL = "https://api.replicate.com/v1"
	replicateDefaultTimeout = 60 * time.Second
)

// Replicate is a Client for the Replicate predictions API.
type Replicate struct {
	apiToken   string
	baseURL    string
	httpClient *http.Client
}

// NewReplicate builds a Replicate client from configuration.
func NewReplicate(cfg config.Config) (*Replicate, error) {
	apiToken := strings.TrimSpace(cfg.ReplicateAPIToken)
	if apiToken == "" {
		return nil, errors.New("replicate api token is not configured")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.ReplicateBaseURL), "/")
	if baseURL == "" {
		baseURL = replicateDefaultBaseURL
	}
	timeout := cfg.ReplicateHTTPTimeout
	if timeout <= 0 {
		timeout = replicateDefaultTimeout
	}
	return &Replicate{
		apiToken:   apiToken,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// replicatePrediction is the subset of the prediction resource the worker reads.
type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Logs   *string         `json:"logs"`
	Error  json.RawMessage `json:"error"`
}

type replicateError struct {
	Detail string `json:"detail"`
}

// Submit creates a prediction. Replicate answers 201 on success.
func (r *Replicate) Submit(ctx context.Context, req Request) (*Prediction, error) {
	if r == nil {
		return nil, apperrors.Provider("replicate client not initialised")
	}
	logger := providerLogger(ctx, "", req.Version)

	bs, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.ProviderCause("replicate marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/predictions", bytes.NewReader(bs))
	if err != nil {
		return nil, apperrors.ProviderCause("replicate create request", err)
	}

	prediction, err := r.do(httpReq, http.StatusCreated)
	if err != nil {
		logger.WithError(err).Warn("replicate_submit_failed")
		return nil, err
	}
	if strings.TrimSpace(prediction.ID) == "" {
		return nil, apperrors.Provider("replicate response did not include a prediction id")
	}

	providerLogger(ctx, prediction.ID, req.Version).WithField("status", prediction.Status).Info("replicate_prediction_submitted")
	return prediction, nil
}

// Poll reads a prediction. Replicate answers 200 on success.
func (r *Replicate) Poll(ctx context.Context, predictionID string) (*Prediction, error) {
	if r == nil {
		return nil, apperrors.Provider("replicate client not initialised")
	}
	id := strings.TrimSpace(predictionID)
	if id == "" {
		return nil, apperrors.Provider("prediction id is required")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/predictions/"+id, nil)
	if err != nil {
		return nil, apperrors.ProviderCause("replicate create poll request", err)
	}

	prediction, err := r.do(httpReq, http.StatusOK)
	if err != nil {
		providerLogger(ctx, id, "").WithError(err).Warn("replicate_poll_failed")
		return nil, err
	}

	providerLogger(ctx, id, "").WithFields(logrus.Fields{
		"status":       prediction.Status,
		"logs_preview": logSnippet(prediction.Logs),
	}).Debug("replicate_poll_status")
	return prediction, nil
}

func (r *Replicate) do(req *http.Request, wantStatus int) (*Prediction, error) {
	req.Header.Set("Authorization", "Token "+r.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.ProviderCause("replicate request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.ProviderCause("replicate read response", err)
	}

	if resp.StatusCode != wantStatus {
		var apiErr replicateError
		if err := json.Unmarshal(body, &apiErr); err == nil && strings.TrimSpace(apiErr.Detail) != "" {
			return nil, apperrors.Provider(apiErr.Detail)
		}
		return nil, apperrors.Provider(fmt.Sprintf("replicate http %d: %s", resp.StatusCode, logSnippet(string(body))))
	}

	var decoded replicatePrediction
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, apperrors.ProviderCause("replicate decode response", err)
	}

	prediction := &Prediction{
		ID:     decoded.ID,
		Status: decoded.Status,
		Error:  errorText(decoded.Error),
		Raw:    json.RawMessage(body),
	}
	if decoded.Logs != nil {
		prediction.Logs = *decoded.Logs
	}
	return prediction, nil
}

// errorText renders the prediction's error field, which is usually a string
// or null.
func errorText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}
