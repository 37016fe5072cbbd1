// Package inference drives predictions on the hosted inference provider.
package inference

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
)

// Client submits and polls predictions. Implementations hold no per-job state.
type Client interface {
	// Submit starts a prediction for the given model version.
	Submit(ctx context.Context, req Request) (*Prediction, error)
	// Poll fetches the current state of a prediction.
	Poll(ctx context.Context, predictionID string) (*Prediction, error)
}

// Request is the body of a prediction submission.
type Request struct {
	Version string      `json:"version"`
	Input   interface{} `json:"input"`
}

// Prediction is one provider answer. Status is reported verbatim; use
// ParseStatus before acting on it.
type Prediction struct {
	ID     string
	Status string
	Logs   string
	Error  string
	// Raw is the full response body, kept for result extraction.
	Raw json.RawMessage
}

// ParseStatus accepts only the provider's status vocabulary.
func ParseStatus(raw string) (entity.JobStatus, error) {
	status := entity.JobStatus(strings.TrimSpace(raw))
	if !status.IsProviderStatus() {
		return "", apperrors.UnexpectedStatus(raw)
	}
	return status, nil
}

// Versions maps job types to deployed model versions.
type Versions struct {
	Semantic   string
	Refinement string
}

// BuildRequest selects the model version for the payload's variant and uses
// the payload itself as the model input.
func BuildRequest(outgoing entity.Outgoing, versions Versions) (Request, error) {
	var version string
	switch payload := outgoing.Payload.(type) {
	case *entity.SemanticMultiseed, *entity.SemanticSingleseed:
		version = versions.Semantic
	case *entity.Refinement:
		version = versions.Refinement
	case nil:
		return Request{}, apperrors.Initialization("build prediction request", errMissingPayload)
	default:
		return Request{}, apperrors.Initialization("build prediction request", unsupportedPayload(payload))
	}

	version = strings.TrimSpace(version)
	if version == "" {
		return Request{}, apperrors.Initialization("No version ID found for prediction job type: "+string(outgoing.JobType()), nil)
	}
	return Request{Version: version, Input: outgoing}, nil
}
