package inference

import (
	"errors"
	"testing"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractIncoming(t *testing.T) {
	raw := `{
		"id": "pred-1",
		"status": "succeeded",
		"error": null,
		"logs": "done",
		"output": {"seeds": [11, 12], "urls_result": ["https://r/a.png", "https://r/b.png"], "imgSize": [1024, 768]},
		"metrics": {"predict_time": 12.5}
	}`

	incoming, err := ExtractIncoming(entity.JobTypeSemantic, &Prediction{Raw: []byte(raw)})
	require.NoError(t, err)
	assert.Equal(t, entity.JobTypeSemantic, incoming.Type)
	assert.Equal(t, "pred-1", incoming.ID)
	assert.Equal(t, []int64{11, 12}, incoming.Output.Seeds)
	assert.Equal(t, []string{"https://r/a.png", "https://r/b.png"}, incoming.Output.URLsResult)
	assert.Equal(t, []int{1024, 768}, incoming.Output.ImgSize)
	assert.Equal(t, 12.5, incoming.Metrics.PredictTime)
}

func TestExtractIncomingSingleSeed(t *testing.T) {
	raw := `{"id":"p","output":{"seed":0,"urlsResult":["u"]},"metrics":{"predict_time":1}}`
	incoming, err := ExtractIncoming(entity.JobTypeRefinement, &Prediction{Raw: []byte(raw)})
	require.NoError(t, err)
	assert.Equal(t, []int64{0}, incoming.Output.Seeds)
	assert.Equal(t, entity.JobTypeRefinement, incoming.Type)
	assert.Nil(t, incoming.Output.ImgSize)
}

func TestExtractIncomingMalformed(t *testing.T) {
	tests := []struct {
		name    string
		jobType entity.JobType
		raw     string
		message string
	}{
		{name: "not an object", jobType: entity.JobTypeSemantic, raw: `[]`, message: "extractPredictionIncoming: Invalid response object"},
		{name: "numeric id", jobType: entity.JobTypeSemantic, raw: `{"id":7}`, message: "extractPredictionIncoming: Invalid id"},
		{name: "object error", jobType: entity.JobTypeSemantic, raw: `{"id":"p","error":{"code":1}}`, message: "extractPredictionIncoming: Invalid error"},
		{name: "missing output", jobType: entity.JobTypeSemantic, raw: `{"id":"p","metrics":{"predict_time":1}}`, message: "extractPredictionIncoming: Invalid output"},
		{name: "non string url", jobType: entity.JobTypeSemantic, raw: `{"id":"p","output":{"urls_result":[1],"seeds":[1]}}`, message: "extractPredictionIncoming: Invalid urls_result in output"},
		{name: "no seeds", jobType: entity.JobTypeSemantic, raw: `{"id":"p","output":{"urls_result":[]}}`, message: "extractPredictionIncoming: No valid seeds or seed found in output"},
		{name: "missing predict time", jobType: entity.JobTypeSemantic, raw: `{"id":"p","output":{"urls_result":[],"seeds":[]},"metrics":{}}`, message: "extractPredictionIncoming: Invalid predict_time in metrics"},
		{name: "string predict time", jobType: entity.JobTypeSemantic, raw: `{"id":"p","output":{"urls_result":[],"seeds":[]},"metrics":{"predict_time":"3"}}`, message: "extractPredictionIncoming: Invalid predict_time in metrics"},
		{name: "error job type", jobType: entity.JobTypeError, raw: `{"id":"p"}`, message: "predictionJob is an unexpected type: error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractIncoming(tt.jobType, &Prediction{Raw: []byte(tt.raw)})
			if !errors.Is(err, apperrors.ErrMalformedResponse) {
				t.Fatalf("expected malformed response, got %v", err)
			}
			if err.Error() != tt.message {
				t.Errorf("expected %q, got %q", tt.message, err.Error())
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"starting", "processing", "succeeded", "canceled", "failed"} {
		if _, err := ParseStatus(s); err != nil {
			t.Errorf("expected %q to be accepted, got %v", s, err)
		}
	}
	for _, s := range []string{"pending", "error", "queued", "cancelled", ""} {
		_, err := ParseStatus(s)
		if !errors.Is(err, apperrors.ErrUnexpectedStatus) {
			t.Errorf("expected %q to be rejected, got %v", s, err)
		}
	}
}

func TestBuildRequest(t *testing.T) {
	versions := Versions{Semantic: "v-sem", Refinement: "v-ref"}
	tests := []struct {
		name     string
		outgoing entity.Outgoing
		version  string
		wantErr  bool
	}{
		{name: "multiseed", outgoing: entity.NewOutgoing(&entity.SemanticMultiseed{}), version: "v-sem"},
		{name: "singleseed", outgoing: entity.NewOutgoing(&entity.SemanticSingleseed{}), version: "v-sem"},
		{name: "refinement", outgoing: entity.NewOutgoing(&entity.Refinement{}), version: "v-ref"},
		{name: "missing payload", outgoing: entity.Outgoing{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildRequest(tt.outgoing, versions)
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrInitialization) {
					t.Fatalf("expected initialization error, got %v", err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.version, req.Version)
		})
	}

	_, err := BuildRequest(entity.NewOutgoing(&entity.Refinement{}), Versions{Semantic: "v-sem"})
	require.Error(t, err)
	assert.Equal(t, "No version ID found for prediction job type: refinement", err.Error())
}
