package entity

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multiseedInit = `{
	"jobId": "job-1",
	"userId": "user-1",
	"sessionId": "session-1",
	"originEnvironment": "webapp",
	"originId": "origin-1",
	"expectedImageCount": 3,
	"expectedImageWidth": 1024,
	"expectedImageHeight": 768,
	"predictionOutgoing": {
		"type": "semantic",
		"subtype": "multiseed",
		"pmtStyle": "watercolor",
		"pmtScene": "courtyard",
		"pmtNegative": "blurry",
		"imgDepth": "data:image/png;base64,AAAA",
		"mapSemanticStr": "{}",
		"imgSemantic": "data:image/png;base64,BBBB",
		"numInferenceStepsBase": 30,
		"numSeedVariations": 3
	}
}`

func TestBuildJobFromInitialization(t *testing.T) {
	var init JobInitialization
	require.NoError(t, json.Unmarshal([]byte(multiseedInit), &init))

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	job, err := BuildJob(init, now)
	require.NoError(t, err)

	assert.Equal(t, "job-1", job.JobID)
	assert.Equal(t, JobTypeSemantic, job.Type)
	assert.Equal(t, StatusPending, job.Status)
	require.NotNil(t, job.UserID)
	assert.Equal(t, "user-1", *job.UserID)
	assert.Equal(t, 3, job.ExpectedImageCount)
	assert.Nil(t, job.PredictionIncoming)
	assert.Nil(t, job.ComputeTime)
	assert.Nil(t, job.DeliveryTime)
	assert.Nil(t, job.TransactionID)
	assert.Nil(t, job.ErrorMessage)
	assert.Empty(t, job.RenderIDs)

	payload, ok := job.PredictionOutgoing.Payload.(*SemanticMultiseed)
	require.True(t, ok, "expected *SemanticMultiseed, got %T", job.PredictionOutgoing.Payload)
	assert.Equal(t, 3, payload.NumSeedVariations)
	assert.Equal(t, 30, payload.NumInferenceStepsBase)
	assert.Equal(t, "courtyard", payload.PmtScene)
}

func TestBuildJobValidation(t *testing.T) {
	valid := func() JobInitialization {
		return JobInitialization{
			JobID:              "job-1",
			UserID:             "user-1",
			ExpectedImageCount: 1,
			PredictionOutgoing: NewOutgoing(&Refinement{Seed: 7}),
		}
	}

	tests := []struct {
		name   string
		mutate func(*JobInitialization)
		field  string
	}{
		{name: "missing job id", mutate: func(i *JobInitialization) { i.JobID = " " }, field: "jobId"},
		{name: "missing user id", mutate: func(i *JobInitialization) { i.UserID = "" }, field: "userId"},
		{name: "missing outgoing type", mutate: func(i *JobInitialization) { i.PredictionOutgoing = Outgoing{} }, field: "predictionOutgoing.type"},
		{name: "zero image count", mutate: func(i *JobInitialization) { i.ExpectedImageCount = 0 }, field: "expectedImageCount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			init := valid()
			tt.mutate(&init)
			_, err := BuildJob(init, time.Now())
			if !errors.Is(err, apperrors.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			var appErr *apperrors.Error
			if !errors.As(err, &appErr) || appErr.Field != tt.field {
				t.Errorf("expected field %q, got %+v", tt.field, appErr)
			}
		})
	}

	job, err := BuildJob(valid(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, JobTypeRefinement, job.Type)
}

func TestOutgoingUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		kind    OutgoingKind
		nilBody bool
		wantErr bool
	}{
		{name: "multiseed", raw: `{"type":"semantic","subtype":"multiseed","numSeedVariations":4}`, kind: KindSemanticMultiseed},
		{name: "singleseed", raw: `{"type":"semantic","subtype":"singleseed","seed":42}`, kind: KindSemanticSingleseed},
		{name: "refinement", raw: `{"type":"refinement","seed":9,"imgRoot":"x","controlGuidenceStart":0.1}`, kind: KindRefinement},
		{name: "missing type", raw: `{"seed":1}`, nilBody: true},
		{name: "null", raw: `null`, nilBody: true},
		{name: "unknown type", raw: `{"type":"upscale"}`, wantErr: true},
		{name: "unknown subtype", raw: `{"type":"semantic","subtype":"tiled"}`, wantErr: true},
		{name: "wrong field type", raw: `{"type":"refinement","seed":"nine"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Outgoing
			err := json.Unmarshal([]byte(tt.raw), &o)
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.nilBody {
				if o.Payload != nil {
					t.Errorf("expected nil payload, got %T", o.Payload)
				}
				return
			}
			if o.Payload == nil || o.Payload.Kind() != tt.kind {
				t.Fatalf("expected kind %s, got %+v", tt.kind, o.Payload)
			}
		})
	}
}

func TestOutgoingMarshalNormalisesHeader(t *testing.T) {
	raw, err := json.Marshal(NewOutgoing(&SemanticSingleseed{Seed: 11}))
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "semantic", fields["type"])
	assert.Equal(t, "singleseed", fields["subtype"])
	assert.EqualValues(t, 11, fields["seed"])

	raw, err = json.Marshal(NewOutgoing(&Refinement{}))
	require.NoError(t, err)
	fields = nil
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "refinement", fields["type"])
	_, hasSubtype := fields["subtype"]
	assert.False(t, hasSubtype)
}

func TestOutgoingDatabaseRoundTrip(t *testing.T) {
	in := NewOutgoing(&SemanticMultiseed{NumSeedVariations: 2})
	value, err := in.Value()
	require.NoError(t, err)

	var out Outgoing
	require.NoError(t, out.Scan(value))
	require.IsType(t, &SemanticMultiseed{}, out.Payload)
	assert.Equal(t, 2, out.Payload.(*SemanticMultiseed).NumSeedVariations)

	empty, err := Outgoing{}.Value()
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestRenderIDs(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  []string
	}{
		{name: "none", count: 0, want: nil},
		{name: "single", count: 1, want: []string{"job-00"}},
		{name: "three", count: 3, want: []string{"job-00", "job-01", "job-02"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderIDs("job", tt.count))
		})
	}

	wide := RenderIDs("job", 101)
	require.Len(t, wide, 101)
	assert.Equal(t, "job-00", wide[0])
	assert.Equal(t, "job-09", wide[9])
	assert.Equal(t, "job-99", wide[99])
	assert.Equal(t, "job-100", wide[100])
	for i := 1; i < len(wide); i++ {
		assert.True(t, RenderIDLess(wide[i-1], wide[i]), "%s before %s", wide[i-1], wide[i])
	}
}

func TestNewPendingRenders(t *testing.T) {
	user := "user-1"
	job := &PredictionJob{JobID: "job-9", SessionID: "s", UserID: &user, Type: JobTypeSemantic, ExpectedImageCount: 4}
	renders := NewPendingRenders(job, time.Now())

	require.Len(t, renders, 4)
	for i, r := range renders {
		assert.Equal(t, RenderID("job-9", i), r.RenderID)
		assert.Equal(t, StatusPending, r.Status)
		assert.Equal(t, "job-9", r.JobID)
		assert.Nil(t, r.URL)
	}
}

func TestStatusVocabulary(t *testing.T) {
	tests := []struct {
		status   JobStatus
		terminal bool
		provider bool
	}{
		{StatusPending, false, false},
		{StatusStarting, false, true},
		{StatusProcessing, false, true},
		{StatusSucceeded, true, true},
		{StatusCanceled, true, true},
		{StatusFailed, true, true},
		{StatusError, true, false},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("%s: expected terminal %v, got %v", tt.status, tt.terminal, got)
		}
		if got := tt.status.IsProviderStatus(); got != tt.provider {
			t.Errorf("%s: expected provider status %v, got %v", tt.status, tt.provider, got)
		}
	}
}

func TestBuildErrorJob(t *testing.T) {
	init := JobInitialization{JobID: "job-1", UserID: "user-1", ExpectedImageCount: 2}

	job := BuildErrorJob(init, "boom", false, time.Now())
	assert.Equal(t, JobTypeError, job.Type)
	assert.Equal(t, StatusError, job.Status)
	assert.Nil(t, job.UserID)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "boom", *job.ErrorMessage)

	job = BuildErrorJob(init, "boom", true, time.Now())
	require.NotNil(t, job.UserID)
	assert.Equal(t, "user-1", *job.UserID)
}

func TestJobUpdates(t *testing.T) {
	u := JobUpdates{Status: Ptr(StatusSucceeded), ComputeTime: Ptr(2.5), ServerLog: Ptr("done")}

	assert.Equal(t, map[string]interface{}{
		"status":       StatusSucceeded,
		"compute_time": 2.5,
		"server_log":   "done",
	}, u.ToMap())
	assert.Equal(t, map[string]interface{}{
		"status":      StatusSucceeded,
		"computeTime": 2.5,
		"serverLog":   "done",
	}, u.ToRecord())
	assert.True(t, JobUpdates{}.IsEmpty())

	job := &PredictionJob{Status: StatusProcessing}
	u.Apply(job)
	assert.Equal(t, StatusSucceeded, job.Status)
	require.NotNil(t, job.ComputeTime)
	assert.Equal(t, 2.5, *job.ComputeTime)
}

func TestIncomingOutputHelpers(t *testing.T) {
	out := IncomingOutput{Seeds: []int64{5}, ImgSize: []int{640, 480}}
	w, h := out.Dimensions()
	require.NotNil(t, w)
	assert.Equal(t, 640, *w)
	assert.Equal(t, 480, *h)
	assert.Equal(t, int64(5), *out.SeedAt(2))

	out = IncomingOutput{Seeds: []int64{1, 2}}
	assert.Nil(t, out.SeedAt(3))
	w, _ = out.Dimensions()
	assert.Nil(t, w)
}
