package api

import (
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
)

const validBody = `{
	"jobId": "job-1",
	"userId": "user-1",
	"sessionId": "session-1",
	"originEnvironment": "webapp",
	"expectedImageCount": 2,
	"predictionOutgoing": {"type": "semantic", "subtype": "multiseed", "numSeedVariations": 2, "pmtScene": "a quiet harbor"}
}`

func sqsEvent(bodies ...string) events.SQSEvent {
	event := events.SQSEvent{}
	for i, body := range bodies {
		event.Records = append(event.Records, events.SQSMessage{MessageId: string(rune('a' + i)), Body: body})
	}
	return event
}

func TestParseSQSEvent(t *testing.T) {
	init, err := ParseSQSEvent(sqsEvent(validBody, `{"jobId":"ignored"}`))
	if err != nil {
		t.Fatalf("ParseSQSEvent: %v", err)
	}
	if init.JobID != "job-1" {
		t.Errorf("expected first record to win, got job %q", init.JobID)
	}
	if init.PredictionOutgoing.JobType() != entity.JobTypeSemantic {
		t.Errorf("expected semantic payload, got %q", init.PredictionOutgoing.JobType())
	}
	multiseed, ok := init.PredictionOutgoing.Payload.(*entity.SemanticMultiseed)
	if !ok {
		t.Fatalf("expected *SemanticMultiseed, got %T", init.PredictionOutgoing.Payload)
	}
	if multiseed.NumSeedVariations != 2 || multiseed.PmtScene != "a quiet harbor" {
		t.Errorf("unexpected payload %+v", multiseed)
	}
}

func TestParseSQSEventRejects(t *testing.T) {
	tests := []struct {
		name    string
		event   events.SQSEvent
		message string
	}{
		{name: "no records", event: events.SQSEvent{}, message: "No records found in the event"},
		{name: "empty body", event: sqsEvent(""), message: "No body found in the SQS message"},
		{name: "blank body", event: sqsEvent("  \n\t"), message: "No body found in the SQS message"},
		{name: "invalid json", event: sqsEvent("{jobId: job-1"), message: "Invalid JSON format in SQS message body"},
		{name: "wrong field type", event: sqsEvent(`{"jobId": 42}`), message: "Invalid JSON format in SQS message body"},
		{
			name:    "unknown prediction type",
			event:   sqsEvent(`{"jobId":"job-1","predictionOutgoing":{"type":"upscale"}}`),
			message: `unsupported prediction type "upscale"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSQSEvent(tt.event)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, apperrors.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
			if err.Error() != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, err.Error())
			}
		})
	}
}
