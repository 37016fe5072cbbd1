package api

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
)

const (
	msgNoRecords   = "No records found in the event"
	msgNoBody      = "No body found in the SQS message"
	msgInvalidJSON = "Invalid JSON format in SQS message body"
)

// ParseSQSEvent extracts the job initialization from the first record of
// event. Extra records are logged and ignored.
func ParseSQSEvent(event events.SQSEvent) (entity.JobInitialization, error) {
	if len(event.Records) == 0 {
		return entity.JobInitialization{}, apperrors.Validation("Records", msgNoRecords)
	}
	if extra := len(event.Records) - 1; extra > 0 {
		logrus.WithFields(logrus.Fields{
			"message_id": event.Records[0].MessageId,
			"ignored":    extra,
		}).Warn("sqs event carries more than one record, processing the first only")
	}

	body := event.Records[0].Body
	if strings.TrimSpace(body) == "" {
		return entity.JobInitialization{}, apperrors.Validation("body", msgNoBody)
	}

	var init entity.JobInitialization
	if err := json.Unmarshal([]byte(body), &init); err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			return entity.JobInitialization{}, err
		}
		logrus.WithError(err).WithField("message_id", event.Records[0].MessageId).Warn("failed to decode sqs message body")
		return entity.JobInitialization{}, apperrors.Validation("body", msgInvalidJSON)
	}
	return init, nil
}
