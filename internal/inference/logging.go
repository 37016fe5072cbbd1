package inference

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

const logSnippetLimit = 120

func providerLogger(ctx context.Context, predictionID, version string) *logrus.Entry {
	fields := logrus.Fields{
		"provider": "replicate",
	}
	if id := strings.TrimSpace(predictionID); id != "" {
		fields["prediction_id"] = id
	}
	if v := strings.TrimSpace(version); v != "" {
		fields["version"] = v
	}

	entry := logrus.WithFields(fields)
	if ctx != nil {
		entry = entry.WithContext(ctx)
	}
	return entry
}

func logSnippet(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	runes := []rune(value)
	if len(runes) <= logSnippetLimit {
		return value
	}

	return string(runes[:logSnippetLimit]) + "..."
}
