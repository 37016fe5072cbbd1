// Package observability exposes the worker's otel metrics through a
// Prometheus scrape handler.
package observability

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

const (
	attrMethod  = "method"
	attrPath    = "path"
	attrStatus  = "status"
	attrJobType = "job_type"
	attrOutcome = "outcome"
	attrSubtype = "subtype"
)

func methodAttr(method string) attribute.KeyValue {
	return attribute.String(attrMethod, method)
}

func pathAttr(path string) attribute.KeyValue {
	return attribute.String(attrPath, normalizePath(path))
}

// statusCodeAttr groups HTTP codes into 2xx/4xx/5xx.
func statusCodeAttr(code int) attribute.KeyValue {
	return attribute.String(attrStatus, fmt.Sprintf("%dxx", code/100))
}

func statusAttr(status string) attribute.KeyValue {
	return attribute.String(attrStatus, status)
}

func jobTypeAttr(jobType string) attribute.KeyValue {
	if jobType == "" {
		jobType = "unknown"
	}
	return attribute.String(attrJobType, jobType)
}

func outcomeAttr(outcome string) attribute.KeyValue {
	return attribute.String(attrOutcome, outcome)
}

func subtypeAttr(subtype string) attribute.KeyValue {
	return attribute.String(attrSubtype, subtype)
}

// normalizePath replaces the job id in /api/jobs/{id} to bound cardinality.
func normalizePath(path string) string {
	const prefix = "/api/jobs/"
	if strings.HasPrefix(path, prefix) && len(path) > len(prefix) {
		return prefix + "{jobId}"
	}
	return path
}
