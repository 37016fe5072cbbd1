package entity

import (
	"database/sql/driver"

	"github.com/Pseudotools/pseudorandom-worker/internal/entity/common"
)

// PredictionIncoming is the validated result of a succeeded prediction.
type PredictionIncoming struct {
	Type    JobType         `json:"type"`
	ID      string          `json:"id"`
	Output  IncomingOutput  `json:"output"`
	Metrics IncomingMetrics `json:"metrics"`
}

// IncomingOutput lists result images in render order.
type IncomingOutput struct {
	Seeds      []int64  `json:"seeds"`
	URLsResult []string `json:"urlsResult"`
	ImgSize    []int    `json:"imgSize,omitempty"`
}

// IncomingMetrics carries provider-side accounting.
type IncomingMetrics struct {
	PredictTime float64 `json:"predict_time"`
}

// Dimensions returns the reported image width and height, if any.
func (o IncomingOutput) Dimensions() (width, height *int) {
	if len(o.ImgSize) < 2 {
		return nil, nil
	}
	w, h := o.ImgSize[0], o.ImgSize[1]
	return &w, &h
}

// SeedAt returns the seed for the index-th render. A single seed applies to
// every render.
func (o IncomingOutput) SeedAt(index int) *int64 {
	switch {
	case len(o.Seeds) == 0:
		return nil
	case index < len(o.Seeds):
		s := o.Seeds[index]
		return &s
	case len(o.Seeds) == 1:
		s := o.Seeds[0]
		return &s
	default:
		return nil
	}
}

// Value implements driver.Valuer.
func (p PredictionIncoming) Value() (driver.Value, error) {
	return common.JSONValue(p)
}

// Scan implements sql.Scanner.
func (p *PredictionIncoming) Scan(value interface{}) error {
	return common.ScanJSON(value, p)
}
