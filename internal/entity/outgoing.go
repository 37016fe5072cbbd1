package entity

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity/common"
)

// OutgoingKind names a concrete predictionOutgoing variant.
type OutgoingKind string

const (
	KindSemanticMultiseed  OutgoingKind = "semantic-multiseed"
	KindSemanticSingleseed OutgoingKind = "semantic-singleseed"
	KindRefinement         OutgoingKind = "refinement"
)

const (
	subtypeMultiseed  = "multiseed"
	subtypeSingleseed = "singleseed"
)

// PredictionOutgoing is the request payload sent to the inference provider.
// The set of implementations is closed: *SemanticMultiseed,
// *SemanticSingleseed and *Refinement.
type PredictionOutgoing interface {
	Kind() OutgoingKind
	JobType() JobType
	setHeader()
}

// OutgoingHeader carries the discriminator fields on the wire.
type OutgoingHeader struct {
	Type    JobType `json:"type"`
	Subtype string  `json:"subtype,omitempty"`
}

// Prompts are shared by every variant.
type Prompts struct {
	PmtStyle    string `json:"pmtStyle"`
	PmtScene    string `json:"pmtScene"`
	PmtNegative string `json:"pmtNegative"`
}

// SemanticConfig tunes the semantic model's base, inpaint and outpaint passes.
type SemanticConfig struct {
	NumInferenceStepsBase               int     `json:"numInferenceStepsBase"`
	NumInferenceStepsInpaint            int     `json:"numInferenceStepsInpaint"`
	NumInferenceStepsOutpaint           int     `json:"numInferenceStepsOutpaint"`
	StrengthInpaint                     float64 `json:"strengthInpaint"`
	StrengthOutpaint                    float64 `json:"strengthOutpaint"`
	ControlnetConditioningScaleBase     float64 `json:"controlnetConditioningScaleBase"`
	ControlnetConditioningScaleInpaint  float64 `json:"controlnetConditioningScaleInpaint"`
	ControlnetConditioningScaleOutpaint float64 `json:"controlnetConditioningScaleOutpaint"`
	ControlGuidanceStartBase            float64 `json:"controlGuidanceStartBase"`
	ControlGuidanceEndBase              float64 `json:"controlGuidanceEndBase"`
	ControlGuidanceStartInpaint         float64 `json:"controlGuidanceStartInpaint"`
	ControlGuidanceEndInpaint           float64 `json:"controlGuidanceEndInpaint"`
	ControlGuidanceStartOutpaint        float64 `json:"controlGuidanceStartOutpaint"`
	ControlGuidanceEndOutpaint          float64 `json:"controlGuidanceEndOutpaint"`
	GuidanceScaleBase                   float64 `json:"guidanceScaleBase"`
	GuidanceScaleInpaint                float64 `json:"guidanceScaleInpaint"`
	GuidanceScaleOutpaint               float64 `json:"guidanceScaleOutpaint"`
}

// RefinementConfig tunes the refiner. The Guidence spelling matches the
// deployed model's input schema.
type RefinementConfig struct {
	NumInferenceStepsBase       int     `json:"numInferenceStepsBase"`
	NumInferenceStepsRefiner    int     `json:"numInferenceStepsRefiner"`
	Strength                    float64 `json:"strength"`
	ControlnetConditioningScale float64 `json:"controlnetConditioningScale"`
	ControlGuidenceStart        float64 `json:"controlGuidenceStart"`
	ControlGuidenceEnd          float64 `json:"controlGuidenceEnd"`
}

// SemanticMultiseed generates several images with random seeds.
type SemanticMultiseed struct {
	OutgoingHeader
	Prompts
	ImgDepth       string `json:"imgDepth"`
	MapSemanticStr string `json:"mapSemanticStr"`
	ImgSemantic    string `json:"imgSemantic"`
	SemanticConfig
	NumSeedVariations int `json:"numSeedVariations"`
}

func (*SemanticMultiseed) Kind() OutgoingKind { return KindSemanticMultiseed }
func (*SemanticMultiseed) JobType() JobType   { return JobTypeSemantic }
func (s *SemanticMultiseed) setHeader() {
	s.OutgoingHeader = OutgoingHeader{Type: JobTypeSemantic, Subtype: subtypeMultiseed}
}

// SemanticSingleseed generates one image from a fixed seed.
type SemanticSingleseed struct {
	OutgoingHeader
	Prompts
	ImgDepth       string `json:"imgDepth"`
	MapSemanticStr string `json:"mapSemanticStr"`
	ImgSemantic    string `json:"imgSemantic"`
	SemanticConfig
	Seed int64 `json:"seed"`
}

func (*SemanticSingleseed) Kind() OutgoingKind { return KindSemanticSingleseed }
func (*SemanticSingleseed) JobType() JobType   { return JobTypeSemantic }
func (s *SemanticSingleseed) setHeader() {
	s.OutgoingHeader = OutgoingHeader{Type: JobTypeSemantic, Subtype: subtypeSingleseed}
}

// Refinement refines a root image with a single seed.
type Refinement struct {
	OutgoingHeader
	Prompts
	ImgDepth       string `json:"imgDepth"`
	MapSemanticStr string `json:"mapSemanticStr"`
	ImgRoot        string `json:"imgRoot"`
	RefinementConfig
	Seed int64 `json:"seed"`
}

func (*Refinement) Kind() OutgoingKind { return KindRefinement }
func (*Refinement) JobType() JobType   { return JobTypeRefinement }
func (r *Refinement) setHeader() {
	r.OutgoingHeader = OutgoingHeader{Type: JobTypeRefinement}
}

// Outgoing wraps a PredictionOutgoing for JSON and database round trips.
// A nil Payload means the payload, or its type discriminator, was absent.
type Outgoing struct {
	Payload PredictionOutgoing
}

// NewOutgoing wraps v with its discriminator fields normalised.
func NewOutgoing(v PredictionOutgoing) Outgoing {
	if v != nil {
		v.setHeader()
	}
	return Outgoing{Payload: v}
}

// JobType returns the job type implied by the payload, or "" when absent.
func (o Outgoing) JobType() JobType {
	if o.Payload == nil {
		return ""
	}
	return o.Payload.JobType()
}

// MarshalJSON implements json.Marshaler.
func (o Outgoing) MarshalJSON() ([]byte, error) {
	if o.Payload == nil {
		return []byte("null"), nil
	}
	o.Payload.setHeader()
	return json.Marshal(o.Payload)
}

// UnmarshalJSON implements json.Unmarshaler. A missing type leaves Payload nil
// so the caller can report the missing field; an unknown type or subtype is a
// validation error.
func (o *Outgoing) UnmarshalJSON(data []byte) error {
	o.Payload = nil
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var header OutgoingHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return apperrors.Validation("predictionOutgoing", fmt.Sprintf("invalid predictionOutgoing: %v", err))
	}

	var target PredictionOutgoing
	switch header.Type {
	case "":
		return nil
	case JobTypeSemantic:
		switch header.Subtype {
		case subtypeMultiseed:
			target = &SemanticMultiseed{}
		case subtypeSingleseed:
			target = &SemanticSingleseed{}
		default:
			return apperrors.Validation("predictionOutgoing.subtype", fmt.Sprintf("unsupported semantic subtype %q", header.Subtype))
		}
	case JobTypeRefinement:
		target = &Refinement{}
	default:
		return apperrors.Validation("predictionOutgoing.type", fmt.Sprintf("unsupported prediction type %q", header.Type))
	}

	if err := json.Unmarshal(data, target); err != nil {
		return apperrors.Validation("predictionOutgoing", fmt.Sprintf("invalid %s payload: %v", target.Kind(), err))
	}
	target.setHeader()
	o.Payload = target
	return nil
}

// Value implements driver.Valuer.
func (o Outgoing) Value() (driver.Value, error) {
	if o.Payload == nil {
		return nil, nil
	}
	return common.JSONValue(o)
}

// Scan implements sql.Scanner.
func (o *Outgoing) Scan(value interface{}) error {
	return common.ScanJSON(value, o)
}
