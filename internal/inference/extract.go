package inference

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
)

// ExtractIncoming validates a succeeded prediction and converts it into the
// stored result for a job of the given type.
func ExtractIncoming(jobType entity.JobType, p *Prediction) (*entity.PredictionIncoming, error) {
	switch jobType {
	case entity.JobTypeSemantic, entity.JobTypeRefinement:
	default:
		return nil, apperrors.MalformedResponse(fmt.Sprintf("predictionJob is an unexpected type: %s", jobType))
	}
	if p == nil || len(bytes.TrimSpace(p.Raw)) == 0 {
		return nil, malformed("Invalid response object")
	}

	var response map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(p.Raw))
	decoder.UseNumber()
	if err := decoder.Decode(&response); err != nil || response == nil {
		return nil, malformed("Invalid response object")
	}

	id, ok := response["id"].(string)
	if !ok {
		return nil, malformed("Invalid id")
	}
	if raw, present := response["error"]; present && raw != nil {
		if _, ok := raw.(string); !ok {
			return nil, malformed("Invalid error")
		}
	}

	output, err := extractOutput(response["output"])
	if err != nil {
		return nil, err
	}
	metrics, err := extractMetrics(response["metrics"])
	if err != nil {
		return nil, err
	}

	return &entity.PredictionIncoming{
		Type:    jobType,
		ID:      id,
		Output:  output,
		Metrics: metrics,
	}, nil
}

func malformed(reason string) error {
	return apperrors.MalformedResponse("extractPredictionIncoming: " + reason)
}

func extractOutput(raw interface{}) (entity.IncomingOutput, error) {
	var out entity.IncomingOutput
	output, ok := raw.(map[string]interface{})
	if !ok {
		return out, malformed("Invalid output")
	}

	urlsRaw, present := output["urls_result"]
	if !present {
		urlsRaw = output["urlsResult"]
	}
	urls, ok := stringSlice(urlsRaw)
	if !ok {
		return out, malformed("Invalid urls_result in output")
	}
	out.URLsResult = urls

	// seeds may be an array or a singleton seed
	if seedsRaw, ok := output["seeds"].([]interface{}); ok {
		seeds := make([]int64, 0, len(seedsRaw))
		for _, s := range seedsRaw {
			seed, ok := integer(s)
			if !ok {
				return out, malformed("Invalid seeds in output")
			}
			seeds = append(seeds, seed)
		}
		out.Seeds = seeds
	} else if seed, ok := integer(output["seed"]); ok {
		out.Seeds = []int64{seed}
	} else {
		return out, malformed("No valid seeds or seed found in output")
	}

	if sizeRaw, present := output["imgSize"]; present && sizeRaw != nil {
		values, ok := sizeRaw.([]interface{})
		if !ok {
			return out, malformed("Invalid imgSize in output")
		}
		size := make([]int, 0, len(values))
		for _, v := range values {
			n, ok := integer(v)
			if !ok {
				return out, malformed("Invalid imgSize in output")
			}
			size = append(size, int(n))
		}
		out.ImgSize = size
	}
	return out, nil
}

func extractMetrics(raw interface{}) (entity.IncomingMetrics, error) {
	var metrics entity.IncomingMetrics
	m, ok := raw.(map[string]interface{})
	if !ok {
		return metrics, malformed("Invalid metrics")
	}
	n, ok := m["predict_time"].(json.Number)
	if !ok {
		return metrics, malformed("Invalid predict_time in metrics")
	}
	predictTime, err := n.Float64()
	if err != nil {
		return metrics, malformed("Invalid predict_time in metrics")
	}
	metrics.PredictTime = predictTime
	return metrics, nil
}

func stringSlice(raw interface{}) ([]string, bool) {
	values, ok := raw.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func integer(raw interface{}) (int64, bool) {
	n, ok := raw.(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, err := n.Float64()
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}
