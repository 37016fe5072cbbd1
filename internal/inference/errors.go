package inference

import (
	"errors"
	"fmt"

	"github.com/Pseudotools/pseudorandom-worker/internal/entity"
)

var errMissingPayload = errors.New("prediction payload is missing")

func unsupportedPayload(p entity.PredictionOutgoing) error {
	return fmt.Errorf("unsupported prediction payload %T", p)
}
