package entity

import "github.com/Pseudotools/pseudorandom-worker/internal/entity/common"

// StringArray is re-exported so callers do not import the common package.
type StringArray = common.StringArray
