// Package scoring computes the weighted composite score of an evaluation.
package scoring

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Fixed weights of the four core assessment areas. They sum to 1.0.
const (
	WeightJobKnowledge  = 0.50
	WeightQualityOfWork = 0.20
	WeightCommunication = 0.15
	WeightInitiative    = 0.15
)

// Score band thresholds used by reporting surfaces.
const (
	highBandMin   = 4.0
	mediumBandMin = 3.0

	BandHigh   = "high"
	BandMedium = "medium"
	BandLow    = "low"
)

// storedDecimals is the precision a composite score is persisted with.
const storedDecimals = 100

// Composite returns the weighted sum of the four core ratings at full precision.
// Ratings are not range-checked here; validation happens before a record is built.
func Composite(jobKnowledge, qualityOfWork, communication, initiative float64) float64 {
	return jobKnowledge*WeightJobKnowledge +
		qualityOfWork*WeightQualityOfWork +
		communication*WeightCommunication +
		initiative*WeightInitiative
}

// CompositeOf coerces up to four loosely typed ratings and returns their composite.
// Missing or unparsable values contribute 0.
func CompositeOf(ratings ...any) float64 {
	var vals [4]float64
	for i := 0; i < len(vals) && i < len(ratings); i++ {
		vals[i] = Coerce(ratings[i])
	}
	return Composite(vals[0], vals[1], vals[2], vals[3])
}

// Coerce converts a rating of any supported representation to float64.
// It never fails: nil, NaN, infinities and unparsable strings become 0.
func Coerce(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case float32:
		f = float64(x)
	case float64:
		f = x
	case *int:
		if x == nil {
			return 0
		}
		f = float64(*x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Round rounds a score to two decimals, half away from zero.
func Round(score float64) float64 {
	return math.Round(score*storedDecimals) / storedDecimals
}

// Band classifies a composite score for display.
func Band(score float64) string {
	switch {
	case score >= highBandMin:
		return BandHigh
	case score >= mediumBandMin:
		return BandMedium
	default:
		return BandLow
	}
}
