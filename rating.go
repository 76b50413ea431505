package ratehub

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// RatingValue is a rating score as delivered by the API. The backend is not
// consistent about the JSON type: scores arrive as numbers or as numeric
// strings, and occasionally as garbage. Malformed values decode as invalid
// rather than failing the whole payload, so one bad row cannot poison a
// collection fetch.
type RatingValue struct {
	Value float64
	Valid bool
}

// Rating constructs a valid RatingValue.
func Rating(v float64) RatingValue {
	return RatingValue{Value: v, Valid: true}
}

// UnmarshalJSON accepts a JSON number, a quoted numeric string, or null.
// Anything else yields an invalid value, not an error.
func (r *RatingValue) UnmarshalJSON(b []byte) error {
	r.Value = 0
	r.Valid = false

	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		r.Value = v
		r.Valid = true
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	r.Value = v
	r.Valid = true
	return nil
}

// MarshalJSON encodes a valid value as a JSON number and an invalid one as null.
func (r RatingValue) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// CalculateAverageRating returns the arithmetic mean of the valid values,
// rounded to one decimal place. Invalid values are excluded from both the
// numerator and the denominator. An empty or all-invalid input yields 0.0.
func CalculateAverageRating(values []RatingValue) float64 {
	sum := 0.0
	n := 0
	for _, v := range values {
		if !v.Valid {
			continue
		}
		sum += v.Value
		n++
	}
	if n == 0 {
		return 0.0
	}
	return math.Round(sum/float64(n)*10) / 10
}

// FormatRating renders a rating for display with one decimal place.
func FormatRating(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.0"
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
