package grading

import (
	"math"
	"strconv"
	"strings"
)

// numericStrategy grades against a numeric key with an absolute
// tolerance (default 0, i.e. exact). Responses that do not parse as a
// number score zero without error.
type numericStrategy struct{}

func (numericStrategy) Evaluate(q Q, response interface{}) Result {
	res := Result{MaxMarks: q.MaxMarks}
	if q.Key.Kind != KindNumber {
		return res
	}
	got, ok := parseFloatLoose(response)
	if !ok {
		return res
	}
	tol := q.Tolerance
	if tol < 0 {
		tol = 0
	}
	if math.Abs(got-q.Key.Number) <= tol {
		res.AutoScore = q.MaxMarks
		res.IsCorrect = true
	}
	return res
}

func parseFloatLoose(response interface{}) (float64, bool) {
	switch v := response.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		s := strings.TrimSpace(v)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		// tolerate a trailing unit, e.g. "9.8 m/s^2"
		if sp := strings.Fields(s); len(sp) > 0 {
			if f, err := strconv.ParseFloat(sp[0], 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
