package grading

import (
	"encoding/json"
	"testing"
)

const eps = 1e-9

func approx(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func TestExactTypes(t *testing.T) {
	tests := []struct {
		name      string
		qtype     string
		key       string
		caseSens  bool
		response  interface{}
		wantScore float64
		wantOK    bool
	}{
		{name: "mcq correct", qtype: TypeMultipleChoice, key: `"b"`, response: "b", wantScore: 2, wantOK: true},
		{name: "mcq wrong", qtype: TypeMultipleChoice, key: `"b"`, response: "a"},
		{name: "tf bool key", qtype: TypeTrueFalse, key: `true`, response: "true", wantScore: 2, wantOK: true},
		{name: "short answer case folded", qtype: TypeShortAnswer, key: `"Photosynthesis"`, response: "photosynthesis", wantScore: 2, wantOK: true},
		{name: "short answer case sensitive", qtype: TypeShortAnswer, key: `"Photosynthesis"`, caseSens: true, response: "photosynthesis"},
		{name: "fill in blank trims", qtype: TypeFillInTheBlank, key: `"mitochondria"`, response: "  mitochondria  ", wantScore: 2, wantOK: true},
		{name: "formula exact", qtype: TypeFormula, key: `"2x+3"`, response: "2x+3", wantScore: 2, wantOK: true},
		{name: "malformed key scores zero", qtype: TypeShortAnswer, key: `{"oops":1}`, response: "anything"},
		{name: "non-textual response scores zero", qtype: TypeShortAnswer, key: `"x"`, response: []interface{}{"x"}},
	}
	ev := NewEvaluator()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := Q{
				Type:          tc.qtype,
				MaxMarks:      2,
				CaseSensitive: tc.caseSens,
				Key:           ParseKey(tc.qtype, json.RawMessage(tc.key)),
			}
			got := ev.Evaluate(q, tc.response)
			if !approx(got.AutoScore, tc.wantScore) || got.IsCorrect != tc.wantOK {
				t.Fatalf("got score=%v correct=%v, want score=%v correct=%v",
					got.AutoScore, got.IsCorrect, tc.wantScore, tc.wantOK)
			}
		})
	}
}

func TestMultiSelect(t *testing.T) {
	key := ParseKey(TypeMultiSelect, json.RawMessage(`["a","c","d"]`))
	tests := []struct {
		name      string
		partial   PartialCredit
		response  interface{}
		wantScore float64
		wantOK    bool
	}{
		{name: "exact match any order", response: []interface{}{"d", "a", "c"}, wantScore: 6, wantOK: true},
		{name: "exact match with duplicates", response: []interface{}{"a", "a", "c", "d"}, wantScore: 6, wantOK: true},
		{name: "all-or-nothing subset", response: []interface{}{"a", "c"}},
		{name: "all-or-nothing superset", response: []interface{}{"a", "b", "c", "d"}},
		{
			name:      "proportional two of three",
			partial:   PartialCredit{Enabled: true, Mode: PartialProportional},
			response:  []interface{}{"a", "c"},
			wantScore: 4,
		},
		{
			name:      "extras do not add credit",
			partial:   PartialCredit{Enabled: true, Mode: PartialProportional},
			response:  []interface{}{"a", "b"},
			wantScore: 2,
		},
		{
			name:      "custom rule table",
			partial:   PartialCredit{Enabled: true, Mode: PartialCustom, Rules: map[string]float64{"0.67": 3}},
			response:  []interface{}{"a", "c"},
			wantScore: 3,
		},
		{
			name:     "custom table without matching rule",
			partial:  PartialCredit{Enabled: true, Mode: PartialCustom, Rules: map[string]float64{"0.50": 3}},
			response: []interface{}{"a", "c"},
		},
	}
	ev := NewEvaluator()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := Q{Type: TypeMultiSelect, MaxMarks: 6, Partial: tc.partial, Key: key}
			got := ev.Evaluate(q, tc.response)
			if !approx(got.AutoScore, tc.wantScore) || got.IsCorrect != tc.wantOK {
				t.Fatalf("got score=%v correct=%v, want score=%v correct=%v",
					got.AutoScore, got.IsCorrect, tc.wantScore, tc.wantOK)
			}
		})
	}
}

func TestNumericTolerance(t *testing.T) {
	key := ParseKey(TypeNumeric, json.RawMessage(`100`))
	tests := []struct {
		name     string
		tol      float64
		response interface{}
		wantOK   bool
	}{
		{name: "exactly at key", response: 100.0, wantOK: true},
		{name: "at upper tolerance bound", tol: 0.5, response: 100.5, wantOK: true},
		{name: "at lower tolerance bound", tol: 0.5, response: "99.5", wantOK: true},
		{name: "just outside tolerance", tol: 0.5, response: 100.75},
		{name: "default tolerance is exact", response: 100.25},
		{name: "string with unit", tol: 0.5, response: "100 kg", wantOK: true},
		{name: "non-numeric scores zero", response: "a hundred"},
	}
	ev := NewEvaluator()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := Q{Type: TypeNumeric, MaxMarks: 1, Tolerance: tc.tol, Key: key}
			got := ev.Evaluate(q, tc.response)
			if got.IsCorrect != tc.wantOK {
				t.Fatalf("correct=%v, want %v (score=%v)", got.IsCorrect, tc.wantOK, got.AutoScore)
			}
		})
	}
}

func TestMatching(t *testing.T) {
	key := ParseKey(TypeMatching, json.RawMessage(`{"Hydrogen":"H","Oxygen":"O","Carbon":"C"}`))
	tests := []struct {
		name      string
		partial   PartialCredit
		response  interface{}
		wantScore float64
		wantOK    bool
	}{
		{
			name:      "all pairs correct",
			response:  map[string]interface{}{"Hydrogen": "H", "Oxygen": "O", "Carbon": "C"},
			wantScore: 3, wantOK: true,
		},
		{
			name:     "one wrong all-or-nothing",
			response: map[string]interface{}{"Hydrogen": "H", "Oxygen": "O", "Carbon": "K"},
		},
		{
			name:      "partial two of three",
			partial:   PartialCredit{Enabled: true, Mode: PartialProportional},
			response:  map[string]interface{}{"Hydrogen": "H", "Oxygen": "O", "Carbon": "K"},
			wantScore: 2,
		},
		{
			name:      "case folded values",
			response:  map[string]interface{}{"Hydrogen": "h", "Oxygen": "o", "Carbon": "c"},
			wantScore: 3, wantOK: true,
		},
	}
	ev := NewEvaluator()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := Q{Type: TypeMatching, MaxMarks: 3, Partial: tc.partial, Key: key}
			got := ev.Evaluate(q, tc.response)
			if !approx(got.AutoScore, tc.wantScore) || got.IsCorrect != tc.wantOK {
				t.Fatalf("got score=%v correct=%v, want score=%v correct=%v",
					got.AutoScore, got.IsCorrect, tc.wantScore, tc.wantOK)
			}
		})
	}
}

func TestBlankResponseShortCircuits(t *testing.T) {
	ev := NewEvaluator()
	q := Q{
		Type:          TypeMultipleChoice,
		MaxMarks:      2,
		NegativeMarks: 1, // must not apply to unanswered questions
		Key:           ParseKey(TypeMultipleChoice, json.RawMessage(`"b"`)),
	}
	for _, resp := range []interface{}{nil, "", "   "} {
		got := ev.Evaluate(q, resp)
		if got.AutoScore != 0 || got.IsCorrect || got.NegativeApplied != 0 {
			t.Fatalf("blank response %#v: got %+v", resp, got)
		}
	}
}

func TestNegativeMarking(t *testing.T) {
	ev := NewEvaluator()
	q := Q{
		Type:          TypeMultipleChoice,
		MaxMarks:      2,
		NegativeMarks: 1,
		Key:           ParseKey(TypeMultipleChoice, json.RawMessage(`"b"`)),
	}
	got := ev.Evaluate(q, "a")
	if !approx(got.AutoScore, -1) {
		t.Fatalf("raw score = %v, want -1", got.AutoScore)
	}
	if !approx(got.NegativeApplied, 1) {
		t.Fatalf("negativeApplied = %v, want 1", got.NegativeApplied)
	}
	if got.IsCorrect {
		t.Fatal("wrong answer reported correct")
	}

	// correct answers are never deducted
	got = ev.Evaluate(q, "b")
	if !approx(got.AutoScore, 2) || got.NegativeApplied != 0 {
		t.Fatalf("correct answer got %+v", got)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	ev := NewEvaluator()
	q := Q{
		Type:     TypeMultiSelect,
		MaxMarks: 4,
		Partial:  PartialCredit{Enabled: true, Mode: PartialProportional},
		Key:      ParseKey(TypeMultiSelect, json.RawMessage(`["a","b"]`)),
	}
	resp := []interface{}{"a", "c"}
	first := ev.Evaluate(q, resp)
	second := ev.Evaluate(q, resp)
	if first != second {
		t.Fatalf("results differ: %+v vs %+v", first, second)
	}
}

func TestManualTypesFlagReview(t *testing.T) {
	ev := NewEvaluator()
	for _, qtype := range []string{TypeLongAnswer, TypeImage, TypeAudio} {
		q := Q{Type: qtype, MaxMarks: 5}
		got := ev.Evaluate(q, "an essay")
		if !got.NeedsManual || got.AutoScore != 0 {
			t.Fatalf("%s: got %+v", qtype, got)
		}
	}
}

func TestRequiresManual(t *testing.T) {
	objective := []string{
		TypeMultipleChoice, TypeMultiSelect, TypeTrueFalse, TypeShortAnswer,
		TypeFillInTheBlank, TypeNumeric, TypeFormula, TypeMatching,
	}
	for _, qt := range objective {
		if RequiresManual(qt) {
			t.Fatalf("%s should be auto-gradable", qt)
		}
	}
	for _, qt := range []string{TypeLongAnswer, TypeImage, TypeAudio, "unknown"} {
		if !RequiresManual(qt) {
			t.Fatalf("%s should require manual grading", qt)
		}
	}
}
