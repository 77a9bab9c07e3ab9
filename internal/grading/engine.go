package grading

// Question types understood by the evaluator. The string values are the
// same ones stored on question documents.
const (
	TypeMultipleChoice = "multiple_choice"
	TypeMultiSelect    = "multi_select"
	TypeTrueFalse      = "true_false"
	TypeShortAnswer    = "short_answer"
	TypeFillInTheBlank = "fill_in_the_blank"
	TypeLongAnswer     = "long_answer"
	TypeMatching       = "matching"
	TypeNumeric        = "numeric"
	TypeFormula        = "formula"
	TypeImage          = "image"
	TypeAudio          = "audio"
)

// RequiresManual reports whether a question type needs teacher review.
// It depends on the type alone and is never overridable per question.
func RequiresManual(qtype string) bool {
	switch qtype {
	case TypeMultipleChoice, TypeMultiSelect, TypeTrueFalse,
		TypeShortAnswer, TypeFillInTheBlank, TypeNumeric,
		TypeFormula, TypeMatching:
		return false
	}
	return true
}

// Partial-credit modes for multi_select and matching.
const (
	PartialProportional = "proportional"
	PartialCustom       = "custom"
)

// PartialCredit configures fractional scoring for multi-part answers.
// In custom mode Rules maps a correctness fraction (formatted with two
// decimals, e.g. "0.50") to an awarded score.
type PartialCredit struct {
	Enabled bool               `json:"enabled,omitempty"`
	Mode    string             `json:"mode,omitempty"`
	Rules   map[string]float64 `json:"rules,omitempty"`
}

// Q is the minimal view of a blueprint question needed for evaluation.
type Q struct {
	Type          string
	MaxMarks      float64
	NegativeMarks float64
	CaseSensitive bool
	Tolerance     float64 // absolute, numeric questions only
	Partial       PartialCredit
	Key           Key
}

// Result is the outcome of evaluating a single response.
type Result struct {
	AutoScore       float64 // raw score; negative marking may take it below 0
	MaxMarks        float64
	IsCorrect       bool
	NegativeApplied float64 // amount deducted, reported for auditing
	NeedsManual     bool
}

// Strategy evaluates a single question type.
type Strategy interface {
	Evaluate(q Q, response interface{}) Result
}

// Evaluator routes a response to the strategy for its question type.
// Evaluation never fails: malformed keys or responses score zero.
type Evaluator interface {
	Evaluate(q Q, response interface{}) Result
}

type defaultEvaluator struct {
	strategies map[string]Strategy
}

// NewEvaluator installs the built-in strategies.
func NewEvaluator() Evaluator {
	exact := exactStrategy{}
	return &defaultEvaluator{
		strategies: map[string]Strategy{
			TypeMultipleChoice: exact,
			TypeTrueFalse:      exact,
			TypeShortAnswer:    exact,
			TypeFillInTheBlank: exact,
			TypeFormula:        exact,
			TypeMultiSelect:    multiSelectStrategy{},
			TypeNumeric:        numericStrategy{},
			TypeMatching:       matchingStrategy{},
		},
	}
}

func (e *defaultEvaluator) Evaluate(q Q, response interface{}) Result {
	if isBlank(response) {
		// Unanswered: zero score, no negative marking, no type logic.
		return Result{MaxMarks: q.MaxMarks}
	}
	s, ok := e.strategies[q.Type]
	if !ok {
		return Result{MaxMarks: q.MaxMarks, NeedsManual: true}
	}
	res := s.Evaluate(q, response)
	if !res.IsCorrect && q.NegativeMarks > 0 {
		res.AutoScore -= q.NegativeMarks
		res.NegativeApplied = q.NegativeMarks
	}
	return res
}

// --- Strategies ---

// exactStrategy handles every type graded by plain equality against a
// single text key: multiple_choice, true_false, short_answer,
// fill_in_the_blank, formula.
type exactStrategy struct{}

func (exactStrategy) Evaluate(q Q, response interface{}) Result {
	res := Result{MaxMarks: q.MaxMarks}
	if q.Key.Kind != KindText {
		return res
	}
	got, ok := toText(response)
	if !ok {
		return res
	}
	if equalText(got, q.Key.Text, q.CaseSensitive) {
		res.AutoScore = q.MaxMarks
		res.IsCorrect = true
	}
	return res
}

// multiSelectStrategy awards full marks for an exact set match, or a
// fraction of the key covered when partial credit is enabled. Submitted
// options outside the key never add to the fraction.
type multiSelectStrategy struct{}

func (multiSelectStrategy) Evaluate(q Q, response interface{}) Result {
	res := Result{MaxMarks: q.MaxMarks}
	if q.Key.Kind != KindSet || len(q.Key.Set) == 0 {
		return res
	}
	got, ok := toTextSlice(response)
	if !ok {
		return res
	}
	key := normalizeSet(q.Key.Set, q.CaseSensitive)
	sub := normalizeSet(got, q.CaseSensitive)

	hits := 0
	for _, s := range sub {
		if containsText(key, s) {
			hits++
		}
	}
	fraction := float64(hits) / float64(len(key))
	res.IsCorrect = equalTextSets(key, sub)
	res.AutoScore = partialScore(q, fraction, res.IsCorrect)
	return res
}

// matchingStrategy compares prompt→match maps entry by entry. The
// fraction is the share of key entries the response got right; partial
// credit behaves exactly as for multi_select.
type matchingStrategy struct{}

func (matchingStrategy) Evaluate(q Q, response interface{}) Result {
	res := Result{MaxMarks: q.MaxMarks}
	if q.Key.Kind != KindPairs || len(q.Key.Pairs) == 0 {
		return res
	}
	got, ok := toTextMap(response)
	if !ok {
		return res
	}
	hits := 0
	for prompt, want := range q.Key.Pairs {
		if have, found := lookupText(got, prompt, q.CaseSensitive); found &&
			equalText(have, want, q.CaseSensitive) {
			hits++
		}
	}
	fraction := float64(hits) / float64(len(q.Key.Pairs))
	res.IsCorrect = hits == len(q.Key.Pairs) && len(got) == len(q.Key.Pairs)
	res.AutoScore = partialScore(q, fraction, res.IsCorrect)
	return res
}

// partialScore converts a correctness fraction into an awarded score
// under the question's partial-credit policy, clamped to [0, MaxMarks].
func partialScore(q Q, fraction float64, exact bool) float64 {
	if exact {
		return q.MaxMarks
	}
	if !q.Partial.Enabled {
		return 0
	}
	var score float64
	if q.Partial.Mode == PartialCustom && len(q.Partial.Rules) > 0 {
		score = lookupRule(q.Partial.Rules, fraction)
	} else {
		score = fraction * q.MaxMarks
	}
	if score < 0 {
		return 0
	}
	if score > q.MaxMarks {
		return q.MaxMarks
	}
	return score
}
