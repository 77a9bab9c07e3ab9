package quiz

import (
	"encoding/json"

	"github.com/quizforge/quizforge/internal/grading"
)

// Option is one choice of a choice-style question. Key is the stable
// identifier submitted in responses; Correct is authoring-side only and
// must never reach students.
type Option struct {
	Key     string `json:"key"`
	Text    string `json:"text,omitempty"`
	Correct bool   `json:"is_correct,omitempty"`
}

// MatchingPair is one row of a matching question.
type MatchingPair struct {
	Prompt string `json:"prompt"`
	Match  string `json:"match"`
}

// GradingPolicy is the per-question scoring configuration.
type GradingPolicy struct {
	MaxMarks         float64               `json:"max_marks,omitempty"`
	NegativeMarks    float64               `json:"negative_marks,omitempty"`
	CaseSensitive    bool                  `json:"case_sensitive,omitempty"`
	NumericTolerance float64               `json:"numeric_tolerance,omitempty"`
	PartialCredit    grading.PartialCredit `json:"partial_credit,omitempty"`
}

// Metadata carries the selection-filter attributes of a question.
type Metadata struct {
	Difficulty string   `json:"difficulty,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	MediaKey   string   `json:"media_key,omitempty"` // blob key for image/audio prompts
}

// Question is one bank entry. Answer and AnswerKey hold the canonical
// correct value as raw JSON; its shape depends on Type and is decoded
// by grading.ParseKey.
type Question struct {
	ID            string          `json:"id"`
	Prompt        string          `json:"prompt,omitempty"`
	Type          string          `json:"type"`
	Options       []Option        `json:"options,omitempty"`
	MatchingPairs []MatchingPair  `json:"matching_pairs,omitempty"`
	Answer        json.RawMessage `json:"answer,omitempty"`
	AnswerKey     json.RawMessage `json:"answer_key,omitempty"`
	Grading       GradingPolicy   `json:"grading,omitempty"`
	Metadata      Metadata        `json:"metadata,omitempty"`
}

// Key returns the canonical answer payload, preferring answer_key over
// the older answer field.
func (q Question) Key() json.RawMessage {
	if len(q.AnswerKey) > 0 {
		return q.AnswerKey
	}
	return q.Answer
}

// Bank is an ordered collection of reusable questions scoped to a
// course. Assembly reads banks and never mutates them.
type Bank struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	CourseID  string     `json:"course_id,omitempty"`
	Questions []Question `json:"questions"`
	CreatedAt int64      `json:"created_at,omitempty"`
}

// Criteria filters bank questions for a random draw. All specified
// fields must match (AND semantics); tags require every listed tag,
// include IDs require membership.
type Criteria struct {
	Tags       []string `json:"tags,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	Type       string   `json:"type,omitempty"`
	IncludeIDs []string `json:"include_ids,omitempty"`
}

// Selection either pins one question by id or draws Count distinct
// questions matching Criteria. Mark overrides apply to whatever it
// draws.
type Selection struct {
	QuestionID     string    `json:"question_id,omitempty"`
	Criteria       *Criteria `json:"criteria,omitempty"`
	Count          int       `json:"count,omitempty"`
	MaxMarks       *float64  `json:"max_marks,omitempty"`
	NegativeMarks  *float64  `json:"negative_marks,omitempty"`
	ShuffleOptions bool      `json:"shuffle_options,omitempty"`
}

// Section groups selections under a title with its own display order
// and randomization flag.
type Section struct {
	ID         string      `json:"id,omitempty"`
	Title      string      `json:"title,omitempty"`
	Order      int         `json:"order,omitempty"`
	Randomize  bool        `json:"randomize,omitempty"`
	Selections []Selection `json:"selections,omitempty"`
}

// Passing policies.
const (
	PassingPercentage = "percentage"
	PassingPoints     = "points"
)

// ScoringPolicy is the quiz-level scoring configuration. The zero
// value passes everyone: percentage comparison against 0.
type ScoringPolicy struct {
	ShuffleQuestions bool    `json:"shuffle_questions,omitempty"`
	ShuffleOptions   bool    `json:"shuffle_options,omitempty"`
	PassingType      string  `json:"passing_type,omitempty"`
	PassingValue     float64 `json:"passing_value,omitempty"`
}

// AccessPolicy gates attempt creation on completed prerequisite
// courses.
type AccessPolicy struct {
	RequirePrerequisites bool     `json:"require_prerequisites,omitempty"`
	PrerequisiteCourses  []string `json:"prerequisite_courses,omitempty"`
}

// Quiz is the attempt configuration: which bank to draw from, how to
// select and shuffle, how to score, and who may grade.
type Quiz struct {
	ID           string        `json:"id"`
	Title        string        `json:"title,omitempty"`
	BankID       string        `json:"bank_id"`
	Sections     []Section     `json:"sections,omitempty"`
	Scoring      ScoringPolicy `json:"scoring,omitempty"`
	Access       AccessPolicy  `json:"access,omitempty"`
	Graders      []string      `json:"graders,omitempty"` // user ids allowed to grade as TA
	TimeLimitSec int           `json:"time_limit_sec,omitempty"`
	CreatedAt    int64         `json:"created_at,omitempty"`
}

// BlueprintQuestion is a value-copy snapshot of one selected question
// with its effective grading policy resolved. Later bank edits never
// alter an in-flight attempt.
type BlueprintQuestion struct {
	ID               string                `json:"id"`
	SectionID        string                `json:"section_id"`
	Prompt           string                `json:"prompt,omitempty"`
	Type             string                `json:"type"`
	Options          []Option              `json:"options,omitempty"`
	MatchingPairs    []MatchingPair        `json:"matching_pairs,omitempty"`
	AnswerKey        json.RawMessage       `json:"answer_key,omitempty"`
	MaxMarks         float64               `json:"max_marks"`
	NegativeMarks    float64               `json:"negative_marks,omitempty"`
	CaseSensitive    bool                  `json:"case_sensitive,omitempty"`
	NumericTolerance float64               `json:"numeric_tolerance,omitempty"`
	PartialCredit    grading.PartialCredit `json:"partial_credit,omitempty"`
	RequiresManual   bool                  `json:"requires_manual,omitempty"`
	MediaKey         string                `json:"media_key,omitempty"`
}

// BlueprintSection ties blueprint questions back to the section they
// were drawn for.
type BlueprintSection struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Order int    `json:"order,omitempty"`
}

// Blueprint is the ordered question list assembled for one attempt.
type Blueprint struct {
	Sections  []BlueprintSection  `json:"sections"`
	Questions []BlueprintQuestion `json:"questions"`
}

// Redacted returns a copy safe to hand to the student taking the
// attempt: answer keys and correct-option flags stripped, matching
// pair targets hidden.
func (b Blueprint) Redacted() Blueprint {
	out := Blueprint{
		Sections:  append([]BlueprintSection(nil), b.Sections...),
		Questions: make([]BlueprintQuestion, len(b.Questions)),
	}
	for i, q := range b.Questions {
		q.AnswerKey = nil
		opts := make([]Option, len(q.Options))
		for j, o := range q.Options {
			o.Correct = false
			opts[j] = o
		}
		q.Options = opts
		q.MatchingPairs = redactPairs(q.MatchingPairs)
		out.Questions[i] = q
	}
	return out
}

// redactPairs keeps prompts in authored order but hides which match
// belongs to which prompt by listing matches sorted separately.
func redactPairs(pairs []MatchingPair) []MatchingPair {
	if len(pairs) == 0 {
		return nil
	}
	out := make([]MatchingPair, len(pairs))
	for i, p := range pairs {
		out[i] = MatchingPair{Prompt: p.Prompt}
	}
	return out
}

// Attempt statuses.
const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
	StatusGraded     = "graded"
	StatusReleased   = "released"
)

// Per-question grading statuses.
const (
	QuestionGraded        = "graded"
	QuestionReviewPending = "review_pending"
)

// GradedQuestion records the outcome for one blueprint question.
// RawAutoScore keeps the evaluator's unclamped value (which may be
// negative under negative marking); Score is the clamped per-question
// value that feeds the totals.
type GradedQuestion struct {
	QuestionID      string  `json:"question_id"`
	Status          string  `json:"status"`
	RawAutoScore    float64 `json:"raw_auto_score"`
	Score           float64 `json:"score"`
	ManualScore     float64 `json:"manual_score,omitempty"`
	MaxMarks        float64 `json:"max_marks"`
	IsCorrect       bool    `json:"is_correct"`
	NegativeApplied float64 `json:"negative_applied,omitempty"`
	Comment         string  `json:"comment,omitempty"`
}

// Attempt is one student's run at a quiz: the blueprint snapshot, the
// raw responses, and the graded outcome once submitted.
type Attempt struct {
	ID                   string                 `json:"id"`
	QuizID               string                 `json:"quiz_id"`
	UserID               string                 `json:"user_id"`
	Status               string                 `json:"status"`
	Blueprint            Blueprint              `json:"blueprint"`
	Responses            map[string]interface{} `json:"responses"`
	Graded               []GradedQuestion       `json:"graded_questions,omitempty"`
	AutoScore            float64                `json:"auto_score"`
	ManualScore          float64                `json:"manual_score"`
	MaxScore             float64                `json:"max_score"`
	TotalScore           float64                `json:"total_score"`
	Percentage           float64                `json:"percentage"`
	RequiresManualReview bool                   `json:"requires_manual_review"`
	Passed               bool                   `json:"passed"`
	GradedBy             string                 `json:"graded_by,omitempty"`
	StartedAt            int64                  `json:"started_at"`
	SubmittedAt          int64                  `json:"submitted_at,omitempty"`
}
