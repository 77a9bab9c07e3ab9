package quiz

import (
	"github.com/quizforge/quizforge/internal/grading"
)

// GradedResult is the outcome of auto-grading a full attempt. Manual
// scores are always zero at this stage; the manual-grading workflow
// fills them in later and recomputes the totals.
type GradedResult struct {
	Questions            []GradedQuestion
	AutoScore            float64
	ManualScore          float64
	MaxScore             float64
	TotalScore           float64
	Percentage           float64
	RequiresManualReview bool
	Passed               bool
}

// GradeAttempt evaluates every blueprint question against the raw
// response set. Evaluation issues never abort grading; the worst case
// for any question is a zero score. The per-question reported score is
// clamped into [0, MaxMarks], which bounds negative marking; the
// evaluator's raw value is kept alongside for auditing.
func GradeAttempt(bp Blueprint, responses map[string]interface{}, scoring ScoringPolicy, ev grading.Evaluator) GradedResult {
	var out GradedResult
	out.Questions = make([]GradedQuestion, 0, len(bp.Questions))

	for _, bq := range bp.Questions {
		resp := responses[bq.ID] // nil when absent, evaluator treats as blank
		gq := GradedQuestion{
			QuestionID: bq.ID,
			MaxMarks:   bq.MaxMarks,
		}
		if bq.RequiresManual {
			gq.Status = QuestionReviewPending
			out.RequiresManualReview = true
		} else {
			res := ev.Evaluate(grading.Q{
				Type:          bq.Type,
				MaxMarks:      bq.MaxMarks,
				NegativeMarks: bq.NegativeMarks,
				CaseSensitive: bq.CaseSensitive,
				Tolerance:     bq.NumericTolerance,
				Partial:       bq.PartialCredit,
				Key:           grading.ParseKey(bq.Type, bq.AnswerKey),
			}, resp)
			gq.Status = QuestionGraded
			gq.RawAutoScore = res.AutoScore
			gq.Score = clamp(res.AutoScore, 0, bq.MaxMarks)
			gq.IsCorrect = res.IsCorrect
			gq.NegativeApplied = res.NegativeApplied
			out.AutoScore += gq.Score
		}
		out.MaxScore += bq.MaxMarks
		out.Questions = append(out.Questions, gq)
	}

	out.TotalScore = out.AutoScore + out.ManualScore
	if out.MaxScore > 0 {
		out.Percentage = out.TotalScore / out.MaxScore * 100
	}
	out.Passed = passes(scoring, out.TotalScore, out.Percentage)
	return out
}

// passes applies the quiz-level passing policy. An unset policy is
// percentage >= 0, i.e. everyone passes.
func passes(scoring ScoringPolicy, totalScore, percentage float64) bool {
	if scoring.PassingType == PassingPoints {
		return totalScore >= scoring.PassingValue
	}
	return percentage >= scoring.PassingValue
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Recompute refreshes an attempt's totals from its per-question rows,
// used after manual grades are applied.
func Recompute(a *Attempt, scoring ScoringPolicy) {
	a.AutoScore, a.ManualScore, a.MaxScore = 0, 0, 0
	pending := false
	for _, gq := range a.Graded {
		a.AutoScore += gq.Score
		a.ManualScore += gq.ManualScore
		a.MaxScore += gq.MaxMarks
		if gq.Status == QuestionReviewPending {
			pending = true
		}
	}
	a.TotalScore = a.AutoScore + a.ManualScore
	a.Percentage = 0
	if a.MaxScore > 0 {
		a.Percentage = a.TotalScore / a.MaxScore * 100
	}
	a.RequiresManualReview = pending
	a.Passed = passes(scoring, a.TotalScore, a.Percentage)
}
