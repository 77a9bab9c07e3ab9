package quiz

import "testing"

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalAttempts != 0 || s.CompletedAttempts != 0 {
		t.Fatalf("counts: %+v", s)
	}
	if s.HighScore != 0 || s.LowScore != 0 || s.AverageScore != 0 {
		t.Fatalf("scores: %+v", s)
	}
	if s.QuestionBreakdown == nil || len(s.QuestionBreakdown) != 0 {
		t.Fatalf("breakdown: %v", s.QuestionBreakdown)
	}
}

func TestSummarizeSingleAttempt(t *testing.T) {
	s := Summarize([]Attempt{{
		Status:     StatusGraded,
		TotalScore: 7,
		Percentage: 70,
		Graded: []GradedQuestion{
			{QuestionID: "q1", Score: 2, MaxMarks: 2},
			{QuestionID: "q2", Score: 5, MaxMarks: 8},
		},
	}})
	if s.TotalAttempts != 1 || s.CompletedAttempts != 1 {
		t.Fatalf("counts: %+v", s)
	}
	if s.HighScore != 7 || s.LowScore != 7 {
		t.Fatalf("single attempt must seed both bounds: high %v low %v", s.HighScore, s.LowScore)
	}
	if s.AverageScore != 7 || s.AveragePercentage != 70 || s.CompletionRate != 100 {
		t.Fatalf("averages: %+v", s)
	}
}

func TestSummarizeAggregates(t *testing.T) {
	attempts := []Attempt{
		{
			Status:     StatusGraded,
			TotalScore: 10,
			Percentage: 100,
			Graded: []GradedQuestion{
				{QuestionID: "q1", Score: 5, MaxMarks: 5},
				{QuestionID: "q2", Score: 5, MaxMarks: 5},
			},
		},
		{
			Status:     StatusSubmitted,
			TotalScore: 5,
			Percentage: 50,
			Graded: []GradedQuestion{
				{QuestionID: "q1", Score: 5, MaxMarks: 5},
				{QuestionID: "q2", Score: 0, MaxMarks: 5},
			},
		},
		{
			Status:     StatusInProgress,
			TotalScore: 0,
		},
	}
	s := Summarize(attempts)

	if s.TotalAttempts != 3 || s.CompletedAttempts != 2 {
		t.Fatalf("counts: total %d completed %d", s.TotalAttempts, s.CompletedAttempts)
	}
	if got := s.CompletionRate; got < 66.6 || got > 66.7 {
		t.Fatalf("completion rate = %v", got)
	}
	if s.AverageScore != 5 {
		t.Fatalf("average score = %v", s.AverageScore)
	}
	if s.AveragePercentage != 50 {
		t.Fatalf("average percentage = %v", s.AveragePercentage)
	}
	if s.HighScore != 10 || s.LowScore != 0 {
		t.Fatalf("bounds: high %v low %v", s.HighScore, s.LowScore)
	}

	if len(s.QuestionBreakdown) != 2 {
		t.Fatalf("breakdown size = %d", len(s.QuestionBreakdown))
	}
	// breakdown preserves first-seen order
	q1, q2 := s.QuestionBreakdown[0], s.QuestionBreakdown[1]
	if q1.QuestionID != "q1" || q2.QuestionID != "q2" {
		t.Fatalf("breakdown order: %v %v", q1.QuestionID, q2.QuestionID)
	}
	if q1.Attempts != 2 || q1.Correct != 2 || q1.CorrectnessRate != 100 || q1.AverageScore != 5 {
		t.Fatalf("q1 stats: %+v", q1)
	}
	if q2.Attempts != 2 || q2.Correct != 1 || q2.CorrectnessRate != 50 || q2.AverageScore != 2.5 {
		t.Fatalf("q2 stats: %+v", q2)
	}
}

func TestSummarizeCountsManualScoreTowardCorrect(t *testing.T) {
	s := Summarize([]Attempt{{
		Status: StatusGraded,
		Graded: []GradedQuestion{
			{QuestionID: "q1", Score: 0, ManualScore: 5, MaxMarks: 5},
		},
	}})
	if s.QuestionBreakdown[0].Correct != 1 {
		t.Fatalf("manual full marks not counted correct: %+v", s.QuestionBreakdown[0])
	}
}
