package quiz

// QuestionStat aggregates how one question performed across attempts.
type QuestionStat struct {
	QuestionID      string  `json:"question_id"`
	Attempts        int     `json:"attempts"`
	Correct         int     `json:"correct"`
	TotalScore      float64 `json:"total_score"`
	AverageScore    float64 `json:"average_score"`
	CorrectnessRate float64 `json:"correctness_rate"`
}

// Summary is the instructor-facing aggregate over a quiz's attempts.
type Summary struct {
	TotalAttempts     int            `json:"total_attempts"`
	CompletedAttempts int            `json:"completed_attempts"`
	CompletionRate    float64        `json:"completion_rate"`
	AverageScore      float64        `json:"average_score"`
	AveragePercentage float64        `json:"average_percentage"`
	HighScore         float64        `json:"high_score"`
	LowScore          float64        `json:"low_score"`
	QuestionBreakdown []QuestionStat `json:"question_breakdown"`
}

// Summarize aggregates historical attempts into per-question
// correctness statistics and overall averages. Pure computation, no
// I/O; an empty input returns a zeroed summary.
func Summarize(attempts []Attempt) Summary {
	s := Summary{QuestionBreakdown: []QuestionStat{}}
	if len(attempts) == 0 {
		return s
	}

	s.TotalAttempts = len(attempts)
	// Seed high/low from the first attempt so a single attempt reports
	// its own score as both bounds.
	s.HighScore = attempts[0].TotalScore
	s.LowScore = attempts[0].TotalScore

	var scoreSum, pctSum float64
	statIdx := map[string]int{}

	for _, a := range attempts {
		if isComplete(a.Status) {
			s.CompletedAttempts++
		}
		scoreSum += a.TotalScore
		pctSum += a.Percentage
		if a.TotalScore > s.HighScore {
			s.HighScore = a.TotalScore
		}
		if a.TotalScore < s.LowScore {
			s.LowScore = a.TotalScore
		}

		for _, gq := range a.Graded {
			i, seen := statIdx[gq.QuestionID]
			if !seen {
				i = len(s.QuestionBreakdown)
				statIdx[gq.QuestionID] = i
				s.QuestionBreakdown = append(s.QuestionBreakdown, QuestionStat{QuestionID: gq.QuestionID})
			}
			st := &s.QuestionBreakdown[i]
			st.Attempts++
			st.TotalScore += gq.Score + gq.ManualScore
			if gq.Score+gq.ManualScore >= gq.MaxMarks {
				st.Correct++
			}
		}
	}

	s.AverageScore = scoreSum / float64(s.TotalAttempts)
	s.AveragePercentage = pctSum / float64(s.TotalAttempts)
	s.CompletionRate = float64(s.CompletedAttempts) / float64(s.TotalAttempts) * 100

	for i := range s.QuestionBreakdown {
		st := &s.QuestionBreakdown[i]
		if st.Attempts > 0 {
			st.AverageScore = st.TotalScore / float64(st.Attempts)
			st.CorrectnessRate = float64(st.Correct) / float64(st.Attempts) * 100
		}
	}
	return s
}

func isComplete(status string) bool {
	switch status {
	case StatusSubmitted, StatusGraded, StatusReleased:
		return true
	}
	return false
}
