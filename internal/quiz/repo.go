package quiz

import "context"

// AttemptListOpts filters attempt listings for dashboards and
// analytics.
type AttemptListOpts struct {
	QuizID string
	UserID string
	Status string
	Limit  int
	Offset int
}

// ManualGradeInput is one teacher-supplied score for a
// review-pending question.
type ManualGradeInput struct {
	Points  float64 `json:"points"`
	Comment string  `json:"comment,omitempty"`
}

// QuizListItem is the light row returned by quiz listings.
type QuizListItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	BankID    string `json:"bank_id"`
	CreatedAt int64  `json:"created_at"`
}

// Store is the persistence boundary for banks, quizzes and attempts.
// NewAttempt assembles and snapshots the blueprint; Submit runs
// auto-grading; ApplyManualGrades finishes attempts that needed
// review.
type Store interface {
	PutBank(ctx context.Context, b Bank) error
	GetBank(ctx context.Context, id string) (Bank, error)

	PutQuiz(ctx context.Context, q Quiz) error
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	ListQuizzes(ctx context.Context, limit, offset int) ([]QuizListItem, error)

	NewAttempt(ctx context.Context, quizID, userID string) (Attempt, error)
	SaveResponses(ctx context.Context, attemptID string, resp map[string]interface{}) (Attempt, error)
	Submit(ctx context.Context, attemptID string) (Attempt, error)
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)
	ApplyManualGrades(ctx context.Context, attemptID string, updates map[string]ManualGradeInput, gradedBy string) (Attempt, error)
}
