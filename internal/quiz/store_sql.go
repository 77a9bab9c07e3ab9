package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/quizforge/quizforge/internal/grading"
)

// SQLStore persists banks, quizzes and attempts as JSON-blob columns,
// working against sqlite (offline) or postgres. It also serves as the
// EnrollmentStore consulted by prerequisite checks.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	asm    *Assembler
	ev     grading.Evaluator
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver, asm: NewAssembler(), ev: grading.NewEvaluator()}
}

func (s *SQLStore) PutBank(ctx context.Context, b Bank) error {
	qj, err := json.Marshal(b.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO banks (id,title,course_id,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, course_id=EXCLUDED.course_id, questions_json=EXCLUDED.questions_json`,
		b.ID, b.Title, b.CourseID, string(qj), time.Now().Unix())
	return err
}

func (s *SQLStore) GetBank(ctx context.Context, id string) (Bank, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,course_id,questions_json,created_at FROM banks WHERE id=$1`, id)
	var b Bank
	var qjson string
	if err := row.Scan(&b.ID, &b.Title, &b.CourseID, &qjson, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Bank{}, ErrBankNotFound
		}
		return Bank{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &b.Questions); err != nil {
		return Bank{}, err
	}
	return b, nil
}

func (s *SQLStore) PutQuiz(ctx context.Context, q Quiz) error {
	buf, err := json.Marshal(q)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes (id,title,bank_id,quiz_json,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, bank_id=EXCLUDED.bank_id, quiz_json=EXCLUDED.quiz_json`,
		q.ID, q.Title, q.BankID, string(buf), time.Now().Unix())
	return err
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT quiz_json FROM quizzes WHERE id=$1`, id)
	var buf string
	if err := row.Scan(&buf); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, ErrQuizNotFound
		}
		return Quiz{}, err
	}
	var q Quiz
	if err := json.Unmarshal([]byte(buf), &q); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

func (s *SQLStore) ListQuizzes(ctx context.Context, limit, offset int) ([]QuizListItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,title,bank_id,created_at FROM quizzes ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []QuizListItem{}
	for rows.Next() {
		var it QuizListItem
		if err := rows.Scan(&it.ID, &it.Title, &it.BankID, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// NewAttempt assembles a fresh blueprint snapshot and persists the
// attempt in progress. Assembly failures abort attempt creation; no
// partial attempt row is written.
func (s *SQLStore) NewAttempt(ctx context.Context, quizID, userID string) (Attempt, error) {
	qz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return Attempt{}, err
	}
	if qz.BankID == "" {
		return Attempt{}, ErrNoBankConfigured
	}
	bank, err := s.GetBank(ctx, qz.BankID)
	if err != nil {
		return Attempt{}, err
	}
	bp, err := s.asm.Assemble(qz, bank)
	if err != nil {
		return Attempt{}, err
	}

	a := Attempt{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		UserID:    userID,
		Status:    StatusInProgress,
		Blueprint: bp,
		Responses: map[string]interface{}{},
		StartedAt: time.Now().Unix(),
	}
	bpJSON, _ := json.Marshal(a.Blueprint)
	respJSON, _ := json.Marshal(a.Responses)
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempts
		(id,quiz_id,user_id,status,blueprint_json,responses_json,graded_json,started_at)
		VALUES ($1,$2,$3,$4,$5,$6,'[]',$7)`,
		a.ID, a.QuizID, a.UserID, a.Status, string(bpJSON), string(respJSON), a.StartedAt)
	if err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) SaveResponses(ctx context.Context, attemptID string, resp map[string]interface{}) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Status != StatusInProgress {
		return Attempt{}, errors.New("attempt already submitted")
	}
	if a.Responses == nil {
		a.Responses = map[string]interface{}{}
	}
	for k, v := range resp {
		a.Responses[k] = v
	}
	buf, _ := json.Marshal(a.Responses)
	if _, err := s.db.ExecContext(ctx, `UPDATE attempts SET responses_json=$1 WHERE id=$2`, string(buf), attemptID); err != nil {
		return Attempt{}, err
	}
	return s.GetAttempt(ctx, attemptID)
}

// Submit auto-grades the attempt against its blueprint snapshot.
// Submitting twice is a no-op returning the stored attempt.
func (s *SQLStore) Submit(ctx context.Context, attemptID string) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Status != StatusInProgress {
		return a, nil
	}
	qz, err := s.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return Attempt{}, err
	}

	res := GradeAttempt(a.Blueprint, a.Responses, qz.Scoring, s.ev)
	a.Graded = res.Questions
	a.AutoScore = res.AutoScore
	a.ManualScore = res.ManualScore
	a.MaxScore = res.MaxScore
	a.TotalScore = res.TotalScore
	a.Percentage = res.Percentage
	a.RequiresManualReview = res.RequiresManualReview
	a.Passed = res.Passed
	a.SubmittedAt = time.Now().Unix()
	if a.RequiresManualReview {
		a.Status = StatusSubmitted
	} else {
		a.Status = StatusGraded
	}
	if err := s.updateAttempt(ctx, a); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT
		id,quiz_id,user_id,status,blueprint_json,responses_json,graded_json,
		auto_score,manual_score,max_score,total_score,percentage,
		requires_manual,passed,graded_by,started_at,submitted_at
		FROM attempts WHERE id=$1`, id)
	return scanAttempt(row)
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	q := `SELECT id,quiz_id,user_id,status,blueprint_json,responses_json,graded_json,
		auto_score,manual_score,max_score,total_score,percentage,
		requires_manual,passed,graded_by,started_at,submitted_at
		FROM attempts WHERE 1=1`
	args := []interface{}{}
	n := 0
	add := func(clause string, v interface{}) {
		n++
		q += clause + placeholder(n)
		args = append(args, v)
	}
	if opts.QuizID != "" {
		add(` AND quiz_id=`, opts.QuizID)
	}
	if opts.UserID != "" {
		add(` AND user_id=`, opts.UserID)
	}
	if opts.Status != "" {
		add(` AND status=`, opts.Status)
	}
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q += ` ORDER BY started_at DESC`
	add(` LIMIT `, limit)
	add(` OFFSET `, opts.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ApplyManualGrades records teacher scores for review-pending
// questions, recomputes the attempt totals and finalizes it.
func (s *SQLStore) ApplyManualGrades(ctx context.Context, attemptID string, updates map[string]ManualGradeInput, gradedBy string) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Status == StatusInProgress {
		return Attempt{}, errors.New("attempt not yet submitted")
	}
	qz, err := s.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return Attempt{}, err
	}

	for i := range a.Graded {
		gq := &a.Graded[i]
		in, ok := updates[gq.QuestionID]
		if !ok {
			continue
		}
		gq.ManualScore = clamp(in.Points, 0, gq.MaxMarks)
		gq.Comment = in.Comment
		gq.Status = QuestionGraded
	}
	Recompute(&a, qz.Scoring)
	a.GradedBy = gradedBy
	if !a.RequiresManualReview {
		a.Status = StatusGraded
	}
	if err := s.updateAttempt(ctx, a); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) updateAttempt(ctx context.Context, a Attempt) error {
	respJSON, _ := json.Marshal(a.Responses)
	gradedJSON, _ := json.Marshal(a.Graded)
	_, err := s.db.ExecContext(ctx, `UPDATE attempts SET
		status=$1, responses_json=$2, graded_json=$3,
		auto_score=$4, manual_score=$5, max_score=$6, total_score=$7, percentage=$8,
		requires_manual=$9, passed=$10, graded_by=$11, submitted_at=$12
		WHERE id=$13`,
		a.Status, string(respJSON), string(gradedJSON),
		a.AutoScore, a.ManualScore, a.MaxScore, a.TotalScore, a.Percentage,
		a.RequiresManualReview, a.Passed, a.GradedBy, a.SubmittedAt, a.ID)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAttempt(row rowScanner) (Attempt, error) {
	var a Attempt
	var bpJSON, respJSON, gradedJSON string
	var gradedBy sql.NullString
	var submittedAt sql.NullInt64
	err := row.Scan(&a.ID, &a.QuizID, &a.UserID, &a.Status, &bpJSON, &respJSON, &gradedJSON,
		&a.AutoScore, &a.ManualScore, &a.MaxScore, &a.TotalScore, &a.Percentage,
		&a.RequiresManualReview, &a.Passed, &gradedBy, &a.StartedAt, &submittedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, err
	}
	if err := json.Unmarshal([]byte(bpJSON), &a.Blueprint); err != nil {
		return Attempt{}, err
	}
	if err := json.Unmarshal([]byte(respJSON), &a.Responses); err != nil {
		a.Responses = map[string]interface{}{}
	}
	if err := json.Unmarshal([]byte(gradedJSON), &a.Graded); err != nil {
		a.Graded = nil
	}
	a.GradedBy = gradedBy.String
	a.SubmittedAt = submittedAt.Int64
	return a, nil
}

func placeholder(n int) string {
	// pgx and modernc/sqlite both accept $N placeholders
	return "$" + strconv.Itoa(n)
}

// --- enrollments ---

// SetEnrollment upserts a user's enrollment status for a course.
func (s *SQLStore) SetEnrollment(ctx context.Context, userID, courseID, status string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO enrollments (user_id,course_id,status,updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id,course_id) DO UPDATE SET status=EXCLUDED.status, updated_at=EXCLUDED.updated_at`,
		userID, courseID, status, time.Now().Unix())
	return err
}

// HasCompleted implements EnrollmentStore.
func (s *SQLStore) HasCompleted(ctx context.Context, userID, courseID string) (bool, error) {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM enrollments WHERE user_id=$1 AND course_id=$2`, userID, courseID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status == EnrollmentCompleted, nil
}
