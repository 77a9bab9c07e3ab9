package quiz

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quizforge/quizforge/internal/grading"
)

// MemoryStore is the in-process Store used by tests and the offline
// mode of quizd. Behavior mirrors SQLStore; enrollments are kept in a
// user/course composite map.
type MemoryStore struct {
	mu          sync.RWMutex
	banks       map[string]Bank
	quizzes     map[string]Quiz
	attempts    map[string]Attempt
	enrollments map[string]string // userID+"/"+courseID -> status

	asm *Assembler
	ev  grading.Evaluator
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		banks:       map[string]Bank{},
		quizzes:     map[string]Quiz{},
		attempts:    map[string]Attempt{},
		enrollments: map[string]string{},
		asm:         NewAssembler(),
		ev:          grading.NewEvaluator(),
	}
}

// SetAssembler swaps in a deterministic assembler, used by tests that
// need reproducible draws.
func (m *MemoryStore) SetAssembler(a *Assembler) { m.asm = a }

func (m *MemoryStore) PutBank(ctx context.Context, b Bank) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.CreatedAt == 0 {
		b.CreatedAt = time.Now().Unix()
	}
	m.banks[b.ID] = b
	return nil
}

func (m *MemoryStore) GetBank(ctx context.Context, id string) (Bank, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.banks[id]
	if !ok {
		return Bank{}, ErrBankNotFound
	}
	return b, nil
}

func (m *MemoryStore) PutQuiz(ctx context.Context, q Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().Unix()
	}
	m.quizzes[q.ID] = q
	return nil
}

func (m *MemoryStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, ErrQuizNotFound
	}
	return q, nil
}

func (m *MemoryStore) ListQuizzes(ctx context.Context, limit, offset int) ([]QuizListItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]QuizListItem, 0, len(m.quizzes))
	for _, q := range m.quizzes {
		items = append(items, QuizListItem{ID: q.ID, Title: q.Title, BankID: q.BankID, CreatedAt: q.CreatedAt})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt != items[j].CreatedAt {
			return items[i].CreatedAt > items[j].CreatedAt
		}
		return items[i].ID < items[j].ID
	})
	return page(items, limit, offset), nil
}

func (m *MemoryStore) NewAttempt(ctx context.Context, quizID, userID string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	qz, ok := m.quizzes[quizID]
	if !ok {
		return Attempt{}, ErrQuizNotFound
	}
	if qz.BankID == "" {
		return Attempt{}, ErrNoBankConfigured
	}
	bank, ok := m.banks[qz.BankID]
	if !ok {
		return Attempt{}, ErrBankNotFound
	}
	bp, err := m.asm.Assemble(qz, bank)
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
	m.attempts[a.ID] = a
	return a, nil
}

func (m *MemoryStore) SaveResponses(ctx context.Context, attemptID string, resp map[string]interface{}) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
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
	m.attempts[attemptID] = a
	return a, nil
}

func (m *MemoryStore) Submit(ctx context.Context, attemptID string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	if a.Status != StatusInProgress {
		return a, nil
	}
	qz := m.quizzes[a.QuizID]

	res := GradeAttempt(a.Blueprint, a.Responses, qz.Scoring, m.ev)
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
	m.attempts[attemptID] = a
	return a, nil
}

func (m *MemoryStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return a, nil
}

func (m *MemoryStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Attempt{}
	for _, a := range m.attempts {
		if opts.QuizID != "" && a.QuizID != opts.QuizID {
			continue
		}
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && a.Status != opts.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt != out[j].StartedAt {
			return out[i].StartedAt > out[j].StartedAt
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts.Limit, opts.Offset), nil
}

func (m *MemoryStore) ApplyManualGrades(ctx context.Context, attemptID string, updates map[string]ManualGradeInput, gradedBy string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	if a.Status == StatusInProgress {
		return Attempt{}, errors.New("attempt not yet submitted")
	}
	qz := m.quizzes[a.QuizID]

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
	m.attempts[attemptID] = a
	return a, nil
}

func (m *MemoryStore) SetEnrollment(ctx context.Context, userID, courseID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollments[userID+"/"+courseID] = status
	return nil
}

// HasCompleted implements EnrollmentStore.
func (m *MemoryStore) HasCompleted(ctx context.Context, userID, courseID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enrollments[userID+"/"+courseID] == EnrollmentCompleted, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
