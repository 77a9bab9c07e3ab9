package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/quizforge/quizforge/internal/quiz"
	"github.com/quizforge/quizforge/internal/rbac"
)

func newTestRouter(store *quiz.MemoryStore) chi.Router {
	r := chi.NewRouter()
	r.Post("/attempts", CreateAttemptHandler(store, store))
	r.Post("/attempts/{attemptID}/responses", SaveResponsesHandler(store))
	r.Post("/attempts/{attemptID}/submit", SubmitAttemptHandler(store))
	r.Get("/attempts/{attemptID}", GetAttemptHandler(store))
	r.Post("/attempts/{attemptID}/grades", ApplyGradesHandler(store))
	r.Get("/quizzes/{quizID}/summary", QuizSummaryHandler(store))
	return r
}

func seedHTTP(t *testing.T) *quiz.MemoryStore {
	t.Helper()
	st := quiz.NewMemoryStore()
	ctx := context.Background()
	bank := quiz.Bank{
		ID:       "bank-1",
		CourseID: "course-1",
		Questions: []quiz.Question{
			{
				ID:   "q1",
				Type: "multiple_choice",
				Options: []quiz.Option{
					{Key: "a", Correct: true},
					{Key: "b"},
				},
				AnswerKey: json.RawMessage(`"a"`),
			},
		},
	}
	if err := st.PutBank(ctx, bank); err != nil {
		t.Fatal(err)
	}
	qz := quiz.Quiz{
		ID:      "quiz-1",
		BankID:  "bank-1",
		Graders: []string{"ta-1"},
		Scoring: quiz.ScoringPolicy{PassingType: quiz.PassingPercentage, PassingValue: 50},
	}
	if err := st.PutQuiz(ctx, qz); err != nil {
		t.Fatal(err)
	}
	return st
}

func doAs(t *testing.T, h http.Handler, userID, role, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	ctx := rbac.WithSubject(req.Context(), userID)
	ctx = rbac.WithRole(ctx, role)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func TestStudentAttemptFlow(t *testing.T) {
	st := seedHTTP(t)
	r := newTestRouter(st)

	rec := doAs(t, r, "s1", rbac.RoleStudent, http.MethodPost, "/attempts",
		map[string]string{"quiz_id": "quiz-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID        string         `json:"id"`
		Blueprint quiz.Blueprint `json:"blueprint"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	// the student-facing blueprint never carries answers
	for _, q := range created.Blueprint.Questions {
		if q.AnswerKey != nil {
			t.Fatal("answer key leaked to student")
		}
		for _, o := range q.Options {
			if o.Correct {
				t.Fatal("correct flag leaked to student")
			}
		}
	}

	rec = doAs(t, r, "s1", rbac.RoleStudent, http.MethodPost, "/attempts/"+created.ID+"/responses",
		map[string]interface{}{"q1": "a"})
	if rec.Code != http.StatusOK {
		t.Fatalf("save: %d %s", rec.Code, rec.Body.String())
	}

	rec = doAs(t, r, "s1", rbac.RoleStudent, http.MethodPost, "/attempts/"+created.ID+"/submit", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	var submitted quiz.Attempt
	if err := json.Unmarshal(rec.Body.Bytes(), &submitted); err != nil {
		t.Fatal(err)
	}
	if submitted.Status != quiz.StatusGraded || submitted.TotalScore != 1 || !submitted.Passed {
		t.Fatalf("submitted: status %q score %v passed %v", submitted.Status, submitted.TotalScore, submitted.Passed)
	}
}

func TestAttemptOwnershipEnforced(t *testing.T) {
	st := seedHTTP(t)
	r := newTestRouter(st)

	rec := doAs(t, r, "s1", rbac.RoleStudent, http.MethodPost, "/attempts",
		map[string]string{"quiz_id": "quiz-1"})
	var created quiz.Attempt
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	// another student cannot write or read this attempt
	rec = doAs(t, r, "s2", rbac.RoleStudent, http.MethodPost, "/attempts/"+created.ID+"/responses",
		map[string]interface{}{"q1": "a"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign save: %d", rec.Code)
	}
	rec = doAs(t, r, "s2", rbac.RoleStudent, http.MethodGet, "/attempts/"+created.ID, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign get: %d", rec.Code)
	}
	// a teacher can read it
	rec = doAs(t, r, "t1", rbac.RoleTeacher, http.MethodGet, "/attempts/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("teacher get: %d", rec.Code)
	}
}

func TestPrerequisiteGate(t *testing.T) {
	st := seedHTTP(t)
	r := newTestRouter(st)
	ctx := context.Background()

	gated := quiz.Quiz{
		ID:     "quiz-2",
		BankID: "bank-1",
		Access: quiz.AccessPolicy{RequirePrerequisites: true, PrerequisiteCourses: []string{"course-0"}},
	}
	if err := st.PutQuiz(ctx, gated); err != nil {
		t.Fatal(err)
	}

	rec := doAs(t, r, "s1", rbac.RoleStudent, http.MethodPost, "/attempts",
		map[string]string{"quiz_id": "quiz-2"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("without prerequisite: %d", rec.Code)
	}

	if err := st.SetEnrollment(ctx, "s1", "course-0", quiz.EnrollmentCompleted); err != nil {
		t.Fatal(err)
	}
	rec = doAs(t, r, "s1", rbac.RoleStudent, http.MethodPost, "/attempts",
		map[string]string{"quiz_id": "quiz-2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("with prerequisite: %d %s", rec.Code, rec.Body.String())
	}
}

func TestManualGradeAuthorization(t *testing.T) {
	st := seedHTTP(t)
	r := newTestRouter(st)

	rec := doAs(t, r, "s1", rbac.RoleStudent, http.MethodPost, "/attempts",
		map[string]string{"quiz_id": "quiz-1"})
	var created quiz.Attempt
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if rec = doAs(t, r, "s1", rbac.RoleStudent, http.MethodPost, "/attempts/"+created.ID+"/submit", nil); rec.Code != http.StatusOK {
		t.Fatalf("submit: %d", rec.Code)
	}

	body := map[string]interface{}{"items": map[string]quiz.ManualGradeInput{"q1": {Points: 1}}}

	// unassigned TA is rejected, assigned TA accepted
	if rec = doAs(t, r, "ta-2", rbac.RoleTA, http.MethodPost, "/attempts/"+created.ID+"/grades", body); rec.Code != http.StatusForbidden {
		t.Fatalf("unassigned ta: %d", rec.Code)
	}
	if rec = doAs(t, r, "ta-1", rbac.RoleTA, http.MethodPost, "/attempts/"+created.ID+"/grades", body); rec.Code != http.StatusOK {
		t.Fatalf("assigned ta: %d %s", rec.Code, rec.Body.String())
	}
	var graded quiz.Attempt
	if err := json.Unmarshal(rec.Body.Bytes(), &graded); err != nil {
		t.Fatal(err)
	}
	if graded.GradedBy != "ta-1" {
		t.Fatalf("graded by %q", graded.GradedBy)
	}
}

func TestQuizSummaryEndpoint(t *testing.T) {
	st := seedHTTP(t)
	r := newTestRouter(st)

	for _, user := range []string{"s1", "s2"} {
		rec := doAs(t, r, user, rbac.RoleStudent, http.MethodPost, "/attempts",
			map[string]string{"quiz_id": "quiz-1"})
		var a quiz.Attempt
		if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
			t.Fatal(err)
		}
		if user == "s1" {
			doAs(t, r, user, rbac.RoleStudent, http.MethodPost, "/attempts/"+a.ID+"/responses",
				map[string]interface{}{"q1": "a"})
		}
		doAs(t, r, user, rbac.RoleStudent, http.MethodPost, "/attempts/"+a.ID+"/submit", nil)
	}

	rec := doAs(t, r, "t1", rbac.RoleTeacher, http.MethodGet, "/quizzes/quiz-1/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: %d", rec.Code)
	}
	var s quiz.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatal(err)
	}
	if s.TotalAttempts != 2 || s.CompletedAttempts != 2 {
		t.Fatalf("counts: %+v", s)
	}
	if s.HighScore != 1 || s.LowScore != 0 {
		t.Fatalf("bounds: high %v low %v", s.HighScore, s.LowScore)
	}
}
