package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quizforge/quizforge/internal/quiz"
	"github.com/quizforge/quizforge/internal/rbac"
)

// attemptView is the wire shape of an attempt. Students get the
// redacted blueprint; graders get the full one.
type attemptView struct {
	quiz.Attempt
	Blueprint quiz.Blueprint `json:"blueprint"`
}

func viewFor(a quiz.Attempt, u rbac.User) attemptView {
	v := attemptView{Attempt: a, Blueprint: a.Blueprint}
	if u.Role == rbac.RoleStudent {
		v.Blueprint = a.Blueprint.Redacted()
	}
	return v
}

// POST /attempts  { "quiz_id": "..." }
func CreateAttemptHandler(store quiz.Store, enrollments quiz.EnrollmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := rbac.UserFromContext(r.Context())
		var req struct {
			QuizID string `json:"quiz_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.QuizID == "" {
			http.Error(w, "quiz_id required", http.StatusBadRequest)
			return
		}

		qz, err := store.GetQuiz(r.Context(), req.QuizID)
		if err != nil {
			if errors.Is(err, quiz.ErrQuizNotFound) {
				http.Error(w, "quiz not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		ok, err := quiz.PrerequisitesMet(r.Context(), enrollments, qz, u.ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "prerequisites not met", http.StatusForbidden)
			return
		}

		a, err := store.NewAttempt(r.Context(), req.QuizID, u.ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, viewFor(a, u))
	}
}

// POST /attempts/{attemptID}/responses
func SaveResponsesHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := rbac.UserFromContext(r.Context())
		id := chi.URLParam(r, "attemptID")

		if !ownsAttempt(r, store, id, u) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		var resp map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a, err := store.SaveResponses(r.Context(), id, resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, viewFor(a, u))
	}
}

// POST /attempts/{attemptID}/submit
func SubmitAttemptHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := rbac.UserFromContext(r.Context())
		id := chi.URLParam(r, "attemptID")

		if !ownsAttempt(r, store, id, u) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		a, err := store.Submit(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, viewFor(a, u))
	}
}

// GET /attempts/{attemptID}
func GetAttemptHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := rbac.UserFromContext(r.Context())
		a, err := store.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			if errors.Is(err, quiz.ErrAttemptNotFound) {
				http.Error(w, "attempt not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		qz, err := store.GetQuiz(r.Context(), a.QuizID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !rbac.CanViewAttempt(qz, a, u) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, viewFor(a, u))
	}
}

// GET /attempts?quiz_id=...&user_id=...&status=...&limit=50&offset=0
// Callers without attempt:view-all are scoped to their own attempts.
func ListAttemptsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := rbac.UserFromContext(r.Context())

		quizID := strings.TrimSpace(r.URL.Query().Get("quiz_id"))
		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		status := strings.TrimSpace(r.URL.Query().Get("status"))
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

		// only staff with view-all can list across users; TAs fetch the
		// attempts they grade per quiz through the single-attempt route
		switch u.Role {
		case rbac.RoleTeacher, rbac.RoleAdmin, rbac.RoleSuperAdmin:
		default:
			userID = u.ID
		}

		list, err := store.ListAttempts(r.Context(), quiz.AttemptListOpts{
			QuizID: quizID,
			UserID: userID,
			Status: status,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out := make([]attemptView, 0, len(list))
		for _, a := range list {
			out = append(out, viewFor(a, u))
		}
		writeJSON(w, out)
	}
}

type applyGradesReq struct {
	Items map[string]quiz.ManualGradeInput `json:"items"` // question_id -> grade
}

// POST /attempts/{attemptID}/grades
func ApplyGradesHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := rbac.UserFromContext(r.Context())
		id := chi.URLParam(r, "attemptID")

		a, err := store.GetAttempt(r.Context(), id)
		if err != nil {
			if errors.Is(err, quiz.ErrAttemptNotFound) {
				http.Error(w, "attempt not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		qz, err := store.GetQuiz(r.Context(), a.QuizID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !rbac.CanGradeAttempt(qz, u) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req applyGradesReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		graded, err := store.ApplyManualGrades(r.Context(), id, req.Items, u.ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, viewFor(graded, u))
	}
}

func ownsAttempt(r *http.Request, store quiz.Store, attemptID string, u rbac.User) bool {
	a, err := store.GetAttempt(r.Context(), attemptID)
	if err != nil {
		return false
	}
	return a.UserID == u.ID
}
