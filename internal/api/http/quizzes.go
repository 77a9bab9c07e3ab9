package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quizforge/quizforge/internal/quiz"
	"github.com/quizforge/quizforge/internal/rbac"
)

// POST /quizzes
func CreateQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q quiz.Quiz
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if q.BankID == "" {
			http.Error(w, "bank_id required", http.StatusBadRequest)
			return
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		// reject dangling bank references up front
		if _, err := store.GetBank(r.Context(), q.BankID); err != nil {
			if errors.Is(err, quiz.ErrBankNotFound) {
				http.Error(w, "bank not found", http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := store.PutQuiz(r.Context(), q); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, q)
	}
}

// quizPublicView is what students see: no section criteria, no grader
// assignments.
type quizPublicView struct {
	ID           string  `json:"id"`
	Title        string  `json:"title,omitempty"`
	TimeLimitSec int     `json:"time_limit_sec,omitempty"`
	PassingType  string  `json:"passing_type,omitempty"`
	PassingValue float64 `json:"passing_value,omitempty"`
}

// GET /quizzes/{quizID}
func GetQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := store.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			if errors.Is(err, quiz.ErrQuizNotFound) {
				http.Error(w, "quiz not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		u := rbac.UserFromContext(r.Context())
		if u.Role == rbac.RoleStudent {
			writeJSON(w, quizPublicView{
				ID:           q.ID,
				Title:        q.Title,
				TimeLimitSec: q.TimeLimitSec,
				PassingType:  q.Scoring.PassingType,
				PassingValue: q.Scoring.PassingValue,
			})
			return
		}
		writeJSON(w, q)
	}
}

// GET /quizzes?limit=50&offset=0
func ListQuizzesHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
		items, err := store.ListQuizzes(r.Context(), limit, offset)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, items)
	}
}
