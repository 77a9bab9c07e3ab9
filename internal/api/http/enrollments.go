package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/quizforge/quizforge/internal/quiz"
)

// EnrollmentManager is the writable side of enrollment state; the quiz
// package only ever reads it.
type EnrollmentManager interface {
	quiz.EnrollmentStore
	SetEnrollment(ctx context.Context, userID, courseID, status string) error
}

// PUT /enrollments  { "user_id": "...", "course_id": "...", "status": "active|completed" }
func SetEnrollmentHandler(em EnrollmentManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID   string `json:"user_id"`
			CourseID string `json:"course_id"`
			Status   string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.UserID == "" || req.CourseID == "" {
			http.Error(w, "user_id and course_id required", http.StatusBadRequest)
			return
		}
		if req.Status != quiz.EnrollmentActive && req.Status != quiz.EnrollmentCompleted {
			http.Error(w, "status must be active or completed", http.StatusBadRequest)
			return
		}
		if err := em.SetEnrollment(r.Context(), req.UserID, req.CourseID, req.Status); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
