package rbac

import (
	"github.com/quizforge/quizforge/internal/quiz"
)

// User is the authenticated caller as seen by the guards.
type User struct {
	ID   string
	Role string
}

// CanGradeAttempt reports whether the user may apply manual grades to
// attempts of the quiz. TAs qualify only when listed as graders on the
// quiz itself.
func CanGradeAttempt(qz quiz.Quiz, u User) bool {
	switch u.Role {
	case RoleTeacher, RoleAdmin, RoleSuperAdmin:
		return true
	case RoleTA:
		return isGrader(qz, u.ID)
	}
	return false
}

// CanViewAttempt reports whether the user may read a full attempt.
// Students see only their own; TAs see attempts of quizzes they grade.
func CanViewAttempt(qz quiz.Quiz, a quiz.Attempt, u User) bool {
	switch u.Role {
	case RoleTeacher, RoleAdmin, RoleSuperAdmin:
		return true
	case RoleTA:
		return isGrader(qz, u.ID)
	case RoleStudent:
		return a.UserID == u.ID
	}
	return false
}

func isGrader(qz quiz.Quiz, userID string) bool {
	for _, id := range qz.Graders {
		if id == userID {
			return true
		}
	}
	return false
}
