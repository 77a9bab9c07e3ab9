package quiz

import "context"

// Enrollment statuses.
const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
)

// EnrollmentStore is the external collaborator consulted for
// prerequisite checks.
type EnrollmentStore interface {
	// HasCompleted reports whether the user holds a completed-status
	// enrollment in the course.
	HasCompleted(ctx context.Context, userID, courseID string) (bool, error)
}

// PrerequisitesMet reports whether a user may start an attempt under
// the quiz's access policy: trivially true when the quiz requires no
// prerequisites or lists none, otherwise true only when every listed
// course has a completed enrollment.
func PrerequisitesMet(ctx context.Context, es EnrollmentStore, qz Quiz, userID string) (bool, error) {
	if !qz.Access.RequirePrerequisites || len(qz.Access.PrerequisiteCourses) == 0 {
		return true, nil
	}
	for _, courseID := range qz.Access.PrerequisiteCourses {
		done, err := es.HasCompleted(ctx, userID, courseID)
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}
	}
	return true, nil
}
