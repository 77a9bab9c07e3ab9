package quiz

import (
	"context"
	"errors"
	"testing"
)

type fakeEnrollments struct {
	completed map[string]bool // userID+"/"+courseID
	err       error
}

func (f *fakeEnrollments) HasCompleted(ctx context.Context, userID, courseID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.completed[userID+"/"+courseID], nil
}

func TestPrerequisitesMet(t *testing.T) {
	es := &fakeEnrollments{completed: map[string]bool{
		"u1/c1": true,
		"u1/c2": true,
		"u2/c1": true,
	}}

	cases := []struct {
		name   string
		access AccessPolicy
		userID string
		want   bool
	}{
		{"not required", AccessPolicy{}, "u3", true},
		{"required but none listed", AccessPolicy{RequirePrerequisites: true}, "u3", true},
		{"all completed", AccessPolicy{RequirePrerequisites: true, PrerequisiteCourses: []string{"c1", "c2"}}, "u1", true},
		{"one missing", AccessPolicy{RequirePrerequisites: true, PrerequisiteCourses: []string{"c1", "c2"}}, "u2", false},
		{"none completed", AccessPolicy{RequirePrerequisites: true, PrerequisiteCourses: []string{"c1"}}, "u3", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PrerequisitesMet(context.Background(), es, Quiz{Access: tc.access}, tc.userID)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("met = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPrerequisitesMetPropagatesError(t *testing.T) {
	boom := errors.New("db down")
	es := &fakeEnrollments{err: boom}
	qz := Quiz{Access: AccessPolicy{RequirePrerequisites: true, PrerequisiteCourses: []string{"c1"}}}
	_, err := PrerequisitesMet(context.Background(), es, qz, "u1")
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
