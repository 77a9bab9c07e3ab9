package rbac

import (
	"testing"

	"github.com/quizforge/quizforge/internal/quiz"
)

func TestCanGradeAttempt(t *testing.T) {
	qz := quiz.Quiz{ID: "quiz-1", Graders: []string{"ta-1"}}

	cases := []struct {
		name string
		user User
		want bool
	}{
		{"teacher", User{ID: "t1", Role: RoleTeacher}, true},
		{"admin", User{ID: "a1", Role: RoleAdmin}, true},
		{"super admin", User{ID: "sa1", Role: RoleSuperAdmin}, true},
		{"assigned ta", User{ID: "ta-1", Role: RoleTA}, true},
		{"unassigned ta", User{ID: "ta-2", Role: RoleTA}, false},
		{"student", User{ID: "s1", Role: RoleStudent}, false},
		{"unknown role", User{ID: "x", Role: "visitor"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanGradeAttempt(qz, tc.user); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanViewAttempt(t *testing.T) {
	qz := quiz.Quiz{ID: "quiz-1", Graders: []string{"ta-1"}}
	a := quiz.Attempt{ID: "att-1", QuizID: "quiz-1", UserID: "s1"}

	cases := []struct {
		name string
		user User
		want bool
	}{
		{"owner student", User{ID: "s1", Role: RoleStudent}, true},
		{"other student", User{ID: "s2", Role: RoleStudent}, false},
		{"assigned ta", User{ID: "ta-1", Role: RoleTA}, true},
		{"unassigned ta", User{ID: "ta-2", Role: RoleTA}, false},
		{"teacher", User{ID: "t1", Role: RoleTeacher}, true},
		{"admin", User{ID: "a1", Role: RoleAdmin}, true},
		{"no role", User{ID: "s1", Role: ""}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanViewAttempt(qz, a, tc.user); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCheckerWildcardMatch(t *testing.T) {
	c := NewChecker(nil)
	if !c.Has(RoleTeacher, "quiz:create") {
		t.Fatal("teacher quiz:* should cover quiz:create")
	}
	if c.Has(RoleStudent, "attempt:grade") {
		t.Fatal("student must not grade")
	}
	if !c.Has(RoleAdmin, "anything:at_all") {
		t.Fatal("admin * should cover everything")
	}
	if c.Has("visitor", "quiz:view") {
		t.Fatal("unknown role has no permissions")
	}
}
