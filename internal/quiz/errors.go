package quiz

import "errors"

var (
	// ErrNoBankConfigured means the quiz references no question bank at
	// all; assembly cannot even start.
	ErrNoBankConfigured = errors.New("quiz has no question bank configured")

	// ErrBankNotFound means the referenced bank could not be located.
	ErrBankNotFound = errors.New("question bank not found")

	ErrQuizNotFound    = errors.New("quiz not found")
	ErrAttemptNotFound = errors.New("attempt not found")
)
