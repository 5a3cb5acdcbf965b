package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz is returned when stored quiz content breaks its own answer key.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrSubmissionNotFound is returned for unknown submission IDs.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrFeedNotFound is returned when nobody has opened a live feed for a quiz.
	ErrFeedNotFound = errors.New("grade feed not found")
)
