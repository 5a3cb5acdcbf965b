package scoring

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedSubmission marks answers that cannot be interpreted at all.
	ErrMalformedSubmission = errors.New("malformed submission")
	// ErrQuestionCountMismatch marks submissions whose answer count differs from the quiz.
	ErrQuestionCountMismatch = errors.New("question count mismatch")
	// ErrScoreOutOfRange marks a scaled score outside 0..20.
	ErrScoreOutOfRange = errors.New("scaled score out of range")
)

// MalformedError describes why a submission could not be normalized.
// Position is the offending question marker, or -1 when the whole payload is bad.
type MalformedError struct {
	Position int
	Reason   string
}

func (e *MalformedError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("%s: %s", ErrMalformedSubmission, e.Reason)
	}
	return fmt.Sprintf("%s: question %d: %s", ErrMalformedSubmission, e.Position, e.Reason)
}

func (e *MalformedError) Is(target error) bool { return target == ErrMalformedSubmission }

// CountMismatchError reports how many answers were normalized against how many the quiz has.
type CountMismatchError struct {
	Got  int
	Want int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("%s: got %d answers for %d questions", ErrQuestionCountMismatch, e.Got, e.Want)
}

func (e *CountMismatchError) Is(target error) bool { return target == ErrQuestionCountMismatch }

func malformed(position int, format string, args ...any) error {
	return &MalformedError{Position: position, Reason: fmt.Sprintf(format, args...)}
}
