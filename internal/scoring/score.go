package scoring

import (
	"fmt"

	"pint-quiz-service/internal/domain"
)

// MaxScore is the top of the grading scale.
const MaxScore = 20

// Score counts positions where the normalized answer equals the answer key
// and scales the count to 0..20 exactly once. Answers past the key are
// ignored; a missing answer never matches. An empty key yields a zero Grade.
func Score(normalized, correct []int) domain.Grade {
	total := len(correct)
	if total == 0 {
		return domain.Grade{}
	}

	hits := 0
	for i := 0; i < total && i < len(normalized); i++ {
		if normalized[i] == correct[i] {
			hits++
		}
	}
	return domain.Grade{
		Correct:     hits,
		Total:       total,
		ScaledScore: float64(hits) / float64(total) * MaxScore,
	}
}

// Grade normalizes a submission against a quiz and scores it. Submissions
// must answer every question: any count mismatch is rejected.
func Grade(quiz domain.Quiz, answers []domain.Answer) (domain.Grade, error) {
	want := len(quiz.Questions)
	normalized, err := NormalizeAnswers(answers, want)
	if err != nil {
		return domain.Grade{}, err
	}
	if len(normalized) != want {
		return domain.Grade{}, &CountMismatchError{Got: len(normalized), Want: want}
	}
	return Score(normalized, quiz.CorrectIndices()), nil
}

// ValidateScaled rejects scores that cannot come from a single 0..20 scaling,
// such as a grade that was scaled twice.
func ValidateScaled(score float64) error {
	if score < 0 || score > MaxScore {
		return fmt.Errorf("%w: %.2f", ErrScoreOutOfRange, score)
	}
	return nil
}

// ValidateGrade checks a stored grade for internal consistency.
func ValidateGrade(g domain.Grade) error {
	if err := ValidateScaled(g.ScaledScore); err != nil {
		return err
	}
	if g.Correct < 0 || g.Correct > g.Total {
		return fmt.Errorf("%w: %d correct of %d", ErrScoreOutOfRange, g.Correct, g.Total)
	}
	return nil
}
