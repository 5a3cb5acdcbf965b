package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pint-quiz-service/internal/domain"
)

func TestLetterIndexCoversAlphabet(t *testing.T) {
	for i := 0; i < 26; i++ {
		upper := string(rune('A' + i))
		idx, ok := LetterIndex(upper)
		require.True(t, ok, upper)
		assert.Equal(t, i, idx, upper)

		lower := string(rune('a' + i))
		idx, ok = LetterIndex(lower)
		require.True(t, ok, lower)
		assert.Equal(t, i, idx, lower)
	}

	for _, bad := range []string{"", "AB", "1", "?", "Á"} {
		_, ok := LetterIndex(bad)
		assert.False(t, ok, bad)
	}
}

func TestDecodeAndScoreMixedAnswers(t *testing.T) {
	payload := []byte(`[{"resposta":"B","pergunta_id":0},{"resposta":"A","pergunta_id":1},{"resposta":"A","pergunta_id":2}]`)

	answers, err := DecodeAnswers(payload)
	require.NoError(t, err)

	normalized, err := NormalizeAnswers(answers, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 0}, normalized)

	grade := Score(normalized, []int{0, 0, 0})
	assert.Equal(t, 2, grade.Correct)
	assert.Equal(t, 3, grade.Total)
	assert.Equal(t, 13.33, grade.Rounded())
}

func TestDecodeAcceptsNumbersAndNumericStrings(t *testing.T) {
	answers, err := DecodeAnswers([]byte(`[{"pergunta_id":"2","resposta":1},{"pergunta_id":1,"resposta":"0"}]`))
	require.NoError(t, err)
	assert.Equal(t, []domain.Answer{
		{QuestionRef: 2, Value: "1"},
		{QuestionRef: 1, Value: "0"},
	}, answers)
}

func TestDecodeRejectsNonArrays(t *testing.T) {
	for _, payload := range []string{``, `null`, `{}`, `"A"`, `42`, `[1,2]`, `[{"resposta":"A"}]`, `[{"pergunta_id":0}]`, `[{"pergunta_id":true,"resposta":"A"}]`} {
		_, err := DecodeAnswers([]byte(payload))
		assert.ErrorIs(t, err, ErrMalformedSubmission, payload)
	}
}

func TestNormalizeSortsByMarker(t *testing.T) {
	normalized, err := NormalizeAnswers([]domain.Answer{
		{QuestionRef: 12, Value: "C"},
		{QuestionRef: 10, Value: "a"},
		{QuestionRef: 11, Value: " 3 "},
	}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 2}, normalized)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	first, err := NormalizeAnswers([]domain.Answer{
		{QuestionRef: 2, Value: "D"},
		{QuestionRef: 0, Value: "B"},
		{QuestionRef: 1, Value: "0"},
	}, 3)
	require.NoError(t, err)

	second, err := NormalizeAnswers(AnswersFromIndices(first), 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalizeFailures(t *testing.T) {
	cases := map[string]struct {
		answers []domain.Answer
		want    error
	}{
		"nil answers":      {answers: nil, want: ErrMalformedSubmission},
		"word":             {answers: []domain.Answer{{QuestionRef: 0, Value: "maybe"}}, want: ErrMalformedSubmission},
		"empty value":      {answers: []domain.Answer{{QuestionRef: 0, Value: ""}}, want: ErrMalformedSubmission},
		"negative index":   {answers: []domain.Answer{{QuestionRef: 0, Value: "-1"}}, want: ErrMalformedSubmission},
		"conflicting dupe": {answers: []domain.Answer{{QuestionRef: 0, Value: "A"}, {QuestionRef: 0, Value: "B"}}, want: ErrMalformedSubmission},
		"too many":         {answers: []domain.Answer{{QuestionRef: 0, Value: "A"}, {QuestionRef: 1, Value: "A"}}, want: ErrQuestionCountMismatch},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizeAnswers(tc.answers, 1)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestNormalizeCollapsesIdenticalDuplicates(t *testing.T) {
	normalized, err := NormalizeAnswers([]domain.Answer{
		{QuestionRef: 0, Value: "B"},
		{QuestionRef: 0, Value: "1"},
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, normalized)
}

func TestMalformedErrorCarriesPosition(t *testing.T) {
	_, err := NormalizeAnswers([]domain.Answer{{QuestionRef: 4, Value: "??"}}, -1)
	var malformedErr *MalformedError
	require.True(t, errors.As(err, &malformedErr))
	assert.Equal(t, 4, malformedErr.Position)
}

func TestScaledScoreProperty(t *testing.T) {
	for total := 1; total <= 30; total++ {
		key := make([]int, total)
		for correct := 0; correct <= total; correct++ {
			answers := make([]int, total)
			for i := correct; i < total; i++ {
				answers[i] = 1
			}
			grade := Score(answers, key)
			require.Equal(t, correct, grade.Correct)
			require.Equal(t, float64(correct)/float64(total)*20, grade.ScaledScore)
			require.GreaterOrEqual(t, grade.ScaledScore, 0.0)
			require.LessOrEqual(t, grade.ScaledScore, 20.0)
			require.NoError(t, ValidateGrade(grade))
		}
	}
}

func TestScoreAllCorrect(t *testing.T) {
	grade := Score([]int{0, 1, 2, 3, 0}, []int{0, 1, 2, 3, 0})
	assert.Equal(t, domain.Grade{Correct: 5, Total: 5, ScaledScore: 20}, grade)
	assert.Equal(t, 20.0, grade.Rounded())
}

func TestScoreZeroQuestions(t *testing.T) {
	assert.Equal(t, domain.Grade{}, Score(nil, nil))
	assert.Equal(t, domain.Grade{}, Score([]int{1}, []int{}))
}

func TestGradeRequiresEveryQuestion(t *testing.T) {
	quiz := domain.Quiz{Questions: []domain.Question{
		{Options: []string{"a", "b"}, CorrectIndex: 0},
		{Options: []string{"a", "b"}, CorrectIndex: 1},
	}}

	grade, err := Grade(quiz, []domain.Answer{{QuestionRef: 0, Value: "A"}, {QuestionRef: 1, Value: "B"}})
	require.NoError(t, err)
	assert.Equal(t, 20.0, grade.ScaledScore)

	_, err = Grade(quiz, []domain.Answer{{QuestionRef: 0, Value: "A"}})
	var mismatch *CountMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, CountMismatchError{Got: 1, Want: 2}, *mismatch)
}

func TestGradeEmptyQuiz(t *testing.T) {
	grade, err := Grade(domain.Quiz{ID: "empty"}, []domain.Answer{})
	require.NoError(t, err)
	assert.Equal(t, domain.Grade{}, grade)
}

func TestValidateScaledRejectsDoubleScaling(t *testing.T) {
	assert.NoError(t, ValidateScaled(0))
	assert.NoError(t, ValidateScaled(20))
	// a 15/20 grade scaled a second time as if it were a raw count out of 1
	assert.ErrorIs(t, ValidateScaled(15.0*20), ErrScoreOutOfRange)
	assert.ErrorIs(t, ValidateScaled(-0.5), ErrScoreOutOfRange)
	assert.ErrorIs(t, ValidateGrade(domain.Grade{Correct: 4, Total: 3, ScaledScore: 20}), ErrScoreOutOfRange)
}
