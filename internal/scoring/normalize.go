package scoring

import (
	"bytes"
	"cmp"
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"pint-quiz-service/internal/domain"
)

// wireAnswer is the client payload shape. Both fields arrive as either JSON
// strings or JSON numbers depending on the client.
type wireAnswer struct {
	QuestionRef json.RawMessage `json:"pergunta_id"`
	Value       json.RawMessage `json:"resposta"`
}

// DecodeAnswers parses the `answers` payload of a submission. Anything other
// than a JSON array of {pergunta_id, resposta} objects is malformed.
func DecodeAnswers(data []byte) ([]domain.Answer, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, malformed(-1, "answers must be an array")
	}
	var wire []wireAnswer
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, malformed(-1, "decode answers: %v", err)
	}

	answers := make([]domain.Answer, 0, len(wire))
	for i, w := range wire {
		ref, ok := scalar(w.QuestionRef)
		if !ok {
			return nil, malformed(-1, "entry %d has no pergunta_id", i)
		}
		position, err := strconv.Atoi(strings.TrimSpace(ref))
		if err != nil {
			return nil, malformed(-1, "entry %d: pergunta_id %q is not an integer", i, ref)
		}
		value, ok := scalar(w.Value)
		if !ok {
			return nil, malformed(position, "missing resposta")
		}
		answers = append(answers, domain.Answer{QuestionRef: position, Value: value})
	}
	return answers, nil
}

// scalar unwraps a JSON string or number into its text form.
func scalar(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case c == '-' || (c >= '0' && c <= '9'):
		return string(raw), true
	default:
		return "", false
	}
}

// LetterIndex maps 'A'..'Z' (either case) to 0..25.
func LetterIndex(s string) (int, bool) {
	if len(s) != 1 {
		return 0, false
	}
	c := s[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'Z' {
		return 0, false
	}
	return int(c - 'A'), true
}

// NormalizeAnswers orders answers by question marker and converts each value
// to a zero-based option index. The result has one entry per distinct marker.
// A nil slice is treated as a missing answers array. Repeated markers must
// agree on the value. More distinct markers than questionCount is a count
// mismatch; pass a negative questionCount to skip that check.
func NormalizeAnswers(answers []domain.Answer, questionCount int) ([]int, error) {
	if answers == nil {
		return nil, malformed(-1, "answers must be an array")
	}

	sorted := slices.Clone(answers)
	slices.SortStableFunc(sorted, func(a, b domain.Answer) int {
		return cmp.Compare(a.QuestionRef, b.QuestionRef)
	})

	indices := make([]int, 0, len(sorted))
	for i, answer := range sorted {
		idx, err := answerIndex(answer)
		if err != nil {
			return nil, err
		}
		if i > 0 && sorted[i-1].QuestionRef == answer.QuestionRef {
			if last := indices[len(indices)-1]; last != idx {
				return nil, malformed(answer.QuestionRef, "conflicting answers %d and %d", last, idx)
			}
			continue
		}
		indices = append(indices, idx)
	}

	if questionCount >= 0 && len(indices) > questionCount {
		return nil, &CountMismatchError{Got: len(indices), Want: questionCount}
	}
	return indices, nil
}

func answerIndex(answer domain.Answer) (int, error) {
	value := strings.TrimSpace(answer.Value)
	if idx, ok := LetterIndex(value); ok {
		return idx, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, malformed(answer.QuestionRef, "answer %q is neither a letter nor an index", answer.Value)
	}
	if n < 0 {
		return 0, malformed(answer.QuestionRef, "negative answer index %d", n)
	}
	return n, nil
}

// AnswersFromIndices is the inverse of NormalizeAnswers for already
// normalized input: position i carries index i.
func AnswersFromIndices(indices []int) []domain.Answer {
	answers := make([]domain.Answer, len(indices))
	for i, idx := range indices {
		answers[i] = domain.Answer{QuestionRef: i, Value: strconv.Itoa(idx)}
	}
	return answers
}
