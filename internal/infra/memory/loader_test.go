package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pint-quiz-service/internal/domain"
)

const quizYAML = `
quizzes:
  - id: quiz-1
    title: Capitals
    questions:
      - id: q1
        prompt: Capital of Portugal?
        options: [Porto, Lisboa, Braga]
        correctIndex: 1
      - id: q2
        prompt: Capital of Spain?
        options: [Madrid, Sevilha]
        correctIndex: 0
`

func TestLoadQuizFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quizzes.yaml")
	if err := os.WriteFile(path, []byte(quizYAML), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	loader, err := LoadQuizFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	quiz, err := loader.LoadQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	if quiz.Title != "Capitals" || len(quiz.Questions) != 2 || quiz.Questions[0].CorrectIndex != 1 {
		t.Fatalf("unexpected quiz %+v", quiz)
	}
}

func TestParseQuizzesAcceptsJSON(t *testing.T) {
	loader, err := ParseQuizzes([]byte(`{"quizzes":[{"id":"q","questions":[{"options":["a","b"],"correctIndex":1}]}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	quiz, err := loader.LoadQuiz(context.Background(), "q")
	if err != nil || quiz.Questions[0].CorrectIndex != 1 {
		t.Fatalf("unexpected quiz %+v err=%v", quiz, err)
	}
}

func TestParseQuizzesRejectsOutOfBoundsKey(t *testing.T) {
	_, err := ParseQuizzes([]byte(`{"quizzes":[{"id":"q","questions":[{"options":["a"],"correctIndex":3}]}]}`))
	if !errors.Is(err, domain.ErrInvalidQuiz) {
		t.Fatalf("expected invalid quiz, got %v", err)
	}
}

func TestAllOrdersByID(t *testing.T) {
	loader := NewStaticQuizLoader(map[string]domain.Quiz{"b": {ID: "b"}, "a": {ID: "a"}, "c": {ID: "c"}})
	all := loader.All()
	if len(all) != 3 || all[0].ID != "a" || all[2].ID != "c" {
		t.Fatalf("unexpected order %+v", all)
	}
}
