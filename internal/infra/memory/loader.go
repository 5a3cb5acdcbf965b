package memory

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"pint-quiz-service/internal/domain"
)

// StaticQuizLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticQuizLoader struct {
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[string]domain.Quiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

// All returns every quiz ordered by ID.
func (l *StaticQuizLoader) All() []domain.Quiz {
	out := make([]domain.Quiz, 0, len(l.quizzes))
	for _, quiz := range l.quizzes {
		out = append(out, quiz)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// quizFile mirrors the JSON field names so one file format serves both YAML and JSON.
type quizFile struct {
	Quizzes []struct {
		ID        string `yaml:"id"`
		Title     string `yaml:"title"`
		Questions []struct {
			ID           string   `yaml:"id"`
			Prompt       string   `yaml:"prompt"`
			Options      []string `yaml:"options"`
			CorrectIndex int      `yaml:"correctIndex"`
		} `yaml:"questions"`
	} `yaml:"quizzes"`
}

// LoadQuizFile reads a YAML or JSON document of the form {quizzes: [...]}
// into a StaticQuizLoader.
func LoadQuizFile(path string) (*StaticQuizLoader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseQuizzes(data)
}

// ParseQuizzes decodes a quiz document. Quizzes are validated up front.
func ParseQuizzes(data []byte) (*StaticQuizLoader, error) {
	var doc quizFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse quizzes: %w", err)
	}

	quizzes := make(map[string]domain.Quiz, len(doc.Quizzes))
	for _, raw := range doc.Quizzes {
		quiz := domain.Quiz{ID: raw.ID, Title: raw.Title}
		for _, q := range raw.Questions {
			quiz.Questions = append(quiz.Questions, domain.Question{
				ID:           q.ID,
				Prompt:       q.Prompt,
				Options:      q.Options,
				CorrectIndex: q.CorrectIndex,
			})
		}
		if err := quiz.Validate(); err != nil {
			return nil, fmt.Errorf("quiz %s: %w", quiz.ID, err)
		}
		quizzes[quiz.ID] = quiz
	}
	return NewStaticQuizLoader(quizzes), nil
}
