package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Question is a multiple-choice question with exactly one correct option.
type Question struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"` // zero-based into Options
}

// Quiz is an ordered collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// CorrectIndices returns the answer key in question order.
func (q Quiz) CorrectIndices() []int {
	key := make([]int, len(q.Questions))
	for i, question := range q.Questions {
		key[i] = question.CorrectIndex
	}
	return key
}

// Validate checks that every question's correct index points at one of its
// options and that question IDs are unique.
func (q Quiz) Validate() error {
	seen := make(map[string]struct{}, len(q.Questions))
	for i, question := range q.Questions {
		if question.CorrectIndex < 0 || question.CorrectIndex >= len(question.Options) {
			return fmt.Errorf("%w: question %d correct index %d outside %d options",
				ErrInvalidQuiz, i, question.CorrectIndex, len(question.Options))
		}
		if question.ID == "" {
			continue
		}
		if _, dup := seen[question.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalidQuiz, question.ID)
		}
		seen[question.ID] = struct{}{}
	}
	return nil
}

// Answer is one submitted answer as it arrives from clients. QuestionRef is
// the question position marker (pergunta_id); Value is either an uppercase
// letter or an integer in string form.
type Answer struct {
	QuestionRef int    `json:"pergunta_id"`
	Value       string `json:"resposta"`
}

// Grade is the result of scoring a submission.
type Grade struct {
	Correct     int     `json:"correct"`
	Total       int     `json:"total"`
	ScaledScore float64 `json:"scaledScore"` // 0..20
}

// Rounded returns the scaled score rounded half away from zero to two decimals.
func (g Grade) Rounded() float64 {
	return decimal.NewFromFloat(g.ScaledScore).Round(2).InexactFloat64()
}

// MarshalJSON emits the display form with the score rounded to two decimals.
func (g Grade) MarshalJSON() ([]byte, error) {
	type plain Grade
	out := plain(g)
	out.ScaledScore = g.Rounded()
	return json.Marshal(out)
}

// Submission is a learner's attempt at a quiz, with its derived grade.
type Submission struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	UserID      string    `json:"userId"`
	Answers     []Answer  `json:"answers"`
	SubmittedAt time.Time `json:"submittedAt"`
	Attempt     int       `json:"attempt"`
	Grade       Grade     `json:"grade"`
}

// GradebookEntry is a learner's best graded attempt on a quiz.
type GradebookEntry struct {
	UserID       string    `json:"userId"`
	Attempts     int       `json:"attempts"`
	Best         Grade     `json:"best"`
	BestAttempt  int       `json:"bestAttempt"`
	LastGradedAt time.Time `json:"lastGradedAt"`
}

// Gradebook is the ordered, best-grade-first view of a quiz's submissions.
type Gradebook struct {
	QuizID    string           `json:"quizId"`
	Entries   []GradebookEntry `json:"entries"`
	UpdatedAt time.Time        `json:"updatedAt"`
}
