package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pint-quiz-service/internal/config"
	"pint-quiz-service/internal/scoring"
)

const quizDoc = `
quizzes:
  - id: quiz-1
    questions:
      - {id: q1, prompt: one, options: [a, b, c], correctIndex: 0}
      - {id: q2, prompt: two, options: [a, b, c], correctIndex: 0}
      - {id: q3, prompt: three, options: [a, b, c], correctIndex: 0}
`

func TestGradeCommand(t *testing.T) {
	dir := t.TempDir()
	quizzes := filepath.Join(dir, "quizzes.yaml")
	require.NoError(t, os.WriteFile(quizzes, []byte(quizDoc), 0o600))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(bytes.NewBufferString(`[{"resposta":"B","pergunta_id":0},{"resposta":"A","pergunta_id":1},{"resposta":"A","pergunta_id":2}]`))
	cmd.SetArgs([]string{"grade", "--quizzes", quizzes, "--quiz", "quiz-1"})
	require.NoError(t, cmd.Execute())

	var grade map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &grade))
	assert.Equal(t, 2.0, grade["correct"])
	assert.Equal(t, 3.0, grade["total"])
	assert.Equal(t, 13.33, grade["scaledScore"])
}

func TestGradeCommandRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	quizzes := filepath.Join(dir, "quizzes.yaml")
	require.NoError(t, os.WriteFile(quizzes, []byte(quizDoc), 0o600))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(bytes.NewBufferString(`[{"resposta":"maybe","pergunta_id":0}]`))
	cmd.SetArgs([]string{"grade", "--quizzes", quizzes, "--quiz", "quiz-1"})
	assert.ErrorIs(t, cmd.Execute(), scoring.ErrMalformedSubmission)
}

func TestRuntimeWithQuizFileExportsGradebook(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	quizzes := filepath.Join(dir, "quizzes.yaml")
	require.NoError(t, os.WriteFile(quizzes, []byte(quizDoc), 0o600))

	cfg := config.Config{}
	cfg.Quiz.File = quizzes
	rt, err := newRuntime(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	answers, err := scoring.DecodeAnswers([]byte(`[{"resposta":"A","pergunta_id":0},{"resposta":"A","pergunta_id":1},{"resposta":"A","pergunta_id":2}]`))
	require.NoError(t, err)
	_, err = rt.service.Submit(ctx, "quiz-1", "u1", answers)
	require.NoError(t, err)

	report, err := rt.service.Regrade(ctx, "quiz-1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Empty(t, report.Changed)

	quiz, subs, gb, err := rt.service.ExportData(ctx, "quiz-1")
	require.NoError(t, err)
	out := filepath.Join(dir, "gb.xlsx")
	f, err := os.Create(out)
	require.NoError(t, err)
	require.NoError(t, writeGradebookFile(f, quiz, subs, gb))

	book, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Gradebook")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRuntimeRequiresQuizSource(t *testing.T) {
	_, err := newRuntime(context.Background(), config.Config{}, zap.NewNop())
	assert.Error(t, err)
}
