package testdef

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDef(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeDef(t, `
id: math-7a
title: Matematika nazorat ishi
subject: Matematika
grade_level: "7"
questions:
  - order: 1
    text: "2+2=?"
    points: 1
    answers:
      - text: A
      - text: B
        correct: true
  - order: 2
    text: "3*3=?"
    points: 1
    answers:
      - text: A
        correct: true
      - text: B
`)

	test, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "math-7a", test.ID)
	assert.Equal(t, "Matematika nazorat ishi", test.Title)
	require.Len(t, test.Questions, 2)
	require.NotNil(t, test.Questions[0].CorrectAnswer())
	assert.Equal(t, "B", test.Questions[0].CorrectAnswer().Text)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeDef(t, "id: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RequiresID(t *testing.T) {
	path := writeDef(t, `
title: No ID
questions:
  - order: 1
    answers:
      - text: A
        correct: true
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id is required")
}

func TestLoad_RejectsDuplicateOrder(t *testing.T) {
	path := writeDef(t, `
id: dup
questions:
  - order: 1
    answers:
      - text: A
        correct: true
  - order: 1
    answers:
      - text: B
        correct: true
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate question order")
}

func TestLoad_RejectsNoQuestions(t *testing.T) {
	path := writeDef(t, "id: empty\nquestions: []\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ToleratesMissingKey(t *testing.T) {
	path := writeDef(t, `
id: nokey
questions:
  - order: 1
    answers:
      - text: A
      - text: B
`)
	test, err := Load(path)
	require.NoError(t, err)
	assert.Nil(t, test.Questions[0].CorrectAnswer())
}
