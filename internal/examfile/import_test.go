package examfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/examscore/internal/model"
)

type memStore struct {
	exams   map[string]model.Exam
	hashes  map[string]string
	results map[string]int
	puts    int
}

func newMemStore() *memStore {
	return &memStore{exams: map[string]model.Exam{}, hashes: map[string]string{}, results: map[string]int{}}
}

func (m *memStore) SaveExam(_ context.Context, e model.Exam, force bool) error {
	if old, ok := m.exams[e.ID]; ok && !force && m.results[e.ID] > 0 && !old.SameQuestions(e) {
		return model.ErrExamInUse
	}
	m.exams[e.ID] = e
	m.puts++
	return nil
}

func (m *memStore) GetImportedFileHash(_ context.Context, path string) (string, error) {
	return m.hashes[path], nil
}

func (m *memStore) SetImportedFileHash(_ context.Context, path, sha string) error {
	m.hashes[path] = sha
	return nil
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "web.yaml")
	jsonPath := filepath.Join(dir, "algo.json")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlExam), 0o644))
	require.NoError(t, os.WriteFile(jsonPath, []byte(jsonExam), 0o644))

	s := newMemStore()
	n, err := Import(ctx, s, []string{yamlPath, jsonPath}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, s.exams, "web-101")
	assert.Contains(t, s.exams, "algo")

	// Unchanged files are skipped.
	n, err = Import(ctx, s, []string{yamlPath, jsonPath}, false)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 2, s.puts)

	// Without results a changed file replaces the exam.
	changed := strings.Replace(yamlExam, "title: Web Basics", "title: Web Basics II", 1)
	require.NoError(t, os.WriteFile(yamlPath, []byte(changed), 0o644))
	n, err = Import(ctx, s, []string{yamlPath}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Web Basics II", s.exams["web-101"].Title)
}

func TestImportKeepsExamWithResults(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "web.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlExam), 0o644))

	s := newMemStore()
	_, err := Import(ctx, s, []string{path}, false)
	require.NoError(t, err)
	s.results["web-101"] = 1

	// A title edit keeps the questions, so it still applies.
	retitled := strings.Replace(yamlExam, "title: Web Basics", "title: Web Basics II", 1)
	require.NoError(t, os.WriteFile(path, []byte(retitled), 0o644))
	n, err := Import(ctx, s, []string{path}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// The same exam ID from another path with a new key is refused.
	rekeyed := strings.Replace(yamlExam, `correct_answer: "False"`, `correct_answer: "True"`, 1)
	other := filepath.Join(dir, "web-copy.yaml")
	require.NoError(t, os.WriteFile(other, []byte(rekeyed), 0o644))
	n, err = Import(ctx, s, []string{other}, false)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	key, _ := s.exams["web-101"].Questions[0].CorrectAnswer.AsText()
	assert.Equal(t, "False", key)
	assert.NotContains(t, s.hashes, other)

	n, err = Import(ctx, s, []string{other}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	key, _ = s.exams["web-101"].Questions[0].CorrectAnswer.AsText()
	assert.Equal(t, "True", key)
	assert.Contains(t, s.hashes, other)
}

func TestImportInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"e","questions":[]}`), 0o644))

	s := newMemStore()
	_, err := Import(context.Background(), s, []string{path}, false)
	assert.ErrorIs(t, err, model.ErrInvalidExam)
	assert.Empty(t, s.exams)
	assert.Empty(t, s.hashes)
}
