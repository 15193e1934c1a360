package advisory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/examscore/internal/llm"
	"github.com/pavelanni/examscore/internal/model"
	"github.com/pavelanni/examscore/internal/store"
)

type fakeSuggester struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeSuggester) SuggestGrade(_ context.Context, q model.Question, answer string) (llm.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, q.ID)
	if f.fail[q.ID] {
		return llm.Suggestion{}, errors.New("model overloaded")
	}
	return llm.Suggestion{Score: float64(q.Points) / 2, MaxPoints: q.Points, Feedback: "about half: " + answer}, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	exam := model.Exam{
		ID:    "go-101",
		Title: "Go 101",
		Questions: []model.Question{
			{ID: "tf", Type: model.TypeTrueFalse, CorrectAnswer: model.TextAnswer("True"), Points: 2},
			{ID: "sa", Type: model.TypeShortAnswer, CorrectAnswer: model.TextAnswer("goroutine"), Points: 4},
			{ID: "essay", Type: model.TypeEssay, CorrectAnswer: model.TextAnswer("channels block"), Points: 10},
			{ID: "essay2", Type: model.TypeEssay, CorrectAnswer: model.TextAnswer("select"), Points: 10},
		},
	}
	require.NoError(t, s.PutExam(ctx, exam))
	require.NoError(t, s.AppendResult(ctx, model.ExamResult{
		ID: "r1", ExamID: "go-101", ExamineeID: "alice", Score: 2, TotalPoints: 26,
		Answers: model.SubmittedAnswers{
			"tf":    model.TextAnswer("True"),
			"sa":    model.TextAnswer("green thread"),
			"essay": model.TextAnswer("unbuffered sends wait"),
			// essay2 unanswered
		},
		SubmittedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}))
}

func TestSuggestStoresAnnotations(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	sug := &fakeSuggester{}
	svc := NewService(s, sug)
	require.True(t, svc.Enabled())

	added, err := svc.Suggest(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sa", "essay"}, sug.calls, "only answered judgment questions are sent")
	require.Len(t, added, 2)

	stored, err := s.ListAnnotations(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, a := range stored {
		assert.Equal(t, model.SourceAI, a.Source)
	}

	r, err := s.GetResult(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Score, "suggestions never change the score")
}

func TestSuggestSkipsFailures(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	svc := NewService(s, &fakeSuggester{fail: map[string]bool{"sa": true}})

	added, err := svc.Suggest(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, "essay", added[0].QuestionID)
	assert.Equal(t, 5.0, added[0].SuggestedScore)
}

func TestSuggestDisabled(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	svc := NewService(s, nil)
	assert.False(t, svc.Enabled())

	_, err := svc.Suggest(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestSuggestUnknownResult(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(s, &fakeSuggester{})
	_, err := svc.Suggest(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrResultNotFound)
}

func TestOverride(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	svc := NewService(s, nil)
	ctx := context.Background()

	tests := []struct {
		name       string
		resultID   string
		questionID string
		score      float64
		wantErr    error
	}{
		{"valid", "r1", "essay", 7, nil},
		{"full marks", "r1", "sa", 4, nil},
		{"zero", "r1", "tf", 0, nil},
		{"too high", "r1", "sa", 4.5, ErrInvalidOverride},
		{"negative", "r1", "essay", -1, ErrInvalidOverride},
		{"unknown question", "r1", "nope", 1, ErrInvalidOverride},
		{"unknown result", "missing", "essay", 1, model.ErrResultNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := svc.Override(ctx, tt.resultID, tt.questionID, tt.score, "checked by hand")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.SourceTeacher, a.Source)
			assert.Equal(t, tt.score, a.SuggestedScore)
			assert.NotEmpty(t, a.ID)
		})
	}

	stored, err := s.ListAnnotations(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	r, err := s.GetResult(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Score, "overrides never change the score")
}

func TestSuggestRepeated(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	// A teacher override does not count as a suggestion.
	_, err := NewService(s, nil).Override(ctx, "r1", "essay", 8, "good")
	require.NoError(t, err)

	added, err := NewService(s, &fakeSuggester{fail: map[string]bool{"sa": true}}).Suggest(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, "essay", added[0].QuestionID)

	// Only the question that failed before is retried.
	sug := &fakeSuggester{}
	added, err = NewService(s, sug).Suggest(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sa"}, sug.calls)
	require.Len(t, added, 1)
	assert.Equal(t, "sa", added[0].QuestionID)

	added, err = NewService(s, sug).Suggest(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, added)

	stored, err := s.ListAnnotations(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}
