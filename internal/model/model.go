package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// QuestionType identifies how a question is answered and scored.
type QuestionType string

const (
	TypeMultipleChoice         QuestionType = "multiple_choice"
	TypeMultipleSelect         QuestionType = "multiple_select"
	TypeTrueFalse              QuestionType = "true_false"
	TypeTrueFalseJustification QuestionType = "true_false_justification"
	TypeShortAnswer            QuestionType = "short_answer"
	TypeEssay                  QuestionType = "essay"
	TypeOrdering               QuestionType = "ordering"
	TypeMatching               QuestionType = "matching"
)

var knownTypes = map[QuestionType]bool{
	TypeMultipleChoice:         true,
	TypeMultipleSelect:         true,
	TypeTrueFalse:              true,
	TypeTrueFalseJustification: true,
	TypeShortAnswer:            true,
	TypeEssay:                  true,
	TypeOrdering:               true,
	TypeMatching:               true,
}

// IsValid reports whether t is one of the known question types.
func (t QuestionType) IsValid() bool {
	return knownTypes[t]
}

// NeedsJudgment reports whether answers to this type benefit from a human or
// AI grading suggestion on top of automatic scoring.
func (t QuestionType) NeedsJudgment() bool {
	return t == TypeEssay || t == TypeShortAnswer
}

// Question represents an exam question.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Text          string       `json:"text,omitempty"`
	Options       []string     `json:"options,omitempty"`
	Prompts       []string     `json:"prompts,omitempty"`
	CorrectAnswer Answer       `json:"correct_answer,omitzero"`
	Points        int          `json:"points"`
	Rubric        string       `json:"rubric,omitempty"`
}

// Exam is an ordered list of questions under one identifier.
type Exam struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"created_at,omitzero"`
}

// TotalPoints returns the sum of all question points.
func (e Exam) TotalPoints() int {
	total := 0
	for _, q := range e.Questions {
		total += q.Points
	}
	return total
}

// Question returns the question with the given ID.
func (e Exam) Question(id string) (Question, bool) {
	for _, q := range e.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// SameQuestions reports whether both exams define the same questions with
// the same keys, points and rubrics. Titles are ignored.
func (e Exam) SameQuestions(o Exam) bool {
	a, errA := json.Marshal(e.Questions)
	b, errB := json.Marshal(o.Questions)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// WithoutAnswerKeys returns a copy of the exam safe to show to examinees.
func (e Exam) WithoutAnswerKeys() Exam {
	out := e
	out.Questions = make([]Question, len(e.Questions))
	for i, q := range e.Questions {
		q.CorrectAnswer = NoAnswer()
		q.Rubric = ""
		out.Questions[i] = q
	}
	return out
}

// SubmittedAnswers maps question IDs to the examinee's answers.
type SubmittedAnswers map[string]Answer

// Clone returns a deep copy of the answers.
func (s SubmittedAnswers) Clone() SubmittedAnswers {
	if s == nil {
		return SubmittedAnswers{}
	}
	out := make(SubmittedAnswers, len(s))
	for id, a := range s {
		out[id] = a.Clone()
	}
	return out
}

// ExamResult is the record persisted once per submission.
type ExamResult struct {
	ID          string           `json:"id"`
	ExamID      string           `json:"exam_id"`
	ExamineeID  string           `json:"examinee_id"`
	Score       int              `json:"score"`
	TotalPoints int              `json:"total_points"`
	Answers     SubmittedAnswers `json:"answers"`
	SubmittedAt time.Time        `json:"submitted_at"`
}

// AnnotationSource tells who produced an annotation.
type AnnotationSource string

const (
	SourceAI      AnnotationSource = "ai"
	SourceTeacher AnnotationSource = "teacher"
)

// Annotation is an advisory grading note attached alongside a result.
// It never changes ExamResult.Score.
type Annotation struct {
	ID             string           `json:"id"`
	ResultID       string           `json:"result_id"`
	QuestionID     string           `json:"question_id"`
	Source         AnnotationSource `json:"source"`
	SuggestedScore float64          `json:"suggested_score"`
	Feedback       string           `json:"feedback"`
	CreatedAt      time.Time        `json:"created_at"`
}

// QuestionReview is the read-side view of one question in a result.
type QuestionReview struct {
	QuestionID  string       `json:"question_id"`
	Type        QuestionType `json:"type"`
	Text        string       `json:"text,omitempty"`
	Points      int          `json:"points"`
	Awarded     int          `json:"awarded"`
	Correct     bool         `json:"correct"`
	Answer      string       `json:"answer"`
	Expected    string       `json:"expected"`
	Note        string       `json:"note,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// ResultReview combines a result with its per-question projection.
type ResultReview struct {
	ResultID    string           `json:"result_id"`
	ExamID      string           `json:"exam_id"`
	ExamTitle   string           `json:"exam_title"`
	ExamineeID  string           `json:"examinee_id"`
	Score       int              `json:"score"`
	TotalPoints int              `json:"total_points"`
	Summary     string           `json:"summary"`
	SubmittedAt time.Time        `json:"submitted_at"`
	Questions   []QuestionReview `json:"questions"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	Lang          string   // UI language for rendered answers
	CORSOrigins   []string // empty disables CORS headers
	PromptVariant string   // Grading prompt variant (strict, standard, lenient)
}
