package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/examscore/internal/advisory"
	"github.com/pavelanni/examscore/internal/examfile"
	"github.com/pavelanni/examscore/internal/model"
	"github.com/pavelanni/examscore/internal/review"
	"github.com/pavelanni/examscore/internal/scoring"
	"github.com/pavelanni/examscore/internal/store"
)

const maxBodyBytes = 4 << 20

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	scorer   *scoring.Scorer
	reviews  *review.Service
	advisory *advisory.Service
	config   model.ServerConfig
}

// New creates a new Handler. A nil suggester disables AI suggestions.
func New(s *store.Store, suggester advisory.Suggester, cfg model.ServerConfig) (*Handler, error) {
	if s == nil {
		return nil, errors.New("store is required")
	}
	return &Handler{
		store:    s,
		scorer:   scoring.New(s),
		reviews:  review.NewService(s),
		advisory: advisory.NewService(s, suggester),
		config:   cfg,
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/exams", h.handleListExams)
	r.Put("/exams/{examID}", h.handlePutExam)
	r.Get("/exams/{examID}", h.handleGetExam)
	r.Post("/exams/{examID}/submissions", h.handleSubmit)
	r.Get("/exams/{examID}/results", h.handleListResults)
	r.Get("/results/{resultID}", h.handleGetResult)
	r.Get("/results/{resultID}/review", h.handleReview)
	r.Post("/results/{resultID}/suggestions", h.handleSuggest)
	r.Post("/results/{resultID}/overrides/{questionID}", h.handleOverride)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.ExamCount(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"exams":        count,
		"suggestions":  h.advisory.Enabled(),
		"prompt_style": h.config.PromptVariant,
	})
}

type examSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Questions   int    `json:"questions"`
	TotalPoints int    `json:"total_points"`
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.store.ListExams(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]examSummary, 0, len(exams))
	for _, e := range exams {
		out = append(out, examSummary{ID: e.ID, Title: e.Title, Questions: len(e.Questions), TotalPoints: e.TotalPoints()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handlePutExam(w http.ResponseWriter, r *http.Request) {
	examID := chi.URLParam(r, "examID")
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	name := "exam.json"
	if ct := r.Header.Get("Content-Type"); ct == "application/yaml" || ct == "application/x-yaml" {
		name = "exam.yaml"
	}
	exam, err := examfile.Parse(name, data)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if exam.ID != examID {
		writeErr(w, http.StatusBadRequest, fmt.Sprintf("exam id %q does not match path %q", exam.ID, examID))
		return
	}

	if err := h.store.PutExam(r.Context(), exam); err != nil {
		h.fail(w, r, err)
		return
	}
	slog.Info("exam stored", "exam", exam.ID, "questions", len(exam.Questions))
	writeJSON(w, http.StatusOK, examSummary{
		ID: exam.ID, Title: exam.Title, Questions: len(exam.Questions), TotalPoints: exam.TotalPoints(),
	})
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	exam, err := h.store.GetExam(r.Context(), chi.URLParam(r, "examID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exam.WithoutAnswerKeys())
}

type submissionRequest struct {
	ExamineeID string                 `json:"examinee_id"`
	Answers    model.SubmittedAnswers `json:"answers"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid submission: "+err.Error())
		return
	}

	result, err := h.scorer.ScoreSubmission(r.Context(), chi.URLParam(r, "examID"), req.ExamineeID, req.Answers)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	examID := chi.URLParam(r, "examID")
	if _, err := h.store.GetExam(r.Context(), examID); err != nil {
		h.fail(w, r, err)
		return
	}
	results, err := h.store.ListResults(r.Context(), examID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if results == nil {
		results = []model.ExamResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) handleGetResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.GetResult(r.Context(), chi.URLParam(r, "resultID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	rv, err := h.reviews.ReviewResult(r.Context(), chi.URLParam(r, "resultID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (h *Handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	added, err := h.advisory.Suggest(r.Context(), chi.URLParam(r, "resultID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if added == nil {
		added = []model.Annotation{}
	}
	writeJSON(w, http.StatusOK, added)
}

type overrideRequest struct {
	Score   *float64 `json:"score"`
	Comment string   `json:"comment"`
}

func (h *Handler) handleOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid override: "+err.Error())
		return
	}
	if req.Score == nil {
		writeErr(w, http.StatusBadRequest, "score is required")
		return
	}

	a, err := h.advisory.Override(r.Context(),
		chi.URLParam(r, "resultID"), chi.URLParam(r, "questionID"), *req.Score, req.Comment)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}
