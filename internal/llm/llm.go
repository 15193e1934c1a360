package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/pavelanni/examscore/internal/llm/prompts"
	"github.com/pavelanni/examscore/internal/model"

	"github.com/santhosh-tekuri/jsonschema/v6"
	openai "github.com/sashabaranov/go-openai"
)

// Suggestion holds the LLM's advisory assessment of a single answer.
type Suggestion struct {
	Score     float64 `json:"score"`
	MaxPoints int     `json:"max_points"`
	Feedback  string  `json:"feedback"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api     *openai.Client
	model   string
	variant prompts.PromptVariant
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName, variant string) (*Client, error) {
	if variant == "" {
		variant = string(prompts.PromptStandard)
	}
	if !prompts.IsValidVariant(variant) {
		return nil, fmt.Errorf("invalid prompt variant %q", variant)
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		variant: prompts.PromptVariant(variant),
	}, nil
}

// Ping checks that the API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM API ping: %w", err)
	}
	return nil
}

// SuggestGrade asks the LLM for an advisory score of answer to q.
func (c *Client) SuggestGrade(ctx context.Context, q model.Question, answer string) (Suggestion, error) {
	systemPrompt, err := prompts.BuildGradePrompt(c.variant, q, answer)
	if err != nil {
		return Suggestion{}, fmt.Errorf("build prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return Suggestion{}, fmt.Errorf("LLM grading API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Suggestion{}, fmt.Errorf("LLM returned no choices for grading")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "question", q.ID, "raw", raw)
	return parseSuggestion(raw, q.Points)
}

const suggestionSchema = `{
	"type": "object",
	"required": ["score", "feedback"],
	"properties": {
		"score": {"type": "number"},
		"feedback": {"type": "string"}
	}
}`

var (
	schemaOnce     sync.Once
	schemaErr      error
	compiledSchema *jsonschema.Schema
)

func responseSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(suggestionSchema), &def); err != nil {
			schemaErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://grade_suggestion.json"
		if err := c.AddResource(url, def); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(url)
	})
	return compiledSchema, schemaErr
}

// parseSuggestion validates the raw completion and clamps the score to
// [0, maxPoints].
func parseSuggestion(raw string, maxPoints int) (Suggestion, error) {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Suggestion{}, fmt.Errorf("parse grading response: %w (raw: %s)", err, raw)
	}
	schema, err := responseSchema()
	if err != nil {
		return Suggestion{}, fmt.Errorf("compile response schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return Suggestion{}, fmt.Errorf("grading response failed validation: %w (raw: %s)", err, raw)
	}

	var s Suggestion
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Suggestion{}, fmt.Errorf("decode grading response: %w", err)
	}
	s.MaxPoints = maxPoints
	s.Score = math.Min(math.Max(s.Score, 0), float64(maxPoints))
	return s, nil
}
