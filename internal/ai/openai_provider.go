package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
	"github.com/DaveOps97/SmartJobHunter/internal/retry"
)

func intScore() map[string]any {
	return map[string]any{"type": "integer", "minimum": 0, "maximum": 100}
}

func stringList() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

// jobScoreSchema is the JSON Schema enforced server-side via structured outputs.
// It matches the response format described in prompts/job_scoring.md.
var jobScoreSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"scores": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"competence": intScore(),
				"company":    intScore(),
				"salary":     intScore(),
				"location":   intScore(),
				"growth":     intScore(),
			},
			"required": []string{"competence", "company", "salary", "location", "growth"},
		},
		"rationale":        map[string]any{"type": "string"},
		"matched_skills":   stringList(),
		"positive_signals": stringList(),
		"negative_signals": stringList(),
	},
	"required": []string{"scores", "rationale", "matched_skills", "positive_signals", "negative_signals"},
}

// OpenAIProvider calls an OpenAI-compatible /chat/completions endpoint with
// structured outputs.
type OpenAIProvider struct {
	client *resty.Client
	apiKey string
	model  string
}

// NewOpenAIProvider creates a provider targeting baseURL (e.g.
// https://api.openai.com/v1 or an OpenRouter endpoint).
func NewOpenAIProvider(baseURL, apiKey, model string, httpClient *http.Client) *OpenAIProvider {
	client := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json")
	return &OpenAIProvider{
		client: client,
		apiKey: apiKey,
		model:  model,
	}
}

// chatRequest mirrors the /chat/completions request body.
type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    int            `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string         `json:"type"`
	JSONSchema jsonSchemaSpec `json:"json_schema"`
}

type jsonSchemaSpec struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// chatResponse mirrors the relevant fields of the response.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends prompt and returns the JSON string produced under
// jobScoreSchema.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
		MaxTokens:   1024,
		ResponseFormat: responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchemaSpec{
				Name:   "job_score",
				Strict: true,
				Schema: jobScoreSchema,
			},
		},
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey).
		SetBody(reqBody).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", &model.HTTPError{
			StatusCode: resp.StatusCode(),
			RetryAfter: retry.ParseRetryAfter(resp.Header().Get("Retry-After")),
			Err:        fmt.Errorf("llm returned: %s", truncate(string(resp.Body()), 300)),
		}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(resp.Body(), &chatResp); err != nil {
		return "", fmt.Errorf("parse llm response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("llm error (%s): %s", chatResp.Error.Type, chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
