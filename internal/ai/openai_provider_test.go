package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

func makeTestServer(t *testing.T, statusCode int, body string, header map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		for k, v := range header {
			w.Header().Set(k, v)
		}
		w.WriteHeader(statusCode)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func choice(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]string{"content": content}}},
	})
	return string(b)
}

func TestComplete_Success(t *testing.T) {
	srv := makeTestServer(t, http.StatusOK, choice(`{"scores":{}}`), nil)

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", srv.Client())
	got, err := provider.Complete(context.Background(), "score this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"scores":{}}` {
		t.Errorf("got %q, want json string", got)
	}
}

func TestComplete_HTTPError(t *testing.T) {
	srv := makeTestServer(t, http.StatusInternalServerError, `{"error":"server error"}`, nil)

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", srv.Client())
	_, err := provider.Complete(context.Background(), "score this")
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 500 {
		t.Fatalf("expected HTTPError 500, got %v", err)
	}
}

func TestComplete_RateLimitedCarriesRetryAfter(t *testing.T) {
	srv := makeTestServer(t, http.StatusTooManyRequests, `{"error":"rate limited"}`,
		map[string]string{"Retry-After": "7"})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", srv.Client())
	_, err := provider.Complete(context.Background(), "score this")
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != 429 || httpErr.RetryAfter != 7*time.Second {
		t.Errorf("got status %d retry-after %v", httpErr.StatusCode, httpErr.RetryAfter)
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := makeTestServer(t, http.StatusOK, `{"choices":[]}`, nil)

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", srv.Client())
	_, err := provider.Complete(context.Background(), "score this")
	if err == nil {
		t.Fatal("expected error when LLM returns no choices")
	}
}

func TestComplete_ErrorObject(t *testing.T) {
	srv := makeTestServer(t, http.StatusOK, `{"error":{"message":"quota","type":"insufficient_quota"}}`, nil)

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", srv.Client())
	if _, err := provider.Complete(context.Background(), "score this"); err == nil {
		t.Fatal("expected error for error object in body")
	}
}

func TestComplete_SendsAuthAndStructuredOutput(t *testing.T) {
	var (
		gotAuth string
		gotPath string
		gotReq  chatRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(choice("{}")))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL+"/v1/", "my-secret-key", "gpt-4o-mini", srv.Client())
	if _, err := provider.Complete(context.Background(), "score this"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer my-secret-key" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer my-secret-key")
	}
	if gotPath != "/v1/chat/completions" {
		t.Errorf("path = %q, want /v1/chat/completions", gotPath)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if gotReq.ResponseFormat.Type != "json_schema" {
		t.Errorf("response_format.type = %q, want json_schema", gotReq.ResponseFormat.Type)
	}
	if gotReq.ResponseFormat.JSONSchema.Name != "job_score" || !gotReq.ResponseFormat.JSONSchema.Strict {
		t.Errorf("json_schema = %+v, want strict job_score", gotReq.ResponseFormat.JSONSchema)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[1].Content != "score this" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}
