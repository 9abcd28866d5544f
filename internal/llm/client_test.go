package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestStripFences(t *testing.T) {
	t.Parallel()

	want := `{"name": "Jane"}`
	cases := []string{
		want,
		"```json\n{\"name\": \"Jane\"}\n```",
		"```\n{\"name\": \"Jane\"}\n```",
		"  ```json\n{\"name\": \"Jane\"}\n```  ",
	}
	for _, in := range cases {
		if got := StripFences(in); got != want {
			t.Fatalf("StripFences(%q) = %q, want %q", in, got, want)
		}
	}
}

func openAIServer(t *testing.T, content string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
			"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 48},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestExtractNormalizesOpenAIShape(t *testing.T) {
	t.Parallel()

	srv := openAIServer(t, "```json\n{\"name\": \"Jane Doe\"}\n```", nil)
	defer srv.Close()

	client := NewClient(ProviderOpenAI, "test-key", "test-model", srv.URL, NewRegistry(), nil)
	ext := client.Extract(context.Background(), KindCV, "cv text")

	if ext.Err != "" {
		t.Fatalf("unexpected error: %s", ext.Err)
	}
	if ext.Data["name"] != "Jane Doe" {
		t.Fatalf("fenced JSON not parsed: %+v", ext.Data)
	}
	if ext.PromptVersion == "" {
		t.Fatal("prompt version missing from extraction")
	}
	if ext.InputTokens != 120 || ext.OutputTokens != 48 {
		t.Fatalf("token usage not propagated: in=%d out=%d", ext.InputTokens, ext.OutputTokens)
	}
}

func TestExtractNormalizesAnthropicShape(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("x-api-key") == "" {
			http.Error(w, "missing key", http.StatusUnauthorized)
			return
		}
		resp := map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "{\"title\": "},
				{"type": "text", "text": "\"Platform Engineer\"}"},
			},
			"usage": map[string]any{"input_tokens": 200, "output_tokens": 30},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewClient(ProviderAnthropic, "test-key", "test-model", srv.URL, NewRegistry(), nil)
	ext := client.Extract(context.Background(), KindJob, "job text")

	if ext.Err != "" {
		t.Fatalf("unexpected error: %s", ext.Err)
	}
	if ext.Data["title"] != "Platform Engineer" {
		t.Fatalf("content blocks not joined: %+v", ext.Data)
	}
	if ext.InputTokens != 200 || ext.OutputTokens != 30 {
		t.Fatalf("token usage not propagated: in=%d out=%d", ext.InputTokens, ext.OutputTokens)
	}
}

func TestExtractNonJSONResponse(t *testing.T) {
	t.Parallel()

	srv := openAIServer(t, "I could not parse this document, sorry.", nil)
	defer srv.Close()

	client := NewClient(ProviderOpenAI, "test-key", "test-model", srv.URL, NewRegistry(), nil)
	ext := client.Extract(context.Background(), KindCV, "cv text")

	if ext.Err == "" {
		t.Fatal("expected a structured error for a non-JSON response")
	}
	if ext.Raw == "" {
		t.Fatal("raw response must be retained for diagnosis")
	}
	if ext.Data != nil {
		t.Fatalf("no data expected on parse failure, got %+v", ext.Data)
	}
}

func TestExtractRemoteFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "upstream overloaded"},
		})
	}))
	defer srv.Close()

	client := NewClient(ProviderOpenAI, "test-key", "test-model", srv.URL, NewRegistry(), nil)
	ext := client.Extract(context.Background(), KindCV, "cv text")

	if ext.Err == "" {
		t.Fatal("expected a structured error for a remote failure")
	}
}

type capturedUsage struct {
	operation    string
	model        string
	inputTokens  int
	outputTokens int
}

type fakeRecorder struct {
	records []capturedUsage
}

func (f *fakeRecorder) RecordUsage(_ context.Context, operation, model string, in, out int, _ time.Duration) {
	f.records = append(f.records, capturedUsage{operation, model, in, out})
}

func TestGenerateRecordsUsage(t *testing.T) {
	t.Parallel()

	srv := openAIServer(t, "{}", nil)
	defer srv.Close()

	rec := &fakeRecorder{}
	client := NewClient(ProviderOpenAI, "test-key", "test-model", srv.URL, NewRegistry(), rec)
	if _, err := client.Generate(context.Background(), "explain_match", "prompt"); err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if len(rec.records) != 1 {
		t.Fatalf("expected one usage record, got %d", len(rec.records))
	}
	got := rec.records[0]
	if got.operation != "explain_match" || got.model != "test-model" || got.inputTokens != 120 || got.outputTokens != 48 {
		t.Fatalf("unexpected usage record: %+v", got)
	}
}
