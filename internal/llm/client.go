package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

const (
	openAIBaseURL    = "https://api.openai.com/v1"
	anthropicBaseURL = "https://api.anthropic.com/v1"
)

// UsageRecorder receives token accounting for every completed inference
// call. Cost arithmetic happens outside the core.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, operation, model string, inputTokens, outputTokens int, elapsed time.Duration)
}

// Client submits prompts to a text-generation service. The two vendor
// response shapes (OpenAI single-text, Anthropic content blocks) are
// normalized to Generation.
type Client struct {
	provider   Provider
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	prompts    *Registry
	usage      UsageRecorder
}

type Generation struct {
	Text         string
	InputTokens  int
	OutputTokens int
	Elapsed      time.Duration
}

// Extraction is the outcome of a structured extraction call. Failures
// surface through Err rather than a Go error: the raw response is kept for
// diagnosis and the orchestrator records the whole struct on the run's log.
type Extraction struct {
	Data          map[string]any
	Raw           string
	PromptVersion string
	InputTokens   int
	OutputTokens  int
	Elapsed       time.Duration
	Err           string
}

// NewClient builds an inference client from configuration resolved once at
// process start. usage may be nil. baseURL overrides the provider default
// (gateways, tests).
func NewClient(provider Provider, apiKey, model, baseURL string, prompts *Registry, usage UsageRecorder) *Client {
	return &Client{
		provider:   provider,
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{},
		prompts:    prompts,
		usage:      usage,
	}
}

// Extract renders the versioned prompt for the document kind and parses
// the model's response as JSON, tolerating Markdown code fences.
func (c *Client) Extract(ctx context.Context, kind DocKind, docText string) Extraction {
	tmpl, ok := c.prompts.Lookup(kind)
	if !ok {
		return Extraction{Err: fmt.Sprintf("no prompt template for document kind %q", kind)}
	}

	gen, err := c.Generate(ctx, "extract_"+string(kind), tmpl.Render(docText))
	out := Extraction{
		Raw:           gen.Text,
		PromptVersion: tmpl.Version,
		InputTokens:   gen.InputTokens,
		OutputTokens:  gen.OutputTokens,
		Elapsed:       gen.Elapsed,
	}
	if err != nil {
		out.Err = err.Error()
		return out
	}

	cleaned := StripFences(gen.Text)
	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		out.Err = fmt.Sprintf("response is not valid JSON: %v", err)
		return out
	}
	out.Data = data
	return out
}

// Generate sends a prompt and returns the normalized response. The
// operation tag is passed through to the usage recorder.
func (c *Client) Generate(ctx context.Context, operation, prompt string) (Generation, error) {
	start := time.Now()

	var gen Generation
	var err error
	switch c.provider {
	case ProviderOpenAI:
		gen, err = c.callOpenAI(ctx, prompt)
	case ProviderAnthropic:
		gen, err = c.callAnthropic(ctx, prompt)
	default:
		return Generation{}, fmt.Errorf("unknown provider: %s", c.provider)
	}

	gen.Elapsed = time.Since(start)
	if err != nil {
		return gen, err
	}

	if c.usage != nil {
		c.usage.RecordUsage(ctx, operation, c.model, gen.InputTokens, gen.OutputTokens, gen.Elapsed)
	}
	return gen, nil
}

func (c *Client) callOpenAI(ctx context.Context, prompt string) (Generation, error) {
	base := c.baseURL
	if base == "" {
		base = openAIBaseURL
	}

	reqBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.1,
	}
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return Generation{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Generation{}, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Generation{}, fmt.Errorf("decode openai response: %w", err)
	}
	if result.Error.Message != "" {
		return Generation{}, fmt.Errorf("openai error: %s", result.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return Generation{}, fmt.Errorf("openai API error: %d", resp.StatusCode)
	}
	if len(result.Choices) == 0 {
		return Generation{}, fmt.Errorf("no response from openai")
	}

	return Generation{
		Text:         result.Choices[0].Message.Content,
		InputTokens:  result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
	}, nil
}

func (c *Client) callAnthropic(ctx context.Context, prompt string) (Generation, error) {
	base := c.baseURL
	if base == "" {
		base = anthropicBaseURL
	}

	reqBody := map[string]any{
		"model":      c.model,
		"max_tokens": 4096,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return Generation{}, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Generation{}, fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Generation{}, fmt.Errorf("decode anthropic response: %w", err)
	}
	if result.Error != nil {
		return Generation{}, fmt.Errorf("anthropic error: %s", result.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return Generation{}, fmt.Errorf("anthropic API error: %d", resp.StatusCode)
	}

	var sb strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return Generation{}, fmt.Errorf("no text content from anthropic")
	}

	return Generation{
		Text:         sb.String(),
		InputTokens:  result.Usage.InputTokens,
		OutputTokens: result.Usage.OutputTokens,
	}, nil
}

// StripFences removes a Markdown code fence wrapper, with or without a
// language tag, from a model response.
func StripFences(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}
