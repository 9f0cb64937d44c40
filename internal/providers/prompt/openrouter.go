package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const (
	openRouterDefaultBaseURL = "https://openrouter.ai/api/v1"
	openRouterDefaultModel   = "mistralai/mistral-nemo:free"
	openRouterDefaultTimeout = 15 * time.Second
)

const enhanceInstruction = "Enhance this product photography prompt to be more detailed and professional, focusing on lighting, composition and atmosphere. Keep the core idea but make it more descriptive. Answer only with the enhanced prompt, nothing else."

// OpenRouterOptions configures the OpenRouter-backed enhancer.
type OpenRouterOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	Referer    string
	Title      string
	HTTPClient *http.Client
	// OnFallback is invoked whenever the original prompt is returned
	// instead of an enhancement.
	OnFallback func(reason string, err error)
}

// OpenRouterEnhancer asks a chat model to expand the prompt. Any failure
// along the way falls back to the original prompt.
type OpenRouterEnhancer struct {
	apiKey     string
	model      string
	baseURL    string
	referer    string
	title      string
	client     *http.Client
	onFallback func(reason string, err error)
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenRouterEnhancer constructs the enhancer. An empty API key is
// allowed; every call will then pass the prompt through unchanged.
func NewOpenRouterEnhancer(opts OpenRouterOptions) *OpenRouterEnhancer {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = openRouterDefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = openRouterDefaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openRouterDefaultTimeout}
	}
	return &OpenRouterEnhancer{
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      model,
		baseURL:    baseURL,
		referer:    strings.TrimSpace(opts.Referer),
		title:      strings.TrimSpace(opts.Title),
		client:     client,
		onFallback: opts.OnFallback,
	}
}

// Enhance returns the rewritten prompt, or the original trimmed prompt when
// the provider is unavailable, errors out or answers with nothing usable.
func (o *OpenRouterEnhancer) Enhance(ctx context.Context, prompt string) string {
	original := strings.TrimSpace(prompt)
	if original == "" {
		return original
	}
	if o.apiKey == "" {
		return o.fallback(original, "missing_api_key", nil)
	}

	payload := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "user", Content: enhanceInstruction + "\n\n" + original},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return o.fallback(original, "encode_request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", &buf)
	if err != nil {
		return o.fallback(original, "build_request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	if o.referer != "" {
		httpReq.Header.Set("HTTP-Referer", o.referer)
	}
	if o.title != "" {
		httpReq.Header.Set("X-Title", o.title)
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return o.fallback(original, "http_request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return o.fallback(original, "http_status", nil)
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return o.fallback(original, "decode_response", err)
	}
	if len(out.Choices) == 0 {
		return o.fallback(original, "empty_choices", nil)
	}
	enhanced := strings.TrimSpace(out.Choices[0].Message.Content)
	if enhanced == "" {
		return o.fallback(original, "empty_response", nil)
	}
	return enhanced
}

func (o *OpenRouterEnhancer) fallback(original, reason string, err error) string {
	if o.onFallback != nil {
		o.onFallback(reason, err)
	}
	return original
}

var _ Enhancer = (*OpenRouterEnhancer)(nil)
