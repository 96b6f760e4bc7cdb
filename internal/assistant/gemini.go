package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"donorhub/internal/domain"
)

const geminiDefaultTimeout = 15 * time.Second

// GeminiOptions configures the hosted provider.
type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Fallback   Completer
}

// GeminiCompleter calls the Gemini generateContent API. Any failure
// falls through to the optional fallback completer; without one the
// error surfaces as domain.ErrProviderFailure.
type GeminiCompleter struct {
	apiKey   string
	model    string
	baseURL  string
	client   *http.Client
	fallback Completer
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature    float64 `json:"temperature,omitempty"`
	CandidateCount int     `json:"candidateCount,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func NewGeminiCompleter(opts GeminiOptions) (*GeminiCompleter, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: geminiDefaultTimeout}
	}
	return &GeminiCompleter{
		apiKey:   opts.APIKey,
		model:    model,
		baseURL:  baseURL,
		client:   client,
		fallback: opts.Fallback,
	}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:    0.2,
			CandidateCount: 1,
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return g.useFallback(ctx, prompt, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), &buf)
	if err != nil {
		return g.useFallback(ctx, prompt, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return g.useFallback(ctx, prompt, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return g.useFallback(ctx, prompt, fmt.Errorf("status %d", resp.StatusCode))
	}
	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return g.useFallback(ctx, prompt, err)
	}
	text := extractText(out)
	if text == "" {
		return g.useFallback(ctx, prompt, errors.New("empty completion"))
	}
	return text, nil
}

func (g *GeminiCompleter) useFallback(ctx context.Context, prompt string, cause error) (string, error) {
	if g.fallback != nil {
		return g.fallback.Complete(ctx, prompt)
	}
	return "", fmt.Errorf("%w: gemini: %v", domain.ErrProviderFailure, cause)
}

func (g *GeminiCompleter) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
}

func extractText(resp geminiResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if text := strings.TrimSpace(part.Text); text != "" {
				return text
			}
		}
	}
	return ""
}

var _ Completer = (*GeminiCompleter)(nil)
