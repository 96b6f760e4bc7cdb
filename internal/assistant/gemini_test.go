package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donorhub/internal/domain"
)

func geminiFixture(t *testing.T, status int, text string) (*httptest.Server, *http.Request) {
	t.Helper()
	var captured http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": text}},
				},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestGeminiCompleterRequiresKey(t *testing.T) {
	_, err := NewGeminiCompleter(GeminiOptions{})
	assert.Error(t, err)
}

func TestGeminiCompleterReturnsCandidateText(t *testing.T) {
	srv, captured := geminiFixture(t, http.StatusOK, "  Three donors match.  ")

	completer, err := NewGeminiCompleter(GeminiOptions{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	answer, err := completer.Complete(context.Background(), "who matches?")
	require.NoError(t, err)
	assert.Equal(t, "Three donors match.", answer)

	assert.Equal(t, "/models/gemini-1.5-flash:generateContent", captured.URL.Path)
	assert.Equal(t, "test-key", captured.Header.Get("x-goog-api-key"))
	assert.Equal(t, "application/json", captured.Header.Get("Content-Type"))
}

func TestGeminiCompleterFallsBackOnServerError(t *testing.T) {
	srv, _ := geminiFixture(t, http.StatusInternalServerError, "")

	completer, err := NewGeminiCompleter(GeminiOptions{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		Fallback:   NewStaticCompleter(),
	})
	require.NoError(t, err)

	answer, err := completer.Complete(context.Background(), "anything")
	require.NoError(t, err)
	assert.Contains(t, answer, "no donors yet")
}

func TestGeminiCompleterErrorWithoutFallback(t *testing.T) {
	srv, _ := geminiFixture(t, http.StatusTooManyRequests, "")

	completer, err := NewGeminiCompleter(GeminiOptions{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	_, err = completer.Complete(context.Background(), "anything")
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.Contains(t, err.Error(), "status 429")
}

func TestGeminiCompleterEmptyCandidateUsesFallback(t *testing.T) {
	srv, _ := geminiFixture(t, http.StatusOK, "   ")

	completer, err := NewGeminiCompleter(GeminiOptions{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		Fallback:   NewStaticCompleter(),
	})
	require.NoError(t, err)

	answer, err := completer.Complete(context.Background(), "anything")
	require.NoError(t, err)
	assert.Contains(t, answer, "no donors yet")
}
