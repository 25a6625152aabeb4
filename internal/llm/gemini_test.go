package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiServer(t *testing.T, status int, body any, seen *map[string]any, path *string) *GeminiProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if path != nil {
			*path = r.URL.Path
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	p, err := NewGeminiProvider(context.Background(), GeminiConfig{APIKey: "g-key", Model: "gemini-flash"}, srv.URL)
	require.NoError(t, err)
	return p
}

func geminiReply(text, finish string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}},
			"finishReason": finish,
		}},
		"usageMetadata": map[string]any{"promptTokenCount": 21, "candidatesTokenCount": 9, "totalTokenCount": 30},
	}
}

func TestGeminiProvider_Generate(t *testing.T) {
	var seen map[string]any
	var path string
	p := geminiServer(t, http.StatusOK, geminiReply(`{"tip":"Label allergens"}`, "STOP"), &seen, &path)

	resp, err := p.Generate(context.Background(), Request{
		System:      "coach",
		Prompt:      "advise",
		Schema:      tipSchema,
		MaxTokens:   200,
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tip":"Label allergens"}`, string(resp.Content))
	assert.Equal(t, Usage{InputTokens: 21, OutputTokens: 9}, resp.Usage)
	assert.Equal(t, "gemini-2.0-flash", resp.Model)

	assert.True(t, strings.HasSuffix(path, "models/gemini-2.0-flash:generateContent"), path)
	gen, ok := seen["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig missing: %v", seen)
	assert.Equal(t, "application/json", gen["responseMimeType"])
	assert.Contains(t, gen, "responseJsonSchema")
	assert.Contains(t, seen, "systemInstruction")
}

func TestGeminiProvider_Truncated(t *testing.T) {
	p := geminiServer(t, http.StatusOK, geminiReply(`{"tip":"La`, "MAX_TOKENS"), nil, nil)
	_, err := p.Generate(context.Background(), Request{Prompt: "x", Schema: tipSchema, MaxTokens: 4})
	assert.Equal(t, KindTruncated, KindOf(err))
}

func TestGeminiProvider_RateLimited(t *testing.T) {
	p := geminiServer(t, http.StatusTooManyRequests, map[string]any{
		"error": map[string]any{"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"},
	}, nil, nil)
	_, err := p.Generate(context.Background(), Request{Prompt: "x"})
	assert.Equal(t, KindRateLimited, KindOf(err))
}

func TestNewGeminiProvider_RequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), GeminiConfig{}, "")
	assert.Error(t, err)
}
