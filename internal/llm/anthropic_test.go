package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anthropicServer(t *testing.T, status int, body map[string]any, seen *map[string]any) *AnthropicProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key", Model: "claude-haiku"}, option.WithBaseURL(srv.URL))
	require.NoError(t, err)
	return p
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-haiku-4-5-20251001",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func TestAnthropicProvider_Generate(t *testing.T) {
	var seen map[string]any
	p := anthropicServer(t, http.StatusOK, anthropicMessage(`{"tip":"Review allergens"}`, "end_turn"), &seen)

	resp, err := p.Generate(context.Background(), Request{
		System:      "You are a food hygiene study coach.",
		Prompt:      "Summarise my progress.",
		Schema:      tipSchema,
		MaxTokens:   256,
		Temperature: 0.4,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tip":"Review allergens"}`, string(resp.Content))
	assert.Equal(t, Usage{InputTokens: 50, OutputTokens: 30}, resp.Usage)
	assert.Equal(t, "claude-haiku-4-5-20251001", resp.Model)
	assert.False(t, resp.Truncated)

	assert.Equal(t, "claude-haiku-4-5-20251001", seen["model"])
	assert.EqualValues(t, 256, seen["max_tokens"])
	assert.Contains(t, seen, "system")
	assert.Contains(t, seen, "output_config")
}

func TestAnthropicProvider_Truncated(t *testing.T) {
	p := anthropicServer(t, http.StatusOK, anthropicMessage(`{"tip":"Rev`, "max_tokens"), nil)
	_, err := p.Generate(context.Background(), Request{Prompt: "x", Schema: tipSchema, MaxTokens: 8})
	assert.Equal(t, KindTruncated, KindOf(err))
}

func TestAnthropicProvider_Errors(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusInternalServerError, KindUnavailable},
		{http.StatusBadRequest, KindUnavailable},
	}
	for _, tt := range tests {
		p := anthropicServer(t, tt.status, map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "api_error", "message": "nope"},
		}, nil)
		_, err := p.Generate(context.Background(), Request{Prompt: "x", MaxTokens: 16})
		require.Error(t, err, "status %d", tt.status)
		assert.Equal(t, tt.want, KindOf(err), "status %d", tt.status)
	}
}

func TestAnthropicProvider_NoText(t *testing.T) {
	msg := anthropicMessage("", "end_turn")
	msg["content"] = []map[string]any{}
	p := anthropicServer(t, http.StatusOK, msg, nil)
	_, err := p.Generate(context.Background(), Request{Prompt: "x", MaxTokens: 16})
	assert.Equal(t, KindInvalid, KindOf(err))
}

func TestNewAnthropicProvider_RequiresKey(t *testing.T) {
	_, err := NewAnthropicProvider(AnthropicConfig{})
	assert.Error(t, err)
}
