package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tipSchema = &Schema{
	Name: "test-tip",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tip":      map[string]any{"type": "string", "minLength": 1},
			"priority": map[string]any{"type": "string", "enum": []any{"low", "high"}},
			"steps": map[string]any{
				"type":     "array",
				"maxItems": 2,
				"items":    map[string]any{"type": "string"},
			},
		},
		"required":             []any{"tip"},
		"additionalProperties": false,
	},
}

func TestStub_ServesRepliesInOrder(t *testing.T) {
	stub := NewStub(
		Reply{Content: `{"tip":"Review allergens"}`, Usage: Usage{InputTokens: 10, OutputTokens: 5}},
		Reply{Content: "plain text"},
	)
	ctx := context.Background()

	first, err := stub.Generate(ctx, Request{Prompt: "one", Schema: tipSchema})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tip":"Review allergens"}`, string(first.Content))
	assert.Equal(t, 15, first.Usage.Total())
	assert.Equal(t, ProviderStub, first.Model)

	second, err := stub.Generate(ctx, Request{Prompt: "two"})
	require.NoError(t, err)
	assert.Equal(t, "plain text", string(second.Content))

	_, err = stub.Generate(ctx, Request{Prompt: "three"})
	assert.Equal(t, KindUnavailable, KindOf(err))

	reqs := stub.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "two", reqs[1].Prompt)
}

func TestStub_ChecksSchema(t *testing.T) {
	stub := NewStub(Reply{Content: `{"tip":""}`})
	_, err := stub.Generate(context.Background(), Request{Schema: tipSchema})
	assert.Equal(t, KindInvalid, KindOf(err))
}

func TestStub_PushAndErrors(t *testing.T) {
	stub := NewStub()
	stub.Push(Reply{Err: &Error{Kind: KindRateLimited}})

	_, err := stub.Generate(context.Background(), Request{})
	assert.Equal(t, KindRateLimited, KindOf(err))
}

func TestFinish(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		schema    *Schema
		truncated bool
		want      Kind
		wantErr   bool
	}{
		{name: "valid", text: ` {"tip":"Wash hands","priority":"high"} `, schema: tipSchema},
		{name: "no schema keeps text", text: "anything"},
		{name: "no schema allows truncation", text: "cut", truncated: true},
		{name: "missing required", text: `{"priority":"low"}`, schema: tipSchema, want: KindInvalid, wantErr: true},
		{name: "wrong type", text: `{"tip":3}`, schema: tipSchema, want: KindInvalid, wantErr: true},
		{name: "enum", text: `{"tip":"x","priority":"urgent"}`, schema: tipSchema, want: KindInvalid, wantErr: true},
		{name: "too many items", text: `{"tip":"x","steps":["a","b","c"]}`, schema: tipSchema, want: KindInvalid, wantErr: true},
		{name: "extra property", text: `{"tip":"x","mood":"happy"}`, schema: tipSchema, want: KindInvalid, wantErr: true},
		{name: "malformed", text: `{"tip":`, schema: tipSchema, want: KindInvalid, wantErr: true},
		{name: "empty", text: "", schema: tipSchema, want: KindInvalid, wantErr: true},
		{name: "truncated", text: `{"tip":"x"}`, schema: tipSchema, truncated: true, want: KindTruncated, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := finish(Request{Schema: tt.schema, MaxTokens: 64}, tt.text, Usage{}, "m", tt.truncated)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.want, KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.truncated, resp.Truncated)
			assert.Equal(t, "m", resp.Model)
		})
	}
}

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("coach: %w", &Error{Kind: KindRateLimited, Err: errors.New("429")})
	assert.Equal(t, KindRateLimited, KindOf(wrapped))
	assert.Equal(t, KindUnavailable, KindOf(errors.New("dial tcp: refused")))
	assert.Equal(t, "llm: rate limited: 429", errors.Unwrap(wrapped).Error())
	assert.Equal(t, "llm: response truncated", (&Error{Kind: KindTruncated}).Error())

	assert.Equal(t, KindRateLimited, KindOf(fromStatus(429, nil)))
	assert.Equal(t, KindUnavailable, KindOf(fromStatus(503, nil)))
	assert.Equal(t, KindUnavailable, KindOf(fromStatus(0, nil)))
}

func TestPurpose(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "unknown", PurposeFrom(ctx))
	assert.Equal(t, "coach", PurposeFrom(WithPurpose(ctx, "coach")))
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		aliases map[string]string
		in      string
		want    string
	}{
		{anthropicModels, "claude-haiku", "claude-haiku-4-5-20251001"},
		{anthropicModels, "claude-sonnet-4-20250514", "claude-sonnet-4-20250514"},
		{openaiModels, "gpt-4o-mini", "gpt-4o-mini"},
		{geminiModels, "gemini-flash", "gemini-2.0-flash"},
		{geminiModels, "gemini-2.5-pro", "gemini-2.5-pro"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.in, tt.aliases); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty", cfg: Config{}},
		{name: "none", cfg: Config{Provider: ProviderNone}},
		{name: "stub needs no key", cfg: Config{Provider: ProviderStub}},
		{name: "anthropic with key", cfg: Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "sk"}}},
		{name: "anthropic without key", cfg: Config{Provider: ProviderAnthropic}, wantErr: "CERTPREP_LLM_ANTHROPIC_API_KEY"},
		{name: "openai without key", cfg: Config{Provider: ProviderOpenAI}, wantErr: "CERTPREP_LLM_OPENAI_API_KEY"},
		{name: "gemini without key", cfg: Config{Provider: ProviderGemini}, wantErr: "CERTPREP_LLM_GEMINI_API_KEY"},
		{name: "openrouter without key", cfg: Config{Provider: ProviderOpenRouter}, wantErr: "CERTPREP_LLM_OPENROUTER_API_KEY"},
		{name: "unknown", cfg: Config{Provider: "watson"}, wantErr: `unknown LLM provider "watson"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, v := range vendorKeys {
		t.Setenv(v.env, "")
	}
	_, ok := DiscoverConfig()
	assert.False(t, ok)

	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	cfg, ok := DiscoverConfig()
	require.True(t, ok)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "g-key", cfg.Gemini.APIKey)
	assert.Empty(t, cfg.OpenRouter.APIKey)
	assert.Equal(t, "gemini-flash", cfg.Gemini.Model)

	t.Setenv("ANTHROPIC_API_KEY", "a-key")
	cfg, _ = DiscoverConfig()
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
}
