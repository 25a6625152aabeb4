// Package llm sends single-turn prompts to hosted language models and
// returns schema-checked JSON.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Provider generates a completion for one prompt.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

// Request is a single-turn prompt. When Schema is set the provider asks for
// structured output and the reply is validated before it is returned.
type Request struct {
	System      string
	Prompt      string
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// Schema is a named JSON Schema for structured output.
type Schema struct {
	// Name is kebab-case, e.g. "study-advice".
	Name        string
	Description string
	Definition  map[string]any
}

// Response is a completed generation.
type Response struct {
	// Content is the reply text. It is valid JSON when the request carried
	// a Schema.
	Content   json.RawMessage
	Usage     Usage
	Model     string
	Truncated bool
}

// Usage is the token count of one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// finish turns provider output into a Response, rejecting truncated or
// non-conforming structured replies.
func finish(req Request, text string, usage Usage, model string, truncated bool) (*Response, error) {
	content := json.RawMessage(strings.TrimSpace(text))
	if req.Schema != nil {
		if truncated {
			return nil, &Error{Kind: KindTruncated, Err: fmt.Errorf("reply cut off at %d tokens", req.MaxTokens)}
		}
		if err := req.Schema.validate(content); err != nil {
			return nil, err
		}
	}
	return &Response{Content: content, Usage: usage, Model: model, Truncated: truncated}, nil
}

// resolveModel maps a short alias to a concrete model id. Unknown names
// pass through.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
