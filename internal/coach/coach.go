// Package coach turns readiness and pass-probability snapshots into short
// study advice. Advice is phrased by an LLM when one is configured and
// falls back to rule-based text on any failure.
package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/certprep/internal/llm"
	"github.com/abhisek/certprep/internal/passprob"
	"github.com/abhisek/certprep/internal/readiness"
)

// Source identifies who produced a piece of advice.
type Source string

const (
	SourceLLM   Source = "llm"
	SourceRules Source = "rules"
)

// Advice is the coach output.
type Advice struct {
	Headline string   `json:"headline"`
	Summary  string   `json:"summary"`
	Tips     []string `json:"tips"`
	Source   Source   `json:"source"`
}

// Input is what the coach knows about a learner.
type Input struct {
	Readiness       readiness.Snapshot
	PassProbability passprob.Snapshot

	// ModuleTitles maps module ids to display titles. Missing ids are
	// shown as-is.
	ModuleTitles map[string]string
}

func (in Input) title(moduleID string) string {
	if t, ok := in.ModuleTitles[moduleID]; ok && t != "" {
		return t
	}
	return moduleID
}

// Config holds configuration for the LLM coach.
type Config struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   512,
		Temperature: 0.4,
		Timeout:     20 * time.Second,
	}
}

// Coach produces study advice.
type Coach struct {
	provider llm.Provider
	cfg      Config
	logger   logrus.FieldLogger
}

// New creates a coach. provider may be nil, in which case every call uses
// the rule-based fallback.
func New(provider llm.Provider, cfg Config, logger logrus.FieldLogger) *Coach {
	def := DefaultConfig()
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		logger = l
	}
	return &Coach{provider: provider, cfg: cfg, logger: logger.WithField("component", "coach")}
}

// Advise returns advice for the learner. It never fails: LLM errors are
// logged and the rule-based advice is returned instead.
func (c *Coach) Advise(ctx context.Context, in Input) Advice {
	if c.provider == nil || in.Readiness.InsufficientData {
		return RuleAdvice(in)
	}

	advice, err := c.generate(ctx, in)
	if err != nil {
		c.logger.WithError(err).Warn("llm advice unavailable, using rules")
		return RuleAdvice(in)
	}
	return advice
}

// llmAdvice is the raw LLM response.
type llmAdvice struct {
	Headline string   `json:"headline"`
	Summary  string   `json:"summary"`
	Tips     []string `json:"tips"`
}

func (c *Coach) generate(ctx context.Context, in Input) (Advice, error) {
	ctx, cancel := context.WithTimeout(llm.WithPurpose(ctx, "coach"), c.cfg.Timeout)
	defer cancel()

	userMsg, err := buildUserMessage(in)
	if err != nil {
		return Advice{}, fmt.Errorf("build coach prompt: %w", err)
	}

	resp, err := c.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      userMsg,
		Schema:      AdviceSchema,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return Advice{}, fmt.Errorf("llm advice failed: %w", err)
	}

	var raw llmAdvice
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return Advice{}, fmt.Errorf("parse advice response: %w", err)
	}

	advice := Advice{
		Headline: strings.TrimSpace(raw.Headline),
		Summary:  strings.TrimSpace(raw.Summary),
		Source:   SourceLLM,
	}
	for _, tip := range raw.Tips {
		if tip = strings.TrimSpace(tip); tip != "" && len(advice.Tips) < MaxTips {
			advice.Tips = append(advice.Tips, tip)
		}
	}
	if advice.Headline == "" || advice.Summary == "" || len(advice.Tips) == 0 {
		return Advice{}, &llm.Error{Kind: llm.KindInvalid, Err: errors.New("advice is missing required text")}
	}
	return advice, nil
}
