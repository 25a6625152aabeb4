package llm

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/certprep/internal/store"
)

type purposeKey struct{}

// WithPurpose labels requests made with ctx, e.g. "coach".
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if p, ok := ctx.Value(purposeKey{}).(string); ok && p != "" {
		return p
	}
	return "unknown"
}

type logged struct {
	inner  Provider
	name   string
	events store.EventRepo
	log    logrus.FieldLogger
}

// WithLogging records each generation as an LLM request event and logs it
// with token usage and estimated cost. events and logger may be nil.
func WithLogging(p Provider, name string, events store.EventRepo, logger logrus.FieldLogger) Provider {
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		logger = l
	}
	return &logged{inner: p, name: name, events: events, log: logger}
}

func (l *logged) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	ev := store.LLMRequestEventData{
		Provider:  l.name,
		Model:     l.inner.ModelID(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if resp != nil {
		ev.InputTokens, ev.OutputTokens = resp.Usage.InputTokens, resp.Usage.OutputTokens
		if resp.Model != "" {
			ev.Model = resp.Model
		}
	}

	fields := logrus.Fields{
		"provider":   ev.Provider,
		"model":      ev.Model,
		"purpose":    ev.Purpose,
		"latency_ms": ev.LatencyMs,
		"tokens":     ev.InputTokens + ev.OutputTokens,
	}
	if c := LookupCost(ev.Model); c != nil {
		fields["cost_usd"] = c.Cost(ev.InputTokens, ev.OutputTokens)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
		l.log.WithFields(fields).WithError(err).Warn("llm request failed")
	} else {
		l.log.WithFields(fields).Debug("llm request")
	}

	if l.events != nil {
		if werr := l.events.AppendLLMRequest(ctx, ev); werr != nil {
			l.log.WithError(werr).Warn("failed to record llm request event")
		}
	}
	return resp, err
}

func (l *logged) ModelID() string { return l.inner.ModelID() }
