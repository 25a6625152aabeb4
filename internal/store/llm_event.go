package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	var errMsg any
	if data.ErrorMessage != "" {
		errMsg = data.ErrorMessage
	}
	err := r.s.insert(ctx, LLMRequestEventsTable.Name,
		[]string{"timestamp", "provider", "model", "purpose", "input_tokens", "output_tokens", "latency_ms", "success", "error_message"},
		toMillis(time.Now()), data.Provider, data.Model, data.Purpose,
		data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success, errMsg,
	)
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) LLMRequestCount(ctx context.Context) (int, error) {
	b := r.s.builder()
	q, args := b.Select(entsql.Count("*")).From(b.Table(LLMRequestEventsTable.Name)).Query()
	var n int
	if err := r.s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count LLM request events: %w", err)
	}
	return n, nil
}
