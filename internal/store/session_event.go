package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/abhisek/certprep/internal/history"
)

// eventRepo implements SessionRepo and EventRepo backed by the global
// sequence counter.
type eventRepo struct {
	s *Store
}

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	if err := requireLearner(data.LearnerID); err != nil {
		return err
	}
	return r.s.insert(ctx, SessionEventsTable.Name,
		[]string{"timestamp", "session_id", "learner_id", "action", "module_id", "mode", "questions_served", "correct_answers", "duration_secs"},
		toMillis(data.Timestamp), data.SessionID, data.LearnerID, string(data.Action), data.ModuleID, string(data.Mode),
		data.QuestionsServed, data.CorrectAnswers, data.DurationSecs,
	)
}

func (r *eventRepo) SessionEvents(ctx context.Context, learnerID string) ([]SessionEvent, error) {
	var events []SessionEvent
	err := r.s.selectWhere(ctx, SessionEventsTable.Name, learnerID,
		[]string{"sequence", "timestamp", "session_id", "learner_id", "action", "module_id", "mode", "questions_served", "correct_answers", "duration_secs"},
		func(rows *sql.Rows) error {
			var e SessionEvent
			var ts int64
			var action, mode string
			if err := rows.Scan(&e.Sequence, &ts, &e.SessionID, &e.LearnerID, &action, &e.ModuleID, &mode,
				&e.QuestionsServed, &e.CorrectAnswers, &e.DurationSecs); err != nil {
				return err
			}
			e.Timestamp = fromMillis(ts)
			e.Action = SessionAction(action)
			e.Mode = history.Mode(mode)
			events = append(events, e)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Sequence < events[j].Sequence })
	return events, nil
}
