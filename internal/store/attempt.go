package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/certprep/internal/apperr"
	"github.com/abhisek/certprep/internal/history"
)

// attemptRepo implements AttemptRepo with ent's SQL builder and the global
// sequence counter.
type attemptRepo struct {
	s *Store
}

func (r *attemptRepo) RecordPractice(ctx context.Context, learnerID string, p history.PracticeAttempt) error {
	if err := requireLearner(learnerID); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return r.s.insert(ctx, PracticeAttemptsTable.Name,
		[]string{"learner_id", "module_id", "mode", "correct", "total", "score", "taken_at"},
		learnerID, p.ModuleID, string(p.Mode), p.Correct, p.Total, p.Score, toMillis(p.TakenAt),
	)
}

func (r *attemptRepo) RecordTest(ctx context.Context, learnerID string, t history.ModuleTestResult) error {
	if err := requireLearner(learnerID); err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}
	return r.s.insert(ctx, TestResultsTable.Name,
		[]string{"learner_id", "module_id", "passed", "score", "taken_at"},
		learnerID, t.ModuleID, t.Passed, t.Score, toMillis(t.TakenAt),
	)
}

func (r *attemptRepo) RecordLesson(ctx context.Context, learnerID string, l history.LessonCompletion) error {
	if err := requireLearner(learnerID); err != nil {
		return err
	}
	if err := l.Validate(); err != nil {
		return err
	}
	return r.s.insert(ctx, LessonCompletionsTable.Name,
		[]string{"learner_id", "module_id", "lesson_id", "completed_at"},
		learnerID, l.ModuleID, l.LessonID, toMillis(l.CompletedAt),
	)
}

func (r *attemptRepo) RecordConcepts(ctx context.Context, learnerID string, cs []history.ConceptAttempt) error {
	if err := requireLearner(learnerID); err != nil {
		return err
	}
	for _, c := range cs {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, c := range cs {
		err := r.s.insert(ctx, ConceptAttemptsTable.Name,
			[]string{"learner_id", "concept", "module_id", "correct", "response_time_ms", "attempted_at"},
			learnerID, c.ConceptSlug, c.ModuleID, c.Correct, c.ResponseTimeMs, toMillis(c.AttemptedAt),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *attemptRepo) ImportHistory(ctx context.Context, h history.History) error {
	if err := requireLearner(h.LearnerID); err != nil {
		return err
	}
	if err := h.Validate(); err != nil {
		return err
	}
	for _, p := range h.Practice {
		if err := r.RecordPractice(ctx, h.LearnerID, p); err != nil {
			return err
		}
	}
	for _, t := range h.Tests {
		if err := r.RecordTest(ctx, h.LearnerID, t); err != nil {
			return err
		}
	}
	for _, l := range h.Lessons {
		if err := r.RecordLesson(ctx, h.LearnerID, l); err != nil {
			return err
		}
	}
	return r.RecordConcepts(ctx, h.LearnerID, h.Concepts)
}

func (r *attemptRepo) LoadHistory(ctx context.Context, learnerID string) (history.History, error) {
	h := history.History{LearnerID: learnerID}
	if err := requireLearner(learnerID); err != nil {
		return h, err
	}

	err := r.s.selectWhere(ctx, PracticeAttemptsTable.Name, learnerID,
		[]string{"module_id", "mode", "correct", "total", "score", "taken_at"},
		func(rows *sql.Rows) error {
			var p history.PracticeAttempt
			var mode string
			var at int64
			if err := rows.Scan(&p.ModuleID, &mode, &p.Correct, &p.Total, &p.Score, &at); err != nil {
				return err
			}
			p.Mode = history.Mode(mode)
			p.TakenAt = fromMillis(at)
			h.Practice = append(h.Practice, p)
			return nil
		})
	if err != nil {
		return h, fmt.Errorf("load practice attempts: %w", err)
	}

	err = r.s.selectWhere(ctx, TestResultsTable.Name, learnerID,
		[]string{"module_id", "passed", "score", "taken_at"},
		func(rows *sql.Rows) error {
			var t history.ModuleTestResult
			var at int64
			if err := rows.Scan(&t.ModuleID, &t.Passed, &t.Score, &at); err != nil {
				return err
			}
			t.TakenAt = fromMillis(at)
			h.Tests = append(h.Tests, t)
			return nil
		})
	if err != nil {
		return h, fmt.Errorf("load test results: %w", err)
	}

	err = r.s.selectWhere(ctx, LessonCompletionsTable.Name, learnerID,
		[]string{"module_id", "lesson_id", "completed_at"},
		func(rows *sql.Rows) error {
			var l history.LessonCompletion
			var at int64
			if err := rows.Scan(&l.ModuleID, &l.LessonID, &at); err != nil {
				return err
			}
			l.CompletedAt = fromMillis(at)
			h.Lessons = append(h.Lessons, l)
			return nil
		})
	if err != nil {
		return h, fmt.Errorf("load lesson completions: %w", err)
	}

	err = r.s.selectWhere(ctx, ConceptAttemptsTable.Name, learnerID,
		[]string{"concept", "module_id", "correct", "response_time_ms", "attempted_at"},
		func(rows *sql.Rows) error {
			var c history.ConceptAttempt
			var at int64
			if err := rows.Scan(&c.ConceptSlug, &c.ModuleID, &c.Correct, &c.ResponseTimeMs, &at); err != nil {
				return err
			}
			c.AttemptedAt = fromMillis(at)
			h.Concepts = append(h.Concepts, c)
			return nil
		})
	if err != nil {
		return h, fmt.Errorf("load concept attempts: %w", err)
	}

	sort.SliceStable(h.Practice, func(i, j int) bool { return h.Practice[i].TakenAt.Before(h.Practice[j].TakenAt) })
	sort.SliceStable(h.Tests, func(i, j int) bool { return h.Tests[i].TakenAt.Before(h.Tests[j].TakenAt) })
	sort.SliceStable(h.Lessons, func(i, j int) bool { return h.Lessons[i].CompletedAt.Before(h.Lessons[j].CompletedAt) })
	sort.SliceStable(h.Concepts, func(i, j int) bool { return h.Concepts[i].AttemptedAt.Before(h.Concepts[j].AttemptedAt) })

	if err := h.Validate(); err != nil {
		return h, fmt.Errorf("stored history for %s: %w", learnerID, err)
	}
	return h, nil
}

func (r *attemptRepo) DeleteLearner(ctx context.Context, learnerID string) error {
	if err := requireLearner(learnerID); err != nil {
		return err
	}
	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	for _, t := range []string{
		PracticeAttemptsTable.Name,
		TestResultsTable.Name,
		LessonCompletionsTable.Name,
		ConceptAttemptsTable.Name,
		SessionEventsTable.Name,
		SnapshotsTable.Name,
	} {
		q, args := r.s.builder().Delete(t).Where(entsql.EQ("learner_id", learnerID)).Query()
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("delete from %s: %w", t, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// insert appends a row to table with the next global sequence number.
func (s *Store) insert(ctx context.Context, table string, columns []string, values ...any) error {
	seq, err := s.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	q, args := s.builder().Insert(table).
		Columns(append([]string{"sequence"}, columns...)...).
		Values(append([]any{seq}, values...)...).
		Query()
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// selectWhere runs scan for every row of table belonging to learnerID.
func (s *Store) selectWhere(ctx context.Context, table, learnerID string, columns []string, scan func(*sql.Rows) error) error {
	b := s.builder()
	q, args := b.Select(columns...).
		From(b.Table(table)).
		Where(entsql.EQ("learner_id", learnerID)).
		Query()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func requireLearner(id string) error {
	if id == "" {
		return apperr.Invalid("learner_id", "must not be empty")
	}
	return nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
