package store

import (
	"context"
	"testing"
	"time"

	"github.com/abhisek/certprep/internal/apperr"
	"github.com/abhisek/certprep/internal/history"
	"github.com/abhisek/certprep/internal/readiness"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var base = time.Date(2024, 9, 1, 8, 30, 0, 0, time.UTC)

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "x"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range Tables {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table.Name,
		).Scan(&name)
		if err != nil {
			t.Fatalf("table %s: %v", table.Name, err)
		}
	}
}

func TestSequence(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := range 3 {
		n, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if want := int64(i + 1); n != want {
			t.Errorf("next[%d] = %d, want %d", i, n, want)
		}
	}

	// Re-initialising keeps the current value.
	again, err := newSequence(ctx, s.DB())
	if err != nil {
		t.Fatalf("reinit: %v", err)
	}
	if n, err := again.Next(ctx); err != nil || n != 4 {
		t.Errorf("next after reinit = %d, %v; want 4", n, err)
	}
}

func sampleHistory() history.History {
	return history.History{
		LearnerID: "learner-1",
		Practice: []history.PracticeAttempt{
			{ModuleID: "temperature", Mode: history.ModeSmartDrill, Correct: 7, Total: 10, Score: 70, TakenAt: base.Add(time.Hour)},
			{ModuleID: "hazards", Mode: history.ModeFullQuiz, Correct: 9, Total: 10, Score: 90, TakenAt: base},
		},
		Tests: []history.ModuleTestResult{
			{ModuleID: "hazards", Passed: true, Score: 85, TakenAt: base.Add(2 * time.Hour)},
		},
		Lessons: []history.LessonCompletion{
			{ModuleID: "hazards", LessonID: "hazards-intro", CompletedAt: base.Add(-time.Hour)},
		},
		Concepts: []history.ConceptAttempt{
			{ConceptSlug: "danger-zone", ModuleID: "temperature", Correct: true, ResponseTimeMs: 3200, AttemptedAt: base.Add(time.Hour)},
			{ConceptSlug: "chilling", ModuleID: "temperature", Correct: false, ResponseTimeMs: 8100, AttemptedAt: base.Add(time.Hour + time.Minute)},
		},
	}
}

func TestImportAndLoadHistory(t *testing.T) {
	s := openTestStore(t)
	repo := s.AttemptRepo()
	ctx := context.Background()

	if err := repo.ImportHistory(ctx, sampleHistory()); err != nil {
		t.Fatalf("import: %v", err)
	}

	h, err := repo.LoadHistory(ctx, "learner-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(h.Practice) != 2 || len(h.Tests) != 1 || len(h.Lessons) != 1 || len(h.Concepts) != 2 {
		t.Fatalf("loaded %d/%d/%d/%d records, want 2/1/1/2", len(h.Practice), len(h.Tests), len(h.Lessons), len(h.Concepts))
	}

	// Oldest first.
	if h.Practice[0].ModuleID != "hazards" {
		t.Errorf("practice[0].module = %q, want hazards", h.Practice[0].ModuleID)
	}
	if !h.Practice[0].TakenAt.Equal(base) {
		t.Errorf("practice[0].taken_at = %v, want %v", h.Practice[0].TakenAt, base)
	}
	if h.Practice[1].Mode != history.ModeSmartDrill || h.Practice[1].Score != 70 {
		t.Errorf("practice[1] = %+v", h.Practice[1])
	}
	if !h.Tests[0].Passed {
		t.Error("expected test to be passed")
	}
	if h.Concepts[1].ConceptSlug != "chilling" || h.Concepts[1].Correct || h.Concepts[1].ResponseTimeMs != 8100 {
		t.Errorf("concepts[1] = %+v", h.Concepts[1])
	}

	other, err := repo.LoadHistory(ctx, "someone-else")
	if err != nil {
		t.Fatalf("load other: %v", err)
	}
	if !other.IsEmpty() {
		t.Error("expected empty history for unknown learner")
	}
}

func TestRecordRejectsInvalid(t *testing.T) {
	s := openTestStore(t)
	repo := s.AttemptRepo()
	ctx := context.Background()

	err := repo.RecordPractice(ctx, "learner-1", history.PracticeAttempt{
		ModuleID: "hazards", Mode: history.ModeBoost, Correct: 1, Total: 1, Score: 140, TakenAt: base,
	})
	if !apperr.IsInvalidInput(err) {
		t.Errorf("score 140: got %v, want invalid input", err)
	}

	err = repo.RecordTest(ctx, "", history.ModuleTestResult{ModuleID: "hazards", Score: 50, TakenAt: base})
	if !apperr.IsInvalidInput(err) {
		t.Errorf("empty learner: got %v, want invalid input", err)
	}
}

func TestDeleteLearner(t *testing.T) {
	s := openTestStore(t)
	repo := s.AttemptRepo()
	ctx := context.Background()

	h := sampleHistory()
	if err := repo.ImportHistory(ctx, h); err != nil {
		t.Fatalf("import: %v", err)
	}
	h.LearnerID = "learner-2"
	if err := repo.ImportHistory(ctx, h); err != nil {
		t.Fatalf("import second: %v", err)
	}
	err := s.SessionRepo().AppendSessionEvent(ctx, SessionEventData{
		SessionID: "s1", LearnerID: "learner-1", Action: SessionStart, Timestamp: base,
	})
	if err != nil {
		t.Fatalf("append session: %v", err)
	}

	if err := repo.DeleteLearner(ctx, "learner-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	gone, err := repo.LoadHistory(ctx, "learner-1")
	if err != nil {
		t.Fatalf("load deleted: %v", err)
	}
	if !gone.IsEmpty() {
		t.Error("expected deleted learner to have no history")
	}
	events, err := s.SessionRepo().SessionEvents(ctx, "learner-1")
	if err != nil {
		t.Fatalf("session events: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("session events = %d, want 0", len(events))
	}

	kept, err := repo.LoadHistory(ctx, "learner-2")
	if err != nil {
		t.Fatalf("load kept: %v", err)
	}
	if len(kept.Practice) != 2 {
		t.Errorf("learner-2 practice = %d, want 2", len(kept.Practice))
	}
}

func TestSessionEventsOrdered(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	for _, action := range []SessionAction{SessionStart, SessionEnd} {
		err := repo.AppendSessionEvent(ctx, SessionEventData{
			SessionID:       "s1",
			LearnerID:       "learner-1",
			Action:          action,
			ModuleID:        "hazards",
			Mode:            history.ModeSmartDrill,
			QuestionsServed: 10,
			CorrectAnswers:  8,
			DurationSecs:    240,
			Timestamp:       base,
		})
		if err != nil {
			t.Fatalf("append %s: %v", action, err)
		}
	}

	events, err := repo.SessionEvents(ctx, "learner-1")
	if err != nil {
		t.Fatalf("session events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Action != SessionStart || events[1].Action != SessionEnd {
		t.Errorf("actions = %s, %s", events[0].Action, events[1].Action)
	}
	if events[0].Sequence >= events[1].Sequence {
		t.Error("expected increasing sequence")
	}
	if events[1].CorrectAnswers != 8 || events[1].Mode != history.ModeSmartDrill {
		t.Errorf("event = %+v", events[1])
	}
}

func TestLLMRequestEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "coach", Success: true})
	if err != nil {
		t.Fatalf("append ok: %v", err)
	}
	err = repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "coach", ErrorMessage: "boom"})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	n, err := repo.LLMRequestCount(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestSnapshotSaveLatestPrune(t *testing.T) {
	s := openTestStore(t)
	repo := s.SnapshotRepo()
	ctx := context.Background()

	snap, err := repo.Latest(ctx, "learner-1")
	if err != nil {
		t.Fatalf("latest (empty): %v", err)
	}
	if snap != nil {
		t.Fatal("expected nil snapshot when none exist")
	}

	for i := range 7 {
		err := repo.Save(ctx, &Snapshot{
			LearnerID: "learner-1",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Data:      SnapshotData{Readiness: readiness.Snapshot{Overall: 10 * i}},
		})
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	if err := repo.Save(ctx, &Snapshot{LearnerID: "learner-2", Timestamp: base}); err != nil {
		t.Fatalf("save other: %v", err)
	}

	if err := repo.Prune(ctx, "learner-1", 5); err != nil {
		t.Fatalf("prune: %v", err)
	}

	var count int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM snapshots WHERE learner_id = ?", "learner-1").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 5 {
		t.Errorf("remaining snapshots = %d, want 5", count)
	}

	snap, err = repo.Latest(ctx, "learner-1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if snap.Data.Readiness.Overall != 60 {
		t.Errorf("latest overall = %d, want 60", snap.Data.Readiness.Overall)
	}
	if snap.Data.Version != SnapshotVersion {
		t.Errorf("data.version = %d, want %d", snap.Data.Version, SnapshotVersion)
	}
	if !snap.Timestamp.Equal(base.Add(6 * time.Minute)) {
		t.Errorf("timestamp = %v", snap.Timestamp)
	}

	other, err := repo.Latest(ctx, "learner-2")
	if err != nil || other == nil {
		t.Fatalf("latest other: %v, %v", other, err)
	}

	// Prune with keep above the count is a no-op.
	if err := repo.Prune(ctx, "learner-2", 5); err != nil {
		t.Fatalf("prune other: %v", err)
	}
}

func TestDefaultDBPath_Env(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CERTPREP_DB", dir+"/sub/test.db")
	p, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if p != dir+"/sub/test.db" {
		t.Errorf("path = %q", p)
	}
}

func TestDefaultDBPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CERTPREP_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if want := dir + "/certprep/certprep.db"; p != want {
		t.Errorf("path = %q, want %q", p, want)
	}
}
