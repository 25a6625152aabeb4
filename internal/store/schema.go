package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Every event table carries a global sequence number and stores timestamps as
// Unix milliseconds.

var (
	PracticeAttemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "module_id", Type: field.TypeString},
		{Name: "mode", Type: field.TypeString},
		{Name: "correct", Type: field.TypeInt},
		{Name: "total", Type: field.TypeInt},
		{Name: "score", Type: field.TypeFloat64},
		{Name: "taken_at", Type: field.TypeInt64},
	}
	PracticeAttemptsTable = &schema.Table{
		Name:       "practice_attempts",
		Columns:    PracticeAttemptsColumns,
		PrimaryKey: []*schema.Column{PracticeAttemptsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "practiceattempt_learner_id", Columns: []*schema.Column{PracticeAttemptsColumns[2]}},
		},
	}

	TestResultsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "module_id", Type: field.TypeString},
		{Name: "passed", Type: field.TypeBool},
		{Name: "score", Type: field.TypeFloat64},
		{Name: "taken_at", Type: field.TypeInt64},
	}
	TestResultsTable = &schema.Table{
		Name:       "test_results",
		Columns:    TestResultsColumns,
		PrimaryKey: []*schema.Column{TestResultsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "testresult_learner_id", Columns: []*schema.Column{TestResultsColumns[2]}},
		},
	}

	LessonCompletionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "module_id", Type: field.TypeString},
		{Name: "lesson_id", Type: field.TypeString},
		{Name: "completed_at", Type: field.TypeInt64},
	}
	LessonCompletionsTable = &schema.Table{
		Name:       "lesson_completions",
		Columns:    LessonCompletionsColumns,
		PrimaryKey: []*schema.Column{LessonCompletionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "lessoncompletion_learner_id", Columns: []*schema.Column{LessonCompletionsColumns[2]}},
		},
	}

	ConceptAttemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "concept", Type: field.TypeString},
		{Name: "module_id", Type: field.TypeString},
		{Name: "correct", Type: field.TypeBool},
		{Name: "response_time_ms", Type: field.TypeInt64},
		{Name: "attempted_at", Type: field.TypeInt64},
	}
	ConceptAttemptsTable = &schema.Table{
		Name:       "concept_attempts",
		Columns:    ConceptAttemptsColumns,
		PrimaryKey: []*schema.Column{ConceptAttemptsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "conceptattempt_learner_id", Columns: []*schema.Column{ConceptAttemptsColumns[2]}},
			{Name: "conceptattempt_concept", Columns: []*schema.Column{ConceptAttemptsColumns[3]}},
		},
	}

	SessionEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "session_id", Type: field.TypeString},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "action", Type: field.TypeString},
		{Name: "module_id", Type: field.TypeString},
		{Name: "mode", Type: field.TypeString},
		{Name: "questions_served", Type: field.TypeInt},
		{Name: "correct_answers", Type: field.TypeInt},
		{Name: "duration_secs", Type: field.TypeInt},
	}
	SessionEventsTable = &schema.Table{
		Name:       "session_events",
		Columns:    SessionEventsColumns,
		PrimaryKey: []*schema.Column{SessionEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "sessionevent_session_id", Columns: []*schema.Column{SessionEventsColumns[3]}},
			{Name: "sessionevent_learner_id", Columns: []*schema.Column{SessionEventsColumns[4]}},
		},
	}

	LLMRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Nullable: true},
	}
	LLMRequestEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    LLMRequestEventsColumns,
		PrimaryKey: []*schema.Column{LLMRequestEventsColumns[0]},
	}

	SnapshotsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "data", Type: field.TypeString},
	}
	SnapshotsTable = &schema.Table{
		Name:       "snapshots",
		Columns:    SnapshotsColumns,
		PrimaryKey: []*schema.Column{SnapshotsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "snapshot_learner_id", Columns: []*schema.Column{SnapshotsColumns[2]}},
		},
	}

	// Tables holds every table managed by auto-migration.
	Tables = []*schema.Table{
		PracticeAttemptsTable,
		TestResultsTable,
		LessonCompletionsTable,
		ConceptAttemptsTable,
		SessionEventsTable,
		LLMRequestEventsTable,
		SnapshotsTable,
	}
)
