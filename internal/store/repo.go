package store

import (
	"context"
	"time"

	"github.com/abhisek/certprep/internal/history"
	"github.com/abhisek/certprep/internal/passprob"
	"github.com/abhisek/certprep/internal/readiness"
)

// AttemptRepo reads and writes a learner's attempt history.
type AttemptRepo interface {
	// RecordPractice appends a completed practice session.
	RecordPractice(ctx context.Context, learnerID string, p history.PracticeAttempt) error

	// RecordTest appends a module test result.
	RecordTest(ctx context.Context, learnerID string, r history.ModuleTestResult) error

	// RecordLesson appends a lesson completion.
	RecordLesson(ctx context.Context, learnerID string, l history.LessonCompletion) error

	// RecordConcepts appends concept-tagged answers.
	RecordConcepts(ctx context.Context, learnerID string, cs []history.ConceptAttempt) error

	// ImportHistory appends every record of h under h.LearnerID.
	ImportHistory(ctx context.Context, h history.History) error

	// LoadHistory returns the validated history of a learner, oldest first.
	LoadHistory(ctx context.Context, learnerID string) (history.History, error)

	// DeleteLearner removes every attempt, session and snapshot of a learner.
	DeleteLearner(ctx context.Context, learnerID string) error
}

// SessionAction labels a session lifecycle event.
type SessionAction string

const (
	SessionStart   SessionAction = "start"
	SessionEnd     SessionAction = "end"
	SessionAbandon SessionAction = "abandon"
)

// SessionEventData captures a drill session lifecycle event.
type SessionEventData struct {
	SessionID       string
	LearnerID       string
	Action          SessionAction
	ModuleID        string
	Mode            history.Mode
	QuestionsServed int
	CorrectAnswers  int
	DurationSecs    int
	Timestamp       time.Time
}

// SessionEvent is a stored session event.
type SessionEvent struct {
	Sequence int64
	SessionEventData
}

// SessionRepo records drill session lifecycle events.
type SessionRepo interface {
	// AppendSessionEvent records a session start, end or abandon.
	AppendSessionEvent(ctx context.Context, data SessionEventData) error

	// SessionEvents returns a learner's session events in sequence order.
	SessionEvents(ctx context.Context, learnerID string) ([]SessionEvent, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// EventRepo provides append access to auxiliary events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// LLMRequestCount returns the number of recorded LLM requests.
	LLMRequestCount(ctx context.Context) (int, error)
}

// SnapshotData is the report state captured for a learner.
type SnapshotData struct {
	Version         int                `json:"version"`
	Readiness       readiness.Snapshot `json:"readiness"`
	PassProbability passprob.Snapshot  `json:"pass_probability"`
}

// SnapshotVersion is the current SnapshotData version.
const SnapshotVersion = 1

// Snapshot is a point-in-time capture of a learner's report.
type Snapshot struct {
	ID        int
	Sequence  int64
	LearnerID string
	Timestamp time.Time
	Data      SnapshotData
}

// SnapshotRepo manages report snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot and assigns its sequence.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the most recent snapshot of a learner, or nil if none exist.
	Latest(ctx context.Context, learnerID string) (*Snapshot, error)

	// Prune deletes all but the keep most recent snapshots of a learner.
	Prune(ctx context.Context, learnerID string, keep int) error
}
