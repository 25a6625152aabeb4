// Package drill runs a short adaptive practice session: each answer updates the
// session ledger and the selector picks the next question from it.
package drill

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/certprep/internal/catalog"
	"github.com/abhisek/certprep/internal/history"
	"github.com/abhisek/certprep/internal/ledger"
	"github.com/abhisek/certprep/internal/selector"
)

// Phase is the state of a drill session.
type Phase int

const (
	PhasePresenting Phase = iota // A question is awaiting an answer
	PhaseFeedback                // The last answer is being shown
	PhaseComplete                // Question count or time budget exhausted, or abandoned
)

func (p Phase) String() string {
	switch p {
	case PhasePresenting:
		return "presenting"
	case PhaseFeedback:
		return "feedback"
	case PhaseComplete:
		return "complete"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// ErrWrongPhase is returned when an operation is not valid in the current phase.
var ErrWrongPhase = errors.New("drill: operation not valid in current phase")

// DefaultQuestionCount is the length of a drill when Config leaves it unset.
const DefaultQuestionCount = 10

// Config describes a drill session.
type Config struct {
	// ModuleID tags the resulting practice attempt.
	ModuleID string

	// Mode is the practice format recorded with the result.
	Mode history.Mode

	// QuestionCount ends the session after this many answers.
	QuestionCount int

	// TimeLimit ends the session once elapsed. Zero means no limit.
	TimeLimit time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Feedback describes the outcome of an answer.
type Feedback struct {
	Question     catalog.Question
	Chosen       int
	Correct      bool
	ResponseTime time.Duration
}

// Result is the write-back payload of a finished or abandoned session.
type Result struct {
	SessionID string
	Practice  history.PracticeAttempt
	Concepts  []history.ConceptAttempt
	Abandoned bool
	StartedAt time.Time
	EndedAt   time.Time
}

// Empty reports whether no question was answered.
func (r Result) Empty() bool {
	return r.Practice.Total == 0
}

// PracticeByModule returns the practice attempts to record for r. A boost
// drill mixes modules, so its answers are split into one attempt per module,
// ordered by module id. Other drills return r.Practice alone.
func (r Result) PracticeByModule() []history.PracticeAttempt {
	if r.Practice.Mode != history.ModeBoost || len(r.Concepts) == 0 {
		return []history.PracticeAttempt{r.Practice}
	}
	byModule := make(map[string]*history.PracticeAttempt)
	for _, c := range r.Concepts {
		p, ok := byModule[c.ModuleID]
		if !ok {
			p = &history.PracticeAttempt{ModuleID: c.ModuleID, Mode: r.Practice.Mode, TakenAt: r.Practice.TakenAt}
			byModule[c.ModuleID] = p
		}
		p.Total++
		if c.Correct {
			p.Correct++
		}
	}
	ids := make([]string, 0, len(byModule))
	for id := range byModule {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]history.PracticeAttempt, len(ids))
	for i, id := range ids {
		p := byModule[id]
		p.Score = math.Round(100 * float64(p.Correct) / float64(p.Total))
		out[i] = *p
	}
	return out
}

// Session is a single drill. It is not safe for concurrent use.
type Session struct {
	id  string
	cfg Config
	sel *selector.Selector

	pool   []catalog.Question
	ledger ledger.Ledger

	phase         Phase
	current       catalog.Question
	lastFeedback  *Feedback
	questionStart time.Time
	startedAt     time.Time
	endedAt       time.Time
	abandoned     bool

	correct  int
	answered int
	concepts []history.ConceptAttempt
}

// New starts a session over pool and presents the first question.
func New(pool []catalog.Question, sel *selector.Selector, cfg Config) (*Session, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Mode == "" {
		cfg.Mode = history.ModeSmartDrill
	}
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = DefaultQuestionCount
	}
	if cfg.ModuleID == "" && len(pool) > 0 {
		cfg.ModuleID = pool[0].ModuleID
	}

	s := &Session{
		id:        uuid.NewString(),
		cfg:       cfg,
		sel:       sel,
		pool:      pool,
		startedAt: cfg.Now(),
	}
	if err := s.present(); err != nil {
		return nil, fmt.Errorf("start drill: %w", err)
	}
	return s, nil
}

func (s *Session) present() error {
	q, err := s.sel.Pick(s.pool, s.ledger)
	if err != nil {
		return err
	}
	s.current = q
	s.phase = PhasePresenting
	s.questionStart = s.cfg.Now()
	return nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Current returns the question being presented or given feedback on.
func (s *Session) Current() catalog.Question { return s.current }

// Ledger returns the session ledger.
func (s *Session) Ledger() ledger.Ledger { return s.ledger }

// LastFeedback returns the feedback for the most recent answer, if any.
func (s *Session) LastFeedback() *Feedback { return s.lastFeedback }

// Progress returns the number of answers so far and the session length.
func (s *Session) Progress() (answered, total int) {
	return s.answered, s.cfg.QuestionCount
}

// Score returns correct answers so far.
func (s *Session) Score() int { return s.correct }

// Remaining returns the time left, or -1 when the session has no time limit.
func (s *Session) Remaining() time.Duration {
	if s.cfg.TimeLimit <= 0 {
		return -1
	}
	left := s.cfg.TimeLimit - s.cfg.Now().Sub(s.startedAt)
	if left < 0 {
		return 0
	}
	return left
}

// TimeExpired reports whether the time budget is exhausted.
func (s *Session) TimeExpired() bool {
	return s.Remaining() == 0
}

// Answer records the chosen option for the presented question.
func (s *Session) Answer(option int) (Feedback, error) {
	if s.phase != PhasePresenting {
		return Feedback{}, ErrWrongPhase
	}
	if option < 0 || option >= len(s.current.Options) {
		return Feedback{}, fmt.Errorf("option %d out of range [0,%d)", option, len(s.current.Options))
	}

	now := s.cfg.Now()
	correct := s.current.IsCorrect(option)
	elapsed := now.Sub(s.questionStart)

	s.ledger = ledger.RecordAttempt(s.ledger, s.current.ID, correct, now)
	s.answered++
	if correct {
		s.correct++
	}
	s.concepts = append(s.concepts, history.ConceptAttempt{
		ConceptSlug:    s.current.ConceptSlug,
		ModuleID:       s.current.ModuleID,
		Correct:        correct,
		ResponseTimeMs: elapsed.Milliseconds(),
		AttemptedAt:    now,
	})

	fb := Feedback{Question: s.current, Chosen: option, Correct: correct, ResponseTime: elapsed}
	s.lastFeedback = &fb
	s.phase = PhaseFeedback
	return fb, nil
}

// Next leaves feedback and presents the next question, or completes the
// session when the question count or time budget is exhausted.
func (s *Session) Next() error {
	if s.phase != PhaseFeedback {
		return ErrWrongPhase
	}
	if s.answered >= s.cfg.QuestionCount || s.TimeExpired() {
		s.complete(false)
		return nil
	}
	return s.present()
}

// Abandon ends the session early and returns the partial result.
func (s *Session) Abandon() Result {
	if s.phase != PhaseComplete {
		s.complete(true)
	}
	return s.result()
}

// Result returns the write-back payload of a completed session.
func (s *Session) Result() (Result, error) {
	if s.phase != PhaseComplete {
		return Result{}, ErrWrongPhase
	}
	return s.result(), nil
}

func (s *Session) complete(abandoned bool) {
	s.phase = PhaseComplete
	s.abandoned = abandoned
	s.endedAt = s.cfg.Now()
}

func (s *Session) result() Result {
	score := 0.0
	if s.answered > 0 {
		score = math.Round(100 * float64(s.correct) / float64(s.answered))
	}
	concepts := make([]history.ConceptAttempt, len(s.concepts))
	copy(concepts, s.concepts)
	return Result{
		SessionID: s.id,
		Practice: history.PracticeAttempt{
			ModuleID: s.cfg.ModuleID,
			Mode:     s.cfg.Mode,
			Correct:  s.correct,
			Total:    s.answered,
			Score:    score,
			TakenAt:  s.endedAt,
		},
		Concepts:  concepts,
		Abandoned: s.abandoned,
		StartedAt: s.startedAt,
		EndedAt:   s.endedAt,
	}
}
