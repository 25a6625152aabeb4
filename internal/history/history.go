// Package history defines the persisted attempt-history records that feed the
// readiness and pass-probability aggregators. Records are decoded into these
// types and validated at the boundary, so aggregators never inspect shapes at
// runtime.
package history

import (
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/certprep/internal/apperr"
)

// Mode identifies the practice format an attempt was taken in.
type Mode string

const (
	ModeFullQuiz       Mode = "full-quiz"
	ModeSmartDrill     Mode = "smart-drill"
	ModeSpeedChallenge Mode = "speed-challenge"
	ModeQuickPractice  Mode = "quick-practice"
	ModeBoost          Mode = "boost"
)

// AllModes lists every recognised practice mode.
var AllModes = []Mode{ModeFullQuiz, ModeSmartDrill, ModeSpeedChallenge, ModeQuickPractice, ModeBoost}

// Valid reports whether m is a recognised mode.
func (m Mode) Valid() bool {
	for _, v := range AllModes {
		if m == v {
			return true
		}
	}
	return false
}

// PracticeAttempt is one completed practice session within a module.
type PracticeAttempt struct {
	ModuleID string    `json:"module_id"`
	Mode     Mode      `json:"mode"`
	Correct  int       `json:"correct"`
	Total    int       `json:"total"`
	Score    float64   `json:"score"`
	TakenAt  time.Time `json:"taken_at"`
}

// Accuracy returns the fraction of questions answered correctly.
func (p PracticeAttempt) Accuracy() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Correct) / float64(p.Total)
}

// ModuleTestResult is one attempt at a module's gating test.
type ModuleTestResult struct {
	ModuleID string    `json:"module_id"`
	Passed   bool      `json:"passed"`
	Score    float64   `json:"score"`
	TakenAt  time.Time `json:"taken_at"`
}

// LessonCompletion records a finished lesson.
type LessonCompletion struct {
	ModuleID    string    `json:"module_id"`
	LessonID    string    `json:"lesson_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// ConceptAttempt is a single answered question tagged with its concept.
type ConceptAttempt struct {
	ConceptSlug    string    `json:"concept"`
	ModuleID       string    `json:"module_id"`
	Correct        bool      `json:"correct"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	AttemptedAt    time.Time `json:"attempted_at"`
}

// History is everything recorded for one learner.
type History struct {
	LearnerID string             `json:"learner_id"`
	Practice  []PracticeAttempt  `json:"practice"`
	Tests     []ModuleTestResult `json:"tests"`
	Lessons   []LessonCompletion `json:"lessons"`
	Concepts  []ConceptAttempt   `json:"concepts"`
}

// IsEmpty reports whether the learner has any recorded activity.
func (h History) IsEmpty() bool {
	return len(h.Practice) == 0 && len(h.Tests) == 0 && len(h.Lessons) == 0 && len(h.Concepts) == 0
}

// Validate checks every record and returns the first problem found as an
// *apperr.InvalidInput.
func (h History) Validate() error {
	for i, p := range h.Practice {
		if err := p.Validate(); err != nil {
			return wrapIndex("practice", i, err)
		}
	}
	for i, r := range h.Tests {
		if err := r.Validate(); err != nil {
			return wrapIndex("tests", i, err)
		}
	}
	for i, l := range h.Lessons {
		if err := l.Validate(); err != nil {
			return wrapIndex("lessons", i, err)
		}
	}
	for i, c := range h.Concepts {
		if err := c.Validate(); err != nil {
			return wrapIndex("concepts", i, err)
		}
	}
	return nil
}

// Validate checks a practice attempt.
func (p PracticeAttempt) Validate() error {
	switch {
	case p.ModuleID == "":
		return apperr.Invalid("module_id", "must not be empty")
	case !p.Mode.Valid():
		return apperr.Invalid("mode", fmt.Sprintf("unknown mode %q", p.Mode))
	case p.Total < 0 || p.Correct < 0:
		return apperr.Invalid("correct", "counts must not be negative")
	case p.Correct > p.Total:
		return apperr.Invalid("correct", "exceeds total")
	case !validScore(p.Score):
		return apperr.Invalid("score", "must be within 0-100")
	case p.TakenAt.IsZero():
		return apperr.Invalid("taken_at", "must be set")
	}
	return nil
}

// Validate checks a test result.
func (r ModuleTestResult) Validate() error {
	switch {
	case r.ModuleID == "":
		return apperr.Invalid("module_id", "must not be empty")
	case !validScore(r.Score):
		return apperr.Invalid("score", "must be within 0-100")
	case r.TakenAt.IsZero():
		return apperr.Invalid("taken_at", "must be set")
	}
	return nil
}

// Validate checks a lesson completion.
func (l LessonCompletion) Validate() error {
	switch {
	case l.ModuleID == "":
		return apperr.Invalid("module_id", "must not be empty")
	case l.LessonID == "":
		return apperr.Invalid("lesson_id", "must not be empty")
	case l.CompletedAt.IsZero():
		return apperr.Invalid("completed_at", "must be set")
	}
	return nil
}

// Validate checks a concept attempt.
func (c ConceptAttempt) Validate() error {
	switch {
	case c.ConceptSlug == "":
		return apperr.Invalid("concept", "must not be empty")
	case c.ModuleID == "":
		return apperr.Invalid("module_id", "must not be empty")
	case c.ResponseTimeMs < 0:
		return apperr.Invalid("response_time_ms", "must not be negative")
	case c.AttemptedAt.IsZero():
		return apperr.Invalid("attempted_at", "must be set")
	}
	return nil
}

func validScore(s float64) bool {
	return s >= 0 && s <= 100
}

func wrapIndex(list string, i int, err error) error {
	var inv *apperr.InvalidInput
	if errors.As(err, &inv) {
		inv.Field = fmt.Sprintf("%s[%d].%s", list, i, inv.Field)
		return inv
	}
	return err
}
