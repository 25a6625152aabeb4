// Package selector picks the next drill question with a weighted random
// policy that favours unseen, wrong and stale questions.
package selector

import (
	"math/rand/v2"
	"time"

	"github.com/abhisek/certprep/internal/apperr"
	"github.com/abhisek/certprep/internal/catalog"
	"github.com/abhisek/certprep/internal/ledger"
)

// Default weights. A question never attempted outweighs any correctly answered
// one, whose weight stays within [1, 2].
const (
	UnseenWeight     = 10.0
	StrugglingWeight = 6.0
	MixedWeight      = 3.0
	RepeatPenalty    = 0.1
	StaleAfter       = 10 * time.Minute
)

// Weights tunes the selection policy.
type Weights struct {
	Unseen        float64
	Struggling    float64 // wrong > correct
	Mixed         float64 // wrong == correct > 0
	RepeatPenalty float64 // multiplier for the previous question
	StaleAfter    time.Duration
}

// DefaultWeights returns the documented default policy.
func DefaultWeights() Weights {
	return Weights{
		Unseen:        UnseenWeight,
		Struggling:    StrugglingWeight,
		Mixed:         MixedWeight,
		RepeatPenalty: RepeatPenalty,
		StaleAfter:    StaleAfter,
	}
}

// withDefaults replaces each non-positive field with its default, keeping every
// question's weight above zero.
func (w Weights) withDefaults() Weights {
	def := DefaultWeights()
	if w.Unseen <= 0 {
		w.Unseen = def.Unseen
	}
	if w.Struggling <= 0 {
		w.Struggling = def.Struggling
	}
	if w.Mixed <= 0 {
		w.Mixed = def.Mixed
	}
	if w.RepeatPenalty <= 0 {
		w.RepeatPenalty = def.RepeatPenalty
	}
	if w.StaleAfter <= 0 {
		w.StaleAfter = def.StaleAfter
	}
	return w
}

// Config configures a Selector. Zero fields fall back to defaults.
type Config struct {
	Weights Weights
	Rand    *rand.Rand
	Now     func() time.Time
}

// Selector draws questions from a pool. It is not safe for concurrent use
// because it owns its random source.
type Selector struct {
	w   Weights
	rng *rand.Rand
	now func() time.Time
}

// New creates a Selector.
func New(cfg Config) *Selector {
	cfg.Weights = cfg.Weights.withDefaults()
	if cfg.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		cfg.Rand = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Selector{w: cfg.Weights, rng: cfg.Rand, now: cfg.Now}
}

// PickNextDrillQuestion picks from questions with a time-seeded Selector.
func PickNextDrillQuestion(questions []catalog.Question, l ledger.Ledger) (catalog.Question, error) {
	return New(Config{}).Pick(questions, l)
}

// Pick returns the next question to present. An empty pool is an
// *apperr.InvalidInput; a single-question pool always returns that question.
func (s *Selector) Pick(questions []catalog.Question, l ledger.Ledger) (catalog.Question, error) {
	switch len(questions) {
	case 0:
		return catalog.Question{}, apperr.Invalid("questions", "question pool is empty")
	case 1:
		return questions[0], nil
	}

	weights := s.Weights(questions, l)
	total := 0.0
	for _, w := range weights {
		total += w
	}

	r := s.rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return questions[i], nil
		}
	}
	// Float rounding can leave r at exactly zero after the last subtraction.
	return questions[len(questions)-1], nil
}

// Weights returns the selection weight of each question, aligned with questions.
func (s *Selector) Weights(questions []catalog.Question, l ledger.Ledger) []float64 {
	now := s.now()
	prevID := ""
	if len(questions) > 1 {
		if prev, ok := l.MostRecent(); ok && !prev.LastSeen.IsZero() {
			prevID = prev.QuestionID
		}
	}

	out := make([]float64, len(questions))
	for i, q := range questions {
		rec, seen := l.Get(q.ID)
		w := s.baseWeight(rec, seen, now)
		if q.ID == prevID {
			w *= s.w.RepeatPenalty
		}
		out[i] = w
	}
	return out
}

func (s *Selector) baseWeight(rec ledger.QuestionPerformance, seen bool, now time.Time) float64 {
	switch {
	case !seen || rec.Attempts() == 0:
		return s.w.Unseen
	case rec.Wrong > rec.Correct:
		return s.w.Struggling
	case rec.Wrong == rec.Correct:
		return s.w.Mixed
	default:
		return 1 + s.staleness(rec.LastSeen, now)
	}
}

// staleness grows linearly from 0 at lastSeen to 1 after StaleAfter.
func (s *Selector) staleness(lastSeen, now time.Time) float64 {
	if s.w.StaleAfter <= 0 || lastSeen.IsZero() {
		return 1
	}
	elapsed := now.Sub(lastSeen)
	if elapsed <= 0 {
		return 0
	}
	f := float64(elapsed) / float64(s.w.StaleAfter)
	if f > 1 {
		return 1
	}
	return f
}
