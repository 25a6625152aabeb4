// Package readiness combines a learner's attempt history into five component
// scores, an overall score and a tier.
package readiness

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/abhisek/certprep/internal/history"
)

// Tier is the learner-facing readiness band.
type Tier string

const (
	TierBeginner   Tier = "Beginner"
	TierDeveloping Tier = "Developing"
	TierCompetent  Tier = "Competent"
	TierProficient Tier = "Proficient"
	TierExpert     Tier = "Expert"
)

// Tiers lists every tier from lowest to highest.
var Tiers = []Tier{TierBeginner, TierDeveloping, TierCompetent, TierProficient, TierExpert}

// TierFor maps an overall score to its tier.
func TierFor(overall int) Tier {
	switch {
	case overall < 40:
		return TierBeginner
	case overall < 60:
		return TierDeveloping
	case overall < 75:
		return TierCompetent
	case overall < 90:
		return TierProficient
	default:
		return TierExpert
	}
}

// Components holds the five component scores, each 0-100.
type Components struct {
	Knowledge     int `json:"knowledge"`
	Skills        int `json:"skills"`
	TestReadiness int `json:"test_readiness"`
	Consistency   int `json:"consistency"`
	Experience    int `json:"experience"`
}

// ActionKind classifies a next-action recommendation.
type ActionKind string

const (
	ActionStartPractice ActionKind = "start-practice"
	ActionReviewLessons ActionKind = "review-lessons"
	ActionPractice      ActionKind = "practice"
	ActionTakeTest      ActionKind = "take-test"
	ActionBookExam      ActionKind = "book-exam"
)

// NextAction is the single most useful thing the learner should do next.
type NextAction struct {
	Kind     ActionKind `json:"kind"`
	ModuleID string     `json:"module_id,omitempty"`
	Message  string     `json:"message"`
}

// Snapshot is the result of a readiness computation.
type Snapshot struct {
	Components       Components `json:"components"`
	Overall          int        `json:"overall"`
	Tier             Tier       `json:"tier"`
	WeakModules      []string   `json:"weak_modules"`
	NextAction       NextAction `json:"next_action"`
	InsufficientData bool       `json:"insufficient_data"`
}

// Weights are the component contributions to the overall score. They sum to 1.
type Weights struct {
	Knowledge     float64 `mapstructure:"knowledge"`
	Skills        float64 `mapstructure:"skills"`
	TestReadiness float64 `mapstructure:"test_readiness"`
	Consistency   float64 `mapstructure:"consistency"`
	Experience    float64 `mapstructure:"experience"`
}

const weightSumTolerance = 1e-6

// Sum returns the total of all component weights.
func (w Weights) Sum() float64 {
	return w.Knowledge + w.Skills + w.TestReadiness + w.Consistency + w.Experience
}

// Validate rejects negative weights and weights that do not sum to 1.
func (w Weights) Validate() error {
	named := []struct {
		name string
		v    float64
	}{
		{"knowledge", w.Knowledge},
		{"skills", w.Skills},
		{"test_readiness", w.TestReadiness},
		{"consistency", w.Consistency},
		{"experience", w.Experience},
	}
	for _, n := range named {
		if n.v < 0 {
			return fmt.Errorf("weights.%s must not be negative", n.name)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("weights must sum to 1, got %.4g", sum)
	}
	return nil
}

// Config tunes the aggregator.
type Config struct {
	Weights Weights `mapstructure:"weights"`

	// PassThreshold is the score percent that counts as a pass.
	PassThreshold float64 `mapstructure:"pass_threshold"`

	// ModuleOrder is the course order used for test gating. When empty,
	// modules present in the history are used in id order.
	ModuleOrder []string `mapstructure:"module_order"`
}

// Defaults for Config.
const (
	DefaultPassThreshold  = 80.0
	unpassedTestScale     = 0.75
	consistencyWindowDays = 28
	consistencyTargetDays = 14.0
	gapGraceDays          = 2
	gapPenaltyPerDay      = 5.0
	gapPenaltyCap         = 50.0
	weakModuleRatio       = 0.85
	lowScore              = 60
)

// DefaultWeights returns the documented component weights.
func DefaultWeights() Weights {
	return Weights{
		Knowledge:     0.30,
		Skills:        0.15,
		TestReadiness: 0.25,
		Consistency:   0.15,
		Experience:    0.15,
	}
}

// DefaultConfig returns the default aggregator configuration.
func DefaultConfig() Config {
	return Config{Weights: DefaultWeights(), PassThreshold: DefaultPassThreshold}
}

// Aggregator computes readiness snapshots.
type Aggregator struct {
	cfg Config
}

// New creates an Aggregator. Zero fields in cfg fall back to defaults.
func New(cfg Config) *Aggregator {
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}
	if cfg.PassThreshold <= 0 {
		cfg.PassThreshold = DefaultPassThreshold
	}
	return &Aggregator{cfg: cfg}
}

// ComputeReadiness computes a snapshot with the default configuration.
func ComputeReadiness(h history.History, now time.Time) Snapshot {
	return New(DefaultConfig()).Compute(h, now)
}

// Compute aggregates h as of now. An empty history yields a zeroed Beginner
// snapshot flagged InsufficientData.
func (a *Aggregator) Compute(h history.History, now time.Time) Snapshot {
	order := a.moduleOrder(h)
	if h.IsEmpty() {
		return Snapshot{
			Tier:             TierBeginner,
			WeakModules:      []string{},
			NextAction:       startPractice(order),
			InsufficientData: true,
		}
	}

	moduleAcc := moduleAccuracy(h)
	c := Components{
		Knowledge:     round(knowledge(moduleAcc)),
		Skills:        round(a.skills(h)),
		TestReadiness: round(a.testReadiness(h, order)),
		Consistency:   round(consistency(h, now)),
		Experience:    round(experience(h)),
	}

	w := a.cfg.Weights
	overall := w.Knowledge*float64(c.Knowledge) +
		w.Skills*float64(c.Skills) +
		w.TestReadiness*float64(c.TestReadiness) +
		w.Consistency*float64(c.Consistency) +
		w.Experience*float64(c.Experience)
	o := clamp(round(overall))

	weak := weakModules(moduleAcc)
	return Snapshot{
		Components:       c,
		Overall:          o,
		Tier:             TierFor(o),
		WeakModules:      weak,
		NextAction:       a.nextAction(h, c, weak, order),
		InsufficientData: len(h.Practice) == 0 && len(h.Tests) == 0 && len(h.Concepts) == 0,
	}
}

func (a *Aggregator) moduleOrder(h history.History) []string {
	if len(a.cfg.ModuleOrder) > 0 {
		return a.cfg.ModuleOrder
	}
	return h.ModuleIDs()
}

// moduleAccuracy returns the mean practice and test score of each module.
func moduleAccuracy(h history.History) map[string]float64 {
	scores := make(map[string][]float64)
	for _, p := range h.Practice {
		scores[p.ModuleID] = append(scores[p.ModuleID], p.Score)
	}
	for _, r := range h.Tests {
		scores[r.ModuleID] = append(scores[r.ModuleID], r.Score)
	}
	return lo.MapValues(scores, func(s []float64, _ string) float64 { return mean(s) })
}

func knowledge(moduleAcc map[string]float64) float64 {
	if len(moduleAcc) == 0 {
		return 0
	}
	return mean(lo.Values(moduleAcc))
}

// skillModes are the practice formats that demonstrate exam skills.
var skillModes = []history.Mode{history.ModeFullQuiz, history.ModeSmartDrill, history.ModeSpeedChallenge}

func (a *Aggregator) skills(h history.History) float64 {
	credit := 0.0
	for _, mode := range skillModes {
		attempts := lo.Filter(h.Practice, func(p history.PracticeAttempt, _ int) bool { return p.Mode == mode })
		switch {
		case lo.SomeBy(attempts, func(p history.PracticeAttempt) bool { return p.Score >= a.cfg.PassThreshold }):
			credit += 1
		case len(attempts) > 0:
			credit += 0.5
		}
	}
	return 100 * credit / float64(len(skillModes))
}

func (a *Aggregator) testReadiness(h history.History, order []string) float64 {
	best := make(map[string]float64)
	for _, r := range h.Tests {
		if s, ok := best[r.ModuleID]; !ok || r.Score > s {
			best[r.ModuleID] = r.Score
		}
	}
	modules := order
	if len(modules) == 0 {
		modules = lo.Keys(best)
	}
	if len(modules) == 0 {
		return 0
	}
	total := 0.0
	for _, id := range modules {
		s := best[id]
		if s < a.cfg.PassThreshold {
			s *= unpassedTestScale
		}
		total += s
	}
	return total / float64(len(modules))
}

func consistency(h history.History, now time.Time) float64 {
	windowStart := history.Day(now).AddDate(0, 0, -(consistencyWindowDays - 1))
	active := lo.CountBy(h.StudyDays(), func(d time.Time) bool {
		return !d.Before(windowStart) && !d.After(now)
	})
	score := math.Min(100, 100*float64(active)/consistencyTargetDays)

	if last, ok := h.LastActivity(); ok {
		if gap := history.DaysSince(last, now) - gapGraceDays; gap > 0 {
			score -= math.Min(gapPenaltyCap, gapPenaltyPerDay*float64(gap))
		}
	}
	return math.Max(0, score)
}

func experience(h history.History) float64 {
	answered := float64(h.QuestionsAnswered())
	days := float64(len(h.StudyDays()))
	return 70*(1-math.Exp(-answered/200)) + 30*(1-math.Exp(-days/14))
}

// weakModules returns modules whose accuracy falls below weakModuleRatio of the
// learner's own average, worst first.
func weakModules(moduleAcc map[string]float64) []string {
	weak := []string{}
	if len(moduleAcc) < 2 {
		return weak
	}
	avg := knowledge(moduleAcc)
	for id, acc := range moduleAcc {
		if acc < weakModuleRatio*avg {
			weak = append(weak, id)
		}
	}
	sort.Slice(weak, func(i, j int) bool {
		ai, aj := moduleAcc[weak[i]], moduleAcc[weak[j]]
		if ai != aj {
			return ai < aj
		}
		return weak[i] < weak[j]
	})
	return weak
}

func (a *Aggregator) nextAction(h history.History, c Components, weak, order []string) NextAction {
	if len(h.Practice) == 0 && len(h.Tests) == 0 && len(h.Concepts) == 0 {
		return startPractice(order)
	}
	if len(weak) > 0 && c.Knowledge < lowScore {
		return NextAction{
			Kind:     ActionReviewLessons,
			ModuleID: weak[0],
			Message:  "Revisit the lessons for your weakest module before practising again.",
		}
	}
	next, ok := a.nextUnpassed(h, order)
	if c.TestReadiness < lowScore {
		target := next
		if len(weak) > 0 {
			target = weak[0]
		}
		return NextAction{
			Kind:     ActionPractice,
			ModuleID: target,
			Message:  "Keep practising to build test confidence.",
		}
	}
	if !ok {
		return NextAction{
			Kind:    ActionBookExam,
			Message: "Every module test is passed. You are ready to book the exam.",
		}
	}
	return NextAction{
		Kind:     ActionTakeTest,
		ModuleID: next,
		Message:  "Take the module test to unlock the next module.",
	}
}

// nextUnpassed returns the first module in order without a passed test.
func (a *Aggregator) nextUnpassed(h history.History, order []string) (string, bool) {
	passed := make(map[string]bool)
	for _, r := range h.Tests {
		if r.Passed || r.Score >= a.cfg.PassThreshold {
			passed[r.ModuleID] = true
		}
	}
	return lo.Find(order, func(id string) bool { return !passed[id] })
}

func startPractice(order []string) NextAction {
	na := NextAction{
		Kind:    ActionStartPractice,
		Message: "Start a practice session to get your first readiness score.",
	}
	if len(order) > 0 {
		na.ModuleID = order[0]
	}
	return na
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func round(x float64) int {
	return int(math.Round(x))
}

func clamp(x int) int {
	return max(0, min(100, x))
}
