// Package passprob estimates how likely a learner is to pass the certification
// exam from recent accuracy, answer speed, concept memory and trend.
package passprob

import (
	"math"
	"sort"
	"time"

	"github.com/abhisek/certprep/internal/catalog"
	"github.com/abhisek/certprep/internal/decay"
	"github.com/abhisek/certprep/internal/history"
)

// Confidence describes how much evidence backs a probability.
type Confidence string

const (
	ConfidenceLow      Confidence = "Low"
	ConfidenceModerate Confidence = "Moderate"
	ConfidenceHigh     Confidence = "High"
	ConfidenceVeryHigh Confidence = "Very High"
)

// ConceptResolver resolves concept slugs to catalog concepts.
// *catalog.Catalog and *catalog.ConceptCache both satisfy it.
type ConceptResolver interface {
	ResolveConcept(slug string) (catalog.Concept, bool)
	ConceptCount() int
}

// WeakConcept is a concept whose memory score is below the weak threshold.
// Strength is the decay strength of the last correct answer, nil when the
// concept has never been answered correctly.
type WeakConcept struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	ModuleID    string `json:"module_id"`
	MemoryScore int    `json:"memory_score"`
	Strength    *int   `json:"strength"`
}

// Snapshot is the result of a pass-probability estimate.
type Snapshot struct {
	Probability        int           `json:"probability"`
	Confidence         Confidence    `json:"confidence"`
	WeakestModule      *string       `json:"weakest_module"`
	WeakConcepts       []WeakConcept `json:"weak_concepts"`
	DaysToReady        *int          `json:"days_to_ready"`
	AvgResponseMs      int64         `json:"avg_response_ms"`
	TotalStudyDays     int           `json:"total_study_days"`
	DaysSinceLastStudy *int          `json:"days_since_last_study"`
	ConceptsMastered   int           `json:"concepts_mastered"`
	ConceptsTotal      int           `json:"concepts_total"`
	InsufficientData   bool          `json:"insufficient_data"`
}

// WeakSlugs returns the weak concept slugs, worst first.
func (s Snapshot) WeakSlugs() []string {
	slugs := make([]string, len(s.WeakConcepts))
	for i, w := range s.WeakConcepts {
		slugs[i] = w.Slug
	}
	return slugs
}

// Config tunes the estimator.
type Config struct {
	// TargetResponseMs is the per-question answer time expected in the exam.
	TargetResponseMs int64 `mapstructure:"target_response_ms"`

	// ReadyAccuracy is the session accuracy percent that counts as exam ready.
	ReadyAccuracy float64 `mapstructure:"ready_accuracy"`

	// ReadyProbability is the probability at which a learner is ready.
	ReadyProbability int `mapstructure:"ready_probability"`

	// RecencyHalfLifeDays controls how quickly old sessions lose weight.
	RecencyHalfLifeDays float64 `mapstructure:"recency_half_life_days"`

	// WeakConceptLimit caps the weak concept list. Zero means no cap.
	WeakConceptLimit int `mapstructure:"weak_concept_limit"`
}

const (
	masteredScore    = 70.0
	weakScore        = 60.0
	maxDaysToReady   = 365
	trendClamp       = 0.05
	readyWindow      = 3
	sigmoidSteepness = 10.0
	sigmoidMidpoint  = 0.65
)

// DefaultConfig returns the default estimator configuration.
func DefaultConfig() Config {
	return Config{
		TargetResponseMs:    20000,
		ReadyAccuracy:       80,
		ReadyProbability:    80,
		RecencyHalfLifeDays: 7,
		WeakConceptLimit:    5,
	}
}

// Estimator computes pass-probability snapshots.
type Estimator struct {
	cfg Config
}

// New creates an Estimator. Zero fields in cfg fall back to defaults.
func New(cfg Config) *Estimator {
	def := DefaultConfig()
	if cfg.TargetResponseMs <= 0 {
		cfg.TargetResponseMs = def.TargetResponseMs
	}
	if cfg.ReadyAccuracy <= 0 {
		cfg.ReadyAccuracy = def.ReadyAccuracy
	}
	if cfg.ReadyProbability <= 0 {
		cfg.ReadyProbability = def.ReadyProbability
	}
	if cfg.RecencyHalfLifeDays <= 0 {
		cfg.RecencyHalfLifeDays = def.RecencyHalfLifeDays
	}
	return &Estimator{cfg: cfg}
}

// ComputePassProbability estimates with the default configuration.
func ComputePassProbability(h history.History, concepts ConceptResolver, now time.Time) Snapshot {
	return New(DefaultConfig()).Compute(h, concepts, now)
}

// Compute estimates the pass probability for h as of now. concepts may be nil,
// or a nil *catalog.Catalog or *catalog.ConceptCache, in which case concept names fall back to slugs and the total counts only
// attempted concepts.
func (e *Estimator) Compute(h history.History, concepts ConceptResolver, now time.Time) Snapshot {
	snap := Snapshot{
		Confidence:     ConfidenceLow,
		WeakConcepts:   []WeakConcept{},
		TotalStudyDays: len(h.StudyDays()),
	}
	if last, ok := h.LastActivity(); ok {
		d := history.DaysSince(last, now)
		snap.DaysSinceLastStudy = &d
	}

	points := dailyPoints(h)
	memory := conceptMemory(h.Concepts, now)
	snap.ConceptsTotal = len(memory)
	if concepts != nil && concepts.ConceptCount() > snap.ConceptsTotal {
		snap.ConceptsTotal = concepts.ConceptCount()
	}
	if len(points) == 0 {
		snap.InsufficientData = true
		return snap
	}

	acc := e.recentAccuracy(points, now)
	avgMs, speed := e.speedCredit(h.Concepts)
	slope := trend(points)

	for _, m := range memory {
		if m.score >= masteredScore {
			snap.ConceptsMastered++
		}
	}
	mastery := 0.0
	if snap.ConceptsTotal > 0 {
		mastery = float64(snap.ConceptsMastered) / float64(snap.ConceptsTotal)
	}

	x := 0.6*acc + 0.15*speed + 0.25*mastery + clampf(slope, -trendClamp, trendClamp) - sigmoidMidpoint
	snap.Probability = int(math.Round(100 * sigmoid(sigmoidSteepness*x)))
	snap.AvgResponseMs = avgMs
	snap.Confidence = confidence(h.QuestionsAnswered(), snap.DaysSinceLastStudy)
	snap.WeakestModule = weakestModule(h)
	snap.WeakConcepts = e.weakConcepts(memory, concepts, now)
	snap.DaysToReady = e.daysToReady(points, acc, slope, snap.Probability)
	return snap
}

// point is the accuracy of one UTC study day. weight counts answers, or one
// per score-only session or module test.
type point struct {
	day    time.Time
	hits   float64
	weight float64
}

func (p point) accuracy() float64 {
	return p.hits / p.weight
}

// evidence returns the correct fraction and weight a practice attempt
// contributes. Score-only attempts count as a single answer at Score%.
func evidence(p history.PracticeAttempt) (hits, weight float64) {
	if p.Total > 0 {
		return float64(p.Correct), float64(p.Total)
	}
	return p.Score / 100, 1
}

// dailyPoints groups evidence by UTC day. Days with practice sessions or
// module tests use those; concept attempts fill in days without one.
func dailyPoints(h history.History) []point {
	sessions := make(map[time.Time]*point)
	add := func(m map[time.Time]*point, t time.Time, hits, weight float64) {
		d := history.Day(t)
		pt, ok := m[d]
		if !ok {
			pt = &point{day: d}
			m[d] = pt
		}
		pt.hits += hits
		pt.weight += weight
	}
	for _, p := range h.Practice {
		hits, weight := evidence(p)
		add(sessions, p.TakenAt, hits, weight)
	}
	for _, r := range h.Tests {
		add(sessions, r.TakenAt, r.Score/100, 1)
	}
	concept := make(map[time.Time]*point)
	for _, c := range h.Concepts {
		if _, ok := sessions[history.Day(c.AttemptedAt)]; ok {
			continue
		}
		hits := 0.0
		if c.Correct {
			hits = 1
		}
		add(concept, c.AttemptedAt, hits, 1)
	}

	out := make([]point, 0, len(sessions)+len(concept))
	for _, pt := range sessions {
		out = append(out, *pt)
	}
	for _, pt := range concept {
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].day.Before(out[j].day) })
	return out
}

// recentAccuracy weights each day by its answer count and an exponential
// recency decay.
func (e *Estimator) recentAccuracy(points []point, now time.Time) float64 {
	var num, den float64
	for _, p := range points {
		age := float64(history.DaysSince(p.day, now))
		w := math.Pow(0.5, age/e.cfg.RecencyHalfLifeDays) * p.weight
		num += w * p.accuracy()
		den += w
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// speedCredit returns the mean response time and a 0-1 credit against the
// target. Without timing data the credit is neutral.
func (e *Estimator) speedCredit(attempts []history.ConceptAttempt) (int64, float64) {
	var sum, n int64
	for _, a := range attempts {
		if a.ResponseTimeMs > 0 {
			sum += a.ResponseTimeMs
			n++
		}
	}
	if n == 0 {
		return 0, 0.5
	}
	avg := sum / n
	target := float64(e.cfg.TargetResponseMs)
	fast, slow := target/2, 2*target
	switch {
	case float64(avg) <= fast:
		return avg, 1
	case float64(avg) >= slow:
		return avg, 0
	default:
		return avg, (slow - float64(avg)) / (slow - fast)
	}
}

// trend is the least-squares slope of daily accuracy per day.
func trend(points []point) float64 {
	if len(points) < 2 {
		return 0
	}
	origin := points[0].day
	var sx, sy, sxx, sxy float64
	n := float64(len(points))
	for _, p := range points {
		x := p.day.Sub(origin).Hours() / 24
		y := p.accuracy()
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}

func (e *Estimator) daysToReady(points []point, acc, slope float64, probability int) *int {
	zero := 0
	ready := e.cfg.ReadyAccuracy / 100
	if len(points) >= readyWindow {
		allReady := true
		for _, p := range points[len(points)-readyWindow:] {
			if p.accuracy() < ready {
				allReady = false
				break
			}
		}
		if allReady {
			return &zero
		}
	}
	if probability >= e.cfg.ReadyProbability {
		return &zero
	}
	if len(points) < readyWindow || slope <= 0 {
		return nil
	}
	gap := ready - acc
	if gap <= 0 {
		return &zero
	}
	days := int(math.Ceil(gap / slope))
	if days > maxDaysToReady {
		return nil
	}
	return &days
}

func confidence(answered int, daysSince *int) Confidence {
	stale := 0
	if daysSince != nil {
		stale = *daysSince
	}
	switch {
	case answered < 50 || stale > 14:
		return ConfidenceLow
	case answered < 150 || stale > 7:
		return ConfidenceModerate
	case answered < 400:
		return ConfidenceHigh
	default:
		return ConfidenceVeryHigh
	}
}

// weakestModule returns the module with the lowest accuracy across practice,
// module tests and concept attempts.
func weakestModule(h history.History) *string {
	type tally struct{ hits, weight float64 }
	byModule := make(map[string]*tally)
	add := func(id string, hits, weight float64) {
		t, ok := byModule[id]
		if !ok {
			t = &tally{}
			byModule[id] = t
		}
		t.hits += hits
		t.weight += weight
	}
	for _, p := range h.Practice {
		hits, weight := evidence(p)
		add(p.ModuleID, hits, weight)
	}
	for _, r := range h.Tests {
		add(r.ModuleID, r.Score/100, 1)
	}
	for _, c := range h.Concepts {
		hits := 0.0
		if c.Correct {
			hits = 1
		}
		add(c.ModuleID, hits, 1)
	}

	var weakest string
	worst := math.Inf(1)
	for id, t := range byModule {
		if t.weight == 0 {
			continue
		}
		acc := t.hits / t.weight
		if acc < worst || (acc == worst && id < weakest) {
			worst, weakest = acc, id
		}
	}
	if weakest == "" {
		return nil
	}
	return &weakest
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clampf(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// decayStrength is the memory strength of a concept last answered correctly
// at lastCorrect. A concept never answered correctly has no strength.
func decayStrength(lastCorrect, now time.Time) int {
	if lastCorrect.IsZero() {
		return 0
	}
	return decay.Strength(lastCorrect, now)
}
