package passprob

import (
	"math"
	"sort"
	"time"

	"github.com/abhisek/certprep/internal/history"
)

type conceptScore struct {
	slug        string
	moduleID    string
	correct     int
	total       int
	lastCorrect time.Time
	score       float64
}

// conceptMemory scores each attempted concept as accuracy scaled by the decay
// of its last correct answer: accuracy% * (0.5 + 0.5*strength/100).
func conceptMemory(attempts []history.ConceptAttempt, now time.Time) map[string]*conceptScore {
	out := make(map[string]*conceptScore)
	for _, a := range attempts {
		cs, ok := out[a.ConceptSlug]
		if !ok {
			cs = &conceptScore{slug: a.ConceptSlug, moduleID: a.ModuleID}
			out[a.ConceptSlug] = cs
		}
		cs.total++
		if a.Correct {
			cs.correct++
			if a.AttemptedAt.After(cs.lastCorrect) {
				cs.lastCorrect = a.AttemptedAt
			}
		}
	}
	for _, cs := range out {
		acc := 100 * float64(cs.correct) / float64(cs.total)
		strength := float64(decayStrength(cs.lastCorrect, now))
		cs.score = acc * (0.5 + 0.5*strength/100)
	}
	return out
}

func (e *Estimator) weakConcepts(memory map[string]*conceptScore, concepts ConceptResolver, now time.Time) []WeakConcept {
	weak := make([]*conceptScore, 0)
	for _, cs := range memory {
		if cs.score < weakScore {
			weak = append(weak, cs)
		}
	}
	sort.Slice(weak, func(i, j int) bool {
		if weak[i].score != weak[j].score {
			return weak[i].score < weak[j].score
		}
		return weak[i].slug < weak[j].slug
	})
	if e.cfg.WeakConceptLimit > 0 && len(weak) > e.cfg.WeakConceptLimit {
		weak = weak[:e.cfg.WeakConceptLimit]
	}

	out := make([]WeakConcept, len(weak))
	for i, cs := range weak {
		wc := WeakConcept{
			Slug:        cs.slug,
			Name:        cs.slug,
			ModuleID:    cs.moduleID,
			MemoryScore: int(math.Round(cs.score)),
		}
		if !cs.lastCorrect.IsZero() {
			strength := decayStrength(cs.lastCorrect, now)
			wc.Strength = &strength
		}
		if concepts != nil {
			if c, ok := concepts.ResolveConcept(cs.slug); ok {
				wc.Name = c.Name
				wc.ModuleID = c.ModuleID
			}
		}
		out[i] = wc
	}
	return out
}
