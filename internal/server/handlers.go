package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/abhisek/certprep/internal/apperr"
	"github.com/abhisek/certprep/internal/cache"
	"github.com/abhisek/certprep/internal/catalog"
	"github.com/abhisek/certprep/internal/decay"
	"github.com/abhisek/certprep/internal/history"
	"github.com/abhisek/certprep/internal/ledger"
	"github.com/abhisek/certprep/internal/passprob"
	"github.com/abhisek/certprep/internal/readiness"
)

type healthResponse struct {
	Status         string `json:"status"`
	CatalogVersion string `json:"catalog_version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok", CatalogVersion: s.deps.Catalog.Version()})
}

type moduleResponse struct {
	catalog.Module
	QuestionCount int `json:"question_count"`
}

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	mods := lo.Map(s.deps.Catalog.Modules(), func(m catalog.Module, _ int) moduleResponse {
		return moduleResponse{Module: m, QuestionCount: len(s.deps.Catalog.QuestionsForModule(m.ID))}
	})
	respondJSON(w, http.StatusOK, mods)
}

func (s *Server) handleModuleQuestions(w http.ResponseWriter, r *http.Request) {
	moduleID := chi.URLParam(r, "moduleID")
	if _, ok := s.deps.Catalog.Module(moduleID); !ok {
		s.respondError(w, r, fmt.Errorf("module %q: %w", moduleID, errNotFound))
		return
	}
	respondJSON(w, http.StatusOK, s.deps.Catalog.QuestionsForModule(moduleID))
}

type strengthResponse struct {
	Strength int        `json:"strength"`
	Band     decay.Band `json:"band"`
	Label    *string    `json:"label"`
}

func (s *Server) handleStrength(w http.ResponseWriter, r *http.Request) {
	strength, err := decay.CalculateDecayedStrength(r.URL.Query().Get("last_reviewed"), s.deps.Now())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, strengthResponse{
		Strength: strength,
		Band:     decay.StrengthColor(strength),
		Label:    decay.StrengthLabel(strength),
	})
}

type drillNextRequest struct {
	ModuleID string                       `json:"module_id"`
	Concepts []string                     `json:"concepts"`
	Ledger   []ledger.QuestionPerformance `json:"ledger"`
}

func (s *Server) handleDrillNext(w http.ResponseWriter, r *http.Request) {
	var req drillNextRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	var pool []catalog.Question
	switch {
	case req.ModuleID != "" && len(req.Concepts) > 0:
		s.respondError(w, r, apperr.Invalid("module_id", "give either module_id or concepts, not both"))
		return
	case req.ModuleID != "":
		if _, ok := s.deps.Catalog.Module(req.ModuleID); !ok {
			s.respondError(w, r, fmt.Errorf("module %q: %w", req.ModuleID, errNotFound))
			return
		}
		pool = s.deps.Catalog.QuestionsForModule(req.ModuleID)
	default:
		pool = s.deps.Catalog.QuestionsForConcepts(req.Concepts...)
	}

	for i, rec := range req.Ledger {
		if rec.QuestionID == "" || rec.Correct < 0 || rec.Wrong < 0 {
			s.respondError(w, r, apperr.Invalid(fmt.Sprintf("ledger[%d]", i), "needs a question_id and non-negative counts"))
			return
		}
	}

	s.selMu.Lock()
	q, err := s.deps.Selector.Pick(pool, ledger.New(req.Ledger...))
	s.selMu.Unlock()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (s *Server) loadHistory(r *http.Request) (history.History, error) {
	learnerID := chi.URLParam(r, "learnerID")
	h, err := s.deps.Attempts.LoadHistory(r.Context(), learnerID)
	if err != nil {
		return history.History{}, fmt.Errorf("load history for %s: %w", learnerID, err)
	}
	return h, nil
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	learnerID := chi.URLParam(r, "learnerID")
	key := cache.ReadinessKey(learnerID)

	var snap readiness.Snapshot
	if s.cached(r, key, &snap) {
		respondJSON(w, http.StatusOK, snap)
		return
	}

	h, err := s.loadHistory(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	snap = s.deps.Readiness.Compute(h, s.deps.Now())
	s.cacheSnapshot(r, key, snap)
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePassProbability(w http.ResponseWriter, r *http.Request) {
	learnerID := chi.URLParam(r, "learnerID")
	key := cache.PassProbabilityKey(learnerID)

	var snap passprob.Snapshot
	if s.cached(r, key, &snap) {
		respondJSON(w, http.StatusOK, snap)
		return
	}

	h, err := s.loadHistory(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	snap = s.deps.PassProb.Compute(h, s.deps.Concepts, s.deps.Now())
	s.cacheSnapshot(r, key, snap)
	respondJSON(w, http.StatusOK, snap)
}

// cached reads a snapshot from the cache. Cache failures are logged and
// treated as misses.
func (s *Server) cached(r *http.Request, key string, dst any) bool {
	hit, err := cache.GetJSON(r.Context(), s.deps.Cache, key, dst)
	if err != nil {
		s.deps.Logger.WithError(err).WithField("key", key).Warn("cache read failed")
		return false
	}
	return hit
}

func (s *Server) cacheSnapshot(r *http.Request, key string, v any) {
	if err := cache.SetJSON(r.Context(), s.deps.Cache, key, v, s.opts.CacheTTL); err != nil {
		s.deps.Logger.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

func (s *Server) invalidate(r *http.Request, learnerID string) {
	if err := cache.InvalidateLearner(r.Context(), s.deps.Cache, learnerID); err != nil {
		s.deps.Logger.WithError(err).WithField("learner", learnerID).Warn("cache invalidation failed")
	}
}

// record decodes a record, stamps a missing timestamp, validates it and
// writes it through save.
func record[T any](s *Server, w http.ResponseWriter, r *http.Request, stamp func(*T), validate func(T) error, save func(learnerID string, v T) error) {
	learnerID := chi.URLParam(r, "learnerID")

	var v T
	if err := decodeBody(r, &v); err != nil {
		s.respondError(w, r, err)
		return
	}
	stamp(&v)
	if err := validate(v); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := save(learnerID, v); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.invalidate(r, learnerID)
	respondJSON(w, http.StatusCreated, v)
}

func (s *Server) handleRecordPractice(w http.ResponseWriter, r *http.Request) {
	record(s, w, r,
		func(p *history.PracticeAttempt) {
			if p.TakenAt.IsZero() {
				p.TakenAt = s.deps.Now().UTC()
			}
		},
		history.PracticeAttempt.Validate,
		func(learnerID string, p history.PracticeAttempt) error {
			return s.deps.Attempts.RecordPractice(r.Context(), learnerID, p)
		})
}

func (s *Server) handleRecordTest(w http.ResponseWriter, r *http.Request) {
	record(s, w, r,
		func(t *history.ModuleTestResult) {
			if t.TakenAt.IsZero() {
				t.TakenAt = s.deps.Now().UTC()
			}
		},
		history.ModuleTestResult.Validate,
		func(learnerID string, t history.ModuleTestResult) error {
			return s.deps.Attempts.RecordTest(r.Context(), learnerID, t)
		})
}

func (s *Server) handleRecordLesson(w http.ResponseWriter, r *http.Request) {
	record(s, w, r,
		func(l *history.LessonCompletion) {
			if l.CompletedAt.IsZero() {
				l.CompletedAt = s.deps.Now().UTC()
			}
		},
		history.LessonCompletion.Validate,
		func(learnerID string, l history.LessonCompletion) error {
			return s.deps.Attempts.RecordLesson(r.Context(), learnerID, l)
		})
}

func (s *Server) handleRecordConcepts(w http.ResponseWriter, r *http.Request) {
	record(s, w, r,
		func(cs *[]history.ConceptAttempt) {
			for i := range *cs {
				if (*cs)[i].AttemptedAt.IsZero() {
					(*cs)[i].AttemptedAt = s.deps.Now().UTC()
				}
			}
		},
		func(cs []history.ConceptAttempt) error {
			if len(cs) == 0 {
				return apperr.Invalid("body", "no concept attempts")
			}
			return history.History{Concepts: cs}.Validate()
		},
		func(learnerID string, cs []history.ConceptAttempt) error {
			return s.deps.Attempts.RecordConcepts(r.Context(), learnerID, cs)
		})
}
