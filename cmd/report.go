package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abhisek/certprep/internal/catalog"
	"github.com/abhisek/certprep/internal/coach"
	"github.com/abhisek/certprep/internal/decay"
	"github.com/abhisek/certprep/internal/llm"
	"github.com/abhisek/certprep/internal/passprob"
	"github.com/abhisek/certprep/internal/readiness"
	"github.com/abhisek/certprep/internal/store"
	"github.com/abhisek/certprep/internal/tui"
)

// snapshotsKept is how many report snapshots are retained per learner.
const snapshotsKept = 20

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show readiness and pass probability",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().Bool("coach", false, "Add study advice (uses the configured LLM provider)")
	reportCmd.Flags().Bool("json", false, "Print the report as JSON")
}

// report is the rendered output of the report command.
type report struct {
	Learner         string             `json:"learner"`
	Readiness       readiness.Snapshot `json:"readiness"`
	PassProbability passprob.Snapshot  `json:"pass_probability"`
	Previous        *store.Snapshot    `json:"previous,omitempty"`
	Advice          *coach.Advice      `json:"advice,omitempty"`
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	learner := cfg.Learner
	log := logger.WithFields(logrus.Fields{"learner": learner, "component": "report"})

	cat, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	h, err := st.AttemptRepo().LoadHistory(ctx, learner)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	now := time.Now()
	rep := report{
		Learner:         learner,
		Readiness:       readinessAggregator(cat).Compute(h, now),
		PassProbability: passprob.New(cfg.PassProb).Compute(h, cat, now),
	}

	snaps := st.SnapshotRepo()
	if rep.Previous, err = snaps.Latest(ctx, learner); err != nil {
		log.WithError(err).Warn("could not read previous snapshot")
	}
	if !h.IsEmpty() {
		snap := &store.Snapshot{
			LearnerID: learner,
			Timestamp: now,
			Data: store.SnapshotData{
				Version:         store.SnapshotVersion,
				Readiness:       rep.Readiness,
				PassProbability: rep.PassProbability,
			},
		}
		if err := snaps.Save(ctx, snap); err != nil {
			log.WithError(err).Warn("could not save snapshot")
		} else if err := snaps.Prune(ctx, learner, snapshotsKept); err != nil {
			log.WithError(err).Warn("could not prune snapshots")
		}
	}

	if withCoach, _ := cmd.Flags().GetBool("coach"); withCoach {
		var provider llm.Provider
		if cfg.LLM.Enabled() {
			provider, err = llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), log)
			if err != nil && !errors.Is(err, llm.ErrDisabled) {
				log.WithError(err).Warn("llm provider unavailable, using rule-based advice")
			}
		}
		advice := coach.New(provider, coach.Config{Timeout: cfg.LLM.Timeout}, log).Advise(ctx, coach.Input{
			Readiness:       rep.Readiness,
			PassProbability: rep.PassProbability,
			ModuleTitles:    moduleTitles(cat),
		})
		rep.Advice = &advice
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	printReport(cmd.OutOrStdout(), cat, rep)
	return nil
}

func moduleTitles(cat *catalog.Catalog) map[string]string {
	titles := make(map[string]string)
	for _, m := range cat.Modules() {
		titles[m.ID] = m.Title
	}
	return titles
}

func title(cat *catalog.Catalog, moduleID string) string {
	if m, ok := cat.Module(moduleID); ok {
		return m.Title
	}
	return moduleID
}

// delta formats the change from a previous value, or nothing.
func delta(cur, prev int, had bool) string {
	if !had || cur == prev {
		return ""
	}
	return fmt.Sprintf(" (%+d)", cur-prev)
}

func printReport(w io.Writer, cat *catalog.Catalog, rep report) {
	r, p := rep.Readiness, rep.PassProbability
	prev := rep.Previous

	fmt.Fprintf(w, "%s: report for %s\n\n", cat.Title(), rep.Learner)

	if r.InsufficientData {
		fmt.Fprintln(w, "Not enough activity yet to score readiness.")
		fmt.Fprintf(w, "Next: %s\n", r.NextAction.Message)
		printAdvice(w, rep.Advice)
		return
	}

	var prevR readiness.Snapshot
	var prevP passprob.Snapshot
	if prev != nil {
		prevR, prevP = prev.Data.Readiness, prev.Data.PassProbability
	}

	fmt.Fprintf(w, "Readiness       %3d/100%s  %s\n", r.Overall, delta(r.Overall, prevR.Overall, prev != nil), r.Tier)
	fmt.Fprintf(w, "  knowledge     %3d\n", r.Components.Knowledge)
	fmt.Fprintf(w, "  skills        %3d\n", r.Components.Skills)
	fmt.Fprintf(w, "  test ready    %3d\n", r.Components.TestReadiness)
	fmt.Fprintf(w, "  consistency   %3d\n", r.Components.Consistency)
	fmt.Fprintf(w, "  experience    %3d\n", r.Components.Experience)
	fmt.Fprintln(w)

	if p.InsufficientData {
		fmt.Fprintln(w, "Pass probability: not enough practice yet")
	} else {
		fmt.Fprintf(w, "Pass probability %3d%%%s  confidence %s\n", p.Probability, delta(p.Probability, prevP.Probability, prev != nil), p.Confidence)
		if p.DaysToReady != nil {
			if *p.DaysToReady == 0 {
				fmt.Fprintln(w, "  You are ready to book the exam.")
			} else {
				fmt.Fprintf(w, "  About %d days to ready at your current pace.\n", *p.DaysToReady)
			}
		}
	}
	fmt.Fprintf(w, "  concepts mastered %d/%d, study days %d", p.ConceptsMastered, p.ConceptsTotal, p.TotalStudyDays)
	if p.DaysSinceLastStudy != nil {
		fmt.Fprintf(w, ", last studied %d days ago", *p.DaysSinceLastStudy)
	}
	fmt.Fprintln(w)

	if len(r.WeakModules) > 0 {
		names := make([]string, len(r.WeakModules))
		for i, id := range r.WeakModules {
			names[i] = title(cat, id)
		}
		fmt.Fprintf(w, "\nWeak modules: %s\n", strings.Join(names, ", "))
	}
	if len(p.WeakConcepts) > 0 {
		fmt.Fprintln(w, "Weak concepts:")
		for _, c := range p.WeakConcepts {
			fmt.Fprintf(w, "  %-28s %s%s\n", c.Name, tui.RenderStrength(c.MemoryScore), weakConceptLabel(c))
		}
	}

	fmt.Fprintf(w, "\nNext: %s\n", r.NextAction.Message)
	printAdvice(w, rep.Advice)
}

// weakConceptLabel labels a weak concept by the decay strength of its last
// correct answer.
func weakConceptLabel(c passprob.WeakConcept) string {
	if c.Strength == nil {
		return "  Not answered correctly yet"
	}
	if l := decay.StrengthLabel(*c.Strength); l != nil {
		return "  " + *l
	}
	return "  Recently reviewed, accuracy is low"
}

func printAdvice(w io.Writer, a *coach.Advice) {
	if a == nil {
		return
	}
	fmt.Fprintf(w, "\nCoach: %s\n", a.Headline)
	if a.Summary != "" {
		fmt.Fprintf(w, "  %s\n", a.Summary)
	}
	for _, tip := range a.Tips {
		fmt.Fprintf(w, "  - %s\n", tip)
	}
}
