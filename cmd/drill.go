package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abhisek/certprep/internal/catalog"
	"github.com/abhisek/certprep/internal/drill"
	"github.com/abhisek/certprep/internal/history"
	"github.com/abhisek/certprep/internal/passprob"
	"github.com/abhisek/certprep/internal/selector"
	"github.com/abhisek/certprep/internal/store"
	"github.com/abhisek/certprep/internal/tui"
)

var drillCmd = &cobra.Command{
	Use:   "drill",
	Short: "Start an adaptive practice drill in the terminal",
	RunE:  runDrill,
}

func init() {
	addDrillFlags(drillCmd)
}

func addDrillFlags(c *cobra.Command) {
	f := c.Flags()
	f.String("module", "", "Module id to drill (default: configured or first module)")
	f.Int("questions", 0, "Number of questions (default from config)")
	f.Duration("time-limit", 0, "Time limit, e.g. 5m (0 for none)")
	f.String("mode", string(history.ModeSmartDrill), "Practice mode recorded with the result")
	f.Bool("boost", false, "Drill the weakest concepts across all modules")
}

func runDrill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	learner := cfg.Learner
	log := logger.WithFields(logrus.Fields{"learner": learner, "component": "drill"})

	cat, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	dcfg, pool, title, err := planDrill(ctx, cmd, cat, st.AttemptRepo(), learner)
	if err != nil {
		return err
	}

	sess, err := drill.New(pool, selector.New(selector.Config{}), dcfg)
	if err != nil {
		return err
	}
	log = log.WithField("session", sess.ID())
	log.WithFields(logrus.Fields{"pool": len(pool), "mode": dcfg.Mode}).Debug("drill started")

	sessions := st.SessionRepo()
	started := time.Now()
	if err := sessions.AppendSessionEvent(ctx, store.SessionEventData{
		SessionID: sess.ID(),
		LearnerID: learner,
		Action:    store.SessionStart,
		ModuleID:  dcfg.ModuleID,
		Mode:      dcfg.Mode,
		Timestamp: started,
	}); err != nil {
		log.WithError(err).Warn("failed to record session start")
	}

	res, runErr := tui.Run(sess, title)

	if err := recordResult(ctx, st.AttemptRepo(), learner, res); err != nil {
		return err
	}
	if err := sessions.AppendSessionEvent(ctx, sessionEndEvent(learner, res)); err != nil {
		log.WithError(err).Warn("failed to record session end")
	}
	if !res.Empty() {
		invalidateCache(ctx, learner)
	}

	printDrillSummary(cmd.OutOrStdout(), res)
	return runErr
}

// planDrill resolves the drill configuration, question pool and title from
// flags and config.
func planDrill(ctx context.Context, cmd *cobra.Command, cat *catalog.Catalog, attempts store.AttemptRepo, learner string) (drill.Config, []catalog.Question, string, error) {
	f := cmd.Flags()
	moduleID, _ := f.GetString("module")
	questions, _ := f.GetInt("questions")
	limit, _ := f.GetDuration("time-limit")
	modeFlag, _ := f.GetString("mode")
	boost, _ := f.GetBool("boost")

	if questions <= 0 {
		questions = cfg.Drill.Questions
	}
	if !f.Changed("time-limit") {
		limit = cfg.Drill.TimeLimit
	}
	dcfg := drill.Config{QuestionCount: questions, TimeLimit: limit, Mode: history.Mode(modeFlag)}
	if !dcfg.Mode.Valid() {
		return dcfg, nil, "", fmt.Errorf("unknown mode %q", modeFlag)
	}

	if boost {
		h, err := attempts.LoadHistory(ctx, learner)
		if err != nil {
			return dcfg, nil, "", fmt.Errorf("load history: %w", err)
		}
		snap := passprob.New(cfg.PassProb).Compute(h, cat, time.Now())
		pool := catalog.BoostPool(cat, snap.WeakSlugs(), cfg.Drill.BoostSize)
		if len(pool) == 0 {
			return dcfg, nil, "", fmt.Errorf("no weak concepts to boost yet; run a regular drill first")
		}
		dcfg.Mode = history.ModeBoost
		if snap.WeakestModule != nil {
			dcfg.ModuleID = *snap.WeakestModule
		}
		if dcfg.QuestionCount > len(pool) {
			dcfg.QuestionCount = len(pool)
		}
		return dcfg, pool, "Boost", nil
	}

	if moduleID == "" {
		moduleID = cfg.Drill.Module
	}
	if moduleID == "" {
		order := cat.ModuleOrder()
		if len(order) == 0 {
			return dcfg, nil, "", fmt.Errorf("catalog has no modules")
		}
		moduleID = order[0]
	}
	m, ok := cat.Module(moduleID)
	if !ok {
		return dcfg, nil, "", fmt.Errorf("unknown module %q", moduleID)
	}
	dcfg.ModuleID = m.ID
	return dcfg, cat.QuestionsForModule(m.ID), m.Title, nil
}

// recordResult writes a drill result back to the store. A session with no
// answers records nothing.
func recordResult(ctx context.Context, attempts store.AttemptRepo, learner string, res drill.Result) error {
	if res.Empty() {
		return nil
	}
	for _, p := range res.PracticeByModule() {
		if err := attempts.RecordPractice(ctx, learner, p); err != nil {
			return fmt.Errorf("save practice attempt: %w", err)
		}
	}
	if err := attempts.RecordConcepts(ctx, learner, res.Concepts); err != nil {
		return fmt.Errorf("save concept attempts: %w", err)
	}
	return nil
}

func sessionEndEvent(learner string, res drill.Result) store.SessionEventData {
	action := store.SessionEnd
	if res.Abandoned {
		action = store.SessionAbandon
	}
	return store.SessionEventData{
		SessionID:       res.SessionID,
		LearnerID:       learner,
		Action:          action,
		ModuleID:        res.Practice.ModuleID,
		Mode:            res.Practice.Mode,
		QuestionsServed: res.Practice.Total,
		CorrectAnswers:  res.Practice.Correct,
		DurationSecs:    int(res.EndedAt.Sub(res.StartedAt).Seconds()),
		Timestamp:       res.EndedAt,
	}
}

func printDrillSummary(w io.Writer, res drill.Result) {
	if res.Empty() {
		fmt.Fprintln(w, "No questions answered; nothing recorded.")
		return
	}
	status := "Drill complete"
	if res.Abandoned {
		status = "Drill ended early"
	}
	fmt.Fprintf(w, "%s: %d/%d correct (%.0f%%)\n", status, res.Practice.Correct, res.Practice.Total, res.Practice.Score)
	fmt.Fprintln(w, "Run `certprep report` to see your readiness.")
}
