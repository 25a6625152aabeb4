package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/certprep/internal/history"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import attempt history from a JSON file",
	Long: `Import attempt history from a JSON file shaped like:

  {"learner_id": "...", "practice": [...], "tests": [...], "lessons": [...], "concepts": [...]}

Records are appended. When learner_id is empty the --learner value is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	h, err := readHistoryFile(args[0])
	if err != nil {
		return err
	}
	if h.LearnerID == "" {
		h.LearnerID = cfg.Learner
	}
	if err := h.Validate(); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if err := st.AttemptRepo().ImportHistory(ctx, h); err != nil {
		return fmt.Errorf("import history: %w", err)
	}
	invalidateCache(ctx, h.LearnerID)

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d practice, %d test, %d lesson and %d concept records for %s.\n",
		len(h.Practice), len(h.Tests), len(h.Lessons), len(h.Concepts), h.LearnerID)
	return nil
}

func readHistoryFile(path string) (history.History, error) {
	var h history.History
	f, err := os.Open(path)
	if err != nil {
		return h, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&h); err != nil {
		return h, fmt.Errorf("parse %s: %w", path, err)
	}
	return h, nil
}
