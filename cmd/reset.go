package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all recorded data for the learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to delete data for %q without --yes", cfg.Learner)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		if err := st.AttemptRepo().DeleteLearner(ctx, cfg.Learner); err != nil {
			return fmt.Errorf("reset learner: %w", err)
		}
		invalidateCache(ctx, cfg.Learner)

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted all data for %s.\n", cfg.Learner)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm deletion")
}
