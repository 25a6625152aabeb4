package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/certprep/internal/decay"
	"github.com/abhisek/certprep/internal/tui"
)

var strengthCmd = &cobra.Command{
	Use:   "strength <last-reviewed>",
	Short: "Show the decayed strength of a concept last reviewed at an ISO-8601 time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := decay.CalculateDecayedStrength(args[0], time.Now())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Strength %s  %s\n", tui.RenderStrength(s), decay.StrengthColor(s))
		if label := decay.StrengthLabel(s); label != nil {
			fmt.Fprintln(out, *label)
		}
		return nil
	},
}
