package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/certprep/internal/llm"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the study coach LLM configuration",
}

var llmStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configured provider and recorded request count",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !cfg.LLM.Enabled() {
			fmt.Fprintln(out, "Coach LLM: disabled (set CERTPREP_LLM_PROVIDER or a vendor API key)")
		} else {
			fmt.Fprintf(out, "Coach LLM: %s (%s)\n", cfg.LLM.Provider, modelFor(cfg.LLM))
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.EventRepo().LLMRequestCount(cmd.Context())
		if err != nil {
			return fmt.Errorf("count llm requests: %w", err)
		}
		fmt.Fprintf(out, "Recorded requests: %d\n", n)
		return nil
	},
}

func init() {
	llmCmd.AddCommand(llmStatusCmd)
}

func modelFor(c llm.Config) string {
	switch c.Provider {
	case llm.ProviderAnthropic:
		return c.Anthropic.Model
	case llm.ProviderOpenAI:
		return c.OpenAI.Model
	case llm.ProviderGemini:
		return c.Gemini.Model
	case llm.ProviderOpenRouter:
		return c.OpenRouter.Model
	}
	return c.Provider
}
