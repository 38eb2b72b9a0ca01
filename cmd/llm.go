package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sapprep/internal/llm"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect tutor LLM configuration and usage",
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		modelUsage, err := e.backend.EventRepo().LLMUsageByModel(cmd.Context())
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(modelUsage) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}

		fmt.Println("Estimated Cost (USD)")
		fmt.Println(strings.Repeat("─", 84))
		fmt.Printf("%-12s  %-28s  %6s  %6s  %8s  %8s  %9s\n",
			"Provider", "Model", "Calls", "Failed", "Input", "Output", "Cost")
		fmt.Println(strings.Repeat("─", 84))

		var totalCost float64
		var totalCalls, totalIn, totalOut int
		var unknownModels []string
		for _, mu := range modelUsage {
			totalCalls += mu.Requests
			totalIn += mu.InputTokens
			totalOut += mu.OutputTokens

			cost := "?"
			if c := llm.LookupCost(mu.Model); c != nil {
				v := c.Cost(mu.InputTokens, mu.OutputTokens)
				totalCost += v
				cost = formatCost(v)
			} else {
				unknownModels = append(unknownModels, mu.Model)
			}
			fmt.Printf("%-12s  %-28s  %6d  %6d  %8d  %8d  %9s\n",
				mu.Provider, truncate(mu.Model, 28), mu.Requests, mu.Failures, mu.InputTokens, mu.OutputTokens, cost)
		}

		fmt.Println(strings.Repeat("─", 84))
		label := "TOTAL"
		if len(unknownModels) > 0 {
			label = "TOTAL (partial)"
		}
		fmt.Printf("%-42s  %6d  %6s  %8d  %8d  %9s\n",
			label, totalCalls, "", totalIn, totalOut, formatCost(totalCost))

		if len(unknownModels) > 0 {
			fmt.Printf("\nPricing unavailable for: %s\n", strings.Join(unknownModels, ", "))
		}
		return nil
	},
}

var llmCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that a tutor provider is configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		source := "config"
		llmCfg := cfg.LLM
		if !llmCfg.HasKey() {
			discovered, ok := llm.DiscoverConfig()
			if !ok {
				return fmt.Errorf("no LLM provider configured: %w", llmCfg.Validate())
			}
			llmCfg, source = discovered, "environment"
		}
		fmt.Printf("Provider: %s (from %s)\n", llmCfg.Provider, source)
		fmt.Printf("Model:    %s\n", llmCfg.Model())
		if c := llm.LookupCost(llmCfg.Model()); c != nil {
			fmt.Printf("Pricing:  $%.2f in / $%.2f out per 1M tokens\n", c.InputPerMTok, c.OutputPerMTok)
		}
		return nil
	},
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmCmd.AddCommand(llmStatsCmd)
	llmCmd.AddCommand(llmCheckCmd)
}
