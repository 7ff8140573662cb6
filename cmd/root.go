package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/kb"
	"github.com/sells-group/outreach-cli/internal/normalize"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "outreach-cli",
	Short: "Profile-driven outreach campaign generator",
	Long:  "Scrapes professional profiles, extracts structured records via a local LLM, and generates personalized multi-channel outreach campaigns backed by a prospect knowledge base.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		if cfg.Outreach.KeywordsFile != "" {
			kw, err := config.LoadKeywords(cfg.Outreach.KeywordsFile)
			if err != nil {
				return fmt.Errorf("load keywords: %w", err)
			}
			kb.SetKeywords(kw.Bootcamp, kw.Talent, kw.Devtool, kw.Education)
			normalize.AddNoisePrefixes(kw.Noise)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
