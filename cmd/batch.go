package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/batchio"
)

var (
	batchInput    string
	batchOutput   string
	batchOffering string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process a CSV or XLSX list of profile URLs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		urls, err := batchio.ReadURLs(batchInput)
		if err != nil {
			return err
		}
		if len(urls) == 0 {
			return eris.Errorf("no URLs found in %s", batchInput)
		}

		offering := batchOffering
		if offering == "" {
			offering = cfg.Outreach.Offering
		}

		env, err := initPipeline(ctx, offering)
		if err != nil {
			return err
		}
		defer env.Close()

		zap.L().Info("starting batch", zap.Int("urls", len(urls)), zap.String("input", batchInput))

		summary, runErr := env.Pipeline.Run(ctx, urls)
		if summary != nil {
			out, err := os.Create(batchOutput)
			if err != nil {
				return eris.Wrap(err, "create output file")
			}
			defer func() { _ = out.Close() }()

			if err := batchio.WriteResults(out, summary.Results); err != nil {
				return err
			}

			zap.L().Info("batch complete",
				zap.Int("success", summary.Success),
				zap.Int("partial", summary.Partial),
				zap.Int("failed", summary.Failed),
				zap.Int("saved", summary.Saved),
				zap.String("output", batchOutput),
			)
		}
		return runErr
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "input .csv or .xlsx with profile URLs (required)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "outreach_results.csv", "output CSV path")
	batchCmd.Flags().StringVar(&batchOffering, "offering", "", "what you are selling (default from config)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
