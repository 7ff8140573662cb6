package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/scraper"
)

var (
	runURL      string
	runFile     string
	runOffering string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process a single profile URL or document",
	Long:  "Processes one capture end to end. Pass --url for a live profile page, or --file for a PDF, DOCX, or text document (use \"-\" to read pasted text from stdin).",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if (runURL == "") == (runFile == "") {
			return eris.New("exactly one of --url or --file is required")
		}

		offering := runOffering
		if offering == "" {
			offering = cfg.Outreach.Offering
		}

		env, err := initPipeline(ctx, offering)
		if err != nil {
			return err
		}
		defer env.Close()

		var result model.BatchItemResult
		if runFile != "" {
			text, label, err := readCaptureFile(runFile)
			if err != nil {
				return err
			}
			result = env.Pipeline.ProcessText(ctx, text, label)
		} else {
			if err := env.Scraper.Init(ctx); err != nil {
				return eris.Wrap(err, "init scraper")
			}
			result = env.Pipeline.ProcessProfile(ctx, runURL)
		}

		zap.L().Info("profile processed",
			zap.String("url", result.URL),
			zap.String("name", result.Name),
			zap.String("status", result.Status),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return eris.Wrap(err, "encode result")
		}

		if result.Status != model.BatchStatusSuccess {
			return eris.Errorf("profile not fully processed: %s", result.Status)
		}
		return nil
	},
}

// readCaptureFile loads a document for text processing. "-" reads
// pasted text from stdin.
func readCaptureFile(path string) (text, label string, err error) {
	if path == "-" {
		buf, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", eris.Wrap(err, "read stdin")
		}
		return string(buf), "pasted text", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", "", eris.Wrap(err, "open document")
	}
	defer func() { _ = f.Close() }()

	text, err = scraper.ExtractDocumentText(f, path)
	if err != nil {
		return "", "", err
	}
	return text, filepath.Base(path), nil
}

func init() {
	runCmd.Flags().StringVar(&runURL, "url", "", "profile URL to process")
	runCmd.Flags().StringVar(&runFile, "file", "", "document to process instead of a URL (\"-\" for stdin)")
	runCmd.Flags().StringVar(&runOffering, "offering", "", "what you are selling (default from config)")
	rootCmd.AddCommand(runCmd)
}
