package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-extractor/internal/batch"
	"github.com/jonathan/resume-extractor/internal/extract"
	"github.com/jonathan/resume-extractor/internal/ingest"
	"github.com/jonathan/resume-extractor/internal/observability"
	"github.com/jonathan/resume-extractor/internal/pipeline"
	"github.com/jonathan/resume-extractor/internal/schema"
)

var fallbackCommand = &cobra.Command{
	Use:   "fallback [paths...]",
	Short: "Extract records using only the offline regex heuristics",
	Long:  "Runs the deterministic fallback extractor without calling the completion service. Useful for smoke-testing inputs and for air-gapped runs.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFallbackCmd,
}

var (
	fallbackOutPath        string
	fallbackMinPhoneDigits int
	fallbackVerbose        bool
)

func init() {
	fallbackCommand.Flags().StringVarP(&fallbackOutPath, "out", "o", "", "Write the JSON report to this file (default stdout)")
	fallbackCommand.Flags().IntVar(&fallbackMinPhoneDigits, "min-phone-digits", extract.DefaultMinPhoneDigits, "Digits required for a phone match to count")
	fallbackCommand.Flags().BoolVarP(&fallbackVerbose, "verbose", "v", false, "Print per-record output")

	rootCmd.AddCommand(fallbackCommand)
}

func runFallbackCmd(_ *cobra.Command, args []string) error {
	docs, err := ingest.LoadDocuments(args)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no supported resume files found in the given paths")
	}

	fallbackOpts := extract.FallbackOptions{MinPhoneDigits: fallbackMinPhoneDigits}

	report := &pipeline.Report{
		RunID:   uuid.New(),
		Results: make([]pipeline.DocumentResult, len(docs)),
	}
	for i, doc := range docs {
		record := extract.EnrichWithOptions(schema.Empty(), doc.Text, fallbackOpts)
		outcome := batch.OutcomeOK
		if record.IsEmpty() {
			outcome = batch.OutcomeParseFailed
		}
		report.Results[i] = pipeline.DocumentResult{
			Filename: doc.Filename,
			Record:   record,
			Outcome:  outcome,
		}
	}

	printer := observability.NewPrinter(os.Stderr)
	if fallbackVerbose {
		for _, res := range report.Results {
			printer.PrintRecord(res.Filename, res.Record)
		}
	}
	printer.PrintBatchSummary(report, 0)

	out := os.Stdout
	if fallbackOutPath != "" {
		f, err := os.Create(fallbackOutPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	sink := &pipeline.JSONSink{Out: out}
	if err := sink.Write(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
