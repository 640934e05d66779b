package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-extractor/internal/config"
	"github.com/jonathan/resume-extractor/internal/extract"
	"github.com/jonathan/resume-extractor/internal/ingest"
	"github.com/jonathan/resume-extractor/internal/llm"
	"github.com/jonathan/resume-extractor/internal/observability"
	"github.com/jonathan/resume-extractor/internal/pipeline"
)

var extractCommand = &cobra.Command{
	Use:   "extract [paths...]",
	Short: "Extract candidate records from resume files",
	Long: `Reads resume files (or directories of them), sends their text to the completion service in batches, and writes one structured record per resume as JSON.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtractCmd,
}

var (
	extractConfigPath     string
	extractOutPath        string
	extractAPIKey         string
	extractProvider       string
	extractModel          string
	extractBaseURL        string
	extractMaxAttempts    int
	extractBatchSize      int
	extractMaxWorkers     int
	extractChunkTimeout   int
	extractRequestTimeout int
	extractRateLimitRPS   float64
	extractMinPhoneDigits int
	extractVerbose        bool
)

func init() {
	// Config file flag (processed first)
	extractCommand.Flags().StringVar(&extractConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	extractCommand.Flags().StringVarP(&extractOutPath, "out", "o", "", "Write the JSON report to this file (default stdout)")
	extractCommand.Flags().StringVar(&extractProvider, "provider", "", "Completion provider: openrouter or gemini")
	extractCommand.Flags().StringVar(&extractModel, "model", "", "Model identifier")
	extractCommand.Flags().StringVar(&extractBaseURL, "base-url", "", "Chat-completions endpoint override (openrouter only)")
	extractCommand.Flags().IntVar(&extractMaxAttempts, "max-attempts", 0, "Completion attempts per chunk before giving up")
	extractCommand.Flags().IntVar(&extractBatchSize, "batch-size", 0, "Resumes sent per completion call")
	extractCommand.Flags().IntVar(&extractMaxWorkers, "max-workers", 0, "Concurrent chunks in flight")
	extractCommand.Flags().IntVar(&extractChunkTimeout, "chunk-timeout", 0, "Per-chunk timeout in seconds")
	extractCommand.Flags().IntVar(&extractRequestTimeout, "request-timeout", 0, "Single completion call timeout in seconds")
	extractCommand.Flags().Float64Var(&extractRateLimitRPS, "rate-limit", 0, "Completion calls per second (0 disables limiting)")
	extractCommand.Flags().IntVar(&extractMinPhoneDigits, "min-phone-digits", 0, "Digits required before a model phone number beats the fallback")
	extractCommand.Flags().BoolVarP(&extractVerbose, "verbose", "v", false, "Print detailed progress and per-record output")

	// API key can be passed as a flag, or read from the provider env var
	extractCommand.Flags().StringVar(&extractAPIKey, "api-key", "", "API key (defaults to OPENROUTER_API_KEY or GEMINI_API_KEY)")

	rootCmd.AddCommand(extractCommand)
}

func runExtractCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if extractConfigPath != "" {
		loadedCfg, err := config.LoadConfig(extractConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
		if extractVerbose {
			_, _ = fmt.Fprintf(os.Stderr, "Loaded config from: %s\n", extractConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = extractAPIKey
	}
	if cmd.Flags().Changed("provider") {
		cfg.Provider = extractProvider
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = extractModel
	}
	if cmd.Flags().Changed("base-url") {
		cfg.BaseURL = extractBaseURL
	}
	if cmd.Flags().Changed("max-attempts") {
		cfg.MaxAttempts = extractMaxAttempts
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize = extractBatchSize
	}
	if cmd.Flags().Changed("max-workers") {
		cfg.MaxWorkers = extractMaxWorkers
	}
	if cmd.Flags().Changed("chunk-timeout") {
		cfg.ChunkTimeout = extractChunkTimeout
	}
	if cmd.Flags().Changed("request-timeout") {
		cfg.RequestTimeout = extractRequestTimeout
	}
	if cmd.Flags().Changed("rate-limit") {
		cfg.RateLimitRPS = extractRateLimitRPS
	}
	if cmd.Flags().Changed("min-phone-digits") {
		cfg.MinPhoneDigits = extractMinPhoneDigits
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = extractVerbose
	}

	// Step 3: Apply defaults for unset values
	defaults := config.Config{
		Provider:       string(llm.ProviderOpenRouter),
		Model:          llm.DefaultOpenRouterModel,
		MaxAttempts:    3,
		BatchSize:      5,
		MaxWorkers:     4,
		ChunkTimeout:   180,
		MinPhoneDigits: extract.DefaultMinPhoneDigits,
	}
	cfg = cfg.MergeWithDefaults(defaults)

	if err := cfg.Validate(); err != nil {
		return err
	}

	// Step 4: API key handling
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(apiKeyEnvVar(cfg.Provider))
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("%s environment variable or --api-key flag is required", apiKeyEnvVar(cfg.Provider))
	}

	// Step 5: Read input documents
	docs, err := ingest.LoadDocuments(args)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no supported resume files found in the given paths")
	}

	// Step 6: Build client and pipeline
	clientCfg := llm.DefaultClientConfig()
	clientCfg.Provider = llm.Provider(cfg.Provider)
	if cfg.Model != "" {
		clientCfg.Model = cfg.Model
	}
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.RequestTimeout > 0 {
		clientCfg.RequestTimeout = cfg.RequestTimeoutDuration()
	}

	client, err := llm.NewClient(ctx, clientCfg, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}
	defer func() { _ = client.Close() }()

	printer := observability.NewPrinter(os.Stderr)

	opts := pipeline.Options{
		MaxAttempts:  cfg.MaxAttempts,
		BatchSize:    cfg.BatchSize,
		MaxWorkers:   cfg.MaxWorkers,
		ChunkTimeout: cfg.ChunkTimeoutDuration(),
		RateLimitRPS: cfg.RateLimitRPS,
		Fallback:     extract.FallbackOptions{MinPhoneDigits: cfg.MinPhoneDigits},
	}
	if cfg.Verbose {
		opts.OnProgress = printer.Progress
	}

	p := pipeline.New(client, opts)

	// Step 7: Run and report
	report := p.ExtractBatch(ctx, docs)

	if cfg.Verbose {
		for _, res := range report.Results {
			printer.PrintRecord(res.Filename, res.Record)
		}
		printer.PrintReport(report)
	}
	printer.PrintBatchSummary(report, p.Calls())

	out := os.Stdout
	if extractOutPath != "" {
		f, err := os.Create(extractOutPath)
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
	if extractOutPath != "" && cfg.Verbose {
		_, _ = fmt.Fprintf(os.Stderr, "Report written to: %s\n", extractOutPath)
	}
	return nil
}

func apiKeyEnvVar(provider string) string {
	if provider == string(llm.ProviderGemini) {
		return "GEMINI_API_KEY"
	}
	return "OPENROUTER_API_KEY"
}
