package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docrank/internal/config"
	"docrank/internal/domain"
	"docrank/internal/embedding"
	"docrank/internal/extract"
	"docrank/internal/logging"
	"docrank/internal/query"
	"docrank/internal/service"
	"docrank/internal/telemetry"
)

var runOpts struct {
	input    string
	output   string
	persona  string
	embedder string
	topK     int
	workers  int
	logLevel string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Rank pages and write the report",
	Long: `Extract every PDF in the input directory, rank its pages against the
persona and job read from the persona file, and write the report.

The persona file is JSON with "persona" and "job_to_be_done", each either a
string or an object such as {"role": "..."} and {"task": "..."}.

Exit status is 2 for configuration errors and 1 for any other failure. No
report is written when the run fails.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	bindRunFlags(runCmd)
}

func bindRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&runOpts.input, "input", "i", "", "Input directory with PDF files")
	f.StringVarP(&runOpts.output, "output", "o", "", "Output directory for the report")
	f.StringVarP(&runOpts.persona, "persona", "p", "", "Persona JSON file (relative to the input directory)")
	f.StringVar(&runOpts.embedder, "embedder", "", "Embedder: tfidf, openai or fastembed")
	f.IntVarP(&runOpts.topK, "top-k", "k", 0, "Number of pages in the report")
	f.IntVarP(&runOpts.workers, "workers", "w", 0, "Documents extracted in parallel")
	f.StringVar(&runOpts.logLevel, "log-level", "", "Log level: trace, debug, info, warn or error")
}

// applyRunFlags overrides cfg with flags given on the command line.
func applyRunFlags(cmd *cobra.Command, cfg *config.AppConfig) {
	f := cmd.Flags()
	if f.Changed("input") {
		cfg.Input.Dir = runOpts.input
	}
	if f.Changed("output") {
		cfg.Output.Dir = runOpts.output
	}
	if f.Changed("persona") {
		cfg.Input.PersonaFile = runOpts.persona
	}
	if f.Changed("embedder") {
		cfg.Embedder.Type = runOpts.embedder
	}
	if f.Changed("top-k") {
		cfg.Ranking.TopK = runOpts.topK
	}
	if f.Changed("workers") {
		cfg.Extraction.Workers = runOpts.workers
	}
	if f.Changed("log-level") {
		cfg.Logging.Level = runOpts.logLevel
	}
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, cfgSource, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	defer logging.Sync(logger)
	logger, runID := logging.WithRunID(logger)
	logger.Debug("config loaded", zap.String("path", cfgSource), zap.String("embedder", cfg.Embedder.Type))

	persona, job, err := config.LoadPersona(cfg.PersonaPath())
	if err != nil {
		return err
	}
	if err := extract.CheckAvailable(cfg.Extraction.Tool); err != nil {
		return fmt.Errorf("%w: %w\n%s", domain.ErrConfiguration, err, extract.InstallInstructions())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel := telemetry.New()
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn("failed to shut down telemetry", zap.Error(err))
		}
	}()

	emb, closeEmbedder, err := newEmbedder(cfg.Embedder, tel.Meter(embedding.InstrumentationName), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeEmbedder(); err != nil {
			logger.Warn("failed to release embedder", zap.Error(err))
		}
	}()

	writer, err := newReportWriter(ctx, cfg.Output, logger)
	if err != nil {
		return err
	}

	source := extract.New(extract.Options{
		Tool:     cfg.Extraction.Tool,
		MinChars: cfg.Extraction.MinChars,
		Timeout:  time.Duration(cfg.Extraction.TimeoutSecs) * time.Second,
	})
	pipeline := service.NewPipeline(source, emb, writer, logger, service.Options{
		InputDir:  cfg.Input.Dir,
		TopK:      cfg.Ranking.TopK,
		Workers:   cfg.Extraction.Workers,
		BatchSize: cfg.Ranking.BatchSize,
	})

	summary, err := pipeline.Run(ctx, query.Build(persona, job))
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), runID, summary, embeddingUsage(ctx, tel, logger))
	return nil
}

// embeddingUsage reads the embedding totals recorded during the run.
func embeddingUsage(ctx context.Context, tel *telemetry.Telemetry, logger *zap.Logger) embedding.Usage {
	rm, err := tel.Collect(ctx)
	if err != nil {
		logger.Warn("failed to collect embedding metrics", zap.Error(err))
		return embedding.Usage{}
	}
	return embedding.UsageFrom(rm)
}

func printSummary(w io.Writer, runID string, s *service.RunSummary, u embedding.Usage) {
	fmt.Fprintf(w, "Run:       %s\n", runID)
	fmt.Fprintf(w, "Documents: %d processed, %d failed\n", s.Documents-s.DocumentsFailed, s.DocumentsFailed)
	fmt.Fprintf(w, "Pages:     %d ranked, %d dropped\n", s.PagesRanked, s.PagesDropped)
	fmt.Fprintf(w, "Embedding: %d calls, %d texts, %d errors in %s\n", u.Calls, u.Texts, u.Errors, u.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Sections:  %d\n", len(s.Report.ExtractedSections))
	fmt.Fprintf(w, "Report:    %s\n", s.Location)
}
