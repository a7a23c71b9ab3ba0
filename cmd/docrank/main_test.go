package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"docrank/internal/config"
	"docrank/internal/domain"
	"docrank/internal/embedding"
	"docrank/internal/report"
	"docrank/internal/service"
	"docrank/internal/telemetry"
)

var noopMeter = noop.NewMeterProvider().Meter("test")

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitConfig, exitCode(fmt.Errorf("%w: bad", domain.ErrConfiguration)))
	assert.Equal(t, exitError, exitCode(domain.ErrNoDocumentsExtracted))
	assert.Equal(t, exitError, exitCode(fmt.Errorf("%w: boom", domain.ErrQueryEmbedding)))
	assert.Equal(t, exitError, exitCode(errors.New("anything")))
}

func TestApplyRunFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	bindRunFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--input", "./docs", "-k", "3", "--embedder", "openai"}))

	cfg := config.Default()
	applyRunFlags(cmd, cfg)
	assert.Equal(t, "./docs", cfg.Input.Dir)
	assert.Equal(t, 3, cfg.Ranking.TopK)
	assert.Equal(t, "openai", cfg.Embedder.Type)
	assert.Equal(t, "/app/output", cfg.Output.Dir, "unset flags keep config values")
	assert.Equal(t, 1, cfg.Extraction.Workers)
}

func TestNewEmbedder(t *testing.T) {
	emb, release, err := newEmbedder(config.EmbedderConfig{Type: config.EmbedderTFIDF}, noopMeter, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "tfidf", emb.Name())
	assert.NoError(t, release())

	_, _, err = newEmbedder(config.EmbedderConfig{Type: "word2vec"}, noopMeter, zap.NewNop())
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewEmbedder_OpenAIMissingKey(t *testing.T) {
	t.Setenv("DOCRANK_TEST_OPENAI_KEY", "")
	_, _, err := newEmbedder(config.EmbedderConfig{
		Type:   config.EmbedderOpenAI,
		OpenAI: &config.OpenAIEmbedderConfig{APIKeyEnv: "DOCRANK_TEST_OPENAI_KEY"},
	}, noopMeter, zap.NewNop())
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewEmbedder_OpenAISelfHosted(t *testing.T) {
	emb, _, err := newEmbedder(config.EmbedderConfig{
		Type:   config.EmbedderOpenAI,
		OpenAI: &config.OpenAIEmbedderConfig{BaseURL: "http://localhost:11434/v1", Model: "nomic-embed-text", APIKeyEnv: "DOCRANK_UNSET_KEY"},
	}, noopMeter, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "openai:nomic-embed-text", emb.Name())
}

func TestEmbeddingUsage_CountsInstrumentedCalls(t *testing.T) {
	tel := telemetry.New()
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	emb, _, err := newEmbedder(config.EmbedderConfig{Type: config.EmbedderTFIDF}, tel.Meter(embedding.InstrumentationName), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, emb.Prepare([]string{"beach trip for friends", "wine tasting in provence"}))

	ctx := context.Background()
	for _, text := range []string{"beach trip", "wine tasting", "friends"} {
		_, err := emb.Embed(ctx, text)
		require.NoError(t, err)
	}

	u := embeddingUsage(ctx, tel, zap.NewNop())
	assert.Equal(t, int64(3), u.Calls)
	assert.Equal(t, int64(3), u.Texts)
	assert.Zero(t, u.Errors)
}

func TestEmbeddingUsage_AfterShutdown(t *testing.T) {
	tel := telemetry.New()
	require.NoError(t, tel.Shutdown(context.Background()))
	assert.Zero(t, embeddingUsage(context.Background(), tel, zap.NewNop()))
}

func TestNewReportWriter_LocalOnly(t *testing.T) {
	w, err := newReportWriter(context.Background(), config.OutputConfig{Dir: t.TempDir(), FileName: "results.json"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &report.FileWriter{}, w)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, "3f0c1a52-4b8e-4d7a-9a51-0c5e2b7d9e10", &service.RunSummary{
		Documents:       3,
		DocumentsFailed: 1,
		PagesRanked:     12,
		PagesDropped:    2,
		Location:        "/app/output/results.json",
		Report:          domain.Report{ExtractedSections: make([]domain.ExtractedSection, 5)},
	}, embedding.Usage{Calls: 2, Texts: 13, Errors: 1, Duration: 1500 * time.Millisecond})
	out := buf.String()
	assert.Contains(t, out, "Run:       3f0c1a52-4b8e-4d7a-9a51-0c5e2b7d9e10")
	assert.Contains(t, out, "2 calls, 13 texts, 1 errors in 1.5s")
	assert.Contains(t, out, "2 processed, 1 failed")
	assert.Contains(t, out, "12 ranked, 2 dropped")
	assert.Contains(t, out, "Sections:  5")
	assert.Contains(t, out, "/app/output/results.json")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docrank", "config.yaml")
	prevPath, prevForce := cfgPath, forceInit
	t.Cleanup(func() { cfgPath, forceInit = prevPath, prevForce })
	cfgPath, forceInit = path, false

	var out bytes.Buffer
	configInitCmd.SetOut(&out)
	configInitCmd.SetErr(&out)

	require.NoError(t, runConfigInit(configInitCmd, nil))
	assert.Contains(t, out.String(), path)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	err = runConfigInit(configInitCmd, nil)
	assert.ErrorContains(t, err, "already exists")

	forceInit = true
	assert.NoError(t, runConfigInit(configInitCmd, nil))
}

func TestRun_MissingPersonaIsConfigError(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Input.Dir = filepath.Join(dir, "input")
	cfg.Output.Dir = filepath.Join(dir, "output")
	cfg.Logging.Level = "error"
	require.NoError(t, os.MkdirAll(cfg.Input.Dir, 0o755))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.Save(path, cfg))

	prev := cfgPath
	t.Cleanup(func() { cfgPath = prev })
	cfgPath = path

	cmd := &cobra.Command{Use: "test"}
	bindRunFlags(cmd)
	cmd.SetContext(context.Background())
	err := runRun(cmd, nil)
	require.Error(t, err)
	assert.Equal(t, exitConfig, exitCode(err))
	assert.NoDirExists(t, cfg.Output.Dir)
}

func TestRun_InvalidConfigIsConfigError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ranking:\n  top_k: -1\n"), 0o644))

	prev := cfgPath
	t.Cleanup(func() { cfgPath = prev })
	cfgPath = path

	cmd := &cobra.Command{Use: "test"}
	bindRunFlags(cmd)
	err := runRun(cmd, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.ErrorContains(t, err, "ranking.top_k")
}
