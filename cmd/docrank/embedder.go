package main

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"docrank/internal/config"
	"docrank/internal/domain"
	"docrank/internal/embedding"
	"docrank/internal/embedding/fastembed"
	"docrank/internal/embedding/openai"
	"docrank/internal/embedding/tfidf"
	"docrank/internal/report"
)

// newEmbedder builds the configured embedder, instrumented on meter. The
// returned func releases model resources.
func newEmbedder(cfg config.EmbedderConfig, meter metric.Meter, logger *zap.Logger) (embedding.Embedder, func() error, error) {
	release := func() error { return nil }

	var emb embedding.Embedder
	switch cfg.Type {
	case config.EmbedderTFIDF, "":
		emb = tfidf.NewEmbedder()
	case config.EmbedderOpenAI:
		oc := cfg.OpenAI
		if oc == nil {
			oc = &config.OpenAIEmbedderConfig{}
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:           oc.BaseURL,
			APIKeyEnv:         oc.APIKeyEnv,
			Model:             oc.Model,
			Timeout:           time.Duration(oc.TimeoutSecs) * time.Second,
			BatchSize:         oc.BatchSize,
			MaxRetries:        oc.MaxRetries,
			RequestsPerSecond: oc.RequestsPerSecond,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		emb = client
	case config.EmbedderFastEmbed:
		fc := cfg.FastEmbed
		if fc == nil {
			fc = &config.FastEmbedConfig{}
		}
		provider, err := fastembed.New(fastembed.Config{
			Model:     fc.Model,
			CacheDir:  fc.CacheDir,
			MaxLength: fc.MaxLength,
			BatchSize: fc.BatchSize,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("%w: fastembed init failed: %w", domain.ErrConfiguration, err)
		}
		emb = provider
		release = provider.Close
	default:
		return nil, nil, fmt.Errorf("%w: unknown embedder: %s", domain.ErrConfiguration, cfg.Type)
	}

	logger.Debug("embedder ready", zap.String("name", emb.Name()))
	return embedding.Instrument(emb, embedding.NewMetrics(meter, logger)), release, nil
}

// newReportWriter writes locally and, when a bucket is configured, uploads
// the same bytes before the local file is moved into place.
func newReportWriter(ctx context.Context, cfg config.OutputConfig, logger *zap.Logger) (domain.ReportWriter, error) {
	file := report.NewFileWriter(cfg.Dir, cfg.FileName, logger)
	if cfg.S3 == nil || cfg.S3.Bucket == "" {
		return file, nil
	}
	client, err := report.NewS3Client(ctx, cfg.S3.Region)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return report.NewMultiWriter(file, report.NewS3Writer(client, cfg.S3.Bucket, cfg.S3.Prefix, cfg.FileName, logger)), nil
}
