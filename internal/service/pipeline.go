// Package service runs the extract, rank, compose and write pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docrank/internal/domain"
	"docrank/internal/embedding"
	"docrank/internal/extract"
	"docrank/internal/ranking"
	"docrank/internal/report"
)

// Options tunes a pipeline run.
type Options struct {
	// InputDir holds the PDF documents.
	InputDir string
	// TopK bounds the report body. Zero yields metadata only.
	TopK int
	// Workers bounds concurrent document extraction.
	Workers   int
	BatchSize int
	// Clock stamps the report; nil means time.Now.
	Clock func() time.Time
}

// RunSummary describes a completed run.
type RunSummary struct {
	Documents       int
	DocumentsFailed int
	PagesExtracted  int
	PagesRanked     int
	PagesDropped    int
	Location        string
	Report          domain.Report
}

// Pipeline wires a text source, an embedder and a report writer.
type Pipeline struct {
	source   domain.TextSource
	embedder embedding.Embedder
	ranker   *ranking.Ranker
	writer   domain.ReportWriter
	opts     Options
	logger   *zap.Logger
}

// NewPipeline assembles a pipeline. The embedder is prepared once per run
// and shared by every ranking call.
func NewPipeline(source domain.TextSource, embedder embedding.Embedder, writer domain.ReportWriter, logger *zap.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TopK < 0 {
		opts.TopK = report.DefaultTopK
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Pipeline{
		source:   source,
		embedder: embedder,
		ranker:   ranking.New(embedder, logger, ranking.WithBatchSize(opts.BatchSize)),
		writer:   writer,
		opts:     opts,
		logger:   logger,
	}
}

// Run processes every PDF in the input directory for q and writes one
// report. Nothing is written when it returns an error.
func (p *Pipeline) Run(ctx context.Context, q domain.Query) (*RunSummary, error) {
	paths, err := extract.Discover(p.opts.InputDir)
	if err != nil {
		return nil, err
	}
	p.logger.Info("documents discovered", zap.Int("count", len(paths)), zap.String("dir", p.opts.InputDir))

	records, failed, err := p.extractAll(ctx, paths)
	if err != nil {
		return nil, err
	}
	if len(paths) > 0 && failed == len(paths) {
		return nil, fmt.Errorf("%w: %d of %d failed", domain.ErrNoDocumentsExtracted, failed, len(paths))
	}

	if len(records) > 0 {
		corpus := make([]string, 0, len(records)+1)
		for _, r := range records {
			corpus = append(corpus, r.Text)
		}
		corpus = append(corpus, q.Prompt)
		if err := p.embedder.Prepare(corpus); err != nil {
			return nil, fmt.Errorf("%w: prepare %s: %w", domain.ErrQueryEmbedding, p.embedder.Name(), err)
		}
	} else {
		p.logger.Warn("no page has enough text to rank")
	}

	ranked, stats, err := p.ranker.Rank(ctx, records, q)
	if err != nil {
		return nil, err
	}
	if stats.Dropped > 0 {
		p.logger.Warn("pages dropped from ranking", zap.Int("dropped", stats.Dropped))
	}

	rep := report.Compose(ranked, q, p.opts.TopK, p.opts.Clock)
	loc, err := p.writer.Write(ctx, rep)
	if err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	p.logger.Info("report written",
		zap.String("location", loc),
		zap.Int("sections", len(rep.ExtractedSections)),
	)

	return &RunSummary{
		Documents:       len(paths),
		DocumentsFailed: failed,
		PagesExtracted:  len(records),
		PagesRanked:     stats.Ranked,
		PagesDropped:    stats.Dropped,
		Location:        loc,
		Report:          rep,
	}, nil
}

// extractAll extracts documents concurrently and concatenates their pages in
// path order, so the result matches a sequential run.
func (p *Pipeline) extractAll(ctx context.Context, paths []string) ([]domain.PageRecord, int, error) {
	perDoc := make([][]domain.PageRecord, len(paths))
	failures := make([]bool, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for idx, path := range paths {
		g.Go(func() error {
			pages, err := p.source.Extract(gCtx, path)
			if err != nil {
				if ctxErr := gCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				var extErr *domain.ExtractionError
				doc := path
				if errors.As(err, &extErr) {
					doc = extErr.Document
				}
				p.logger.Warn("skipping document: extraction failed",
					zap.String("document", doc),
					zap.Error(err),
				)
				failures[idx] = true
				return nil
			}
			perDoc[idx] = slices.Collect(pages)
			p.logger.Debug("document extracted",
				zap.String("path", path),
				zap.Int("pages", len(perDoc[idx])),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var records []domain.PageRecord
	failed := 0
	for i := range paths {
		if failures[i] {
			failed++
			continue
		}
		records = append(records, perDoc[i]...)
	}
	return records, failed, nil
}
