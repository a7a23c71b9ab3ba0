// Package ranking scores page records against a query and orders them by
// relevance.
package ranking

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"

	"docrank/internal/domain"
	"docrank/internal/embedding"
	"docrank/internal/logging"
)

// DefaultBatchSize is the number of pages sent per batch embedding call.
const DefaultBatchSize = 32

// Stats summarizes a ranking pass.
type Stats struct {
	Ranked  int
	Dropped int
}

// Ranker embeds pages and orders them by cosine similarity to the query.
type Ranker struct {
	embedder  embedding.Embedder
	batchSize int
	logger    *zap.Logger
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithBatchSize sets how many pages go into one batch call.
func WithBatchSize(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// New creates a Ranker backed by e.
func New(e embedding.Embedder, logger *zap.Logger, opts ...Option) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Ranker{embedder: e, batchSize: DefaultBatchSize, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank scores every record against q and returns the scored records sorted by
// descending score. Records with equal scores keep their input order. A record
// whose similarity is undefined scores -Inf. Records whose text cannot be
// embedded are dropped and counted in Stats.Dropped. Failing to embed the
// query is fatal.
func (r *Ranker) Rank(ctx context.Context, records []domain.PageRecord, q domain.Query) ([]domain.PageRecord, Stats, error) {
	if len(records) == 0 {
		return []domain.PageRecord{}, Stats{}, nil
	}

	qvec, err := r.embedder.Embed(ctx, q.Prompt)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %w", domain.ErrQueryEmbedding, err)
	}

	ranked := make([]domain.PageRecord, 0, len(records))
	var stats Stats
	for start := 0; start < len(records); start += r.batchSize {
		end := min(start+r.batchSize, len(records))
		batch := records[start:end]

		vecs, err := r.embedPages(ctx, batch)
		if err != nil {
			return nil, Stats{}, err
		}
		for i, rec := range batch {
			if vecs[i] == nil {
				stats.Dropped++
				continue
			}
			sim, ok := embedding.Cosine(qvec, vecs[i])
			if !ok {
				sim = math.Inf(-1)
			}
			rec.Score = sim
			rec.Scored = true
			if ce := r.logger.Check(logging.TraceLevel, "page scored"); ce != nil {
				ce.Write(
					zap.String("document", rec.DocumentID),
					zap.Int("page", rec.PageNumber),
					zap.Float64("score", sim),
				)
			}
			ranked = append(ranked, rec)
		}
	}

	slices.SortStableFunc(ranked, func(a, b domain.PageRecord) int {
		return cmp.Compare(b.Score, a.Score)
	})
	stats.Ranked = len(ranked)

	r.logger.Debug("pages ranked",
		zap.String("embedder", r.embedder.Name()),
		zap.Int("ranked", stats.Ranked),
		zap.Int("dropped", stats.Dropped),
	)
	return ranked, stats, nil
}

// embedPages returns one vector per record, nil where embedding failed. It
// tries a single batch call first and falls back to per-page calls so one bad
// page does not sink its whole batch. Only context cancellation is returned as
// an error.
func (r *Ranker) embedPages(ctx context.Context, batch []domain.PageRecord) ([][]float32, error) {
	texts := make([]string, len(batch))
	for i, rec := range batch {
		texts[i] = rec.Text
	}

	if be, ok := r.embedder.(embedding.BatchEmbedder); ok && len(batch) > 1 {
		vecs, err := be.EmbedBatch(ctx, texts)
		if err == nil && len(vecs) == len(texts) {
			return vecs, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.logger.Debug("batch embedding failed, falling back to single pages",
			zap.Int("batch_size", len(texts)),
			zap.Error(err),
		)
	}

	vecs := make([][]float32, len(batch))
	for i, rec := range batch {
		vec, err := r.embedder.Embed(ctx, rec.Text)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			r.logger.Warn("dropping page: embedding failed",
				zap.String("document", rec.DocumentID),
				zap.Int("page", rec.PageNumber),
				zap.Error(err),
			)
			continue
		}
		vecs[i] = vec
	}
	return vecs, nil
}
