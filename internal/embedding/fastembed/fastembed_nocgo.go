//go:build !cgo

package fastembed

import (
	"context"
	"errors"
)

// ErrNotAvailable is returned when the binary was built without CGO.
var ErrNotAvailable = errors.New("fastembed: not available (binary built without CGO support, use the tfidf or openai embedder instead)")

// Provider is a stub for non-CGO builds.
type Provider struct{}

// New returns ErrNotAvailable when CGO is not available.
func New(_ Config) (*Provider, error) {
	return nil, ErrNotAvailable
}

func (p *Provider) Name() string             { return "fastembed" }
func (p *Provider) Prepare(_ []string) error { return nil }
func (p *Provider) Dimension() int           { return 0 }
func (p *Provider) Close() error             { return nil }

func (p *Provider) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, ErrNotAvailable
}

func (p *Provider) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, ErrNotAvailable
}
