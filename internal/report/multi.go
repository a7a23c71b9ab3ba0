package report

import (
	"context"
	"strings"

	"docrank/internal/domain"
)

// Staged is a report prepared by a Stager but not yet published.
type Staged interface {
	Commit() (location string, err error)
	Abort()
}

// Stager is a writer that can prepare its output before publishing it.
type Stager interface {
	Stage(ctx context.Context, report domain.Report) (Staged, error)
}

// MultiWriter publishes a report to several destinations as one unit. Every
// Stager is staged first, then the remaining writers run in order, and the
// staged copies are committed only when all of them succeeded. On any error
// the staged copies are discarded. The returned location joins every
// destination with ", " in writer order.
type MultiWriter struct {
	writers []domain.ReportWriter
}

// NewMultiWriter combines writers; the first one is the primary copy.
func NewMultiWriter(writers ...domain.ReportWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

func (m *MultiWriter) Write(ctx context.Context, report domain.Report) (string, error) {
	staged := make([]Staged, len(m.writers))
	abort := func() {
		for _, s := range staged {
			if s != nil {
				s.Abort()
			}
		}
	}

	for i, w := range m.writers {
		if s, ok := w.(Stager); ok {
			st, err := s.Stage(ctx, report)
			if err != nil {
				abort()
				return "", err
			}
			staged[i] = st
		}
	}

	locations := make([]string, len(m.writers))
	for i, w := range m.writers {
		if staged[i] != nil {
			continue
		}
		loc, err := w.Write(ctx, report)
		if err != nil {
			abort()
			return "", err
		}
		locations[i] = loc
	}

	for i, st := range staged {
		if st == nil {
			continue
		}
		loc, err := st.Commit()
		if err != nil {
			abort()
			return "", err
		}
		locations[i] = loc
	}
	return strings.Join(locations, ", "), nil
}
