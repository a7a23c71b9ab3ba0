// Package extract turns PDF documents into per-page text records.
//
// Text is produced by poppler's pdftotext, which separates pages with a form
// feed. Pages whose trimmed text is shorter than the configured minimum are
// treated as empty and never become records.
package extract

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"docrank/internal/domain"
)

// DefaultMinChars is the minimum trimmed page length, in characters.
const DefaultMinChars = 20

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// Options configures the PDF source.
type Options struct {
	// Tool is the pdftotext binary name or path.
	Tool     string
	MinChars int
	// Timeout bounds a single document; zero means no limit.
	Timeout time.Duration
}

// PDFSource extracts page text through pdftotext.
type PDFSource struct {
	runner   CommandRunner
	tool     string
	minChars int
	timeout  time.Duration
}

// New creates a PDFSource that shells out with os/exec.
func New(opts Options) *PDFSource {
	return NewWithRunner(ExecRunner{}, opts)
}

// NewWithRunner creates a PDFSource with a custom command runner.
func NewWithRunner(runner CommandRunner, opts Options) *PDFSource {
	if opts.Tool == "" {
		opts.Tool = "pdftotext"
	}
	if opts.MinChars <= 0 {
		opts.MinChars = DefaultMinChars
	}
	return &PDFSource{
		runner:   runner,
		tool:     opts.Tool,
		minChars: opts.MinChars,
		timeout:  opts.Timeout,
	}
}

// CheckAvailable reports whether tool can be found.
func CheckAvailable(tool string) error {
	if tool == "" {
		tool = "pdftotext"
	}
	if _, err := exec.LookPath(tool); err != nil {
		return fmt.Errorf("%w: %s", ErrPDFToolNotFound, tool)
	}
	return nil
}

// InstallInstructions describes how to install pdftotext.
func InstallInstructions() string {
	return `pdftotext is required to read PDF files. Install poppler:
  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils`
}

// Extract runs pdftotext on path and returns its non-empty pages in page
// order. The document id is the file's base name. A document that cannot be
// read or parsed yields an *domain.ExtractionError.
func (s *PDFSource) Extract(ctx context.Context, path string) (iter.Seq[domain.PageRecord], error) {
	docID := filepath.Base(path)
	if _, err := os.Stat(path); err != nil {
		return nil, &domain.ExtractionError{Document: docID, Err: err}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	out, err := s.runner.Run(ctx, s.tool, "-enc", "UTF-8", "-q", path, "-")
	if err != nil {
		return nil, &domain.ExtractionError{Document: docID, Err: fmt.Errorf("pdftotext failed: %w", err)}
	}
	return s.pages(docID, splitPages(string(out))), nil
}

func (s *PDFSource) pages(docID string, raw []string) iter.Seq[domain.PageRecord] {
	return func(yield func(domain.PageRecord) bool) {
		for i, text := range raw {
			text = strings.TrimSpace(strings.ToValidUTF8(text, "�"))
			if utf8.RuneCountInString(text) < s.minChars {
				continue
			}
			if !yield(domain.PageRecord{DocumentID: docID, PageNumber: i + 1, Text: text}) {
				return
			}
		}
	}
}

// splitPages splits pdftotext output into pages. Every page, including the
// last, is terminated by a form feed.
func splitPages(out string) []string {
	if out == "" {
		return nil
	}
	pages := strings.Split(out, "\f")
	if pages[len(pages)-1] == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}
