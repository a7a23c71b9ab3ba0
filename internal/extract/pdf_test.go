package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrank/internal/domain"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
	args   []string
}

func (m *mockRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	m.args = args
	return m.output, m.err
}

func writePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake pdf content"), 0o644))
	return path
}

var _ domain.TextSource = (*PDFSource)(nil)

func TestExtract_PagesAndFiltering(t *testing.T) {
	path := writePDF(t, t.TempDir(), "guide.pdf")
	runner := &mockRunner{output: []byte(
		"  Introduction to the South of France\nMore text here.  \f" +
			"short\f" +
			"\f" +
			"Cuisine of Provence and its markets\f",
	)}
	src := NewWithRunner(runner, Options{})

	seq, err := src.Extract(context.Background(), path)
	require.NoError(t, err)
	pages := slices.Collect(seq)

	require.Len(t, pages, 2)
	assert.Equal(t, domain.PageRecord{
		DocumentID: "guide.pdf",
		PageNumber: 1,
		Text:       "Introduction to the South of France\nMore text here.",
	}, pages[0])
	assert.Equal(t, 4, pages[1].PageNumber)
	assert.Equal(t, "Cuisine of Provence and its markets", pages[1].Text)
	assert.Equal(t, []string{"-enc", "UTF-8", "-q", path, "-"}, runner.args)
}

func TestExtract_MinCharsCountsCharacters(t *testing.T) {
	path := writePDF(t, t.TempDir(), "accents.pdf")
	// 19 runes but more than 20 bytes
	nineteen := strings.Repeat("é", 19)
	twenty := strings.Repeat("é", 20)
	runner := &mockRunner{output: []byte(nineteen + "\f" + twenty + "\f")}
	src := NewWithRunner(runner, Options{MinChars: 20})

	seq, err := src.Extract(context.Background(), path)
	require.NoError(t, err)
	pages := slices.Collect(seq)
	require.Len(t, pages, 1)
	assert.Equal(t, 2, pages[0].PageNumber)
	assert.Equal(t, twenty, pages[0].Text)
}

func TestExtract_RunnerError(t *testing.T) {
	path := writePDF(t, t.TempDir(), "broken.pdf")
	src := NewWithRunner(&mockRunner{err: errors.New("Syntax Error: Couldn't read xref table")}, Options{})

	seq, err := src.Extract(context.Background(), path)
	assert.Nil(t, seq)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Contains(t, err.Error(), "pdftotext failed")

	var extErr *domain.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "broken.pdf", extErr.Document)
}

func TestExtract_MissingFile(t *testing.T) {
	src := NewWithRunner(&mockRunner{}, Options{})
	_, err := src.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtract_EarlyStop(t *testing.T) {
	path := writePDF(t, t.TempDir(), "long.pdf")
	page := strings.Repeat("x", 30)
	runner := &mockRunner{output: []byte(strings.Repeat(page+"\f", 10))}
	src := NewWithRunner(runner, Options{})

	seq, err := src.Extract(context.Background(), path)
	require.NoError(t, err)
	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestSplitPages(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single terminated", "a\f", []string{"a"}},
		{"unterminated", "a\fb", []string{"a", "b"}},
		{"empty trailing page", "a\f\f", []string{"a", ""}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, splitPages(tc.in))
		})
	}
}

func TestNewWithRunner_Defaults(t *testing.T) {
	src := NewWithRunner(&mockRunner{}, Options{})
	assert.Equal(t, "pdftotext", src.tool)
	assert.Equal(t, DefaultMinChars, src.minChars)
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestCheckAvailable_Missing(t *testing.T) {
	err := CheckAvailable("definitely-not-a-real-pdftotext-binary")
	assert.ErrorIs(t, err, ErrPDFToolNotFound)
}
