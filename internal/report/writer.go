package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"docrank/internal/domain"
)

// DefaultFileName is the report file written into the output directory.
const DefaultFileName = "results.json"

// Encode renders report as indented JSON with non-ASCII and HTML characters
// kept verbatim.
func Encode(report domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return buf.Bytes(), nil
}

// FileWriter writes the report into a directory. The file appears complete
// or not at all.
type FileWriter struct {
	dir    string
	name   string
	logger *zap.Logger
}

// NewFileWriter creates a writer for dir/name.
func NewFileWriter(dir, name string, logger *zap.Logger) *FileWriter {
	if name == "" {
		name = DefaultFileName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileWriter{dir: dir, name: name, logger: logger}
}

// Path returns the final report path.
func (w *FileWriter) Path() string {
	return filepath.Join(w.dir, w.name)
}

// Write encodes report and moves it into place.
func (w *FileWriter) Write(ctx context.Context, report domain.Report) (string, error) {
	staged, err := w.Stage(ctx, report)
	if err != nil {
		return "", err
	}
	loc, err := staged.Commit()
	if err != nil {
		staged.Abort()
		return "", err
	}
	return loc, nil
}

// Stage writes report to a hidden temp file next to the final path. Nothing
// is visible at Path until Commit.
func (w *FileWriter) Stage(ctx context.Context, report domain.Report) (Staged, error) {
	data, err := Encode(report)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, "."+w.name+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp report: %w", err)
	}
	staged := &stagedFile{tmpPath: tmp.Name(), path: w.Path(), size: len(data), logger: w.logger}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		staged.Abort()
		return nil, fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		staged.Abort()
		return nil, fmt.Errorf("sync report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		staged.Abort()
		return nil, fmt.Errorf("close report: %w", err)
	}
	if err := os.Chmod(staged.tmpPath, 0o644); err != nil {
		staged.Abort()
		return nil, fmt.Errorf("chmod report: %w", err)
	}
	return staged, nil
}

type stagedFile struct {
	tmpPath   string
	path      string
	size      int
	committed bool
	logger    *zap.Logger
}

func (s *stagedFile) Commit() (string, error) {
	if err := os.Rename(s.tmpPath, s.path); err != nil {
		return "", fmt.Errorf("rename report: %w", err)
	}
	s.committed = true
	s.logger.Debug("report written", zap.String("path", s.path), zap.Int("bytes", s.size))
	return s.path, nil
}

// Abort removes the temp file. It is a no-op after a successful Commit.
func (s *stagedFile) Abort() {
	if s.committed {
		return
	}
	if err := os.Remove(s.tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to remove staged report", zap.String("path", s.tmpPath), zap.Error(err))
	}
}

// Read loads a report written by FileWriter.
func Read(path string) (domain.Report, error) {
	var r domain.Report
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("read report: %w", err)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parse report %s: %w", path, err)
	}
	return r, nil
}
