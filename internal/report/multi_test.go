package report

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrank/internal/domain"
)

type recordingWriter struct {
	loc    string
	err    error
	called int
}

func (r *recordingWriter) Write(_ context.Context, _ domain.Report) (string, error) {
	r.called++
	return r.loc, r.err
}

func TestMultiWriter_AllLocations(t *testing.T) {
	a := &recordingWriter{loc: "/app/output/results.json"}
	b := &recordingWriter{loc: "s3://reports/results.json"}

	loc, err := NewMultiWriter(a, b).Write(context.Background(), domain.Report{})
	require.NoError(t, err)
	assert.Equal(t, "/app/output/results.json, s3://reports/results.json", loc)
}

func TestMultiWriter_StopsAtFirstError(t *testing.T) {
	a := &recordingWriter{err: errors.New("disk full")}
	b := &recordingWriter{loc: "s3://reports/results.json"}

	_, err := NewMultiWriter(a, b).Write(context.Background(), domain.Report{})
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, a.called)
	assert.Zero(t, b.called)
}

// fakeStager records the order of stage, commit and abort calls.
type fakeStager struct {
	recordingWriter
	events *[]string
}

type fakeStaged struct {
	loc    string
	events *[]string
}

func (f *fakeStager) Stage(_ context.Context, _ domain.Report) (Staged, error) {
	*f.events = append(*f.events, "stage")
	return &fakeStaged{loc: f.loc, events: f.events}, nil
}

func (f *fakeStaged) Commit() (string, error) {
	*f.events = append(*f.events, "commit")
	return f.loc, nil
}

func (f *fakeStaged) Abort() { *f.events = append(*f.events, "abort") }

type eventWriter struct {
	loc    string
	err    error
	events *[]string
}

func (e *eventWriter) Write(_ context.Context, _ domain.Report) (string, error) {
	*e.events = append(*e.events, "upload")
	return e.loc, e.err
}

func TestMultiWriter_CommitsAfterOtherWriters(t *testing.T) {
	var events []string
	local := &fakeStager{recordingWriter: recordingWriter{loc: "/out/results.json"}, events: &events}
	remote := &eventWriter{loc: "s3://reports/results.json", events: &events}

	loc, err := NewMultiWriter(local, remote).Write(context.Background(), domain.Report{})
	require.NoError(t, err)
	assert.Equal(t, "/out/results.json, s3://reports/results.json", loc)
	assert.Equal(t, []string{"stage", "upload", "commit"}, events)
	assert.Zero(t, local.called, "staged writers are not written directly")
}

func TestMultiWriter_AbortsStagedOnFailure(t *testing.T) {
	var events []string
	local := &fakeStager{recordingWriter: recordingWriter{loc: "/out/results.json"}, events: &events}
	remote := &eventWriter{err: errors.New("access denied"), events: &events}

	_, err := NewMultiWriter(local, remote).Write(context.Background(), domain.Report{})
	assert.ErrorContains(t, err, "access denied")
	assert.Equal(t, []string{"stage", "upload", "abort"}, events)
}

func TestMultiWriter_FileWriterLeavesNothingOnFailure(t *testing.T) {
	dir := t.TempDir()
	file := NewFileWriter(dir, "", nil)
	remote := &recordingWriter{err: errors.New("access denied")}

	_, err := NewMultiWriter(file, remote).Write(context.Background(), sampleReport())
	require.Error(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
