package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingExporter captures every Export call.
type recordingExporter struct {
	calls []Job
	err   error
}

func (r *recordingExporter) Export(_ context.Context, job Job) error {
	r.calls = append(r.calls, job)
	return r.err
}

func TestRunInvokesExporterOnce(t *testing.T) {
	rec := &recordingExporter{}
	job := DefaultJob()

	err := Run(context.Background(), rec, job)
	require.NoError(t, err)
	require.Len(t, rec.calls, 1)
}

func TestRunPassesJobVerbatim(t *testing.T) {
	rec := &recordingExporter{}
	job := Job{
		ModelFilename:  "rec/inference.json",
		ParamsFilename: "rec/inference.pdiparams",
		SaveFile:       "onnx/PP-OCRv4_mobile_rec_infer.onnx",
	}

	require.NoError(t, Run(context.Background(), rec, job))
	assert.Equal(t, job, rec.calls[0])
}

func TestRunPropagatesExportError(t *testing.T) {
	exportErr := errors.New("model file not found")
	rec := &recordingExporter{err: exportErr}

	err := Run(context.Background(), rec, DefaultJob())
	require.Error(t, err)
	assert.ErrorIs(t, err, exportErr)
	assert.Contains(t, err.Error(), DefaultSaveFile)
}

func TestRunRepeatBindsSameJob(t *testing.T) {
	rec := &recordingExporter{}
	job := DefaultJob()

	require.NoError(t, Run(context.Background(), rec, job))
	require.NoError(t, Run(context.Background(), rec, job))

	require.Len(t, rec.calls, 2)
	assert.Equal(t, rec.calls[0], rec.calls[1])
}

func TestDefaultJobPaths(t *testing.T) {
	job := DefaultJob()
	assert.Equal(t, "rec/inference.json", job.ModelFilename)
	assert.Equal(t, "rec/inference.pdiparams", job.ParamsFilename)
	assert.Equal(t, "onnx/PP-OCRv4_mobile_rec_infer.onnx", job.SaveFile)
}

func TestRunVerifiedRejectsGarbageOutput(t *testing.T) {
	dir := t.TempDir()
	saveFile := filepath.Join(dir, "out.onnx")

	// Exporter that writes a file no ONNX parser would accept.
	rec := &writingExporter{content: []byte("\xff\xff\xff\xffnot a model")}

	job := Job{ModelFilename: "m.json", ParamsFilename: "m.pdiparams", SaveFile: saveFile}
	err := RunVerified(context.Background(), rec, job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verify")
}

func TestRunVerifiedMissingOutput(t *testing.T) {
	rec := &recordingExporter{} // writes nothing
	job := Job{
		ModelFilename:  "m.json",
		ParamsFilename: "m.pdiparams",
		SaveFile:       filepath.Join(t.TempDir(), "never-written.onnx"),
	}
	err := RunVerified(context.Background(), rec, job)
	require.Error(t, err)
}

type writingExporter struct {
	content []byte
}

func (w *writingExporter) Export(_ context.Context, job Job) error {
	return os.WriteFile(job.SaveFile, w.content, 0o644)
}
