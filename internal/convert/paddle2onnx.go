package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Paddle2ONNX runs the paddle2onnx CLI as a subprocess. It is the
// production Exporter.
type Paddle2ONNX struct {
	// Binary is the executable to spawn. Defaults to "paddle2onnx".
	Binary string
	// OpsetVersion pins --opset_version when nonzero.
	OpsetVersion int
	// ExtraArgs are appended after the generated flags.
	ExtraArgs []string
}

// NewPaddle2ONNX returns an exporter using the paddle2onnx binary
// from PATH.
func NewPaddle2ONNX() *Paddle2ONNX {
	return &Paddle2ONNX{Binary: "paddle2onnx"}
}

// Export spawns one paddle2onnx process for the job and waits for it.
func (p *Paddle2ONNX) Export(ctx context.Context, job Job) error {
	binary := p.Binary
	if binary == "" {
		binary = "paddle2onnx"
	}

	modelDir := filepath.Dir(job.ModelFilename)
	args := []string{
		"--model_dir", modelDir,
		"--model_filename", filepath.Base(job.ModelFilename),
		"--params_filename", filepath.Base(job.ParamsFilename),
		"--save_file", job.SaveFile,
	}
	if p.OpsetVersion > 0 {
		args = append(args, "--opset_version", strconv.Itoa(p.OpsetVersion))
	}
	args = append(args, p.ExtraArgs...)

	if dir := filepath.Dir(job.SaveFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	log.Debug().Str("binary", binary).Strs("args", args).Msg("spawning paddle2onnx")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if tail := lastLine(stderr.Bytes()); tail != "" {
			return fmt.Errorf("paddle2onnx: %w: %s", err, tail)
		}
		return fmt.Errorf("paddle2onnx: %w", err)
	}
	return nil
}

// lastLine returns the final non-empty stderr line, the part of a
// Python traceback that names the actual error.
func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
