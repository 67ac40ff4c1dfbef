package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/docworks/ocrbridge/internal/config"
)

// PaddleRunner drives the PaddleOCR-VL pipeline through a Python wrapper
// subprocess. The pipeline is process-wide shared state with no
// documented thread-safety guarantee, so invocations are serialised with
// a mutex; network I/O in the transport layer can still overlap across
// requests.
type PaddleRunner struct {
	cfg    *config.Config
	logger *logrus.Logger

	mu         sync.Mutex
	ready      atomic.Bool
	scriptPath string
}

// runnerStatus is the JSON status line the wrapper prints on stdout.
type runnerStatus struct {
	Success bool   `json:"success"`
	Pages   int    `json:"pages"`
	Error   string `json:"error"`
}

// NewPaddleRunner constructs a runner. It is not ready until Init has
// completed successfully.
func NewPaddleRunner(cfg *config.Config, logger *logrus.Logger) *PaddleRunner {
	return &PaddleRunner{cfg: cfg, logger: logger}
}

// Init resolves the wrapper script and probes the Python environment for
// the paddleocr package. On success the runner reports ready; until then
// Run refuses work with ErrNotReady.
func (r *PaddleRunner) Init(ctx context.Context) error {
	scriptPath := r.cfg.ScriptPath
	if scriptPath == "" {
		extracted, err := EmbeddedScriptPath()
		if err != nil {
			return fmt.Errorf("failed to extract pipeline wrapper script: %w", err)
		}
		scriptPath = extracted
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return fmt.Errorf("pipeline wrapper script not found at %s: %w", scriptPath, err)
	}
	r.scriptPath = scriptPath

	start := time.Now()
	r.logger.WithField("python", r.cfg.PythonPath).Info("Probing OCR pipeline availability")

	cmd := exec.CommandContext(ctx, r.cfg.PythonPath, scriptPath, "--check")
	cmd.Env = r.environment()

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &ProcessingError{Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}

	var status runnerStatus
	if err := json.Unmarshal([]byte(stdout.String()), &status); err != nil {
		return fmt.Errorf("failed to parse pipeline probe output: %w", err)
	}
	if !status.Success {
		return &ProcessingError{Err: fmt.Errorf("pipeline unavailable: %s", status.Error)}
	}

	r.ready.Store(true)
	r.logger.WithField("duration", time.Since(start).Round(time.Millisecond)).Info("OCR pipeline ready")
	return nil
}

// Ready reports whether Init has completed successfully.
func (r *PaddleRunner) Ready() bool {
	return r.ready.Load()
}

// Run invokes the pipeline once over all input paths. Multiple inputs are
// handed to the pipeline in a single batch call rather than one call per
// file. Once invoked, the pipeline runs to completion or failure; there
// is no mid-invocation cancellation beyond ctx.
func (r *PaddleRunner) Run(ctx context.Context, inputPaths []string, outputDir string) error {
	if !r.ready.Load() {
		return ErrNotReady
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	args := append([]string{r.scriptPath, "--output-dir", outputDir}, inputPaths...)
	cmd := exec.CommandContext(ctx, r.cfg.PythonPath, args...)
	cmd.Env = r.environment()

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	r.logger.WithField("files", len(inputPaths)).Info("Invoking OCR pipeline")

	if err := cmd.Run(); err != nil {
		return &ProcessingError{Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}

	var status runnerStatus
	if err := json.Unmarshal([]byte(stdout.String()), &status); err != nil {
		return &ProcessingError{Err: fmt.Errorf("unparseable pipeline output: %w", err)}
	}
	if !status.Success {
		return &ProcessingError{Stderr: strings.TrimSpace(stderr.String()), Err: fmt.Errorf("%s", status.Error)}
	}

	r.logger.WithFields(logrus.Fields{
		"files":    len(inputPaths),
		"pages":    status.Pages,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("Pipeline invocation complete")

	return nil
}

// environment passes the VLM backend settings through to the wrapper.
func (r *PaddleRunner) environment() []string {
	env := os.Environ()
	if r.cfg.VLMServerURL != "" {
		env = append(env, "OCRBRIDGE_VLM_SERVER_URL="+r.cfg.VLMServerURL)
	}
	if r.cfg.VLMModelName != "" {
		env = append(env, "OCRBRIDGE_VLM_MODEL="+r.cfg.VLMModelName)
	}
	return env
}
