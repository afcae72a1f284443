/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: executor.go
Description: Engine executor for the oracle. Runs the external inference engine's
posterior enumeration mode inside a job's scratch directory, enforces the timeout, and
decodes the sample stream it writes. Contract violations (non-zero exit, malformed output,
wrong sample count) are returned as errors since they are not statistical outcomes.
*/

package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/kleascm/akaylee-oracle/pkg/interfaces"
	"github.com/kleascm/akaylee-oracle/pkg/latent"
	"github.com/kleascm/akaylee-oracle/pkg/wire"
	"github.com/sirupsen/logrus"
)

// ErrSampleCountMismatch marks an engine run that emitted the wrong number of samples.
var ErrSampleCountMismatch = errors.New("engine emitted wrong sample count")

// ErrEngineFailed marks an engine run that exited abnormally.
var ErrEngineFailed = errors.New("engine run failed")

// DefaultTimeout bounds one engine run.
const DefaultTimeout = 10 * time.Minute

// maxStderr bounds the engine diagnostics kept for error messages.
const maxStderr = 4096

// EngineSampler implements the Sampler interface over the external engine binary
type EngineSampler struct {
	config *interfaces.SamplerConfig
	logger *logrus.Logger
}

// NewEngineSampler creates a new engine sampler instance
func NewEngineSampler(logger *logrus.Logger) *EngineSampler {
	if logger == nil {
		logger = logrus.New()
	}
	return &EngineSampler{logger: logger}
}

// Initialize sets up the sampler with the given configuration
func (e *EngineSampler) Initialize(config *interfaces.SamplerConfig) error {
	if config == nil || config.EnginePath == "" {
		return fmt.Errorf("engine path is required")
	}
	cfg := *config
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	e.config = &cfg
	return nil
}

// Name identifies the sampler in logs and results
func (e *EngineSampler) Name() string {
	if e.config == nil {
		return "engine"
	}
	return filepath.Base(e.config.EnginePath)
}

// Sample runs the engine once and returns its decoded samples
func (e *EngineSampler) Sample(ctx context.Context, job *interfaces.Job) ([]latent.Scored, error) {
	if e.config == nil {
		return nil, fmt.Errorf("engine sampler is not initialized")
	}
	samplesPath := filepath.Join(job.Dir, fmt.Sprintf("samples-%s.pbs.gz", job.Label))

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	args := append([]string{}, e.config.EngineArgs...)
	args = append(args, job.ConfigPath, job.ModelPath, job.RowsPath, samplesPath)
	cmd := exec.CommandContext(ctx, e.config.EnginePath, args...)
	cmd.Dir = job.Dir
	cmd.Env = append(os.Environ(), e.config.EngineEnv...)
	var stderr bytes.Buffer
	cmd.Stderr = &limitedWriter{buf: &stderr, limit: maxStderr}

	logger := e.logger.WithFields(logrus.Fields{"job": job.ID, "model": job.Label})
	logger.WithField("args", args).Debug("Starting engine")

	startTime := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %v", ErrEngineFailed, e.config.EnginePath, err)
	}
	track(cmd.Process)
	err := cmd.Wait()
	untrack(cmd.Process)
	duration := time.Since(startTime)

	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", ErrEngineFailed, e.config.Timeout)
		}
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrEngineFailed, describeExit(cmd, err), bytes.TrimSpace(stderr.Bytes()))
	}
	logger.WithField("duration", duration).Debug("Engine finished")

	samples, err := wire.ReadSamples(samplesPath)
	if err != nil {
		return nil, err
	}
	if len(samples) != job.Config.SampleCount {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSampleCountMismatch, len(samples), job.Config.SampleCount)
	}
	return samples, nil
}

// describeExit reports the exit code or terminating signal
func describeExit(cmd *exec.Cmd, err error) string {
	if cmd.ProcessState == nil {
		return err.Error()
	}
	if status, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return fmt.Sprintf("killed by signal %v", status.Signal())
	}
	return fmt.Sprintf("exit code %d", cmd.ProcessState.ExitCode())
}

// Cleanup kills any engine processes still running
func (e *EngineSampler) Cleanup() error {
	childProcsMu.Lock()
	defer childProcsMu.Unlock()
	for _, p := range childProcs {
		e.logger.WithField("pid", p.Pid).Warn("Killing engine process")
		p.Kill()
	}
	childProcs = nil
	return nil
}

var childProcs []*os.Process
var childProcsMu = &sync.Mutex{}

func track(p *os.Process) {
	childProcsMu.Lock()
	childProcs = append(childProcs, p)
	childProcsMu.Unlock()
}

func untrack(p *os.Process) {
	childProcsMu.Lock()
	defer childProcsMu.Unlock()
	for i, child := range childProcs {
		if child.Pid == p.Pid {
			childProcs = append(childProcs[:i], childProcs[i+1:]...)
			return
		}
	}
}

// limitedWriter keeps the first limit bytes and discards the rest
type limitedWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if room := w.limit - w.buf.Len(); room > 0 {
		w.buf.Write(p[:min(len(p), room)])
	}
	return len(p), nil
}
