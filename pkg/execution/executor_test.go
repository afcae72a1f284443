/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: executor_test.go
Description: Tests for the engine sampler. The test binary re-executes itself as a fake
engine that answers with the built-in exact sampler.
*/

package execution_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kleascm/akaylee-oracle/pkg/execution"
	"github.com/kleascm/akaylee-oracle/pkg/features"
	"github.com/kleascm/akaylee-oracle/pkg/interfaces"
	"github.com/kleascm/akaylee-oracle/pkg/model"
	"github.com/kleascm/akaylee-oracle/pkg/reference"
	"github.com/kleascm/akaylee-oracle/pkg/wire"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helperEnv = "ORACLE_HELPER_ENGINE"

// TestHelperEngine is not a real test: it is the fake engine process.
func TestHelperEngine(t *testing.T) {
	mode := os.Getenv(helperEnv)
	if mode == "" {
		return
	}
	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	os.Exit(runHelper(mode, args))
}

func runHelper(mode string, args []string) int {
	if len(args) != 4 {
		fmt.Fprintf(os.Stderr, "usage: config model rows samples, got %v\n", args)
		return 2
	}
	switch mode {
	case "fail":
		fmt.Fprintln(os.Stderr, "engine exploded")
		return 3
	case "hang":
		time.Sleep(time.Minute)
		return 0
	case "garbage":
		os.WriteFile(args[3], []byte("not a stream"), 0o644)
		return 0
	}
	cfg, err := wire.ReadConfig(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if mode == "short" {
		cfg.SampleCount--
	}
	limits := &interfaces.SamplerConfig{MaxLatents: reference.DefaultMaxLatents, VectorCutoff: 4}
	samples, err := reference.SampleFiles(context.Background(), cfg, args[1], args[2], limits, logrus.New())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := wire.WriteSamples(args[3], samples); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func helperSampler(t *testing.T, mode string, timeout time.Duration) *execution.EngineSampler {
	t.Helper()
	sampler := execution.NewEngineSampler(nil)
	require.NoError(t, sampler.Initialize(&interfaces.SamplerConfig{
		EnginePath: os.Args[0],
		EngineArgs: []string{"-test.run=^TestHelperEngine$", "--"},
		EngineEnv:  []string{helperEnv + "=" + mode},
		Timeout:    timeout,
	}))
	t.Cleanup(func() { sampler.Cleanup() })
	return sampler
}

func writeJob(t *testing.T, sampleCount int) *interfaces.Job {
	t.Helper()
	rng := rand.New(rand.NewPCG(123, 123))
	m, err := model.Generate(1, features.BetaBernoulli, rng)
	require.NoError(t, err)
	table, err := model.GenerateRows(3, 1, features.BetaBernoulli, 1.0, rng)
	require.NoError(t, err)

	dir := t.TempDir()
	job := &interfaces.Job{
		ID:         "test",
		Dir:        dir,
		ConfigPath: filepath.Join(dir, "config.pb"),
		ModelPath:  filepath.Join(dir, "model.pb"),
		RowsPath:   filepath.Join(dir, "rows.pbs"),
		Config:     wire.Config{SampleCount: sampleCount, SampleSkip: 10, Seed: 123},
		Label:      "free",
	}
	require.NoError(t, wire.WriteConfig(job.ConfigPath, job.Config))
	require.NoError(t, wire.WriteModel(job.ModelPath, m))
	require.NoError(t, wire.WriteRows(job.RowsPath, table))
	return job
}

func TestEngineSamplerDecodesSamples(t *testing.T) {
	job := writeJob(t, 50)
	samples, err := helperSampler(t, "ok", time.Minute).Sample(context.Background(), job)
	require.NoError(t, err)
	assert.Len(t, samples, 50)
	assert.FileExists(t, filepath.Join(job.Dir, "samples-free.pbs.gz"))
}

func TestEngineSamplerContractViolations(t *testing.T) {
	cases := []struct {
		mode string
		want error
	}{
		{"short", execution.ErrSampleCountMismatch},
		{"garbage", wire.ErrMalformedRecord},
		{"fail", execution.ErrEngineFailed},
	}
	for _, c := range cases {
		t.Run(c.mode, func(t *testing.T) {
			_, err := helperSampler(t, c.mode, time.Minute).Sample(context.Background(), writeJob(t, 20))
			assert.ErrorIs(t, err, c.want)
		})
	}
}

func TestEngineSamplerFailureCarriesStderr(t *testing.T) {
	_, err := helperSampler(t, "fail", time.Minute).Sample(context.Background(), writeJob(t, 20))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine exploded")
	assert.Contains(t, err.Error(), "exit code 3")
}

func TestEngineSamplerTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("timeout test sleeps")
	}
	_, err := helperSampler(t, "hang", 500*time.Millisecond).Sample(context.Background(), writeJob(t, 20))
	assert.ErrorIs(t, err, execution.ErrEngineFailed)
}

func TestEngineSamplerRequiresPath(t *testing.T) {
	sampler := execution.NewEngineSampler(nil)
	assert.Error(t, sampler.Initialize(&interfaces.SamplerConfig{}))
	_, err := sampler.Sample(context.Background(), &interfaces.Job{})
	assert.Error(t, err)
}
