/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: runner.go
Description: Single case pipeline. Generates the model, its fixed-grid variants and the
rows inside a private scratch directory, samples each model, aggregates the draws and runs
the goodness-of-fit check.
*/

package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/akaylee-oracle/pkg/aggregate"
	"github.com/kleascm/akaylee-oracle/pkg/execution"
	"github.com/kleascm/akaylee-oracle/pkg/gof"
	"github.com/kleascm/akaylee-oracle/pkg/grid"
	"github.com/kleascm/akaylee-oracle/pkg/interfaces"
	"github.com/kleascm/akaylee-oracle/pkg/logging"
	"github.com/kleascm/akaylee-oracle/pkg/model"
	"github.com/kleascm/akaylee-oracle/pkg/wire"
	"github.com/sirupsen/logrus"
)

// CaseRunner executes cases against one sampler
type CaseRunner struct {
	config  *SuiteConfig
	sampler interfaces.Sampler
	checker gof.Checker
	logger  *logging.Logger
}

// NewCaseRunner creates a runner; the sampler must already be initialized
func NewCaseRunner(config *SuiteConfig, sampler interfaces.Sampler, logger *logging.Logger) *CaseRunner {
	return &CaseRunner{
		config:  config,
		sampler: sampler,
		checker: config.Checker(),
		logger:  logger,
	}
}

// caseInputs are the files written for one case and the sampler config they share.
type caseInputs struct {
	config   string
	model    string
	fixed    []string
	rows     string
	sampling wire.Config
	// skipped explains why the case cannot run.
	skipped string
}

// RunCase runs one case to completion. Statistical outcomes are returned in the result;
// a returned error means the oracle itself is broken.
func (r *CaseRunner) RunCase(ctx context.Context, c Case) (result *CaseResult, err error) {
	startTime := time.Now()
	result = &CaseResult{Name: c.Name(), Case: c}
	if c.Target != nil {
		result.Target = c.Target.String()
	}
	logger := r.logger.GetLogger().WithField("case", result.Name)

	dir, err := r.acquireScratch()
	if err != nil {
		return nil, err
	}
	defer func() {
		result.Duration = time.Since(startTime)
		if r.config.Debug && (err != nil || result.Status == StatusFail) {
			result.ScratchDir = dir
			logger.WithField("dir", dir).Info("Preserving scratch directory")
			return
		}
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logger.WithError(rmErr).Warn("Failed to remove scratch directory")
		}
	}()

	inputs, err := r.prepare(c, dir)
	if err != nil {
		return result, err
	}
	if inputs.skipped != "" {
		result.Status = StatusSkip
		result.Comment = inputs.skipped
		return result, nil
	}
	cfg := inputs.sampling
	result.SampleCount = cfg.SampleCount

	free, err := r.sample(ctx, c, "free", inputs.model, inputs, dir)
	if err != nil {
		return result, err
	}
	var fixed []*aggregate.Accumulator
	for i, path := range inputs.fixed {
		acc, err := r.sample(ctx, c, fmt.Sprintf("fixed-%d", i), path, inputs, dir)
		if err != nil {
			return result, err
		}
		fixed = append(fixed, acc)
	}

	expected := c.LatentCount()
	for _, acc := range append([]*aggregate.Accumulator{free}, fixed...) {
		if err := acc.CheckBound(expected); err != nil {
			return result, err
		}
	}

	input := gof.Input{SampleCount: cfg.SampleCount}
	if len(fixed) > 0 {
		combined, err := aggregate.CombineFixed(free, fixed)
		if err != nil {
			return result, err
		}
		if combined.UsableCount < cfg.SampleCount {
			result.Warnings = append(result.Warnings, fmt.Sprintf("scores found for %d / %d samples", combined.UsableCount, cfg.SampleCount))
		}
		input.SampleCount = combined.UsableCount
		for _, l := range combined.Latents {
			input.Latents = append(input.Latents, l)
			input.Counts = append(input.Counts, free.Count(l))
			input.Scores = append(input.Scores, combined.Scores[l.Key()])
		}
	} else {
		for _, l := range free.Latents() {
			score, _ := free.Score(l)
			input.Latents = append(input.Latents, l)
			input.Counts = append(input.Counts, free.Count(l))
			input.Scores = append(input.Scores, score)
		}
	}
	result.UsableCount = input.SampleCount
	result.Distinct = len(input.Latents)
	result.Expected = expected
	if uint64(result.Distinct) < expected {
		result.Warnings = append(result.Warnings, fmt.Sprintf("found only %d / %d latents", result.Distinct, expected))
	}

	verdict := r.checker.Check(input)
	result.GoodnessOfFit = verdict.GoodnessOfFit
	result.Comment = verdict.Comment
	result.Table = verdict.Table
	switch verdict.Status {
	case gof.Pass:
		result.Status = StatusPass
	case gof.Warn:
		result.Status = StatusWarn
	default:
		result.Status = StatusFail
	}
	logger.WithFields(logrus.Fields{
		"tested":    verdict.Tested,
		"truncated": verdict.Truncated,
	}).Debug("Goodness of fit checked")
	return result, nil
}

// acquireScratch creates a private directory under the scratch root.
func (r *CaseRunner) acquireScratch() (string, error) {
	root := r.config.ScratchRoot
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "oracle-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return dir, nil
}

// prepare generates and writes every input of the case.
func (r *CaseRunner) prepare(c Case, dir string) (*caseInputs, error) {
	rng := rand.New(rand.NewPCG(r.config.Seed, r.config.Seed))
	base, err := model.Generate(c.FeatureCount, c.FeatureType, rng)
	if err != nil {
		return nil, err
	}

	free := base
	var fixed []*model.CrossCat
	if c.Target != nil {
		expansion, err := grid.Expand(base, *c.Target, grid.For(r.config.HyperPrior, *c.Target), r.config.VectorCutoff)
		if errors.Is(err, grid.ErrGridTooLarge) {
			return &caseInputs{skipped: err.Error()}, nil
		}
		if err != nil {
			return nil, err
		}
		free, fixed = expansion.Free, expansion.Fixed
	}

	table, err := model.GenerateRows(c.ObjectCount, c.FeatureCount, c.FeatureType, c.Density, rng)
	if err != nil {
		return nil, err
	}

	inputs := &caseInputs{
		config: filepath.Join(dir, "config.pb"),
		model:  filepath.Join(dir, "model.pb"),
		rows:   filepath.Join(dir, "rows.pbs"),
		sampling: wire.Config{
			SampleCount: c.SampleCount(r.config.SamplesPerLatent),
			SampleSkip:  r.config.SampleSkip,
			HyperRun:    c.InferHypers(),
			Seed:        r.config.Seed,
		},
	}
	if c.InferKinds {
		inputs.sampling.KindIterations = r.config.KindIterations
	}
	if err := wire.WriteModel(inputs.model, free); err != nil {
		return nil, err
	}
	for i, m := range fixed {
		path := filepath.Join(dir, fmt.Sprintf("fixed-%d-model.pb", i))
		if err := wire.WriteModel(path, m); err != nil {
			return nil, err
		}
		inputs.fixed = append(inputs.fixed, path)
	}
	if err := wire.WriteRows(inputs.rows, table); err != nil {
		return nil, err
	}
	if err := wire.WriteConfig(inputs.config, inputs.sampling); err != nil {
		return nil, err
	}
	return inputs, nil
}

// sample runs the sampler on one model and accumulates its draws.
func (r *CaseRunner) sample(ctx context.Context, c Case, label, modelPath string, inputs *caseInputs, dir string) (*aggregate.Accumulator, error) {
	cfg := inputs.sampling
	job := &interfaces.Job{
		ID:         uuid.NewString(),
		Dir:        dir,
		ModelPath:  modelPath,
		RowsPath:   inputs.rows,
		ConfigPath: inputs.config,
		Config:     cfg,
		Label:      label,
	}
	startTime := time.Now()
	samples, err := r.sampler.Sample(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("%s sampler on %s model: %w", r.sampler.Name(), label, err)
	}
	r.logger.LogEngineRun(c.Name(), label, len(samples), time.Since(startTime))
	if len(samples) != cfg.SampleCount {
		return nil, fmt.Errorf("%w: %s model got %d, want %d", execution.ErrSampleCountMismatch, label, len(samples), cfg.SampleCount)
	}

	acc := aggregate.NewAccumulator(r.config.ScoreTolerance)
	if err := acc.AddAll(samples); err != nil {
		return nil, fmt.Errorf("%s model: %w", label, err)
	}
	return acc, nil
}
