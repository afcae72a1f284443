/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: sampler.go
Description: Built-in sampler that reads the same files the engine would, enumerates the
exact posterior and draws independent samples from it. Used as the engine stand-in for
self-tests and for checking the oracle itself.
*/

package reference

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/kleascm/akaylee-oracle/pkg/grid"
	"github.com/kleascm/akaylee-oracle/pkg/interfaces"
	"github.com/kleascm/akaylee-oracle/pkg/latent"
	"github.com/kleascm/akaylee-oracle/pkg/wire"
	"github.com/sirupsen/logrus"
)

// DefaultMaxLatents bounds the latent space the sampler will enumerate.
const DefaultMaxLatents = 1 << 20

// Sampler is the built-in exact sampler.
type Sampler struct {
	config *interfaces.SamplerConfig
	logger *logrus.Logger
}

// NewSampler creates a built-in sampler.
func NewSampler(logger *logrus.Logger) *Sampler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Sampler{logger: logger}
}

// Initialize applies limits, filling defaults for zero values.
func (s *Sampler) Initialize(config *interfaces.SamplerConfig) error {
	cfg := interfaces.SamplerConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.MaxLatents == 0 {
		cfg.MaxLatents = DefaultMaxLatents
	}
	if cfg.VectorCutoff == 0 {
		cfg.VectorCutoff = grid.DefaultVectorCutoff
	}
	s.config = &cfg
	return nil
}

// Name identifies the sampler in logs and results.
func (s *Sampler) Name() string { return "builtin" }

// Sample decodes the job files and draws Config.SampleCount samples.
func (s *Sampler) Sample(ctx context.Context, job *interfaces.Job) ([]latent.Scored, error) {
	if s.config == nil {
		if err := s.Initialize(nil); err != nil {
			return nil, err
		}
	}
	cfg, err := wire.ReadConfig(job.ConfigPath)
	if err != nil {
		return nil, err
	}
	return SampleFiles(ctx, cfg, job.ModelPath, job.RowsPath, s.config, s.logger.WithField("job", job.ID))
}

// SampleFiles runs the exact sampler over encoded model and rows files.
func SampleFiles(ctx context.Context, cfg wire.Config, modelPath, rowsPath string, limits *interfaces.SamplerConfig, logger logrus.FieldLogger) ([]latent.Scored, error) {
	m, err := wire.ReadModel(modelPath)
	if err != nil {
		return nil, err
	}
	schema, err := wire.SchemaOf(m)
	if err != nil {
		return nil, err
	}
	table, err := wire.ReadRows(rowsPath, schema)
	if err != nil {
		return nil, err
	}

	posterior, err := Enumerate(ctx, m, table, Options{
		InferKinds:        cfg.InferKinds(),
		MarginalizeHypers: cfg.HyperRun,
		MaxLatents:        limits.MaxLatents,
		VectorCutoff:      limits.VectorCutoff,
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate posterior: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"latents": len(posterior.Latents),
		"samples": cfg.SampleCount,
	}).Debug("Enumerated posterior")

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	return posterior.Draw(cfg.SampleCount, rng), nil
}

// Cleanup releases nothing; the sampler holds no resources.
func (s *Sampler) Cleanup() error { return nil }
