/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: config.go
Description: Suite configuration. Thresholds, sampling schedule, grid definitions and the
feature registry subset under test, passed explicitly into the suite. Loaded by viper
through mapstructure tags.
*/

package core

import (
	"fmt"
	"runtime"
	"time"

	"github.com/kleascm/akaylee-oracle/pkg/aggregate"
	"github.com/kleascm/akaylee-oracle/pkg/features"
	"github.com/kleascm/akaylee-oracle/pkg/gof"
	"github.com/kleascm/akaylee-oracle/pkg/grid"
	"github.com/kleascm/akaylee-oracle/pkg/interfaces"
	"github.com/kleascm/akaylee-oracle/pkg/model"
	"github.com/kleascm/akaylee-oracle/pkg/reference"
)

// DefaultSeed seeds model and row generation for every case.
const DefaultSeed = 123

// EngineConfig locates the external inference engine.
// Path "builtin" selects the reference sampler.
type EngineConfig struct {
	Path    string        `json:"path" yaml:"path" mapstructure:"path"`
	Args    []string      `json:"args" yaml:"args" mapstructure:"args"`
	Env     []string      `json:"env" yaml:"env" mapstructure:"env"`
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// BuiltinEngine names the reference sampler in EngineConfig.Path.
const BuiltinEngine = "builtin"

// SuiteConfig contains every tunable of a suite run
type SuiteConfig struct {
	Seed uint64 `json:"seed" yaml:"seed" mapstructure:"seed"`

	// Goodness of fit
	TruncateCount    int     `json:"truncate_count" yaml:"truncate_count" mapstructure:"truncate_count"`
	MinGoodnessOfFit float64 `json:"min_goodness_of_fit" yaml:"min_goodness_of_fit" mapstructure:"min_goodness_of_fit"`
	ScoreTolerance   float64 `json:"score_tolerance" yaml:"score_tolerance" mapstructure:"score_tolerance"`

	// Sampling schedule
	SamplesPerLatent int    `json:"samples_per_latent" yaml:"samples_per_latent" mapstructure:"samples_per_latent"`
	SampleSkip       int    `json:"sample_skip" yaml:"sample_skip" mapstructure:"sample_skip"`
	KindIterations   int    `json:"kind_iterations" yaml:"kind_iterations" mapstructure:"kind_iterations"`
	MaxLatents       uint64 `json:"max_latents" yaml:"max_latents" mapstructure:"max_latents"`
	VectorCutoff     int    `json:"vector_cutoff" yaml:"vector_cutoff" mapstructure:"vector_cutoff"`

	// Execution
	Workers     int          `json:"workers" yaml:"workers" mapstructure:"workers"`
	Debug       bool         `json:"debug" yaml:"debug" mapstructure:"debug"`
	ScratchRoot string       `json:"scratch_root" yaml:"scratch_root" mapstructure:"scratch_root"`
	Engine      EngineConfig `json:"engine" yaml:"engine" mapstructure:"engine"`

	// Case space
	Densities    []float64        `json:"densities" yaml:"densities" mapstructure:"densities"`
	FeatureTypes []features.Type  `json:"feature_types" yaml:"feature_types" mapstructure:"feature_types"`
	HyperPrior   model.HyperPrior `json:"hyper_prior" yaml:"hyper_prior" mapstructure:"hyper_prior"`
	GridBuilders grid.Builders    `json:"grid_builders" yaml:"grid_builders" mapstructure:"grid_builders"`
}

// DefaultSuiteConfig returns the configuration the suites were calibrated with
func DefaultSuiteConfig() *SuiteConfig {
	return &SuiteConfig{
		Seed:             DefaultSeed,
		TruncateCount:    gof.DefaultTruncateCount,
		MinGoodnessOfFit: gof.DefaultMinGoodnessOfFit,
		ScoreTolerance:   aggregate.DefaultScoreTolerance,
		SamplesPerLatent: 10,
		SampleSkip:       10,
		KindIterations:   32,
		MaxLatents:       reference.DefaultMaxLatents,
		VectorCutoff:     grid.DefaultVectorCutoff,
		Workers:          runtime.NumCPU(),
		Engine: EngineConfig{
			Path:    BuiltinEngine,
			Timeout: 10 * time.Minute,
		},
		Densities:    []float64{1.0, 0.5, 0.0},
		FeatureTypes: features.Types(),
		HyperPrior:   grid.DefaultHyperPrior(),
	}
}

// ApplyGridBuilders generates the configured grids into HyperPrior
func (c *SuiteConfig) ApplyGridBuilders() error {
	prior, err := c.GridBuilders.Apply(c.HyperPrior)
	if err != nil {
		return fmt.Errorf("grid_builders: %w", err)
	}
	c.HyperPrior = prior
	c.GridBuilders = grid.Builders{}
	return nil
}

// Validate rejects configurations the suite cannot run
func (c *SuiteConfig) Validate() error {
	if c.TruncateCount <= 0 {
		return fmt.Errorf("truncate_count must be positive, got %d", c.TruncateCount)
	}
	if c.MinGoodnessOfFit <= 0 || c.MinGoodnessOfFit >= 1 {
		return fmt.Errorf("min_goodness_of_fit must be in (0, 1), got %g", c.MinGoodnessOfFit)
	}
	if c.ScoreTolerance <= 0 {
		return fmt.Errorf("score_tolerance must be positive, got %g", c.ScoreTolerance)
	}
	if c.SamplesPerLatent <= 0 {
		return fmt.Errorf("samples_per_latent must be positive, got %d", c.SamplesPerLatent)
	}
	if c.SampleSkip < 0 || c.KindIterations < 0 {
		return fmt.Errorf("sample_skip and kind_iterations must not be negative")
	}
	if c.VectorCutoff <= 0 {
		return fmt.Errorf("vector_cutoff must be positive, got %d", c.VectorCutoff)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Engine.Path == "" {
		return fmt.Errorf("engine path is required")
	}
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("engine timeout must be positive, got %s", c.Engine.Timeout)
	}
	if len(c.Densities) == 0 {
		return fmt.Errorf("at least one density is required")
	}
	for _, d := range c.Densities {
		if d < 0 || d > 1 {
			return fmt.Errorf("density must be in [0, 1], got %g", d)
		}
	}
	if len(c.FeatureTypes) == 0 {
		return fmt.Errorf("at least one feature type is required")
	}
	for _, t := range c.FeatureTypes {
		if _, err := features.Lookup(t); err != nil {
			return err
		}
	}
	for _, p := range c.HyperPrior.Topology {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("topology grid: %w", err)
		}
	}
	for _, p := range c.HyperPrior.Clustering {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("clustering grid: %w", err)
		}
	}
	for family := range c.HyperPrior.Features {
		if _, err := features.Lookup(family); err != nil {
			return fmt.Errorf("hyper prior: %w", err)
		}
	}
	return nil
}

// SamplerConfig derives the sampler limits from the suite configuration
func (c *SuiteConfig) SamplerConfig() *interfaces.SamplerConfig {
	return &interfaces.SamplerConfig{
		EnginePath:   c.Engine.Path,
		EngineArgs:   c.Engine.Args,
		EngineEnv:    c.Engine.Env,
		Timeout:      c.Engine.Timeout,
		MaxLatents:   c.MaxLatents,
		VectorCutoff: c.VectorCutoff,
	}
}

// Checker builds the goodness-of-fit checker for these thresholds
func (c *SuiteConfig) Checker() gof.Checker {
	return gof.Checker{TruncateCount: c.TruncateCount, MinGoodnessOfFit: c.MinGoodnessOfFit}
}
