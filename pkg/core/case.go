/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: case.go
Description: Test case construction. Each suite mode filters the dataset shapes by their
latent space size and crosses them with feature types, densities and the hyperparameter
targets under test.
*/

package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kleascm/akaylee-oracle/pkg/enumeration"
	"github.com/kleascm/akaylee-oracle/pkg/features"
	"github.com/kleascm/akaylee-oracle/pkg/grid"
)

// Mode selects the inference target of a suite
type Mode string

const (
	ModeCats             Mode = "cats"
	ModeKinds            Mode = "kinds"
	ModeFeatureHypers    Mode = "feature-hypers"
	ModeTopologyHypers   Mode = "topology-hypers"
	ModeClusteringHypers Mode = "clustering-hypers"
)

// Latent space ceilings for full runs and for quick self-checks.
const (
	DefaultCatMaxSize      = 100000
	DefaultKindMaxSize     = 205
	defaultCatTestMaxSize  = 100
	defaultKindTestMaxSize = 50
)

// Modes lists every suite mode in command order.
func Modes() []Mode {
	return []Mode{ModeCats, ModeKinds, ModeFeatureHypers, ModeTopologyHypers, ModeClusteringHypers}
}

// ParseMode resolves a mode name.
func ParseMode(name string) (Mode, error) {
	for _, m := range Modes() {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q", name)
}

// InferKinds reports whether the mode lets the engine move features between kinds.
func (m Mode) InferKinds() bool {
	return m == ModeKinds || m == ModeTopologyHypers
}

// DefaultMaxSize is the latent space ceiling used when none is given.
func (m Mode) DefaultMaxSize() uint64 {
	if m.InferKinds() {
		return DefaultKindMaxSize
	}
	return DefaultCatMaxSize
}

// SmokeMaxSize is the small ceiling used for quick self-checks.
func (m Mode) SmokeMaxSize() uint64 {
	if m.InferKinds() {
		return defaultKindTestMaxSize
	}
	return defaultCatTestMaxSize
}

// admits applies the shape filter of the mode.
func (m Mode) admits(objectCount, featureCount int) bool {
	switch m {
	case ModeCats:
		return objectCount > 1 && featureCount > 0
	case ModeKinds:
		return objectCount > 0 && featureCount > 0 && objectCount+featureCount > 2
	case ModeFeatureHypers, ModeClusteringHypers:
		return objectCount > 1 && featureCount == 1
	case ModeTopologyHypers:
		return objectCount > 1 && featureCount > 1
	}
	return false
}

// Case is one dataset configuration checked against the sampler
type Case struct {
	ObjectCount  int           `json:"object_count" yaml:"object_count"`
	FeatureCount int           `json:"feature_count" yaml:"feature_count"`
	FeatureType  features.Type `json:"feature_type" yaml:"feature_type"`
	Density      float64       `json:"density" yaml:"density"`
	InferKinds   bool          `json:"infer_kinds" yaml:"infer_kinds"`
	// Target is the hyperparameter under test, nil when hyperparameters are pinned.
	Target *grid.Target `json:"-" yaml:"-"`
}

// InferCats reports whether rows can be clustered at all.
func (c Case) InferCats() bool {
	return c.ObjectCount > 1
}

// InferHypers reports whether the hyper kernel runs.
func (c Case) InferHypers() bool {
	return c.Target != nil
}

// Name renders the case as objects-features-type-density-flags, with the hyperparameter
// target appended for hyper cases.
func (c Case) Name() string {
	var flags strings.Builder
	if c.InferCats() {
		flags.WriteByte('C')
	}
	if c.InferKinds {
		flags.WriteByte('K')
	}
	if c.InferHypers() {
		flags.WriteByte('H')
	}
	name := fmt.Sprintf("%d-%d-%s-%s-%s", c.ObjectCount, c.FeatureCount, c.FeatureType, formatDensity(c.Density), flags.String())
	if c.Target != nil {
		name += "-" + c.Target.String()
	}
	return name
}

func formatDensity(d float64) string {
	if d == float64(int64(d)) {
		return strconv.FormatFloat(d, 'f', 1, 64)
	}
	return strconv.FormatFloat(d, 'f', -1, 64)
}

// LatentCount is the exact size of the latent space the sampler explores.
func (c Case) LatentCount() uint64 {
	return enumeration.ExactLatentCount(c.ObjectCount, c.FeatureCount, c.InferKinds)
}

// SampleCount is the number of draws requested from the sampler.
func (c Case) SampleCount(samplesPerLatent int) int {
	return samplesPerLatent * int(c.LatentCount())
}

// BuildCases lists the cases of a mode whose shapes have at most maxSize latents
func BuildCases(mode Mode, maxSize uint64, cfg *SuiteConfig) ([]Case, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	var shapes []enumeration.Shape
	for _, shape := range enumeration.BuildLatentSizes(maxSize).Shapes() {
		if mode.admits(shape.ObjectCount, shape.FeatureCount) {
			shapes = append(shapes, shape)
		}
	}

	var cases []Case
	for _, shape := range shapes {
		for _, featureType := range cfg.FeatureTypes {
			for _, density := range cfg.Densities {
				base := Case{
					ObjectCount:  shape.ObjectCount,
					FeatureCount: shape.FeatureCount,
					FeatureType:  featureType,
					Density:      density,
					InferKinds:   mode.InferKinds(),
				}
				for _, target := range targets(mode, featureType, cfg) {
					c := base
					c.Target = target
					cases = append(cases, c)
				}
			}
		}
	}
	return cases, nil
}

// targets lists the hyperparameter targets of a mode; nil stands for pinned hypers.
func targets(mode Mode, featureType features.Type, cfg *SuiteConfig) []*grid.Target {
	switch mode {
	case ModeFeatureHypers:
		var out []*grid.Target
		for _, target := range grid.FeatureTargets(cfg.HyperPrior, featureType) {
			out = append(out, &target)
		}
		return out
	case ModeTopologyHypers:
		if len(cfg.HyperPrior.Topology) == 0 {
			return nil
		}
		target := grid.Topology()
		return []*grid.Target{&target}
	case ModeClusteringHypers:
		if len(cfg.HyperPrior.Clustering) == 0 {
			return nil
		}
		target := grid.Clustering()
		return []*grid.Target{&target}
	}
	return []*grid.Target{nil}
}
