/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: builders.go
Description: Configured grid generation. A hyperprior can name a builder shape and bounds
instead of listing every grid point; Builders expands those entries into the hyperprior
before the suite runs.
*/

package grid

import (
	"fmt"
	"maps"
	"slices"

	"github.com/kleascm/akaylee-oracle/pkg/features"
	"github.com/kleascm/akaylee-oracle/pkg/model"
)

// Shape names a one-dimensional grid builder
type Shape string

const (
	ShapeUniform     Shape = "uniform"
	ShapeCenterHeavy Shape = "center_heavy"
	ShapeLeftHeavy   Shape = "left_heavy"
	ShapeRightHeavy  Shape = "right_heavy"
)

var shapes = map[Shape]func(min, max float64, pointCount int) []float64{
	ShapeUniform:     Uniform,
	ShapeCenterHeavy: CenterHeavy,
	ShapeLeftHeavy:   LeftHeavy,
	ShapeRightHeavy:  RightHeavy,
}

// Builder generates Points values inside [Min, Max] with the named shape.
type Builder struct {
	Shape  Shape   `json:"shape" yaml:"shape" mapstructure:"shape"`
	Min    float64 `json:"min" yaml:"min" mapstructure:"min"`
	Max    float64 `json:"max" yaml:"max" mapstructure:"max"`
	Points int     `json:"points" yaml:"points" mapstructure:"points"`
}

// Values builds the grid.
func (b Builder) Values() ([]float64, error) {
	build, ok := shapes[b.Shape]
	if !ok {
		return nil, fmt.Errorf("unknown grid shape %q", b.Shape)
	}
	if b.Points <= 0 {
		return nil, fmt.Errorf("grid points must be positive, got %d", b.Points)
	}
	if b.Max < b.Min {
		return nil, fmt.Errorf("grid bounds are reversed: [%g, %g]", b.Min, b.Max)
	}
	return build(b.Min, b.Max, b.Points), nil
}

// Builders lists generated grids that replace the matching hyperprior entries.
type Builders struct {
	Topology   *PitmanYorSpec                       `json:"topology" yaml:"topology" mapstructure:"topology"`
	Clustering *PitmanYorSpec                       `json:"clustering" yaml:"clustering" mapstructure:"clustering"`
	Features   map[features.Type]map[string]Builder `json:"features" yaml:"features" mapstructure:"features"`
}

// Apply returns a copy of prior with every configured grid generated in place.
func (b Builders) Apply(prior model.HyperPrior) (model.HyperPrior, error) {
	out := prior.Clone()
	if b.Topology != nil {
		if err := b.Topology.Validate(); err != nil {
			return out, fmt.Errorf("topology: %w", err)
		}
		out.Topology = PitmanYorGrid(*b.Topology)
	}
	if b.Clustering != nil {
		if err := b.Clustering.Validate(); err != nil {
			return out, fmt.Errorf("clustering: %w", err)
		}
		out.Clustering = PitmanYorGrid(*b.Clustering)
	}
	for _, typ := range slices.Sorted(maps.Keys(b.Features)) {
		family, err := features.Lookup(typ)
		if err != nil {
			return out, err
		}
		params := b.Features[family.Type]
		for _, param := range slices.Sorted(maps.Keys(params)) {
			if !slices.Contains(family.HyperParams, param) {
				return out, fmt.Errorf("%s has no hyperparameter %q", family.Type, param)
			}
			values, err := params[param].Values()
			if err != nil {
				return out, fmt.Errorf("%s.%s: %w", family.Type, param, err)
			}
			if out.Features != nil {
				delete(out.Features[family.Type], param)
			}
			out.AddFeatureGrid(family.Type, param, values...)
		}
	}
	return out, nil
}
