/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: expand.go
Description: Grid expansion for hyperparameter tests. A target hyperparameter and its
grid produce one free model carrying the grid as a hyperprior and one fixed model per grid
point with the parameter pinned. Vector parameters expand to the Cartesian product across
components.
*/

package grid

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/kleascm/akaylee-oracle/pkg/clustering"
	"github.com/kleascm/akaylee-oracle/pkg/features"
	"github.com/kleascm/akaylee-oracle/pkg/model"
)

// ErrGridTooLarge marks a vector grid whose product exceeds the dimension cutoff.
var ErrGridTooLarge = errors.New("grid product exceeds cutoff")

// DefaultVectorCutoff is the largest vector dimension expanded into a product grid.
const DefaultVectorCutoff = 4

// Scope says which part of the model a target hyperparameter lives in.
type Scope int

const (
	TopologyScope Scope = iota
	ClusteringScope
	FeatureScope
)

// Target names one hyperparameter under test.
type Target struct {
	Scope  Scope
	Family features.Type
	Param  string
}

// Topology targets the Pitman-Yor prior over feature kinds.
func Topology() Target { return Target{Scope: TopologyScope} }

// Clustering targets the Pitman-Yor prior over rows within each kind.
func Clustering() Target { return Target{Scope: ClusteringScope} }

// Feature targets a parameter of a feature family.
func Feature(family features.Type, param string) Target {
	return Target{Scope: FeatureScope, Family: family, Param: param}
}

func (t Target) String() string {
	switch t.Scope {
	case TopologyScope:
		return "topology"
	case ClusteringScope:
		return "clustering"
	default:
		return string(t.Family) + "." + t.Param
	}
}

// Grid holds the candidate values of a target: Pitman-Yor points for topology and
// clustering, scalar values otherwise.
type Grid struct {
	PitmanYor []clustering.PitmanYor
	Values    []float64
}

// Len returns the number of grid points.
func (g Grid) Len() int {
	return len(g.PitmanYor) + len(g.Values)
}

// Expansion is the result of expanding a target over its grid.
type Expansion struct {
	Free  *model.CrossCat
	Fixed []*model.CrossCat
	// Points labels each fixed model.
	Points []string
}

// Expand builds the free and fixed models. Vector parameters whose dimension exceeds
// cutoff return ErrGridTooLarge.
func Expand(base *model.CrossCat, target Target, grid Grid, cutoff int) (*Expansion, error) {
	switch target.Scope {
	case TopologyScope, ClusteringScope:
		if len(grid.PitmanYor) == 0 {
			return nil, fmt.Errorf("%s grid is empty", target)
		}
	case FeatureScope:
		if len(grid.Values) == 0 {
			return nil, fmt.Errorf("%s grid is empty", target)
		}
	default:
		return nil, fmt.Errorf("unknown target scope %d", target.Scope)
	}

	free := base.Clone()
	exp := &Expansion{Free: free}
	switch target.Scope {
	case TopologyScope:
		free.HyperPrior.Topology = append(free.HyperPrior.Topology, grid.PitmanYor...)
		for _, point := range grid.PitmanYor {
			fixed := base.Clone()
			fixed.Topology = point
			exp.add(fixed, point.String())
		}
	case ClusteringScope:
		free.HyperPrior.Clustering = append(free.HyperPrior.Clustering, grid.PitmanYor...)
		for _, point := range grid.PitmanYor {
			fixed := base.Clone()
			for i := range fixed.Kinds {
				fixed.Kinds[i].Clustering = point
			}
			exp.add(fixed, point.String())
		}
	case FeatureScope:
		dim, err := paramDim(base, target)
		if err != nil {
			return nil, err
		}
		if dim > cutoff {
			return nil, fmt.Errorf("%w: %s has %d components, cutoff %d", ErrGridTooLarge, target, dim, cutoff)
		}
		free.HyperPrior.AddFeatureGrid(target.Family, target.Param, grid.Values...)
		for _, values := range Product(grid.Values, dim) {
			fixed := base.Clone()
			if err := pin(fixed, target, values); err != nil {
				return nil, err
			}
			exp.add(fixed, formatValues(values))
		}
	}
	return exp, nil
}

func (e *Expansion) add(fixed *model.CrossCat, label string) {
	e.Fixed = append(e.Fixed, fixed)
	e.Points = append(e.Points, label)
}

// paramDim returns the component count of the target parameter, checking every feature
// of the family agrees.
func paramDim(m *model.CrossCat, target Target) (int, error) {
	dim := 0
	for _, kind := range m.Kinds {
		for _, shared := range kind.Features {
			if shared.Type() != target.Family {
				continue
			}
			values, err := shared.Param(target.Param)
			if err != nil {
				return 0, err
			}
			if dim != 0 && dim != len(values) {
				return 0, fmt.Errorf("%s has inconsistent dimension %d vs %d", target, dim, len(values))
			}
			dim = len(values)
		}
	}
	if dim == 0 {
		return 0, fmt.Errorf("model has no %s feature", target.Family)
	}
	return dim, nil
}

func pin(m *model.CrossCat, target Target, values []float64) error {
	for _, kind := range m.Kinds {
		for _, shared := range kind.Features {
			if shared.Type() != target.Family {
				continue
			}
			if err := shared.SetParam(target.Param, values); err != nil {
				return fmt.Errorf("pin %s: %w", target, err)
			}
		}
	}
	return nil
}

// Product returns every dim-tuple drawn from values, the last component varying fastest.
func Product(values []float64, dim int) [][]float64 {
	if dim <= 0 {
		return [][]float64{{}}
	}
	out := [][]float64{}
	tuple := make([]float64, dim)
	var fill func(i int)
	fill = func(i int) {
		if i == dim {
			out = append(out, slices.Clone(tuple))
			return
		}
		for _, v := range values {
			tuple[i] = v
			fill(i + 1)
		}
	}
	fill(0)
	return out
}

// Setting is one joint assignment of gridded parameters of a feature.
type Setting map[string][]float64

// Settings enumerates the joint grid of every gridded parameter of shared: the Cartesian
// product over parameters, each vector parameter itself expanded per component.
func Settings(shared features.Shared, params map[string][]float64, cutoff int) ([]Setting, error) {
	settings := []Setting{{}}
	for _, name := range slices.Sorted(maps.Keys(params)) {
		values := params[name]
		if len(values) == 0 {
			continue
		}
		current, err := shared.Param(name)
		if err != nil {
			return nil, err
		}
		if len(current) > cutoff {
			return nil, fmt.Errorf("%w: %s.%s has %d components, cutoff %d", ErrGridTooLarge, shared.Type(), name, len(current), cutoff)
		}
		var next []Setting
		for _, setting := range settings {
			for _, tuple := range Product(values, len(current)) {
				extended := maps.Clone(setting)
				extended[name] = tuple
				next = append(next, extended)
			}
		}
		settings = next
	}
	return settings, nil
}

// Apply returns a copy of shared with the setting pinned.
func (s Setting) Apply(shared features.Shared) (features.Shared, error) {
	out := shared.Clone()
	for name, values := range s {
		if err := out.SetParam(name, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func formatValues(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
