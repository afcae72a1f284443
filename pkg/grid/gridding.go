/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: gridding.go
Description: One-dimensional quadrature grids and the Pitman-Yor hyperparameter grid.
Every builder returns point_count values inside [min, max].
*/

package grid

import (
	"fmt"
	"math"
	"slices"

	"github.com/kleascm/akaylee-oracle/pkg/clustering"
)

// Uniform places points at the centers of pointCount equal cells.
func Uniform(min, max float64, pointCount int) []float64 {
	grid := make([]float64, pointCount)
	step := (max - min) / float64(pointCount)
	for i := range grid {
		grid[i] = min + (float64(i)+0.5)*step
	}
	return grid
}

// CenterHeavy concentrates points near the middle of the interval.
func CenterHeavy(min, max float64, pointCount int) []float64 {
	grid := Uniform(-1, 1, pointCount)
	for i, x := range grid {
		grid[i] = min + (math.Asin(x)/math.Pi+0.5)*(max-min)
	}
	return grid
}

// LeftHeavy concentrates points near min.
func LeftHeavy(min, max float64, pointCount int) []float64 {
	grid := Uniform(0, 1, pointCount)
	for i, x := range grid {
		grid[i] = min + x*x*(max-min)
	}
	return grid
}

// RightHeavy concentrates points near max, in increasing order.
func RightHeavy(min, max float64, pointCount int) []float64 {
	grid := LeftHeavy(max, min, pointCount)
	slices.Reverse(grid)
	return grid
}

// PitmanYorSpec bounds a Pitman-Yor grid.
type PitmanYorSpec struct {
	MinAlpha   float64 `json:"min_alpha" yaml:"min_alpha" mapstructure:"min_alpha"`
	MaxAlpha   float64 `json:"max_alpha" yaml:"max_alpha" mapstructure:"max_alpha"`
	MinD       float64 `json:"min_d" yaml:"min_d" mapstructure:"min_d"`
	MaxD       float64 `json:"max_d" yaml:"max_d" mapstructure:"max_d"`
	AlphaCount int     `json:"alpha_count" yaml:"alpha_count" mapstructure:"alpha_count"`
	DCount     int     `json:"d_count" yaml:"d_count" mapstructure:"d_count"`
}

// Validate rejects specs whose grid would be empty or leave the Pitman-Yor domain.
func (s PitmanYorSpec) Validate() error {
	if s.MinAlpha <= 0 || s.MaxAlpha < s.MinAlpha {
		return fmt.Errorf("pitman-yor alpha range must satisfy 0 < min <= max, got [%g, %g]", s.MinAlpha, s.MaxAlpha)
	}
	if s.MinD < 0 || s.MaxD < s.MinD || s.MaxD >= 1 {
		return fmt.Errorf("pitman-yor d range must lie in [0, 1), got [%g, %g]", s.MinD, s.MaxD)
	}
	if s.AlphaCount <= 0 || s.DCount <= 0 {
		return fmt.Errorf("pitman-yor grid counts must be positive, got %d x %d", s.AlphaCount, s.DCount)
	}
	return nil
}

// DefaultPitmanYorSpec spans alpha in [0.1, 100] and d in [0, 0.5].
var DefaultPitmanYorSpec = PitmanYorSpec{
	MinAlpha:   0.1,
	MaxAlpha:   100,
	MinD:       0,
	MaxD:       0.5,
	AlphaCount: 20,
	DCount:     10,
}

// PitmanYorGrid covers the lower triangle of the unit square, mapping one axis
// log-uniformly to alpha and the other linearly to d. For d = 0 the prior is a CRP whose
// expected table count grows as alpha log(n).
func PitmanYorGrid(spec PitmanYorSpec) []clustering.PitmanYor {
	var grid []clustering.PitmanYor
	for _, x := range CenterHeavy(0, 1, spec.AlphaCount) {
		for _, y := range LeftHeavy(0, 1, spec.DCount) {
			if x+y >= 1 {
				continue
			}
			grid = append(grid, clustering.PitmanYor{
				Alpha: spec.MinAlpha * math.Pow(spec.MaxAlpha/spec.MinAlpha, x),
				D:     spec.MinD + (spec.MaxD-spec.MinD)*y,
			})
		}
	}
	return grid
}
