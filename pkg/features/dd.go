/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: dd.go
Description: Dirichlet-discrete component model for categorical features with a fixed
number of categories. The alpha hyperparameter is vector-valued, one entry per category.
*/

package features

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// DirichletDiscreteShared is a Dirichlet(alphas) prior over category weights.
type DirichletDiscreteShared struct {
	Alphas []float64
}

func (s *DirichletDiscreteShared) Type() Type { return DirichletDiscrete }

func (s *DirichletDiscreteShared) Clone() Shared {
	return &DirichletDiscreteShared{Alphas: slices.Clone(s.Alphas)}
}

func (s *DirichletDiscreteShared) Realize(rng *rand.Rand) {}

func (s *DirichletDiscreteShared) NewGroup(rng *rand.Rand) Group {
	return categoricalGroup{probs: sampleDirichlet(s.Alphas, rng)}
}

// LogMarginal is the Dirichlet-multinomial likelihood of the observed sequence.
func (s *DirichletDiscreteShared) LogMarginal(values []Value) float64 {
	counts := make([]float64, len(s.Alphas))
	for _, v := range values {
		if int(v.Count) >= len(counts) {
			return math.Inf(-1)
		}
		counts[v.Count]++
	}
	return dirichletMultinomial(s.Alphas, counts)
}

func (s *DirichletDiscreteShared) Param(name string) ([]float64, error) {
	if name != "alpha" {
		return nil, unknownParam(DirichletDiscrete, name)
	}
	return slices.Clone(s.Alphas), nil
}

func (s *DirichletDiscreteShared) SetParam(name string, values []float64) error {
	if name != "alpha" {
		return unknownParam(DirichletDiscrete, name)
	}
	if len(values) != len(s.Alphas) {
		return fmt.Errorf("dd alpha has %d components, got %d values", len(s.Alphas), len(values))
	}
	copy(s.Alphas, values)
	return nil
}

// sampleDirichlet draws category weights, falling back to the prior mean when every
// component underflows. Stick-breaking weights can reach zero, so alphas are floored.
func sampleDirichlet(alphas []float64, rng *rand.Rand) []float64 {
	positive := make([]float64, len(alphas))
	for i, a := range alphas {
		positive[i] = math.Max(a, math.SmallestNonzeroFloat64)
	}
	probs := distmv.NewDirichlet(positive, rng).Rand(nil)
	if floats.Sum(probs) > 0 {
		return probs
	}
	copy(probs, positive)
	floats.Scale(1/floats.Sum(probs), probs)
	return probs
}

func dirichletMultinomial(alphas, counts []float64) float64 {
	sumAlpha, n := 0.0, 0.0
	score := 0.0
	for i, a := range alphas {
		sumAlpha += a
		n += counts[i]
		score += lgamma(a+counts[i]) - lgamma(a)
	}
	return score + lgamma(sumAlpha) - lgamma(sumAlpha+n)
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// categoricalGroup emits category indices; index len(probs)-1 may be remapped by callers.
type categoricalGroup struct {
	probs  []float64
	labels []uint32
}

func (g categoricalGroup) Sample(rng *rand.Rand) Value {
	index := int(distuv.NewCategorical(g.probs, rng).Rand())
	if g.labels != nil {
		return Count(g.labels[index])
	}
	return Count(uint32(index))
}
