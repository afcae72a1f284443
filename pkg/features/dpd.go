/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: dpd.go
Description: Dirichlet-process-discrete component model for open-ended categorical
features. Known values carry stick-breaking weights; the residual weight beta0 covers
every value not yet seen.
*/

package features

import (
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"
)

// DirichletProcessDiscreteShared holds the base measure of a Dirichlet process.
type DirichletProcessDiscreteShared struct {
	Gamma  float64
	Alpha  float64
	Values []uint32
	Betas  []float64
	Beta0  float64
}

func (s *DirichletProcessDiscreteShared) Type() Type { return DirichletProcessDiscrete }

func (s *DirichletProcessDiscreteShared) Clone() Shared {
	c := *s
	c.Values = slices.Clone(s.Values)
	c.Betas = slices.Clone(s.Betas)
	return &c
}

// Realize redraws the known-value weights by stick breaking with concentration gamma.
func (s *DirichletProcessDiscreteShared) Realize(rng *rand.Rand) {
	remaining := 1.0
	stick := distuv.Beta{Alpha: 1, Beta: s.Gamma, Src: rng}
	for i := range s.Betas {
		s.Betas[i] = remaining * stick.Rand()
		remaining -= s.Betas[i]
	}
	s.Beta0 = remaining
}

func (s *DirichletProcessDiscreteShared) NewGroup(rng *rand.Rand) Group {
	alphas := s.weights()
	labels := append(slices.Clone(s.Values), s.otherValue())
	return categoricalGroup{probs: sampleDirichlet(alphas, rng), labels: labels}
}

// LogMarginal treats every unseen value as one residual category with weight alpha*beta0.
func (s *DirichletProcessDiscreteShared) LogMarginal(values []Value) float64 {
	counts := make([]float64, len(s.Values)+1)
	for _, v := range values {
		index := slices.Index(s.Values, v.Count)
		if index < 0 {
			index = len(s.Values)
		}
		counts[index]++
	}
	return dirichletMultinomial(s.weights(), counts)
}

func (s *DirichletProcessDiscreteShared) weights() []float64 {
	alphas := make([]float64, len(s.Betas)+1)
	for i, b := range s.Betas {
		alphas[i] = s.Alpha * b
	}
	alphas[len(s.Betas)] = s.Alpha * s.Beta0
	return alphas
}

func (s *DirichletProcessDiscreteShared) otherValue() uint32 {
	next := uint32(0)
	for _, v := range s.Values {
		next = max(next, v+1)
	}
	return next
}

func (s *DirichletProcessDiscreteShared) Param(name string) ([]float64, error) {
	switch name {
	case "alpha":
		return []float64{s.Alpha}, nil
	case "gamma":
		return []float64{s.Gamma}, nil
	}
	return nil, unknownParam(DirichletProcessDiscrete, name)
}

func (s *DirichletProcessDiscreteShared) SetParam(name string, values []float64) error {
	var target *float64
	switch name {
	case "alpha":
		target = &s.Alpha
	case "gamma":
		target = &s.Gamma
	default:
		return unknownParam(DirichletProcessDiscrete, name)
	}
	v, err := scalarParam(name, values)
	if err != nil {
		return err
	}
	*target = v
	return nil
}
