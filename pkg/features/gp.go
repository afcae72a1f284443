/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: gp.go
Description: Gamma-Poisson component model for count features.
*/

package features

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// GammaPoissonShared is a Gamma(shape alpha, scale inv_beta) prior over a Poisson rate.
type GammaPoissonShared struct {
	Alpha   float64
	InvBeta float64
}

func (s *GammaPoissonShared) Type() Type { return GammaPoisson }

func (s *GammaPoissonShared) Clone() Shared {
	c := *s
	return &c
}

func (s *GammaPoissonShared) Realize(rng *rand.Rand) {}

func (s *GammaPoissonShared) NewGroup(rng *rand.Rand) Group {
	prior := distuv.Gamma{Alpha: s.Alpha, Beta: 1 / s.InvBeta, Src: rng}
	return poissonGroup{lambda: prior.Rand()}
}

// LogMarginal is the negative-binomial likelihood of the observed counts.
func (s *GammaPoissonShared) LogMarginal(values []Value) float64 {
	beta := 1 / s.InvBeta
	n, sum := 0.0, 0.0
	score := 0.0
	for _, v := range values {
		x := float64(v.Count)
		n++
		sum += x
		score -= lgamma(x + 1)
	}
	score += s.Alpha*math.Log(beta) - lgamma(s.Alpha)
	score += lgamma(s.Alpha+sum) - (s.Alpha+sum)*math.Log(beta+n)
	return score
}

func (s *GammaPoissonShared) Param(name string) ([]float64, error) {
	switch name {
	case "alpha":
		return []float64{s.Alpha}, nil
	case "inv_beta":
		return []float64{s.InvBeta}, nil
	}
	return nil, unknownParam(GammaPoisson, name)
}

func (s *GammaPoissonShared) SetParam(name string, values []float64) error {
	var target *float64
	switch name {
	case "alpha":
		target = &s.Alpha
	case "inv_beta":
		target = &s.InvBeta
	default:
		return unknownParam(GammaPoisson, name)
	}
	v, err := scalarParam(name, values)
	if err != nil {
		return err
	}
	*target = v
	return nil
}

type poissonGroup struct {
	lambda float64
}

func (g poissonGroup) Sample(rng *rand.Rand) Value {
	if g.lambda <= 0 {
		return Count(0)
	}
	draw := distuv.Poisson{Lambda: g.lambda, Src: rng}
	return Count(uint32(draw.Rand()))
}
