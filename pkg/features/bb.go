/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: bb.go
Description: Beta-Bernoulli component model for boolean features.
*/

package features

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// BetaBernoulliShared is a Beta(alpha, beta) prior over a coin weight.
type BetaBernoulliShared struct {
	Alpha float64
	Beta  float64
}

func (s *BetaBernoulliShared) Type() Type { return BetaBernoulli }

func (s *BetaBernoulliShared) Clone() Shared {
	c := *s
	return &c
}

func (s *BetaBernoulliShared) Realize(rng *rand.Rand) {}

func (s *BetaBernoulliShared) NewGroup(rng *rand.Rand) Group {
	prior := distuv.Beta{Alpha: s.Alpha, Beta: s.Beta, Src: rng}
	return bernoulliGroup{p: prior.Rand()}
}

// LogMarginal is log B(alpha+heads, beta+tails) - log B(alpha, beta).
func (s *BetaBernoulliShared) LogMarginal(values []Value) float64 {
	heads, tails := 0.0, 0.0
	for _, v := range values {
		if v.Bool {
			heads++
		} else {
			tails++
		}
	}
	return mathext.Lbeta(s.Alpha+heads, s.Beta+tails) - mathext.Lbeta(s.Alpha, s.Beta)
}

func (s *BetaBernoulliShared) Param(name string) ([]float64, error) {
	switch name {
	case "alpha":
		return []float64{s.Alpha}, nil
	case "beta":
		return []float64{s.Beta}, nil
	}
	return nil, unknownParam(BetaBernoulli, name)
}

func (s *BetaBernoulliShared) SetParam(name string, values []float64) error {
	var target *float64
	switch name {
	case "alpha":
		target = &s.Alpha
	case "beta":
		target = &s.Beta
	default:
		return unknownParam(BetaBernoulli, name)
	}
	v, err := scalarParam(name, values)
	if err != nil {
		return err
	}
	*target = v
	return nil
}

type bernoulliGroup struct {
	p float64
}

func (g bernoulliGroup) Sample(rng *rand.Rand) Value {
	return Bool(rng.Float64() < g.p)
}
