/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: nich.go
Description: Normal-inverse-chi-squared component model for real-valued features.
*/

package features

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// NormalInverseChiSqShared is the conjugate prior over a Gaussian mean and variance.
type NormalInverseChiSqShared struct {
	Mu      float64
	Kappa   float64
	Sigmasq float64
	Nu      float64
}

func (s *NormalInverseChiSqShared) Type() Type { return NormalInverseChiSq }

func (s *NormalInverseChiSqShared) Clone() Shared {
	c := *s
	return &c
}

func (s *NormalInverseChiSqShared) Realize(rng *rand.Rand) {}

// NewGroup draws sigma^2 ~ Scaled-Inv-chi^2(nu, sigmasq) then mu ~ N(mu0, sigma^2/kappa).
func (s *NormalInverseChiSqShared) NewGroup(rng *rand.Rand) Group {
	chi := distuv.ChiSquared{K: s.Nu, Src: rng}
	variance := s.Nu * s.Sigmasq / chi.Rand()
	mean := distuv.Normal{Mu: s.Mu, Sigma: math.Sqrt(variance / s.Kappa), Src: rng}
	return gaussianGroup{mu: mean.Rand(), sigma: math.Sqrt(variance)}
}

// LogMarginal is the Student-t evidence of the observations under the conjugate prior.
func (s *NormalInverseChiSqShared) LogMarginal(values []Value) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v.Real
	}
	mean /= n
	ss := 0.0
	for _, v := range values {
		d := v.Real - mean
		ss += d * d
	}

	kappaN := s.Kappa + n
	nuN := s.Nu + n
	scatter := s.Nu*s.Sigmasq + ss + n*s.Kappa/kappaN*(s.Mu-mean)*(s.Mu-mean)

	score := lgamma(nuN/2) - lgamma(s.Nu/2)
	score += 0.5 * math.Log(s.Kappa/kappaN)
	score += (s.Nu / 2) * math.Log(s.Nu*s.Sigmasq)
	score -= (nuN / 2) * math.Log(scatter)
	score -= (n / 2) * math.Log(math.Pi)
	return score
}

func (s *NormalInverseChiSqShared) field(name string) *float64 {
	switch name {
	case "mu":
		return &s.Mu
	case "kappa":
		return &s.Kappa
	case "sigmasq":
		return &s.Sigmasq
	case "nu":
		return &s.Nu
	}
	return nil
}

func (s *NormalInverseChiSqShared) Param(name string) ([]float64, error) {
	target := s.field(name)
	if target == nil {
		return nil, unknownParam(NormalInverseChiSq, name)
	}
	return []float64{*target}, nil
}

func (s *NormalInverseChiSqShared) SetParam(name string, values []float64) error {
	target := s.field(name)
	if target == nil {
		return unknownParam(NormalInverseChiSq, name)
	}
	v, err := scalarParam(name, values)
	if err != nil {
		return err
	}
	*target = v
	return nil
}

type gaussianGroup struct {
	mu    float64
	sigma float64
}

func (g gaussianGroup) Sample(rng *rand.Rand) Value {
	return Real(g.mu + g.sigma*rng.NormFloat64())
}
