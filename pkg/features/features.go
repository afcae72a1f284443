/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: features.go
Description: Feature-type registry for synthetic cross-cat models. Each feature type is a
conjugate component model exposing the same capability set: example shared parameters,
group sampling, exact marginal likelihood, and pinning of hyperparameters.
*/

package features

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

// Type names a component model family.
type Type string

const (
	BetaBernoulli            Type = "bb"
	DirichletDiscrete        Type = "dd"
	DirichletProcessDiscrete Type = "dpd"
	GammaPoisson             Type = "gp"
	NormalInverseChiSq       Type = "nich"
)

// ErrUnknownParam is returned when a hyperparameter name does not belong to a family.
var ErrUnknownParam = errors.New("unknown hyperparameter")

// ValueKind is the typed slot a feature value occupies on the wire.
type ValueKind int

const (
	BooleanValue ValueKind = iota
	CountValue
	RealValue
)

// String implements fmt.Stringer.
func (k ValueKind) String() string {
	switch k {
	case BooleanValue:
		return "boolean"
	case CountValue:
		return "count"
	case RealValue:
		return "real"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is one observed cell.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Count uint32
	Real  float64
}

// Bool wraps a boolean observation.
func Bool(b bool) Value { return Value{Kind: BooleanValue, Bool: b} }

// Count wraps a count or categorical observation.
func Count(c uint32) Value { return Value{Kind: CountValue, Count: c} }

// Real wraps a real-valued observation.
func Real(r float64) Value { return Value{Kind: RealValue, Real: r} }

// Shared holds the parameters a feature shares across all groups.
type Shared interface {
	// Type returns the family of this feature.
	Type() Type
	// Clone deep-copies the parameters.
	Clone() Shared
	// Realize draws any parameters that are sampled once per model.
	Realize(rng *rand.Rand)
	// NewGroup draws the parameters of a fresh group from the prior.
	NewGroup(rng *rand.Rand) Group
	// LogMarginal scores the values of one group with its parameters integrated out.
	LogMarginal(values []Value) float64
	// Param returns the current value of a hyperparameter; vectors have one entry per component.
	Param(name string) ([]float64, error)
	// SetParam pins a hyperparameter; values must match the length Param reports.
	SetParam(name string, values []float64) error
}

// Group draws observations from one component.
type Group interface {
	Sample(rng *rand.Rand) Value
}

// Family describes a feature type.
type Family struct {
	Type        Type
	Kind        ValueKind
	Description string
	HyperParams []string
	example     func() Shared
}

// Example returns a fresh copy of the family's example shared parameters.
func (f Family) Example() Shared {
	return f.example()
}

var registry = map[Type]Family{
	BetaBernoulli: {
		Type:        BetaBernoulli,
		Kind:        BooleanValue,
		Description: "Beta-Bernoulli boolean feature",
		HyperParams: []string{"alpha", "beta"},
		example:     func() Shared { return &BetaBernoulliShared{Alpha: 0.5, Beta: 2.0} },
	},
	DirichletDiscrete: {
		Type:        DirichletDiscrete,
		Kind:        CountValue,
		Description: "Dirichlet-discrete categorical feature with a fixed category count",
		HyperParams: []string{"alpha"},
		example:     func() Shared { return &DirichletDiscreteShared{Alphas: []float64{0.5, 0.5, 0.5, 0.5}} },
	},
	DirichletProcessDiscrete: {
		Type:        DirichletProcessDiscrete,
		Kind:        CountValue,
		Description: "Dirichlet-process categorical feature with mass reserved for unseen values",
		HyperParams: []string{"alpha", "gamma"},
		example: func() Shared {
			return &DirichletProcessDiscreteShared{
				Gamma:  0.5,
				Alpha:  0.5,
				Values: []uint32{0, 1, 2},
				Betas:  []float64{0.2, 0.4, 0.2},
				Beta0:  0.2,
			}
		},
	},
	GammaPoisson: {
		Type:        GammaPoisson,
		Kind:        CountValue,
		Description: "Gamma-Poisson count feature",
		HyperParams: []string{"alpha", "inv_beta"},
		example:     func() Shared { return &GammaPoissonShared{Alpha: 1.0, InvBeta: 1.0} },
	},
	NormalInverseChiSq: {
		Type:        NormalInverseChiSq,
		Kind:        RealValue,
		Description: "Normal-inverse-chi-squared real feature",
		HyperParams: []string{"kappa", "mu", "nu", "sigmasq"},
		example:     func() Shared { return &NormalInverseChiSqShared{Mu: 0, Kappa: 1, Sigmasq: 1, Nu: 1} },
	},
}

// Lookup returns the family registered under t.
func Lookup(t Type) (Family, error) {
	family, ok := registry[t]
	if !ok {
		return Family{}, fmt.Errorf("unknown feature type %q", t)
	}
	return family, nil
}

// Types lists every registered feature type in sorted order.
func Types() []Type {
	types := make([]Type, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

func scalarParam(name string, values []float64) (float64, error) {
	if len(values) != 1 {
		return 0, fmt.Errorf("hyperparameter %s is scalar, got %d values", name, len(values))
	}
	return values[0], nil
}

func unknownParam(t Type, name string) error {
	return fmt.Errorf("%w %q for feature type %s", ErrUnknownParam, name, t)
}
