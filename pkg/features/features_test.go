package features_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/kleascm/akaylee-oracle/pkg/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestRegistry(t *testing.T) {
	assert.Equal(t, []features.Type{"bb", "dd", "dpd", "gp", "nich"}, features.Types())
	for _, typ := range features.Types() {
		family, err := features.Lookup(typ)
		require.NoError(t, err)
		shared := family.Example()
		assert.Equal(t, typ, shared.Type())
		for _, name := range family.HyperParams {
			values, err := shared.Param(name)
			require.NoError(t, err, "%s.%s", typ, name)
			assert.NotEmpty(t, values)
		}
		_, err = shared.Param("bogus")
		assert.ErrorIs(t, err, features.ErrUnknownParam)
	}
	_, err := features.Lookup("xyz")
	assert.Error(t, err)
}

func TestExampleReturnsFreshCopies(t *testing.T) {
	family, err := features.Lookup(features.DirichletDiscrete)
	require.NoError(t, err)
	a := family.Example()
	require.NoError(t, a.SetParam("alpha", []float64{1, 2, 3, 4}))
	b := family.Example()
	values, err := b.Param("alpha")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5, 0.5, 0.5}, values)
}

func TestSetParamValidation(t *testing.T) {
	family, _ := features.Lookup(features.BetaBernoulli)
	shared := family.Example()
	assert.Error(t, shared.SetParam("alpha", []float64{1, 2}))
	require.NoError(t, shared.SetParam("beta", []float64{3}))
	values, _ := shared.Param("beta")
	assert.Equal(t, []float64{3}, values)

	family, _ = features.Lookup(features.DirichletDiscrete)
	assert.Error(t, family.Example().SetParam("alpha", []float64{1}))
}

func TestCloneIsDeep(t *testing.T) {
	family, _ := features.Lookup(features.DirichletProcessDiscrete)
	shared := family.Example()
	clone := shared.Clone()
	shared.Realize(rand.New(rand.NewPCG(1, 1)))
	original := family.Example().(*features.DirichletProcessDiscreteShared)
	assert.Equal(t, original.Betas, clone.(*features.DirichletProcessDiscreteShared).Betas)
}

func TestDirichletProcessRealizeKeepsMass(t *testing.T) {
	family, _ := features.Lookup(features.DirichletProcessDiscrete)
	shared := family.Example().(*features.DirichletProcessDiscreteShared)
	shared.Realize(rand.New(rand.NewPCG(3, 4)))
	total := shared.Beta0
	for _, b := range shared.Betas {
		assert.GreaterOrEqual(t, b, 0.0)
		total += b
	}
	assert.InDelta(t, 1.0, total, 1e-12)
}

// TestDiscreteMarginalsNormalize sums the evidence over every sequence of length 3
func TestDiscreteMarginalsNormalize(t *testing.T) {
	cases := []struct {
		typ    features.Type
		values []features.Value
	}{
		{features.BetaBernoulli, []features.Value{features.Bool(false), features.Bool(true)}},
		{features.DirichletDiscrete, counts(0, 1, 2, 3)},
		{features.DirichletProcessDiscrete, counts(0, 1, 2, 3)},
	}
	for _, tc := range cases {
		family, _ := features.Lookup(tc.typ)
		shared := family.Example()
		total := 0.0
		for _, a := range tc.values {
			for _, b := range tc.values {
				for _, c := range tc.values {
					total += math.Exp(shared.LogMarginal([]features.Value{a, b, c}))
				}
			}
		}
		assert.InDelta(t, 1.0, total, 1e-9, "%s", tc.typ)
	}
}

func TestGammaPoissonMarginalNormalizes(t *testing.T) {
	family, _ := features.Lookup(features.GammaPoisson)
	shared := family.Example()
	total := 0.0
	for x := uint32(0); x < 200; x++ {
		total += math.Exp(shared.LogMarginal([]features.Value{features.Count(x)}))
	}
	assert.InDelta(t, 1.0, total, 1e-6)
}

func TestNormalInverseChiSqMarginalNormalizes(t *testing.T) {
	family, _ := features.Lookup(features.NormalInverseChiSq)
	shared := family.Example()
	require.NoError(t, shared.SetParam("nu", []float64{5}))
	const step = 0.01
	total := 0.0
	for x := -60.0; x < 60.0; x += step {
		total += math.Exp(shared.LogMarginal([]features.Value{features.Real(x)})) * step
	}
	assert.InDelta(t, 1.0, total, 1e-3)
	assert.Equal(t, 0.0, shared.LogMarginal(nil))
}

func TestGroupsEmitTheFamilyValueKind(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 13))
	for _, typ := range features.Types() {
		family, _ := features.Lookup(typ)
		shared := family.Example()
		group := shared.NewGroup(rng)
		for i := 0; i < 50; i++ {
			v := group.Sample(rng)
			assert.Equal(t, family.Kind, v.Kind, "%s", typ)
			assert.False(t, math.IsInf(shared.LogMarginal([]features.Value{v}), 0), "%s", typ)
		}
	}
}

func TestDirichletDiscreteGroupsFollowThePriorMean(t *testing.T) {
	family, _ := features.Lookup(features.DirichletDiscrete)
	shared := family.Example()
	alphas, err := shared.Param("alpha")
	require.NoError(t, err)
	for i := range alphas {
		alphas[i] = float64(i + 1)
	}
	require.NoError(t, shared.SetParam("alpha", alphas))

	rng := rand.New(rand.NewPCG(3, 5))
	const draws = 20000
	hits := make([]float64, len(alphas))
	for i := 0; i < draws; i++ {
		hits[shared.NewGroup(rng).Sample(rng).Count]++
	}
	total := floats.Sum(alphas)
	for i, a := range alphas {
		assert.InDelta(t, a/total, hits[i]/draws, 0.02, "category %d", i)
	}
}

func TestDirichletDiscreteToleratesVanishingAlphas(t *testing.T) {
	family, _ := features.Lookup(features.DirichletDiscrete)
	shared := family.Example()
	alphas, err := shared.Param("alpha")
	require.NoError(t, err)
	for i := range alphas {
		alphas[i] = 1e-300
	}
	require.NoError(t, shared.SetParam("alpha", alphas))

	rng := rand.New(rand.NewPCG(7, 9))
	assert.NotPanics(t, func() {
		v := shared.NewGroup(rng).Sample(rng)
		assert.Less(t, int(v.Count), len(alphas))
	})
}

func counts(values ...uint32) []features.Value {
	out := make([]features.Value, len(values))
	for i, v := range values {
		out[i] = features.Count(v)
	}
	return out
}
