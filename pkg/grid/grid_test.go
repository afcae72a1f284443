package grid_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/kleascm/akaylee-oracle/pkg/clustering"
	"github.com/kleascm/akaylee-oracle/pkg/features"
	"github.com/kleascm/akaylee-oracle/pkg/grid"
	"github.com/kleascm/akaylee-oracle/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseModel(t *testing.T, featureCount int, typ features.Type) *model.CrossCat {
	t.Helper()
	m, err := model.Generate(featureCount, typ, rand.New(rand.NewPCG(123, 123)))
	require.NoError(t, err)
	return m
}

func TestGridsStayInBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	builders := map[string]func(float64, float64, int) []float64{
		"uniform":      grid.Uniform,
		"center_heavy": grid.CenterHeavy,
		"left_heavy":   grid.LeftHeavy,
		"right_heavy":  grid.RightHeavy,
	}
	for name, build := range builders {
		for i := 0; i < 100; i++ {
			x, y := rng.Float64()*4-2, rng.Float64()*4-2
			if y < x {
				x, y = y, x
			}
			points := build(x, y, 100)
			require.Len(t, points, 100, name)
			for _, p := range points {
				assert.GreaterOrEqual(t, p, x, name)
				assert.LessOrEqual(t, p, y, name)
			}
		}
	}
}

func TestUniformCenters(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, grid.Uniform(0, 1, 2), 1e-12)
}

func TestRightHeavyMirrorsLeftHeavy(t *testing.T) {
	left := grid.LeftHeavy(0, 1, 5)
	right := grid.RightHeavy(0, 1, 5)
	for i := range left {
		assert.InDelta(t, 1-left[len(left)-1-i], right[i], 1e-12)
	}
	assert.IsIncreasing(t, right)
}

func TestPitmanYorGridIsValid(t *testing.T) {
	points := grid.PitmanYorGrid(grid.DefaultPitmanYorSpec)
	require.NotEmpty(t, points)
	assert.Less(t, len(points), 200)
	for _, p := range points {
		require.NoError(t, p.Validate())
		assert.GreaterOrEqual(t, p.Alpha, 0.1)
		assert.LessOrEqual(t, p.Alpha, 100.0)
		assert.LessOrEqual(t, p.D, 0.5)
	}
}

func TestExpandClustering(t *testing.T) {
	base := baseModel(t, 1, features.BetaBernoulli)
	exp, err := grid.Expand(base, grid.Clustering(), grid.Grid{PitmanYor: grid.DefaultPitmanYorPoints}, grid.DefaultVectorCutoff)
	require.NoError(t, err)

	assert.Equal(t, grid.DefaultPitmanYorPoints, exp.Free.HyperPrior.Clustering)
	assert.True(t, base.HyperPrior.Empty(), "base must not be mutated")
	require.Len(t, exp.Fixed, 2)
	for i, fixed := range exp.Fixed {
		assert.True(t, fixed.HyperPrior.Empty())
		assert.Equal(t, grid.DefaultPitmanYorPoints[i], fixed.Kinds[0].Clustering)
		assert.Equal(t, clustering.Default, fixed.Topology)
	}
	assert.Len(t, exp.Points, 2)
}

func TestExpandTopology(t *testing.T) {
	base := baseModel(t, 3, features.GammaPoisson)
	exp, err := grid.Expand(base, grid.Topology(), grid.Grid{PitmanYor: grid.DefaultPitmanYorPoints}, grid.DefaultVectorCutoff)
	require.NoError(t, err)
	assert.Len(t, exp.Free.HyperPrior.Topology, 2)
	assert.Equal(t, grid.DefaultPitmanYorPoints[1], exp.Fixed[1].Topology)
}

func TestExpandScalarFeature(t *testing.T) {
	base := baseModel(t, 1, features.BetaBernoulli)
	exp, err := grid.Expand(base, grid.Feature(features.BetaBernoulli, "beta"), grid.Grid{Values: []float64{0.5, 2.0}}, grid.DefaultVectorCutoff)
	require.NoError(t, err)

	assert.Equal(t, []float64{0.5, 2.0}, exp.Free.HyperPrior.Features[features.BetaBernoulli]["beta"])
	require.Len(t, exp.Fixed, 2)
	for i, want := range []float64{0.5, 2.0} {
		got, err := exp.Fixed[i].Kinds[0].Features[0].Param("beta")
		require.NoError(t, err)
		assert.Equal(t, []float64{want}, got)
	}
	assert.Equal(t, []string{"0.5", "2"}, exp.Points)
}

func TestExpandVectorFeatureIsCartesian(t *testing.T) {
	base := baseModel(t, 1, features.DirichletDiscrete)
	exp, err := grid.Expand(base, grid.Feature(features.DirichletDiscrete, "alpha"), grid.Grid{Values: []float64{0.5, 1.5}}, grid.DefaultVectorCutoff)
	require.NoError(t, err)
	require.Len(t, exp.Fixed, 16)

	seen := map[string]bool{}
	for _, fixed := range exp.Fixed {
		alphas, err := fixed.Kinds[0].Features[0].Param("alpha")
		require.NoError(t, err)
		require.Len(t, alphas, 4)
		seen[fmt.Sprint(alphas)] = true
	}
	assert.Len(t, seen, 16)
}

func TestExpandVectorAboveCutoffIsSkipped(t *testing.T) {
	base := baseModel(t, 1, features.DirichletDiscrete)
	_, err := grid.Expand(base, grid.Feature(features.DirichletDiscrete, "alpha"), grid.Grid{Values: []float64{0.5, 1.5}}, 3)
	assert.ErrorIs(t, err, grid.ErrGridTooLarge)
}

func TestExpandRejectsEmptyGridAndWrongFamily(t *testing.T) {
	base := baseModel(t, 1, features.BetaBernoulli)
	_, err := grid.Expand(base, grid.Clustering(), grid.Grid{}, grid.DefaultVectorCutoff)
	assert.Error(t, err)
	_, err = grid.Expand(base, grid.Feature(features.GammaPoisson, "alpha"), grid.Grid{Values: []float64{1}}, grid.DefaultVectorCutoff)
	assert.Error(t, err)
}

func TestProduct(t *testing.T) {
	assert.Equal(t, [][]float64{{1, 1}, {1, 2}, {2, 1}, {2, 2}}, grid.Product([]float64{1, 2}, 2))
	assert.Equal(t, [][]float64{{}}, grid.Product([]float64{1, 2}, 0))
}

func TestSettings(t *testing.T) {
	shared := &features.BetaBernoulliShared{Alpha: 0.5, Beta: 2.0}
	settings, err := grid.Settings(shared, map[string][]float64{
		"alpha": {0.5, 2.0},
		"beta":  {1, 3, 5},
	}, grid.DefaultVectorCutoff)
	require.NoError(t, err)
	require.Len(t, settings, 6)

	pinned, err := settings[5].Apply(shared)
	require.NoError(t, err)
	alpha, _ := pinned.Param("alpha")
	beta, _ := pinned.Param("beta")
	assert.Equal(t, []float64{2.0}, alpha)
	assert.Equal(t, []float64{5}, beta)
	assert.Equal(t, 0.5, shared.Alpha, "Apply must not mutate its input")

	none, err := grid.Settings(shared, nil, grid.DefaultVectorCutoff)
	require.NoError(t, err)
	assert.Len(t, none, 1)
}

func TestDefaultHyperPriorTargets(t *testing.T) {
	prior := grid.DefaultHyperPrior()
	assert.Len(t, grid.FeatureTargets(prior, features.NormalInverseChiSq), 4)
	assert.Len(t, grid.FeatureTargets(prior, features.DirichletDiscrete), 1)

	target := grid.Feature(features.NormalInverseChiSq, "mu")
	assert.Equal(t, "nich.mu", target.String())
	assert.Equal(t, []float64{-1, 1}, grid.For(prior, target).Values)
	assert.Equal(t, 2, grid.For(prior, grid.Topology()).Len())
}

func TestBuildersReplaceConfiguredGrids(t *testing.T) {
	spec := grid.DefaultPitmanYorSpec
	builders := grid.Builders{
		Clustering: &spec,
		Features: map[features.Type]map[string]grid.Builder{
			features.GammaPoisson: {
				"alpha": {Shape: grid.ShapeLeftHeavy, Min: 0.1, Max: 4, Points: 5},
			},
		},
	}
	prior := grid.DefaultHyperPrior()
	out, err := builders.Apply(prior)
	require.NoError(t, err)

	assert.Equal(t, grid.PitmanYorGrid(spec), out.Clustering)
	assert.Equal(t, prior.Topology, out.Topology)
	assert.Equal(t, grid.LeftHeavy(0.1, 4, 5), out.Features[features.GammaPoisson]["alpha"])
	assert.Equal(t, prior.Features[features.GammaPoisson]["inv_beta"], out.Features[features.GammaPoisson]["inv_beta"])
	assert.Equal(t, []float64{0.5, 1.5}, prior.Features[features.GammaPoisson]["alpha"], "input is not modified")
}

func TestBuildersRejectBadEntries(t *testing.T) {
	bad := grid.DefaultPitmanYorSpec
	bad.MaxD = 1
	tests := map[string]grid.Builders{
		"pitman-yor": {Topology: &bad},
		"shape": {Features: map[features.Type]map[string]grid.Builder{
			features.BetaBernoulli: {"alpha": {Shape: "spiky", Min: 0, Max: 1, Points: 3}},
		}},
		"points": {Features: map[features.Type]map[string]grid.Builder{
			features.BetaBernoulli: {"alpha": {Shape: grid.ShapeUniform, Min: 0, Max: 1}},
		}},
		"param": {Features: map[features.Type]map[string]grid.Builder{
			features.BetaBernoulli: {"gamma": {Shape: grid.ShapeUniform, Min: 0, Max: 1, Points: 3}},
		}},
		"family": {Features: map[features.Type]map[string]grid.Builder{
			"xx": {"alpha": {Shape: grid.ShapeUniform, Min: 0, Max: 1, Points: 3}},
		}},
	}
	for name, builders := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := builders.Apply(grid.DefaultHyperPrior())
			assert.Error(t, err)
		})
	}
}
