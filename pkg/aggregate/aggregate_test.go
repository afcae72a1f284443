package aggregate_test

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/kleascm/akaylee-oracle/pkg/aggregate"
	"github.com/kleascm/akaylee-oracle/pkg/features"
	"github.com/kleascm/akaylee-oracle/pkg/grid"
	"github.com/kleascm/akaylee-oracle/pkg/latent"
	"github.com/kleascm/akaylee-oracle/pkg/model"
	"github.com/kleascm/akaylee-oracle/pkg/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	together = latent.FromAssignments([]int{0}, []int{0, 0})
	apart    = latent.FromAssignments([]int{0}, []int{0, 1})
	third    = latent.FromAssignments([]int{0}, []int{0, 1, 1})
)

func logAddExp(a, b float64) float64 {
	m := math.Max(a, b)
	return m + math.Log(math.Exp(a-m)+math.Exp(b-m))
}

func TestAccumulatorCounts(t *testing.T) {
	acc := aggregate.NewAccumulator(aggregate.DefaultScoreTolerance)
	require.NoError(t, acc.AddAll([]latent.Scored{
		{Latent: apart, Score: -2},
		{Latent: together, Score: -1},
		{Latent: apart, Score: -2.05},
	}))
	assert.Equal(t, 3, acc.Total())
	assert.Equal(t, 2, acc.Distinct())
	assert.Equal(t, 2, acc.Count(apart))
	assert.Equal(t, 0, acc.Count(third))

	score, ok := acc.Score(apart)
	require.True(t, ok)
	assert.Equal(t, -2.05, score, "the newest score is kept")
	assert.Equal(t, []latent.Latent{apart, together}, acc.Latents())
}

func TestAccumulatorRejectsInconsistentScores(t *testing.T) {
	acc := aggregate.NewAccumulator(0.1)
	require.NoError(t, acc.Add(latent.Scored{Latent: apart, Score: -2}))
	assert.ErrorIs(t, acc.Add(latent.Scored{Latent: apart, Score: -2.5}), aggregate.ErrInconsistentScore)
	assert.ErrorIs(t, acc.Add(latent.Scored{Latent: apart, Score: math.NaN()}), aggregate.ErrInconsistentScore)

	tight := aggregate.NewAccumulator(1e-9)
	require.NoError(t, tight.Add(latent.Scored{Latent: apart, Score: -2}))
	assert.ErrorIs(t, tight.Add(latent.Scored{Latent: apart, Score: -2.05}), aggregate.ErrInconsistentScore)
}

func TestCheckBound(t *testing.T) {
	acc := aggregate.NewAccumulator(0.1)
	require.NoError(t, acc.Add(latent.Scored{Latent: apart, Score: -1}))
	require.NoError(t, acc.Add(latent.Scored{Latent: together, Score: -1}))
	assert.NoError(t, acc.CheckBound(2))
	assert.ErrorIs(t, acc.CheckBound(1), aggregate.ErrLatentBoundExceeded)
}

func TestCombineFixedIntersects(t *testing.T) {
	free := aggregate.NewAccumulator(0.1)
	for _, s := range []latent.Scored{
		{Latent: apart, Score: -3}, {Latent: together, Score: -3}, {Latent: together, Score: -3}, {Latent: third, Score: -5},
	} {
		require.NoError(t, free.Add(s))
	}
	first := aggregate.NewAccumulator(0.1)
	require.NoError(t, first.AddAll([]latent.Scored{{Latent: apart, Score: -1}, {Latent: together, Score: -2}, {Latent: third, Score: -4}}))
	second := aggregate.NewAccumulator(0.1)
	require.NoError(t, second.AddAll([]latent.Scored{{Latent: together, Score: -0.5}, {Latent: apart, Score: -3}}))

	combined, err := aggregate.CombineFixed(free, []*aggregate.Accumulator{first, second})
	require.NoError(t, err)
	assert.Equal(t, []latent.Latent{apart, together}, combined.Latents)
	assert.Equal(t, 3, combined.UsableCount)
	assert.InDelta(t, logAddExp(-1, -3), combined.Scores[apart.Key()], 1e-12)
	assert.InDelta(t, logAddExp(-2, -0.5), combined.Scores[together.Key()], 1e-12)

	_, err = aggregate.CombineFixed(free, nil)
	assert.Error(t, err)
}

// TestCombineTwoPointPitmanYorGrid runs the clustering grid quadrature end to end on three
// objects and one feature with the built-in sampler.
func TestCombineTwoPointPitmanYorGrid(t *testing.T) {
	rng := rand.New(rand.NewPCG(123, 123))
	base, err := model.Generate(1, features.BetaBernoulli, rng)
	require.NoError(t, err)
	table, err := model.GenerateRows(3, 1, features.BetaBernoulli, 1.0, rng)
	require.NoError(t, err)
	exp, err := grid.Expand(base, grid.Clustering(), grid.Grid{PitmanYor: grid.DefaultPitmanYorPoints}, grid.DefaultVectorCutoff)
	require.NoError(t, err)
	require.Len(t, exp.Fixed, 2)

	opts := reference.Options{MarginalizeHypers: true, MaxLatents: 1000, VectorCutoff: grid.DefaultVectorCutoff}
	draw := func(m *model.CrossCat, n int, seed uint64) *aggregate.Accumulator {
		post, err := reference.Enumerate(context.Background(), m, table, opts)
		require.NoError(t, err)
		acc := aggregate.NewAccumulator(aggregate.DefaultScoreTolerance)
		require.NoError(t, acc.AddAll(post.Draw(n, rand.New(rand.NewPCG(seed, seed)))))
		return acc
	}
	free := draw(exp.Free, 200, 1)
	fixed := []*aggregate.Accumulator{draw(exp.Fixed[0], 6, 2), draw(exp.Fixed[1], 6, 3)}

	combined, err := aggregate.CombineFixed(free, fixed)
	require.NoError(t, err)
	usable := 0
	for _, l := range combined.Latents {
		s1, ok1 := fixed[0].Score(l)
		s2, ok2 := fixed[1].Score(l)
		require.True(t, ok1 && ok2, "retained latents must be seen under both fixed models")
		assert.InDelta(t, logAddExp(s1, s2), combined.Scores[l.Key()], 1e-9)
		usable += free.Count(l)
	}
	for _, l := range free.Latents() {
		_, ok1 := fixed[0].Score(l)
		_, ok2 := fixed[1].Score(l)
		if ok1 && ok2 {
			assert.Contains(t, combined.Scores, l.Key())
		}
	}
	assert.Equal(t, usable, combined.UsableCount)
	assert.LessOrEqual(t, combined.UsableCount, free.Total())
}
