package model_test

import (
	"math/rand/v2"
	"testing"

	"github.com/kleascm/akaylee-oracle/pkg/clustering"
	"github.com/kleascm/akaylee-oracle/pkg/features"
	"github.com/kleascm/akaylee-oracle/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRNG() *rand.Rand {
	return rand.New(rand.NewPCG(123, 123))
}

func TestGenerateEveryFeatureType(t *testing.T) {
	for _, typ := range features.Types() {
		m, err := model.Generate(10, typ, newRNG())
		require.NoError(t, err, "%s", typ)
		require.NoError(t, m.Validate())
		assert.Equal(t, 10, m.FeatureCount())
		require.Len(t, m.Kinds, 1)
		assert.Equal(t, clustering.Default, m.Kinds[0].Clustering)
		assert.True(t, m.HyperPrior.Empty())

		shared, err := m.Features()
		require.NoError(t, err)
		for _, s := range shared {
			assert.Equal(t, typ, s.Type())
		}
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	_, err := model.Generate(0, features.BetaBernoulli, newRNG())
	assert.Error(t, err)
	_, err = model.Generate(1, "nope", newRNG())
	assert.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	m, err := model.Generate(2, features.BetaBernoulli, newRNG())
	require.NoError(t, err)
	m.HyperPrior.AddFeatureGrid(features.BetaBernoulli, "alpha", 0.5, 2.0)

	clone := m.Clone()
	require.NoError(t, clone.Kinds[0].Features[0].SetParam("alpha", []float64{9}))
	clone.HyperPrior.Features[features.BetaBernoulli]["alpha"][0] = 7
	clone.Kinds[0].FeatureIDs[0] = 5

	alpha, _ := m.Kinds[0].Features[0].Param("alpha")
	assert.Equal(t, []float64{0.5}, alpha)
	assert.Equal(t, []float64{0.5, 2.0}, m.HyperPrior.Features[features.BetaBernoulli]["alpha"])
	assert.Equal(t, 0, m.Kinds[0].FeatureIDs[0])
}

func TestHyperPriorEmpty(t *testing.T) {
	var h model.HyperPrior
	assert.True(t, h.Empty())
	h.Clustering = []clustering.PitmanYor{clustering.Default}
	assert.False(t, h.Empty())

	var f model.HyperPrior
	f.AddFeatureGrid(features.GammaPoisson, "alpha")
	assert.True(t, f.Empty())
	f.AddFeatureGrid(features.GammaPoisson, "alpha", 1)
	assert.False(t, f.Empty())
	assert.Equal(t, []features.Type{features.GammaPoisson}, f.FeatureFamilies())
}

func TestValidateCatchesDuplicateFeature(t *testing.T) {
	m, err := model.Generate(2, features.GammaPoisson, newRNG())
	require.NoError(t, err)
	m.Kinds[0].FeatureIDs[1] = 0
	assert.Error(t, m.Validate())
}

// TestGenerateRowsDensity checks the all-present, all-missing and mixed regimes
func TestGenerateRowsDensity(t *testing.T) {
	for _, typ := range features.Types() {
		full, err := model.GenerateRows(100, 100, typ, 1.0, newRNG())
		require.NoError(t, err)
		assert.Equal(t, 0, full.Missing(), "%s", typ)
		assert.Equal(t, 10000, full.Present())

		empty, err := model.GenerateRows(100, 100, typ, 0.0, newRNG())
		require.NoError(t, err)
		assert.Equal(t, 0, empty.Present(), "%s", typ)

		half, err := model.GenerateRows(100, 100, typ, 0.5, newRNG())
		require.NoError(t, err)
		assert.Positive(t, half.Present(), "%s", typ)
		assert.Positive(t, half.Missing(), "%s", typ)
	}
}

func TestGenerateRowsShapeAndKinds(t *testing.T) {
	table, err := model.GenerateRows(7, 3, features.NormalInverseChiSq, 1.0, newRNG())
	require.NoError(t, err)
	require.Len(t, table.Rows, 7)
	for i, row := range table.Rows {
		assert.Equal(t, i, row.ID)
		require.Len(t, row.Cells, 3)
		for _, cell := range row.Cells {
			assert.Equal(t, features.RealValue, cell.Value.Kind)
		}
	}
	assert.Len(t, table.Column(0, []int{0, 1, 2}), 3)
}

func TestGenerateRowsDeterministic(t *testing.T) {
	a, err := model.GenerateRows(20, 4, features.DirichletDiscrete, 0.5, newRNG())
	require.NoError(t, err)
	b, err := model.GenerateRows(20, 4, features.DirichletDiscrete, 0.5, newRNG())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateRowsPreconditions(t *testing.T) {
	_, err := model.GenerateRows(0, 1, features.BetaBernoulli, 0.5, newRNG())
	assert.Error(t, err)
	_, err = model.GenerateRows(1, 0, features.BetaBernoulli, 0.5, newRNG())
	assert.Error(t, err)
	_, err = model.GenerateRows(1, 1, features.BetaBernoulli, 1.5, newRNG())
	assert.Error(t, err)
}
