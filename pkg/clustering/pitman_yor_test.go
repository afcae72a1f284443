package clustering_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/kleascm/akaylee-oracle/pkg/clustering"
	"github.com/kleascm/akaylee-oracle/pkg/enumeration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogPartitionScoreNormalizes(t *testing.T) {
	priors := []clustering.PitmanYor{
		clustering.Default,
		{Alpha: 10, D: 0.1},
		{Alpha: 0.5, D: 0},
	}
	for _, prior := range priors {
		for n := 1; n <= 6; n++ {
			total := 0.0
			for p := range enumeration.SetPartitions(n) {
				total += math.Exp(prior.LogPartitionScore(p.BlockSizes()))
			}
			assert.InDelta(t, 1.0, total, 1e-9, "%s n=%d", prior, n)
		}
	}
}

func TestLogPartitionScoreKnownValues(t *testing.T) {
	prior := clustering.Default
	// two singletons: (alpha + d) / (alpha + 1)
	assert.InDelta(t, math.Log(2.1/3.0), prior.LogPartitionScore([]int{1, 1}), 1e-12)
	// one pair: (1 - d) / (alpha + 1)
	assert.InDelta(t, math.Log(0.9/3.0), prior.LogPartitionScore([]int{2}), 1e-12)
	assert.Equal(t, 0.0, prior.LogPartitionScore(nil))
}

func TestSampleAssignmentsDeterministic(t *testing.T) {
	a := clustering.Default.SampleAssignments(50, rand.New(rand.NewPCG(1, 2)))
	b := clustering.Default.SampleAssignments(50, rand.New(rand.NewPCG(1, 2)))
	assert.Equal(t, a, b)

	require.Len(t, a, 50)
	assert.Equal(t, 0, a[0])
	maxSeen := 0
	for _, g := range a {
		assert.LessOrEqual(t, g, maxSeen+1, "tables must open in order")
		maxSeen = max(maxSeen, g)
	}
}

func TestSampleAssignmentsFrequencies(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	prior := clustering.Default
	together := 0
	const trials = 20000
	for i := 0; i < trials; i++ {
		a := prior.SampleAssignments(2, rng)
		if a[0] == a[1] {
			together++
		}
	}
	expected := math.Exp(prior.LogPartitionScore([]int{2}))
	assert.InDelta(t, expected, float64(together)/trials, 0.02)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, clustering.Default.Validate())
	assert.Error(t, clustering.PitmanYor{Alpha: 1, D: 1}.Validate())
	assert.Error(t, clustering.PitmanYor{Alpha: -0.5, D: 0.1}.Validate())
}
