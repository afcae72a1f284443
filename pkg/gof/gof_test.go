package gof_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/kleascm/akaylee-oracle/pkg/gof"
	"github.com/kleascm/akaylee-oracle/pkg/latent"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	together = latent.FromAssignments([]int{0}, []int{0, 0})
	apart    = latent.FromAssignments([]int{0}, []int{0, 1})
)

func TestScoresToProbs(t *testing.T) {
	probs := gof.ScoresToProbs([]float64{-1000, -1000 + math.Log(3)})
	assert.InDelta(t, 0.25, probs[0], 1e-12)
	assert.InDelta(t, 0.75, probs[1], 1e-12)
	assert.Empty(t, gof.ScoresToProbs(nil))
}

func TestMultinomialGoodnessOfFit(t *testing.T) {
	assert.InDelta(t, 1.0, gof.MultinomialGoodnessOfFit([]float64{0.5, 0.5}, []int{50, 50}, 100, false), 1e-12)
	assert.Less(t, gof.MultinomialGoodnessOfFit([]float64{0.5, 0.5}, []int{80, 20}, 100, false), 1e-6)

	assert.Equal(t, 1.0, gof.MultinomialGoodnessOfFit([]float64{1}, []int{10}, 10, false))
	assert.Equal(t, 0.0, gof.MultinomialGoodnessOfFit([]float64{1}, []int{9}, 10, false))
	assert.Equal(t, 0.0, gof.MultinomialGoodnessOfFit([]float64{0.5, 0.5, 0}, []int{50, 49, 1}, 100, false))

	// chi-squared 1 with one degree of freedom
	fit := gof.MultinomialGoodnessOfFit([]float64{0.5}, []int{55}, 100, true)
	assert.InDelta(t, 0.3173, fit, 1e-4)
}

func TestCheckPasses(t *testing.T) {
	verdict := gof.NewChecker().Check(gof.Input{
		Latents:     []latent.Latent{together, apart},
		Counts:      []int{52, 48},
		Scores:      []float64{-1, -1},
		SampleCount: 100,
	})
	assert.Equal(t, gof.Pass, verdict.Status)
	assert.Equal(t, 2, verdict.Tested)
	assert.False(t, verdict.Truncated)
	assert.Empty(t, verdict.Table)
	assert.Contains(t, verdict.Comment, "goodness of fit = ")
}

func TestCheckWarnsWithoutPower(t *testing.T) {
	verdict := gof.NewChecker().Check(gof.Input{
		Latents:     []latent.Latent{together, apart},
		Counts:      []int{1, 0},
		Scores:      []float64{-1, -1},
		SampleCount: 1,
	})
	assert.Equal(t, gof.Warn, verdict.Status)
	assert.Equal(t, "test is inaccurate; use more samples", verdict.Comment)
}

func TestCheckTruncatesRareLatents(t *testing.T) {
	verdict := gof.NewChecker().Check(gof.Input{
		Latents:     []latent.Latent{together, apart},
		Counts:      []int{100, 0},
		Scores:      []float64{0, -20},
		SampleCount: 100,
	})
	assert.True(t, verdict.Truncated)
	assert.Equal(t, 0, verdict.Tested)
	assert.Equal(t, gof.Warn, verdict.Status)
}

func TestCheckFailsWithDiagnostics(t *testing.T) {
	verdict := gof.NewChecker().Check(gof.Input{
		Latents:     []latent.Latent{apart, together},
		Counts:      []int{20, 80},
		Scores:      []float64{-1, -1},
		SampleCount: 100,
	})
	require.Equal(t, gof.Fail, verdict.Status)
	require.Len(t, verdict.Table, 2)
	assert.Equal(t, 80, verdict.Table[0].Actual)

	var buf bytes.Buffer
	require.NoError(t, gof.WriteTable(&buf, verdict.Table))
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "failure_table", buf.Bytes())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "Pass", gof.Pass.String())
	assert.Equal(t, "Warn", gof.Warn.String())
	assert.Equal(t, "Fail", gof.Fail.String())
}
