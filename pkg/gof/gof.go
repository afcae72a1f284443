/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: gof.go
Description: Multinomial goodness-of-fit test between the empirical latent counts and
the probabilities implied by their scores. Only latents with enough expected occurrences
are tested; the remaining mass makes the test truncated.
*/

package gof

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/kleascm/akaylee-oracle/pkg/latent"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultTruncateCount is the number of latents compared by probability and by count.
	DefaultTruncateCount = 32
	// DefaultMinGoodnessOfFit is the significance threshold below which a case fails.
	DefaultMinGoodnessOfFit = 5e-4
)

// ScoresToProbs normalizes log-scores with a stable softmax.
func ScoresToProbs(scores []float64) []float64 {
	probs := make([]float64, len(scores))
	if len(scores) == 0 {
		return probs
	}
	norm := floats.LogSumExp(scores)
	for i, score := range scores {
		probs[i] = math.Exp(score - norm)
	}
	return probs
}

// MultinomialGoodnessOfFit returns the chi-squared survival probability of counts under
// probs. A bin with probability one passes only when it holds every draw; a bin with zero
// probability and a positive count fails outright. When not truncated the probabilities
// sum to one and one degree of freedom is lost.
func MultinomialGoodnessOfFit(probs []float64, counts []int, total int, truncated bool) float64 {
	chiSquared := 0.0
	dof := 0
	n := float64(total)
	for i, p := range probs {
		c := float64(counts[i])
		switch {
		case p >= 1:
			if counts[i] == total {
				return 1
			}
			return 0
		case p > 0:
			mean := n * p
			chiSquared += (c - mean) * (c - mean) / (mean * (1 - p))
			dof++
		case counts[i] > 0:
			return 0
		}
	}
	if !truncated {
		dof--
	}
	if dof <= 0 {
		return 1
	}
	chi2 := distuv.ChiSquared{K: float64(dof)}
	return chi2.Survival(chiSquared)
}

// Status classifies a verdict.
type Status int

const (
	Pass Status = iota
	Warn
	Fail
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "Pass"
	case Warn:
		return "Warn"
	case Fail:
		return "Fail"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Input is the aggregated evidence of one case; Latents, Counts and Scores are parallel.
type Input struct {
	Latents     []latent.Latent
	Counts      []int
	Scores      []float64
	SampleCount int
}

// Row is one line of the failure diagnostics.
type Row struct {
	Prob   float64
	Expect float64
	Actual int
	Chi    float64
	Latent string
}

// Verdict is the outcome of a goodness-of-fit check.
type Verdict struct {
	Status        Status
	GoodnessOfFit float64
	Comment       string
	Truncated     bool
	// Tested is the number of latents in the statistical test.
	Tested int
	// Table is filled for failures.
	Table []Row
}

// Checker runs the truncated goodness-of-fit test.
type Checker struct {
	TruncateCount    int
	MinGoodnessOfFit float64
}

// NewChecker returns a checker with the default thresholds.
func NewChecker() Checker {
	return Checker{TruncateCount: DefaultTruncateCount, MinGoodnessOfFit: DefaultMinGoodnessOfFit}
}

// Check tests in and classifies the result.
func (c Checker) Check(in Input) Verdict {
	probs := ScoresToProbs(in.Scores)
	n := float64(in.SampleCount)

	byProb := c.top(len(probs), func(a, b int) int { return descending(probs[a], probs[b]) })
	var accurate []int
	for _, i := range byProb {
		if n*probs[i]*(1-probs[i]) >= 1 {
			accurate = append(accurate, i)
		}
	}
	byCount := c.top(len(probs), func(a, b int) int { return in.Counts[b] - in.Counts[a] })

	truncated := len(accurate) < len(probs)
	if len(accurate) == 0 {
		return Verdict{Status: Warn, Comment: "test is inaccurate; use more samples", Truncated: truncated}
	}

	testProbs := make([]float64, len(accurate))
	testCounts := make([]int, len(accurate))
	for j, i := range accurate {
		testProbs[j] = probs[i]
		testCounts[j] = in.Counts[i]
	}
	fit := MultinomialGoodnessOfFit(testProbs, testCounts, in.SampleCount, truncated)
	verdict := Verdict{
		GoodnessOfFit: fit,
		Comment:       fmt.Sprintf("goodness of fit = %.3g", fit),
		Truncated:     truncated,
		Tested:        len(accurate),
	}
	if fit > c.MinGoodnessOfFit {
		verdict.Status = Pass
		return verdict
	}
	verdict.Status = Fail

	highest := map[int]bool{}
	for _, i := range accurate {
		highest[i] = true
	}
	for _, i := range byCount {
		highest[i] = true
	}
	for i := range highest {
		expect := probs[i] * n
		verdict.Table = append(verdict.Table, Row{
			Prob:   probs[i],
			Expect: expect,
			Actual: in.Counts[i],
			Chi:    (float64(in.Counts[i]) - expect) / math.Sqrt(expect),
			Latent: in.Latents[i].Pretty(),
		})
	}
	slices.SortFunc(verdict.Table, func(a, b Row) int {
		if d := descending(a.Prob, b.Prob); d != 0 {
			return d
		}
		if a.Actual != b.Actual {
			return b.Actual - a.Actual
		}
		return strings.Compare(a.Latent, b.Latent)
	})
	return verdict
}

// top returns the indices of the first TruncateCount items under cmp.
func (c Checker) top(n int, cmp func(a, b int) int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	slices.SortStableFunc(indices, cmp)
	if len(indices) > c.TruncateCount {
		indices = indices[:c.TruncateCount]
	}
	return indices
}

func descending(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}
