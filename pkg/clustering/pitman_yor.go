/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: pitman_yor.go
Description: Pitman-Yor clustering prior over partitions. Used to sample row groupings
and feature kinds for synthetic datasets and to score partitions exactly.
*/

package clustering

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// PitmanYor is the two-parameter Chinese restaurant process prior.
type PitmanYor struct {
	Alpha float64 `json:"alpha" yaml:"alpha" mapstructure:"alpha"`
	D     float64 `json:"d" yaml:"d" mapstructure:"d"`
}

// Default is the clustering prior every generated model starts from.
var Default = PitmanYor{Alpha: 2.0, D: 0.1}

// Validate checks 0 <= d < 1 and alpha > -d.
func (p PitmanYor) Validate() error {
	if p.D < 0 || p.D >= 1 {
		return fmt.Errorf("pitman-yor d must be in [0, 1), got %g", p.D)
	}
	if p.Alpha <= -p.D {
		return fmt.Errorf("pitman-yor alpha must exceed -d, got alpha=%g d=%g", p.Alpha, p.D)
	}
	return nil
}

// SampleAssignments seats n customers and returns each customer's table index.
// Table indices are dense and appear in order of first use.
func (p PitmanYor) SampleAssignments(n int, rng *rand.Rand) []int {
	assignments := make([]int, n)
	var counts []float64
	for i := 0; i < n; i++ {
		total := float64(i) + p.Alpha
		u := rng.Float64() * total

		chosen := len(counts)
		for k, c := range counts {
			u -= c - p.D
			if u < 0 {
				chosen = k
				break
			}
		}
		if chosen == len(counts) {
			// the remaining mass alpha + tables*d opens a new table
			counts = append(counts, 0)
		}
		counts[chosen]++
		assignments[i] = chosen
	}
	return assignments
}

// LogPartitionScore returns the log probability of a partition with the given block
// sizes under the exchangeable partition probability function.
func (p PitmanYor) LogPartitionScore(blockSizes []int) float64 {
	n := 0
	for _, size := range blockSizes {
		n += size
	}
	if n == 0 {
		return 0
	}

	score := 0.0
	for k := 1; k < len(blockSizes); k++ {
		score += math.Log(p.Alpha + float64(k)*p.D)
	}
	for i := 1; i < n; i++ {
		score -= math.Log(p.Alpha + float64(i))
	}
	for _, size := range blockSizes {
		for j := 1; j < size; j++ {
			score += math.Log(float64(j) - p.D)
		}
	}
	return score
}

// String implements fmt.Stringer.
func (p PitmanYor) String() string {
	return fmt.Sprintf("PY(alpha=%g, d=%g)", p.Alpha, p.D)
}
