/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: aggregate.go
Description: Sample aggregation. Counts how often each latent is drawn, checks that a
repeated latent is always scored the same, and combines runs pinned at each hyperparameter
grid point into quadrature scores.
*/

package aggregate

import (
	"errors"
	"fmt"
	"math"

	"github.com/kleascm/akaylee-oracle/pkg/latent"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrInconsistentScore marks a latent scored differently on two draws.
	ErrInconsistentScore = errors.New("inconsistent score")
	// ErrLatentBoundExceeded marks more distinct latents than the latent space holds.
	ErrLatentBoundExceeded = errors.New("programmer error: distinct latents exceed latent space size")
)

// DefaultScoreTolerance is the largest accepted score difference for a repeated latent.
const DefaultScoreTolerance = 0.1

// Accumulator tallies draws per latent. Latents are kept in first-seen order.
type Accumulator struct {
	tolerance float64
	order     []latent.Latent
	counts    map[string]int
	scores    map[string]float64
	total     int
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator(tolerance float64) *Accumulator {
	return &Accumulator{
		tolerance: tolerance,
		counts:    map[string]int{},
		scores:    map[string]float64{},
	}
}

// Add records one draw. The stored score is replaced by the newest one.
func (a *Accumulator) Add(s latent.Scored) error {
	key := s.Latent.Key()
	if previous, ok := a.scores[key]; ok {
		if math.IsNaN(s.Score) || !(math.Abs(s.Score-previous) < a.tolerance) {
			return fmt.Errorf("%w: %g vs %g for %s", ErrInconsistentScore, s.Score, previous, s.Latent.Pretty())
		}
	} else {
		a.order = append(a.order, s.Latent)
	}
	a.counts[key]++
	a.scores[key] = s.Score
	a.total++
	return nil
}

// AddAll records every draw, stopping at the first inconsistency.
func (a *Accumulator) AddAll(samples []latent.Scored) error {
	for _, s := range samples {
		if err := a.Add(s); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of draws of l.
func (a *Accumulator) Count(l latent.Latent) int {
	return a.counts[l.Key()]
}

// Score returns the last observed score of l.
func (a *Accumulator) Score(l latent.Latent) (float64, bool) {
	score, ok := a.scores[l.Key()]
	return score, ok
}

// Latents returns the distinct latents in first-seen order.
func (a *Accumulator) Latents() []latent.Latent {
	return append([]latent.Latent(nil), a.order...)
}

// Distinct returns the number of distinct latents.
func (a *Accumulator) Distinct() int {
	return len(a.order)
}

// Total returns the number of draws.
func (a *Accumulator) Total() int {
	return a.total
}

// CheckBound fails when more distinct latents were seen than expected can exist.
func (a *Accumulator) CheckBound(expected uint64) error {
	if uint64(a.Distinct()) > expected {
		return fmt.Errorf("%w: %d > %d", ErrLatentBoundExceeded, a.Distinct(), expected)
	}
	return nil
}

// Combined is the quadrature view of a hyperparameter test.
type Combined struct {
	// Latents are the free-run latents seen under every fixed run, in free-run order.
	Latents []latent.Latent
	// Scores holds the log-sum-exp of the fixed-run scores per latent.
	Scores map[string]float64
	// UsableCount is the number of free-run draws landing on retained latents.
	UsableCount int
}

// CombineFixed intersects the latents of every fixed run, keeps the free-run latents in
// that intersection, and combines their fixed-run scores by log-sum-exp.
func CombineFixed(free *Accumulator, fixed []*Accumulator) (*Combined, error) {
	if len(fixed) == 0 {
		return nil, fmt.Errorf("no fixed runs to combine")
	}
	combined := &Combined{Scores: map[string]float64{}}
	scores := make([]float64, len(fixed))
	for _, l := range free.order {
		retained := true
		for i, acc := range fixed {
			score, ok := acc.Score(l)
			if !ok {
				retained = false
				break
			}
			scores[i] = score
		}
		if !retained {
			continue
		}
		combined.Latents = append(combined.Latents, l)
		combined.Scores[l.Key()] = floats.LogSumExp(scores)
		combined.UsableCount += free.Count(l)
	}
	return combined, nil
}
