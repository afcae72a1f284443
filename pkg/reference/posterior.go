/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: posterior.go
Description: Exact posterior over cross-categorization latents for small datasets.
Every latent is enumerated and scored as the joint log-probability of its structure and the
observed data: the topology prior over feature kinds when kinds are inferred, the clustering
prior over row groups per kind, and the conjugate marginal likelihood of every feature in
every group. Gridded hyperparameters are integrated out under a uniform grid prior.
*/

package reference

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/kleascm/akaylee-oracle/pkg/clustering"
	"github.com/kleascm/akaylee-oracle/pkg/enumeration"
	"github.com/kleascm/akaylee-oracle/pkg/features"
	"github.com/kleascm/akaylee-oracle/pkg/grid"
	"github.com/kleascm/akaylee-oracle/pkg/latent"
	"github.com/kleascm/akaylee-oracle/pkg/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// maxRows keeps row sets representable as bitmasks.
const maxRows = 64

// Options controls enumeration.
type Options struct {
	// InferKinds enumerates feature partitions as well as row partitions.
	InferKinds bool
	// MarginalizeHypers integrates gridded hyperparameters out of every score.
	MarginalizeHypers bool
	// MaxLatents refuses latent spaces larger than this.
	MaxLatents uint64
	// VectorCutoff bounds vector hyperparameter grids.
	VectorCutoff int
}

// Posterior is the scored latent space; Latents and Scores are parallel.
type Posterior struct {
	Latents []latent.Latent
	Scores  []float64
}

// Enumerate scores every latent of m given table.
func Enumerate(ctx context.Context, m *model.CrossCat, table *model.Table, opts Options) (*Posterior, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	objectCount := len(table.Rows)
	featureCount := m.FeatureCount()
	if table.FeatureCount != featureCount {
		return nil, fmt.Errorf("table has %d features, model has %d", table.FeatureCount, featureCount)
	}
	if objectCount == 0 || objectCount > maxRows {
		return nil, fmt.Errorf("object count %d outside [1, %d]", objectCount, maxRows)
	}

	total := uint64(1)
	if opts.InferKinds {
		total = enumeration.CountCrossCats(objectCount, featureCount)
	} else {
		bell, ok := enumeration.BellNumber(objectCount)
		if !ok {
			return nil, fmt.Errorf("%w: %d objects", enumeration.ErrTooLarge, objectCount)
		}
		for range m.Kinds {
			total *= bell
			if total > opts.MaxLatents {
				break
			}
		}
	}
	if total > opts.MaxLatents {
		return nil, fmt.Errorf("%w: %d latents exceed %d", enumeration.ErrTooLarge, total, opts.MaxLatents)
	}

	rowPartitions, err := enumeration.CollectPartitions(objectCount, opts.MaxLatents)
	if err != nil {
		return nil, err
	}
	s, err := newScorer(m, table, rowPartitions, opts)
	if err != nil {
		return nil, err
	}

	var blocks [][]int
	if opts.InferKinds {
		for p := range enumeration.SetPartitions(featureCount) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			s.addFeaturePartition(p)
		}
	} else {
		for _, kind := range m.Kinds {
			blocks = append(blocks, kind.FeatureIDs)
		}
		s.addBlocks(blocks, 0)
	}
	return s.posterior, ctx.Err()
}

// scorer memoizes per-block and per-feature terms across latents.
type scorer struct {
	table         *model.Table
	opts          Options
	rowPartitions []enumeration.Partition
	masks         [][]uint64
	topology      []clustering.PitmanYor
	clusterTerms  []float64
	features      []featureTerm
	kindScores    map[string][]float64
	posterior     *Posterior
}

// featureTerm holds one pinned copy of the feature per hyper grid setting with a cache of
// group marginals keyed by row mask.
type featureTerm struct {
	settings []features.Shared
	caches   []map[uint64]float64
}

func newScorer(m *model.CrossCat, table *model.Table, rowPartitions []enumeration.Partition, opts Options) (*scorer, error) {
	s := &scorer{
		table:         table,
		opts:          opts,
		rowPartitions: rowPartitions,
		topology:      []clustering.PitmanYor{m.Topology},
		kindScores:    map[string][]float64{},
		posterior:     &Posterior{},
	}
	hypers := opts.MarginalizeHypers && !m.HyperPrior.Empty()
	if hypers && len(m.HyperPrior.Topology) > 0 {
		s.topology = m.HyperPrior.Topology
	}
	clusterings := []clustering.PitmanYor{m.Kinds[0].Clustering}
	if hypers && len(m.HyperPrior.Clustering) > 0 {
		clusterings = m.HyperPrior.Clustering
	}
	if !opts.InferKinds {
		for _, kind := range m.Kinds[1:] {
			if kind.Clustering != m.Kinds[0].Clustering {
				return nil, fmt.Errorf("kinds with distinct clustering priors are not supported")
			}
		}
	}

	s.masks = make([][]uint64, len(rowPartitions))
	s.clusterTerms = make([]float64, len(rowPartitions))
	terms := make([]float64, len(clusterings))
	for i, p := range rowPartitions {
		s.masks[i] = make([]uint64, len(p))
		for g, rows := range p {
			for _, r := range rows {
				s.masks[i][g] |= 1 << uint(r)
			}
		}
		for j, prior := range clusterings {
			terms[j] = prior.LogPartitionScore(p.BlockSizes())
		}
		s.clusterTerms[i] = logMeanExp(terms)
	}

	shared, err := m.Features()
	if err != nil {
		return nil, err
	}
	s.features = make([]featureTerm, len(shared))
	for f, sh := range shared {
		var params map[string][]float64
		if hypers {
			params = m.HyperPrior.Features[sh.Type()]
		}
		settings, err := grid.Settings(sh, params, opts.VectorCutoff)
		if err != nil {
			return nil, err
		}
		term := featureTerm{}
		for _, setting := range settings {
			pinned, err := setting.Apply(sh)
			if err != nil {
				return nil, err
			}
			term.settings = append(term.settings, pinned)
			term.caches = append(term.caches, map[uint64]float64{})
		}
		s.features[f] = term
	}
	return s, nil
}

func (s *scorer) addFeaturePartition(p enumeration.Partition) {
	terms := make([]float64, len(s.topology))
	for j, prior := range s.topology {
		terms[j] = prior.LogPartitionScore(p.BlockSizes())
	}
	s.addBlocks(p, logMeanExp(terms))
}

// addBlocks appends every combination of row partitions over the feature blocks.
func (s *scorer) addBlocks(blocks [][]int, prior float64) {
	scores := make([][]float64, len(blocks))
	for k, block := range blocks {
		scores[k] = s.kindScore(block)
	}
	choice := make([]int, len(blocks))
	for {
		score := prior
		kinds := make([]latent.Kind, len(blocks))
		for k, block := range blocks {
			score += scores[k][choice[k]]
			kinds[k] = latent.Kind{FeatureIDs: block, Groups: s.rowPartitions[choice[k]]}
		}
		s.posterior.Latents = append(s.posterior.Latents, latent.New(kinds))
		s.posterior.Scores = append(s.posterior.Scores, score)

		k := len(choice) - 1
		for ; k >= 0; k-- {
			choice[k]++
			if choice[k] < len(s.rowPartitions) {
				break
			}
			choice[k] = 0
		}
		if k < 0 {
			return
		}
	}
}

// kindScore returns, per row partition, the clustering and feature terms of one kind.
func (s *scorer) kindScore(block []int) []float64 {
	key := fmt.Sprint(block)
	if cached, ok := s.kindScores[key]; ok {
		return cached
	}
	scores := make([]float64, len(s.rowPartitions))
	for i, p := range s.rowPartitions {
		score := s.clusterTerms[i]
		for _, f := range block {
			score += s.featureScore(f, p, s.masks[i])
		}
		scores[i] = score
	}
	s.kindScores[key] = scores
	return scores
}

func (s *scorer) featureScore(f int, p enumeration.Partition, masks []uint64) float64 {
	term := s.features[f]
	totals := make([]float64, len(term.settings))
	for j, shared := range term.settings {
		for g, rows := range p {
			marginal, ok := term.caches[j][masks[g]]
			if !ok {
				marginal = shared.LogMarginal(s.table.Column(f, rows))
				term.caches[j][masks[g]] = marginal
			}
			totals[j] += marginal
		}
	}
	return logMeanExp(totals)
}

// logMeanExp is the log of the mean of exp(values), the uniform grid average.
func logMeanExp(values []float64) float64 {
	if len(values) == 1 {
		return values[0]
	}
	return floats.LogSumExp(values) - math.Log(float64(len(values)))
}

// Probabilities normalizes the scores.
func (p *Posterior) Probabilities() []float64 {
	norm := floats.LogSumExp(p.Scores)
	probs := make([]float64, len(p.Scores))
	for i, score := range p.Scores {
		probs[i] = math.Exp(score - norm)
	}
	return probs
}

// Draw returns n independent samples from the posterior.
func (p *Posterior) Draw(n int, rng *rand.Rand) []latent.Scored {
	categorical := distuv.NewCategorical(p.Probabilities(), rng)
	samples := make([]latent.Scored, n)
	for i := range samples {
		index := int(categorical.Rand())
		samples[i] = latent.Scored{Latent: p.Latents[index], Score: p.Scores[index]}
	}
	return samples
}
