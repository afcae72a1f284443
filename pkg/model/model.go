/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: model.go
Description: Cross-categorization model description consumed by the inference engine.
A model is a topology prior over feature kinds, a list of kinds each with a clustering
prior and per-feature shared parameters, and an optional hyperprior grid.
*/

package model

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"

	"github.com/kleascm/akaylee-oracle/pkg/clustering"
	"github.com/kleascm/akaylee-oracle/pkg/features"
)

// Kind is one block of features sharing a row clustering.
type Kind struct {
	FeatureIDs []int
	Clustering clustering.PitmanYor
	// Features is parallel to FeatureIDs.
	Features []features.Shared
}

// HyperPrior lists the grid of candidate values for every hyperparameter that the
// engine's hyper kernel should infer. An empty hyperprior pins every parameter.
type HyperPrior struct {
	Topology   []clustering.PitmanYor `json:"topology" yaml:"topology" mapstructure:"topology"`
	Clustering []clustering.PitmanYor `json:"clustering" yaml:"clustering" mapstructure:"clustering"`
	// Features maps family -> parameter -> grid values.
	Features map[features.Type]map[string][]float64 `json:"features" yaml:"features" mapstructure:"features"`
}

// Empty reports whether no hyperparameter is gridded.
func (h HyperPrior) Empty() bool {
	if len(h.Topology) > 0 || len(h.Clustering) > 0 {
		return false
	}
	for _, params := range h.Features {
		for _, grid := range params {
			if len(grid) > 0 {
				return false
			}
		}
	}
	return true
}

// AddFeatureGrid appends grid points for a family parameter.
func (h *HyperPrior) AddFeatureGrid(family features.Type, param string, values ...float64) {
	if h.Features == nil {
		h.Features = map[features.Type]map[string][]float64{}
	}
	if h.Features[family] == nil {
		h.Features[family] = map[string][]float64{}
	}
	h.Features[family][param] = append(h.Features[family][param], values...)
}

// Clone deep-copies the hyperprior.
func (h HyperPrior) Clone() HyperPrior {
	out := HyperPrior{
		Topology:   slices.Clone(h.Topology),
		Clustering: slices.Clone(h.Clustering),
	}
	if h.Features != nil {
		out.Features = make(map[features.Type]map[string][]float64, len(h.Features))
		for family, params := range h.Features {
			copied := make(map[string][]float64, len(params))
			for name, grid := range params {
				copied[name] = slices.Clone(grid)
			}
			out.Features[family] = copied
		}
	}
	return out
}

// FeatureFamilies lists the gridded families in sorted order.
func (h HyperPrior) FeatureFamilies() []features.Type {
	return slices.Sorted(maps.Keys(h.Features))
}

// CrossCat is a complete generative model.
type CrossCat struct {
	Topology   clustering.PitmanYor
	Kinds      []Kind
	HyperPrior HyperPrior
}

// Generate builds a single-kind model over featureCount features of one type, every
// feature sharing the family's example parameters realized once.
func Generate(featureCount int, featureType features.Type, rng *rand.Rand) (*CrossCat, error) {
	if featureCount <= 0 {
		return nil, fmt.Errorf("feature count must be positive, got %d", featureCount)
	}
	family, err := features.Lookup(featureType)
	if err != nil {
		return nil, err
	}
	shared := family.Example()
	shared.Realize(rng)

	kind := Kind{Clustering: clustering.Default}
	for id := 0; id < featureCount; id++ {
		kind.FeatureIDs = append(kind.FeatureIDs, id)
		kind.Features = append(kind.Features, shared.Clone())
	}
	return &CrossCat{
		Topology: clustering.Default,
		Kinds:    []Kind{kind},
	}, nil
}

// Clone deep-copies the model.
func (m *CrossCat) Clone() *CrossCat {
	out := &CrossCat{
		Topology:   m.Topology,
		Kinds:      make([]Kind, len(m.Kinds)),
		HyperPrior: m.HyperPrior.Clone(),
	}
	for i, kind := range m.Kinds {
		shared := make([]features.Shared, len(kind.Features))
		for j, f := range kind.Features {
			shared[j] = f.Clone()
		}
		out.Kinds[i] = Kind{
			FeatureIDs: slices.Clone(kind.FeatureIDs),
			Clustering: kind.Clustering,
			Features:   shared,
		}
	}
	return out
}

// FeatureCount returns the number of features across all kinds.
func (m *CrossCat) FeatureCount() int {
	count := 0
	for _, kind := range m.Kinds {
		count += len(kind.FeatureIDs)
	}
	return count
}

// Features returns the shared parameters indexed by feature id.
func (m *CrossCat) Features() ([]features.Shared, error) {
	out := make([]features.Shared, m.FeatureCount())
	for _, kind := range m.Kinds {
		if len(kind.Features) != len(kind.FeatureIDs) {
			return nil, fmt.Errorf("kind has %d feature ids but %d feature models", len(kind.FeatureIDs), len(kind.Features))
		}
		for i, id := range kind.FeatureIDs {
			if id < 0 || id >= len(out) || out[id] != nil {
				return nil, fmt.Errorf("feature id %d is out of range or duplicated", id)
			}
			out[id] = kind.Features[i]
		}
	}
	return out, nil
}

// Validate checks the priors and feature id layout.
func (m *CrossCat) Validate() error {
	if len(m.Kinds) == 0 {
		return fmt.Errorf("model has no kinds")
	}
	if err := m.Topology.Validate(); err != nil {
		return fmt.Errorf("topology: %w", err)
	}
	for i, kind := range m.Kinds {
		if err := kind.Clustering.Validate(); err != nil {
			return fmt.Errorf("kind %d clustering: %w", i, err)
		}
	}
	_, err := m.Features()
	return err
}
