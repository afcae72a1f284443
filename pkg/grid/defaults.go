/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: defaults.go
Description: Default hyperprior grids used by the hyperparameter inference suites.
*/

package grid

import (
	"maps"
	"slices"

	"github.com/kleascm/akaylee-oracle/pkg/clustering"
	"github.com/kleascm/akaylee-oracle/pkg/features"
	"github.com/kleascm/akaylee-oracle/pkg/model"
)

// DefaultPitmanYorPoints is the two-point grid shared by topology and clustering tests.
var DefaultPitmanYorPoints = []clustering.PitmanYor{
	{Alpha: 2.0, D: 0.1},
	{Alpha: 10.0, D: 0.1},
}

// DefaultHyperPrior returns the grids tested by default.
func DefaultHyperPrior() model.HyperPrior {
	h := model.HyperPrior{
		Topology:   slices.Clone(DefaultPitmanYorPoints),
		Clustering: slices.Clone(DefaultPitmanYorPoints),
	}
	h.AddFeatureGrid(features.BetaBernoulli, "alpha", 0.5, 2.0)
	h.AddFeatureGrid(features.BetaBernoulli, "beta", 0.5, 2.0)
	h.AddFeatureGrid(features.DirichletDiscrete, "alpha", 0.5, 1.5)
	h.AddFeatureGrid(features.DirichletProcessDiscrete, "alpha", 0.5, 1.5)
	h.AddFeatureGrid(features.DirichletProcessDiscrete, "gamma", 0.5, 1.5)
	h.AddFeatureGrid(features.GammaPoisson, "alpha", 0.5, 1.5)
	h.AddFeatureGrid(features.GammaPoisson, "inv_beta", 0.5, 1.5)
	h.AddFeatureGrid(features.NormalInverseChiSq, "kappa", 0.5, 1.5)
	h.AddFeatureGrid(features.NormalInverseChiSq, "mu", -1.0, 1.0)
	h.AddFeatureGrid(features.NormalInverseChiSq, "nu", 0.5, 1.5)
	h.AddFeatureGrid(features.NormalInverseChiSq, "sigmasq", 0.5, 1.5)
	return h
}

// FeatureTargets lists the gridded parameters of family in sorted order.
func FeatureTargets(prior model.HyperPrior, family features.Type) []Target {
	var targets []Target
	for _, param := range slices.Sorted(maps.Keys(prior.Features[family])) {
		if len(prior.Features[family][param]) > 0 {
			targets = append(targets, Feature(family, param))
		}
	}
	return targets
}

// For returns the grid prior assigns to target.
func For(prior model.HyperPrior, target Target) Grid {
	switch target.Scope {
	case TopologyScope:
		return Grid{PitmanYor: slices.Clone(prior.Topology)}
	case ClusteringScope:
		return Grid{PitmanYor: slices.Clone(prior.Clustering)}
	default:
		return Grid{Values: slices.Clone(prior.Features[target.Family][target.Param])}
	}
}
