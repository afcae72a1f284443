/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: rows.go
Description: Synthetic row generation. Samples a cross-cat structure from the clustering
prior, draws component parameters per group, and fills a table whose cells are present
with probability density.
*/

package model

import (
	"fmt"
	"math/rand/v2"

	"github.com/kleascm/akaylee-oracle/pkg/clustering"
	"github.com/kleascm/akaylee-oracle/pkg/features"
)

// Cell is one (row, feature) entry; Value is meaningful only when Observed.
type Cell struct {
	Observed bool
	Value    features.Value
}

// Row is one object.
type Row struct {
	ID    int
	Cells []Cell
}

// Table is a dense row-major dataset with explicit missingness.
type Table struct {
	FeatureCount int
	Rows         []Row
}

// Present returns the number of observed cells.
func (t *Table) Present() int {
	count := 0
	for _, row := range t.Rows {
		for _, cell := range row.Cells {
			if cell.Observed {
				count++
			}
		}
	}
	return count
}

// Missing returns the number of unobserved cells.
func (t *Table) Missing() int {
	return len(t.Rows)*t.FeatureCount - t.Present()
}

// Column returns the observed values of feature f for the given rows.
func (t *Table) Column(f int, rows []int) []features.Value {
	var values []features.Value
	for _, r := range rows {
		if cell := t.Rows[r].Cells[f]; cell.Observed {
			values = append(values, cell.Value)
		}
	}
	return values
}

// GenerateRows samples a synthetic dataset of objectCount rows and featureCount features.
func GenerateRows(objectCount, featureCount int, featureType features.Type, density float64, rng *rand.Rand) (*Table, error) {
	if objectCount <= 0 {
		return nil, fmt.Errorf("object count must be positive, got %d", objectCount)
	}
	if featureCount <= 0 {
		return nil, fmt.Errorf("feature count must be positive, got %d", featureCount)
	}
	if density < 0 || density > 1 {
		return nil, fmt.Errorf("density must be in [0, 1], got %g", density)
	}
	family, err := features.Lookup(featureType)
	if err != nil {
		return nil, err
	}

	prior := clustering.Default
	featureAssignments := prior.SampleAssignments(featureCount, rng)
	kindCount := 0
	for _, k := range featureAssignments {
		kindCount = max(kindCount, k+1)
	}
	objectAssignments := make([][]int, kindCount)
	groupCounts := make([]int, kindCount)
	for k := range objectAssignments {
		objectAssignments[k] = prior.SampleAssignments(objectCount, rng)
		for _, g := range objectAssignments[k] {
			groupCounts[k] = max(groupCounts[k], g+1)
		}
	}

	shared := family.Example()
	table := &Table{FeatureCount: featureCount, Rows: make([]Row, objectCount)}
	for i := range table.Rows {
		table.Rows[i] = Row{ID: i, Cells: make([]Cell, featureCount)}
	}
	for f, k := range featureAssignments {
		groups := make([]features.Group, groupCounts[k])
		for g := range groups {
			groups[g] = shared.NewGroup(rng)
		}
		for i, g := range objectAssignments[k] {
			if rng.Float64() < density {
				table.Rows[i].Cells[f] = Cell{Observed: true, Value: groups[g].Sample(rng)}
			}
		}
	}
	return table, nil
}
