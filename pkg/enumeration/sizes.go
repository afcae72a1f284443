/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: sizes.go
Description: Dataset shape suggestions bounded by the exact cross-cat latent space size.
Builds the (object count, feature count) size table the orchestrator filters on and
renders it for the datasets command.
*/

package enumeration

import (
	"fmt"
	"io"
	"strings"
)

const (
	// MaxSuggestedRows bounds the object counts considered for suggestions.
	MaxSuggestedRows = 16
	// MaxSuggestedCols bounds the feature counts considered for suggestions.
	MaxSuggestedCols = 12
)

// LatentSizes holds CountCrossCats(rows, cols) for every shape small enough to enumerate.
// Row r lists cols 0,1,2,... up to the last column whose count does not exceed the bound.
type LatentSizes [][]uint64

// BuildLatentSizes computes the size table for shapes with at most maxCount latents.
func BuildLatentSizes(maxCount uint64) LatentSizes {
	table := make(LatentSizes, MaxSuggestedRows+1)
	for rows := 0; rows <= MaxSuggestedRows; rows++ {
		var counts []uint64
		for cols := 0; cols <= MaxSuggestedCols; cols++ {
			count := CountCrossCats(rows, cols)
			if count > maxCount {
				break
			}
			counts = append(counts, count)
		}
		table[rows] = counts
	}
	return table
}

// Size returns the latent space size of a shape and whether it is inside the table.
func (t LatentSizes) Size(objectCount, featureCount int) (uint64, bool) {
	if objectCount < 0 || objectCount >= len(t) {
		return 0, false
	}
	row := t[objectCount]
	if featureCount < 0 || featureCount >= len(row) {
		return 0, false
	}
	return row[featureCount], true
}

// Shape is one (object count, feature count) pair with its latent space size.
type Shape struct {
	ObjectCount  int
	FeatureCount int
	Size         uint64
}

// Shapes lists every tabulated shape in row-major order.
func (t LatentSizes) Shapes() []Shape {
	var shapes []Shape
	for rows, counts := range t {
		for cols, size := range counts {
			shapes = append(shapes, Shape{ObjectCount: rows, FeatureCount: cols, Size: size})
		}
	}
	return shapes
}

// WriteLatentSizes prints the suggestion table for shapes up to maxCount latents.
// Rows with fewer than two entries carry no usable shape and are omitted.
func WriteLatentSizes(w io.Writer, maxCount uint64) error {
	table := BuildLatentSizes(maxCount)
	if _, err := fmt.Fprintf(w, "# Cross Cat Latent Space Sizes up to %d\n", maxCount); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "LATENT_SIZES = ["); err != nil {
		return err
	}
	for _, counts := range table {
		if len(counts) < 2 {
			continue
		}
		parts := make([]string, len(counts))
		for i, c := range counts {
			parts[i] = fmt.Sprintf("%d", c)
		}
		if _, err := fmt.Fprintf(w, "    [%s],\n", strings.Join(parts, ", ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "]")
	return err
}
