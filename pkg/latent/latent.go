/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: latent.go
Description: Canonical latent structures for posterior samples. A latent is the set of
kinds a sample assigns, each kind being a set of feature ids together with a set of row
groups. Canonicalization sorts every level so that two samples with the same structure
produce the same key regardless of how the engine ordered kinds, groups or rows.
*/

package latent

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalidPartition marks kinds that do not form a cross-categorization.
var ErrInvalidPartition = errors.New("invalid partition")

// Kind is one block of the feature partition with the row grouping it induces.
type Kind struct {
	FeatureIDs []int
	Groups     [][]int
}

// Latent is an immutable, canonically ordered cross-categorization.
type Latent struct {
	kinds []Kind
	key   string
}

// New canonicalizes kinds into a Latent. The input is not retained or modified.
// Empty groups and kinds without features carry no structure and are dropped.
func New(kinds []Kind) Latent {
	canonical := make([]Kind, 0, len(kinds))
	for _, kind := range kinds {
		if len(kind.FeatureIDs) == 0 {
			continue
		}
		canonical = append(canonical, canonicalKind(kind))
	}
	slices.SortFunc(canonical, func(a, b Kind) int {
		return strings.Compare(kindKey(a), kindKey(b))
	})

	parts := make([]string, len(canonical))
	for i, kind := range canonical {
		parts[i] = kindKey(kind)
	}
	return Latent{kinds: canonical, key: strings.Join(parts, ";")}
}

// Validate checks that kinds partition the features and that every kind partitions the
// same set of rows. Kinds without features are ignored, as New drops them.
func Validate(kinds []Kind) error {
	featureOwner := map[int]int{}
	var rowSet []int
	for k, kind := range kinds {
		if len(kind.FeatureIDs) == 0 {
			continue
		}
		for _, id := range kind.FeatureIDs {
			if owner, ok := featureOwner[id]; ok {
				return fmt.Errorf("%w: feature %d in kinds %d and %d", ErrInvalidPartition, id, owner, k)
			}
			featureOwner[id] = k
		}

		seen := map[int]bool{}
		rows := []int{}
		for _, group := range kind.Groups {
			for _, row := range group {
				if seen[row] {
					return fmt.Errorf("%w: row %d repeated in kind %d", ErrInvalidPartition, row, k)
				}
				seen[row] = true
				rows = append(rows, row)
			}
		}
		slices.Sort(rows)
		if rowSet == nil {
			rowSet = rows
		} else if !slices.Equal(rowSet, rows) {
			return fmt.Errorf("%w: kind %d covers rows %v, expected %v", ErrInvalidPartition, k, rows, rowSet)
		}
	}
	return nil
}

// FromAssignments builds a single-kind latent from per-row group assignments.
func FromAssignments(featureIDs []int, assignments []int) Latent {
	groups := map[int][]int{}
	for row, g := range assignments {
		groups[g] = append(groups[g], row)
	}
	kind := Kind{FeatureIDs: featureIDs}
	for _, rows := range groups {
		kind.Groups = append(kind.Groups, rows)
	}
	return New([]Kind{kind})
}

func canonicalKind(kind Kind) Kind {
	features := slices.Clone(kind.FeatureIDs)
	slices.Sort(features)
	features = slices.Compact(features)

	groups := make([][]int, 0, len(kind.Groups))
	for _, group := range kind.Groups {
		if len(group) == 0 {
			continue
		}
		rows := slices.Clone(group)
		slices.Sort(rows)
		groups = append(groups, slices.Compact(rows))
	}
	slices.SortFunc(groups, slices.Compare[[]int])
	return Kind{FeatureIDs: features, Groups: groups}
}

func kindKey(kind Kind) string {
	var b strings.Builder
	b.WriteString("f")
	writeInts(&b, kind.FeatureIDs, ",")
	b.WriteString(":")
	for i, group := range kind.Groups {
		if i > 0 {
			b.WriteString("|")
		}
		writeInts(&b, group, ",")
	}
	return b.String()
}

func writeInts(b *strings.Builder, values []int, sep string) {
	for i, v := range values {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(strconv.Itoa(v))
	}
}

// Key returns the canonical identity of the latent, usable as a map key.
func (l Latent) Key() string {
	return l.key
}

// Kinds returns a copy of the canonical kinds.
func (l Latent) Kinds() []Kind {
	out := make([]Kind, len(l.kinds))
	for i, kind := range l.kinds {
		groups := make([][]int, len(kind.Groups))
		for j, g := range kind.Groups {
			groups[j] = slices.Clone(g)
		}
		out[i] = Kind{FeatureIDs: slices.Clone(kind.FeatureIDs), Groups: groups}
	}
	return out
}

// KindCount returns the number of kinds.
func (l Latent) KindCount() int {
	return len(l.kinds)
}

// Equal reports whether two latents describe the same structure.
func (l Latent) Equal(other Latent) bool {
	return l.key == other.key
}

// Pretty renders the latent for diagnostics, e.g. "0 1 |0 2|1| - 2 |0 1 2|".
func (l Latent) Pretty() string {
	kinds := make([]string, len(l.kinds))
	for i, kind := range l.kinds {
		kinds[i] = prettyKind(kind)
	}
	slices.Sort(kinds)
	return strings.Join(kinds, " - ")
}

func prettyKind(kind Kind) string {
	var features strings.Builder
	writeInts(&features, kind.FeatureIDs, " ")

	groups := make([]string, len(kind.Groups))
	for i, group := range kind.Groups {
		var g strings.Builder
		writeInts(&g, group, " ")
		groups[i] = g.String()
	}
	slices.Sort(groups)
	return features.String() + " |" + strings.Join(groups, "|") + "|"
}

// String implements fmt.Stringer.
func (l Latent) String() string {
	return l.Pretty()
}

// Scored pairs a latent with the log-score the sampler assigned it.
type Scored struct {
	Latent Latent
	Score  float64
}
