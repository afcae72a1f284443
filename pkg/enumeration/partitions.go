/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: partitions.go
Description: Set partition enumeration for the Akaylee posterior oracle. Produces every
partition of a small ground set lazily so the exact latent space of a cross-categorization
can be walked without materializing it up front.
*/

package enumeration

import (
	"errors"
	"fmt"
	"iter"
)

// ErrTooLarge is returned when an enumeration would exceed the configured ceiling.
var ErrTooLarge = errors.New("enumeration exceeds ceiling")

// Partition is a set partition of {0..n-1}.
// Blocks are ordered by their smallest element and each block is sorted.
type Partition [][]int

// BlockSizes returns the size of every block in order.
func (p Partition) BlockSizes() []int {
	sizes := make([]int, len(p))
	for i, block := range p {
		sizes[i] = len(block)
	}
	return sizes
}

// Assignments returns, for every element, the index of the block containing it.
func (p Partition) Assignments() []int {
	n := 0
	for _, block := range p {
		n += len(block)
	}
	assignments := make([]int, n)
	for b, block := range p {
		for _, e := range block {
			assignments[e] = b
		}
	}
	return assignments
}

// clone deep-copies the partition so callers may keep it past the yield.
func (p Partition) clone() Partition {
	out := make(Partition, len(p))
	for i, block := range p {
		out[i] = append([]int(nil), block...)
	}
	return out
}

// SetPartitions returns the lazy sequence of all set partitions of {0..n-1}.
//
// Every partition of the first n-1 elements is extended to n elements by first opening a
// new singleton block for element n-1 and then inserting it into each existing block in
// turn. The sequence is finite (BellNumber(n) items) and restartable: ranging over the
// returned iterator again walks the partitions from the beginning.
func SetPartitions(n int) iter.Seq[Partition] {
	return func(yield func(Partition) bool) {
		if n < 0 {
			return
		}
		blocks := make(Partition, 0, n)
		extend(blocks, 0, n, yield)
	}
}

// extend assigns element e and recurses; the partition is mutated in place and copied only
// when handed to the consumer.
func extend(blocks Partition, e, n int, yield func(Partition) bool) bool {
	if e == n {
		return yield(blocks.clone())
	}

	// new singleton block
	blocks = append(blocks, []int{e})
	if !extend(blocks, e+1, n, yield) {
		return false
	}
	blocks = blocks[:len(blocks)-1]

	for i := range blocks {
		blocks[i] = append(blocks[i], e)
		ok := extend(blocks, e+1, n, yield)
		blocks[i] = blocks[i][:len(blocks[i])-1]
		if !ok {
			return false
		}
	}
	return true
}

// CollectPartitions materializes every partition of {0..n-1}, refusing to do so when the
// Bell number of n exceeds ceiling.
func CollectPartitions(n int, ceiling uint64) ([]Partition, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative element count %d", n)
	}
	count, ok := BellNumber(n)
	if !ok || count > ceiling {
		return nil, fmt.Errorf("%w: %d partitions of %d elements (ceiling %d)", ErrTooLarge, count, n, ceiling)
	}

	partitions := make([]Partition, 0, count)
	for p := range SetPartitions(n) {
		partitions = append(partitions, p)
	}
	return partitions, nil
}
