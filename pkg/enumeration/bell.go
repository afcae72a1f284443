/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: bell.go
Description: Exact combinatorial counts for the latent space of a cross-categorization.
Provides the Bell number table, Stirling numbers of the second kind and the cross-cat
count used to size experiments and bound the number of distinct latents observed.
*/

package enumeration

import (
	"math"
	"math/bits"
)

// bellNumbers holds B(0)..B(18); every entry fits in a uint64.
var bellNumbers = []uint64{
	1, 1, 2, 5, 15, 52, 203, 877, 4140, 21147, 115975, 678570, 4213597,
	27644437, 190899322, 1382958545, 10480142147, 82864869804, 682076806159,
}

// MaxTabulatedBell is the largest n with a tabulated Bell number.
const MaxTabulatedBell = 18

// BellNumber returns the number of set partitions of n elements.
// ok is false when n is outside the tabulated range.
func BellNumber(n int) (uint64, bool) {
	if n < 0 || n >= len(bellNumbers) {
		return 0, false
	}
	return bellNumbers[n], true
}

// BellTriangle computes B(0)..B(n) with the Bell triangle recurrence.
// Used to cross-check the table; entries saturate at math.MaxUint64.
func BellTriangle(n int) []uint64 {
	if n < 0 {
		return nil
	}
	out := make([]uint64, 0, n+1)
	out = append(out, 1)
	row := []uint64{1}
	for i := 1; i <= n; i++ {
		next := make([]uint64, len(row)+1)
		next[0] = row[len(row)-1]
		for j := 1; j < len(next); j++ {
			next[j] = saturatingAdd(next[j-1], row[j-1])
		}
		out = append(out, next[0])
		row = next
	}
	return out
}

// Stirling2 returns S(n, k), the number of ways to partition n elements into exactly k
// non-empty blocks. Saturates at math.MaxUint64.
func Stirling2(n, k int) uint64 {
	if n < 0 || k < 0 || k > n {
		return 0
	}
	if n == 0 {
		return 1
	}
	row := make([]uint64, k+1)
	row[0] = 1
	for i := 1; i <= n; i++ {
		top := min(i, k)
		for j := top; j >= 1; j-- {
			row[j] = saturatingAdd(saturatingMul(uint64(j), row[j]), row[j-1])
		}
		row[0] = 0
	}
	return row[k]
}

// CountCrossCats returns the size of the cross-categorization latent space over rows
// objects and cols features: the sum over every partition of the columns into kinds of
// Bell(rows)^kinds. Partitions with equal kind counts are grouped via Stirling numbers.
// Saturates at math.MaxUint64.
func CountCrossCats(rows, cols int) uint64 {
	bell, ok := BellNumber(rows)
	if !ok {
		return math.MaxUint64
	}
	var total uint64
	power := uint64(1)
	for k := 0; k <= cols; k++ {
		if k > 0 {
			power = saturatingMul(power, bell)
		}
		total = saturatingAdd(total, saturatingMul(Stirling2(cols, k), power))
	}
	return total
}

// ExactLatentCount returns the number of distinct latents the engine can emit for a
// dataset shape. With kind inference every cross-categorization is reachable; without
// it the single kind only varies its row grouping.
func ExactLatentCount(objectCount, featureCount int, inferKinds bool) uint64 {
	if inferKinds {
		return CountCrossCats(objectCount, featureCount)
	}
	bell, ok := BellNumber(objectCount)
	if !ok {
		return math.MaxUint64
	}
	return bell
}

func saturatingAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

func saturatingMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}
