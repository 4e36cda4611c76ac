package simdgroup

import "github.com/katalvlaran/rbgroup/bitset128"

// bucket is a fixed-capacity SIMD lane group in progress: up to laneWidth
// interaction indices plus a fill count (spec §3 "Bucket (SIMD packer)").
type bucket struct {
	lanes        []int // len == stratum's lane width
	fill         int
	participants []int // dense offsets that have contributed so far
}

// stratum bundles the four pieces of state one "pass" of the placement
// rule needs: the sparse bucket map, per-body occupancy masks, the overall
// occupied mask, and (joints only) the joint-type conflict table. Contact
// stratification (one stratum per distinct point count) and the default
// single-stratum joint pass both go through the same stratum type.
type stratum struct {
	buckets        map[int]*bucket
	bodyMasks      []bitset128.Word
	occupied       bitset128.Word
	jointConflicts []bitset128.Word // nil when subtype constraints don't apply
}

func newStratum(numBodies int, numJointTypes int) *stratum {
	s := &stratum{
		buckets:   make(map[int]*bucket),
		bodyMasks: make([]bitset128.Word, numBodies),
	}
	if numJointTypes > 0 {
		s.jointConflicts = make([]bitset128.Word, numJointTypes)
	}

	return s
}

// reset clears a stratum's semantic state for reuse between the per-k
// passes of one GroupManifolds call, without reallocating the body masks
// when the body count is unchanged.
func (s *stratum) reset(numBodies int) {
	if cap(s.bodyMasks) < numBodies {
		s.bodyMasks = make([]bitset128.Word, numBodies)
	} else {
		s.bodyMasks = s.bodyMasks[:numBodies]
		for i := range s.bodyMasks {
			s.bodyMasks[i] = bitset128.Word{}
		}
	}
	s.occupied = bitset128.Word{}
	for i := range s.jointConflicts {
		s.jointConflicts[i] = bitset128.Word{}
	}
	s.buckets = make(map[int]*bucket, len(s.buckets))
}

// spillPartials appends every partial bucket's live lanes to dst, in
// ascending bucket-index order for determinism (spec P5), and returns the
// extended slice. It does not touch bodyMasks/occupied — callers reset
// those separately.
func (s *stratum) spillPartials(dst []int) []int {
	if len(s.buckets) == 0 {
		return dst
	}
	// Sparse map iteration order is random in Go; sort indices so repeated
	// calls on identical input are bit-identical (spec P5).
	indices := make([]int, 0, len(s.buckets))
	for idx := range s.buckets {
		indices = append(indices, idx)
	}
	insertionSortInts(indices)

	for _, idx := range indices {
		b := s.buckets[idx]
		dst = append(dst, b.lanes[:b.fill]...)
	}

	return dst
}

// insertionSortInts sorts a small slice of bucket indices (at most
// bitset128.Width of them) without pulling in sort.Ints for what is, at
// most, a 128-element pass.
func insertionSortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		v := xs[i]
		j := i - 1
		for j >= 0 && xs[j] > v {
			xs[j+1] = xs[j]
			j--
		}
		xs[j+1] = v
	}
}
