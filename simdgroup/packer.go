package simdgroup

import (
	"fmt"

	"github.com/katalvlaran/rbgroup/bitset128"
	"github.com/katalvlaran/rbgroup/body"
	"github.com/katalvlaran/rbgroup/interaction"
)

// Packer greedily bin-packs interactions into fixed-width SIMD buckets
// (spec §4.3). Its per-call workspaces (sparse bucket map, body occupancy
// masks, joint-type conflict table) are allocated fresh by every
// GroupManifolds/GroupJoints call and are not kept or reused between calls;
// only the output arrays persist on the Packer. Not safe for concurrent use
// by multiple goroutines — give each island its own Packer (spec §5).
type Packer struct {
	laneWidth          int
	dimension          interaction.Dimension
	preciseClear       bool
	singlePassStratify bool

	grouped    []int
	nongrouped []int
}

// New returns a zeroed Packer. Defaults: lane width DefaultLaneWidth,
// Dimension Dim2 (T=5), default (overconservative) body-mask clearing,
// default (multi-pass) contact stratification.
func New(opts ...Option) *Packer {
	p := &Packer{
		laneWidth: DefaultLaneWidth,
		dimension: interaction.Dim2,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// GroupedInteractions returns the flat, lane-width-aligned array of packed
// interaction indices accumulated since the last Clear/ClearGroups.
func (p *Packer) GroupedInteractions() []int { return p.grouped }

// NongroupedInteractions returns interaction indices that could not be
// packed, accumulated since the last Clear/ClearGroups.
func (p *Packer) NongroupedInteractions() []int { return p.nongrouped }

// Clear resets the output arrays; since a Packer keeps no other per-call
// state, this leaves it equivalent to a fresh Packer (spec "Packer::clear()").
func (p *Packer) Clear() {
	p.grouped = p.grouped[:0]
	p.nongrouped = p.nongrouped[:0]
}

// ClearGroups resets just the output arrays between ticks, without
// touching configuration (spec "Packer::clear_groups()").
func (p *Packer) ClearGroups() {
	p.grouped = p.grouped[:0]
	p.nongrouped = p.nongrouped[:0]
}

// place runs the shared placement rule (spec §4.3 "Placement rule
// (shared)") for one interaction against one stratum. offs holds the dense
// offsets of the interaction's dynamic participants (length 1 or 2,
// static-static having already been filtered out by the caller). subtype is
// the joint subtype in [0, T), or -1 for contacts (no subtype constraint).
func (p *Packer) place(s *stratum, idx int, offs []int, subtype int) {
	conflicts := bitset128.Word{}
	for _, o := range offs {
		conflicts = conflicts.Or(s.bodyMasks[o])
	}
	if subtype >= 0 {
		conflicts = conflicts.Or(s.jointConflicts[subtype])
	}

	free := conflicts.And(s.occupied).Not()
	freeOccupied := free.And(s.occupied)

	var target int
	if !freeOccupied.IsZero() {
		target = freeOccupied.TrailingZero() // prefer completing a partial bucket
	} else {
		target = free.TrailingZero()
	}

	if target == bitset128.NoBit {
		p.nongrouped = append(p.nongrouped, idx)
		return
	}

	b, ok := s.buckets[target]
	if !ok {
		b = &bucket{lanes: make([]int, p.laneWidth)}
		s.buckets[target] = b
	}

	for _, o := range offs {
		s.bodyMasks[o] = s.bodyMasks[o].Set(target)
	}
	b.participants = append(b.participants, offs...)

	if b.fill == p.laneWidth-1 {
		b.lanes[p.laneWidth-1] = idx
		p.grouped = append(p.grouped, b.lanes...)
		b.fill = 0
		s.occupied = s.occupied.Clear(target)
		if subtype >= 0 {
			for k := range s.jointConflicts {
				s.jointConflicts[k] = s.jointConflicts[k].Clear(target)
			}
		}
		if p.preciseClear {
			for _, o := range b.participants {
				s.bodyMasks[o] = s.bodyMasks[o].Clear(target)
			}
		}
		b.participants = b.participants[:0]
	} else {
		b.lanes[b.fill] = idx
		b.fill++
		s.occupied = s.occupied.Set(target)
		if subtype >= 0 {
			for k := range s.jointConflicts {
				if k != subtype {
					s.jointConflicts[k] = s.jointConflicts[k].Set(target)
				}
			}
		}
	}
}

// dynamicOffsets resolves the dense offsets of h1/h2's dynamic members
// (0, 1, or 2 of them) and reports whether both were static (meaning the
// interaction must be dropped entirely, per spec I4).
func dynamicOffsets(bodies body.Store, h1, h2 body.Handle) (offs []int, bothStatic bool) {
	static1 := body.IsStatic(bodies, h1)
	static2 := body.IsStatic(bodies, h2)
	if static1 && static2 {
		return nil, true
	}
	if !static1 {
		offs = append(offs, bodies.DenseOffset(h1))
	}
	if !static2 {
		offs = append(offs, bodies.DenseOffset(h2))
	}

	return offs, false
}

// GroupJoints packs joint edges into SIMD buckets, honoring same-subtype
// buckets and SupportsSIMD (spec §4.3 "group_joints").
//
// Steps:
//  1. Pre-filter: drop static-static pairs first (matching the original's
//     is_static1 && is_static2 check ahead of the SIMD-support check), then
//     route remaining !SupportsSIMD joints straight to nongrouped.
//  2. Run the shared placement rule once over the remaining indices, in
//     input order, against a single stratum sized to the island and T.
//  3. Spill every partial bucket's contents to nongrouped and clear
//     workspaces.
//
// Complexity: O(|indices|).
func (p *Packer) GroupJoints(islandID int, bodies body.Store, joints []*interaction.JointEdge, indices []int) error {
	numBodies := bodies.IslandBodyCount(islandID)
	s := newStratum(numBodies, p.dimension.NumJointTypes())

	for _, idx := range indices {
		j := joints[idx]

		offs, bothStatic := dynamicOffsets(bodies, j.Body1, j.Body2)
		if bothStatic {
			continue
		}

		if !j.SupportsSIMD {
			p.nongrouped = append(p.nongrouped, idx)
			continue
		}

		p.place(s, idx, offs, j.Subtype)
	}

	p.nongrouped = s.spillPartials(p.nongrouped)

	if len(p.grouped)%p.laneWidth != 0 {
		panic(fmt.Sprintf("simdgroup: invalid SIMD joint grouping, %d interactions not a multiple of lane width %d", len(p.grouped), p.laneWidth))
	}

	return nil
}

// GroupManifolds packs contact manifolds into SIMD buckets, stratified by
// NumActiveContacts so every completed bucket's manifolds share one point
// count (spec §4.3 "group_manifolds", "Contact-specific outer pass").
//
// Default strategy: iterate k = 1..=max_observed_k, and for each k run the
// shared placement rule over indices whose NumActiveContacts == k against a
// fresh stratum, spilling remaining partial buckets between iterations.
// With WithSinglePassStratification, a distinct stratum per observed k is
// built during one single pass over indices instead (spec §9's second Open
// Question), which avoids the O(max_k) re-scans at the cost of holding one
// stratum per k simultaneously.
//
// Complexity: O(|indices| · max_k) by default, O(|indices|) single-pass.
func (p *Packer) GroupManifolds(islandID int, bodies body.Store, manifolds []*interaction.ContactManifold, indices []int) error {
	numBodies := bodies.IslandBodyCount(islandID)

	if p.singlePassStratify {
		p.groupManifoldsSinglePass(numBodies, bodies, manifolds, indices)
	} else {
		p.groupManifoldsMultiPass(numBodies, bodies, manifolds, indices)
	}

	if len(p.grouped)%p.laneWidth != 0 {
		panic(fmt.Sprintf("simdgroup: invalid SIMD contact grouping, %d interactions not a multiple of lane width %d", len(p.grouped), p.laneWidth))
	}

	return nil
}

func (p *Packer) groupManifoldsMultiPass(numBodies int, bodies body.Store, manifolds []*interaction.ContactManifold, indices []int) {
	maxK := 1
	for _, idx := range indices {
		if k := manifolds[idx].NumActiveContacts; k > maxK {
			maxK = k
		}
	}

	s := newStratum(numBodies, 0)
	for k := 1; k <= maxK; k++ {
		for _, idx := range indices {
			m := manifolds[idx]
			if m.NumActiveContacts != k {
				continue
			}

			offs, bothStatic := dynamicOffsets(bodies, m.Body1, m.Body2)
			if bothStatic {
				continue
			}

			p.place(s, idx, offs, -1)
		}

		p.nongrouped = s.spillPartials(p.nongrouped)
		s.reset(numBodies)
	}
}

func (p *Packer) groupManifoldsSinglePass(numBodies int, bodies body.Store, manifolds []*interaction.ContactManifold, indices []int) {
	strataByK := make(map[int]*stratum)

	for _, idx := range indices {
		m := manifolds[idx]
		offs, bothStatic := dynamicOffsets(bodies, m.Body1, m.Body2)
		if bothStatic {
			continue
		}

		s, ok := strataByK[m.NumActiveContacts]
		if !ok {
			s = newStratum(numBodies, 0)
			strataByK[m.NumActiveContacts] = s
		}

		p.place(s, idx, offs, -1)
	}

	// Deterministic spill order: ascending k (spec P5).
	ks := make([]int, 0, len(strataByK))
	for k := range strataByK {
		ks = append(ks, k)
	}
	insertionSortInts(ks)
	for _, k := range ks {
		p.nongrouped = strataByK[k].spillPartials(p.nongrouped)
	}
}
