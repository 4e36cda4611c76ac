package colorgroup

import (
	"fmt"

	"github.com/katalvlaran/rbgroup/bitset128"
	"github.com/katalvlaran/rbgroup/body"
	"github.com/katalvlaran/rbgroup/interaction"
)

// Grouper computes a greedy coloring of a subset of interactions within one
// island, then emits a color-sorted permutation of their indices plus a
// color offset table.
//
// A Grouper's workspaces (bodyColor, colorLen, sortedInteractions, groups)
// are allocated lazily and reused across islands and ticks; Group clears
// the semantic state it needs at the start of every call (spec I6). A
// Grouper is not safe for concurrent use by multiple goroutines — the
// scheduler package gives every island its own instance (spec §5).
type Grouper struct {
	debugValidate bool

	bodyColor []bitset128.Word // per dense-offset color mask, reused across calls
	colorLen  [bitset128.Width]int

	sortedInteractions []int
	groups             []int
}

// New returns a zeroed Grouper ready for Group.
func New(opts ...Option) *Grouper {
	g := &Grouper{}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// NumGroups returns the number of color classes produced by the most recent
// Group call.
func (g *Grouper) NumGroups() int {
	if len(g.groups) == 0 {
		return 0
	}

	return len(g.groups) - 1
}

// Batch returns the i-th color class: a slice of interaction indices, all
// sharing color i, viewed into sortedInteractions (callers must not retain
// it across the next Group call). Panics if i is out of [0, NumGroups()).
func (g *Grouper) Batch(i int) []int {
	return g.sortedInteractions[g.groups[i]:g.groups[i+1]]
}

// Group recomputes the coloring for the given island, overwriting any
// previous output (spec §4.2).
//
// Steps:
//  1. Size and clear per-body color masks against bodies.IslandBodyCount.
//  2. For each interaction index in input order, resolve its body pair,
//     compute the forbidden color mask from its dynamic participant(s),
//     and assign the lowest free color (count-trailing-zeros of the
//     complement). Two static bodies on one interaction is a precondition
//     violation: ErrStaticStaticPair.
//  3. Scan color_len from 0 to find the used color count (colors are dense
//     from 0 given lowest-free-color assignment).
//  4. Scatter interaction indices into sortedInteractions so each color's
//     indices are contiguous, recording per-color start offsets in groups.
//
// Complexity: O(|indices|). Concurrency: none — single-threaded per call.
func (g *Grouper) Group(islandID int, bodies body.Store, interactions []interaction.PairInteraction, indices []int) error {
	numBodies := bodies.IslandBodyCount(islandID)
	if cap(g.bodyColor) < numBodies {
		g.bodyColor = make([]bitset128.Word, numBodies)
	} else {
		g.bodyColor = g.bodyColor[:numBodies]
		for i := range g.bodyColor {
			g.bodyColor[i] = bitset128.Word{}
		}
	}
	for i := range g.colorLen {
		g.colorLen[i] = 0
	}

	colors := make([]int, len(indices))
	for pos, interactionIdx := range indices {
		b1, b2 := interactions[interactionIdx].BodyPair()
		static1 := body.IsStatic(bodies, b1)
		static2 := body.IsStatic(bodies, b2)

		var color int
		switch {
		case static1 && static2:
			return fmt.Errorf("%w: interaction index %d", ErrStaticStaticPair, interactionIdx)

		case !static1 && !static2:
			off1 := g.validatedOffset(bodies, islandID, b1)
			off2 := g.validatedOffset(bodies, islandID, b2)
			forbidden := g.bodyColor[off1].Or(g.bodyColor[off2])
			color = forbidden.Not().TrailingZero()
			if color == bitset128.NoBit {
				panic(fmt.Sprintf("colorgroup: interaction index %d needs more than %d colors", interactionIdx, bitset128.Width))
			}
			g.colorLen[color]++
			g.bodyColor[off1] = g.bodyColor[off1].Set(color)
			g.bodyColor[off2] = g.bodyColor[off2].Set(color)

		case static1: // b2 is the lone dynamic participant
			off2 := g.validatedOffset(bodies, islandID, b2)
			forbidden := g.bodyColor[off2]
			color = forbidden.Not().TrailingZero()
			if color == bitset128.NoBit {
				panic(fmt.Sprintf("colorgroup: interaction index %d needs more than %d colors", interactionIdx, bitset128.Width))
			}
			g.colorLen[color]++
			g.bodyColor[off2] = g.bodyColor[off2].Set(color)

		default: // b1 is the lone dynamic participant
			off1 := g.validatedOffset(bodies, islandID, b1)
			forbidden := g.bodyColor[off1]
			color = forbidden.Not().TrailingZero()
			if color == bitset128.NoBit {
				panic(fmt.Sprintf("colorgroup: interaction index %d needs more than %d colors", interactionIdx, bitset128.Width))
			}
			g.colorLen[color]++
			g.bodyColor[off1] = g.bodyColor[off1].Set(color)
		}

		colors[pos] = color
	}

	// Colors are allocated densely from 0 under lowest-free-color
	// assignment, so the first empty color_len slot terminates the scan.
	var sortOffsets [bitset128.Width]int
	g.groups = g.groups[:0]
	lastOffset := 0
	for c := 0; c < bitset128.Width; c++ {
		if g.colorLen[c] == 0 {
			break
		}
		g.groups = append(g.groups, lastOffset)
		sortOffsets[c] = lastOffset
		lastOffset += g.colorLen[c]
	}

	if cap(g.sortedInteractions) < len(indices) {
		g.sortedInteractions = make([]int, len(indices))
	} else {
		g.sortedInteractions = g.sortedInteractions[:len(indices)]
	}
	for pos, interactionIdx := range indices {
		c := colors[pos]
		g.sortedInteractions[sortOffsets[c]] = interactionIdx
		sortOffsets[c]++
	}

	g.groups = append(g.groups, len(g.sortedInteractions))

	return nil
}

// validatedOffset resolves a dynamic body's dense offset, optionally
// tripping a panic if it falls outside the island's declared body count
// (WithDebugValidation). This never fires for a correctly implemented
// body.Store; it exists to catch a malformed one early rather than let a
// color mask write silently corrupt an unrelated body's state.
func (g *Grouper) validatedOffset(bodies body.Store, islandID int, h body.Handle) int {
	off := bodies.DenseOffset(h)
	if g.debugValidate {
		if off < 0 || off >= bodies.IslandBodyCount(islandID) {
			panic(fmt.Sprintf("colorgroup: dynamic body %v has dense offset %d outside island %d's body count %d", h, off, islandID, bodies.IslandBodyCount(islandID)))
		}
	}

	return off
}
