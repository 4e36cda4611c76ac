// Package simdgroup implements SIMD lane packing over pairwise interactions
// (spec §4.3): contact manifolds or joint edges are greedily bin-packed into
// fixed-width buckets (lane width W) such that every completed bucket's W
// interactions share no dynamic body — and, for joints, share one subtype.
// Anything that cannot be placed spills to a non-grouped list for scalar
// solving.
//
// Two entry points share the placement rule: GroupManifolds (stratified by
// contact-point count so every completed bucket holds manifolds of
// identical point count) and GroupJoints (constrained additionally by
// joint subtype, with a fast path for joints whose constraint kernel has no
// vectorized implementation yet).
package simdgroup

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/rbgroup/interaction"
)

// DefaultLaneWidth is W when no WithLaneWidth option is given.
const DefaultLaneWidth = 4

// MaxLaneWidth bounds the configurable lane width (spec §6 "typ. 4 or 8";
// wider lanes are implausible for any real SIMD target).
const MaxLaneWidth = 8

// ErrInvalidLaneWidth is returned by New via panic when the configured lane
// width falls outside [1, MaxLaneWidth] — a construction-time programmer
// error, not a runtime condition.
var ErrInvalidLaneWidth = errors.New("simdgroup: lane width must be in [1, 8]")

// Option configures a Packer at construction time.
type Option func(*Packer)

// WithLaneWidth sets W, the SIMD lane width. Panics (wrapping
// ErrInvalidLaneWidth) if w is outside [1, MaxLaneWidth].
func WithLaneWidth(w int) Option {
	return func(p *Packer) {
		if w < 1 || w > MaxLaneWidth {
			panic(fmt.Errorf("%w: got %d", ErrInvalidLaneWidth, w))
		}
		p.laneWidth = w
	}
}

// WithDimension sets T, the joint subtype universe, via the simulation
// dimension (5 in 2D, 10 in 3D). Only affects GroupJoints.
func WithDimension(d interaction.Dimension) Option {
	return func(p *Packer) { p.dimension = d }
}

// WithPreciseBodyMaskClearing opts into the precise variant of the body-mask
// bookkeeping: when a bucket completes and flushes, the bodies that
// participated in it have that bucket's bit cleared from their body mask,
// instead of the default "known overconservatism" the spec documents
// (§4.3) where the bit is left set for the rest of the call. This trades a
// small amount of extra per-bucket bookkeeping for higher pack density; it
// never affects I2/I3 (both hold either way, see DESIGN.md).
func WithPreciseBodyMaskClearing() Option {
	return func(p *Packer) { p.preciseClear = true }
}

// WithSinglePassStratification selects the single-pass contact stratification
// strategy (spec §9's second Open Question: "a single pass with per-k
// sub-bucketing is a valid optimization") instead of the default strategy of
// iterating k = 1..=max_observed_k and re-scanning indices each time. Only
// affects GroupManifolds; GroupJoints never stratifies by anything but
// subtype, which the placement rule already handles in one pass.
func WithSinglePassStratification() Option {
	return func(p *Packer) { p.singlePassStratify = true }
}
