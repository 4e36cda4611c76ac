// Package colorgroup implements parallel graph coloring over pairwise
// interactions (spec §4.2): interactions sharing a dynamic body never
// receive the same color, so a solver may process all interactions of one
// color concurrently without racing on body state.
//
// The algorithm is greedy and order-sensitive (spec §5 "Ordering"): given
// identical input order, repeated calls produce bit-identical output
// (spec P5). It is not optimal coloring — a bound on the greedy chromatic
// number is all spec.md asks for (spec §1 Non-goals).
package colorgroup

import "errors"

// ErrStaticStaticPair is returned when an interaction's two bodies are both
// static. The spec calls this an unreachable precondition violation for a
// well-formed island (§4.2 step 1); this module rejects it with a typed
// error instead of Rust's unreachable!() panic, per SPEC_FULL.md's
// resolution of that design choice.
var ErrStaticStaticPair = errors.New("colorgroup: interaction has two static bodies")

// Option configures a Grouper at construction time.
type Option func(*Grouper)

// WithDebugValidation enables an extra O(1)-per-interaction sanity check
// that a dynamic body's dense offset is within the island's body count —
// a cheap tripwire for a malformed body.Store, matching spec §9's closing
// Open Question ("implementations should validate this at debug time").
// Off by default; grouping is on a hot per-tick path.
func WithDebugValidation() Option {
	return func(g *Grouper) { g.debugValidate = true }
}
