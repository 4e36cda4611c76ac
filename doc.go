// Package rbgroup is the constraint-interaction grouping core of a
// rigid-body physics solver.
//
// 🚀 What is rbgroup?
//
//	A small, dependency-light library that turns a pile of pairwise
//	interactions (contact manifolds, joint edges) inside one simulation
//	island into batches the downstream solver can run safely:
//
//	  • Parallel graph coloring — interactions sharing a dynamic body never
//	    land in the same color, so same-color batches solve race-free.
//	  • SIMD lane packing — interactions are gathered into fixed-width
//	    buckets of W body-disjoint (and, for joints, same-subtype) entries
//	    for vectorized solving; anything that can't be packed spills to a
//	    non-grouped list.
//
// ✨ Why it's split out
//
//   - This is the subtle part of the solver: everything else (impulse
//     accumulation, integration, broad/narrow-phase collision) is
//     conventional bookkeeping. Grouping is a bounded graph-coloring /
//     bin-packing problem run every tick on hot data.
//   - The body store, the interaction container, and the island builder are
//     external collaborators — see the body and interaction subpackages for
//     the minimal surface this core needs from them.
//
// Under the hood:
//
//	body/        — Store contract (dynamic/static, dense per-island offset)
//	interaction/ — PairInteraction abstraction over contacts and joints
//	bitset128/   — 128-bit mask arithmetic (paired uint64 words)
//	colorgroup/  — parallel graph coloring
//	simdgroup/   — SIMD lane packing (manifolds and joints)
//	scheduler/   — concurrent multi-island dispatch
//
//	go get github.com/katalvlaran/rbgroup
package rbgroup
