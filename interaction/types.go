// Package interaction defines the pair-interaction abstraction the grouping
// core consumes: a uniform body-pair accessor over contact manifolds and
// joint edges (spec §4.1). It is read-only with respect to the interaction
// from the grouping core's point of view — the solver that consumes the
// grouped/non-grouped output may later mutate manifolds/joints by index.
//
// Two concrete interactions exist:
//
//	ContactManifold — a contact point set between two bodies.
//	JointEdge       — a typed joint constraint between two bodies.
//
// Both are plain structs rather than full solver-owned types: the broad and
// narrow phase that populate manifolds, and the joint graph that owns
// joint edges, are out of scope (spec §1 "Out of scope: external
// collaborators").
package interaction

import "github.com/katalvlaran/rbgroup/body"

// MaxContacts bounds num_active_contacts per manifold (spec §3).
const MaxContacts = 4

// Dimension selects the joint subtype universe size: 5 in 2D, 10 in 3D
// (spec §3, §4.3 "T is a compile-time constant per simulation dimension").
// Go has no per-build constant-folding story as clean as Rust's #[cfg], so
// Dimension is a runtime value threaded through simdgroup.New instead of a
// build tag.
type Dimension int

const (
	// Dim2 is the 2D joint-subtype universe (T=5).
	Dim2 Dimension = iota
	// Dim3 is the 3D joint-subtype universe (T=10).
	Dim3
)

// NumJointTypes returns T, the number of joint subtypes for this dimension.
func (d Dimension) NumJointTypes() int {
	switch d {
	case Dim3:
		return 10
	default:
		return 5
	}
}

// PairInteraction is the capability both grouping algorithms consume: an
// ordered pair of body handles (order is irrelevant to grouping). Both
// ContactManifold and JointEdge satisfy it via pointer receivers so the
// parallel grouper can hold them exclusively if it needs to mutate them
// later, per spec §4.1.
type PairInteraction interface {
	BodyPair() (body.Handle, body.Handle)
}

// ContactManifold is the contact-point-set view of a pairwise interaction.
type ContactManifold struct {
	// Body1, Body2 are the manifold's endpoints.
	Body1, Body2 body.Handle

	// NumActiveContacts is the number of live contact points, in
	// [0, MaxContacts]. The SIMD packer stratifies by this value so every
	// completed bucket holds manifolds of identical point count (spec
	// §4.3 "Contact-specific outer pass").
	NumActiveContacts int
}

// BodyPair implements PairInteraction.
func (m *ContactManifold) BodyPair() (body.Handle, body.Handle) {
	return m.Body1, m.Body2
}

// JointEdge is the joint-constraint view of a pairwise interaction.
type JointEdge struct {
	// Body1, Body2 are the joint's endpoints.
	Body1, Body2 body.Handle

	// Subtype identifies the joint's concrete kind, in
	// [0, Dimension.NumJointTypes()). Two joints of different subtypes
	// never share a completed SIMD bucket (spec I3).
	Subtype int

	// SupportsSIMD reports whether this joint's constraint kernel has a
	// vectorized implementation yet. When false, the SIMD packer routes
	// the joint straight to the non-grouped list (spec §4.3 "Joint-specific
	// pre-filter").
	SupportsSIMD bool
}

// BodyPair implements PairInteraction.
func (j *JointEdge) BodyPair() (body.Handle, body.Handle) {
	return j.Body1, j.Body2
}

// AsInteractions upgrades a slice of ContactManifold pointers to the
// abstract PairInteraction view, for callers driving the parallel grouper
// (which works over any PairInteraction) with manifolds.
func AsInteractions(manifolds []*ContactManifold) []PairInteraction {
	out := make([]PairInteraction, len(manifolds))
	for i, m := range manifolds {
		out[i] = m
	}

	return out
}

// JointsAsInteractions upgrades a slice of JointEdge pointers to the
// abstract PairInteraction view, for callers driving the parallel grouper
// with joints.
func JointsAsInteractions(joints []*JointEdge) []PairInteraction {
	out := make([]PairInteraction, len(joints))
	for i, j := range joints {
		out[i] = j
	}

	return out
}
