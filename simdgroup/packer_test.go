package simdgroup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/rbgroup/body"
	"github.com/katalvlaran/rbgroup/interaction"
	"github.com/katalvlaran/rbgroup/simdgroup"
)

// chainBodies registers n dynamic bodies in island 0.
func chainBodies(t *testing.T, n int) *body.DenseStore {
	t.Helper()
	store := body.NewDenseStore()
	for i := 0; i < n; i++ {
		require.NoError(t, store.AddBody(0, body.Handle(i), true))
	}

	return store
}

func TestGroupManifolds_P3_CompletedBucketsAreLaneWidthMultiple(t *testing.T) {
	store := chainBodies(t, 4)
	manifolds := []*interaction.ContactManifold{
		{Body1: 0, Body2: 1, NumActiveContacts: 1},
		{Body1: 1, Body2: 2, NumActiveContacts: 1},
		{Body1: 2, Body2: 3, NumActiveContacts: 1},
	}

	p := simdgroup.New(simdgroup.WithLaneWidth(2))
	require.NoError(t, p.GroupManifolds(0, store, manifolds, []int{0, 1, 2}))

	assert.Equal(t, 0, len(p.GroupedInteractions())%2)
	assert.ElementsMatch(t, []int{0, 2}, p.GroupedInteractions())
	assert.ElementsMatch(t, []int{1}, p.NongroupedInteractions())
}

func TestGroupManifolds_P4_NoBucketSharesADynamicBody(t *testing.T) {
	store := chainBodies(t, 8)
	manifolds := []*interaction.ContactManifold{
		{Body1: 0, Body2: 1, NumActiveContacts: 1},
		{Body1: 2, Body2: 3, NumActiveContacts: 1},
		{Body1: 4, Body2: 5, NumActiveContacts: 1},
		{Body1: 1, Body2: 2, NumActiveContacts: 1},
		{Body1: 6, Body2: 7, NumActiveContacts: 1},
	}

	p := simdgroup.New(simdgroup.WithLaneWidth(4))
	require.NoError(t, p.GroupManifolds(0, store, manifolds, []int{0, 1, 2, 3, 4}))

	// Interaction 3 shares bodies with 0 and 1 so it cannot join their
	// bucket; 0, 1, 2 and 4 are pairwise disjoint and fill one bucket of
	// width 4, leaving interaction 3 stranded alone.
	assert.Equal(t, []int{0, 1, 2, 4}, p.GroupedInteractions())
	assert.Equal(t, []int{3}, p.NongroupedInteractions())
}

func TestGroupManifolds_FlushedBucketIsReusableEvenWithStaleBodyMask(t *testing.T) {
	store := chainBodies(t, 8)
	manifolds := []*interaction.ContactManifold{
		{Body1: 0, Body2: 1, NumActiveContacts: 1},
		{Body1: 2, Body2: 3, NumActiveContacts: 1},
		{Body1: 4, Body2: 5, NumActiveContacts: 1},
		{Body1: 6, Body2: 7, NumActiveContacts: 1},
		{Body1: 0, Body2: 1, NumActiveContacts: 1},
	}

	p := simdgroup.New(simdgroup.WithLaneWidth(4))
	require.NoError(t, p.GroupManifolds(0, store, manifolds, []int{0, 1, 2, 3, 4}))

	// The first four interactions are pairwise disjoint and fill+flush
	// bucket 0. Default (non-precise) body-mask clearing leaves bodies 0/1's
	// bit for that bucket stale after the flush, but the occupied mask was
	// cleared, so the bucket index itself is free again: interaction 4
	// (reusing bodies 0 and 1) must be eligible to reuse bucket 0 rather
	// than being forced into a fresh one.
	assert.Equal(t, []int{0, 1, 2, 3}, p.GroupedInteractions())
	assert.Equal(t, []int{4}, p.NongroupedInteractions())
}

func TestGroupManifolds_Stratification_DifferentKNeverShareABucket(t *testing.T) {
	store := chainBodies(t, 4)
	manifolds := []*interaction.ContactManifold{
		{Body1: 0, Body2: 1, NumActiveContacts: 1},
		{Body1: 2, Body2: 3, NumActiveContacts: 2},
	}

	p := simdgroup.New(simdgroup.WithLaneWidth(2))
	require.NoError(t, p.GroupManifolds(0, store, manifolds, []int{0, 1}))

	// Disjoint bodies but distinct point counts: neither can complete a
	// shared bucket, both spill.
	assert.Empty(t, p.GroupedInteractions())
	assert.ElementsMatch(t, []int{0, 1}, p.NongroupedInteractions())
}

func TestGroupManifolds_SinglePassStratification_MatchesDefault(t *testing.T) {
	store := chainBodies(t, 8)
	manifolds := []*interaction.ContactManifold{
		{Body1: 0, Body2: 1, NumActiveContacts: 1},
		{Body1: 2, Body2: 3, NumActiveContacts: 1},
		{Body1: 4, Body2: 5, NumActiveContacts: 2},
		{Body1: 6, Body2: 7, NumActiveContacts: 2},
	}
	indices := []int{0, 1, 2, 3}

	def := simdgroup.New(simdgroup.WithLaneWidth(2))
	require.NoError(t, def.GroupManifolds(0, store, manifolds, indices))

	single := simdgroup.New(simdgroup.WithLaneWidth(2), simdgroup.WithSinglePassStratification())
	require.NoError(t, single.GroupManifolds(0, store, manifolds, indices))

	assert.ElementsMatch(t, def.GroupedInteractions(), single.GroupedInteractions())
	assert.ElementsMatch(t, def.NongroupedInteractions(), single.NongroupedInteractions())
}

func TestGroupJoints_StaticStaticPairIsDropped(t *testing.T) {
	store := body.NewDenseStore()
	require.NoError(t, store.AddBody(0, 0, false))
	require.NoError(t, store.AddBody(0, 1, false))
	joints := []*interaction.JointEdge{
		{Body1: 0, Body2: 1, Subtype: 0, SupportsSIMD: true},
	}

	p := simdgroup.New()
	require.NoError(t, p.GroupJoints(0, store, joints, []int{0}))

	assert.Empty(t, p.GroupedInteractions())
	assert.Empty(t, p.NongroupedInteractions())
}

func TestGroupJoints_StaticStaticPairIsDroppedEvenWhenNonSIMD(t *testing.T) {
	store := body.NewDenseStore()
	require.NoError(t, store.AddBody(0, 0, false))
	require.NoError(t, store.AddBody(0, 1, false))
	joints := []*interaction.JointEdge{
		{Body1: 0, Body2: 1, Subtype: 0, SupportsSIMD: false},
	}

	p := simdgroup.New()
	require.NoError(t, p.GroupJoints(0, store, joints, []int{0}))

	// Static-static must be dropped entirely (neither stream), regardless of
	// SupportsSIMD: the static-static precondition is checked before the
	// SIMD fast path.
	assert.Empty(t, p.GroupedInteractions())
	assert.Empty(t, p.NongroupedInteractions())
}

func TestGroupJoints_NonSIMDFastPathToNongrouped(t *testing.T) {
	store := chainBodies(t, 2)
	joints := []*interaction.JointEdge{
		{Body1: 0, Body2: 1, Subtype: 0, SupportsSIMD: false},
	}

	p := simdgroup.New()
	require.NoError(t, p.GroupJoints(0, store, joints, []int{0}))

	assert.Equal(t, []int{0}, p.NongroupedInteractions())
	assert.Empty(t, p.GroupedInteractions())
}

func TestGroupJoints_DifferentSubtypesNeverShareABucketEvenWithDisjointBodies(t *testing.T) {
	store := chainBodies(t, 4)
	joints := []*interaction.JointEdge{
		{Body1: 0, Body2: 1, Subtype: 0, SupportsSIMD: true},
		{Body1: 2, Body2: 3, Subtype: 1, SupportsSIMD: true},
	}

	p := simdgroup.New(simdgroup.WithLaneWidth(2))
	require.NoError(t, p.GroupJoints(0, store, joints, []int{0, 1}))

	// Disjoint bodies, distinct subtypes: neither bucket can complete.
	assert.Empty(t, p.GroupedInteractions())
	assert.ElementsMatch(t, []int{0, 1}, p.NongroupedInteractions())
}

func TestGroupJoints_SameSubtypeDisjointBodiesFillABucket(t *testing.T) {
	store := chainBodies(t, 4)
	joints := []*interaction.JointEdge{
		{Body1: 0, Body2: 1, Subtype: 0, SupportsSIMD: true},
		{Body1: 2, Body2: 3, Subtype: 0, SupportsSIMD: true},
	}

	p := simdgroup.New(simdgroup.WithLaneWidth(2))
	require.NoError(t, p.GroupJoints(0, store, joints, []int{0, 1}))

	assert.ElementsMatch(t, []int{0, 1}, p.GroupedInteractions())
	assert.Empty(t, p.NongroupedInteractions())
}

func TestPacker_ClearResetsOutputs(t *testing.T) {
	store := chainBodies(t, 2)
	manifolds := []*interaction.ContactManifold{{Body1: 0, Body2: 1, NumActiveContacts: 1}}

	p := simdgroup.New(simdgroup.WithLaneWidth(2))
	require.NoError(t, p.GroupManifolds(0, store, manifolds, []int{0}))
	assert.NotEmpty(t, p.NongroupedInteractions())

	p.Clear()
	assert.Empty(t, p.GroupedInteractions())
	assert.Empty(t, p.NongroupedInteractions())
}

func TestWithLaneWidth_InvalidPanics(t *testing.T) {
	assert.Panics(t, func() {
		simdgroup.New(simdgroup.WithLaneWidth(0))
	})
	assert.Panics(t, func() {
		simdgroup.New(simdgroup.WithLaneWidth(simdgroup.MaxLaneWidth + 1))
	})
}
