// Package scheduler fans independent islands out across goroutines, one
// colorgroup.Grouper or simdgroup.Packer per island, mirroring the spec's
// allowance that "multiple islands may be grouped concurrently... provided
// each owns its own grouper instance" (spec §5). Within one island, grouping
// stays single-threaded; concurrency here is strictly across islands.
package scheduler

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/rbgroup/body"
	"github.com/katalvlaran/rbgroup/colorgroup"
	"github.com/katalvlaran/rbgroup/interaction"
	"github.com/katalvlaran/rbgroup/simdgroup"
)

// Island bundles one island's identity and the slice of interaction indices
// (into its own interactions slice) that should be grouped together.
type Island struct {
	ID        int
	Bodies    body.Store
	Indices   []int
	Manifolds []interaction.PairInteraction
}

// ColoringResult is one island's coloring output, captured by value since
// Grouper.Batch returns views into the Grouper's own workspace, which the
// scheduler discards before the caller sees this result.
type ColoringResult struct {
	IslandID int
	Batches  [][]int
}

// GroupIslandsColoring runs colorgroup.Group for every island concurrently,
// each against a freshly constructed *colorgroup.Grouper so no state is
// shared across goroutines (spec §5). Returns one ColoringResult per input
// island, in input order, or the first error encountered — errgroup cancels
// ctx for the remaining islands once one fails, the same fail-fast contract
// bfs/dfs callers in the teacher lineage rely on for traversal cancellation.
func GroupIslandsColoring(ctx context.Context, islands []Island, opts ...colorgroup.Option) ([]ColoringResult, error) {
	results := make([]ColoringResult, len(islands))

	g, ctx := errgroup.WithContext(ctx)
	for i, isl := range islands {
		i, isl := i, isl
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			grouper := colorgroup.New(opts...)
			if err := grouper.Group(isl.ID, isl.Bodies, isl.Manifolds, isl.Indices); err != nil {
				return err
			}

			batches := make([][]int, grouper.NumGroups())
			for c := range batches {
				batches[c] = append([]int(nil), grouper.Batch(c)...)
			}
			results[i] = ColoringResult{IslandID: isl.ID, Batches: batches}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// SIMDResult is one island's lane-packing output.
type SIMDResult struct {
	IslandID   int
	Grouped    []int
	Nongrouped []int
}

// GroupIslandsSIMD runs simdgroup.GroupManifolds for every island
// concurrently, each against a freshly constructed *simdgroup.Packer.
// Joints are not threaded through here: a caller with both manifolds and
// joints to pack per island should call GroupJoints directly per island, or
// compose a second fan-out with the same pattern.
func GroupIslandsSIMD(ctx context.Context, islands []Island, manifoldsByIsland map[int][]*interaction.ContactManifold, opts ...simdgroup.Option) ([]SIMDResult, error) {
	results := make([]SIMDResult, len(islands))

	g, ctx := errgroup.WithContext(ctx)
	for i, isl := range islands {
		i, isl := i, isl
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			packer := simdgroup.New(opts...)
			if err := packer.GroupManifolds(isl.ID, isl.Bodies, manifoldsByIsland[isl.ID], isl.Indices); err != nil {
				return err
			}

			results[i] = SIMDResult{
				IslandID:   isl.ID,
				Grouped:    append([]int(nil), packer.GroupedInteractions()...),
				Nongrouped: append([]int(nil), packer.NongroupedInteractions()...),
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
