package graph

import (
	"context"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/mepg/mepg/internal/model"
)

// buildFollows computes the directly-follows relation per entity
// instance: the entity's correlated events sorted by timestamp, ties
// broken by ingestion index, then one edge per consecutive pair tagged
// with the entity's type. Instances are independent, so they are
// partitioned across workers and the partial edge lists merged in
// partition order to keep the result deterministic.
func (b *Builder) buildFollows(ctx context.Context) error {
	ids := b.entityOrder
	if len(ids) == 0 {
		return nil
	}

	workers := b.workers
	if workers > len(ids) {
		workers = len(ids)
	}

	partials := make([][]model.DFEdge, workers)
	g, ctx := errgroup.WithContext(ctx)
	chunk := (len(ids) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(ids) {
			hi = len(ids)
		}
		w := w
		part := ids[lo:hi]

		g.Go(func() error {
			var edges []model.DFEdge
			for _, id := range part {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				edges = b.followsFor(id, edges)
			}
			partials[w] = edges
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Merge with upsert semantics on (source, target, type) so a
	// re-run never duplicates an edge.
	for _, part := range partials {
		for _, e := range part {
			key := e.EntityType + "#" + strconv.Itoa(e.Source) + ">" + strconv.Itoa(e.Target)
			if b.dfSeen[key] {
				continue
			}
			b.dfSeen[key] = true
			b.df = append(b.df, e)
		}
	}
	return nil
}

// followsFor appends the directly-follows edges of one entity instance.
func (b *Builder) followsFor(entityID string, edges []model.DFEdge) []model.DFEdge {
	indices := b.entityEvents[entityID]
	if len(indices) < 2 {
		return edges
	}

	entity := b.entities[entityID]

	ordered := make([]int, len(indices))
	copy(ordered, indices)
	sort.Slice(ordered, func(i, j int) bool {
		a, bb := b.store.Event(ordered[i]), b.store.Event(ordered[j])
		if a.Timestamp != bb.Timestamp {
			return a.Timestamp < bb.Timestamp
		}
		return a.Index < bb.Index
	})

	for i := 1; i < len(ordered); i++ {
		edges = append(edges, model.DFEdge{
			Source:     ordered[i-1],
			Target:     ordered[i],
			EntityType: entity.Type,
			EntityID:   entityID,
		})
	}
	return edges
}
