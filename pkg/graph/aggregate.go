package graph

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mepg/mepg/internal/model"
)

// aggregate folds event-level directly-follows edges into class-level
// DF_C edges, keyed (source class, target class, entity type) per
// classification dimension. Counters never mix perspectives or
// dimensions. Workers count partitions of the edge list independently
// and the partial counts are merged, so no increment is lost. The
// stage recomputes its counters from scratch, which together with the
// deduplicated inputs makes re-running it a no-op.
func (b *Builder) aggregate(ctx context.Context) error {
	b.agg = make(map[string]*model.AggregatedEdge)
	b.aggOrder = nil

	if len(b.df) == 0 || len(b.spec.Dimensions) == 0 {
		return nil
	}

	workers := b.workers
	if workers > len(b.df) {
		workers = len(b.df)
	}

	type partial struct {
		counts map[string]*model.AggregatedEdge
		order  []string
	}
	partials := make([]partial, workers)
	chunk := (len(b.df) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(b.df) {
			hi = len(b.df)
		}
		w := w
		edges := b.df[lo:hi]

		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			p := partial{counts: make(map[string]*model.AggregatedEdge)}
			for _, e := range edges {
				for _, d := range b.spec.Dimensions {
					byEvent := b.obsClass[d.Name]
					srcKey, ok := byEvent[e.Source]
					if !ok {
						continue
					}
					tgtKey, ok := byEvent[e.Target]
					if !ok {
						continue
					}

					key := d.Name + "\x1f" + e.EntityType + "\x1f" + srcKey + "\x1f" + tgtKey
					agg, exists := p.counts[key]
					if !exists {
						agg = &model.AggregatedEdge{
							SourceClass: model.Class{Dimension: d.Name, Key: srcKey},
							TargetClass: model.Class{Dimension: d.Name, Key: tgtKey},
							EntityType:  e.EntityType,
						}
						p.counts[key] = agg
						p.order = append(p.order, key)
					}
					agg.Count++
				}
			}
			partials[w] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, p := range partials {
		for _, key := range p.order {
			src := p.counts[key]
			agg, exists := b.agg[key]
			if !exists {
				cp := *src
				b.agg[key] = &cp
				b.aggOrder = append(b.aggOrder, key)
				continue
			}
			agg.Count += src.Count
		}
	}
	return nil
}
