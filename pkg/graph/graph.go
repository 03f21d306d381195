package graph

import (
	"github.com/google/uuid"

	"github.com/mepg/mepg/internal/model"
	"github.com/mepg/mepg/pkg/store"
)

// Graph is the frozen result of a construction run. It is immutable
// and safe for concurrent readers.
type Graph struct {
	// RunID identifies this construction run.
	RunID string

	store *store.Store
	spec  Spec

	entities     map[string]*model.Entity
	entityOrder  []string
	entityEvents map[string][]int

	classes    map[string]*model.Class
	classOrder []string

	corr []model.CorrelationEdge
	rels []model.RelEdge
	df   []model.DFEdge
	obs  []model.ObservationEdge
	agg  []*model.AggregatedEdge
}

// freeze hands the builder's state over to an immutable Graph.
func (b *Builder) freeze() *Graph {
	agg := make([]*model.AggregatedEdge, 0, len(b.aggOrder))
	for _, key := range b.aggOrder {
		agg = append(agg, b.agg[key])
	}
	return &Graph{
		RunID:        uuid.NewString(),
		store:        b.store,
		spec:         b.spec,
		entities:     b.entities,
		entityOrder:  b.entityOrder,
		entityEvents: b.entityEvents,
		classes:      b.classes,
		classOrder:   b.classOrder,
		corr:         b.corr,
		rels:         b.rels,
		df:           b.df,
		obs:          b.obs,
		agg:          agg,
	}
}

// Events returns all events in ingestion order.
func (g *Graph) Events() []*model.Event { return g.store.All() }

// Event returns the event at the given ingestion index.
func (g *Graph) Event(index int) *model.Event { return g.store.Event(index) }

// Entities returns all entity instances in first-seen order. When
// entityType is non-empty only that perspective's instances are
// returned (base or reified).
func (g *Graph) Entities(entityType string) []*model.Entity {
	out := make([]*model.Entity, 0, len(g.entityOrder))
	for _, id := range g.entityOrder {
		e := g.entities[id]
		if entityType == "" || e.Type == entityType {
			out = append(out, e)
		}
	}
	return out
}

// Entity returns the instance for (entityType, key), or nil.
func (g *Graph) Entity(entityType, key string) *model.Entity {
	return g.entities[model.EntityID(entityType, key)]
}

// EventsOf returns the events correlated to one entity instance, in
// ingestion order. Includes derived (reified) correlations.
func (g *Graph) EventsOf(entityType, key string) []*model.Event {
	indices := g.entityEvents[model.EntityID(entityType, key)]
	out := make([]*model.Event, len(indices))
	for i, idx := range indices {
		out[i] = g.store.Event(idx)
	}
	return out
}

// EntitiesOf returns the entity instances correlated to one event,
// base and reified, in derivation order.
func (g *Graph) EntitiesOf(eventIndex int) []*model.Entity {
	var out []*model.Entity
	for _, c := range g.corr {
		if c.EventIndex == eventIndex {
			out = append(out, g.entities[c.EntityID])
		}
	}
	return out
}

// Classes returns class nodes in first-seen order, optionally filtered
// by dimension.
func (g *Graph) Classes(dimension string) []*model.Class {
	out := make([]*model.Class, 0, len(g.classOrder))
	for _, id := range g.classOrder {
		c := g.classes[id]
		if dimension == "" || c.Dimension == dimension {
			out = append(out, c)
		}
	}
	return out
}

// Correlations returns all Event -> Entity correlation edges.
func (g *Graph) Correlations() []model.CorrelationEdge { return g.corr }

// Rels returns all base-entity -> reified-entity edges.
func (g *Graph) Rels() []model.RelEdge { return g.rels }

// DF returns directly-follows edges, optionally filtered by
// perspective entity type.
func (g *Graph) DF(entityType string) []model.DFEdge {
	if entityType == "" {
		return g.df
	}
	var out []model.DFEdge
	for _, e := range g.df {
		if e.EntityType == entityType {
			out = append(out, e)
		}
	}
	return out
}

// Observations returns all Event -> Class observation edges.
func (g *Graph) Observations() []model.ObservationEdge { return g.obs }

// Aggregated returns class-level DF_C edges, optionally filtered by
// classification dimension.
func (g *Graph) Aggregated(dimension string) []*model.AggregatedEdge {
	if dimension == "" {
		return g.agg
	}
	var out []*model.AggregatedEdge
	for _, e := range g.agg {
		if e.SourceClass.Dimension == dimension {
			out = append(out, e)
		}
	}
	return out
}

// Nodes enumerates the identifiers of all nodes of one kind: event IDs,
// entity IDs or class IDs.
func (g *Graph) Nodes(kind model.NodeKind) []string {
	switch kind {
	case model.NodeEvent:
		out := make([]string, 0, g.store.Len())
		for _, ev := range g.store.All() {
			out = append(out, ev.ID)
		}
		return out
	case model.NodeEntity:
		return append([]string(nil), g.entityOrder...)
	case model.NodeClass:
		return append([]string(nil), g.classOrder...)
	default:
		return nil
	}
}

// EdgeRef is a kind-tagged edge with node identifiers as endpoints.
// Type carries the perspective for DF and DF_C edges; Count is set on
// DF_C edges only.
type EdgeRef struct {
	Kind   model.EdgeKind
	Source string
	Target string
	Type   string
	Count  int64
}

// Edges enumerates all edges of one kind.
func (g *Graph) Edges(kind model.EdgeKind) []EdgeRef {
	switch kind {
	case model.EdgeCorr:
		out := make([]EdgeRef, 0, len(g.corr))
		for _, e := range g.corr {
			out = append(out, EdgeRef{Kind: kind, Source: g.store.Event(e.EventIndex).ID, Target: e.EntityID})
		}
		return out
	case model.EdgeRel:
		out := make([]EdgeRef, 0, len(g.rels))
		for _, e := range g.rels {
			out = append(out, EdgeRef{Kind: kind, Source: e.BaseID, Target: e.ReifiedID})
		}
		return out
	case model.EdgeDF:
		out := make([]EdgeRef, 0, len(g.df))
		for _, e := range g.df {
			out = append(out, EdgeRef{
				Kind:   kind,
				Source: g.store.Event(e.Source).ID,
				Target: g.store.Event(e.Target).ID,
				Type:   e.EntityType,
			})
		}
		return out
	case model.EdgeObserved:
		out := make([]EdgeRef, 0, len(g.obs))
		for _, e := range g.obs {
			out = append(out, EdgeRef{Kind: kind, Source: g.store.Event(e.EventIndex).ID, Target: e.ClassID})
		}
		return out
	case model.EdgeDFC:
		out := make([]EdgeRef, 0, len(g.agg))
		for _, e := range g.agg {
			src, tgt := e.SourceClass, e.TargetClass
			out = append(out, EdgeRef{
				Kind:   kind,
				Source: src.ID(),
				Target: tgt.ID(),
				Type:   e.EntityType,
				Count:  e.Count,
			})
		}
		return out
	default:
		return nil
	}
}

// EntityTypes returns the perspectives of the construction spec: base
// extractor types followed by reified labels.
func (g *Graph) EntityTypes() []string {
	out := make([]string, 0, len(g.spec.Extractors)+len(g.spec.Reifications))
	for _, ex := range g.spec.Extractors {
		out = append(out, ex.Type)
	}
	for _, r := range g.spec.Reifications {
		out = append(out, r.Label)
	}
	return out
}

// Dimensions returns the configured classification dimension names.
func (g *Graph) Dimensions() []string {
	out := make([]string, 0, len(g.spec.Dimensions))
	for _, d := range g.spec.Dimensions {
		out = append(out, d.Name)
	}
	return out
}

// Stats summarizes node and edge counts per kind.
type Stats struct {
	Events       int            `json:"events"`
	SkippedRows  int64          `json:"skipped_rows"`
	Entities     int            `json:"entities"`
	Reified      int            `json:"reified"`
	Classes      int            `json:"classes"`
	Correlations int            `json:"correlations"`
	Rels         int            `json:"rels"`
	DF           int            `json:"df"`
	Observations int            `json:"observations"`
	Aggregated   int            `json:"aggregated"`
	DFByType     map[string]int `json:"df_by_type,omitempty"`
}

// Stats computes summary counts for the graph.
func (g *Graph) Stats() Stats {
	s := Stats{
		Events:       g.store.Len(),
		SkippedRows:  g.store.Skipped(),
		Entities:     len(g.entities),
		Classes:      len(g.classes),
		Correlations: len(g.corr),
		Rels:         len(g.rels),
		DF:           len(g.df),
		Observations: len(g.obs),
		Aggregated:   len(g.agg),
		DFByType:     make(map[string]int),
	}
	for _, e := range g.entities {
		if e.Reified {
			s.Reified++
		}
	}
	for _, e := range g.df {
		s.DFByType[e.EntityType]++
	}
	return s
}
