package graph

import (
	"context"
	"runtime"
	"strconv"

	"github.com/mepg/mepg/internal/model"
	"github.com/mepg/mepg/pkg/store"
)

// Builder runs the construction stages over a frozen event store:
// correlate -> reify -> directly-follows -> classify -> aggregate.
// The flow is a strict one-pass DAG; every stage is a pure function of
// its predecessors plus the spec, so re-running a builder is a no-op
// (every insert is an idempotent upsert).
type Builder struct {
	store   *store.Store
	spec    Spec
	workers int

	// Entity registry, insertion-ordered for deterministic enumeration.
	entities    map[string]*model.Entity
	entityOrder []string

	// Per-entity correlated events, deduplicated, in ingestion order.
	entityEvents    map[string][]int
	entityEventSeen map[string]map[int]bool

	// Per-event base correlation keys (type -> key), the reifier's input.
	eventBaseKeys []map[string]string

	corr     []model.CorrelationEdge
	corrSeen map[string]bool

	rels    []model.RelEdge
	relSeen map[string]bool

	df     []model.DFEdge
	dfSeen map[string]bool

	classes    map[string]*model.Class
	classOrder []string

	obs      []model.ObservationEdge
	obsSeen  map[string]bool
	obsClass map[string]map[int]string // dimension -> event index -> class key

	agg      map[string]*model.AggregatedEdge
	aggOrder []string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithWorkers bounds the parallelism of the directly-follows and
// aggregation stages. Zero means GOMAXPROCS.
func WithWorkers(n int) BuilderOption {
	return func(b *Builder) { b.workers = n }
}

// NewBuilder creates a builder for the given store and spec.
// The spec is validated up front; the store must already be frozen.
func NewBuilder(st *store.Store, spec Spec, opts ...BuilderOption) (*Builder, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if !st.Frozen() {
		return nil, ErrStoreNotFrozen
	}

	b := &Builder{
		store:           st,
		spec:            spec,
		entities:        make(map[string]*model.Entity),
		entityEvents:    make(map[string][]int),
		entityEventSeen: make(map[string]map[int]bool),
		eventBaseKeys:   make([]map[string]string, st.Len()),
		corrSeen:        make(map[string]bool),
		relSeen:         make(map[string]bool),
		dfSeen:          make(map[string]bool),
		classes:         make(map[string]*model.Class),
		obsSeen:         make(map[string]bool),
		obsClass:        make(map[string]map[int]string),
		agg:             make(map[string]*model.AggregatedEdge),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers <= 0 {
		b.workers = runtime.GOMAXPROCS(0)
	}
	return b, nil
}

// Run executes all stages and returns the frozen graph.
func (b *Builder) Run(ctx context.Context) (*Graph, error) {
	b.correlate()
	b.reify()
	if err := b.buildFollows(ctx); err != nil {
		return nil, err
	}
	b.classify()
	if err := b.aggregate(ctx); err != nil {
		return nil, err
	}
	return b.freeze(), nil
}

// Build is a convenience wrapper: validate, build, freeze.
func Build(ctx context.Context, st *store.Store, spec Spec, opts ...BuilderOption) (*Graph, error) {
	b, err := NewBuilder(st, spec, opts...)
	if err != nil {
		return nil, err
	}
	return b.Run(ctx)
}

// upsertEntity registers an entity instance, get-or-create by (type, key).
func (b *Builder) upsertEntity(entityType, key string, reified bool, partKeys []string) *model.Entity {
	id := model.EntityID(entityType, key)
	if e, ok := b.entities[id]; ok {
		return e
	}
	e := &model.Entity{Type: entityType, Key: key, Reified: reified, PartKeys: partKeys}
	b.entities[id] = e
	b.entityOrder = append(b.entityOrder, id)
	return e
}

// addCorrelation records an Event -> Entity correlation edge, at most
// one per distinct (event, entity) pair, and appends the event to the
// entity's correlated set.
func (b *Builder) addCorrelation(eventIndex int, entityID string, derived bool) {
	edgeKey := entityID + "#" + strconv.Itoa(eventIndex)
	if !b.corrSeen[edgeKey] {
		b.corrSeen[edgeKey] = true
		b.corr = append(b.corr, model.CorrelationEdge{
			EventIndex: eventIndex,
			EntityID:   entityID,
			Derived:    derived,
		})
	}

	seen := b.entityEventSeen[entityID]
	if seen == nil {
		seen = make(map[int]bool)
		b.entityEventSeen[entityID] = seen
	}
	if !seen[eventIndex] {
		seen[eventIndex] = true
		b.entityEvents[entityID] = append(b.entityEvents[entityID], eventIndex)
	}
}

// upsertClass registers a class node, get-or-create by (dimension, key).
func (b *Builder) upsertClass(dimension, key string) *model.Class {
	id := model.EntityID(dimension, key)
	if c, ok := b.classes[id]; ok {
		return c
	}
	c := &model.Class{Dimension: dimension, Key: key}
	b.classes[id] = c
	b.classOrder = append(b.classOrder, id)
	return c
}
