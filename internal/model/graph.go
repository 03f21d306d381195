package model

import "strings"

// keySep separates tuple components inside composite identifiers.
// Unit separator; never appears in correlation values from sane logs.
const keySep = "\x1f"

// NodeKind enumerates the node kinds of the graph.
type NodeKind uint8

const (
	NodeEvent NodeKind = iota
	NodeEntity
	NodeClass
)

// String returns the node kind label.
func (k NodeKind) String() string {
	switch k {
	case NodeEvent:
		return "Event"
	case NodeEntity:
		return "Entity"
	case NodeClass:
		return "Class"
	default:
		return "unknown"
	}
}

// EdgeKind enumerates the edge kinds of the graph.
type EdgeKind uint8

const (
	EdgeCorr EdgeKind = iota // Event -> Entity
	EdgeRel                  // base Entity -> reified Entity
	EdgeDF                   // Event -> Event, per entity type
	EdgeObserved             // Event -> Class
	EdgeDFC                  // Class -> Class, per entity type, counted
)

// String returns the edge kind label.
func (k EdgeKind) String() string {
	switch k {
	case EdgeCorr:
		return "CORR"
	case EdgeRel:
		return "REL"
	case EdgeDF:
		return "DF"
	case EdgeObserved:
		return "OBSERVED"
	case EdgeDFC:
		return "DF_C"
	default:
		return "unknown"
	}
}

// Entity is a process entity instance, identified by (Type, Key).
// A reified entity represents the co-occurrence of two or more base
// entities on the same event; its key is the ordered tuple of the
// constituent keys and PartKeys holds that tuple.
type Entity struct {
	Type     string
	Key      string
	Reified  bool
	PartKeys []string
}

// ID returns the composite identifier of the entity.
func (e *Entity) ID() string {
	return e.Type + keySep + e.Key
}

// EntityID builds the composite identifier for (entityType, key).
func EntityID(entityType, key string) string {
	return entityType + keySep + key
}

// CompositeKey builds the natural key of a reified entity from the
// ordered tuple of its constituent keys.
func CompositeKey(parts []string) string {
	return strings.Join(parts, keySep)
}

// Class is a classification node, identified by (Dimension, Key),
// e.g. (activity, "A_SUBMITTED") or (resource, "R123").
type Class struct {
	Dimension string
	Key       string
}

// ID returns the composite identifier of the class.
func (c *Class) ID() string {
	return c.Dimension + keySep + c.Key
}

// CorrelationEdge links an event to an entity it references.
// Derived is true when the correlation points at a reified entity.
type CorrelationEdge struct {
	EventIndex int
	EntityID   string
	Derived    bool
}

// RelEdge links a base entity to a reified entity it is part of.
type RelEdge struct {
	BaseID    string
	ReifiedID string
}

// DFEdge is a directly-follows edge between two consecutive events of
// one entity instance, tagged with the entity's type as perspective.
type DFEdge struct {
	Source     int // ingestion index of the earlier event
	Target     int // ingestion index of the later event
	EntityType string
	EntityID   string
}

// ObservationEdge links an event to the class it falls into under one
// classification dimension.
type ObservationEdge struct {
	EventIndex int
	ClassID    string
	Dimension  string
}

// AggregatedEdge is a class-level directly-follows edge (DF_C) with an
// occurrence count, per (dimension, perspective type).
type AggregatedEdge struct {
	SourceClass Class
	TargetClass Class
	EntityType  string
	Count       int64
}
