// Package model defines the core data structures of the multi-entity
// process graph: events, entities, classes and the edges between them.
package model

// Event represents a single event from the source log.
// Events are immutable once ingestion completes.
// Timestamps are stored as int64 nanoseconds since Unix epoch.
type Event struct {
	// ID identifies the event. If the source log carries no identifier
	// the store synthesizes one from the ingestion index.
	ID string

	// Index is the 0-based ingestion order, assigned by the store.
	// It breaks timestamp ties so event ordering is total and stable.
	Index int

	// Timestamp in nanoseconds since Unix epoch.
	Timestamp int64

	// Activity is the event name/activity label.
	Activity string

	// Keys maps an entity-type name to the correlation key the event
	// carries for that type (case id, offer id, resource id, ...).
	// A type with no value on this event is simply absent from the map.
	Keys map[string]string

	// Attrs holds additional source columns as key-value pairs.
	Attrs map[string]string
}

// Key returns the correlation key of the event for the given entity type
// and whether the event carries one.
func (e *Event) Key(entityType string) (string, bool) {
	v, ok := e.Keys[entityType]
	return v, ok
}
