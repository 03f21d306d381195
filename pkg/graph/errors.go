package graph

import "errors"

var (
	// ErrNoExtractors is returned when a spec declares no entity types.
	ErrNoExtractors = errors.New("graph: no entity-type extractors configured")

	// ErrDuplicateType is returned when two extractors declare the same
	// entity type, or a reification label collides with a base type.
	ErrDuplicateType = errors.New("graph: duplicate entity type")

	// ErrUnknownConstituent is returned when a reification names a base
	// type no extractor provides.
	ErrUnknownConstituent = errors.New("graph: reification references unknown entity type")

	// ErrBadArity is returned when a reification has fewer than two
	// constituent types.
	ErrBadArity = errors.New("graph: reification needs at least two constituent types")

	// ErrDuplicateDimension is returned when two classification
	// dimensions share a name.
	ErrDuplicateDimension = errors.New("graph: duplicate classification dimension")

	// ErrStoreNotFrozen is returned when building from a store that is
	// still ingesting.
	ErrStoreNotFrozen = errors.New("graph: event store is not frozen")
)
