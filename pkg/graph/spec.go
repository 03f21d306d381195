// Package graph builds a multi-perspective process graph from an event
// store: entities correlated to events, reified entity combinations,
// per-entity directly-follows chains, event classes, and class-level
// aggregated directly-follows edges with counts.
package graph

import (
	"fmt"

	"github.com/mepg/mepg/internal/model"
)

// ExtractFunc derives an entity key from an event. It returns false
// when the event carries no key for that entity type; such events are
// simply excluded from the perspective.
type ExtractFunc func(e *model.Event) (string, bool)

// Extractor binds an entity-type name to its key extraction function.
type Extractor struct {
	Type    string
	Extract ExtractFunc
}

// KeyExtractor returns an extractor reading the event's correlation
// key recorded under entityType at ingestion time.
func KeyExtractor(entityType string) Extractor {
	return Extractor{
		Type: entityType,
		Extract: func(e *model.Event) (string, bool) {
			return e.Key(entityType)
		},
	}
}

// Reification declares a compound entity type derived from the ordered
// tuple of base entity types in Parts, all of which must be correlated
// to the same event for the compound to materialize. Arity is free;
// pairs are simply the two-element case.
type Reification struct {
	Label string
	Parts []string
}

// ClassifyFunc maps an event to a class key under one dimension. It
// returns false when the event has no class in that dimension.
type ClassifyFunc func(e *model.Event) (string, bool)

// Dimension binds a classification-dimension name to its classifier.
// Dimensions are independent; an event may be classified under several
// at once.
type Dimension struct {
	Name     string
	Classify ClassifyFunc
}

// ActivityDimension classifies events by activity label.
func ActivityDimension() Dimension {
	return Dimension{
		Name: "activity",
		Classify: func(e *model.Event) (string, bool) {
			return e.Activity, e.Activity != ""
		},
	}
}

// EntityKeyDimension classifies events by the correlation key they
// carry for entityType (e.g. classifying by resource).
func EntityKeyDimension(name, entityType string) Dimension {
	return Dimension{
		Name: name,
		Classify: func(e *model.Event) (string, bool) {
			return e.Key(entityType)
		},
	}
}

// AttrDimension classifies events by an extra attribute column.
func AttrDimension(name, attr string) Dimension {
	return Dimension{
		Name: name,
		Classify: func(e *model.Event) (string, bool) {
			v, ok := e.Attrs[attr]
			return v, ok && v != ""
		},
	}
}

// Spec is the configuration of one construction run: which entity
// types to correlate, which combinations to reify, and which
// dimensions to classify under.
type Spec struct {
	Extractors   []Extractor
	Reifications []Reification
	Dimensions   []Dimension
}

// Validate checks the spec at configuration time, so entity and class
// kinds form a closed set before any event is touched.
func (s Spec) Validate() error {
	if len(s.Extractors) == 0 {
		return ErrNoExtractors
	}

	types := make(map[string]bool, len(s.Extractors))
	for _, ex := range s.Extractors {
		if ex.Type == "" || ex.Extract == nil {
			return fmt.Errorf("%w: empty extractor", ErrNoExtractors)
		}
		if types[ex.Type] {
			return fmt.Errorf("%w: %q", ErrDuplicateType, ex.Type)
		}
		types[ex.Type] = true
	}

	labels := make(map[string]bool, len(s.Reifications))
	for _, r := range s.Reifications {
		if len(r.Parts) < 2 {
			return fmt.Errorf("%w: %q has %d", ErrBadArity, r.Label, len(r.Parts))
		}
		if r.Label == "" || types[r.Label] || labels[r.Label] {
			return fmt.Errorf("%w: %q", ErrDuplicateType, r.Label)
		}
		labels[r.Label] = true
		for _, p := range r.Parts {
			if !types[p] {
				return fmt.Errorf("%w: %q in %q", ErrUnknownConstituent, p, r.Label)
			}
		}
	}

	dims := make(map[string]bool, len(s.Dimensions))
	for _, d := range s.Dimensions {
		if d.Name == "" || d.Classify == nil || dims[d.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateDimension, d.Name)
		}
		dims[d.Name] = true
	}

	return nil
}
