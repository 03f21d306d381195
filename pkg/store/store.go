// Package store holds the immutable event set a graph is built from.
// Ingestion validates raw records, skips and counts malformed rows,
// and indexes events by (entity type, correlation key). After Freeze
// the store is read-only and safe to share across goroutines.
package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mepg/mepg/internal/model"
	"github.com/mepg/mepg/internal/timeparse"
	"github.com/mepg/mepg/pkg/parser"
)

// Store is the event store. The zero value is not usable; use New.
type Store struct {
	events  []*model.Event
	byKey   map[string]map[string][]int // entity type -> key -> event indices
	handler *ErrorHandler
	layout  string // optional explicit timestamp layout
	frozen  bool
}

// Option configures a Store.
type Option func(*Store)

// WithErrorPolicy sets the malformed-row policy (default: skip).
func WithErrorPolicy(p ErrorPolicy) Option {
	return func(s *Store) { s.handler = NewErrorHandler(p, 100) }
}

// WithErrorHandler installs a caller-owned error handler.
func WithErrorHandler(h *ErrorHandler) Option {
	return func(s *Store) { s.handler = h }
}

// WithTimestampLayout sets an explicit Go time layout tried before the
// built-in formats.
func WithTimestampLayout(layout string) Option {
	return func(s *Store) { s.layout = layout }
}

// New creates an empty event store.
func New(opts ...Option) *Store {
	s := &Store{
		byKey:   make(map[string]map[string][]int),
		handler: NewErrorHandler(PolicySkip, 100),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Consume ingests records from a channel until it closes or the
// context is canceled. Malformed rows are reported to the error
// handler; under the strict policy the first one aborts ingestion.
func (s *Store) Consume(ctx context.Context, in <-chan *parser.Record) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-in:
			if !ok {
				return nil
			}
			if err := s.Append(rec); err != nil {
				return err
			}
		}
	}
}

// Append validates and ingests one raw record.
func (s *Store) Append(rec *parser.Record) error {
	if s.frozen {
		return ErrFrozen
	}

	if rec.Activity == "" {
		return s.handler.Handle(ErrorRecord{
			Line:      rec.Line,
			ErrorType: ErrorTypeMissingActivity,
			Message:   "activity label is empty",
		})
	}
	if rec.Timestamp == "" {
		return s.handler.Handle(ErrorRecord{
			Line:      rec.Line,
			ErrorType: ErrorTypeMissingTimestamp,
			Message:   "timestamp is empty",
		})
	}
	ns, err := timeparse.NanosLayout(rec.Timestamp, s.layout)
	if err != nil {
		return s.handler.Handle(ErrorRecord{
			Line:      rec.Line,
			ErrorType: ErrorTypeInvalidTimestamp,
			Message:   fmt.Sprintf("unparsable timestamp %q", rec.Timestamp),
		})
	}

	idx := len(s.events)
	ev := &model.Event{
		ID:        rec.ID,
		Index:     idx,
		Timestamp: ns,
		Activity:  rec.Activity,
	}
	if ev.ID == "" {
		ev.ID = "e" + strconv.Itoa(idx)
	}
	if len(rec.Keys) > 0 {
		ev.Keys = make(map[string]string, len(rec.Keys))
		for t, k := range rec.Keys {
			ev.Keys[t] = k
		}
	}
	if len(rec.Attrs) > 0 {
		ev.Attrs = make(map[string]string, len(rec.Attrs))
		for k, v := range rec.Attrs {
			ev.Attrs[k] = v
		}
	}

	s.events = append(s.events, ev)
	for entityType, key := range ev.Keys {
		keys := s.byKey[entityType]
		if keys == nil {
			keys = make(map[string][]int)
			s.byKey[entityType] = keys
		}
		keys[key] = append(keys[key], idx)
	}
	return nil
}

// Freeze completes ingestion. It fails with ErrNoEvents when nothing
// usable was ingested; that is the only fatal ingestion condition.
func (s *Store) Freeze() error {
	if len(s.events) == 0 {
		return ErrNoEvents
	}
	s.frozen = true
	return nil
}

// Frozen reports whether ingestion has completed.
func (s *Store) Frozen() bool { return s.frozen }

// Len returns the number of ingested events.
func (s *Store) Len() int { return len(s.events) }

// Skipped returns the number of malformed rows skipped.
func (s *Store) Skipped() int64 { return s.handler.Skipped() }

// Errors returns the retained sample of malformed-row reports.
func (s *Store) Errors() []ErrorRecord { return s.handler.Errors() }

// All returns all events in ingestion order. The slice is shared;
// callers must not mutate it.
func (s *Store) All() []*model.Event { return s.events }

// Event returns the event at the given ingestion index.
func (s *Store) Event(index int) *model.Event { return s.events[index] }

// EventsOf returns the events referencing key under the given entity
// type, in ingestion order.
func (s *Store) EventsOf(entityType, key string) []*model.Event {
	indices := s.byKey[entityType][key]
	if len(indices) == 0 {
		return nil
	}
	out := make([]*model.Event, len(indices))
	for i, idx := range indices {
		out[i] = s.events[idx]
	}
	return out
}
