package store

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNoEvents is returned when ingestion finished with zero usable events.
var ErrNoEvents = errors.New("store: no events ingested")

// ErrFrozen is returned when ingesting into a frozen store.
var ErrFrozen = errors.New("store: ingestion already completed")

// ErrTooManyErrors is returned under the strict policy.
var ErrTooManyErrors = errors.New("store: error limit exceeded")

// ErrorPolicy determines how malformed rows are handled.
type ErrorPolicy int

const (
	// PolicySkip skips malformed rows and continues (default).
	PolicySkip ErrorPolicy = iota
	// PolicyStrict aborts ingestion on the first malformed row.
	PolicyStrict
)

func (p ErrorPolicy) String() string {
	switch p {
	case PolicySkip:
		return "skip"
	case PolicyStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// ParseErrorPolicy parses a string into an ErrorPolicy.
func ParseErrorPolicy(s string) ErrorPolicy {
	if s == "strict" {
		return PolicyStrict
	}
	return PolicySkip
}

// ErrorType categorizes malformed rows.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeMissingActivity
	ErrorTypeMissingTimestamp
	ErrorTypeInvalidTimestamp
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeMissingActivity:
		return "missing_activity"
	case ErrorTypeMissingTimestamp:
		return "missing_timestamp"
	case ErrorTypeInvalidTimestamp:
		return "invalid_timestamp"
	default:
		return "unknown"
	}
}

// ErrorRecord describes one skipped row.
type ErrorRecord struct {
	// Line is the 1-based source line number.
	Line int64
	// ErrorType categorizes the error.
	ErrorType ErrorType
	// Message describes the error.
	Message string
	// Timestamp is when the error was recorded.
	Timestamp time.Time
}

// ErrorHandler collects malformed-row reports during ingestion.
// Rows are skipped and counted, never silently coerced.
type ErrorHandler struct {
	mu sync.Mutex

	policy    ErrorPolicy
	skipped   int64
	errors    []ErrorRecord
	maxStored int

	// OnSkip, if set, is called for every skipped row.
	OnSkip func(rec ErrorRecord)
}

// NewErrorHandler creates a handler with the given policy that retains
// at most maxStored error records (0 means a default of 100).
func NewErrorHandler(policy ErrorPolicy, maxStored int) *ErrorHandler {
	if maxStored <= 0 {
		maxStored = 100
	}
	return &ErrorHandler{policy: policy, maxStored: maxStored}
}

// Handle records a malformed row. Under the strict policy it returns a
// terminal error; under skip it returns nil and the row is dropped.
func (h *ErrorHandler) Handle(rec ErrorRecord) error {
	rec.Timestamp = time.Now()

	h.mu.Lock()
	h.skipped++
	if len(h.errors) < h.maxStored {
		h.errors = append(h.errors, rec)
	}
	onSkip := h.OnSkip
	h.mu.Unlock()

	if onSkip != nil {
		onSkip(rec)
	}

	if h.policy == PolicyStrict {
		return fmt.Errorf("%w: line %d: %s (%s)", ErrTooManyErrors, rec.Line, rec.Message, rec.ErrorType)
	}
	return nil
}

// Skipped returns the number of rows skipped so far.
func (h *ErrorHandler) Skipped() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.skipped
}

// Errors returns the retained sample of error records.
func (h *ErrorHandler) Errors() []ErrorRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ErrorRecord, len(h.errors))
	copy(out, h.errors)
	return out
}
