// Package parser provides streaming readers for event logs (CSV, JSONL)
// that emit raw records for the event store to validate and ingest.
package parser

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

// Record is one raw row of the source log. Fields are unvalidated
// strings; the store parses timestamps and decides what is malformed.
type Record struct {
	// ID is the source event identifier, empty if the log has none.
	ID string

	// Activity is the raw activity label.
	Activity string

	// Timestamp is the raw timestamp text.
	Timestamp string

	// Keys maps an entity-type name to the raw correlation value found
	// in that type's configured column. Empty values are omitted.
	Keys map[string]string

	// Attrs holds the remaining columns.
	Attrs map[string]string

	// Line is the 1-based source line number, for error reporting.
	Line int64
}

// Parser reads a source log and sends raw records to out.
// Implementations must respect context cancellation and must not close
// the out channel; the caller owns it.
type Parser interface {
	Parse(ctx context.Context, r io.Reader, out chan<- *Record) error
}

// Format represents a supported input format.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatJSONL
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSONL:
		return "jsonl"
	default:
		return "unknown"
	}
}

// ParseFormat parses a format string.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "csv":
		return FormatCSV
	case "jsonl", "ndjson", "json":
		return FormatJSONL
	default:
		return FormatUnknown
	}
}

// DetectFormat guesses the format from a file path extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL
	default:
		return FormatUnknown
	}
}

// Config holds common parser configuration.
type Config struct {
	// IDColumn is the column holding the event identifier (optional).
	IDColumn string

	// ActivityColumn is the column holding the activity label.
	ActivityColumn string

	// TimestampColumn is the column holding the timestamp.
	TimestampColumn string

	// EntityColumns maps an entity-type name to the column holding that
	// type's correlation key (e.g. "application" -> "case:concept:name").
	EntityColumns map[string]string

	// Delimiter is the field delimiter for CSV (default: comma).
	Delimiter byte

	// BufferSize is the size of the read buffer in bytes.
	BufferSize int
}

// DefaultConfig returns a Config with sensible defaults for XES-style
// CSV exports.
func DefaultConfig() Config {
	return Config{
		IDColumn:        "event_id",
		ActivityColumn:  "concept:name",
		TimestampColumn: "time:timestamp",
		EntityColumns: map[string]string{
			"case":     "case:concept:name",
			"resource": "org:resource",
		},
		Delimiter:  ',',
		BufferSize: 64 * 1024,
	}
}

// NewParser creates a parser for the given format.
func NewParser(format Format, cfg Config) (Parser, error) {
	switch format {
	case FormatCSV:
		return NewCSVParser(cfg), nil
	case FormatJSONL:
		return NewJSONLParser(cfg), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}
