package parser

import (
	"bufio"
	"io"
	"strings"
)

// EntityColumnHint describes a header column that likely holds an
// entity correlation key.
type EntityColumnHint struct {
	Column     string
	EntityType string // inferred type, e.g. "offer" from "offer_id"
}

// IdentifyEntityColumns scans header names for common entity-reference
// patterns ("offer_id", "org:resource", "case:concept:name") and
// returns hints about which columns likely carry correlation keys.
// Columns named "event_id" are excluded as plain event identifiers.
func IdentifyEntityColumns(headers []string) []EntityColumnHint {
	var hints []EntityColumnHint
	for _, h := range headers {
		name := strings.ToLower(h)
		switch {
		case name == "case:concept:name":
			hints = append(hints, EntityColumnHint{Column: h, EntityType: "case"})
		case name == "org:resource":
			hints = append(hints, EntityColumnHint{Column: h, EntityType: "resource"})
		case strings.HasSuffix(name, "_id"):
			entityType := strings.TrimSuffix(name, "_id")
			if entityType != "" && entityType != "event" {
				hints = append(hints, EntityColumnHint{Column: h, EntityType: entityType})
			}
		}
	}
	return hints
}

// ReadCSVHeader reads and splits the first line of a CSV input. It is
// meant for inspection, not ingestion.
func ReadCSVHeader(r io.Reader, delimiter byte) ([]string, error) {
	br := bufio.NewReader(r)
	line, err := br.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	line = trimLineEnding(line)
	if len(line) == 0 {
		return nil, ErrEmptyInput
	}
	p := NewCSVParser(Config{Delimiter: delimiter})
	fields := p.parseCSVLine(line)
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = string(f)
	}
	return headers, nil
}
