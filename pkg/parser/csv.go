package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// CSVParser implements byte-level CSV parsing without strings.Split.
type CSVParser struct {
	cfg Config
}

// NewCSVParser creates a new CSV parser.
func NewCSVParser(cfg Config) *CSVParser {
	if cfg.Delimiter == 0 {
		cfg.Delimiter = ','
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64 * 1024
	}
	return &CSVParser{cfg: cfg}
}

// Parse implements the Parser interface.
func (p *CSVParser) Parse(ctx context.Context, r io.Reader, out chan<- *Record) error {
	reader := bufio.NewReaderSize(r, p.cfg.BufferSize)

	headerLine, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return err
	}
	if len(trimLineEnding(headerLine)) == 0 {
		return ErrEmptyInput
	}

	columns := p.parseCSVLine(trimLineEnding(headerLine))
	colMap := make(map[string]int, len(columns))
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = string(col)
		colMap[names[i]] = i
	}

	actIdx, ok := colMap[p.cfg.ActivityColumn]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingColumn, p.cfg.ActivityColumn)
	}
	tsIdx, ok := colMap[p.cfg.TimestampColumn]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingColumn, p.cfg.TimestampColumn)
	}
	idIdx := -1
	if p.cfg.IDColumn != "" {
		if i, ok := colMap[p.cfg.IDColumn]; ok {
			idIdx = i
		}
	}

	// Entity-key columns are optional as a whole; a configured column
	// that is absent from the header just yields no keys of that type.
	entityIdx := make(map[string]int, len(p.cfg.EntityColumns))
	for entityType, col := range p.cfg.EntityColumns {
		if i, ok := colMap[col]; ok {
			entityIdx[entityType] = i
		}
	}
	reserved := make(map[int]bool, len(entityIdx)+3)
	reserved[actIdx] = true
	reserved[tsIdx] = true
	if idIdx >= 0 {
		reserved[idIdx] = true
	}
	for _, i := range entityIdx {
		reserved[i] = true
	}

	var lineNum int64 = 1
	for {
		select {
		case <-ctx.Done():
			return ErrContextCanceled
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if len(line) == 0 && err == io.EOF {
			break
		}
		lineNum++

		line = trimLineEnding(line)
		if len(line) == 0 {
			if err == io.EOF {
				break
			}
			continue
		}

		fields := p.parseCSVLine(line)
		rec := &Record{
			Keys:  make(map[string]string, len(entityIdx)),
			Attrs: make(map[string]string),
			Line:  lineNum,
		}
		if actIdx < len(fields) {
			rec.Activity = string(fields[actIdx])
		}
		if tsIdx < len(fields) {
			rec.Timestamp = string(fields[tsIdx])
		}
		if idIdx >= 0 && idIdx < len(fields) {
			rec.ID = string(fields[idIdx])
		}
		for entityType, i := range entityIdx {
			if i < len(fields) && len(fields[i]) > 0 {
				rec.Keys[entityType] = string(fields[i])
			}
		}
		for i, name := range names {
			if reserved[i] || i >= len(fields) || len(fields[i]) == 0 {
				continue
			}
			rec.Attrs[name] = string(fields[i])
		}

		select {
		case out <- rec:
		case <-ctx.Done():
			return ErrContextCanceled
		}

		if err == io.EOF {
			break
		}
	}

	return nil
}

// parseCSVLine parses a CSV line using byte-level scanning.
// Handles quoted fields with embedded delimiters and quotes.
func (p *CSVParser) parseCSVLine(line []byte) [][]byte {
	if len(line) == 0 {
		return nil
	}

	fields := make([][]byte, 0, 16)
	delim := p.cfg.Delimiter
	start := 0
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]

		if c == '"' {
			if !inQuotes {
				inQuotes = true
			} else if i+1 < len(line) && line[i+1] == '"' {
				i++ // skip escaped quote
			} else {
				inQuotes = false
			}
		} else if c == delim && !inQuotes {
			fields = append(fields, unquoteField(line[start:i]))
			start = i + 1
		}
	}
	fields = append(fields, unquoteField(line[start:]))

	return fields
}

// unquoteField removes surrounding quotes and unescapes embedded quotes.
func unquoteField(field []byte) []byte {
	if len(field) < 2 {
		return field
	}
	if field[0] == '"' && field[len(field)-1] == '"' {
		field = field[1 : len(field)-1]
		result := make([]byte, 0, len(field))
		for i := 0; i < len(field); i++ {
			if field[i] == '"' && i+1 < len(field) && field[i+1] == '"' {
				result = append(result, '"')
				i++
			} else {
				result = append(result, field[i])
			}
		}
		return result
	}
	return field
}

// trimLineEnding removes trailing \n and \r characters.
func trimLineEnding(line []byte) []byte {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}
