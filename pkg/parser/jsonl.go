package parser

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// JSONLParser implements streaming newline-delimited JSON parsing.
// Each line is a complete JSON object representing one event; fields
// are addressed by the same column names as the CSV parser.
type JSONLParser struct {
	cfg Config
}

// NewJSONLParser creates a new JSONL parser.
func NewJSONLParser(cfg Config) *JSONLParser {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64 * 1024
	}
	return &JSONLParser{cfg: cfg}
}

// Parse implements the Parser interface for JSONL input.
func (p *JSONLParser) Parse(ctx context.Context, r io.Reader, out chan<- *Record) error {
	reader := bufio.NewReaderSize(r, p.cfg.BufferSize)

	var lineNum int64
	sawObject := false
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

		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] != '{' {
			if err == io.EOF {
				break
			}
			continue
		}

		var obj map[string]any
		if jsonErr := json.Unmarshal(line, &obj); jsonErr != nil {
			// Malformed JSON is a malformed row: surface it as a record
			// with no activity/timestamp so the store counts the skip.
			obj = nil
		}
		sawObject = true

		rec := &Record{
			Keys:  make(map[string]string, len(p.cfg.EntityColumns)),
			Attrs: make(map[string]string),
			Line:  lineNum,
		}
		if obj != nil {
			rec.Activity = stringField(obj, p.cfg.ActivityColumn)
			rec.Timestamp = stringField(obj, p.cfg.TimestampColumn)
			rec.ID = stringField(obj, p.cfg.IDColumn)
			for entityType, field := range p.cfg.EntityColumns {
				if v := stringField(obj, field); v != "" {
					rec.Keys[entityType] = v
				}
			}
			for k, v := range obj {
				if k == p.cfg.ActivityColumn || k == p.cfg.TimestampColumn || k == p.cfg.IDColumn {
					continue
				}
				if entityColumnType(p.cfg, k) != "" {
					continue
				}
				if s := anyToString(v); s != "" {
					rec.Attrs[k] = s
				}
			}
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

	if !sawObject {
		return ErrEmptyInput
	}
	return nil
}

// entityColumnType returns the entity type whose configured column is
// name, or "" if name is not an entity column.
func entityColumnType(cfg Config, name string) string {
	for entityType, col := range cfg.EntityColumns {
		if col == name {
			return entityType
		}
	}
	return ""
}

// stringField extracts a field by name as a string.
func stringField(obj map[string]any, name string) string {
	if name == "" {
		return ""
	}
	v, ok := obj[name]
	if !ok {
		return ""
	}
	return anyToString(v)
}

// anyToString renders a JSON scalar as a string. Objects and arrays
// yield "" and are dropped.
func anyToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
