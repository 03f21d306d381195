package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mepg/mepg/pkg/graph"
	"github.com/mepg/mepg/pkg/parser"
	"github.com/mepg/mepg/pkg/store"
)

const loanCSV = "event_id,application_id,offer_id,activity,timestamp\n" +
	"e1,A1,O1,submit,2024-01-15T10:00:00Z\n" +
	"e2,A1,O1,review,2024-01-15T11:00:00Z\n" +
	"e3,A1,O2,decide,2024-01-15T12:00:00Z\n"

func loanConfig() Config {
	return Config{
		SourceFormat: parser.FormatCSV,
		Parser: parser.Config{
			IDColumn:        "event_id",
			ActivityColumn:  "activity",
			TimestampColumn: "timestamp",
			EntityColumns: map[string]string{
				"application": "application_id",
				"offer":       "offer_id",
			},
		},
		Spec: graph.Spec{
			Extractors: []graph.Extractor{
				graph.KeyExtractor("application"),
				graph.KeyExtractor("offer"),
			},
			Reifications: []graph.Reification{
				{Label: "AO", Parts: []string{"application", "offer"}},
			},
			Dimensions: []graph.Dimension{graph.ActivityDimension()},
		},
	}
}

func TestRunEndToEnd(t *testing.T) {
	r := NewRunner(loanConfig())
	res, err := r.RunWithReader(context.Background(), strings.NewReader(loanCSV))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.Ingested != 3 || res.Skipped != 0 {
		t.Errorf("ingested = %d, skipped = %d", res.Ingested, res.Skipped)
	}
	if res.Duration <= 0 {
		t.Error("duration not recorded")
	}

	stats := res.Graph.Stats()
	if stats.Events != 3 {
		t.Errorf("events = %d, want 3", stats.Events)
	}
	// application A1, offers O1 and O2, compounds (A1,O1) and (A1,O2).
	if stats.Entities != 5 || stats.Reified != 2 {
		t.Errorf("entities = %d, reified = %d", stats.Entities, stats.Reified)
	}
	// application 2 + offer 1 + AO 1.
	if stats.DF != 4 {
		t.Errorf("DF edges = %d, want 4", stats.DF)
	}
	if stats.Aggregated == 0 {
		t.Error("no aggregated edges materialized")
	}
}

func TestRunSkipsMalformedRows(t *testing.T) {
	input := "activity,timestamp,application_id\n" +
		"submit,2024-01-15T10:00:00Z,A1\n" +
		",2024-01-15T10:30:00Z,A1\n" +
		"review,garbage,A1\n" +
		"decide,2024-01-15T11:00:00Z,A1\n"

	cfg := loanConfig()
	cfg.Parser.EntityColumns = map[string]string{"application": "application_id"}
	cfg.Spec = graph.Spec{Extractors: []graph.Extractor{graph.KeyExtractor("application")}}

	var skips []store.ErrorRecord
	cfg.OnSkip = func(rec store.ErrorRecord) { skips = append(skips, rec) }

	res, err := NewRunner(cfg).RunWithReader(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Ingested != 2 || res.Skipped != 2 {
		t.Errorf("ingested = %d, skipped = %d", res.Ingested, res.Skipped)
	}
	if len(skips) != 2 {
		t.Errorf("skip callbacks = %d, want 2", len(skips))
	}
	if len(res.Errors) != 2 {
		t.Errorf("error records = %d, want 2", len(res.Errors))
	}
	// The surviving rows still chain under the application perspective.
	if got := len(res.Graph.DF("application")); got != 1 {
		t.Errorf("application DF edges = %d, want 1", got)
	}
}

func TestRunStrictPolicyFails(t *testing.T) {
	input := "activity,timestamp\nsubmit,2024-01-15T10:00:00Z\n,bad\n"

	cfg := loanConfig()
	cfg.Parser.EntityColumns = nil
	cfg.Spec = graph.Spec{Extractors: []graph.Extractor{graph.KeyExtractor("case")}}
	cfg.ErrorPolicy = store.PolicyStrict

	_, err := NewRunner(cfg).RunWithReader(context.Background(), strings.NewReader(input))
	if !errors.Is(err, store.ErrTooManyErrors) {
		t.Fatalf("err = %v, want ErrTooManyErrors", err)
	}
}

func TestRunEmptySource(t *testing.T) {
	cfg := loanConfig()
	_, err := NewRunner(cfg).RunWithReader(context.Background(), strings.NewReader(""))
	if !errors.Is(err, parser.ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
}

func TestRunHeaderOnlySource(t *testing.T) {
	cfg := loanConfig()
	input := "event_id,application_id,offer_id,activity,timestamp\n"
	_, err := NewRunner(cfg).RunWithReader(context.Background(), strings.NewReader(input))
	if !errors.Is(err, store.ErrNoEvents) {
		t.Fatalf("err = %v, want ErrNoEvents", err)
	}
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(loanConfig()).RunWithReader(ctx, strings.NewReader(loanCSV))
	if err == nil {
		t.Fatal("canceled run succeeded")
	}
}

func TestRunUnknownFormat(t *testing.T) {
	cfg := loanConfig()
	cfg.SourceFormat = parser.FormatUnknown
	cfg.SourcePath = "events.xyz"

	_, err := NewRunner(cfg).RunWithReader(context.Background(), strings.NewReader(loanCSV))
	if !errors.Is(err, parser.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestRunJSONLSource(t *testing.T) {
	input := `{"activity":"submit","timestamp":"2024-01-15T10:00:00Z","application_id":"A1"}` + "\n" +
		`{"activity":"decide","timestamp":"2024-01-15T11:00:00Z","application_id":"A1"}` + "\n"

	cfg := loanConfig()
	cfg.SourceFormat = parser.FormatJSONL
	cfg.Parser.EntityColumns = map[string]string{"application": "application_id"}
	cfg.Spec = graph.Spec{
		Extractors: []graph.Extractor{graph.KeyExtractor("application")},
		Dimensions: []graph.Dimension{graph.ActivityDimension()},
	}

	res, err := NewRunner(cfg).RunWithReader(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Ingested != 2 {
		t.Errorf("ingested = %d, want 2", res.Ingested)
	}
	if got := len(res.Graph.DF("application")); got != 1 {
		t.Errorf("application DF edges = %d, want 1", got)
	}
}
