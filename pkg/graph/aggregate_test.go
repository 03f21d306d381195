package graph

import (
	"context"
	"strconv"
	"testing"

	"github.com/mepg/mepg/pkg/parser"
)

func TestAggregatedCounts(t *testing.T) {
	g, err := Build(context.Background(), loanStore(t), loanSpec())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	type pair struct{ src, tgt, typ string }
	got := make(map[pair]int64)
	for _, e := range g.Aggregated("activity") {
		got[pair{e.SourceClass.Key, e.TargetClass.Key, e.EntityType}] = e.Count
	}

	want := map[pair]int64{
		{"submit", "submit", "application"}: 1,
		{"submit", "decide", "application"}: 1,
		{"submit", "submit", "offer"}:       1,
		{"submit", "submit", "AO"}:          1,
	}
	if len(got) != len(want) {
		t.Fatalf("DF_C edges = %d, want %d (%v)", len(got), len(want), got)
	}
	for p, count := range want {
		if got[p] != count {
			t.Errorf("DF_C %s->%s [%s] = %d, want %d", p.src, p.tgt, p.typ, got[p], count)
		}
	}
}

func TestAggregatedSumMatchesEventLevelEdges(t *testing.T) {
	records := make([]*parser.Record, 0, 200)
	activities := []string{"create", "review", "approve", "close"}
	for i := 0; i < 200; i++ {
		records = append(records, rec("", activities[i%len(activities)], strconv.Itoa(1700000000+i), map[string]string{
			"case":     "C" + string(rune('A'+i%11)),
			"resource": "R" + string(rune('A'+i%3)),
		}))
	}
	spec := Spec{
		Extractors: []Extractor{KeyExtractor("case"), KeyExtractor("resource")},
		Dimensions: []Dimension{ActivityDimension()},
	}

	g, err := Build(context.Background(), testStore(t, records), spec)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// Every event is classified under the activity dimension, so the
	// total aggregated count equals the number of event-level edges.
	var sum int64
	for _, e := range g.Aggregated("activity") {
		sum += e.Count
		if e.Count <= 0 {
			t.Errorf("zero-count DF_C edge %v -> %v materialized", e.SourceClass, e.TargetClass)
		}
	}
	if int(sum) != len(g.DF("")) {
		t.Errorf("aggregated sum = %d, want %d event-level edges", sum, len(g.DF("")))
	}
}

func TestAggregationSkipsUnclassifiedEndpoints(t *testing.T) {
	// The "priority" attribute is absent on E2, so no attribute-class
	// edge may touch it; the case chain still covers all three events.
	st := testStore(t, []*parser.Record{
		{Activity: "a", Timestamp: "1", Keys: map[string]string{"case": "C"}, Attrs: map[string]string{"priority": "high"}},
		{Activity: "b", Timestamp: "2", Keys: map[string]string{"case": "C"}},
		{Activity: "c", Timestamp: "3", Keys: map[string]string{"case": "C"}, Attrs: map[string]string{"priority": "low"}},
	})
	spec := Spec{
		Extractors: []Extractor{KeyExtractor("case")},
		Dimensions: []Dimension{AttrDimension("priority", "priority")},
	}

	g, err := Build(context.Background(), st, spec)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if got := len(g.DF("case")); got != 2 {
		t.Fatalf("case DF edges = %d, want 2", got)
	}
	// Both DF edges have an unclassified endpoint (E2).
	if got := len(g.Aggregated("priority")); got != 0 {
		t.Errorf("priority DF_C edges = %d, want 0", got)
	}
	if got := len(g.Observations()); got != 2 {
		t.Errorf("observation edges = %d, want 2", got)
	}
}

func TestEntityKeyDimension(t *testing.T) {
	st := testStore(t, []*parser.Record{
		rec("", "a", "1", map[string]string{"case": "C1", "resource": "bob"}),
		rec("", "b", "2", map[string]string{"case": "C1", "resource": "ann"}),
		rec("", "c", "3", map[string]string{"case": "C1", "resource": "bob"}),
	})
	spec := Spec{
		Extractors: []Extractor{KeyExtractor("case"), KeyExtractor("resource")},
		Dimensions: []Dimension{EntityKeyDimension("resource", "resource")},
	}

	g, err := Build(context.Background(), st, spec)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if got := len(g.Classes("resource")); got != 2 {
		t.Fatalf("resource classes = %d, want 2", got)
	}

	// Case chain a->b->c viewed through resource classes:
	// bob->ann and ann->bob once each.
	type pair struct{ src, tgt string }
	got := make(map[pair]int64)
	for _, e := range g.Aggregated("resource") {
		if e.EntityType != "case" {
			continue
		}
		got[pair{e.SourceClass.Key, e.TargetClass.Key}] = e.Count
	}
	want := map[pair]int64{
		{"bob", "ann"}: 1,
		{"ann", "bob"}: 1,
	}
	for p, count := range want {
		if got[p] != count {
			t.Errorf("resource DF_C %s->%s = %d, want %d", p.src, p.tgt, got[p], count)
		}
	}
}
