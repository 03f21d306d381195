// Package export serializes a constructed graph as node/edge lists for
// downstream tooling: JSON, CSV and XLSX.
package export

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mepg/mepg/internal/model"
	"github.com/mepg/mepg/pkg/graph"
)

// Node is one exported graph node.
type Node struct {
	ID       string         `json:"id"`
	Kind     string         `json:"kind"` // Event | Entity | Class
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Edge is one exported graph edge.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"`                  // CORR | REL | DF | OBSERVED | DF_C
	Type   string `json:"entity_type,omitempty"` // perspective, for DF and DF_C
	Count  int64  `json:"count,omitempty"`       // DF_C only
}

// Document is the full JSON export: nodes, edges and summary stats.
type Document struct {
	RunID string      `json:"run_id"`
	Nodes []Node      `json:"nodes"`
	Edges []Edge      `json:"edges"`
	Stats graph.Stats `json:"stats"`
}

// eventNodeID renders the exported identifier of an event.
func eventNodeID(g *graph.Graph, index int) string {
	return "event:" + g.Event(index).ID
}

// BuildDocument flattens a graph into an export document.
func BuildDocument(g *graph.Graph) *Document {
	doc := &Document{RunID: g.RunID, Stats: g.Stats()}

	for _, ev := range g.Events() {
		md := map[string]any{
			"activity":  ev.Activity,
			"timestamp": time.Unix(0, ev.Timestamp).UTC().Format(time.RFC3339Nano),
		}
		for t, k := range ev.Keys {
			md[t] = k
		}
		doc.Nodes = append(doc.Nodes, Node{
			ID:       "event:" + ev.ID,
			Kind:     model.NodeEvent.String(),
			Metadata: md,
		})
	}

	for _, e := range g.Entities("") {
		md := map[string]any{"type": e.Type, "key": strings.ReplaceAll(e.Key, "\x1f", "|")}
		if e.Reified {
			md["reified"] = true
			md["parts"] = e.PartKeys
		}
		doc.Nodes = append(doc.Nodes, Node{
			ID:       entityNodeID(e.Type, e.Key),
			Kind:     model.NodeEntity.String(),
			Metadata: md,
		})
	}

	for _, c := range g.Classes("") {
		doc.Nodes = append(doc.Nodes, Node{
			ID:   classNodeID(c.Dimension, c.Key),
			Kind: model.NodeClass.String(),
			Metadata: map[string]any{
				"dimension": c.Dimension,
				"key":       c.Key,
			},
		})
	}

	for _, e := range g.Correlations() {
		entity := entityByID(e.EntityID)
		doc.Edges = append(doc.Edges, Edge{
			Source: eventNodeID(g, e.EventIndex),
			Target: entityNodeID(entity.Type, entity.Key),
			Kind:   model.EdgeCorr.String(),
		})
	}

	for _, e := range g.Rels() {
		base := entityByID(e.BaseID)
		reified := entityByID(e.ReifiedID)
		doc.Edges = append(doc.Edges, Edge{
			Source: entityNodeID(base.Type, base.Key),
			Target: entityNodeID(reified.Type, reified.Key),
			Kind:   model.EdgeRel.String(),
			Type:   "Reified",
		})
	}

	for _, e := range g.DF("") {
		doc.Edges = append(doc.Edges, Edge{
			Source: eventNodeID(g, e.Source),
			Target: eventNodeID(g, e.Target),
			Kind:   model.EdgeDF.String(),
			Type:   e.EntityType,
		})
	}

	for _, e := range g.Observations() {
		class := classByID(e.ClassID)
		doc.Edges = append(doc.Edges, Edge{
			Source: eventNodeID(g, e.EventIndex),
			Target: classNodeID(class.Dimension, class.Key),
			Kind:   model.EdgeObserved.String(),
		})
	}

	for _, e := range g.Aggregated("") {
		doc.Edges = append(doc.Edges, Edge{
			Source: classNodeID(e.SourceClass.Dimension, e.SourceClass.Key),
			Target: classNodeID(e.TargetClass.Dimension, e.TargetClass.Key),
			Kind:   model.EdgeDFC.String(),
			Type:   e.EntityType,
			Count:  e.Count,
		})
	}

	return doc
}

// WriteJSON serializes the graph to w as a JSON document.
func WriteJSON(w io.Writer, g *graph.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDocument(g))
}

func entityNodeID(entityType, key string) string {
	// Composite keys of reified entities use the unit separator
	// internally; render it as a pipe in exported identifiers.
	return "entity:" + entityType + ":" + strings.ReplaceAll(key, "\x1f", "|")
}

func classNodeID(dimension, key string) string {
	return "class:" + dimension + ":" + key
}

// entityByID splits a "type<US>key" identifier at the first separator;
// composite keys keep their remaining separators intact.
func entityByID(id string) *entityRef {
	if i := strings.IndexByte(id, '\x1f'); i >= 0 {
		return &entityRef{Type: id[:i], Key: id[i+1:]}
	}
	return &entityRef{Key: id}
}

func classByID(id string) *classRef {
	if i := strings.IndexByte(id, '\x1f'); i >= 0 {
		return &classRef{Dimension: id[:i], Key: id[i+1:]}
	}
	return &classRef{Key: id}
}

type entityRef struct {
	Type string
	Key  string
}

type classRef struct {
	Dimension string
	Key       string
}

// itoa is a tiny alias used by the tabular writers.
func itoa(v int64) string { return strconv.FormatInt(v, 10) }
