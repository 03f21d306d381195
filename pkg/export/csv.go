package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/mepg/mepg/pkg/graph"
)

// WriteNodesCSV writes the node list as CSV: id,kind,type,key.
func WriteNodesCSV(w io.Writer, g *graph.Graph) error {
	if _, err := io.WriteString(w, "id,kind,type,key\n"); err != nil {
		return err
	}
	doc := BuildDocument(g)
	for _, n := range doc.Nodes {
		nodeType, _ := n.Metadata["type"].(string)
		if nodeType == "" {
			nodeType, _ = n.Metadata["dimension"].(string)
		}
		key, _ := n.Metadata["key"].(string)
		if n.Kind == "Event" {
			key, _ = n.Metadata["activity"].(string)
		}
		row := fmt.Sprintf("%s,%s,%s,%s\n",
			csvField(n.ID), csvField(n.Kind), csvField(nodeType), csvField(key))
		if _, err := io.WriteString(w, row); err != nil {
			return err
		}
	}
	return nil
}

// WriteEdgesCSV writes the edge list as CSV:
// source,target,kind,entity_type,count.
func WriteEdgesCSV(w io.Writer, g *graph.Graph) error {
	if _, err := io.WriteString(w, "source,target,kind,entity_type,count\n"); err != nil {
		return err
	}
	doc := BuildDocument(g)
	for _, e := range doc.Edges {
		count := ""
		if e.Kind == "DF_C" {
			count = itoa(e.Count)
		}
		row := fmt.Sprintf("%s,%s,%s,%s,%s\n",
			csvField(e.Source), csvField(e.Target), csvField(e.Kind), csvField(e.Type), count)
		if _, err := io.WriteString(w, row); err != nil {
			return err
		}
	}
	return nil
}

// csvField quotes a value when it contains a delimiter, quote or newline.
func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
