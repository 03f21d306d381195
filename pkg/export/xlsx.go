package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/mepg/mepg/pkg/graph"
)

// WriteXLSX writes the graph as a workbook with one sheet per kind:
// Events, Entities, Classes, Edges, DF_C.
func WriteXLSX(path string, g *graph.Graph) error {
	f := excelize.NewFile()
	defer f.Close()

	doc := BuildDocument(g)

	if err := writeNodeSheet(f, "Events", doc, "Event"); err != nil {
		return err
	}
	if err := writeNodeSheet(f, "Entities", doc, "Entity"); err != nil {
		return err
	}
	if err := writeNodeSheet(f, "Classes", doc, "Class"); err != nil {
		return err
	}
	if err := writeEdgeSheet(f, "Edges", doc, false); err != nil {
		return err
	}
	if err := writeEdgeSheet(f, "DF_C", doc, true); err != nil {
		return err
	}

	// Drop the default sheet left over from NewFile.
	f.DeleteSheet("Sheet1")

	return f.SaveAs(path)
}

func writeNodeSheet(f *excelize.File, sheet string, doc *Document, kind string) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &[]any{"id", "kind", "metadata"}); err != nil {
		return err
	}
	row := 2
	for _, n := range doc.Nodes {
		if n.Kind != kind {
			continue
		}
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetSheetRow(sheet, cell, &[]any{n.ID, n.Kind, metadataString(n)}); err != nil {
			return err
		}
		row++
	}
	return nil
}

func writeEdgeSheet(f *excelize.File, sheet string, doc *Document, aggregated bool) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &[]any{"source", "target", "kind", "entity_type", "count"}); err != nil {
		return err
	}
	row := 2
	for _, e := range doc.Edges {
		if aggregated != (e.Kind == "DF_C") {
			continue
		}
		cell := fmt.Sprintf("A%d", row)
		values := []any{e.Source, e.Target, e.Kind, e.Type, e.Count}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		row++
	}
	return nil
}

func metadataString(n Node) string {
	switch n.Kind {
	case "Event":
		act, _ := n.Metadata["activity"].(string)
		ts, _ := n.Metadata["timestamp"].(string)
		return fmt.Sprintf("%s @ %s", act, ts)
	case "Entity":
		t, _ := n.Metadata["type"].(string)
		k, _ := n.Metadata["key"].(string)
		return fmt.Sprintf("%s=%s", t, k)
	case "Class":
		d, _ := n.Metadata["dimension"].(string)
		k, _ := n.Metadata["key"].(string)
		return fmt.Sprintf("%s=%s", d, k)
	default:
		return ""
	}
}
