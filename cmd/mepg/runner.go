package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/mepg/mepg/pkg/config"
	"github.com/mepg/mepg/pkg/export"
	"github.com/mepg/mepg/pkg/parser"
	"github.com/mepg/mepg/pkg/pipeline"
	"github.com/mepg/mepg/pkg/store"
	"github.com/mepg/mepg/pkg/telemetry"
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CC66")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
)

// executeBuild runs one full construction over the given source.
func executeBuild(ctx context.Context, cfg *config.Config, source string) (*pipeline.Result, error) {
	spec, err := cfg.GraphSpec()
	if err != nil {
		return nil, err
	}

	if cfg.Telemetry.Enabled {
		tcfg := telemetry.DefaultConfig("mepg")
		tcfg.ServiceVersion = version
		if cfg.Telemetry.Endpoint != "" {
			tcfg.Endpoint = cfg.Telemetry.Endpoint
		}
		exporter := telemetry.New(tcfg)
		shutdown, err := exporter.Init(ctx)
		if err != nil {
			return nil, err
		}
		defer shutdown(context.Background())

		sctx, runSpan := exporter.StartRun(ctx, source)
		defer runSpan.End()
		ctx = sctx
	}

	var bar *progressbar.ProgressBar
	if verbose && source != "-" {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("ingesting"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
	}

	pcfg := pipeline.Config{
		SourcePath:      source,
		SourceFormat:    parser.ParseFormat(cfg.Input.Format),
		Parser:          cfg.ParserConfig(),
		Spec:            spec,
		ErrorPolicy:     store.ParseErrorPolicy(cfg.Build.ErrorPolicy),
		TimestampLayout: cfg.Input.TimestampLayout,
		Workers:         cfg.Build.Workers,
	}
	if bar != nil {
		pcfg.OnRecord = func(ingested, skipped int64) {
			bar.Add(1)
		}
	}

	result, err := pipeline.NewRunner(pcfg).Run(ctx)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// printSummary renders the build report.
func printSummary(result *pipeline.Result) {
	stats := result.Graph.Stats()

	fmt.Println(successStyle.Render("✓ graph built") + mutedStyle.Render(fmt.Sprintf("  run %s  (%s)", result.Graph.RunID, result.Duration.Round(1e6))))
	fmt.Printf("  %-14s %d\n", "events", stats.Events)
	if stats.SkippedRows > 0 {
		fmt.Println(errorStyle.Render(fmt.Sprintf("  %-14s %d", "skipped rows", stats.SkippedRows)))
	}
	fmt.Printf("  %-14s %d (%d reified)\n", "entities", stats.Entities, stats.Reified)
	fmt.Printf("  %-14s %d\n", "classes", stats.Classes)
	fmt.Printf("  %-14s %d\n", "corr edges", stats.Correlations)
	fmt.Printf("  %-14s %d\n", "df edges", stats.DF)
	fmt.Printf("  %-14s %d\n", "df_c edges", stats.Aggregated)

	if verbose {
		for entityType, n := range stats.DFByType {
			fmt.Println(mutedStyle.Render(fmt.Sprintf("    df[%s] = %d", entityType, n)))
		}
		for _, rec := range result.Errors {
			fmt.Println(mutedStyle.Render(fmt.Sprintf("    line %d: %s (%s)", rec.Line, rec.Message, rec.ErrorType)))
		}
	}
}

// exportResult writes the graph in the requested format. An empty
// output path writes JSON to stdout.
func exportResult(result *pipeline.Result, output, format string) error {
	g := result.Graph

	if output == "" {
		return export.WriteJSON(os.Stdout, g)
	}

	if format == "" || format == "json" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".xlsx":
			format = "xlsx"
		case ".csv":
			format = "csv"
		default:
			format = "json"
		}
	}

	switch format {
	case "json":
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		return export.WriteJSON(f, g)

	case "csv":
		// Two files: <base>.nodes.csv and <base>.edges.csv.
		base := strings.TrimSuffix(output, filepath.Ext(output))
		nodes, err := os.Create(base + ".nodes.csv")
		if err != nil {
			return err
		}
		defer nodes.Close()
		if err := export.WriteNodesCSV(nodes, g); err != nil {
			return err
		}
		edges, err := os.Create(base + ".edges.csv")
		if err != nil {
			return err
		}
		defer edges.Close()
		return export.WriteEdgesCSV(edges, g)

	case "xlsx":
		return export.WriteXLSX(output, g)

	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
