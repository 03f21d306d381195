// mepg - multi-entity process graph builder
// Builds a multi-perspective directly-follows graph from an event log.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// CLI flags
var (
	inputFile   string
	outputFile  string
	formatFlag  string
	configFile  string
	verbose     bool
	workers     int
	errorPolicy string

	// Column mapping flags
	idColumn        string
	activityColumn  string
	timestampColumn string
	timestampLayout string
	delimiter       string
	entityFlags     []string

	// Graph flags
	reifyFlags     []string
	dimensionFlags []string

	// Export flags
	exportFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mepg",
	Short: "mepg - Build multi-entity process graphs from event logs",
	Long: `mepg builds a multi-perspective process graph from a flat event log.

Each event may reference several independent entities (a case, an offer,
a resource). mepg correlates events to entities, reifies co-occurring
entity combinations, computes directly-follows chains per entity
instance, classifies events, and aggregates the chains into class-level
edges with frequency counts.`,
	Version: fmt.Sprintf("%s (%s)", version, commit),
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the process graph from an event log",
	Long: `Build the multi-entity process graph from an event log file.

Supports reading from stdin using "-" as the input path.

Examples:
  mepg build -i events.csv -o graph.json
  mepg build -i events.csv -o graph.xlsx --export xlsx
  mepg build -i events.jsonl --entity offer=offer_id --reify AO=application,offer
  mepg build -i events.csv --dimension resource=entity:resource
  cat events.csv | mepg build -i - --format csv -o graph.json`,
	RunE: runBuild,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the graph whenever the input log changes",
	Long: `Watch an event log and rebuild the graph on every change.

Construction is a pure function of the raw events, so each change
triggers a full recomputation.`,
	RunE: runWatch,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect an event log and suggest entity columns",
	Long:  `Read the header of an event log and suggest likely entity-key columns.`,
	RunE:  runInspect,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file path (.mepg.yaml)")

	for _, cmd := range []*cobra.Command{buildCmd, watchCmd} {
		cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file path (use '-' for stdin)")
		cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (default: stdout)")
		cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Input format (csv, jsonl) - auto-detected if not specified")
		cmd.Flags().StringVar(&exportFormat, "export", "json", "Export format (json, csv, xlsx)")
		cmd.Flags().StringVar(&delimiter, "delimiter", ",", "CSV field delimiter")
		cmd.Flags().StringVar(&idColumn, "event-id", "event_id", "Event ID column name")
		cmd.Flags().StringVar(&activityColumn, "activity", "concept:name", "Activity column name")
		cmd.Flags().StringVar(&timestampColumn, "timestamp", "time:timestamp", "Timestamp column name")
		cmd.Flags().StringVar(&timestampLayout, "timestamp-layout", "", "Timestamp format (Go time layout)")
		cmd.Flags().StringArrayVar(&entityFlags, "entity", nil, "Entity column mapping (format: type=column), repeatable")
		cmd.Flags().StringArrayVar(&reifyFlags, "reify", nil, "Reification spec (format: label=type1,type2[,...]), repeatable")
		cmd.Flags().StringArrayVar(&dimensionFlags, "dimension", nil, "Classification dimension (format: name=activity|entity:<type>|attr:<column>), repeatable")
		cmd.Flags().StringVar(&errorPolicy, "error-policy", "skip", "Malformed row policy (skip, strict)")
		cmd.Flags().IntVar(&workers, "workers", 0, "Worker count for parallel stages (0 = auto)")
		cmd.MarkFlagRequired("input")
	}

	inspectCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file path (required)")
	inspectCmd.Flags().StringVar(&delimiter, "delimiter", ",", "CSV field delimiter")
	inspectCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(inspectCmd)
}
