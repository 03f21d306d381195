package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mepg/mepg/pkg/config"
	"github.com/mepg/mepg/pkg/parser"
	"github.com/mepg/mepg/pkg/watch"
)

// loadConfig merges config files, environment and CLI flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	mgr := config.NewManager()
	if err := mgr.Load(); err != nil {
		return nil, err
	}
	if configFile != "" {
		if err := mgr.LoadFile(configFile); err != nil {
			return nil, err
		}
	}
	cfg := mgr.Get()

	// Flags override file and env settings when set.
	if cmd.Flags().Changed("format") {
		cfg.Input.Format = formatFlag
	}
	if cmd.Flags().Changed("event-id") {
		cfg.Input.IDColumn = idColumn
	}
	if cmd.Flags().Changed("activity") {
		cfg.Input.ActivityColumn = activityColumn
	}
	if cmd.Flags().Changed("timestamp") {
		cfg.Input.TimestampColumn = timestampColumn
	}
	if cmd.Flags().Changed("timestamp-layout") {
		cfg.Input.TimestampLayout = timestampLayout
	}
	if cmd.Flags().Changed("delimiter") {
		cfg.Input.Delimiter = delimiter
	}
	if cmd.Flags().Changed("error-policy") {
		cfg.Build.ErrorPolicy = errorPolicy
	}
	if cmd.Flags().Changed("workers") {
		cfg.Build.Workers = workers
	}

	if len(entityFlags) > 0 {
		entities := make(map[string]string, len(entityFlags))
		for _, spec := range entityFlags {
			entityType, column, ok := strings.Cut(spec, "=")
			if !ok {
				return nil, fmt.Errorf("invalid --entity %q, want type=column", spec)
			}
			entities[entityType] = column
		}
		cfg.Input.Entities = entities
	}

	if len(reifyFlags) > 0 {
		cfg.Graph.Reifications = nil
		for _, spec := range reifyFlags {
			label, parts, ok := strings.Cut(spec, "=")
			if !ok || parts == "" {
				return nil, fmt.Errorf("invalid --reify %q, want label=type1,type2", spec)
			}
			cfg.Graph.Reifications = append(cfg.Graph.Reifications, config.ReificationConfig{
				Label: label,
				Parts: strings.Split(parts, ","),
			})
		}
	}

	if len(dimensionFlags) > 0 {
		cfg.Graph.Dimensions = nil
		for _, spec := range dimensionFlags {
			name, source, ok := strings.Cut(spec, "=")
			if !ok {
				return nil, fmt.Errorf("invalid --dimension %q, want name=source", spec)
			}
			cfg.Graph.Dimensions = append(cfg.Graph.Dimensions, config.DimensionConfig{
				Name:   name,
				Source: source,
			})
		}
	}

	return cfg, nil
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := executeBuild(ctx, cfg, inputFile)
	if err != nil {
		return err
	}
	printSummary(result)

	return exportResult(result, outputFile, exportFormat)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if inputFile == "-" {
		return fmt.Errorf("watch requires a file path, not stdin")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Initial build before entering the watch loop.
	result, err := executeBuild(ctx, cfg, inputFile)
	if err != nil {
		return err
	}
	printSummary(result)
	if err := exportResult(result, outputFile, exportFormat); err != nil {
		return err
	}

	w, err := watch.New()
	if err != nil {
		return err
	}
	defer w.Close()

	w.OnChange = func(path string) error {
		fmt.Println(mutedStyle.Render("change detected, rebuilding..."))
		result, err := executeBuild(ctx, cfg, path)
		if err != nil {
			return err
		}
		printSummary(result)
		return exportResult(result, outputFile, exportFormat)
	}
	w.OnError = func(path string, err error) {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("watch: %s: %v", path, err)))
	}

	if err := w.Watch(inputFile); err != nil {
		return err
	}
	fmt.Println(mutedStyle.Render("watching " + inputFile + " (ctrl-c to stop)"))

	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	f, err := os.Open(inputFile)
	if err != nil {
		return err
	}
	defer f.Close()

	delim := byte(',')
	if delimiter != "" {
		delim = delimiter[0]
	}
	headers, err := parser.ReadCSVHeader(f, delim)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Columns"))
	for _, h := range headers {
		fmt.Println("  " + h)
	}

	hints := parser.IdentifyEntityColumns(headers)
	if len(hints) == 0 {
		fmt.Println(mutedStyle.Render("no entity-key columns detected"))
		return nil
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("Suggested entity columns"))
	for _, h := range hints {
		fmt.Printf("  --entity %s=%s\n", h.EntityType, h.Column)
	}
	return nil
}
