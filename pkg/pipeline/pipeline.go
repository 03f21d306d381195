// Package pipeline wires parser, store and graph construction into a
// single batch run: source -> ingest -> correlate -> reify ->
// directly-follows -> classify -> aggregate.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mepg/mepg/pkg/graph"
	"github.com/mepg/mepg/pkg/parser"
	"github.com/mepg/mepg/pkg/store"
)

// Config holds one run's configuration.
type Config struct {
	// SourcePath is the input file; "-" reads stdin.
	SourcePath string

	// SourceFormat overrides extension-based format detection.
	SourceFormat parser.Format

	// Parser is the column mapping handed to the source parser.
	Parser parser.Config

	// Spec declares extractors, reifications and dimensions.
	Spec graph.Spec

	// ErrorPolicy controls malformed-row handling (default: skip).
	ErrorPolicy store.ErrorPolicy

	// TimestampLayout is an optional explicit Go time layout.
	TimestampLayout string

	// Workers bounds build parallelism; zero means GOMAXPROCS.
	Workers int

	// ChannelBuffer is the parser-to-store channel capacity.
	ChannelBuffer int

	// OnRecord, if set, is called after every ingested or skipped row.
	OnRecord func(ingested, skipped int64)

	// OnSkip, if set, receives every malformed-row report.
	OnSkip func(rec store.ErrorRecord)
}

// Result is the outcome of a run.
type Result struct {
	Graph    *graph.Graph
	Ingested int64
	Skipped  int64
	Errors   []store.ErrorRecord
	Duration time.Duration
}

// Runner executes construction runs.
type Runner struct {
	cfg Config
}

// NewRunner creates a runner for the given configuration.
func NewRunner(cfg Config) *Runner {
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = 4096
	}
	return &Runner{cfg: cfg}
}

// Run opens the source and executes a full construction run.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	var reader io.Reader
	if r.cfg.SourcePath == "-" {
		reader = os.Stdin
	} else {
		f, err := os.Open(r.cfg.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("pipeline: open source %q: %w", r.cfg.SourcePath, err)
		}
		defer f.Close()
		reader = f
	}
	return r.RunWithReader(ctx, reader)
}

// RunWithReader executes a run over an already-open source.
func (r *Runner) RunWithReader(ctx context.Context, reader io.Reader) (*Result, error) {
	start := time.Now()

	format := r.cfg.SourceFormat
	if format == parser.FormatUnknown {
		format = parser.DetectFormat(r.cfg.SourcePath)
	}
	src, err := parser.NewParser(format, r.cfg.Parser)
	if err != nil {
		return nil, err
	}

	handler := store.NewErrorHandler(r.cfg.ErrorPolicy, 100)
	handler.OnSkip = r.cfg.OnSkip

	opts := []store.Option{store.WithErrorHandler(handler)}
	if r.cfg.TimestampLayout != "" {
		opts = append(opts, store.WithTimestampLayout(r.cfg.TimestampLayout))
	}
	st := store.New(opts...)

	records := make(chan *parser.Record, r.cfg.ChannelBuffer)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(records)
		if err := src.Parse(gctx, reader, records); err != nil {
			return fmt.Errorf("pipeline: source %s: %w", format, err)
		}
		return nil
	})

	var ingested int64
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case rec, ok := <-records:
				if !ok {
					return nil
				}
				before := int64(st.Len())
				if err := st.Append(rec); err != nil {
					return fmt.Errorf("pipeline: ingest: %w", err)
				}
				if int64(st.Len()) > before {
					ingested++
				}
				if r.cfg.OnRecord != nil {
					r.cfg.OnRecord(ingested, st.Skipped())
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := st.Freeze(); err != nil {
		return nil, err
	}

	gr, err := graph.Build(ctx, st, r.cfg.Spec, graph.WithWorkers(r.cfg.Workers))
	if err != nil {
		return nil, err
	}

	return &Result{
		Graph:    gr,
		Ingested: ingested,
		Skipped:  st.Skipped(),
		Errors:   st.Errors(),
		Duration: time.Since(start),
	}, nil
}
