// Package build runs the catalog pipeline: extract the unit-definition
// sources, resolve reference units, reconcile with the prefix-expanded
// catalog, verify, and write the result.
//
// Output is written only by a run that recorded no fatal diagnostic. A run
// that fails returns a *FatalError listing every fatal problem; warnings are
// kept in the run's collector for the end-of-run report.
package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/JonMunkholm/unitcat/internal/catalog"
	"github.com/JonMunkholm/unitcat/internal/config"
	"github.com/JonMunkholm/unitcat/internal/curated"
	"github.com/JonMunkholm/unitcat/internal/diag"
	"github.com/JonMunkholm/unitcat/internal/fsx"
	"github.com/JonMunkholm/unitcat/internal/logging"
	"github.com/JonMunkholm/unitcat/internal/reconcile"
	"github.com/JonMunkholm/unitcat/internal/reference"
	"github.com/JonMunkholm/unitcat/internal/schema"
	"github.com/JonMunkholm/unitcat/internal/uomfile"
)

// Options controls one run.
type Options struct {
	UomDir       string
	Ext          string
	Exclude      []string
	PrefixedFile string

	Output    string
	UomOutput string // optional; receives the resolved library catalog

	// Check builds without writing and fails with ErrStale when Output
	// differs from the fresh result.
	Check          bool
	ValidateSchema bool
}

// OptionsFromConfig maps the loaded configuration onto run options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		UomDir:         cfg.Source.UomDir,
		Ext:            cfg.Source.Ext,
		Exclude:        cfg.Source.Exclude,
		PrefixedFile:   cfg.Source.PrefixedFile,
		Output:         cfg.Output.Path,
		UomOutput:      cfg.Output.UomPath,
		ValidateSchema: cfg.Output.ValidateSchema,
	}
}

func (o Options) dirOptions() uomfile.DirOptions {
	return uomfile.DirOptions{Ext: o.Ext, Exclude: o.Exclude}
}

// Pipeline holds the components of a run. It is built once from the
// curated tables and may run any number of times.
type Pipeline struct {
	tables     *curated.Tables
	resolver   *reference.Resolver
	reconciler *reconcile.Reconciler
	validator  *schema.Validator
}

// New returns a Pipeline backed by tables.
func New(tables *curated.Tables) (*Pipeline, error) {
	v, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}
	return &Pipeline{
		tables:     tables,
		resolver:   reference.New(tables),
		reconciler: reconcile.New(tables),
		validator:  v,
	}, nil
}

// Run is the outcome of one build.
type Run struct {
	ID          uuid.UUID
	Records     []catalog.Record
	Library     []catalog.Record
	References  map[string]string // reference unit per library property
	Summary     Summary
	Diagnostics *diag.Collector
	Written     bool
}

// runContext ensures ctx carries a run ID.
func runContext(ctx context.Context) (context.Context, uuid.UUID) {
	if id, ok := logging.RunID(ctx); ok {
		return ctx, id
	}
	id := logging.NewRunID()
	return logging.WithRunID(ctx, id), id
}

// Extract reads the unit-definition sources and resolves reference units.
// The returned library catalog is sorted by (property, unit).
func (p *Pipeline) Extract(ctx context.Context, opts Options, c *diag.Collector) ([]catalog.Record, map[string]string, error) {
	logger := logging.WithFields(ctx, "uom_dir", opts.UomDir)

	x := uomfile.NewExtractor(p.tables, logger)
	raw, err := x.ExtractDir(opts.UomDir, opts.dirOptions(), c)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	library, refs := p.resolver.Resolve(raw, c)
	catalog.Sort(library)
	logger.Debug("reference units resolved", "properties", len(refs))
	return library, refs, nil
}

// ExtractOnly runs extraction and reference resolution and writes the
// library catalog to opts.UomOutput, which is required so the final catalog
// at opts.Output is never overwritten.
func (p *Pipeline) ExtractOnly(ctx context.Context, opts Options) (*Run, error) {
	if opts.UomOutput == "" {
		return nil, ErrNoLibraryOutput
	}
	ctx, id := runContext(ctx)
	logger := logging.FromContext(ctx)
	run := &Run{ID: id, Diagnostics: diag.NewCollector(logger)}

	library, refs, err := p.Extract(ctx, opts, run.Diagnostics)
	if err != nil {
		return run, err
	}
	run.Library, run.References = library, refs

	if run.Diagnostics.HasFatal() {
		return run, &FatalError{Diagnostics: run.Diagnostics.Fatals()}
	}

	if err := writeCatalog(opts.UomOutput, library); err != nil {
		return run, err
	}
	run.Written = true
	logger.Info("library catalog written", "path", opts.UomOutput, "units", len(library))
	return run, nil
}

// Build runs the whole pipeline.
func (p *Pipeline) Build(ctx context.Context, opts Options) (*Run, error) {
	ctx, id := runContext(ctx)
	logger := logging.FromContext(ctx)
	run := &Run{ID: id, Diagnostics: diag.NewCollector(logger)}
	c := run.Diagnostics

	logger.Info("build started", "uom_dir", opts.UomDir, "prefixed", opts.PrefixedFile)

	library, refs, err := p.Extract(ctx, opts, c)
	if err != nil {
		return run, err
	}
	run.Library, run.References = library, refs

	prefixed, err := readPrefixed(opts.PrefixedFile)
	if err != nil {
		return run, err
	}
	if err := ctx.Err(); err != nil {
		return run, err
	}

	res := p.reconciler.Reconcile(prefixed, library, c)
	run.Records = res.Records
	run.Summary = summarize(len(library), len(prefixed), res)

	for _, v := range catalog.Verify(res.Records) {
		c.Add(v.Diagnostic())
	}
	if opts.ValidateSchema {
		if _, err := p.validator.ValidateAll(res.Records, c); err != nil {
			return run, fmt.Errorf("schema validation: %w", err)
		}
	}

	run.Summary.Log(logger)

	if c.HasFatal() {
		return run, &FatalError{Diagnostics: c.Fatals()}
	}

	data, err := catalog.Encode(res.Records)
	if err != nil {
		return run, fmt.Errorf("encode catalog: %w", err)
	}

	if opts.Check {
		return run, checkUnchanged(opts.Output, data)
	}

	if opts.UomOutput != "" {
		if err := writeCatalog(opts.UomOutput, library); err != nil {
			return run, err
		}
	}
	if err := fsx.WriteFileAtomic(opts.Output, data); err != nil {
		return run, fmt.Errorf("write catalog: %w", err)
	}
	run.Written = true
	logger.Info("catalog written", "path", opts.Output, "units", len(res.Records))
	return run, nil
}

// Validate reads a finished catalog and checks it against the record schema
// and the catalog invariants. Problems are recorded in c.
func (p *Pipeline) Validate(ctx context.Context, path string, c *diag.Collector) ([]catalog.Record, error) {
	records, err := readCatalog(path)
	if err != nil {
		c.Add(diag.Diagnostic{Code: diag.CodeUnreadableFile, Severity: diag.Fatal, File: path, Message: err.Error()})
		return nil, &FatalError{Diagnostics: c.Fatals()}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := p.validator.ValidateAll(records, c); err != nil {
		return records, fmt.Errorf("schema validation: %w", err)
	}
	for _, v := range catalog.Verify(records) {
		c.Add(v.Diagnostic())
	}

	logging.FromContext(ctx).Info("catalog validated", "path", path, "units", len(records), "diagnostics", c.Len())
	if c.HasFatal() {
		return records, &FatalError{Diagnostics: c.Fatals()}
	}
	return records, nil
}

func checkUnchanged(path string, fresh []byte) error {
	existing, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s does not exist", ErrStale, path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if !bytes.Equal(existing, fresh) {
		return fmt.Errorf("%w: %s", ErrStale, path)
	}
	return nil
}

func writeCatalog(path string, records []catalog.Record) error {
	data, err := catalog.Encode(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := fsx.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readPrefixed(path string) ([]catalog.PrefixedUnit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prefixed catalog: %w", err)
	}
	defer f.Close()

	units, err := catalog.ReadPrefixedJSONL(f)
	if err != nil {
		return nil, fmt.Errorf("read prefixed catalog %s: %w", path, err)
	}
	return units, nil
}

func readCatalog(path string) ([]catalog.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return catalog.ReadJSONL(f)
}
