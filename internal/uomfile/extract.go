// Package uomfile reads unit-definition source files: it decodes them,
// finds the property declaration and the units block, folds the block into
// entries and turns every well-formed entry into a canonical record.
package uomfile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/unitcat/internal/catalog"
	"github.com/JonMunkholm/unitcat/internal/classify"
	"github.com/JonMunkholm/unitcat/internal/curated"
	"github.com/JonMunkholm/unitcat/internal/diag"
	"github.com/JonMunkholm/unitcat/internal/expr"
	"github.com/JonMunkholm/unitcat/internal/prefix"
)

// maxReported bounds the entry text copied into a diagnostic.
const maxReported = 120

// Extractor turns source files into unresolved canonical records: every
// field except the reference unit is filled in.
type Extractor struct {
	markers    []curated.Marker
	classifier *classify.Classifier
	logger     *slog.Logger
}

// NewExtractor returns an Extractor using tables for historical markers and
// classification.
func NewExtractor(tables *curated.Tables, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{
		markers:    tables.HistoricalMarkers(),
		classifier: classify.New(tables),
		logger:     logger,
	}
}

// DirOptions selects the source files of a directory.
type DirOptions struct {
	Ext     string   // e.g. ".rs"
	Exclude []string // base names to skip
}

// ListSources returns the source files of dir in name order.
func ListSources(dir string, opts DirOptions) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}
	skip := make(map[string]bool, len(opts.Exclude))
	for _, name := range opts.Exclude {
		skip[strings.TrimSpace(name)] = true
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || skip[name] {
			continue
		}
		if opts.Ext != "" && filepath.Ext(name) != opts.Ext {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ExtractDir extracts every source file of dir in name order. File-level
// problems are recorded in c and the file is skipped; only an unreadable
// directory is returned as an error.
func (x *Extractor) ExtractDir(dir string, opts DirOptions, c *diag.Collector) ([]catalog.Record, error) {
	paths, err := ListSources(dir, opts)
	if err != nil {
		return nil, err
	}

	var out []catalog.Record
	for _, path := range paths {
		recs, err := x.ExtractFile(path, c)
		if err != nil {
			d := diag.Diagnostic{File: filepath.Base(path), Message: err.Error()}
			switch {
			case errors.Is(err, ErrNoProperty):
				d.Code = diag.CodeNoProperty
			case errors.Is(err, ErrNoUnitsBlock):
				d.Code = diag.CodeNoUnitsBlock
			default:
				d.Code = diag.CodeUnreadableFile
			}
			c.Add(d)
			continue
		}
		out = append(out, recs...)
	}

	x.logger.Info("extracted unit definitions", "dir", dir, "files", len(paths), "units", len(out))
	return out, nil
}

// ExtractFile reads and extracts one source file.
func (x *Extractor) ExtractFile(path string, c *diag.Collector) ([]catalog.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return x.ExtractText(filepath.Base(path), Decode(data), c)
}

// ExtractText extracts the records declared in text. Entries that cannot be
// parsed or evaluated are recorded in c and skipped.
func (x *Extractor) ExtractText(name, text string, c *diag.Collector) ([]catalog.Record, error) {
	src, err := ParseSource(text)
	if err != nil {
		return nil, err
	}

	entries, pending := Fold(src, x.markers)

	out := make([]catalog.Record, 0, len(entries))
	for _, e := range entries {
		rec, ok := x.extractEntry(name, src.Property, e, c)
		if ok {
			out = append(out, rec)
		}
	}

	if pending != nil {
		c.Add(diag.Diagnostic{
			Code:     diag.CodeUnterminatedEntry,
			File:     name,
			Line:     pending.Line,
			Property: src.Property,
			Expr:     truncate(pending.Text),
		})
	}

	x.logger.Debug("extracted file", "file", name, "property", src.Property, "entries", len(entries), "units", len(out))
	return out, nil
}

func (x *Extractor) extractEntry(file, property string, e Entry, c *diag.Collector) (catalog.Record, bool) {
	raw, err := ParseEntry(e.Text)
	if err != nil {
		c.Add(diag.Diagnostic{
			Code:       diag.CodeMalformedEntry,
			File:       file,
			Line:       e.Line,
			Property:   property,
			Identifier: raw.Identifier,
			Expr:       truncate(e.Text),
			Message:    err.Error(),
		})
		return catalog.Record{}, false
	}

	report := func(err error) {
		code := diag.CodeMalformedExpr
		if errors.Is(err, prefix.ErrUnknownPrefix) {
			code = diag.CodeUnknownPrefix
		}
		c.Add(diag.Diagnostic{
			Code:       code,
			File:       file,
			Line:       e.Line,
			Property:   property,
			Identifier: raw.Identifier,
			Expr:       raw.Expr,
			Message:    err.Error(),
		})
	}

	factor, err := expr.Eval(raw.Conversion)
	if err != nil {
		report(err)
		return catalog.Record{}, false
	}
	if !(factor > 0) || math.IsInf(factor, 0) {
		report(fmt.Errorf("%w: conversion factor %v is not positive and finite", expr.ErrMalformed, factor))
		return catalog.Record{}, false
	}

	rec := catalog.Record{
		Unit:             raw.Singular,
		Symbol:           raw.Symbol,
		Plural:           raw.Plural,
		Property:         property,
		ConversionFactor: factor,
	}
	if raw.HasOffset() {
		off, err := expr.Eval(raw.Offset)
		if err != nil {
			report(err)
			return catalog.Record{}, false
		}
		rec.ConversionOffset = &off
	}

	rec.System = x.classifier.Classify(classify.Input{
		Identifier: raw.Identifier,
		Expression: raw.Expr,
		Property:   property,
		Prefixes:   expr.Prefixes(raw.Expr),
		Historical: e.Historical,
	})
	return rec, true
}

func truncate(s string) string {
	if len(s) <= maxReported {
		return s
	}
	cut := maxReported
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
