package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrMissingField is returned when a decoded record lacks a required field.
	ErrMissingField = errors.New("missing required field")
	// ErrNonFinite is returned when encoding a NaN or infinite number.
	ErrNonFinite = errors.New("non-finite number")
)

// maxLineSize bounds a single JSON line.
const maxLineSize = 1 << 20

type wireRecord struct {
	Unit             *string  `json:"unit"`
	Prefix           *string  `json:"prefix"`
	Symbol           string   `json:"symbol"`
	Plural           string   `json:"plural"`
	Property         *string  `json:"property"`
	ConversionFactor *float64 `json:"conversion_factor"`
	ConversionOffset *float64 `json:"conversion_offset"`
	ReferenceUnit    *string  `json:"reference_unit"`
	AlternateUnit    *string  `json:"alternate_unit"`
	System           string   `json:"system"`
}

// MarshalJSON writes the record with fields in catalog order: unit, prefix?,
// symbol, plural, property, conversion_factor, conversion_offset?,
// reference_unit, alternate_unit?, system. Absent optional fields are
// omitted. A record whose reference unit is not yet resolved omits
// reference_unit as well, which is the layout of an unresolved library
// catalog.
func (r Record) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	w := objectWriter{buf: &b}

	w.str("unit", r.Unit)
	if r.Prefix != "" {
		w.str("prefix", r.Prefix)
	}
	w.str("symbol", r.Symbol)
	w.str("plural", r.Plural)
	w.str("property", r.Property)
	w.num("conversion_factor", r.ConversionFactor)
	if r.ConversionOffset != nil {
		w.num("conversion_offset", *r.ConversionOffset)
	}
	if r.ReferenceUnit != "" {
		w.str("reference_unit", r.ReferenceUnit)
	}
	if r.AlternateUnit != "" {
		w.str("alternate_unit", r.AlternateUnit)
	}
	w.str("system", r.System)

	if w.err != nil {
		return nil, fmt.Errorf("encode %s (%s): %w", r.Unit, r.Property, w.err)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON decodes a record. unit, property and conversion_factor are
// required; a null conversion factor is rejected.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.Unit == nil:
		return fmt.Errorf("%w: unit", ErrMissingField)
	case w.Property == nil:
		return fmt.Errorf("%w: property (unit %q)", ErrMissingField, *w.Unit)
	case w.ConversionFactor == nil:
		return fmt.Errorf("%w: conversion_factor (unit %q, property %q)", ErrMissingField, *w.Unit, *w.Property)
	}

	*r = Record{
		Unit:             *w.Unit,
		Prefix:           deref(w.Prefix),
		Symbol:           w.Symbol,
		Plural:           w.Plural,
		Property:         *w.Property,
		ConversionFactor: *w.ConversionFactor,
		ConversionOffset: w.ConversionOffset,
		ReferenceUnit:    deref(w.ReferenceUnit),
		AlternateUnit:    deref(w.AlternateUnit),
		System:           w.System,
	}
	return nil
}

// Encode renders records as JSON lines.
func Encode(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSONL(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSONL writes one record per line in the given order.
func WriteJSONL(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		line, err := r.MarshalJSON()
		if err != nil {
			return err
		}
		bw.Write(line)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ReadJSONL decodes canonical records, one per non-blank line.
func ReadJSONL(r io.Reader) ([]Record, error) {
	var out []Record
	err := scanLines(r, func(n int, line []byte) error {
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

type wirePrefixed struct {
	Unit          *string `json:"unit"`
	Prefix        *string `json:"prefix"`
	Symbol        string  `json:"symbol"`
	Property      *string `json:"property"`
	AlternateUnit *string `json:"alternate_unit"`
	System        string  `json:"system"`
}

// ReadPrefixedJSONL decodes prefix-expansion records. Fields other than
// unit, prefix, symbol, property, alternate_unit and system are ignored.
func ReadPrefixedJSONL(r io.Reader) ([]PrefixedUnit, error) {
	var out []PrefixedUnit
	err := scanLines(r, func(n int, line []byte) error {
		var w wirePrefixed
		if err := json.Unmarshal(line, &w); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		if w.Unit == nil || *w.Unit == "" {
			return fmt.Errorf("line %d: %w: unit", n, ErrMissingField)
		}
		if w.Property == nil || *w.Property == "" {
			return fmt.Errorf("line %d: %w: property (unit %q)", n, ErrMissingField, *w.Unit)
		}
		out = append(out, PrefixedUnit{
			Unit:          *w.Unit,
			Prefix:        deref(w.Prefix),
			Symbol:        w.Symbol,
			Property:      *w.Property,
			AlternateUnit: deref(w.AlternateUnit),
			System:        w.System,
		})
		return nil
	})
	return out, err
}

func scanLines(r io.Reader, fn func(n int, line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0
	for sc.Scan() {
		n++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	return sc.Err()
}

// FormatFloat renders v the way the catalog has always been written:
// shortest round-trip digits, fixed notation with at least one fractional
// digit when the decimal exponent is in [-4, 16), exponent notation with a
// signed two-digit exponent otherwise (1000.0, 0.001, 1e-05, 1e+24).
func FormatFloat(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", ErrNonFinite
	}
	e := strconv.FormatFloat(v, 'e', -1, 64)
	exp, err := strconv.Atoi(e[strings.LastIndexByte(e, 'e')+1:])
	if err != nil {
		return "", err
	}
	if exp < -4 || exp >= 16 {
		return e, nil
	}
	f := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(f, '.') {
		f += ".0"
	}
	return f, nil
}

type objectWriter struct {
	buf *bytes.Buffer
	n   int
	err error
}

func (w *objectWriter) key(name string) {
	if w.n == 0 {
		w.buf.WriteByte('{')
	} else {
		w.buf.WriteString(", ")
	}
	w.n++
	w.buf.WriteByte('"')
	w.buf.WriteString(name)
	w.buf.WriteString(`": `)
}

func (w *objectWriter) str(name, v string) {
	if w.err != nil {
		return
	}
	w.key(name)
	var sb bytes.Buffer
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		w.err = err
		return
	}
	w.buf.Write(bytes.TrimSuffix(sb.Bytes(), []byte("\n")))
}

func (w *objectWriter) num(name string, v float64) {
	if w.err != nil {
		return
	}
	s, err := FormatFloat(v)
	if err != nil {
		w.err = fmt.Errorf("%s: %w", name, err)
		return
	}
	w.key(name)
	w.buf.WriteString(s)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
