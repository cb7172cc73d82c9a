package diag

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
)

// Severity says whether a diagnostic stops output.
type Severity int

const (
	// Warning diagnostics are recoverable: the offending entry or file is
	// skipped and the build continues.
	Warning Severity = iota + 1
	// Fatal diagnostics stop the catalog from being written.
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Diagnostic is a single located problem.
type Diagnostic struct {
	Code       Code
	Severity   Severity
	File       string
	Line       int
	Property   string
	Identifier string
	Expr       string
	Message    string
}

// Location renders file:line, or just the file when the line is unknown.
func (d Diagnostic) Location() string {
	switch {
	case d.File == "":
		return ""
	case d.Line > 0:
		return fmt.Sprintf("%s:%d", d.File, d.Line)
	default:
		return d.File
	}
}

func (d Diagnostic) String() string {
	var b strings.Builder
	if loc := d.Location(); loc != "" {
		b.WriteString(loc)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s %s", d.Severity, d.Code)
	if d.Identifier != "" {
		fmt.Fprintf(&b, " %s", d.Identifier)
	}
	if d.Property != "" {
		fmt.Fprintf(&b, " (%s)", d.Property)
	}
	msg := d.Message
	if msg == "" {
		msg = Lookup(d.Code).Message
	}
	fmt.Fprintf(&b, ": %s", msg)
	if d.Expr != "" {
		fmt.Fprintf(&b, " [expr: %s]", d.Expr)
	}
	return b.String()
}

func (d Diagnostic) attrs() []any {
	attrs := []any{slog.String("code", string(d.Code))}
	if d.File != "" {
		attrs = append(attrs, slog.String("file", d.File))
	}
	if d.Line > 0 {
		attrs = append(attrs, slog.Int("line", d.Line))
	}
	if d.Property != "" {
		attrs = append(attrs, slog.String("property", d.Property))
	}
	if d.Identifier != "" {
		attrs = append(attrs, slog.String("identifier", d.Identifier))
	}
	if d.Expr != "" {
		attrs = append(attrs, slog.String("expr", d.Expr))
	}
	return attrs
}

// Collector aggregates diagnostics in the order they are reported. It is not
// safe for concurrent use.
type Collector struct {
	logger *slog.Logger
	items  []Diagnostic
}

// NewCollector returns a Collector that also logs each diagnostic as it
// arrives. A nil logger discards.
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Collector{logger: logger}
}

// Add records d. A zero severity is taken from the code catalogue.
func (c *Collector) Add(d Diagnostic) {
	if d.Severity == 0 {
		d.Severity = Lookup(d.Code).Severity
	}
	if d.Message == "" {
		d.Message = Lookup(d.Code).Message
	}
	c.items = append(c.items, d)

	if d.Severity == Fatal {
		c.logger.Error(d.Message, d.attrs()...)
	} else {
		c.logger.Warn(d.Message, d.attrs()...)
	}
}

// Addf records a diagnostic for code with a formatted message.
func (c *Collector) Addf(code Code, base Diagnostic, format string, args ...any) {
	base.Code = code
	base.Message = fmt.Sprintf(format, args...)
	c.Add(base)
}

// All returns every diagnostic in report order.
func (c *Collector) All() []Diagnostic {
	return append([]Diagnostic(nil), c.items...)
}

// Fatals returns the fatal diagnostics in report order.
func (c *Collector) Fatals() []Diagnostic {
	var out []Diagnostic
	for _, d := range c.items {
		if d.Severity == Fatal {
			out = append(out, d)
		}
	}
	return out
}

// HasFatal reports whether any fatal diagnostic was recorded.
func (c *Collector) HasFatal() bool {
	for _, d := range c.items {
		if d.Severity == Fatal {
			return true
		}
	}
	return false
}

// Len returns the number of recorded diagnostics.
func (c *Collector) Len() int { return len(c.items) }

// CountByCode returns how many diagnostics were recorded per code.
func (c *Collector) CountByCode() map[Code]int {
	counts := make(map[Code]int)
	for _, d := range c.items {
		counts[d.Code]++
	}
	return counts
}

// Report writes the end-of-run summary: one line per diagnostic, fatal ones
// first, then one action line per code that occurred.
func (c *Collector) Report(w io.Writer) error {
	if len(c.items) == 0 {
		_, err := fmt.Fprintln(w, "no diagnostics")
		return err
	}

	items := c.All()
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Severity > items[j].Severity
	})

	var fatal, warn int
	for _, d := range items {
		if d.Severity == Fatal {
			fatal++
		} else {
			warn++
		}
	}

	bw := &errWriter{w: w}
	bw.printf("%d diagnostics (%d fatal, %d warning)\n", len(items), fatal, warn)
	for _, d := range items {
		bw.printf("  %s\n", d)
	}

	counts := c.CountByCode()
	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)

	bw.printf("actions:\n")
	for _, code := range codes {
		e := Lookup(Code(code))
		bw.printf("  %s x%d: %s\n", code, counts[Code(code)], e.Action)
	}
	return bw.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
