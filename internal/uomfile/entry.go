package uomfile

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedEntry is returned for an entry that does not follow
// @id: expr[, offset]; "symbol", "singular", "plural";
var ErrMalformedEntry = errors.New("malformed entry")

var (
	identPattern  = regexp.MustCompile(`^@(\w+)\s*:`)
	stringPattern = regexp.MustCompile(`"([^"]*)"`)
)

// RawEntry is an entry split into its parts. It is not evaluated.
type RawEntry struct {
	Identifier string
	// Expr is the whole expression part, offset included.
	Expr       string
	Conversion string
	Offset     string // empty when the unit has no offset
	Symbol     string
	Singular   string
	Plural     string
}

// HasOffset reports whether the entry declares an affine offset.
func (e RawEntry) HasOffset() bool { return e.Offset != "" }

// ParseEntry splits the text of a complete entry.
func ParseEntry(text string) (RawEntry, error) {
	text = strings.TrimSpace(text)
	m := identPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return RawEntry{}, fmt.Errorf("%w: missing @identifier", ErrMalformedEntry)
	}
	raw := RawEntry{Identifier: text[m[2]:m[3]]}
	rest := strings.TrimSpace(text[m[1]:])

	semi := IndexTop(rest, ';', 0)
	if semi < 0 {
		return raw, fmt.Errorf("%w: missing ';' after the expression", ErrMalformedEntry)
	}
	raw.Expr = strings.TrimSpace(rest[:semi])
	if raw.Expr == "" {
		return raw, fmt.Errorf("%w: empty expression", ErrMalformedEntry)
	}

	names := stringPattern.FindAllStringSubmatch(rest[semi+1:], -1)
	if len(names) < 3 {
		return raw, fmt.Errorf("%w: want symbol, singular and plural, got %d strings", ErrMalformedEntry, len(names))
	}
	raw.Symbol, raw.Singular, raw.Plural = names[0][1], names[1][1], names[2][1]

	raw.Conversion = raw.Expr
	if comma := IndexTop(raw.Expr, ',', 0); comma >= 0 {
		raw.Conversion = strings.TrimSpace(raw.Expr[:comma])
		raw.Offset = strings.TrimSpace(raw.Expr[comma+1:])
		if raw.Conversion == "" || raw.Offset == "" {
			return raw, fmt.Errorf("%w: empty conversion or offset around ','", ErrMalformedEntry)
		}
	}
	return raw, nil
}
