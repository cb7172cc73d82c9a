// Package expr evaluates the arithmetic found in unit conversion declarations.
//
// The grammar is deliberately closed:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = [ "+" | "-" ] unary | primary
//	primary = number | "(" expr ")"
//
// Before parsing, every prefix reference of the form prefix!(name) is replaced
// by the multiplier of that prefix and digit-grouping underscores are removed
// from numeric literals (1.609_344_E3 becomes 1.609344E3). Identifiers,
// function calls and any other syntax are rejected.
package expr

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/unitcat/internal/prefix"
)

// ErrMalformed is returned for input that is not valid arithmetic.
var ErrMalformed = errors.New("malformed arithmetic")

// Error reports a failed evaluation together with the offending expression.
// Err wraps either prefix.ErrUnknownPrefix or ErrMalformed.
type Error struct {
	Expr string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("evaluate %q: %v", e.Expr, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var (
	refPattern     = regexp.MustCompile(`prefix!\(\s*(\w+)\s*\)`)
	literalPattern = regexp.MustCompile(`\d[\d_.]*(?:[eE][+-]?[\d_]+)?`)
)

// Prefixes returns the distinct prefix names referenced by s, in order of
// first appearance. Names are returned whether or not they are known.
func Prefixes(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range refPattern.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// StripPrefixes removes every prefix reference from s.
func StripPrefixes(s string) string {
	return refPattern.ReplaceAllString(s, "")
}

// Substitute replaces every prefix reference in s with its multiplier.
func Substitute(s string) (string, error) {
	var firstErr error
	out := refPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := refPattern.FindStringSubmatch(ref)[1]
		m, err := prefix.Multiplier(name)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return ref
		}
		return strconv.FormatFloat(m, 'g', -1, 64)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// Normalize strips digit-grouping underscores from numeric literals.
func Normalize(s string) string {
	return literalPattern.ReplaceAllStringFunc(s, func(lit string) string {
		return strings.ReplaceAll(lit, "_", "")
	})
}

// Eval substitutes prefix references, normalises literals and evaluates s.
// Failures are returned as *Error.
func Eval(s string) (float64, error) {
	sub, err := Substitute(s)
	if err != nil {
		return 0, &Error{Expr: s, Err: err}
	}
	v, err := Arith(Normalize(sub))
	if err != nil {
		return 0, &Error{Expr: s, Err: err}
	}
	return v, nil
}
