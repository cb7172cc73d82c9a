// Package prefix provides the process-wide table of SI decimal and IEC binary
// prefixes referenced by unit conversion expressions.
//
// The table is built once at package initialisation and never modified.
// Lookups of names that are not in the table fail with [ErrUnknownPrefix];
// callers must never fall back to a multiplier of 1.0.
package prefix

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// None names the identity prefix (multiplier 1.0).
const None = "none"

// ErrUnknownPrefix is returned when a prefix name is not in the table.
var ErrUnknownPrefix = errors.New("unknown prefix")

// Family distinguishes decimal (SI) prefixes from binary (IEC) prefixes.
type Family int

const (
	Decimal Family = iota
	Binary
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case Decimal:
		return "decimal"
	case Binary:
		return "binary"
	default:
		return "unknown"
	}
}

// Prefix is a named multiplicative scale factor.
type Prefix struct {
	Name       string
	Multiplier float64
	Family     Family
}

var table = buildTable()

func buildTable() map[string]Prefix {
	decimal := []struct {
		name string
		exp  int
	}{
		{"quetta", 30}, {"ronna", 27}, {"yotta", 24}, {"zetta", 21}, {"exa", 18},
		{"peta", 15}, {"tera", 12}, {"giga", 9}, {"mega", 6}, {"kilo", 3},
		{"hecto", 2}, {"deca", 1}, {None, 0}, {"deci", -1}, {"centi", -2},
		{"milli", -3}, {"micro", -6}, {"nano", -9}, {"pico", -12}, {"femto", -15},
		{"atto", -18}, {"zepto", -21}, {"yocto", -24}, {"ronto", -27}, {"quecto", -30},
	}
	binary := []string{"kibi", "mebi", "gibi", "tebi", "pebi", "exbi", "zebi", "yobi"}

	t := make(map[string]Prefix, len(decimal)+len(binary))
	for _, d := range decimal {
		// ParseFloat rounds correctly for every exponent; math.Pow10 does not
		// for the small negative powers.
		m, _ := strconv.ParseFloat("1e"+strconv.Itoa(d.exp), 64)
		t[d.name] = Prefix{Name: d.name, Multiplier: m, Family: Decimal}
	}
	for i, name := range binary {
		// 1024^k is a power of two and therefore exact in float64.
		t[name] = Prefix{Name: name, Multiplier: math.Ldexp(1, 10*(i+1)), Family: Binary}
	}
	return t
}

// Lookup returns the prefix with the given name.
func Lookup(name string) (Prefix, error) {
	p, ok := table[name]
	if !ok {
		return Prefix{}, fmt.Errorf("%w: %q", ErrUnknownPrefix, name)
	}
	return p, nil
}

// Multiplier returns the multiplier of the named prefix.
func Multiplier(name string) (float64, error) {
	p, err := Lookup(name)
	if err != nil {
		return 0, err
	}
	return p.Multiplier, nil
}

// IsBinary reports whether name is a known IEC prefix.
func IsBinary(name string) bool {
	p, ok := table[name]
	return ok && p.Family == Binary
}

// IsDecimal reports whether name is a known SI prefix, including [None].
func IsDecimal(name string) bool {
	p, ok := table[name]
	return ok && p.Family == Decimal
}
