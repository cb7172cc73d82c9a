// Package classify assigns every library unit to exactly one measurement
// system.
//
// Classification is an ordered chain of rules. The first rule that matches
// decides; several units satisfy more than one rule, so the order below is
// part of the behaviour:
//
//  1. historical section of the source file
//  2. any binary (IEC) prefix in the expression
//  3. curated Imperial, CGS, Nautical and Astronomical sets
//  4. curated information units, for the information property only
//  5. curated atomic/natural units and their naming patterns
//  6. sidereal and tropical suffixes
//  7. curated metric non-SI units
//  8. expressions made only of decimal prefixes
//  9. hard-coded identifiers, for expressions without prefixes
//  10. "other"
package classify

import (
	"regexp"
	"strings"

	"github.com/JonMunkholm/unitcat/internal/catalog"
	"github.com/JonMunkholm/unitcat/internal/curated"
	"github.com/JonMunkholm/unitcat/internal/expr"
	"github.com/JonMunkholm/unitcat/internal/prefix"
)

// InformationProperty is the property whose units get the Information tag.
const InformationProperty = "information"

// Input is what the classifier knows about one entry.
type Input struct {
	Identifier string
	// Expression is the full expression text of the entry, offset included.
	Expression string
	Property   string
	// Prefixes are the prefix names referenced by Expression.
	Prefixes []string
	// Historical is the system tag of the historical section the entry
	// sits in, empty outside such a section.
	Historical string
}

type rule struct {
	name  string
	match func(in Input) (string, bool)
}

// Classifier runs the rule chain against a fixed set of curated tables.
type Classifier struct {
	tables *curated.Tables
	rules  []rule
}

var operatorsAndSpace = regexp.MustCompile(`[*/+\-\s]`)

// New returns a Classifier backed by tables.
func New(tables *curated.Tables) *Classifier {
	c := &Classifier{tables: tables}
	c.rules = []rule{
		{"historical", c.historical},
		{"binary-prefix", c.binaryPrefix},
		{"curated-set", c.curatedSet},
		{"information", c.information},
		{"atomic", c.atomic},
		{"sidereal-tropical", c.siderealTropical},
		{"metric", c.metric},
		{"decimal-prefix", c.decimalPrefix},
		{"special-identifier", c.specialIdentifier},
	}
	return c
}

// Classify returns the system tag for in.
func (c *Classifier) Classify(in Input) string {
	system, _ := c.Explain(in)
	return system
}

// Explain returns the system tag for in and the name of the rule that
// decided it ("default" when none matched).
func (c *Classifier) Explain(in Input) (system, ruleName string) {
	for _, r := range c.rules {
		if s, ok := r.match(in); ok {
			return s, r.name
		}
	}
	return catalog.SystemOther, "default"
}

func (c *Classifier) historical(in Input) (string, bool) {
	return in.Historical, in.Historical != ""
}

func (c *Classifier) binaryPrefix(in Input) (string, bool) {
	for _, p := range in.Prefixes {
		if prefix.IsBinary(p) {
			return catalog.SystemIEC, true
		}
	}
	return "", false
}

func (c *Classifier) curatedSet(in Input) (string, bool) {
	sets := []struct {
		set    curated.SetName
		system string
	}{
		{curated.SetImperial, catalog.SystemImperial},
		{curated.SetCGS, catalog.SystemCGS},
		{curated.SetNautical, catalog.SystemNautical},
		{curated.SetAstronomical, catalog.SystemAstronomical},
	}
	for _, s := range sets {
		if c.tables.InSet(s.set, in.Identifier) {
			return s.system, true
		}
	}
	return "", false
}

func (c *Classifier) information(in Input) (string, bool) {
	if in.Property == InformationProperty && c.tables.InSet(curated.SetInformation, in.Identifier) {
		return catalog.SystemInformation, true
	}
	return "", false
}

func (c *Classifier) atomic(in Input) (string, bool) {
	if c.tables.InSet(curated.SetAtomic, in.Identifier) {
		return catalog.SystemAtomic, true
	}
	for _, p := range c.tables.AtomicPrefixes() {
		if p.Applies(in.Identifier, in.Property) {
			return catalog.SystemAtomic, true
		}
	}
	return "", false
}

func (c *Classifier) siderealTropical(in Input) (string, bool) {
	for _, s := range c.tables.AstronomicalSuffixes() {
		if strings.HasSuffix(in.Identifier, s) {
			return catalog.SystemAstronomical, true
		}
	}
	return "", false
}

func (c *Classifier) metric(in Input) (string, bool) {
	if c.tables.InSet(curated.SetMetric, in.Identifier) {
		return catalog.SystemMetric, true
	}
	return "", false
}

// decimalPrefix matches expressions built only from decimal prefix
// references, such as prefix!(none) / prefix!(kilo), optionally combined
// with an allowed literal like the 8.0 of bits per byte.
func (c *Classifier) decimalPrefix(in Input) (string, bool) {
	if len(in.Prefixes) == 0 {
		return "", false
	}
	for _, p := range in.Prefixes {
		if !prefix.IsDecimal(p) {
			return "", false
		}
	}
	residual := operatorsAndSpace.ReplaceAllString(expr.StripPrefixes(in.Expression), "")
	if residual == "" || c.tables.IsDecimalResidual(residual) {
		return catalog.SystemSI, true
	}
	return "", false
}

func (c *Classifier) specialIdentifier(in Input) (string, bool) {
	if len(in.Prefixes) > 0 {
		return "", false
	}
	for _, s := range c.tables.SpecialIdentifiers() {
		if s.Matches(in.Identifier, in.Property) {
			return s.System, true
		}
	}
	return "", false
}
