// Package curated holds the hand-maintained tables that steer classification,
// reference-unit selection and reconciliation: identifier sets per measurement
// system, historical-section markers, reference-unit overrides, property-name
// aliases, special-case conversions and irregular plurals.
//
// Tables are decoded once from YAML (the embedded curated.yaml by default) and
// are read-only afterwards. Every accessor returns copies or scalar values so
// callers cannot mutate shared state.
package curated

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed curated.yaml
var embedded []byte

// ErrInvalid is returned when a curated document fails validation.
var ErrInvalid = errors.New("invalid curated tables")

// SetName identifies one of the curated identifier sets.
type SetName string

const (
	SetImperial     SetName = "imperial"
	SetCGS          SetName = "cgs"
	SetNautical     SetName = "nautical"
	SetAstronomical SetName = "astronomical"
	SetInformation  SetName = "information"
	SetAtomic       SetName = "atomic"
	SetMetric       SetName = "metric"
)

// Marker tags every entry that follows a matching whole-line comment.
type Marker struct {
	Pattern *regexp.Regexp
	System  string
}

// SpecialIdentifier assigns a system to an identifier (or identifier prefix),
// optionally only within one property.
type SpecialIdentifier struct {
	Identifier       string
	IdentifierPrefix string
	Property         string
	System           string
}

// Matches reports whether the rule applies to identifier within property.
func (s SpecialIdentifier) Matches(identifier, property string) bool {
	if s.Property != "" && s.Property != property {
		return false
	}
	if s.IdentifierPrefix != "" {
		return len(identifier) >= len(s.IdentifierPrefix) && identifier[:len(s.IdentifierPrefix)] == s.IdentifierPrefix
	}
	return s.Identifier == identifier
}

// AtomicPrefix is an identifier prefix naming an atomic or natural unit. It
// does not apply within ExcludeProperty.
type AtomicPrefix struct {
	Prefix          string
	ExcludeProperty string
}

// Applies reports whether identifier within property carries the prefix.
func (a AtomicPrefix) Applies(identifier, property string) bool {
	if a.ExcludeProperty != "" && a.ExcludeProperty == property {
		return false
	}
	return strings.HasPrefix(identifier, a.Prefix)
}

// Conversion is a hand-specified conversion used when reconciliation cannot
// derive one from the library source.
type Conversion struct {
	Factor        float64
	Offset        *float64
	ReferenceUnit string
	// Property is the property name the synthesized record is filed under.
	Property string
}

type conversionKey struct {
	unit     string
	property string
}

// Tables is the decoded, immutable set of curated tables.
type Tables struct {
	historical   []Marker
	sets         map[SetName]map[string]struct{}
	atomicPrefix []AtomicPrefix
	astroSuffix  []string
	residuals    map[string]struct{}
	specials     []SpecialIdentifier
	overrides    map[string]string
	aliases      map[string]string
	conversions  map[conversionKey]Conversion
	plurals      map[string]string
}

type document struct {
	Historical []struct {
		Pattern string `yaml:"pattern"`
		System  string `yaml:"system"`
	} `yaml:"historical"`
	Systems              map[SetName][]string `yaml:"systems"`
	AtomicPrefixes       []struct {
		Prefix          string `yaml:"prefix"`
		ExcludeProperty string `yaml:"exclude_property"`
	} `yaml:"atomic_prefixes"`
	AstronomicalSuffixes []string             `yaml:"astronomical_suffixes"`
	DecimalResiduals     []string             `yaml:"decimal_residuals"`
	SpecialIdentifiers   []struct {
		Identifier       string `yaml:"identifier"`
		IdentifierPrefix string `yaml:"identifier_prefix"`
		Property         string `yaml:"property"`
		System           string `yaml:"system"`
	} `yaml:"special_identifiers"`
	ReferenceOverrides map[string]string `yaml:"reference_overrides"`
	PropertyAliases    map[string]string `yaml:"property_aliases"`
	SpecialConversions []struct {
		Unit             string   `yaml:"unit"`
		Property         string   `yaml:"property"`
		ConversionFactor float64  `yaml:"conversion_factor"`
		ConversionOffset *float64 `yaml:"conversion_offset"`
		ReferenceUnit    string   `yaml:"reference_unit"`
		OutputProperty   string   `yaml:"output_property"`
	} `yaml:"special_conversions"`
	SpecialPlurals map[string]string `yaml:"special_plurals"`
}

var loadDefault = sync.OnceValues(func() (*Tables, error) {
	return Load(bytes.NewReader(embedded))
})

// Default returns the tables decoded from the embedded curated.yaml.
func Default() (*Tables, error) {
	return loadDefault()
}

// LoadFile decodes tables from a YAML file on disk.
func LoadFile(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open curated tables: %w", err)
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Load decodes and validates a curated YAML document.
func Load(r io.Reader) (*Tables, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode curated tables: %w", err)
	}
	return fromDocument(doc)
}

func fromDocument(doc document) (*Tables, error) {
	var errs []string

	t := &Tables{
		sets:         make(map[SetName]map[string]struct{}, len(doc.Systems)),
		astroSuffix:  append([]string(nil), doc.AstronomicalSuffixes...),
		residuals:    toSet(doc.DecimalResiduals),
		overrides:    copyMap(doc.ReferenceOverrides),
		aliases:      make(map[string]string, len(doc.PropertyAliases)),
		conversions:  make(map[conversionKey]Conversion, len(doc.SpecialConversions)),
		plurals:      copyMap(doc.SpecialPlurals),
	}

	for i, a := range doc.AtomicPrefixes {
		if a.Prefix == "" {
			errs = append(errs, fmt.Sprintf("atomic_prefixes[%d]: prefix is required", i))
			continue
		}
		t.atomicPrefix = append(t.atomicPrefix, AtomicPrefix{Prefix: a.Prefix, ExcludeProperty: a.ExcludeProperty})
	}

	for i, h := range doc.Historical {
		re, err := regexp.Compile(h.Pattern)
		if err != nil {
			errs = append(errs, fmt.Sprintf("historical[%d]: %v", i, err))
			continue
		}
		if h.System == "" {
			errs = append(errs, fmt.Sprintf("historical[%d]: system is required", i))
			continue
		}
		t.historical = append(t.historical, Marker{Pattern: re, System: h.System})
	}

	for name, ids := range doc.Systems {
		switch name {
		case SetImperial, SetCGS, SetNautical, SetAstronomical, SetInformation, SetAtomic, SetMetric:
			t.sets[name] = toSet(ids)
		default:
			errs = append(errs, fmt.Sprintf("systems: unknown set %q", name))
		}
	}

	for i, s := range doc.SpecialIdentifiers {
		if (s.Identifier == "") == (s.IdentifierPrefix == "") {
			errs = append(errs, fmt.Sprintf("special_identifiers[%d]: exactly one of identifier or identifier_prefix is required", i))
			continue
		}
		if s.System == "" {
			errs = append(errs, fmt.Sprintf("special_identifiers[%d]: system is required", i))
			continue
		}
		t.specials = append(t.specials, SpecialIdentifier(s))
	}

	for from, to := range doc.PropertyAliases {
		// Identity aliases add nothing to the lookup order.
		if from != to {
			t.aliases[from] = to
		}
	}

	for i, c := range doc.SpecialConversions {
		key := conversionKey{unit: c.Unit, property: c.Property}
		switch {
		case c.Unit == "" || c.Property == "":
			errs = append(errs, fmt.Sprintf("special_conversions[%d]: unit and property are required", i))
			continue
		case !(c.ConversionFactor > 0):
			errs = append(errs, fmt.Sprintf("special_conversions[%d] (%s, %s): conversion_factor must be positive", i, c.Unit, c.Property))
			continue
		case c.ReferenceUnit == "":
			errs = append(errs, fmt.Sprintf("special_conversions[%d] (%s, %s): reference_unit is required", i, c.Unit, c.Property))
			continue
		}
		if _, dup := t.conversions[key]; dup {
			errs = append(errs, fmt.Sprintf("special_conversions[%d]: duplicate entry for (%s, %s)", i, c.Unit, c.Property))
			continue
		}
		out := c.OutputProperty
		if out == "" {
			out = c.Property
		}
		t.conversions[key] = Conversion{
			Factor:        c.ConversionFactor,
			Offset:        c.ConversionOffset,
			ReferenceUnit: c.ReferenceUnit,
			Property:      out,
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return nil, fmt.Errorf("%w:\n  - %s", ErrInvalid, joinLines(errs))
	}
	return t, nil
}

// HistoricalMarkers returns the historical-section markers in document order.
func (t *Tables) HistoricalMarkers() []Marker {
	return append([]Marker(nil), t.historical...)
}

// InSet reports whether identifier belongs to the named set.
func (t *Tables) InSet(name SetName, identifier string) bool {
	_, ok := t.sets[name][identifier]
	return ok
}

// AtomicPrefixes returns the identifier prefixes that mark atomic or natural units.
func (t *Tables) AtomicPrefixes() []AtomicPrefix {
	return append([]AtomicPrefix(nil), t.atomicPrefix...)
}

// AstronomicalSuffixes returns identifier suffixes that mark sidereal or
// tropical time units.
func (t *Tables) AstronomicalSuffixes() []string {
	return append([]string(nil), t.astroSuffix...)
}

// IsDecimalResidual reports whether lit is an allowed non-prefix literal in an
// otherwise pure decimal-prefix expression.
func (t *Tables) IsDecimalResidual(lit string) bool {
	_, ok := t.residuals[lit]
	return ok
}

// SpecialIdentifiers returns the hard-coded identifier rules in order.
func (t *Tables) SpecialIdentifiers() []SpecialIdentifier {
	return append([]SpecialIdentifier(nil), t.specials...)
}

// ReferenceOverride returns the curated reference unit for property.
func (t *Tables) ReferenceOverride(property string) (string, bool) {
	u, ok := t.overrides[property]
	return u, ok
}

// PropertyAlias returns the library-side name for a prefix-expansion property.
func (t *Tables) PropertyAlias(property string) (string, bool) {
	a, ok := t.aliases[property]
	return a, ok
}

// SpecialConversion returns the curated conversion for (unit, property).
func (t *Tables) SpecialConversion(unit, property string) (Conversion, bool) {
	c, ok := t.conversions[conversionKey{unit: unit, property: property}]
	if ok && c.Offset != nil {
		off := *c.Offset
		c.Offset = &off
	}
	return c, ok
}

// Plural returns the plural of a unit name: the curated irregular form when
// one exists, the name itself when it ends in s, x or z, and name+"s"
// otherwise.
func (t *Tables) Plural(name string) string {
	if p, ok := t.plurals[name]; ok {
		return p
	}
	if name == "" {
		return name
	}
	switch name[len(name)-1] {
	case 's', 'x', 'z':
		return name
	}
	return name + "s"
}

func toSet(items []string) map[string]struct{} {
	s := make(map[string]struct{}, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func joinLines(lines []string) string {
	var b bytes.Buffer
	for i, l := range lines {
		if i > 0 {
			b.WriteString("\n  - ")
		}
		b.WriteString(l)
	}
	return b.String()
}
