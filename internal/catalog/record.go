// Package catalog defines the canonical unit record, the prefix-expanded
// input record, their JSON-lines codec and the invariants a finished catalog
// must satisfy.
package catalog

import (
	"sort"
)

// Measurement-system tags.
const (
	SystemSI           = "SI"
	SystemImperial     = "Imperial"
	SystemCGS          = "CGS"
	SystemMetric       = "Metric"
	SystemIEC          = "IEC"
	SystemNautical     = "Nautical"
	SystemAstronomical = "Astronomical"
	SystemAtomic       = "Atomic/Natural"
	SystemInformation  = "Information"
	SystemAncientRoman = "Ancient Roman"
	SystemOther        = "other"
)

// Systems lists every known system tag.
func Systems() []string {
	return []string{
		SystemSI, SystemImperial, SystemCGS, SystemMetric, SystemIEC,
		SystemNautical, SystemAstronomical, SystemAtomic, SystemInformation,
		SystemAncientRoman, SystemOther,
	}
}

// Key is the uniqueness key of a record.
type Key struct {
	Unit     string
	Property string
}

// Record is one canonical unit definition. Records are values; code that
// needs a changed record copies it.
type Record struct {
	Unit             string
	Prefix           string // empty when absent
	Symbol           string
	Plural           string
	Property         string
	ConversionFactor float64
	ConversionOffset *float64 // nil for linear scales
	ReferenceUnit    string   // empty until resolved
	AlternateUnit    string   // empty when absent
	System           string
}

// Key returns the record's (unit, property) key.
func (r Record) Key() Key {
	return Key{Unit: r.Unit, Property: r.Property}
}

// HasOffset reports whether the record is an affine scale.
func (r Record) HasOffset() bool {
	return r.ConversionOffset != nil
}

// WithReference returns a copy of r carrying the given reference unit.
func (r Record) WithReference(ref string) Record {
	r.ConversionOffset = cloneFloat(r.ConversionOffset)
	r.ReferenceUnit = ref
	return r
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	r.ConversionOffset = cloneFloat(r.ConversionOffset)
	return r
}

// PrefixedUnit is a record of the prefix-expansion source: a base unit
// identifier together with the prefix applied to it.
type PrefixedUnit struct {
	Unit          string // base identifier, without the prefix
	Prefix        string // empty for the unprefixed base
	Symbol        string
	Property      string
	AlternateUnit string
	System        string
}

// FullName is the expanded unit name, prefix text followed by the base.
func (p PrefixedUnit) FullName() string {
	return p.Prefix + p.Unit
}

// Sort orders records by (property, unit), keeping the input order of equal
// keys.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Property != b.Property {
			return a.Property < b.Property
		}
		return a.Unit < b.Unit
	})
}

// GroupByProperty returns the records of each property in input order, and
// the property names in sorted order.
func GroupByProperty(records []Record) (map[string][]Record, []string) {
	groups := make(map[string][]Record)
	var names []string
	for _, r := range records {
		if _, ok := groups[r.Property]; !ok {
			names = append(names, r.Property)
		}
		groups[r.Property] = append(groups[r.Property], r)
	}
	sort.Strings(names)
	return groups, names
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
