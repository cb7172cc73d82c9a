// Package reconcile merges the prefix-expansion catalog into the resolved
// library catalog.
//
// Every prefixed unit is matched by (full name, property), trying the
// property as written and then its curated alias. A match enriches the
// library record with the prefix and alternate name. Unmatched prefixed
// units are synthesized, deriving their conversion from, in order:
//
//	a. a curated special conversion for the full name
//	b. a curated special conversion for the base name, scaled by the prefix
//	c. the base factor learned from a matched sibling with the same base
//	d. the same, under the aliased property
//
// A prefixed unit none of these resolve is a fatal diagnostic. Library
// records nothing matched pass through without prefix or alternate name.
package reconcile

import (
	"github.com/JonMunkholm/unitcat/internal/catalog"
	"github.com/JonMunkholm/unitcat/internal/curated"
	"github.com/JonMunkholm/unitcat/internal/diag"
	"github.com/JonMunkholm/unitcat/internal/prefix"
)

// Tables is the curated data reconciliation consults.
type Tables interface {
	PropertyAlias(property string) (string, bool)
	SpecialConversion(unit, property string) (curated.Conversion, bool)
	Plural(name string) string
}

var _ Tables = (*curated.Tables)(nil)

// Result is the reconciled catalog, sorted by (property, unit).
type Result struct {
	Records     []catalog.Record
	Matched     int
	Synthesized int
	Passthrough int
	// Unresolved counts prefixed units no conversion could be derived for.
	Unresolved int
}

// Reconciler merges catalogs using a fixed set of curated tables.
type Reconciler struct {
	tables Tables
}

// New returns a Reconciler backed by tables.
func New(tables Tables) *Reconciler {
	return &Reconciler{tables: tables}
}

// baseInfo is what a matched prefixed unit teaches about its base.
type baseInfo struct {
	property  string
	reference string
	factor    float64 // conversion factor of the unprefixed base
}

type derivation struct {
	property  string
	reference string
	factor    float64
	offset    *float64
}

// Reconcile merges prefixed into library. library must already carry
// reference units. Problems are recorded in c; the returned records never
// contain an unresolved conversion.
func (r *Reconciler) Reconcile(prefixed []catalog.PrefixedUnit, library []catalog.Record, c *diag.Collector) Result {
	index := make(map[catalog.Key][]int, len(library))
	for i, rec := range library {
		index[rec.Key()] = append(index[rec.Key()], i)
	}

	noneMult, _ := prefix.Multiplier(prefix.None)

	var (
		res       Result
		matched   []catalog.Record
		usedLib   = make([]bool, len(library))
		matchedPU = make([]bool, len(prefixed))
		skipped   = make([]bool, len(prefixed))
		mults     = make([]float64, len(prefixed))
		bases     = make(map[catalog.Key]baseInfo)
	)

	for i, pu := range prefixed {
		m, err := r.multiplier(pu)
		if err != nil {
			skipped[i] = true
			c.Add(diag.Diagnostic{
				Code:       diag.CodeUnknownPrefixedRef,
				Property:   pu.Property,
				Identifier: pu.FullName(),
				Message:    err.Error(),
			})
			continue
		}
		mults[i] = m
	}

	for i, pu := range prefixed {
		if skipped[i] {
			continue
		}
		full := pu.FullName()
		for _, prop := range r.candidates(pu.Property) {
			hits, ok := index[catalog.Key{Unit: full, Property: prop}]
			if !ok {
				continue
			}
			matchedPU[i] = true

			for _, li := range hits {
				if usedLib[li] {
					c.Addf(diag.CodeRepeatedMatch, diag.Diagnostic{Property: prop, Identifier: full},
						"%q (%s) already matched; later match ignored", full, prop)
					continue
				}
				usedLib[li] = true
				matched = append(matched, enrich(library[li], pu))
			}

			key := catalog.Key{Unit: pu.Unit, Property: pu.Property}
			if _, ok := bases[key]; !ok {
				first := library[hits[0]]
				bases[key] = baseInfo{
					property:  prop,
					reference: first.ReferenceUnit,
					factor:    first.ConversionFactor / mults[i],
				}
			}
			break
		}
	}

	var synthesized []catalog.Record
	for i, pu := range prefixed {
		if skipped[i] || matchedPU[i] {
			continue
		}
		d, ok := r.derive(pu, mults[i], noneMult, bases)
		if !ok {
			res.Unresolved++
			c.Addf(diag.CodeUnresolved, diag.Diagnostic{Property: pu.Property, Identifier: pu.FullName()},
				"no conversion for %q (%s): no library match, special conversion or matched sibling of %q", pu.FullName(), pu.Property, pu.Unit)
			continue
		}
		synthesized = append(synthesized, catalog.Record{
			Unit:             pu.FullName(),
			Prefix:           pu.Prefix,
			Symbol:           pu.Symbol,
			Plural:           r.tables.Plural(pu.FullName()),
			Property:         d.property,
			ConversionFactor: d.factor,
			ConversionOffset: d.offset,
			ReferenceUnit:    d.reference,
			AlternateUnit:    pu.AlternateUnit,
			System:           pu.System,
		})
	}

	var passthrough []catalog.Record
	for i, rec := range library {
		if usedLib[i] {
			continue
		}
		rec = rec.Clone()
		rec.Prefix = ""
		rec.AlternateUnit = ""
		passthrough = append(passthrough, rec)
	}

	res.Matched = len(matched)
	res.Synthesized = len(synthesized)
	res.Passthrough = len(passthrough)

	all := make([]catalog.Record, 0, len(matched)+len(synthesized)+len(passthrough))
	all = append(all, matched...)
	all = append(all, synthesized...)
	all = append(all, passthrough...)
	catalog.Sort(all)
	res.Records = all
	return res
}

func (r *Reconciler) multiplier(pu catalog.PrefixedUnit) (float64, error) {
	if pu.Prefix == "" {
		return 1, nil
	}
	return prefix.Multiplier(pu.Prefix)
}

// candidates returns the library property names to try for property.
func (r *Reconciler) candidates(property string) []string {
	if alias, ok := r.tables.PropertyAlias(property); ok && alias != property {
		return []string{property, alias}
	}
	return []string{property}
}

func (r *Reconciler) derive(pu catalog.PrefixedUnit, mult, noneMult float64, bases map[catalog.Key]baseInfo) (derivation, bool) {
	if conv, ok := r.tables.SpecialConversion(pu.FullName(), pu.Property); ok {
		return derivation{
			property:  conv.Property,
			reference: conv.ReferenceUnit,
			factor:    conv.Factor,
			offset:    conv.Offset,
		}, true
	}

	if conv, ok := r.tables.SpecialConversion(pu.Unit, pu.Property); ok {
		return derivation{
			property:  conv.Property,
			reference: conv.ReferenceUnit,
			factor:    conv.Factor * (mult / noneMult),
		}, true
	}

	for _, prop := range r.candidates(pu.Property) {
		if info, ok := bases[catalog.Key{Unit: pu.Unit, Property: prop}]; ok {
			return derivation{
				property:  info.property,
				reference: info.reference,
				factor:    info.factor * mult,
			}, true
		}
	}
	return derivation{}, false
}

func enrich(lib catalog.Record, pu catalog.PrefixedUnit) catalog.Record {
	out := lib.Clone()
	out.Prefix = pu.Prefix
	out.AlternateUnit = pu.AlternateUnit
	return out
}
