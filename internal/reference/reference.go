// Package reference picks the reference unit of every property and stamps it
// onto the property's records.
package reference

import (
	"fmt"
	"math"
	"sort"

	"github.com/JonMunkholm/unitcat/internal/catalog"
	"github.com/JonMunkholm/unitcat/internal/curated"
	"github.com/JonMunkholm/unitcat/internal/diag"
)

// Overrides supplies curated reference units by property.
type Overrides interface {
	ReferenceOverride(property string) (string, bool)
}

var _ Overrides = (*curated.Tables)(nil)

// Resolver selects reference units.
type Resolver struct {
	overrides Overrides
}

// New returns a Resolver consulting overrides first.
func New(overrides Overrides) *Resolver {
	return &Resolver{overrides: overrides}
}

// Resolve returns a copy of records in the same order, each carrying the
// reference unit of its property, together with the chosen unit per
// property. An override that names a unit missing from its property is
// reported to c and the heuristic choice is used instead.
func (r *Resolver) Resolve(records []catalog.Record, c *diag.Collector) ([]catalog.Record, map[string]string) {
	groups, names := catalog.GroupByProperty(records)

	refs := make(map[string]string, len(names))
	for _, prop := range names {
		refs[prop] = r.choose(prop, groups[prop], c)
	}

	out := make([]catalog.Record, len(records))
	for i, rec := range records {
		out[i] = rec.WithReference(refs[rec.Property])
	}
	return out, refs
}

func (r *Resolver) choose(prop string, group []catalog.Record, c *diag.Collector) string {
	if r.overrides != nil {
		if ref, ok := r.overrides.ReferenceOverride(prop); ok {
			if contains(group, ref) {
				return ref
			}
			fallback := Closest(group)
			c.Add(diag.Diagnostic{
				Code:       diag.CodeOverrideNotFound,
				Property:   prop,
				Identifier: ref,
				Message:    fmt.Sprintf("override %q is not a unit of %q, using %q", ref, prop, fallback),
			})
			return fallback
		}
	}
	return Closest(group)
}

// Closest returns the unit whose conversion factor is nearest to 1.0 among
// the records without an offset, or among all records when every one has an
// offset. Ties go to the unit name that sorts first.
func Closest(group []catalog.Record) string {
	var candidates []catalog.Record
	for _, rec := range group {
		if !rec.HasOffset() {
			candidates = append(candidates, rec)
		}
	}
	if len(candidates) == 0 {
		candidates = append(candidates, group...)
	}
	if len(candidates) == 0 {
		return ""
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Unit < candidates[j].Unit
	})

	best := candidates[0]
	bestDist := math.Abs(best.ConversionFactor - 1)
	for _, rec := range candidates[1:] {
		if d := math.Abs(rec.ConversionFactor - 1); d < bestDist {
			best, bestDist = rec, d
		}
	}
	return best.Unit
}

func contains(group []catalog.Record, unit string) bool {
	for _, rec := range group {
		if rec.Unit == unit {
			return true
		}
	}
	return false
}
