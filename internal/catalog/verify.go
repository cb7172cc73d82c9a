package catalog

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/JonMunkholm/unitcat/internal/diag"
)

// Violation is a broken catalog invariant.
type Violation struct {
	Code     diag.Code
	Unit     string
	Property string
	Message  string
}

func (v Violation) Diagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Code:       v.Code,
		Severity:   diag.Fatal,
		Property:   v.Property,
		Identifier: v.Unit,
		Message:    v.Message,
	}
}

// Verify checks the invariants of a finished catalog and returns every
// violation found, in a deterministic order:
//   - (unit, property) is unique
//   - all records of a property share one reference unit
//   - that reference unit is itself a unit of the property
//   - every conversion factor is positive and finite
func Verify(records []Record) []Violation {
	var out []Violation

	seen := make(map[Key]int, len(records))
	for _, r := range records {
		seen[r.Key()]++
		if !(r.ConversionFactor > 0) || math.IsInf(r.ConversionFactor, 0) {
			out = append(out, Violation{
				Code:     diag.CodeInvalidFactor,
				Unit:     r.Unit,
				Property: r.Property,
				Message:  fmt.Sprintf("conversion_factor %v is not positive and finite", r.ConversionFactor),
			})
		}
		if r.ConversionOffset != nil && (math.IsNaN(*r.ConversionOffset) || math.IsInf(*r.ConversionOffset, 0)) {
			out = append(out, Violation{
				Code:     diag.CodeInvalidFactor,
				Unit:     r.Unit,
				Property: r.Property,
				Message:  "conversion_offset is not finite",
			})
		}
	}

	var dups []Key
	for k, n := range seen {
		if n > 1 {
			dups = append(dups, k)
		}
	}
	sort.Slice(dups, func(i, j int) bool {
		if dups[i].Property != dups[j].Property {
			return dups[i].Property < dups[j].Property
		}
		return dups[i].Unit < dups[j].Unit
	})
	for _, k := range dups {
		out = append(out, Violation{
			Code:     diag.CodeDuplicateKey,
			Unit:     k.Unit,
			Property: k.Property,
			Message:  fmt.Sprintf("%d records share this key", seen[k]),
		})
	}

	groups, names := GroupByProperty(records)
	for _, prop := range names {
		group := groups[prop]

		refs := make(map[string]struct{})
		units := make(map[string]struct{}, len(group))
		for _, r := range group {
			refs[r.ReferenceUnit] = struct{}{}
			units[r.Unit] = struct{}{}
		}

		if len(refs) > 1 {
			list := make([]string, 0, len(refs))
			for ref := range refs {
				list = append(list, fmt.Sprintf("%q", ref))
			}
			sort.Strings(list)
			out = append(out, Violation{
				Code:     diag.CodeSeveralReferences,
				Property: prop,
				Message:  "reference units " + strings.Join(list, ", "),
			})
			continue
		}

		for ref := range refs {
			if _, ok := units[ref]; !ok {
				out = append(out, Violation{
					Code:     diag.CodeDanglingReference,
					Unit:     ref,
					Property: prop,
					Message:  fmt.Sprintf("reference unit %q is not a unit of %q", ref, prop),
				})
			}
		}
	}

	return out
}
