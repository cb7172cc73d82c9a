package build

import (
	"log/slog"
	"sort"

	"github.com/JonMunkholm/unitcat/internal/catalog"
	"github.com/JonMunkholm/unitcat/internal/reconcile"
)

// Summary counts what a build produced.
type Summary struct {
	Library     int // records extracted from the unit-definition sources
	Prefixed    int // records read from the prefix-expanded catalog
	Total       int
	Matched     int
	Synthesized int
	Passthrough int
	Unresolved  int
	ByProperty  map[string]int
	BySystem    map[string]int
}

func summarize(library, prefixed int, res reconcile.Result) Summary {
	s := Summary{
		Library:     library,
		Prefixed:    prefixed,
		Total:       len(res.Records),
		Matched:     res.Matched,
		Synthesized: res.Synthesized,
		Passthrough: res.Passthrough,
		Unresolved:  res.Unresolved,
		ByProperty:  make(map[string]int),
		BySystem:    make(map[string]int),
	}
	for _, r := range res.Records {
		s.ByProperty[r.Property]++
		s.BySystem[r.System]++
	}
	return s
}

// Log writes the summary: one info line with the totals, then one debug
// line per property and one info line per system in catalog order.
func (s Summary) Log(logger *slog.Logger) {
	logger.Info("build summary",
		"library", s.Library,
		"prefixed", s.Prefixed,
		"total", s.Total,
		"matched", s.Matched,
		"synthesized", s.Synthesized,
		"passthrough", s.Passthrough,
		"unresolved", s.Unresolved,
		"properties", len(s.ByProperty),
	)

	props := make([]string, 0, len(s.ByProperty))
	for p := range s.ByProperty {
		props = append(props, p)
	}
	sort.Strings(props)
	for _, p := range props {
		logger.Debug("units per property", "property", p, "units", s.ByProperty[p])
	}

	for _, sys := range catalog.Systems() {
		if n := s.BySystem[sys]; n > 0 {
			logger.Info("units per system", "system", sys, "units", n)
		}
	}
}
