package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/unitcat/internal/catalog"
	"github.com/JonMunkholm/unitcat/internal/curated"
	"github.com/JonMunkholm/unitcat/internal/diag"
)

type overrideMap map[string]string

func (m overrideMap) ReferenceOverride(p string) (string, bool) {
	u, ok := m[p]
	return u, ok
}

func rec(unit, prop string, cf float64) catalog.Record {
	return catalog.Record{Unit: unit, Property: prop, ConversionFactor: cf, System: catalog.SystemSI}
}

func TestClosest(t *testing.T) {
	tests := []struct {
		name  string
		group []catalog.Record
		want  string
	}{
		{
			name:  "nearest to one",
			group: []catalog.Record{rec("kilometer", "length", 1000), rec("meter", "length", 1), rec("foot", "length", 0.3048)},
			want:  "meter",
		},
		{
			name:  "tie broken by name",
			group: []catalog.Record{rec("watt second", "energy", 1), rec("joule", "energy", 1), rec("newton meter", "energy", 1)},
			want:  "joule",
		},
		{
			name: "offset units skipped",
			group: []catalog.Record{
				{Unit: "degree Celsius", Property: "t", ConversionFactor: 1, ConversionOffset: catalog.Float(273.15)},
				rec("kelvin", "t", 1),
				rec("millikelvin", "t", 0.001),
			},
			want: "kelvin",
		},
		{
			name: "all offset falls back to whole group",
			group: []catalog.Record{
				{Unit: "degree Fahrenheit", Property: "t", ConversionFactor: 0.5555555555555556, ConversionOffset: catalog.Float(255.37)},
				{Unit: "degree Celsius", Property: "t", ConversionFactor: 1, ConversionOffset: catalog.Float(273.15)},
			},
			want: "degree Celsius",
		},
		{
			name:  "below and above one",
			group: []catalog.Record{rec("a", "x", 1.5), rec("b", "x", 0.6)},
			want:  "b",
		},
		{
			name:  "empty",
			group: nil,
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Closest(tt.group))
		})
	}
}

func TestResolve(t *testing.T) {
	records := []catalog.Record{
		rec("kilojoule", "energy", 1000),
		rec("watt second", "energy", 1),
		rec("joule", "energy", 1),
		rec("meter", "length", 1),
		rec("foot", "length", 0.3048),
	}
	c := diag.NewCollector(nil)
	out, refs := New(overrideMap{"energy": "joule"}).Resolve(records, c)

	require.Len(t, out, len(records))
	assert.Equal(t, map[string]string{"energy": "joule", "length": "meter"}, refs)
	for i, r := range out {
		assert.Equal(t, records[i].Unit, r.Unit, "order is kept")
		assert.Equal(t, refs[r.Property], r.ReferenceUnit)
		assert.Empty(t, records[i].ReferenceUnit, "input is not modified")
	}
	assert.Zero(t, c.Len())
}

func TestResolveMissingOverrideFallsBack(t *testing.T) {
	records := []catalog.Record{rec("liter", "volume", 0.001), rec("kiloliter", "volume", 1)}
	c := diag.NewCollector(nil)

	_, refs := New(overrideMap{"volume": "cubic meter"}).Resolve(records, c)
	assert.Equal(t, "kiloliter", refs["volume"])

	all := c.All()
	require.Len(t, all, 1)
	assert.Equal(t, diag.CodeOverrideNotFound, all[0].Code)
	assert.Equal(t, diag.Warning, all[0].Severity)
	assert.Equal(t, "cubic meter", all[0].Identifier)
}

func TestCuratedOverrides(t *testing.T) {
	tables, err := curated.Default()
	require.NoError(t, err)

	records := []catalog.Record{
		rec("byte", "information", 1),
		rec("bit", "information", 0.125),
		rec("shannon", "information", 0.125),
		rec("octet", "information", 1),
	}
	_, refs := New(tables).Resolve(records, diag.NewCollector(nil))
	assert.Equal(t, "byte", refs["information"])
}
