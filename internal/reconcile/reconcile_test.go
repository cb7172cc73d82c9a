package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/unitcat/internal/catalog"
	"github.com/JonMunkholm/unitcat/internal/curated"
	"github.com/JonMunkholm/unitcat/internal/diag"
)

func lib(unit, prop string, cf float64, ref, system string) catalog.Record {
	return catalog.Record{
		Unit:             unit,
		Symbol:           unit[:1],
		Plural:           unit + "s",
		Property:         prop,
		ConversionFactor: cf,
		ReferenceUnit:    ref,
		System:           system,
	}
}

func pu(prefixName, base, prop string) catalog.PrefixedUnit {
	return catalog.PrefixedUnit{
		Unit:     base,
		Prefix:   prefixName,
		Symbol:   prefixName + base,
		Property: prop,
		System:   catalog.SystemSI,
	}
}

func newReconciler(t *testing.T) *Reconciler {
	t.Helper()
	tables, err := curated.Default()
	require.NoError(t, err)
	return New(tables)
}

func index(records []catalog.Record) map[catalog.Key]catalog.Record {
	out := make(map[catalog.Key]catalog.Record, len(records))
	for _, r := range records {
		out[r.Key()] = r
	}
	return out
}

func TestReconcile(t *testing.T) {
	library := []catalog.Record{
		lib("meter", "length", 1, "meter", catalog.SystemSI),
		lib("foot", "length", 0.3048, "meter", catalog.SystemImperial),
		lib("gram", "mass", 0.001, "kilogram", catalog.SystemSI),
		lib("kilogram", "mass", 1, "kilogram", catalog.SystemSI),
		lib("radian", "angle", 1, "radian", catalog.SystemSI),
		lib("second", "time", 1, "second", catalog.SystemSI),
		lib("kelvin", "thermodynamic temperature", 1, "kelvin", catalog.SystemSI),
		lib("ohm", "electrical resistance", 1, "ohm", catalog.SystemSI),
	}
	alt := pu("", "meter", "length")
	alt.AlternateUnit = "metre"

	prefixed := []catalog.PrefixedUnit{
		alt,
		pu("kilo", "meter", "length"),
		pu("milli", "meter", "length"),
		pu("", "gram", "mass"),
		pu("kilo", "gram", "mass"),
		pu("milli", "gram", "mass"),
		pu("", "radian", "plane angle"),
		pu("milli", "radian", "plane angle"),
		pu("", "arcminute", "plane angle"),
		pu("", "minute", "time"),
		pu("", "degree Celsius", "temperature"),
		pu("", "tonne", "mass"),
		pu("kilo", "tonne", "mass"),
		pu("", "ohm", "electrical resistance"),
		pu("kilo", "ohm", "electric resistance"),
		pu("", "hertz", "frequency"),
	}

	c := diag.NewCollector(nil)
	res := newReconciler(t).Reconcile(prefixed, library, c)

	// hertz has nothing to derive from.
	require.Len(t, c.Fatals(), 1)
	assert.Equal(t, diag.CodeUnresolved, c.Fatals()[0].Code)
	assert.Equal(t, "hertz", c.Fatals()[0].Identifier)
	assert.Equal(t, 1, res.Unresolved)

	assert.Equal(t, 5, res.Matched)
	assert.Equal(t, 10, res.Synthesized)
	assert.Equal(t, 3, res.Passthrough)
	assert.Len(t, res.Records, 18)

	got := index(res.Records)

	meter := got[catalog.Key{Unit: "meter", Property: "length"}]
	assert.Equal(t, "metre", meter.AlternateUnit)
	assert.Empty(t, meter.Prefix)
	assert.Equal(t, "meters", meter.Plural, "matched records keep library names")

	km := got[catalog.Key{Unit: "kilometer", Property: "length"}]
	assert.Equal(t, 1000.0, km.ConversionFactor)
	assert.Equal(t, "kilo", km.Prefix)
	assert.Equal(t, "meter", km.ReferenceUnit)
	assert.Equal(t, "kilometers", km.Plural)
	assert.Equal(t, "kilometer", km.Symbol)

	assert.Equal(t, 0.001, got[catalog.Key{Unit: "millimeter", Property: "length"}].ConversionFactor)
	assert.Equal(t, 1.0, got[catalog.Key{Unit: "kilogram", Property: "mass"}].ConversionFactor)
	assert.Equal(t, "kilo", got[catalog.Key{Unit: "kilogram", Property: "mass"}].Prefix)
	assert.InDelta(t, 1e-6, got[catalog.Key{Unit: "milligram", Property: "mass"}].ConversionFactor, 1e-18)

	mrad, ok := got[catalog.Key{Unit: "milliradian", Property: "angle"}]
	require.True(t, ok, "derived under the library property name")
	assert.Equal(t, 0.001, mrad.ConversionFactor)
	assert.Equal(t, "radian", mrad.ReferenceUnit)

	arcmin := got[catalog.Key{Unit: "arcminute", Property: "angle"}]
	assert.Equal(t, 0.0002908882086657216, arcmin.ConversionFactor)
	assert.Equal(t, "radian", arcmin.ReferenceUnit)

	minute := got[catalog.Key{Unit: "minute", Property: "time"}]
	assert.Equal(t, 60.0, minute.ConversionFactor)
	assert.Equal(t, "second", minute.ReferenceUnit)

	celsius := got[catalog.Key{Unit: "degree Celsius", Property: "thermodynamic temperature"}]
	assert.Equal(t, 1.0, celsius.ConversionFactor)
	require.NotNil(t, celsius.ConversionOffset)
	assert.Equal(t, 273.15, *celsius.ConversionOffset)
	assert.Equal(t, "kelvin", celsius.ReferenceUnit)
	assert.Equal(t, "degrees Celsius", celsius.Plural)

	assert.Equal(t, 1000.0, got[catalog.Key{Unit: "tonne", Property: "mass"}].ConversionFactor)
	kt := got[catalog.Key{Unit: "kilotonne", Property: "mass"}]
	assert.Equal(t, 1e6, kt.ConversionFactor)
	assert.Equal(t, "kilogram", kt.ReferenceUnit)

	kohm := got[catalog.Key{Unit: "kiloohm", Property: "electrical resistance"}]
	assert.Equal(t, 1000.0, kohm.ConversionFactor)
	assert.Equal(t, "ohm", kohm.ReferenceUnit)

	foot := got[catalog.Key{Unit: "foot", Property: "length"}]
	assert.Equal(t, 0.3048, foot.ConversionFactor)
	assert.Empty(t, foot.Prefix)
	assert.Empty(t, foot.AlternateUnit)

	_, ok = got[catalog.Key{Unit: "hertz", Property: "frequency"}]
	assert.False(t, ok, "unresolved units are never emitted")

	for i := 1; i < len(res.Records); i++ {
		a, b := res.Records[i-1], res.Records[i]
		assert.True(t, a.Property < b.Property || (a.Property == b.Property && a.Unit <= b.Unit), "sorted at %d", i)
	}
}

func TestPrefixedFactorScalesBase(t *testing.T) {
	library := []catalog.Record{lib("meter", "length", 1, "meter", catalog.SystemSI)}
	var prefixed []catalog.PrefixedUnit
	for _, p := range []string{"", "kilo", "mega", "centi", "micro", "quetta", "quecto"} {
		prefixed = append(prefixed, pu(p, "meter", "length"))
	}

	res := newReconciler(t).Reconcile(prefixed, library, diag.NewCollector(nil))
	got := index(res.Records)

	want := map[string]float64{
		"meter":       1,
		"kilometer":   1e3,
		"megameter":   1e6,
		"centimeter":  1e-2,
		"micrometer":  1e-6,
		"quettameter": 1e30,
		"quectometer": 1e-30,
	}
	for unit, cf := range want {
		assert.Equal(t, cf, got[catalog.Key{Unit: unit, Property: "length"}].ConversionFactor, unit)
	}
}

func TestRepeatedMatchEnrichesOnce(t *testing.T) {
	library := []catalog.Record{lib("meter", "length", 1, "meter", catalog.SystemSI)}
	first := pu("", "meter", "length")
	first.AlternateUnit = "metre"
	prefixed := []catalog.PrefixedUnit{first, pu("", "meter", "length")}

	c := diag.NewCollector(nil)
	res := newReconciler(t).Reconcile(prefixed, library, c)

	require.Len(t, res.Records, 1)
	assert.Equal(t, "metre", res.Records[0].AlternateUnit)
	require.Len(t, c.All(), 1)
	assert.Equal(t, diag.CodeRepeatedMatch, c.All()[0].Code)
	assert.False(t, c.HasFatal())
}

func TestUnknownPrefixIsFatal(t *testing.T) {
	library := []catalog.Record{lib("meter", "length", 1, "meter", catalog.SystemSI)}
	c := diag.NewCollector(nil)
	res := newReconciler(t).Reconcile([]catalog.PrefixedUnit{pu("bogo", "meter", "length")}, library, c)

	require.True(t, c.HasFatal())
	assert.Equal(t, diag.CodeUnknownPrefixedRef, c.Fatals()[0].Code)
	assert.Len(t, res.Records, 1, "library record passes through")
}

func TestReconcileIsDeterministic(t *testing.T) {
	library := []catalog.Record{
		lib("meter", "length", 1, "meter", catalog.SystemSI),
		lib("gram", "mass", 0.001, "kilogram", catalog.SystemSI),
	}
	prefixed := []catalog.PrefixedUnit{pu("kilo", "gram", "mass"), pu("", "gram", "mass"), pu("nano", "meter", "length"), pu("", "meter", "length")}

	r := newReconciler(t)
	first, err := catalog.Encode(r.Reconcile(prefixed, library, diag.NewCollector(nil)).Records)
	require.NoError(t, err)
	second, err := catalog.Encode(r.Reconcile(prefixed, library, diag.NewCollector(nil)).Records)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}
