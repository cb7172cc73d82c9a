package curated

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTables(t *testing.T) {
	tables, err := Default()
	require.NoError(t, err)

	again, err := Default()
	require.NoError(t, err)
	assert.Same(t, tables, again, "embedded tables are decoded once")

	assert.True(t, tables.InSet(SetImperial, "foot"))
	assert.True(t, tables.InSet(SetNautical, "knot"))
	assert.True(t, tables.InSet(SetInformation, "byte"))
	assert.True(t, tables.InSet(SetMetric, "liter"))
	assert.False(t, tables.InSet(SetImperial, "meter"))

	markers := tables.HistoricalMarkers()
	require.Len(t, markers, 1)
	assert.Equal(t, "Ancient Roman", markers[0].System)
	assert.True(t, markers[0].Pattern.MatchString("// Ancient Roman units"))
	assert.True(t, markers[0].Pattern.MatchString("/// ancient roman"))
	assert.False(t, markers[0].Pattern.MatchString("// roman"))

	ref, ok := tables.ReferenceOverride("energy")
	assert.True(t, ok)
	assert.Equal(t, "joule", ref)

	alias, ok := tables.PropertyAlias("plane angle")
	assert.True(t, ok)
	assert.Equal(t, "angle", alias)

	assert.True(t, tables.IsDecimalResidual("8.0"))
	assert.False(t, tables.IsDecimalResidual("3.0"))
}

func TestSpecialConversion(t *testing.T) {
	tables, err := Default()
	require.NoError(t, err)

	c, ok := tables.SpecialConversion("degree Celsius", "temperature")
	require.True(t, ok)
	assert.Equal(t, 1.0, c.Factor)
	require.NotNil(t, c.Offset)
	assert.Equal(t, 273.15, *c.Offset)
	assert.Equal(t, "kelvin", c.ReferenceUnit)
	assert.Equal(t, "thermodynamic temperature", c.Property)

	*c.Offset = 0
	again, _ := tables.SpecialConversion("degree Celsius", "temperature")
	assert.Equal(t, 273.15, *again.Offset, "callers get a copy of the offset")

	m, ok := tables.SpecialConversion("minute", "time")
	require.True(t, ok)
	assert.Equal(t, 60.0, m.Factor)
	assert.Nil(t, m.Offset)
	assert.Equal(t, "time", m.Property)

	_, ok = tables.SpecialConversion("minute", "angle")
	assert.False(t, ok)
}

func TestPlural(t *testing.T) {
	tables, err := Default()
	require.NoError(t, err)

	tests := map[string]string{
		"meter":          "meters",
		"kilometer":      "kilometers",
		"degree Celsius": "degrees Celsius",
		"hertz":          "hertz",
		"kilohertz":      "kilohertz",
		"siemens":        "siemens",
		"lux":            "lux",
		"inch":           "inchs",
		"":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, tables.Plural(in), in)
	}
}

func TestAtomicPrefixes(t *testing.T) {
	tables, err := Default()
	require.NoError(t, err)

	var atomic, natural AtomicPrefix
	for _, p := range tables.AtomicPrefixes() {
		switch p.Prefix {
		case "atomic_unit_of_":
			atomic = p
		case "natural_unit_of_":
			natural = p
		}
	}
	assert.True(t, atomic.Applies("atomic_unit_of_information", "information"))
	assert.True(t, atomic.Applies("atomic_unit_of_length", "length"))
	assert.True(t, natural.Applies("natural_unit_of_time", "time"))
	assert.False(t, natural.Applies("natural_unit_of_information", "information"))
	assert.False(t, natural.Applies("planck_time", "time"))
}

func TestSpecialIdentifierMatches(t *testing.T) {
	byProp := SpecialIdentifier{Identifier: "degree", Property: "angle", System: "other"}
	assert.True(t, byProp.Matches("degree", "angle"))
	assert.False(t, byProp.Matches("degree", "temperature"))

	byPrefix := SpecialIdentifier{IdentifierPrefix: "speed_of_light", System: "Atomic/Natural"}
	assert.True(t, byPrefix.Matches("speed_of_light_in_vacuum", "velocity"))
	assert.False(t, byPrefix.Matches("speed", "velocity"))
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "bad pattern",
			doc:  "historical:\n  - pattern: '('\n    system: Ancient Roman\n",
			want: "historical[0]",
		},
		{
			name: "unknown set",
			doc:  "systems:\n  klingon: [bat_leth]\n",
			want: `unknown set "klingon"`,
		},
		{
			name: "non-positive factor",
			doc:  "special_conversions:\n  - unit: x\n    property: y\n    conversion_factor: 0\n    reference_unit: z\n",
			want: "conversion_factor must be positive",
		},
		{
			name: "duplicate conversion",
			doc: "special_conversions:\n" +
				"  - {unit: x, property: y, conversion_factor: 1, reference_unit: x}\n" +
				"  - {unit: x, property: y, conversion_factor: 2, reference_unit: x}\n",
			want: "duplicate entry for (x, y)",
		},
		{
			name: "ambiguous special identifier",
			doc:  "special_identifiers:\n  - {identifier: a, identifier_prefix: b, system: SI}\n",
			want: "exactly one of identifier or identifier_prefix",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("reference_override:\n  energy: joule\n"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}
