package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/unitcat/internal/prefix"
)

func TestEval(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want float64
	}{
		{"plain literal", "1.0", 1.0},
		{"grouped literal with exponent", "1.609_344_E3", 1609.344},
		{"exponent with underscore before marker", "273.15_E0", 273.15},
		{"grouped integer part", "1_000.0", 1000},
		{"negative exponent", "2.54_E-2", 0.0254},
		{"single prefix", "prefix!(kilo)", 1000},
		{"no prefix", "prefix!(none)", 1},
		{"prefix ratio", "prefix!(yotta) / prefix!(kilo)", 1e21},
		{"bits per byte", "prefix!(kilo) / 8.0", 125},
		{"binary prefix", "prefix!(kibi) * 8.0_E0", 8192},
		{"precedence", "1.0 + 2.0 * 3.0", 7},
		{"parentheses", "(1.0 + 2.0) * 3.0", 9},
		{"unary minus", "-4.0 * -2.0", 8},
		{"nested", "((prefix!(milli)))", 1e-3},
		{"whitespace in reference", "prefix!( centi )", 1e-2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tt.want*1e-12)
		})
	}
}

func TestEval_UnknownPrefix(t *testing.T) {
	_, err := Eval("prefix!(kilo) * prefix!(bogus)")
	require.Error(t, err)

	var ee *Error
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "prefix!(kilo) * prefix!(bogus)", ee.Expr)
	assert.ErrorIs(t, err, prefix.ErrUnknownPrefix)
	assert.NotErrorIs(t, err, ErrMalformed)
}

func TestEval_Malformed(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"empty", ""},
		{"identifier", "PI * 2.0"},
		{"function call", "sqrt(2.0)"},
		{"dangling operator", "1.0 +"},
		{"unbalanced open", "(1.0 + 2.0"},
		{"unbalanced close", "1.0 + 2.0)"},
		{"division by zero", "1.0 / 0.0"},
		{"adjacent literals", "1.0 2.0"},
		{"exponent without digits", "1.0E"},
		{"statement separator", "1.0; 2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Eval(tt.expr)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)

			var ee *Error
			require.True(t, errors.As(err, &ee))
			assert.Equal(t, tt.expr, ee.Expr)
		})
	}
}

func TestPrefixes(t *testing.T) {
	got := Prefixes("prefix!(kilo) * prefix!(milli) / prefix!(kilo)")
	assert.Equal(t, []string{"kilo", "milli"}, got)

	assert.Empty(t, Prefixes("1.0_E0"))
}

func TestStripPrefixes(t *testing.T) {
	assert.Equal(t, " / 8.0", StripPrefixes("prefix!(kilo) / 8.0"))
	assert.Equal(t, "", StripPrefixes("prefix!(none)"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "1.609344E3 * 2.0", Normalize("1.609_344_E3 * 2.0"))
	assert.Equal(t, "1e-06", Normalize("1e-06"))
}

func TestArith_RejectsPrefixSyntax(t *testing.T) {
	_, err := Arith("prefix!(kilo)")
	assert.ErrorIs(t, err, ErrMalformed)
}
