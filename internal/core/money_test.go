package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"0", "0", true},
		{" 2.50 ", "2.5", true},
		{"166000", "166000", true},
		{"83.123456789", "83.123456789", true},
		{"-1", "", false},
		{"+1", "", false},
		{"1e3", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{".", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrValidation, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.True(t, decimal.RequireFromString(tc.out).Equal(got), "input %q: got %s", tc.in, got)
	}
}

func TestParseOptionalAmount(t *testing.T) {
	d, err := ParseOptionalAmount("  ")
	require.NoError(t, err)
	assert.False(t, d.Valid)

	d, err = ParseOptionalAmount("0")
	require.NoError(t, err)
	assert.True(t, d.Valid, "zero is a recorded amount, not absence")
	assert.True(t, d.Decimal.IsZero())

	_, err = ParseOptionalAmount("x")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "$2800.00", FormatUSD(decimal.NewFromInt(2800)))
	assert.Equal(t, "-$50.00", FormatUSD(decimal.NewFromInt(-50)))
	assert.Equal(t, "$0.10", FormatUSD(decimal.RequireFromString("0.104")))
	assert.Equal(t, "₹166000", FormatINR(decimal.RequireFromString("165999.6")))
	assert.Equal(t, "₹83.33", FormatRate(decimal.RequireFromString("83.3333")))
}

func TestOrZero(t *testing.T) {
	assert.True(t, OrZero(decimal.NullDecimal{}).IsZero())
	assert.True(t, OrZero(decimal.NewNullDecimal(decimal.NewFromInt(7))).Equal(decimal.NewFromInt(7)))
}
