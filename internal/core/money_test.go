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
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"1.005", "1.01", true},
		{"-15.99", "-15.99", true},
		{" 2.50 ", "2.5", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidAmount, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.True(t, decimal.RequireFromString(tc.out).Equal(got), "%q -> %s", tc.in, got)
	}
}

func TestNormalizeAmount(t *testing.T) {
	cases := []struct {
		name    string
		amount  string
		dir     Direction
		wantAmt string
		wantDir Direction
	}{
		{"negative without direction is outflow", "-15.99", "", "15.99", Debit},
		{"positive without direction is inflow", "2000", "", "2000", Credit},
		{"zero without direction is inflow", "0", "", "0", Credit},
		{"explicit debit keeps magnitude", "15.99", Debit, "15.99", Debit},
		{"explicit credit wins over sign", "-20", Credit, "20", Credit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amt, dir, err := NormalizeAmount(decimal.RequireFromString(tc.amount), tc.dir)
			require.NoError(t, err)
			assert.Equal(t, tc.wantDir, dir)
			assert.True(t, decimal.RequireFromString(tc.wantAmt).Equal(amt), "got %s", amt)
			assert.False(t, amt.IsNegative())
		})
	}

	_, _, err := NormalizeAmount(decimal.NewFromInt(1), Direction("SIDEWAYS"))
	assert.ErrorIs(t, err, ErrInvalidDirection)
}

func TestSigned(t *testing.T) {
	assert.Equal(t, "-15.99", Signed(decimal.RequireFromString("15.99"), Debit).String())
	assert.Equal(t, "20", Signed(decimal.NewFromInt(20), Credit).String())
}
