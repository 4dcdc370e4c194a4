package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"100,00", "100"},
		{"1.234,56", "1234.56"},
		{"1.234,56-", "-1234.56"},
		{"0,01", "0.01"},
		{"12.345.678,90-", "-12345678.9"},
		{"  250,00 ", "250"},
		{"0,00", "0"},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
			"input %q: got %s, want %s", tt.in, got, tt.want)
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "12,34,56", "-"} {
		_, err := ParseAmount(in)
		require.Error(t, err, "input %q", in)

		var formatErr *FormatError
		assert.ErrorAs(t, err, &formatErr)
		assert.Equal(t, in, formatErr.Value)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"100", "100,00"},
		{"1234.56", "1.234,56"},
		{"-1234.56", "1.234,56-"},
		{"0.01", "0,01"},
		{"-12345678.9", "12.345.678,90-"},
		{"0", "0,00"},
	}

	for _, tt := range tests {
		got := FormatAmount(decimal.RequireFromString(tt.in))
		assert.Equal(t, tt.want, got, "input %s", tt.in)
	}
}

func TestAmountRoundTrip(t *testing.T) {
	for _, raw := range []string{"1.234,56-", "0,01", "999,99", "1.000,00"} {
		parsed, err := ParseAmount(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, FormatAmount(parsed))
	}
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), ParseDate("31.01.2024"))

	// unpadded day and month tokens are accepted
	assert.Equal(t, time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), ParseDate("5.2.2024"))

	// blank and unparsable input yields the zero time
	assert.True(t, ParseDate("").IsZero())
	assert.True(t, ParseDate("   ").IsZero())
	assert.True(t, ParseDate("not a date").IsZero())
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "31.01.2024", FormatDate(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", FormatDate(time.Time{}))
}

func TestSumsToZero(t *testing.T) {
	zero := decimal.RequireFromString("100.5").Add(decimal.RequireFromString("-100.5"))
	assert.True(t, SumsToZero(zero))

	// residue below the rounding tolerance still nets out
	assert.True(t, SumsToZero(decimal.RequireFromString("0.001")))
	assert.True(t, SumsToZero(decimal.RequireFromString("-0.004")))

	assert.False(t, SumsToZero(decimal.RequireFromString("0.01")))
	assert.False(t, SumsToZero(decimal.RequireFromString("-0.01")))
}

func TestTableClone(t *testing.T) {
	table := Table{
		{Account: "24181000", Currency: "EUR"},
		{Account: "24181000", Currency: "USD"},
	}

	clone := table.Clone()
	clone[0].Matched = true

	assert.False(t, table[0].Matched)
	assert.Nil(t, Table(nil).Clone())
}

func TestTableCounts(t *testing.T) {
	table := Table{
		{Matched: true},
		{Matched: true, Excluded: true},
		{},
	}

	assert.True(t, table.AnyMatched())
	assert.Equal(t, 1, table.ClearableCount())

	assert.False(t, Table{{}, {}}.AnyMatched())
}
