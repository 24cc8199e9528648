package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseAmount tests amount parsing with currencies and magnitudes.
func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"USD 10,000,000", "USD 10000000"},
		{"$5m", "USD 5000000"},
		{"€ 2.5 bn", "EUR 2500000000"},
		{"25 million EUR", "EUR 25000000"},
		{"GBP 750k", "GBP 750000"},
		{"JPY 1,000", "JPY 1000"},
		{"usd 3 mio", "USD 3000000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, ok := ParseAmount(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, a.String())
		})
	}
}

// TestParseAmount_Invalid tests that text without a number is rejected.
func TestParseAmount_Invalid(t *testing.T) {
	_, ok := ParseAmount("USD")
	assert.False(t, ok)
	_, ok = ParseAmount("")
	assert.False(t, ok)
}

// TestFrequency tests canonicalisation of payment frequencies.
func TestFrequency(t *testing.T) {
	tests := map[string]string{
		"Quarterly":     "quarterly",
		"semi annually": "semi-annual",
		"Semi-Annual":   "semi-annual",
		"bi-weekly":     "bi-weekly",
		"ANNUALLY":      "annual",
	}
	for in, want := range tests {
		got, ok := Frequency(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := Frequency("fortnightly-ish")
	assert.False(t, ok)
}

// TestRate tests coupon and spread canonicalisation.
func TestRate(t *testing.T) {
	tests := map[string]string{
		"SOFR + 50 bps":      "SOFR + 50 bps",
		"sofr+50bps":         "SOFR + 50 bps",
		"EURIBOR 3M + 125bp": "EURIBOR 3M + 125 bps",
		"5.25%":              "5.25%",
		"4.5 % p.a.":         "4.5%",
	}
	for in, want := range tests {
		got, ok := Rate(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := Rate("par")
	assert.False(t, ok)
}

// TestText tests whitespace collapsing.
func TestText(t *testing.T) {
	assert.Equal(t, "Acme Corp", Text("  Acme \n Corp. "))
}

// TestValidISIN tests the ISIN check digit.
func TestValidISIN(t *testing.T) {
	assert.True(t, ValidISIN("US0378331005"))
	assert.True(t, ValidISIN("GB0002634946"))
	assert.True(t, ValidISIN("DE000BAY0017"))
	assert.False(t, ValidISIN("US0378331006"))
	assert.False(t, ValidISIN("US037833100"))
	assert.False(t, ValidISIN("us0378331005"))
}
