// Package values parses and canonicalises the raw text of financial fields.
package values

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Regular expression fragments shared by recognisers.
const (
	// MonthPattern matches English month names and abbreviations.
	MonthPattern = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`

	// CurrencyCodePattern matches common ISO 4217 codes.
	CurrencyCodePattern = `(?:USD|EUR|GBP|JPY|CHF|CAD|AUD|NZD|HKD|SGD|CNY|CNH|INR|SEK|NOK|DKK|ZAR|BRL|MXN)`

	// CurrencySymbolPattern matches currency symbols.
	CurrencySymbolPattern = `[$€£¥]`

	// MagnitudePattern matches scale words and abbreviations.
	MagnitudePattern = `(?:thousand|million|billion|mln|mio|mn|mm|bn|k|m|b)`

	// NumberPattern matches grouped or plain decimals.
	NumberPattern = `(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?`
)

// AmountPattern matches a currency amount with the currency before or after.
var AmountPattern = `(?:` +
	`(?:\b` + CurrencyCodePattern + `\s?|` + CurrencySymbolPattern + `\s?)` + NumberPattern + `(?:\s?` + MagnitudePattern + `\b)?` +
	`|\b` + NumberPattern + `(?:\s?` + MagnitudePattern + `)?\s?` + CurrencyCodePattern + `\b)`

var (
	amountParts = regexp.MustCompile(`(?i)(` + CurrencyCodePattern + `|` + CurrencySymbolPattern + `)?\s*(` + NumberPattern + `)\s*(` + MagnitudePattern + `)?\s*(` + CurrencyCodePattern + `)?`)
	spaces      = regexp.MustCompile(`\s+`)
)

var magnitudes = map[string]float64{
	"k":        1e3,
	"thousand": 1e3,
	"m":        1e6,
	"mm":       1e6,
	"mn":       1e6,
	"mln":      1e6,
	"mio":      1e6,
	"million":  1e6,
	"b":        1e9,
	"bn":       1e9,
	"billion":  1e9,
}

var symbols = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
	"¥": "JPY",
}

// Amount is a parsed monetary amount.
type Amount struct {
	Currency string
	Value    float64
}

// String renders the amount as "<CCY> <value>" with no grouping.
func (a Amount) String() string {
	v := strconv.FormatFloat(a.Value, 'f', -1, 64)
	if a.Currency == "" {
		return v
	}
	return a.Currency + " " + v
}

// ParseAmount parses text such as "USD 10,000,000", "$5m" or "25 million EUR".
func ParseAmount(s string) (Amount, bool) {
	m := amountParts.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil || m[2] == "" {
		return Amount{}, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
	if err != nil || math.IsInf(v, 0) {
		return Amount{}, false
	}
	if mag := strings.ToLower(m[3]); mag != "" {
		v *= magnitudes[mag]
	}

	ccy := m[1]
	if ccy == "" {
		ccy = m[4]
	}
	if code, ok := symbols[ccy]; ok {
		ccy = code
	}
	return Amount{Currency: strings.ToUpper(ccy), Value: v}, true
}

// frequencies maps spellings to canonical payment frequencies.
var frequencies = map[string]string{
	"daily":         "daily",
	"weekly":        "weekly",
	"biweekly":      "bi-weekly",
	"bi-weekly":     "bi-weekly",
	"monthly":       "monthly",
	"quarterly":     "quarterly",
	"semiannual":    "semi-annual",
	"semi-annual":   "semi-annual",
	"semiannually":  "semi-annual",
	"semi-annually": "semi-annual",
	"annual":        "annual",
	"annually":      "annual",
}

// Frequency returns the canonical payment frequency for a vocabulary term.
func Frequency(s string) (string, bool) {
	key := strings.ToLower(spaces.ReplaceAllString(strings.TrimSpace(s), "-"))
	f, ok := frequencies[key]
	return f, ok
}

var (
	spreadParts = regexp.MustCompile(`(?i)^([a-z€]{3,7}(?:\s+\d+[my])?)\s*([+-])\s*(\d+(?:\.\d+)?)\s*(?:bps|bp|basis\s+points)$`)
	couponParts = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*%`)
)

// Rate canonicalises a coupon ("5.25% p.a." → "5.25%") or spread
// ("sofr+50bps" → "SOFR + 50 bps").
func Rate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if m := spreadParts.FindStringSubmatch(s); m != nil {
		index := strings.ToUpper(spaces.ReplaceAllString(m[1], " "))
		return index + " " + m[2] + " " + m[3] + " bps", true
	}
	if m := couponParts.FindStringSubmatch(s); m != nil {
		return m[1] + "%", true
	}
	return "", false
}

// Text collapses internal whitespace and trims surrounding punctuation.
func Text(s string) string {
	return strings.Trim(spaces.ReplaceAllString(s, " "), " .,;:")
}
