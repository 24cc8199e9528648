package pattern

import (
	"regexp"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/extractors/values"
)

// normaliseFunc canonicalises a match and scores it.
// Returning false discards the match.
type normaliseFunc func(raw string) (normalized string, confidence float64, ok bool)

// rule is one deterministic recognition rule.
type rule struct {
	name      string
	entity    domain.EntityType
	re        *regexp.Regexp
	group     int
	normalise normaliseFunc
}

const (
	textDayFirst   = `(?i)\b\d{1,2}(?:st|nd|rd|th)?[\s-]+` + values.MonthPattern + `\.?,?[\s-]+\d{4}\b`
	textMonthFirst = `(?i)\b` + values.MonthPattern + `\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}\b`
	numericDate    = `\b(?:\d{4}-\d{2}-\d{2}|\d{1,2}[./-]\d{1,2}[./-](?:\d{4}|\d{2}))\b`

	bareAmount = values.NumberPattern + `(?:\s?` + values.MagnitudePattern + `\b)?`

	labelledValue = `\s*[:=]\s*([^\n(;|]{1,120})`
)

var (
	isinRe         = regexp.MustCompile(`\b[A-Z]{2}[A-Z0-9]{9}[0-9]\b`)
	dayFirstRe     = regexp.MustCompile(textDayFirst)
	monthFirstRe   = regexp.MustCompile(textMonthFirst)
	numericDateRe  = regexp.MustCompile(numericDate)
	notionalRe     = regexp.MustCompile(`(?i)\bnotional(?:\s+amount)?(?:\s*\(N\))?\s*(?:[:=]|of|is)?\s*(` + values.AmountPattern + `|` + bareAmount + `)`)
	amountRe       = regexp.MustCompile(`(?i)` + values.AmountPattern)
	frequencyRe    = regexp.MustCompile(`(?i)\b(?:semi[- ]?annual(?:ly)?|bi[- ]?weekly|quarterly|monthly|weekly|daily|annual(?:ly)?)\b`)
	spreadRe       = regexp.MustCompile(`(?i)\b[a-z]{3,7}(?:\s+\d+[my])?\s*[+-]\s*\d+(?:\.\d+)?\s*(?:bps|bp|basis\s+points)\b`)
	couponRe       = regexp.MustCompile(`(?i)\b(?:coupon(?:\s+rate)?|fixed\s+rate|interest\s+rate)(?:\s*\(C\))?\s*(?:[:=]|of|is)?\s*(\d+(?:\.\d+)?\s?%(?:\s?p\.?a\.?)?)`)
	underlyingRe   = regexp.MustCompile(`(?i)\bunderlying(?:\s+(?:asset|index|instrument|reference))?` + labelledValue)
	floatLegRe     = regexp.MustCompile(`\b[A-Z]{2,6}\s+FLOAT\b`)
	counterpartyRe = regexp.MustCompile(`(?i)\b(?:party\s+[ab]|counterparty|issuer|calculation\s+agent|dealer|guarantor)` + `\s*[:=]\s*([^\n(;|,]{1,120})`)
	bankRe         = regexp.MustCompile(`\bBANK\s+[A-Z]{2,}(?:\s+[A-Z]{2,})?\b`)
)

// rules returns the rule set in evaluation order.
func (r *Recogniser) rules() []rule {
	dates := func(confidence float64) normaliseFunc {
		return func(raw string) (string, float64, bool) {
			iso, ok := r.dates.Normalise(raw)
			return iso, confidence, ok
		}
	}
	amounts := func(confidence float64) normaliseFunc {
		return func(raw string) (string, float64, bool) {
			a, ok := values.ParseAmount(raw)
			if !ok {
				return "", 0, false
			}
			return a.String(), confidence, true
		}
	}
	text := func(confidence float64) normaliseFunc {
		return func(raw string) (string, float64, bool) {
			v := values.Text(raw)
			return v, confidence, v != ""
		}
	}

	return []rule{
		{name: "isin", entity: domain.EntityISIN, re: isinRe, normalise: r.isin},
		{name: "date_text", entity: domain.EntityDate, re: dayFirstRe, normalise: dates(0.95)},
		{name: "date_text", entity: domain.EntityDate, re: monthFirstRe, normalise: dates(0.95)},
		{name: "date_numeric", entity: domain.EntityDate, re: numericDateRe, normalise: dates(0.9)},
		{name: "notional_labelled", entity: domain.EntityNotional, re: notionalRe, group: 1, normalise: amounts(0.97)},
		{name: "amount", entity: domain.EntityNotional, re: amountRe, normalise: amounts(0.7)},
		{name: "frequency", entity: domain.EntityPaymentFrequency, re: frequencyRe, normalise: func(raw string) (string, float64, bool) {
			f, ok := values.Frequency(raw)
			return f, 0.9, ok
		}},
		{name: "spread", entity: domain.EntityCouponOrSpread, re: spreadRe, normalise: rate(0.95)},
		{name: "coupon", entity: domain.EntityCouponOrSpread, re: couponRe, group: 1, normalise: rate(0.93)},
		{name: "underlying_labelled", entity: domain.EntityUnderlying, re: underlyingRe, group: 1, normalise: text(0.9)},
		{name: "float_leg", entity: domain.EntityUnderlying, re: floatLegRe, normalise: text(0.8)},
		{name: "counterparty_labelled", entity: domain.EntityCounterparty, re: counterpartyRe, group: 1, normalise: text(0.9)},
		{name: "bank", entity: domain.EntityCounterparty, re: bankRe, normalise: text(0.75)},
	}
}

func rate(confidence float64) normaliseFunc {
	return func(raw string) (string, float64, bool) {
		v, ok := values.Rate(raw)
		return v, confidence, ok
	}
}

// isin validates the check digit. Invalid codes are kept at low
// confidence unless strict mode is on.
func (r *Recogniser) isin(raw string) (string, float64, bool) {
	if values.ValidISIN(raw) {
		return raw, 0.99, true
	}
	if r.strictISIN {
		return "", 0, false
	}
	return raw, 0.6, true
}
