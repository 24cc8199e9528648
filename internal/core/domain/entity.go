package domain

// EntityType is a financial field the extractor recognises.
type EntityType string

// Entity types recognised in financial documents.
const (
	EntityCounterparty     EntityType = "counterparty"
	EntityDate             EntityType = "date"
	EntityNotional         EntityType = "notional"
	EntityUnderlying       EntityType = "underlying"
	EntityPaymentFrequency EntityType = "payment_frequency"
	EntityCouponOrSpread   EntityType = "coupon_or_spread"
	EntityISIN             EntityType = "isin"
)

// IsValid returns true if the entity type is recognised.
func (t EntityType) IsValid() bool {
	switch t {
	case EntityCounterparty, EntityDate, EntityNotional, EntityUnderlying,
		EntityPaymentFrequency, EntityCouponOrSpread, EntityISIN:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t EntityType) String() string {
	return string(t)
}

// Description returns a human-readable label.
func (t EntityType) Description() string {
	switch t {
	case EntityCounterparty:
		return "Counterparty"
	case EntityDate:
		return "Date"
	case EntityNotional:
		return "Notional"
	case EntityUnderlying:
		return "Underlying"
	case EntityPaymentFrequency:
		return "Payment Frequency"
	case EntityCouponOrSpread:
		return "Coupon / Spread"
	case EntityISIN:
		return "ISIN"
	default:
		return unknownDescription
	}
}

// AllEntityTypes returns every entity type in display order.
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityCounterparty,
		EntityDate,
		EntityNotional,
		EntityUnderlying,
		EntityPaymentFrequency,
		EntityCouponOrSpread,
		EntityISIN,
	}
}

// Provenance records which strategy produced an entity.
type Provenance string

// Entity provenances.
const (
	ProvenancePattern     Provenance = "pattern-matched"
	ProvenanceStatistical Provenance = "statistically-recognized"
	ProvenanceMerged      Provenance = "merged"
)

// Strategy tags a recogniser candidate with the strategy that produced it.
type Strategy int

const (
	// StrategyPattern marks a rule-based match.
	StrategyPattern Strategy = iota

	// StrategyStatistical marks a model-based match.
	StrategyStatistical
)

// Provenance returns the provenance an unmerged candidate of this strategy carries.
func (s Strategy) Provenance() Provenance {
	if s == StrategyPattern {
		return ProvenancePattern
	}
	return ProvenanceStatistical
}

// String returns the string representation.
func (s Strategy) String() string {
	if s == StrategyPattern {
		return "pattern"
	}
	return "statistical"
}

// Candidate is a single recogniser hit before reconciliation.
type Candidate struct {
	// Strategy tags which recogniser produced the candidate.
	Strategy Strategy

	// Type is the recognised entity type.
	Type EntityType

	// Raw is the matched text.
	Raw string

	// Normalized is the canonical value (ISO date, decimal amount, ...).
	Normalized string

	// Span locates Raw in the document content.
	Span Span

	// Confidence is the recogniser's score in [0, 1].
	Confidence float64

	// Rule names the pattern rule or model label that fired.
	Rule string
}

// PatternMatch builds a candidate from a pattern rule.
func PatternMatch(t EntityType, raw, normalized string, span Span, confidence float64, rule string) Candidate {
	return Candidate{
		Strategy:   StrategyPattern,
		Type:       t,
		Raw:        raw,
		Normalized: normalized,
		Span:       span,
		Confidence: confidence,
		Rule:       rule,
	}
}

// StatisticalMatch builds a candidate from a statistical model.
func StatisticalMatch(t EntityType, raw, normalized string, span Span, confidence float64, label string) Candidate {
	return Candidate{
		Strategy:   StrategyStatistical,
		Type:       t,
		Raw:        raw,
		Normalized: normalized,
		Span:       span,
		Confidence: confidence,
		Rule:       label,
	}
}

// ExtractedEntity is a reconciled field recovered from a document.
type ExtractedEntity struct {
	Type       EntityType `json:"type"`
	Raw        string     `json:"raw"`
	Normalized string     `json:"normalized"`
	Start      int        `json:"start"`
	End        int        `json:"end"`
	Confidence float64    `json:"confidence"`
	Provenance Provenance `json:"provenance"`
}

// Span returns the entity's span.
func (e ExtractedEntity) Span() Span {
	return Span{Start: e.Start, End: e.End}
}
