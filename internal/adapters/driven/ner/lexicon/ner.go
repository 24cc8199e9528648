// Package lexicon provides an offline NER model built from orthographic
// cues: corporate suffixes, month names, currency markers and a short list
// of benchmark indices. It needs no network access and serves as the
// default statistical tagger.
package lexicon

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/extractors/values"
)

// Ensure NERModel implements the interface.
var _ driven.NERModel = (*NERModel)(nil)

// ModelName is the name reported for this tagger.
const ModelName = "lexicon"

const (
	capWord     = `\p{Lu}[\p{L}\p{N}&'.-]*`
	strongCorp  = `Corp(?:oration)?|Inc|Ltd|Limited|LLC|LLP|LP|PLC|plc|AG|SA|NV|GmbH|S\.A|N\.V`
	weakCorp    = `Holdings|Group|Bank|Partners|Capital|Securities|Co`
	dateOrdinal = `(?:st|nd|rd|th)?`
)

var (
	strongOrgRe = regexp.MustCompile(`\b(?:` + capWord + `\s+){1,4}(?:` + strongCorp + `)\b\.?`)
	weakOrgRe   = regexp.MustCompile(`\b(?:` + capWord + `\s+){1,3}(?:` + weakCorp + `)\b`)
	bankOfRe    = regexp.MustCompile(`\bBank\s+of\s+(?:\p{Lu}\p{L}+)(?:\s+\p{Lu}\p{L}+){0,2}`)
	dateRe      = regexp.MustCompile(`(?i)\b(?:\d{1,2}` + dateOrdinal + `\s+` + values.MonthPattern + `\.?,?\s+\d{4}|` +
		values.MonthPattern + `\.?\s+\d{1,2}` + dateOrdinal + `,?\s+\d{4}|` +
		values.MonthPattern + `\s+\d{4})\b`)
	moneyRe = regexp.MustCompile(`(?i)` + values.AmountPattern)
	miscRe  = regexp.MustCompile(`\b(?:S&P\s?500|EURO\s+STOXX\s+50|NASDAQ[- ]100|FTSE\s+100|Nikkei\s+225|Russell\s+2000|MSCI\s+(?:World|EAFE|Emerging\s+Markets)|DAX)\b`)
)

// leading words that start sentences or labels rather than names.
var stopWords = map[string]bool{
	"The": true, "A": true, "An": true, "And": true, "By": true, "Between": true,
	"Of": true, "For": true, "With": true, "To": true, "From": true, "On": true,
	"Party": true, "Counterparty": true, "Issuer": true, "Signed": true, "Dear": true,
}

type cue struct {
	label string
	re    *regexp.Regexp
	score float64
}

var cues = []cue{
	{"ORG", strongOrgRe, 0.85},
	{"ORG", bankOfRe, 0.8},
	{"ORG", weakOrgRe, 0.65},
	{"DATE", dateRe, 0.85},
	{"MONEY", moneyRe, 0.8},
	{"MISC", miscRe, 0.75},
}

// NERModel is the offline tagger. The zero value is ready to use.
type NERModel struct{}

// NewNERModel creates a lexicon tagger.
func NewNERModel() *NERModel {
	return &NERModel{}
}

// Recognise tags text. Spans with the same label never overlap; the
// earlier and then longer match wins.
func (m *NERModel) Recognise(ctx context.Context, text string) ([]driven.NERSpan, error) {
	var spans []driven.NERSpan
	for _, c := range cues {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, loc := range c.re.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			if c.label == "ORG" {
				start = skipStopWords(text, start, end)
			}
			if start >= end {
				continue
			}
			spans = append(spans, driven.NERSpan{Label: c.label, Start: start, End: end, Score: c.score})
		}
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End > spans[j].End
	})

	lastEnd := make(map[string]int)
	out := spans[:0]
	for _, s := range spans {
		if end, ok := lastEnd[s.Label]; ok && s.Start < end {
			continue
		}
		lastEnd[s.Label] = s.End
		out = append(out, s)
	}
	return out, nil
}

// ModelName returns the tagger name.
func (m *NERModel) ModelName() string {
	return ModelName
}

// skipStopWords advances start past leading stop words.
func skipStopWords(text string, start, end int) int {
	for start < end {
		word := text[start:end]
		i := strings.IndexAny(word, " \t\n")
		if i < 0 || !stopWords[word[:i]] {
			return start
		}
		start += i
		for start < end && strings.ContainsRune(" \t\n", rune(text[start])) {
			start++
		}
	}
	return start
}
