package values

import (
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

// ISODate is the layout of normalised dates.
const ISODate = "2006-01-02"

var (
	ordinalSuffix = regexp.MustCompile(`(?i)(\d)(?:st|nd|rd|th)\b`)
	numericDate   = regexp.MustCompile(`^\d{1,2}[./-]\d{1,2}[./-]\d{2,4}$`)
	septAbbrev    = regexp.MustCompile(`(?i)\bsept\b`)
)

// DateParser parses dates against an ordered list of layouts.
type DateParser struct {
	layouts []string
}

// NewDateParser creates a parser. Nil layouts fall back to the defaults.
// With dayFirst set, numeric month/day layouts are read day first.
func NewDateParser(layouts []string, dayFirst bool) *DateParser {
	if len(layouts) == 0 {
		layouts = domain.DefaultDateLayouts()
	}
	p := &DateParser{layouts: make([]string, 0, len(layouts))}
	for _, l := range layouts {
		if dayFirst {
			l = swapDayMonth(l)
		}
		p.layouts = append(p.layouts, canonical(l))
	}
	return p
}

// Parse returns the date and true when any layout matches.
func (p *DateParser) Parse(s string) (time.Time, bool) {
	s = canonical(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range p.layouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() < 1900 || t.Year() > 2200 {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

// Normalise returns the ISO rendering of s, if parseable.
func (p *DateParser) Normalise(s string) (string, bool) {
	t, ok := p.Parse(s)
	if !ok {
		return "", false
	}
	return t.Format(ISODate), true
}

// canonical reduces separators and decorations so that "15th March, 2024"
// and "15 March 2024" compare equal.
func canonical(s string) string {
	s = strings.TrimSpace(s)
	if numericDate.MatchString(s) {
		return strings.NewReplacer(".", "/", "-", "/").Replace(s)
	}
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	s = septAbbrev.ReplaceAllString(s, "Sep")
	s = strings.NewReplacer(",", " ", ".", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func swapDayMonth(layout string) string {
	switch {
	case strings.HasPrefix(layout, "1/2/"):
		return "2/1/" + strings.TrimPrefix(layout, "1/2/")
	case strings.HasPrefix(layout, "01/02/"):
		return "02/01/" + strings.TrimPrefix(layout, "01/02/")
	}
	return layout
}
