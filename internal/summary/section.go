package summary

import (
	"regexp"
	"strings"
)

// SectionKind identifies one of the three labeled groupings of summary
// entries per video.
type SectionKind int

const (
	KeyMoments SectionKind = iota
	StandoutPlayers
	StrategicInsights
)

// String returns the section's display label.
func (k SectionKind) String() string {
	switch k {
	case StandoutPlayers:
		return "Standout Players"
	case StrategicInsights:
		return "Strategic Insights"
	default:
		return "Key Moments"
	}
}

// sectionHeaderRe matches a section header line, tolerating markdown
// bold markers, heading/list prefixes, and surrounding whitespace. The
// colon is mandatory so that prose mentioning a section name is not
// mistaken for a boundary.
var sectionHeaderRe = regexp.MustCompile(`(?i)^[\s*#>-]*(key\s+moments|standout\s+players|strategic\s+insights)\s*\**\s*:[\s*]*(.*)$`)

// ClassifySection reports whether line is a section header. When it is,
// the returned kind is the section the header opens and rest holds any
// content trailing the label on the same line. Lines that are not
// headers belong to the current section (KeyMoments before any header
// is seen).
func ClassifySection(line string) (kind SectionKind, rest string, ok bool) {
	m := sectionHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return KeyMoments, "", false
	}
	switch normalizeHeader(m[1]) {
	case "standout players":
		kind = StandoutPlayers
	case "strategic insights":
		kind = StrategicInsights
	default:
		kind = KeyMoments
	}
	return kind, m[2], true
}

func normalizeHeader(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
