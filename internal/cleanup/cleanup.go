// Package cleanup scrubs model-generated summary lines before they are
// rendered. Summary text arrives with markdown bold wrappers, duplicated
// bracketed timestamps, prose restatements of timestamps, repeated
// category markers, and boilerplate labels; Clean strips all of it down
// to the plain entry text. Timestamps themselves are handled separately
// by the merge step, which re-attaches a single resolved timestamp.
package cleanup

import (
	"regexp"
	"strings"

	"github.com/railbird-dev/railbird/internal/timestamp"
)

// boldRe matches markdown bold wrappers, keeping the inner text.
var boldRe = regexp.MustCompile(`\*\*(.+?)\*\*`)

// wrappedSpanRe matches a span of text wrapped by two bracketed
// timestamp tokens, e.g. "[00:01:00] big pot [00:01:00]". Both tokens
// are discarded; the caller re-attaches a single timestamp.
var wrappedSpanRe = regexp.MustCompile(`\[\d[\d:.]*\]([^\[\]]*?)\[\d[\d:.]*\]`)

// proseTimestampRe matches inline prose restatements of a timestamp,
// e.g. "at 00:01:00" or "timestamp 1:22:18".
var proseTimestampRe = regexp.MustCompile(`(?i)\b(?:at|timestamp)\s+\d{1,2}:\d{2}(?::\d{2})?\b`)

// bracketedDecimalRe matches leftover fractional-minute tokens that
// still need canonicalizing, e.g. "[10.88]".
var bracketedDecimalRe = regexp.MustCompile(`\[(\d+\.\d+)\]`)

// markerPairRe matches two adjacent bracketed category markers
// ("[ALL-IN] [ALL-IN]"). Go's regexp has no backreferences, so equality
// of the two markers is checked in code.
var markerPairRe = regexp.MustCompile(`(\[[A-Z0-9][A-Z0-9 /_-]*\])\s*(\[[A-Z0-9][A-Z0-9 /_-]*\])`)

// whitespaceRe matches runs of whitespace.
var whitespaceRe = regexp.MustCompile(`\s+`)

// leadingLabelRe matches boilerplate labels at the start of a line.
var leadingLabelRe = regexp.MustCompile(`(?i)^(?:key moments|standout players|strategic insights|summary)\s*:\s*`)

// enumPrefixRe matches leading enumeration prefixes ("1. ", "- ", "* ").
var enumPrefixRe = regexp.MustCompile(`^(?:\d+[.)]|[-*•])\s+`)

// Clean scrubs a raw summary line. It is a pure function and never
// fails; unrecognized input passes through with only whitespace
// normalization. Transformations are applied in a fixed order:
// bold markup, duplicate-wrapped timestamps, prose timestamps,
// leftover decimal tokens, repeated category markers, whitespace,
// boilerplate labels and enumeration prefixes.
func Clean(raw string) string {
	s := stripBold(raw)
	s = collapseWrappedTimestamps(s)
	s = removeProseTimestamps(s)
	s = renormalizeDecimals(s)
	s = collapseDuplicateMarkers(s)
	s = collapseWhitespace(s)
	s = stripBoilerplate(s)
	return strings.TrimSpace(s)
}

// stripBold removes markdown bold wrappers, leaving the inner text.
func stripBold(s string) string {
	return boldRe.ReplaceAllString(s, "$1")
}

// collapseWrappedTimestamps reduces "[T1] text [T2]" to "text".
func collapseWrappedTimestamps(s string) string {
	return wrappedSpanRe.ReplaceAllString(s, " $1 ")
}

// removeProseTimestamps drops phrases restating a timestamp in prose.
func removeProseTimestamps(s string) string {
	return proseTimestampRe.ReplaceAllString(s, "")
}

// renormalizeDecimals rewrites remaining bracketed fractional-minute
// tokens into canonical bracketed form. Tokens that fail to normalize
// are left untouched.
func renormalizeDecimals(s string) string {
	return bracketedDecimalRe.ReplaceAllStringFunc(s, func(match string) string {
		tok, err := timestamp.Normalize(match)
		if err != nil {
			return match
		}
		return "[" + tok.String() + "]"
	})
}

// collapseDuplicateMarkers folds runs of an identical category marker
// ("[ALL-IN] [ALL-IN]") into a single occurrence. Matching restarts
// after each fold so longer runs also collapse.
func collapseDuplicateMarkers(s string) string {
	offset := 0
	for {
		loc := markerPairRe.FindStringSubmatchIndex(s[offset:])
		if loc == nil {
			return s
		}
		first := s[offset+loc[2] : offset+loc[3]]
		second := s[offset+loc[4] : offset+loc[5]]
		if first == second {
			// Drop the second marker and everything between the two.
			s = s[:offset+loc[3]] + s[offset+loc[1]:]
			continue
		}
		// Advance past the first marker only, so the second marker can
		// pair with whatever follows it.
		offset += loc[4]
	}
}

// collapseWhitespace folds whitespace runs to a single space.
func collapseWhitespace(s string) string {
	return whitespaceRe.ReplaceAllString(s, " ")
}

// stripBoilerplate removes leading section labels and enumeration
// prefixes left over from the model's list formatting.
func stripBoilerplate(s string) string {
	s = strings.TrimSpace(s)
	s = leadingLabelRe.ReplaceAllString(s, "")
	s = enumPrefixRe.ReplaceAllString(s, "")
	return s
}
