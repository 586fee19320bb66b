// Package timestamp parses and normalizes the timestamp encodings found
// in video summaries and platform metadata into a canonical zero-padded
// HH:MM:SS form.
//
// Summary text mixes at least three encodings: explicit colon forms
// ("1:22:18", "05:30"), bare integer seconds ("125"), and bare decimal
// fractional minutes ("10.88" meaning 10m53s). A decimal token is
// structurally ambiguous between decimal-seconds and fractional-minutes;
// this package commits to the fractional-minutes reading (integer part
// minutes, fractional part × 60 rounded to whole seconds). Data produced
// under the decimal-seconds convention normalizes to a value that almost
// always fails duration validation, so callers recover via the
// transcript index fallback rather than emitting a wrong link.
package timestamp

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnrecognized reports a token that matches none of the accepted
// timestamp shapes. Callers treat it as "no timestamp available".
var ErrUnrecognized = errors.New("unrecognized timestamp format")

// integerRe matches bare non-negative integer seconds ("125").
var integerRe = regexp.MustCompile(`^\d+$`)

// decimalRe matches bare fractional-minute tokens ("10.88").
var decimalRe = regexp.MustCompile(`^(\d+)\.(\d+)$`)

// colonRe matches two- and three-part colon forms ("MM:SS", "H:MM:SS").
// Hours are unbounded so that any String() output round-trips.
var colonRe = regexp.MustCompile(`^(?:(\d+):)?(\d{1,2}):(\d{1,2})$`)

// isoDurationRe matches ISO-8601 durations as returned by the YouTube
// contentDetails API ("PT1H22M18S", "PT45M", "PT30S").
var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// Token is a canonical timestamp: a zero-padded HH:MM:SS string and its
// total-seconds equivalent. The zero value renders as "00:00:00".
type Token struct {
	secs int
}

// FromSeconds builds a Token from a total-seconds count. Negative values
// clamp to zero.
func FromSeconds(secs int) Token {
	if secs < 0 {
		secs = 0
	}
	return Token{secs: secs}
}

// Seconds returns the total elapsed seconds the token represents.
func (t Token) Seconds() int { return t.secs }

// String renders the canonical zero-padded HH:MM:SS form.
func (t Token) String() string {
	h := t.secs / 3600
	m := (t.secs % 3600) / 60
	s := t.secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Within reports whether the token falls inside a video of the given
// duration: 0 <= t <= duration.
func (t Token) Within(duration Token) bool {
	return t.secs <= duration.secs
}

// Normalize parses a raw timestamp token into canonical form. Accepted
// shapes, with or without surrounding square brackets:
//
//   - "HH:MM:SS" or "H:MM:SS" (components zero-padded)
//   - "MM:SS" (interpreted as 00:MM:SS)
//   - bare integer seconds ("125" → 00:02:05)
//   - fractional minutes ("10.88" → 00:10:53; see the package comment
//     for the ambiguity policy)
//
// Minutes and seconds components of colon forms must be below 60.
// Anything else returns an error wrapping [ErrUnrecognized].
// Normalize is idempotent on its own output.
func Normalize(raw string) (Token, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	s = strings.TrimSpace(s)

	if s == "" {
		return Token{}, fmt.Errorf("timestamp: empty token: %w", ErrUnrecognized)
	}

	if m := colonRe.FindStringSubmatch(s); m != nil {
		hours := 0
		if m[1] != "" {
			hours, _ = strconv.Atoi(m[1])
		}
		mins, _ := strconv.Atoi(m[2])
		secs, _ := strconv.Atoi(m[3])
		if mins >= 60 || secs >= 60 {
			return Token{}, fmt.Errorf("timestamp: %q: component out of range: %w", raw, ErrUnrecognized)
		}
		return FromSeconds(hours*3600 + mins*60 + secs), nil
	}

	if integerRe.MatchString(s) {
		secs, err := strconv.Atoi(s)
		if err != nil {
			return Token{}, fmt.Errorf("timestamp: %q: %w", raw, ErrUnrecognized)
		}
		return FromSeconds(secs), nil
	}

	if m := decimalRe.FindStringSubmatch(s); m != nil {
		mins, err := strconv.Atoi(m[1])
		if err != nil {
			return Token{}, fmt.Errorf("timestamp: %q: %w", raw, ErrUnrecognized)
		}
		frac, err := strconv.ParseFloat("0."+m[2], 64)
		if err != nil {
			return Token{}, fmt.Errorf("timestamp: %q: %w", raw, ErrUnrecognized)
		}
		secs := int(math.Round(frac * 60))
		// .995 and up rounds to a full minute.
		if secs >= 60 {
			mins++
			secs -= 60
		}
		return FromSeconds(mins*60 + secs), nil
	}

	return Token{}, fmt.Errorf("timestamp: %q: %w", raw, ErrUnrecognized)
}

// ParseDuration parses a video duration. It accepts the ISO-8601 form
// returned by the hosting platform's API ("PT1H22M18S") as well as any
// shape [Normalize] accepts.
func ParseDuration(raw string) (Token, error) {
	s := strings.TrimSpace(raw)

	if m := isoDurationRe.FindStringSubmatch(s); m != nil {
		if m[1] == "" && m[2] == "" && m[3] == "" {
			return Token{}, fmt.Errorf("timestamp: duration %q: %w", raw, ErrUnrecognized)
		}
		hours, _ := strconv.Atoi(zeroIfEmpty(m[1]))
		mins, _ := strconv.Atoi(zeroIfEmpty(m[2]))
		secs, _ := strconv.Atoi(zeroIfEmpty(m[3]))
		return FromSeconds(hours*3600 + mins*60 + secs), nil
	}

	return Normalize(s)
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
