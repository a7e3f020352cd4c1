// Package dateutil turns user-facing date settings into formatted dates.
//
// A date setting is either a literal ("2025-01-31", "Q1 2025"), "auto" for
// today in ISO form, or "auto:FORMAT" where FORMAT uses the tokens below or
// names a preset.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an invalid date format string.
var ErrInvalidDateFormat = errors.New("invalid date format")

// MaxDateFormatLength limits format string length.
const MaxDateFormatLength = 50

// DefaultDateFormat is used when "auto" is specified without a format.
const DefaultDateFormat = "YYYY-MM-DD"

const autoPrefix = "auto"

// tokens maps format tokens to Go layout elements, longest first so the
// scan is greedy. Tokens are case-sensitive: MM is the month, mm minutes.
var tokens = []struct {
	token  string
	layout string
}{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"dddd", "Monday"},
	{"MMM", "Jan"},
	{"ddd", "Mon"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"HH", "15"},
	{"mm", "04"},
	{"ss", "05"},
	{"M", "1"},
	{"D", "2"},
}

// Presets are named shortcuts for common formats.
var Presets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "MMMM D, YYYY",
	"full":     "dddd, MMMM D, YYYY",
	"datetime": "YYYY-MM-DD HH:mm",
}

// Layout converts a token format such as "DD/MM/YYYY" into a Go time
// layout. Text inside brackets is copied literally ("[Week of] MMM D").
func Layout(format string) (string, error) {
	switch {
	case format == "":
		return "", fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	case len(format) > MaxDateFormatLength:
		return "", fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}

	var sb strings.Builder
	sb.Grow(len(format) + 8)

	for rest := format; rest != ""; {
		if rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, len(format)-len(rest))
			}
			sb.WriteString(rest[1:end])
			rest = rest[end+1:]
			continue
		}
		rest = writeToken(&sb, rest)
	}
	return sb.String(), nil
}

// writeToken writes the layout for the token at the start of s, or its
// first byte as a literal, and returns what is left of s.
func writeToken(sb *strings.Builder, s string) string {
	for _, t := range tokens {
		if strings.HasPrefix(s, t.token) {
			sb.WriteString(t.layout)
			return s[len(t.token):]
		}
	}
	sb.WriteByte(s[0])
	return s[1:]
}

// Resolve returns the date a setting stands for at time now.
//   - "auto" gives now as YYYY-MM-DD
//   - "auto:FORMAT" gives now in FORMAT, or in the preset FORMAT names
//   - anything else is returned unchanged
//
// The "auto" prefix is matched case-insensitively; the format keeps its case.
func Resolve(value string, now time.Time) (string, error) {
	if len(value) < len(autoPrefix) || !strings.EqualFold(value[:len(autoPrefix)], autoPrefix) {
		return value, nil
	}

	format := DefaultDateFormat
	switch rest := value[len(autoPrefix):]; {
	case rest == "":
	case rest[0] != ':':
		return "", fmt.Errorf("%w: invalid auto syntax %q, use \"auto\" or \"auto:FORMAT\"", ErrInvalidDateFormat, value)
	case len(rest) == 1:
		return "", fmt.Errorf("%w: format cannot be empty after \"auto:\"", ErrInvalidDateFormat)
	default:
		format = rest[1:]
		if preset, ok := Presets[strings.ToLower(format)]; ok {
			format = preset
		}
	}

	layout, err := Layout(format)
	if err != nil {
		return "", err
	}
	return now.Format(layout), nil
}
