package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/kalendo/kalendo/pkg/event"
)

const (
	dateTimeLayout = "2006-01-02T15:04"
	dateLayout     = "2006-01-02"
)

// tokenize splits a command line on whitespace, keeping double-quoted
// sections together as single tokens without their quotes.
func tokenize(line string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case !inQuotes && (r == ' ' || r == '\t'):
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func parseDateTime(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateTimeLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date-time %q, expected %s: %w", s, dateTimeLayout, event.ErrInvalidArgument)
	}
	return t, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected %s: %w", s, dateLayout, event.ErrInvalidArgument)
	}
	return t, nil
}

var weekdayLetters = map[rune]time.Weekday{
	'M': time.Monday,
	'T': time.Tuesday,
	'W': time.Wednesday,
	'R': time.Thursday,
	'F': time.Friday,
	'S': time.Saturday,
	'U': time.Sunday,
}

// parseWeekdays reads the compact weekday notation, e.g. "MWF" for Monday,
// Wednesday, Friday. R is Thursday and U is Sunday.
func parseWeekdays(s string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, r := range strings.ToUpper(s) {
		wd, ok := weekdayLetters[r]
		if !ok {
			return nil, fmt.Errorf("unknown weekday letter %q in %q: %w", string(r), s, event.ErrInvalidArgument)
		}
		days = append(days, wd)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("weekday list must not be empty: %w", event.ErrInvalidArgument)
	}
	return days, nil
}

// flagValue extracts the value following "--name"-style flags from a token
// stream.
func flagValue(tokens []string, flag string) (string, error) {
	for i, tok := range tokens {
		if tok == flag {
			if i+1 >= len(tokens) {
				return "", fmt.Errorf("flag %s requires a value: %w", flag, event.ErrInvalidArgument)
			}
			return tokens[i+1], nil
		}
	}
	return "", fmt.Errorf("missing required flag %s: %w", flag, event.ErrInvalidArgument)
}

// keywordValue returns the token following the given keyword.
func keywordValue(tokens []string, keyword string) (string, error) {
	for i, tok := range tokens {
		if strings.EqualFold(tok, keyword) {
			if i+1 >= len(tokens) {
				return "", fmt.Errorf("%q requires a value: %w", keyword, event.ErrInvalidArgument)
			}
			return tokens[i+1], nil
		}
	}
	return "", fmt.Errorf("missing %q clause: %w", keyword, event.ErrInvalidArgument)
}

func hasKeyword(tokens []string, keyword string) bool {
	for _, tok := range tokens {
		if strings.EqualFold(tok, keyword) {
			return true
		}
	}
	return false
}

// propertyValue converts the raw string from a "with <value>" clause into
// the typed value the property expects.
func propertyValue(property, raw string, loc *time.Location) (any, error) {
	if !event.IsKnownProperty(property) {
		return nil, fmt.Errorf("unknown property %q: %w", property, event.ErrInvalidArgument)
	}
	if event.IsTimeProperty(property) {
		return parseDateTime(raw, loc)
	}
	return raw, nil
}
