// Package interpreter turns a date string and a known format pattern into a
// usable date value, deciding how missing date fields are defaulted and whether
// the result is an absolute UTC instant or a local calendar date.
package interpreter

import (
	"time"
	"unicode/utf8"

	"github.com/goccy/date-detector/internal/timeparser"
	"github.com/goccy/date-detector/types"
)

// Interpret parses text with pattern.
//
// When the pattern supplied neither year, month nor day the text is taken to be a
// duration or a bare time of day and the result is forced to UTC; only an explicit
// ForceLocal overrides that. Unset date fields default to 1970-01-01.
// A unix timestamp (%s) is broken down in the location the result is built in,
// so it keeps its instant.
//
// The error is a *ParseError: EmptyInput for empty text, IncompleteMatch when the
// pattern does not consume the whole text.
func Interpret(text, pattern string, opt types.Options) (*types.DateValue, error) {
	if text == "" {
		return nil, &ParseError{Reason: EmptyInput, Pattern: pattern}
	}
	t := types.NewExtTime()
	t.Location = opt.LocalLocation()
	if opt.ForceUTC && !opt.ForceLocal {
		t.Location = time.UTC
	}
	end, err := timeparser.Parse(text, pattern, t)
	if err != nil || end != utf8.RuneCountInString(text) {
		return nil, &ParseError{
			Reason:  IncompleteMatch,
			Text:    text,
			Pattern: pattern,
			Cause:   err,
		}
	}
	forceUTC := opt.ForceUTC || t.DateUnset()
	t.FillDefaults()
	if forceUTC && !opt.ForceLocal {
		return newDateValue(types.DateKindUTC, t.Time(time.UTC)), nil
	}
	return newDateValue(types.DateKindLocal, t.Time(opt.LocalLocation())), nil
}

func newDateValue(kind types.DateKind, t time.Time) *types.DateValue {
	return &types.DateValue{
		Kind:        kind,
		Unix:        t.Unix(),
		Millisecond: t.Nanosecond() / int(time.Millisecond),
		Time:        t,
	}
}
