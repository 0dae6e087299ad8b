package types

import (
	"math"
	"time"
)

// Unset marks a date field that the source text never supplied.
// It lies outside the legal range of every field.
const Unset = math.MaxInt32

// Default date fields used when the text supplied no calendar date (1970-01-01).
const (
	DefaultYear  = 70
	DefaultMonth = 0
	DefaultDay   = 1
)

// ExtTime is a broken-down calendar date and time of day with millisecond precision.
// Year, Month and Day start as Unset so that callers can tell an explicit zero
// from a field the pattern never mentioned. The time-of-day fields have a natural
// zero baseline and start at zero.
type ExtTime struct {
	// Year is the number of years since 1900.
	Year int
	// Month is 0-11.
	Month int
	// Day is 1-31.
	Day int
	// Hour is 0-23.
	Hour int
	// Minute is 0-59.
	Minute int
	// Second is 0-60. 60 is a leap second.
	Second int
	// Millisecond is 0-999.
	Millisecond int
	// Location is where the fields are broken down. nil means UTC.
	// Directives that name an absolute instant, such as %s, use it.
	Location *time.Location
}

// NewExtTime returns a value ready to be filled by the pattern parser.
func NewExtTime() *ExtTime {
	return &ExtTime{
		Year:  Unset,
		Month: Unset,
		Day:   Unset,
	}
}

// ExtTimeFromTime breaks t down in its own location.
func ExtTimeFromTime(t time.Time) *ExtTime {
	return &ExtTime{
		Location:    t.Location(),
		Year:        t.Year() - 1900,
		Month:       int(t.Month()) - 1,
		Day:         t.Day(),
		Hour:        t.Hour(),
		Minute:      t.Minute(),
		Second:      t.Second(),
		Millisecond: t.Nanosecond() / int(time.Millisecond),
	}
}

// Zone returns Location, or UTC when it is nil.
func (t *ExtTime) Zone() *time.Location {
	if t.Location == nil {
		return time.UTC
	}
	return t.Location
}

func (t *ExtTime) HasYear() bool  { return t.Year != Unset }
func (t *ExtTime) HasMonth() bool { return t.Month != Unset }
func (t *ExtTime) HasDay() bool   { return t.Day != Unset }

// DateUnset reports whether year, month and day are all still unset.
// Such a value carries only time-of-day fields and may denote a duration.
func (t *ExtTime) DateUnset() bool {
	return !t.HasYear() && !t.HasMonth() && !t.HasDay()
}

// FillDefaults replaces every unset date field with its epoch default.
func (t *ExtTime) FillDefaults() {
	if !t.HasYear() {
		t.Year = DefaultYear
	}
	if !t.HasMonth() {
		t.Month = DefaultMonth
	}
	if !t.HasDay() {
		t.Day = DefaultDay
	}
}

// Time builds a time.Time in loc. Out of range values normalize the way
// time.Date does, so second 60 rolls into the next minute.
// All date fields must be set.
func (t *ExtTime) Time(loc *time.Location) time.Time {
	return time.Date(
		t.Year+1900,
		time.Month(t.Month+1),
		t.Day,
		t.Hour,
		t.Minute,
		t.Second,
		t.Millisecond*int(time.Millisecond),
		loc,
	)
}
