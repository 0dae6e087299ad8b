package types

import "time"

type DateKind string

const (
	// DateKindUTC is an absolute instant anchored to UTC.
	DateKindUTC DateKind = "utc"
	// DateKindLocal is a calendar date and time in a local location.
	DateKindLocal DateKind = "local"
)

// DateValue is the outcome of interpreting a date string.
type DateValue struct {
	Kind DateKind `json:"kind"`
	// Unix is whole seconds since the epoch.
	Unix int64 `json:"unix"`
	// Millisecond is the remainder below Unix.
	Millisecond int `json:"millisecond"`
	// Time is in UTC for DateKindUTC and in the requested location for DateKindLocal.
	Time time.Time `json:"time"`
}

func (v *DateValue) IsUTC() bool {
	return v.Kind == DateKindUTC
}

// Options carries the caller's locality preferences.
// Both flags may be false, meaning the caller accepts either result.
type Options struct {
	ForceUTC   bool
	ForceLocal bool
	// Location is used for local results. nil means time.Local.
	Location *time.Location
}

// LocalLocation returns the location local results are built in.
func (o Options) LocalLocation() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}
