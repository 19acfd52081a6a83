package timex

import (
	"fmt"
	"time"
)

// localLayouts are tried, in order, when the value carries no UTC offset.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseDeadline parses an ISO-8601 timestamp. A value with an explicit
// offset (RFC 3339) is taken as is; a local timestamp such as
// "2025-06-20T00:00:00" is interpreted in loc (time.Local when nil).
func ParseDeadline(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid deadline %q: want ISO-8601 like 2006-01-02T15:04:05", value)
}

// LoadLocation resolves a location name, treating "" and "Local" as time.Local.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
