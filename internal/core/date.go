// Package core holds the domain records and the pure aggregation logic
// computed over them. Nothing in this package performs I/O.
package core

import (
	"bytes"
	"encoding/json"
	"time"
)

// InvalidDateText is what formatters render for a date that could not be
// parsed. Malformed input degrades to this string instead of raising.
const InvalidDateText = "Invalid Date"

// Date is the canonical in-memory date. Every heterogeneous input
// representation (native time, document-store timestamp, ISO string, null)
// is normalized into one of three states: a usable date, the zero Date
// (absent), or the invalid sentinel.
type Date struct {
	time.Time
	invalid bool
}

// DateOf wraps a native time value.
func DateOf(t time.Time) Date {
	return Date{Time: t}
}

// NewDate builds a Date from calendar parts in local time.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)}
}

// InvalidDate returns the sentinel produced by malformed input.
func InvalidDate() Date {
	return Date{invalid: true}
}

// IsInvalid reports whether this is the unparseable-input sentinel.
func (d Date) IsInvalid() bool {
	return d.invalid
}

// Usable reports whether the date can participate in range comparisons.
// Absent and invalid dates are both unusable.
func (d Date) Usable() bool {
	return !d.invalid && !d.IsZero()
}

// SameDay reports whether two dates fall on the same calendar day.
func (d Date) SameDay(other Date) bool {
	if !d.Usable() || !other.Usable() {
		return false
	}
	y1, m1, d1 := d.Date()
	y2, m2, d2 := other.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Timestamp mirrors the document store's native time value, which arrives
// as a {seconds, nanoseconds} wrapper rather than a plain date.
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int32 `json:"nanoseconds"`
}

// Time converts the wrapper through its native accessor.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanoseconds))
}

// dateLayouts are tried in order when normalizing a string input.
// Comparisons stay in local time; no timezone conversion is performed.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
}

// Canonical normalizes any supported date representation.
//
//	nil                -> zero Date (absent, not an error)
//	time.Time          -> wrapped as-is
//	Timestamp          -> converted via its native accessor
//	string             -> parsed; malformed yields the invalid sentinel
//	int64 / float64    -> epoch milliseconds
func Canonical(v any) Date {
	switch t := v.(type) {
	case nil:
		return Date{}
	case Date:
		return t
	case time.Time:
		return DateOf(t)
	case *time.Time:
		if t == nil {
			return Date{}
		}
		return DateOf(*t)
	case Timestamp:
		return DateOf(t.Time())
	case *Timestamp:
		if t == nil {
			return Date{}
		}
		return DateOf(t.Time())
	case string:
		return parseDateString(t)
	case int64:
		return DateOf(time.UnixMilli(t))
	case float64:
		return DateOf(time.UnixMilli(int64(t)))
	default:
		return InvalidDate()
	}
}

func parseDateString(s string) Date {
	// Only null means absent; an empty string is malformed input.
	if s == "" {
		return InvalidDate()
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return DateOf(t)
		}
	}
	return InvalidDate()
}

// UnmarshalJSON accepts the heterogeneous wire shapes the documents carry:
// null, an ISO string, epoch milliseconds, or a timestamp wrapper object.
// Malformed values produce the invalid sentinel, never an unmarshal error.
func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*d = InvalidDate()
			return nil
		}
		*d = parseDateString(s)
	case '{':
		var ts Timestamp
		if err := json.Unmarshal(data, &ts); err != nil || (ts.Seconds == 0 && ts.Nanoseconds == 0) {
			*d = InvalidDate()
			return nil
		}
		*d = DateOf(ts.Time())
	default:
		var ms float64
		if err := json.Unmarshal(data, &ms); err != nil {
			*d = InvalidDate()
			return nil
		}
		*d = DateOf(time.UnixMilli(int64(ms)))
	}
	return nil
}

// MarshalJSON emits null for an absent date, the displayable sentinel text
// for an invalid one, and RFC3339 otherwise.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.invalid {
		return json.Marshal(InvalidDateText)
	}
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(time.RFC3339))
}
