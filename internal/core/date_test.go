package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCanonicalNil(t *testing.T) {
	got := Canonical(nil)
	if got.IsInvalid() {
		t.Fatal("Canonical(nil) must not be the invalid sentinel")
	}
	if !got.IsZero() {
		t.Fatalf("Canonical(nil) = %v, want zero", got)
	}
}

func TestCanonicalTimestampEqualsTime(t *testing.T) {
	at := time.Date(2023, 4, 1, 12, 30, 0, 500, time.UTC)
	ts := Timestamp{Seconds: at.Unix(), Nanoseconds: int32(at.Nanosecond())}

	fromTime := Canonical(at)
	fromTimestamp := Canonical(ts)
	if !fromTime.Time.Equal(fromTimestamp.Time) {
		t.Fatalf("Canonical(time) = %v, Canonical(timestamp) = %v, want equal", fromTime, fromTimestamp)
	}
}

func TestCanonicalStrings(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantDay Date
		invalid bool
	}{
		{"iso date", "2023-04-01", NewDate(2023, 4, 1), false},
		{"rfc3339", "2023-04-01T10:00:00Z", NewDate(2023, 4, 1), false},
		{"display form", "Apr 1, 2023", NewDate(2023, 4, 1), false},
		{"garbage", "not a date", Date{}, true},
		{"empty", "", Date{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Canonical(tc.input)
			if got.IsInvalid() != tc.invalid {
				t.Fatalf("IsInvalid = %v, want %v", got.IsInvalid(), tc.invalid)
			}
			if !tc.invalid && !got.SameDay(tc.wantDay) {
				t.Fatalf("Canonical(%q) = %v, want day %v", tc.input, got, tc.wantDay)
			}
		})
	}
}

func TestCanonicalEpochMillis(t *testing.T) {
	at := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	ms := at.UnixMilli()

	got := Canonical(ms)
	if !got.Time.Equal(at) {
		t.Fatalf("Canonical(%d) = %v, want %v", ms, got.Time, at)
	}
	if got := Canonical(float64(ms)); !got.Time.Equal(at) {
		t.Fatalf("Canonical(float64) = %v, want %v", got.Time, at)
	}
}

func TestCanonicalUnsupportedType(t *testing.T) {
	if got := Canonical(struct{}{}); !got.IsInvalid() {
		t.Fatal("unsupported type must map to the invalid sentinel")
	}
}

func TestDisplayDateRoundTrip(t *testing.T) {
	d := NewDate(2023, 4, 1)
	text := FormatDate(d, DateDisplayLayout)
	if text != "Apr 1, 2023" {
		t.Fatalf("FormatDate = %q, want %q", text, "Apr 1, 2023")
	}
	back := Canonical(text)
	if !back.SameDay(d) {
		t.Fatalf("round trip lost the day: %v vs %v", back, d)
	}
}

func TestDateJSON(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		invalid bool
		zero    bool
	}{
		{"null", `null`, false, true},
		{"rfc3339 string", `"2023-04-01T00:00:00Z"`, false, false},
		{"display string", `"Apr 1, 2023"`, false, false},
		{"timestamp object", `{"seconds":1680307200,"nanoseconds":0}`, false, false},
		{"epoch millis", `1680307200000`, false, false},
		{"garbage string", `"nope"`, true, false},
		{"invalid sentinel text", `"Invalid Date"`, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var d Date
			if err := json.Unmarshal([]byte(tc.input), &d); err != nil {
				t.Fatalf("unmarshal error: %v", err)
			}
			if d.IsInvalid() != tc.invalid {
				t.Fatalf("IsInvalid = %v, want %v", d.IsInvalid(), tc.invalid)
			}
			if !tc.invalid && d.IsZero() != tc.zero {
				t.Fatalf("IsZero = %v, want %v", d.IsZero(), tc.zero)
			}
		})
	}
}

func TestDateJSONInvalidRoundTrip(t *testing.T) {
	out, err := json.Marshal(InvalidDate())
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if string(out) != `"Invalid Date"` {
		t.Fatalf("marshal invalid = %s, want %q", out, `"Invalid Date"`)
	}
	var back Date
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if !back.IsInvalid() {
		t.Fatal("invalid sentinel must survive a JSON round trip")
	}
}

func TestDateUsable(t *testing.T) {
	if (Date{}).Usable() {
		t.Fatal("zero date must not be usable")
	}
	if InvalidDate().Usable() {
		t.Fatal("invalid date must not be usable")
	}
	if !NewDate(2023, 4, 1).Usable() {
		t.Fatal("real date must be usable")
	}
}
