package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DisplayLayout is how timestamps appear in captions.
const DisplayLayout = "2006-01-02 15:04"

// Layouts accepted for backend timestamps, tried in order.
// The backend emits ISO-8601 with or without a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Timestamp is a backend time value.
// Raw keeps the original text so values that fail to parse still render.
type Timestamp struct {
	Time time.Time
	Raw  string
}

// ParseTimestamp parses s leniently. It never fails: unparsable input
// is kept verbatim in Raw with a zero Time.
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t, Raw: s}
		}
	}
	return Timestamp{Raw: s}
}

// NewTimestamp wraps a time value.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, Raw: t.Format(time.RFC3339Nano)}
}

// IsZero reports whether the timestamp carries no value at all.
func (t Timestamp) IsZero() bool {
	return t.Time.IsZero() && t.Raw == ""
}

// String formats the timestamp for display.
func (t Timestamp) String() string {
	if !t.Time.IsZero() {
		return t.Time.Format(DisplayLayout)
	}
	return t.Raw
}

// UnmarshalJSON accepts strings, unix seconds, and null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode timestamp: %w", err)
		}
		*t = ParseTimestamp(s)
		return nil
	}

	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("decode timestamp: %w", err)
	}
	whole := int64(secs)
	nanos := int64((secs - float64(whole)) * float64(time.Second))
	*t = NewTimestamp(time.Unix(whole, nanos).UTC())
	return nil
}

// MarshalJSON writes the raw form, or null when empty.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	raw := t.Raw
	if raw == "" {
		raw = t.Time.Format(time.RFC3339Nano)
	}
	return json.Marshal(raw)
}
