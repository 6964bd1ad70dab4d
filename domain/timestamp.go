package domain

import (
	"fmt"
	"time"
)

// Timestamp wraps time.Time to accept the backend's ISO-8601 strings,
// which arrive with or without an explicit UTC offset.
type Timestamp struct {
	time.Time
}

// timeLayouts lists accepted wire formats, most common first. Offsetless
// values are treated as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// NewTimestamp builds a Timestamp from a time.Time.
func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t} }

// ParseTimestamp parses an ISO-8601 string into a Timestamp.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t.UTC()}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q", s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*ts = Timestamp{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid timestamp %s", data)
	}
	parsed, err := ParseTimestamp(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + ts.UTC().Format(time.RFC3339Nano) + `"`), nil
}

// Equal reports whether two timestamps refer to the same instant.
func (ts Timestamp) Equal(other Timestamp) bool { return ts.Time.Equal(other.Time) }
