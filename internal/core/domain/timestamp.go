package domain

import (
	"bytes"
	"fmt"
	"time"
)

var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Timestamp accepts RFC 3339 values and the zone-less ISO form the backend
// emits for naive columns, which is read as UTC.
type Timestamp time.Time

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

func (t Timestamp) String() string {
	return time.Time(t).Format(time.RFC3339)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return time.Time(t).MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid timestamp %s", data)
	}
	parsed, err := ParseTimestamp(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func ParseTimestamp(value string) (Timestamp, error) {
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return Timestamp(parsed), nil
	}
	for _, layout := range zonelessLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return Timestamp(parsed), nil
		}
	}
	return Timestamp{}, fmt.Errorf("failed to parse timestamp %q", value)
}
