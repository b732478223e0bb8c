package utils

import (
	"fmt"
	"time"

	v1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

type _time = v1.Time

// TimestampFormat is the fixed width RFC 3339 representation
// used for persisted timestamps. Lexical order matches time order.
const TimestampFormat = "2006-01-02T15:04:05.000000Z07:00"

// Timestamp is UTC time truncated to microseconds.
// It is used for all persisted points in time (commit creation,
// publishing and approval).
type Timestamp struct {
	_time `json:",inline"`
}

func NewTimestamp() Timestamp {
	return NewTimestampFor(time.Now())
}

func NewTimestampFor(t time.Time) Timestamp {
	return Timestamp{
		_time: v1.NewTime(t.UTC().Truncate(time.Microsecond)),
	}
}

// ParseTimestamp parses an RFC 3339 representation.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return NewTimestampFor(t), nil
}

// ParseTimestampP parses an optional persisted timestamp.
func ParseTimestampP(s *string) (*Timestamp, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := ParseTimestamp(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarshalJSON implements the json.Marshaler interface.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if y := t.Year(); y < 0 || y >= 10000 {
		return nil, fmt.Errorf("Time.MarshalJSON: year outside of range [0,9999]")
	}

	b := make([]byte, 0, len(TimestampFormat)+2)
	b = append(b, '"')
	b = t.AppendFormat(b, TimestampFormat)
	b = append(b, '"')
	return b, nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	tt, err := time.Parse(`"`+time.RFC3339Nano+`"`, string(data))
	*t = NewTimestampFor(tt)
	return err
}

func (t Timestamp) String() string {
	return t.Format(TimestampFormat)
}

func (t *Timestamp) Time() time.Time {
	return t._time.Time
}

func (t *Timestamp) Equal(o Timestamp) bool {
	return t._time.Equal(&o._time)
}

func (t *Timestamp) After(o Timestamp) bool {
	return t._time.After(o._time.Time)
}
