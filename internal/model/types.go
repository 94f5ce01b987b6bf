package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// The hosted frontend sends identifiers and dates in whatever shape its form
// state happens to hold: numbers, numeric strings, ISO timestamps, date-only
// strings. These scalar types absorb that variance at decode time without
// failing, and expose Set/Valid flags so the validation layer can report a
// precise per-field issue instead of aborting the whole parse.

var jsonNull = []byte("null")

// FlexID is an identifier that may arrive as a JSON string or number.
type FlexID struct {
	value string
	set   bool
	valid bool
}

// NewFlexID builds a set, valid FlexID from a string.
func NewFlexID(v string) FlexID {
	return FlexID{value: v, set: true, valid: v != ""}
}

// UnmarshalJSON implements json.Unmarshaler. It never returns an error for
// scalar input; malformed values are surfaced through Valid() so that all
// violations from one payload can be batched.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, jsonNull) {
		*f = FlexID{}
		return nil
	}
	f.set = true
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		f.value = s
		f.valid = s != ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		f.value = n.String()
		f.valid = true
		return nil
	}
	f.valid = false
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FlexID) MarshalJSON() ([]byte, error) {
	if !f.set {
		return jsonNull, nil
	}
	return json.Marshal(f.value)
}

// Set reports whether the field was present (and non-null) in the payload.
func (f FlexID) Set() bool { return f.set }

// Valid reports whether the field held a usable identifier.
func (f FlexID) Valid() bool { return f.set && f.valid }

// String returns the identifier as a string.
func (f FlexID) String() string { return f.value }

// FlexInt is a positive integer that may arrive as a JSON number or a numeric
// string. Non-numeric strings (e.g. a UI sentinel like "@@ra-create") decode
// as set-but-invalid rather than failing the parse.
type FlexInt struct {
	value int64
	set   bool
	valid bool
}

// NewFlexInt builds a set FlexInt from an int64.
func NewFlexInt(v int64) FlexInt {
	return FlexInt{value: v, set: true, valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, jsonNull) {
		*f = FlexInt{}
		return nil
	}
	f.set = true
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			f.value = i
			f.valid = true
			return nil
		}
		f.valid = false
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			f.value = i
			f.valid = true
			return nil
		}
	}
	f.valid = false
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FlexInt) MarshalJSON() ([]byte, error) {
	if !f.set {
		return jsonNull, nil
	}
	return json.Marshal(f.value)
}

// Set reports whether the field was present (and non-null) in the payload.
func (f FlexInt) Set() bool { return f.set }

// Valid reports whether the field parsed as an integer.
func (f FlexInt) Valid() bool { return f.set && f.valid }

// Int64 returns the parsed value.
func (f FlexInt) Int64() int64 { return f.value }

// Date layouts accepted by FlexDate, tried in order.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FlexDate is a timestamp that may arrive as an RFC3339 string, a date-only
// string, or a unix epoch number (seconds).
type FlexDate struct {
	value time.Time
	set   bool
	valid bool
}

// NewFlexDate builds a set, valid FlexDate from a time.Time.
func NewFlexDate(t time.Time) FlexDate {
	return FlexDate{value: t.UTC(), set: true, valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexDate) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, jsonNull) {
		*f = FlexDate{}
		return nil
	}
	f.set = true
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			f.valid = false
			return nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				f.value = t.UTC()
				f.valid = true
				return nil
			}
		}
		f.valid = false
		return nil
	}
	var epoch int64
	if err := json.Unmarshal(b, &epoch); err == nil {
		f.value = time.Unix(epoch, 0).UTC()
		f.valid = true
		return nil
	}
	f.valid = false
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FlexDate) MarshalJSON() ([]byte, error) {
	if !f.set {
		return jsonNull, nil
	}
	return json.Marshal(f.value.Format(time.RFC3339))
}

// Set reports whether the field was present (and non-null) in the payload.
func (f FlexDate) Set() bool { return f.set }

// Valid reports whether the field parsed as a date.
func (f FlexDate) Valid() bool { return f.set && f.valid }

// Time returns the parsed timestamp in UTC.
func (f FlexDate) Time() time.Time { return f.value }
