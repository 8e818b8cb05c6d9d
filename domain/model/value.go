package model

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueKind is the runtime type of a decoded value.
type ValueKind int

const (
	// KindNull is the absent value marker
	KindNull ValueKind = iota
	// KindString is decoded text
	KindString
	// KindInt is a 64-bit integer
	KindInt
	// KindFloat is a 64-bit float, NaN included
	KindFloat
	// KindBool is a boolean
	KindBool
	// KindDate is a calendar date
	KindDate
)

// String returns the witness name of the kind
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "str"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

// DateLayout is the layout used to render dates.
const DateLayout = "2006-01-02"

// Value is a single decoded field value.
//
// A value substituted for missing or malformed data carries the missing flag,
// so sinks and witnesses can tell a sentinel apart from real data.
type Value struct {
	kind    ValueKind
	s       string
	i       int64
	f       float64
	b       bool
	t       time.Time
	missing bool
}

// NullValue returns the absent value marker
func NullValue() Value {
	return Value{kind: KindNull}
}

// StringValue returns a text value
func StringValue(s string) Value {
	return Value{kind: KindString, s: s}
}

// IntValue returns an integer value
func IntValue(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// FloatValue returns a float value
func FloatValue(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// NaNValue returns the NaN used for unparseable numeric fields
func NaNValue() Value {
	return Value{kind: KindFloat, f: math.NaN(), missing: true}
}

// BoolValue returns a boolean value
func BoolValue(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// DateValue returns a date value truncated to the calendar day in UTC
func DateValue(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// AsMissing returns a copy of v flagged as a missing value substitute
func (v Value) AsMissing() Value {
	v.missing = true
	return v
}

// Kind returns the runtime type
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsMissing reports whether the value stands in for missing or malformed data
func (v Value) IsMissing() bool {
	return v.missing
}

// IsNull reports whether the value is the absent marker
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// IsNaN reports whether the value is a float NaN
func (v Value) IsNaN() bool {
	return v.kind == KindFloat && math.IsNaN(v.f)
}

// Str returns the text of a string value
func (v Value) Str() string {
	return v.s
}

// Int returns the integer of an int value
func (v Value) Int() int64 {
	return v.i
}

// Float returns the float of a float value, or the integer widened for int values
func (v Value) Float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Bool returns the boolean of a bool value
func (v Value) Bool() bool {
	return v.b
}

// Time returns the date of a date value
func (v Value) Time() time.Time {
	return v.t
}

// Any returns the value as a plain Go value. Null becomes nil.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindDate:
		return v.t
	default:
		return nil
	}
}

// String renders the value for text output.
//
// Floats use the shortest representation that round trips, with a ".0" suffix
// for integral values and "nan"/"inf" for non-finite values. Booleans render as
// True/False, dates as YYYY-MM-DD and null as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return FormatFloat(v.f)
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindDate:
		return v.t.Format(DateLayout)
	default:
		return ""
	}
}

// Equal reports whether two values hold the same data. NaN equals NaN.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		if math.IsNaN(v.f) || math.IsNaN(o.f) {
			return math.IsNaN(v.f) && math.IsNaN(o.f)
		}
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindDate:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

// FormatFloat renders f as the shortest decimal that round trips.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
