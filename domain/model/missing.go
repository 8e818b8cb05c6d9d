package model

import "strings"

// MissingValue is the sentinel substituted for missing or malformed
// character, date and logical fields.
type MissingValue struct {
	literal string
	value   Value
}

// ParseMissing converts a configuration literal into a sentinel.
//
//   - "none" (any case) yields the null marker
//   - "na" or "nan" (any case) yields float NaN
//   - anything else is used verbatim as a string
func ParseMissing(literal string) MissingValue {
	switch strings.ToLower(literal) {
	case "none":
		return MissingValue{literal: literal, value: NullValue().AsMissing()}
	case "na", "nan":
		return MissingValue{literal: literal, value: NaNValue()}
	default:
		return MissingValue{literal: literal, value: StringValue(literal).AsMissing()}
	}
}

// Value returns the sentinel value
func (m MissingValue) Value() Value {
	return m.value
}

// Literal returns the configuration literal the sentinel was parsed from
func (m MissingValue) Literal() string {
	return m.literal
}

// IsNull reports whether the sentinel is the null marker
func (m MissingValue) IsNull() bool {
	return m.value.IsNull()
}

// IsNaN reports whether the sentinel is float NaN
func (m MissingValue) IsNaN() bool {
	return m.value.IsNaN()
}
