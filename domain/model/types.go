// Package model provides domain model for dbfsql
package model

import "fmt"

// FieldType is the single byte type code stored in a DBF field descriptor.
type FieldType byte

const (
	// FieldTypeCharacter represents a space padded text field
	FieldTypeCharacter FieldType = 'C'
	// FieldTypeNumeric represents a number stored as text, integer or decimal
	FieldTypeNumeric FieldType = 'N'
	// FieldTypeFloat represents a floating point number stored as text
	FieldTypeFloat FieldType = 'F'
	// FieldTypeDate represents a YYYYMMDD date stored as text
	FieldTypeDate FieldType = 'D'
	// FieldTypeLogical represents a single byte boolean
	FieldTypeLogical FieldType = 'L'
)

// String returns the type code as a one character string
func (t FieldType) String() string {
	return string(rune(t))
}

// IsSupported reports whether records containing this type can be decoded
func (t FieldType) IsSupported() bool {
	switch t {
	case FieldTypeCharacter, FieldTypeNumeric, FieldTypeFloat, FieldTypeDate, FieldTypeLogical:
		return true
	default:
		return false
	}
}

// Quoted reports whether CSV output wraps values of this type in double quotes.
// Character, date and logical columns are quoted; numeric columns are bare.
func (t FieldType) Quoted() bool {
	switch t {
	case FieldTypeCharacter, FieldTypeDate, FieldTypeLogical:
		return true
	default:
		return false
	}
}

// FallbackKind returns the value kind assumed for a column when no value was observed
func (t FieldType) FallbackKind() ValueKind {
	switch t {
	case FieldTypeNumeric, FieldTypeFloat:
		return KindFloat
	case FieldTypeLogical:
		return KindBool
	case FieldTypeDate:
		return KindDate
	default:
		return KindString
	}
}

// DeletionFlagName is the name of the synthetic one byte field that leads every record.
const DeletionFlagName = "DeletionFlag"

// FieldDescriptor describes one fixed width field of a DBF record.
type FieldDescriptor struct {
	// Name is the NUL trimmed field name, at most 11 bytes on disk
	Name string
	// Type is the storage type code
	Type FieldType
	// Width is the field width in bytes
	Width int
	// Decimals is the declared decimal count. It is informational only.
	Decimals int
}

// String returns a compact description such as "AGE N(3,0)"
func (f FieldDescriptor) String() string {
	return fmt.Sprintf("%s %s(%d,%d)", f.Name, f.Type, f.Width, f.Decimals)
}

// Header is the ordered list of user visible column names.
type Header []string

// NewHeader create new Header.
func NewHeader(h []string) Header {
	return Header(h)
}

// Equal compare Header.
func (h Header) Equal(h2 Header) bool {
	if len(h) != len(h2) {
		return false
	}
	for i, v := range h {
		if v != h2[i] {
			return false
		}
	}
	return true
}

// Record is one decoded live record, aligned with the schema columns.
type Record []Value

// Equal compare Record. NaN values compare equal to each other.
func (r Record) Equal(r2 Record) bool {
	if len(r) != len(r2) {
		return false
	}
	for i, v := range r {
		if !v.Equal(r2[i]) {
			return false
		}
	}
	return true
}

// Strings renders every value the way CSV output does
func (r Record) Strings() []string {
	out := make([]string, len(r))
	for i, v := range r {
		out[i] = v.String()
	}
	return out
}
