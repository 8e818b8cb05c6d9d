package model

import (
	"fmt"
	"time"
)

// Schema is the immutable layout of a DBF file: its field descriptors,
// with the deletion flag first, and the counts declared in the file header.
type Schema struct {
	fields       []FieldDescriptor
	offsets      []int
	recordWidth  int
	recordCount  int
	headerLength int
	version      byte
	lastUpdate   time.Time
}

// SchemaInfo carries the header values that are not part of the field table.
type SchemaInfo struct {
	RecordCount  int
	HeaderLength int
	Version      byte
	LastUpdate   time.Time
}

// NewSchema builds a schema from user fields in on-disk order.
// The deletion flag field is prepended; names must be unique and non-empty.
func NewSchema(columns []FieldDescriptor, info SchemaInfo) (*Schema, error) {
	fields := make([]FieldDescriptor, 0, len(columns)+1)
	fields = append(fields, FieldDescriptor{Name: DeletionFlagName, Type: FieldTypeCharacter, Width: 1})

	seen := make(map[string]struct{}, len(columns))
	for i, c := range columns {
		if c.Name == "" {
			return nil, fmt.Errorf("field %d has an empty name", i+1)
		}
		if _, ok := seen[c.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumnName, c.Name)
		}
		if c.Width < 1 {
			return nil, fmt.Errorf("field %s has invalid width %d", c.Name, c.Width)
		}
		seen[c.Name] = struct{}{}
		fields = append(fields, c)
	}

	offsets := make([]int, len(fields)+1)
	for i, f := range fields {
		offsets[i+1] = offsets[i] + f.Width
	}

	return &Schema{
		fields:       fields,
		offsets:      offsets,
		recordWidth:  offsets[len(fields)],
		recordCount:  info.RecordCount,
		headerLength: info.HeaderLength,
		version:      info.Version,
		lastUpdate:   info.LastUpdate,
	}, nil
}

// Fields returns every descriptor, deletion flag included
func (s *Schema) Fields() []FieldDescriptor {
	return append([]FieldDescriptor(nil), s.fields...)
}

// Columns returns the user visible descriptors in on-disk order
func (s *Schema) Columns() []FieldDescriptor {
	return append([]FieldDescriptor(nil), s.fields[1:]...)
}

// Column returns the i-th user visible descriptor
func (s *Schema) Column(i int) FieldDescriptor {
	return s.fields[i+1]
}

// NumColumns returns the number of user visible columns
func (s *Schema) NumColumns() int {
	return len(s.fields) - 1
}

// ColumnNames returns the user visible column names; this is the header order of every sink
func (s *Schema) ColumnNames() Header {
	names := make(Header, 0, len(s.fields)-1)
	for _, f := range s.fields[1:] {
		names = append(names, f.Name)
	}
	return names
}

// ColumnIndex returns the position of the named column, or -1
func (s *Schema) ColumnIndex(name string) int {
	for i, f := range s.fields[1:] {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// RecordWidth returns the byte width of one record including the deletion flag
func (s *Schema) RecordWidth() int {
	return s.recordWidth
}

// RecordCount returns the number of record slots declared in the header
func (s *Schema) RecordCount() int {
	return s.recordCount
}

// HeaderLength returns the declared header length in bytes
func (s *Schema) HeaderLength() int {
	return s.headerLength
}

// Version returns the version byte of the file header
func (s *Schema) Version() byte {
	return s.version
}

// LastUpdate returns the last update date recorded in the file header
func (s *Schema) LastUpdate() time.Time {
	return s.lastUpdate
}

// MaxCharacterWidth returns the widest character field, or 0 when there is none
func (s *Schema) MaxCharacterWidth() int {
	mx := 0
	for _, f := range s.fields[1:] {
		if f.Type == FieldTypeCharacter && f.Width > mx {
			mx = f.Width
		}
	}
	return mx
}

// Split cuts one raw record into per-field slices, deletion flag first.
// raw must be exactly RecordWidth bytes long; the slices alias raw.
func (s *Schema) Split(raw []byte) [][]byte {
	parts := make([][]byte, len(s.fields))
	for i := range s.fields {
		parts[i] = raw[s.offsets[i]:s.offsets[i+1]]
	}
	return parts
}
