// Package dbftest builds DBF version 5 files in memory for tests.
package dbftest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// Field describes one column of a generated file.
type Field struct {
	Name     string
	Type     byte
	Width    int
	Decimals int
}

// Row is one record. Values are written left aligned and space padded to the
// field width; a value longer than the field is cut.
type Row struct {
	Deleted bool
	Values  []string
}

// Live returns a live row with the given values
func Live(values ...string) Row {
	return Row{Values: values}
}

// Deleted returns a soft deleted row with the given values
func Deleted(values ...string) Row {
	return Row{Deleted: true, Values: values}
}

// Build encodes fields and rows as a DBF version 5 file.
func Build(fields []Field, rows []Row) []byte {
	return BuildWithCount(fields, rows, len(rows))
}

// BuildWithCount is Build with an explicit record count in the header,
// which allows files that declare more or fewer records than they hold.
func BuildWithCount(fields []Field, rows []Row, recordCount int) []byte {
	var buf bytes.Buffer

	headerLength := 32 + 32*len(fields) + 1
	recordWidth := 1
	for _, f := range fields {
		recordWidth += f.Width
	}

	head := make([]byte, 32)
	head[0] = 0x03
	head[1] = 124 // 2024
	head[2] = 5
	head[3] = 17
	binary.LittleEndian.PutUint32(head[4:8], uint32(recordCount))  //nolint:gosec // test input
	binary.LittleEndian.PutUint16(head[8:10], uint16(headerLength)) //nolint:gosec // test input
	binary.LittleEndian.PutUint16(head[10:12], uint16(recordWidth)) //nolint:gosec // test input
	buf.Write(head)

	for _, f := range fields {
		desc := make([]byte, 32)
		copy(desc[:11], f.Name)
		desc[11] = f.Type
		desc[16] = byte(f.Width)
		desc[17] = byte(f.Decimals)
		buf.Write(desc)
	}
	buf.WriteByte(0x0D)

	for _, row := range rows {
		if row.Deleted {
			buf.WriteByte('*')
		} else {
			buf.WriteByte(' ')
		}
		for i, f := range fields {
			cell := bytes.Repeat([]byte{' '}, f.Width)
			if i < len(row.Values) {
				copy(cell, row.Values[i])
			}
			buf.Write(cell)
		}
	}
	return buf.Bytes()
}

// WriteFile writes data into dir/name and returns the path
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// People is a small fixture with every supported field type.
//
//	NAME C(10) | AGE N(3) | SCORE N(6,2) | RATIO F(8) | BORN D(8) | ACTIVE L(1)
//
// It holds four record slots; the third is soft deleted.
func People() []byte {
	return Build(PeopleFields(), PeopleRows())
}

// PeopleFields returns the field table of People
func PeopleFields() []Field {
	return []Field{
		{Name: "NAME", Type: 'C', Width: 10},
		{Name: "AGE", Type: 'N', Width: 3},
		{Name: "SCORE", Type: 'N', Width: 6, Decimals: 2},
		{Name: "RATIO", Type: 'F', Width: 8},
		{Name: "BORN", Type: 'D', Width: 8},
		{Name: "ACTIVE", Type: 'L', Width: 1},
	}
}

// PeopleRows returns the record slots of People
func PeopleRows() []Row {
	return []Row{
		Live("Alice", "030", "12.50", "0.25", "19930401", "T"),
		Live(`Bob "B"`, "041", "7.00", "1.5", "19820715", "n"),
		Deleted("Ghost", "099", "0.00", "0", "20000101", "T"),
		Live("", "", "", "abc", "2023XX01", "?"),
	}
}
