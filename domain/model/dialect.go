package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnsupportedDialect is returned when a SQL dialect name is not registered
var ErrUnsupportedDialect = errors.New("unsupported SQL dialect")

// Dialect maps value kinds to SQL type keywords and knows how to spell the
// CREATE TABLE preamble, the index column and the bulk load directive.
type Dialect struct {
	// Name is the registry name, such as "sqlite"
	Name string
	// Types maps a witnessed kind to the declared column type
	Types map[ValueKind]string
	// start is the CREATE TABLE opening, with %s for the table name
	start string
	// index is the declaration of the synthetic index column
	index string
	// load is the bulk load directive, with %[1]s for the table and %[2]s for the CSV file
	load string
}

var dialects = map[string]Dialect{
	"sqlite": {
		Name: "sqlite",
		Types: map[ValueKind]string{
			KindString: "TEXT",
			KindFloat:  "REAL",
			KindInt:    "INTEGER",
			KindDate:   "TEXT",
			KindBool:   "INTEGER",
		},
		start: "CREATE TABLE %s (\n",
		index: `"index" INTEGER PRIMARY KEY ASC`,
		load:  ".mode csv %[1]s\n.import %[2]s %[1]s",
	},
	"postgres": {
		Name: "postgres",
		Types: map[ValueKind]string{
			KindString: "text",
			KindFloat:  "double precision",
			KindInt:    "bigint",
			KindDate:   "date",
			KindBool:   "boolean",
		},
		start: "CREATE TABLE \"%s\" (\n",
		index: `"index" INTEGER PRIMARY KEY`,
		load:  `\copy "%[1]s" from '%[2]s' delimiter ',' csv`,
	},
}

// LookupDialect returns the registered dialect with the given name (case insensitive)
func LookupDialect(name string) (Dialect, error) {
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return Dialect{}, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedDialect, name, strings.Join(DialectNames(), ", "))
	}
	return d, nil
}

// DialectNames returns the registered dialect names in sorted order
func DialectNames() []string {
	names := make([]string, 0, len(dialects))
	for n := range dialects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TypeOf returns the declared SQL type for a kind. Null falls back to the string type.
func (d Dialect) TypeOf(kind ValueKind) string {
	if t, ok := d.Types[kind]; ok {
		return t
	}
	return d.Types[KindString]
}

// CreateTableStart returns the CREATE TABLE opening line for table
func (d Dialect) CreateTableStart(table string) string {
	return fmt.Sprintf(d.start, table)
}

// IndexColumn returns the declaration of the synthetic index column
func (d Dialect) IndexColumn() string {
	return d.index
}

// Column returns one column declaration
func (d Dialect) Column(name string, kind ValueKind) string {
	return fmt.Sprintf(`"%s" %s`, name, d.TypeOf(kind))
}

// LoadDirective returns the bulk load command importing csvName into table
func (d Dialect) LoadDirective(table, csvName string) string {
	return fmt.Sprintf(d.load, table, csvName)
}
