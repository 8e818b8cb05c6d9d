package model

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestPlanChunks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		total    int
		size     int
		expected []int
	}{
		{name: "even split", total: 10, size: 5, expected: []int{5, 5}},
		{name: "remainder", total: 10, size: 3, expected: []int{3, 3, 3, 1}},
		{name: "size equals total", total: 10, size: 10, expected: []int{10}},
		{name: "size exceeds total", total: 10, size: 25, expected: []int{10}},
		{name: "empty file", total: 0, size: 5, expected: []int{0}},
		{name: "no chunking", total: 7, size: 0, expected: []int{7}},
		{name: "size one", total: 3, size: 1, expected: []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := PlanChunks(tt.total, tt.size)
			if len(got) != len(tt.expected) {
				t.Fatalf("PlanChunks(%d, %d) = %v, want %v", tt.total, tt.size, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Fatalf("PlanChunks(%d, %d) = %v, want %v", tt.total, tt.size, got, tt.expected)
				}
			}
		})
	}
}

func TestPlanChunksSumsToTotal(t *testing.T) {
	t.Parallel()

	for total := 0; total <= 50; total++ {
		for size := 1; size <= 60; size++ {
			sum := 0
			for _, c := range PlanChunks(total, size) {
				if c > size && size < total {
					t.Fatalf("chunk %d exceeds size %d", c, size)
				}
				sum += c
			}
			if sum != total {
				t.Fatalf("PlanChunks(%d, %d) sums to %d", total, size, sum)
			}
		}
	}
}

func TestParseMissing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		literal  string
		wantNull bool
		wantNaN  bool
		wantStr  string
	}{
		{literal: "None", wantNull: true},
		{literal: "NONE", wantNull: true},
		{literal: "na", wantNaN: true},
		{literal: "NaN", wantNaN: true},
		{literal: "", wantStr: ""},
		{literal: "-", wantStr: "-"},
		{literal: "missing", wantStr: "missing"},
	}

	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			t.Parallel()
			m := ParseMissing(tt.literal)
			v := m.Value()
			if !v.IsMissing() {
				t.Error("sentinel must be flagged missing")
			}
			switch {
			case tt.wantNull:
				if !m.IsNull() || !v.IsNull() {
					t.Errorf("ParseMissing(%q) should be null, got kind %v", tt.literal, v.Kind())
				}
			case tt.wantNaN:
				if !m.IsNaN() {
					t.Errorf("ParseMissing(%q) should be NaN, got kind %v", tt.literal, v.Kind())
				}
			default:
				if v.Kind() != KindString || v.Str() != tt.wantStr {
					t.Errorf("ParseMissing(%q) = %v %q, want string %q", tt.literal, v.Kind(), v.Str(), tt.wantStr)
				}
			}
			if m.Literal() != tt.literal {
				t.Errorf("Literal() = %q, want %q", m.Literal(), tt.literal)
			}
		})
	}
}

func TestValue_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{name: "string", value: StringValue("Alice"), expected: "Alice"},
		{name: "int", value: IntValue(30), expected: "30"},
		{name: "negative int", value: IntValue(-7), expected: "-7"},
		{name: "decimal", value: FloatValue(12.5), expected: "12.5"},
		{name: "integral float", value: FloatValue(3), expected: "3.0"},
		{name: "zero float", value: FloatValue(0), expected: "0.0"},
		{name: "small float", value: FloatValue(0.00001), expected: "1e-05"},
		{name: "large float", value: FloatValue(1e20), expected: "1e+20"},
		{name: "nan", value: NaNValue(), expected: "nan"},
		{name: "inf", value: FloatValue(math.Inf(1)), expected: "inf"},
		{name: "true", value: BoolValue(true), expected: "True"},
		{name: "false", value: BoolValue(false), expected: "False"},
		{name: "date", value: DateValue(time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)), expected: "2023-04-01"},
		{name: "null", value: NullValue(), expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.value.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValue_Equal(t *testing.T) {
	t.Parallel()

	if !NaNValue().Equal(FloatValue(math.NaN())) {
		t.Error("NaN should equal NaN")
	}
	if FloatValue(1).Equal(IntValue(1)) {
		t.Error("values of different kinds must not be equal")
	}
	if !(Record{StringValue("a"), IntValue(1)}).Equal(Record{StringValue("a"), IntValue(1)}) {
		t.Error("identical records should be equal")
	}
	if (Record{StringValue("a")}).Equal(Record{StringValue("a"), IntValue(1)}) {
		t.Error("records of different length must not be equal")
	}
}

func TestValue_Any(t *testing.T) {
	t.Parallel()

	if NullValue().Any() != nil {
		t.Error("null should convert to nil")
	}
	if got, ok := IntValue(5).Any().(int64); !ok || got != 5 {
		t.Errorf("IntValue(5).Any() = %v", IntValue(5).Any())
	}
	if got, ok := StringValue("x").Any().(string); !ok || got != "x" {
		t.Errorf("StringValue(x).Any() = %v", StringValue("x").Any())
	}
}

func TestNewSchema(t *testing.T) {
	t.Parallel()

	columns := []FieldDescriptor{
		{Name: "NAME", Type: FieldTypeCharacter, Width: 10},
		{Name: "AGE", Type: FieldTypeNumeric, Width: 3},
	}

	t.Run("layout", func(t *testing.T) {
		t.Parallel()

		s, err := NewSchema(columns, SchemaInfo{RecordCount: 2, HeaderLength: 97})
		if err != nil {
			t.Fatalf("NewSchema() error = %v", err)
		}
		if s.RecordWidth() != 14 {
			t.Errorf("RecordWidth() = %d, want 14", s.RecordWidth())
		}
		if !s.ColumnNames().Equal(NewHeader([]string{"NAME", "AGE"})) {
			t.Errorf("ColumnNames() = %v", s.ColumnNames())
		}
		if s.Fields()[0].Name != DeletionFlagName {
			t.Errorf("first field = %q, want deletion flag", s.Fields()[0].Name)
		}
		if s.NumColumns() != 2 || s.ColumnIndex("AGE") != 1 || s.ColumnIndex("nope") != -1 {
			t.Error("unexpected column lookup result")
		}
		if s.MaxCharacterWidth() != 10 {
			t.Errorf("MaxCharacterWidth() = %d, want 10", s.MaxCharacterWidth())
		}

		parts := s.Split([]byte(" Alice     030"))
		if len(parts) != 3 {
			t.Fatalf("Split() returned %d parts", len(parts))
		}
		if string(parts[0]) != " " || string(parts[1]) != "Alice     " || string(parts[2]) != "030" {
			t.Errorf("Split() = %q", parts)
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		t.Parallel()

		dup := append([]FieldDescriptor(nil), columns...)
		dup = append(dup, FieldDescriptor{Name: "AGE", Type: FieldTypeNumeric, Width: 2})
		_, err := NewSchema(dup, SchemaInfo{})
		if !errors.Is(err, ErrDuplicateColumnName) {
			t.Errorf("expected ErrDuplicateColumnName, got %v", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()

		_, err := NewSchema([]FieldDescriptor{{Name: "", Type: FieldTypeCharacter, Width: 1}}, SchemaInfo{})
		if err == nil {
			t.Error("expected error for empty field name")
		}
	})
}

func TestWitness(t *testing.T) {
	t.Parallel()

	columns := []FieldDescriptor{
		{Name: "NAME", Type: FieldTypeCharacter, Width: 10},
		{Name: "AGE", Type: FieldTypeNumeric, Width: 3},
		{Name: "BORN", Type: FieldTypeDate, Width: 8},
	}

	w := NewWitness()
	w.Observe(columns, Record{ParseMissing("").Value(), NaNValue(), ParseMissing("none").Value()})
	if w.Len() != 0 {
		t.Fatalf("missing values must not be witnessed, got %d", w.Len())
	}

	w.Observe(columns, Record{StringValue("Bob"), IntValue(30), ParseMissing("").Value()})
	w.Observe(columns, Record{StringValue("Eve"), FloatValue(1.5), ParseMissing("").Value()})

	if k, ok := w.Kind("NAME"); !ok || k != KindString {
		t.Errorf("NAME witness = %v %v", k, ok)
	}
	if k, ok := w.Kind("AGE"); !ok || k != KindInt {
		t.Errorf("AGE witness = %v %v, first observation must win", k, ok)
	}
	if _, ok := w.Kind("BORN"); ok {
		t.Error("BORN should have no witness")
	}
	if got := w.KindOr(columns[2]); got != KindDate {
		t.Errorf("KindOr(BORN) = %v, want date", got)
	}

	clone := w.Clone()
	clone.Observe(columns, Record{StringValue("x"), IntValue(1), DateValue(time.Now())})
	if _, ok := w.Kind("BORN"); ok {
		t.Error("clone must be independent")
	}
}

func TestLookupDialect(t *testing.T) {
	t.Parallel()

	sqlite, err := LookupDialect("SQLite")
	if err != nil {
		t.Fatalf("LookupDialect(SQLite) error = %v", err)
	}
	if sqlite.TypeOf(KindFloat) != "REAL" || sqlite.TypeOf(KindBool) != "INTEGER" {
		t.Error("unexpected sqlite type mapping")
	}
	if got := sqlite.LoadDirective("people", "people.csv"); got != ".mode csv people\n.import people.csv people" {
		t.Errorf("LoadDirective() = %q", got)
	}

	pg, err := LookupDialect("postgres")
	if err != nil {
		t.Fatalf("LookupDialect(postgres) error = %v", err)
	}
	if got := pg.CreateTableStart("people"); got != "CREATE TABLE \"people\" (\n" {
		t.Errorf("CreateTableStart() = %q", got)
	}
	if got := pg.Column("AGE", KindInt); got != `"AGE" bigint` {
		t.Errorf("Column() = %q", got)
	}

	if _, err := LookupDialect("oracle"); !errors.Is(err, ErrUnsupportedDialect) {
		t.Errorf("expected ErrUnsupportedDialect, got %v", err)
	}
}
