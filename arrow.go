package dbfsql

import (
	"fmt"
	"iter"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/nao1215/dbfsql/dbf"
	"github.com/nao1215/dbfsql/domain/model"
)

// Arrow metadata keys describing the DBF origin of a column
const (
	MetadataFieldType         = "dbf.type"
	MetadataFieldWidth        = "dbf.width"
	MetadataFieldDecimals     = "dbf.decimals"
	MetadataMaxCharacterWidth = "dbf.max_character_width"
)

// ArrowType returns the Arrow type of a DBF field type.
// N and F become float64 so that a column keeps one type across chunks with missing values.
func ArrowType(t model.FieldType) arrow.DataType {
	switch t {
	case model.FieldTypeNumeric, model.FieldTypeFloat:
		return arrow.PrimitiveTypes.Float64
	case model.FieldTypeDate:
		return arrow.FixedWidthTypes.Date32
	case model.FieldTypeLogical:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

// ArrowSchema returns the Arrow schema of records converted from schema.
// Every column is nullable; an int64 "index" column comes first when index is true.
func ArrowSchema(schema *model.Schema, index bool) *arrow.Schema {
	fields := make([]arrow.Field, 0, schema.NumColumns()+1)
	if index {
		fields = append(fields, arrow.Field{Name: indexColumnName, Type: arrow.PrimitiveTypes.Int64})
	}
	for _, col := range schema.Columns() {
		fields = append(fields, arrow.Field{
			Name:     col.Name,
			Type:     ArrowType(col.Type),
			Nullable: true,
			Metadata: arrow.NewMetadata(
				[]string{MetadataFieldType, MetadataFieldWidth, MetadataFieldDecimals},
				[]string{col.Type.String(), strconv.Itoa(col.Width), strconv.Itoa(col.Decimals)},
			),
		})
	}
	md := arrow.NewMetadata(
		[]string{MetadataMaxCharacterWidth},
		[]string{strconv.Itoa(schema.MaxCharacterWidth())},
	)
	return arrow.NewSchema(fields, &md)
}

// ToArrowRecord converts a batch into an Arrow record with schema sc, built by ArrowSchema.
// Missing values become nulls. The caller must Release the record.
func ToArrowRecord(mem memory.Allocator, sc *arrow.Schema, batch *dbf.Batch) (arrow.Record, error) {
	offset := 0
	switch sc.NumFields() {
	case len(batch.Columns):
	case len(batch.Columns) + 1:
		offset = 1
	default:
		return nil, fmt.Errorf("%w: arrow schema has %d fields for %d columns", ErrInvalidOptions, sc.NumFields(), len(batch.Columns))
	}

	rb := array.NewRecordBuilder(mem, sc)
	defer rb.Release()
	rb.Reserve(batch.Len())

	if offset == 1 {
		ib, ok := rb.Field(0).(*array.Int64Builder)
		if !ok {
			return nil, fmt.Errorf("%w: index field is %s", ErrInvalidOptions, sc.Field(0).Type)
		}
		for i := range batch.Records {
			ib.Append(int64(batch.Offset + i))
		}
	}

	for c := range batch.Columns {
		if err := appendColumn(rb.Field(c+offset), batch, c); err != nil {
			return nil, fmt.Errorf("column %s: %w", batch.Columns[c].Name, err)
		}
	}
	return rb.NewRecord(), nil
}

func appendColumn(b array.Builder, batch *dbf.Batch, c int) error {
	for _, rec := range batch.Records {
		v := rec[c]
		if v.IsMissing() || v.IsNull() {
			b.AppendNull()
			continue
		}
		switch fb := b.(type) {
		case *array.StringBuilder:
			fb.Append(v.String())
		case *array.Float64Builder:
			fb.Append(v.Float())
		case *array.Date32Builder:
			fb.Append(arrow.Date32FromTime(v.Time()))
		case *array.BooleanBuilder:
			fb.Append(v.Bool())
		default:
			return fmt.Errorf("%w: arrow builder %T", ErrUnsupportedFormat, b)
		}
	}
	return nil
}

// ArrowReader streams a DBF file as Arrow records, one per chunk.
type ArrowReader struct {
	r      *dbf.Reader
	schema *arrow.Schema
	mem    memory.Allocator
	chunk  int
}

// NewArrowReader wraps r. opts.ChunkSize sets the record slots per Arrow record;
// 0 converts the whole file into a single record.
func NewArrowReader(r *dbf.Reader, opts Options) *ArrowReader {
	return &ArrowReader{
		r:      r,
		schema: ArrowSchema(r.Schema(), opts.Index),
		mem:    memory.NewGoAllocator(),
		chunk:  opts.ChunkSize,
	}
}

// Schema returns the Arrow schema of every produced record
func (ar *ArrowReader) Schema() *arrow.Schema {
	return ar.schema
}

// Records returns an iterator over Arrow records. Index values continue across records.
// Each record must be released by the caller.
func (ar *ArrowReader) Records() iter.Seq2[arrow.Record, error] {
	return func(yield func(arrow.Record, error) bool) {
		for batch, err := range ar.r.Chunks(ar.chunk) {
			if err != nil {
				yield(nil, err)
				return
			}
			rec, err := ToArrowRecord(ar.mem, ar.schema, batch)
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}
