package dbf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/dbfsql/domain/model"
)

const deletionFlagLive = ' '

// Decoder turns raw fixed width records into typed values.
// It holds only immutable configuration and is safe to share between goroutines.
type Decoder struct {
	schema  *model.Schema
	columns []model.FieldDescriptor
	codec   *Codec
	missing model.Value
	escape  string
}

// NewDecoder builds a decoder for schema under cfg.
// It fails when the configured codec cannot be resolved.
func NewDecoder(schema *model.Schema, cfg Config) (*Decoder, error) {
	codec, err := LookupCodec(cfg.Codec)
	if err != nil {
		return nil, err
	}
	return &Decoder{
		schema:  schema,
		columns: schema.Columns(),
		codec:   codec,
		missing: cfg.Sentinel().Value(),
		escape:  cfg.EscapeQuote,
	}, nil
}

// Decode decodes one record of exactly RecordWidth bytes.
// live is false for soft deleted records, in which case rec is nil.
// Malformed field data never fails: it degrades to NaN or the missing sentinel.
func (d *Decoder) Decode(raw []byte) (rec model.Record, live bool, err error) {
	if len(raw) != d.schema.RecordWidth() {
		return nil, false, fmt.Errorf("%w: got %d bytes, want %d", ErrTruncatedRecord, len(raw), d.schema.RecordWidth())
	}
	if raw[0] != deletionFlagLive {
		return nil, false, nil
	}

	parts := d.schema.Split(raw)
	rec = make(model.Record, len(d.columns))
	for i, field := range d.columns {
		v, err := d.decodeField(field, parts[i+1])
		if err != nil {
			return nil, false, err
		}
		rec[i] = v
	}
	return rec, true, nil
}

func (d *Decoder) decodeField(field model.FieldDescriptor, raw []byte) (model.Value, error) {
	switch field.Type {
	case model.FieldTypeCharacter:
		return d.decodeCharacter(raw), nil
	case model.FieldTypeNumeric:
		return decodeNumeric(raw), nil
	case model.FieldTypeFloat:
		return decodeFloat(raw), nil
	case model.FieldTypeDate:
		return d.decodeDate(raw), nil
	case model.FieldTypeLogical:
		return d.decodeLogical(raw), nil
	default:
		return model.Value{}, fmt.Errorf("%w: %q in column %s", ErrUnsupportedFieldType, field.Type.String(), field.Name)
	}
}

func (d *Decoder) decodeCharacter(raw []byte) model.Value {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return d.missing
	}
	s, err := d.codec.Decode(raw)
	if err != nil {
		return d.missing
	}
	if d.escape != "" {
		s = strings.ReplaceAll(s, `"`, d.escape+`"`)
	}
	return model.StringValue(s)
}

// decodeNumeric parses an N field: a decimal point means float, otherwise int.
// Anything unparseable becomes NaN whatever the configured sentinel is.
func decodeNumeric(raw []byte) model.Value {
	s := string(bytes.TrimSpace(raw))
	if strings.ContainsRune(s, '.') {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.NaNValue()
		}
		return model.FloatValue(f)
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return model.NaNValue()
	}
	return model.IntValue(i)
}

func decodeFloat(raw []byte) model.Value {
	f, err := strconv.ParseFloat(string(bytes.TrimSpace(raw)), 64)
	if err != nil {
		return model.NaNValue()
	}
	return model.FloatValue(f)
}

func (d *Decoder) decodeDate(raw []byte) model.Value {
	if len(raw) < 8 {
		return d.missing
	}
	for _, c := range raw[:8] {
		if c < '0' || c > '9' {
			return d.missing
		}
	}
	y, _ := strconv.Atoi(string(raw[0:4]))
	m, _ := strconv.Atoi(string(raw[4:6]))
	day, _ := strconv.Atoi(string(raw[6:8]))
	if y < 1 {
		return d.missing
	}

	t := time.Date(y, time.Month(m), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != day {
		return d.missing
	}
	return model.DateValue(t)
}

func (d *Decoder) decodeLogical(raw []byte) model.Value {
	raw = bytes.TrimSpace(raw)
	if len(raw) != 1 {
		return d.missing
	}
	switch raw[0] {
	case 'T', 't', 'Y', 'y':
		return model.BoolValue(true)
	case 'F', 'f', 'N', 'n':
		return model.BoolValue(false)
	default:
		return d.missing
	}
}
