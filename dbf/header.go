package dbf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nao1215/dbfsql/domain/model"
)

const (
	fileHeaderSize   = 32
	descriptorSize   = 32
	fieldNameSize    = 11
	typeCodeOffset   = 11
	widthOffset      = 16
	decimalsOffset   = 17
	headerTerminator = 0x0D
)

// ReadSchema parses the file header and field descriptor table from r, which
// must be positioned at offset 0. On success r is positioned exactly at the
// declared header length, the start of the first record.
//
// Field names are decoded with codec; nil means utf-8.
func ReadSchema(r io.Reader, codec *Codec) (*model.Schema, error) {
	if codec == nil {
		codec = &Codec{name: DefaultCodec}
	}

	head := make([]byte, fileHeaderSize)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, malformed("short file header", err)
	}

	recordCount := binary.LittleEndian.Uint32(head[4:8])
	headerLength := int(binary.LittleEndian.Uint16(head[8:10]))

	if headerLength < fileHeaderSize+1 {
		return nil, malformed(fmt.Sprintf("header length %d is smaller than %d", headerLength, fileHeaderSize+1), nil)
	}
	if (headerLength-fileHeaderSize-1)%descriptorSize != 0 {
		return nil, malformed(fmt.Sprintf("header length %d does not hold whole field descriptors", headerLength), nil)
	}
	numFields := (headerLength - fileHeaderSize - 1) / descriptorSize

	table := make([]byte, numFields*descriptorSize)
	if _, err := io.ReadFull(r, table); err != nil {
		return nil, malformed("short field descriptor table", err)
	}

	columns := make([]model.FieldDescriptor, 0, numFields)
	for i := 0; i < numFields; i++ {
		desc := table[i*descriptorSize : (i+1)*descriptorSize]
		name, err := fieldName(desc[:fieldNameSize], codec)
		if err != nil {
			return nil, malformed(fmt.Sprintf("field %d", i+1), err)
		}
		columns = append(columns, model.FieldDescriptor{
			Name:     name,
			Type:     model.FieldType(desc[typeCodeOffset]),
			Width:    int(desc[widthOffset]),
			Decimals: int(desc[decimalsOffset]),
		})
	}

	var term [1]byte
	if _, err := io.ReadFull(r, term[:]); err != nil {
		return nil, malformed("missing header terminator", err)
	}
	if term[0] != headerTerminator {
		return nil, malformed(fmt.Sprintf("header terminator is 0x%02X, want 0x0D", term[0]), nil)
	}

	schema, err := model.NewSchema(columns, model.SchemaInfo{
		RecordCount:  int(recordCount),
		HeaderLength: headerLength,
		Version:      head[0],
		LastUpdate:   lastUpdate(head[1], head[2], head[3]),
	})
	if err != nil {
		return nil, malformed("invalid field table", err)
	}
	return schema, nil
}

func fieldName(raw []byte, codec *Codec) (string, error) {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	name, err := codec.Decode(bytes.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return name, nil
}

// lastUpdate converts the YY MM DD header bytes, YY counted from 1900.
func lastUpdate(yy, mm, dd byte) time.Time {
	if mm < 1 || mm > 12 || dd < 1 || dd > 31 {
		return time.Time{}
	}
	return time.Date(1900+int(yy), time.Month(mm), int(dd), 0, 0, 0, 0, time.UTC)
}

func malformed(msg string, err error) error {
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("%w: %s: %w", ErrMalformedHeader, msg, err)
	}
	return fmt.Errorf("%w: %s", ErrMalformedHeader, msg)
}
