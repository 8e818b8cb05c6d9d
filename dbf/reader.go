package dbf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/nao1215/dbfsql/domain/model"
)

// State is the lifecycle state of a Reader.
type State int

const (
	// StateOpened means the header was parsed and no record was read yet
	StateOpened State = iota
	// StateReading means at least one record slot was consumed
	StateReading
	// StateExhausted means every declared record slot was consumed
	StateExhausted
	// StateClosed means the source was released
	StateClosed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateOpened:
		return "opened"
	case StateReading:
		return "reading"
	case StateExhausted:
		return "exhausted"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const readBufferSize = 64 * 1024

// Reader is a forward only, single pass stream of live records.
//
// Records are produced in on-disk order with soft deleted records skipped.
// Reading stops after the number of record slots declared in the header even
// if the source holds trailing bytes. A Reader must not be used concurrently.
type Reader struct {
	body    *bufio.Reader
	closer  func() error
	schema  *model.Schema
	columns []model.FieldDescriptor
	decoder *Decoder
	witness *model.Witness
	logger  *slog.Logger
	buf     []byte
	slot    int
	emitted int
	deleted int
	state   State
}

// Batch is a group of live records read from one chunk of record slots.
type Batch struct {
	// Offset is the 0-based position of the first record among all live records
	Offset int
	// Columns are the user visible column descriptors
	Columns []model.FieldDescriptor
	// Records are the live records of the chunk
	Records []model.Record
}

// Len returns the number of records in the batch
func (b *Batch) Len() int {
	return len(b.Records)
}

// Column returns the values of column i in record order
func (b *Batch) Column(i int) []model.Value {
	out := make([]model.Value, len(b.Records))
	for r, rec := range b.Records {
		out[r] = rec[i]
	}
	return out
}

// NewReader parses the header from r and returns a Reader positioned at the first record.
// Header errors are returned before any record is read.
func NewReader(r io.Reader, cfg Config) (*Reader, error) {
	codec, err := LookupCodec(cfg.Codec)
	if err != nil {
		return nil, err
	}
	schema, err := ReadSchema(r, codec)
	if err != nil {
		return nil, err
	}
	decoder, err := NewDecoder(schema, cfg)
	if err != nil {
		return nil, err
	}

	bodySize := int64(schema.RecordCount()) * int64(schema.RecordWidth())
	logger := cfg.logger()
	logger.Debug("dbf header parsed",
		"records", schema.RecordCount(),
		"columns", schema.NumColumns(),
		"record_width", schema.RecordWidth(),
	)

	return &Reader{
		body:    bufio.NewReaderSize(io.LimitReader(r, bodySize), readBufferSize),
		closer:  func() error { return nil },
		schema:  schema,
		columns: schema.Columns(),
		decoder: decoder,
		witness: model.NewWitness(),
		logger:  logger,
		buf:     make([]byte, schema.RecordWidth()),
		state:   StateOpened,
	}, nil
}

// Open opens a DBF file, decompressing .gz, .bz2, .xz and .zst inputs.
func Open(path string, cfg Config) (*Reader, error) {
	file := model.NewFile(path)
	src, closer, err := file.OpenReader()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	r, err := NewReader(src, cfg)
	if err != nil {
		return nil, errors.Join(err, closer())
	}
	r.closer = closer
	return r, nil
}

// Schema returns the parsed schema
func (r *Reader) Schema() *model.Schema {
	return r.schema
}

// Columns returns the user visible column descriptors
func (r *Reader) Columns() []model.FieldDescriptor {
	return append([]model.FieldDescriptor(nil), r.columns...)
}

// State returns the current lifecycle state
func (r *Reader) State() State {
	return r.state
}

// Emitted returns the number of live records produced so far
func (r *Reader) Emitted() int {
	return r.emitted
}

// Deleted returns the number of soft deleted records skipped so far
func (r *Reader) Deleted() int {
	return r.deleted
}

// Witness returns a snapshot of the column type witness collected from every
// record produced so far.
func (r *Reader) Witness() *model.Witness {
	return r.witness.Clone()
}

// Next returns the next live record, or io.EOF once every record slot is consumed.
func (r *Reader) Next() (model.Record, error) {
	for {
		rec, live, err := r.readSlot()
		if err != nil {
			return nil, err
		}
		if live {
			return rec, nil
		}
	}
}

// Records returns an iterator over the remaining live records.
// Iteration stops after the first error.
func (r *Reader) Records() iter.Seq2[model.Record, error] {
	return func(yield func(model.Record, error) bool) {
		for {
			rec, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// Chunks returns an iterator over batches of the remaining records.
// Each batch covers at most size record slots, so batches may hold fewer records
// when slots are soft deleted; batches with no live record are not yielded.
// A size below 1 reads every remaining slot into a single batch.
func (r *Reader) Chunks(size int) iter.Seq2[*Batch, error] {
	return func(yield func(*Batch, error) bool) {
		for _, n := range model.PlanChunks(r.schema.RecordCount()-r.slot, size) {
			batch := &Batch{
				Offset:  r.emitted,
				Columns: r.columns,
				Records: make([]model.Record, 0, n),
			}
			for i := 0; i < n; i++ {
				rec, live, err := r.readSlot()
				if err != nil {
					yield(nil, err)
					return
				}
				if live {
					batch.Records = append(batch.Records, rec)
				}
			}
			if batch.Len() == 0 {
				continue
			}
			r.logger.Debug("dbf chunk decoded", "offset", batch.Offset, "records", batch.Len())
			if !yield(batch, nil) {
				return
			}
		}
	}
}

// ReadAll reads every remaining live record.
func (r *Reader) ReadAll() ([]model.Record, error) {
	var out []model.Record
	for rec, err := range r.Records() {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close releases the underlying source. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.state == StateClosed {
		return nil
	}
	r.state = StateClosed
	return r.closer()
}

// readSlot consumes exactly one record slot.
func (r *Reader) readSlot() (model.Record, bool, error) {
	switch r.state {
	case StateClosed:
		return nil, false, ErrReaderClosed
	case StateExhausted:
		return nil, false, io.EOF
	}
	if r.slot >= r.schema.RecordCount() {
		r.state = StateExhausted
		return nil, false, io.EOF
	}
	r.state = StateReading

	if _, err := io.ReadFull(r.body, r.buf); err != nil {
		r.state = StateExhausted
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, false, fmt.Errorf("%w: record %d of %d", ErrTruncatedRecord, r.slot+1, r.schema.RecordCount())
		}
		return nil, false, fmt.Errorf("failed to read record %d: %w", r.slot+1, err)
	}
	r.slot++
	if r.slot == r.schema.RecordCount() {
		r.state = StateExhausted
	}

	rec, live, err := r.decoder.Decode(r.buf)
	if err != nil {
		r.state = StateExhausted
		return nil, false, fmt.Errorf("record %d: %w", r.slot, err)
	}
	if !live {
		r.deleted++
		r.logger.Debug("dbf skipped deleted record", "slot", r.slot-1, "flag", string(r.buf[0]))
		return nil, false, nil
	}

	r.witness.Observe(r.columns, rec)
	r.emitted++
	return rec, true, nil
}
