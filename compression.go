package dbfsql

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/nao1215/dbfsql/domain/model"
	"github.com/ulikunitz/xz"
)

// CompressionType represents the compression type of input and output files
type CompressionType = model.CompressionType

// Re-export constants for easier use
const (
	// CompressionNone represents no compression
	CompressionNone = model.CompressionNone
	// CompressionGZ represents gzip compression
	CompressionGZ = model.CompressionGZ
	// CompressionBZ2 represents bzip2 compression (input only)
	CompressionBZ2 = model.CompressionBZ2
	// CompressionXZ represents xz compression
	CompressionXZ = model.CompressionXZ
	// CompressionZSTD represents zstd compression
	CompressionZSTD = model.CompressionZSTD
)

// CompressionHandler wraps output streams with a compressor
type CompressionHandler interface {
	// CreateWriter wraps an io.Writer with a compression writer if needed.
	// The returned close function flushes the compressor without closing writer.
	CreateWriter(writer io.Writer) (io.Writer, func() error, error)
	// Extension returns the file extension for this compression type (e.g., ".gz")
	Extension() string
}

// compressionHandlerImpl implements the CompressionHandler interface
type compressionHandlerImpl struct {
	compressionType CompressionType
}

// NewCompressionHandler creates a new compression handler for the given compression type
func NewCompressionHandler(compressionType CompressionType) CompressionHandler {
	return &compressionHandlerImpl{compressionType: compressionType}
}

// CreateWriter creates a compression writer based on the compression type
func (h *compressionHandlerImpl) CreateWriter(writer io.Writer) (io.Writer, func() error, error) {
	switch h.compressionType {
	case CompressionNone:
		return writer, func() error { return nil }, nil

	case CompressionGZ:
		gzWriter := gzip.NewWriter(writer)
		return gzWriter, gzWriter.Close, nil

	case CompressionBZ2:
		// bzip2 doesn't have a writer in the standard library
		return nil, nil, fmt.Errorf("%w: bzip2 compression is not supported for writing", ErrUnsupportedFormat)

	case CompressionXZ:
		xzWriter, err := xz.NewWriter(writer)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		return xzWriter, xzWriter.Close, nil

	case CompressionZSTD:
		zstdWriter, err := zstd.NewWriter(writer)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return zstdWriter, zstdWriter.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: compression type %v", ErrUnsupportedFormat, h.compressionType)
	}
}

// Extension returns the file extension for this compression type
func (h *compressionHandlerImpl) Extension() string {
	return h.compressionType.Extension()
}

// createOutput creates path, truncating it unless appendMode is set, and wraps it
// with the compressor configured in opts. The close function flushes the compressor
// and closes the file, joining both errors.
func createOutput(path string, opts Options, appendMode bool) (io.Writer, func() error, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, sinkError(path, err)
		}
	}

	file, err := os.OpenFile(filepath.Clean(path), flags, 0o600)
	if err != nil {
		return nil, nil, sinkError(path, err)
	}

	w, closeCompressor, err := NewCompressionHandler(opts.outputCompression(path)).CreateWriter(file)
	if err != nil {
		return nil, nil, errors.Join(err, file.Close())
	}

	closer := func() error {
		cerr := closeCompressor()
		ferr := file.Close()
		if err := errors.Join(cerr, ferr); err != nil {
			return sinkError(path, err)
		}
		return nil
	}
	return w, closer, nil
}
