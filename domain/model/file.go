package model

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// File extensions
const (
	// ExtDBF is the DBF file extension
	ExtDBF = ".dbf"
	// ExtCSV is the CSV file extension
	ExtCSV = ".csv"
	// ExtSQL is the SQL script file extension
	ExtSQL = ".sql"
	// ExtParquet is the Parquet file extension
	ExtParquet = ".parquet"
	// ExtXLSX is the Excel workbook file extension
	ExtXLSX = ".xlsx"
	// ExtGZ is the gzip compression extension
	ExtGZ = ".gz"
	// ExtBZ2 is the bzip2 compression extension
	ExtBZ2 = ".bz2"
	// ExtXZ is the xz compression extension
	ExtXZ = ".xz"
	// ExtZSTD is the zstd compression extension
	ExtZSTD = ".zst"
)

var compressionExts = []string{ExtGZ, ExtBZ2, ExtXZ, ExtZSTD}

// File is a DBF input, possibly compressed.
type File struct {
	path        string
	compression CompressionType
}

// NewFile creates a new File
func NewFile(path string) *File {
	return &File{
		path:        path,
		compression: DetectCompressionType(path),
	}
}

// Path returns file path
func (f *File) Path() string {
	return f.path
}

// Compression returns the compression detected from the file extension
func (f *File) Compression() CompressionType {
	return f.compression
}

// IsCompressed returns true if file is compressed
func (f *File) IsCompressed() bool {
	return f.compression != CompressionNone
}

// TableName returns the table name derived from the file name
func (f *File) TableName() string {
	return TableFromFilePath(f.path)
}

// OpenReader opens the file and returns a reader that handles decompression.
// The returned closer releases both the decompressor and the file.
func (f *File) OpenReader() (io.Reader, func() error, error) {
	file, err := os.Open(f.path) //nolint:gosec // User-provided path is necessary for file operations
	if err != nil {
		return nil, nil, err
	}

	reader, closeDecoder, err := NewDecompressor(file, f.compression)
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}

	return reader, func() error {
		closeDecoder()
		return file.Close()
	}, nil
}

// NewDecompressor wraps r with a decompressing reader for the given compression type.
// The returned function releases decoder resources; it does not close r.
func NewDecompressor(r io.Reader, compression CompressionType) (io.Reader, func(), error) {
	switch compression {
	case CompressionNone:
		return r, func() {}, nil
	case CompressionGZ:
		gzReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzReader, func() { _ = gzReader.Close() }, nil
	case CompressionBZ2:
		return bzip2.NewReader(r), func() {}, nil
	case CompressionXZ:
		xzReader, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzReader, func() {}, nil
	case CompressionZSTD:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return decoder, decoder.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression type for reading: %v", compression)
	}
}

// IsSupportedFile checks if the file has a supported extension
func IsSupportedFile(fileName string) bool {
	return strings.HasSuffix(strings.ToLower(removeCompressionExtension(fileName)), ExtDBF)
}

// SupportedFileExtPatterns returns glob patterns matching every supported input
func SupportedFileExtPatterns() []string {
	patterns := []string{"*" + ExtDBF}
	for _, ext := range compressionExts {
		patterns = append(patterns, "*"+ExtDBF+ext)
	}
	return patterns
}

// TableFromFilePath creates table name from file path
func TableFromFilePath(filePath string) string {
	fileName := removeCompressionExtension(filepath.Base(filePath))
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}

func removeCompressionExtension(fileName string) string {
	lower := strings.ToLower(fileName)
	for _, ext := range compressionExts {
		if strings.HasSuffix(lower, ext) {
			return fileName[:len(fileName)-len(ext)]
		}
	}
	return fileName
}
