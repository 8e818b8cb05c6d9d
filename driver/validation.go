package driver

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/nao1215/dbfsql/domain/model"
)

// MaxFileSize defines the maximum file size allowed for processing (4GB).
// DBF record counts are 32-bit, so larger files are not meaningful.
const MaxFileSize = 4 * 1024 * 1024 * 1024

// MaxFilesPerDirectory defines the maximum number of files allowed per directory
const MaxFilesPerDirectory = 1000

// MaxColumnCount defines the maximum number of columns allowed in a table.
// A 16-bit header length holds at most 2046 field descriptors.
const MaxColumnCount = 2046

var (
	// ErrFileTooLarge is returned when a file exceeds the maximum size limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrTooManyFiles is returned when a directory contains too many files
	ErrTooManyFiles = errors.New("too many files in directory")

	// ErrTooManyColumns is returned when a file has too many columns
	ErrTooManyColumns = errors.New("too many columns")

	// ErrInvalidPath is returned when a path is invalid or potentially dangerous
	ErrInvalidPath = errors.New("invalid or dangerous path")
)

// ValidatePath rejects empty paths, NUL bytes, deep parent traversal,
// system directories and Windows reserved device names.
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrInvalidPath
	}

	if strings.Contains(path, "\x00") {
		return ErrInvalidPath
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") && !isLegitimateRelativePath(path) {
		return ErrInvalidPath
	}

	lowerPath := strings.ToLower(path)
	for _, sysDir := range []string{"/etc/", "/proc/", "/sys/", "/dev/", "/boot/"} {
		if strings.HasPrefix(lowerPath, sysDir) {
			return ErrInvalidPath
		}
	}

	windowsDirs := []string{
		"c:\\windows\\", "c:/windows/",
		"\\\\?\\", // UNC paths
		"\\\\",    // Network paths
	}
	for _, winDir := range windowsDirs {
		if strings.HasPrefix(lowerPath, winDir) {
			return ErrInvalidPath
		}
	}

	baseName := strings.ToLower(model.TableFromFilePath(path))
	if filepath.Base(lowerPath) == lowerPath || strings.HasSuffix(lowerPath, model.ExtDBF) {
		for _, reserved := range []string{"con", "prn", "aux", "nul", "com1", "com2", "com3", "com4", "lpt1", "lpt2", "lpt3"} {
			if baseName == reserved {
				return ErrInvalidPath
			}
		}
	}

	return nil
}

// ValidateColumnCount checks if the number of columns is within acceptable limits
func ValidateColumnCount(columnCount int) error {
	if columnCount > MaxColumnCount {
		return ErrTooManyColumns
	}
	return nil
}

// ValidateFileCount checks if the number of files is within acceptable limits
func ValidateFileCount(fileCount int) error {
	if fileCount > MaxFilesPerDirectory {
		return ErrTooManyFiles
	}
	return nil
}

// ValidateFileSize checks if a file size is within acceptable limits
func ValidateFileSize(size int64) error {
	if size > MaxFileSize {
		return ErrFileTooLarge
	}
	return nil
}

// IsValidFileName checks if a filename is safe to process
func IsValidFileName(fileName string) bool {
	if strings.HasPrefix(fileName, ".") {
		return false
	}
	if strings.Contains(fileName, "\x00") {
		return false
	}
	for _, char := range []string{"<", ">", ":", "\"", "|", "?", "*"} {
		if strings.Contains(fileName, char) {
			return false
		}
	}
	return true
}

// SanitizeForLog removes sensitive information from strings before logging
func SanitizeForLog(input string) string {
	lower := strings.ToLower(input)
	for _, pattern := range []string{"password", "passwd", "secret", "token", "credential", "private"} {
		if strings.Contains(lower, pattern) {
			return "[REDACTED]"
		}
	}

	const maxLogLength = 200
	if len(input) > maxLogLength {
		return input[:maxLogLength] + "..."
	}
	return input
}

// isLegitimateRelativePath allows at most three leading parent references
func isLegitimateRelativePath(path string) bool {
	cleanPath := filepath.Clean(path)
	if !strings.HasPrefix(cleanPath, "../") && !strings.HasPrefix(cleanPath, "..\\") {
		return true
	}

	parts := strings.FieldsFunc(cleanPath, func(c rune) bool {
		return c == '/' || c == '\\'
	})
	upLevels := 0
	for _, part := range parts {
		if part != ".." {
			break
		}
		upLevels++
	}
	return upLevels <= 3
}
