package dbfsql

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nao1215/dbfsql/domain/model"
	dbfdriver "github.com/nao1215/dbfsql/driver"
)

// validator handles validation logic for DBBuilder
type validator struct{}

// newValidator creates a new validator instance
func newValidator() *validator {
	return &validator{}
}

// validatePath validates a single file or directory path
func (v *validator) validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: path cannot be empty", ErrNoInput)
	}
	if err := dbfdriver.ValidatePath(path); err != nil {
		return fmt.Errorf("%w: %s", err, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("failed to load file: path does not exist: %s", path)
		}
		return fmt.Errorf("failed to stat path %s: %w", path, err)
	}

	if !info.IsDir() && !model.IsSupportedFile(path) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

// validateFinalState performs final validation to ensure we have valid inputs
func (v *validator) validateFinalState(collectedPaths, originalPaths []string) error {
	if len(collectedPaths) > 0 {
		return nil
	}
	for _, path := range originalPaths {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return fmt.Errorf("%w: no DBF files found in directory", ErrNoInput)
		}
	}
	return fmt.Errorf("%w: no valid input files found", ErrNoInput)
}

// validateInputsAvailable checks if any valid inputs are available for database creation
func (v *validator) validateInputsAvailable(collectedPaths []string) error {
	if len(collectedPaths) == 0 {
		return errors.Join(ErrNoInput, errors.New("no valid input files found, did you call Build()?"))
	}
	return nil
}
