package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bizpulse/internal/dataset"
)

// FileValidator checks the input and output paths handed to the command line tools
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateDatasetFile checks that path is a readable CSV or Excel workbook
func (v *FileValidator) ValidateDatasetFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	if !dataset.SupportedExtension(path) {
		ext := strings.ToLower(filepath.Ext(path))
		v.logger.Error("Unsupported dataset file",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("file %s: %w (extension: %q)", path, dataset.ErrUnsupportedFormat, ext)
	}

	// Excel lock files share the workbook extension
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Skipping temporary Excel file",
			slog.String("file", path))
		return fmt.Errorf("file %s is a temporary Excel file", path)
	}

	return nil
}

// ValidateDatasetFiles validates every path and reports all failures together
func (v *FileValidator) ValidateDatasetFiles(paths []string) error {
	if len(paths) == 0 {
		return errors.New("no input files given")
	}

	var errs []error
	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		clean := filepath.Clean(path)
		if seen[clean] {
			errs = append(errs, fmt.Errorf("file %s given more than once", path))
			continue
		}
		seen[clean] = true

		if err := v.ValidateDatasetFile(path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateOutputFile prepares the directory of path and checks its extension
// against allowed. An empty allowed list accepts any extension.
func (v *FileValidator) ValidateOutputFile(path string, allowed ...string) error {
	if path == "" {
		return errors.New("output path is empty")
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	if len(allowed) > 0 {
		ext := strings.ToLower(filepath.Ext(path))
		ok := false
		for _, a := range allowed {
			if ext == strings.ToLower(a) {
				ok = true
				break
			}
		}
		if !ok {
			v.logger.Error("Unexpected output extension",
				slog.String("file", path),
				slog.String("extension", ext),
				slog.Any("allowed", allowed))
			return fmt.Errorf("output %s must end with one of %s", path, strings.Join(allowed, ", "))
		}
	}

	return v.ValidateOutputDirectory(filepath.Dir(path))
}
