package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/reviewscan/internal/model"
)

// DefaultCSVFile is the default artifact file name.
const DefaultCSVFile = "donnees_agences_avis.csv"

// CSVFile writes the review artifact to a file.
// The file is written to a temporary name and renamed into place, so a
// reader never sees a partial artifact.
type CSVFile struct {
	path string
}

// NewCSVFile creates a CSVFile writing to path.
func NewCSVFile(path string) *CSVFile {
	if path == "" {
		path = DefaultCSVFile
	}
	return &CSVFile{path: path}
}

// Path returns the destination path.
func (f *CSVFile) Path() string {
	return f.path
}

// Name implements crawler.Persister.
func (f *CSVFile) Name() string {
	return "csv:" + f.path
}

// Persist implements crawler.Persister.
func (f *CSVFile) Persist(_ context.Context, rows []model.OutputRow) (err error) {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := WriteCSV(tmp, rows); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // The artifact is meant to be shared.
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}

// ReadCSVFile parses the artifact at path.
func ReadCSVFile(path string) (*CSVData, error) {
	file, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer file.Close()

	return ReadCSV(file)
}
