package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/recipecrawl/internal/model"
)

// CSVHeader is the header row of the dataset file.
var CSVHeader = []string{"Title", "Ingredients", "Instructions", "URL"}

const (
	// datasetDirMode is used for directories created for the dataset.
	datasetDirMode = 0o750

	// datasetFileMode is the mode of the written dataset.
	datasetFileMode = 0o600
)

// CSVWriter writes a dataset as CSV, one row per recipe. The ingredient
// list is stored in a single cell as a JSON array of strings.
type CSVWriter struct {
	path string
}

// NewCSVWriter creates a writer for the dataset file at path.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Path returns the destination file path.
func (w *CSVWriter) Path() string {
	return w.path
}

// WriteDataset writes ds to the destination file, replacing any previous
// content. Missing parent directories are created. The file is written
// to a temporary sibling first and renamed into place, so readers never
// see a partial dataset.
func (w *CSVWriter) WriteDataset(ds model.Dataset) (err error) {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, datasetDirMode); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err := EncodeCSV(tmp, ds); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(datasetFileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return fmt.Errorf("failed to move dataset into place: %w", err)
	}
	return nil
}

// EncodeCSV writes ds as CSV to out.
func EncodeCSV(out io.Writer, ds model.Dataset) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range ds.Recipes {
		ingredients, err := encodeIngredients(r.Ingredients)
		if err != nil {
			return fmt.Errorf("failed to encode ingredients of %q: %w", r.Title, err)
		}
		if err := cw.Write([]string{r.Title, ingredients, r.Instructions, r.SourceURL}); err != nil {
			return fmt.Errorf("failed to write record %q: %w", r.Title, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// encodeIngredients renders a list as a JSON array without HTML escaping.
func encodeIngredients(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
