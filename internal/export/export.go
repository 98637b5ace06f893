package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/img2grid/internal/classifier"
	"github.com/ivlev/img2grid/internal/report"
)

// ErrExportFailure wraps every failure to write an export.
var ErrExportFailure = errors.New("export failure")

// Format selects the writer used by File.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatText Format = "txt"
	FormatYAML Format = "yaml"
	FormatQR   Format = "qr"
)

// DefaultExtension is appended to output paths that have none.
const DefaultExtension = ".csv"

// ParseFormat accepts a format name, case-insensitively. An empty name is CSV.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatText, FormatYAML, FormatQR:
		return f, nil
	case "text":
		return FormatText, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format: %s", name)
	}
}

// Extension returns the file extension written for the format
func (f Format) Extension() string {
	switch f {
	case FormatText:
		return ".txt"
	case FormatYAML:
		return ".yaml"
	case FormatQR:
		return ".png"
	default:
		return DefaultExtension
	}
}

// WriteCSV writes one line per grid row with comma separated labels, no header.
func WriteCSV(w io.Writer, grid classifier.Grid) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(grid.Strings()); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	return nil
}

// Display returns the grid with space separated labels, as shown on screen.
func Display(grid classifier.Grid) string {
	return grid.String()
}

// Path returns path with the extension the format is written with. A missing
// or foreign extension is replaced; .yml is kept for YAML.
func Path(path string, format Format) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == format.Extension() || (format == FormatYAML && ext == ".yml") {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + format.Extension()
}

// File writes r in the given format to Path(path, format).
func File(path string, format Format, r *report.Report) error {
	grid, err := r.Grid()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}

	path = Path(path, format)

	if format == FormatQR {
		return WriteQR(path, grid, DefaultQRSize)
	}

	var buf bytes.Buffer
	switch format {
	case FormatText:
		buf.WriteString(Display(grid))
	case FormatYAML:
		if err := WriteYAML(&buf, r); err != nil {
			return err
		}
	default:
		if err := WriteCSV(&buf, grid); err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	return nil
}
