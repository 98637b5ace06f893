package export

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/img2grid/internal/report"
)

// WriteYAML writes a report as YAML
func WriteYAML(w io.Writer, r *report.Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	return nil
}

// ReadYAML reads a report written by WriteYAML
func ReadYAML(path string) (*report.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var r report.Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, err
	}

	return &r, nil
}
