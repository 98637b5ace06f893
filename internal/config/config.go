package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/img2grid/internal/classifier"
	"github.com/ivlev/img2grid/internal/export"
)

type Config struct {
	InputPath  string `yaml:"input"`
	OutputPath string `yaml:"output"`
	CellsX     int    `yaml:"cells_x"`
	CellsY     int    `yaml:"cells_y"`
	Classifier string `yaml:"classifier"`
	Format     string `yaml:"format"`
	Workers    int    `yaml:"workers"`
	DPI        int    `yaml:"dpi"`
	ShowStats  bool   `yaml:"stats"`
	LogLevel   string `yaml:"log_level"`
	LogJSON    bool   `yaml:"log_json"`
}

// Default returns the configuration used when no file or flag says otherwise.
func Default(workers int) *Config {
	return &Config{
		CellsX:     classifier.DefaultGridSpec.CellsX,
		CellsY:     classifier.DefaultGridSpec.CellsY,
		Classifier: "blue-dominance",
		Format:     string(export.FormatCSV),
		Workers:    workers,
		DPI:        150,
		LogLevel:   "info",
	}
}

// Load reads a YAML file on top of cfg. Keys missing from the file keep
// their current values.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// GridSpec returns the configured cell counts.
func (c *Config) GridSpec() classifier.GridSpec {
	return classifier.GridSpec{CellsX: c.CellsX, CellsY: c.CellsY}
}

// Validate checks the values a run cannot start without.
func (c *Config) Validate() error {
	if err := c.GridSpec().Validate(); err != nil {
		return err
	}
	if _, err := export.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.DPI < 1 {
		return fmt.Errorf("dpi must be positive, got %d", c.DPI)
	}
	return nil
}
