package report

import (
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ivlev/img2grid/internal/classifier"
)

// Version of the report layout written to YAML.
const Version = "1.0"

// Report describes one classified page
type Report struct {
	Version    string              `yaml:"version"`
	Source     string              `yaml:"source"`
	Page       int                 `yaml:"page"`
	Width      int                 `yaml:"width"`
	Height     int                 `yaml:"height"`
	Spec       classifier.GridSpec `yaml:"grid_spec"`
	CellWidth  int                 `yaml:"cell_width"`
	CellHeight int                 `yaml:"cell_height"`
	Rows       []string            `yaml:"rows"` // comma separated labels, top row first
	Summary    Summary             `yaml:"summary"`
	Elapsed    time.Duration       `yaml:"elapsed,omitempty"`
	MemoryUsed float64             `yaml:"memory_used_percent,omitempty"`

	labels classifier.Grid
}

// Summary aggregates the per-cell results of one grid
type Summary struct {
	Cells         int     `yaml:"cells"`
	Matches       int     `yaml:"matches"`
	Others        int     `yaml:"others"`
	MatchFraction float64 `yaml:"match_fraction"`
	MarginMean    float64 `yaml:"blue_margin_mean"`
	MarginStdDev  float64 `yaml:"blue_margin_stddev"`
}

// Summarize counts labels and computes the spread of the blue margin over all cells.
func Summarize(cells []classifier.Cell) Summary {
	s := Summary{Cells: len(cells)}
	if len(cells) == 0 {
		return s
	}

	margins := make([]float64, len(cells))
	for i, c := range cells {
		margins[i] = c.BlueMargin()
		if c.Label == classifier.Match {
			s.Matches++
		} else {
			s.Others++
		}
	}

	s.MatchFraction = float64(s.Matches) / float64(s.Cells)
	if len(margins) == 1 {
		s.MarginMean = margins[0]
		return s
	}
	s.MarginMean, s.MarginStdDev = stat.MeanStdDev(margins, nil)
	if math.IsNaN(s.MarginStdDev) {
		s.MarginStdDev = 0
	}
	return s
}

// New builds a report for a classified page.
func New(source string, page int, bounds image.Rectangle, spec classifier.GridSpec, grid classifier.Grid, cells []classifier.Cell) *Report {
	w, h := classifier.CellSize(bounds, spec)
	rows := make([]string, len(grid))
	for i, row := range grid.Strings() {
		rows[i] = strings.Join(row, ",")
	}

	return &Report{
		Version:    Version,
		Source:     source,
		Page:       page,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Spec:       spec,
		CellWidth:  w,
		CellHeight: h,
		Rows:       rows,
		Summary:    Summarize(cells),
		labels:     grid,
	}
}

// Grid returns the label grid, parsing Rows for reports read from YAML.
func (r *Report) Grid() (classifier.Grid, error) {
	if r.labels != nil {
		return r.labels, nil
	}
	grid := make(classifier.Grid, len(r.Rows))
	for i, line := range r.Rows {
		fields := strings.Split(line, ",")
		grid[i] = make([]classifier.Label, len(fields))
		for j, f := range fields {
			switch l := classifier.Label(strings.TrimSpace(f)); l {
			case classifier.Match, classifier.Other:
				grid[i][j] = l
			default:
				return nil, fmt.Errorf("row %d column %d: unknown label %q", i+1, j+1, f)
			}
		}
	}
	return grid, nil
}

// String renders the report the way -stats prints it.
func (r *Report) String() string {
	return fmt.Sprintf(
		"--- [GRID REPORT] ---\n"+
			"Source: %s (page %d)\n"+
			"Image: %dx%d | Grid: %dx%d | Cell: %dx%d\n"+
			"M: %d | T: %d | M share: %.1f%%\n"+
			"Blue margin: mean %.2f, stddev %.2f\n"+
			"Elapsed: %s | Host memory used: %.1f%%\n"+
			"---------------------\n",
		r.Source, r.Page,
		r.Width, r.Height, r.Spec.CellsX, r.Spec.CellsY, r.CellWidth, r.CellHeight,
		r.Summary.Matches, r.Summary.Others, r.Summary.MatchFraction*100,
		r.Summary.MarginMean, r.Summary.MarginStdDev,
		r.Elapsed, r.MemoryUsed,
	)
}
