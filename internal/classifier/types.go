package classifier

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

var (
	// ErrNoImage is returned when classification is requested without an image.
	ErrNoImage = errors.New("no image loaded")
	// ErrInvalidGridSpec is returned when a cell count is not a positive integer.
	ErrInvalidGridSpec = errors.New("invalid grid spec")
	// ErrEmptyCell is returned when a derived cell has zero pixels.
	ErrEmptyCell = errors.New("empty cell")
)

// Label is the category assigned to a single cell.
type Label string

const (
	// Match marks a blue-dominant cell.
	Match Label = "M"
	// Other marks every cell that is not blue-dominant.
	Other Label = "T"
)

// GridSpec is the number of cells across and down the image.
type GridSpec struct {
	CellsX int `yaml:"cells_x"`
	CellsY int `yaml:"cells_y"`
}

// DefaultGridSpec is used when the caller does not ask for anything else.
var DefaultGridSpec = GridSpec{CellsX: 10, CellsY: 10}

// Validate reports ErrInvalidGridSpec for non-positive counts.
func (s GridSpec) Validate() error {
	if s.CellsX <= 0 || s.CellsY <= 0 {
		return &SpecError{Spec: s}
	}
	return nil
}

// SpecError carries the rejected spec. It matches ErrInvalidGridSpec.
type SpecError struct {
	Spec GridSpec
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("invalid grid spec: cell counts must be positive, got %dx%d", e.Spec.CellsX, e.Spec.CellsY)
}

func (e *SpecError) Is(target error) bool { return target == ErrInvalidGridSpec }

// Cell is one classified grid cell.
type Cell struct {
	Row, Col int
	Bounds   image.Rectangle
	Pixels   int
	MeanR    float64
	MeanG    float64
	MeanB    float64
	Label    Label
}

// BlueMargin is how far the mean blue channel sits above the stronger of red and green.
func (c Cell) BlueMargin() float64 {
	return c.MeanB - max(c.MeanR, c.MeanG)
}

// Grid holds one label per cell, top row first, left column first.
type Grid [][]Label

// Rows returns the number of grid rows.
func (g Grid) Rows() int { return len(g) }

// Cols returns the number of labels in each row.
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Count returns how many cells carry the given label.
func (g Grid) Count(l Label) int {
	n := 0
	for _, row := range g {
		for _, v := range row {
			if v == l {
				n++
			}
		}
	}
	return n
}

// Strings returns the grid as rows of plain strings.
func (g Grid) Strings() [][]string {
	out := make([][]string, len(g))
	for i, row := range g {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = string(v)
		}
	}
	return out
}

// String renders the grid the way it is shown on screen: labels separated by
// spaces, one line per row.
func (g Grid) String() string {
	var b strings.Builder
	for _, row := range g {
		for j, v := range row {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(string(v))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
