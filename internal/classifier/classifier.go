package classifier

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/sync/errgroup"
)

// Threshold is the margin, in 8-bit channel units, by which the mean blue
// channel has to exceed both mean red and mean green for a Match.
const Threshold = 10.0

// Classifier turns an image into a grid of labels.
type Classifier interface {
	Classify(img image.Image, spec GridSpec) (Grid, error)
	ClassifyCells(img image.Image, spec GridSpec) ([]Cell, error)
}

// BlueDominance labels a cell Match when its mean blue beats mean red and
// mean green by more than Threshold.
type BlueDominance struct {
	Workers int // Rows classified concurrently; 0 or 1 runs sequentially
}

// NewBlueDominance creates a sequential blue-dominance classifier
func NewBlueDominance() *BlueDominance {
	return &BlueDominance{Workers: 1}
}

// Classify is a shortcut for a sequential BlueDominance classification.
func Classify(img image.Image, spec GridSpec) (Grid, error) {
	return NewBlueDominance().Classify(img, spec)
}

// Decide applies the decision rule to the mean channel values of a cell.
// Both comparisons are strict, so a margin of exactly Threshold is Other.
func Decide(meanR, meanG, meanB float64) Label {
	if meanB > meanR+Threshold && meanB > meanG+Threshold {
		return Match
	}
	return Other
}

// CellSize returns the truncated cell width and height for an image of the
// given bounds. Pixels past CellsX*w or CellsY*h belong to no cell.
func CellSize(bounds image.Rectangle, spec GridSpec) (w, h int) {
	return bounds.Dx() / spec.CellsX, bounds.Dy() / spec.CellsY
}

// Bounds returns the pixel rectangle covered by cell (row, col).
func Bounds(bounds image.Rectangle, spec GridSpec, row, col int) image.Rectangle {
	w, h := CellSize(bounds, spec)
	x0 := bounds.Min.X + col*w
	y0 := bounds.Min.Y + row*h
	return image.Rect(x0, y0, x0+w, y0+h)
}

// Classify returns the label grid for img.
func (c *BlueDominance) Classify(img image.Image, spec GridSpec) (Grid, error) {
	cells, err := c.ClassifyCells(img, spec)
	if err != nil {
		return nil, err
	}

	return NewGrid(spec, cells), nil
}

// NewGrid arranges classified cells into a label grid.
func NewGrid(spec GridSpec, cells []Cell) Grid {
	grid := make(Grid, spec.CellsY)
	for row := range grid {
		grid[row] = make([]Label, spec.CellsX)
	}
	for _, cell := range cells {
		grid[cell.Row][cell.Col] = cell.Label
	}
	return grid
}

// ClassifyCells returns every cell in row-major order together with its
// bounds and mean channel values.
func (c *BlueDominance) ClassifyCells(img image.Image, spec GridSpec) ([]Cell, error) {
	if img == nil {
		return nil, ErrNoImage
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	w, h := CellSize(bounds, spec)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: %dx%d cells do not fit a %dx%d image",
			ErrEmptyCell, spec.CellsX, spec.CellsY, bounds.Dx(), bounds.Dy())
	}

	cells := make([]Cell, spec.CellsX*spec.CellsY)
	read := pixelReader(img)

	if c.Workers <= 1 || spec.CellsY == 1 {
		for row := 0; row < spec.CellsY; row++ {
			classifyRow(read, bounds, spec, row, cells)
		}
		return cells, nil
	}

	// Rows write to disjoint parts of cells.
	var g errgroup.Group
	g.SetLimit(c.Workers)
	for row := 0; row < spec.CellsY; row++ {
		g.Go(func() error {
			classifyRow(read, bounds, spec, row, cells)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cells, nil
}

func classifyRow(read rgbFunc, bounds image.Rectangle, spec GridSpec, row int, cells []Cell) {
	for col := 0; col < spec.CellsX; col++ {
		r := Bounds(bounds, spec, row, col)

		var sumR, sumG, sumB uint64
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				pr, pg, pb := read(x, y)
				sumR += uint64(pr)
				sumG += uint64(pg)
				sumB += uint64(pb)
			}
		}

		n := r.Dx() * r.Dy()
		cell := Cell{
			Row:    row,
			Col:    col,
			Bounds: r,
			Pixels: n,
			MeanR:  float64(sumR) / float64(n),
			MeanG:  float64(sumG) / float64(n),
			MeanB:  float64(sumB) / float64(n),
		}
		cell.Label = Decide(cell.MeanR, cell.MeanG, cell.MeanB)
		cells[row*spec.CellsX+col] = cell
	}
}

type rgbFunc func(x, y int) (r, g, b uint8)

// pixelReader returns 8-bit straight (non-premultiplied) RGB for any pixel,
// dropping alpha.
func pixelReader(img image.Image) rgbFunc {
	switch m := img.(type) {
	case *image.NRGBA:
		return func(x, y int) (uint8, uint8, uint8) {
			i := m.PixOffset(x, y)
			return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
		}
	case *image.RGBA:
		return func(x, y int) (uint8, uint8, uint8) {
			i := m.PixOffset(x, y)
			if m.Pix[i+3] == 0xff {
				return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
			}
			c := color.NRGBAModel.Convert(m.RGBAAt(x, y)).(color.NRGBA)
			return c.R, c.G, c.B
		}
	case *image.Gray:
		return func(x, y int) (uint8, uint8, uint8) {
			v := m.GrayAt(x, y).Y
			return v, v, v
		}
	default:
		return func(x, y int) (uint8, uint8, uint8) {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			return c.R, c.G, c.B
		}
	}
}
