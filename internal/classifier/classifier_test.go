package classifier

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uniform creates a w x h NRGBA image filled with one colour
func uniform(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func rgb(r, g, b uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

func TestDecideThreshold(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float64
		want    Label
	}{
		{"just above", 100, 100, 111, Match},
		{"exactly at threshold", 100, 100, 110, Other},
		{"both margins clear", 100, 105, 120, Match},
		{"green too close", 100, 111, 120, Other},
		{"red too close", 111, 100, 120, Other},
		{"fractional above", 100, 100, 110.0001, Match},
		{"pure blue", 0, 0, 255, Match},
		{"pure red", 255, 0, 0, Other},
		{"black", 0, 0, 0, Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.r, tt.g, tt.b))
		})
	}
}

func TestClassifyUniformCells(t *testing.T) {
	tests := []struct {
		name  string
		color color.NRGBA
		want  Label
	}{
		{"B=111", rgb(100, 100, 111), Match},
		{"B=110", rgb(100, 100, 110), Other},
		{"G=105", rgb(100, 105, 120), Match},
		{"G=111", rgb(100, 111, 120), Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := Classify(uniform(4, 4, tt.color), GridSpec{CellsX: 1, CellsY: 1})
			require.NoError(t, err)
			assert.Equal(t, Grid{{tt.want}}, grid)
		})
	}
}

func TestClassifyEndToEnd(t *testing.T) {
	spec := GridSpec{CellsX: 2, CellsY: 2}

	blue, err := Classify(uniform(20, 20, rgb(0, 0, 255)), spec)
	require.NoError(t, err)
	if diff := cmp.Diff(Grid{{Match, Match}, {Match, Match}}, blue); diff != "" {
		t.Errorf("blue grid mismatch (-want +got):\n%s", diff)
	}

	red, err := Classify(uniform(20, 20, rgb(255, 0, 0)), spec)
	require.NoError(t, err)
	if diff := cmp.Diff(Grid{{Other, Other}, {Other, Other}}, red); diff != "" {
		t.Errorf("red grid mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyShape(t *testing.T) {
	img := uniform(37, 23, rgb(10, 20, 200))
	specs := []GridSpec{{1, 1}, {3, 7}, {10, 10}, {37, 23}, {5, 1}}

	for _, spec := range specs {
		grid, err := Classify(img, spec)
		require.NoError(t, err)
		require.Equal(t, spec.CellsY, grid.Rows())
		for _, row := range grid {
			require.Len(t, row, spec.CellsX)
			for _, l := range row {
				assert.Contains(t, []Label{Match, Other}, l)
			}
		}
	}
}

func TestClassifyRowMajorOrder(t *testing.T) {
	// Blue only in the top-right and bottom-left quadrants.
	img := uniform(10, 10, rgb(200, 0, 0))
	for y := 0; y < 5; y++ {
		for x := 5; x < 10; x++ {
			img.SetNRGBA(x, y, rgb(0, 0, 255))
		}
	}
	for y := 5; y < 10; y++ {
		for x := 0; x < 5; x++ {
			img.SetNRGBA(x, y, rgb(0, 0, 255))
		}
	}

	grid, err := Classify(img, GridSpec{CellsX: 2, CellsY: 2})
	require.NoError(t, err)
	assert.Equal(t, Grid{{Other, Match}, {Match, Other}}, grid)
	assert.Equal(t, "T M\nM T\n", grid.String())
}

func TestClassifyRemainderExcluded(t *testing.T) {
	// Width 105, 10 cells: cell width 10, x in [100,105) is in no cell.
	img := uniform(105, 10, rgb(255, 0, 0))
	for y := 0; y < 10; y++ {
		for x := 100; x < 105; x++ {
			img.SetNRGBA(x, y, rgb(0, 0, 255))
		}
	}

	c := NewBlueDominance()
	cells, err := c.ClassifyCells(img, GridSpec{CellsX: 10, CellsY: 1})
	require.NoError(t, err)
	require.Len(t, cells, 10)

	last := cells[9]
	assert.Equal(t, image.Rect(90, 0, 100, 10), last.Bounds)
	assert.Equal(t, 100, last.Pixels)
	assert.Equal(t, 255.0, last.MeanR)
	assert.Equal(t, 0.0, last.MeanB)
	for _, cell := range cells {
		assert.Equal(t, Other, cell.Label)
	}
}

func TestClassifyRemainderRows(t *testing.T) {
	// Height 7, 3 rows: cell height 2, the bottom row y=6 is ignored.
	img := uniform(4, 7, rgb(0, 0, 255))
	for x := 0; x < 4; x++ {
		img.SetNRGBA(x, 6, rgb(255, 255, 0))
	}

	grid, err := Classify(img, GridSpec{CellsX: 1, CellsY: 3})
	require.NoError(t, err)
	assert.Equal(t, Grid{{Match}, {Match}, {Match}}, grid)
}

func TestClassifyMeansAreNotRounded(t *testing.T) {
	// Two pixels with B=110 and B=111 average to 110.5, just above 100+10.
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, rgb(100, 100, 110))
	img.SetNRGBA(1, 0, rgb(100, 100, 111))

	cells, err := NewBlueDominance().ClassifyCells(img, GridSpec{CellsX: 1, CellsY: 1})
	require.NoError(t, err)
	assert.InDelta(t, 110.5, cells[0].MeanB, 1e-9)
	assert.Equal(t, Match, cells[0].Label)
	assert.InDelta(t, 10.5, cells[0].BlueMargin(), 1e-9)
}

func TestClassifyErrors(t *testing.T) {
	img := uniform(5, 5, rgb(0, 0, 255))

	tests := []struct {
		name    string
		img     image.Image
		spec    GridSpec
		wantErr error
	}{
		{"no image", nil, GridSpec{2, 2}, ErrNoImage},
		{"zero cells x", img, GridSpec{0, 2}, ErrInvalidGridSpec},
		{"negative cells y", img, GridSpec{2, -1}, ErrInvalidGridSpec},
		{"more cells than columns", img, GridSpec{10, 1}, ErrEmptyCell},
		{"more cells than rows", img, GridSpec{1, 6}, ErrEmptyCell},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := Classify(tt.img, tt.spec)
			assert.Nil(t, grid)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

// panicImage fails the test if any pixel is read.
type panicImage struct{ r image.Rectangle }

func (p panicImage) ColorModel() color.Model { return color.NRGBAModel }
func (p panicImage) Bounds() image.Rectangle { return p.r }
func (p panicImage) At(x, y int) color.Color { panic("pixel read") }

func TestInvalidSpecReadsNoPixels(t *testing.T) {
	img := panicImage{r: image.Rect(0, 0, 10, 10)}
	assert.NotPanics(t, func() {
		_, err := Classify(img, GridSpec{CellsX: 0, CellsY: 3})
		assert.ErrorIs(t, err, ErrInvalidGridSpec)
	})
}

func TestClassifyDeterministic(t *testing.T) {
	img := gradient(64, 48)
	spec := GridSpec{CellsX: 7, CellsY: 5}

	first, err := Classify(img, spec)
	require.NoError(t, err)
	second, err := Classify(img, spec)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParallelMatchesSequential(t *testing.T) {
	img := gradient(128, 96)
	spec := GridSpec{CellsX: 9, CellsY: 11}

	seq, err := NewBlueDominance().ClassifyCells(img, spec)
	require.NoError(t, err)

	par := &BlueDominance{Workers: 4}
	got, err := par.ClassifyCells(img, spec)
	require.NoError(t, err)

	if diff := cmp.Diff(seq, got); diff != "" {
		t.Errorf("parallel result differs (-seq +par):\n%s", diff)
	}
}

func TestClassifyNonZeroOrigin(t *testing.T) {
	base := uniform(20, 20, rgb(255, 0, 0))
	for y := 10; y < 20; y++ {
		for x := 10; x < 20; x++ {
			base.SetNRGBA(x, y, rgb(0, 0, 255))
		}
	}
	sub := base.SubImage(image.Rect(10, 10, 20, 20))

	cells, err := NewBlueDominance().ClassifyCells(sub, GridSpec{CellsX: 2, CellsY: 2})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(15, 15, 20, 20), cells[3].Bounds)
	for _, c := range cells {
		assert.Equal(t, Match, c.Label)
	}
}

func TestClassifyDropsAlpha(t *testing.T) {
	// Straight RGB is kept even when the pixel is almost fully transparent.
	img := uniform(4, 4, color.NRGBA{R: 0, G: 0, B: 255, A: 1})
	grid, err := Classify(img, GridSpec{CellsX: 1, CellsY: 1})
	require.NoError(t, err)
	assert.Equal(t, Grid{{Match}}, grid)
}

func TestClassifyOtherImageTypes(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 4, 4))
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	pal := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.RGBA{0, 0, 255, 255}})
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			rgba.SetRGBA(x, y, color.RGBA{R: 0, G: 0, B: 255, A: 255})
			gray.SetGray(x, y, color.Gray{Y: 200})
		}
	}

	tests := []struct {
		name string
		img  image.Image
		want Label
	}{
		{"rgba", rgba, Match},
		{"gray", gray, Other},
		{"paletted", pal, Match},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := Classify(tt.img, GridSpec{CellsX: 2, CellsY: 2})
			require.NoError(t, err)
			assert.Equal(t, 4, grid.Count(tt.want))
		})
	}
}

func TestGridHelpers(t *testing.T) {
	g := Grid{{Match, Other, Other}, {Other, Other, Match}}
	assert.Equal(t, 2, g.Rows())
	assert.Equal(t, 3, g.Cols())
	assert.Equal(t, 2, g.Count(Match))
	assert.Equal(t, 4, g.Count(Other))
	assert.Equal(t, [][]string{{"M", "T", "T"}, {"T", "T", "M"}}, g.Strings())
	assert.Equal(t, 0, Grid{}.Cols())
}

func TestClassifierRegistry(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"blue-dominance", false},
		{"", false},
		{"hue", true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			c, err := NewClassifier(tt.variant, 4)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 4, c.(*BlueDominance).Workers)
		})
	}
}

// gradient builds an image whose cells land on both sides of the threshold
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, rgb(uint8(x*255/w), uint8(y*255/h), uint8((x+y)*255/(w+h))))
		}
	}
	return img
}
