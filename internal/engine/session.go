package engine

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/rs/zerolog"

	"github.com/ivlev/img2grid/internal/classifier"
	"github.com/ivlev/img2grid/internal/export"
	"github.com/ivlev/img2grid/internal/report"
	"github.com/ivlev/img2grid/internal/source"
)

// ErrNoGrid is returned when an export is requested before any classification.
var ErrNoGrid = errors.New("no grid to export")

// Session keeps the last loaded image and the last computed grid.
//
// Load replaces the image and drops the grid, Classify needs an image and
// replaces the grid, Export needs a grid. A failed step leaves the session
// as it was.
type Session struct {
	classifier classifier.Classifier
	log        zerolog.Logger

	name  string
	page  int
	image image.Image

	spec  classifier.GridSpec
	grid  classifier.Grid
	cells []classifier.Cell
}

func NewSession(c classifier.Classifier, log zerolog.Logger) *Session {
	return &Session{classifier: c, log: log}
}

// Load decodes page index of src and makes it the current image.
func (s *Session) Load(src source.Source, index, dpi int) error {
	img, err := src.RenderPage(index, dpi)
	if err != nil {
		s.log.Error().Err(err).Int("index", index).Msg("load failed")
		return err
	}

	s.name = src.Name(index)
	s.page = index + 1
	s.image = img
	s.grid, s.cells = nil, nil

	b := img.Bounds()
	s.log.Info().Str("source", s.name).Int("width", b.Dx()).Int("height", b.Dy()).Msg("image loaded")
	return nil
}

// LoadFile opens path and loads its first page.
func (s *Session) LoadFile(path string, dpi int) error {
	src, err := source.Open(path)
	if err != nil {
		s.log.Error().Err(err).Str("source", path).Msg("load failed")
		return err
	}
	defer src.Close()

	if src.PageCount() == 0 {
		return fmt.Errorf("%w: %s contains no images", source.ErrDecodeFailure, path)
	}
	return s.Load(src, 0, dpi)
}

// Classify runs the classifier on the current image.
func (s *Session) Classify(ctx context.Context, spec classifier.GridSpec) (classifier.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.image == nil {
		return nil, classifier.ErrNoImage
	}

	cells, err := s.classifier.ClassifyCells(s.image, spec)
	if err != nil {
		s.log.Warn().Err(err).Int("cells_x", spec.CellsX).Int("cells_y", spec.CellsY).Msg("classification rejected")
		return nil, err
	}

	s.spec = spec
	s.cells = cells
	s.grid = classifier.NewGrid(spec, cells)

	s.log.Debug().Int("matches", s.grid.Count(classifier.Match)).Int("cells", len(cells)).Msg("image classified")
	return s.grid, nil
}

// Report describes the current grid.
func (s *Session) Report() (*report.Report, error) {
	if s.grid == nil {
		return nil, ErrNoGrid
	}
	return report.New(s.name, s.page, s.image.Bounds(), s.spec, s.grid, s.cells), nil
}

// Export writes the current grid to path.
func (s *Session) Export(path string, format export.Format) error {
	r, err := s.Report()
	if err != nil {
		return err
	}
	if err := export.File(path, format, r); err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("export failed")
		return err
	}
	s.log.Info().Str("path", path).Str("format", string(format)).Msg("grid exported")
	return nil
}

func (s *Session) Image() image.Image { return s.image }

func (s *Session) Grid() classifier.Grid { return s.grid }

func (s *Session) Cells() []classifier.Cell { return s.cells }
