package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/img2grid/internal/classifier"
	"github.com/ivlev/img2grid/internal/config"
	"github.com/ivlev/img2grid/internal/export"
	"github.com/ivlev/img2grid/internal/report"
	"github.com/ivlev/img2grid/internal/source"
	"github.com/ivlev/img2grid/internal/system"
)

// Project classifies every page of a source and exports one grid per page.
type Project struct {
	Config     *config.Config
	Source     source.Source
	Classifier classifier.Classifier
	Log        zerolog.Logger
	Out        io.Writer // grid display
}

func NewProject(cfg *config.Config, src source.Source, c classifier.Classifier, log zerolog.Logger) *Project {
	return &Project{
		Config:     cfg,
		Source:     src,
		Classifier: c,
		Log:        log,
		Out:        os.Stdout,
	}
}

// Run classifies all pages and writes the exports. Nothing is written unless
// every page was classified.
func (p *Project) Run(ctx context.Context) ([]*report.Report, error) {
	pageCount := p.Source.PageCount()
	if pageCount == 0 {
		return nil, fmt.Errorf("%w: source contains no images", source.ErrDecodeFailure)
	}

	format, err := export.ParseFormat(p.Config.Format)
	if err != nil {
		return nil, err
	}
	spec := p.Config.GridSpec()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	p.Log.Info().
		Str("input", p.Config.InputPath).
		Int("pages", pageCount).
		Int("cells_x", spec.CellsX).
		Int("cells_y", spec.CellsY).
		Msg("classification started")

	reports := make([]*report.Report, pageCount)

	workers := p.Config.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > pageCount {
		workers = pageCount
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < pageCount; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := p.classifyPage(ctx, i, spec)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, r := range reports {
		if p.Config.ShowStats {
			if used, err := system.MemoryUsage(); err == nil {
				r.MemoryUsed = used
			}
			fmt.Fprint(p.Out, r.String())
		}
		if pageCount > 1 {
			fmt.Fprintf(p.Out, "[*] %s\n", r.Source)
		}
		grid, err := r.Grid()
		if err != nil {
			return nil, err
		}
		fmt.Fprint(p.Out, export.Display(grid))

		path := p.outputPath(i, pageCount, format)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("%w: %v", export.ErrExportFailure, err)
			}
		}
		if err := export.File(path, format, r); err != nil {
			return nil, err
		}
		p.Log.Info().Str("path", path).Int("page", r.Page).Msg("grid exported")
	}

	return reports, nil
}

func (p *Project) classifyPage(ctx context.Context, index int, spec classifier.GridSpec) (*report.Report, error) {
	start := time.Now()

	s := NewSession(p.Classifier, p.Log.With().Int("page", index+1).Logger())
	if err := s.Load(p.Source, index, p.Config.DPI); err != nil {
		return nil, err
	}
	if _, err := s.Classify(ctx, spec); err != nil {
		return nil, err
	}

	r, err := s.Report()
	if err != nil {
		return nil, err
	}
	r.Elapsed = time.Since(start)
	return r, nil
}

// outputPath picks the export path for page index. Without an explicit
// output the file goes to output/<name>_<timestamp>; several pages get a
// _p<N> suffix. The extension always matches the format.
func (p *Project) outputPath(index, pageCount int, format export.Format) string {
	path := p.Config.OutputPath
	if path == "" {
		base := filepath.Base(p.Config.InputPath)
		name := strings.ReplaceAll(strings.TrimSuffix(base, filepath.Ext(base)), " ", "_")
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		path = filepath.Join("output", fmt.Sprintf("%s_%s%s", name, timestamp, format.Extension()))
	}

	if pageCount > 1 {
		ext := filepath.Ext(path)
		path = fmt.Sprintf("%s_p%d%s", strings.TrimSuffix(path, ext), index+1, ext)
	}
	return export.Path(path, format)
}
