package source

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// ErrDecodeFailure wraps every failure to open or decode an input.
var ErrDecodeFailure = errors.New("decode failure")

// Source supplies decoded pages: one per image file, or one per PDF page.
type Source interface {
	PageCount() int
	RenderPage(index int, dpi int) (image.Image, error)
	Name(index int) string
	Close() error
}

// Open returns a PDF source for .pdf files and an image source for anything
// else (a single image or a directory of images).
func Open(path string) (Source, error) {
	if strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return NewFitzPDFSource(path)
	}
	return NewImageSource(path)
}

type FitzPDFSource struct {
	doc  *fitz.Document
	path string
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf %s: %v", ErrDecodeFailure, path, err)
	}
	return &FitzPDFSource{doc: doc, path: path}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

// RenderPage opens its own document so pages can be rendered from several goroutines.
func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	defer workerDoc.Close()

	img, err := workerDoc.ImageDPI(index, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("%w: render page %d: %v", ErrDecodeFailure, index+1, err)
	}
	return img, nil
}

func (f *FitzPDFSource) Name(index int) string {
	return fmt.Sprintf("%s#%d", f.path, index+1)
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}
