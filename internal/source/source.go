// Package source opens detection inputs from disk: image files as a single
// page and PDF documents rasterized page by page.
package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/ironsheep/image-regions/internal/imaging"
)

// Source is a paged input.
type Source interface {
	// Name identifies the input in results and logs.
	Name() string
	PageCount() int
	// Page rasterizes page index (0-based). Page is safe for concurrent use.
	Page(index int) (*imaging.ImageBuffer, error)
	Close() error
}

// Open returns a PDF source for .pdf files and an image source otherwise.
// dpi applies to PDF rasterization only.
func Open(path string, dpi int, cache *imaging.ImageCache) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return OpenPDF(path, dpi)
	}
	return OpenImage(path, cache)
}

// ImageSource is a single decoded image file.
type ImageSource struct {
	path  string
	cache *imaging.ImageCache
}

// OpenImage decodes the image at path through cache. Page reads it back from
// the cache, decoding again if the path was evicted in between.
func OpenImage(path string, cache *imaging.ImageCache) (*ImageSource, error) {
	if _, err := cache.Load(path); err != nil {
		return nil, err
	}
	return &ImageSource{path: path, cache: cache}, nil
}

func (s *ImageSource) Name() string   { return s.path }
func (s *ImageSource) PageCount() int { return 1 }
func (s *ImageSource) Close() error   { return nil }

func (s *ImageSource) Page(index int) (*imaging.ImageBuffer, error) {
	if index != 0 {
		return nil, fmt.Errorf("page %d out of range (1 page)", index)
	}
	return s.cache.Load(s.path)
}

// PDFSource rasterizes PDF pages with MuPDF.
type PDFSource struct {
	doc   *fitz.Document
	path  string
	dpi   int
	pages int
}

// OpenPDF opens the document at path to be rendered at dpi.
func OpenPDF(path string, dpi int) (*PDFSource, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("dpi must be positive (got %d)", dpi)
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	return &PDFSource{doc: doc, path: path, dpi: dpi, pages: doc.NumPage()}, nil
}

func (s *PDFSource) Name() string   { return s.path }
func (s *PDFSource) PageCount() int { return s.pages }
func (s *PDFSource) Close() error   { return s.doc.Close() }

// Page renders page index. A MuPDF document is not safe for concurrent
// rendering, so each call opens its own handle.
func (s *PDFSource) Page(index int) (*imaging.ImageBuffer, error) {
	if index < 0 || index >= s.pages {
		return nil, fmt.Errorf("page %d out of range (%d pages)", index, s.pages)
	}
	doc, err := fitz.New(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	img, err := doc.ImageDPI(index, float64(s.dpi))
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", index, err)
	}
	return imaging.FromImage(img), nil
}
