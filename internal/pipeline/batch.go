package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/image-regions/internal/imaging"
	"github.com/ironsheep/image-regions/internal/logger"
	"github.com/ironsheep/image-regions/internal/region"
	"github.com/ironsheep/image-regions/internal/source"
)

// Page is one unit of batch work.
type Page struct {
	Source string
	Index  int
	Load   func() (*imaging.ImageBuffer, error)
}

// Pages lists every page of src.
func Pages(src source.Source) []Page {
	pages := make([]Page, src.PageCount())
	for i := range pages {
		i := i
		pages[i] = Page{
			Source: src.Name(),
			Index:  i,
			Load:   func() (*imaging.ImageBuffer, error) { return src.Page(i) },
		}
	}
	return pages
}

// PageResult is the detection result for one page. A page that could not be
// loaded carries Error and an empty result.
type PageResult struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
	region.Result
	Error string `json:"error,omitempty"`
}

// DetectBatch runs DetectAllRegions over pages with at most limit pages in
// flight. Results are returned in input order. Page failures are recorded in
// the result; only cancellation of ctx fails the batch.
func (d *Detector) DetectBatch(ctx context.Context, pages []Page, limit int) ([]PageResult, error) {
	results := make([]PageResult, len(pages))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))

	for i, p := range pages {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = d.detectPage(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch cancelled: %w", err)
	}
	return results, nil
}

func (d *Detector) detectPage(p Page) PageResult {
	res := PageResult{Source: p.Source, Page: p.Index}
	buf, err := p.Load()
	if err != nil {
		logger.WithFields(logrus.Fields{"source": p.Source, "page": p.Index}).WithError(err).Warn("page load failed")
		res.Result = region.NewResult(nil, 0, 0)
		res.Error = err.Error()
		return res
	}
	res.Result = d.DetectAllRegions(buf)
	logger.WithFields(logrus.Fields{
		"source":  p.Source,
		"page":    p.Index,
		"regions": res.Count,
	}).Info("page processed")
	return res
}
