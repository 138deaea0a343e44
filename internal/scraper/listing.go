// internal/scraper/listing.go
package scraper

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/valpere/ORDScrapexter/internal/browser"
	"github.com/valpere/ORDScrapexter/internal/ranges"
	"github.com/valpere/ORDScrapexter/internal/utils"
)

const (
	datasetPageSize     = 100
	defaultReactionSize = 10
)

// ListDatasetIDs returns the ids of the datasets selected by w, in listing
// order. It stops paging as soon as the window is covered.
func (e *Engine) ListDatasetIDs(ctx context.Context, page browser.Page, w ranges.Window) ([]string, error) {
	if err := page.Navigate(ctx, e.sites.BrowseURL()); err != nil {
		return nil, fmt.Errorf("failed to open browse page: %w", err)
	}

	e.logger.Infof("Selecting %d datasets per page...", datasetPageSize)
	applied, err := e.selectPageSize(ctx, page, datasetPageSize)
	if err != nil {
		return nil, err
	}

	total := ranges.Unknown
	if n, ok := e.totalEntries(ctx, page); ok {
		total = n
		e.logger.Infof("Total entries available: %d", n)
	}
	span := ranges.Resolve(w, total)
	if span.Empty() {
		return []string{}, nil
	}

	// Without the larger page size the page count is unknown; follow the next button.
	totalPages := 0
	if applied {
		totalPages = pageCount(total, datasetPageSize)
	}

	ids, err := e.collectLinks(ctx, page, KindDatasets, newLinkCollector(e.sites.DatasetLinks, e.sites.DatasetPrefix),
		span, totalPages)
	if err != nil {
		return nil, err
	}

	lo, hi := span.Bounds(len(ids))
	return ids[lo:hi], nil
}

// ListReactionIDs returns the reaction ids of a dataset selected by w. A
// dataset whose listing never shows reaction links yields an empty list.
func (e *Engine) ListReactionIDs(ctx context.Context, page browser.Page, datasetID string, w ranges.Window) ([]string, error) {
	if err := page.Navigate(ctx, e.sites.DatasetURL(datasetID)); err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", datasetID, err)
	}

	if size := ranges.PageSizeFor(w); size != defaultReactionSize {
		e.logger.Infof("Switching to %d entries...", size)
		if _, err := e.selectPageSize(ctx, page, size); err != nil {
			return nil, err
		}
	}

	span := ranges.Resolve(w, ranges.Unknown)
	if span.Empty() {
		return []string{}, nil
	}

	ids, err := e.collectLinks(ctx, page, KindReactions, newLinkCollector(e.sites.ReactionLinks, e.sites.ReactionPrefix), span, 0)
	if err != nil {
		return nil, err
	}

	lo, hi := span.Bounds(len(ids))
	return ids[lo:hi], nil
}

// selectPageSize switches the listing table page size and reports whether
// size is in effect. Failing to find the control is only a warning; the
// table then keeps its default size.
func (e *Engine) selectPageSize(ctx context.Context, page browser.Page, size int) (bool, error) {
	changed, err := page.SelectValue(ctx, e.sites.PageSizeSelect, strconv.Itoa(size))
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		e.logger.Warnf("Pagination warning: could not select %d entries: %s", size, utils.Truncate(err.Error(), 100))
		return false, nil
	}
	if changed {
		e.logger.Debug("Waiting for table to refresh...")
		if err := e.sleep(ctx, e.opts.SettleDelay); err != nil {
			return false, err
		}
	}
	return true, nil
}

// totalEntries reads the "of N entries" pagination label.
func (e *Engine) totalEntries(ctx context.Context, page browser.Page) (int, bool) {
	if err := page.WaitVisible(ctx, e.sites.PaginationText, e.opts.ElementTimeout); err != nil {
		e.logger.Warnf("Could not determine total pages: %s", utils.Truncate(err.Error(), 100))
		return 0, false
	}
	text, err := page.Text(ctx, e.sites.PaginationText)
	if err != nil {
		e.logger.Warnf("Could not read pagination text: %s", utils.Truncate(err.Error(), 100))
		return 0, false
	}
	return parseTotalEntries(text)
}

// collectLinks walks listing pages with the next button until the span is
// covered, the listing ends, or a page limit is hit. totalPages of 0 means
// the page count is unknown.
func (e *Engine) collectLinks(ctx context.Context, page browser.Page, kind string, lc *linkCollector, span ranges.Span, totalPages int) ([]string, error) {
	next := nextButton{
		Selector:      e.sites.NextButton,
		DisabledClass: e.sites.NextDisabled,
		MaxPages:      e.opts.MaxPages,
	}

	for pageNum := 1; ; pageNum++ {
		e.logger.Debugf("Scraping %s page %d...", kind, pageNum)

		if err := page.WaitReady(ctx, lc.selector, e.opts.ElementTimeout); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warnf("No %s links on page %d: %s", kind, pageNum, utils.Truncate(err.Error(), 100))
			break
		}

		html, err := page.HTML(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warnf("Could not read %s page %d: %s", kind, pageNum, utils.Truncate(err.Error(), 100))
			break
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s page %d: %w", kind, pageNum, err)
		}

		before := len(lc.ids)
		stopped := lc.collect(doc, span.StopEarly)
		e.observer.PageScraped(kind)
		e.logger.Debugf("Found %d new %s links on page %d", len(lc.ids)-before, kind, pageNum)

		if stopped {
			break
		}
		if totalPages > 0 && pageNum >= totalPages {
			break
		}
		if next.IsComplete(doc, pageNum) {
			break
		}

		if err := page.Click(ctx, e.sites.NextButton); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warnf("Could not open %s page %d: %s", kind, pageNum+1, utils.Truncate(err.Error(), 100))
			break
		}
		if err := e.sleep(ctx, e.opts.SettleDelay); err != nil {
			return nil, err
		}
	}

	return lc.ids, nil
}
