// internal/scraper/fake_page_test.go
package scraper

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/valpere/ORDScrapexter/internal/browser"
)

var errFakeTimeout = fmt.Errorf("fake wait: %w", context.DeadlineExceeded)

// fakeSite is an in-memory stand-in for the reaction database.
type fakeSite struct {
	sites Sites

	mu         sync.Mutex
	browse     []string            // HTML of each browse page
	totalText  string              // pagination label on the browse page
	datasets   map[string][]string // dataset id -> HTML of each listing page
	records    map[string]string   // reaction id -> record text
	lateJSON   map[string]bool     // first read of the record is a placeholder
	flaky      map[string]int      // failing attempts before the record opens
	navFail    map[string]bool     // urls whose navigation fails
	noSelect   bool                // page size control missing
	navigated  []string
	selections []string
	closed     int
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		sites:    DefaultSites(),
		datasets: make(map[string][]string),
		records:  make(map[string]string),
		lateJSON: make(map[string]bool),
		flaky:    make(map[string]int),
		navFail:  make(map[string]bool),
	}
}

func (s *fakeSite) factory() browser.Factory {
	return func(ctx context.Context) (browser.Page, error) {
		return &fakePage{site: s, selected: "10"}, nil
	}
}

func (s *fakeSite) navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigated...)
}

// fakePage implements browser.Page against a fakeSite.
type fakePage struct {
	site      *fakeSite
	url       string
	pageIdx   int
	selected  string
	modalOpen bool
	reads     int
}

func (p *fakePage) listing() []string {
	sites := p.site.sites
	switch {
	case p.url == sites.BrowseURL():
		return p.site.browse
	case strings.HasPrefix(p.url, sites.DatasetURL("")):
		return p.site.datasets[strings.TrimPrefix(p.url, sites.DatasetURL(""))]
	}
	return nil
}

func (p *fakePage) reactionID() string {
	prefix := p.site.sites.ReactionURL("")
	if !strings.HasPrefix(p.url, prefix) {
		return ""
	}
	return strings.TrimPrefix(p.url, prefix)
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.site.mu.Lock()
	defer p.site.mu.Unlock()

	p.site.navigated = append(p.site.navigated, url)
	if p.site.navFail[url] {
		return fmt.Errorf("navigation to %s failed: net::ERR_CONNECTION_RESET", url)
	}
	p.url = url
	p.pageIdx = 0
	p.modalOpen = false
	p.reads = 0
	p.selected = "10"
	return nil
}

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	p.site.mu.Lock()
	defer p.site.mu.Unlock()

	pages := p.listing()
	if p.pageIdx >= len(pages) {
		return "<html><body></body></html>", nil
	}
	return pages[p.pageIdx], nil
}

func (p *fakePage) WaitReady(ctx context.Context, sel string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.site.mu.Lock()
	defer p.site.mu.Unlock()

	pages := p.listing()
	if p.pageIdx >= len(pages) || !strings.Contains(pages[p.pageIdx], "<a ") {
		return errFakeTimeout
	}
	return nil
}

func (p *fakePage) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.site.mu.Lock()
	defer p.site.mu.Unlock()

	sites := p.site.sites
	switch sel {
	case sites.PaginationText:
		if p.site.totalText == "" {
			return errFakeTimeout
		}
		return nil
	case sites.RecordButton:
		rid := p.reactionID()
		if _, ok := p.site.records[rid]; !ok {
			return errFakeTimeout
		}
		if p.site.flaky[rid] > 0 {
			p.site.flaky[rid]--
			return errFakeTimeout
		}
		return nil
	case sites.RecordJSON:
		if !p.modalOpen {
			return errFakeTimeout
		}
		return nil
	}
	return errFakeTimeout
}

func (p *fakePage) Click(ctx context.Context, sel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.site.mu.Lock()
	defer p.site.mu.Unlock()

	sites := p.site.sites
	switch sel {
	case sites.NextButton:
		if p.pageIdx+1 >= len(p.listing()) {
			return stderrors.New("next button not clickable")
		}
		p.pageIdx++
		return nil
	case sites.RecordButton:
		p.modalOpen = true
		return nil
	case sites.ModalClose:
		if !p.modalOpen {
			return errFakeTimeout
		}
		p.modalOpen = false
		return nil
	}
	return fmt.Errorf("no element %q", sel)
}

func (p *fakePage) Text(ctx context.Context, sel string) (string, error) {
	p.site.mu.Lock()
	defer p.site.mu.Unlock()

	sites := p.site.sites
	switch sel {
	case sites.PaginationText:
		return p.site.totalText, nil
	case sites.RecordJSON:
		rid := p.reactionID()
		p.reads++
		if p.site.lateJSON[rid] && p.reads == 1 {
			return "Loading...", nil
		}
		return p.site.records[rid], nil
	}
	return "", fmt.Errorf("no element %q", sel)
}

func (p *fakePage) SelectValue(ctx context.Context, sel, value string) (bool, error) {
	p.site.mu.Lock()
	defer p.site.mu.Unlock()

	if p.site.noSelect {
		return false, stderrors.New("select not found: " + sel)
	}
	p.site.selections = append(p.site.selections, value)
	if p.selected == value {
		return false, nil
	}
	p.selected = value
	return true, nil
}

func (p *fakePage) Close() error {
	p.site.mu.Lock()
	defer p.site.mu.Unlock()
	p.site.closed++
	return nil
}

// listingPage renders one page of a listing table.
func listingPage(pathPrefix string, ids []string, hasNext bool) string {
	var b strings.Builder
	b.WriteString(`<html><body><table>`)
	for _, id := range ids {
		fmt.Fprintf(&b, `<tr><td><a href="%s%s">%s</a></td></tr>`, pathPrefix, id, id)
	}
	b.WriteString(`</table>`)
	if hasNext {
		b.WriteString(`<div class="next paginav">Next</div>`)
	} else {
		b.WriteString(`<div class="next paginav no-click">Next</div>`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

// datasetIDs returns n ids ord_dataset-<from>..ord_dataset-<from+n-1>.
func datasetIDs(from, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("ord_dataset-%03d", from+i)
	}
	return ids
}

func reactionIDs(dataset string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("ord-%s-%02d", strings.TrimPrefix(dataset, "ord_dataset-"), i+1)
	}
	return ids
}

// recordJSON renders a minimal reaction record with one reactant.
func recordJSON(reactionID string) string {
	return fmt.Sprintf(`{"reactionId": %q, "inputsMap": [["reactant", {"componentsList": [
		{"identifiersList": [{"type": 2, "value": "CCO"}],
		 "amount": {"moles": {"value": 1.5, "units": 2}}, "reactionRole": 1}]}]],
		"outcomesList": [{"productsList": [{"identifiersList": [{"type": 2, "value": "CC=O"}],
		 "isDesiredProduct": true}]}]}`, reactionID)
}

// addDataset registers a dataset with n reactions split into pages of perPage.
func (s *fakeSite) addDataset(id string, n, perPage int) []string {
	rids := reactionIDs(id, n)
	var pages []string
	for i := 0; i < len(rids); i += perPage {
		end := min(i+perPage, len(rids))
		pages = append(pages, listingPage("/id/", rids[i:end], end < len(rids)))
	}
	s.datasets[id] = pages
	for _, rid := range rids {
		s.records[rid] = recordJSON(rid)
	}
	return rids
}

// setBrowse registers the browse listing split into pages of perPage.
func (s *fakeSite) setBrowse(ids []string, perPage int) {
	s.browse = nil
	for i := 0; i < len(ids); i += perPage {
		end := min(i+perPage, len(ids))
		s.browse = append(s.browse, listingPage("/dataset/", ids[i:end], end < len(ids)))
	}
	s.totalText = fmt.Sprintf("Showing 1 to %d of %d entries", min(perPage, len(ids)), len(ids))
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.SettleDelay = 0
	opts.RecheckDelay = 0
	opts.ElementTimeout = time.Second
	opts.RateLimit = 0
	opts.Retry.Delay = 0
	return opts
}

// recordingObserver counts observer events.
type recordingObserver struct {
	mu        sync.Mutex
	pages     map[string]int
	attempts  int
	reactions map[string]int
	datasets  map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		pages:     make(map[string]int),
		reactions: make(map[string]int),
		datasets:  make(map[string]int),
	}
}

func (o *recordingObserver) PageScraped(kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pages[kind]++
}

func (o *recordingObserver) FetchAttempt() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts++
}

func (o *recordingObserver) ReactionFinished(status string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reactions[status]++
}

func (o *recordingObserver) DatasetFinished(status string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.datasets[status]++
}
