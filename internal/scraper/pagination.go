// internal/scraper/pagination.go
package scraper

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var entriesPattern = regexp.MustCompile(`of (\d+) entries`)

// parseTotalEntries extracts N from pagination text such as
// "Showing 1 to 100 of 523 entries".
func parseTotalEntries(text string) (int, bool) {
	m := entriesPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// pageCount returns how many listing pages hold total entries.
func pageCount(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// nextButton detects whether a listing has another page to show.
type nextButton struct {
	Selector      string
	DisabledClass string
	MaxPages      int
}

// IsComplete reports whether pagination has ended at pageNum.
func (nb nextButton) IsComplete(doc *goquery.Document, pageNum int) bool {
	if nb.MaxPages > 0 && pageNum >= nb.MaxPages {
		return true
	}

	selection := doc.Find(nb.Selector)
	if selection.Length() == 0 {
		return true // No next button
	}

	if nb.DisabledClass != "" && selection.HasClass(nb.DisabledClass) {
		return true
	}

	return selection.HasClass("disabled")
}

// linkCollector accumulates identifiers from listing anchors, keeping first
// occurrence order.
type linkCollector struct {
	selector string
	prefix   string
	seen     map[string]struct{}
	ids      []string
}

func newLinkCollector(selector, prefix string) *linkCollector {
	return &linkCollector{
		selector: selector,
		prefix:   prefix,
		seen:     make(map[string]struct{}),
		ids:      []string{},
	}
}

// collect adds identifiers found in doc. It stops as soon as stop reports
// true for the running count and returns whether it stopped.
func (lc *linkCollector) collect(doc *goquery.Document, stop func(count int) bool) bool {
	stopped := false
	doc.Find(lc.selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		id := lastSegment(href)
		if id == "" || !strings.HasPrefix(id, lc.prefix) {
			return true
		}
		if _, dup := lc.seen[id]; dup {
			return true
		}
		lc.seen[id] = struct{}{}
		lc.ids = append(lc.ids, id)

		if stop(len(lc.ids)) {
			stopped = true
			return false
		}
		return true
	})
	return stopped
}

// lastSegment returns the final path element of href, ignoring any query or
// fragment.
func lastSegment(href string) string {
	href = strings.TrimSpace(href)
	if u, err := url.Parse(href); err == nil {
		href = u.Path
	} else if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	href = strings.TrimRight(href, "/")
	if href == "" {
		return ""
	}
	return path.Base(href)
}
