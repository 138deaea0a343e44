// internal/ranges/ranges.go

// Package ranges turns user supplied 1-based inclusive windows into concrete
// 0-based slice bounds. Everything here is pure and safe for concurrent use.
package ranges

import "fmt"

// Unknown marks a collection whose total size has not been discovered yet.
const Unknown = -1

// Window is a 1-based inclusive range as entered by a user. A nil bound is absent.
type Window struct {
	Start *int `yaml:"start,omitempty" json:"start,omitempty"`
	End   *int `yaml:"end,omitempty" json:"end,omitempty"`
}

// Between returns a window with both bounds set.
func Between(start, end int) Window {
	return Window{Start: &start, End: &end}
}

// From returns a window with only a lower bound.
func From(start int) Window {
	return Window{Start: &start}
}

// Upto returns a window with only an upper bound.
func Upto(end int) Window {
	return Window{End: &end}
}

// IsZero reports whether neither bound is set.
func (w Window) IsZero() bool {
	return w.Start == nil && w.End == nil
}

// String renders the window the way it is logged.
func (w Window) String() string {
	s, e := "first", "last"
	if w.Start != nil {
		s = fmt.Sprintf("%d", *w.Start)
	}
	if w.End != nil {
		e = fmt.Sprintf("%d", *w.End)
	}
	return s + ".." + e
}

// Span is a resolved 0-based half-open range [Start, End). When Open is set
// there is no upper bound and End is meaningless.
type Span struct {
	Start int
	End   int
	Open  bool
}

// Resolve converts w into a Span. total is the known collection size or Unknown.
// The end is clamped to total when total is known, and a start past the end
// yields an empty span rather than an error.
func Resolve(w Window, total int) Span {
	sp := Span{Open: true}
	if w.Start != nil {
		sp.Start = max(0, *w.Start-1)
	}
	if w.End == nil {
		return sp
	}

	end := max(0, *w.End)
	if total >= 0 && end > total {
		end = total
	}
	sp.End = end
	sp.Open = false
	if sp.Start > sp.End {
		sp.Start = sp.End
	}
	return sp
}

// StopEarly reports whether an incremental fetch that has collected count
// items already covers the span.
func (s Span) StopEarly(count int) bool {
	return !s.Open && count >= s.End
}

// Empty reports whether the span selects nothing regardless of collection size.
func (s Span) Empty() bool {
	return !s.Open && s.Start >= s.End
}

// Bounds returns slice bounds for a collection of n items.
func (s Span) Bounds(n int) (lo, hi int) {
	hi = n
	if !s.Open && s.End < hi {
		hi = s.End
	}
	lo = min(s.Start, hi)
	return lo, hi
}

// Slice resolves w against len(items) and returns the selected sub-slice.
func Slice[T any](items []T, w Window) []T {
	lo, hi := Resolve(w, len(items)).Bounds(len(items))
	return items[lo:hi]
}

// Page size options offered by the ORD dataset table.
var pageSizes = []int{10, 25, 50, 100}

// PageSizeFor picks the smallest table page size covering the requested end,
// falling back to the largest one for open windows.
func PageSizeFor(w Window) int {
	largest := pageSizes[len(pageSizes)-1]
	if w.End == nil {
		return largest
	}
	for _, size := range pageSizes {
		if *w.End <= size {
			return size
		}
	}
	return largest
}
