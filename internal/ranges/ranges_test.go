// internal/ranges/ranges_test.go
package ranges

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		window Window
		total  int
		want   Span
	}{
		{"first ten of fifty", Between(1, 10), 50, Span{Start: 0, End: 10}},
		{"end clamped to total", Between(3, 10), 5, Span{Start: 2, End: 5}},
		{"no bounds", Window{}, 50, Span{Open: true}},
		{"no bounds unknown total", Window{}, Unknown, Span{Open: true}},
		{"start only", From(4), 50, Span{Start: 3, Open: true}},
		{"end only unknown total", Upto(7), Unknown, Span{Start: 0, End: 7}},
		{"end beyond unknown total kept", Upto(700), Unknown, Span{Start: 0, End: 700}},
		{"start past end", Between(8, 3), 50, Span{Start: 3, End: 3}},
		{"start past clamped end", Between(9, 20), 5, Span{Start: 5, End: 5}},
		{"zero start clamps", Between(0, 2), 50, Span{Start: 0, End: 2}},
		{"negative start clamps", Between(-5, 2), 50, Span{Start: 0, End: 2}},
		{"negative end clamps", Between(1, -3), 50, Span{Start: 0, End: 0}},
		{"single item", Between(5, 5), 50, Span{Start: 4, End: 5}},
		{"empty collection", Between(1, 10), 0, Span{Start: 0, End: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.window, tt.total)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve(%s, %d) mismatch (-want +got):\n%s", tt.window, tt.total, diff)
			}
		})
	}
}

func TestResolveInvariants(t *testing.T) {
	for total := 0; total <= 12; total++ {
		for start := -2; start <= 14; start++ {
			for end := -2; end <= 14; end++ {
				sp := Resolve(Between(start, end), total)
				if sp.Open {
					t.Fatalf("bounded window resolved open: start=%d end=%d total=%d", start, end, total)
				}
				if sp.Start > sp.End {
					t.Errorf("start %d > end %d (start=%d end=%d total=%d)", sp.Start, sp.End, start, end, total)
				}
				if sp.End > total {
					t.Errorf("end %d beyond total %d", sp.End, total)
				}
				if sp.Start < 0 {
					t.Errorf("negative start %d", sp.Start)
				}
			}
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	w := Between(3, 9)
	first := Resolve(w, 20)
	for i := 0; i < 10; i++ {
		if got := Resolve(w, 20); got != first {
			t.Fatalf("run %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestSpan_StopEarly(t *testing.T) {
	sp := Resolve(Between(1, 10), Unknown)
	if sp.StopEarly(9) {
		t.Error("expected no early stop at 9 of 10")
	}
	if !sp.StopEarly(10) {
		t.Error("expected early stop at 10 of 10")
	}
	if !sp.StopEarly(11) {
		t.Error("expected early stop past the end")
	}

	open := Resolve(From(2), Unknown)
	if open.StopEarly(1 << 20) {
		t.Error("open span must never stop early")
	}
}

func TestSpan_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		span   Span
		n      int
		lo, hi int
	}{
		{"open covers all", Span{Open: true}, 7, 0, 7},
		{"open with start", Span{Start: 3, Open: true}, 7, 3, 7},
		{"start beyond collection", Span{Start: 9, Open: true}, 7, 7, 7},
		{"bounded inside", Span{Start: 1, End: 4}, 7, 1, 4},
		{"bounded past collection", Span{Start: 1, End: 40}, 7, 1, 7},
		{"empty", Span{Start: 3, End: 3}, 7, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.span.Bounds(tt.n)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("Bounds(%d) = [%d, %d), want [%d, %d)", tt.n, lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestSlice(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}

	if diff := cmp.Diff([]string{"c", "d", "e"}, Slice(ids, Between(3, 10))); diff != "" {
		t.Errorf("Slice mismatch (-want +got):\n%s", diff)
	}
	if got := Slice(ids, Between(4, 2)); len(got) != 0 {
		t.Errorf("expected empty slice, got %v", got)
	}
	if diff := cmp.Diff(ids, Slice(ids, Window{})); diff != "" {
		t.Errorf("Slice with no bounds mismatch (-want +got):\n%s", diff)
	}
}

func TestPageSizeFor(t *testing.T) {
	tests := []struct {
		window Window
		want   int
	}{
		{Window{}, 100},
		{From(3), 100},
		{Upto(1), 10},
		{Upto(10), 10},
		{Upto(11), 25},
		{Between(20, 25), 25},
		{Upto(50), 50},
		{Upto(51), 100},
		{Upto(5000), 100},
	}

	for _, tt := range tests {
		if got := PageSizeFor(tt.window); got != tt.want {
			t.Errorf("PageSizeFor(%s) = %d, want %d", tt.window, got, tt.want)
		}
	}
}

func TestWindow_String(t *testing.T) {
	if got := (Window{}).String(); got != "first..last" {
		t.Errorf("got %q", got)
	}
	if got := Between(2, 9).String(); got != "2..9" {
		t.Errorf("got %q", got)
	}
}
