package geom

import (
	"github.com/dgallion1/docview/internal/dom"
)

// Layout answers geometry queries for a rendered document. Implementations
// report viewport-relative client rects the way a browser would; the page
// coordinate helpers below add the scroll offset back in.
type Layout interface {
	// ClientRects returns one rect per rendered line box the range
	// touches, viewport-relative, in reading order. Empty for collapsed
	// or unrendered ranges.
	ClientRects(r *dom.Range) []Rect
	// ScrollOffset is the current viewport scroll position.
	ScrollOffset() (x, y float64)
	// CaretRangeFromPoint returns a collapsed range at the character
	// nearest the viewport point, or nil when the point hits no text.
	CaretRangeFromPoint(x, y float64) *dom.Range
}

// PageRects converts a range's client rects to page coordinates and
// merges rects sharing a line box.
func PageRects(l Layout, r *dom.Range) []Rect {
	rects := l.ClientRects(r)
	if len(rects) == 0 {
		return nil
	}
	sx, sy := l.ScrollOffset()
	out := make([]Rect, 0, len(rects))
	for _, c := range rects {
		if c.Empty() {
			continue
		}
		out = append(out, c.Translate(sx, sy))
	}
	return mergeAdjacent(out)
}

// BoundingPageRect returns the single page-coordinate rect covering the
// whole range, or a zero rect when the range is not rendered.
func BoundingPageRect(l Layout, r *dom.Range) Rect {
	var bound Rect
	for _, pr := range PageRects(l, r) {
		bound = Union(bound, pr)
	}
	return bound
}

// ColumnSeparatedPageRects returns one bounding rect per horizontal band
// the range occupies. In a multi-column layout a selection spanning
// columns gets one rect per column instead of a naive box across
// unrelated columns. Bands are detected by grouping page rects whose
// horizontal extents overlap.
func ColumnSeparatedPageRects(l Layout, r *dom.Range) []Rect {
	rects := PageRects(l, r)
	if len(rects) == 0 {
		return nil
	}
	type band struct {
		left, right float64
		bound       Rect
	}
	var bands []band
	for _, pr := range rects {
		placed := false
		for i := range bands {
			if pr.Left < bands[i].right && pr.Right() > bands[i].left {
				bands[i].bound = Union(bands[i].bound, pr)
				bands[i].left = min(bands[i].left, pr.Left)
				bands[i].right = max(bands[i].right, pr.Right())
				placed = true
				break
			}
		}
		if !placed {
			bands = append(bands, band{left: pr.Left, right: pr.Right(), bound: pr})
		}
	}
	out := make([]Rect, len(bands))
	for i, b := range bands {
		out[i] = b.bound
	}
	return out
}
