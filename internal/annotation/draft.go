package annotation

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docview/internal/dom"
	"github.com/dgallion1/docview/internal/geom"
	"github.com/dgallion1/docview/internal/selector"
)

// DraftFromRange builds an unsaved annotation anchored at a live range.
// Find-match conversion goes through this same path so highlights saved
// from find behave identically to manually drawn ones. Nil when the range
// yields no selector (collapsed, or no element anchor).
func DraftFromRange(rs *selector.Resolver, r *dom.Range, t Type, color string, digits int) *Annotation {
	sel := rs.FromRange(r)
	if sel == nil {
		return nil
	}
	return &Annotation{
		ID:        NewID(),
		Type:      t,
		Color:     color,
		SortIndex: selector.SortIndex(rs.Doc.Body, r, digits),
		Position:  Position{Selector: sel},
		Text:      strings.TrimSpace(dom.InnerText(r)),
	}
}

// TransientHighlight builds an id-less highlight pseudo-annotation for
// the overlay renderer, used for find's highlight-all result set.
func TransientHighlight(rs *selector.Resolver, r *dom.Range) *Annotation {
	sel := rs.FromRange(r)
	if sel == nil {
		return nil
	}
	return &Annotation{
		Type:     TypeHighlight,
		Position: Position{Selector: sel},
		Text:     strings.TrimSpace(dom.InnerText(r)),
	}
}

// FreeformDraft builds an unsaved freeform annotation (free text, image
// box, ink stroke). Freeform positions anchor at the whole document body
// with the pixel geometry carried inline, because there is no text range
// to refine by.
// The sort index is formatted to the same digit width as text-anchored
// drafts so both kinds order correctly in one listing.
func FreeformDraft(t Type, rects []geom.Rect, paths [][]geom.Point, fontSize float64, text string, digits int) *Annotation {
	// Order freeform annotations by vertical position on the page.
	sortIdx := formatSortable(topOf(rects, paths), digits)
	return &Annotation{
		ID:   NewID(),
		Type: t,
		Position: Position{
			Selector: &selector.CssSelector{Value: "body"},
			Rects:    rects,
			Paths:    paths,
			FontSize: fontSize,
		},
		SortIndex: sortIdx,
		Text:      text,
	}
}

func topOf(rects []geom.Rect, paths [][]geom.Point) float64 {
	top := -1.0
	for _, r := range rects {
		if top < 0 || r.Top < top {
			top = r.Top
		}
	}
	for _, p := range paths {
		for _, pt := range p {
			if top < 0 || pt.Y < top {
				top = pt.Y
			}
		}
	}
	if top < 0 {
		top = 0
	}
	return top
}

func formatSortable(v float64, digits int) string {
	n := int(v)
	if n < 0 {
		n = 0
	}
	s := fmt.Sprintf("%0*d", digits, n)
	if len(s) > digits {
		s = s[:digits]
	}
	return s
}
