package selector

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/dgallion1/docview/internal/dom"
)

// Sort-index digit widths by annotation schema version.
const (
	SortIndexDigitsV1 = 7
	SortIndexDigitsV2 = 8
)

// SortIndex encodes a range's character offset from the start of the
// document body as a fixed-width, left-zero-padded decimal string, used
// only for stable ordering of annotation lists, never for resolution.
// Offsets wider than the digit budget are truncated to the leading
// digits; ordering degrades for pathologically large documents and that
// is accepted.
func SortIndex(body *html.Node, r *dom.Range, digits int) string {
	if digits <= 0 {
		digits = SortIndexDigitsV2
	}
	offset := 0
	if tp, ok := TextPositionFromRange(body, dom.MoveRangeEndsIntoTextNodes(r)); ok {
		offset = tp.Start
	}
	s := fmt.Sprintf("%0*d", digits, offset)
	if len(s) > digits {
		s = s[:digits]
	}
	return s
}
