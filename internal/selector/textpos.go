package selector

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/dgallion1/docview/internal/dom"
)

// Text offsets are counted over an anchor's descendant text nodes after
// trimming each node: leading/trailing whitespace of a node contributes
// nothing, and whitespace-only nodes contribute zero. Offsets therefore
// survive insignificant whitespace changes from re-serialization.

// trimSpan returns the rune indices of the trimmed content of s and its
// trimmed rune length.
func trimSpan(s string) (lead, trimmed int) {
	runes := []rune(s)
	i := 0
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	j := len(runes)
	for j > i && unicode.IsSpace(runes[j-1]) {
		j--
	}
	return i, j - i
}

// TextPositionFromRange computes trimmed character offsets of r's
// boundaries relative to anchor. Both boundaries must sit inside text
// nodes under the anchor; false otherwise.
func TextPositionFromRange(anchor *html.Node, r *dom.Range) (*TextPositionSelector, bool) {
	if r == nil || anchor == nil {
		return nil, false
	}
	start, end := -1, -1
	count := 0
	for n := range dom.TextNodes(anchor) {
		if !dom.IsRendered(n) {
			continue
		}
		lead, trimmed := trimSpan(n.Data)
		if n == r.StartContainer {
			start = count + clampOffset(r.StartOffset, lead, trimmed)
		}
		if n == r.EndContainer {
			end = count + clampOffset(r.EndOffset, lead, trimmed)
		}
		count += trimmed
		if start >= 0 && end >= 0 {
			break
		}
	}
	if start < 0 || end < 0 || end < start {
		return nil, false
	}
	return &TextPositionSelector{Start: start, End: end}, true
}

func clampOffset(off, lead, trimmed int) int {
	off -= lead
	if off < 0 {
		return 0
	}
	if off > trimmed {
		return trimmed
	}
	return off
}

// TextPositionToRange converts trimmed offsets back to a live range under
// anchor. Nil when the offsets exceed the anchor's available text, the
// expected outcome when content shrank between sessions.
func TextPositionToRange(anchor *html.Node, start, end int) *dom.Range {
	if anchor == nil || start < 0 || end < start {
		return nil
	}
	r := &dom.Range{}
	count := 0
	for n := range dom.TextNodes(anchor) {
		if !dom.IsRendered(n) {
			continue
		}
		lead, trimmed := trimSpan(n.Data)
		if trimmed == 0 {
			continue
		}
		if r.StartContainer == nil && start < count+trimmed {
			r.StartContainer = n
			r.StartOffset = lead + (start - count)
		}
		if r.StartContainer == nil && start == count+trimmed && end == start {
			// Collapsed position at the very end of a node.
			r.StartContainer = n
			r.StartOffset = lead + trimmed
		}
		if end <= count+trimmed {
			r.EndContainer = n
			r.EndOffset = lead + (end - count)
			break
		}
		count += trimmed
	}
	if r.StartContainer == nil || r.EndContainer == nil {
		return nil
	}
	return r
}

// AnchorText is the anchor's whitespace-normalized text, the string the
// offsets index into conceptually.
func AnchorText(anchor *html.Node) string {
	var buf strings.Builder
	for n := range dom.TextNodes(anchor) {
		if !dom.IsRendered(n) {
			continue
		}
		lead, trimmed := trimSpan(n.Data)
		if trimmed == 0 {
			continue
		}
		runes := []rune(n.Data)
		buf.WriteString(string(runes[lead : lead+trimmed]))
	}
	return buf.String()
}
