package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Range describes a contiguous region of a document between two
// boundaries. Offsets follow the package convention: rune offsets inside
// text nodes, child indices on element nodes.
type Range struct {
	StartContainer *html.Node
	StartOffset    int
	EndContainer   *html.Node
	EndOffset      int
}

// NewRange builds a range from two boundaries, swapping them if given in
// reverse document order.
func NewRange(startNode *html.Node, startOffset int, endNode *html.Node, endOffset int) *Range {
	r := &Range{
		StartContainer: startNode,
		StartOffset:    startOffset,
		EndContainer:   endNode,
		EndOffset:      endOffset,
	}
	if CompareBoundaries(startNode, startOffset, endNode, endOffset) > 0 {
		r.StartContainer, r.EndContainer = endNode, startNode
		r.StartOffset, r.EndOffset = endOffset, startOffset
	}
	return r
}

// SelectNodeContents returns a range spanning all of n's children (or, for
// a text node, all of its data).
func SelectNodeContents(n *html.Node) *Range {
	if n == nil {
		return nil
	}
	if n.Type == html.TextNode {
		return &Range{StartContainer: n, StartOffset: 0, EndContainer: n, EndOffset: RuneLen(n)}
	}
	return &Range{StartContainer: n, StartOffset: 0, EndContainer: n, EndOffset: ChildCount(n)}
}

// SelectNode returns a range wrapping n itself within its parent.
func SelectNode(n *html.Node) *Range {
	if n == nil || n.Parent == nil {
		return nil
	}
	idx := ChildIndex(n)
	if idx < 0 {
		return nil
	}
	return &Range{StartContainer: n.Parent, StartOffset: idx, EndContainer: n.Parent, EndOffset: idx + 1}
}

// Collapsed reports whether the range spans nothing.
func (r *Range) Collapsed() bool {
	return r == nil || (r.StartContainer == r.EndContainer && r.StartOffset == r.EndOffset)
}

// Clone returns a copy of the range.
func (r *Range) Clone() *Range {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// CommonAncestorContainer returns the deepest node containing both
// boundaries.
func (r *Range) CommonAncestorContainer() *html.Node {
	if r == nil {
		return nil
	}
	return CommonAncestor(r.StartContainer, r.EndContainer)
}

// Detached reports whether either boundary no longer hangs off the given
// document root.
func (r *Range) Detached(root *html.Node) bool {
	if r == nil {
		return true
	}
	return !underRoot(r.StartContainer, root) || !underRoot(r.EndContainer, root)
}

func underRoot(n, root *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

// containsText reports whether the text node n intersects the range, and
// returns the rune span of the intersection within n.
func (r *Range) containsText(n *html.Node) (start, end int, ok bool) {
	ln := RuneLen(n)
	if CompareBoundaries(n, ln, r.StartContainer, r.StartOffset) <= 0 {
		return 0, 0, false
	}
	if CompareBoundaries(n, 0, r.EndContainer, r.EndOffset) >= 0 {
		return 0, 0, false
	}
	start, end = 0, ln
	if n == r.StartContainer {
		start = min(max(r.StartOffset, 0), ln)
	}
	if n == r.EndContainer {
		end = min(max(r.EndOffset, 0), ln)
	}
	if start >= end {
		return 0, 0, false
	}
	return start, end, true
}

// Text returns the raw concatenated text content covered by the range, in
// document order, without block-boundary handling. See InnerText for the
// rendered form.
func (r *Range) Text() string {
	if r.Collapsed() {
		return ""
	}
	root := r.CommonAncestorContainer()
	if root == nil {
		return ""
	}
	var buf strings.Builder
	for n := range TextNodes(root) {
		s, e, ok := r.containsText(n)
		if !ok {
			continue
		}
		runes := []rune(n.Data)
		buf.WriteString(string(runes[s:e]))
	}
	return buf.String()
}
