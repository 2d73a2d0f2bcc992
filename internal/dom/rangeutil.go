package dom

import (
	"iter"
	"strings"

	"golang.org/x/net/html"
)

// GetStartElement returns the nearest element at or containing the range's
// logical start, skipping structural wrappers that hold a single element
// and no text of their own. Used to target scroll-into-view and focus
// hints. Nil for degenerate input.
func GetStartElement(r *Range) *html.Node {
	if r == nil || r.StartContainer == nil {
		return nil
	}
	var el *html.Node
	if r.StartContainer.Type == html.TextNode {
		el = ElementAncestor(r.StartContainer.Parent)
	} else {
		el = ElementAncestor(r.StartContainer)
		if child := ChildAt(el, r.StartOffset); child != nil && child.Type == html.ElementNode {
			el = child
		}
	}
	for el != nil {
		inner := soleElementChild(el)
		if inner == nil {
			break
		}
		el = inner
	}
	return el
}

// soleElementChild returns el's only element child when el carries no text
// of its own, otherwise nil.
func soleElementChild(el *html.Node) *html.Node {
	var sole *html.Node
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return nil
			}
		case html.ElementNode:
			if sole != nil {
				return nil
			}
			sole = c
		}
	}
	return sole
}

// MoveRangeEndsIntoTextNodes normalizes a range so that both boundaries
// sit inside text nodes, without changing the covered text. A collapsed
// result means the input selected no actual text. Nil input yields nil.
func MoveRangeEndsIntoTextNodes(r *Range) *Range {
	if r == nil {
		return nil
	}
	root := r.CommonAncestorContainer()
	if root == nil {
		return nil
	}
	var first, last *html.Node
	var firstStart, lastEnd int
	for n := range TextNodes(rootElement(root)) {
		s, e, ok := r.containsText(n)
		if !ok {
			continue
		}
		if first == nil {
			first, firstStart = n, s
		}
		last, lastEnd = n, e
	}
	if first == nil {
		// No text covered: collapse at the original start.
		return &Range{
			StartContainer: r.StartContainer, StartOffset: r.StartOffset,
			EndContainer: r.StartContainer, EndOffset: r.StartOffset,
		}
	}
	return &Range{
		StartContainer: first, StartOffset: firstStart,
		EndContainer: last, EndOffset: lastEnd,
	}
}

// rootElement widens a text-node root to its parent so TextNodes can walk
// siblings of the boundary containers.
func rootElement(n *html.Node) *html.Node {
	if n.Type == html.TextNode && n.Parent != nil {
		return n.Parent
	}
	return n
}

// SplitRangeToTextNodes yields sub-ranges each wholly contained in a
// single text node, covering exactly the input range's text in document
// order. The sequence is lazy; restart it by calling the function again.
func SplitRangeToTextNodes(r *Range) iter.Seq[*Range] {
	return func(yield func(*Range) bool) {
		if r.Collapsed() {
			return
		}
		root := r.CommonAncestorContainer()
		if root == nil {
			return
		}
		for n := range TextNodes(rootElement(root)) {
			s, e, ok := r.containsText(n)
			if !ok {
				continue
			}
			sub := &Range{StartContainer: n, StartOffset: s, EndContainer: n, EndOffset: e}
			if !yield(sub) {
				return
			}
		}
	}
}

// InnerText extracts the visible text of a range: whitespace runs collapse
// to single spaces and a paragraph break is inserted whenever consecutive
// text nodes live under different block-level ancestors (the same rule
// SplitRangeToTextNodes callers use for block detection).
func InnerText(r *Range) string {
	if r.Collapsed() {
		return ""
	}
	var parts []string
	var block *html.Node
	var cur strings.Builder
	flush := func() {
		if t := collapseSpace(cur.String()); t != "" {
			parts = append(parts, t)
		}
		cur.Reset()
	}
	for sub := range SplitRangeToTextNodes(r) {
		if !IsRendered(sub.StartContainer) {
			continue
		}
		b := BlockAncestor(sub.StartContainer)
		if block != nil && b != block {
			flush()
		}
		block = b
		cur.WriteString(sub.Text())
	}
	flush()
	return strings.Join(parts, "\n\n")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CollapseToOneCharacterAtStart narrows a range to the single character at
// its start boundary, used by resize-by-drag interactions to keep a
// minimal non-empty selection. Nil when no character is available.
func CollapseToOneCharacterAtStart(r *Range) *Range {
	moved := MoveRangeEndsIntoTextNodes(r)
	if moved == nil {
		return nil
	}
	n := moved.StartContainer
	if n == nil || n.Type != html.TextNode {
		return nil
	}
	off := moved.StartOffset
	if off < RuneLen(n) {
		return &Range{StartContainer: n, StartOffset: off, EndContainer: n, EndOffset: off + 1}
	}
	// Start sits at the node's end; take the first character of the next
	// text node inside the range instead.
	for sub := range SplitRangeToTextNodes(moved) {
		if sub.StartContainer == n {
			continue
		}
		if RuneLen(sub.StartContainer) > sub.StartOffset {
			return &Range{
				StartContainer: sub.StartContainer, StartOffset: sub.StartOffset,
				EndContainer: sub.StartContainer, EndOffset: sub.StartOffset + 1,
			}
		}
	}
	return nil
}
