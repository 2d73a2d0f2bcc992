package dom

import (
	"iter"

	"golang.org/x/net/html"
)

// NextNode advances n in document order (pre-order), staying within root.
// Returns nil after the last node.
func NextNode(n, root *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil && n != root; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

// PrevNode retreats n in document order within root: the deepest last
// descendant of the previous sibling, or the parent. Nil before the first.
func PrevNode(n, root *html.Node) *html.Node {
	if n == root {
		return nil
	}
	if n.PrevSibling == nil {
		return n.Parent
	}
	n = n.PrevSibling
	for n.LastChild != nil {
		n = n.LastChild
	}
	return n
}

// TextNodes yields the rendered text-bearing leaf nodes under root in
// document order. Nodes inside script/style/head are skipped.
func TextNodes(root *html.Node) iter.Seq[*html.Node] {
	return func(yield func(*html.Node) bool) {
		for n := root; n != nil; n = NextNode(n, root) {
			if n.Type == html.ElementNode && skipTags[n.Data] {
				// Jump past the subtree.
				next := n.NextSibling
				for p := n; next == nil && p != nil && p != root; p = p.Parent {
					next = p.NextSibling
				}
				if next == nil {
					return
				}
				// Resume from the sibling on the following iteration.
				n = PrevNode(next, root)
				if n == nil {
					return
				}
				continue
			}
			if n.Type == html.TextNode {
				if !yield(n) {
					return
				}
			}
		}
	}
}

// nodePath returns child indices from root down to n, or nil if n is not
// under root.
func nodePath(n, root *html.Node) []int {
	var rev []int
	for p := n; p != root; p = p.Parent {
		if p == nil || p.Parent == nil && p != root {
			return nil
		}
		idx := ChildIndex(p)
		if idx < 0 {
			return nil
		}
		rev = append(rev, idx)
	}
	path := make([]int, len(rev))
	for i, v := range rev {
		path[len(rev)-1-i] = v
	}
	return path
}

// CompareBoundaries orders two range boundaries in document order,
// returning -1, 0 or 1. Both boundaries must share a common root; the
// result is 0 for identical positions.
func CompareBoundaries(aNode *html.Node, aOffset int, bNode *html.Node, bOffset int) int {
	if aNode == bNode {
		switch {
		case aOffset < bOffset:
			return -1
		case aOffset > bOffset:
			return 1
		}
		return 0
	}
	root := commonRoot(aNode, bNode)
	if root == nil {
		return 0
	}
	a := append(nodePath(aNode, root), aOffset)
	b := append(nodePath(bNode, root), bOffset)
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	// One boundary is inside a node the other points at; the deeper
	// boundary sits after the shallow boundary's child index, which the
	// loop above already resolved. Equal prefixes mean the shallower one
	// points exactly at the deeper node: the shallow boundary is before.
	if len(a) < len(b) {
		return -1
	}
	if len(a) > len(b) {
		return 1
	}
	return 0
}

func commonRoot(a, b *html.Node) *html.Node {
	seen := map[*html.Node]bool{}
	for p := a; p != nil; p = p.Parent {
		seen[p] = true
	}
	for p := b; p != nil; p = p.Parent {
		if seen[p] {
			return p
		}
	}
	return nil
}

// CommonAncestor returns the deepest node containing both a and b.
func CommonAncestor(a, b *html.Node) *html.Node {
	return commonRoot(a, b)
}
