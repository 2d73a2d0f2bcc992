// Package focus builds the extracted "focus mode" view of a document and
// maps ranges between the focus tree and the original, so selectors
// computed in focus mode still resolve against the original document.
package focus

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/docview/internal/dom"
)

// contentSelectors are tried in order to find the main content root.
var contentSelectors = []string{
	"article",
	"main",
	"[role=main]",
	"#content",
	".content",
}

// droppedTags are stripped from the focus view along with their subtrees.
var droppedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"iframe": true, "nav": true, "aside": true, "form": true,
	"header": true, "footer": true,
}

// View is a filtered, reflowed subset of an original document. Every node
// in the focus tree traces back to exactly one origin node; content the
// extraction dropped has no counterpart and ranges over it do not map.
type View struct {
	Doc *dom.Document

	orig      *dom.Document
	toFocus   map[*html.Node]*html.Node
	fromFocus map[*html.Node]*html.Node
}

// NewView extracts the main content of orig into a standalone focus
// document. The content root is located by the usual landmark selectors,
// falling back to the densest block when a page has none.
func NewView(orig *dom.Document) *View {
	v := &View{
		orig:      orig,
		toFocus:   make(map[*html.Node]*html.Node),
		fromFocus: make(map[*html.Node]*html.Node),
	}

	root := contentRoot(orig)
	focusBody := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	focusHTML := &html.Node{Type: html.ElementNode, Data: "html", DataAtom: atom.Html}
	focusRoot := &html.Node{Type: html.DocumentNode}
	focusRoot.AppendChild(focusHTML)
	focusHTML.AppendChild(focusBody)

	v.toFocus[root] = focusBody
	v.fromFocus[focusBody] = root
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if clone := v.cloneInto(c); clone != nil {
			focusBody.AppendChild(clone)
		}
	}
	v.Doc = &dom.Document{Root: focusRoot, Body: focusBody}
	return v
}

// contentRoot picks the element the focus view is extracted from.
func contentRoot(doc *dom.Document) *html.Node {
	gq := goquery.NewDocumentFromNode(doc.Root)
	for _, sel := range contentSelectors {
		if s := gq.Find(sel).First(); s.Length() == 1 {
			return s.Nodes[0]
		}
	}
	// No landmark: take the block child of body carrying the most text.
	best, bestLen := doc.Body, -1
	for c := doc.Body.FirstChild; c != nil; c = c.NextSibling {
		if !dom.IsBlock(c) {
			continue
		}
		if l := len(dom.TextContent(c)); l > bestLen {
			best, bestLen = c, l
		}
	}
	return best
}

// cloneInto deep-copies a kept node, recording the correspondence in both
// directions. Dropped subtrees return nil.
func (v *View) cloneInto(n *html.Node) *html.Node {
	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return nil
	case html.ElementNode:
		if droppedTags[n.Data] {
			return nil
		}
	}
	clone := &html.Node{
		Type:     n.Type,
		Data:     n.Data,
		DataAtom: n.DataAtom,
		Attr:     append([]html.Attribute(nil), n.Attr...),
	}
	v.toFocus[n] = clone
	v.fromFocus[clone] = n
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if cc := v.cloneInto(c); cc != nil {
			clone.AppendChild(cc)
		}
	}
	return clone
}

// MapRangeToFocus translates an original-document range into the focus
// tree. Nil when any part of the range was excluded by extraction;
// callers treat that as "currently inaccessible", never as permission to
// approximate.
func (v *View) MapRangeToFocus(r *dom.Range) *dom.Range {
	return mapRange(r, v.toFocus)
}

// MapRangeFromFocus is the exact inverse of MapRangeToFocus for ranges
// fully contained in the extracted content.
func (v *View) MapRangeFromFocus(r *dom.Range) *dom.Range {
	return mapRange(r, v.fromFocus)
}

func mapRange(r *dom.Range, corr map[*html.Node]*html.Node) *dom.Range {
	if r == nil {
		return nil
	}
	sn, so := mapBoundary(r.StartContainer, r.StartOffset, corr)
	if sn == nil {
		return nil
	}
	en, eo := mapBoundary(r.EndContainer, r.EndOffset, corr)
	if en == nil {
		return nil
	}
	return &dom.Range{StartContainer: sn, StartOffset: so, EndContainer: en, EndOffset: eo}
}

// mapBoundary carries one boundary across the correspondence. Text
// offsets transfer verbatim (text is cloned unchanged); element child
// indices are re-derived from the mapped child because filtering shifts
// sibling positions.
func mapBoundary(n *html.Node, offset int, corr map[*html.Node]*html.Node) (*html.Node, int) {
	mapped := corr[n]
	if mapped == nil {
		return nil, 0
	}
	if n.Type == html.TextNode {
		return mapped, offset
	}
	if child := dom.ChildAt(n, offset); child != nil {
		mc := corr[child]
		if mc == nil {
			return nil, 0
		}
		return mc.Parent, dom.ChildIndex(mc)
	}
	return mapped, dom.ChildCount(mapped)
}
