// Package dom provides range and text primitives over parsed HTML trees.
//
// All character offsets in this package are Unicode code points (runes),
// not bytes. A range boundary inside a text node is a rune offset into the
// node's data; a boundary on an element node is a child index.
package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document wraps a parsed HTML tree with its body resolved.
type Document struct {
	Root *html.Node
	Body *html.Node
}

// Parse reads an HTML document and locates its body.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	body := FindElement(root, "body")
	if body == nil {
		body = root
	}
	return &Document{Root: root, Body: body}, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// FindElement returns the first element with the given tag name, depth-first.
func FindElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FindElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// Title returns the text of the document's <title>, or "".
func (d *Document) Title() string {
	t := FindElement(d.Root, "title")
	if t == nil {
		return ""
	}
	return strings.TrimSpace(TextContent(t))
}

// Contains reports whether n is attached under the document root.
func (d *Document) Contains(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.Root {
			return true
		}
	}
	return false
}

// TextContent concatenates all descendant text node data.
func TextContent(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

// Attr returns the value of the named attribute, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// ElementAncestor returns n itself if it is an element, otherwise the
// nearest element ancestor. Nil if none exists.
func ElementAncestor(n *html.Node) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

// ChildIndex returns n's index among its parent's children, or -1 if
// detached.
func ChildIndex(n *html.Node) int {
	if n.Parent == nil {
		return -1
	}
	i := 0
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c == n {
			return i
		}
		i++
	}
	return -1
}

// ChildAt returns the i-th child of n, or nil.
func ChildAt(n *html.Node, i int) *html.Node {
	c := n.FirstChild
	for ; c != nil && i > 0; c = c.NextSibling {
		i--
	}
	return c
}

// ChildCount returns the number of children of n.
func ChildCount(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

// blockTags are elements that establish a visual block boundary.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"div": true, "dl": true, "dd": true, "dt": true, "fieldset": true,
	"figure": true, "figcaption": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tbody": true, "td": true, "th": true, "thead": true, "tr": true,
	"ul": true, "body": true,
}

// skipTags are elements whose text content is never rendered.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"head": true, "title": true,
}

// IsBlock reports whether n is a block-level element.
func IsBlock(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && blockTags[n.Data]
}

// IsRendered reports whether text under n participates in visible layout.
func IsRendered(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && skipTags[p.Data] {
			return false
		}
	}
	return true
}

// BlockAncestor returns the nearest block-level ancestor of n (or n itself
// when it is a block element). Nil for detached nodes.
func BlockAncestor(n *html.Node) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if IsBlock(p) {
			return p
		}
	}
	return nil
}

// RuneLen returns the rune count of a text node's data.
func RuneLen(n *html.Node) int {
	return len([]rune(n.Data))
}
