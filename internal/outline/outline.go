// Package outline extracts a navigable heading tree from a rendered
// document. Each entry carries a selector usable for scroll-to-heading;
// an entry whose anchor no longer resolves is simply skipped by the UI
// rather than surfaced as an error.
package outline

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/docview/internal/dom"
	"github.com/dgallion1/docview/internal/selector"
)

// Entry is one heading in the outline.
type Entry struct {
	Title    string   `json:"title"`
	Level    int      `json:"level"`
	Anchor   string   `json:"anchor,omitempty"` // CSS selector for the heading element
	Children []*Entry `json:"children,omitempty"`
}

// Extract walks the document body and nests headings by level.
func Extract(doc *dom.Document) []*Entry {
	type stackEntry struct {
		entry *Entry
		level int
	}
	root := &Entry{}
	stack := []stackEntry{{entry: root, level: 0}}

	for n := doc.Body; n != nil; n = dom.NextNode(n, doc.Body) {
		if n.Type != html.ElementNode {
			continue
		}
		level := headingLevel(n.Data)
		if level == 0 {
			continue
		}
		title := strings.Join(strings.Fields(dom.TextContent(n)), " ")
		if title == "" {
			continue
		}
		entry := &Entry{Title: title, Level: level}
		if anchor, ok := selector.UniqueSelector(doc, n); ok {
			entry.Anchor = anchor
		}
		for len(stack) > 1 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].entry
		parent.Children = append(parent.Children, entry)
		stack = append(stack, stackEntry{entry: entry, level: level})
	}
	return root.Children
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}
