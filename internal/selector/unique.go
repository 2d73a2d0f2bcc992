package selector

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/dgallion1/docview/internal/dom"
)

// UniqueSelector computes a minimal CSS selector that matches exactly el
// within the document. The strategy prefers ids, then tag+class and
// attribute combinations, then an nth-of-type ancestor path; the same
// element always yields the same selector on an unchanged document.
// Returns false only when no unique selector can be constructed, e.g. the
// element is detached.
func UniqueSelector(doc *dom.Document, el *html.Node) (string, bool) {
	if doc == nil || el == nil || el.Type != html.ElementNode || !doc.Contains(el) {
		return "", false
	}

	if id := dom.Attr(el, "id"); id != "" {
		if sel := idSelector(id); matchesOnly(doc, sel, el) {
			return sel, true
		}
	}

	for _, candidate := range localCandidates(el) {
		if matchesOnly(doc, candidate, el) {
			return candidate, true
		}
	}

	// Positional path: grow an nth-of-type chain upward until unique.
	seg := positionalSegment(el)
	path := seg
	for p := el.Parent; p != nil && p.Type == html.ElementNode; p = p.Parent {
		if matchesOnly(doc, path, el) {
			return path, true
		}
		// An identified ancestor shortens the chain and survives
		// sibling reordering above it.
		if id := dom.Attr(p, "id"); id != "" {
			anchored := idSelector(id) + " > " + path
			if matchesOnly(doc, anchored, el) {
				return anchored, true
			}
		}
		path = positionalSegment(p) + " > " + path
		if p.Data == "body" || p.Data == "html" {
			break
		}
	}
	if matchesOnly(doc, path, el) {
		return path, true
	}
	return "", false
}

// localCandidates lists selectors built from the element's own tag,
// classes and name attribute, cheapest first.
func localCandidates(el *html.Node) []string {
	tag := el.Data
	var out []string
	classes := strings.Fields(dom.Attr(el, "class"))
	for _, c := range classes {
		if ident := cssIdent(c); ident != "" {
			out = append(out, tag+"."+ident)
		}
	}
	if len(classes) > 1 {
		var all strings.Builder
		all.WriteString(tag)
		ok := true
		for _, c := range classes {
			ident := cssIdent(c)
			if ident == "" {
				ok = false
				break
			}
			all.WriteString("." + ident)
		}
		if ok {
			out = append(out, all.String())
		}
	}
	if name := dom.Attr(el, "name"); name != "" {
		out = append(out, fmt.Sprintf(`%s[name=%q]`, tag, name))
	}
	out = append(out, tag)
	return out
}

// positionalSegment returns tag:nth-of-type(k) when el has same-tag
// siblings, plain tag otherwise.
func positionalSegment(el *html.Node) string {
	if el.Parent == nil {
		return el.Data
	}
	index, sameTag := 0, 0
	for c := el.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != el.Data {
			continue
		}
		sameTag++
		if c == el {
			index = sameTag
		}
	}
	if sameTag > 1 {
		return fmt.Sprintf("%s:nth-of-type(%d)", el.Data, index)
	}
	return el.Data
}

// matchesOnly reports whether sel matches exactly el within the document.
func matchesOnly(doc *dom.Document, sel string, el *html.Node) bool {
	compiled, err := cascadia.Compile(sel)
	if err != nil {
		return false
	}
	matches := compiled.MatchAll(doc.Root)
	return len(matches) == 1 && matches[0] == el
}

var identPattern = regexp.MustCompile(`^-?[A-Za-z_][A-Za-z0-9_-]*$`)

// cssIdent returns s when it is usable as a bare CSS identifier, ""
// otherwise. Values needing escape sequences are skipped rather than
// escaped; the positional path covers those elements.
func cssIdent(s string) string {
	if identPattern.MatchString(s) {
		return s
	}
	return ""
}

// idSelector renders an id as #ident or an attribute match when the id is
// not a clean identifier.
func idSelector(id string) string {
	if ident := cssIdent(id); ident != "" {
		return "#" + ident
	}
	return fmt.Sprintf(`[id=%q]`, id)
}
