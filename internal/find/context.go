// Package find implements the incremental find engine: a lazy scan over a
// snapshot of the document's text-bearing leaf nodes with case and
// whole-word matching, snippet extraction and circular navigation.
package find

import (
	"golang.org/x/net/html"

	"github.com/dgallion1/docview/internal/dom"
)

// State is the externally-owned find configuration. The consuming view
// mutates it on every keystroke; see NeedsNewRun for which changes force
// a re-scan.
type State struct {
	Query         string `json:"query"`
	CaseSensitive bool   `json:"caseSensitive"`
	EntireWord    bool   `json:"entireWord"`
	HighlightAll  bool   `json:"highlightAll"`
	Active        bool   `json:"active"`
}

// NeedsNewRun reports whether moving from prev to next invalidates the
// current result set. HighlightAll alone only changes what gets rendered,
// not what matched.
func NeedsNewRun(prev, next State) bool {
	return prev.Query != next.Query ||
		prev.CaseSensitive != next.CaseSensitive ||
		prev.EntireWord != next.EntireWord ||
		prev.Active != next.Active
}

// Context is an immutable snapshot of a document's rendered text leaves,
// taken once when find is initialized. The engine never re-walks the DOM
// mid-search; a fresh Context is built only when find starts over.
//
// Each leaf is matched independently, so a query spanning an inline
// element boundary ("Hello world" over "Hello <b>world</b>") yields no
// match.
type Context struct {
	body  *html.Node
	nodes []*html.Node
	texts [][]rune
}

// NewContext snapshots the text-bearing leaf nodes under body in document
// order.
func NewContext(body *html.Node) *Context {
	sc := &Context{body: body}
	for n := range dom.TextNodes(body) {
		if !dom.IsRendered(n) {
			continue
		}
		runes := []rune(n.Data)
		if len(runes) == 0 {
			continue
		}
		sc.nodes = append(sc.nodes, n)
		sc.texts = append(sc.texts, runes)
	}
	return sc
}

// Len returns the number of snapshotted leaves.
func (sc *Context) Len() int { return len(sc.nodes) }

// node returns the i-th leaf if it is still attached to the snapshot's
// body, nil otherwise. Leaves can be detached by reflows between snapshot
// and use; callers treat nil as "skip".
func (sc *Context) node(i int) *html.Node {
	if i < 0 || i >= len(sc.nodes) {
		return nil
	}
	n := sc.nodes[i]
	for p := n; p != nil; p = p.Parent {
		if p == sc.body {
			return n
		}
	}
	return nil
}
