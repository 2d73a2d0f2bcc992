package selector

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/dgallion1/docview/internal/dom"
	"github.com/dgallion1/docview/internal/geom"
)

// Resolver converts between live ranges and serializable selectors for
// one document. Layout is optional: when present, resolution falls back
// to the nearest visible ancestor for anchors with degenerate geometry.
// Both directions are synchronous and never block; FromRange runs on
// pointer-up hot paths.
type Resolver struct {
	Doc    *dom.Document
	Layout geom.Layout
	Log    *slog.Logger
}

// NewResolver builds a resolver; log may be nil.
func NewResolver(doc *dom.Document, layout geom.Layout, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{Doc: doc, Layout: layout, Log: log}
}

// FromRange produces a durable selector for a live range, or nil for a
// collapsed range or one with no element anchor.
//
// When the selection covers the anchor element's entire text the
// refinement is omitted: the selector is smaller and resolution does not
// depend on whitespace normalization staying identical between sessions.
func (rs *Resolver) FromRange(r *dom.Range) Selector {
	if r.Collapsed() {
		return nil
	}
	target := rs.targetNode(r)
	if target == nil {
		return nil
	}
	el := dom.ElementAncestor(target)
	if el == nil {
		return nil
	}

	if value, ok := UniqueSelector(rs.Doc, el); ok {
		sel := &CssSelector{Value: value}
		if normalizeText(r.Text()) != normalizeText(dom.TextContent(el)) {
			if tp, ok := TextPositionFromRange(el, dom.MoveRangeEndsIntoTextNodes(r)); ok {
				sel.RefinedBy = tp
			}
		}
		return sel
	}

	// No unique anchor: fall back to whole-body offsets. Fragile against
	// any earlier edit, but always produces a selector.
	if tp, ok := TextPositionFromRange(rs.Doc.Body, dom.MoveRangeEndsIntoTextNodes(r)); ok {
		return tp
	}
	return nil
}

// targetNode picks the node the selector anchors at: the wrapped child
// when the range spans exactly one whole child element, otherwise the
// common ancestor container.
func (rs *Resolver) targetNode(r *dom.Range) *html.Node {
	if r.StartContainer == r.EndContainer &&
		r.StartContainer.Type == html.ElementNode &&
		r.EndOffset-r.StartOffset == 1 {
		if child := dom.ChildAt(r.StartContainer, r.StartOffset); child != nil {
			return child
		}
	}
	return r.CommonAncestorContainer()
}

// ToRange resolves a stored selector against the live document. A nil
// range with nil error is a resolution miss (document changed); a non-nil
// error wraps ErrContract and indicates the caller drove the model
// incorrectly.
func (rs *Resolver) ToRange(sel Selector) (*dom.Range, error) {
	switch s := sel.(type) {
	case *CssSelector:
		return rs.resolveCSS(s)
	case *TextPositionSelector:
		return TextPositionToRange(rs.Doc.Body, s.Start, s.End), nil
	default:
		return nil, fmt.Errorf("unsupported selector %T: %w", sel, ErrContract)
	}
}

func (rs *Resolver) resolveCSS(s *CssSelector) (*dom.Range, error) {
	compiled, err := cascadia.Compile(s.Value)
	if err != nil {
		rs.Log.Warn("selector query failed", "selector", s.Value, "error", err)
		return nil, nil
	}
	el := compiled.MatchFirst(rs.Doc.Root)
	if el == nil {
		rs.Log.Debug("selector anchor not found", "selector", s.Value)
		return nil, nil
	}

	var r *dom.Range
	if s.RefinedBy != nil {
		tp, ok := s.RefinedBy.(*TextPositionSelector)
		if !ok {
			return nil, fmt.Errorf("css selector refined by %T: %w", s.RefinedBy, ErrContract)
		}
		r = TextPositionToRange(el, tp.Start, tp.End)
	} else {
		r = dom.SelectNodeContents(el)
	}
	if r == nil {
		return nil, nil
	}

	// Anchors that resolved but have no on-screen geometry get swapped
	// for the nearest visible ancestor so the caller still has something
	// to scroll to.
	if rs.Layout != nil && len(rs.Layout.ClientRects(r)) == 0 {
		for p := el.Parent; p != nil; p = p.Parent {
			pr := dom.SelectNodeContents(p)
			if len(rs.Layout.ClientRects(pr)) > 0 {
				return pr, nil
			}
		}
		return nil, nil
	}
	return r, nil
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
