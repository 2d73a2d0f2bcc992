package geom

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/dgallion1/docview/internal/dom"
)

func mustParse(t *testing.T, src string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func textNode(t *testing.T, root *html.Node, substr string) *html.Node {
	t.Helper()
	for n := range dom.TextNodes(root) {
		if strings.Contains(n.Data, substr) {
			return n
		}
	}
	t.Fatalf("no text node containing %q", substr)
	return nil
}

var testCfg = FlowConfig{CharWidth: 10, LineHeight: 10, LineChars: 10}

func TestClientRects_SingleLine(t *testing.T) {
	doc := mustParse(t, `<body><p>hello</p></body>`)
	l := NewFlowLayout(doc.Body, testCfg)
	n := textNode(t, doc.Body, "hello")

	r := &dom.Range{StartContainer: n, StartOffset: 1, EndContainer: n, EndOffset: 4}
	rects := l.ClientRects(r)
	if len(rects) != 1 {
		t.Fatalf("expected 1 rect, got %v", rects)
	}
	want := Rect{Left: 10, Top: 0, Width: 30, Height: 10}
	if rects[0] != want {
		t.Errorf("expected %+v, got %+v", want, rects[0])
	}
}

func TestClientRects_WrappedLine(t *testing.T) {
	doc := mustParse(t, `<body><p>abcdefghijklmno</p></body>`)
	l := NewFlowLayout(doc.Body, testCfg)
	n := textNode(t, doc.Body, "abc")

	r := &dom.Range{StartContainer: n, StartOffset: 5, EndContainer: n, EndOffset: 12}
	rects := l.ClientRects(r)
	if len(rects) != 2 {
		t.Fatalf("expected a rect per line box, got %v", rects)
	}
	if rects[0] != (Rect{Left: 50, Top: 0, Width: 50, Height: 10}) {
		t.Errorf("first line rect: %+v", rects[0])
	}
	if rects[1] != (Rect{Left: 0, Top: 10, Width: 20, Height: 10}) {
		t.Errorf("second line rect: %+v", rects[1])
	}
}

func TestPageRects_MergesSameLineRuns(t *testing.T) {
	doc := mustParse(t, `<body><p>one <em>two</em></p></body>`)
	l := NewFlowLayout(doc.Body, testCfg)

	p := dom.FindElement(doc.Body, "p")
	r := dom.SelectNodeContents(p)
	rects := PageRects(l, r)
	if len(rects) != 1 {
		t.Fatalf("expected adjacent runs to merge into 1 rect, got %v", rects)
	}
	want := Rect{Left: 0, Top: 0, Width: 70, Height: 10}
	if rects[0] != want {
		t.Errorf("expected %+v, got %+v", want, rects[0])
	}
}

func TestPageRects_UndoScroll(t *testing.T) {
	doc := mustParse(t, `<body><p>hello</p></body>`)
	l := NewFlowLayout(doc.Body, testCfg)
	n := textNode(t, doc.Body, "hello")
	r := &dom.Range{StartContainer: n, StartOffset: 0, EndContainer: n, EndOffset: 5}

	before := PageRects(l, r)
	l.SetScroll(30, 70)
	after := PageRects(l, r)
	if len(before) != 1 || len(after) != 1 || before[0] != after[0] {
		t.Errorf("page rects moved with scroll: %v vs %v", before, after)
	}

	client := l.ClientRects(r)
	if client[0].Top != -70 || client[0].Left != -30 {
		t.Errorf("client rects not viewport-relative: %+v", client[0])
	}
}

func TestCaretRangeFromPoint(t *testing.T) {
	doc := mustParse(t, `<body><p>hello</p></body>`)
	l := NewFlowLayout(doc.Body, testCfg)
	n := textNode(t, doc.Body, "hello")

	r := l.CaretRangeFromPoint(25, 5)
	if r == nil {
		t.Fatal("expected a caret range")
	}
	if !r.Collapsed() {
		t.Error("caret range must be collapsed")
	}
	if r.StartContainer != n || r.StartOffset != 2 {
		t.Errorf("expected offset 2 in the text node, got %+v", r)
	}

	if r := l.CaretRangeFromPoint(25, 500); r != nil {
		t.Errorf("point outside all text resolved to %+v", r)
	}
}

func TestColumns(t *testing.T) {
	cfg := FlowConfig{CharWidth: 10, LineHeight: 10, LineChars: 4, ColumnRows: 2, ColumnGap: 20}
	doc := mustParse(t, `<body><p>aaaabbbbccccdddd</p></body>`)
	l := NewFlowLayout(doc.Body, cfg)
	n := textNode(t, doc.Body, "aaaa")

	r := &dom.Range{StartContainer: n, StartOffset: 0, EndContainer: n, EndOffset: 16}
	rects := PageRects(l, r)
	if len(rects) != 4 {
		t.Fatalf("expected 4 line rects, got %v", rects)
	}
	// Lines 2 and 3 flow into the second column, shifted right.
	if rects[2].Left != 60 || rects[2].Top != 0 {
		t.Errorf("third line not in second column: %+v", rects[2])
	}

	bands := ColumnSeparatedPageRects(l, r)
	if len(bands) != 2 {
		t.Fatalf("expected one band per column, got %v", bands)
	}
	if bands[0] != (Rect{Left: 0, Top: 0, Width: 40, Height: 20}) {
		t.Errorf("first column band: %+v", bands[0])
	}
	if bands[1] != (Rect{Left: 60, Top: 0, Width: 40, Height: 20}) {
		t.Errorf("second column band: %+v", bands[1])
	}

	// A point inside the second column maps back to the right character.
	caret := l.CaretRangeFromPoint(65, 15)
	if caret == nil || caret.StartOffset != 12 {
		t.Errorf("expected caret at offset 12, got %+v", caret)
	}
}

func TestBoundingPageRect(t *testing.T) {
	doc := mustParse(t, `<body><p>abcdefghijklmno</p></body>`)
	l := NewFlowLayout(doc.Body, testCfg)
	n := textNode(t, doc.Body, "abc")

	r := &dom.Range{StartContainer: n, StartOffset: 0, EndContainer: n, EndOffset: 15}
	bound := BoundingPageRect(l, r)
	want := Rect{Left: 0, Top: 0, Width: 100, Height: 20}
	if bound != want {
		t.Errorf("expected %+v, got %+v", want, bound)
	}
}

func TestUnionAndMerge(t *testing.T) {
	a := Rect{Left: 0, Top: 0, Width: 10, Height: 10}
	b := Rect{Left: 20, Top: 5, Width: 10, Height: 10}
	u := Union(a, b)
	if u != (Rect{Left: 0, Top: 0, Width: 30, Height: 15}) {
		t.Errorf("union: %+v", u)
	}
	if Union(Rect{}, b) != b {
		t.Error("union with empty rect should return the other input")
	}

	merged := mergeAdjacent([]Rect{
		{Left: 0, Top: 0, Width: 10, Height: 10},
		{Left: 10, Top: 0, Width: 10, Height: 10},
		{Left: 0, Top: 10, Width: 10, Height: 10},
	})
	if len(merged) != 2 {
		t.Fatalf("expected 2 rects after merge, got %v", merged)
	}
	if merged[0].Width != 20 {
		t.Errorf("adjacent rects not merged: %+v", merged[0])
	}
}
