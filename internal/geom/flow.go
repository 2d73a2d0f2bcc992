package geom

import (
	"golang.org/x/net/html"

	"github.com/dgallion1/docview/internal/dom"
)

// FlowConfig sizes the deterministic flow layouter.
type FlowConfig struct {
	CharWidth  float64 // width of one character cell
	LineHeight float64 // height of one line box
	LineChars  int     // characters per line before wrapping
	ColumnRows int     // line boxes per column; 0 disables columns
	ColumnGap  float64 // horizontal gap between columns
}

// DefaultFlowConfig matches a plain single-column text view.
var DefaultFlowConfig = FlowConfig{
	CharWidth:  8,
	LineHeight: 16,
	LineChars:  80,
}

// FlowLayout is a monospace flow layouter over a document's rendered text
// nodes. It exists so range geometry has a deterministic answer without a
// browser: every character occupies one fixed-size cell, lines wrap at a
// fixed width, block elements start new lines, and lines optionally flow
// into CSS-style columns. It doubles as the unit-test layout fixture.
type FlowLayout struct {
	cfg  FlowConfig
	body *html.Node

	scrollX, scrollY float64
	segs             map[*html.Node][]flowSeg
	order            []*html.Node
}

// flowSeg places a run of a text node's characters on one line box.
type flowSeg struct {
	runeStart, runeEnd int // span within the node, runeEnd exclusive
	line, col          int // cell of the first character
}

// NewFlowLayout lays out the document body once. Call Reflow after DOM
// mutations.
func NewFlowLayout(body *html.Node, cfg FlowConfig) *FlowLayout {
	if cfg.CharWidth <= 0 {
		cfg = DefaultFlowConfig
	}
	l := &FlowLayout{cfg: cfg, body: body}
	l.Reflow()
	return l
}

// Reflow recomputes all character cells from the current DOM.
func (l *FlowLayout) Reflow() {
	l.segs = make(map[*html.Node][]flowSeg)
	l.order = nil

	line, col := 0, 0
	var lastBlock *html.Node
	for n := range dom.TextNodes(l.body) {
		if !dom.IsRendered(n) {
			continue
		}
		block := dom.BlockAncestor(n)
		if lastBlock != nil && block != lastBlock && col > 0 {
			line++
			col = 0
		}
		lastBlock = block

		runes := []rune(n.Data)
		segStart, segCol, segLine := -1, 0, 0
		flush := func(end int) {
			if segStart >= 0 {
				l.segs[n] = append(l.segs[n], flowSeg{
					runeStart: segStart, runeEnd: end, line: segLine, col: segCol,
				})
				segStart = -1
			}
		}
		for i := range runes {
			if col >= l.cfg.LineChars {
				flush(i)
				line++
				col = 0
			}
			if segStart < 0 {
				segStart, segCol, segLine = i, col, line
			}
			col++
		}
		flush(len(runes))
		if len(l.segs[n]) > 0 {
			l.order = append(l.order, n)
		}
	}
}

// SetScroll moves the viewport origin.
func (l *FlowLayout) SetScroll(x, y float64) {
	l.scrollX, l.scrollY = x, y
}

// ScrollOffset implements Layout.
func (l *FlowLayout) ScrollOffset() (x, y float64) {
	return l.scrollX, l.scrollY
}

// cellRect returns the page rect for a horizontal run of cells.
func (l *FlowLayout) cellRect(line, col, width int) Rect {
	colIdx := 0
	rowInCol := line
	if l.cfg.ColumnRows > 0 {
		colIdx = line / l.cfg.ColumnRows
		rowInCol = line % l.cfg.ColumnRows
	}
	colWidth := float64(l.cfg.LineChars) * l.cfg.CharWidth
	x := float64(colIdx)*(colWidth+l.cfg.ColumnGap) + float64(col)*l.cfg.CharWidth
	y := float64(rowInCol) * l.cfg.LineHeight
	return Rect{Left: x, Top: y, Width: float64(width) * l.cfg.CharWidth, Height: l.cfg.LineHeight}
}

// ClientRects implements Layout: one viewport-relative rect per line-box
// run the range covers.
func (l *FlowLayout) ClientRects(r *dom.Range) []Rect {
	if r.Collapsed() {
		return nil
	}
	var out []Rect
	for sub := range dom.SplitRangeToTextNodes(r) {
		n := sub.StartContainer
		for _, seg := range l.segs[n] {
			s := max(seg.runeStart, sub.StartOffset)
			e := min(seg.runeEnd, sub.EndOffset)
			if s >= e {
				continue
			}
			rect := l.cellRect(seg.line, seg.col+(s-seg.runeStart), e-s)
			out = append(out, rect.Translate(-l.scrollX, -l.scrollY))
		}
	}
	return out
}

// CaretRangeFromPoint implements Layout: resolves a viewport point to a
// collapsed range at the nearest character cell, or nil outside all text.
func (l *FlowLayout) CaretRangeFromPoint(x, y float64) *dom.Range {
	px, py := x+l.scrollX, y+l.scrollY
	colWidth := float64(l.cfg.LineChars) * l.cfg.CharWidth
	colIdx := 0
	if l.cfg.ColumnRows > 0 && px >= colWidth+l.cfg.ColumnGap {
		colIdx = int(px / (colWidth + l.cfg.ColumnGap))
		px -= float64(colIdx) * (colWidth + l.cfg.ColumnGap)
	}
	if px < 0 || py < 0 {
		return nil
	}
	col := int(px / l.cfg.CharWidth)
	line := int(py / l.cfg.LineHeight)
	if l.cfg.ColumnRows > 0 {
		line += colIdx * l.cfg.ColumnRows
	}
	for _, n := range l.order {
		for _, seg := range l.segs[n] {
			if seg.line != line {
				continue
			}
			if col < seg.col || col >= seg.col+(seg.runeEnd-seg.runeStart) {
				continue
			}
			off := seg.runeStart + (col - seg.col)
			return &dom.Range{StartContainer: n, StartOffset: off, EndContainer: n, EndOffset: off}
		}
	}
	return nil
}
