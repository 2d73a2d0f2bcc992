// Package geom computes on-screen geometry for document ranges.
//
// The core never talks to a real rendering engine; layout is abstracted
// behind the Layout interface so the range math can run against a
// deterministic in-memory layouter in tests and on the server.
package geom

// Rect is an axis-aligned rectangle in either viewport or page
// coordinates, depending on context.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Union returns the smallest rect covering both inputs. An empty input is
// ignored.
func Union(a, b Rect) Rect {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	left := min(a.Left, b.Left)
	top := min(a.Top, b.Top)
	right := max(a.Right(), b.Right())
	bottom := max(a.Bottom(), b.Bottom())
	return Rect{Left: left, Top: top, Width: right - left, Height: bottom - top}
}

// Translate shifts a rect by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.Left += dx
	r.Top += dy
	return r
}

// Point is a page coordinate, used by ink stroke paths.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// mergeAdjacent joins rects that share a horizontal band (same top and
// height) and touch or overlap horizontally. Input must be in reading
// order.
func mergeAdjacent(rects []Rect) []Rect {
	var out []Rect
	for _, r := range rects {
		if r.Empty() {
			continue
		}
		if len(out) > 0 {
			last := &out[len(out)-1]
			if last.Top == r.Top && last.Height == r.Height && r.Left <= last.Right()+0.5 {
				right := max(last.Right(), r.Right())
				if r.Left < last.Left {
					last.Left = r.Left
				}
				last.Width = right - last.Left
				continue
			}
		}
		out = append(out, r)
	}
	return out
}
