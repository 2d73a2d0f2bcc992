// Package annotation defines the annotation records the viewer emits and
// consumes. The core never persists these itself; records travel through
// the caller's save/load callbacks with the position payload stored
// verbatim.
package annotation

import (
	"encoding/json"
	"fmt"

	"github.com/dgallion1/docview/internal/geom"
	"github.com/dgallion1/docview/internal/selector"
)

// Type enumerates the supported annotation kinds.
type Type string

const (
	TypeHighlight Type = "highlight"
	TypeUnderline Type = "underline"
	TypeNote      Type = "note"
	TypeFreeText  Type = "freetext"
	TypeImage     Type = "image"
	TypeInk       Type = "ink"
)

var validTypes = map[Type]bool{
	TypeHighlight: true,
	TypeUnderline: true,
	TypeNote:      true,
	TypeFreeText:  true,
	TypeImage:     true,
	TypeInk:       true,
}

// freeformTypes have no natural text anchor: their position is the whole
// document body refined by inline geometry instead of text offsets.
var freeformTypes = map[Type]bool{
	TypeFreeText: true,
	TypeImage:    true,
	TypeInk:      true,
}

// Position is an annotation's persisted location: a selector, plus
// auxiliary pixel geometry for freeform annotations that anchor at the
// document body.
type Position struct {
	Selector selector.Selector
	Rects    []geom.Rect
	Paths    [][]geom.Point
	FontSize float64
}

type positionAux struct {
	Rects    []geom.Rect    `json:"rects,omitempty"`
	Paths    [][]geom.Point `json:"paths,omitempty"`
	FontSize float64        `json:"fontSize,omitempty"`
}

// MarshalJSON inlines the auxiliary geometry into the selector object so
// the whole position stays one JSON value, bit-exact across reloads.
func (p Position) MarshalJSON() ([]byte, error) {
	if p.Selector == nil {
		return nil, fmt.Errorf("position has no selector")
	}
	raw, err := selector.Marshal(p.Selector)
	if err != nil {
		return nil, err
	}
	if len(p.Rects) == 0 && len(p.Paths) == 0 && p.FontSize == 0 {
		return raw, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	aux, err := json.Marshal(positionAux{Rects: p.Rects, Paths: p.Paths, FontSize: p.FontSize})
	if err != nil {
		return nil, err
	}
	var auxMap map[string]json.RawMessage
	if err := json.Unmarshal(aux, &auxMap); err != nil {
		return nil, err
	}
	for k, v := range auxMap {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON fails closed on unknown selector tags.
func (p *Position) UnmarshalJSON(data []byte) error {
	sel, err := selector.Unmarshal(data)
	if err != nil {
		return err
	}
	var aux positionAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Selector = sel
	p.Rects = aux.Rects
	p.Paths = aux.Paths
	p.FontSize = aux.FontSize
	return nil
}

// Annotation is one persisted annotation record. Transient records (find
// highlight-all pseudo-annotations) carry an empty ID.
type Annotation struct {
	ID        string   `json:"id,omitempty"`
	Type      Type     `json:"type"`
	Color     string   `json:"color,omitempty"`
	SortIndex string   `json:"sortIndex"`
	Position  Position `json:"position"`
	Text      string   `json:"text,omitempty"`
}

// Validate checks a record before it is handed to persistence or
// rendering. Malformed records are rejected outright rather than
// partially honored.
func Validate(a *Annotation) error {
	if a == nil {
		return fmt.Errorf("nil annotation")
	}
	if !validTypes[a.Type] {
		return fmt.Errorf("unknown annotation type %q", a.Type)
	}
	if a.Position.Selector == nil {
		return fmt.Errorf("annotation %q has no position selector", a.ID)
	}
	if freeformTypes[a.Type] && len(a.Position.Rects) == 0 && len(a.Position.Paths) == 0 {
		return fmt.Errorf("freeform annotation %q has no geometry", a.ID)
	}
	if tp, ok := a.Position.Selector.(*selector.TextPositionSelector); ok {
		if tp.Start < 0 || tp.End < tp.Start {
			return fmt.Errorf("annotation %q has inverted text position", a.ID)
		}
	}
	return nil
}
