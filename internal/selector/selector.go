// Package selector converts document ranges to durable, serializable
// selectors and resolves stored selectors back to live ranges.
//
// The selector format is a closed tagged union. New kinds are added by
// extending the union and updating both the producers and the resolver's
// dispatch together; the JSON codec fails closed on unknown tags.
package selector

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrContract marks programming errors in how the selector model is
// driven: disallowed refinement nesting or an unsupported selector kind
// reaching the resolver. These indicate a bug in the producer, not a
// document-state mismatch, and are the only selector errors surfaced to
// developers.
var ErrContract = errors.New("selector contract violation")

const (
	typeCSS          = "CssSelector"
	typeTextPosition = "TextPositionSelector"
)

// Selector is a serializable description of a position within a document.
type Selector interface {
	selectorType() string
}

// CssSelector anchors at the element matched by Value. RefinedBy, when
// present, narrows the match to a sub-range of the anchor's text; only a
// *TextPositionSelector is a legal refinement.
type CssSelector struct {
	Value     string
	RefinedBy Selector
}

func (*CssSelector) selectorType() string { return typeCSS }

// TextPositionSelector addresses characters by offset into the anchor's
// (or document body's) concatenated visible text, whitespace-normalized.
// It carries no further refinement.
type TextPositionSelector struct {
	Start int
	End   int
}

func (*TextPositionSelector) selectorType() string { return typeTextPosition }

type cssSelectorJSON struct {
	Type      string          `json:"type"`
	Value     string          `json:"value"`
	RefinedBy json.RawMessage `json:"refinedBy,omitempty"`
}

type textPositionJSON struct {
	Type  string `json:"type"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// MarshalJSON emits the persisted wire shape, bit-exact across reloads.
func (c *CssSelector) MarshalJSON() ([]byte, error) {
	out := cssSelectorJSON{Type: typeCSS, Value: c.Value}
	if c.RefinedBy != nil {
		raw, err := json.Marshal(c.RefinedBy)
		if err != nil {
			return nil, err
		}
		out.RefinedBy = raw
	}
	return json.Marshal(out)
}

func (t *TextPositionSelector) MarshalJSON() ([]byte, error) {
	return json.Marshal(textPositionJSON{Type: typeTextPosition, Start: t.Start, End: t.End})
}

// Unmarshal parses a persisted selector. A missing or unrecognized type
// tag is a hard parse error; the resolver never guesses.
func Unmarshal(data []byte) (Selector, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse selector: %w", err)
	}
	switch head.Type {
	case typeCSS:
		var raw cssSelectorJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse css selector: %w", err)
		}
		sel := &CssSelector{Value: raw.Value}
		if len(raw.RefinedBy) > 0 {
			refined, err := Unmarshal(raw.RefinedBy)
			if err != nil {
				return nil, err
			}
			sel.RefinedBy = refined
		}
		return sel, nil
	case typeTextPosition:
		var raw textPositionJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse text position selector: %w", err)
		}
		return &TextPositionSelector{Start: raw.Start, End: raw.End}, nil
	case "":
		return nil, fmt.Errorf("selector missing type tag")
	default:
		return nil, fmt.Errorf("unknown selector type %q", head.Type)
	}
}

// Marshal serializes a selector to its wire form.
func Marshal(s Selector) ([]byte, error) {
	return json.Marshal(s)
}
