package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docview/internal/annotation"
	"github.com/dgallion1/docview/internal/dom"
	"github.com/dgallion1/docview/internal/geom"
	"github.com/dgallion1/docview/internal/selector"
	"github.com/dgallion1/docview/internal/session"
)

// rangePayload is how clients describe a live selection over the wire:
// either body-relative text offsets or a pair of viewport points from a
// drag gesture.
type rangePayload struct {
	Start  *int        `json:"start,omitempty"`
	End    *int        `json:"end,omitempty"`
	Points *[4]float64 `json:"points,omitempty"`
}

func (s *Server) resolvePayloadRange(sess *session.Session, p rangePayload) *dom.Range {
	if p.Start != nil && p.End != nil {
		return sess.RangeFromOffsets(*p.Start, *p.End)
	}
	if p.Points != nil {
		pt := *p.Points
		return sess.RangeFromPoints(pt[0], pt[1], pt[2], pt[3])
	}
	return nil
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFrom(w, r)
	if sess == nil {
		return
	}
	var req rangePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	rng := s.resolvePayloadRange(sess, req)
	if rng == nil {
		jsonError(w, "selection does not resolve to document text", http.StatusUnprocessableEntity)
		return
	}
	sel := sess.Selection(rng)
	if sel == nil {
		jsonError(w, "selection produced no selector", http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, map[string]any{
		"selector":  sel,
		"text":      dom.InnerText(rng),
		"sortIndex": selector.SortIndex(sess.Document().Body, rng, s.cfg.SortIndexDigits()),
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFrom(w, r)
	if sess == nil {
		return
	}
	raw, err := readBody(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	sel, err := selector.Unmarshal(raw)
	if err != nil {
		jsonError(w, "invalid selector: "+err.Error(), http.StatusBadRequest)
		return
	}
	rng, rects, err := sess.Resolve(sel)
	if err != nil {
		// Contract violations are caller bugs, not document state.
		if errors.Is(err, selector.ErrContract) {
			s.log.Error("selector contract violation", "error", err)
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rng == nil {
		writeJSON(w, map[string]any{"resolved": false})
		return
	}
	writeJSON(w, map[string]any{
		"resolved": true,
		"text":     dom.InnerText(rng),
		"rects":    rects,
	})
}

func (s *Server) handleListAnnotations(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFrom(w, r)
	if sess == nil {
		return
	}
	anns, err := sess.Annotations(r.Context())
	if err != nil {
		jsonError(w, "failed to list annotations: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]any{"annotations": anns})
}

type createAnnotationRequest struct {
	rangePayload
	Type     annotation.Type `json:"type"`
	Color    string          `json:"color,omitempty"`
	Text     string          `json:"text,omitempty"`
	Rects    []geom.Rect     `json:"rects,omitempty"`
	Paths    [][]geom.Point  `json:"paths,omitempty"`
	FontSize float64         `json:"fontSize,omitempty"`
}

func (s *Server) handleCreateAnnotation(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFrom(w, r)
	if sess == nil {
		return
	}
	var req createAnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Freeform annotations carry geometry instead of a text range.
	if len(req.Rects) > 0 || len(req.Paths) > 0 {
		ann, err := sess.CreateFreeform(r.Context(), req.Type, req.Rects, req.Paths, req.FontSize, req.Text)
		if err != nil {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, ann)
		return
	}

	rng := s.resolvePayloadRange(sess, req.rangePayload)
	if rng == nil {
		jsonError(w, "annotation needs a range or geometry", http.StatusBadRequest)
		return
	}
	ann, err := sess.CreateAnnotation(r.Context(), rng, req.Type, req.Color, req.Text)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, ann)
}

func (s *Server) handleDeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFrom(w, r)
	if sess == nil {
		return
	}
	id := chi.URLParam(r, "annotationID")
	if err := sess.DeleteAnnotation(r.Context(), id); err != nil {
		jsonError(w, "failed to delete annotation: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]any{"deleted": id})
}
