package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dgallion1/docview/internal/dom"
	"github.com/dgallion1/docview/internal/find"
	"github.com/dgallion1/docview/internal/geom"
	"github.com/dgallion1/docview/internal/session"
)

type findUpdateRequest struct {
	find.State
	Anchor *rangePayload `json:"anchor,omitempty"`
}

func (s *Server) handleFindUpdate(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFrom(w, r)
	if sess == nil {
		return
	}
	var req findUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	var anchor *dom.Range
	if req.Anchor != nil {
		anchor = s.resolvePayloadRange(sess, *req.Anchor)
	}
	result, err := sess.UpdateFind(r.Context(), req.State, anchor)
	if err != nil {
		jsonError(w, "find failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeFindResult(w, sess, result)
}

func (s *Server) handleFindNext(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFrom(w, r)
	if sess == nil {
		return
	}
	s.writeFindResult(w, sess, sess.FindNext())
}

func (s *Server) handleFindPrev(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFrom(w, r)
	if sess == nil {
		return
	}
	s.writeFindResult(w, sess, sess.FindPrev())
}

func (s *Server) handleFindHighlight(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFrom(w, r)
	if sess == nil {
		return
	}
	var req struct {
		Color string `json:"color,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	ann, err := sess.HighlightCurrentMatch(r.Context(), req.Color)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, ann)
}

// writeFindResult renders a find result plus the geometry of the current
// match. A nil result means zero matches (or find inactive), reported as
// an empty result rather than an error.
func (s *Server) writeFindResult(w http.ResponseWriter, sess *session.Session, result *find.Result) {
	if result == nil {
		writeJSON(w, map[string]any{"total": 0})
		return
	}
	var rects []geom.Rect
	if r := sess.CurrentMatchRange(); r != nil {
		rects = geom.ColumnSeparatedPageRects(sess.Layout(), r)
	}
	writeJSON(w, map[string]any{
		"total":    result.Total,
		"index":    result.Index,
		"snippets": result.Snippets,
		"rects":    rects,
	})
}
