// Package session ties one rendered document to its annotation overlay
// and find state. Sessions are mutex-guarded and TTL-evicted the same way
// the store they live in hands them out.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/docview/internal/annotation"
	"github.com/dgallion1/docview/internal/dom"
	"github.com/dgallion1/docview/internal/find"
	"github.com/dgallion1/docview/internal/focus"
	"github.com/dgallion1/docview/internal/geom"
	"github.com/dgallion1/docview/internal/selector"
	"github.com/dgallion1/docview/internal/store"
)

// Session is one open document view: the parsed DOM, its layout, the
// selector resolver bound to it, optional focus mode, and the find
// lifecycle. All mutation goes through the session mutex; the find
// processor itself is single-use and swapped wholesale on rebuild.
type Session struct {
	mu sync.Mutex

	ID    string `json:"session_id"`
	DocID string `json:"doc_id"`
	Title string `json:"title"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	doc      *dom.Document
	layout   *geom.FlowLayout
	resolver *selector.Resolver
	digits   int

	focusView *focus.View

	findState  find.State
	findCtx    *find.Context
	proc       *find.Processor
	findCancel context.CancelFunc

	store store.Store
	log   *slog.Logger
}

// New parses rendered HTML into a session.
func New(id, docID, title, renderedHTML string, flowCfg geom.FlowConfig, st store.Store, digits int, log *slog.Logger) (*Session, error) {
	doc, err := dom.ParseString(renderedHTML)
	if err != nil {
		return nil, fmt.Errorf("parse rendered document: %w", err)
	}
	if t := doc.Title(); t != "" {
		title = t
	}
	layout := geom.NewFlowLayout(doc.Body, flowCfg)
	now := time.Now()
	return &Session{
		ID:        id,
		DocID:     docID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		doc:       doc,
		layout:    layout,
		resolver:  selector.NewResolver(doc, layout, log),
		digits:    digits,
		store:     st,
		log:       log,
	}, nil
}

// Document exposes the parsed DOM for read-only use.
func (s *Session) Document() *dom.Document { return s.doc }

// Resolver returns the selector resolver bound to this document.
func (s *Session) Resolver() *selector.Resolver { return s.resolver }

// Layout returns the session's layouter.
func (s *Session) Layout() *geom.FlowLayout { return s.layout }

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

// LastUsed reports when the session was last touched, for TTL eviction.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UpdatedAt
}

// SetFocusMode builds or drops the extracted focus view. Entering focus
// mode leaves stored selectors untouched: they keep resolving against
// the original document and get mapped into the focus tree per render.
func (s *Session) SetFocusMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if !on {
		s.focusView = nil
		return
	}
	if s.focusView == nil {
		s.focusView = focus.NewView(s.doc)
	}
}

// FocusView returns the active focus view, or nil.
func (s *Session) FocusView() *focus.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focusView
}

// RangeFromOffsets materializes a body-relative text-position pair as a
// live range, the form client selections arrive in over the wire.
func (s *Session) RangeFromOffsets(start, end int) *dom.Range {
	return selector.TextPositionToRange(s.doc.Body, start, end)
}

// RangeFromPoints builds a range between two viewport points via caret
// positioning, for drag selections.
func (s *Session) RangeFromPoints(x1, y1, x2, y2 float64) *dom.Range {
	a := s.layout.CaretRangeFromPoint(x1, y1)
	b := s.layout.CaretRangeFromPoint(x2, y2)
	if a == nil || b == nil {
		return nil
	}
	return dom.NewRange(a.StartContainer, a.StartOffset, b.StartContainer, b.StartOffset)
}

// Selection converts a live range to a durable selector. When focus mode
// is active the range is assumed to come from the focus tree and is
// mapped back to the original document first; unmappable ranges yield
// nil (currently inaccessible content).
func (s *Session) Selection(r *dom.Range) selector.Selector {
	s.mu.Lock()
	fv := s.focusView
	s.mu.Unlock()
	if fv != nil {
		if r = fv.MapRangeFromFocus(r); r == nil {
			return nil
		}
	}
	return s.resolver.FromRange(r)
}

// Resolve turns a stored selector back into a live range plus geometry.
// A nil range is a resolution miss; the caller hides the annotation
// rather than erroring.
func (s *Session) Resolve(sel selector.Selector) (*dom.Range, []geom.Rect, error) {
	r, err := s.resolver.ToRange(sel)
	if err != nil || r == nil {
		return nil, nil, err
	}
	return r, geom.ColumnSeparatedPageRects(s.layout, r), nil
}

// CreateAnnotation drafts and persists an annotation from a live range.
func (s *Session) CreateAnnotation(ctx context.Context, r *dom.Range, t annotation.Type, color, text string) (*annotation.Annotation, error) {
	draft := annotation.DraftFromRange(s.resolver, r, t, color, s.digits)
	if draft == nil {
		return nil, fmt.Errorf("selection produced no selector")
	}
	if text != "" {
		draft.Text = text
	}
	if err := annotation.Validate(draft); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, s.DocID, draft); err != nil {
		return nil, fmt.Errorf("persist annotation: %w", err)
	}
	s.mu.Lock()
	s.touch()
	s.mu.Unlock()
	return draft, nil
}

// CreateFreeform drafts and persists a geometry-anchored annotation.
func (s *Session) CreateFreeform(ctx context.Context, t annotation.Type, rects []geom.Rect, paths [][]geom.Point, fontSize float64, text string) (*annotation.Annotation, error) {
	draft := annotation.FreeformDraft(t, rects, paths, fontSize, text, s.digits)
	if err := annotation.Validate(draft); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, s.DocID, draft); err != nil {
		return nil, fmt.Errorf("persist annotation: %w", err)
	}
	s.mu.Lock()
	s.touch()
	s.mu.Unlock()
	return draft, nil
}

// DeleteAnnotation removes a stored record.
func (s *Session) DeleteAnnotation(ctx context.Context, id string) error {
	s.mu.Lock()
	s.touch()
	s.mu.Unlock()
	return s.store.Delete(ctx, s.DocID, id)
}

// Annotations lists persisted records in sort-index order, appending
// find's transient highlight-all pseudo-annotations when that toggle is
// on.
func (s *Session) Annotations(ctx context.Context) ([]*annotation.Annotation, error) {
	persisted, err := s.store.List(ctx, s.DocID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(persisted, func(i, j int) bool {
		return persisted[i].SortIndex < persisted[j].SortIndex
	})

	s.mu.Lock()
	proc := s.proc
	highlightAll := s.findState.HighlightAll && s.findState.Active
	s.mu.Unlock()
	if proc == nil || !highlightAll {
		return persisted, nil
	}
	for _, m := range proc.Matches() {
		r := proc.MatchRange(m)
		if r == nil {
			continue
		}
		if t := annotation.TransientHighlight(s.resolver, r); t != nil {
			persisted = append(persisted, t)
		}
	}
	return persisted, nil
}

// UpdateFind applies a new find state, rebuilding and re-running the
// processor only when query, caseSensitive, entireWord or active
// changed; a highlightAll-only change leaves the result set alone. The
// superseded processor is cancelled before the new one exists, so stale
// results can never be delivered.
func (s *Session) UpdateFind(ctx context.Context, st find.State, anchor *dom.Range) (*find.Result, error) {
	s.mu.Lock()
	prev := s.findState
	s.findState = st
	s.touch()

	if !st.Active {
		s.dropProcessorLocked()
		s.findCtx = nil
		s.mu.Unlock()
		return nil, nil
	}
	if !find.NeedsNewRun(prev, st) && s.proc != nil {
		proc := s.proc
		s.mu.Unlock()
		return proc.Current(), nil
	}

	s.dropProcessorLocked()
	if s.findCtx == nil || !prev.Active {
		// Fresh activation snapshots the document; keystrokes reuse it.
		s.findCtx = find.NewContext(s.doc.Body)
	}
	runCtx, cancel := context.WithCancel(context.Background())
	proc := find.NewProcessor(s.findCtx, st, s.log)
	s.proc = proc
	s.findCancel = cancel
	s.mu.Unlock()

	if err := proc.Run(runCtx, anchor); err != nil {
		// Cancelled mid-scan by a newer state; nothing was published.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	return proc.Current(), nil
}

func (s *Session) dropProcessorLocked() {
	if s.findCancel != nil {
		s.findCancel()
		s.findCancel = nil
	}
	if s.proc != nil {
		s.proc.Cancel()
		s.proc = nil
	}
}

// FindNext advances the find cursor; nil result means no matches.
func (s *Session) FindNext() *find.Result {
	s.mu.Lock()
	proc := s.proc
	s.touch()
	s.mu.Unlock()
	if proc == nil {
		return nil
	}
	return proc.Next()
}

// FindPrev retreats the find cursor.
func (s *Session) FindPrev() *find.Result {
	s.mu.Lock()
	proc := s.proc
	s.touch()
	s.mu.Unlock()
	if proc == nil {
		return nil
	}
	return proc.Prev()
}

// CurrentMatchRange materializes the current find match.
func (s *Session) CurrentMatchRange() *dom.Range {
	s.mu.Lock()
	proc := s.proc
	s.mu.Unlock()
	if proc == nil {
		return nil
	}
	return proc.CurrentRange()
}

// HighlightCurrentMatch converts the current find match into a persisted
// highlight, through the same pipeline as manual selection.
func (s *Session) HighlightCurrentMatch(ctx context.Context, color string) (*annotation.Annotation, error) {
	r := s.CurrentMatchRange()
	if r == nil {
		return nil, fmt.Errorf("no current match")
	}
	return s.CreateAnnotation(ctx, r, annotation.TypeHighlight, color, strings.TrimSpace(r.Text()))
}

// Close cancels any in-flight find work.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropProcessorLocked()
}
