package find

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dgallion1/docview/internal/dom"
)

// yieldEvery bounds how many leaf nodes are scanned between cancellation
// checks, keeping the host responsive on very large documents.
const yieldEvery = 64

type phase int

const (
	phaseIdle phase = iota
	phaseSearching
	phaseReady
	phaseCancelled
)

// Processor owns one search run and its result cursor exclusively.
// A processor is single-use: when the find state requires a rebuild the
// caller cancels this instance and creates a new one; a cancelled
// processor never publishes results, even if its scan had already passed
// the last cancellation check.
type Processor struct {
	sc    *Context
	state State
	log   *slog.Logger

	mu      sync.Mutex
	phase   phase
	matches []Match
	cursor  int
}

// NewProcessor binds a processor to a snapshot and a fixed state.
func NewProcessor(sc *Context, state State, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{sc: sc, state: state, log: log, cursor: -1}
}

// Result is the engine's per-run view handed to the UI: total match
// count, current cursor, snippets in document order and the current
// match reference.
type Result struct {
	Total    int       `json:"total"`
	Index    int       `json:"index"`
	Snippets []Snippet `json:"snippets"`
	Current  Match     `json:"current"`
}

// Run scans the snapshot for all query occurrences. It is the only
// suspending operation in the engine: between node-level scan steps it
// checks ctx for cancellation. No externally-visible state changes until
// the scan completes uncancelled; an aborted run leaves no partial
// results. If anchor is non-nil the cursor starts at the first match at
// or after it, minimizing the jump from where the user was looking.
func (p *Processor) Run(ctx context.Context, anchor *dom.Range) error {
	p.mu.Lock()
	if p.phase == phaseCancelled {
		p.mu.Unlock()
		return context.Canceled
	}
	p.phase = phaseSearching
	p.mu.Unlock()

	var found []Match
	query := []rune(p.state.Query)
	if len(query) > 0 {
		for i := 0; i < p.sc.Len(); i++ {
			if i%yieldEvery == 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
			}
			if p.sc.node(i) == nil {
				// Detached mid-search; best effort, keep going.
				continue
			}
			for _, m := range scanNode(p.sc.texts[i], query, p.state) {
				m.Node = i
				found = append(found, m)
			}
		}
	}

	cursor := -1
	if len(found) > 0 {
		cursor = 0
		if anchor != nil {
			for i, m := range found {
				r := p.sc.matchRange(m)
				if r == nil {
					continue
				}
				if dom.CompareBoundaries(
					r.StartContainer, r.StartOffset,
					anchor.StartContainer, anchor.StartOffset,
				) >= 0 {
					cursor = i
					break
				}
			}
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase == phaseCancelled {
		return context.Canceled
	}
	if err := ctx.Err(); err != nil {
		p.phase = phaseCancelled
		return err
	}
	p.matches = found
	p.cursor = cursor
	p.phase = phaseReady
	p.log.Debug("find complete", "query", p.state.Query, "matches", len(found))
	return nil
}

// Cancel invalidates the processor. Safe to call repeatedly and after
// completion; every later call on the processor becomes a no-op.
func (p *Processor) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phase = phaseCancelled
	p.matches = nil
	p.cursor = -1
}

// Next advances the cursor circularly and returns the new result, or nil
// with zero matches. With exactly one match it keeps returning that
// match.
func (p *Processor) Next() *Result {
	return p.step(1)
}

// Prev retreats the cursor circularly.
func (p *Processor) Prev() *Result {
	return p.step(-1)
}

func (p *Processor) step(delta int) *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase != phaseReady || len(p.matches) == 0 {
		return nil
	}
	p.cursor = (p.cursor + delta + len(p.matches)) % len(p.matches)
	return p.resultLocked()
}

// Current returns the result at the present cursor without moving it.
func (p *Processor) Current() *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase != phaseReady || len(p.matches) == 0 {
		return nil
	}
	return p.resultLocked()
}

func (p *Processor) resultLocked() *Result {
	snippets := make([]Snippet, len(p.matches))
	for i, m := range p.matches {
		snippets[i] = m.Snippet
	}
	return &Result{
		Total:    len(p.matches),
		Index:    p.cursor,
		Snippets: snippets,
		Current:  p.matches[p.cursor],
	}
}

// Matches returns a copy of all match references, for highlight-all
// rendering. Empty until a run completes.
func (p *Processor) Matches() []Match {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase != phaseReady {
		return nil
	}
	out := make([]Match, len(p.matches))
	copy(out, p.matches)
	return out
}

// MatchRange materializes a live range for a match, nil when the node was
// detached since the snapshot.
func (p *Processor) MatchRange(m Match) *dom.Range {
	return p.sc.matchRange(m)
}

// CurrentRange materializes the current match, nil when there is none.
func (p *Processor) CurrentRange() *dom.Range {
	p.mu.Lock()
	if p.phase != phaseReady || p.cursor < 0 || p.cursor >= len(p.matches) {
		p.mu.Unlock()
		return nil
	}
	m := p.matches[p.cursor]
	p.mu.Unlock()
	return p.sc.matchRange(m)
}
