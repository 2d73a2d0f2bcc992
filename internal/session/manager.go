package session

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docview/internal/annotation"
	"github.com/dgallion1/docview/internal/convert"
	"github.com/dgallion1/docview/internal/geom"
	"github.com/dgallion1/docview/internal/selector"
	"github.com/dgallion1/docview/internal/store"
)

// Manager opens documents into sessions and evicts idle ones.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	ttl     time.Duration
	flowCfg geom.FlowConfig
	store   store.Store
	digits  int
	log     *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Config sizes the manager.
type Config struct {
	TTL             time.Duration
	Flow            geom.FlowConfig
	SortIndexDigits int
}

// NewManager wires the manager to its persistence store.
func NewManager(cfg Config, st store.Store, log *slog.Logger) *Manager {
	digits := cfg.SortIndexDigits
	if digits <= 0 {
		digits = selector.SortIndexDigitsV2
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		flowCfg:  cfg.Flow,
		store:    st,
		digits:   digits,
		log:      log,
	}
}

// Start launches the TTL cleanup loop.
func (m *Manager) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				m.cleanup()
			}
		}
	}()
}

// Stop shuts down the cleanup loop and closes all sessions.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}
}

func (m *Manager) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for id, s := range m.sessions {
		if now.Sub(s.LastUsed()) > m.ttl {
			s.Close()
			delete(m.sessions, id)
			m.log.Info("session evicted", "session_id", id)
		}
	}
}

// Open converts a raw document and creates a session over the rendered
// result.
func (m *Manager) Open(docID, filename string, data []byte) (*Session, error) {
	conv, err := convert.ForFile(filename)
	if err != nil {
		return nil, err
	}
	rendered, err := conv.Convert(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", filename, err)
	}
	s, err := New(annotation.NewID(), docID, filename, rendered, m.flowCfg, m.store, m.digits, m.log)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.log.Info("session opened", "session_id", s.ID, "doc_id", docID, "file", filename)
	return s, nil
}

// Get returns a session by id, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// CloseSession discards one session.
func (m *Manager) CloseSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.sessions[id]; s != nil {
		s.Close()
		delete(m.sessions, id)
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
