package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/docview/internal/annotation"
	"github.com/dgallion1/docview/internal/config"
	"github.com/dgallion1/docview/internal/geom"
	"github.com/dgallion1/docview/internal/session"
	"github.com/dgallion1/docview/internal/store"
)

const apiKey = "test-key"

const samplePage = `<html><head><title>Sample</title></head><body>` +
	`<article>` +
	`<h1>Chapter One</h1>` +
	`<p id="x">Hello world of text</p>` +
	`<h2>Section</h2>` +
	`<p>more needle content and another needle</p>` +
	`</article>` +
	`</body></html>`

func newTestServer(t *testing.T) (*Server, *session.Manager) {
	t.Helper()
	var mu sync.Mutex
	records := make(map[string]*annotation.Annotation)
	st := store.Funcs{
		SaveFunc: func(ctx context.Context, docID string, a *annotation.Annotation) error {
			mu.Lock()
			defer mu.Unlock()
			records[a.ID] = a
			return nil
		},
		ListFunc: func(ctx context.Context, docID string) ([]*annotation.Annotation, error) {
			mu.Lock()
			defer mu.Unlock()
			out := make([]*annotation.Annotation, 0, len(records))
			for _, a := range records {
				out = append(out, a)
			}
			return out, nil
		},
		DeleteFunc: func(ctx context.Context, docID, id string) error {
			mu.Lock()
			defer mu.Unlock()
			delete(records, id)
			return nil
		},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := session.NewManager(session.Config{TTL: time.Hour, Flow: geom.DefaultFlowConfig}, st, log)
	cfg := config.Config{
		ViewerAPIKey:   apiKey,
		MaxUploadBytes: 1 << 20,
		SchemaVersion:  2,
	}
	return NewServer(mgr, log, cfg), mgr
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func openSession(t *testing.T, s *Server) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "sample.html")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	fw.Write([]byte(samplePage))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("open document: status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		SessionID string `json:"session_id"`
		Title     string `json:"title"`
		Outline   []struct {
			Title string `json:"title"`
		} `json:"outline"`
	}
	decode(t, w, &resp)
	if resp.Title != "Sample" {
		t.Errorf("unexpected title %q", resp.Title)
	}
	if len(resp.Outline) == 0 || resp.Outline[0].Title != "Chapter One" {
		t.Errorf("unexpected outline %+v", resp.Outline)
	}
	return resp.SessionID
}

func TestHealthIsPublic(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("health check failed: %d", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/documents", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing auth accepted: %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad key accepted: %d", w.Code)
	}
}

func TestSelectionResolveFlow(t *testing.T) {
	s, _ := newTestServer(t)
	id := openSession(t, s)

	// "Hello world of text" starts after "Chapter One" (11 chars trimmed).
	w := doJSON(t, s, http.MethodPost, "/api/sessions/"+id+"/selection",
		map[string]any{"start": 11 + 6, "end": 11 + 11})
	if w.Code != http.StatusOK {
		t.Fatalf("selection: %d: %s", w.Code, w.Body.String())
	}
	var selResp struct {
		Selector  json.RawMessage `json:"selector"`
		Text      string          `json:"text"`
		SortIndex string          `json:"sortIndex"`
	}
	decode(t, w, &selResp)
	if selResp.Text != "world" {
		t.Errorf("expected selected text %q, got %q", "world", selResp.Text)
	}
	if len(selResp.SortIndex) != 8 {
		t.Errorf("expected 8-digit sort index, got %q", selResp.SortIndex)
	}

	// The returned selector resolves back to the same text.
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/resolve",
		bytes.NewReader(selResp.Selector))
	req.Header.Set("Authorization", "Bearer "+apiKey)
	w2 := httptest.NewRecorder()
	s.ServeHTTP(w2, req)
	if w2.Code != http.StatusOK {
		t.Fatalf("resolve: %d: %s", w2.Code, w2.Body.String())
	}
	var resResp struct {
		Resolved bool   `json:"resolved"`
		Text     string `json:"text"`
	}
	decode(t, w2, &resResp)
	if !resResp.Resolved || resResp.Text != "world" {
		t.Errorf("resolve round trip failed: %+v", resResp)
	}
}

func TestResolve_RejectsUnknownSelectorType(t *testing.T) {
	s, _ := newTestServer(t)
	id := openSession(t, s)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/resolve",
		strings.NewReader(`{"type":"XPathSelector","value":"//p"}`))
	req.Header.Set("Authorization", "Bearer "+apiKey)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown selector type not rejected: %d: %s", w.Code, w.Body.String())
	}
}

func TestResolve_MissIsNotAnError(t *testing.T) {
	s, _ := newTestServer(t)
	id := openSession(t, s)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/resolve",
		strings.NewReader(`{"type":"CssSelector","value":"#does-not-exist"}`))
	req.Header.Set("Authorization", "Bearer "+apiKey)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("miss should be 200: %d", w.Code)
	}
	var resp struct {
		Resolved bool `json:"resolved"`
	}
	decode(t, w, &resp)
	if resp.Resolved {
		t.Error("missing anchor reported as resolved")
	}
}

func TestAnnotationLifecycleOverHTTP(t *testing.T) {
	s, _ := newTestServer(t)
	id := openSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/sessions/"+id+"/annotations",
		map[string]any{"type": "highlight", "color": "yellow", "start": 11, "end": 22})
	if w.Code != http.StatusOK {
		t.Fatalf("create: %d: %s", w.Code, w.Body.String())
	}
	var created annotation.Annotation
	decode(t, w, &created)
	if created.ID == "" || created.Type != annotation.TypeHighlight {
		t.Fatalf("unexpected annotation %+v", created)
	}

	w = doJSON(t, s, http.MethodGet, "/api/sessions/"+id+"/annotations", nil)
	var list struct {
		Annotations []annotation.Annotation `json:"annotations"`
	}
	decode(t, w, &list)
	if len(list.Annotations) != 1 || list.Annotations[0].ID != created.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	w = doJSON(t, s, http.MethodDelete, "/api/sessions/"+id+"/annotations/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: %d", w.Code)
	}
	w = doJSON(t, s, http.MethodGet, "/api/sessions/"+id+"/annotations", nil)
	list.Annotations = nil
	decode(t, w, &list)
	if len(list.Annotations) != 0 {
		t.Errorf("annotation survived delete: %+v", list)
	}
}

func TestFreeformAnnotationOverHTTP(t *testing.T) {
	s, _ := newTestServer(t)
	id := openSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/sessions/"+id+"/annotations",
		map[string]any{
			"type":     "freetext",
			"text":     "margin note",
			"fontSize": 12,
			"rects":    []map[string]float64{{"left": 10, "top": 40, "width": 120, "height": 30}},
		})
	if w.Code != http.StatusOK {
		t.Fatalf("create freeform: %d: %s", w.Code, w.Body.String())
	}
	var created annotation.Annotation
	decode(t, w, &created)
	if created.Type != annotation.TypeFreeText || len(created.Position.Rects) != 1 {
		t.Errorf("unexpected freeform annotation %+v", created)
	}
}

func TestFindOverHTTP(t *testing.T) {
	s, _ := newTestServer(t)
	id := openSession(t, s)

	w := doJSON(t, s, http.MethodPut, "/api/sessions/"+id+"/find",
		map[string]any{"query": "needle", "active": true})
	if w.Code != http.StatusOK {
		t.Fatalf("find: %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		Total int `json:"total"`
		Index int `json:"index"`
	}
	decode(t, w, &res)
	if res.Total != 2 || res.Index != 0 {
		t.Fatalf("unexpected find result %+v", res)
	}

	w = doJSON(t, s, http.MethodPost, "/api/sessions/"+id+"/find/next", nil)
	decode(t, w, &res)
	if res.Index != 1 {
		t.Errorf("expected index 1 after next, got %+v", res)
	}
	w = doJSON(t, s, http.MethodPost, "/api/sessions/"+id+"/find/prev", nil)
	decode(t, w, &res)
	if res.Index != 0 {
		t.Errorf("expected index 0 after prev, got %+v", res)
	}

	// Persist the current match as a highlight.
	w = doJSON(t, s, http.MethodPost, "/api/sessions/"+id+"/find/highlight",
		map[string]any{"color": "orange"})
	if w.Code != http.StatusOK {
		t.Fatalf("highlight: %d: %s", w.Code, w.Body.String())
	}
	var ann annotation.Annotation
	decode(t, w, &ann)
	if ann.Text != "needle" || ann.Color != "orange" {
		t.Errorf("unexpected highlight %+v", ann)
	}
}

func TestFocusModeOverHTTP(t *testing.T) {
	s, _ := newTestServer(t)
	id := openSession(t, s)

	w := doJSON(t, s, http.MethodPut, "/api/sessions/"+id+"/focus", map[string]any{"on": true})
	if w.Code != http.StatusOK {
		t.Fatalf("focus: %d", w.Code)
	}

	// Outline is computed over the focus tree while focus mode is on.
	w = doJSON(t, s, http.MethodGet, "/api/sessions/"+id+"/outline", nil)
	var out struct {
		Outline []struct {
			Title string `json:"title"`
		} `json:"outline"`
	}
	decode(t, w, &out)
	if len(out.Outline) == 0 || out.Outline[0].Title != "Chapter One" {
		t.Errorf("unexpected focus outline %+v", out)
	}
}

func TestUnknownSession(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/sessions/nope/annotations", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown session: %d", w.Code)
	}
}

func TestCloseSession(t *testing.T) {
	s, mgr := newTestServer(t)
	id := openSession(t, s)

	w := doJSON(t, s, http.MethodDelete, "/api/sessions/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("close: %d", w.Code)
	}
	if mgr.Get(id) != nil {
		t.Error("session survived close")
	}
}

func TestOpenDocument_RejectsUnsupportedType(t *testing.T) {
	s, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "malware.exe")
	fw.Write([]byte("MZ"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unsupported type accepted: %d", w.Code)
	}
}
