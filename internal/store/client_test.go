package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/docview/internal/annotation"
	"github.com/dgallion1/docview/internal/selector"
)

func testAnnotation() *annotation.Annotation {
	return &annotation.Annotation{
		ID:        "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Type:      annotation.TypeHighlight,
		Color:     "yellow",
		SortIndex: "00000042",
		Position: annotation.Position{
			Selector: &selector.CssSelector{
				Value:     "#x",
				RefinedBy: &selector.TextPositionSelector{Start: 6, End: 11},
			},
		},
		Text: "world",
	}
}

func TestSave(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	defer c.Close()
	a := testAnnotation()
	if err := c.Save(context.Background(), "doc1", a); err != nil {
		t.Fatalf("save: %v", err)
	}
	if gotPath != "/documents/doc1/annotations/"+a.ID {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	var back annotation.Annotation
	if err := json.Unmarshal(gotBody, &back); err != nil {
		t.Fatalf("request body not a valid record: %v", err)
	}
	if back.ID != a.ID || back.SortIndex != a.SortIndex {
		t.Errorf("record mangled in transit: %+v", back)
	}
}

func TestSave_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	defer c.Close()
	c.backoff = func(int) time.Duration { return 0 }
	if err := c.Save(context.Background(), "doc1", testAnnotation()); err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestSave_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	defer c.Close()
	if err := c.Save(context.Background(), "doc1", testAnnotation()); err == nil {
		t.Fatal("expected an error")
	}
	if calls.Load() != 1 {
		t.Errorf("client error retried: %d attempts", calls.Load())
	}
}

func TestList_SkipsInvalidRecords(t *testing.T) {
	valid, err := json.Marshal(testAnnotation())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"annotations":[` + string(valid) + `,` +
			`{"id":"bad","type":"squiggle","position":{"type":"CssSelector","value":"#y"}},` +
			`{"id":"worse","type":"highlight","position":{"type":"Mystery"}}` +
			`]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	defer c.Close()
	got, err := c.List(context.Background(), "doc1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected only the valid record, got %d", len(got))
	}
	if got[0].Text != "world" {
		t.Errorf("unexpected record: %+v", got[0])
	}
}

func TestList_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	defer c.Close()
	got, err := c.List(context.Background(), "missing")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %v", got)
	}
}

func TestBackoff(t *testing.T) {
	if d := Backoff(0); d < time.Second || d >= 2*time.Second {
		t.Errorf("first backoff out of range: %v", d)
	}
	if d := Backoff(10); d > 45*time.Second {
		t.Errorf("backoff not capped: %v", d)
	}
}

func TestDelete(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	defer c.Close()
	if err := c.Delete(context.Background(), "doc1", "ann1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/documents/doc1/annotations/ann1" {
		t.Errorf("unexpected request %s %s", gotMethod, gotPath)
	}
}
