package outline

import (
	"testing"

	"github.com/dgallion1/docview/internal/dom"
)

func TestExtract_NestsByLevel(t *testing.T) {
	doc, err := dom.ParseString(`<body>` +
		`<h1>Intro</h1>` +
		`<h2>Background</h2>` +
		`<h3>Details</h3>` +
		`<h2>Method</h2>` +
		`<h1>Results</h1>` +
		`</body>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	entries := Extract(doc)
	if len(entries) != 2 {
		t.Fatalf("expected 2 top-level entries, got %d", len(entries))
	}
	intro := entries[0]
	if intro.Title != "Intro" || intro.Level != 1 {
		t.Errorf("unexpected first entry: %+v", intro)
	}
	if len(intro.Children) != 2 {
		t.Fatalf("expected 2 children under Intro, got %d", len(intro.Children))
	}
	if intro.Children[0].Title != "Background" || intro.Children[1].Title != "Method" {
		t.Errorf("unexpected h2 entries: %+v", intro.Children)
	}
	if len(intro.Children[0].Children) != 1 || intro.Children[0].Children[0].Title != "Details" {
		t.Errorf("h3 not nested under its h2: %+v", intro.Children[0].Children)
	}
	if entries[1].Title != "Results" || len(entries[1].Children) != 0 {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
}

func TestExtract_SkipsEmptyAndCarriesAnchors(t *testing.T) {
	doc, err := dom.ParseString(`<body>` +
		`<h1 id="one">First</h1>` +
		`<h2>   </h2>` +
		`<h2>Real</h2>` +
		`</body>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	entries := Extract(doc)
	if len(entries) != 1 || len(entries[0].Children) != 1 {
		t.Fatalf("empty heading not skipped: %+v", entries)
	}
	if entries[0].Anchor != "#one" {
		t.Errorf("expected id anchor, got %q", entries[0].Anchor)
	}
	if entries[0].Children[0].Anchor == "" {
		t.Error("expected an anchor for the unlabeled heading")
	}
}

func TestExtract_SkippedLevels(t *testing.T) {
	doc, err := dom.ParseString(`<body><h1>Top</h1><h4>Deep</h4></body>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	entries := Extract(doc)
	if len(entries) != 1 {
		t.Fatalf("expected 1 top-level entry, got %d", len(entries))
	}
	if len(entries[0].Children) != 1 || entries[0].Children[0].Level != 4 {
		t.Errorf("skipped levels should still nest: %+v", entries[0].Children)
	}
}
