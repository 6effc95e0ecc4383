package snapshot

import (
	"testing"

	"github.com/specdex/specdex/internal/docmodel"
	"github.com/specdex/specdex/internal/index"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testExport(t *testing.T, refs bool) (index.GraphExport, []*docmodel.DocElement) {
	t.Helper()
	ix := index.New()

	var alphaRefs []string
	if refs {
		alphaRefs = []string{"C:Beta"}
	}
	alpha, err := docmodel.New(docmodel.DocElement{
		ID: "C:Alpha", Kind: docmodel.KindComponent, Title: "Alpha Component",
		File: docmodel.FileSoftwareDesign, HeadingLevel: 1, Anchor: "alpha",
		BodyMarkdown: "Connects the widget subsystem.", Refs: alphaRefs,
	})
	if err != nil {
		t.Fatal(err)
	}
	beta, err := docmodel.New(docmodel.DocElement{
		ID: "C:Beta", Kind: docmodel.KindComponent, Title: "Beta Component",
		File: docmodel.FileSoftwareDesign, HeadingLevel: 1, Anchor: "beta",
		BodyMarkdown: "Stores parsed records.",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range []*docmodel.DocElement{alpha, beta} {
		if err := ix.Add(e); err != nil {
			t.Fatal(err)
		}
	}
	return ix.ExportReferenceGraph(), ix.All()
}

func TestSaveAndLoad(t *testing.T) {
	s := testStore(t)
	export, elements := testExport(t, true)

	id, err := s.Save(export, elements)
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Fatal("id = 0")
	}

	loaded, err := s.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Elements) != 2 {
		t.Errorf("Elements = %v", loaded.Elements)
	}
	if got := loaded.References["C:Alpha"]; len(got) != 1 || got[0] != "C:Beta" {
		t.Errorf("References = %v", loaded.References)
	}
	if loaded.Statistics.TotalElements != 2 {
		t.Errorf("Statistics = %+v", loaded.Statistics)
	}
}

func TestLoad_Missing(t *testing.T) {
	s := testStore(t)
	if _, err := s.Load(42); err == nil {
		t.Error("want error for unknown snapshot")
	}
}

func TestListAndLatest(t *testing.T) {
	s := testStore(t)

	if _, ok, err := s.Latest(); err != nil || ok {
		t.Fatalf("Latest on empty store = %v, %v", ok, err)
	}

	export, elements := testExport(t, true)
	first, err := s.Save(export, elements)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Save(export, elements)
	if err != nil {
		t.Fatal(err)
	}

	infos, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 || infos[0].ID != second || infos[1].ID != first {
		t.Errorf("infos = %+v, want newest first", infos)
	}
	if infos[0].ElementCount != 2 || infos[0].ReferenceCount != 1 {
		t.Errorf("counts = %+v", infos[0])
	}

	latest, ok, err := s.Latest()
	if err != nil || !ok || latest != second {
		t.Errorf("Latest = %d, %v, %v", latest, ok, err)
	}
}

func TestSearch(t *testing.T) {
	s := testStore(t)
	export, elements := testExport(t, true)
	if _, err := s.Save(export, elements); err != nil {
		t.Fatal(err)
	}

	hits, err := s.Search("widget", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ElementID != "C:Alpha" {
		t.Errorf("hits = %+v", hits)
	}

	// Quotes in the query must not break the MATCH expression.
	if _, err := s.Search(`widget "OR`, 10); err != nil {
		t.Errorf("quoted query: %v", err)
	}
}

func TestSearch_EmptyStore(t *testing.T) {
	s := testStore(t)
	hits, err := s.Search("anything", 10)
	if err != nil || hits != nil {
		t.Errorf("hits = %v, err = %v", hits, err)
	}
}

func TestPrune(t *testing.T) {
	s := testStore(t)
	export, elements := testExport(t, false)
	for i := 0; i < 3; i++ {
		if _, err := s.Save(export, elements); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Prune(1); err != nil {
		t.Fatal(err)
	}
	infos, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 {
		t.Errorf("infos = %+v, want one kept", infos)
	}

	// FTS rows for pruned snapshots are gone; the latest still searches.
	hits, err := s.Search("records", 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range hits {
		if h.SnapshotID != infos[0].ID {
			t.Errorf("hit from pruned snapshot: %+v", h)
		}
	}
}
