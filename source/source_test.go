package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"imgres/asset"
	"imgres/common"
	"imgres/names"
	"imgres/registry"
	"imgres/storage"
)

var alice = asset.Character("Alice")

type fakeExister struct {
	mu       sync.Mutex
	existing map[string]bool
	calls    []string
}

func (f *fakeExister) Exists(_ context.Context, url string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	return f.existing[url], nil
}

type staticNames []string

func (s staticNames) Names(context.Context, asset.Scope) ([]string, error) {
	return s, nil
}

func TestMetadata(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	err := store.WriteAssets(ctx, alice, []asset.Entry{
		{Name: "smile", URL: "/a/smile.png", Tags: []string{"happy"}},
		{Name: "frown"},
		{Name: "wave", Filename: "wave.webp"},
	})
	if err != nil {
		t.Fatal(err)
	}
	m := &Metadata{Store: store, Locator: storage.Layout{Prefix: "/img"}}

	records, err := m.List(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("List() = %+v", records)
	}
	if records[2].Location != asset.URL("/img/Alice/wave.webp") {
		t.Errorf("filename location = %v", records[2].Location)
	}
	if !records[1].Location.IsZero() || records[0].Tags[0] != "happy" {
		t.Errorf("List() = %+v", records)
	}

	got, err := m.Names(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != "frown" {
		t.Errorf("Names() = %v, unlocated names must come first", got)
	}
}

func TestMetadataNormalizer(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	if err := store.WriteAssets(ctx, alice, []asset.Entry{{Name: "Алиса", URL: "/a/alisa.png"}}); err != nil {
		t.Fatal(err)
	}

	plain := &Metadata{Store: store, Locator: storage.Layout{Prefix: "/img"}}
	translit := &Metadata{Store: store, Locator: storage.Layout{Prefix: "/img"}, Normalizer: names.Normalizer{Transliterate: true}}
	for _, tt := range []struct {
		m    *Metadata
		want string
	}{
		{plain, names.Unnamed},
		{translit, "alisa"},
	} {
		records, err := tt.m.List(ctx, alice)
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 || records[0].CanonicalKey != tt.want {
			t.Errorf("List() = %+v, want key %q", records, tt.want)
		}
	}
}

func TestListing(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	b, err := storage.NewLocal(root, storage.Layout{Prefix: "/img"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Upload(ctx, alice, "Happy Face", "png", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "Alice_old.gif"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	l := &Listing{Backend: b}
	records, err := l.List(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("List() = %+v", records)
	}
	r := records[0]
	if r.DisplayName != "Happy_Face" || r.CanonicalKey != "happy_face" || !r.Preferred || r.Source != common.SourceKindFileListing {
		t.Errorf("preferred record = %+v", r)
	}
	if records[1].Preferred || records[1].Location != asset.URL("/img/Alice_old.gif") {
		t.Errorf("flat record = %+v", records[1])
	}
}

func newProbe(t *testing.T, ex *fakeExister, lister NameLister, opts ProbeOptions) *Probe {
	t.Helper()
	p, err := NewProbe(ex, storage.Layout{Prefix: "/img"}, lister, opts, nil, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestProbePatternShortCircuit(t *testing.T) {
	ex := &fakeExister{existing: map[string]bool{
		"/img/Alice_frown.jpg": true,
		"/img/Alice_smile.jpg": true,
		"/img/Alice_wave.jpg":  true,
	}}
	p := newProbe(t, ex, staticNames{"frown", "smile", "wave", "missing"}, ProbeOptions{
		Formats:       []string{"png", "jpg"},
		MaxCandidates: 100,
		Concurrency:   2,
		CacheSize:     16,
	})

	records, err := p.List(context.Background(), alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("List() = %+v", records)
	}
	for _, r := range records {
		if r.Preferred || r.Source != common.SourceKindProbe {
			t.Errorf("record = %+v", r)
		}
	}
	// frown: png/jpg preferred, png flat, jpg flat - then single pattern for the rest
	if len(ex.calls) != 4+3 {
		t.Errorf("issued %d checks: %v", len(ex.calls), ex.calls)
	}

	// everything is remembered
	ex.calls = nil
	if _, err := p.List(context.Background(), alice); err != nil {
		t.Fatal(err)
	}
	if len(ex.calls) != 0 {
		t.Errorf("cached checks repeated: %v", ex.calls)
	}

	p.Forget(alice)
	if _, err := p.List(context.Background(), alice); err != nil {
		t.Fatal(err)
	}
	if len(ex.calls) != 7 {
		t.Errorf("after Forget() issued %d checks", len(ex.calls))
	}
}

func TestProbeBudget(t *testing.T) {
	ex := &fakeExister{existing: map[string]bool{"/img/Alice/c.png": true}}
	p := newProbe(t, ex, staticNames{"a", "b", "c"}, ProbeOptions{
		Formats:       []string{"png"},
		MaxCandidates: 3,
		Concurrency:   1,
	})
	records, err := p.List(context.Background(), alice)
	if err != nil {
		t.Fatal(err)
	}
	// a and b eat the budget before c is checked
	if len(records) != 0 || len(ex.calls) != 3 {
		t.Errorf("List() = %+v, checks = %v", records, ex.calls)
	}
}

type fakeSource struct {
	kind    common.SourceKind
	records []asset.Record
	err     error
	called  bool
}

func (f *fakeSource) Kind() common.SourceKind {
	return f.kind
}

func (f *fakeSource) List(context.Context, asset.Scope) ([]asset.Record, error) {
	f.called = true
	return f.records, f.err
}

func TestSetFetch(t *testing.T) {
	meta := &fakeSource{kind: common.SourceKindMetadata, records: []asset.Record{{DisplayName: "a"}}}
	probe := &fakeSource{kind: common.SourceKindProbe}

	failing := &fakeSource{kind: common.SourceKindFileListing, err: storage.ErrListingUnavailable}
	s := &Set{Metadata: meta, Listings: []Source{failing}, Probe: probe, Log: zaptest.NewLogger(t)}
	batches := s.Fetch(context.Background(), alice)
	if len(batches) != 3 || !probe.called {
		t.Fatalf("probe must run when listing is unavailable: %+v", batches)
	}
	if batches[0].Kind != common.SourceKindMetadata || len(batches[0].Records) != 1 {
		t.Errorf("metadata batch = %+v", batches[0])
	}
	if !errors.Is(batches[1].Err, storage.ErrListingUnavailable) {
		t.Errorf("listing batch = %+v", batches[1])
	}

	probe.called = false
	working := &fakeSource{kind: common.SourceKindFileListing}
	s.Listings = []Source{failing, working}
	batches = s.Fetch(context.Background(), alice)
	if len(batches) != 3 || probe.called {
		t.Errorf("probe must not run when listing works: %+v", batches)
	}
}
