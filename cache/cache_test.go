package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"imgres/asset"
	"imgres/common"
	"imgres/names"
	"imgres/source"
)

var (
	alice = asset.Character("Alice")
	bob   = asset.Persona("Bob")
	std   names.Normalizer
)

func rec(name, url string, src common.SourceKind, preferred bool) asset.Record {
	r := asset.NewRecord(std, name, asset.URL(url), src)
	r.Preferred = preferred
	return r
}

func TestMergePrecedence(t *testing.T) {
	meta := source.Batch{Kind: common.SourceKindMetadata, Records: []asset.Record{
		{DisplayName: "Smile", CanonicalKey: "smile", Tags: []string{"happy"}, Source: common.SourceKindMetadata},
		rec("wave", "/a/wave.png", common.SourceKindMetadata, false),
		rec("frown", "/a/frown.png", common.SourceKindMetadata, false),
	}}
	listing := source.Batch{Kind: common.SourceKindFileListing, Records: []asset.Record{
		rec("smile", "/img/Alice_smile.png", common.SourceKindFileListing, false),
		rec("wave", "/img/Alice/wave.png", common.SourceKindFileListing, true),
		rec("frown", "/img/Alice_frown.png", common.SourceKindFileListing, false),
		rec("extra", "/img/Alice/extra.png", common.SourceKindFileListing, true),
	}}
	probe := source.Batch{Kind: common.SourceKindProbe, Records: []asset.Record{
		rec("smile", "/img/Alice/smile.png", common.SourceKindProbe, true),
		rec("wave", "/img/Alice/wave.webp", common.SourceKindProbe, true),
	}}

	orders := [][]source.Batch{
		{meta, listing, probe},
		{probe, listing, meta},
		{listing, probe, meta},
	}
	for _, batches := range orders {
		got := Merge(std, batches)
		if len(got) != 4 {
			t.Fatalf("Merge() = %+v", got)
		}
		smile, wave, frown, extra := got[0], got[1], got[2], got[3]

		// identity from metadata, location from preferred storage
		if smile.DisplayName != "Smile" || len(smile.Tags) != 1 || smile.Source != common.SourceKindMetadata {
			t.Errorf("smile identity = %+v", smile)
		}
		if smile.Location != asset.URL("/img/Alice/smile.png") || !smile.Preferred {
			t.Errorf("smile location = %v", smile.Location)
		}
		// first preferred location wins
		if wave.Location != asset.URL("/img/Alice/wave.png") {
			t.Errorf("wave location = %v", wave.Location)
		}
		// flat location never replaces existing one
		if frown.Location != asset.URL("/a/frown.png") || frown.Preferred {
			t.Errorf("frown location = %v", frown.Location)
		}
		if extra.Source != common.SourceKindFileListing || !extra.Preferred {
			t.Errorf("extra = %+v", extra)
		}
	}
}

func TestIndexFanOut(t *testing.T) {
	records := Merge(std, []source.Batch{{Kind: common.SourceKindMetadata, Records: []asset.Record{
		rec("Café Night!", "/a/cafe.png", common.SourceKindMetadata, false),
		rec("a_b", "/a/first.png", common.SourceKindMetadata, false),
		rec("A b", "/a/second.png", common.SourceKindMetadata, false),
		{DisplayName: "ghost", CanonicalKey: "ghost"},
	}}})
	// "A b" collides with "a_b" on canonical key and merges into it
	if len(records) != 3 {
		t.Fatalf("Merge() = %+v", records)
	}
	ix := NewIndex(alice, std, records)

	want := asset.URL("/a/cafe.png")
	for _, key := range []string{"Café Night!", "Cafe_Night", "cafe_night", "café night!"} {
		if loc, ok := ix.Lookup(key); !ok || loc != want {
			t.Errorf("Lookup(%q) = %v, %v", key, loc, ok)
		}
	}
	if _, ok := ix.Lookup("ghost"); ok {
		t.Errorf("record without location must not be registered")
	}
	if ix.Len() != 2 {
		t.Errorf("Len() = %d", ix.Len())
	}
	if loc, ok := ix.LookupFold("CAFE_NIGHT"); !ok || loc != want {
		t.Errorf("LookupFold() = %v, %v", loc, ok)
	}
	if dump := ix.Dump(); !strings.Contains(dump, "Café Night!") || !strings.Contains(dump, "/a/cafe.png") {
		t.Errorf("Dump() = %s", dump)
	}
}

func TestIndexExactNamesWin(t *testing.T) {
	records := []asset.Record{
		rec("Smile!", "/a/loud.png", common.SourceKindMetadata, false),
		rec("smile", "/a/quiet.png", common.SourceKindMetadata, false),
	}
	// distinct canonical keys are not guaranteed here, build directly
	records[1].CanonicalKey = "smile-quiet"
	ix := NewIndex(alice, std, records)
	if loc, _ := ix.Lookup("smile"); loc != asset.URL("/a/quiet.png") {
		t.Errorf("derived key shadowed display name: %v", loc)
	}
}

type fakeFetcher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	result  func(call int32) []asset.Record
}

func (f *fakeFetcher) Fetch(ctx context.Context, scope asset.Scope) []source.Batch {
	n := f.calls.Add(1)
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.release != nil {
		<-f.release
	}
	return []source.Batch{{Kind: common.SourceKindMetadata, Records: f.result(n)}}
}

func records(names ...string) []asset.Record {
	out := make([]asset.Record, 0, len(names))
	for _, n := range names {
		out = append(out, rec(n, "/a/"+n+".png", common.SourceKindMetadata, false))
	}
	return out
}

func TestCacheSingleBuild(t *testing.T) {
	f := &fakeFetcher{release: make(chan struct{}), result: func(int32) []asset.Record { return records("smile") }}
	c := New(alice, f, std, nil, zaptest.NewLogger(t))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ix, err := c.Index(context.Background())
			if err != nil || ix.Len() != 1 {
				t.Errorf("Index() = %v, %v", ix, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(f.release)
	wg.Wait()

	if n := f.calls.Load(); n != 1 {
		t.Errorf("sources queried %d times", n)
	}
}

func TestCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{result: func(n int32) []asset.Record {
		if n == 1 {
			return records("smile")
		}
		return records("smile", "wave")
	}}
	c := New(alice, f, std, nil, zaptest.NewLogger(t))

	if c.Peek() != nil {
		t.Fatalf("cache must start empty")
	}
	ix, _ := c.Index(ctx)
	if _, ok := ix.Lookup("wave"); ok {
		t.Fatalf("wave resolved before it was added")
	}
	ix2, _ := c.Index(ctx)
	if ix2 != ix || f.calls.Load() != 1 {
		t.Errorf("index rebuilt without invalidation")
	}

	c.Invalidate()
	if c.Peek() != nil {
		t.Errorf("Invalidate() must clear, not rebuild")
	}
	if f.calls.Load() != 1 {
		t.Errorf("Invalidate() rebuilt eagerly")
	}
	ix, _ = c.Index(ctx)
	if _, ok := ix.Lookup("wave"); !ok {
		t.Errorf("wave not resolved after invalidation")
	}
}

func TestCacheInvalidateWhileBuilding(t *testing.T) {
	f := &fakeFetcher{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		result: func(n int32) []asset.Record {
			if n == 1 {
				return records("old")
			}
			return records("new")
		},
	}
	c := New(alice, f, std, nil, zaptest.NewLogger(t))

	done := make(chan *Index)
	go func() {
		ix, _ := c.Index(context.Background())
		done <- ix
	}()
	<-f.started
	c.Invalidate()
	close(f.release)

	ix := <-done
	if _, ok := ix.Lookup("new"); !ok {
		t.Errorf("stale build result returned: %s", ix.Dump())
	}
	if peek := c.Peek(); peek == nil || peek.Len() != 1 {
		t.Errorf("Peek() = %v", peek)
	} else if _, ok := peek.Lookup("old"); ok {
		t.Errorf("stale build result installed")
	}
}

func TestCacheContextCanceled(t *testing.T) {
	f := &fakeFetcher{release: make(chan struct{}), result: func(int32) []asset.Record { return nil }}
	defer close(f.release)
	// build finishes after the test, nothing may log into t
	c := New(alice, f, std, nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := c.Index(ctx); err == nil {
		t.Errorf("Index() must honor context")
	}
}

func TestManagerScopeIsolation(t *testing.T) {
	ctx := context.Background()
	fetchers := map[string]*fakeFetcher{
		alice.Key(): {result: func(int32) []asset.Record { return records("smile") }},
		bob.Key():   {result: func(int32) []asset.Record { return records("wave") }},
	}
	m := NewManager(func(s asset.Scope) Fetcher { return fetchers[s.Key()] }, std, nil, zaptest.NewLogger(t))

	ixs, err := m.Indexes(ctx, alice, asset.Scope{}, bob)
	if err != nil || len(ixs) != 2 {
		t.Fatalf("Indexes() = %v, %v", ixs, err)
	}
	if _, ok := ixs[0].Lookup("wave"); ok {
		t.Errorf("persona record leaked into character cache")
	}

	m.Invalidate(alice)
	if m.For(alice).Peek() != nil {
		t.Errorf("character cache not invalidated")
	}
	if m.For(bob).Peek() != ixs[1] {
		t.Errorf("persona cache affected by character invalidation")
	}

	m.InvalidateAll()
	if m.For(bob).Peek() != nil {
		t.Errorf("InvalidateAll() left persona cache")
	}

	c := m.For(alice)
	m.Forget(alice)
	if m.For(alice) == c {
		t.Errorf("Forget() kept cache")
	}
}
