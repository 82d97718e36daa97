package library

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"imgres/asset"
	"imgres/common"
	"imgres/config"
	"imgres/htmldoc"
	"imgres/names"
	"imgres/registry"
	"imgres/render"
	"imgres/storage"
)

type failingStore struct {
	*registry.MemoryStore
	fail bool
}

func (s *failingStore) WriteAssets(ctx context.Context, scope asset.Scope, entries []asset.Entry) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.MemoryStore.WriteAssets(ctx, scope, entries)
}

type fixture struct {
	lib   *Library
	store *failingStore
	root  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	a := cfg.Assets
	a.Probe.Enabled = false
	a.Storage.URLPrefix = "/user/images"

	log := zaptest.NewLogger(t)
	root := t.TempDir()
	store := &failingStore{MemoryStore: registry.NewMemoryStore()}
	backend, err := storage.NewLocal(root, storage.Layout{Prefix: a.Storage.URLPrefix, Names: names.Normalizer{}}, log)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	lib, err := New(&a, store, backend, nil, log)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = lib.Close() })
	return &fixture{lib: lib, store: store, root: root}
}

func pngData(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

var alice = asset.Character("Alice")

func TestResolveTextScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.lib.Add(ctx, alice, asset.Entry{Name: "smile", URL: "/a/smile.png"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	res, err := f.lib.ResolveText(ctx, "hi %%img:Smile%% %%img:frown%%", alice)
	if err != nil {
		t.Fatalf("ResolveText() error = %v", err)
	}
	if !strings.Contains(res.Text, `src="/a/smile.png"`) {
		t.Errorf("smile not substituted: %q", res.Text)
	}
	if !strings.HasSuffix(res.Text, " %%img:frown%%") || !strings.HasPrefix(res.Text, "hi <img") {
		t.Errorf("unexpected text: %q", res.Text)
	}
	if !slices.Equal(res.Missing, []string{"frown"}) {
		t.Errorf("Missing = %v", res.Missing)
	}

	again, err := f.lib.ResolveText(ctx, "hi %%img:Smile%% %%img:frown%%", alice)
	if err != nil || again.Text != res.Text {
		t.Errorf("second resolution differs: %q vs %q (%v)", again.Text, res.Text, err)
	}

	plain, err := f.lib.ResolveText(ctx, "no placeholders", alice)
	if err != nil || plain.Text != "no placeholders" || plain.Hit {
		t.Errorf("ResolveText() = %+v, %v", plain, err)
	}
}

func TestInvalidationScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.lib.Add(ctx, alice, asset.Entry{Name: "smile", URL: "/a/smile.png"}); err != nil {
		t.Fatal(err)
	}
	res, _ := f.lib.ResolveText(ctx, "%%img:wave%%", alice)
	if res.Hit {
		t.Fatal("wave resolved before it was added")
	}

	// registry changed behind library back
	entries, _ := f.store.ReadAssets(ctx, alice)
	entries = append(entries, asset.Entry{Name: "wave", URL: "/a/wave.png"})
	if err := f.store.WriteAssets(ctx, alice, entries); err != nil {
		t.Fatal(err)
	}
	if res, _ := f.lib.ResolveText(ctx, "%%img:wave%%", alice); res.Hit {
		t.Fatal("cache was not expected to notice external change")
	}

	f.lib.Invalidate(alice)
	res, _ = f.lib.ResolveText(ctx, "%%img:wave%%", alice)
	if !res.Hit || !strings.Contains(res.Text, "/a/wave.png") {
		t.Errorf("after invalidate = %q", res.Text)
	}
}

func TestScopeIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	persona := asset.Persona("Bob")

	if err := f.lib.Add(ctx, persona, asset.Entry{Name: "wave", URL: "/p/wave.png"}); err != nil {
		t.Fatal(err)
	}
	before, err := f.lib.Index(ctx, persona)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.lib.Add(ctx, alice, asset.Entry{Name: "smile", URL: "/a/smile.png"}); err != nil {
		t.Fatal(err)
	}
	if err := f.lib.Remove(ctx, alice, "smile"); err != nil {
		t.Fatal(err)
	}

	after, err := f.lib.Index(ctx, persona)
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Error("character mutation rebuilt persona cache")
	}
	if _, ok := after.Lookup("smile"); ok {
		t.Error("character asset leaked into persona scope")
	}

	// character scope first, persona as fallback
	if err := f.lib.Add(ctx, alice, asset.Entry{Name: "wave", URL: "/a/wave.png"}); err != nil {
		t.Fatal(err)
	}
	res, _ := f.lib.ResolveText(ctx, "%%img:wave%%", alice, persona)
	if !strings.Contains(res.Text, "/a/wave.png") {
		t.Errorf("character scope did not win: %q", res.Text)
	}
}

func TestSameNameScopesDoNotShareFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	persona := asset.Persona("Alice")

	res, err := f.lib.UploadBatch(ctx, alice, []Upload{{Name: "smile", Data: pngData(t)}})
	if err != nil || res.Failed != 0 {
		t.Fatalf("UploadBatch() = %+v, %v", res, err)
	}

	records, err := f.lib.Records(ctx, persona)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("persona sees character files: %v", records)
	}
	out, err := f.lib.ResolveText(ctx, "%%img:smile%%", persona)
	if err != nil || out.Hit {
		t.Errorf("ResolveText(persona) = %q, %v", out.Text, err)
	}

	res, err = f.lib.UploadBatch(ctx, persona, []Upload{{Name: "smile", Data: pngData(t)}})
	if err != nil || res.Failed != 0 {
		t.Fatalf("UploadBatch(persona) = %+v, %v", res, err)
	}
	if !strings.Contains(res.Items[0].URL, "/persona_Alice/") {
		t.Errorf("persona upload URL = %q", res.Items[0].URL)
	}
	out, _ = f.lib.ResolveText(ctx, "%%img:smile%%", alice)
	if !strings.Contains(out.Text, `src="/user/images/Alice/smile.png"`) {
		t.Errorf("character resolution = %q", out.Text)
	}
}

func TestMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.lib.Add(ctx, alice, asset.Entry{Name: "smile face", URL: "/a/smile.png"}); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Smile Face", "smile_face", " "} {
		if err := f.lib.Add(ctx, alice, asset.Entry{Name: name, URL: "/a/x.png"}); err == nil {
			t.Errorf("Add(%q) succeeded", name)
		}
	}
	var ce *asset.CollisionError
	if err := f.lib.Add(ctx, alice, asset.Entry{Name: "smile_face"}); !errors.As(err, &ce) || ce.Existing != "smile face" {
		t.Errorf("Add() collision = %v", err)
	}

	if err := f.lib.Rename(ctx, alice, "SMILE FACE", "grin"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	res, _ := f.lib.ResolveText(ctx, "%%img:grin%% %%img:smile face%%", alice)
	if !strings.Contains(res.Text, "/a/smile.png") || !slices.Equal(res.Missing, []string{"smile face"}) {
		t.Errorf("after rename = %+v", res)
	}

	if err := f.lib.Add(ctx, alice, asset.Entry{Name: "frown", URL: "/a/frown.png"}); err != nil {
		t.Fatal(err)
	}
	if err := f.lib.Rename(ctx, alice, "frown", "Grin"); !errors.Is(err, asset.ErrNameCollision) {
		t.Errorf("Rename() onto existing = %v", err)
	}
	if err := f.lib.Rename(ctx, alice, "ghost", "spirit"); !errors.Is(err, asset.ErrNotFound) {
		t.Errorf("Rename() missing = %v", err)
	}
	if err := f.lib.Remove(ctx, alice, "ghost"); !errors.Is(err, asset.ErrNotFound) {
		t.Errorf("Remove() missing = %v", err)
	}

	if err := f.lib.SetTags(ctx, alice, "grin", []string{"happy", " ", "face", "happy"}); err != nil {
		t.Fatal(err)
	}
	records, err := f.lib.Records(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range records {
		if r.DisplayName == "grin" && !slices.Equal(r.Tags, []string{"face", "happy"}) {
			t.Errorf("tags = %v", r.Tags)
		}
	}

	f.store.fail = true
	if err := f.lib.Add(ctx, alice, asset.Entry{Name: "cry", URL: "/a/cry.png"}); !errors.Is(err, asset.ErrTransientWrite) {
		t.Errorf("Add() with failing registry = %v", err)
	}
}

func TestUploadAndDeleteBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	data := pngData(t)

	res, err := f.lib.UploadBatch(ctx, alice, []Upload{
		{Name: "wave", Data: data, Tags: []string{"hand"}},
		{Name: "broken", Data: []byte("definitely not an image")},
		{Name: "Wave", Data: data},
	})
	if err != nil {
		t.Fatalf("UploadBatch() error = %v", err)
	}
	if res.Succeeded != 1 || res.Failed != 2 || len(res.Items) != 3 {
		t.Fatalf("UploadBatch() = %+v", res)
	}
	if !errors.Is(res.Items[1].Err, storage.ErrNotImage) || !errors.Is(res.Items[2].Err, asset.ErrNameCollision) {
		t.Errorf("item errors = %v, %v", res.Items[1].Err, res.Items[2].Err)
	}
	if err := res.Err(); err == nil || !strings.Contains(err.Error(), `upload "broken"`) {
		t.Errorf("Err() = %v", err)
	}

	layout := f.lib.Layout()
	key := layout.Key(alice, layout.Filename("wave", "png"))
	if _, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(key))); err != nil {
		t.Fatalf("uploaded file missing: %v", err)
	}
	out, _ := f.lib.ResolveText(ctx, "%%img:wave%%", alice)
	if !strings.Contains(out.Text, "/user/images/"+key) {
		t.Errorf("uploaded asset not resolved: %q", out.Text)
	}

	del, err := f.lib.DeleteBatch(ctx, alice, []string{"wave", "ghost"})
	if err != nil {
		t.Fatalf("DeleteBatch() error = %v", err)
	}
	if del.Succeeded != 1 || del.Failed != 1 || !errors.Is(del.Items[1].Err, asset.ErrNotFound) {
		t.Errorf("DeleteBatch() = %+v", del)
	}
	if _, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(key))); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}
	if out, _ := f.lib.ResolveText(ctx, "%%img:wave%%", alice); out.Hit {
		t.Errorf("deleted asset still resolves: %q", out.Text)
	}
}

func TestUploadRegistryFailure(t *testing.T) {
	f := newFixture(t)
	f.store.fail = true

	res, err := f.lib.UploadBatch(context.Background(), alice, []Upload{{Name: "wave", Data: pngData(t)}})
	if err != nil {
		t.Fatalf("UploadBatch() error = %v", err)
	}
	if res.Succeeded != 0 || res.Failed != 1 || !errors.Is(res.Items[0].Err, asset.ErrTransientWrite) {
		t.Errorf("UploadBatch() = %+v", res)
	}
}

func TestHasAssetsAndTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	target := f.lib.Target(alice)

	if has, err := target.HasAssets(ctx); err != nil || has {
		t.Fatalf("HasAssets() on empty library = %v, %v", has, err)
	}
	if err := f.lib.Add(ctx, alice, asset.Entry{Name: "smile", URL: "/a/smile.png"}); err != nil {
		t.Fatal(err)
	}
	if has, err := target.HasAssets(ctx); err != nil || !has {
		t.Fatalf("HasAssets() = %v, %v", has, err)
	}
	res, err := target.ResolveText(ctx, "%%img:smile%%")
	if err != nil || !res.Hit {
		t.Errorf("ResolveText() = %+v, %v", res, err)
	}
}

func TestCompressNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, n := range []string{"happy_1", "happy_2", "happy_3", "happy_5"} {
		if err := f.lib.Add(ctx, alice, asset.Entry{Name: n, URL: "/a/" + n + ".png"}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := f.lib.CompressNames(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if got != "happy_1~3, happy_5" {
		t.Errorf("CompressNames() = %q", got)
	}
}

func TestRenderHTMLDocument(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, e := range []asset.Entry{
		{Name: "Junpei's smile", URL: "/a/js.png"},
		{Name: "salt & pepper", URL: "/a/sp.png"},
	} {
		if err := f.lib.Add(ctx, alice, e); err != nil {
			t.Fatal(err)
		}
	}
	src := `<div class="mes_text">hi %%img:Junpei's smile%%</div><div class="mes_text">%%img:salt & pepper%%</div>`
	direct, err := f.lib.ResolveText(ctx, "hi %%img:Junpei's smile%%", alice)
	if err != nil || !strings.Contains(direct.Text, `src="/a/js.png"`) {
		t.Fatalf("ResolveText() = %q, %v", direct.Text, err)
	}

	doc, err := htmldoc.Parse(strings.NewReader(src), "text/html", "mes_text")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	rc := cfg.Assets.Render
	rc.IdleTimeout = time.Millisecond
	sched := render.NewScheduler(&rc, doc, nil, render.RealClock{}, nil, zaptest.NewLogger(t))
	defer sched.Close()

	if attached, err := sched.Switch(ctx, f.lib.Target(alice)); err != nil || !attached {
		t.Fatalf("Switch() = %v, %v", attached, err)
	}
	for _, id := range doc.IDs() {
		sched.Notify(id, common.ChangeKindAdded)
	}
	if err := sched.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := doc.Render(&out); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`src="/a/js.png"`, `src="/a/sp.png"`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("rendered document misses %s: %s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "%%img:") {
		t.Errorf("placeholder left in document: %s", out.String())
	}
}
