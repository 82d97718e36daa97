package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "character")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}

	changes := make(chan []string, 4)
	w, err := New(50*time.Millisecond, func(paths []string) { changes <- paths }, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	target := filepath.Join(sub, "Alice.yaml")
	for range 3 {
		if err := os.WriteFile(target, []byte("assets: []\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(sub, ".tmp"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changes:
		if !slices.Contains(paths, target) {
			t.Errorf("paths = %v, want %s", paths, target)
		}
		if slices.Contains(paths, filepath.Join(sub, ".tmp")) {
			t.Errorf("hidden file reported: %v", paths)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
