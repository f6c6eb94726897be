package catalog

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hpx/cull/internal/cache"
	cullerrors "github.com/hpx/cull/internal/errors"
	"github.com/hpx/cull/internal/loader"
	"github.com/hpx/cull/internal/media"
)

// writePNG writes a valid w×h PNG at path.
func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}
}

func setupDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "b.png"), 4, 4)
	writePNG(t, filepath.Join(root, "a.png"), 8, 6)
	writePNG(t, filepath.Join(root, "sub", "c.png"), 2, 2)
	// Not reviewable: unsupported extension and hidden directory.
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(root, TrashDirName, "old.png"), 2, 2)
	return root
}

func TestOpenDir_SnapshotOrder(t *testing.T) {
	root := setupDir(t)

	d, err := OpenDir(root)
	if err != nil {
		t.Fatalf("OpenDir failed: %v", err)
	}

	if d.Count() != 3 {
		t.Fatalf("Count = %d, want 3", d.Count())
	}
	want := []string{"a.png", "b.png", "sub/c.png"}
	for i, id := range want {
		item, err := d.ItemAt(i)
		if err != nil {
			t.Fatalf("ItemAt(%d) failed: %v", i, err)
		}
		if item.ID != id {
			t.Errorf("ItemAt(%d).ID = %s, want %s", i, item.ID, id)
		}
		if item.ByteSize <= 0 {
			t.Errorf("ItemAt(%d).ByteSize = %d, want > 0", i, item.ByteSize)
		}
		if item.DecodeHint != "image/png" {
			t.Errorf("ItemAt(%d).DecodeHint = %s, want image/png", i, item.DecodeHint)
		}
	}
}

func TestOpenDir_NotADirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "f.png")
	writePNG(t, file, 2, 2)

	if _, err := OpenDir(file); err == nil {
		t.Error("OpenDir on a file should fail")
	}
	if _, err := OpenDir(filepath.Join(root, "missing")); err == nil {
		t.Error("OpenDir on a missing path should fail")
	}
}

func TestDir_ExistsAndCanRemove(t *testing.T) {
	root := setupDir(t)
	d, err := OpenDir(root)
	if err != nil {
		t.Fatalf("OpenDir failed: %v", err)
	}

	if !d.Exists("a.png") || !d.CanRemove("a.png") {
		t.Error("a.png should exist and be removable")
	}

	// External deletion is noticed without reopening the catalog.
	if err := os.Remove(filepath.Join(root, "a.png")); err != nil {
		t.Fatal(err)
	}
	if d.Exists("a.png") {
		t.Error("Exists should follow the live filesystem")
	}
	if d.CanRemove("a.png") {
		t.Error("CanRemove should be false for a vanished file")
	}
}

func TestItemAt_OutOfRange(t *testing.T) {
	d, err := OpenDir(setupDir(t))
	if err != nil {
		t.Fatalf("OpenDir failed: %v", err)
	}
	if _, err := d.ItemAt(-1); err == nil {
		t.Error("ItemAt(-1) should fail")
	}
	if _, err := d.ItemAt(99); err == nil {
		t.Error("ItemAt(99) should fail")
	}
}

func TestFileDecoder_ProgressiveDecode(t *testing.T) {
	root := setupDir(t)
	d, err := OpenDir(root)
	if err != nil {
		t.Fatalf("OpenDir failed: %v", err)
	}
	item, _ := d.ItemAt(0) // a.png, 8x6

	dec := NewFileDecoder(root)
	events, err := dec.Decode(context.Background(), item, media.SizeHint{}, false)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	first, ok := <-events
	if !ok || first.Terminal() {
		t.Fatalf("first event = %+v, want a non-terminal degraded result", first)
	}
	if first.Content.Width != 8 || first.Content.Height != 6 {
		t.Errorf("bounds = %dx%d, want 8x6", first.Content.Width, first.Content.Height)
	}
	if first.Content.Bytes != nil {
		t.Error("degraded bounds result should carry no pixel data")
	}

	second, ok := <-events
	if !ok || !second.Final {
		t.Fatalf("second event = %+v, want final", second)
	}
	if len(second.Content.Bytes) == 0 {
		t.Error("final result should carry the file bytes")
	}

	if _, ok := <-events; ok {
		t.Error("stream should be closed after the terminal event")
	}
}

func TestFileDecoder_MissingFile(t *testing.T) {
	root := setupDir(t)
	dec := NewFileDecoder(root)

	events, err := dec.Decode(context.Background(), media.Item{ID: "missing.png"}, media.SizeHint{}, false)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	ev := <-events
	if ev.Err == nil || !cullerrors.Is(ev.Err, cullerrors.ErrUnavailable) {
		t.Errorf("event = %+v, want UNAVAILABLE", ev)
	}
}

func TestFileDecoder_GarbageHeader(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "broken.png"), []byte("not a png"), 0644); err != nil {
		t.Fatal(err)
	}
	dec := NewFileDecoder(root)

	events, err := dec.Decode(context.Background(), media.Item{ID: "broken.png"}, media.SizeHint{}, false)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	ev := <-events
	if !cullerrors.Is(ev.Err, cullerrors.ErrUnavailable) {
		t.Errorf("event = %+v, want UNAVAILABLE", ev)
	}
}

func TestFileDecoder_WithLoader(t *testing.T) {
	root := setupDir(t)
	d, err := OpenDir(root)
	if err != nil {
		t.Fatalf("OpenDir failed: %v", err)
	}
	item, _ := d.ItemAt(1) // b.png, 4x4

	c := cache.New(10)
	l := loader.New(NewFileDecoder(root), d, c, 2*time.Second)

	loaded, err := l.Resolve(context.Background(), item, media.SizeHint{}, false)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if loaded.Quality != media.QualityFull {
		t.Errorf("Quality = %s, want full", loaded.Quality)
	}
	if loaded.Content.Width != 4 || loaded.Content.Height != 4 {
		t.Errorf("geometry = %dx%d, want 4x4", loaded.Content.Width, loaded.Content.Height)
	}
	if _, ok := c.Get(item.ID); !ok {
		t.Error("resolved content should be cached")
	}
}

func TestTrashAuthority_MovesBatch(t *testing.T) {
	root := setupDir(t)
	auth := NewTrashAuthority(root)

	if err := auth.DeleteBatch(context.Background(), []string{"a.png", "sub/c.png"}); err != nil {
		t.Fatalf("DeleteBatch failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "a.png")); !os.IsNotExist(err) {
		t.Error("a.png should have been moved out of the catalog")
	}
	if _, err := os.Stat(filepath.Join(auth.TrashDir(), "a.png")); err != nil {
		t.Error("a.png should be in the trash folder")
	}
	if _, err := os.Stat(filepath.Join(auth.TrashDir(), "sub__c.png")); err != nil {
		t.Error("sub/c.png should be flattened into the trash folder")
	}
	if _, err := os.Stat(filepath.Join(root, "b.png")); err != nil {
		t.Error("b.png was not part of the batch and must remain")
	}
}

func TestTrashAuthority_RollsBackOnFailure(t *testing.T) {
	root := setupDir(t)
	auth := NewTrashAuthority(root)

	err := auth.DeleteBatch(context.Background(), []string{"a.png", "does-not-exist.png", "b.png"})
	if err == nil {
		t.Fatal("DeleteBatch with a missing member should fail")
	}

	// All-or-nothing: the already-moved file is restored.
	if _, err := os.Stat(filepath.Join(root, "a.png")); err != nil {
		t.Error("a.png should have been rolled back into the catalog")
	}
	if _, err := os.Stat(filepath.Join(root, "b.png")); err != nil {
		t.Error("b.png must be untouched")
	}
}

func TestTrashAuthority_EmptyBatch(t *testing.T) {
	auth := NewTrashAuthority(t.TempDir())
	if err := auth.DeleteBatch(context.Background(), nil); err != nil {
		t.Errorf("empty batch should be a no-op, got %v", err)
	}
}
