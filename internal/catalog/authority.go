package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TrashAuthority executes batch removal by moving files into a trash folder
// under the catalog root. The move is two-phase: if any rename fails, the
// already-moved files are renamed back, so the batch is all-or-nothing from
// the caller's point of view.
type TrashAuthority struct {
	root     string
	trashDir string
}

// NewTrashAuthority creates an authority trashing under root/.cull-trash.
func NewTrashAuthority(root string) *TrashAuthority {
	return &TrashAuthority{
		root:     root,
		trashDir: filepath.Join(root, TrashDirName),
	}
}

// TrashDir returns the directory removed files are moved into.
func (t *TrashAuthority) TrashDir() string { return t.trashDir }

// DeleteBatch moves every identified file into the trash folder, rolling the
// whole batch back on the first failure.
func (t *TrashAuthority) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(t.trashDir, 0700); err != nil {
		return fmt.Errorf("cannot create trash directory: %w", err)
	}

	type move struct{ src, dst string }
	moved := make([]move, 0, len(ids))

	rollback := func() {
		for i := len(moved) - 1; i >= 0; i-- {
			_ = os.Rename(moved[i].dst, moved[i].src)
		}
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			rollback()
			return err
		}
		src := filepath.Join(t.root, filepath.FromSlash(id))
		dst := filepath.Join(t.trashDir, flatten(id))
		if err := os.Rename(src, dst); err != nil {
			rollback()
			return fmt.Errorf("trash %s: %w", id, err)
		}
		moved = append(moved, move{src: src, dst: dst})
	}
	return nil
}

// flatten turns a root-relative identifier into a single trash file name.
func flatten(id string) string {
	return strings.ReplaceAll(id, "/", "__")
}
