// Package catalog provides the concrete filesystem collaborators the CLI
// runs the review engine against: a directory-backed catalog, a progressive
// file decoder, and a trash-folder deletion authority.
package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hpx/cull/internal/media"
)

// TrashDirName is the per-root folder rejected items are moved into.
const TrashDirName = ".cull-trash"

// supportedExt maps reviewable file extensions to their mime types. Limited
// to formats the stdlib image decoders understand.
var supportedExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// Dir is a catalog over the media files under one directory root. The item
// order is a stable snapshot taken at open time (root-relative paths, sorted);
// Exists and CanRemove consult the live filesystem so externally deleted or
// locked files are noticed by reconciliation.
type Dir struct {
	root  string
	items []media.Item
}

// OpenDir scans root for supported media files and returns a catalog over
// them. Hidden directories (including the trash folder) are skipped.
func OpenDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot open catalog root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog root is not a directory: %s", abs)
	}

	var items []media.Item
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != abs && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		mime, ok := supportedExt[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return nil // raced with an external delete; skip
		}
		mod := fi.ModTime()
		items = append(items, media.Item{
			ID:         filepath.ToSlash(rel),
			CreatedAt:  &mod,
			ByteSize:   fi.Size(),
			DecodeHint: mime,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	return &Dir{root: abs, items: items}, nil
}

// Root returns the absolute catalog root.
func (d *Dir) Root() string { return d.root }

// Count returns the number of items in the open-time snapshot.
func (d *Dir) Count() int { return len(d.items) }

// ItemAt returns the snapshot item at the given index.
func (d *Dir) ItemAt(index int) (media.Item, error) {
	if index < 0 || index >= len(d.items) {
		return media.Item{}, fmt.Errorf("catalog index %d out of range [0,%d)", index, len(d.items))
	}
	return d.items[index], nil
}

// Exists reports whether the identifier still resolves to a readable file.
func (d *Dir) Exists(id string) bool {
	info, err := os.Stat(d.path(id))
	return err == nil && info.Mode().IsRegular()
}

// CanRemove reports whether the file is eligible for removal. A file that
// vanished or was replaced by something that is not a regular file is not.
func (d *Dir) CanRemove(id string) bool {
	return d.Exists(id)
}

func (d *Dir) path(id string) string {
	return filepath.Join(d.root, filepath.FromSlash(id))
}
