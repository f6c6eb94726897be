package review

import (
	"context"

	"github.com/hpx/cull/internal/cache"
	"github.com/hpx/cull/internal/catalog"
	"github.com/hpx/cull/internal/config"
	"github.com/hpx/cull/internal/loader"
	"github.com/hpx/cull/internal/progress"
	"github.com/hpx/cull/internal/trash"
	"github.com/hpx/cull/internal/window"
)

// OpenDirSession assembles and starts a session over a directory catalog:
// filesystem decoder, full-resolution and thumbnail cache tiers, trash-folder
// deletion authority, and the given progress store. This is the wiring both
// driver surfaces (CLI and MCP) share.
func OpenDirSession(ctx context.Context, cfg *config.Config, root string, store progress.Store) (*Session, error) {
	cat, err := catalog.OpenDir(root)
	if err != nil {
		return nil, err
	}

	dec := catalog.NewFileDecoder(cat.Root())
	full := loader.New(dec, cat, cache.New(cfg.ImageCacheCapacity), cfg.FullLoadTimeout())
	thumbs := loader.New(dec, cat, cache.New(cfg.ThumbnailCacheCapacity), cfg.ThumbLoadTimeout())

	w := window.New(cat, full, cfg.PrefetchCount, cfg.BufferLowWater, cfg.AllowNetwork)
	q := trash.New(cat, catalog.NewTrashAuthority(cat.Root()), cfg.BatchSize)

	s := NewSession(cfg, w, q, store)
	s.SetThumbnailLoader(thumbs)
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
