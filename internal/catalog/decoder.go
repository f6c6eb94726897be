package catalog

import (
	"context"
	"image"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/hpx/cull/internal/errors"
	"github.com/hpx/cull/internal/media"
)

// FileDecoder decodes catalog files progressively: a degraded bounds-only
// result as soon as the header is parsed, then the final full read. When the
// full read fails but the bounds were parsed, the degraded result is
// re-delivered flagged best-available. Local files never need the network,
// so allowNetwork is ignored. The size hint is advisory; this decoder does
// not downscale.
type FileDecoder struct {
	root string
}

// NewFileDecoder creates a decoder resolving identifiers under root.
func NewFileDecoder(root string) *FileDecoder {
	return &FileDecoder{root: root}
}

// Decode starts the progressive decode. The returned stream is closed after
// one terminal event; every send honors ctx so an abandoned stream never
// leaks the goroutine.
func (d *FileDecoder) Decode(ctx context.Context, item media.Item, size media.SizeHint, allowNetwork bool) (<-chan media.DecodeEvent, error) {
	ch := make(chan media.DecodeEvent)
	go func() {
		defer close(ch)
		path := filepath.Join(d.root, filepath.FromSlash(item.ID))

		f, err := os.Open(path)
		if err != nil {
			send(ctx, ch, media.DecodeEvent{Err: errors.NewUnavailable(item.ID)})
			return
		}
		cfg, _, err := image.DecodeConfig(f)
		f.Close()
		if err != nil {
			send(ctx, ch, media.DecodeEvent{Err: errors.NewUnavailable(item.ID)})
			return
		}

		bounds := &media.Content{
			MimeType: item.DecodeHint,
			Width:    cfg.Width,
			Height:   cfg.Height,
		}
		if !send(ctx, ch, media.DecodeEvent{Content: bounds}) {
			return
		}

		data, err := os.ReadFile(path)
		if err != nil {
			// Bounds parsed but the full read failed; no upgrade is coming.
			send(ctx, ch, media.DecodeEvent{Content: bounds, BestAvailable: true})
			return
		}

		send(ctx, ch, media.DecodeEvent{
			Content: &media.Content{
				Bytes:    data,
				MimeType: item.DecodeHint,
				Width:    cfg.Width,
				Height:   cfg.Height,
			},
			Final: true,
		})
	}()
	return ch, nil
}

// send delivers one event unless the consumer has gone away.
func send(ctx context.Context, ch chan<- media.DecodeEvent, ev media.DecodeEvent) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
