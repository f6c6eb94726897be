// Package loader resolves catalog identifiers to decoded content.
//
// A decoder delivers a stream of progressive results: zero or more degraded
// intermediates followed by one terminal event. Resolve consumes the stream
// from a single select loop, so exactly one outcome (success, timeout,
// cancellation, or decode failure) is ever observed per call, regardless of
// how the decoder goroutine and the timeout race.
package loader

import (
	"context"
	"time"

	"github.com/hpx/cull/internal/cache"
	"github.com/hpx/cull/internal/errors"
	"github.com/hpx/cull/internal/media"
)

// Loader resolves one identifier at a time against an external decoder and
// writes successful results through to its cache. Construct one Loader per
// content tier (full resolution, thumbnail); they differ only in cache,
// timeout, and size hint.
type Loader struct {
	decoder media.Decoder
	catalog media.Catalog
	cache   *cache.Cache
	timeout time.Duration
}

// New creates a loader. catalog may be nil, in which case the pre-decode
// readability check is skipped and unreadable items surface as decoder errors.
func New(decoder media.Decoder, catalog media.Catalog, c *cache.Cache, timeout time.Duration) *Loader {
	return &Loader{
		decoder: decoder,
		catalog: catalog,
		cache:   c,
		timeout: timeout,
	}
}

// Resolve decodes one item and returns it with its quality tier.
//
// Outcome policy, first terminal signal wins:
//   - catalog reports the item unreadable → UNAVAILABLE, no decode issued
//   - final result before the timeout → quality=full
//   - degraded result flagged best-available → quality=degraded
//   - ctx cancelled before any terminal result → CANCELLED
//   - timeout with no terminal result → TIMEOUT
//   - any delivered content with non-positive width or height → CORRUPT,
//     whichever tier produced it
//
// On success the content is put into the cache before returning.
func (l *Loader) Resolve(ctx context.Context, item media.Item, size media.SizeHint, allowNetwork bool) (*media.Loaded, error) {
	if l.catalog != nil && !l.catalog.Exists(item.ID) {
		return nil, errors.NewUnavailable(item.ID)
	}

	// The derived cancel tells the decoder to stop as soon as Resolve
	// returns, terminal or not.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := l.decoder.Decode(ctx, item, size, allowNetwork)
	if err != nil {
		return nil, errors.NewUnavailable(item.ID)
	}

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// Stream closed without a terminal event: decoder bug.
				return nil, errors.NewInternal(nil)
			}
			if ev.Err != nil {
				return nil, l.mapDecodeError(item.ID, ev.Err)
			}
			if ev.Content != nil && !ev.Content.ValidGeometry() {
				return nil, errors.NewCorrupt(item.ID, ev.Content.Width, ev.Content.Height)
			}
			switch {
			case ev.Final:
				return l.finish(item, ev.Content, media.QualityFull)
			case ev.BestAvailable:
				return l.finish(item, ev.Content, media.QualityDegraded)
			}
			// Non-terminal degraded intermediate: keep waiting for an
			// upgrade or the timeout.

		case <-timer.C:
			return nil, errors.NewTimeout(item.ID)

		case <-ctx.Done():
			return nil, errors.NewCancelled(item.ID)
		}
	}
}

// finish caches a terminal result and wraps it as a loaded item.
func (l *Loader) finish(item media.Item, content *media.Content, q media.Quality) (*media.Loaded, error) {
	if content == nil {
		return nil, errors.NewCorrupt(item.ID, 0, 0)
	}
	l.cache.Put(item.ID, content)
	return &media.Loaded{Item: item, Content: content, Quality: q}, nil
}

// mapDecodeError preserves already-coded errors and folds everything else
// into UNAVAILABLE, the skip-this-item outcome.
func (l *Loader) mapDecodeError(id string, err error) error {
	if cErr, ok := err.(*errors.CullError); ok {
		return cErr
	}
	return errors.NewUnavailable(id)
}
