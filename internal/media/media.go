// Package media defines the value types and collaborator contracts shared by
// every layer of the review engine: catalog items, decoded content, quality
// tiers, progressive decode events, and the external catalog/decoder/deletion
// interfaces the core is wired against.
package media

import (
	"context"
	"time"
)

// Quality is the tier of a decoded result.
type Quality string

const (
	// QualityDegraded marks a low-quality placeholder result (e.g. a
	// bounds-only decode or a remote item served from a local preview).
	QualityDegraded Quality = "degraded"

	// QualityFull marks a fully resolved decode.
	QualityFull Quality = "full"
)

// GeoPoint is an optional item geolocation.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Item is an immutable snapshot of one catalog entry. The catalog owns the
// underlying asset; the core only ever holds these snapshots and the stable ID.
type Item struct {
	// ID is the catalog-stable identifier, unique across the collection.
	ID string `json:"id"`

	// CreatedAt is the asset creation time, when the catalog knows it.
	CreatedAt *time.Time `json:"created_at,omitempty"`

	// Location is the capture geolocation, when the catalog knows it.
	Location *GeoPoint `json:"location,omitempty"`

	// ByteSize is the encoded asset size in bytes.
	ByteSize int64 `json:"byte_size"`

	// DecodeHint is an optional format hint for the decoder (mime type).
	DecodeHint string `json:"decode_hint,omitempty"`
}

// Content is a decoded payload. Bytes may be nil for a degraded bounds-only
// result; Width and Height must both be positive for the content to be usable.
type Content struct {
	Bytes    []byte
	MimeType string
	Width    int
	Height   int
}

// ValidGeometry reports whether the decoded dimensions are usable.
func (c *Content) ValidGeometry() bool {
	return c != nil && c.Width > 0 && c.Height > 0
}

// Loaded pairs a catalog item with its decoded content while the item is
// resident in the review window.
type Loaded struct {
	Item    Item
	Content *Content
	Quality Quality
}

// SizeHint bounds the decode target. The zero value requests full resolution.
type SizeHint struct {
	MaxWidth  int
	MaxHeight int
}

// Thumbnail reports whether the hint requests a reduced-size decode.
func (s SizeHint) Thumbnail() bool {
	return s.MaxWidth > 0 || s.MaxHeight > 0
}

// DecodeEvent is one delivery on a decode stream. A decoder may send any
// number of non-terminal degraded events, then exactly one terminal event:
// Final content, a degraded result flagged BestAvailable, or Err. Senders
// must honor context cancellation so an abandoned stream never blocks.
type DecodeEvent struct {
	// Content carries the decoded payload for non-error events.
	Content *Content

	// Final marks a terminal full-quality result.
	Final bool

	// BestAvailable marks a terminal degraded result: no upgrade is coming
	// (e.g. remote-only content while the provider is unreachable).
	BestAvailable bool

	// Err is a terminal decode failure.
	Err error
}

// Terminal reports whether the event ends the stream.
func (e DecodeEvent) Terminal() bool {
	return e.Final || e.BestAvailable || e.Err != nil
}

// Catalog enumerates the full ordered collection under review.
type Catalog interface {
	// Count returns the total number of items in the collection.
	Count() int

	// ItemAt returns the item at the given global index.
	ItemAt(index int) (Item, error)

	// Exists reports whether the identifier still resolves to a readable item.
	Exists(id string) bool

	// CanRemove reports whether the item is currently eligible for
	// destructive removal (it may have been externally restored or locked).
	CanRemove(id string) bool
}

// Decoder resolves an item to decoded content with progressive delivery.
type Decoder interface {
	// Decode starts an asynchronous decode and returns its event stream.
	// The stream is closed after the terminal event. Cancelling ctx stops
	// the decode; the stream then terminates without further deliveries.
	Decode(ctx context.Context, item Item, size SizeHint, allowNetwork bool) (<-chan DecodeEvent, error)
}

// DeletionAuthority executes destructive batch removal. DeleteBatch is
// all-or-nothing from the caller's point of view: on error no item is
// considered removed.
type DeletionAuthority interface {
	DeleteBatch(ctx context.Context, ids []string) error
}
