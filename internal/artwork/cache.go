// Package artwork caches the artwork of the current track so that it is
// fetched once per track change rather than once per poll.
package artwork

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/five82/piju/internal/mopidy"
)

// Source resolves and downloads artwork. *mopidy.Client implements it.
type Source interface {
	ImagesFor(ctx context.Context, trackURI string) ([]mopidy.Image, error)
	FetchImage(ctx context.Context, uri string) ([]byte, error)
}

var _ Source = (*mopidy.Client)(nil)

// Artwork is the cache content for one track. Data, Width and Height are
// either all set or all zero.
type Artwork struct {
	TrackURI string
	ImageURI string
	Data     []byte
	Width    int
	Height   int
}

// HasImage reports whether decoded image data is present.
func (a Artwork) HasImage() bool {
	return len(a.Data) > 0
}

// Cache holds the artwork for the most recently requested track. It is not
// safe for concurrent use; the poller owns it.
type Cache struct {
	current Artwork
}

// Update makes the cache describe trackURI. An empty URI clears it, the
// cached URI is a no-op, and any other URI triggers exactly one lookup and
// one download. Failures leave the cache empty and are only logged.
func (c *Cache) Update(ctx context.Context, src Source, trackURI string) {
	if trackURI == "" {
		c.current = Artwork{}
		return
	}
	if trackURI == c.current.TrackURI {
		return
	}

	art, err := load(ctx, src, trackURI)
	if err != nil {
		log.Printf("artwork for %s unavailable: %v", trackURI, err)
		c.current = Artwork{}
		return
	}
	c.current = art
}

// Current returns the cached artwork.
func (c *Cache) Current() Artwork {
	return c.current
}

// TrackURI returns the URI the cache content belongs to.
func (c *Cache) TrackURI() string {
	return c.current.TrackURI
}

// ImageURI returns the URI the image was downloaded from.
func (c *Cache) ImageURI() string {
	return c.current.ImageURI
}

// Image returns the raw encoded image, or nil.
func (c *Cache) Image() []byte {
	return c.current.Data
}

// Size returns the natural pixel dimensions of the cached image.
func (c *Cache) Size() (width, height int) {
	return c.current.Width, c.current.Height
}

func load(ctx context.Context, src Source, trackURI string) (Artwork, error) {
	if src == nil {
		return Artwork{}, errors.New("no artwork source")
	}
	images, err := src.ImagesFor(ctx, trackURI)
	if err != nil {
		return Artwork{}, fmt.Errorf("resolve images: %w", err)
	}
	best, ok := largest(images)
	if !ok {
		// Known track without artwork: remember it so it is not asked again.
		return Artwork{TrackURI: trackURI}, nil
	}

	data, err := src.FetchImage(ctx, best.URI)
	if err != nil {
		return Artwork{}, fmt.Errorf("fetch image: %w", err)
	}
	width, height, err := Dimensions(data)
	if err != nil {
		return Artwork{}, err
	}
	return Artwork{
		TrackURI: trackURI,
		ImageURI: best.URI,
		Data:     data,
		Width:    width,
		Height:   height,
	}, nil
}

// Dimensions decodes the image header and returns its raw pixel size.
func Dimensions(data []byte) (width, height int, err error) {
	if len(data) == 0 {
		return 0, 0, errors.New("decode image: empty data")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("decode image: invalid size %dx%d", cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}

// largest picks the image with the biggest advertised area, falling back to
// the first usable entry when sizes are unknown.
func largest(images []mopidy.Image) (mopidy.Image, bool) {
	var best mopidy.Image
	found := false
	for _, img := range images {
		if img.URI == "" {
			continue
		}
		if !found || img.Area() > best.Area() {
			best = img
			found = true
		}
	}
	return best, found
}
