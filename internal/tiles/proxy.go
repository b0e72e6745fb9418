package tiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"sync"

	"github.com/woozymasta/antipode/internal/geo"
	"github.com/woozymasta/antipode/internal/metrics"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TileSize is the edge length of generated tiles in pixels.
const TileSize = 256

var (
	// ErrNotFound means the upstream has no usable tile at the address.
	ErrNotFound = errors.New("tile not found")

	// ErrOutOfRange is returned for addresses outside the pyramid or zoom limit.
	ErrOutOfRange = errors.New("tile out of range")
)

// Proxy serves tiles from the cache and fills misses from the upstream.
type Proxy struct {
	client  *http.Client
	cache   Cache
	source  Source
	quality float32
}

// NewProxy creates a proxy. A nil cache disables caching.
func NewProxy(client *http.Client, source Source, cache Cache) *Proxy {
	if client == nil {
		client = http.DefaultClient
	}
	if cache == nil {
		cache = nopCache{}
	}
	return &Proxy{client: client, source: source, cache: cache, quality: 80}
}

// Tile returns the webp encoded tile t.
func (p *Proxy) Tile(ctx context.Context, t geo.Tile) ([]byte, error) {
	if !p.source.Valid(t) {
		return nil, ErrOutOfRange
	}

	data, ok, err := p.cache.Get(ctx, t)
	if err != nil {
		log.Warn().Err(err).Interface("tile", t).Msg("Tile cache read failed")
	}
	if ok {
		metrics.TileCacheHits.Inc()
		return data, nil
	}
	metrics.TileCacheMisses.Inc()

	data, err = p.fetch(ctx, t)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			metrics.TileUpstreamErrors.Inc()
		}
		return nil, err
	}

	if err := p.cache.Put(ctx, t, data); err != nil {
		log.Warn().Err(err).Interface("tile", t).Msg("Tile cache write failed")
	}

	return data, nil
}

// Probe fetches the world tile to check the upstream is reachable and
// returns images. A failing probe means the map service is unavailable.
func (p *Proxy) Probe(ctx context.Context) error {
	img, err := p.download(ctx, geo.Tile{})
	if err != nil {
		return fmt.Errorf("probe %s: %w", p.source.URL(geo.Tile{}), err)
	}
	if img.Bounds().Dx() <= 1 {
		return fmt.Errorf("probe %s: %w", p.source.URL(geo.Tile{}), ErrNotFound)
	}
	return nil
}

func (p *Proxy) fetch(ctx context.Context, t geo.Tile) ([]byte, error) {
	img, err := p.download(ctx, t)
	if err != nil {
		return nil, err
	}

	// Filter out empty/1px tiles often returned by map servers for OOB areas
	if img.Bounds().Dx() <= 1 {
		log.Trace().Str("url", p.source.URL(t)).Msg("Filtered empty tile")
		return nil, ErrNotFound
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *Proxy) download(ctx context.Context, t geo.Tile) (image.Image, error) {
	url := p.source.URL(t)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "antipode-explorer/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		log.Trace().Str("url", url).Msg("Tile not found (404)")
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		log.Trace().Err(err).Str("url", url).Msg("Failed to decode image")
		return nil, ErrNotFound
	}

	return img, nil
}

var (
	transparentOnce sync.Once
	transparentTile []byte
)

// TransparentTile returns an empty webp tile served in place of missing ones.
func TransparentTile() []byte {
	transparentOnce.Do(func() {
		img := image.NewNRGBA(image.Rect(0, 0, TileSize, TileSize))
		var buf bytes.Buffer
		if err := webp.Encode(&buf, img, &webp.Options{Lossless: true}); err != nil {
			log.Error().Err(err).Msg("Failed to encode transparent tile")
			return
		}
		transparentTile = buf.Bytes()
	})
	return transparentTile
}
