package tiles

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/woozymasta/antipode/internal/geo"
)

func pngTile(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for x := 0; x < size; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// upstream serves real tiles for zoom 0 and 1, a 1px tile for 2/0/0 and 404 otherwise.
func upstream(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	full := pngTile(t, TileSize)
	tiny := pngTile(t, 1)
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch {
		case r.URL.Path == "/2/0/0.png":
			_, _ = w.Write(tiny)
		case strings.HasPrefix(r.URL.Path, "/0/"), strings.HasPrefix(r.URL.Path, "/1/"):
			_, _ = w.Write(full)
		case r.URL.Path == "/garbage/0/0/0.png":
			_, _ = w.Write([]byte("not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestSourceURL(t *testing.T) {
	cases := []struct {
		name string
		src  Source
		tile geo.Tile
		want string
	}{
		{"xyz", Source{Template: "https://t/{z}/{x}/{y}.png"}, geo.Tile{Z: 3, X: 2, Y: 1}, "https://t/3/2/1.png"},
		{"tms", Source{Template: "https://t/{z}/{x}/{tms_y}.png"}, geo.Tile{Z: 2, X: 0, Y: 0}, "https://t/2/0/3.png"},
		{"key", Source{Template: "https://t/{z}/{x}/{y}?k={key}", Key: "abc"}, geo.Tile{}, "https://t/0/0/0?k=abc"},
		{"default subdomain", Source{Template: "https://{s}.t/{z}"}, geo.Tile{Z: 1}, "https://a.t/1"},
		{"rotating subdomain", Source{Template: "https://{s}.t/{z}", Subdomains: []string{"a", "b", "c"}}, geo.Tile{Z: 1, X: 1, Y: 1}, "https://c.t/1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.src.URL(tc.tile); got != tc.want {
				t.Fatalf("URL = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestSourceValid(t *testing.T) {
	src := Source{MaxZoom: 4}
	cases := []struct {
		tile geo.Tile
		want bool
	}{
		{geo.Tile{Z: 0}, true},
		{geo.Tile{Z: 2, X: 3, Y: 3}, true},
		{geo.Tile{Z: 2, X: 4, Y: 0}, false},
		{geo.Tile{Z: 1, X: -1, Y: 0}, false},
		{geo.Tile{Z: 5}, false},
	}
	for _, tc := range cases {
		if got := src.Valid(tc.tile); got != tc.want {
			t.Errorf("Valid(%+v) = %v; want %v", tc.tile, got, tc.want)
		}
	}
}

func TestProxyTileCachesResult(t *testing.T) {
	srv, hits := upstream(t)
	cache := NewDiskCache(t.TempDir())
	p := NewProxy(srv.Client(), Source{Template: srv.URL + "/{z}/{x}/{y}.png", MaxZoom: 4}, cache)
	ctx := context.Background()

	first, err := p.Tile(ctx, geo.Tile{Z: 1, X: 1, Y: 0})
	if err != nil {
		t.Fatalf("Tile: %v", err)
	}
	if !bytes.HasPrefix(first, []byte("RIFF")) {
		t.Fatal("tile is not webp encoded")
	}

	second, err := p.Tile(ctx, geo.Tile{Z: 1, X: 1, Y: 0})
	if err != nil {
		t.Fatalf("Tile: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("cached tile differs")
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("upstream hit %d times; want 1", n)
	}
}

func TestProxyTileErrors(t *testing.T) {
	srv, _ := upstream(t)
	p := NewProxy(srv.Client(), Source{Template: srv.URL + "/{z}/{x}/{y}.png", MaxZoom: 3}, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		tile geo.Tile
		want error
	}{
		{"missing", geo.Tile{Z: 3, X: 1, Y: 1}, ErrNotFound},
		{"one pixel", geo.Tile{Z: 2, X: 0, Y: 0}, ErrNotFound},
		{"beyond max zoom", geo.Tile{Z: 4}, ErrOutOfRange},
		{"outside pyramid", geo.Tile{Z: 1, X: 2}, ErrOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := p.Tile(ctx, tc.tile); !errors.Is(err, tc.want) {
				t.Fatalf("Tile(%+v) error = %v; want %v", tc.tile, err, tc.want)
			}
		})
	}
}

func TestProbe(t *testing.T) {
	srv, _ := upstream(t)
	ctx := context.Background()

	ok := NewProxy(srv.Client(), Source{Template: srv.URL + "/{z}/{x}/{y}.png"}, nil)
	if err := ok.Probe(ctx); err != nil {
		t.Fatalf("Probe: %v", err)
	}

	bad := NewProxy(srv.Client(), Source{Template: srv.URL + "/garbage/{z}/{x}/{y}.png"}, nil)
	if err := bad.Probe(ctx); err == nil {
		t.Fatal("probe of non-image source must fail")
	}

	down := NewProxy(srv.Client(), Source{Template: "http://127.0.0.1:1/{z}/{x}/{y}.png"}, nil)
	if err := down.Probe(ctx); err == nil {
		t.Fatal("probe of unreachable source must fail")
	}
}

func TestSeedFullPyramidStopsOnMissingLevel(t *testing.T) {
	srv, _ := upstream(t)
	cache := NewDiskCache(t.TempDir())
	p := NewProxy(srv.Client(), Source{Template: srv.URL + "/{z}/{x}/{y}.png", MaxZoom: 5}, cache)

	res, err := p.Seed(context.Background(), SeedOptions{Concurrency: 4})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	// 1 tile at z0, 4 at z1, 16 missing at z2, then stop.
	if res.Fetched != 5 || res.Missing != 16 || res.Failed != 0 {
		t.Fatalf("Seed result = %+v", res)
	}
	if _, ok, _ := cache.Get(context.Background(), geo.Tile{Z: 1, X: 1, Y: 1}); !ok {
		t.Fatal("seeded tile missing from cache")
	}
}

func TestSeedAroundPoints(t *testing.T) {
	srv, _ := upstream(t)
	p := NewProxy(srv.Client(), Source{Template: srv.URL + "/{z}/{x}/{y}.png", MaxZoom: 1}, nil)

	pt := geo.Coordinate{Lat: 10, Lng: 20}
	res, err := p.Seed(context.Background(), SeedOptions{
		Around:  []geo.Coordinate{pt, geo.Antipode(pt)},
		MinZoom: 1,
	})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if res.Fetched != 4 {
		t.Fatalf("Seed fetched %d; want all 4 tiles of zoom 1", res.Fetched)
	}
}

func TestTilesAroundWraps(t *testing.T) {
	got := tilesAround([]geo.Coordinate{{Lat: 0, Lng: 179}}, 2)
	// center tile (2,3,2): rows 1..3, columns 2,3,0
	if len(got) != 9 {
		t.Fatalf("got %d tiles; want 9", len(got))
	}
	for _, tile := range got {
		if tile.X == 1 {
			t.Fatalf("unexpected column in %+v", tile)
		}
	}
}

func TestTransparentTile(t *testing.T) {
	data := TransparentTile()
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Fatal("transparent tile is not webp")
	}
}
