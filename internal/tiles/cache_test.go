package tiles

import (
	"context"
	"testing"
	"time"

	"github.com/woozymasta/antipode/internal/config"
	"github.com/woozymasta/antipode/internal/geo"
)

func TestOpenCache(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name    string
		cfg     config.Cache
		wantErr bool
	}{
		{"default disk", config.Cache{Dir: dir}, false},
		{"disk", config.Cache{Backend: "disk", Dir: dir}, false},
		{"none", config.Cache{Backend: "none"}, false},
		{"s3 unreachable", config.Cache{Backend: "s3", Endpoint: "127.0.0.1:1", Bucket: "tiles"}, true},
		{"s3 bad endpoint", config.Cache{Backend: "s3", Endpoint: "http://127.0.0.1:9000", Bucket: "tiles"}, true},
		{"unknown", config.Cache{Backend: "memcached"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			c, err := OpenCache(ctx, tc.cfg)
			if (err != nil) != tc.wantErr {
				t.Fatalf("OpenCache error = %v; wantErr %v", err, tc.wantErr)
			}
			if err != nil {
				return
			}

			tile := geo.Tile{Z: 1, X: 1, Y: 0}
			if _, ok, err := c.Get(ctx, tile); ok || err != nil {
				t.Fatalf("empty cache Get = %v, %v", ok, err)
			}
		})
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir())
	ctx := context.Background()
	tile := geo.Tile{Z: 2, X: 3, Y: 1}

	if err := c.Put(ctx, tile, []byte("RIFF")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, ok, err := c.Get(ctx, tile)
	if err != nil || !ok || string(data) != "RIFF" {
		t.Fatalf("Get = %q, %v, %v", data, ok, err)
	}
}
