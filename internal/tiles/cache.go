package tiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/woozymasta/antipode/internal/config"
	"github.com/woozymasta/antipode/internal/geo"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Cache keeps encoded webp tiles.
type Cache interface {
	Get(ctx context.Context, t geo.Tile) ([]byte, bool, error)
	Put(ctx context.Context, t geo.Tile, data []byte) error
}

// OpenCache creates the cache backend selected in the configuration.
func OpenCache(ctx context.Context, cfg config.Cache) (Cache, error) {
	switch cfg.Backend {
	case "", "disk":
		return NewDiskCache(cfg.Dir), nil
	case "s3":
		return NewS3Cache(ctx, cfg)
	case "none":
		return nopCache{}, nil
	default:
		return nil, fmt.Errorf("unknown tile cache backend %q", cfg.Backend)
	}
}

func tileKey(t geo.Tile) string {
	return path.Join(strconv.Itoa(t.Z), strconv.Itoa(t.X), strconv.Itoa(t.Y)+".webp")
}

// DiskCache stores tiles as dir/z/x/y.webp.
type DiskCache struct {
	Dir string
}

// NewDiskCache returns a cache rooted at dir.
func NewDiskCache(dir string) *DiskCache {
	return &DiskCache{Dir: dir}
}

func (c *DiskCache) path(t geo.Tile) string {
	return filepath.Join(c.Dir, filepath.FromSlash(tileKey(t)))
}

// Get reads a cached tile. Empty files count as missing.
func (c *DiskCache) Get(_ context.Context, t geo.Tile) ([]byte, bool, error) {
	data, err := os.ReadFile(c.path(t))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, len(data) > 0, nil
}

// Put writes a tile, creating directories as needed.
func (c *DiskCache) Put(_ context.Context, t geo.Tile, data []byte) error {
	p := c.path(t)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// S3Cache stores tiles in an S3 compatible bucket.
type S3Cache struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3Cache connects to the endpoint and makes sure the bucket exists.
func NewS3Cache(ctx context.Context, cfg config.Cache) (*S3Cache, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("s3 bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("s3 make bucket: %w", err)
		}
	}

	return &S3Cache{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (c *S3Cache) key(t geo.Tile) string {
	return path.Join(c.prefix, tileKey(t))
}

// Get downloads a cached tile. A missing object is not an error.
func (c *S3Cache) Get(ctx context.Context, t geo.Tile) ([]byte, bool, error) {
	obj, err := c.client.GetObject(ctx, c.bucket, c.key(t), minio.GetObjectOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, len(data) > 0, nil
}

// Put uploads a tile.
func (c *S3Cache) Put(ctx context.Context, t geo.Tile, data []byte) error {
	_, err := c.client.PutObject(ctx, c.bucket, c.key(t), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "image/webp"})
	return err
}

type nopCache struct{}

func (nopCache) Get(context.Context, geo.Tile) ([]byte, bool, error) { return nil, false, nil }
func (nopCache) Put(context.Context, geo.Tile, []byte) error         { return nil }
