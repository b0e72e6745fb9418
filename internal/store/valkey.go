package store

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

// Valkey stores values in a Valkey (redis-compatible) server.
type Valkey struct {
	client valkey.Client
}

// NewValkey creates a valkey client for addr.
func NewValkey(addr, pass string, db int) (*Valkey, error) {
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
		Password:    pass,
		SelectDB:    db,
		// only Do is used; client side caching needs CLIENT TRACKING on the server
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Valkey{client: client}, nil
}

// Get returns the value for key; a missing key is not an error.
func (v *Valkey) Get(ctx context.Context, key string) (string, bool, error) {
	s, err := v.client.Do(ctx, v.client.B().Get().Key(key).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

// Set stores value under key.
func (v *Valkey) Set(ctx context.Context, key, value string) error {
	return v.client.Do(ctx, v.client.B().Set().Key(key).Value(value).Build()).Error()
}

// Close releases the client.
func (v *Valkey) Close() error {
	v.client.Close()
	return nil
}
