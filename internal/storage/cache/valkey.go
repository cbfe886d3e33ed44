package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyBackend is a Backend on a Valkey (or Redis) server.
type ValkeyBackend struct {
	client valkey.Client
}

// ValkeyOptions locates the server.
type ValkeyOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewValkeyBackend connects and pings the server.
func NewValkeyBackend(ctx context.Context, opts ValkeyOptions) (*ValkeyBackend, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{opts.Addr},
		Password:    opts.Password,
		SelectDB:    opts.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}

	b := &ValkeyBackend{client: client}
	if err := b.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping valkey: %w", err)
	}
	return b, nil
}

func (b *ValkeyBackend) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := b.client.Do(ctx, b.client.B().Get().Key(key).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (b *ValkeyBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return b.client.Do(ctx, b.client.B().Set().Key(key).Value(value).ExSeconds(seconds).Build()).Error()
}

func (b *ValkeyBackend) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return b.client.Do(ctx, b.client.B().Del().Key(keys...).Build()).Error()
}

func (b *ValkeyBackend) Incr(ctx context.Context, key string) (int64, error) {
	return b.client.Do(ctx, b.client.B().Incr().Key(key).Build()).AsInt64()
}

func (b *ValkeyBackend) Ping(ctx context.Context) error {
	return b.client.Do(ctx, b.client.B().Ping().Build()).Error()
}

func (b *ValkeyBackend) Close() {
	b.client.Close()
}
