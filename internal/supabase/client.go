// Package supabase talks to a Supabase project: PostgREST for the articles and
// comments tables, Storage for the audio bucket.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"
	storage_go "github.com/supabase-community/storage-go"
)

const defaultTimeout = 30 * time.Second

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Config captures the project URL and key.
type Config struct {
	URL     string
	Key     string
	Timeout time.Duration
}

// Client holds the REST and storage clients of one Supabase project.
type Client struct {
	baseURL string
	timeout time.Duration
	rest    *postgrest.Client
	storage *storage_go.Client
}

// NewClient validates cfg and constructs a client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	key := strings.TrimSpace(cfg.Key)
	if base == "" {
		return nil, errors.New("supabase client: url required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("supabase client: invalid url: %w", err)
	}
	if key == "" {
		return nil, errors.New("supabase client: key required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rest := postgrest.NewClient(base+"/rest/v1", "public", nil)
	if rest.ClientError != nil {
		return nil, fmt.Errorf("supabase client: rest: %w", rest.ClientError)
	}
	rest.SetApiKey(key).SetAuthToken(key)

	return &Client{
		baseURL: base,
		timeout: timeout,
		rest:    rest,
		storage: storage_go.NewClient(base+"/storage/v1", key, map[string]string{"apikey": key}),
	}, nil
}

// await runs fn, a blocking SDK call without context support, and gives up
// when ctx ends or the client timeout elapses. The call keeps running in the
// background in that case; its result is discarded.
func (c *Client) await(ctx context.Context, op string, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
}
