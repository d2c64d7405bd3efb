// Package sectionstore keeps section parameter caches in Redis so they
// survive reconnects and are shared by every server instance.
package sectionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/vango-dev/ladderpulse/pkg/nav"
)

// DefaultPrefix is prepended to every key.
const DefaultPrefix = "ladderpulse:section:"

// Store implements nav.SectionStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ nav.SectionStore = (*Store)(nil)

type Option func(*Store)

// WithTTL sets the expiration of cached sections. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Scoped returns a store sharing the client whose keys live under scope,
// typically a session id.
func (s *Store) Scoped(scope string) *Store {
	return &Store{
		client: s.client,
		prefix: s.prefix + scope + ":",
		ttl:    s.ttl,
	}
}

func (s *Store) key(section string) string {
	return s.prefix + section
}

// Get returns the cached query of a section.
func (s *Store) Get(ctx context.Context, section string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(section)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("sectionstore: get %q: %w", section, err)
	}
	return val, true, nil
}

// Put stores the query of a section, refreshing its TTL.
func (s *Store) Put(ctx context.Context, section, query string) error {
	if err := s.client.Set(ctx, s.key(section), query, s.ttl).Err(); err != nil {
		return fmt.Errorf("sectionstore: put %q: %w", section, err)
	}
	return nil
}

// Delete forgets a section.
func (s *Store) Delete(ctx context.Context, section string) error {
	return s.client.Del(ctx, s.key(section)).Err()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client. Scoped stores share it.
func (s *Store) Close() error {
	return s.client.Close()
}
