// Package redisstore persists read-filter and entry-to-msg-map state
// to Redis as plain string keys, an alternative to the pg store for
// deployments that already run Redis and don't want a Postgres
// dependency just for a handful of small blobs.
//
// Grounded on cenackle's RedisFeedRepo: a struct wrapping *redis.Client
// plus a fixed key-prefix convention, context-first methods mirroring
// the go-redis/v9 API directly rather than hiding it behind a querier.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	readFilterPrefix = "fetchd:readfilter:"
	msgMapPrefix     = "fetchd:msgmap:"
	templatePrefix   = "fetchd:template:"
)

// Store is a Redis-backed key/blob store.
type Store struct {
	client *redis.Client
}

// Open connects to Redis at addr and verifies it's reachable with a PING.
func Open(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis store: ping: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) load(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis store: load %s: %w", key, err)
	}
	return data, true, nil
}

func (s *Store) save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis store: save %s: %w", key, err)
	}
	return nil
}

func (s *Store) LoadReadFilter(name string) ([]byte, bool, error) {
	return s.load(context.Background(), readFilterPrefix+name)
}

func (s *Store) SaveReadFilter(name string, data []byte) error {
	return s.save(context.Background(), readFilterPrefix+name, data)
}

func (s *Store) LoadMsgMap(name string) ([]byte, bool, error) {
	return s.load(context.Background(), msgMapPrefix+name)
}

func (s *Store) SaveMsgMap(name string, data []byte) error {
	return s.save(context.Background(), msgMapPrefix+name, data)
}

func (s *Store) LoadTemplate(name string) ([]byte, error) {
	data, found, err := s.load(context.Background(), templatePrefix+name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("redis store: template %q not found", name)
	}
	return data, nil
}
