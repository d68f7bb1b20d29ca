// Package cache provides the content-addressed extraction cache keyed by a
// 64-bit FNV-1a hash of (doc_type_tag, LocalCandidates). Two Store
// implementations are provided: a file-backed store (the spec-mandated
// default) and an optional Redis-backed store for multi-host deployments
// that want a shared cache instead of a local directory.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adverant/legalextract/internal/errors"
	"github.com/adverant/legalextract/internal/model"
)

// Store looks up and stores extraction results by content-addressed key.
type Store interface {
	Get(ctx context.Context, key string) (model.ExtractionResult, bool, error)
	Put(ctx context.Context, key string, result model.ExtractionResult) error
}

// Key computes the cache key for a (doc type tag, local candidates) pair:
// the lowercase hex FNV-1a 64-bit hash of "<tag>\n<candidates JSON>".
func Key(tag string, candidates model.LocalCandidates) (string, error) {
	payload, err := json.Marshal(candidates)
	if err != nil {
		return "", errors.New(errors.ParseError, "failed to marshal candidates for cache key", err)
	}
	h := fnv.New64a()
	h.Write([]byte(tag))
	h.Write([]byte("\n"))
	h.Write(payload)
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// FileStore stores one JSON file per key inside dir.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir. dir must already exist;
// config.Load creates it during validation.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Get(_ context.Context, key string) (model.ExtractionResult, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.New(errors.IOError, "failed to read cache entry", err)
	}
	var result model.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, errors.New(errors.ParseError, "failed to parse cache entry", err)
	}
	return result, true, nil
}

func (s *FileStore) Put(_ context.Context, key string, result model.ExtractionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return errors.New(errors.ParseError, "failed to marshal cache entry", err)
	}
	// Cache entries are content-addressed, so a rewrite of an existing key
	// stores the same bytes again. The write is a plain truncate-and-write:
	// a crash mid-write can leave a half-written file under the key, which
	// Get then reports as a ParseError; the orchestrator treats a Get error
	// as a miss rather than serving the entry.
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return errors.New(errors.IOError, "failed to write cache entry", err)
	}
	return nil
}

// RedisStore stores cache entries as string values in Redis, keyed by a
// fixed prefix plus the content-addressed key.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to the Redis instance named by rawURL (a
// redis://host:port/db style URL). Entries never expire (ttl 0) since keys
// are content-addressed and immutable once written.
func NewRedisStore(rawURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.New(errors.ConfigError, "failed to parse redis URL", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.New(errors.IOError, "failed to connect to redis cache", err)
	}

	return &RedisStore{client: client, prefix: "legalextract:cache:"}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (model.ExtractionResult, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.New(errors.IOError, "failed to read redis cache entry", err)
	}
	var result model.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, errors.New(errors.ParseError, "failed to parse redis cache entry", err)
	}
	return result, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, result model.ExtractionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return errors.New(errors.ParseError, "failed to marshal redis cache entry", err)
	}
	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return errors.New(errors.IOError, "failed to write redis cache entry", err)
	}
	return nil
}

// TieredStore checks each backing Store in order on Get (first hit wins) and
// writes through to all of them on Put, so a faster store (Redis) can front
// a slower, more durable one (the file store) without either one becoming a
// single point of failure.
type TieredStore struct {
	tiers []Store
}

// NewTieredStore returns a Store that fans Get/Put out across tiers, in the
// order given.
func NewTieredStore(tiers ...Store) *TieredStore {
	return &TieredStore{tiers: tiers}
}

func (s *TieredStore) Get(ctx context.Context, key string) (model.ExtractionResult, bool, error) {
	for _, tier := range s.tiers {
		result, hit, err := tier.Get(ctx, key)
		if err != nil {
			continue
		}
		if hit {
			return result, true, nil
		}
	}
	return nil, false, nil
}

func (s *TieredStore) Put(ctx context.Context, key string, result model.ExtractionResult) error {
	var firstErr error
	for _, tier := range s.tiers {
		if err := tier.Put(ctx, key, result); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
