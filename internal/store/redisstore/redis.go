// Package redisstore backs the document store with Redis: one JSON
// value per item, a set per partition for key queries, and SCAN
// cursors as continuation tokens.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"cardman/internal/models"
	"cardman/internal/store"
)

const defaultPageSize = 100

// mergeAttempts bounds optimistic retries when the watched key changes
// between read and write inside Merge.
const mergeAttempts = 3

type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewClient(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func itemKey(collection string, key store.Key) string {
	if key.Sort == "" {
		return fmt.Sprintf("%s:item:%s", collection, key.Partition)
	}
	return fmt.Sprintf("%s:item:%s:%s", collection, key.Partition, key.Sort)
}

func partitionKey(collection, partition string) string {
	return fmt.Sprintf("%s:part:%s", collection, partition)
}

func (s *Store) Get(ctx context.Context, collection string, key store.Key) (models.Document, error) {
	data, err := s.client.Get(ctx, itemKey(collection, key)).Bytes()
	if err == redis.Nil {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return models.DecodeJSON(data)
}

func (s *Store) Put(ctx context.Context, collection string, key store.Key, doc models.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, itemKey(collection, key), data, 0)
		if key.Sort != "" {
			pipe.SAdd(ctx, partitionKey(collection, key.Partition), key.Sort)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

func (s *Store) Merge(ctx context.Context, collection string, key store.Key, patch models.Document) (models.Document, error) {
	k := itemKey(collection, key)
	var merged models.Document

	apply := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, k).Bytes()
		if err == redis.Nil {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		doc, err := models.DecodeJSON(data)
		if err != nil {
			return err
		}
		for field, value := range patch {
			doc[field] = value
		}
		out, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, out, 0)
			return nil
		})
		if err != nil {
			return err
		}
		merged = doc
		return nil
	}

	var err error
	for i := 0; i < mergeAttempts; i++ {
		err = s.client.Watch(ctx, apply, k)
		if err != redis.TxFailedErr {
			break
		}
	}
	if err != nil {
		if err == store.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("redis merge: %w", err)
	}
	return merged, nil
}

func (s *Store) Delete(ctx context.Context, collection string, key store.Key) error {
	removed, err := s.client.Del(ctx, itemKey(collection, key)).Result()
	if err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	if removed == 0 {
		return store.ErrNotFound
	}
	if key.Sort != "" {
		if err := s.client.SRem(ctx, partitionKey(collection, key.Partition), key.Sort).Err(); err != nil {
			return fmt.Errorf("redis delete index: %w", err)
		}
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection, partition string, filter store.Filter) ([]models.Document, error) {
	sorts, err := s.client.SMembers(ctx, partitionKey(collection, partition)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis query: %w", err)
	}
	sort.Strings(sorts)

	items := make([]models.Document, 0, len(sorts))
	for _, sk := range sorts {
		doc, err := s.Get(ctx, collection, store.Key{Partition: partition, Sort: sk})
		if err == store.ErrNotFound {
			// Stale index member; the item itself is gone.
			continue
		}
		if err != nil {
			return nil, err
		}
		if filter != nil && !filter(doc) {
			continue
		}
		items = append(items, doc)
	}
	return items, nil
}

func (s *Store) Scan(ctx context.Context, collection string, opts store.ScanOptions) (store.ScanPage, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	cursor, err := parseCursor(opts.Cursor)
	if err != nil {
		return store.ScanPage{}, err
	}

	keys, next, err := s.client.Scan(ctx, cursor, collection+":item:*", int64(limit)).Result()
	if err != nil {
		return store.ScanPage{}, fmt.Errorf("redis scan: %w", err)
	}

	page := store.ScanPage{}
	if next != 0 {
		page.Cursor = strconv.FormatUint(next, 10)
	}
	if len(keys) == 0 {
		return page, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return store.ScanPage{}, fmt.Errorf("redis scan fetch: %w", err)
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Deleted between SCAN and MGET.
			continue
		}
		doc, err := models.DecodeJSON([]byte(raw))
		if err != nil {
			return store.ScanPage{}, err
		}
		if opts.Filter != nil && !opts.Filter(doc) {
			continue
		}
		page.Items = append(page.Items, doc)
	}
	return page, nil
}

func parseCursor(cursor string) (uint64, error) {
	if cursor == "" {
		return 0, nil
	}
	c, err := strconv.ParseUint(cursor, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad scan cursor %q", cursor)
	}
	return c, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
