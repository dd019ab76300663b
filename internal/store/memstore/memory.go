// Package memstore is an in-memory store backend used by tests and
// local development. Iteration order is deterministic (sorted keys) so
// scan cursors behave like a real backend's continuation tokens.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"cardman/internal/models"
	"cardman/internal/store"
)

// keySep joins partition and sort key into one map key. NUL cannot
// appear in identifiers coming off the wire.
const keySep = "\x00"

const defaultPageSize = 100

// Store is a mutex-guarded map of collections. The zero value is not
// usable; call New.
type Store struct {
	// PageSize caps Scan pages when ScanOptions.Limit is zero. Tests
	// shrink it to exercise cursor handling.
	PageSize int

	mu   sync.RWMutex
	data map[string]map[string]models.Document
}

func New() *Store {
	return &Store{
		PageSize: defaultPageSize,
		data:     make(map[string]map[string]models.Document),
	}
}

func compositeKey(k store.Key) string {
	return k.Partition + keySep + k.Sort
}

func (s *Store) Get(ctx context.Context, collection string, key store.Key) (models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.data[collection][compositeKey(key)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *Store) Put(ctx context.Context, collection string, key store.Key, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]models.Document)
	}
	s.data[collection][compositeKey(key)] = doc.Clone()
	return nil
}

func (s *Store) Merge(ctx context.Context, collection string, key store.Key, patch models.Document) (models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.data[collection][compositeKey(key)]
	if !ok {
		return nil, store.ErrNotFound
	}
	merged := doc.Clone()
	for field, value := range patch.Clone() {
		merged[field] = value
	}
	s.data[collection][compositeKey(key)] = merged
	return merged.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, collection string, key store.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[collection][compositeKey(key)]; !ok {
		return store.ErrNotFound
	}
	delete(s.data[collection], compositeKey(key))
	return nil
}

func (s *Store) Query(ctx context.Context, collection, partition string, filter store.Filter) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefix := partition + keySep
	items := make([]models.Document, 0)
	for _, k := range s.sortedKeys(collection) {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		doc := s.data[collection][k]
		if filter != nil && !filter(doc) {
			continue
		}
		items = append(items, doc.Clone())
	}
	return items, nil
}

func (s *Store) Scan(ctx context.Context, collection string, opts store.ScanOptions) (store.ScanPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = s.PageSize
	}

	var page store.ScanPage
	seen := 0
	for _, k := range s.sortedKeys(collection) {
		if opts.Cursor != "" && k <= opts.Cursor {
			continue
		}
		if seen == limit {
			// More keys remain past this page; Cursor already holds
			// the last key visited.
			return page, nil
		}
		seen++
		doc := s.data[collection][k]
		if opts.Filter != nil && !opts.Filter(doc) {
			// Filtered items still consume page capacity, like a
			// store-side filter expression would.
			page.Cursor = k
			continue
		}
		page.Cursor = k
		page.Items = append(page.Items, doc.Clone())
	}
	page.Cursor = ""
	return page, nil
}

func (s *Store) sortedKeys(collection string) []string {
	keys := make([]string, 0, len(s.data[collection]))
	for k := range s.data[collection] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }
