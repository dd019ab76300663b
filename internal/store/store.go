// Package store defines the document-store contract the service is
// built against. Backends provide single-item atomicity only; there
// are no multi-item transactions.
package store

import (
	"context"
	"errors"

	"cardman/internal/models"
)

// ErrNotFound is the clean miss indicator shared by every backend.
var ErrNotFound = errors.New("item not found")

// Key addresses one item. Sort is empty for collections keyed by
// partition alone.
type Key struct {
	Partition string
	Sort      string
}

// Filter narrows Query and Scan results. It runs after the item has
// been read, mirroring how managed stores apply filter expressions.
type Filter func(models.Document) bool

// ScanOptions controls one page of a collection scan.
type ScanOptions struct {
	Cursor string
	Limit  int
	Filter Filter
}

// ScanPage is one page of scan results. An empty Cursor means the
// scan is exhausted.
type ScanPage struct {
	Items  []models.Document
	Cursor string
}

// Store is the key-value/document store consumed by the services.
type Store interface {
	// Get returns the item or ErrNotFound on a clean miss.
	Get(ctx context.Context, collection string, key Key) (models.Document, error)
	// Put upserts the item unconditionally.
	Put(ctx context.Context, collection string, key Key, doc models.Document) error
	// Merge applies a top-level field merge inside the store and
	// returns the merged item, or ErrNotFound when absent.
	Merge(ctx context.Context, collection string, key Key, patch models.Document) (models.Document, error)
	// Delete removes the item, or returns ErrNotFound when absent.
	Delete(ctx context.Context, collection string, key Key) error
	// Query returns every item sharing the partition key, in store
	// order, optionally filtered.
	Query(ctx context.Context, collection, partition string, filter Filter) ([]models.Document, error)
	// Scan returns one page of the collection.
	Scan(ctx context.Context, collection string, opts ScanOptions) (ScanPage, error)

	Ping(ctx context.Context) error
	Close() error
}
