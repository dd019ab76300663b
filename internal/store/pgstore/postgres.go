// Package pgstore backs the document store with Postgres: one table
// per collection holding (pk, sk, doc jsonb). Merge happens inside the
// database with the jsonb concatenation operator, and Scan pages with
// keyset pagination over the primary key.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"cardman/internal/models"
	"cardman/internal/store"
)

const defaultPageSize = 100

// cursorSep joins pk and sk inside a scan cursor.
const cursorSep = "\x00"

type record struct {
	PK  string          `gorm:"column:pk;primaryKey"`
	SK  string          `gorm:"column:sk;primaryKey"`
	Doc models.Document `gorm:"column:doc;type:jsonb"`
}

type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// Migrate creates the backing table for each collection.
func (s *Store) Migrate(collections ...string) error {
	for _, c := range collections {
		if err := s.db.Table(c).AutoMigrate(&record{}); err != nil {
			return fmt.Errorf("migrate %s: %w", c, err)
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection string, key store.Key) (models.Document, error) {
	var rec record
	err := s.db.WithContext(ctx).Table(collection).
		Where("pk = ? AND sk = ?", key.Partition, key.Sort).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get: %w", err)
	}
	return rec.Doc, nil
}

func (s *Store) Put(ctx context.Context, collection string, key store.Key, doc models.Document) error {
	rec := record{PK: key.Partition, SK: key.Sort, Doc: doc}
	err := s.db.WithContext(ctx).Table(collection).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pk"}, {Name: "sk"}},
			DoUpdates: clause.AssignmentColumns([]string{"doc"}),
		}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("postgres put: %w", err)
	}
	return nil
}

func (s *Store) Merge(ctx context.Context, collection string, key store.Key, patch models.Document) (models.Document, error) {
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("marshal patch: %w", err)
	}
	res := s.db.WithContext(ctx).Table(collection).
		Where("pk = ? AND sk = ?", key.Partition, key.Sort).
		UpdateColumn("doc", gorm.Expr("doc || ?::jsonb", string(patchJSON)))
	if res.Error != nil {
		return nil, fmt.Errorf("postgres merge: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return s.Get(ctx, collection, key)
}

func (s *Store) Delete(ctx context.Context, collection string, key store.Key) error {
	res := s.db.WithContext(ctx).Table(collection).
		Where("pk = ? AND sk = ?", key.Partition, key.Sort).
		Delete(&record{})
	if res.Error != nil {
		return fmt.Errorf("postgres delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection, partition string, filter store.Filter) ([]models.Document, error) {
	var recs []record
	err := s.db.WithContext(ctx).Table(collection).
		Where("pk = ?", partition).
		Order("sk").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("postgres query: %w", err)
	}
	items := make([]models.Document, 0, len(recs))
	for _, rec := range recs {
		if filter != nil && !filter(rec.Doc) {
			continue
		}
		items = append(items, rec.Doc)
	}
	return items, nil
}

func (s *Store) Scan(ctx context.Context, collection string, opts store.ScanOptions) (store.ScanPage, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	q := s.db.WithContext(ctx).Table(collection).Order("pk, sk").Limit(limit)
	if opts.Cursor != "" {
		pk, sk, ok := strings.Cut(opts.Cursor, cursorSep)
		if !ok {
			return store.ScanPage{}, fmt.Errorf("bad scan cursor %q", opts.Cursor)
		}
		q = q.Where("(pk, sk) > (?, ?)", pk, sk)
	}

	var recs []record
	if err := q.Find(&recs).Error; err != nil {
		return store.ScanPage{}, fmt.Errorf("postgres scan: %w", err)
	}

	var page store.ScanPage
	if len(recs) == limit {
		last := recs[len(recs)-1]
		page.Cursor = last.PK + cursorSep + last.SK
	}
	for _, rec := range recs {
		if opts.Filter != nil && !opts.Filter(rec.Doc) {
			continue
		}
		page.Items = append(page.Items, rec.Doc)
	}
	return page, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
