package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cardman/internal/models"
	"cardman/internal/store"
)

// requiredFields must be present on create.
var requiredFields = []string{"card_id", "card_name", "bank", "cashback_categories"}

// allowedFields is the full field set a catalog entry may carry.
// Unknown caller fields are rejected instead of persisted verbatim.
var allowedFields = map[string]bool{
	"card_id":             true,
	"card_name":           true,
	"bank":                true,
	"card_type":           true,
	"annual_fee":          true,
	"cashback_categories": true,
	"signup_bonus":        true,
	"benefits":            true,
	"image_url":           true,
}

// immutableFields are set once at create and never merged over.
var immutableFields = map[string]bool{
	"card_id":    true,
	"created_at": true,
}

type service struct {
	store store.Store
}

// NewService creates a new catalog service.
func NewService(st store.Store) Service {
	if st == nil {
		panic("store is required")
	}
	return &service{store: st}
}

func (s *service) Create(ctx context.Context, input models.Document) (models.Document, error) {
	for _, field := range requiredFields {
		if _, ok := input[field]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}
	for field := range input {
		if !allowedFields[field] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
	}
	cardID, ok := input["card_id"].(string)
	if !ok || cardID == "" {
		return nil, fmt.Errorf("%w: card_id", ErrMissingField)
	}

	// Read then write: two store calls, so two concurrent creates of
	// the same id can both pass this check and the second write wins.
	key := store.Key{Partition: cardID}
	if _, err := s.store.Get(ctx, Collection, key); err == nil {
		return nil, ErrCardExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check card %s: %w", cardID, err)
	}

	doc := models.NormalizeDocument(input)
	// Identity stays textual regardless of how numeric it looks.
	doc["card_id"] = cardID
	doc["created_at"] = time.Now().Format(time.RFC3339)

	if err := s.store.Put(ctx, Collection, key, doc); err != nil {
		return nil, fmt.Errorf("create card %s: %w", cardID, err)
	}
	return doc, nil
}

func (s *service) Get(ctx context.Context, cardID string) (models.Document, error) {
	doc, err := s.store.Get(ctx, Collection, store.Key{Partition: cardID})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("get card %s: %w", cardID, err)
	}
	return doc, nil
}

// List returns every catalog entry, following scan continuation until
// the store is exhausted. Order is whatever the store scan yields.
func (s *service) List(ctx context.Context) ([]models.Document, error) {
	return s.scanAll(ctx, nil)
}

func (s *service) Update(ctx context.Context, cardID string, patch models.Document) (models.Document, error) {
	if len(patch) == 0 {
		return nil, ErrEmptyUpdate
	}
	for field := range patch {
		if immutableFields[field] {
			return nil, fmt.Errorf("%w: %s", ErrImmutableField, field)
		}
		if !allowedFields[field] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
	}

	doc, err := s.store.Merge(ctx, Collection, store.Key{Partition: cardID}, models.NormalizeDocument(patch))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("update card %s: %w", cardID, err)
	}
	return doc, nil
}

func (s *service) Delete(ctx context.Context, cardID string) error {
	key := store.Key{Partition: cardID}
	if _, err := s.store.Get(ctx, Collection, key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCardNotFound
		}
		return fmt.Errorf("check card %s: %w", cardID, err)
	}
	if err := s.store.Delete(ctx, Collection, key); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete card %s: %w", cardID, err)
	}
	return nil
}

// BestForCategory scans the catalog and keeps the first entry whose
// rate strictly exceeds the running maximum, so the first of equal
// maxima wins and a rate of zero can never be selected.
func (s *service) BestForCategory(ctx context.Context, category string) (models.Document, error) {
	cards, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var best models.Document
	highest := decimal.Zero
	for _, card := range cards {
		entry, ok := categoryEntry(card, category)
		if !ok {
			continue
		}
		rate := rateOf(entry["rate"])
		if rate.GreaterThan(highest) {
			highest = rate
			best = card
		}
	}
	if best == nil {
		return nil, ErrNoCardForCategory
	}
	return best, nil
}

func (s *service) SearchByCategory(ctx context.Context, category string) ([]models.Document, error) {
	return s.scanAll(ctx, func(doc models.Document) bool {
		_, ok := categoryEntry(doc, category)
		return ok
	})
}

func (s *service) scanAll(ctx context.Context, filter store.Filter) ([]models.Document, error) {
	cards := make([]models.Document, 0)
	cursor := ""
	for {
		page, err := s.store.Scan(ctx, Collection, store.ScanOptions{Cursor: cursor, Filter: filter})
		if err != nil {
			return nil, fmt.Errorf("scan cards: %w", err)
		}
		cards = append(cards, page.Items...)
		if page.Cursor == "" {
			return cards, nil
		}
		cursor = page.Cursor
	}
}

func categoryEntry(card models.Document, category string) (models.Document, bool) {
	cats, ok := card["cashback_categories"].(models.Document)
	if !ok {
		return nil, false
	}
	entry, ok := cats[category].(models.Document)
	return entry, ok
}

// rateOf coerces a stored rate to a decimal for comparison. Anything
// non-numeric counts as zero, which never wins.
func rateOf(v any) decimal.Decimal {
	switch t := v.(type) {
	case decimal.Decimal:
		return t
	case int64:
		return decimal.NewFromInt(t)
	case int:
		return decimal.NewFromInt(int64(t))
	default:
		return decimal.Zero
	}
}
