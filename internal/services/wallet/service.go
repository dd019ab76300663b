package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cardman/internal/models"
	"cardman/internal/services/catalog"
	"cardman/internal/store"
)

const statusActive = "active"

// mutableFields may be changed after the association exists.
var mutableFields = map[string]bool{
	"notes":            true,
	"card_status":      true,
	"last_four_digits": true,
}

// immutableFields identify the association and its creation moment.
var immutableFields = map[string]bool{
	"user_id":    true,
	"card_id":    true,
	"added_date": true,
}

type service struct {
	store   store.Store
	catalog catalog.Service
}

// NewService creates a new wallet service. The catalog service guards
// referential integrity on Add and feeds the enriched view.
func NewService(st store.Store, catalogSvc catalog.Service) Service {
	if st == nil {
		panic("store is required")
	}
	if catalogSvc == nil {
		panic("catalog service is required")
	}
	return &service{store: st, catalog: catalogSvc}
}

func (s *service) Add(ctx context.Context, userID, cardID, notes string) (models.Document, error) {
	if cardID == "" {
		return nil, ErrMissingCardID
	}

	// The referenced card must exist in the catalog. ErrCardNotFound
	// propagates as-is; the caller maps it to the right status.
	card, err := s.catalog.Get(ctx, cardID)
	if err != nil {
		return nil, err
	}

	// Read then write, same documented race as catalog create: two
	// concurrent adds can both pass and the second put wins.
	key := store.Key{Partition: userID, Sort: cardID}
	if _, err := s.store.Get(ctx, Collection, key); err == nil {
		return nil, ErrAlreadyInWallet
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check wallet entry: %w", err)
	}

	// card_name and bank are copied as of now; later catalog edits do
	// not flow back into the association.
	assoc := models.Document{
		"user_id":     userID,
		"card_id":     cardID,
		"card_name":   card.GetString("card_name"),
		"bank":        card.GetString("bank"),
		"added_date":  time.Now().Format(time.RFC3339),
		"card_status": statusActive,
		"notes":       notes,
	}
	if err := s.store.Put(ctx, Collection, key, assoc); err != nil {
		return nil, fmt.Errorf("add card %s to wallet: %w", cardID, err)
	}
	return assoc, nil
}

func (s *service) Get(ctx context.Context, userID, cardID string) (models.Document, error) {
	doc, err := s.store.Get(ctx, Collection, store.Key{Partition: userID, Sort: cardID})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotInWallet
		}
		return nil, fmt.Errorf("get wallet entry: %w", err)
	}
	return doc, nil
}

func (s *service) ListForUser(ctx context.Context, userID string) ([]models.Document, error) {
	items, err := s.store.Query(ctx, Collection, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("list wallet for %s: %w", userID, err)
	}
	return items, nil
}

func (s *service) ListActiveForUser(ctx context.Context, userID string) ([]models.Document, error) {
	items, err := s.store.Query(ctx, Collection, userID, func(doc models.Document) bool {
		return doc.GetString("card_status") == statusActive
	})
	if err != nil {
		return nil, fmt.Errorf("list active wallet for %s: %w", userID, err)
	}
	return items, nil
}

func (s *service) Update(ctx context.Context, userID, cardID string, patch models.Document) (models.Document, error) {
	if len(patch) == 0 {
		return nil, ErrEmptyUpdate
	}
	for field := range patch {
		if immutableFields[field] {
			return nil, fmt.Errorf("%w: %s", ErrImmutableField, field)
		}
		if !mutableFields[field] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
	}

	// No numeric normalization here: every mutable association field
	// is textual, and last_four_digits must keep leading zeros.
	key := store.Key{Partition: userID, Sort: cardID}
	doc, err := s.store.Merge(ctx, Collection, key, patch.Clone())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotInWallet
		}
		return nil, fmt.Errorf("update wallet entry: %w", err)
	}
	return doc, nil
}

func (s *service) Remove(ctx context.Context, userID, cardID string) error {
	key := store.Key{Partition: userID, Sort: cardID}
	if _, err := s.store.Get(ctx, Collection, key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotInWallet
		}
		return fmt.Errorf("check wallet entry: %w", err)
	}
	if err := s.store.Delete(ctx, Collection, key); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("remove card %s from wallet: %w", cardID, err)
	}
	return nil
}

// EnrichedForUser builds the read-only joined view: the catalog entry
// is the base record and association fields are overlaid on top. The
// join is tolerant: an association whose catalog entry was deleted is
// skipped rather than failing the listing, since the catalog is the
// source of truth.
func (s *service) EnrichedForUser(ctx context.Context, userID string) ([]models.Document, error) {
	assocs, err := s.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	enriched := make([]models.Document, 0, len(assocs))
	for _, assoc := range assocs {
		card, err := s.catalog.Get(ctx, assoc.GetString("card_id"))
		if errors.Is(err, catalog.ErrCardNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		entry := card.Clone()
		entry["user_notes"] = assoc.GetString("notes")
		entry["user_status"] = userStatus(assoc)
		entry["added_date"] = assoc.GetString("added_date")
		if lastFour, ok := assoc["last_four_digits"]; ok {
			entry["last_four_digits"] = lastFour
		}
		enriched = append(enriched, entry)
	}
	return enriched, nil
}

func userStatus(assoc models.Document) string {
	if status := assoc.GetString("card_status"); status != "" {
		return status
	}
	return statusActive
}
