package catalog

import (
	"context"

	"cardman/internal/models"
)

// Collection is the store collection holding catalog entries, keyed by
// card_id alone.
const Collection = "cards"

// Service manages the card product catalog.
type Service interface {
	Create(ctx context.Context, input models.Document) (models.Document, error)
	Get(ctx context.Context, cardID string) (models.Document, error)
	List(ctx context.Context) ([]models.Document, error)
	Update(ctx context.Context, cardID string, patch models.Document) (models.Document, error)
	Delete(ctx context.Context, cardID string) error

	// BestForCategory returns the catalog entry with the highest
	// cashback rate for the category.
	BestForCategory(ctx context.Context, category string) (models.Document, error)
	// SearchByCategory returns every entry that lists the category.
	SearchByCategory(ctx context.Context, category string) ([]models.Document, error)
}
