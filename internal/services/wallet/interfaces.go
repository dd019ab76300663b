package wallet

import (
	"context"

	"cardman/internal/models"
)

// Collection is the store collection holding wallet associations,
// keyed by (user_id, card_id).
const Collection = "user_cards"

// Service defines the wallet operations.
type Service interface {
	Add(ctx context.Context, userID, cardID, notes string) (models.Document, error)
	Get(ctx context.Context, userID, cardID string) (models.Document, error)
	ListForUser(ctx context.Context, userID string) ([]models.Document, error)
	ListActiveForUser(ctx context.Context, userID string) ([]models.Document, error)
	Update(ctx context.Context, userID, cardID string, patch models.Document) (models.Document, error)
	Remove(ctx context.Context, userID, cardID string) error

	// EnrichedForUser joins each association with its full catalog
	// entry. Associations whose catalog entry is gone are dropped.
	EnrichedForUser(ctx context.Context, userID string) ([]models.Document, error)
}
