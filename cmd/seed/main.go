// Command seed loads a small demo catalog and one demo wallet into the
// configured store. Re-running it skips anything already present.
package main

import (
	"context"
	"errors"
	"log"
	"time"

	"cardman/internal/config"
	"cardman/internal/models"
	"cardman/internal/services/catalog"
	"cardman/internal/services/wallet"
	"cardman/internal/store/backend"
)

func main() {
	config.LoadEnv()

	st, err := backend.Open()
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("⚠️ Failed to close store: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	catalogService := catalog.NewService(st)
	walletService := wallet.NewService(st, catalogService)

	cards := []models.Document{
		{
			"card_id":    "chase-sapphire-preferred",
			"card_name":  "Chase Sapphire Preferred",
			"bank":       "Chase",
			"card_type":  "Credit Card",
			"annual_fee": int64(95),
			"cashback_categories": models.Document{
				"dining":    models.Document{"rate": int64(3), "description": "3x points on dining"},
				"travel":    models.Document{"rate": int64(3), "description": "3x points on travel"},
				"streaming": models.Document{"rate": int64(3), "description": "3x points on streaming"},
				"default":   models.Document{"rate": int64(1), "description": "1x points on everything else"},
			},
			"signup_bonus": "60000 points",
			"benefits":     []any{"Travel insurance", "Rental car insurance", "Priority Pass"},
			"image_url":    "https://example.com/chase-sapphire.jpg",
		},
		{
			"card_id":    "amex-gold",
			"card_name":  "American Express Gold Card",
			"bank":       "American Express",
			"card_type":  "Credit Card",
			"annual_fee": int64(250),
			"cashback_categories": models.Document{
				"dining":  models.Document{"rate": int64(4), "description": "4x points on dining"},
				"grocery": models.Document{"rate": int64(4), "description": "4x points at supermarkets"},
				"default": models.Document{"rate": int64(1), "description": "1x points on everything else"},
			},
			"signup_bonus": "60000 points",
			"benefits":     []any{"Dining credits", "Grocery points", "Uber credits"},
			"image_url":    "https://example.com/amex-gold.jpg",
		},
	}

	for _, card := range cards {
		id := card.GetString("card_id")
		if _, err := catalogService.Create(ctx, card); err != nil {
			if errors.Is(err, catalog.ErrCardExists) {
				log.Printf("Card %s already exists, skipping", id)
				continue
			}
			log.Fatalf("Failed to create card %s: %v", id, err)
		}
		log.Printf("✅ Created card %s", id)
	}

	userID := config.GetEnv("DEMO_USER", "user-001")
	demoWallet := map[string]string{
		"chase-sapphire-preferred": "Main travel card",
		"amex-gold":                "Dining and groceries",
	}
	for cardID, notes := range demoWallet {
		if _, err := walletService.Add(ctx, userID, cardID, notes); err != nil {
			if errors.Is(err, wallet.ErrAlreadyInWallet) {
				log.Printf("User %s already has %s, skipping", userID, cardID)
				continue
			}
			log.Fatalf("Failed to add %s to wallet: %v", cardID, err)
		}
		log.Printf("✅ Added %s to %s's wallet", cardID, userID)
	}

	log.Println("✅ Seed completed")
}
