// Package backend opens the store implementation named by the
// STORE_DRIVER environment variable.
package backend

import (
	"fmt"

	"cardman/internal/config"
	"cardman/internal/services/catalog"
	"cardman/internal/services/wallet"
	"cardman/internal/store"
	"cardman/internal/store/memstore"
	"cardman/internal/store/pgstore"
	"cardman/internal/store/redisstore"
)

// Open connects the configured backend. The postgres driver also runs
// collection migrations.
func Open() (store.Store, error) {
	switch driver := config.StoreDriver(); driver {
	case "redis":
		client := redisstore.NewClient(&redisstore.Config{
			Host:     config.GetEnv("REDIS_HOST", "localhost"),
			Port:     config.GetEnv("REDIS_PORT", "6379"),
			Password: config.GetEnv("REDIS_PASSWORD", ""),
			DB:       config.GetIntEnv("REDIS_DB", 0),
		})
		return redisstore.New(client), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			config.GetEnv("DB_HOST", "localhost"),
			config.GetEnv("DB_USER", "postgres"),
			config.GetEnv("DB_PASSWORD", "postgres"),
			config.GetEnv("DB_NAME", "cardman"),
			config.GetEnv("DB_PORT", "5432"),
			config.GetEnv("DB_SSLMODE", "disable"),
		)
		st, err := pgstore.Open(dsn)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(catalog.Collection, wallet.Collection); err != nil {
			return nil, err
		}
		return st, nil
	case "memory":
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
