// Command seed loads a catalog JSON export (an array of creatures) into the database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/DoyleJ11/pokeguess-backend/internal/catalog"
	"github.com/DoyleJ11/pokeguess-backend/internal/database"
	"github.com/DoyleJ11/pokeguess-backend/internal/logging"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	input := flag.String("input", "pokemon.json", "catalog file to import")
	driver := flag.String("driver", envOr("DB_DRIVER", database.DriverSQLite), "database driver (postgres|sqlite)")
	dsn := flag.String("dsn", envOr("DATABASE_URL", "file:pokeguess.db?_foreign_keys=on"), "database connection string")
	flag.Parse()

	log, err := logging.New("info", true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	n, err := seed(*input, database.Options{Driver: *driver, DSN: *dsn})
	if err != nil {
		log.Fatal("seed failed", zap.String("input", *input), zap.Error(err))
	}
	log.Info("catalog seeded", zap.String("input", *input), zap.Int("pokemon", n))
}

func seed(path string, opts database.Options) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var creatures []catalog.Creature
	if err := json.Unmarshal(raw, &creatures); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	db, err := database.Open(opts)
	if err != nil {
		return 0, err
	}
	if err := database.AutoMigrate(db, &catalog.Creature{}); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := catalog.NewRepository(db).Upsert(ctx, creatures); err != nil {
		return 0, err
	}
	return len(creatures), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
