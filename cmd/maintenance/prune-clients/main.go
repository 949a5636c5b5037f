package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/smarttransit/flight-search-web/internal/config"
	"github.com/smarttransit/flight-search-web/internal/database"
)

func main() {
	var dbURLFlag, driverFlag string
	var days int
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.StringVar(&driverFlag, "driver", "", "database driver: postgres or pgx (overrides DATABASE_DRIVER)")
	flag.IntVar(&days, "days", 365, "delete client identities not seen for this many days")
	flag.Parse()

	// Try loading .env from current working directory (optional)
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}
	driver := driverFlag
	if driver == "" {
		driver = os.Getenv("DATABASE_DRIVER")
	}
	if days <= 0 {
		log.Fatal("-days must be positive")
	}

	// Build minimal database config without loading full app config
	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		Driver:             driver,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo := database.NewClientIdentityRepository(db)
	cutoff := time.Now().AddDate(0, 0, -days)

	deleted, err := repo.DeleteInactiveBefore(ctx, cutoff)
	if err != nil {
		log.Fatalf("failed to prune client identities: %v", err)
	}
	remaining, err := repo.Count(ctx)
	if err != nil {
		log.Fatalf("failed to count client identities: %v", err)
	}

	fmt.Printf("Deleted %d client identities last seen before %s\n", deleted, cutoff.Format(time.RFC3339))
	fmt.Printf("Remaining client identities: %d\n", remaining)
}
