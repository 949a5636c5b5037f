package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smarttransit/flight-search-web/internal/config"
	"github.com/smarttransit/flight-search-web/internal/database"
	"github.com/smarttransit/flight-search-web/internal/models"
	"github.com/smarttransit/flight-search-web/pkg/flightsapi"
	"github.com/smarttransit/flight-search-web/pkg/jwt"
)

func main() {
	fmt.Println("🧪 Flight Search Services Integration Test")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	fmt.Println("✅ Configuration loaded")
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// Test 1: Cookie signing
	testCookieSigner(cfg)

	// Test 2: Flights backend
	testFlightsBackend(ctx, cfg)

	// Test 3: Client registry
	testRegistry(ctx, cfg)

	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("✅ All integration tests completed successfully!")
}

func testCookieSigner(cfg *config.Config) {
	fmt.Println("🔐 Testing cookie signer")
	fmt.Println("------------------------")

	signer := jwt.NewService(cfg.Cookie.Secret, 0)
	clientID := uuid.NewString()

	token, err := signer.SignSlot("userId", clientID)
	if err != nil {
		log.Fatalf("  ❌ Sign failed: %v", err)
	}
	value, err := signer.VerifySlot(token, "userId")
	if err != nil || value != clientID {
		log.Fatalf("  ❌ Verify failed: %v", err)
	}
	fmt.Printf("  ✅ Round trip: %s\n\n", clientID)
}

func testFlightsBackend(ctx context.Context, cfg *config.Config) {
	fmt.Println("✈️  Testing flights backend")
	fmt.Println("--------------------------")

	client := flightsapi.NewClient(cfg.FlightsAPI.BaseURL, cfg.FlightsAPI.Timeout)

	airports, err := client.ListAirports(ctx)
	if err != nil {
		log.Fatalf("  ❌ List airports failed: %v", err)
	}
	fmt.Printf("  ✅ %d airports from %s\n", len(airports), client.BaseURL())

	if len(airports) < 2 {
		fmt.Println("  ⚠️  Fewer than two airports, skipping flight search")
		fmt.Println()
		return
	}

	query := models.SearchQuery{
		Origin:      airports[0].Code,
		Destination: airports[1].Code,
		TripDate:    time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
		Travellers:  models.DefaultTravellers,
	}
	data, err := client.SearchFlights(ctx, flightsapi.FlightQuery{
		Trips:      query.Trips(),
		TripDate:   query.TripDate,
		Travellers: query.Travellers,
	})
	if err != nil {
		fmt.Printf("  ⚠️  Flight search failed (non-fatal): %v\n\n", err)
		return
	}
	fmt.Printf("  ✅ Flight search %s returned %d bytes\n", query.Trips(), len(data))
	fmt.Printf("  ✅ Results route: %s\n\n", query.ResultsURL())
}

func testRegistry(ctx context.Context, cfg *config.Config) {
	fmt.Println("🗂  Testing client registry")
	fmt.Println("--------------------------")

	now := time.Now()
	identity := models.ClientIdentity{
		ClientID:    uuid.NewString(),
		DeviceType:  "desktop",
		OS:          "Unknown",
		Browser:     "integration-test",
		Platform:    "unknown",
		FirstSeenAt: now,
		LastSeenAt:  now,
	}

	switch cfg.Registry.Backend {
	case config.RegistryPostgres:
		db, err := database.NewConnection(cfg.Database)
		if err != nil {
			log.Fatalf("  ❌ Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("  ❌ Migration failed: %v", err)
		}
		repo := database.NewClientIdentityRepository(db)
		if err := repo.RecordClient(ctx, identity); err != nil {
			log.Fatalf("  ❌ Record failed: %v", err)
		}
		stored, err := repo.GetByClientID(ctx, identity.ClientID)
		if err != nil {
			log.Fatalf("  ❌ Read back failed: %v", err)
		}
		fmt.Printf("  ✅ Postgres registry stored %s (%s)\n\n", stored.ClientID, stored.Browser)

	case config.RegistryRedis:
		client, err := database.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("  ❌ Failed to connect to redis: %v", err)
		}
		defer client.Close()

		registry := database.NewRedisClientRegistry(client, time.Minute)
		if err := registry.RecordClient(ctx, identity); err != nil {
			log.Fatalf("  ❌ Record failed: %v", err)
		}
		fmt.Printf("  ✅ Redis registry stored %s\n\n", identity.ClientID)

	default:
		fmt.Println("  ⚠️  REGISTRY_BACKEND=none, skipping")
		fmt.Println()
	}
}
