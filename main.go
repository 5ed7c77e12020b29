package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fizzcaps-server/handlers"
	"fizzcaps-server/middleware"
	"fizzcaps-server/models"
	"fizzcaps-server/services"
	"fizzcaps-server/storage"
	"fizzcaps-server/utils"
	"fizzcaps-server/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	// The service must not run without its signing key or a store.
	secretKey := os.Getenv("SERVER_SECRET_KEY")
	if secretKey == "" {
		log.Fatal("SERVER_SECRET_KEY environment variable not set")
	}
	signer, err := services.NewVoucherSignerFromBase58(secretKey)
	if err != nil {
		log.Fatal("invalid SERVER_SECRET_KEY: ", err)
	}
	log.Printf("🔑 Server signing pubkey: %s", signer.PublicKeyBase58())

	store := openStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.Ping(ctx); err != nil {
		log.Fatal("store unreachable at startup: ", err)
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	catalog := models.LoadCatalog(dataDir)

	playerService := services.NewPlayerService(store)
	claimService := &services.ClaimService{
		Players:  playerService,
		Catalog:  catalog,
		Engine:   services.NewProgressionEngine(),
		Geofence: services.NewGeofenceValidator(envFloat("CLAIM_RADIUS_M", services.DefaultClaimRadiusM)),
		Cooldown: services.NewCooldownLedger(store, time.Duration(envInt("COOLDOWN_SECONDS", 60))*time.Second),
		Signer:   signer,
	}

	// Loot metadata publishing is optional: without R2 credentials the
	// vouchers still work, the minted URIs just 404 until backfilled.
	if enabled, err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client: ", err)
	} else if enabled {
		publisher := workers.NewMetadataPublisher()
		publisher.Start(ctx)
		claimService.Metadata = publisher
	} else {
		log.Println("⚠️  R2 env not set — loot metadata publishing disabled")
	}

	playerService.StartRadDrainScheduler(ctx)

	app := fiber.New(fiber.Config{
		BodyLimit: 100 * 1024, // claim payloads are tiny
	})
	app.Use(middleware.GlobalRateLimiter())
	app.Use(cors.New())

	handlers.SetupRoutes(app, claimService, playerService, catalog)
	app.Static("/", "./public")

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Atomic Fizz Caps server LIVE on port %s", port)
	log.Printf("✅ Claim radius %.0fm, cooldown %ds",
		claimService.Geofence.RadiusM, envInt("COOLDOWN_SECONDS", 60))

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
	_ = store.Close()
}

// openStore picks the shared KV backend: Redis when REDIS_URL is set (the
// original deployment layout), else Postgres via DATABASE_URL.
func openStore() storage.Store {
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		store, err := storage.NewRedisStore(redisURL)
		if err != nil {
			log.Fatal("failed to open Redis store: ", err)
		}
		log.Println("🗄️ Using Redis store")
		return store
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		store, err := storage.NewPostgresStore(dsn)
		if err != nil {
			log.Fatal("failed to open Postgres store: ", err)
		}
		log.Println("🗄️ Using Postgres store")
		return store
	}
	log.Fatal("no store configured: set REDIS_URL or DATABASE_URL")
	return nil
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("⚠️  invalid %s=%q, using %d", name, v, fallback)
	}
	return fallback
}

func envFloat(name string, fallback float64) float64 {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("⚠️  invalid %s=%q, using %g", name, v, fallback)
	}
	return fallback
}
