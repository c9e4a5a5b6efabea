package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"match-stats-system/cache"
	"match-stats-system/handlers"
	"match-stats-system/middleware"
	"match-stats-system/models"
	"match-stats-system/services"
	"match-stats-system/store"
	"match-stats-system/workers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := fiber.New()
	app.Use(middleware.RequestLogger(logger))

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	origins := strings.Split(allowedOrigins, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))

	// Relational store for per-player rating counters.
	var db *gorm.DB
	var err error
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	} else {
		log.Println("⚠️  DATABASE_URL not set, using local sqlite database")
		db, err = gorm.Open(sqlite.Open("match_stats.db"), &gorm.Config{})
	}
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	if err := db.AutoMigrate(&models.PlayerStats{}); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// Document store for matches and participants.
	var docStore store.Store
	if projectID := os.Getenv("FIRESTORE_PROJECT_ID"); projectID != "" {
		fs, err := store.NewFirestoreStore(ctx, projectID)
		if err != nil {
			log.Fatal("failed to connect to firestore:", err)
		}
		defer fs.Close()
		docStore = fs
	} else {
		log.Println("⚠️  FIRESTORE_PROJECT_ID not set, using in-memory match store")
		docStore = store.NewMemoryStore()
	}

	// Result cache: redis when configured, in-process otherwise.
	var backend cache.Backend
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		backend = cache.NewRedisBackend(redis.NewClient(&redis.Options{Addr: addr}))
	} else {
		log.Println("⚠️  REDIS_ADDR not set, using in-memory result cache")
		backend = cache.NewMemoryBackend()
	}

	settings := cache.DefaultSettings
	if path := os.Getenv("CACHE_CONFIG"); path != "" {
		loaded, err := cache.LoadSettings(path)
		if err != nil {
			log.Printf("⚠️  Failed to load cache config %s, using defaults: %v", path, err)
		} else {
			settings = loaded
		}
	}
	resultCache := cache.New(backend, settings, logger)

	bus := cache.NewInvalidationBus(64, logger)
	go bus.Run(ctx, resultCache)

	players := services.NewPlayerService(db, logger)
	matches := services.NewMatchService(docStore, logger)
	ratings := services.NewRatingService(docStore, players, logger)
	writes := services.NewMatchWriteService(docStore, matches, ratings, bus, logger)
	analytics := services.NewAnalyticsService(matches, players, resultCache, logger)

	sweeper, err := workers.StartCacheSweeper(ctx, resultCache, 5*time.Minute)
	if err != nil {
		log.Fatal("failed to start cache sweeper:", err)
	}
	defer func() {
		if err := sweeper.Shutdown(); err != nil {
			log.Printf("cache sweeper shutdown: %v", err)
		}
	}()

	handlers.SetupMatchRoutes(app, handlers.NewMatchHandler(matches, writes))
	handlers.SetupAnalyticsRoutes(app, handlers.NewAnalyticsHandler(analytics))

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Cache sweeper running (every 5m)")
	log.Println("✅ Invalidation bus consumer running")

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
