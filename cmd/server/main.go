package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	"github.com/nick-lortz/steelbuild-pro-sub016/internal/config"
	"github.com/nick-lortz/steelbuild-pro-sub016/router"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

func main() {
	log.Println("Starting server...")

	configPath := os.Getenv("CONFIG_PATH")
	if err := config.LoadConfig(configPath); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Store selection: Postgres when DATABASE_URL is set, in-memory
	// otherwise. The memory store is for development only.
	var st store.Store
	if config.App.DatabaseURL != "" {
		pg, err := sql.Open("postgres", config.App.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pg.Close()

		if err := pg.Ping(); err != nil {
			log.Fatalf("Failed to ping database: %v", err)
		}
		if _, err := pg.Exec("SET TIME ZONE 'UTC'"); err != nil {
			log.Printf("Failed to set timezone to UTC: %v", err)
		}

		pgStore := store.NewPostgres(pg)
		if err := pgStore.Migrate(context.Background()); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		st = pgStore
		log.Println("  Connected to database successfully")
	} else {
		st = store.NewMemory()
		log.Println("  DATABASE_URL not set, using in-memory store")
	}

	// Redis is optional; without it by-id reads skip the cache.
	var redisClient *redis.Client
	if config.App.RedisURL != "" {
		opts, err := redis.ParseURL(config.App.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("Redis unavailable, continuing without cache: %v", err)
			redisClient = nil
		} else {
			log.Println("  Connected to Redis successfully")
		}
	}

	r := router.NewGinRouter(st, redisClient)

	srv := &http.Server{
		Addr:    ":" + config.App.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
