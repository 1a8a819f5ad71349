package main

import (
	"context"
	"log"

	"anoa.com/p2pcomm/internal/bootstrap"
	"anoa.com/p2pcomm/internal/config"
	"anoa.com/p2pcomm/internal/entity"
	"anoa.com/p2pcomm/internal/server"
	"anoa.com/p2pcomm/pkg/database"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	if err := bootstrap.SeedRoles(db); err != nil {
		log.Fatalf("failed to seed roles: %v", err)
	}

	if cfg.AppEnv == "development" {
		if err := bootstrap.SeedStaffUser(db, cfg); err != nil {
			log.Fatalf("failed to seed staff user: %v", err)
		}
	}

	redisClient := connectRedis(cfg)

	srv := server.NewServer(cfg, db, redisClient)

	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Profile{},
	)
}

// connectRedis is best effort: registration rate limiting degrades to a
// no-op when redis is absent.
func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, registration rate limiting disabled")
		return nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("invalid REDIS_URL, rate limiting disabled: %v", err)
		return nil
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("redis unreachable, rate limiting disabled: %v", err)
		return nil
	}

	return client
}
