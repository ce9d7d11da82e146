package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-user-directory/config"
	"github.com/oksasatya/go-user-directory/internal/infrastructure/file"
	"github.com/oksasatya/go-user-directory/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-user-directory/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-directory/pkg/helpers"
)

// seed publishes the users JSON file to the non-file sources:
//
//	go run ./cmd/seed -target postgres
//	go run ./cmd/seed -target gcs
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	path := flag.String("file", cfg.UsersFile, "users JSON file")
	target := flag.String("target", config.SourcePostgres, "postgres or gcs")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("failed to read %s: %v", *path, err)
	}
	users, err := file.Decode(bytes.NewReader(raw))
	if err != nil {
		log.Fatalf("failed to parse %s: %v", *path, err)
	}
	// Reject files the server would refuse to load.
	if _, err := memory.NewUserStore(users); err != nil {
		log.Fatalf("invalid users file: %v", err)
	}

	switch *target {
	case config.SourcePostgres:
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := pginfra.ReplaceUsers(ctx, pool, users); err != nil {
			log.Fatalf("failed to seed users: %v", err)
		}
		fmt.Printf("seeded %d users into postgres %s/%s\n", len(users), cfg.DBHost, cfg.DBName)
	case config.SourceGCS:
		if cfg.GCSBucket == "" {
			log.Fatal("GCS_BUCKET is required")
		}
		client, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			log.Fatalf("failed to init GCS client: %v", err)
		}
		defer func() { _ = client.Close() }()
		uri, err := helpers.UploadObject(ctx, client, cfg.GCSBucket, cfg.GCSUsersObject, "application/json", bytes.NewReader(raw))
		if err != nil {
			log.Fatalf("failed to upload users: %v", err)
		}
		fmt.Printf("uploaded %d users to %s\n", len(users), uri)
	default:
		log.Fatalf("unknown target %q", *target)
	}
}
