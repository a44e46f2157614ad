// Command seed inserts a development user so login can be exercised locally.
// Idempotent: re-running against a seeded database is a no-op.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/config"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/db"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/security"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/user/domain"
	userrepo "github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/user/repository"
)

func main() {
	email := flag.String("email", "dev@example.com", "email of the seeded user")
	name := flag.String("name", "Dev User", "display name of the seeded user")
	password := flag.String("password", "devpassword", "password of the seeded user")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Env == "production" {
		log.Fatal("seed: refusing to run with APP_ENV=production")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := userrepo.NewPostgresRepository(database)
	existing, err := users.GetByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("seed: lookup: %v", err)
	}
	if existing != nil {
		log.Printf("seed: user %s already exists (%s)", *email, existing.ID)
		return
	}

	hash, err := security.NewHasher(cfg.BcryptCost).Hash([]byte(*password))
	if err != nil {
		log.Fatalf("seed: hash: %v", err)
	}

	now := time.Now().UTC()
	u := &domain.User{
		ID:           uuid.NewString(),
		Name:         *name,
		Email:        *email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, u); err != nil {
		log.Fatalf("seed: create: %v", err)
	}
	log.Printf("seed: created user %s (%s)", *email, u.ID)
}
