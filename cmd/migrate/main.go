// Command migrate applies the embedded SQL migrations to the configured
// database. Run with -direction=down to roll back.
package main

import (
	"errors"
	"flag"
	"log"

	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/config"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("migrate: DATABASE_URL is required")
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("migrate: no change")
			return
		}
		log.Fatalf("migrate: %v", err)
	}
	log.Printf("migrate: %s complete", *direction)
}
