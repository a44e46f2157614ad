// Worker consumes auth telemetry events from Kafka and appends them to the
// audit log table, giving a durable trail even when the API's own best-effort
// audit write was skipped or lost.
// Set KAFKA_BROKERS, TELEMETRY_KAFKA_TOPIC, KAFKA_GROUP_ID and DATABASE_URL.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/audit"
	auditdomain "github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/audit/domain"
	auditrepo "github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/audit/repository"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/config"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/db"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.TelemetryKafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("worker: DATABASE_URL is required")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("worker: db: %v", err)
	}
	defer database.Close()
	audits := auditrepo.NewPostgresRepository(database)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.TelemetryKafkaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	log.Printf("worker: consuming from %s (group %s)", cfg.TelemetryKafkaTopic, cfg.KafkaGroupID)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("worker: stopped")
				return
			}
			log.Printf("worker: kafka read error: %v", err)
			continue
		}

		var event telemetry.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("worker: skipping malformed event at offset %d: %v", msg.Offset, err)
			continue
		}

		userID := event.UserID
		if userID == "" {
			userID = audit.SentinelUserID
		}
		ip := event.IP
		if ip == "" {
			ip = "unknown"
		}
		createdAt := event.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		writeCtx, writeCancel := context.WithTimeout(ctx, 10*time.Second)
		err = audits.Create(writeCtx, &auditdomain.AuditLog{
			ID:        uuid.NewString(),
			UserID:    userID,
			Action:    event.EventType,
			Resource:  "session",
			IP:        ip,
			Metadata:  event.Metadata,
			CreatedAt: createdAt,
		})
		writeCancel()
		if err != nil {
			log.Printf("worker: audit write failed: %v", err)
		}
	}
}
