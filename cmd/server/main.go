package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/audit"
	auditrepo "github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/audit/repository"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/config"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/db"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/security"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/server"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/server/handlers"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/server/middleware"
	sessionrepo "github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/session/repository"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/session/service"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/telemetry"
	otelsetup "github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/telemetry/otel"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/telemetry/producer"
	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/token"
	userrepo "github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/user/repository"
)

const serviceName = "schedule-pro-auth"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, serviceName)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	metrics, err := telemetry.NewMetrics(providers.MeterProvider.Meter(serviceName))
	if err != nil {
		log.Fatalf("telemetry: metrics: %v", err)
	}

	emitters := telemetry.MultiEmitter{otelsetup.NewEventEmitter(providers.LoggerProvider)}
	kafkaProducer, err := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if err != nil {
		log.Fatalf("telemetry: kafka: %v", err)
	}
	if kafkaProducer != nil {
		emitters = append(emitters, kafkaProducer)
	}

	codec, err := token.NewCodec([]byte(cfg.JWTSecretKey), cfg.JWTIssuer, cfg.AccessTTL())
	if err != nil {
		log.Fatalf("token: %v", err)
	}

	sessions := service.NewSessionService(
		userrepo.NewPostgresRepository(database),
		sessionrepo.NewPostgresRepository(database),
		codec,
		token.NewRefreshGenerator(cfg.RefreshTTL()),
		security.NewHasher(cfg.BcryptCost),
		audit.NewLogger(auditrepo.NewPostgresRepository(database)),
		emitters,
		metrics,
		cfg.ResetTTL(),
	)

	authHandler := handlers.NewAuthHandler(sessions, cfg.RefreshTTL(), cfg.ResetTokenReturnToClient)
	guard := middleware.NewRenewalGuard(codec, cfg.Renewal(), metrics)
	srv := server.New(cfg.HTTPAddr, server.NewRouter(authHandler, guard))

	sweepCtx, stopSweep := context.WithCancel(ctx)
	go sweepExpiredSessions(sweepCtx, sessions, cfg.SweepInterval())

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// Let in-flight async telemetry emits finish before tearing down exporters.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := kafkaProducer.Close(); err != nil {
		log.Printf("kafka close: %v", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}

// sweepExpiredSessions periodically deletes lapsed session rows so the store
// only ever holds live sessions. Failures are logged and retried on the next
// tick; the sweep never takes the server down.
func sweepExpiredSessions(ctx context.Context, sessions *service.SessionService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.SweepExpired(ctx)
			if err != nil {
				log.Printf("session sweep: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("session sweep: removed %d expired sessions", n)
			}
		}
	}
}
