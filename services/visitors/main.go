package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	"github.com/diagnosis/visitor-desk/pkg/config"
	"github.com/diagnosis/visitor-desk/pkg/database"
	"github.com/diagnosis/visitor-desk/pkg/events"
	"github.com/diagnosis/visitor-desk/pkg/logger"
	mw "github.com/diagnosis/visitor-desk/pkg/middleware"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/handlers"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/mailer"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/repository"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/service"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/storage"
	"github.com/diagnosis/visitor-desk/services/visitors/migrations"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, migrations.FS, "."); err != nil {
			logger.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid redis url", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.Password != "" {
		redisOpts.Password = cfg.Redis.Password
	}
	redisOpts.DB = cfg.Redis.DB
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	eventBus := connectEventBus(ctx, cfg)
	defer eventBus.Close()
	if err := eventBus.QueueSubscribe(events.AllVisitorEvents, "visitors-audit", auditLog); err != nil {
		logger.Warn("Failed to subscribe audit log", "error", err)
	}
	if err := eventBus.QueueSubscribe(events.AllUserEvents, "visitors-audit", auditLog); err != nil {
		logger.Warn("Failed to subscribe audit log", "error", err)
	}

	mailSvc := mailer.FromConfig(cfg.Email)

	// Initialize repositories
	identityRepo := repository.NewIdentityRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	visitorRepo := repository.NewVisitorRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)
	idempotencyStore := repository.NewRedisIdempotencyStore(rdb)
	avatars := storage.NewAvatarStore(cfg.Storage.AvatarDir, cfg.Storage.AvatarPublicBaseURL, cfg.Storage.AvatarMaxBytes)

	// Initialize services
	identityService := service.NewIdentityService(identityRepo, profileRepo, mailSvc, cfg)
	visitorService := service.NewVisitorService(visitorRepo, eventBus, cfg.Listing.VisitorsPageSize)
	userService := service.NewUserService(identityRepo, profileRepo, avatars, mailSvc, eventBus, cfg)
	statsService := service.NewStatsService(statsRepo, cfg.Listing.StatsCacheTTL)

	h := handlers.New(identityService, visitorService, userService, statsService, cfg)
	metrics := mw.NewHTTPMetrics("visitors")

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("visitors"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Health(map[string]mw.HealthCheck{
		"postgres": pool.Ping,
		"redis":    idempotencyStore.Ping,
	}))
	r.Use(metrics.Middleware)

	r.Handle("/avatars/*", http.StripPrefix("/avatars", avatars.Handler()))
	r.Mount("/v1", h.Routes(handlers.RouteOptions{
		CheckinLimit: mw.RateLimit(cfg.RateLimit.CheckinPerMinute),
		SignInLimit:  mw.RateLimit(cfg.RateLimit.SignInPerMinute),
		Idempotency:  mw.IdempotencyMiddleware(idempotencyStore, cfg.Redis.IdempotencyTTL),
	}))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down visitors service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Visitors service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting visitors service", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Visitors service error", "error", err)
		os.Exit(1)
	}
}

// connectEventBus uses NATS when enabled and reachable, otherwise an in-process bus.
func connectEventBus(ctx context.Context, cfg *config.Config) events.EventBus {
	if !cfg.NATS.Enabled {
		logger.Info("NATS disabled, using in-memory event bus")
		return events.NewMemoryBus()
	}

	var bus *events.NATSEventBus
	backoff := retry.WithMaxRetries(3, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		b, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Warn("NATS not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		bus = b
		return nil
	})
	if err != nil {
		logger.Warn("Falling back to in-memory event bus", "error", err)
		return events.NewMemoryBus()
	}
	return bus
}

func auditLog(msg *events.Message) {
	var payload map[string]any
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		logger.Warn("Unreadable event", "subject", msg.Subject, "error", err)
		return
	}
	logger.Info("Audit event", "subject", msg.Subject, "event_id", msg.ID, "payload", payload)
}
