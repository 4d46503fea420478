package main

import (
	"context"
	"embed"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/slotboard/slotboard/libs/auth"
	"github.com/slotboard/slotboard/libs/config"
	"github.com/slotboard/slotboard/libs/db"
	"github.com/slotboard/slotboard/libs/httpx"
	"github.com/slotboard/slotboard/libs/kafkax"
	otelx "github.com/slotboard/slotboard/libs/otel"
	"github.com/slotboard/slotboard/libs/runtime"
	"github.com/slotboard/slotboard/services/booking-service/internal/handlers"
	"github.com/slotboard/slotboard/services/booking-service/internal/jobs"
	"github.com/slotboard/slotboard/services/booking-service/internal/outbox"
	"github.com/slotboard/slotboard/services/booking-service/internal/schedule"
	"github.com/slotboard/slotboard/services/booking-service/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8082")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	if err := db.Migrate(ctx, dbURL, migrations, "goose_db_version_booking"); err != nil {
		logger.Error("migrations failed", "err", err)
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	repo := storage.NewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go publisher.Run(ctx)

	sweeper := jobs.NewSweeper(pool, repo, outboxRepo, logger, jobs.SweeperConfig{
		Interval:  config.Duration("SWEEP_INTERVAL", 30*time.Second),
		BatchSize: config.Int("SWEEP_BATCH_SIZE", 100),
	})
	go sweeper.Run(ctx)

	scheduleProvider, err := schedule.NewProvider(config.String("SCHEDULE_GRPC_ADDR", ""))
	if err != nil {
		logger.Error("schedule grpc client unavailable", "err", err)
	}

	h := handlers.New(repo, outboxRepo, scheduleProvider)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if brokers := config.String("KAFKA_BROKERS", ""); brokers != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	protect := func(next http.Handler) http.Handler { return next }
	if secret := config.String("JWT_SECRET", ""); secret != "" {
		var jwksClient *auth.JWKSClient
		if jwksURL := config.String("JWKS_URL", ""); jwksURL != "" {
			jwksClient = auth.NewJWKSClient(jwksURL, config.Duration("JWKS_CACHE_TTL", 5*time.Minute))
		}
		protect = httpx.WithAuth(secret, jwksClient)
	}

	mux := runtime.NewBaseMux(readyChecks...)
	mux.HandleFunc("/api/v1/public/book", h.Book)
	mux.HandleFunc("/api/v1/public/check", h.Check)
	mux.Handle("/api/v1/bookings", protect(http.HandlerFunc(h.List)))
	mux.Handle("/api/v1/bookings/confirm", protect(http.HandlerFunc(h.Confirm)))
	mux.Handle("/api/v1/bookings/cancel", protect(http.HandlerFunc(h.Cancel)))

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT", 10*time.Second)),
		httpx.NewRateLimiter(config.Int("RATE_LIMIT_PER_MINUTE", 120), time.Minute).Middleware(),
	)
	handler = otelhttp.NewHandler(handler, "booking")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func parseList(raw string) []string {
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
