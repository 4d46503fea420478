package main

import (
	"context"
	"embed"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/slotboard/slotboard/libs/auth"
	"github.com/slotboard/slotboard/libs/config"
	"github.com/slotboard/slotboard/libs/db"
	"github.com/slotboard/slotboard/libs/httpx"
	"github.com/slotboard/slotboard/libs/kafkax"
	otelx "github.com/slotboard/slotboard/libs/otel"
	"github.com/slotboard/slotboard/libs/runtime"
	"github.com/slotboard/slotboard/services/schedule-service/internal/cache"
	"github.com/slotboard/slotboard/services/schedule-service/internal/consumer"
	"github.com/slotboard/slotboard/services/schedule-service/internal/handlers"
	"github.com/slotboard/slotboard/services/schedule-service/internal/inbox"
	"github.com/slotboard/slotboard/services/schedule-service/internal/schedule"
	"github.com/slotboard/slotboard/services/schedule-service/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

func main() {
	service := config.String("SERVICE_NAME", "schedule-service")
	port, err := config.Port("PORT", "8081")
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

	if err := db.Migrate(ctx, dbURL, migrations, "goose_db_version_schedule"); err != nil {
		logger.Error("migrations failed", "err", err)
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	var redisClient *redis.Client
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		logger.Info("calendar cache enabled", "redis_addr", addr)
	}

	repo := storage.NewRepository(pool)
	calCache := cache.NewCalendarCache(redisClient, logger)
	clock := schedule.SystemClock()

	inboxRepo := inbox.NewRepository(pool)
	eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "schedule-service"),
		Topics: []string{
			"booking.requested.v1",
			"booking.confirmed.v1",
			"booking.cancelled.v1",
			"booking.completed.v1",
		},
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			ProviderID string `json:"provider_id"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil || payload.ProviderID == "" {
			logger.Error("booking event without provider_id", "topic", msg.Topic)
			return nil
		}
		calCache.Invalidate(ctx, payload.ProviderID)
		return nil
	})
	if config.String("KAFKA_BROKERS", "") != "" {
		go eventConsumer.Run(ctx)
	}

	if err := startGrpcServer(ctx, logger, repo, clock); err != nil {
		logger.Error("grpc server failed to start", "err", err)
	}

	h := handlers.New(repo, calCache, clock)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if brokers := config.String("KAFKA_BROKERS", ""); brokers != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	if redisClient != nil {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	// Management routes carry a bearer token; the public calendar does not.
	protect := func(next http.Handler) http.Handler { return next }
	if secret := config.String("JWT_SECRET", ""); secret != "" {
		var jwksClient *auth.JWKSClient
		if jwksURL := config.String("JWKS_URL", ""); jwksURL != "" {
			jwksClient = auth.NewJWKSClient(jwksURL, config.Duration("JWKS_CACHE_TTL", 5*time.Minute))
		}
		protect = httpx.WithAuth(secret, jwksClient)
	}

	mux := runtime.NewBaseMux(readyChecks...)
	mux.Handle("/api/v1/availability", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.CreateRule(w, r)
		case http.MethodGet:
			h.ListRules(w, r)
		case http.MethodPut:
			h.UpdateRule(w, r)
		case http.MethodDelete:
			h.DeleteRule(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})))
	mux.Handle("/api/v1/availability/overrides", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.CreateOverride(w, r)
		case http.MethodGet:
			h.ListOverrides(w, r)
		case http.MethodDelete:
			h.DeleteOverride(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})))
	mux.Handle("/api/v1/availability/blocked", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.CreateBlocked(w, r)
		case http.MethodGet:
			h.ListBlocked(w, r)
		case http.MethodDelete:
			h.DeleteBlocked(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})))
	mux.HandleFunc("/api/v1/public/calendar", h.Calendar)

	var rateLimitMW httpx.Middleware
	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if redisClient != nil {
		rl := httpx.NewRedisRateLimiter(redisClient, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimitMW = rl.Middleware(logger, true)
	} else {
		rateLimitMW = httpx.NewRateLimiter(limitPerMinute, time.Minute).Middleware()
	}

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT", 10*time.Second)),
		rateLimitMW,
	)
	handler = otelhttp.NewHandler(handler, "schedule")

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
