package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/appointly/appointly/internal/handlers"
	"github.com/appointly/appointly/internal/migrate"
	"github.com/appointly/appointly/internal/outbox"
	"github.com/appointly/appointly/internal/schedule"
	"github.com/appointly/appointly/internal/storage"
	"github.com/appointly/appointly/libs/config"
	"github.com/appointly/appointly/libs/db"
	"github.com/appointly/appointly/libs/httpx"
	"github.com/appointly/appointly/libs/kafkax"
	otelx "github.com/appointly/appointly/libs/otel"
	"github.com/appointly/appointly/libs/runtime"
)

func main() {
	service := config.String("SERVICE_NAME", "appointly")
	port, err := config.Port("PORT", "8080")
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
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := migrate.Up(ctx, pool); err != nil {
		logger.Error("migrations failed", "err", err)
		panic(err)
	}

	repo := storage.NewRepository(pool.Pool)
	engine := schedule.New(repo, storage.IsNotFound, logger)
	outboxRepo := outbox.NewRepository()

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go publisher.Run(ctx)

	publicHandler := handlers.NewPublicHandler(repo, engine, outboxRepo, logger)
	apptHandler := handlers.NewAppointmentHandler(repo, engine, outboxRepo, logger)
	configHandler := handlers.NewConfigHandler(repo, logger)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if kafkaBrokers != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}

	limit := config.Int("PUBLIC_RATE_LIMIT", 60)
	window := config.Duration("PUBLIC_RATE_WINDOW", time.Minute)
	var publicLimit httpx.Middleware
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		// A shared limiter, so the cap holds across replicas.
		rdb := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		publicLimit = httpx.NewRedisRateLimiter(rdb, limit, window, "appointly:public").Middleware(logger, true)
	} else {
		publicLimit = httpx.NewRateLimiter(limit, window).Middleware()
	}

	mux := runtime.NewBaseMuxWithReady(readyChecks...)

	mux.Handle("/api/v1/public/slots", publicLimit(http.HandlerFunc(publicHandler.Slots)))
	mux.Handle("/api/v1/public/book", publicLimit(http.HandlerFunc(publicHandler.Book)))
	mux.Handle("/api/v1/public/confirm", publicLimit(http.HandlerFunc(publicHandler.Confirm)))
	mux.Handle("/api/v1/public/cancel", publicLimit(http.HandlerFunc(publicHandler.Cancel)))

	mux.HandleFunc("/api/v1/appointments", apptHandler.List)
	mux.HandleFunc("/api/v1/appointments/create", apptHandler.Create)
	mux.HandleFunc("/api/v1/appointments/update", apptHandler.Update)
	mux.HandleFunc("/api/v1/appointments/cancel", apptHandler.Cancel)
	mux.HandleFunc("/api/v1/appointments/no-show", apptHandler.NoShow)
	mux.HandleFunc("/api/v1/appointments/delete", apptHandler.Delete)

	mux.HandleFunc("/api/v1/business", configHandler.Business)
	mux.HandleFunc("/api/v1/services", configHandler.Services)
	mux.HandleFunc("/api/v1/services/update", configHandler.UpdateService)
	mux.HandleFunc("/api/v1/services/delete", configHandler.DeleteService)
	mux.HandleFunc("/api/v1/working-hours", configHandler.WorkingHours)
	mux.HandleFunc("/api/v1/booking-policy", configHandler.Policy)
	mux.HandleFunc("/api/v1/time-off", configHandler.TimeOff)
	mux.HandleFunc("/api/v1/time-off/delete", configHandler.DeleteTimeOff)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: strings.Split(config.String("CORS_ALLOWED_ORIGINS", ""), ","),
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-Business-Id", "X-Request-Id"},
			MaxAge:         10 * time.Minute,
		}),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "appointly")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
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
