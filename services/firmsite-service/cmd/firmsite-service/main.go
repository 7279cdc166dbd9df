package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Kristaal/Law-firm/libs/config"
	"github.com/Kristaal/Law-firm/libs/db"
	"github.com/Kristaal/Law-firm/libs/httpx"
	"github.com/Kristaal/Law-firm/libs/kafkax"
	otelx "github.com/Kristaal/Law-firm/libs/otel"
	"github.com/Kristaal/Law-firm/libs/runtime"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/accounts"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/booking"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/handlers"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/notify"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/outbox"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/storage"
	"github.com/Kristaal/Law-firm/services/firmsite-service/migrations"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func newTransport(logger *slog.Logger) notify.Transport {
	host := config.String("SMTP_HOST", "")
	if host == "" {
		logger.Warn("SMTP_HOST not set; emails are logged instead of sent")
		return notify.LogTransport{Logger: logger}
	}
	return notify.NewSMTPTransport(
		host,
		config.String("SMTP_PORT", "1025"),
		config.String("SMTP_USERNAME", ""),
		config.String("SMTP_PASSWORD", ""),
	)
}

// rateLimit prefers the shared redis limiter so every replica counts against one budget.
func rateLimit(logger *slog.Logger, rdb *redis.Client) httpx.Middleware {
	perMinute := config.Int("RATE_LIMIT_PER_MINUTE", 30)
	if perMinute == 0 {
		return nil
	}
	var limiter httpx.Limiter = httpx.NewMemoryLimiter(perMinute, time.Minute)
	if rdb != nil {
		limiter = httpx.NewRedisLimiter(rdb, perMinute, time.Minute, "")
	}
	return httpx.RateLimit(limiter, logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
}

func main() {
	if err := config.LoadDotenv(); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "firmsite-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service, config.String("LOG_LEVEL", "info"))

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
	pool, err := db.Open(ctx, dbURL, db.PoolOptions{})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if config.Bool("MIGRATE_ON_START", true) {
		version, err := db.Migrate(ctx, pool, migrations.FS)
		if err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}
		logger.Info("migrations applied", "version", version)
	}

	loc, err := time.LoadLocation(config.String("SITE_TIME_ZONE", "UTC"))
	if err != nil {
		logger.Error("invalid SITE_TIME_ZONE", "err", err)
		panic(err)
	}

	outboxRepo := outbox.NewRepository(pool)
	catalogRepo := storage.NewCatalogRepository(pool)
	planningRepo := storage.NewPlanningRepository(pool)
	apptRepo := storage.NewAppointmentRepository(pool, outboxRepo)
	contentRepo := storage.NewContentRepository(pool)
	userRepo := storage.NewUserRepository(pool)

	brokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
		Retention: 7 * 24 * time.Hour,
	})
	go outboxPublisher.Run(ctx)

	firm := config.String("FIRM_NAME", "De Jure Law Firm")
	from := config.String("SMTP_FROM", "no-reply@firmsite.local")
	sender, err := notify.NewSender(notify.Config{From: from, FirmName: firm}, newTransport(logger))
	if err != nil {
		panic(err)
	}

	workflow := booking.NewWorkflow(catalogRepo, planningRepo, apptRepo, sender, logger, booking.Config{
		RejectOverlaps: config.Bool("BOOKING_REJECT_OVERLAPS", false),
		CancelCutoff:   config.Duration("CANCEL_CUTOFF_HOURS", 48, time.Hour),
		Now:            func() time.Time { return model.WallClock(time.Now().In(loc)) },
	})
	deployEnv := config.String("DEPLOY_ENV", "development")
	secret, err := accounts.SessionSecret(config.String("SESSION_SECRET", ""), deployEnv)
	if err != nil {
		logger.Error("refusing to start", "deploy_env", deployEnv, "err", err)
		panic(err)
	}
	if secret == accounts.DevSecret {
		logger.Warn("SESSION_SECRET not set; using the development secret")
	}
	accts := accounts.NewService(userRepo, secret, config.Duration("SESSION_TTL_HOURS", 336, time.Hour))
	site, err := handlers.NewSite(logger, contentRepo, catalogRepo, workflow, accts, sender, handlers.Config{
		FirmName:     firm,
		ContactInbox: config.String("CONTACT_INBOX", from),
		SecureCookie: config.Bool("SESSION_COOKIE_SECURE", false),
	})
	if err != nil {
		panic(err)
	}

	var rdb *redis.Client
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()
	}
	var redisCheck func(context.Context) error
	if rdb != nil {
		redisCheck = httpx.RedisReadyCheck(rdb)
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "redis", Check: redisCheck},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	site.Register(mux)

	httpHandler := httpx.Chain(site.Sessions(mux),
		httpx.WithRecover(logger),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger, "/healthz", "/readyz"),
		httpx.WithSecureHeaders,
		httpx.WithBodyLimit(int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT_SECONDS", 15, time.Second)),
		httpx.OnlyMethods(rateLimit(logger, rdb), http.MethodPost),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "firmsite")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := runtime.Serve(ctx, srv, logger, 10*time.Second); err != nil {
		logger.Error("server exited", "err", err)
	}
}
