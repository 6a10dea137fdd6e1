package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"

	"github.com/iliyamo/yacht-charter/internal/config"
	"github.com/iliyamo/yacht-charter/internal/database"
	"github.com/iliyamo/yacht-charter/internal/handler"
	"github.com/iliyamo/yacht-charter/internal/middleware"
	"github.com/iliyamo/yacht-charter/internal/payment"
	"github.com/iliyamo/yacht-charter/internal/queue"
	"github.com/iliyamo/yacht-charter/internal/repository"
	"github.com/iliyamo/yacht-charter/internal/router"
	"github.com/iliyamo/yacht-charter/internal/service"
	"github.com/iliyamo/yacht-charter/internal/storage"
)

func main() {
	config.LoadDotEnv(os.Getenv("ENV_FILE"))
	cfg := config.Load()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))
	e.Logger.SetHeader("${time_rfc3339} ${level} ${short_file}:${line}")
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			c.Logger().Infof("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Database ----
	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	bookings := repository.NewBookingRepo(db)
	items := repository.NewStorageItemRepo(db)
	categories := repository.NewCategoryRepo(db)

	if cfg.AdminEmail != "" {
		created, err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost)
		if err != nil {
			log.Fatalf("seed admin: %v", err)
		}
		if created {
			e.Logger.Infof("created admin account %s", cfg.AdminEmail)
		}
	}

	// ---- Redis ----
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	var kv service.KVStore = service.NewMemoryKV()
	if rdb != nil {
		defer rdb.Close()
		kv = service.RedisKV{Client: rdb}
	} else {
		e.Logger.Warn("redis unavailable: rate limiting and caching disabled, preferences kept in memory")
	}

	// ---- Object storage ----
	storageCfg := config.LoadStorageConfig()
	objects, err := storage.New(storageCfg, []byte(cfg.JWTSecret))
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	objects = storage.WithRemoveHook(objects, func(ctx context.Context, bucket, key string) error {
		_, err := items.DeleteByObject(ctx, bucket, key)
		return err
	}, e.Logger)
	if err := objects.EnsureBucket(ctx, storageCfg.DefaultBucket, storageCfg.IsPublic(storageCfg.DefaultBucket)); err != nil {
		e.Logger.Warnf("storage: ensure bucket %s failed: %v", storageCfg.DefaultBucket, err)
	}

	// ---- Payment ----
	paymentCfg := config.LoadPaymentConfig()
	provider, err := payment.NewProvider(paymentCfg)
	if err != nil {
		log.Fatalf("payment: %v", err)
	}

	// ---- Booking events ----
	publisher := service.NewAMQPPublisher(cfg.RabbitURL, e.Logger)
	defer publisher.Close()
	if cfg.AuditConsume {
		audit := &queue.AuditConsumer{URL: cfg.RabbitURL, LogPath: "logs/booking.log", Logger: e.Logger}
		go func() {
			if err := audit.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				e.Logger.Errorf("booking-audit stopped: %v", err)
			}
		}()
	}

	// ---- Services ----
	calendar := service.NewCalendarService(bookings, publisher, e.Logger)
	calendar.Policy = service.PolicyByName(cfg.TransitionPolicy)
	calendar.DemoFallback = cfg.CalendarDemoFallback
	if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
		calendar.Location = loc
	} else {
		e.Logger.Warnf("unknown timezone %q, using UTC", cfg.Timezone)
	}
	media := service.NewMediaService(items, objects, storageCfg, cfg.BatchConcurrency, e.Logger)
	checkout := service.NewCheckoutService(provider, paymentCfg, e.Logger)
	prefs := service.NewPreferencesService(kv, e.Logger)

	go purgeTokens(ctx, tokens, e.Logger)

	// ---- Routes ----
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	statsCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	bookingH := handler.NewBookingHandler(calendar)

	router.RegisterRoutes(e, &handler.HealthHandler{DB: db, Redis: rdb})
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret, limit)
	router.RegisterPublic(e, bookingH, handler.NewCheckoutHandler(checkout), limit)
	router.RegisterCustomer(e, bookingH, cfg.JWTSecret)
	router.RegisterAdmin(e, router.AdminHandlers{
		Calendar:    handler.NewCalendarHandler(calendar),
		Media:       handler.NewMediaHandler(media, storageCfg.MaxUploadMB),
		Categories:  handler.NewCategoryHandler(categories),
		Preferences: handler.NewPreferencesHandler(prefs),
	}, cfg.JWTSecret, statsCache)
	if local, ok := storage.Unwrap(objects).(*storage.LocalStore); ok {
		router.RegisterFiles(e, handler.NewFileHandler(local, storageCfg))
	}

	addr := ":" + cfg.Port
	e.Logger.Infof("listening on %s (env=%s, storage=%s, payment=%s)", addr, cfg.Env, storageCfg.Driver, provider.Name())
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Errorf("shutdown: %v", err)
	}
}

// purgeTokens drops expired refresh tokens once an hour.
func purgeTokens(ctx context.Context, tokens *repository.TokenRepo, logger echo.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := tokens.PurgeExpired(ctx, time.Now().Add(-24*time.Hour))
			if err != nil {
				logger.Warnf("purge refresh tokens: %v", err)
				continue
			}
			if n > 0 {
				logger.Infof("purged %d expired refresh tokens", n)
			}
		}
	}
}

func logLevel(s string) glog.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return glog.DEBUG
	case "warn":
		return glog.WARN
	case "error":
		return glog.ERROR
	case "off":
		return glog.OFF
	}
	return glog.INFO
}
