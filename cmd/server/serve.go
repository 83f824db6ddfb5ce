package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/iliyamo/amenity-reservation/internal/config"
	"github.com/iliyamo/amenity-reservation/internal/database"
	"github.com/iliyamo/amenity-reservation/internal/handler"
	"github.com/iliyamo/amenity-reservation/internal/lock"
	"github.com/iliyamo/amenity-reservation/internal/logger"
	"github.com/iliyamo/amenity-reservation/internal/middleware"
	"github.com/iliyamo/amenity-reservation/internal/queue"
	"github.com/iliyamo/amenity-reservation/internal/repository"
	"github.com/iliyamo/amenity-reservation/internal/router"
	"github.com/iliyamo/amenity-reservation/internal/service"
)

func newServeCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg, migrateUp)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", false, "create missing MySQL tables on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}

func serve(ctx context.Context, cfg config.Config, migrateUp bool) error {
	lg := logger.New("amenityd", cfg.LogLevel, os.Stdout)

	store, closeStore, err := openStore(ctx, cfg, migrateUp)
	if err != nil {
		return err
	}
	defer closeStore()
	lg.Infof("store: %s", cfg.StoreDriver)

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	var locker lock.Locker = lock.NewKeyedMutex()
	if rdb != nil {
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, "amenity:lock", cfg.LockTTL)
		lg.Info("redis connected: shared item locks, rate limits and cache enabled")
	} else {
		lg.Warn("redis not configured: using in-process item locks")
	}

	var publisher queue.Publisher = queue.NopPublisher{}
	if cfg.AMQPURL != "" {
		p := queue.NewAMQPPublisher(cfg.AMQPURL)
		defer p.Close()
		publisher = p
		audit := &queue.AuditLog{Dir: cfg.AuditLogDir}
		go func() {
			if err := queue.StartAuditConsumer(ctx, cfg.AMQPURL, audit, lg); err != nil && !errors.Is(err, context.Canceled) {
				lg.Errorf("audit consumer stopped: %v", err)
			}
		}()
	} else {
		lg.Warn("no broker configured: lifecycle events are not published")
	}

	catalog := service.NewCatalog(store, time.Now)
	avail := service.NewAvailability(catalog, cfg.Policy)
	pricing := service.NewPricing(cfg.Policy, avail)
	life := service.NewLifecycle(store, avail, pricing,
		service.WithLocker(locker),
		service.WithPublisher(publisher),
		service.WithLogger(lg),
	)

	e := echo.New()
	e.HideBanner = true
	e.Logger = lg
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			entry := log.JSON{"method": v.Method, "uri": v.URI, "status": v.Status, "latency": v.Latency.String()}
			if v.Error != nil {
				entry["error"] = v.Error.Error()
				lg.Errorj(entry)
				return nil
			}
			lg.Infoj(entry)
			return nil
		},
	}))

	router.RegisterRoutes(e, router.Handlers{
		Health:       handler.Health(store),
		Items:        handler.NewItemHandler(catalog),
		Reservations: handler.NewReservationHandler(life, catalog),
		Quotes:       handler.NewQuoteHandler(pricing),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	})

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		lg.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openStore returns the configured persistent store and a function that
// releases it.
func openStore(ctx context.Context, cfg config.Config, migrateUp bool) (repository.Store, func(), error) {
	if cfg.StoreDriver != "mysql" {
		return repository.NewMemoryStore(), func() {}, nil
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, nil, fmt.Errorf("db open: %w", err)
	}
	if migrateUp {
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	return repository.NewMySQLStore(db), func() { db.Close() }, nil
}
