package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"facturacion/internal/clock"
	"facturacion/internal/config"
	"facturacion/internal/events"
	"facturacion/internal/health"
	"facturacion/internal/http/handlers"
	applog "facturacion/internal/log"
	"facturacion/internal/metrics"
	"facturacion/internal/repos"
	"facturacion/internal/services"
)

type publisher interface {
	services.Publisher
	Close() error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "facturacion: %v\n", err)
		os.Exit(1)
	}
}

// run returns its errors; main is the only place that exits.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := applog.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repos.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("store.open", zap.String("driver", cfg.DBDriver), zap.Error(err))
		return fmt.Errorf("open %s store: %w", cfg.DBDriver, err)
	}
	defer store.Close()

	m := metrics.New(nil)
	clk := clock.New(clock.Config{URL: cfg.TimeAPIURL, TimeZone: cfg.TimeZone, Timeout: cfg.TimeAPITimeout}, logger, m)
	defer clk.Close()

	var pub publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		pub = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	}
	defer pub.Close()

	deps := handlers.NewDeps(store, clk, pub, m)

	checks := health.NewHandler()
	checks.Register("database", health.NewSimpleChecker("database", store.Ping))

	app := fiber.New(fiber.Config{
		AppName:      "facturacion",
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    cfg.BodyLimit,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(handlers.CountRequests(m))
	app.Use(applog.Middleware())
	// must stay after the access log: recovered panics reach it as errors
	app.Use(recover.New())
	app.Use(helmet.New())

	// ---------- Operational ----------
	app.Get("/healthz", checks.Health)
	app.Get("/readyz", checks.Ready)
	app.Get("/livez", health.Live)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// ---------- API ----------
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.api.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))
	deps.Routes(api)

	app.Use(handlers.NotFound)

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http.listen", zap.String("port", cfg.Port), zap.String("driver", store.Driver()))
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			logger.Error("http.listen.fail", zap.Error(err))
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("http.shutdown", zap.Duration("timeout", cfg.ShutdownTimeout))
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		logger.Error("http.shutdown.fail", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
