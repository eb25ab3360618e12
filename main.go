package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"

	"github.com/wiseroute/transport-booking/config"
	"github.com/wiseroute/transport-booking/internal/catalog"
	"github.com/wiseroute/transport-booking/internal/handler"
	"github.com/wiseroute/transport-booking/internal/middleware"
	"github.com/wiseroute/transport-booking/internal/notify"
	"github.com/wiseroute/transport-booking/internal/repository"
	"github.com/wiseroute/transport-booking/internal/service"
	"github.com/wiseroute/transport-booking/internal/timeslot"
	"github.com/wiseroute/transport-booking/pkg/database"
	"github.com/wiseroute/transport-booking/pkg/logger"
	"github.com/wiseroute/transport-booking/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	db := database.NewPostgresDB(cfg.DSN())

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatalw("failed to load route catalog", "path", cfg.CatalogPath, "error", err)
	}

	// RabbitMQ is optional; without it notifications are persisted only.
	var publisher *rabbitmq.Publisher
	if cfg.RabbitURL != "" {
		publisher, err = rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			log.Fatalw("failed to connect to RabbitMQ", "error", err)
		}
		defer publisher.Close()
	} else {
		log.Warn("RABBIT_URL not set, notification events will not be published")
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	intentRepo := repository.NewBookingIntentRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	seatRepo := repository.NewSeatBookingRepository(db)
	triesRepo := repository.NewRouteTriesRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	sink := notify.NewSink(notificationRepo, publisher, log)
	gate := timeslot.NewGate(log)
	invoiceSvc := service.NewInvoiceService(cat, invoiceRepo, intentRepo, userRepo, sink, log)
	seatSvc := service.NewSeatService(cat, gate, seatRepo, triesRepo, userRepo, intentRepo, sink, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := service.NewSweeper(invoiceRepo, intentRepo, seatRepo, invoiceSvc, cfg.SweepInterval, log)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Infow("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "transport-booking"})
	})

	handler.NewSeatHandler(seatSvc).RegisterRoutes(e)
	handler.NewBookingHandler(invoiceSvc).RegisterRoutes(e)
	handler.NewInvoiceHandler(invoiceSvc).RegisterRoutes(e)
	handler.NewNotificationHandler(notificationRepo).RegisterRoutes(e)

	go func() {
		<-ctx.Done()
		e.Shutdown(context.Background())
	}()

	log.Infow("transport booking service starting", "port", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
		log.Fatalw("server stopped", "error", err)
	}
}
