package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"mesaYaWaitlist/internal/config"
	dashboardhandler "mesaYaWaitlist/internal/modules/dashboard/application/handler"
	dashboarduc "mesaYaWaitlist/internal/modules/dashboard/application/usecase"
	dashboardinfra "mesaYaWaitlist/internal/modules/dashboard/infrastructure"
	transport "mesaYaWaitlist/internal/modules/dashboard/interface"
	realtimeuc "mesaYaWaitlist/internal/modules/realtime/application/usecase"
	"mesaYaWaitlist/internal/modules/realtime/infrastructure"
	"mesaYaWaitlist/internal/platform/broker"
	"mesaYaWaitlist/internal/shared/auth"
	"mesaYaWaitlist/internal/shared/logging"
	"mesaYaWaitlist/internal/shared/normalization"
)

func main() {
	// Attempt to load variables from .env so local runs honour configuration tweaks.
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logFile, logger, err := setupLogging(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.SetDefault(logger)
	slog.Info("logging initialized", slog.String("directory", cfg.Logging.Directory), slog.String("level", cfg.Logging.Level), slog.String("format", cfg.Logging.Format))
	slog.Info("upstream resolved", slog.String("waitlist", cfg.REST.WaitlistURL), slog.String("tables", cfg.REST.TablesURL), slog.String("actions", cfg.REST.ActionBaseURL))
	slog.Info("kafka config resolved", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("group", cfg.Kafka.GroupID))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := infrastructure.NewHub()
	broadcastUC := realtimeuc.NewBroadcastUseCase(hub)

	renderer, err := transport.NewRenderer(transport.SiteInfo{Title: cfg.Dashboard.SiteTitle, Subtitle: cfg.Dashboard.SiteSubtitle})
	if err != nil {
		slog.Error("renderer setup failed", slog.Any("error", err))
		os.Exit(1)
	}
	notifier := transport.NewFragmentNotifier(renderer, broadcastUC)

	api := dashboardinfra.NewWaitlistHTTPClient(dashboardinfra.Endpoints{
		WaitlistURL:   cfg.REST.WaitlistURL,
		TablesURL:     cfg.REST.TablesURL,
		ActionBaseURL: cfg.REST.ActionBaseURL,
	}, cfg.REST.Timeout, nil)

	sessions := dashboarduc.NewSessions(func(id string) *dashboarduc.Client {
		return dashboarduc.NewClient(id, api, dashboarduc.ClientOptions{
			BannerTTL: cfg.Dashboard.BannerTTL,
			Notifier:  notifier,
		})
	}, cfg.Dashboard.SessionTTL)
	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		sessions.Run(ctx, time.Minute)
	}()

	// Staff auth is optional: without key material the desk is open.
	var middlewares []echo.MiddlewareFunc
	validator, err := auth.NewJWTValidator(cfg.Security.JWTSecret, cfg.Security.JWTPublicKey, cfg.Security.StaffRoles...)
	if err != nil {
		slog.Error("staff auth setup failed", slog.Any("error", err))
		os.Exit(1)
	}
	if validator.Enabled() {
		middlewares = append(middlewares, transport.StaffAuth(validator))
		slog.Info("staff auth enabled", slog.Any("roles", cfg.Security.StaffRoles))
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetOutput(log.Writer())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("reqId", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.Any("error", v.Error))
				slog.LogAttrs(context.Background(), slog.LevelWarn, "http request failed", attrs...)
				return nil
			}
			slog.LogAttrs(context.Background(), slog.LevelInfo, "http request", attrs...)
			return nil
		},
	}))

	handler := transport.NewHandler(sessions, renderer, hub, transport.Options{
		CookieName: cfg.Dashboard.SessionCookie,
		RenderWait: cfg.Dashboard.RenderWait,
	})
	handler.Register(e, middlewares...)

	// Registrar handlers de tópicos: cada mensaje refresca las sesiones abiertas
	registry := infrastructure.NewHandlerRegistry()
	for _, topic := range cfg.Kafka.WaitlistTopics {
		registry.Register(dashboardhandler.NewRefreshHandler(normalization.EntityWaitlist, topic, cfg.Kafka.AllowedActions, sessions))
	}
	for _, topic := range cfg.Kafka.TablesTopics {
		registry.Register(dashboardhandler.NewRefreshHandler(normalization.EntityTables, topic, cfg.Kafka.AllowedActions, sessions))
	}
	consumers := broker.StartKafkaConsumers(ctx, registry, cfg.Kafka.Brokers, cfg.Kafka.GroupID)

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", slog.Any("error", err))
		}
	}()

	// Esperar señales
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown incomplete", slog.Any("error", err))
	}
	cancel()
	consumers.Wait()
	<-janitorDone
	slog.Info("shutdown complete")
}

func setupLogging(cfg config.LoggingConfig) (*os.File, *slog.Logger, error) {
	dir := cfg.Directory
	if dir == "" {
		dir = "./logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	fileName := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".log")
	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	writer := io.MultiWriter(os.Stdout, file)
	logger := logging.New(writer, logging.Config{
		Level:     cfg.Level,
		Format:    cfg.Format,
		AddSource: true,
	})
	log.SetOutput(writer)
	log.SetFlags(0)
	log.SetPrefix("")

	return file, logger, nil
}
