package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/lending-backend/internal/app"
	"github.com/ignatzorin/lending-backend/internal/config"
	"github.com/ignatzorin/lending-backend/internal/db"
	"github.com/ignatzorin/lending-backend/internal/http/middleware"
	httpRouter "github.com/ignatzorin/lending-backend/internal/http/router"
	"github.com/ignatzorin/lending-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/lending-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/lending-backend/internal/logger"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
	"github.com/ignatzorin/lending-backend/internal/service"
	"github.com/ignatzorin/lending-backend/internal/storage"
	"github.com/ignatzorin/lending-backend/internal/usecase/notify"
	"github.com/ignatzorin/lending-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if !cfg.IsProduction() {
		logger.SetTextFormatter()
	}

	deps := app.Deps{
		Clock:          clock.Real(),
		Policy:         cfg.Policy,
		PickupTTL:      cfg.PickupTokenTTL,
		MaxUploadMB:    cfg.MaxUploadSizeMB,
		AllowedOrigins: cfg.AllowedOrigins,
	}

	// Хранилище.
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Log.Warn("main: данные хранятся в памяти и пропадут при остановке")
		deps.UoW = memory.NewStore()
	default:
		dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
		}
		defer safeClose(dbConn)

		if err := db.RunMigrations(ctx, dbConn); err != nil {
			logger.Log.Fatalf("main: ошибка миграций: %v", err)
		}
		deps.UoW = persistence.NewStore(dbConn)
		deps.DB = dbConn
	}

	// Вспомогательные сервисы.
	deps.Tokens = service.NewTokenManager(cfg.JWTSecret)

	deps.Photos, err = storage.NewPhotoStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		logger.Log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Вебсокеты.
	deps.Hub = ws.NewHub()
	go deps.Hub.Run(ctx)
	deps.Notifier = notify.Multi{deps.Hub, notify.LogNotifier{}}

	limitStore, err := middleware.NewRateLimitStore(cfg.RedisURL)
	if err != nil {
		logger.Log.Fatalf("main: %v", err)
	}
	if err := middleware.RegisterValidators(); err != nil {
		logger.Log.Fatalf("main: %v", err)
	}

	engine := httpRouter.SetupRouter(cfg, deps.Tokens, limitStore, app.BuildHandlers(deps))

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	logger.Log.WithField("port", cfg.HTTPPort).WithField("storage", cfg.Storage).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		logger.Log.WithError(err).Error("main: ошибка закрытия базы")
	}
}
