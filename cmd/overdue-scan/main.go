// Команда overdue-scan выполняет один прогон поиска просрочек, например из cron.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/app"
	"github.com/ignatzorin/lending-backend/internal/config"
	"github.com/ignatzorin/lending-backend/internal/db"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/lending-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/lending-backend/internal/logger"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
	"github.com/ignatzorin/lending-backend/internal/usecase/notify"
	"github.com/ignatzorin/lending-backend/internal/usecase/overdue"
)

func main() {
	defaults := overdue.DefaultScanInput()
	days := flag.Int("days", defaults.DaysOverdue, "сколько суток после даты начала считать просрочкой")
	includeApproved := flag.Bool("include-approved", defaults.IncludeApproved, "проверять одобренные бронирования")
	includeActive := flag.Bool("include-active", defaults.IncludeActive, "проверять активные бронирования")
	actorFlag := flag.String("actor", os.Getenv("OVERDUE_SCAN_ACTOR_ID"), "идентификатор сотрудника, от имени которого пишется журнал")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("overdue-scan: ошибка загрузки конфигурации: %v", err)
	}
	logger.Init(cfg.LogLevel)
	if !cfg.IsProduction() {
		logger.SetTextFormatter()
	}

	actorID, err := uuid.Parse(*actorFlag)
	if err != nil {
		logger.Log.Fatalf("overdue-scan: нужен -actor или OVERDUE_SCAN_ACTOR_ID: %v", err)
	}
	actor, err := valueobject.NewActor(actorID, string(valueobject.RoleStaff))
	if err != nil {
		logger.Log.Fatalf("overdue-scan: %v", err)
	}

	deps := app.Deps{
		Clock:    clock.Real(),
		Policy:   cfg.Policy,
		Notifier: notify.LogNotifier{},
	}
	if cfg.Storage == config.StorageMemory {
		deps.UoW = memory.NewStore()
	} else {
		conn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Log.Fatalf("overdue-scan: ошибка подключения к базе: %v", err)
		}
		defer func() {
			if err := conn.Close(); err != nil {
				logger.Log.WithError(err).Error("overdue-scan: ошибка закрытия базы")
			}
		}()
		deps.UoW = persistence.NewStore(conn)
	}

	result, err := app.NewOverdueScan(deps).Execute(ctx, actor, overdue.ScanInput{
		DaysOverdue:     *days,
		IncludeApproved: *includeApproved,
		IncludeActive:   *includeActive,
	})
	if err != nil {
		logger.Log.WithError(err).Error("overdue-scan: прогон не выполнен")
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Log.WithError(err).Error("overdue-scan: не удалось вывести результат")
	}

	logger.Log.WithField("total", result.Total).
		WithField("succeeded", result.Succeeded).
		WithField("failed", result.Failed).
		WithField("penalized", result.Penalized).
		Info("overdue-scan: прогон завершён")
}
