package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/goroutine"
	"github.com/ignatzorin/lending-backend/internal/logger"
)

// Dispatch передаёт намерения уведомить после фиксации транзакции.
// Доставка идёт в отдельной горутине и не влияет на результат операции.
func Dispatch(notifier repository.Notifier, notifications ...repository.Notification) {
	if notifier == nil || len(notifications) == 0 {
		return
	}
	goroutine.SafeGo(func() {
		ctx := context.Background()
		for _, n := range notifications {
			notifier.Notify(ctx, n)
		}
	})
}

// LogNotifier пишет намерения уведомить в лог. Используется там, где нет живых соединений.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n repository.Notification) {
	logger.Log.WithFields(logrus.Fields{
		"type":      n.Type,
		"user_id":   n.UserID,
		"entity_id": n.EntityID,
	}).Info("уведомление")
}

// Multi рассылает уведомление каждому из получателей по очереди.
type Multi []repository.Notifier

func (m Multi) Notify(ctx context.Context, n repository.Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}
