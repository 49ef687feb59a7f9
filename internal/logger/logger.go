package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Log: общий логгер приложения. До Init пишет текстом на уровне Info.
var Log = logrus.New()

// Init инициализирует структурированный логгер.
func Init(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// JSON для production, text для development
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// Silence отключает вывод, используется в тестах.
func Silence() {
	Log.SetOutput(io.Discard)
}

// Rejected фиксирует попытку, прошедшую проверку прав, но отклонённую по состоянию.
func Rejected(action string, entityID, actorID interface{}, err error) {
	Log.WithFields(logrus.Fields{
		"action":    action,
		"entity_id": entityID,
		"actor_id":  actorID,
		"reason":    err.Error(),
	}).Warn("операция отклонена")
}

// Denied фиксирует отказ в доступе.
func Denied(action string, entityID, actorID interface{}) {
	Log.WithFields(logrus.Fields{
		"action":    action,
		"entity_id": entityID,
		"actor_id":  actorID,
	}).Warn("доступ запрещён")
}
