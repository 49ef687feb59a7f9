package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/lending-backend/internal/interface/http/response"
	"github.com/ignatzorin/lending-backend/internal/logger"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

// ErrorHandler отвечает конвертом ошибки, если обработчик положил ошибку в c.Errors
// и сам ничего не записал.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		response.Error(c, c.Errors.Last().Err)
	}
}

// Recovery перехватывает панику обработчика и отвечает INTERNAL_ERROR.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Log.WithFields(logrus.Fields{
			"panic":      recovered,
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": c.GetString(ContextRequestIDKey),
		}).Error("паника при обработке запроса")

		response.Abort(c, apperror.New(apperror.ErrCodeInternal, "внутренняя ошибка сервера"))
	})
}
