package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/interface/http/response"
	"github.com/ignatzorin/lending-backend/internal/logger"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/service"
)

// ContextActorKey: ключ аутентифицированного актора в gin.Context.
const ContextActorKey = "actor"

// AuthMiddleware проверяет JWT access токен.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			response.Abort(c, apperror.ErrUnauthorized)
			return
		}

		actor, err := tokens.ParseAccess(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			logger.Log.WithError(err).WithField("path", c.Request.URL.Path).Debug("auth: токен отклонён")
			response.Abort(c, apperror.New(apperror.ErrCodeUnauthorized, "токен невалиден"))
			return
		}

		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// RequireStaff пропускает только сотрудников склада.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			response.Abort(c, apperror.ErrUnauthorized)
			return
		}
		if !actor.IsStaff() {
			logger.Denied(c.FullPath(), c.Param("id"), actor.ID)
			response.Abort(c, apperror.ErrForbidden)
			return
		}
		c.Next()
	}
}

// ActorFrom достаёт актора, положенного AuthMiddleware.
func ActorFrom(c *gin.Context) (valueobject.Actor, bool) {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return valueobject.Actor{}, false
	}
	actor, ok := value.(valueobject.Actor)
	return actor, ok
}
