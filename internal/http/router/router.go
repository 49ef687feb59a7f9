package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/ignatzorin/lending-backend/internal/config"
	"github.com/ignatzorin/lending-backend/internal/http/middleware"
	"github.com/ignatzorin/lending-backend/internal/interface/http/handler"
	"github.com/ignatzorin/lending-backend/internal/service"
)

// Handlers: все обработчики HTTP API. Media и WS могут быть nil.
type Handlers struct {
	Health       *handler.HealthHandler
	Items        *handler.ItemHandler
	Reservations *handler.ReservationHandler
	Pickups      *handler.PickupHandler
	Returns      *handler.ReturnHandler
	Damage       *handler.DamageHandler
	Reputation   *handler.ReputationHandler
	Audit        *handler.AuditHandler
	Media        *handler.MediaHandler
	WS           *handler.WSHandler
}

func SetupRouter(cfg *config.Config, tokens *service.TokenManager, limitStore limiter.Store, h Handlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(limitStore, cfg.RateLimitLimit, cfg.RateLimitPeriod))

	if h.WS != nil {
		// Токен передаётся в query, AuthMiddleware здесь не нужен.
		api.GET("/ws", h.WS.Handle)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokens))
	staff := middleware.RequireStaff()
	id := middleware.UUIDValidator("id")

	items := protected.Group("/items")
	{
		items.POST("", staff, h.Items.CreateItem)
		items.GET("", h.Items.ListItems)
		items.GET("/:id", id, h.Items.GetItem)
		items.GET("/:id/availability", id, h.Items.CheckAvailability)
	}

	reservations := protected.Group("/reservations")
	{
		reservations.POST("", h.Reservations.CreateReservation)
		reservations.GET("", h.Reservations.ListReservations)
		reservations.GET("/:id", id, h.Reservations.GetReservation)
		reservations.PUT("/:id", id, h.Reservations.ModifyReservation)
		reservations.DELETE("/:id", id, h.Reservations.DeleteReservation)
		reservations.POST("/:id/approve", id, staff, h.Reservations.ApproveReservation)
		reservations.POST("/:id/reject", id, staff, h.Reservations.RejectReservation)
		reservations.POST("/:id/cancel", id, h.Reservations.CancelReservation)
		reservations.GET("/:id/history", id, h.Reservations.GetHistory)

		reservations.POST("/:id/pickup-token", id, h.Pickups.IssueToken)
		reservations.POST("/:id/pickup", id, h.Pickups.ConfirmPickup)
		reservations.GET("/:id/pickup", id, h.Pickups.PickupStatus)
	}

	protected.POST("/pickups/bulk-confirm", staff, h.Pickups.BulkConfirm)
	protected.POST("/overdue/scan", staff, h.Pickups.ScanOverdue)

	returns := protected.Group("/returns")
	{
		returns.POST("", h.Returns.CreateReturn)
		returns.GET("", h.Returns.ListReturns)
		returns.GET("/:id", id, h.Returns.GetReturn)
		returns.POST("/:id/approve", id, staff, h.Returns.ApproveReturn)
		returns.POST("/:id/reject", id, staff, h.Returns.RejectReturn)
		returns.POST("/:id/assessment", id, staff, h.Returns.AssessCondition)
		returns.POST("/:id/damage-reports", id, h.Damage.OpenReport)
	}

	damage := protected.Group("/damage-reports")
	{
		damage.GET("", h.Damage.ListReports)
		damage.GET("/:id", id, h.Damage.GetReport)
		damage.POST("/:id/review", id, staff, h.Damage.StartReview)
		damage.POST("/:id/approve", id, staff, h.Damage.ApproveReport)
		damage.POST("/:id/reject", id, staff, h.Damage.RejectReport)
		damage.POST("/:id/resolve", id, staff, h.Damage.ResolveReport)
	}

	if h.Media != nil {
		protected.POST("/media/damage-photos", h.Media.UploadDamagePhoto)
		protected.StaticFS("/media/files", http.Dir(cfg.MediaStoragePath))
	}

	users := protected.Group("/users")
	{
		users.GET("/me/reputation", h.Reputation.GetMyReputation)
		users.GET("/:id/reputation", id, h.Reputation.GetUserReputation)
		users.POST("/:id/reputation/adjustments", id, h.Reputation.Adjust)
	}

	audit := protected.Group("/audit-log", staff)
	{
		audit.GET("", h.Audit.ListAuditLog)
		audit.GET("/:entity_type/:id", id, h.Audit.EntityHistory)
	}

	return r
}
