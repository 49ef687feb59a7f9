// Package app собирает сценарии и HTTP обработчики поверх выбранного хранилища.
package app

import (
	"time"

	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/http/router"
	"github.com/ignatzorin/lending-backend/internal/interface/http/handler"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
	"github.com/ignatzorin/lending-backend/internal/service"
	"github.com/ignatzorin/lending-backend/internal/storage"
	"github.com/ignatzorin/lending-backend/internal/usecase/audit"
	"github.com/ignatzorin/lending-backend/internal/usecase/availability"
	"github.com/ignatzorin/lending-backend/internal/usecase/damage"
	"github.com/ignatzorin/lending-backend/internal/usecase/item"
	"github.com/ignatzorin/lending-backend/internal/usecase/overdue"
	"github.com/ignatzorin/lending-backend/internal/usecase/pickup"
	"github.com/ignatzorin/lending-backend/internal/usecase/reputation"
	"github.com/ignatzorin/lending-backend/internal/usecase/reservation"
	"github.com/ignatzorin/lending-backend/internal/usecase/returns"
	"github.com/ignatzorin/lending-backend/internal/ws"
)

type Deps struct {
	UoW       repository.UnitOfWork
	Clock     clock.Clock
	Policy    valueobject.Policy
	Notifier  repository.Notifier
	PickupTTL time.Duration

	// Необязательные зависимости.
	DB             handler.Pinger
	Photos         *storage.PhotoStorage
	MaxUploadMB    int64
	Hub            *ws.Hub
	Tokens         *service.TokenManager
	AllowedOrigins []string
}

// NewOverdueScan собирает сканер просрочек; используется и сервером, и пакетным запуском.
func NewOverdueScan(d Deps) *overdue.ScanUseCase {
	return overdue.NewScanUseCase(d.UoW, d.Clock, d.Policy, reputation.NewLedger(d.Policy), d.Notifier)
}

// BuildHandlers связывает сценарии с обработчиками.
func BuildHandlers(d Deps) router.Handlers {
	if d.Notifier == nil {
		d.Notifier = repository.NopNotifier{}
	}
	uow, clk, policy, notifier := d.UoW, d.Clock, d.Policy, d.Notifier
	ledger := reputation.NewLedger(policy)

	h := router.Handlers{
		Health: handler.NewHealthHandler(d.DB),
		Items: handler.NewItemHandler(
			item.NewCreateItemUseCase(uow, clk),
			item.NewGetItemUseCase(uow),
			item.NewListItemsUseCase(uow),
			availability.NewCheckUseCase(uow),
		),
		Reservations: handler.NewReservationHandler(handler.ReservationUseCases{
			Create:  reservation.NewCreateReservationUseCase(uow, clk),
			Modify:  reservation.NewModifyReservationUseCase(uow, clk, policy, notifier),
			Approve: reservation.NewApproveReservationUseCase(uow, clk, notifier),
			Reject:  reservation.NewRejectReservationUseCase(uow, clk, notifier),
			Cancel:  reservation.NewCancelReservationUseCase(uow, clk, policy, ledger, notifier),
			Delete:  reservation.NewDeleteReservationUseCase(uow, clk),
			Get:     reservation.NewGetReservationUseCase(uow),
			List:    reservation.NewListReservationsUseCase(uow),
			History: reservation.NewGetReservationHistoryUseCase(uow),
		}),
		Pickups: handler.NewPickupHandler(
			pickup.NewIssueTokenUseCase(uow, clk, d.PickupTTL),
			pickup.NewConfirmUseCase(uow, clk, notifier),
			pickup.NewStatusUseCase(uow, clk),
			pickup.NewBulkConfirmUseCase(uow, clk, notifier),
			overdue.NewScanUseCase(uow, clk, policy, ledger, notifier),
		),
		Returns: handler.NewReturnHandler(
			returns.NewCreateReturnUseCase(uow, clk, notifier),
			returns.NewApproveReturnUseCase(uow, clk, ledger, notifier),
			returns.NewRejectReturnUseCase(uow, clk, notifier),
			returns.NewAssessConditionUseCase(uow, clk, policy),
			returns.NewGetReturnUseCase(uow),
			returns.NewListReturnsUseCase(uow),
		),
		Damage: handler.NewDamageHandler(handler.DamageUseCases{
			Open:    damage.NewOpenReportUseCase(uow, clk, notifier),
			Review:  damage.NewStartReviewUseCase(uow, clk, notifier),
			Approve: damage.NewApproveReportUseCase(uow, clk, ledger, notifier),
			Reject:  damage.NewRejectReportUseCase(uow, clk, notifier),
			Resolve: damage.NewResolveReportUseCase(uow, clk, notifier),
			Get:     damage.NewGetReportUseCase(uow),
			List:    damage.NewListReportsUseCase(uow),
		}),
		Reputation: handler.NewReputationHandler(
			reputation.NewGetScoreUseCase(uow, ledger),
			reputation.NewGetHistoryUseCase(uow),
			reputation.NewAdjustUseCase(uow, ledger, clk),
		),
		Audit: handler.NewAuditHandler(
			audit.NewListAuditLogUseCase(uow),
			audit.NewGetEntityHistoryUseCase(uow),
		),
	}

	if d.Photos != nil {
		h.Media = handler.NewMediaHandler(d.Photos, d.MaxUploadMB)
	}
	if d.Hub != nil && d.Tokens != nil {
		h.WS = handler.NewWSHandler(d.Hub, d.Tokens, d.AllowedOrigins)
	}
	return h
}
