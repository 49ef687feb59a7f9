package returns

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/logger"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

// Details: возврат вместе с историей оценок состояния.
type Details struct {
	Return      *entity.Return
	Assessments []*entity.ConditionAssessment
}

type GetReturnUseCase struct {
	store repository.Store
}

func NewGetReturnUseCase(store repository.Store) *GetReturnUseCase {
	return &GetReturnUseCase{store: store}
}

func (uc *GetReturnUseCase) Execute(ctx context.Context, actor valueobject.Actor, returnID uuid.UUID) (*Details, error) {
	ret, err := uc.store.Returns().FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() {
		res, err := uc.store.Reservations().FindByID(ctx, ret.ReservationID)
		if err != nil {
			return nil, err
		}
		if !actor.Owns(res.UserID) && !actor.Owns(ret.ReturnedBy) {
			logger.Denied("get_return", returnID, actor.ID)
			return nil, apperror.ErrForbidden
		}
	}

	assessments, err := uc.store.Assessments().ListByReturn(ctx, ret.ID)
	if err != nil {
		return nil, err
	}
	return &Details{Return: ret, Assessments: assessments}, nil
}

type ListReturnsUseCase struct {
	store repository.Store
}

func NewListReturnsUseCase(store repository.Store) *ListReturnsUseCase {
	return &ListReturnsUseCase{store: store}
}

// Execute: заёмщик видит только оформленные им возвраты.
func (uc *ListReturnsUseCase) Execute(ctx context.Context, actor valueobject.Actor, filter repository.ReturnFilter) ([]*entity.Return, int, error) {
	if !actor.IsStaff() {
		filter.ReturnedBy = &actor.ID
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.store.Returns().List(ctx, filter)
}
