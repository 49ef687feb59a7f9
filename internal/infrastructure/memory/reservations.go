package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

type reservationRepo struct {
	run runner
}

func (r *reservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	return r.run(func(st *state) error {
		if _, ok := st.reservations[res.ID]; ok {
			return apperror.Conflict("бронирование уже существует", nil)
		}
		st.reservations[res.ID] = *res
		st.resOrder = append(st.resOrder, res.ID)
		return nil
	})
}

func (r *reservationRepo) Update(ctx context.Context, res *entity.Reservation) error {
	return r.run(func(st *state) error {
		if _, ok := st.reservations[res.ID]; !ok {
			return apperror.ErrReservationNotFound
		}
		st.reservations[res.ID] = *res
		return nil
	})
}

func (r *reservationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.run(func(st *state) error {
		if _, ok := st.reservations[id]; !ok {
			return apperror.ErrReservationNotFound
		}
		delete(st.reservations, id)
		st.resOrder = removeID(st.resOrder, id)
		return nil
	})
}

func (r *reservationRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	var out *entity.Reservation
	err := r.run(func(st *state) error {
		res, ok := st.reservations[id]
		if !ok {
			return apperror.ErrReservationNotFound
		}
		out = &res
		return nil
	})
	return out, err
}

func (r *reservationRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	return r.FindByID(ctx, id)
}

func (r *reservationRepo) FindBlocking(ctx context.Context, itemID uuid.UUID, window valueobject.DateRange) ([]*entity.Reservation, error) {
	var out []*entity.Reservation
	err := r.run(func(st *state) error {
		for _, id := range st.resOrder {
			res := st.reservations[id]
			if res.ItemID != itemID || !res.Status.IsBlocking() || !res.Period().Overlaps(window) {
				continue
			}
			out = append(out, &res)
		}
		return nil
	})
	return out, err
}

func (r *reservationRepo) List(ctx context.Context, filter repository.ReservationFilter) ([]*entity.Reservation, int, error) {
	var out []*entity.Reservation
	var total int
	err := r.run(func(st *state) error {
		var matched []*entity.Reservation
		for i := len(st.resOrder) - 1; i >= 0; i-- {
			res := st.reservations[st.resOrder[i]]
			if !matchReservation(res, filter) {
				continue
			}
			matched = append(matched, &res)
		}
		total = len(matched)
		from, to := page(total, filter.Limit, filter.Offset)
		out = matched[from:to]
		return nil
	})
	return out, total, err
}

func matchReservation(res entity.Reservation, filter repository.ReservationFilter) bool {
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, res.Status) {
		return false
	}
	if filter.ItemID != nil && res.ItemID != *filter.ItemID {
		return false
	}
	if filter.UserID != nil && res.UserID != *filter.UserID {
		return false
	}
	if filter.From != nil && !res.EndDate.After(*filter.From) {
		return false
	}
	if filter.To != nil && !res.StartDate.Before(*filter.To) {
		return false
	}
	return true
}

func (r *reservationRepo) FindOverdueCandidates(ctx context.Context, criteria repository.OverdueCriteria) ([]*entity.Reservation, error) {
	var out []*entity.Reservation
	err := r.run(func(st *state) error {
		for _, id := range st.resOrder {
			res := st.reservations[id]
			if !containsStatus(criteria.Statuses, res.Status) {
				continue
			}
			if res.PickupConfirmed || !res.StartDate.Before(criteria.StartedBefore) {
				continue
			}
			out = append(out, &res)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, err
}

func containsStatus(statuses []valueobject.ReservationStatus, s valueobject.ReservationStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}
