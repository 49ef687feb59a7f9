package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

type returnRepo struct {
	run runner
}

func copyReturn(ret entity.Return) entity.Return {
	ret.ImageRefs = append([]string(nil), ret.ImageRefs...)
	return ret
}

func (r *returnRepo) Create(ctx context.Context, ret *entity.Return) error {
	return r.run(func(st *state) error {
		if _, ok := st.returns[ret.ID]; ok {
			return apperror.Conflict("возврат уже существует", nil)
		}
		if ret.Status.IsOpen() {
			for _, existing := range st.returns {
				if existing.ReservationID == ret.ReservationID && existing.Status.IsOpen() {
					return apperror.Conflict("по бронированию уже есть незакрытый возврат", existing.ID)
				}
			}
		}
		st.returns[ret.ID] = copyReturn(*ret)
		st.returnOrder = append(st.returnOrder, ret.ID)
		return nil
	})
}

func (r *returnRepo) Update(ctx context.Context, ret *entity.Return) error {
	return r.run(func(st *state) error {
		if _, ok := st.returns[ret.ID]; !ok {
			return apperror.ErrReturnNotFound
		}
		st.returns[ret.ID] = copyReturn(*ret)
		return nil
	})
}

func (r *returnRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Return, error) {
	var out *entity.Return
	err := r.run(func(st *state) error {
		ret, ok := st.returns[id]
		if !ok {
			return apperror.ErrReturnNotFound
		}
		c := copyReturn(ret)
		out = &c
		return nil
	})
	return out, err
}

func (r *returnRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Return, error) {
	return r.FindByID(ctx, id)
}

func (r *returnRepo) FindOpenByReservation(ctx context.Context, reservationID uuid.UUID) (*entity.Return, error) {
	var out *entity.Return
	err := r.run(func(st *state) error {
		for _, id := range st.returnOrder {
			ret := st.returns[id]
			if ret.ReservationID == reservationID && ret.Status.IsOpen() {
				c := copyReturn(ret)
				out = &c
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *returnRepo) List(ctx context.Context, filter repository.ReturnFilter) ([]*entity.Return, int, error) {
	var out []*entity.Return
	var total int
	err := r.run(func(st *state) error {
		var matched []*entity.Return
		for i := len(st.returnOrder) - 1; i >= 0; i-- {
			ret := st.returns[st.returnOrder[i]]
			if filter.Status != nil && ret.Status != *filter.Status {
				continue
			}
			if filter.ReservationID != nil && ret.ReservationID != *filter.ReservationID {
				continue
			}
			if filter.ItemID != nil && ret.ItemID != *filter.ItemID {
				continue
			}
			if filter.ReturnedBy != nil && ret.ReturnedBy != *filter.ReturnedBy {
				continue
			}
			c := copyReturn(ret)
			matched = append(matched, &c)
		}
		total = len(matched)
		from, to := page(total, filter.Limit, filter.Offset)
		out = matched[from:to]
		return nil
	})
	return out, total, err
}

func (r *returnRepo) DeleteByReservation(ctx context.Context, reservationID uuid.UUID) error {
	return r.run(func(st *state) error {
		for id, ret := range st.returns {
			if ret.ReservationID != reservationID {
				continue
			}
			delete(st.returns, id)
			st.returnOrder = removeID(st.returnOrder, id)

			kept := st.assessments[:0]
			for _, a := range st.assessments {
				if a.ReturnID != id {
					kept = append(kept, a)
				}
			}
			st.assessments = kept
		}
		return nil
	})
}

type assessmentRepo struct {
	run runner
}

func copyAssessment(a entity.ConditionAssessment) entity.ConditionAssessment {
	a.Criteria = append([]entity.AssessmentCriterion(nil), a.Criteria...)
	return a
}

func (r *assessmentRepo) Create(ctx context.Context, a *entity.ConditionAssessment) error {
	return r.run(func(st *state) error {
		if _, ok := st.returns[a.ReturnID]; !ok {
			return apperror.ErrReturnNotFound
		}
		st.assessments = append(st.assessments, copyAssessment(*a))
		return nil
	})
}

func (r *assessmentRepo) FindLatestByReturn(ctx context.Context, returnID uuid.UUID) (*entity.ConditionAssessment, error) {
	var out *entity.ConditionAssessment
	err := r.run(func(st *state) error {
		for i := len(st.assessments) - 1; i >= 0; i-- {
			if st.assessments[i].ReturnID == returnID {
				c := copyAssessment(st.assessments[i])
				out = &c
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *assessmentRepo) ListByReturn(ctx context.Context, returnID uuid.UUID) ([]*entity.ConditionAssessment, error) {
	var out []*entity.ConditionAssessment
	err := r.run(func(st *state) error {
		for _, a := range st.assessments {
			if a.ReturnID == returnID {
				c := copyAssessment(a)
				out = append(out, &c)
			}
		}
		return nil
	})
	return out, err
}

type damageRepo struct {
	run runner
}

func (r *damageRepo) Create(ctx context.Context, d *entity.DamageReport) error {
	return r.run(func(st *state) error {
		if _, ok := st.returns[d.ReturnID]; !ok {
			return apperror.ErrReturnNotFound
		}
		st.damage[d.ID] = *d
		st.damageOrder = append(st.damageOrder, d.ID)
		return nil
	})
}

func (r *damageRepo) Update(ctx context.Context, d *entity.DamageReport) error {
	return r.run(func(st *state) error {
		if _, ok := st.damage[d.ID]; !ok {
			return apperror.ErrDamageReportNotFound
		}
		st.damage[d.ID] = *d
		return nil
	})
}

func (r *damageRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.DamageReport, error) {
	var out *entity.DamageReport
	err := r.run(func(st *state) error {
		d, ok := st.damage[id]
		if !ok {
			return apperror.ErrDamageReportNotFound
		}
		out = &d
		return nil
	})
	return out, err
}

func (r *damageRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.DamageReport, error) {
	return r.FindByID(ctx, id)
}

func (r *damageRepo) List(ctx context.Context, filter repository.DamageReportFilter) ([]*entity.DamageReport, int, error) {
	var out []*entity.DamageReport
	var total int
	err := r.run(func(st *state) error {
		var matched []*entity.DamageReport
		for i := len(st.damageOrder) - 1; i >= 0; i-- {
			d := st.damage[st.damageOrder[i]]
			if filter.Status != nil && d.Status != *filter.Status {
				continue
			}
			if filter.ReturnID != nil && d.ReturnID != *filter.ReturnID {
				continue
			}
			if filter.ItemID != nil && d.ItemID != *filter.ItemID {
				continue
			}
			if filter.ReportedBy != nil && d.ReportedBy != *filter.ReportedBy {
				continue
			}
			matched = append(matched, &d)
		}
		total = len(matched)
		from, to := page(total, filter.Limit, filter.Offset)
		out = matched[from:to]
		return nil
	})
	return out, total, err
}

func (r *damageRepo) DeleteByReservation(ctx context.Context, reservationID uuid.UUID) error {
	return r.run(func(st *state) error {
		for id, d := range st.damage {
			if d.ReservationID == reservationID {
				delete(st.damage, id)
				st.damageOrder = removeID(st.damageOrder, id)
			}
		}
		return nil
	})
}
