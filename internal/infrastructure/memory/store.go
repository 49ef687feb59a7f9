// Package memory: хранилище в памяти для режима разработки и тестов.
// Транзакции сериализуются одним мьютексом: состояние копируется, а при успехе подменяется целиком.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
)

type state struct {
	items        map[uuid.UUID]entity.Item
	itemOrder    []uuid.UUID
	reservations map[uuid.UUID]entity.Reservation
	resOrder     []uuid.UUID
	returns      map[uuid.UUID]entity.Return
	returnOrder  []uuid.UUID
	assessments  []entity.ConditionAssessment
	damage       map[uuid.UUID]entity.DamageReport
	damageOrder  []uuid.UUID
	scores       map[uuid.UUID]entity.TrustScore
	entries      []entity.ReputationEntry
	audit        []entity.AuditLogEntry
}

func newState() *state {
	return &state{
		items:        make(map[uuid.UUID]entity.Item),
		reservations: make(map[uuid.UUID]entity.Reservation),
		returns:      make(map[uuid.UUID]entity.Return),
		damage:       make(map[uuid.UUID]entity.DamageReport),
		scores:       make(map[uuid.UUID]entity.TrustScore),
	}
}

// clone копирует контейнеры. Сами записи хранятся значениями и не меняются на месте.
func (s *state) clone() *state {
	c := &state{
		items:        make(map[uuid.UUID]entity.Item, len(s.items)),
		itemOrder:    append([]uuid.UUID(nil), s.itemOrder...),
		reservations: make(map[uuid.UUID]entity.Reservation, len(s.reservations)),
		resOrder:     append([]uuid.UUID(nil), s.resOrder...),
		returns:      make(map[uuid.UUID]entity.Return, len(s.returns)),
		returnOrder:  append([]uuid.UUID(nil), s.returnOrder...),
		assessments:  append([]entity.ConditionAssessment(nil), s.assessments...),
		damage:       make(map[uuid.UUID]entity.DamageReport, len(s.damage)),
		damageOrder:  append([]uuid.UUID(nil), s.damageOrder...),
		scores:       make(map[uuid.UUID]entity.TrustScore, len(s.scores)),
		entries:      append([]entity.ReputationEntry(nil), s.entries...),
		audit:        append([]entity.AuditLogEntry(nil), s.audit...),
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	for k, v := range s.returns {
		c.returns[k] = v
	}
	for k, v := range s.damage {
		c.damage[k] = v
	}
	for k, v := range s.scores {
		c.scores[k] = v
	}
	return c
}

type runner func(fn func(st *state) error) error

type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

var _ repository.UnitOfWork = (*Store)(nil)

// WithinTx выполняет fn над копией состояния. Ошибка fn отбрасывает копию.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	tx := &view{run: func(f func(st *state) error) error { return f(work) }}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.st = work
	return nil
}

// run выполняет одиночную операцию вне явной транзакции.
func (s *Store) run(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) root() *view { return &view{run: s.run} }

func (s *Store) Items() repository.ItemRepository                 { return s.root().Items() }
func (s *Store) Reservations() repository.ReservationRepository   { return s.root().Reservations() }
func (s *Store) Returns() repository.ReturnRepository             { return s.root().Returns() }
func (s *Store) Assessments() repository.AssessmentRepository     { return s.root().Assessments() }
func (s *Store) DamageReports() repository.DamageReportRepository { return s.root().DamageReports() }
func (s *Store) Reputation() repository.ReputationRepository      { return s.root().Reputation() }
func (s *Store) AuditLog() repository.AuditLogRepository          { return s.root().AuditLog() }

type view struct {
	run runner
}

func (v *view) Items() repository.ItemRepository                 { return &itemRepo{run: v.run} }
func (v *view) Reservations() repository.ReservationRepository   { return &reservationRepo{run: v.run} }
func (v *view) Returns() repository.ReturnRepository             { return &returnRepo{run: v.run} }
func (v *view) Assessments() repository.AssessmentRepository     { return &assessmentRepo{run: v.run} }
func (v *view) DamageReports() repository.DamageReportRepository { return &damageRepo{run: v.run} }
func (v *view) Reputation() repository.ReputationRepository      { return &reputationRepo{run: v.run} }
func (v *view) AuditLog() repository.AuditLogRepository          { return &auditRepo{run: v.run} }

// page применяет limit/offset к n элементам и возвращает границы среза.
func page(n, limit, offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return offset, end
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
