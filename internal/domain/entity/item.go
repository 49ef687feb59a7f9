package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

type Item struct {
	ID        uuid.UUID
	Name      string
	Category  string
	Condition valueobject.ItemCondition
	Status    valueobject.ItemStatus
	Location  string
	Value     valueobject.Money
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewItem(name, category string, condition valueobject.ItemCondition, location string, value valueobject.Money, now time.Time) (*Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("название предмета обязательно")
	}
	if !condition.IsValid() {
		return nil, apperror.Validation("некорректное состояние предмета")
	}

	return &Item{
		ID:        uuid.New(),
		Name:      name,
		Category:  strings.TrimSpace(category),
		Condition: condition,
		Status:    valueobject.ItemStatusAvailable,
		Location:  strings.TrimSpace(location),
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (i *Item) IsRetired() bool {
	return i.Status == valueobject.ItemStatusRetired
}

// StatusAfter вычисляет статус предмета после перехода бронирования в reservationStatus.
// Возвращает текущий статус, если переход на предмет не влияет.
func (i *Item) StatusAfter(reservationStatus valueobject.ReservationStatus) valueobject.ItemStatus {
	if i.IsRetired() {
		return i.Status
	}

	switch reservationStatus {
	case valueobject.ReservationStatusActive:
		return valueobject.ItemStatusBorrowed
	case valueobject.ReservationStatusCompleted:
		// Повреждение отражается в Condition, предмет снова доступен.
		return valueobject.ItemStatusAvailable
	}
	return i.Status
}

// ApplyCondition фиксирует состояние, установленное при приёмке возврата.
func (i *Item) ApplyCondition(condition valueobject.ItemCondition, now time.Time) {
	i.Condition = condition
	i.UpdatedAt = now
}

func (i *Item) setStatus(status valueobject.ItemStatus, now time.Time) bool {
	if i.Status == status {
		return false
	}
	i.Status = status
	i.UpdatedAt = now
	return true
}

// SyncWith выставляет статус предмета по статусу бронирования. Возвращает true, если статус изменился.
func (i *Item) SyncWith(reservationStatus valueobject.ReservationStatus, now time.Time) bool {
	return i.setStatus(i.StatusAfter(reservationStatus), now)
}
