package valueobject

import "github.com/ignatzorin/lending-backend/internal/pkg/apperror"

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusApproved  ReservationStatus = "APPROVED"
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
	ReservationStatusRejected  ReservationStatus = "REJECTED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusPending:   {ReservationStatusApproved, ReservationStatusRejected, ReservationStatusCancelled},
	ReservationStatusApproved:  {ReservationStatusActive, ReservationStatusCancelled, ReservationStatusPending},
	ReservationStatusActive:    {ReservationStatusCompleted},
	ReservationStatusCompleted: {},
	ReservationStatusRejected:  {},
	ReservationStatusCancelled: {},
}

func (s ReservationStatus) IsValid() bool {
	_, ok := reservationTransitions[s]
	return ok
}

// CanTransitionTo описывает допустимые переходы жизненного цикла бронирования.
// APPROVED -> PENDING возможен только при существенном изменении дат владельцем.
func (s ReservationStatus) CanTransitionTo(newStatus ReservationStatus) bool {
	allowed, ok := reservationTransitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

// IsBlocking: бронирования в этих статусах занимают диапазон дат предмета.
func (s ReservationStatus) IsBlocking() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusApproved, ReservationStatusActive:
		return true
	}
	return false
}

func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case ReservationStatusCompleted, ReservationStatusRejected, ReservationStatusCancelled:
		return true
	}
	return false
}

// IsModifiable: владелец или сотрудник может менять даты и отменять.
func (s ReservationStatus) IsModifiable() bool {
	return s == ReservationStatusPending || s == ReservationStatusApproved
}

// BlockingReservationStatuses возвращает статусы, участвующие в проверке пересечений.
func BlockingReservationStatuses() []ReservationStatus {
	return []ReservationStatus{ReservationStatusPending, ReservationStatusApproved, ReservationStatusActive}
}

func NewReservationStatus(status string) (ReservationStatus, error) {
	s := ReservationStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус бронирования")
	}
	return s, nil
}

type ItemStatus string

const (
	ItemStatusAvailable   ItemStatus = "AVAILABLE"
	ItemStatusReserved    ItemStatus = "RESERVED"
	ItemStatusBorrowed    ItemStatus = "BORROWED"
	ItemStatusMaintenance ItemStatus = "MAINTENANCE"
	ItemStatusRetired     ItemStatus = "RETIRED"
)

func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusAvailable, ItemStatusReserved, ItemStatusBorrowed, ItemStatusMaintenance, ItemStatusRetired:
		return true
	}
	return false
}

func NewItemStatus(status string) (ItemStatus, error) {
	s := ItemStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус предмета")
	}
	return s, nil
}

type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "PENDING"
	ReturnStatusApproved ReturnStatus = "APPROVED"
	ReturnStatusRejected ReturnStatus = "REJECTED"
	ReturnStatusDamaged  ReturnStatus = "DAMAGED"
)

func (s ReturnStatus) IsValid() bool {
	switch s {
	case ReturnStatusPending, ReturnStatusApproved, ReturnStatusRejected, ReturnStatusDamaged:
		return true
	}
	return false
}

// IsOpen: на одно бронирование допускается только один такой возврат.
func (s ReturnStatus) IsOpen() bool {
	return s != ReturnStatusRejected
}

func NewReturnStatus(status string) (ReturnStatus, error) {
	s := ReturnStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус возврата")
	}
	return s, nil
}

type DamageReportStatus string

const (
	DamageReportStatusReported    DamageReportStatus = "REPORTED"
	DamageReportStatusUnderReview DamageReportStatus = "UNDER_REVIEW"
	DamageReportStatusApproved    DamageReportStatus = "APPROVED"
	DamageReportStatusRejected    DamageReportStatus = "REJECTED"
	DamageReportStatusResolved    DamageReportStatus = "RESOLVED"
)

var damageReportTransitions = map[DamageReportStatus][]DamageReportStatus{
	DamageReportStatusReported:    {DamageReportStatusUnderReview},
	DamageReportStatusUnderReview: {DamageReportStatusApproved, DamageReportStatusRejected},
	DamageReportStatusApproved:    {DamageReportStatusResolved},
	DamageReportStatusRejected:    {DamageReportStatusResolved},
	DamageReportStatusResolved:    {},
}

func (s DamageReportStatus) IsValid() bool {
	_, ok := damageReportTransitions[s]
	return ok
}

func (s DamageReportStatus) CanTransitionTo(newStatus DamageReportStatus) bool {
	for _, status := range damageReportTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewDamageReportStatus(status string) (DamageReportStatus, error) {
	s := DamageReportStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус акта о повреждении")
	}
	return s, nil
}

type OverdueSeverity string

const (
	OverdueSeverityModerate OverdueSeverity = "MODERATE"
	OverdueSeverityHigh     OverdueSeverity = "HIGH"
	OverdueSeverityCritical OverdueSeverity = "CRITICAL"
)
