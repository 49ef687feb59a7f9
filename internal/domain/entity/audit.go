package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

type AuditAction string

const (
	AuditCreateReservation  AuditAction = "CREATE_RESERVATION"
	AuditApproveReservation AuditAction = "APPROVE_RESERVATION"
	AuditRejectReservation  AuditAction = "REJECT_RESERVATION"
	AuditModifyReservation  AuditAction = "MODIFY_RESERVATION"
	AuditCancelReservation  AuditAction = "CANCEL_RESERVATION"
	AuditDeleteReservation  AuditAction = "DELETE_RESERVATION"
	AuditIssuePickupToken   AuditAction = "ISSUE_PICKUP_TOKEN"
	AuditConfirmPickup      AuditAction = "CONFIRM_PICKUP"
	AuditCreateReturn       AuditAction = "CREATE_RETURN"
	AuditApproveReturn      AuditAction = "APPROVE_RETURN"
	AuditRejectReturn       AuditAction = "REJECT_RETURN"
	AuditAssessCondition    AuditAction = "ASSESS_CONDITION"
	AuditOpenDamageReport   AuditAction = "OPEN_DAMAGE_REPORT"
	AuditReviewDamageReport AuditAction = "REVIEW_DAMAGE_REPORT"
	AuditApproveDamage      AuditAction = "APPROVE_DAMAGE_REPORT"
	AuditRejectDamage       AuditAction = "REJECT_DAMAGE_REPORT"
	AuditResolveDamage      AuditAction = "RESOLVE_DAMAGE_REPORT"
	AuditAdjustReputation   AuditAction = "ADJUST_REPUTATION"
	AuditMarkOverdue        AuditAction = "MARK_OVERDUE"
	AuditCreateItem         AuditAction = "CREATE_ITEM"
)

// IsTransition: запись документирует смену статуса бронирования или предмета.
func (a AuditAction) IsTransition() bool {
	switch a {
	case AuditCreateReservation, AuditApproveReservation, AuditRejectReservation,
		AuditModifyReservation, AuditCancelReservation, AuditConfirmPickup, AuditApproveReturn:
		return true
	}
	return false
}

type AuditEntityType string

const (
	AuditEntityReservation  AuditEntityType = "RESERVATION"
	AuditEntityReturn       AuditEntityType = "RETURN"
	AuditEntityDamageReport AuditEntityType = "DAMAGE_REPORT"
	AuditEntityUser         AuditEntityType = "USER"
	AuditEntityItem         AuditEntityType = "ITEM"
)

func (t AuditEntityType) IsValid() bool {
	switch t {
	case AuditEntityReservation, AuditEntityReturn, AuditEntityDamageReport, AuditEntityUser, AuditEntityItem:
		return true
	}
	return false
}

// AuditPayload: закрытый набор типизированных данных записи журнала.
// Действие и сущность определяются самим payload.
type AuditPayload interface {
	Action() AuditAction
	Entity() (AuditEntityType, uuid.UUID)
}

type AuditLogEntry struct {
	ID         uuid.UUID
	Action     AuditAction
	EntityType AuditEntityType
	EntityID   uuid.UUID
	UserID     uuid.UUID
	Payload    AuditPayload
	CreatedAt  time.Time
}

func NewAuditLogEntry(actor valueobject.Actor, payload AuditPayload, now time.Time) *AuditLogEntry {
	entityType, entityID := payload.Entity()
	return &AuditLogEntry{
		ID:         uuid.New(),
		Action:     payload.Action(),
		EntityType: entityType,
		EntityID:   entityID,
		UserID:     actor.ID,
		Payload:    payload,
		CreatedAt:  now,
	}
}

type CreateReservationPayload struct {
	ReservationID uuid.UUID `json:"reservationId"`
	ItemID        uuid.UUID `json:"itemId"`
	UserID        uuid.UUID `json:"userId"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	Purpose       string    `json:"purpose,omitempty"`
}

type ApproveReservationPayload struct {
	ReservationID  uuid.UUID                     `json:"reservationId"`
	PreviousStatus valueobject.ReservationStatus `json:"previousStatus"`
	NewStatus      valueobject.ReservationStatus `json:"newStatus"`
	ApprovedBy     uuid.UUID                     `json:"approvedBy"`
}

type RejectReservationPayload struct {
	ReservationID  uuid.UUID                     `json:"reservationId"`
	PreviousStatus valueobject.ReservationStatus `json:"previousStatus"`
	Reason         string                        `json:"reason"`
}

type ModifyReservationPayload struct {
	ReservationID      uuid.UUID                     `json:"reservationId"`
	PreviousStart      time.Time                     `json:"previousStart"`
	PreviousEnd        time.Time                     `json:"previousEnd"`
	NewStart           time.Time                     `json:"newStart"`
	NewEnd             time.Time                     `json:"newEnd"`
	PreviousStatus     valueobject.ReservationStatus `json:"previousStatus"`
	NewStatus          valueobject.ReservationStatus `json:"newStatus"`
	ReapprovalRequired bool                          `json:"reapprovalRequired"`
}

type CancelReservationPayload struct {
	ReservationID  uuid.UUID                     `json:"reservationId"`
	PreviousStatus valueobject.ReservationStatus `json:"previousStatus"`
	Reason         string                        `json:"reason"`
	CancelledBy    uuid.UUID                     `json:"cancelledBy"`
	Timing         valueobject.CancellationKind  `json:"timing,omitempty"`
	PenaltyPoints  int                           `json:"penaltyPoints"`
}

type DeleteReservationPayload struct {
	ReservationID uuid.UUID                     `json:"reservationId"`
	ItemID        uuid.UUID                     `json:"itemId"`
	UserID        uuid.UUID                     `json:"userId"`
	Status        valueobject.ReservationStatus `json:"status"`
	StartDate     time.Time                     `json:"startDate"`
	EndDate       time.Time                     `json:"endDate"`
}

// IssuePickupTokenPayload хранит только bcrypt-хэш кода.
type IssuePickupTokenPayload struct {
	ReservationID uuid.UUID `json:"reservationId"`
	TokenHash     string    `json:"tokenHash"`
	ExpiresAt     time.Time `json:"expiresAt"`
	IssuedBy      uuid.UUID `json:"issuedBy"`
}

type PickupMethod string

const (
	PickupMethodToken    PickupMethod = "TOKEN"
	PickupMethodAttested PickupMethod = "STAFF_ATTESTED"
)

type ConfirmPickupPayload struct {
	ReservationID      uuid.UUID              `json:"reservationId"`
	ItemID             uuid.UUID              `json:"itemId"`
	ConfirmedAt        time.Time              `json:"confirmedAt"`
	Method             PickupMethod           `json:"method"`
	PreviousItemStatus valueobject.ItemStatus `json:"previousItemStatus"`
	NewItemStatus      valueobject.ItemStatus `json:"newItemStatus"`
}

type CreateReturnPayload struct {
	ReturnID        uuid.UUID                 `json:"returnId"`
	ReservationID   uuid.UUID                 `json:"reservationId"`
	Condition       valueobject.ItemCondition `json:"condition"`
	ReturnDate      time.Time                 `json:"returnDate"`
	OnTime          bool                      `json:"onTime"`
	HasDamageReport bool                      `json:"hasDamageReport"`
}

type ApproveReturnPayload struct {
	ReturnID           uuid.UUID                 `json:"returnId"`
	ReservationID      uuid.UUID                 `json:"reservationId"`
	ItemID             uuid.UUID                 `json:"itemId"`
	Status             valueobject.ReturnStatus  `json:"status"`
	FinalCondition     valueobject.ItemCondition `json:"finalCondition"`
	AutoApproved       bool                      `json:"autoApproved"`
	PreviousItemStatus valueobject.ItemStatus    `json:"previousItemStatus"`
	NewItemStatus      valueobject.ItemStatus    `json:"newItemStatus"`
	PenaltyPoints      int                       `json:"penaltyPoints"`
}

type RejectReturnPayload struct {
	ReturnID      uuid.UUID `json:"returnId"`
	ReservationID uuid.UUID `json:"reservationId"`
	Reason        string    `json:"reason"`
}

type AssessConditionPayload struct {
	AssessmentID       uuid.UUID                 `json:"assessmentId"`
	ReturnID           uuid.UUID                 `json:"returnId"`
	Score              float64                   `json:"score"`
	ComputedCondition  valueobject.ItemCondition `json:"computedCondition"`
	FinalCondition     valueobject.ItemCondition `json:"finalCondition"`
	Overridden         bool                      `json:"overridden"`
	RecommendedPenalty int                       `json:"recommendedPenalty"`
}

type OpenDamageReportPayload struct {
	DamageReportID     uuid.UUID                  `json:"damageReportId"`
	ReturnID           uuid.UUID                  `json:"returnId"`
	DamageType         valueobject.DamageType     `json:"damageType"`
	Severity           valueobject.DamageSeverity `json:"severity"`
	RepairCostEstimate *float64                   `json:"repairCostEstimate,omitempty"`
}

type ReviewDamageReportPayload struct {
	DamageReportID uuid.UUID `json:"damageReportId"`
}

type ApproveDamageReportPayload struct {
	DamageReportID   uuid.UUID `json:"damageReportId"`
	RepairCostActual *float64  `json:"repairCostActual,omitempty"`
	PenaltyPoints    int       `json:"penaltyPoints"`
}

type RejectDamageReportPayload struct {
	DamageReportID uuid.UUID `json:"damageReportId"`
	Reason         string    `json:"reason"`
}

type ResolveDamageReportPayload struct {
	DamageReportID  uuid.UUID `json:"damageReportId"`
	ResolutionNotes string    `json:"resolutionNotes"`
}

type AdjustReputationPayload struct {
	UserID        uuid.UUID        `json:"userId"`
	EntryID       uuid.UUID        `json:"entryId"`
	Delta         int              `json:"delta"`
	PreviousScore int              `json:"previousScore"`
	NewScore      int              `json:"newScore"`
	Reason        string           `json:"reason"`
	SourceType    ReputationSource `json:"sourceType"`
	SourceID      *uuid.UUID       `json:"sourceId,omitempty"`
}

type MarkOverduePayload struct {
	ReservationID uuid.UUID                   `json:"reservationId"`
	UserID        uuid.UUID                   `json:"userId"`
	DaysOverdue   int                         `json:"daysOverdue"`
	Severity      valueobject.OverdueSeverity `json:"severity"`
	TotalPenalty  int                         `json:"totalPenalty"`
	AppliedDelta  int                         `json:"appliedDelta"`
}

type CreateItemPayload struct {
	ItemID    uuid.UUID                 `json:"itemId"`
	Name      string                    `json:"name"`
	Category  string                    `json:"category,omitempty"`
	Condition valueobject.ItemCondition `json:"condition"`
}

func (p CreateReservationPayload) Action() AuditAction { return AuditCreateReservation }
func (p CreateReservationPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityReservation, p.ReservationID
}

func (p ApproveReservationPayload) Action() AuditAction { return AuditApproveReservation }
func (p ApproveReservationPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityReservation, p.ReservationID
}

func (p RejectReservationPayload) Action() AuditAction { return AuditRejectReservation }
func (p RejectReservationPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityReservation, p.ReservationID
}

func (p ModifyReservationPayload) Action() AuditAction { return AuditModifyReservation }
func (p ModifyReservationPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityReservation, p.ReservationID
}

func (p CancelReservationPayload) Action() AuditAction { return AuditCancelReservation }
func (p CancelReservationPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityReservation, p.ReservationID
}

func (p DeleteReservationPayload) Action() AuditAction { return AuditDeleteReservation }
func (p DeleteReservationPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityReservation, p.ReservationID
}

func (p IssuePickupTokenPayload) Action() AuditAction { return AuditIssuePickupToken }
func (p IssuePickupTokenPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityReservation, p.ReservationID
}

func (p ConfirmPickupPayload) Action() AuditAction { return AuditConfirmPickup }
func (p ConfirmPickupPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityReservation, p.ReservationID
}

func (p CreateReturnPayload) Action() AuditAction { return AuditCreateReturn }
func (p CreateReturnPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityReturn, p.ReturnID
}

func (p ApproveReturnPayload) Action() AuditAction { return AuditApproveReturn }
func (p ApproveReturnPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityReturn, p.ReturnID
}

func (p RejectReturnPayload) Action() AuditAction { return AuditRejectReturn }
func (p RejectReturnPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityReturn, p.ReturnID
}

func (p AssessConditionPayload) Action() AuditAction { return AuditAssessCondition }
func (p AssessConditionPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityReturn, p.ReturnID
}

func (p OpenDamageReportPayload) Action() AuditAction { return AuditOpenDamageReport }
func (p OpenDamageReportPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityDamageReport, p.DamageReportID
}

func (p ReviewDamageReportPayload) Action() AuditAction { return AuditReviewDamageReport }
func (p ReviewDamageReportPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityDamageReport, p.DamageReportID
}

func (p ApproveDamageReportPayload) Action() AuditAction { return AuditApproveDamage }
func (p ApproveDamageReportPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityDamageReport, p.DamageReportID
}

func (p RejectDamageReportPayload) Action() AuditAction { return AuditRejectDamage }
func (p RejectDamageReportPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityDamageReport, p.DamageReportID
}

func (p ResolveDamageReportPayload) Action() AuditAction { return AuditResolveDamage }
func (p ResolveDamageReportPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityDamageReport, p.DamageReportID
}

func (p AdjustReputationPayload) Action() AuditAction { return AuditAdjustReputation }
func (p AdjustReputationPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityUser, p.UserID
}

func (p MarkOverduePayload) Action() AuditAction { return AuditMarkOverdue }
func (p MarkOverduePayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityReservation, p.ReservationID
}

func (p CreateItemPayload) Action() AuditAction { return AuditCreateItem }
func (p CreateItemPayload) Entity() (AuditEntityType, uuid.UUID) {
	return AuditEntityItem, p.ItemID
}

var payloadFactories = map[AuditAction]func() AuditPayload{
	AuditCreateReservation:  func() AuditPayload { return &CreateReservationPayload{} },
	AuditApproveReservation: func() AuditPayload { return &ApproveReservationPayload{} },
	AuditRejectReservation:  func() AuditPayload { return &RejectReservationPayload{} },
	AuditModifyReservation:  func() AuditPayload { return &ModifyReservationPayload{} },
	AuditCancelReservation:  func() AuditPayload { return &CancelReservationPayload{} },
	AuditDeleteReservation:  func() AuditPayload { return &DeleteReservationPayload{} },
	AuditIssuePickupToken:   func() AuditPayload { return &IssuePickupTokenPayload{} },
	AuditConfirmPickup:      func() AuditPayload { return &ConfirmPickupPayload{} },
	AuditCreateReturn:       func() AuditPayload { return &CreateReturnPayload{} },
	AuditApproveReturn:      func() AuditPayload { return &ApproveReturnPayload{} },
	AuditRejectReturn:       func() AuditPayload { return &RejectReturnPayload{} },
	AuditAssessCondition:    func() AuditPayload { return &AssessConditionPayload{} },
	AuditOpenDamageReport:   func() AuditPayload { return &OpenDamageReportPayload{} },
	AuditReviewDamageReport: func() AuditPayload { return &ReviewDamageReportPayload{} },
	AuditApproveDamage:      func() AuditPayload { return &ApproveDamageReportPayload{} },
	AuditRejectDamage:       func() AuditPayload { return &RejectDamageReportPayload{} },
	AuditResolveDamage:      func() AuditPayload { return &ResolveDamageReportPayload{} },
	AuditAdjustReputation:   func() AuditPayload { return &AdjustReputationPayload{} },
	AuditMarkOverdue:        func() AuditPayload { return &MarkOverduePayload{} },
	AuditCreateItem:         func() AuditPayload { return &CreateItemPayload{} },
}

// DecodePayload восстанавливает типизированный payload по действию.
// Возвращается значение (не указатель), как его записали.
func DecodePayload(action AuditAction, raw []byte) (AuditPayload, error) {
	factory, ok := payloadFactories[action]
	if !ok {
		return nil, apperror.Validation(fmt.Sprintf("неизвестное действие журнала: %s", action))
	}

	ptr := factory()
	if err := json.Unmarshal(raw, ptr); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", action, err)
	}
	return deref(ptr), nil
}

// EncodePayload сериализует payload для хранения.
func EncodePayload(payload AuditPayload) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", payload.Action(), err)
	}
	return raw, nil
}

func deref(p AuditPayload) AuditPayload {
	switch v := p.(type) {
	case *CreateReservationPayload:
		return *v
	case *ApproveReservationPayload:
		return *v
	case *RejectReservationPayload:
		return *v
	case *ModifyReservationPayload:
		return *v
	case *CancelReservationPayload:
		return *v
	case *DeleteReservationPayload:
		return *v
	case *IssuePickupTokenPayload:
		return *v
	case *ConfirmPickupPayload:
		return *v
	case *CreateReturnPayload:
		return *v
	case *ApproveReturnPayload:
		return *v
	case *RejectReturnPayload:
		return *v
	case *AssessConditionPayload:
		return *v
	case *OpenDamageReportPayload:
		return *v
	case *ReviewDamageReportPayload:
		return *v
	case *ApproveDamageReportPayload:
		return *v
	case *RejectDamageReportPayload:
		return *v
	case *ResolveDamageReportPayload:
		return *v
	case *AdjustReputationPayload:
		return *v
	case *MarkOverduePayload:
		return *v
	case *CreateItemPayload:
		return *v
	}
	return p
}
