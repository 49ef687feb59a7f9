package repository

import (
	"context"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationReservationApproved  NotificationType = "reservation_approved"
	NotificationReservationRejected  NotificationType = "reservation_rejected"
	NotificationReservationCancelled NotificationType = "reservation_cancelled"
	NotificationReapprovalRequired   NotificationType = "reservation_reapproval_required"
	NotificationPickupConfirmed      NotificationType = "pickup_confirmed"
	NotificationReturnApproved       NotificationType = "return_approved"
	NotificationReturnRejected       NotificationType = "return_rejected"
	NotificationDamageReportUpdated  NotificationType = "damage_report_updated"
	NotificationOverdue              NotificationType = "reservation_overdue"
	NotificationReputationChanged    NotificationType = "reputation_changed"
)

// Notification: намерение уведомить пользователя. Форматирование и доставка снаружи ядра.
type Notification struct {
	Type     NotificationType       `json:"type"`
	UserID   uuid.UUID              `json:"userId"`
	EntityID uuid.UUID              `json:"entityId"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notification) {}
