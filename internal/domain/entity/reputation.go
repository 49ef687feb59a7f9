package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

type ReputationSource string

const (
	ReputationSourceCancellation    ReputationSource = "CANCELLATION"
	ReputationSourceOverdue         ReputationSource = "OVERDUE"
	ReputationSourceReturnCondition ReputationSource = "RETURN_CONDITION"
	ReputationSourceDamageReport    ReputationSource = "DAMAGE_REPORT"
	ReputationSourceManual          ReputationSource = "MANUAL"
)

func (s ReputationSource) IsValid() bool {
	switch s {
	case ReputationSourceCancellation, ReputationSourceOverdue, ReputationSourceReturnCondition,
		ReputationSourceDamageReport, ReputationSourceManual:
		return true
	}
	return false
}

// SourceRef указывает на событие, ради которого изменён рейтинг.
type SourceRef struct {
	Type ReputationSource
	ID   *uuid.UUID
}

// ReputationEntry: неизменяемая строка журнала репутации.
type ReputationEntry struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Delta         int
	Reason        string
	PreviousScore int
	NewScore      int
	SourceType    ReputationSource
	SourceID      *uuid.UUID
	CreatedBy     *uuid.UUID
	CreatedAt     time.Time
}

// TrustScore: кэш текущего рейтинга. Меняется только вместе с новой записью журнала.
type TrustScore struct {
	UserID    uuid.UUID
	Score     int
	UpdatedAt time.Time
}

// NextScore: рейтинг не опускается ниже нуля, верхней границы нет.
func NextScore(previous, delta int) int {
	next := previous + delta
	if next < 0 {
		return 0
	}
	return next
}

func NewReputationEntry(userID uuid.UUID, previous, delta int, reason string, source SourceRef, createdBy *uuid.UUID, now time.Time) (*ReputationEntry, error) {
	if userID == uuid.Nil {
		return nil, apperror.Validation("не указан пользователь")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.Validation("укажите причину изменения рейтинга")
	}
	if !source.Type.IsValid() {
		return nil, apperror.Validation("некорректный источник изменения рейтинга")
	}

	return &ReputationEntry{
		ID:            uuid.New(),
		UserID:        userID,
		Delta:         delta,
		Reason:        reason,
		PreviousScore: previous,
		NewScore:      NextScore(previous, delta),
		SourceType:    source.Type,
		SourceID:      source.ID,
		CreatedBy:     createdBy,
		CreatedAt:     now,
	}, nil
}

// Replay пересчитывает рейтинг по журналу, записи идут от старых к новым.
func Replay(initial int, entries []*ReputationEntry) int {
	score := initial
	for _, e := range entries {
		score = NextScore(score, e.Delta)
	}
	return score
}
