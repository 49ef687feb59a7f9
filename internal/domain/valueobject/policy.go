package valueobject

import (
	"time"

	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

// Policy собирает числовые правила выдачи: штрафы, пороги и окна.
type Policy struct {
	InitialTrustScore int `yaml:"initial_trust_score"`

	LateCancelWindow      time.Duration `yaml:"late_cancel_window"`
	LateCancelPenalty     int           `yaml:"late_cancel_penalty"`
	VeryLateCancelPenalty int           `yaml:"very_late_cancel_penalty"`

	SignificantChange time.Duration `yaml:"significant_change"`

	OverduePointsPerDay      int `yaml:"overdue_points_per_day"`
	OverduePenaltyCap        int `yaml:"overdue_penalty_cap"`
	OverdueHighAfterDays     int `yaml:"overdue_high_after_days"`
	OverdueCriticalAfterDays int `yaml:"overdue_critical_after_days"`

	ConditionThresholds    ConditionThresholds `yaml:"condition_thresholds"`
	PointsPerConditionStep int                 `yaml:"points_per_condition_step"`
}

// ConditionThresholds: нижние границы оценки (0..100) для каждого состояния; ниже Poor считается DAMAGED.
type ConditionThresholds struct {
	Excellent float64 `yaml:"excellent"`
	Good      float64 `yaml:"good"`
	Fair      float64 `yaml:"fair"`
	Poor      float64 `yaml:"poor"`
}

func DefaultPolicy() Policy {
	return Policy{
		InitialTrustScore:        100,
		LateCancelWindow:         24 * time.Hour,
		LateCancelPenalty:        5,
		VeryLateCancelPenalty:    10,
		SignificantChange:        24 * time.Hour,
		OverduePointsPerDay:      2,
		OverduePenaltyCap:        30,
		OverdueHighAfterDays:     3,
		OverdueCriticalAfterDays: 7,
		ConditionThresholds: ConditionThresholds{
			Excellent: 90,
			Good:      75,
			Fair:      50,
			Poor:      25,
		},
		PointsPerConditionStep: 5,
	}
}

func (p Policy) Validate() error {
	if p.InitialTrustScore < 0 {
		return apperror.Validation("начальный рейтинг не может быть отрицательным")
	}
	if p.LateCancelPenalty < 0 || p.VeryLateCancelPenalty < 0 || p.OverduePointsPerDay < 0 || p.OverduePenaltyCap < 0 {
		return apperror.Validation("штрафы задаются неотрицательными числами")
	}
	if p.OverdueHighAfterDays > p.OverdueCriticalAfterDays {
		return apperror.Validation("порог HIGH не может превышать порог CRITICAL")
	}
	t := p.ConditionThresholds
	if !(t.Excellent > t.Good && t.Good > t.Fair && t.Fair > t.Poor) {
		return apperror.Validation("пороги оценки состояния должны строго убывать от excellent к poor")
	}
	return nil
}

// CancellationKind классифицирует отмену владельцем по времени до начала.
type CancellationKind string

const (
	CancellationEarly    CancellationKind = "EARLY"
	CancellationLate     CancellationKind = "LATE"
	CancellationVeryLate CancellationKind = "VERY_LATE"
)

// CancellationPenalty возвращает штраф за отмену владельцем в момент now.
// Позже начала — "very late", в пределах окна до начала — "late".
func (p Policy) CancellationPenalty(start, now time.Time) (CancellationKind, int) {
	if now.After(start) {
		return CancellationVeryLate, p.VeryLateCancelPenalty
	}
	if start.Sub(now) <= p.LateCancelWindow {
		return CancellationLate, p.LateCancelPenalty
	}
	return CancellationEarly, 0
}

// OverdueSeverity переводит число дней просрочки в уровень.
func (p Policy) OverdueSeverity(daysOverdue int) OverdueSeverity {
	switch {
	case daysOverdue < p.OverdueHighAfterDays:
		return OverdueSeverityModerate
	case daysOverdue < p.OverdueCriticalAfterDays:
		return OverdueSeverityHigh
	default:
		return OverdueSeverityCritical
	}
}

// OverduePenalty = min(дни × баллы в день, потолок).
func (p Policy) OverduePenalty(daysOverdue int) int {
	if daysOverdue <= 0 {
		return 0
	}
	penalty := daysOverdue * p.OverduePointsPerDay
	if penalty > p.OverduePenaltyCap {
		return p.OverduePenaltyCap
	}
	return penalty
}

// ConditionForScore переводит взвешенную оценку в состояние.
func (p Policy) ConditionForScore(score float64) ItemCondition {
	t := p.ConditionThresholds
	switch {
	case score >= t.Excellent:
		return ConditionExcellent
	case score >= t.Good:
		return ConditionGood
	case score >= t.Fair:
		return ConditionFair
	case score >= t.Poor:
		return ConditionPoor
	default:
		return ConditionDamaged
	}
}

// ConditionPenalty: рекомендуемый штраф за ухудшение состояния относительно состояния до выдачи.
func (p Policy) ConditionPenalty(before, after ItemCondition) int {
	return after.StepsBelow(before) * p.PointsPerConditionStep
}
