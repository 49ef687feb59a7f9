package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

// AssessmentCriterion: один критерий осмотра: оценка 0..100 и её вес.
type AssessmentCriterion struct {
	Name   string  `json:"name"`
	Value  int     `json:"value"`
	Weight float64 `json:"weight"`
}

type ConditionAssessment struct {
	ID                 uuid.UUID
	ReturnID           uuid.UUID
	AssessorID         uuid.UUID
	Criteria           []AssessmentCriterion
	Score              float64
	ComputedCondition  valueobject.ItemCondition
	FinalCondition     valueobject.ItemCondition
	Overridden         bool
	RecommendedPenalty int
	PenaltyReason      *string
	Notes              *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// WeightedScore = Σ(value×weight) / Σ(weight).
func WeightedScore(criteria []AssessmentCriterion) (float64, error) {
	if len(criteria) == 0 {
		return 0, apperror.Validation("нужен хотя бы один критерий оценки")
	}

	var sum, weights float64
	for _, c := range criteria {
		if strings.TrimSpace(c.Name) == "" {
			return 0, apperror.Validation("у критерия должно быть название")
		}
		if c.Value < 0 || c.Value > 100 {
			return 0, apperror.Validation(fmt.Sprintf("оценка критерия %q должна быть от 0 до 100", c.Name))
		}
		if c.Weight <= 0 {
			return 0, apperror.Validation(fmt.Sprintf("вес критерия %q должен быть положительным", c.Name))
		}
		sum += float64(c.Value) * c.Weight
		weights += c.Weight
	}
	return sum / weights, nil
}

type AssessmentInput struct {
	Criteria           []AssessmentCriterion
	Override           *valueobject.ItemCondition
	RecommendedPenalty *int
	PenaltyReason      *string
	Notes              *string
}

// NewConditionAssessment считает оценку, применяет ручное переопределение и,
// если итог хуже состояния до выдачи, прикладывает рекомендацию штрафа.
func NewConditionAssessment(returnID, assessorID uuid.UUID, preLoan valueobject.ItemCondition, input AssessmentInput, policy valueobject.Policy, now time.Time) (*ConditionAssessment, error) {
	score, err := WeightedScore(input.Criteria)
	if err != nil {
		return nil, err
	}

	computed := policy.ConditionForScore(score)
	final := computed
	overridden := false
	if input.Override != nil {
		if !input.Override.IsValid() {
			return nil, apperror.Validation("некорректное состояние для переопределения")
		}
		final = *input.Override
		overridden = final != computed
	}

	a := &ConditionAssessment{
		ID:                uuid.New(),
		ReturnID:          returnID,
		AssessorID:        assessorID,
		Criteria:          append([]AssessmentCriterion(nil), input.Criteria...),
		Score:             score,
		ComputedCondition: computed,
		FinalCondition:    final,
		Overridden:        overridden,
		Notes:             input.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if final.WorseThan(preLoan) {
		a.RecommendedPenalty = policy.ConditionPenalty(preLoan, final)
		if input.RecommendedPenalty != nil {
			if *input.RecommendedPenalty < 0 {
				return nil, apperror.Validation("рекомендуемый штраф не может быть отрицательным")
			}
			a.RecommendedPenalty = *input.RecommendedPenalty
		}
		reason := fmt.Sprintf("состояние ухудшилось: %s -> %s", preLoan, final)
		if input.PenaltyReason != nil && strings.TrimSpace(*input.PenaltyReason) != "" {
			reason = strings.TrimSpace(*input.PenaltyReason)
		}
		a.PenaltyReason = &reason
	}

	return a, nil
}

func (a *ConditionAssessment) HasPenaltyRecommendation() bool {
	return a.RecommendedPenalty > 0
}
