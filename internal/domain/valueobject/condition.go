package valueobject

import "github.com/ignatzorin/lending-backend/internal/pkg/apperror"

type ItemCondition string

const (
	ConditionExcellent ItemCondition = "EXCELLENT"
	ConditionGood      ItemCondition = "GOOD"
	ConditionFair      ItemCondition = "FAIR"
	ConditionPoor      ItemCondition = "POOR"
	ConditionDamaged   ItemCondition = "DAMAGED"
)

// conditionRanks: чем больше значение, тем лучше состояние.
var conditionRanks = map[ItemCondition]int{
	ConditionExcellent: 4,
	ConditionGood:      3,
	ConditionFair:      2,
	ConditionPoor:      1,
	ConditionDamaged:   0,
}

func (c ItemCondition) IsValid() bool {
	_, ok := conditionRanks[c]
	return ok
}

func (c ItemCondition) Rank() int {
	return conditionRanks[c]
}

// WorseThan сообщает, хуже ли состояние c, чем other.
func (c ItemCondition) WorseThan(other ItemCondition) bool {
	return c.Rank() < other.Rank()
}

// StepsBelow: на сколько ступеней c хуже other (0, если не хуже).
func (c ItemCondition) StepsBelow(other ItemCondition) int {
	if !c.WorseThan(other) {
		return 0
	}
	return other.Rank() - c.Rank()
}

func NewItemCondition(condition string) (ItemCondition, error) {
	c := ItemCondition(condition)
	if !c.IsValid() {
		return "", apperror.Validation("некорректное состояние предмета")
	}
	return c, nil
}

// ItemConditions перечисляет все состояния от лучшего к худшему.
func ItemConditions() []ItemCondition {
	return []ItemCondition{ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor, ConditionDamaged}
}

type DamageType string

const (
	DamageTypePhysical     DamageType = "PHYSICAL"
	DamageTypeFunctional   DamageType = "FUNCTIONAL"
	DamageTypeCosmetic     DamageType = "COSMETIC"
	DamageTypeMissingParts DamageType = "MISSING_PARTS"
	DamageTypeOther        DamageType = "OTHER"
)

func (t DamageType) IsValid() bool {
	switch t {
	case DamageTypePhysical, DamageTypeFunctional, DamageTypeCosmetic, DamageTypeMissingParts, DamageTypeOther:
		return true
	}
	return false
}

func NewDamageType(value string) (DamageType, error) {
	t := DamageType(value)
	if !t.IsValid() {
		return "", apperror.Validation("некорректный тип повреждения")
	}
	return t, nil
}

type DamageSeverity string

const (
	DamageSeverityMinor     DamageSeverity = "MINOR"
	DamageSeverityModerate  DamageSeverity = "MODERATE"
	DamageSeverityMajor     DamageSeverity = "MAJOR"
	DamageSeverityTotalLoss DamageSeverity = "TOTAL_LOSS"
)

func (s DamageSeverity) IsValid() bool {
	switch s {
	case DamageSeverityMinor, DamageSeverityModerate, DamageSeverityMajor, DamageSeverityTotalLoss:
		return true
	}
	return false
}

func NewDamageSeverity(value string) (DamageSeverity, error) {
	s := DamageSeverity(value)
	if !s.IsValid() {
		return "", apperror.Validation("некорректная степень повреждения")
	}
	return s, nil
}
