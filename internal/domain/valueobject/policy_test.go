package valueobject

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_CancellationPenalty(t *testing.T) {
	p := DefaultPolicy()
	start := time.Date(2030, 3, 10, 12, 0, 0, 0, time.UTC)

	kind, points := p.CancellationPenalty(start, start.Add(-48*time.Hour))
	assert.Equal(t, CancellationEarly, kind)
	assert.Equal(t, 0, points)

	kind, points = p.CancellationPenalty(start, start.Add(-12*time.Hour))
	assert.Equal(t, CancellationLate, kind)
	assert.Equal(t, 5, points)

	kind, points = p.CancellationPenalty(start, start.Add(-24*time.Hour))
	assert.Equal(t, CancellationLate, kind, "ровно за 24 часа — уже поздняя отмена")
	assert.Equal(t, 5, points)

	kind, points = p.CancellationPenalty(start, start.Add(2*time.Hour))
	assert.Equal(t, CancellationVeryLate, kind)
	assert.Equal(t, 10, points)
}

func TestPolicy_Overdue(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, OverdueSeverityModerate, p.OverdueSeverity(1))
	assert.Equal(t, OverdueSeverityHigh, p.OverdueSeverity(3))
	assert.Equal(t, OverdueSeverityHigh, p.OverdueSeverity(6))
	assert.Equal(t, OverdueSeverityCritical, p.OverdueSeverity(7))

	assert.Equal(t, 0, p.OverduePenalty(0))
	assert.Equal(t, 8, p.OverduePenalty(4))
	assert.Equal(t, 30, p.OverduePenalty(40), "штраф ограничен потолком")
}

func TestPolicy_ConditionForScore(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, ConditionExcellent, p.ConditionForScore(90))
	assert.Equal(t, ConditionGood, p.ConditionForScore(89.9))
	assert.Equal(t, ConditionGood, p.ConditionForScore(75))
	assert.Equal(t, ConditionFair, p.ConditionForScore(50))
	assert.Equal(t, ConditionPoor, p.ConditionForScore(25))
	assert.Equal(t, ConditionDamaged, p.ConditionForScore(24.99))
}

func TestPolicy_ConditionPenalty(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, 0, p.ConditionPenalty(ConditionGood, ConditionExcellent))
	assert.Equal(t, 0, p.ConditionPenalty(ConditionGood, ConditionGood))
	assert.Equal(t, 10, p.ConditionPenalty(ConditionGood, ConditionPoor))
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	broken := DefaultPolicy()
	broken.ConditionThresholds.Good = 95
	assert.Error(t, broken.Validate())
}
