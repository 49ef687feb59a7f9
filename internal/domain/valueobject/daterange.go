package valueobject

import (
	"time"

	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

// DateRange: полуинтервал [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.IsZero() || end.IsZero() {
		return DateRange{}, apperror.Validation("даты начала и окончания обязательны")
	}
	if !start.Before(end) {
		return DateRange{}, apperror.Validation("дата начала должна быть раньше даты окончания")
	}
	return DateRange{Start: start.UTC(), End: end.UTC()}, nil
}

// Overlaps: [s1,e1) и [s2,e2) пересекаются тогда и только тогда, когда s1 < e2 и s2 < e1.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

func (r DateRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// ShiftedMoreThan сообщает, сдвинулась ли любая из границ больше чем на threshold.
func (r DateRange) ShiftedMoreThan(other DateRange, threshold time.Duration) bool {
	return absDuration(r.Start.Sub(other.Start)) > threshold || absDuration(r.End.Sub(other.End)) > threshold
}

func (r DateRange) Equal(other DateRange) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
