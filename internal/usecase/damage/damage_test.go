package damage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/usecase/damage"
	"github.com/ignatzorin/lending-backend/internal/usecase/returns"
	"github.com/ignatzorin/lending-backend/internal/usecase/usecasetest"
)

type suite struct {
	*usecasetest.Fixture
	open    *damage.OpenReportUseCase
	review  *damage.StartReviewUseCase
	approve *damage.ApproveReportUseCase
	reject  *damage.RejectReportUseCase
	resolve *damage.ResolveReportUseCase
	get     *damage.GetReportUseCase
	list    *damage.ListReportsUseCase
}

func newSuite(t *testing.T) *suite {
	f := usecasetest.New(t)
	return &suite{
		Fixture: f,
		open:    damage.NewOpenReportUseCase(f.Store, f.Clock, f.Notifier),
		review:  damage.NewStartReviewUseCase(f.Store, f.Clock, f.Notifier),
		approve: damage.NewApproveReportUseCase(f.Store, f.Clock, f.Ledger, f.Notifier),
		reject:  damage.NewRejectReportUseCase(f.Store, f.Clock, f.Notifier),
		resolve: damage.NewResolveReportUseCase(f.Store, f.Clock, f.Notifier),
		get:     damage.NewGetReportUseCase(f.Store),
		list:    damage.NewListReportsUseCase(f.Store),
	}
}

func (s *suite) returned(condition valueobject.ItemCondition, report *string) *entity.Return {
	s.T.Helper()
	item := s.SeedItem()
	res := s.SeedReservation(item, s.Borrower.ID, usecasetest.Day(-2), usecasetest.Day(1), valueobject.ReservationStatusActive)
	ret, err := returns.NewCreateReturnUseCase(s.Store, s.Clock, s.Notifier).Execute(s.Ctx, s.Borrower, returns.CreateReturnInput{
		ReservationID: res.ID,
		Condition:     condition,
		DamageReport:  report,
	})
	require.NoError(s.T, err)
	return ret
}

func (s *suite) openReport(ret *entity.Return) *entity.DamageReport {
	s.T.Helper()
	estimate := 250.0
	d, err := s.open.Execute(s.Ctx, s.Borrower, damage.OpenReportInput{
		ReturnID:           ret.ID,
		DamageType:         valueobject.DamageTypePhysical,
		Severity:           valueobject.DamageSeverityModerate,
		Description:        "треснул корпус",
		RepairCostEstimate: &estimate,
	})
	require.NoError(s.T, err)
	return d
}

func TestDamageReport_ApproveAppliesPenalty(t *testing.T) {
	s := newSuite(t)
	ret := s.returned(valueobject.ConditionPoor, nil)
	d := s.openReport(ret)
	assert.Equal(t, valueobject.DamageReportStatusReported, d.Status)

	_, err := s.approve.Execute(s.Ctx, s.Staff, damage.ApproveReportInput{ReportID: d.ID, PenaltyPoints: 15})
	assert.True(t, apperror.IsInvalidState(err), "сначала рассмотрение")

	_, err = s.review.Execute(s.Ctx, s.Staff, d.ID)
	require.NoError(t, err)

	cost := 310.5
	approved, err := s.approve.Execute(s.Ctx, s.Staff, damage.ApproveReportInput{ReportID: d.ID, RepairCostActual: &cost, PenaltyPoints: 15})
	require.NoError(t, err)
	assert.Equal(t, valueobject.DamageReportStatusApproved, approved.Status)
	assert.Equal(t, 15, approved.PenaltyPoints)
	assert.Equal(t, &cost, approved.RepairCostActual)

	assert.Equal(t, 85, s.Score(s.Borrower.ID))
	entries := s.Entries(s.Borrower.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.ReputationSourceDamageReport, entries[0].SourceType)
	assert.Equal(t, &d.ID, entries[0].SourceID)

	resolved, err := s.resolve.Execute(s.Ctx, s.Staff, d.ID, "отремонтировано в сервисе")
	require.NoError(t, err)
	assert.Equal(t, valueobject.DamageReportStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	var actions []entity.AuditAction
	for _, e := range s.Audit(entity.AuditEntityDamageReport, d.ID) {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []entity.AuditAction{
		entity.AuditOpenDamageReport,
		entity.AuditReviewDamageReport,
		entity.AuditApproveDamage,
		entity.AuditResolveDamage,
	}, actions)

	assert.Eventually(t, func() bool {
		return s.Notifier.Has(repository.NotificationDamageReportUpdated, s.Borrower.ID)
	}, time.Second, 10*time.Millisecond)
}

func TestDamageReport_RejectThenResolve(t *testing.T) {
	s := newSuite(t)
	note := "потерялась крышка объектива"
	ret := s.returned(valueobject.ConditionGood, &note)
	d := s.openReport(ret)

	_, err := s.review.Execute(s.Ctx, s.Staff, d.ID)
	require.NoError(t, err)

	_, err = s.reject.Execute(s.Ctx, s.Staff, d.ID, "  ")
	assert.True(t, apperror.IsValidation(err))

	rejected, err := s.reject.Execute(s.Ctx, s.Staff, d.ID, "крышка нашлась в кейсе")
	require.NoError(t, err)
	assert.Equal(t, valueobject.DamageReportStatusRejected, rejected.Status)

	_, err = s.resolve.Execute(s.Ctx, s.Staff, d.ID, "закрыто без последствий")
	require.NoError(t, err)
	assert.Empty(t, s.Entries(s.Borrower.ID))
}

func TestDamageReport_OpenGuards(t *testing.T) {
	s := newSuite(t)
	clean := s.returned(valueobject.ConditionExcellent, nil)

	_, err := s.open.Execute(s.Ctx, s.Borrower, damage.OpenReportInput{
		ReturnID:    clean.ID,
		DamageType:  valueobject.DamageTypeCosmetic,
		Severity:    valueobject.DamageSeverityMinor,
		Description: "царапина",
	})
	assert.True(t, apperror.IsInvalidState(err), "возврат без признаков повреждения")

	ret := s.returned(valueobject.ConditionFair, nil)
	_, err = s.open.Execute(s.Ctx, s.NewBorrower(), damage.OpenReportInput{
		ReturnID:    ret.ID,
		DamageType:  valueobject.DamageTypeCosmetic,
		Severity:    valueobject.DamageSeverityMinor,
		Description: "царапина",
	})
	assert.True(t, apperror.IsForbidden(err))

	_, err = s.open.Execute(s.Ctx, s.Staff, damage.OpenReportInput{
		ReturnID:    ret.ID,
		DamageType:  "FIRE",
		Severity:    valueobject.DamageSeverityMinor,
		Description: "царапина",
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestDamageReport_ReviewStaffOnly(t *testing.T) {
	s := newSuite(t)
	d := s.openReport(s.returned(valueobject.ConditionPoor, nil))

	_, err := s.review.Execute(s.Ctx, s.Borrower, d.ID)
	assert.True(t, apperror.IsForbidden(err))
	_, err = s.resolve.Execute(s.Ctx, s.Staff, d.ID, "рано")
	assert.True(t, apperror.IsInvalidState(err))
	assert.Equal(t, valueobject.DamageReportStatusReported, d.Status)
}

func TestDamageReport_GetAndList(t *testing.T) {
	s := newSuite(t)
	d := s.openReport(s.returned(valueobject.ConditionPoor, nil))

	got, err := s.get.Execute(s.Ctx, s.Borrower, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)

	_, err = s.get.Execute(s.Ctx, s.NewBorrower(), d.ID)
	assert.True(t, apperror.IsForbidden(err))

	status := valueobject.DamageReportStatusReported
	list, total, err := s.list.Execute(s.Ctx, s.Staff, repository.DamageReportFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, d.ID, list[0].ID)

	_, total, err = s.list.Execute(s.Ctx, s.NewBorrower(), repository.DamageReportFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}
