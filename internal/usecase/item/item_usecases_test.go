package item_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/usecase/item"
	"github.com/ignatzorin/lending-backend/internal/usecase/usecasetest"
)

func TestCreateItem(t *testing.T) {
	f := usecasetest.New(t)
	uc := item.NewCreateItemUseCase(f.Store, f.Clock)

	created, err := uc.Execute(f.Ctx, f.Staff, item.CreateItemInput{
		Name:      "  Проектор Epson  ",
		Category:  "видео",
		Condition: valueobject.ConditionExcellent,
		Value:     valueobject.Money{Amount: 800, Currency: "USD"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Проектор Epson", created.Name)
	assert.Equal(t, valueobject.ItemStatusAvailable, created.Status)

	entries := f.Audit(entity.AuditEntityItem, created.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditCreateItem, entries[0].Action)

	_, err = uc.Execute(f.Ctx, f.Borrower, item.CreateItemInput{Name: "x", Condition: valueobject.ConditionGood})
	assert.True(t, apperror.IsForbidden(err))

	_, err = uc.Execute(f.Ctx, f.Staff, item.CreateItemInput{Name: "", Condition: valueobject.ConditionGood})
	assert.True(t, apperror.IsValidation(err))

	_, err = uc.Execute(f.Ctx, f.Staff, item.CreateItemInput{Name: "x", Condition: "NEW"})
	assert.True(t, apperror.IsValidation(err))
}

func TestGetAndListItems(t *testing.T) {
	f := usecasetest.New(t)
	first := f.SeedItem()
	second := f.SeedItem()
	second.Status = valueobject.ItemStatusMaintenance
	require.NoError(t, f.Store.Items().Update(f.Ctx, second))

	got, err := item.NewGetItemUseCase(f.Store).Execute(f.Ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Name, got.Name)

	_, err = item.NewGetItemUseCase(f.Store).Execute(f.Ctx, uuid.New())
	assert.True(t, apperror.IsNotFound(err))

	list := item.NewListItemsUseCase(f.Store)
	available := valueobject.ItemStatusAvailable
	items, total, err := list.Execute(f.Ctx, repository.ItemFilter{Status: &available})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, first.ID, items[0].ID)

	_, total, err = list.Execute(f.Ctx, repository.ItemFilter{Search: "sony"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	bad := valueobject.ItemStatus("LOST")
	_, _, err = list.Execute(f.Ctx, repository.ItemFilter{Status: &bad})
	assert.True(t, apperror.IsValidation(err))
}
