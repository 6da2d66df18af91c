package usecase_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/supply-ledger/internal/application/dto"
	"github.com/jhoicas/supply-ledger/internal/application/usecase"
	"github.com/jhoicas/supply-ledger/internal/domain"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
	"github.com/jhoicas/supply-ledger/internal/domain/repository"
	"github.com/jhoicas/supply-ledger/internal/infrastructure/sqlite"
)

func newItemUseCase(t *testing.T) *usecase.ItemUseCase {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "items.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return usecase.NewItemUseCase(sqlite.NewItemRepository(db))
}

func paperRequest() dto.CreateItemRequest {
	return dto.CreateItemRequest{
		Code:         "  A4-PAPER ",
		Name:         "Bond paper A4",
		Unit:         "ream",
		Category:     "Paper",
		UnitCost:     decimal.RequireFromString("215.50"),
		ReorderLevel: 20,
	}
}

func TestItemUseCase_RegistrarIniciaEnCero(t *testing.T) {
	uc := newItemUseCase(t)

	got, err := uc.Register(context.Background(), paperRequest())
	require.NoError(t, err)
	assert.Equal(t, "A4-PAPER", got.Code)
	assert.Equal(t, int64(0), got.OnHand)
	assert.Equal(t, string(entity.StatusOutOfStock), got.Status)
	assert.True(t, got.Active)
	assert.True(t, got.TotalValue.IsZero())

	byCode, err := uc.GetByCode(context.Background(), "A4-PAPER")
	require.NoError(t, err)
	assert.Equal(t, got.ID, byCode.ID)
}

func TestItemUseCase_CodigoDuplicado(t *testing.T) {
	uc := newItemUseCase(t)
	_, err := uc.Register(context.Background(), paperRequest())
	require.NoError(t, err)

	_, err = uc.Register(context.Background(), paperRequest())
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestItemUseCase_ValidaEntrada(t *testing.T) {
	uc := newItemUseCase(t)
	cases := map[string]func(r *dto.CreateItemRequest){
		"sin código":       func(r *dto.CreateItemRequest) { r.Code = " " },
		"sin nombre":       func(r *dto.CreateItemRequest) { r.Name = "" },
		"sin unidad":       func(r *dto.CreateItemRequest) { r.Unit = "" },
		"costo negativo":   func(r *dto.CreateItemRequest) { r.UnitCost = decimal.NewFromInt(-1) },
		"reorden negativo": func(r *dto.CreateItemRequest) { r.ReorderLevel = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := paperRequest()
			mutate(&req)
			_, err := uc.Register(context.Background(), req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestItemUseCase_ActualizarNoTocaCantidad(t *testing.T) {
	uc := newItemUseCase(t)
	ctx := context.Background()
	created, err := uc.Register(ctx, paperRequest())
	require.NoError(t, err)

	name := "Bond paper A4 (80gsm)"
	reorder := int64(30)
	updated, err := uc.Update(ctx, created.ID, dto.UpdateItemRequest{Name: &name, ReorderLevel: &reorder})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, int64(30), updated.ReorderLevel)
	assert.Equal(t, int64(0), updated.OnHand)

	blank := " "
	_, err = uc.Update(ctx, created.ID, dto.UpdateItemRequest{Unit: &blank})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Update(ctx, "missing", dto.UpdateItemRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemUseCase_DesactivarYListar(t *testing.T) {
	uc := newItemUseCase(t)
	ctx := context.Background()
	paper, err := uc.Register(ctx, paperRequest())
	require.NoError(t, err)
	_, err = uc.Register(ctx, dto.CreateItemRequest{Code: "PEN-BLK", Name: "Ballpen black", Unit: "pc", Category: "Writing"})
	require.NoError(t, err)

	retired, err := uc.Deactivate(ctx, paper.ID)
	require.NoError(t, err)
	assert.False(t, retired.Active)

	active, err := uc.List(ctx, repository.ItemFilter{ActiveOnly: true}, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, active.Items, 1)
	assert.Equal(t, "PEN-BLK", active.Items[0].Code)
	assert.Equal(t, 20, active.Page.Limit)

	all, err := uc.List(ctx, repository.ItemFilter{Category: "Paper"}, dto.PageRequest{Limit: 5})
	require.NoError(t, err)
	require.Len(t, all.Items, 1)

	_, err = uc.List(ctx, repository.ItemFilter{Status: "Broken"}, dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	again, err := uc.Activate(ctx, paper.ID)
	require.NoError(t, err)
	assert.True(t, again.Active)
}
