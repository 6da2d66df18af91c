package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/supply-ledger/internal/application/dto"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
	"github.com/jhoicas/supply-ledger/internal/domain/repository"
)

const (
	reorderScanLimit = 1000
	usageWindowDays  = 90
)

// ReplenishmentUseCase genera la lista de reposición: ítems activos en o por debajo de su nivel
// de reorden, priorizados por consumo reciente.
type ReplenishmentUseCase struct {
	items     repository.ItemRepository
	movements repository.MovementRepository
	clock     func() time.Time
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(items repository.ItemRepository, movements repository.MovementRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{items: items, movements: movements, clock: time.Now}
}

// GenerateReorderList devuelve los ítems Low Stock / Out of Stock con la cantidad sugerida
// (nivel ideal = reorden * 1.5, redondeado hacia arriba) y su costo estimado.
func (uc *ReplenishmentUseCase) GenerateReorderList(ctx context.Context) ([]dto.ReorderSuggestionDTO, error) {
	var candidates []*entity.Item
	for _, status := range []entity.StockStatus{entity.StatusOutOfStock, entity.StatusLowStock} {
		list, err := uc.items.List(ctx, repository.ItemFilter{Status: status, ActiveOnly: true}, reorderScanLimit, 0)
		if err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		candidates = append(candidates, list...)
	}
	if len(candidates) == 0 {
		return []dto.ReorderSuggestionDTO{}, nil
	}

	end := uc.clock().UTC()
	usage, err := uc.movements.IssuedBetween(ctx, end.AddDate(0, 0, -usageWindowDays), end)
	if err != nil {
		return nil, fmt.Errorf("issued between: %w", err)
	}

	onePointFive := decimal.NewFromFloat(1.5)
	suggestions := make([]dto.ReorderSuggestionDTO, 0, len(candidates))
	for _, item := range candidates {
		// Sin nivel de reorden solo aparecen los agotados; se sugiere reponer el consumo reciente.
		ideal := decimal.NewFromInt(item.ReorderLevel).Mul(onePointFive).Ceil().IntPart()
		if item.ReorderLevel == 0 {
			ideal = usage[item.ID]
		}
		suggested := ideal - item.OnHand
		if suggested < 0 {
			suggested = 0
		}
		suggestions = append(suggestions, dto.ReorderSuggestionDTO{
			ItemID:             item.ID,
			Code:               item.Code,
			Name:               item.Name,
			Unit:               item.Unit,
			Status:             string(item.Status()),
			OnHand:             item.OnHand,
			ReorderLevel:       item.ReorderLevel,
			IdealStock:         ideal,
			SuggestedOrderQty:  suggested,
			UnitCost:           item.UnitCost,
			EstimatedOrderCost: item.UnitCost.Mul(decimal.NewFromInt(suggested)),
			IssuedLast90Days:   usage[item.ID],
		})
	}

	// Primero agotados, luego mayor consumo reciente, luego mayor déficit bajo el nivel de reorden.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		aOut, bOut := a.OnHand <= 0, b.OnHand <= 0
		if aOut != bOut {
			return aOut
		}
		if a.IssuedLast90Days != b.IssuedLast90Days {
			return a.IssuedLast90Days > b.IssuedLast90Days
		}
		return a.ReorderLevel-a.OnHand > b.ReorderLevel-b.OnHand
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
