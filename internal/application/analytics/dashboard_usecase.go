// Package analytics contiene los reportes de resumen del inventario.
package analytics

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
	dashboardTopItems = 5   // ítems en el widget de consumo
	catalogueBatch    = 500 // tamaño de página al recorrer el catálogo
)

// DashboardUseCase genera el resumen del catálogo y del consumo del mes en curso.
//
// Fuente de datos: repositorios de ítems y movimientos (solo lectura).
type DashboardUseCase struct {
	items     repository.ItemRepository
	movements repository.MovementRepository
	clock     func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(items repository.ItemRepository, movements repository.MovementRepository) *DashboardUseCase {
	return &DashboardUseCase{items: items, movements: movements, clock: time.Now}
}

// GetSummary construye el DashboardSummaryDTO.
//
// Dos lecturas en paralelo:
//  1. catálogo activo completo → conteos por estado + valor
//  2. IssuedBetween(mes)       → consumo del mes + top 5
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	now := uc.clock().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	type catalogueResult struct {
		items []*entity.Item
		err   error
	}
	type usageResult struct {
		issued map[string]int64
		err    error
	}

	catCh := make(chan catalogueResult, 1)
	useCh := make(chan usageResult, 1)

	go func() {
		items, err := uc.activeCatalogue(ctx)
		catCh <- catalogueResult{items, err}
	}()
	go func() {
		issued, err := uc.movements.IssuedBetween(ctx, monthStart, now)
		useCh <- usageResult{issued, err}
	}()

	cat := <-catCh
	use := <-useCh
	if cat.err != nil {
		return nil, fmt.Errorf("dashboard: catálogo: %w", cat.err)
	}
	if use.err != nil {
		return nil, fmt.Errorf("dashboard: consumo del mes: %w", use.err)
	}

	out := &dto.DashboardSummaryDTO{
		InventoryValue: decimal.Zero,
		TopIssued:      []dto.TopIssuedDTO{},
		DateLabel:      now.Format("January 2006"),
	}
	byID := make(map[string]*entity.Item, len(cat.items))
	for _, it := range cat.items {
		byID[it.ID] = it
		out.ActiveItems++
		switch it.Status() {
		case entity.StatusInStock:
			out.InStock++
		case entity.StatusLowStock:
			out.LowStock++
		case entity.StatusOutOfStock:
			out.OutOfStock++
		}
		if it.Halted {
			out.HaltedItems++
		}
		out.InventoryValue = out.InventoryValue.Add(it.TotalValue())
	}
	out.InventoryValue = out.InventoryValue.Round(2)

	for id, qty := range use.issued {
		out.MonthIssued += qty
		it, ok := byID[id]
		if !ok {
			continue
		}
		out.TopIssued = append(out.TopIssued, dto.TopIssuedDTO{ItemID: id, Code: it.Code, Name: it.Name, Unit: it.Unit, Quantity: qty})
	}
	sort.Slice(out.TopIssued, func(i, j int) bool {
		if out.TopIssued[i].Quantity != out.TopIssued[j].Quantity {
			return out.TopIssued[i].Quantity > out.TopIssued[j].Quantity
		}
		return out.TopIssued[i].Code < out.TopIssued[j].Code
	})
	if len(out.TopIssued) > dashboardTopItems {
		out.TopIssued = out.TopIssued[:dashboardTopItems]
	}
	return out, nil
}

func (uc *DashboardUseCase) activeCatalogue(ctx context.Context) ([]*entity.Item, error) {
	var all []*entity.Item
	for offset := 0; ; offset += catalogueBatch {
		page, err := uc.items.List(ctx, repository.ItemFilter{ActiveOnly: true}, catalogueBatch, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < catalogueBatch {
			return all, nil
		}
	}
}
