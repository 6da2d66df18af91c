package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/supply-ledger/internal/domain/entity"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name    string
		onHand  int64
		reorder int64
		want    entity.StockStatus
	}{
		{"sin existencias", 0, 10, entity.StatusOutOfStock},
		{"saldo negativo", -2, 10, entity.StatusOutOfStock},
		{"igual al nivel de reorden", 10, 10, entity.StatusLowStock},
		{"por debajo del nivel", 3, 10, entity.StatusLowStock},
		{"por encima del nivel", 11, 10, entity.StatusInStock},
		{"sin nivel de reorden", 1, 0, entity.StatusInStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, entity.StatusFor(tc.onHand, tc.reorder))
		})
	}
}

func TestItem_StatusSeRecalculaEnCadaLectura(t *testing.T) {
	item := &entity.Item{OnHand: 50, ReorderLevel: 20}
	assert.Equal(t, entity.StatusInStock, item.Status())

	item.OnHand = 20
	assert.Equal(t, entity.StatusLowStock, item.Status())

	item.OnHand = 0
	assert.Equal(t, entity.StatusOutOfStock, item.Status())
}

func TestItem_TotalValue(t *testing.T) {
	item := &entity.Item{OnHand: 4, UnitCost: decimal.RequireFromString("215.50")}
	assert.True(t, decimal.RequireFromString("862").Equal(item.TotalValue()))
}
