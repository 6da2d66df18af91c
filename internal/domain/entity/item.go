package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus estado de existencias derivado del saldo y el punto de reorden. Nunca se persiste.
type StockStatus string

const (
	StatusInStock    StockStatus = "In Stock"
	StatusLowStock   StockStatus = "Low Stock"
	StatusOutOfStock StockStatus = "Out of Stock"
)

// StatusFor calcula el estado a partir de la cantidad disponible y el nivel de reorden.
func StatusFor(onHand, reorderLevel int64) StockStatus {
	switch {
	case onHand <= 0:
		return StatusOutOfStock
	case onHand <= reorderLevel:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Item representa un artículo de la oficina de suministros.
// OnHand es una proyección del ledger: solo la reescribe el motor de inventario.
type Item struct {
	ID           string
	Code         string // código único asignado por la oficina
	Name         string
	Description  string
	Unit         string // unidad de medida (ream, box, pc...)
	Category     string
	Location     string // ubicación de almacenamiento
	UnitCost     decimal.Decimal
	ReorderLevel int64
	OnHand       int64
	Active       bool
	Halted       bool // saldo negativo detectado; se libera al conciliar
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Status recalcula el estado de existencias en cada lectura.
func (i *Item) Status() StockStatus {
	return StatusFor(i.OnHand, i.ReorderLevel)
}

// TotalValue valor del saldo actual al costo unitario registrado.
func (i *Item) TotalValue() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(i.OnHand))
}
