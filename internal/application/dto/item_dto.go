package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateItemRequest entrada para registrar un ítem. La cantidad siempre inicia en 0.
type CreateItemRequest struct {
	Code         string          `json:"code" validate:"required,min=1,max=64"`
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	Description  string          `json:"description"`
	Unit         string          `json:"unit" validate:"required"`
	Category     string          `json:"category"`
	Location     string          `json:"location"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	ReorderLevel int64           `json:"reorder_level"`
}

// UpdateItemRequest entrada para actualizar atributos de identidad (nunca la cantidad).
type UpdateItemRequest struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	Unit         *string          `json:"unit"`
	Category     *string          `json:"category"`
	Location     *string          `json:"location"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
	ReorderLevel *int64           `json:"reorder_level"`
}

// ItemResponse salida de un ítem con su estado recalculado.
type ItemResponse struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Unit         string          `json:"unit"`
	Category     string          `json:"category"`
	Location     string          `json:"location"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	ReorderLevel int64           `json:"reorder_level"`
	OnHand       int64           `json:"on_hand"`
	TotalValue   decimal.Decimal `json:"total_value"`
	Status       string          `json:"status"`
	Active       bool            `json:"active"`
	Halted       bool            `json:"halted"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ItemListResponse lista paginada de ítems.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// ReorderSuggestionDTO sugerencia de reposición para un ítem en o bajo su nivel de reorden.
type ReorderSuggestionDTO struct {
	ItemID             string          `json:"item_id"`
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	Unit               string          `json:"unit"`
	Status             string          `json:"status"`
	OnHand             int64           `json:"on_hand"`
	ReorderLevel       int64           `json:"reorder_level"`
	IdealStock         int64           `json:"ideal_stock"`         // ReorderLevel * 1.5
	SuggestedOrderQty  int64           `json:"suggested_order_qty"` // IdealStock - OnHand
	UnitCost           decimal.Decimal `json:"unit_cost"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	IssuedLast90Days   int64           `json:"issued_last_90d"`
	Priority           int             `json:"priority"` // 1 = más urgente
}
