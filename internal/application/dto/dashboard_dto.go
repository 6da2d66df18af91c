package dto

import "github.com/shopspring/decimal"

// DashboardSummaryDTO respuesta de GET /api/reports/dashboard.
// Estado actual del catálogo más el consumo del mes en curso.
type DashboardSummaryDTO struct {
	// Catálogo (ítems activos)
	ActiveItems    int             `json:"active_items"`
	InStock        int             `json:"in_stock"`
	LowStock       int             `json:"low_stock"`
	OutOfStock     int             `json:"out_of_stock"`
	HaltedItems    int             `json:"halted_items"` // pendientes de conciliación
	InventoryValue decimal.Decimal `json:"inventory_value"`

	// Mes en curso (día 1 – hoy)
	MonthIssued int64          `json:"month_issued"`
	TopIssued   []TopIssuedDTO `json:"top_issued"`

	DateLabel string `json:"date_label"` // ej: "October 2026"
}

// TopIssuedDTO ítem con más unidades entregadas en el mes.
type TopIssuedDTO struct {
	ItemID   string `json:"item_id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Quantity int64  `json:"quantity"`
}
