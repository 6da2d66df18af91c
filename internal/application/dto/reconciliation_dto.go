package dto

import "time"

// ReconcileRequest body para POST /api/reconciliations.
type ReconcileRequest struct {
	ItemID          string     `json:"item_id"`
	CountedQuantity *int64     `json:"counted_quantity"`
	AsOf            *time.Time `json:"as_of,omitempty"`
	CountedBy       string     `json:"counted_by"`
	Location        string     `json:"location"`
	Notes           string     `json:"notes"`
}

// CountLineRequest ítem contado en una sesión de conteo físico.
type CountLineRequest struct {
	ItemID          string `json:"item_id"`
	CountedQuantity *int64 `json:"counted_quantity"`
	Notes           string `json:"notes"`
}

// PhysicalCountRequest body para POST /api/physical-counts.
type PhysicalCountRequest struct {
	CountDate *time.Time         `json:"count_date,omitempty"`
	CountedBy string             `json:"counted_by"`
	Location  string             `json:"location"`
	Notes     string             `json:"notes"`
	Items     []CountLineRequest `json:"items"`
}

// ReconciliationResponse registro de conciliación.
type ReconciliationResponse struct {
	ID               string    `json:"id"`
	ItemID           string    `json:"item_id"`
	SessionID        string    `json:"session_id,omitempty"`
	CountedQuantity  int64     `json:"counted_quantity"`
	ExpectedQuantity int64     `json:"expected_quantity"`
	Discrepancy      int64     `json:"discrepancy"`
	Resolution       string    `json:"resolution"`
	MovementID       string    `json:"movement_id,omitempty"`
	AsOf             time.Time `json:"as_of"`
	CountedBy        string    `json:"counted_by,omitempty"`
	Location         string    `json:"location,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// PhysicalCountResponse resumen de una sesión de conteo.
type PhysicalCountResponse struct {
	ID                 string                   `json:"id"`
	CountDate          time.Time                `json:"count_date"`
	CountedBy          string                   `json:"counted_by"`
	Location           string                   `json:"location,omitempty"`
	Notes              string                   `json:"notes,omitempty"`
	ItemsCounted       int                      `json:"items_counted"`
	DiscrepanciesFound int                      `json:"discrepancies_found"`
	Records            []ReconciliationResponse `json:"records"`
}
