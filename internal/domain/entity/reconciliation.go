package entity

import "time"

// Resolution resultado de una conciliación.
type Resolution string

const (
	ResolutionAdjusted Resolution = "adjusted" // se registró un movimiento de ajuste
	ResolutionAccepted Resolution = "accepted" // conteo igual al ledger
)

// ReconciliationRecord registro inmutable de un conteo físico contra el ledger.
type ReconciliationRecord struct {
	ID               string
	ItemID           string
	SessionID        string // conteo físico al que pertenece (vacío si es individual)
	CountedQuantity  int64
	ExpectedQuantity int64
	Discrepancy      int64 // contado - esperado
	Resolution       Resolution
	MovementID       string
	AsOf             time.Time
	CountedBy        string
	Location         string
	Notes            string
	CreatedAt        time.Time
}

// PhysicalCount resumen de una sesión de conteo físico.
type PhysicalCount struct {
	ID                 string
	CountDate          time.Time
	CountedBy          string
	Location           string
	Notes              string
	Records            []*ReconciliationRecord
	ItemsCounted       int
	DiscrepanciesFound int
}
