package entity

import "time"

// Direction dirección de un movimiento del ledger. Conjunto cerrado.
type Direction string

const (
	DirectionReceived      Direction = "received"
	DirectionIssued        Direction = "issued"
	DirectionAdjustmentIn  Direction = "adjustment_in"
	DirectionAdjustmentOut Direction = "adjustment_out"
)

// MovementKind agrupa las direcciones como en el registro de movimientos de la oficina.
type MovementKind string

const (
	KindReceived   MovementKind = "received"
	KindIssued     MovementKind = "issued"
	KindAdjustment MovementKind = "adjustment"
)

// Valid indica si la dirección pertenece al conjunto cerrado.
func (d Direction) Valid() bool {
	switch d {
	case DirectionReceived, DirectionIssued, DirectionAdjustmentIn, DirectionAdjustmentOut:
		return true
	}
	return false
}

// Sign devuelve +1 o -1 según el efecto de la dirección sobre el saldo (0 si no es válida).
func (d Direction) Sign() int64 {
	switch d {
	case DirectionReceived, DirectionAdjustmentIn:
		return 1
	case DirectionIssued, DirectionAdjustmentOut:
		return -1
	}
	return 0
}

// Decreases indica si la dirección reduce el saldo.
func (d Direction) Decreases() bool { return d.Sign() < 0 }

// Kind devuelve el tipo de movimiento visible para reportes.
func (d Direction) Kind() MovementKind {
	switch d {
	case DirectionReceived:
		return KindReceived
	case DirectionIssued:
		return KindIssued
	default:
		return KindAdjustment
	}
}

// Movement entrada inmutable del ledger. Las correcciones son movimientos nuevos.
type Movement struct {
	ID            string
	Seq           int64 // secuencia de commit, asignada al persistir
	TransactionID string
	ItemID        string
	Direction     Direction
	Quantity      int64 // siempre > 0; el signo lo da Direction
	EffectiveAt   time.Time
	Reference     string // PO/DR, RIS, CNT-...
	Custodian     string
	Department    string
	Purpose       string
	CreatedAt     time.Time
	CreatedBy     string
}

// Delta efecto con signo del movimiento sobre el saldo.
func (m *Movement) Delta() int64 {
	return m.Direction.Sign() * m.Quantity
}
