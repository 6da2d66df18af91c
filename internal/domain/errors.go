package domain

import (
	"errors"
	"fmt"
	"time"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrDuplicateReference = errors.New("referencia ya registrada para el ítem")
	ErrInvariantViolation = errors.New("saldo del ledger negativo")
	ErrItemHalted         = errors.New("ítem detenido hasta su conciliación")
	ErrItemInactive       = errors.New("ítem inactivo")
	ErrLockTimeout        = errors.New("tiempo de espera agotado al bloquear ítems")
)

// ValidationError rechazo estructural, detectado antes de tomar cualquier bloqueo.
// Line es 1-based; 0 indica que no corresponde a una línea concreta.
type ValidationError struct {
	Line   int
	Field  string
	Reason string
}

// NewValidationError construye un ValidationError sin línea.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("línea %d: %s: %s", e.Line, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// InsufficientBalanceError la salida propuesta dejaría el saldo del ítem por debajo de cero.
// Available es la cantidad máxima que podía salir en la fecha efectiva At.
type InsufficientBalanceError struct {
	Line      int
	ItemID    string
	Available int64
	Requested int64
	At        time.Time
}

func (e *InsufficientBalanceError) Error() string {
	msg := fmt.Sprintf("saldo insuficiente para ítem %s: disponible %d, solicitado %d", e.ItemID, e.Available, e.Requested)
	if e.Line > 0 {
		return fmt.Sprintf("línea %d: %s", e.Line, msg)
	}
	return msg
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientStock }

// DuplicateReferenceError la referencia ya fue usada para el mismo ítem y dirección.
type DuplicateReferenceError struct {
	Line      int
	ItemID    string
	Direction string
	Reference string
}

func (e *DuplicateReferenceError) Error() string {
	msg := fmt.Sprintf("referencia %q ya registrada para ítem %s (%s)", e.Reference, e.ItemID, e.Direction)
	if e.Line > 0 {
		return fmt.Sprintf("línea %d: %s", e.Line, msg)
	}
	return msg
}

func (e *DuplicateReferenceError) Unwrap() error { return ErrDuplicateReference }

// InvariantViolation el historial de un ítem produce un saldo negativo.
// Nunca se corrige en silencio: el ítem queda detenido hasta conciliarlo.
type InvariantViolation struct {
	ItemID  string
	Balance int64
	AsOf    time.Time
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("saldo negativo %d para ítem %s al %s", e.Balance, e.ItemID, e.AsOf.Format(time.RFC3339))
}

func (e *InvariantViolation) Unwrap() error { return ErrInvariantViolation }

// LineError asocia un error sin línea propia (ej. ErrNotFound, ErrItemHalted) a una línea de la transacción.
type LineError struct {
	Line   int
	ItemID string
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("línea %d (ítem %s): %v", e.Line, e.ItemID, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// AtLine etiqueta err con la línea (1-based) que lo provocó.
func AtLine(err error, line int, itemID string) error {
	if err == nil {
		return nil
	}
	var (
		ve  *ValidationError
		ibe *InsufficientBalanceError
		dre *DuplicateReferenceError
		iv  *InvariantViolation
	)
	switch {
	case errors.As(err, &ve):
		ve.Line = line
		return ve
	case errors.As(err, &ibe):
		ibe.Line = line
		return ibe
	case errors.As(err, &dre):
		dre.Line = line
		return dre
	case errors.As(err, &iv):
		return &LineError{Line: line, ItemID: itemID, Err: iv}
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrItemHalted) || errors.Is(err, ErrItemInactive) {
		return &LineError{Line: line, ItemID: itemID, Err: err}
	}
	return err
}

// LineOf devuelve la línea asociada al error, si la hay.
func LineOf(err error) int {
	var (
		ve  *ValidationError
		ibe *InsufficientBalanceError
		dre *DuplicateReferenceError
		le  *LineError
	)
	switch {
	case errors.As(err, &le):
		return le.Line
	case errors.As(err, &ve):
		return ve.Line
	case errors.As(err, &ibe):
		return ibe.Line
	case errors.As(err, &dre):
		return dre.Line
	}
	return 0
}

// IsClientError indica si el error se debe a la petición y no a la infraestructura.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrDuplicateReference) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrItemHalted) ||
		errors.Is(err, ErrItemInactive)
}
