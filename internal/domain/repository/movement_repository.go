package repository

import (
	"context"
	"time"

	"github.com/jhoicas/supply-ledger/internal/domain/entity"
)

// MovementKey posición de un movimiento en el orden del ledger.
type MovementKey struct {
	EffectiveAt time.Time
	CreatedAt   time.Time
	Seq         int64
}

// MovementPageQuery consulta paginada por clave (keyset) en orden del ledger.
type MovementPageQuery struct {
	ItemID string
	From   *time.Time // fecha efectiva >= From
	To     *time.Time // fecha efectiva <= To
	After  *MovementKey
	Limit  int
}

// MovementRepository puerto del ledger de movimientos. Solo permite agregar y leer.
type MovementRepository interface {
	// Append persiste el movimiento y asigna Seq. Una referencia repetida para
	// (ítem, dirección) devuelve *domain.DuplicateReferenceError.
	Append(ctx context.Context, m *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	// ListByItem devuelve el historial completo del ítem ordenado por (fecha efectiva, creación, seq).
	ListByItem(ctx context.Context, itemID string) ([]*entity.Movement, error)
	Page(ctx context.Context, q MovementPageQuery) ([]*entity.Movement, error)
	ReferenceExists(ctx context.Context, itemID string, direction entity.Direction, reference string) (bool, error)
	// ListByReference movimientos de una dirección registrados con la referencia, en orden de commit.
	ListByReference(ctx context.Context, direction entity.Direction, reference string) ([]*entity.Movement, error)
	// Sum suma con signo todos los movimientos del ítem.
	Sum(ctx context.Context, itemID string) (int64, error)
	// IssuedBetween unidades entregadas (issued) por ítem con fecha efectiva en [from, to].
	IssuedBetween(ctx context.Context, from, to time.Time) (map[string]int64, error)
}
