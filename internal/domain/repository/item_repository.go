package repository

import (
	"context"
	"time"

	"github.com/jhoicas/supply-ledger/internal/domain/entity"
)

// ItemFilter filtros opcionales para listar ítems.
type ItemFilter struct {
	Category   string
	Status     entity.StockStatus // se traduce a condiciones sobre on_hand y reorder_level
	Search     string             // coincide con código o nombre
	ActiveOnly bool
}

// ItemRepository puerto de persistencia para el registro de ítems.
// Los métodos Get devuelven (nil, nil) cuando el ítem no existe.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	GetByCode(ctx context.Context, code string) (*entity.Item, error)
	List(ctx context.Context, filter ItemFilter, limit, offset int) ([]*entity.Item, error)
	// Update modifica solo atributos de identidad; nunca la cantidad.
	Update(ctx context.Context, item *entity.Item) error
	SetActive(ctx context.Context, id string, active bool, at time.Time) error
	// LockForUpdate bloquea las filas de los ítems (en el orden recibido) dentro de la transacción actual.
	LockForUpdate(ctx context.Context, ids []string) ([]*entity.Item, error)
}

// BalanceProjector escribe la proyección de saldo del ítem. Solo el motor del ledger lo recibe.
type BalanceProjector interface {
	RefreshBalance(ctx context.Context, itemID string, onHand int64, at time.Time) error
	SetHalted(ctx context.Context, itemID string, halted bool, at time.Time) error
}
