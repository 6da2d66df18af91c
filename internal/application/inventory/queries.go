package inventory

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/supply-ledger/internal/domain"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
	ledger "github.com/jhoicas/supply-ledger/internal/domain/inventory"
	"github.com/jhoicas/supply-ledger/internal/domain/repository"
	"github.com/jhoicas/supply-ledger/pkg/cursor"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// QueryUseCase lecturas del ledger: saldo a una fecha, movimientos paginados y tarjeta de existencias.
type QueryUseCase struct {
	engine    *Engine
	items     repository.ItemRepository
	movements repository.MovementRepository
	projector repository.BalanceProjector
	renderer  StockCardRenderer
	tracer    trace.Tracer
}

// NewQueryUseCase construye el caso de uso. renderer puede ser nil si no se exporta PDF.
func NewQueryUseCase(
	engine *Engine,
	items repository.ItemRepository,
	movements repository.MovementRepository,
	projector repository.BalanceProjector,
	renderer StockCardRenderer,
) *QueryUseCase {
	return &QueryUseCase{
		engine:    engine,
		items:     items,
		movements: movements,
		projector: projector,
		renderer:  renderer,
		tracer:    otel.Tracer(tracerName),
	}
}

// GetBalance saldo del ítem a asOf (nil = ahora). Si el historial da negativo, detiene el ítem.
func (q *QueryUseCase) GetBalance(ctx context.Context, itemID string, asOf *time.Time) (int64, error) {
	ctx, span := q.tracer.Start(ctx, "ledger.ComputeBalance", trace.WithAttributes(attribute.String("ledger.item_id", itemID)))
	defer span.End()

	balance, err := q.engine.ComputeBalance(ctx, q.items, q.movements, itemID, asOf)
	if err != nil {
		q.engine.haltOnViolation(ctx, q.projector, err)
		endSpan(span, err)
		return 0, err
	}
	span.SetAttributes(attribute.Int64("ledger.balance", balance))
	return balance, nil
}

// MovementListQuery filtros de ListMovements. Cursor es el token devuelto por la página anterior.
type MovementListQuery struct {
	ItemID string
	From   *time.Time
	To     *time.Time
	Cursor string
	Limit  int
}

// MovementPage página finita de movimientos en orden del ledger. NextCursor vacío = no hay más.
type MovementPage struct {
	Movements  []*entity.Movement
	NextCursor string
}

// ListMovements recorre el historial del ítem en orden (fecha efectiva, creación, secuencia).
// La secuencia es reanudable con el cursor aunque se agreguen movimientos posteriores.
func (q *QueryUseCase) ListMovements(ctx context.Context, in MovementListQuery) (*MovementPage, error) {
	if _, err := q.requireItem(ctx, in.ItemID); err != nil {
		return nil, err
	}
	if in.From != nil && in.To != nil && in.To.Before(*in.From) {
		return nil, domain.NewValidationError("to", "debe ser posterior a from")
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	filter := movementFilter(in)
	pq := repository.MovementPageQuery{ItemID: in.ItemID, From: in.From, To: in.To, Limit: limit + 1}
	if in.Cursor != "" {
		c, err := cursor.Decode(in.Cursor, filter)
		if err != nil {
			return nil, domain.NewValidationError("cursor", err.Error())
		}
		pq.After = &repository.MovementKey{EffectiveAt: c.Effective(), CreatedAt: c.Created(), Seq: c.Seq}
	}

	rows, err := q.movements.Page(ctx, pq)
	if err != nil {
		return nil, fmt.Errorf("page movements: %w", err)
	}
	page := &MovementPage{Movements: rows}
	if len(rows) > limit {
		page.Movements = rows[:limit]
		last := page.Movements[limit-1]
		token, err := cursor.Encode(cursor.New(last.EffectiveAt, last.CreatedAt, last.Seq, filter))
		if err != nil {
			return nil, err
		}
		page.NextCursor = token
	}
	return page, nil
}

// StockCard tarjeta de existencias del ítem en el rango [from, to].
func (q *QueryUseCase) StockCard(ctx context.Context, itemID string, from, to *time.Time) (*ledger.StockCard, error) {
	item, err := q.requireItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, domain.NewValidationError("to", "debe ser posterior a from")
	}
	ms, err := q.movements.ListByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return ledger.BuildStockCard(item, ms, from, to), nil
}

// StockCardPDF tarjeta de existencias renderizada para impresión.
func (q *QueryUseCase) StockCardPDF(ctx context.Context, itemID string, from, to *time.Time) ([]byte, error) {
	if q.renderer == nil {
		return nil, fmt.Errorf("stock card renderer no configurado")
	}
	card, err := q.StockCard(ctx, itemID, from, to)
	if err != nil {
		return nil, err
	}
	return q.renderer.RenderStockCard(card)
}

func (q *QueryUseCase) requireItem(ctx context.Context, itemID string) (*entity.Item, error) {
	item, err := q.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func movementFilter(in MovementListQuery) string {
	f := "item=" + in.ItemID
	if in.From != nil {
		f += ";from=" + in.From.UTC().Format(time.RFC3339Nano)
	}
	if in.To != nil {
		f += ";to=" + in.To.UTC().Format(time.RFC3339Nano)
	}
	return f
}
