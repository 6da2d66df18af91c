package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/supply-ledger/internal/domain"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
	ledger "github.com/jhoicas/supply-ledger/internal/domain/inventory"
	"github.com/jhoicas/supply-ledger/internal/domain/repository"
)

// Engine motor del ledger: calcula saldos por repetición del historial, valida movimientos
// propuestos y los confirma refrescando la proyección del ítem.
// ProposeMovement y Commit solo son válidos con el bloqueo del ítem tomado.
type Engine struct {
	clock func() time.Time
	log   zerolog.Logger
}

// NewEngine construye el motor. clock nil usa time.Now.
func NewEngine(log zerolog.Logger, clock func() time.Time) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{clock: clock, log: log.With().Str("component", "ledger_engine").Logger()}
}

// Now hora del motor en UTC con precisión de microsegundos (la que conservan los backends).
func (e *Engine) Now() time.Time {
	return e.clock().UTC().Truncate(time.Microsecond)
}

// MovementInput datos de un movimiento a proponer.
type MovementInput struct {
	ItemID      string
	Direction   entity.Direction
	Quantity    int64
	Reference   string
	EffectiveAt time.Time // cero = ahora
	Custodian   string
	Department  string
	Purpose     string
}

// Proposal movimiento validado y todavía no persistido.
type Proposal struct {
	Movement  *entity.Movement
	Available int64 // saldo disponible en su posición antes de aplicarlo
}

type refKey struct {
	itemID    string
	direction entity.Direction
	reference string
}

// Batch estado de una transacción en curso: historial cargado por ítem más las líneas ya propuestas,
// para que cada propuesta vea los deltas pendientes de las anteriores.
type Batch struct {
	ID          string
	Actor       string
	now         time.Time
	allowHalted bool
	items       map[string]*entity.Item
	timelines   map[string]*ledger.Timeline
	nextSeq     map[string]int64
	refs        map[refKey]struct{}
	proposals   []*Proposal
}

// NewBatch abre un lote con un ID de transacción nuevo.
func (e *Engine) NewBatch(actor string) *Batch {
	if strings.TrimSpace(actor) == "" {
		actor = "system"
	}
	return &Batch{
		ID:        uuid.New().String(),
		Actor:     actor,
		now:       e.Now(),
		items:     make(map[string]*entity.Item),
		timelines: make(map[string]*ledger.Timeline),
		nextSeq:   make(map[string]int64),
		refs:      make(map[refKey]struct{}),
	}
}

// Proposals líneas propuestas en orden.
func (b *Batch) Proposals() []*Proposal { return b.proposals }

// Item ítem cargado en el lote.
func (b *Batch) Item(id string) *entity.Item { return b.items[id] }

// ComputeBalance saldo del ítem a la fecha asOf (nil = ahora) repitiendo el historial en orden.
// Un saldo negativo nunca se ajusta: devuelve *domain.InvariantViolation junto con el valor.
func (e *Engine) ComputeBalance(ctx context.Context, items repository.ItemRepository, movements repository.MovementRepository, itemID string, asOf *time.Time) (int64, error) {
	item, err := items.GetByID(ctx, itemID)
	if err != nil {
		return 0, fmt.Errorf("get item: %w", err)
	}
	if item == nil {
		return 0, domain.ErrNotFound
	}
	ms, err := movements.ListByItem(ctx, itemID)
	if err != nil {
		return 0, fmt.Errorf("list movements: %w", err)
	}
	at := e.Now()
	if asOf != nil {
		at = asOf.UTC()
	}
	balance := ledger.FromMovements(ms).BalanceAt(at)
	if balance < 0 {
		return balance, e.violation(itemID, balance, at)
	}
	return balance, nil
}

// ProposeMovement valida un movimiento sin modificar el ledger. Rechaza cantidades no positivas,
// fechas futuras, referencias repetidas para (ítem, dirección) y salidas que dejarían cualquier
// saldo acumulado desde su posición por debajo de cero.
func (e *Engine) ProposeMovement(ctx context.Context, repos TxRepos, b *Batch, in MovementInput) (*Proposal, error) {
	if in.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	if !in.Direction.Valid() {
		return nil, domain.NewValidationError("direction", fmt.Sprintf("dirección desconocida %q", in.Direction))
	}
	effective := b.now
	if !in.EffectiveAt.IsZero() {
		effective = in.EffectiveAt.UTC().Truncate(time.Microsecond)
	}
	if effective.After(b.now) {
		return nil, domain.NewValidationError("effective_date", "no puede ser posterior a la fecha actual")
	}

	item, tl, err := e.load(ctx, repos, b, in.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.Active {
		return nil, domain.ErrItemInactive
	}
	if !b.allowHalted {
		if item.Halted {
			return nil, domain.ErrItemHalted
		}
		if total := tl.Total(); total < 0 {
			return nil, e.violation(item.ID, total, b.now)
		}
	}

	ref := strings.TrimSpace(in.Reference)
	key := refKey{itemID: item.ID, direction: in.Direction, reference: ref}
	if ref != "" {
		dup := &domain.DuplicateReferenceError{ItemID: item.ID, Direction: string(in.Direction), Reference: ref}
		if _, ok := b.refs[key]; ok {
			return nil, dup
		}
		exists, err := repos.Movements.ReferenceExists(ctx, item.ID, in.Direction, ref)
		if err != nil {
			return nil, fmt.Errorf("check reference: %w", err)
		}
		if exists {
			return nil, dup
		}
	}

	seq := b.nextSeq[item.ID] + 1
	entry := ledger.Entry{EffectiveAt: effective, CreatedAt: b.now, Seq: seq, Delta: in.Direction.Sign() * in.Quantity}
	available := tl.AvailableAt(tl.Position(entry))
	if in.Direction.Decreases() && in.Quantity > available {
		if available < 0 {
			available = 0
		}
		return nil, &domain.InsufficientBalanceError{ItemID: item.ID, Available: available, Requested: in.Quantity, At: effective}
	}

	tl.Insert(entry)
	b.nextSeq[item.ID] = seq
	if ref != "" {
		b.refs[key] = struct{}{}
	}
	p := &Proposal{
		Movement: &entity.Movement{
			ID:            uuid.New().String(),
			TransactionID: b.ID,
			ItemID:        item.ID,
			Direction:     in.Direction,
			Quantity:      in.Quantity,
			EffectiveAt:   effective,
			Reference:     ref,
			Custodian:     strings.TrimSpace(in.Custodian),
			Department:    strings.TrimSpace(in.Department),
			Purpose:       strings.TrimSpace(in.Purpose),
			CreatedAt:     b.now,
			CreatedBy:     b.Actor,
		},
		Available: available,
	}
	b.proposals = append(b.proposals, p)
	return p, nil
}

// Commit agrega el movimiento al ledger y reescribe la proyección del ítem con el saldo del ledger.
func (e *Engine) Commit(ctx context.Context, repos TxRepos, b *Batch, p *Proposal) (*entity.Movement, error) {
	m := p.Movement
	if err := repos.Movements.Append(ctx, m); err != nil {
		return nil, err
	}
	balance, err := repos.Movements.Sum(ctx, m.ItemID)
	if err != nil {
		return nil, fmt.Errorf("sum movements: %w", err)
	}
	if err := repos.Projection.RefreshBalance(ctx, m.ItemID, balance, b.now); err != nil {
		return nil, fmt.Errorf("refresh balance: %w", err)
	}
	if item := b.items[m.ItemID]; item != nil {
		item.OnHand = balance
	}
	e.log.Debug().
		Str("transaction_id", b.ID).
		Str("movement_id", m.ID).
		Str("item_id", m.ItemID).
		Str("direction", string(m.Direction)).
		Int64("quantity", m.Quantity).
		Int64("on_hand", balance).
		Msg("movimiento confirmado")
	return m, nil
}

// CommitAll confirma las propuestas del lote en orden. Los errores llevan la línea (1-based).
func (e *Engine) CommitAll(ctx context.Context, repos TxRepos, b *Batch) ([]*entity.Movement, error) {
	out := make([]*entity.Movement, 0, len(b.proposals))
	for i, p := range b.proposals {
		m, err := e.Commit(ctx, repos, b, p)
		if err != nil {
			return nil, domain.AtLine(err, i+1, p.Movement.ItemID)
		}
		out = append(out, m)
	}
	return out, nil
}

// balanceAt saldo a asOf incluyendo lo pendiente del lote. Puede ser negativo (camino de conciliación).
func (e *Engine) balanceAt(ctx context.Context, repos TxRepos, b *Batch, itemID string, asOf time.Time) (*entity.Item, int64, error) {
	item, tl, err := e.load(ctx, repos, b, itemID)
	if err != nil {
		return nil, 0, err
	}
	return item, tl.BalanceAt(asOf), nil
}

// repairProjection alinea la proyección con el ledger y libera el ítem si su saldo ya no es negativo.
func (e *Engine) repairProjection(ctx context.Context, repos TxRepos, b *Batch, itemID string) error {
	item, tl, err := e.load(ctx, repos, b, itemID)
	if err != nil {
		return err
	}
	total := tl.Total()
	if item.OnHand != total {
		if err := repos.Projection.RefreshBalance(ctx, itemID, total, b.now); err != nil {
			return fmt.Errorf("refresh balance: %w", err)
		}
		item.OnHand = total
	}
	if item.Halted && total >= 0 {
		if err := repos.Projection.SetHalted(ctx, itemID, false, b.now); err != nil {
			return fmt.Errorf("release item: %w", err)
		}
		item.Halted = false
		e.log.Info().Str("item_id", itemID).Int64("on_hand", total).Msg("ítem liberado tras conciliación")
	}
	return nil
}

// haltOnViolation detiene el ítem si err es una violación de invariante. Se llama fuera de la
// transacción que falló, para que la detención persista aunque esa transacción se revierta.
func (e *Engine) haltOnViolation(ctx context.Context, projector repository.BalanceProjector, err error) {
	var iv *domain.InvariantViolation
	if !errors.As(err, &iv) {
		return
	}
	if herr := projector.SetHalted(ctx, iv.ItemID, true, e.Now()); herr != nil {
		e.log.Error().Err(herr).Str("item_id", iv.ItemID).Msg("no se pudo detener el ítem")
		return
	}
	e.log.Warn().Str("item_id", iv.ItemID).Msg("ítem detenido hasta su conciliación")
}

func (e *Engine) load(ctx context.Context, repos TxRepos, b *Batch, itemID string) (*entity.Item, *ledger.Timeline, error) {
	if item, ok := b.items[itemID]; ok {
		return item, b.timelines[itemID], nil
	}
	item, err := repos.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, nil, fmt.Errorf("get item: %w", err)
	}
	if item == nil {
		return nil, nil, domain.ErrNotFound
	}
	ms, err := repos.Movements.ListByItem(ctx, itemID)
	if err != nil {
		return nil, nil, fmt.Errorf("list movements: %w", err)
	}
	tl := ledger.FromMovements(ms)
	b.items[itemID] = item
	b.timelines[itemID] = tl
	b.nextSeq[itemID] = tl.MaxSeq()
	return item, tl, nil
}

func (e *Engine) violation(itemID string, balance int64, at time.Time) error {
	e.log.Error().
		Str("item_id", itemID).
		Int64("balance", balance).
		Time("as_of", at).
		Msg("violación de invariante: saldo negativo en el ledger")
	return &domain.InvariantViolation{ItemID: itemID, Balance: balance, AsOf: at}
}
