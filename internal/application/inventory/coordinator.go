package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/supply-ledger/internal/domain"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
	"github.com/jhoicas/supply-ledger/internal/domain/repository"
)

const tracerName = "github.com/jhoicas/supply-ledger/internal/application/inventory"

// Coordinator agrupa N movimientos en una unidad atómica: valida la estructura sin bloqueos,
// bloquea los ítems en orden ascendente, propone todas las líneas y solo entonces confirma todas.
type Coordinator struct {
	tx          TxRunner
	engine      *Engine
	locks       *itemLocks
	projector   repository.BalanceProjector
	publisher   EventPublisher
	lockTimeout time.Duration
	log         zerolog.Logger
	tracer      trace.Tracer
}

// NewCoordinator construye el coordinador. projector debe estar atado al pool (fuera de tx):
// solo se usa para detener ítems cuya transacción se revirtió por violación de invariante.
func NewCoordinator(
	tx TxRunner,
	engine *Engine,
	projector repository.BalanceProjector,
	publisher EventPublisher,
	lockTimeout time.Duration,
	log zerolog.Logger,
) *Coordinator {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Coordinator{
		tx:          tx,
		engine:      engine,
		locks:       newItemLocks(),
		projector:   projector,
		publisher:   publisher,
		lockTimeout: lockTimeout,
		log:         log.With().Str("component", "ledger_coordinator").Logger(),
		tracer:      otel.Tracer(tracerName),
	}
}

// TransactionLine línea de una transacción.
type TransactionLine struct {
	ItemID     string
	Direction  entity.Direction
	Quantity   int64
	Custodian  string
	Department string
	Purpose    string
}

// TransactionRequest grupo de líneas que comparten referencia y fecha efectiva.
type TransactionRequest struct {
	Reference   string
	EffectiveAt time.Time // cero = ahora
	Actor       string
	Lines       []TransactionLine
}

// TransactionResult movimientos confirmados, en el orden de las líneas.
type TransactionResult struct {
	TransactionID string
	Reference     string
	Movements     []*entity.Movement
}

// MovementIDs IDs de los movimientos confirmados.
func (r *TransactionResult) MovementIDs() []string {
	ids := make([]string, 0, len(r.Movements))
	for _, m := range r.Movements {
		ids = append(ids, m.ID)
	}
	return ids
}

// PostTransaction confirma todas las líneas o ninguna. Un rechazo identifica la línea (1-based).
func (c *Coordinator) PostTransaction(ctx context.Context, req TransactionRequest) (*TransactionResult, error) {
	ctx, span := c.tracer.Start(ctx, "ledger.PostTransaction", trace.WithAttributes(
		attribute.String("ledger.reference", req.Reference),
		attribute.Int("ledger.lines", len(req.Lines)),
	))
	defer span.End()

	if err := c.validate(req); err != nil {
		endSpan(span, err)
		return nil, err
	}
	ref := strings.TrimSpace(req.Reference)

	var result *TransactionResult
	var batch *Batch
	err := c.withItems(ctx, lineItemIDs(req.Lines), req.Actor, false, func(repos TxRepos, b *Batch) error {
		batch = b
		for i, line := range req.Lines {
			_, err := c.engine.ProposeMovement(ctx, repos, b, MovementInput{
				ItemID:      line.ItemID,
				Direction:   line.Direction,
				Quantity:    line.Quantity,
				Reference:   ref,
				EffectiveAt: req.EffectiveAt,
				Custodian:   line.Custodian,
				Department:  line.Department,
				Purpose:     line.Purpose,
			})
			if err != nil {
				return domain.AtLine(err, i+1, line.ItemID)
			}
		}
		movements, err := c.engine.CommitAll(ctx, repos, b)
		if err != nil {
			return err
		}
		result = &TransactionResult{TransactionID: b.ID, Reference: ref, Movements: movements}
		return nil
	})
	if err != nil {
		c.logRejection(err, ref)
		endSpan(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("ledger.transaction_id", result.TransactionID))
	c.log.Info().
		Str("transaction_id", result.TransactionID).
		Str("reference", ref).
		Int("movements", len(result.Movements)).
		Msg("transacción confirmada")
	c.publish(ctx, SourceTransaction, batch, result.Movements)
	return result, nil
}

// withItems ejecuta fn con los ítems bloqueados (en memoria y en la BD) dentro de una transacción.
// Los bloqueos se liberan al volver, antes de cualquier publicación.
func (c *Coordinator) withItems(ctx context.Context, ids []string, actor string, allowHalted bool, fn func(repos TxRepos, b *Batch) error) error {
	keys := sortedUnique(ids)

	lockCtx, cancel := context.WithTimeout(ctx, c.lockTimeout)
	defer cancel()
	release, err := c.locks.acquire(lockCtx, keys)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return domain.ErrLockTimeout
	}
	defer release()

	b := c.engine.NewBatch(actor)
	b.allowHalted = allowHalted
	err = c.tx.Run(ctx, func(repos TxRepos) error {
		if _, err := repos.Items.LockForUpdate(ctx, keys); err != nil {
			return fmt.Errorf("lock items: %w", err)
		}
		return fn(repos, b)
	})
	if err != nil {
		c.engine.haltOnViolation(ctx, c.projector, err)
	}
	return err
}

func (c *Coordinator) validate(req TransactionRequest) error {
	if strings.TrimSpace(req.Reference) == "" {
		return domain.NewValidationError("reference", "requerida")
	}
	if len(req.Lines) == 0 {
		return domain.NewValidationError("lines", "se requiere al menos una línea")
	}
	if req.EffectiveAt.After(c.engine.Now()) {
		return domain.NewValidationError("effective_date", "no puede ser posterior a la fecha actual")
	}
	type lineKey struct {
		itemID    string
		direction entity.Direction
	}
	seen := make(map[lineKey]int, len(req.Lines))
	for i, line := range req.Lines {
		n := i + 1
		switch {
		case strings.TrimSpace(line.ItemID) == "":
			return &domain.ValidationError{Line: n, Field: "item_id", Reason: "requerido"}
		case line.Quantity <= 0:
			return &domain.ValidationError{Line: n, Field: "quantity", Reason: "debe ser mayor que cero"}
		case line.Direction != entity.DirectionReceived && line.Direction != entity.DirectionIssued:
			return &domain.ValidationError{Line: n, Field: "direction", Reason: "solo se admite received o issued"}
		}
		k := lineKey{itemID: line.ItemID, direction: line.Direction}
		if prev, ok := seen[k]; ok {
			return &domain.ValidationError{Line: n, Field: "item_id", Reason: fmt.Sprintf("ítem repetido con la misma dirección (línea %d)", prev)}
		}
		seen[k] = n
	}
	return nil
}

func (c *Coordinator) publish(ctx context.Context, source string, b *Batch, movements []*entity.Movement) {
	if b == nil || len(movements) == 0 {
		return
	}
	ev := TransactionCommitted{
		TransactionID: b.ID,
		Source:        source,
		Reference:     movements[0].Reference,
		Actor:         b.Actor,
		CommittedAt:   b.now,
	}
	for _, m := range movements {
		cm := CommittedMovement{MovementID: m.ID, ItemID: m.ItemID, Direction: m.Direction, Quantity: m.Quantity}
		if item := b.Item(m.ItemID); item != nil {
			cm.OnHand = item.OnHand
		}
		ev.Movements = append(ev.Movements, cm)
	}
	if err := c.publisher.PublishTransactionCommitted(ctx, ev); err != nil {
		c.log.Warn().Err(err).Str("transaction_id", b.ID).Msg("no se pudo publicar el evento del ledger")
	}
}

func (c *Coordinator) logRejection(err error, ref string) {
	switch {
	case errors.Is(err, domain.ErrInvariantViolation):
		// ya registrado por el motor
	case domain.IsClientError(err):
		c.log.Info().Err(err).Str("reference", ref).Int("line", domain.LineOf(err)).Msg("transacción rechazada")
	default:
		c.log.Error().Err(err).Str("reference", ref).Msg("transacción fallida")
	}
}

func endSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func lineItemIDs(lines []TransactionLine) []string {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ItemID)
	}
	return ids
}
