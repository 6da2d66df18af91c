package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/supply-ledger/internal/domain"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
	"github.com/jhoicas/supply-ledger/internal/domain/repository"
)

// AdjustmentPurpose propósito de los movimientos de ajuste por conteo.
const AdjustmentPurpose = "Physical count adjustment"

// ReconciliationUseCase compara conteos físicos con el ledger y registra el ajuste correctivo.
// Es el único camino que admite ítems detenidos.
type ReconciliationUseCase struct {
	coord   *Coordinator
	records repository.ReconciliationRepository
}

// NewReconciliationUseCase construye el caso de uso. records se usa solo para lecturas.
func NewReconciliationUseCase(coord *Coordinator, records repository.ReconciliationRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{coord: coord, records: records}
}

// ReconcileInput conteo físico de un ítem.
type ReconcileInput struct {
	ItemID          string
	CountedQuantity int64
	AsOf            time.Time // cero = ahora
	CountedBy       string
	Location        string
	Notes           string
	Actor           string
}

// CountLine ítem contado dentro de una sesión de conteo.
type CountLine struct {
	ItemID          string
	CountedQuantity int64
	Notes           string
}

// PhysicalCountInput sesión de conteo de varios ítems, conciliados de forma atómica.
type PhysicalCountInput struct {
	CountDate time.Time // cero = ahora
	CountedBy string
	Location  string
	Notes     string
	Actor     string
	Lines     []CountLine
}

// Reconcile concilia un ítem: si el conteo difiere del saldo a AsOf registra un ajuste de
// |discrepancia| con fecha AsOf, de modo que el saldo a esa fecha quede igual al conteo.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context, in ReconcileInput) (*entity.ReconciliationRecord, error) {
	ctx, span := uc.coord.tracer.Start(ctx, "ledger.Reconcile", trace.WithAttributes(
		attribute.String("ledger.item_id", in.ItemID),
		attribute.Int64("ledger.counted", in.CountedQuantity),
	))
	defer span.End()

	if err := uc.validateCount(in.ItemID, in.CountedQuantity, in.AsOf, 0); err != nil {
		endSpan(span, err)
		return nil, err
	}

	var rec *entity.ReconciliationRecord
	var batch *Batch
	err := uc.coord.withItems(ctx, []string{in.ItemID}, in.Actor, true, func(repos TxRepos, b *Batch) error {
		batch = b
		r, err := uc.reconcileItem(ctx, repos, b, in, "")
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	if err != nil {
		uc.coord.logRejection(err, "")
		endSpan(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("ledger.discrepancy", rec.Discrepancy))
	uc.coord.log.Info().
		Str("item_id", rec.ItemID).
		Int64("expected", rec.ExpectedQuantity).
		Int64("counted", rec.CountedQuantity).
		Int64("discrepancy", rec.Discrepancy).
		Str("resolution", string(rec.Resolution)).
		Msg("conciliación registrada")
	uc.coord.publish(ctx, SourceReconciliation, batch, committedOf(batch))
	return rec, nil
}

// ReconcileCount concilia todos los ítems de un conteo físico en una sola transacción.
func (uc *ReconciliationUseCase) ReconcileCount(ctx context.Context, in PhysicalCountInput) (*entity.PhysicalCount, error) {
	ctx, span := uc.coord.tracer.Start(ctx, "ledger.ReconcileCount", trace.WithAttributes(
		attribute.Int("ledger.lines", len(in.Lines)),
	))
	defer span.End()

	if err := uc.validateSession(in); err != nil {
		endSpan(span, err)
		return nil, err
	}

	count := &entity.PhysicalCount{
		ID:        uuid.New().String(),
		CountDate: in.CountDate,
		CountedBy: strings.TrimSpace(in.CountedBy),
		Location:  strings.TrimSpace(in.Location),
		Notes:     strings.TrimSpace(in.Notes),
	}
	ids := make([]string, 0, len(in.Lines))
	for _, l := range in.Lines {
		ids = append(ids, l.ItemID)
	}

	var batch *Batch
	err := uc.coord.withItems(ctx, ids, in.Actor, true, func(repos TxRepos, b *Batch) error {
		batch = b
		if count.CountDate.IsZero() {
			count.CountDate = b.now
		}
		records := make([]*entity.ReconciliationRecord, 0, len(in.Lines))
		for i, l := range in.Lines {
			notes := l.Notes
			if strings.TrimSpace(notes) == "" {
				notes = in.Notes
			}
			rec, err := uc.reconcileItem(ctx, repos, b, ReconcileInput{
				ItemID:          l.ItemID,
				CountedQuantity: l.CountedQuantity,
				AsOf:            count.CountDate,
				CountedBy:       in.CountedBy,
				Location:        in.Location,
				Notes:           notes,
			}, count.ID)
			if err != nil {
				return domain.AtLine(err, i+1, l.ItemID)
			}
			records = append(records, rec)
		}
		count.Records = records
		return nil
	})
	if err != nil {
		uc.coord.logRejection(err, "")
		endSpan(span, err)
		return nil, err
	}

	count.ItemsCounted = len(count.Records)
	for _, r := range count.Records {
		if r.Discrepancy != 0 {
			count.DiscrepanciesFound++
		}
	}
	span.SetAttributes(attribute.Int("ledger.discrepancies", count.DiscrepanciesFound))
	uc.coord.log.Info().
		Str("count_id", count.ID).
		Int("items_counted", count.ItemsCounted).
		Int("discrepancies_found", count.DiscrepanciesFound).
		Msg("conteo físico conciliado")
	uc.coord.publish(ctx, SourceReconciliation, batch, committedOf(batch))
	return count, nil
}

// History registros de conciliación de un ítem, del más reciente al más antiguo.
func (uc *ReconciliationUseCase) History(ctx context.Context, itemID string, limit int) ([]*entity.ReconciliationRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return uc.records.ListByItem(ctx, itemID, limit)
}

func (uc *ReconciliationUseCase) reconcileItem(ctx context.Context, repos TxRepos, b *Batch, in ReconcileInput, sessionID string) (*entity.ReconciliationRecord, error) {
	asOf := b.now
	if !in.AsOf.IsZero() {
		asOf = in.AsOf.UTC().Truncate(time.Microsecond)
	}
	engine := uc.coord.engine
	item, expected, err := engine.balanceAt(ctx, repos, b, in.ItemID, asOf)
	if err != nil {
		return nil, err
	}
	if !item.Active {
		return nil, domain.ErrItemInactive
	}

	rec := &entity.ReconciliationRecord{
		ID:               uuid.New().String(),
		ItemID:           in.ItemID,
		SessionID:        sessionID,
		CountedQuantity:  in.CountedQuantity,
		ExpectedQuantity: expected,
		Discrepancy:      in.CountedQuantity - expected,
		Resolution:       entity.ResolutionAccepted,
		AsOf:             asOf,
		CountedBy:        strings.TrimSpace(in.CountedBy),
		Location:         strings.TrimSpace(in.Location),
		Notes:            strings.TrimSpace(in.Notes),
		CreatedAt:        b.now,
	}

	if rec.Discrepancy != 0 {
		direction, qty := entity.DirectionAdjustmentIn, rec.Discrepancy
		if qty < 0 {
			direction, qty = entity.DirectionAdjustmentOut, -qty
		}
		p, err := engine.ProposeMovement(ctx, repos, b, MovementInput{
			ItemID:      in.ItemID,
			Direction:   direction,
			Quantity:    qty,
			Reference:   "CNT-" + rec.ID,
			EffectiveAt: asOf,
			Purpose:     AdjustmentPurpose,
		})
		if err != nil {
			return nil, err
		}
		m, err := engine.Commit(ctx, repos, b, p)
		if err != nil {
			return nil, err
		}
		rec.MovementID = m.ID
		rec.Resolution = entity.ResolutionAdjusted
	}

	if err := repos.Reconciliations.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create reconciliation: %w", err)
	}
	if err := engine.repairProjection(ctx, repos, b, in.ItemID); err != nil {
		return nil, err
	}
	return rec, nil
}

func (uc *ReconciliationUseCase) validateCount(itemID string, counted int64, asOf time.Time, line int) error {
	var verr *domain.ValidationError
	switch {
	case strings.TrimSpace(itemID) == "":
		verr = domain.NewValidationError("item_id", "requerido")
	case counted < 0:
		verr = domain.NewValidationError("counted_quantity", "no puede ser negativa")
	case asOf.After(uc.coord.engine.Now()):
		verr = domain.NewValidationError("as_of", "no puede ser posterior a la fecha actual")
	default:
		return nil
	}
	verr.Line = line
	return verr
}

func (uc *ReconciliationUseCase) validateSession(in PhysicalCountInput) error {
	if len(in.Lines) == 0 {
		return domain.NewValidationError("lines", "se requiere al menos un ítem contado")
	}
	if strings.TrimSpace(in.CountedBy) == "" {
		return domain.NewValidationError("counted_by", "requerido")
	}
	seen := make(map[string]int, len(in.Lines))
	for i, l := range in.Lines {
		if err := uc.validateCount(l.ItemID, l.CountedQuantity, in.CountDate, i+1); err != nil {
			return err
		}
		if prev, ok := seen[l.ItemID]; ok {
			return &domain.ValidationError{Line: i + 1, Field: "item_id", Reason: fmt.Sprintf("ítem contado dos veces (línea %d)", prev)}
		}
		seen[l.ItemID] = i + 1
	}
	return nil
}

func committedOf(b *Batch) []*entity.Movement {
	if b == nil {
		return nil
	}
	out := make([]*entity.Movement, 0, len(b.proposals))
	for _, p := range b.proposals {
		out = append(out, p.Movement)
	}
	return out
}
