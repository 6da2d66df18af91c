package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/supply-ledger/internal/domain/entity"
	"github.com/jhoicas/supply-ledger/internal/domain/repository"
)

var _ repository.ReconciliationRepository = (*ReconciliationRepo)(nil)

const reconciliationColumns = `id, item_id, session_id, counted_quantity, expected_quantity, discrepancy,
	resolution, movement_id, as_of, counted_by, location, notes, created_at`

// ReconciliationRepo registros de conciliación sobre PostgreSQL.
type ReconciliationRepo struct {
	q Querier
}

// NewReconciliationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReconciliationRepository(q Querier) *ReconciliationRepo {
	return &ReconciliationRepo{q: q}
}

// Create persiste el registro.
func (r *ReconciliationRepo) Create(ctx context.Context, rec *entity.ReconciliationRecord) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO reconciliations (`+reconciliationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.ID, rec.ItemID, rec.SessionID, rec.CountedQuantity, rec.ExpectedQuantity, rec.Discrepancy,
		string(rec.Resolution), rec.MovementID, rec.AsOf, rec.CountedBy, rec.Location, rec.Notes, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create reconciliation: %w", err)
	}
	return nil
}

// ListByItem registros del ítem, del más reciente al más antiguo.
func (r *ReconciliationRepo) ListByItem(ctx context.Context, itemID string, limit int) ([]*entity.ReconciliationRecord, error) {
	return r.list(ctx, `SELECT `+reconciliationColumns+` FROM reconciliations
		WHERE item_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, itemID, limit)
}

// ListBySession registros de una sesión de conteo físico.
func (r *ReconciliationRepo) ListBySession(ctx context.Context, sessionID string) ([]*entity.ReconciliationRecord, error) {
	return r.list(ctx, `SELECT `+reconciliationColumns+` FROM reconciliations
		WHERE session_id = $1 ORDER BY created_at, id`, sessionID)
}

func (r *ReconciliationRepo) list(ctx context.Context, query string, args ...any) ([]*entity.ReconciliationRecord, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reconciliations: %w", err)
	}
	defer rows.Close()
	var out []*entity.ReconciliationRecord
	for rows.Next() {
		var (
			rec        entity.ReconciliationRecord
			resolution string
		)
		if err := rows.Scan(
			&rec.ID, &rec.ItemID, &rec.SessionID, &rec.CountedQuantity, &rec.ExpectedQuantity, &rec.Discrepancy,
			&resolution, &rec.MovementID, &rec.AsOf, &rec.CountedBy, &rec.Location, &rec.Notes, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reconciliation: %w", err)
		}
		rec.Resolution = entity.Resolution(resolution)
		rec.AsOf = rec.AsOf.UTC()
		rec.CreatedAt = rec.CreatedAt.UTC()
		out = append(out, &rec)
	}
	return out, rows.Err()
}
