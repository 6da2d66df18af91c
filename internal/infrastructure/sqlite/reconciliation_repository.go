package sqlite

import (
	"context"
	"fmt"

	"github.com/jhoicas/supply-ledger/internal/domain/entity"
	"github.com/jhoicas/supply-ledger/internal/domain/repository"
)

var _ repository.ReconciliationRepository = (*ReconciliationRepo)(nil)

const reconciliationColumns = `id, item_id, session_id, counted_quantity, expected_quantity, discrepancy,
	resolution, movement_id, as_of, counted_by, location, notes, created_at`

// ReconciliationRepo registros de conciliación sobre SQLite.
type ReconciliationRepo struct {
	q Querier
}

// NewReconciliationRepository construye el adaptador. Pasar *sql.DB o *sql.Tx.
func NewReconciliationRepository(q Querier) *ReconciliationRepo {
	return &ReconciliationRepo{q: q}
}

// Create persiste el registro.
func (r *ReconciliationRepo) Create(ctx context.Context, rec *entity.ReconciliationRecord) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO reconciliations (`+reconciliationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ItemID, rec.SessionID, rec.CountedQuantity, rec.ExpectedQuantity, rec.Discrepancy,
		string(rec.Resolution), rec.MovementID, toNanos(rec.AsOf), rec.CountedBy, rec.Location, rec.Notes,
		toNanos(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create reconciliation: %w", err)
	}
	return nil
}

// ListByItem registros del ítem, del más reciente al más antiguo.
func (r *ReconciliationRepo) ListByItem(ctx context.Context, itemID string, limit int) ([]*entity.ReconciliationRecord, error) {
	return r.list(ctx, `SELECT `+reconciliationColumns+` FROM reconciliations
		WHERE item_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, itemID, limit)
}

// ListBySession registros de una sesión de conteo físico.
func (r *ReconciliationRepo) ListBySession(ctx context.Context, sessionID string) ([]*entity.ReconciliationRecord, error) {
	return r.list(ctx, `SELECT `+reconciliationColumns+` FROM reconciliations
		WHERE session_id = ? ORDER BY created_at, id`, sessionID)
}

func (r *ReconciliationRepo) list(ctx context.Context, query string, args ...any) ([]*entity.ReconciliationRecord, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reconciliations: %w", err)
	}
	defer rows.Close()
	var out []*entity.ReconciliationRecord
	for rows.Next() {
		var (
			rec             entity.ReconciliationRecord
			resolution      string
			asOf, createdAt int64
		)
		if err := rows.Scan(
			&rec.ID, &rec.ItemID, &rec.SessionID, &rec.CountedQuantity, &rec.ExpectedQuantity, &rec.Discrepancy,
			&resolution, &rec.MovementID, &asOf, &rec.CountedBy, &rec.Location, &rec.Notes, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan reconciliation: %w", err)
		}
		rec.Resolution = entity.Resolution(resolution)
		rec.AsOf = fromNanos(asOf)
		rec.CreatedAt = fromNanos(createdAt)
		out = append(out, &rec)
	}
	return out, rows.Err()
}
