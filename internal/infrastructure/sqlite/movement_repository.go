package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/supply-ledger/internal/domain"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
	"github.com/jhoicas/supply-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `seq, id, transaction_id, item_id, direction, quantity, effective_at,
	reference, custodian, department, purpose, created_at, created_by`

const ledgerOrder = ` ORDER BY effective_at, created_at, seq`

// MovementRepo ledger de movimientos sobre SQLite. Los triggers impiden UPDATE y DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar *sql.DB o *sql.Tx.
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Append agrega el movimiento y asigna su secuencia de commit.
func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	err := r.q.QueryRowContext(ctx, `INSERT INTO movements (
		id, transaction_id, item_id, direction, quantity, effective_at,
		reference, custodian, department, purpose, created_at, created_by
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING seq`,
		m.ID, m.TransactionID, m.ItemID, string(m.Direction), m.Quantity, toNanos(m.EffectiveAt),
		m.Reference, m.Custodian, m.Department, m.Purpose, toNanos(m.CreatedAt), m.CreatedBy,
	).Scan(&m.Seq)
	if err != nil {
		if isUniqueViolation(err) && strings.Contains(err.Error(), "reference") {
			return &domain.DuplicateReferenceError{ItemID: m.ItemID, Direction: string(m.Direction), Reference: m.Reference}
		}
		return fmt.Errorf("append movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento; (nil, nil) si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRowContext(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByItem historial completo del ítem en orden del ledger.
func (r *MovementRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.Movement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM movements WHERE item_id = ?`+ledgerOrder, itemID)
}

// Page página por clave (effective_at, created_at, seq) estrictamente posterior a q.After.
func (r *MovementRepo) Page(ctx context.Context, q repository.MovementPageQuery) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE item_id = ?`
	args := []any{q.ItemID}
	if q.From != nil {
		query += " AND effective_at >= ?"
		args = append(args, toNanos(*q.From))
	}
	if q.To != nil {
		query += " AND effective_at <= ?"
		args = append(args, toNanos(*q.To))
	}
	if q.After != nil {
		query += " AND (effective_at, created_at, seq) > (?, ?, ?)"
		args = append(args, toNanos(q.After.EffectiveAt), toNanos(q.After.CreatedAt), q.After.Seq)
	}
	query += ledgerOrder + " LIMIT ?"
	args = append(args, q.Limit)
	return r.list(ctx, query, args...)
}

// ReferenceExists indica si la referencia ya fue usada para (ítem, dirección).
func (r *MovementRepo) ReferenceExists(ctx context.Context, itemID string, direction entity.Direction, reference string) (bool, error) {
	var found int
	err := r.q.QueryRowContext(ctx,
		`SELECT 1 FROM movements WHERE item_id = ? AND direction = ? AND reference = ? LIMIT 1`,
		itemID, string(direction), reference,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reference exists: %w", err)
	}
	return true, nil
}

// ListByReference movimientos de la dirección con esa referencia, por secuencia.
func (r *MovementRepo) ListByReference(ctx context.Context, direction entity.Direction, reference string) ([]*entity.Movement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM movements
		WHERE direction = ? AND reference = ? ORDER BY seq`, string(direction), reference)
}

// Sum saldo total del ítem según el ledger.
func (r *MovementRepo) Sum(ctx context.Context, itemID string) (int64, error) {
	var total int64
	err := r.q.QueryRowContext(ctx, `SELECT COALESCE(SUM(CASE
			WHEN direction IN ('received', 'adjustment_in') THEN quantity
			ELSE -quantity END), 0)
		FROM movements WHERE item_id = ?`, itemID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum movements: %w", err)
	}
	return total, nil
}

// IssuedBetween unidades entregadas por ítem con fecha efectiva en [from, to].
func (r *MovementRepo) IssuedBetween(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT item_id, SUM(quantity) FROM movements
		WHERE direction = 'issued' AND effective_at BETWEEN ? AND ?
		GROUP BY item_id`, toNanos(from), toNanos(to))
	if err != nil {
		return nil, fmt.Errorf("issued between: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int64)
	for rows.Next() {
		var (
			id  string
			qty int64
		)
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, fmt.Errorf("scan issued: %w", err)
		}
		out[id] = qty
	}
	return out, rows.Err()
}

func (r *MovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var out []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMovement(row rowScanner) (*entity.Movement, error) {
	var (
		m                    entity.Movement
		direction            string
		effective, createdAt int64
	)
	if err := row.Scan(
		&m.Seq, &m.ID, &m.TransactionID, &m.ItemID, &direction, &m.Quantity, &effective,
		&m.Reference, &m.Custodian, &m.Department, &m.Purpose, &createdAt, &m.CreatedBy,
	); err != nil {
		return nil, err
	}
	m.Direction = entity.Direction(direction)
	m.EffectiveAt = fromNanos(effective)
	m.CreatedAt = fromNanos(createdAt)
	return &m, nil
}
