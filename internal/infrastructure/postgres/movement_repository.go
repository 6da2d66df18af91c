package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/supply-ledger/internal/domain"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
	"github.com/jhoicas/supply-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `seq, id, transaction_id, item_id, direction, quantity, effective_at,
	reference, custodian, department, purpose, created_at, created_by`

const ledgerOrder = ` ORDER BY effective_at, created_at, seq`

const referenceIndex = "ux_movements_item_direction_reference"

// MovementRepo ledger de movimientos sobre PostgreSQL. Un trigger rechaza UPDATE y DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Append persiste el movimiento y asigna su secuencia de commit.
func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO movements (id, transaction_id, item_id, direction, quantity, effective_at,
		                       reference, custodian, department, purpose, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING seq`,
		m.ID, m.TransactionID, m.ItemID, string(m.Direction), m.Quantity, m.EffectiveAt,
		m.Reference, m.Custodian, m.Department, m.Purpose, m.CreatedAt, m.CreatedBy,
	).Scan(&m.Seq)
	if err != nil {
		if isUniqueViolation(err) && constraintName(err) == referenceIndex {
			return &domain.DuplicateReferenceError{ItemID: m.ItemID, Direction: string(m.Direction), Reference: m.Reference}
		}
		return fmt.Errorf("append movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID; (nil, nil) si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByItem historial completo del ítem en orden del ledger.
func (r *MovementRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.Movement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM movements WHERE item_id = $1`+ledgerOrder, itemID)
}

// Page página por clave (effective_at, created_at, seq) estrictamente posterior a q.After.
func (r *MovementRepo) Page(ctx context.Context, q repository.MovementPageQuery) ([]*entity.Movement, error) {
	args := []any{q.ItemID}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	query := `SELECT ` + movementColumns + ` FROM movements WHERE item_id = $1`
	if q.From != nil {
		query += " AND effective_at >= " + arg(*q.From)
	}
	if q.To != nil {
		query += " AND effective_at <= " + arg(*q.To)
	}
	if q.After != nil {
		query += " AND (effective_at, created_at, seq) > (" +
			arg(q.After.EffectiveAt) + ", " + arg(q.After.CreatedAt) + ", " + arg(q.After.Seq) + ")"
	}
	query += ledgerOrder + " LIMIT " + arg(q.Limit)
	return r.list(ctx, query, args...)
}

// ReferenceExists indica si la referencia ya fue usada para (ítem, dirección).
func (r *MovementRepo) ReferenceExists(ctx context.Context, itemID string, direction entity.Direction, reference string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM movements WHERE item_id = $1 AND direction = $2 AND reference = $3)`,
		itemID, string(direction), reference,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("reference exists: %w", err)
	}
	return exists, nil
}

// ListByReference movimientos de la dirección con esa referencia, por secuencia.
func (r *MovementRepo) ListByReference(ctx context.Context, direction entity.Direction, reference string) ([]*entity.Movement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM movements
		WHERE direction = $1 AND reference = $2 ORDER BY seq`, string(direction), reference)
}

// Sum saldo total del ítem según el ledger.
func (r *MovementRepo) Sum(ctx context.Context, itemID string) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN direction IN ('received', 'adjustment_in') THEN quantity ELSE -quantity END), 0)::BIGINT
		FROM movements WHERE item_id = $1`, itemID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum movements: %w", err)
	}
	return total, nil
}

// IssuedBetween unidades entregadas por ítem con fecha efectiva en [from, to].
func (r *MovementRepo) IssuedBetween(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	rows, err := r.q.Query(ctx, `
		SELECT item_id, SUM(quantity)::BIGINT FROM movements
		WHERE direction = 'issued' AND effective_at BETWEEN $1 AND $2
		GROUP BY item_id`, from, to)
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
	rows, err := r.q.Query(ctx, query, args...)
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

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var (
		m         entity.Movement
		direction string
	)
	if err := row.Scan(
		&m.Seq, &m.ID, &m.TransactionID, &m.ItemID, &direction, &m.Quantity, &m.EffectiveAt,
		&m.Reference, &m.Custodian, &m.Department, &m.Purpose, &m.CreatedAt, &m.CreatedBy,
	); err != nil {
		return nil, err
	}
	m.Direction = entity.Direction(direction)
	m.EffectiveAt = m.EffectiveAt.UTC()
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}
