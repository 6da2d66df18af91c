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

var (
	_ repository.ItemRepository   = (*ItemRepo)(nil)
	_ repository.BalanceProjector = (*ItemRepo)(nil)
)

const itemColumns = `id, code, name, description, unit, category, location, unit_cost,
	reorder_level, on_hand, active, halted, created_at, updated_at`

// ItemRepo registro de ítems y proyección de saldo sobre SQLite.
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar *sql.DB o *sql.Tx.
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// Create inserta el ítem; un código repetido devuelve domain.ErrDuplicate.
func (r *ItemRepo) Create(ctx context.Context, it *entity.Item) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Code, it.Name, it.Description, it.Unit, it.Category, it.Location, it.UnitCost.String(),
		it.ReorderLevel, it.OnHand, boolToInt(it.Active), boolToInt(it.Halted),
		toNanos(it.CreatedAt), toNanos(it.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

// GetByID obtiene un ítem; (nil, nil) si no existe.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
}

// GetByCode obtiene un ítem por su código de oficina.
func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE code = ?`, code)
}

// List lista ítems ordenados por código.
func (r *ItemRepo) List(ctx context.Context, f repository.ItemFilter, limit, offset int) ([]*entity.Item, error) {
	var (
		where []string
		args  []any
	)
	if f.ActiveOnly {
		where = append(where, "active = 1")
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(LOWER(code) LIKE ? OR LOWER(name) LIKE ?)")
		like := "%" + strings.ToLower(s) + "%"
		args = append(args, like, like)
	}
	switch f.Status {
	case entity.StatusOutOfStock:
		where = append(where, "on_hand <= 0")
	case entity.StatusLowStock:
		where = append(where, "on_hand > 0 AND on_hand <= reorder_level")
	case entity.StatusInStock:
		where = append(where, "on_hand > reorder_level")
	}
	query := `SELECT ` + itemColumns + ` FROM items`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY code LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// Update modifica atributos de identidad. on_hand, active y halted no se tocan aquí.
func (r *ItemRepo) Update(ctx context.Context, it *entity.Item) error {
	res, err := r.q.ExecContext(ctx, `UPDATE items
		SET name = ?, description = ?, unit = ?, category = ?, location = ?,
		    unit_cost = ?, reorder_level = ?, updated_at = ?
		WHERE id = ?`,
		it.Name, it.Description, it.Unit, it.Category, it.Location,
		it.UnitCost.String(), it.ReorderLevel, toNanos(it.UpdatedAt), it.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return requireRow(res)
}

// SetActive activa o retira el ítem.
func (r *ItemRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `UPDATE items SET active = ?, updated_at = ? WHERE id = ?`,
		boolToInt(active), toNanos(at), id)
	if err != nil {
		return fmt.Errorf("set item active: %w", err)
	}
	return requireRow(res)
}

// LockForUpdate en SQLite la transacción ya es exclusiva al escribir; solo relee las filas.
func (r *ItemRepo) LockForUpdate(ctx context.Context, ids []string) ([]*entity.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id IN (`+placeholders(len(ids))+`) ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("lock items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// RefreshBalance reescribe la proyección de saldo.
func (r *ItemRepo) RefreshBalance(ctx context.Context, itemID string, onHand int64, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `UPDATE items SET on_hand = ?, updated_at = ? WHERE id = ?`,
		onHand, toNanos(at), itemID)
	if err != nil {
		return fmt.Errorf("refresh balance: %w", err)
	}
	return requireRow(res)
}

// SetHalted detiene o libera el ítem.
func (r *ItemRepo) SetHalted(ctx context.Context, itemID string, halted bool, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `UPDATE items SET halted = ?, updated_at = ? WHERE id = ?`,
		boolToInt(halted), toNanos(at), itemID)
	if err != nil {
		return fmt.Errorf("set halted: %w", err)
	}
	return requireRow(res)
}

func (r *ItemRepo) getOne(ctx context.Context, query string, arg any) (*entity.Item, error) {
	it, err := scanItem(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*entity.Item, error) {
	var (
		it                 entity.Item
		active, halted     int
		createdAt, updated int64
	)
	if err := row.Scan(
		&it.ID, &it.Code, &it.Name, &it.Description, &it.Unit, &it.Category, &it.Location, &it.UnitCost,
		&it.ReorderLevel, &it.OnHand, &active, &halted, &createdAt, &updated,
	); err != nil {
		return nil, err
	}
	it.Active = active != 0
	it.Halted = halted != 0
	it.CreatedAt = fromNanos(createdAt)
	it.UpdatedAt = fromNanos(updated)
	return &it, nil
}

func scanItems(rows *sql.Rows) ([]*entity.Item, error) {
	var out []*entity.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
