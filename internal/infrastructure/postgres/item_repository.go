package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

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

// ItemRepo registro de ítems y proyección de saldo sobre PostgreSQL (usable con pool o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// Create persiste un nuevo ítem; un código repetido devuelve domain.ErrDuplicate.
func (r *ItemRepo) Create(ctx context.Context, it *entity.Item) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		it.ID, it.Code, it.Name, it.Description, it.Unit, it.Category, it.Location, it.UnitCost,
		it.ReorderLevel, it.OnHand, it.Active, it.Halted, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// GetByID obtiene un ítem por ID; (nil, nil) si no existe.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
}

// GetByCode obtiene un ítem por su código de oficina.
func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE code = $1`, code)
}

// List lista ítems ordenados por código.
func (r *ItemRepo) List(ctx context.Context, f repository.ItemFilter, limit, offset int) ([]*entity.Item, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.ActiveOnly {
		where = append(where, "active")
	}
	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := arg("%" + s + "%")
		where = append(where, "(code ILIKE "+p+" OR name ILIKE "+p+")")
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
	query += " ORDER BY code LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// Update modifica atributos de identidad. on_hand, active y halted no se tocan aquí.
func (r *ItemRepo) Update(ctx context.Context, it *entity.Item) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE items SET name = $1, description = $2, unit = $3, category = $4, location = $5,
		       unit_cost = $6, reorder_level = $7, updated_at = $8
		WHERE id = $9`,
		it.Name, it.Description, it.Unit, it.Category, it.Location,
		it.UnitCost, it.ReorderLevel, it.UpdatedAt, it.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetActive activa o retira el ítem.
func (r *ItemRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	return r.exec(ctx, "set item active", `UPDATE items SET active = $1, updated_at = $2 WHERE id = $3`, active, at, id)
}

// LockForUpdate toma el bloqueo de fila de cada ítem en el orden recibido (SELECT ... FOR UPDATE).
func (r *ItemRepo) LockForUpdate(ctx context.Context, ids []string) ([]*entity.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("lock items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// RefreshBalance reescribe la proyección de saldo.
func (r *ItemRepo) RefreshBalance(ctx context.Context, itemID string, onHand int64, at time.Time) error {
	return r.exec(ctx, "refresh balance", `UPDATE items SET on_hand = $1, updated_at = $2 WHERE id = $3`, onHand, at, itemID)
}

// SetHalted detiene o libera el ítem.
func (r *ItemRepo) SetHalted(ctx context.Context, itemID string, halted bool, at time.Time) error {
	return r.exec(ctx, "set halted", `UPDATE items SET halted = $1, updated_at = $2 WHERE id = $3`, halted, at, itemID)
}

func (r *ItemRepo) exec(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ItemRepo) getOne(ctx context.Context, query string, arg any) (*entity.Item, error) {
	it, err := scanItem(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

func scanItem(row pgx.Row) (*entity.Item, error) {
	var it entity.Item
	err := row.Scan(
		&it.ID, &it.Code, &it.Name, &it.Description, &it.Unit, &it.Category, &it.Location, &it.UnitCost,
		&it.ReorderLevel, &it.OnHand, &it.Active, &it.Halted, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	it.CreatedAt = it.CreatedAt.UTC()
	it.UpdatedAt = it.UpdatedAt.UTC()
	return &it, nil
}

func scanItems(rows pgx.Rows) ([]*entity.Item, error) {
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
