package postgres

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/supply-ledger/internal/domain"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
	"github.com/jhoicas/supply-ledger/internal/infrastructure/postgres/migrations"
	"github.com/jhoicas/supply-ledger/pkg/config"
)

func TestExtractUp_SoloSeccionUp(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a();\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a();\n", extractUp(content))
	assert.Equal(t, "SELECT 1;", extractUp("SELECT 1;"))
}

func TestMigrations_Embebidas(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	assert.Contains(t, names, "0001_init.sql")
}

func TestIsUniqueViolation_PorCodigoYConstraint(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: referenceIndex}
	assert.True(t, isUniqueViolation(err))
	assert.Equal(t, referenceIndex, constraintName(err))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
}

// ── Integración (requiere LEDGER_TEST_DATABASE_URL) ─────────────────────────

func TestIntegracion_LedgerEnPostgres(t *testing.T) {
	url := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LEDGER_TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: url})
	require.NoError(t, err)
	defer pool.Close()

	now := time.Now().UTC().Truncate(time.Microsecond)
	items := NewItemRepository(pool)
	item := &entity.Item{
		ID: uuid.New().String(), Code: "IT-" + uuid.New().String()[:8], Name: "Folder", Unit: "pc",
		UnitCost: decimal.RequireFromString("3.25"), Active: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, items.Create(ctx, item))

	movements := NewMovementRepository(pool)
	m := &entity.Movement{
		ID: uuid.New().String(), TransactionID: uuid.New().String(), ItemID: item.ID,
		Direction: entity.DirectionReceived, Quantity: 7, EffectiveAt: now, Reference: "PO-IT", CreatedAt: now,
	}
	require.NoError(t, movements.Append(ctx, m))
	assert.Positive(t, m.Seq)

	dup := *m
	dup.ID = uuid.New().String()
	err = movements.Append(ctx, &dup)
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)

	sum, err := movements.Sum(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), sum)

	_, err = pool.Exec(ctx, "DELETE FROM movements WHERE id = $1", m.ID)
	assert.Error(t, err)

	got, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.UnitCost.Equal(item.UnitCost))
}
