package analytics_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/supply-ledger/internal/application/analytics"
	"github.com/jhoicas/supply-ledger/internal/application/inventory"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
	"github.com/jhoicas/supply-ledger/internal/infrastructure/sqlite"
)

func TestGetSummary_ConteosValorYConsumo(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "dash.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	items := sqlite.NewItemRepository(db)
	movements := sqlite.NewMovementRepository(db)
	coord := inventory.NewCoordinator(sqlite.NewTxRunner(db), inventory.NewEngine(zerolog.Nop(), nil), items, nil, 5*time.Second, zerolog.Nop())

	newItem := func(code string, cost string, reorder int64) string {
		now := time.Now().UTC().Truncate(time.Microsecond)
		it := &entity.Item{
			ID: uuid.New().String(), Code: code, Name: code, Unit: "pc",
			UnitCost: decimal.RequireFromString(cost), ReorderLevel: reorder,
			Active: true, CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, items.Create(ctx, it))
		return it.ID
	}
	paper := newItem("PAPER", "2.50", 10)
	pen := newItem("PEN", "1.00", 10)
	newItem("TAPE", "3.00", 5)

	_, err = coord.Receive(ctx, inventory.ReceiptInput{
		Reference: "PO-1", Actor: "tester",
		Lines: []inventory.PostingLine{{ItemID: paper, Quantity: 100}, {ItemID: pen, Quantity: 20}},
	})
	require.NoError(t, err)
	_, err = coord.Issue(ctx, inventory.IssuanceInput{
		Reference: "RIS-1", Custodian: "J. Cruz", Department: "Accounting", Actor: "tester",
		Lines: []inventory.PostingLine{{ItemID: paper, Quantity: 30}, {ItemID: pen, Quantity: 12}},
	})
	require.NoError(t, err)

	out, err := analytics.NewDashboardUseCase(items, movements).GetSummary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, out.ActiveItems)
	assert.Equal(t, 1, out.InStock)
	assert.Equal(t, 1, out.LowStock)
	assert.Equal(t, 1, out.OutOfStock)
	assert.Equal(t, "183", out.InventoryValue.String()) // 70*2.50 + 8*1.00
	assert.EqualValues(t, 42, out.MonthIssued)
	require.Len(t, out.TopIssued, 2)
	assert.Equal(t, "PAPER", out.TopIssued[0].Code)
	assert.EqualValues(t, 30, out.TopIssued[0].Quantity)
}
