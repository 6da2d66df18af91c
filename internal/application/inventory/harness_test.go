package inventory_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/supply-ledger/internal/application/inventory"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
	"github.com/jhoicas/supply-ledger/internal/infrastructure/sqlite"
)

// recordingPublisher guarda los eventos publicados.
type recordingPublisher struct {
	mu     sync.Mutex
	events []inventory.TransactionCommitted
}

func (p *recordingPublisher) PublishTransactionCommitted(_ context.Context, ev inventory.TransactionCommitted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) all() []inventory.TransactionCommitted {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]inventory.TransactionCommitted(nil), p.events...)
}

type harness struct {
	db        *sql.DB
	items     *sqlite.ItemRepo
	movements *sqlite.MovementRepo
	records   *sqlite.ReconciliationRepo
	engine    *inventory.Engine
	coord     *inventory.Coordinator
	queries   *inventory.QueryUseCase
	recon     *inventory.ReconciliationUseCase
	requests  *inventory.RequestFulfillmentUseCase
	published *recordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := &harness{
		db:        db,
		items:     sqlite.NewItemRepository(db),
		movements: sqlite.NewMovementRepository(db),
		records:   sqlite.NewReconciliationRepository(db),
		engine:    inventory.NewEngine(zerolog.Nop(), nil),
		published: &recordingPublisher{},
	}
	h.coord = inventory.NewCoordinator(sqlite.NewTxRunner(db), h.engine, h.items, h.published, 5*time.Second, zerolog.Nop())
	h.queries = inventory.NewQueryUseCase(h.engine, h.items, h.movements, h.items, nil)
	h.recon = inventory.NewReconciliationUseCase(h.coord, h.records)
	h.requests = inventory.NewRequestFulfillmentUseCase(h.coord, h.movements)
	return h
}

func (h *harness) item(t *testing.T, code string, reorder int64) string {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	it := &entity.Item{
		ID: uuid.New().String(), Code: code, Name: code, Unit: "pc",
		UnitCost: decimal.RequireFromString("2.00"), ReorderLevel: reorder,
		Active: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, h.items.Create(context.Background(), it))
	return it.ID
}

func (h *harness) post(t *testing.T, ref string, at time.Time, lines ...inventory.TransactionLine) (*inventory.TransactionResult, error) {
	t.Helper()
	return h.coord.PostTransaction(context.Background(), inventory.TransactionRequest{
		Reference: ref, EffectiveAt: at, Actor: "tester", Lines: lines,
	})
}

func (h *harness) balance(t *testing.T, itemID string) int64 {
	t.Helper()
	b, err := h.queries.GetBalance(context.Background(), itemID, nil)
	require.NoError(t, err)
	return b
}

func (h *harness) onHand(t *testing.T, itemID string) int64 {
	t.Helper()
	it, err := h.items.GetByID(context.Background(), itemID)
	require.NoError(t, err)
	require.NotNil(t, it)
	return it.OnHand
}

func receive(itemID string, qty int64) inventory.TransactionLine {
	return inventory.TransactionLine{ItemID: itemID, Direction: entity.DirectionReceived, Quantity: qty}
}

func issue(itemID string, qty int64) inventory.TransactionLine {
	return inventory.TransactionLine{ItemID: itemID, Direction: entity.DirectionIssued, Quantity: qty, Custodian: "J. Cruz", Department: "Accounting"}
}

func daysAgo(n int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -n)
}
