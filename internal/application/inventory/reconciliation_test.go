package inventory_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/supply-ledger/internal/application/inventory"
	"github.com/jhoicas/supply-ledger/internal/domain"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
)

func TestReconcile_AjusteDejaElSaldoIgualAlConteo(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pens := h.item(t, "PEN", 0)
	_, err := h.post(t, "PO-1", daysAgo(2), receive(pens, 40))
	require.NoError(t, err)

	rec, err := h.recon.Reconcile(ctx, inventory.ReconcileInput{ItemID: pens, CountedQuantity: 37, CountedBy: "M. Santos"})
	require.NoError(t, err)
	assert.Equal(t, int64(40), rec.ExpectedQuantity)
	assert.Equal(t, int64(-3), rec.Discrepancy)
	assert.Equal(t, entity.ResolutionAdjusted, rec.Resolution)
	assert.Equal(t, int64(37), h.balance(t, pens))
	assert.Equal(t, int64(37), h.onHand(t, pens))

	adj, err := h.movements.GetByID(ctx, rec.MovementID)
	require.NoError(t, err)
	require.NotNil(t, adj)
	assert.Equal(t, entity.DirectionAdjustmentOut, adj.Direction)
	assert.Equal(t, int64(3), adj.Quantity)
	assert.Equal(t, "CNT-"+rec.ID, adj.Reference)
	assert.Equal(t, inventory.AdjustmentPurpose, adj.Purpose)

	events := h.published.all()
	require.Len(t, events, 2)
	assert.Equal(t, inventory.SourceReconciliation, events[1].Source)
}

func TestReconcile_SinDiferenciaSoloRegistra(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pens := h.item(t, "PEN", 0)
	_, err := h.post(t, "PO-1", time.Time{}, receive(pens, 8))
	require.NoError(t, err)

	rec, err := h.recon.Reconcile(ctx, inventory.ReconcileInput{ItemID: pens, CountedQuantity: 8})
	require.NoError(t, err)
	assert.Equal(t, entity.ResolutionAccepted, rec.Resolution)
	assert.Empty(t, rec.MovementID)

	ms, err := h.movements.ListByItem(ctx, pens)
	require.NoError(t, err)
	assert.Len(t, ms, 1)

	history, err := h.recon.History(ctx, pens, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, rec.ID, history[0].ID)
	assert.Len(t, h.published.all(), 1)
}

func TestReconcile_FechaPasadaAjustaEsaFecha(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pens := h.item(t, "PEN", 0)
	_, err := h.post(t, "PO-1", daysAgo(10), receive(pens, 20))
	require.NoError(t, err)
	_, err = h.post(t, "RIS-1", daysAgo(1), issue(pens, 5))
	require.NoError(t, err)

	asOf := daysAgo(5)
	rec, err := h.recon.Reconcile(ctx, inventory.ReconcileInput{ItemID: pens, CountedQuantity: 18, AsOf: asOf})
	require.NoError(t, err)
	assert.Equal(t, int64(20), rec.ExpectedQuantity)

	b, err := h.queries.GetBalance(ctx, pens, &asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(18), b)
	assert.Equal(t, int64(13), h.balance(t, pens))
}

func TestReconcile_ValidaEntrada(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pens := h.item(t, "PEN", 0)

	_, err := h.recon.Reconcile(ctx, inventory.ReconcileInput{ItemID: pens, CountedQuantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = h.recon.Reconcile(ctx, inventory.ReconcileInput{ItemID: pens, CountedQuantity: 1, AsOf: time.Now().Add(time.Hour)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = h.recon.Reconcile(ctx, inventory.ReconcileInput{ItemID: "missing", CountedQuantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, h.items.SetActive(ctx, pens, false, time.Now()))
	_, err = h.recon.Reconcile(ctx, inventory.ReconcileInput{ItemID: pens, CountedQuantity: 1})
	assert.ErrorIs(t, err, domain.ErrItemInactive)
}

func TestReconcile_LiberaItemDetenido(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pens := h.item(t, "PEN", 0)
	require.NoError(t, h.movements.Append(ctx, &entity.Movement{
		ID: "rogue", TransactionID: "rogue", ItemID: pens, Direction: entity.DirectionIssued,
		Quantity: 4, EffectiveAt: daysAgo(1), CreatedAt: daysAgo(1),
	}))
	_, err := h.queries.GetBalance(ctx, pens, nil)
	require.ErrorIs(t, err, domain.ErrInvariantViolation)
	it, err := h.items.GetByID(ctx, pens)
	require.NoError(t, err)
	require.True(t, it.Halted)

	rec, err := h.recon.Reconcile(ctx, inventory.ReconcileInput{ItemID: pens, CountedQuantity: 6, CountedBy: "auditor"})
	require.NoError(t, err)
	assert.Equal(t, int64(-4), rec.ExpectedQuantity)
	assert.Equal(t, int64(10), rec.Discrepancy)

	it, err = h.items.GetByID(ctx, pens)
	require.NoError(t, err)
	assert.False(t, it.Halted)
	assert.Equal(t, int64(6), it.OnHand)
	assert.Equal(t, int64(6), h.balance(t, pens))

	_, err = h.post(t, "RIS-1", time.Time{}, issue(pens, 6))
	assert.NoError(t, err)
}

func TestReconcileCount_SesionAtomica(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pens := h.item(t, "PEN", 0)
	clips := h.item(t, "CLIP", 0)
	_, err := h.post(t, "PO-1", daysAgo(1), receive(pens, 10), receive(clips, 10))
	require.NoError(t, err)

	count, err := h.recon.ReconcileCount(ctx, inventory.PhysicalCountInput{
		CountedBy: "M. Santos",
		Location:  "Stockroom B",
		Lines: []inventory.CountLine{
			{ItemID: pens, CountedQuantity: 10},
			{ItemID: clips, CountedQuantity: 12, Notes: "caja sin registrar"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count.ItemsCounted)
	assert.Equal(t, 1, count.DiscrepanciesFound)
	assert.Equal(t, int64(12), h.balance(t, clips))

	session, err := h.records.ListBySession(ctx, count.ID)
	require.NoError(t, err)
	assert.Len(t, session, 2)

	_, err = h.recon.ReconcileCount(ctx, inventory.PhysicalCountInput{
		CountedBy: "M. Santos",
		Lines: []inventory.CountLine{
			{ItemID: pens, CountedQuantity: 1},
			{ItemID: "missing", CountedQuantity: 1},
		},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 2, domain.LineOf(err))
	assert.Equal(t, int64(10), h.balance(t, pens))
}

func TestReconcileCount_RechazaItemRepetido(t *testing.T) {
	h := newHarness(t)
	pens := h.item(t, "PEN", 0)

	_, err := h.recon.ReconcileCount(context.Background(), inventory.PhysicalCountInput{
		CountedBy: "auditor",
		Lines:     []inventory.CountLine{{ItemID: pens, CountedQuantity: 1}, {ItemID: pens, CountedQuantity: 2}},
	})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 2, verr.Line)
	assert.True(t, strings.Contains(verr.Reason, "línea 1"))
}
