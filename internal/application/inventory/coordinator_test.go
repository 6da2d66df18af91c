package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/supply-ledger/internal/application/inventory"
	"github.com/jhoicas/supply-ledger/internal/domain"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
)

func TestPostTransaction_EscenarioA4Paper(t *testing.T) {
	h := newHarness(t)
	paper := h.item(t, "A4-PAPER", 20)

	_, err := h.post(t, "PO-1", time.Time{}, receive(paper, 150))
	require.NoError(t, err)
	assert.Equal(t, int64(150), h.balance(t, paper))

	_, err = h.post(t, "RIS-1", time.Time{}, issue(paper, 170))
	var insufficient *domain.InsufficientBalanceError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, int64(150), insufficient.Available)
	assert.Equal(t, int64(170), insufficient.Requested)
	assert.Equal(t, 1, insufficient.Line)
	assert.Equal(t, int64(150), h.balance(t, paper))

	_, err = h.post(t, "RIS-1", time.Time{}, issue(paper, 50))
	require.NoError(t, err)
	assert.Equal(t, int64(100), h.balance(t, paper))

	_, err = h.post(t, "RIS-1", time.Time{}, issue(paper, 10))
	var dup *domain.DuplicateReferenceError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "RIS-1", dup.Reference)
	assert.Equal(t, int64(100), h.balance(t, paper))
	assert.Equal(t, int64(100), h.onHand(t, paper))
}

func TestPostTransaction_AtomicaEntreLineas(t *testing.T) {
	h := newHarness(t)
	pens := h.item(t, "PEN", 0)
	clips := h.item(t, "CLIP", 0)
	_, err := h.post(t, "PO-1", time.Time{}, receive(pens, 5), receive(clips, 5))
	require.NoError(t, err)

	_, err = h.post(t, "RIS-9", time.Time{}, issue(pens, 3), issue(clips, 9))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 2, domain.LineOf(err))

	ms, err := h.movements.ListByItem(context.Background(), pens)
	require.NoError(t, err)
	assert.Len(t, ms, 1)
	assert.Equal(t, int64(5), h.balance(t, pens))
	assert.Equal(t, int64(5), h.balance(t, clips))
}

func TestPostTransaction_LineasPendientesCuentanParaLasSiguientes(t *testing.T) {
	h := newHarness(t)
	pens := h.item(t, "PEN", 0)

	res, err := h.post(t, "DR-1", time.Time{}, receive(pens, 4), issue(pens, 4))
	require.NoError(t, err)
	assert.Len(t, res.MovementIDs(), 2)
	assert.Equal(t, int64(0), h.balance(t, pens))
}

func TestPostTransaction_ReferenciaUnicaPorItemYDireccion(t *testing.T) {
	h := newHarness(t)
	pens := h.item(t, "PEN", 0)
	clips := h.item(t, "CLIP", 0)

	_, err := h.post(t, "PO-1", time.Time{}, receive(pens, 8))
	require.NoError(t, err)
	_, err = h.post(t, "PO-1", time.Time{}, issue(pens, 3))
	require.NoError(t, err, "misma referencia en otra dirección")
	_, err = h.post(t, "PO-1", time.Time{}, receive(clips, 2))
	require.NoError(t, err, "misma referencia en otro ítem")

	assert.Equal(t, int64(5), h.balance(t, pens))
	assert.Equal(t, int64(2), h.balance(t, clips))

	_, err = h.post(t, "PO-1", time.Time{}, receive(pens, 1))
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)
	assert.Equal(t, int64(5), h.balance(t, pens))
}

func TestPostTransaction_ValidacionEstructural(t *testing.T) {
	h := newHarness(t)
	pens := h.item(t, "PEN", 0)

	cases := []struct {
		name  string
		ref   string
		at    time.Time
		lines []inventory.TransactionLine
		field string
		line  int
	}{
		{"sin referencia", " ", time.Time{}, []inventory.TransactionLine{receive(pens, 1)}, "reference", 0},
		{"sin líneas", "PO-1", time.Time{}, nil, "lines", 0},
		{"fecha futura", "PO-1", time.Now().Add(time.Hour), []inventory.TransactionLine{receive(pens, 1)}, "effective_date", 0},
		{"cantidad cero", "PO-1", time.Time{}, []inventory.TransactionLine{receive(pens, 1), receive("x", 0)}, "quantity", 2},
		{"ajuste directo", "PO-1", time.Time{}, []inventory.TransactionLine{{ItemID: pens, Direction: entity.DirectionAdjustmentIn, Quantity: 1}}, "direction", 1},
		{"ítem repetido", "PO-1", time.Time{}, []inventory.TransactionLine{receive(pens, 1), receive(pens, 2)}, "item_id", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.post(t, tc.ref, tc.at, tc.lines...)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.field, verr.Field)
			assert.Equal(t, tc.line, verr.Line)
		})
	}
	assert.Equal(t, int64(0), h.balance(t, pens))
}

func TestPostTransaction_ItemInexistenteOInactivo(t *testing.T) {
	h := newHarness(t)
	pens := h.item(t, "PEN", 0)
	retired := h.item(t, "OLD", 0)
	require.NoError(t, h.items.SetActive(context.Background(), retired, false, time.Now()))

	_, err := h.post(t, "PO-1", time.Time{}, receive(pens, 1), receive("missing", 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 2, domain.LineOf(err))

	_, err = h.post(t, "PO-2", time.Time{}, receive(retired, 1))
	assert.ErrorIs(t, err, domain.ErrItemInactive)
}

func TestPostTransaction_SalidaRetroactivaNoRompeHistorialPosterior(t *testing.T) {
	h := newHarness(t)
	toner := h.item(t, "TONER", 0)
	_, err := h.post(t, "PO-1", daysAgo(10), receive(toner, 10))
	require.NoError(t, err)
	_, err = h.post(t, "RIS-1", daysAgo(2), issue(toner, 8))
	require.NoError(t, err)

	// Al día -5 hay 10, pero sacar 5 dejaría el día -2 en -3.
	_, err = h.post(t, "RIS-2", daysAgo(5), issue(toner, 5))
	var insufficient *domain.InsufficientBalanceError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, int64(2), insufficient.Available)

	_, err = h.post(t, "RIS-3", daysAgo(5), issue(toner, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(0), h.balance(t, toner))

	past := daysAgo(6)
	b, err := h.queries.GetBalance(context.Background(), toner, &past)
	require.NoError(t, err)
	assert.Equal(t, int64(10), b)
}

func TestPostTransaction_ConcurrenciaUnaSolaSalidaGana(t *testing.T) {
	h := newHarness(t)
	paper := h.item(t, "A4-PAPER", 0)
	_, err := h.post(t, "PO-1", time.Time{}, receive(paper, 10))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, qty := range []int64{7, 6} {
		wg.Add(1)
		go func(i int, qty int64) {
			defer wg.Done()
			_, errs[i] = h.coord.PostTransaction(context.Background(), inventory.TransactionRequest{
				Reference: "RIS-C" + string(rune('0'+i)),
				Lines:     []inventory.TransactionLine{issue(paper, qty)},
			})
		}(i, qty)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)
	final := h.balance(t, paper)
	assert.Contains(t, []int64{3, 4}, final)
	assert.Equal(t, final, h.onHand(t, paper))
}

func TestPostTransaction_MultiItemConcurrenteSinDeadlock(t *testing.T) {
	h := newHarness(t)
	a := h.item(t, "A", 0)
	b := h.item(t, "B", 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lines := []inventory.TransactionLine{receive(a, 1), receive(b, 1)}
			if i%2 == 1 {
				lines = []inventory.TransactionLine{receive(b, 1), receive(a, 1)}
			}
			_, err := h.coord.PostTransaction(context.Background(), inventory.TransactionRequest{
				Reference: "DR-" + string(rune('a'+i)), Lines: lines,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int64(10), h.balance(t, a))
	assert.Equal(t, int64(10), h.balance(t, b))
}

func TestPostTransaction_ContextoCanceladoAntesDelBloqueo(t *testing.T) {
	h := newHarness(t)
	pens := h.item(t, "PEN", 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.coord.PostTransaction(ctx, inventory.TransactionRequest{
		Reference: "PO-1", Lines: []inventory.TransactionLine{receive(pens, 1)},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPostTransaction_PublicaEventoConSaldo(t *testing.T) {
	h := newHarness(t)
	pens := h.item(t, "PEN", 0)
	res, err := h.post(t, "PO-1", time.Time{}, receive(pens, 12))
	require.NoError(t, err)

	events := h.published.all()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, res.TransactionID, ev.TransactionID)
	assert.Equal(t, inventory.SourceTransaction, ev.Source)
	assert.Equal(t, "PO-1", ev.Reference)
	assert.Equal(t, "tester", ev.Actor)
	require.Len(t, ev.Movements, 1)
	assert.Equal(t, int64(12), ev.Movements[0].OnHand)

	_, err = h.post(t, "RIS-1", time.Time{}, issue(pens, 99))
	require.Error(t, err)
	assert.Len(t, h.published.all(), 1)
}

func TestPostTransaction_ViolacionDeInvarianteDetieneElItem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pens := h.item(t, "PEN", 0)
	_, err := h.post(t, "PO-1", daysAgo(3), receive(pens, 2))
	require.NoError(t, err)

	// Movimiento escrito fuera del motor: el ledger queda en -3.
	require.NoError(t, h.movements.Append(ctx, &entity.Movement{
		ID: "rogue", TransactionID: "rogue", ItemID: pens, Direction: entity.DirectionIssued,
		Quantity: 5, EffectiveAt: daysAgo(1), CreatedAt: daysAgo(1), Reference: "ROGUE",
	}))

	_, err = h.post(t, "PO-2", time.Time{}, receive(pens, 1))
	var iv *domain.InvariantViolation
	require.True(t, errors.As(err, &iv), "got %v", err)
	assert.Equal(t, int64(-3), iv.Balance)
	assert.Equal(t, 1, domain.LineOf(err))

	it, err := h.items.GetByID(ctx, pens)
	require.NoError(t, err)
	assert.True(t, it.Halted)

	_, err = h.post(t, "PO-3", time.Time{}, receive(pens, 1))
	assert.ErrorIs(t, err, domain.ErrItemHalted)

	_, err = h.queries.GetBalance(ctx, pens, nil)
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}
