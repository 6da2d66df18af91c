package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/supply-ledger/internal/application/analytics"
	"github.com/jhoicas/supply-ledger/internal/application/dto"
	"github.com/jhoicas/supply-ledger/internal/application/inventory"
	"github.com/jhoicas/supply-ledger/internal/application/usecase"
	"github.com/jhoicas/supply-ledger/internal/infrastructure/sqlite"
	apphttp "github.com/jhoicas/supply-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/supply-ledger/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func buildLedgerApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	items := sqlite.NewItemRepository(db)
	movements := sqlite.NewMovementRepository(db)
	engine := inventory.NewEngine(zerolog.Nop(), nil)
	coord := inventory.NewCoordinator(sqlite.NewTxRunner(db), engine, items, nil, 5*time.Second, zerolog.Nop())

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ItemUC:         usecase.NewItemUseCase(items),
		Coordinator:    coord,
		Queries:        inventory.NewQueryUseCase(engine, items, movements, items, nil),
		Reconciliation: inventory.NewReconciliationUseCase(coord, sqlite.NewReconciliationRepository(db)),
		Requests:       inventory.NewRequestFulfillmentUseCase(coord, movements),
		Replenishment:  inventory.NewReplenishmentUseCase(items, movements),
		Dashboard:      analytics.NewDashboardUseCase(items, movements),
		JWTSecret:      testJWTSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, role string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func createItem(t *testing.T, app *fiber.App, code string) string {
	t.Helper()
	resp, body := call(t, app, http.MethodPost, "/api/items", pkgjwt.RoleManager, dto.CreateItemRequest{
		Code: code, Name: "Bond paper A4", Unit: "ream", ReorderLevel: 20,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var item dto.ItemResponse
	require.NoError(t, json.Unmarshal(body, &item))
	return item.ID
}

func postReceipt(t *testing.T, app *fiber.App, ref, itemID string, qty int64) (*http.Response, []byte) {
	t.Helper()
	return call(t, app, http.MethodPost, "/api/transactions/receipts", pkgjwt.RoleStaff, dto.ReceiptRequest{
		Reference: ref, Supplier: "Office Depot",
		Lines: []dto.PostingLineRequest{{ItemID: itemID, Quantity: qty}},
	})
}

func postIssuance(t *testing.T, app *fiber.App, ref, itemID string, qty int64) (*http.Response, []byte) {
	t.Helper()
	return call(t, app, http.MethodPost, "/api/transactions/issuances", pkgjwt.RoleStaff, dto.IssuanceRequest{
		Reference: ref, Custodian: "J. Cruz", Department: "Accounting", Purpose: "Monthly supplies",
		Lines: []dto.PostingLineRequest{{ItemID: itemID, Quantity: qty}},
	})
}

func decodeError(t *testing.T, body []byte) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e
}

// ──────────────────────────────────────────────────────────────────────────────
// Ledger por HTTP
// ──────────────────────────────────────────────────────────────────────────────

func TestLedgerAPI_EscenarioA4Paper(t *testing.T) {
	app := buildLedgerApp(t)
	id := createItem(t, app, "A4-PAPER")

	resp, body := postReceipt(t, app, "PO-1", id, 150)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = postIssuance(t, app, "RIS-1", id, 170)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	e := decodeError(t, body)
	assert.Equal(t, "INSUFFICIENT_BALANCE", e.Code)
	assert.Equal(t, 1, e.Line)
	assert.Equal(t, id, e.ItemID)

	resp, body = postIssuance(t, app, "RIS-1", id, 50)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var tx dto.TransactionResponse
	require.NoError(t, json.Unmarshal(body, &tx))
	require.Len(t, tx.Movements, 1)
	assert.Equal(t, "J. Cruz", tx.Movements[0].Custodian)
	assert.Equal(t, "Test User", tx.Movements[0].CreatedBy)

	resp, body = postIssuance(t, app, "RIS-1", id, 10)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_REFERENCE", decodeError(t, body).Code)

	resp, body = call(t, app, http.MethodGet, "/api/items/"+id+"/balance", pkgjwt.RoleViewer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bal dto.BalanceResponse
	require.NoError(t, json.Unmarshal(body, &bal))
	assert.EqualValues(t, 100, bal.Balance)

	resp, body = call(t, app, http.MethodGet, "/api/items/"+id, pkgjwt.RoleViewer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var item dto.ItemResponse
	require.NoError(t, json.Unmarshal(body, &item))
	assert.EqualValues(t, 100, item.OnHand)
	assert.Equal(t, "In Stock", item.Status)
}

func TestLedgerAPI_ValidacionRetorna400ConLinea(t *testing.T) {
	app := buildLedgerApp(t)
	id := createItem(t, app, "PEN-BLK")

	resp, body := call(t, app, http.MethodPost, "/api/transactions/receipts", pkgjwt.RoleStaff, dto.ReceiptRequest{
		Reference: "PO-9",
		Lines: []dto.PostingLineRequest{
			{ItemID: id, Quantity: 5},
			{ItemID: id, Quantity: 0},
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeError(t, body)
	assert.Equal(t, "VALIDATION", e.Code)
	assert.Equal(t, 2, e.Line)

	resp, _ = call(t, app, http.MethodGet, "/api/items/"+id+"/balance", pkgjwt.RoleViewer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLedgerAPI_ItemInexistenteRetorna404(t *testing.T) {
	app := buildLedgerApp(t)
	resp, body := call(t, app, http.MethodGet, "/api/items/missing/balance", pkgjwt.RoleViewer, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, body).Code)
}

func TestLedgerAPI_CodigoDuplicadoRetorna409(t *testing.T) {
	app := buildLedgerApp(t)
	createItem(t, app, "STAPLER")
	resp, body := call(t, app, http.MethodPost, "/api/items", pkgjwt.RoleAdmin, dto.CreateItemRequest{Code: "STAPLER", Name: "Stapler", Unit: "pc"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE", decodeError(t, body).Code)
}

func TestLedgerAPI_MovimientosPaginadosConCursor(t *testing.T) {
	app := buildLedgerApp(t)
	id := createItem(t, app, "FOLDER")
	for _, ref := range []string{"PO-1", "PO-2", "PO-3"} {
		resp, body := postReceipt(t, app, ref, id, 10)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	}

	var refs []string
	path := "/api/items/" + id + "/movements?limit=2"
	for i := 0; i < 5; i++ {
		resp, body := call(t, app, http.MethodGet, path, pkgjwt.RoleViewer, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		var page dto.MovementPageResponse
		require.NoError(t, json.Unmarshal(body, &page))
		for _, m := range page.Movements {
			refs = append(refs, m.Reference)
		}
		if page.NextCursor == "" {
			break
		}
		path = "/api/items/" + id + "/movements?limit=2&cursor=" + page.NextCursor
	}
	assert.Equal(t, []string{"PO-1", "PO-2", "PO-3"}, refs)
}

func TestLedgerAPI_ConciliacionAjustaSaldo(t *testing.T) {
	app := buildLedgerApp(t)
	id := createItem(t, app, "TONER")
	resp, _ := postReceipt(t, app, "PO-1", id, 12)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	counted := int64(9)
	resp, body := call(t, app, http.MethodPost, "/api/reconciliations", pkgjwt.RoleManager, dto.ReconcileRequest{
		ItemID: id, CountedQuantity: &counted, CountedBy: "R. Diaz",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var rec dto.ReconciliationResponse
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.EqualValues(t, -3, rec.Discrepancy)
	assert.Equal(t, "adjusted", rec.Resolution)
	assert.NotEmpty(t, rec.MovementID)

	resp, body = call(t, app, http.MethodGet, "/api/items/"+id+"/balance", pkgjwt.RoleViewer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bal dto.BalanceResponse
	require.NoError(t, json.Unmarshal(body, &bal))
	assert.EqualValues(t, 9, bal.Balance)
}

func TestLedgerAPI_ConciliacionSinCantidadRetorna400(t *testing.T) {
	app := buildLedgerApp(t)
	id := createItem(t, app, "GLUE")
	resp, body := call(t, app, http.MethodPost, "/api/reconciliations", pkgjwt.RoleManager, dto.ReconcileRequest{ItemID: id})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, body).Code)
}

func TestLedgerAPI_StockCardYReorden(t *testing.T) {
	app := buildLedgerApp(t)
	id := createItem(t, app, "ENVELOPE")
	resp, _ := postReceipt(t, app, "PO-1", id, 30)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = postIssuance(t, app, "RIS-7", id, 15)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := call(t, app, http.MethodGet, "/api/items/"+id+"/stock-card", pkgjwt.RoleViewer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var card dto.StockCardResponse
	require.NoError(t, json.Unmarshal(body, &card))
	assert.EqualValues(t, 30, card.TotalReceived)
	assert.EqualValues(t, 15, card.TotalIssued)
	assert.EqualValues(t, 15, card.Closing)

	resp, body = call(t, app, http.MethodGet, "/api/reports/reorder", pkgjwt.RoleViewer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var list []dto.ReorderSuggestionDTO
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ItemID)

	resp, body = call(t, app, http.MethodGet, "/api/reports/dashboard", pkgjwt.RoleViewer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var dash dto.DashboardSummaryDTO
	require.NoError(t, json.Unmarshal(body, &dash))
	assert.Equal(t, 1, dash.LowStock)
	assert.EqualValues(t, 15, dash.MonthIssued)
}

func TestLedgerAPI_FechaInvalidaRetorna400(t *testing.T) {
	app := buildLedgerApp(t)
	id := createItem(t, app, "CLIP")
	resp, body := call(t, app, http.MethodGet, "/api/items/"+id+"/balance?as_of=ayer", pkgjwt.RoleViewer, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, body).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Política de roles
// ──────────────────────────────────────────────────────────────────────────────

func TestLedgerAPI_ViewerNoPuedeRegistrarSalidas(t *testing.T) {
	app := buildLedgerApp(t)
	id := createItem(t, app, "MARKER")
	resp, body := call(t, app, http.MethodPost, "/api/transactions/issuances", pkgjwt.RoleViewer, dto.IssuanceRequest{
		Reference: "RIS-1", Custodian: "J. Cruz", Department: "Accounting",
		Lines: []dto.PostingLineRequest{{ItemID: id, Quantity: 1}},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decodeError(t, body).Code)
}

func TestLedgerAPI_StaffNoPuedeConciliar(t *testing.T) {
	app := buildLedgerApp(t)
	id := createItem(t, app, "RULER")
	counted := int64(0)
	resp, _ := call(t, app, http.MethodPost, "/api/reconciliations", pkgjwt.RoleStaff, dto.ReconcileRequest{ItemID: id, CountedQuantity: &counted})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLedgerAPI_SinTokenRetorna401(t *testing.T) {
	app := buildLedgerApp(t)
	resp, _ := call(t, app, http.MethodGet, "/api/items", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
