package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/supply-ledger/internal/application/dto"
	"github.com/jhoicas/supply-ledger/internal/application/inventory"
)

// InventoryHandler maneja las transacciones del ledger y sus lecturas (protegido).
type InventoryHandler struct {
	coord         *inventory.Coordinator
	queries       *inventory.QueryUseCase
	replenishment *inventory.ReplenishmentUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(coord *inventory.Coordinator, queries *inventory.QueryUseCase, replenishment *inventory.ReplenishmentUseCase) *InventoryHandler {
	return &InventoryHandler{coord: coord, queries: queries, replenishment: replenishment}
}

// Receive godoc
// @Summary      Registrar recepción
// @Description  Todas las líneas comparten la referencia PO/DR; se confirman todas o ninguna.
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ReceiptRequest  true  "reference, supplier, received_at, lines"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      423   {object}  dto.ErrorResponse
// @Router       /api/transactions/receipts [post]
func (h *InventoryHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.coord.Receive(c.UserContext(), inventory.ReceiptInput{
		Reference:  in.Reference,
		Supplier:   in.Supplier,
		ReceivedAt: derefTime(in.ReceivedAt),
		Actor:      GetActor(c),
		Lines:      toPostingLines(in.Lines),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransactionResponse(res))
}

// Issue godoc
// @Summary      Registrar salida masiva
// @Description  Custodio, departamento y propósito se aplican a cada línea. Una línea sin saldo rechaza toda la salida.
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.IssuanceRequest  true  "reference (RIS), custodian, department, purpose, lines"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      423   {object}  dto.ErrorResponse
// @Router       /api/transactions/issuances [post]
func (h *InventoryHandler) Issue(c *fiber.Ctx) error {
	var in dto.IssuanceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.coord.Issue(c.UserContext(), inventory.IssuanceInput{
		Reference:  in.Reference,
		Custodian:  in.Custodian,
		Department: in.Department,
		Purpose:    in.Purpose,
		IssuedAt:   derefTime(in.IssuedAt),
		Actor:      GetActor(c),
		Lines:      toPostingLines(in.Lines),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransactionResponse(res))
}

// GetBalance godoc
// @Summary      Saldo del ítem
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID del ítem"
// @Param        as_of  query  string  false  "Fecha de corte (RFC3339 o YYYY-MM-DD). Vacío = ahora."
// @Success      200  {object}  dto.BalanceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/balance [get]
func (h *InventoryHandler) GetBalance(c *fiber.Ctx) error {
	asOf, err := queryTime(c, "as_of", true)
	if err != nil {
		return writeError(c, err)
	}
	id := c.Params("id")
	balance, err := h.queries.GetBalance(c.UserContext(), id, asOf)
	if err != nil {
		return writeError(c, err)
	}
	at := time.Now().UTC()
	if asOf != nil {
		at = *asOf
	}
	return c.JSON(dto.BalanceResponse{ItemID: id, AsOf: at, Balance: balance})
}

// ListMovements godoc
// @Summary      Movimientos del ítem
// @Description  Orden del ledger (fecha efectiva, registro). next_cursor continúa la lectura.
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del ítem"
// @Param        from    query  string  false  "Desde"
// @Param        to      query  string  false  "Hasta"
// @Param        cursor  query  string  false  "Cursor de la página anterior"
// @Param        limit   query  int     false  "Tamaño de página (máx 200)"
// @Success      200  {object}  dto.MovementPageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return writeError(c, err)
	}
	page, err := h.queries.ListMovements(c.UserContext(), inventory.MovementListQuery{
		ItemID: c.Params("id"),
		From:   from,
		To:     to,
		Cursor: c.Query("cursor"),
		Limit:  c.QueryInt("limit", 0),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MovementPageResponse{Movements: toMovementResponses(page.Movements), NextCursor: page.NextCursor})
}

// StockCard godoc
// @Summary      Tarjeta de existencias
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id    path   string  true   "ID del ítem"
// @Param        from  query  string  false  "Desde"
// @Param        to    query  string  false  "Hasta"
// @Success      200  {object}  dto.StockCardResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/stock-card [get]
func (h *InventoryHandler) StockCard(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return writeError(c, err)
	}
	card, err := h.queries.StockCard(c.UserContext(), c.Params("id"), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockCardResponse(card))
}

// StockCardPDF godoc
// @Summary      Tarjeta de existencias en PDF
// @Tags         items
// @Security     Bearer
// @Produce      application/pdf
// @Param        id    path   string  true   "ID del ítem"
// @Param        from  query  string  false  "Desde"
// @Param        to    query  string  false  "Hasta"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/stock-card.pdf [get]
func (h *InventoryHandler) StockCardPDF(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return writeError(c, err)
	}
	id := c.Params("id")
	doc, err := h.queries.StockCardPDF(c.UserContext(), id, from, to)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=stock-card-%s.pdf", id))
	return c.Send(doc)
}

// GetReorderList godoc
// @Summary      Lista de reposición
// @Description  Ítems activos en o por debajo del nivel de reorden con la cantidad sugerida de pedido.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.ReorderSuggestionDTO
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/reports/reorder [get]
func (h *InventoryHandler) GetReorderList(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReorderList(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}
