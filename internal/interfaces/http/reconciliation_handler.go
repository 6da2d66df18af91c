package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/supply-ledger/internal/application/dto"
	"github.com/jhoicas/supply-ledger/internal/application/inventory"
	"github.com/jhoicas/supply-ledger/internal/domain"
)

// ReconciliationHandler conteos físicos contra el ledger (protegido).
type ReconciliationHandler struct {
	uc *inventory.ReconciliationUseCase
}

// NewReconciliationHandler construye el handler.
func NewReconciliationHandler(uc *inventory.ReconciliationUseCase) *ReconciliationHandler {
	return &ReconciliationHandler{uc: uc}
}

// Reconcile godoc
// @Summary      Conciliar un ítem
// @Description  Si el conteo difiere del saldo a as_of registra un ajuste; también libera ítems detenidos.
// @Tags         reconciliations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ReconcileRequest  true  "item_id, counted_quantity, as_of"
// @Success      201   {object}  dto.ReconciliationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/reconciliations [post]
func (h *ReconciliationHandler) Reconcile(c *fiber.Ctx) error {
	var in dto.ReconcileRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.CountedQuantity == nil {
		return writeError(c, domain.NewValidationError("counted_quantity", "requerido"))
	}
	rec, err := h.uc.Reconcile(c.UserContext(), inventory.ReconcileInput{
		ItemID:          in.ItemID,
		CountedQuantity: *in.CountedQuantity,
		AsOf:            derefTime(in.AsOf),
		CountedBy:       in.CountedBy,
		Location:        in.Location,
		Notes:           in.Notes,
		Actor:           GetActor(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toReconciliationResponse(rec))
}

// PhysicalCount godoc
// @Summary      Registrar conteo físico
// @Description  Concilia todos los ítems contados en una sola transacción.
// @Tags         reconciliations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.PhysicalCountRequest  true  "count_date, counted_by, items"
// @Success      201   {object}  dto.PhysicalCountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/physical-counts [post]
func (h *ReconciliationHandler) PhysicalCount(c *fiber.Ctx) error {
	var in dto.PhysicalCountRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	lines := make([]inventory.CountLine, 0, len(in.Items))
	for i, l := range in.Items {
		if l.CountedQuantity == nil {
			return writeError(c, &domain.ValidationError{Line: i + 1, Field: "counted_quantity", Reason: "requerido"})
		}
		lines = append(lines, inventory.CountLine{ItemID: l.ItemID, CountedQuantity: *l.CountedQuantity, Notes: l.Notes})
	}
	pc, err := h.uc.ReconcileCount(c.UserContext(), inventory.PhysicalCountInput{
		CountDate: derefTime(in.CountDate),
		CountedBy: in.CountedBy,
		Location:  in.Location,
		Notes:     in.Notes,
		Actor:     GetActor(c),
		Lines:     lines,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toPhysicalCountResponse(pc))
}

// History godoc
// @Summary      Historial de conciliaciones del ítem
// @Tags         reconciliations
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID del ítem"
// @Param        limit  query  int     false  "Máximo de registros (default 50)"
// @Success      200  {array}   dto.ReconciliationResponse
// @Router       /api/items/{id}/reconciliations [get]
func (h *ReconciliationHandler) History(c *fiber.Ctx) error {
	recs, err := h.uc.History(c.UserContext(), c.Params("id"), c.QueryInt("limit", 50))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ReconciliationResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, toReconciliationResponse(r))
	}
	return c.JSON(out)
}
