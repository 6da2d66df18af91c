package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/supply-ledger/internal/application/dto"
	"github.com/jhoicas/supply-ledger/internal/application/inventory"
)

// RequestHandler despacho de solicitudes departamentales aprobadas (protegido).
type RequestHandler struct {
	uc *inventory.RequestFulfillmentUseCase
}

// NewRequestHandler construye el handler.
func NewRequestHandler(uc *inventory.RequestFulfillmentUseCase) *RequestHandler {
	return &RequestHandler{uc: uc}
}

// Fulfill godoc
// @Summary      Despachar solicitud aprobada
// @Description  El número de solicitud es la referencia de la salida; una solicitud no se despacha dos veces.
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ApprovedRequestDTO  true  "request_number, department, requested_by, items"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requests/fulfill [post]
func (h *RequestHandler) Fulfill(c *fiber.Ctx) error {
	var in dto.ApprovedRequestDTO
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	req := inventory.ApprovedRequestFromDTO(in)
	if req.ApprovedBy == "" {
		req.ApprovedBy = GetActor(c)
	}
	res, err := h.uc.Fulfill(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransactionResponse(res))
}
