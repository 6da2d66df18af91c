package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/supply-ledger/internal/application/dto"
	"github.com/jhoicas/supply-ledger/internal/domain"
)

// Mensaje devuelto para errores internos; el detalle solo va al log.
const internalErrorMessage = "error interno"

// writeError traduce errores de dominio a HTTP en un solo lugar.
func writeError(c *fiber.Ctx, err error) error {
	status, body := errorResponse(err)
	if body.Code == "INTERNAL" {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno en la API")
	}
	return c.Status(status).JSON(body)
}

func errorResponse(err error) (int, dto.ErrorResponse) {
	body := dto.ErrorResponse{Message: err.Error(), Line: domain.LineOf(err)}

	var (
		ibe *domain.InsufficientBalanceError
		dre *domain.DuplicateReferenceError
		iv  *domain.InvariantViolation
		le  *domain.LineError
	)
	switch {
	case errors.As(err, &ibe):
		body.ItemID = ibe.ItemID
	case errors.As(err, &dre):
		body.ItemID = dre.ItemID
	case errors.As(err, &iv):
		body.ItemID = iv.ItemID
	case errors.As(err, &le):
		body.ItemID = le.ItemID
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		body.Code = "VALIDATION"
		return fiber.StatusBadRequest, body
	case errors.Is(err, domain.ErrInsufficientStock):
		body.Code = "INSUFFICIENT_BALANCE"
		return fiber.StatusConflict, body
	case errors.Is(err, domain.ErrDuplicateReference):
		body.Code = "DUPLICATE_REFERENCE"
		return fiber.StatusConflict, body
	case errors.Is(err, domain.ErrInvariantViolation):
		body.Code = "INVARIANT_VIOLATION"
		return fiber.StatusInternalServerError, body
	case errors.Is(err, domain.ErrItemHalted):
		body.Code = "ITEM_HALTED"
		return fiber.StatusLocked, body
	case errors.Is(err, domain.ErrItemInactive):
		body.Code = "ITEM_INACTIVE"
		return fiber.StatusConflict, body
	case errors.Is(err, domain.ErrNotFound):
		body.Code = "NOT_FOUND"
		return fiber.StatusNotFound, body
	case errors.Is(err, domain.ErrDuplicate):
		body.Code = "DUPLICATE"
		return fiber.StatusConflict, body
	case errors.Is(err, domain.ErrLockTimeout), errors.Is(err, context.DeadlineExceeded):
		body.Code = "BUSY"
		return fiber.StatusServiceUnavailable, body
	case errors.Is(err, domain.ErrForbidden):
		body.Code = "FORBIDDEN"
		return fiber.StatusForbidden, body
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: internalErrorMessage}
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
