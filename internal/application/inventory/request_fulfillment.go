package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/supply-ledger/internal/application/dto"
	"github.com/jhoicas/supply-ledger/internal/domain"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
	"github.com/jhoicas/supply-ledger/internal/domain/repository"
)

// RequestFulfillmentUseCase convierte solicitudes departamentales aprobadas en salidas atómicas.
// El número de solicitud es la referencia, así que una solicitud no puede despacharse dos veces.
type RequestFulfillmentUseCase struct {
	coord     *Coordinator
	movements repository.MovementRepository
}

// NewRequestFulfillmentUseCase construye el caso de uso.
func NewRequestFulfillmentUseCase(coord *Coordinator, movements repository.MovementRepository) *RequestFulfillmentUseCase {
	return &RequestFulfillmentUseCase{coord: coord, movements: movements}
}

// Fulfill despacha todas las líneas de la solicitud o ninguna.
func (uc *RequestFulfillmentUseCase) Fulfill(ctx context.Context, req entity.ApprovedRequest) (*TransactionResult, error) {
	if strings.TrimSpace(req.RequestNumber) == "" {
		return nil, domain.NewValidationError("request_number", "requerido")
	}
	if strings.TrimSpace(req.Department) == "" {
		return nil, domain.NewValidationError("department", "requerido")
	}
	if strings.TrimSpace(req.RequestedBy) == "" {
		return nil, domain.NewValidationError("requested_by", "requerido")
	}
	lines := make([]TransactionLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, TransactionLine{
			ItemID:     l.ItemID,
			Direction:  entity.DirectionIssued,
			Quantity:   l.Quantity,
			Custodian:  req.RequestedBy,
			Department: req.Department,
			Purpose:    l.Purpose,
		})
	}
	actor := req.ApprovedBy
	if strings.TrimSpace(actor) == "" {
		actor = "department-requests"
	}
	return uc.coord.PostTransaction(ctx, TransactionRequest{
		Reference: req.RequestNumber,
		Actor:     actor,
		Lines:     lines,
	})
}

// Committed devuelve la transacción que ya despachó la solicitud, o nil si no hay una que
// coincida línea por línea (mismo ítem y cantidad) con req.
func (uc *RequestFulfillmentUseCase) Committed(ctx context.Context, req entity.ApprovedRequest) (*TransactionResult, error) {
	ms, err := uc.movements.ListByReference(ctx, entity.DirectionIssued, req.RequestNumber)
	if err != nil {
		return nil, fmt.Errorf("list by reference: %w", err)
	}
	if len(ms) == 0 || len(ms) != len(req.Lines) {
		return nil, nil
	}
	want := make(map[string]int64, len(req.Lines))
	for _, l := range req.Lines {
		want[l.ItemID] += l.Quantity
	}
	txID := ms[0].TransactionID
	for _, m := range ms {
		if m.TransactionID != txID || want[m.ItemID] != m.Quantity {
			return nil, nil
		}
		delete(want, m.ItemID)
	}
	if len(want) != 0 {
		return nil, nil
	}
	return &TransactionResult{TransactionID: txID, Reference: req.RequestNumber, Movements: ms}, nil
}

// ApprovedRequestFromDTO traduce la solicitud recibida por HTTP o por la cola a la entidad.
func ApprovedRequestFromDTO(in dto.ApprovedRequestDTO) entity.ApprovedRequest {
	req := entity.ApprovedRequest{
		RequestNumber: in.RequestNumber,
		Department:    in.Department,
		RequestedBy:   in.RequestedBy,
		ApprovedBy:    in.ApprovedBy,
		Lines:         make([]entity.RequestLine, 0, len(in.Items)),
	}
	for _, l := range in.Items {
		req.Lines = append(req.Lines, entity.RequestLine{ItemID: l.ItemID, Quantity: l.Quantity, Purpose: l.Purpose})
	}
	return req
}
