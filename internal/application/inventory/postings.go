package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/supply-ledger/internal/domain"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
)

// PostingLine ítem y cantidad de una recepción o una salida.
type PostingLine struct {
	ItemID   string
	Quantity int64
}

// ReceiptInput recepción de proveedor con una sola referencia PO/DR.
type ReceiptInput struct {
	Reference  string
	Supplier   string
	ReceivedAt time.Time
	Actor      string
	Lines      []PostingLine
}

// IssuanceInput salida masiva a un custodio con una sola referencia RIS.
type IssuanceInput struct {
	Reference  string
	Custodian  string
	Department string
	Purpose    string
	IssuedAt   time.Time
	Actor      string
	Lines      []PostingLine
}

// Receive registra una recepción como una transacción atómica. El proveedor queda en el propósito.
func (c *Coordinator) Receive(ctx context.Context, in ReceiptInput) (*TransactionResult, error) {
	purpose := ""
	if s := strings.TrimSpace(in.Supplier); s != "" {
		purpose = "Supplier: " + s
	}
	lines := make([]TransactionLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, TransactionLine{
			ItemID:    l.ItemID,
			Direction: entity.DirectionReceived,
			Quantity:  l.Quantity,
			Purpose:   purpose,
		})
	}
	return c.PostTransaction(ctx, TransactionRequest{
		Reference:   in.Reference,
		EffectiveAt: in.ReceivedAt,
		Actor:       in.Actor,
		Lines:       lines,
	})
}

// Issue registra una salida masiva; custodio, departamento y propósito se copian a cada línea.
func (c *Coordinator) Issue(ctx context.Context, in IssuanceInput) (*TransactionResult, error) {
	if strings.TrimSpace(in.Custodian) == "" {
		return nil, domain.NewValidationError("custodian", "requerido")
	}
	if strings.TrimSpace(in.Department) == "" {
		return nil, domain.NewValidationError("department", "requerido")
	}
	lines := make([]TransactionLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, TransactionLine{
			ItemID:     l.ItemID,
			Direction:  entity.DirectionIssued,
			Quantity:   l.Quantity,
			Custodian:  in.Custodian,
			Department: in.Department,
			Purpose:    in.Purpose,
		})
	}
	return c.PostTransaction(ctx, TransactionRequest{
		Reference:   in.Reference,
		EffectiveAt: in.IssuedAt,
		Actor:       in.Actor,
		Lines:       lines,
	})
}
