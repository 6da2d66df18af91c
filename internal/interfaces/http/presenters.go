package http

import (
	"github.com/jhoicas/supply-ledger/internal/application/dto"
	"github.com/jhoicas/supply-ledger/internal/application/inventory"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
	ledger "github.com/jhoicas/supply-ledger/internal/domain/inventory"
)

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		Seq:           m.Seq,
		TransactionID: m.TransactionID,
		ItemID:        m.ItemID,
		Direction:     string(m.Direction),
		Kind:          string(m.Direction.Kind()),
		Quantity:      m.Quantity,
		EffectiveAt:   m.EffectiveAt,
		Reference:     m.Reference,
		Custodian:     m.Custodian,
		Department:    m.Department,
		Purpose:       m.Purpose,
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
	}
}

func toMovementResponses(ms []*entity.Movement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMovementResponse(m))
	}
	return out
}

func toTransactionResponse(r *inventory.TransactionResult) dto.TransactionResponse {
	return dto.TransactionResponse{
		TransactionID: r.TransactionID,
		Reference:     r.Reference,
		MovementIDs:   r.MovementIDs(),
		Movements:     toMovementResponses(r.Movements),
	}
}

func toReconciliationResponse(r *entity.ReconciliationRecord) dto.ReconciliationResponse {
	return dto.ReconciliationResponse{
		ID:               r.ID,
		ItemID:           r.ItemID,
		SessionID:        r.SessionID,
		CountedQuantity:  r.CountedQuantity,
		ExpectedQuantity: r.ExpectedQuantity,
		Discrepancy:      r.Discrepancy,
		Resolution:       string(r.Resolution),
		MovementID:       r.MovementID,
		AsOf:             r.AsOf,
		CountedBy:        r.CountedBy,
		Location:         r.Location,
		Notes:            r.Notes,
		CreatedAt:        r.CreatedAt,
	}
}

func toPhysicalCountResponse(pc *entity.PhysicalCount) dto.PhysicalCountResponse {
	out := dto.PhysicalCountResponse{
		ID:                 pc.ID,
		CountDate:          pc.CountDate,
		CountedBy:          pc.CountedBy,
		Location:           pc.Location,
		Notes:              pc.Notes,
		ItemsCounted:       pc.ItemsCounted,
		DiscrepanciesFound: pc.DiscrepanciesFound,
		Records:            make([]dto.ReconciliationResponse, 0, len(pc.Records)),
	}
	for _, r := range pc.Records {
		out.Records = append(out.Records, toReconciliationResponse(r))
	}
	return out
}

func toStockCardResponse(card *ledger.StockCard) dto.StockCardResponse {
	out := dto.StockCardResponse{
		ItemID:        card.ItemID,
		Code:          card.Code,
		Name:          card.Name,
		Unit:          card.Unit,
		Opening:       card.Opening,
		Closing:       card.Closing,
		TotalReceived: card.TotalReceived,
		TotalIssued:   card.TotalIssued,
		Rows:          make([]dto.StockCardRowResponse, 0, len(card.Rows)),
	}
	for _, r := range card.Rows {
		out.Rows = append(out.Rows, dto.StockCardRowResponse{
			MovementID:  r.MovementID,
			Date:        r.Date,
			Reference:   r.Reference,
			Kind:        string(r.Kind),
			Description: r.Description,
			Custodian:   r.Custodian,
			Department:  r.Department,
			Received:    r.Received,
			Issued:      r.Issued,
			Balance:     r.Balance,
			UnitCost:    r.UnitCost,
			TotalValue:  r.TotalValue,
		})
	}
	return out
}

func toPostingLines(in []dto.PostingLineRequest) []inventory.PostingLine {
	out := make([]inventory.PostingLine, 0, len(in))
	for _, l := range in {
		out = append(out, inventory.PostingLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	return out
}
