package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PostingLineRequest ítem y cantidad de una recepción o salida.
type PostingLineRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int64  `json:"quantity"`
}

// ReceiptRequest body para POST /api/transactions/receipts.
type ReceiptRequest struct {
	Reference  string               `json:"reference"` // PO o DR
	Supplier   string               `json:"supplier"`
	ReceivedAt *time.Time           `json:"received_at,omitempty"`
	Lines      []PostingLineRequest `json:"lines"`
}

// IssuanceRequest body para POST /api/transactions/issuances.
type IssuanceRequest struct {
	Reference  string               `json:"reference"` // RIS
	Custodian  string               `json:"custodian"`
	Department string               `json:"department"`
	Purpose    string               `json:"purpose"`
	IssuedAt   *time.Time           `json:"issued_at,omitempty"`
	Lines      []PostingLineRequest `json:"lines"`
}

// MovementResponse movimiento del ledger.
type MovementResponse struct {
	ID            string    `json:"id"`
	Seq           int64     `json:"seq"`
	TransactionID string    `json:"transaction_id"`
	ItemID        string    `json:"item_id"`
	Direction     string    `json:"direction"`
	Kind          string    `json:"kind"`
	Quantity      int64     `json:"quantity"`
	EffectiveAt   time.Time `json:"effective_at"`
	Reference     string    `json:"reference"`
	Custodian     string    `json:"custodian,omitempty"`
	Department    string    `json:"department,omitempty"`
	Purpose       string    `json:"purpose,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
}

// TransactionResponse resultado de una transacción confirmada.
type TransactionResponse struct {
	TransactionID string             `json:"transaction_id"`
	Reference     string             `json:"reference"`
	MovementIDs   []string           `json:"movement_ids"`
	Movements     []MovementResponse `json:"movements"`
}

// BalanceResponse saldo de un ítem a una fecha.
type BalanceResponse struct {
	ItemID  string    `json:"item_id"`
	AsOf    time.Time `json:"as_of"`
	Balance int64     `json:"balance"`
}

// MovementPageResponse página de movimientos; next_cursor vacío indica el final.
type MovementPageResponse struct {
	Movements  []MovementResponse `json:"movements"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// StockCardRowResponse fila de la tarjeta de existencias.
type StockCardRowResponse struct {
	MovementID  string          `json:"movement_id,omitempty"`
	Date        time.Time       `json:"date"`
	Reference   string          `json:"reference,omitempty"`
	Kind        string          `json:"kind,omitempty"`
	Description string          `json:"description,omitempty"`
	Custodian   string          `json:"custodian,omitempty"`
	Department  string          `json:"department,omitempty"`
	Received    int64           `json:"received"`
	Issued      int64           `json:"issued"`
	Balance     int64           `json:"balance"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	TotalValue  decimal.Decimal `json:"total_value"`
}

// StockCardResponse tarjeta de existencias de un ítem.
type StockCardResponse struct {
	ItemID        string                 `json:"item_id"`
	Code          string                 `json:"code"`
	Name          string                 `json:"name"`
	Unit          string                 `json:"unit"`
	Opening       int64                  `json:"opening"`
	Closing       int64                  `json:"closing"`
	TotalReceived int64                  `json:"total_received"`
	TotalIssued   int64                  `json:"total_issued"`
	Rows          []StockCardRowResponse `json:"rows"`
}
