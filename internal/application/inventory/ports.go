package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/supply-ledger/internal/domain/entity"
	ledger "github.com/jhoicas/supply-ledger/internal/domain/inventory"
	"github.com/jhoicas/supply-ledger/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción de almacenamiento.
// Dentro de TxRunner.Run solo deben usarse estos repositorios.
type TxRepos struct {
	Items           repository.ItemRepository
	Movements       repository.MovementRepository
	Projection      repository.BalanceProjector
	Reconciliations repository.ReconciliationRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil; Rollback en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}

// Origen de un evento del ledger.
const (
	SourceTransaction    = "transaction"
	SourceReconciliation = "reconciliation"
)

// CommittedMovement movimiento confirmado dentro de un evento.
type CommittedMovement struct {
	MovementID string           `json:"movement_id"`
	ItemID     string           `json:"item_id"`
	Direction  entity.Direction `json:"direction"`
	Quantity   int64            `json:"quantity"`
	OnHand     int64            `json:"on_hand"`
}

// TransactionCommitted evento publicado después de liberar los bloqueos.
type TransactionCommitted struct {
	TransactionID string              `json:"transaction_id"`
	Source        string              `json:"source"`
	Reference     string              `json:"reference"`
	Actor         string              `json:"actor"`
	CommittedAt   time.Time           `json:"committed_at"`
	Movements     []CommittedMovement `json:"movements"`
}

// EventPublisher publica eventos del ledger (best effort: un fallo no revierte la transacción).
type EventPublisher interface {
	PublishTransactionCommitted(ctx context.Context, ev TransactionCommitted) error
}

// NoopPublisher descarta los eventos; se usa cuando no hay broker configurado.
type NoopPublisher struct{}

func (NoopPublisher) PublishTransactionCommitted(context.Context, TransactionCommitted) error {
	return nil
}

// StockCardRenderer genera la representación imprimible de una tarjeta de existencias.
type StockCardRenderer interface {
	RenderStockCard(card *ledger.StockCard) ([]byte, error)
}
