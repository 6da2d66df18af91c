package repository

import (
	"context"

	"github.com/jhoicas/supply-ledger/internal/domain/entity"
)

// ReconciliationRepository puerto de persistencia de registros de conciliación (inmutables).
type ReconciliationRepository interface {
	Create(ctx context.Context, rec *entity.ReconciliationRecord) error
	ListByItem(ctx context.Context, itemID string, limit int) ([]*entity.ReconciliationRecord, error)
	ListBySession(ctx context.Context, sessionID string) ([]*entity.ReconciliationRecord, error)
}
