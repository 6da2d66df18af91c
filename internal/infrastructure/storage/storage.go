// Package storage abre el backend del ledger elegido por configuración.
package storage

import (
	"context"
	"fmt"

	"github.com/jhoicas/supply-ledger/internal/application/inventory"
	"github.com/jhoicas/supply-ledger/internal/domain/repository"
	"github.com/jhoicas/supply-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/supply-ledger/internal/infrastructure/sqlite"
	"github.com/jhoicas/supply-ledger/pkg/config"
)

// Store repositorios fuera de transacción más el TxRunner del backend.
// Projector está atado al pool: solo el coordinador lo recibe.
type Store struct {
	Driver          string
	Items           repository.ItemRepository
	Projector       repository.BalanceProjector
	Movements       repository.MovementRepository
	Reconciliations repository.ReconciliationRepository
	Tx              inventory.TxRunner
	close           func()
}

// Close libera la conexión del backend.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open conecta y migra el backend indicado por cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		items := sqlite.NewItemRepository(db)
		return &Store{
			Driver:          config.DriverSQLite,
			Items:           items,
			Projector:       items,
			Movements:       sqlite.NewMovementRepository(db),
			Reconciliations: sqlite.NewReconciliationRepository(db),
			Tx:              sqlite.NewTxRunner(db),
			close:           func() { _ = db.Close() },
		}, nil
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		items := postgres.NewItemRepository(pool)
		return &Store{
			Driver:          config.DriverPostgres,
			Items:           items,
			Projector:       items,
			Movements:       postgres.NewMovementRepository(pool),
			Reconciliations: postgres.NewReconciliationRepository(pool),
			Tx:              postgres.NewTxRunner(pool),
			close:           pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("storage: driver no soportado %q", cfg.Storage.Driver)
}
