package migrations

import "embed"

// FS migraciones PostgreSQL del ledger de suministros.
//
//go:embed *.sql
var FS embed.FS
