package migrations

import "embed"

// FS migraciones SQLite del ledger de suministros.
//
//go:embed *.sql
var FS embed.FS
