// seed importa el catálogo heredado de la oficina de suministros (CSV) y registra los saldos
// de apertura como una recepción con referencia BEGINNING-BALANCE.
//
// Uso: go run ./cmd/seed [-latin1] [-date 2024-01-01] catalogo.csv
// El backend se toma de la configuración (STORAGE_DRIVER, SQLITE_PATH, DATABASE_URL...).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/supply-ledger/internal/application/inventory"
	"github.com/jhoicas/supply-ledger/internal/application/usecase"
	"github.com/jhoicas/supply-ledger/internal/domain"
	"github.com/jhoicas/supply-ledger/internal/infrastructure/storage"
	"github.com/jhoicas/supply-ledger/pkg/config"
	"github.com/jhoicas/supply-ledger/pkg/logger"
)

// OpeningReference referencia de los saldos de apertura importados.
const OpeningReference = "BEGINNING-BALANCE"

func main() {
	latin1 := flag.Bool("latin1", false, "el CSV está en ISO-8859-1")
	date := flag.String("date", "", "fecha efectiva de los saldos de apertura (YYYY-MM-DD); vacío = ahora")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed [-latin1] [-date YYYY-MM-DD] catalogo.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	var effective time.Time
	if *date != "" {
		if effective, err = time.Parse("2006-01-02", *date); err != nil {
			log.Fatal().Err(err).Msg("fecha inválida")
		}
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV")
	}
	defer f.Close()
	rows, err := parseCatalogue(f, *latin1)
	if err != nil {
		log.Fatal().Err(err).Msg("leer catálogo")
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer store.Close()

	items := usecase.NewItemUseCase(store.Items)
	engine := inventory.NewEngine(log.Zerolog(), nil)
	coord := inventory.NewCoordinator(store.Tx, engine, store.Projector, nil, cfg.Ledger.LockTimeout, log.Zerolog())

	created, skipped := 0, 0
	var opening []inventory.PostingLine
	for _, r := range rows {
		out, err := items.Register(ctx, r.Item)
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			skipped++
			log.Warn().Int("line", r.Line).Str("code", r.Item.Code).Msg("código ya registrado; se omite")
			continue
		case err != nil:
			log.Fatal().Err(err).Int("line", r.Line).Str("code", r.Item.Code).Msg("registrar ítem")
		}
		created++
		if r.Opening > 0 {
			opening = append(opening, inventory.PostingLine{ItemID: out.ID, Quantity: r.Opening})
		}
	}

	if len(opening) > 0 {
		res, err := coord.Receive(ctx, inventory.ReceiptInput{
			Reference:  OpeningReference,
			Supplier:   "Legacy catalogue",
			ReceivedAt: effective,
			Actor:      "seed",
			Lines:      opening,
		})
		if err != nil {
			log.Fatal().Err(err).Int("line", domain.LineOf(err)).Msg("registrar saldos de apertura")
		}
		log.Info().Str("transaction_id", res.TransactionID).Int("movements", len(res.Movements)).Msg("saldos de apertura registrados")
	}
	log.Info().Int("created", created).Int("skipped", skipped).Msg("importación terminada")
}
