package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/supply-ledger/internal/application/dto"
)

// catalogueRow ítem del catálogo heredado con su saldo de apertura.
type catalogueRow struct {
	Line    int
	Item    dto.CreateItemRequest
	Opening int64
}

var requiredColumns = []string{"code", "name", "unit"}

// parseCatalogue lee el CSV del catálogo. Con latin1 decodifica ISO-8859-1 (exportaciones de hoja de cálculo).
// Columnas por encabezado: code, name, unit, description, category, location, unit_cost, reorder_level, opening_qty.
func parseCatalogue(r io.Reader, latin1 bool) ([]catalogueRow, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer encabezado: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("columna requerida ausente: %s", c)
		}
	}

	var rows []catalogueRow
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if get("code") == "" && get("name") == "" {
			continue
		}

		row := catalogueRow{Line: line, Item: dto.CreateItemRequest{
			Code:        get("code"),
			Name:        get("name"),
			Description: get("description"),
			Unit:        get("unit"),
			Category:    get("category"),
			Location:    get("location"),
		}}
		if s := get("unit_cost"); s != "" {
			cost, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
			if err != nil {
				return nil, fmt.Errorf("línea %d: unit_cost inválido %q", line, s)
			}
			row.Item.UnitCost = cost
		}
		if row.Item.ReorderLevel, err = parseQty(get("reorder_level")); err != nil {
			return nil, fmt.Errorf("línea %d: reorder_level: %w", line, err)
		}
		if row.Opening, err = parseQty(get("opening_qty")); err != nil {
			return nil, fmt.Errorf("línea %d: opening_qty: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseQty(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("entero inválido %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("no puede ser negativo: %d", n)
	}
	return n, nil
}
