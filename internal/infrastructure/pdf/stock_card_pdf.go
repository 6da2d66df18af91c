// Package pdf genera la tarjeta de existencias imprimible de un ítem.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Oficina                    │  STOCK CARD + período │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ÍTEM: Código / Nombre / Unidad / Costo        │  QR código │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Ref | Detalle | Entra | Sale | Saldo | Valor│
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Recibido / Entregado / Saldo final                │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	ledger "github.com/jhoicas/supply-ledger/internal/domain/inventory"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorHeader  = &props.Color{Red: 225, Green: 233, Blue: 242}
)

const dateLayout = "2006-01-02"

// ── Renderer ──────────────────────────────────────────────────────────────────

// StockCardRenderer implementa inventory.StockCardRenderer usando Maroto v2.
type StockCardRenderer struct {
	office string
	now    func() time.Time
}

// NewStockCardRenderer construye el renderer. office aparece en el encabezado.
func NewStockCardRenderer(office string) *StockCardRenderer {
	return &StockCardRenderer{office: office, now: time.Now}
}

// RenderStockCard genera el PDF y devuelve sus bytes.
func (r *StockCardRenderer) RenderStockCard(card *ledger.StockCard) ([]byte, error) {
	if card == nil {
		return nil, fmt.Errorf("pdf: tarjeta vacía")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Stock Card "+card.Code, true).
		WithAuthor(nonEmpty(r.office, "Supply Office"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(r.office, card))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(itemRow(card))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableRows(card.Rows)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(card))
	m.AddRows(footerRow(r.now()))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(office string, card *ledger.StockCard) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New(nonEmpty(office, "Supply Office"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Supply and Property Management", props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("STOCK CARD", props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Period: "+period(card), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

// itemRow: identidad del ítem y QR con el código para la etiqueta del estante.
func itemRow(card *ledger.StockCard) core.Row {
	return row.New(22).Add(
		col.New(9).Add(
			text.New(card.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 2}),
			text.New(fmt.Sprintf("Code: %s   |   Unit: %s   |   Unit cost: %s",
				card.Code, nonEmpty(card.Unit, "-"), formatMoney(card.UnitCost),
			), props.Text{Size: 8, Top: 9, Color: colorGray}),
			text.New(fmt.Sprintf("%s: %d", ledger.OpeningRowLabel, card.Opening), props.Text{
				Size: 8, Top: 15, Color: colorGray,
			}),
		),
		col.New(3).Add(code.NewQr(card.Code, props.Rect{Percent: 90, Center: true})),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7.5, Align: a, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: colorHeader}).Add(
		h("Date", 2, align.Left),
		h("Reference", 2, align.Left),
		h("Particulars", 3, align.Left),
		h("Received", 1, align.Right),
		h("Issued", 1, align.Right),
		h("Balance", 1, align.Right),
		h("Total Value", 2, align.Right),
	)
}

func tableRows(rows []ledger.StockCardRow) []core.Row {
	out := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, row.New(7).Add(
			col.New(2).Add(text.New(r.Date.Format(dateLayout), props.Text{Size: 7.5, Top: 1, Left: 1})),
			col.New(2).Add(text.New(r.Reference, props.Text{Size: 7.5, Top: 1, Left: 1})),
			col.New(3).Add(text.New(particulars(r), props.Text{Size: 7.5, Top: 1, Left: 1})),
			col.New(1).Add(text.New(qty(r.Received), props.Text{Size: 7.5, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(qty(r.Issued), props.Text{Size: 7.5, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(fmt.Sprint(r.Balance), props.Text{Size: 7.5, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(formatMoney(r.TotalValue), props.Text{Size: 7.5, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return out
}

func totalsRow(card *ledger.StockCard) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	closingValue := card.UnitCost.Mul(decimal.NewFromInt(card.Closing))
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Total received:"),
			label("Total issued:"),
			label("Ending balance:"),
		),
		col.New(3).Add(
			value(fmt.Sprint(card.TotalReceived)),
			value(fmt.Sprint(card.TotalIssued)),
			text.New(fmt.Sprintf("%d  (%s)", card.Closing, formatMoney(closingValue)), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Right: 1,
			}),
		),
	)
}

func footerRow(at time.Time) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New("Generated "+at.UTC().Format(time.RFC3339)+". Quantities derive from the movement ledger.", props.Text{
			Size: 6.5, Color: colorGray, Top: 3,
		}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func period(card *ledger.StockCard) string {
	from, to := "beginning", "date"
	if card.From != nil {
		from = card.From.Format(dateLayout)
	}
	if card.To != nil {
		to = card.To.Format(dateLayout)
	}
	return from + " to " + to
}

func particulars(r ledger.StockCardRow) string {
	parts := []string{r.Description}
	if r.Custodian != "" {
		parts = append(parts, r.Custodian)
	}
	if r.Department != "" {
		parts = append(parts, r.Department)
	}
	return strings.Join(nonBlank(parts), " / ")
}

func qty(n int64) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprint(n)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func nonBlank(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// formatMoney dos decimales con separador de miles.
// Ej: 1234567.5 → "1,234,567.50"
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	return sign + string(buf) + "." + frac
}
