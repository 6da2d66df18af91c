package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/supply-ledger/internal/domain/entity"
)

// OpeningRowLabel descripción de la fila de saldo inicial de la tarjeta.
const OpeningRowLabel = "Balance brought forward"

// StockCardRow fila de la tarjeta de existencias con su saldo acumulado.
type StockCardRow struct {
	MovementID  string
	Date        time.Time
	Reference   string
	Kind        entity.MovementKind
	Direction   entity.Direction
	Description string
	Custodian   string
	Department  string
	Received    int64
	Issued      int64
	Balance     int64
	UnitCost    decimal.Decimal
	TotalValue  decimal.Decimal
}

// StockCard tarjeta de existencias de un ítem para un rango de fechas.
type StockCard struct {
	ItemID        string
	Code          string
	Name          string
	Unit          string
	UnitCost      decimal.Decimal
	From          *time.Time
	To            *time.Time
	Opening       int64
	Closing       int64
	TotalReceived int64
	TotalIssued   int64
	Rows          []StockCardRow
}

// BuildStockCard arma la tarjeta de existencias. movements es el historial completo del ítem;
// el saldo inicial acumula todo lo anterior a from. El costo es el atributo del ítem (sin costeo).
func BuildStockCard(item *entity.Item, movements []*entity.Movement, from, to *time.Time) *StockCard {
	ordered := make([]*entity.Movement, len(movements))
	copy(ordered, movements)
	sortMovements(ordered)

	card := &StockCard{
		ItemID:   item.ID,
		Code:     item.Code,
		Name:     item.Name,
		Unit:     item.Unit,
		UnitCost: item.UnitCost,
		From:     from,
		To:       to,
	}

	var inRange []*entity.Movement
	for _, m := range ordered {
		if from != nil && m.EffectiveAt.Before(*from) {
			card.Opening += m.Delta()
			continue
		}
		if to != nil && m.EffectiveAt.After(*to) {
			break
		}
		inRange = append(inRange, m)
	}

	openingDate := time.Time{}
	if from != nil {
		openingDate = *from
	} else if len(inRange) > 0 {
		openingDate = inRange[0].EffectiveAt
	}
	card.Rows = append(card.Rows, StockCardRow{
		Date:        openingDate,
		Description: OpeningRowLabel,
		Balance:     card.Opening,
		UnitCost:    item.UnitCost,
		TotalValue:  valueOf(card.Opening, item.UnitCost),
	})

	balance := card.Opening
	for _, m := range inRange {
		balance += m.Delta()
		row := StockCardRow{
			MovementID:  m.ID,
			Date:        m.EffectiveAt,
			Reference:   m.Reference,
			Kind:        m.Direction.Kind(),
			Direction:   m.Direction,
			Description: m.Purpose,
			Custodian:   m.Custodian,
			Department:  m.Department,
			Balance:     balance,
			UnitCost:    item.UnitCost,
			TotalValue:  valueOf(balance, item.UnitCost),
		}
		if m.Direction.Decreases() {
			row.Issued = m.Quantity
			card.TotalIssued += m.Quantity
		} else {
			row.Received = m.Quantity
			card.TotalReceived += m.Quantity
		}
		card.Rows = append(card.Rows, row)
	}
	card.Closing = balance
	return card
}

func valueOf(qty int64, unitCost decimal.Decimal) decimal.Decimal {
	return unitCost.Mul(decimal.NewFromInt(qty))
}

func sortMovements(ms []*entity.Movement) {
	sort.SliceStable(ms, func(i, j int) bool { return Less(EntryOf(ms[i]), EntryOf(ms[j])) })
}
