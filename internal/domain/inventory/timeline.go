package inventory

import (
	"sort"
	"time"

	"github.com/jhoicas/supply-ledger/internal/domain/entity"
)

// Entry movimiento reducido a su clave de orden y su delta con signo.
type Entry struct {
	EffectiveAt time.Time
	CreatedAt   time.Time
	Seq         int64
	Delta       int64
}

// EntryOf convierte un movimiento persistido en entrada de la línea de tiempo.
func EntryOf(m *entity.Movement) Entry {
	return Entry{EffectiveAt: m.EffectiveAt, CreatedAt: m.CreatedAt, Seq: m.Seq, Delta: m.Delta()}
}

// Less orden del ledger: fecha efectiva, luego fecha de creación, luego secuencia de commit.
func Less(a, b Entry) bool {
	if !a.EffectiveAt.Equal(b.EffectiveAt) {
		return a.EffectiveAt.Before(b.EffectiveAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Seq < b.Seq
}

// Timeline historial ordenado de un ítem. El saldo en cualquier punto es la suma de los deltas previos.
type Timeline struct {
	entries []Entry
}

// NewTimeline ordena las entradas recibidas.
func NewTimeline(entries []Entry) *Timeline {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return Less(sorted[i], sorted[j]) })
	return &Timeline{entries: sorted}
}

// FromMovements construye la línea de tiempo a partir del historial de un ítem.
func FromMovements(ms []*entity.Movement) *Timeline {
	entries := make([]Entry, 0, len(ms))
	for _, m := range ms {
		entries = append(entries, EntryOf(m))
	}
	return NewTimeline(entries)
}

func (t *Timeline) Len() int { return len(t.entries) }

// Entries copia de las entradas en orden.
func (t *Timeline) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// MaxSeq mayor secuencia presente (0 si está vacía).
func (t *Timeline) MaxSeq() int64 {
	var max int64
	for _, e := range t.entries {
		if e.Seq > max {
			max = e.Seq
		}
	}
	return max
}

// Total suma de todos los deltas.
func (t *Timeline) Total() int64 {
	var sum int64
	for _, e := range t.entries {
		sum += e.Delta
	}
	return sum
}

// BalanceAt saldo con los movimientos cuya fecha efectiva es <= asOf. No se ajusta a cero.
func (t *Timeline) BalanceAt(asOf time.Time) int64 {
	var sum int64
	for _, e := range t.entries {
		if e.EffectiveAt.After(asOf) {
			break
		}
		sum += e.Delta
	}
	return sum
}

// BalanceBefore saldo con los movimientos de fecha efectiva estrictamente anterior a t0.
func (t *Timeline) BalanceBefore(t0 time.Time) int64 {
	var sum int64
	for _, e := range t.entries {
		if !e.EffectiveAt.Before(t0) {
			break
		}
		sum += e.Delta
	}
	return sum
}

// Position índice donde se insertaría e manteniendo el orden.
func (t *Timeline) Position(e Entry) int {
	return sort.Search(len(t.entries), func(i int) bool { return Less(e, t.entries[i]) })
}

// AvailableAt cantidad máxima que puede restarse en la posición pos sin que ningún
// saldo acumulado desde ese punto quede negativo: el mínimo de los prefijos desde pos.
func (t *Timeline) AvailableAt(pos int) int64 {
	var running int64
	for i := 0; i < pos && i < len(t.entries); i++ {
		running += t.entries[i].Delta
	}
	min := running
	for i := pos; i < len(t.entries); i++ {
		running += t.entries[i].Delta
		if running < min {
			min = running
		}
	}
	return min
}

// Insert agrega e en su posición y devuelve el índice.
func (t *Timeline) Insert(e Entry) int {
	pos := t.Position(e)
	t.entries = append(t.entries, Entry{})
	copy(t.entries[pos+1:], t.entries[pos:])
	t.entries[pos] = e
	return pos
}

// FirstNegative primer prefijo con saldo negativo, su índice y su saldo.
func (t *Timeline) FirstNegative() (int, int64, bool) {
	var running int64
	for i, e := range t.entries {
		running += e.Delta
		if running < 0 {
			return i, running, true
		}
	}
	return -1, 0, false
}
