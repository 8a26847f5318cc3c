// Package inventory implements the per-account lot inventory that the
// booking engine reduces and augments: a multiset of lots keyed by currency
// and an optional resolved cost, supporting the STRICT, NONE, AVERAGE, FIFO,
// LIFO and HIFO booking methods.
package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// BookingMethod selects how a reducing posting is matched against existing
// lots when its CostSpec does not pin down a single lot.
type BookingMethod int

const (
	// STRICT requires every reduction to match exactly one lot; more than
	// one candidate lot is a hard error.
	STRICT BookingMethod = iota
	// NONE allows inventory to go negative; reductions are applied directly
	// without matching against existing lots.
	NONE
	// AVERAGE merges all lots of a currency into a single average-cost lot.
	AVERAGE
	// FIFO reduces the oldest lot (by acquisition date, then insertion order) first.
	FIFO
	// LIFO reduces the newest lot first.
	LIFO
	// HIFO reduces the highest-cost lot first.
	HIFO
)

func (m BookingMethod) String() string {
	switch m {
	case STRICT:
		return "STRICT"
	case NONE:
		return "NONE"
	case AVERAGE:
		return "AVERAGE"
	case FIFO:
		return "FIFO"
	case LIFO:
		return "LIFO"
	case HIFO:
		return "HIFO"
	default:
		return "UNKNOWN"
	}
}

// ParseBookingMethod maps the textual method name used in `option "booking_method"`
// and Open directives to a BookingMethod. Defaults to STRICT when name is empty.
func ParseBookingMethod(name string) (BookingMethod, error) {
	switch name {
	case "", "STRICT":
		return STRICT, nil
	case "NONE":
		return NONE, nil
	case "AVERAGE":
		return AVERAGE, nil
	case "FIFO":
		return FIFO, nil
	case "LIFO":
		return LIFO, nil
	case "HIFO":
		return HIFO, nil
	default:
		return STRICT, fmt.Errorf("unknown booking method %q", name)
	}
}

// Cost is a fully resolved, per-unit cost basis attached to a lot. It is
// distinct from a CostSpec: by the time a Cost exists, any number_total has
// already been divided down to a per-unit Number and any match-only fields
// have been resolved against a specific lot.
type Cost struct {
	Number   decimal.Decimal
	Currency string
	Date     time.Time
	Label    string
}

// Equal reports whether two resolved costs describe the same lot key.
func (c Cost) Equal(o Cost) bool {
	return c.Number.Equal(o.Number) && c.Currency == o.Currency && c.Date.Equal(o.Date) && c.Label == o.Label
}

func (c Cost) String() string {
	s := fmt.Sprintf("{%s %s", c.Number.String(), c.Currency)
	if !c.Date.IsZero() {
		s += ", " + c.Date.Format("2006-01-02")
	}
	if c.Label != "" {
		s += fmt.Sprintf(", %q", c.Label)
	}
	return s + "}"
}

// Lot is a single acquired position: some number of Units of Currency,
// optionally carrying a resolved Cost. A lot with a nil Cost is a plain
// position with no cost basis tracking.
type Lot struct {
	Units    decimal.Decimal
	Currency string
	Cost     *Cost

	// seq records insertion order, used to break ties in FIFO/LIFO and to
	// keep iteration deterministic.
	seq int
}

func (l *Lot) String() string {
	if l.Cost == nil {
		return fmt.Sprintf("%s %s", l.Units.String(), l.Currency)
	}
	return fmt.Sprintf("%s %s %s", l.Units.String(), l.Currency, l.Cost.String())
}

// Inventory holds the lots currently held by one account, across all
// currencies. It is not safe for concurrent use.
type Inventory struct {
	lots    []*Lot
	nextSeq int
}

// New returns an empty inventory.
func New() *Inventory {
	return &Inventory{}
}

// Lots returns a snapshot slice of the held lots. Callers must not mutate
// the returned lots in place.
func (inv *Inventory) Lots() []*Lot {
	out := make([]*Lot, len(inv.lots))
	copy(out, inv.lots)
	return out
}

// Clone returns a deep copy of the inventory. Used by the booking engine to
// stage a transaction's reductions and augmentations against a scratch copy,
// committing only once every posting in the transaction has booked cleanly.
func (inv *Inventory) Clone() *Inventory {
	out := &Inventory{nextSeq: inv.nextSeq, lots: make([]*Lot, len(inv.lots))}
	for i, lot := range inv.lots {
		cp := *lot
		if lot.Cost != nil {
			costCp := *lot.Cost
			cp.Cost = &costCp
		}
		out.lots[i] = &cp
	}
	return out
}

// IsEmpty reports whether the inventory holds no lots.
func (inv *Inventory) IsEmpty() bool {
	return len(inv.lots) == 0
}

// Balance returns the total units held for a currency, ignoring cost.
func (inv *Inventory) Balance(currency string) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range inv.lots {
		if lot.Currency == currency {
			total = total.Add(lot.Units)
		}
	}
	return total
}

// Get is an alias for Balance, matching the accessor name account reporting
// code expects.
func (inv *Inventory) Get(currency string) decimal.Decimal {
	return inv.Balance(currency)
}

// Currencies returns the distinct currencies held across all lots, sorted.
func (inv *Inventory) Currencies() []string {
	seen := make(map[string]bool)
	var out []string
	for _, lot := range inv.lots {
		if !seen[lot.Currency] {
			seen[lot.Currency] = true
			out = append(out, lot.Currency)
		}
	}
	sort.Strings(out)
	return out
}

// Add augments the inventory with units of a currency and an optional cost.
// If an existing lot already carries the identical resolved cost (or both
// are costless), units are merged into it; otherwise a new lot is appended.
func (inv *Inventory) Add(units decimal.Decimal, currency string, cost *Cost) *Lot {
	for _, lot := range inv.lots {
		if lot.Currency != currency {
			continue
		}
		if sameCost(lot.Cost, cost) {
			lot.Units = lot.Units.Add(units)
			return lot
		}
	}

	lot := &Lot{Units: units, Currency: currency, Cost: cost, seq: inv.nextSeq}
	inv.nextSeq++
	inv.lots = append(inv.lots, lot)
	return lot
}

// removeLot deletes a lot (by pointer identity) once its units reach zero.
func (inv *Inventory) removeLot(target *Lot) {
	for i, lot := range inv.lots {
		if lot == target {
			inv.lots = append(inv.lots[:i], inv.lots[i+1:]...)
			return
		}
	}
}

func sameCost(a, b *Cost) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Equal(*b)
}
