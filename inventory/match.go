package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MatchSpec is the set of independent predicates, originating from a
// reducing posting's CostSpec, that filter candidate lots before a booking
// method picks among them. A nil field is a wildcard that matches anything.
type MatchSpec struct {
	Number   *decimal.Decimal
	Currency string // empty means wildcard; only meaningful when the posting's cost has an explicit currency
	Date     *time.Time
	Label    *string
}

// AmbiguousMatchError is returned by STRICT when a reduction's MatchSpec
// selects more than one candidate lot.
type AmbiguousMatchError struct {
	Currency  string
	Candidate []*Lot
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous lot match for %s: %d lots satisfy the cost spec", e.Currency, len(e.Candidate))
}

// NoMatchingLotError is returned when a reduction's MatchSpec excludes every
// held lot of the posting's currency.
type NoMatchingLotError struct {
	Currency string
}

func (e *NoMatchingLotError) Error() string {
	return fmt.Sprintf("no lot of %s matches the given cost spec", e.Currency)
}

// InsufficientUnitsError is returned when a reduction would remove more
// units than a matched lot (or the merged AVERAGE lot) holds, under a
// booking method that forbids overreduction.
type InsufficientUnitsError struct {
	Currency   string
	Requested  decimal.Decimal
	Available  decimal.Decimal
}

func (e *InsufficientUnitsError) Error() string {
	return fmt.Sprintf("reducing %s %s but only %s available", e.Requested.String(), e.Currency, e.Available.String())
}

// candidates returns the lots of the given currency whose resolved cost
// satisfies every non-wildcard predicate in spec.
func (inv *Inventory) candidates(currency string, spec MatchSpec) []*Lot {
	var out []*Lot
	for _, lot := range inv.lots {
		if lot.Currency != currency {
			continue
		}
		if !matches(lot, spec) {
			continue
		}
		out = append(out, lot)
	}
	return out
}

func matches(lot *Lot, spec MatchSpec) bool {
	if spec.Number != nil {
		if lot.Cost == nil || !lot.Cost.Number.Equal(*spec.Number) {
			return false
		}
	}
	if spec.Currency != "" {
		if lot.Cost == nil || lot.Cost.Currency != spec.Currency {
			return false
		}
	}
	if spec.Date != nil {
		if lot.Cost == nil || !lot.Cost.Date.Equal(*spec.Date) {
			return false
		}
	}
	if spec.Label != nil {
		if lot.Cost == nil || lot.Cost.Label != *spec.Label {
			return false
		}
	}
	return true
}

// Reduction is one (lot, units) pair consumed by a reducing posting. A
// single reduction can span more than one lot, e.g. FIFO eating through two
// lots to satisfy one posting.
type Reduction struct {
	Lot   *Lot
	Units decimal.Decimal // always positive; caller applies the posting's sign
}

// Reduce removes `units` (positive) of `currency` from the inventory,
// selecting lots per method and spec, and returns the lots consumed. It
// mutates the inventory in place: fully consumed lots are removed, partially
// consumed lots have their Units reduced.
func (inv *Inventory) Reduce(method BookingMethod, currency string, units decimal.Decimal, spec MatchSpec) ([]Reduction, error) {
	if method == NONE {
		// NONE books the reduction directly without lot matching; inventory
		// may go negative. It is booked as a single lot carrying whatever cost
		// fields the spec names (costless when the spec is empty), merged into
		// an existing lot with the same cost.
		lot := inv.Add(units.Neg(), currency, costFromSpec(spec))
		return []Reduction{{Lot: lot, Units: units}}, nil
	}

	if method == AVERAGE {
		return inv.reduceAverage(currency, units, spec)
	}

	candidates := inv.candidates(currency, spec)
	if len(candidates) == 0 {
		return nil, &NoMatchingLotError{Currency: currency}
	}

	switch method {
	case STRICT:
		if len(candidates) > 1 {
			return nil, &AmbiguousMatchError{Currency: currency, Candidate: candidates}
		}
		return inv.reduceFrom(candidates, units)

	case FIFO:
		sortLotsChrono(candidates, true)
		return inv.reduceAcross(candidates, units)

	case LIFO:
		sortLotsChrono(candidates, false)
		return inv.reduceAcross(candidates, units)

	case HIFO:
		sortLotsByCost(candidates)
		return inv.reduceAcross(candidates, units)

	default:
		return nil, fmt.Errorf("unsupported booking method %s", method)
	}
}

// reduceFrom consumes a single lot entirely or partially for `units`.
func (inv *Inventory) reduceFrom(candidates []*Lot, units decimal.Decimal) ([]Reduction, error) {
	lot := candidates[0]
	if units.GreaterThan(lot.Units) {
		return nil, &InsufficientUnitsError{Currency: lot.Currency, Requested: units, Available: lot.Units}
	}
	lot.Units = lot.Units.Sub(units)
	if lot.Units.IsZero() {
		inv.removeLot(lot)
	}
	return []Reduction{{Lot: lot, Units: units}}, nil
}

// reduceAcross consumes lots in the given priority order until `units` is
// satisfied, spilling into the next lot once the current one is exhausted.
func (inv *Inventory) reduceAcross(ordered []*Lot, units decimal.Decimal) ([]Reduction, error) {
	remaining := units
	var reductions []Reduction

	for _, lot := range ordered {
		if remaining.IsZero() {
			break
		}
		take := lot.Units
		if take.GreaterThan(remaining) {
			take = remaining
		}
		lot.Units = lot.Units.Sub(take)
		remaining = remaining.Sub(take)
		reductions = append(reductions, Reduction{Lot: lot, Units: take})
		if lot.Units.IsZero() {
			inv.removeLot(lot)
		}
	}

	if remaining.IsPositive() {
		total := decimal.Zero
		for _, lot := range ordered {
			total = total.Add(lot.Units)
		}
		for _, r := range reductions {
			total = total.Add(r.Units)
		}
		return nil, &InsufficientUnitsError{Currency: ordered[0].Currency, Requested: units, Available: total}
	}

	return reductions, nil
}

// reduceAverage merges every candidate lot of the currency into one
// average-cost lot, then reduces proportionally from it.
func (inv *Inventory) reduceAverage(currency string, units decimal.Decimal, spec MatchSpec) ([]Reduction, error) {
	candidates := inv.candidates(currency, MatchSpec{})
	if len(candidates) == 0 {
		return nil, &NoMatchingLotError{Currency: currency}
	}

	totalUnits := decimal.Zero
	totalCost := decimal.Zero
	costCurrency := ""
	for _, lot := range candidates {
		totalUnits = totalUnits.Add(lot.Units)
		if lot.Cost != nil {
			totalCost = totalCost.Add(lot.Units.Mul(lot.Cost.Number))
			costCurrency = lot.Cost.Currency
		}
	}

	if units.GreaterThan(totalUnits) {
		return nil, &InsufficientUnitsError{Currency: currency, Requested: units, Available: totalUnits}
	}

	var avgCost *Cost
	if costCurrency != "" && !totalUnits.IsZero() {
		avgCost = &Cost{Number: totalCost.Div(totalUnits), Currency: costCurrency}
	}

	for _, lot := range candidates {
		inv.removeLot(lot)
	}
	merged := totalUnits.Sub(units)
	if merged.IsPositive() {
		inv.Add(merged, currency, avgCost)
	}

	return []Reduction{{Lot: &Lot{Units: units, Currency: currency, Cost: avgCost}, Units: units}}, nil
}

func costFromSpec(spec MatchSpec) *Cost {
	if spec.Number == nil && spec.Currency == "" && spec.Date == nil && spec.Label == nil {
		return nil
	}
	c := &Cost{Currency: spec.Currency}
	if spec.Number != nil {
		c.Number = *spec.Number
	}
	if spec.Date != nil {
		c.Date = *spec.Date
	}
	if spec.Label != nil {
		c.Label = *spec.Label
	}
	return c
}

// sortLotsChrono orders candidates by acquisition date (then insertion
// sequence as a tiebreak). ascending=true gives FIFO order, false gives LIFO.
func sortLotsChrono(lots []*Lot, ascending bool) {
	sort.SliceStable(lots, func(i, j int) bool {
		di, dj := lotDate(lots[i]), lotDate(lots[j])
		if !di.Equal(dj) {
			if ascending {
				return di.Before(dj)
			}
			return di.After(dj)
		}
		if ascending {
			return lots[i].seq < lots[j].seq
		}
		return lots[i].seq > lots[j].seq
	})
}

// sortLotsByCost orders candidates from highest to lowest per-unit cost,
// breaking ties by acquisition date (oldest first) then insertion order.
func sortLotsByCost(lots []*Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		ci, cj := lotCostNumber(lots[i]), lotCostNumber(lots[j])
		if !ci.Equal(cj) {
			return ci.GreaterThan(cj)
		}
		di, dj := lotDate(lots[i]), lotDate(lots[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return lots[i].seq < lots[j].seq
	})
}

func lotDate(l *Lot) time.Time {
	if l.Cost == nil {
		return time.Time{}
	}
	return l.Cost.Date
}

func lotCostNumber(l *Lot) decimal.Decimal {
	if l.Cost == nil {
		return decimal.Zero
	}
	return l.Cost.Number
}
