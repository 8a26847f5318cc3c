package booking

import (
	"fmt"

	"github.com/ledgerfold/beancore/ast"
	"github.com/ledgerfold/beancore/inventory"
	"github.com/shopspring/decimal"
)

// leg tracks one posting's state as it moves through the booking steps.
type leg struct {
	raw     *ast.Posting
	units   *Units // nil until resolved; nil Number+omitted Amount means "to be interpolated"
	omitted bool   // true if the raw posting had no Amount at all

	costSpec     *ast.Cost
	resolvedCost *inventory.Cost
	isReduction  bool

	price *Price
}

func (lg *leg) weight() (decimal.Decimal, string) {
	switch {
	case lg.resolvedCost != nil:
		return lg.units.Number.Mul(lg.resolvedCost.Number), lg.resolvedCost.Currency
	case lg.price != nil:
		if lg.price.IsTotal {
			w := lg.price.Number
			if lg.units.Number.IsNegative() {
				w = w.Neg()
			}
			return w, lg.price.Currency
		}
		return lg.units.Number.Mul(lg.price.Number), lg.price.Currency
	default:
		return lg.units.Number, lg.units.Currency
	}
}

// Book runs steps B1-B6 over a single raw transaction against the store's
// per-account inventories, returning the booked transaction or a non-empty
// error list. On error the caller drops the directive from booked_entries,
// per the recovery policy: processing continues with the next directive.
//
// Booking stages every reduction and augmentation against clones of the
// touched accounts' inventories, committing them to the store only once the
// whole transaction books cleanly. A transaction that fails at B6 after B4
// has already reduced one posting's lots (e.g. a three-posting transaction
// where the third leg's residual doesn't close) leaves every account's real
// inventory untouched.
func (s *Store) Book(txn *ast.Transaction) (*Transaction, []*Error) {
	touched := make(map[string]bool, len(txn.Postings))
	for _, p := range txn.Postings {
		touched[string(p.Account)] = true
	}
	work := &workingSet{store: s, clones: make(map[string]*inventory.Inventory, len(touched))}
	for account := range touched {
		work.clones[account] = s.Inventory(account).Clone()
	}

	result, errs := work.book(txn)
	if len(errs) > 0 {
		return nil, errs
	}
	for account, inv := range work.clones {
		s.inventories[account] = inv
	}
	return result, nil
}

// workingSet stages the inventories touched by a single transaction so that
// Book can discard them on error instead of committing partial bookings.
type workingSet struct {
	store  *Store
	clones map[string]*inventory.Inventory
}

func (w *workingSet) inventory(account string) *inventory.Inventory {
	return w.clones[account]
}

func (w *workingSet) method(account string) inventory.BookingMethod {
	return w.store.Method(account)
}

func (w *workingSet) book(txn *ast.Transaction) (*Transaction, []*Error) {
	legs := make([]*leg, 0, len(txn.Postings))
	var errs []*Error

	// B1 — currency inference.
	for _, p := range txn.Postings {
		lg := &leg{raw: p, costSpec: p.Cost}

		if p.Amount == nil {
			lg.omitted = true
			legs = append(legs, lg)
			continue
		}

		number, err := ParseAmount(p.Amount)
		if err != nil {
			errs = append(errs, newError(KindUnresolvedCurrency, p.Pos, "%v", err))
			continue
		}

		currency := p.Amount.Currency
		if currency == "" {
			switch {
			case p.Price != nil && p.Price.Currency != "":
				currency = p.Price.Currency
			case p.Cost != nil && p.Cost.NumberPer != nil && p.Cost.NumberPer.Currency != "":
				currency = p.Cost.NumberPer.Currency
			case p.Cost != nil && p.Cost.NumberTotal != nil && p.Cost.NumberTotal.Currency != "":
				currency = p.Cost.NumberTotal.Currency
			default:
				errs = append(errs, newError(KindUnresolvedCurrency, p.Pos,
					"posting on %s has no currency and none can be inherited from price or cost", p.Account))
				continue
			}
		}

		lg.units = &Units{Number: number, Currency: currency}

		if p.Price != nil {
			priceNumber, err := ParseAmount(p.Price)
			if err != nil {
				errs = append(errs, newError(KindUnresolvedCurrency, p.Pos, "invalid price: %v", err))
				continue
			}
			lg.price = &Price{Number: priceNumber, Currency: p.Price.Currency, IsTotal: p.PriceTotal}
		}

		legs = append(legs, lg)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	// B2 — cost resolution (the portion determinable without touching inventory).
	for _, lg := range legs {
		if lg.costSpec == nil || lg.omitted {
			continue
		}
		cs := lg.costSpec

		if cs.IsMerge {
			lg.isReduction = true
			continue
		}

		switch {
		case cs.NumberPer != nil:
			number, err := ParseAmount(cs.NumberPer)
			if err != nil {
				errs = append(errs, newError(KindMissingCostNumber, lg.raw.Pos, "invalid cost amount: %v", err))
				continue
			}
			if cs.NumberPer.Currency == "" {
				errs = append(errs, newError(KindMissingCostNumber, lg.raw.Pos, "cost has no currency"))
				continue
			}
			lg.resolvedCost = &inventory.Cost{Number: number, Currency: cs.NumberPer.Currency, Label: cs.Label}
			lg.isReduction = lg.units.Number.IsNegative()

		case cs.NumberTotal != nil:
			if lg.units.Number.IsZero() {
				errs = append(errs, newError(KindMissingCostNumber, lg.raw.Pos, "cannot use total cost with zero units"))
				continue
			}
			totalNumber, err := ParseAmount(cs.NumberTotal)
			if err != nil {
				errs = append(errs, newError(KindMissingCostNumber, lg.raw.Pos, "invalid total cost amount: %v", err))
				continue
			}
			if cs.NumberTotal.Currency == "" {
				errs = append(errs, newError(KindMissingCostNumber, lg.raw.Pos, "total cost has no currency"))
				continue
			}
			perUnit := totalNumber.Div(lg.units.Number.Abs())
			lg.resolvedCost = &inventory.Cost{Number: perUnit, Currency: cs.NumberTotal.Currency, Label: cs.Label}
			lg.isReduction = lg.units.Number.IsNegative()

		default:
			// Empty {} or match-predicates-only: a reduction whose cost
			// number is resolved later from the matched lot.
			lg.isReduction = true
		}

		if lg.resolvedCost != nil && cs.Date != nil {
			lg.resolvedCost.Date = cs.Date.Time
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	// Default missing cost dates to the transaction date for augmentations.
	for _, lg := range legs {
		if lg.resolvedCost != nil && !lg.isReduction && lg.resolvedCost.Date.IsZero() {
			lg.resolvedCost.Date = txn.Date.Time
		}
	}

	// B3 — interpolate at most one missing-amount posting.
	omittedLegs := make([]*leg, 0, 1)
	for _, lg := range legs {
		if lg.omitted {
			omittedLegs = append(omittedLegs, lg)
		}
	}
	if len(omittedLegs) > 1 {
		return nil, []*Error{newError(KindTooManyAutoPostings, txn.Pos,
			"%d postings omit an amount; at most one is allowed", len(omittedLegs))}
	}

	residual := map[string]decimal.Decimal{}
	for _, lg := range legs {
		if lg.omitted {
			continue
		}
		amt, cur := lg.weight()
		residual[cur] = residual[cur].Add(amt)
	}

	if len(omittedLegs) == 1 {
		nonZero := make([]string, 0, len(residual))
		for cur, amt := range residual {
			if !amt.IsZero() {
				nonZero = append(nonZero, cur)
			}
		}
		switch len(nonZero) {
		case 0:
			omittedLegs[0].units = &Units{Number: decimal.Zero, Currency: fallbackCurrency(residual)}
		case 1:
			cur := nonZero[0]
			omittedLegs[0].units = &Units{Number: residual[cur].Neg(), Currency: cur}
		default:
			return nil, []*Error{newError(KindTransactionDoesNotBalance, txn.Pos,
				"cannot infer a single currency for the omitted posting: residual spans %v", nonZero)}
		}
	} else {
		tol := toleranceFromResidualLegs(legs)
		var unbalanced []string
		for cur, amt := range residual {
			if amt.Abs().GreaterThan(tol[cur]) {
				unbalanced = append(unbalanced, fmt.Sprintf("%s %s", amt.String(), cur))
			}
		}
		if len(unbalanced) > 0 {
			err := newError(KindTransactionDoesNotBalance, txn.Pos,
				"transaction does not balance: %v", unbalanced)
			err.Residuals = residual
			return nil, []*Error{err}
		}
	}

	// B4 — reductions, then B5 — augmentations.
	for _, lg := range legs {
		if !lg.isReduction {
			continue
		}
		account := string(lg.raw.Account)
		inv := w.inventory(account)
		method := w.method(account)
		if lg.costSpec != nil && lg.costSpec.IsMerge {
			method = inventory.AVERAGE
		}

		spec := inventory.MatchSpec{}
		if lg.resolvedCost != nil {
			n := lg.resolvedCost.Number
			spec.Number = &n
			spec.Currency = lg.resolvedCost.Currency
		}
		if lg.costSpec != nil {
			if lg.costSpec.Date != nil {
				spec.Date = &lg.costSpec.Date.Time
			}
			if lg.costSpec.Label != "" {
				label := lg.costSpec.Label
				spec.Label = &label
			}
		}

		reductions, err := inv.Reduce(method, lg.units.Currency, lg.units.Number.Abs(), spec)
		if err != nil {
			errs = append(errs, classifyInventoryError(lg.raw.Pos, err))
			continue
		}
		lg.resolvedCost = reductions[0].Lot.Cost
	}
	if len(errs) > 0 {
		return nil, errs
	}

	for _, lg := range legs {
		if lg.isReduction {
			continue
		}
		account := string(lg.raw.Account)
		w.inventory(account).Add(lg.units.Number, lg.units.Currency, lg.resolvedCost)
	}

	// B6 — balance closure, authoritative now that every cost is resolved.
	final := map[string]decimal.Decimal{}
	for _, lg := range legs {
		amt, cur := lg.weight()
		final[cur] = final[cur].Add(amt)
	}
	tol := toleranceFromResidualLegs(legs)
	var unbalanced []string
	for cur, amt := range final {
		if amt.Abs().GreaterThan(tol[cur]) {
			unbalanced = append(unbalanced, fmt.Sprintf("%s %s", amt.String(), cur))
		}
	}
	if len(unbalanced) > 0 {
		err := newError(KindTransactionDoesNotBalance, txn.Pos,
			"transaction does not balance after booking: %v", unbalanced)
		err.Residuals = final
		return nil, []*Error{err}
	}

	postings := make([]*Posting, 0, len(legs))
	for _, lg := range legs {
		postings = append(postings, &Posting{
			Pos:          lg.raw.Pos,
			Flag:         lg.raw.Flag,
			Account:      lg.raw.Account,
			Units:        *lg.units,
			Cost:         lg.resolvedCost,
			Price:        lg.price,
			Meta:         lg.raw.Metadata,
			Interpolated: lg.omitted,
		})
	}

	return &Transaction{
		Pos:       txn.Pos,
		Date:      txn.Date,
		Flag:      txn.Flag,
		Payee:     txn.Payee.Value,
		Narration: txn.Narration.Value,
		Tags:      txn.Tags,
		Links:     txn.Links,
		Meta:      txn.Metadata,
		Postings:  postings,
	}, nil
}

func fallbackCurrency(residual map[string]decimal.Decimal) string {
	for cur := range residual {
		return cur
	}
	return ""
}

// toleranceFromResidualLegs computes the per-currency tolerance as half the
// smallest decimal exponent observed across the transaction's resolved,
// non-zero postings in that currency.
func toleranceFromResidualLegs(legs []*leg) map[string]decimal.Decimal {
	minExp := map[string]int32{}
	for _, lg := range legs {
		if lg.omitted || lg.units == nil {
			continue
		}
		amt, cur := lg.weight()
		if amt.IsZero() {
			continue
		}
		exp := amt.Exponent()
		if existing, ok := minExp[cur]; !ok || exp < existing {
			minExp[cur] = exp
		}
	}
	tol := make(map[string]decimal.Decimal, len(minExp))
	for cur, exp := range minExp {
		tol[cur] = decimal.New(1, exp).Mul(decimal.NewFromFloat(0.5))
	}
	return tol
}

func classifyInventoryError(pos ast.Position, err error) *Error {
	switch err.(type) {
	case *inventory.AmbiguousMatchError:
		return newError(KindAmbiguousMatch, pos, "%v", err)
	case *inventory.NoMatchingLotError:
		return newError(KindNoMatchingLots, pos, "%v", err)
	case *inventory.InsufficientUnitsError:
		return newError(KindNoMatchingLots, pos, "%v", err)
	default:
		return newError(KindNoMatchingLots, pos, "%v", err)
	}
}
