// Package booking implements the hard core of the ledger: turning raw,
// syntactic transactions into booked transactions whose postings carry a
// fully resolved amount and, where relevant, a fully resolved cost — by
// running currency inference, cost resolution, single-amount interpolation,
// lot-matching reductions, lot augmentations and balance closure over each
// transaction in date order.
//
// Booked postings are a disjoint type from the raw ast.Posting: a
// Posting here always has a resolved Units amount, never a nullable
// placeholder standing in for "not yet known".
package booking

import (
	"github.com/ledgerfold/beancore/ast"
	"github.com/ledgerfold/beancore/inventory"
	"github.com/shopspring/decimal"
)

// Units is a fully resolved quantity: a decimal number paired with its
// currency. Unlike ast.Amount, both fields are always populated on a booked
// posting (P2 in the invariants this package exists to uphold).
type Units struct {
	Number   decimal.Decimal
	Currency string
}

func (u Units) String() string {
	return u.Number.String() + " " + u.Currency
}

// Price is an optional conversion annotation retained for informational
// display; it never contributes to a posting's weight when a Cost is present.
type Price struct {
	Number decimal.Decimal
	Currency string
	IsTotal  bool
}

// Posting is one leg of a Transaction after booking: its Units are always
// resolved, and Cost, if any, is a fully resolved inventory.Cost rather than
// the partial CostSpec the parser produced.
type Posting struct {
	Pos     ast.Position
	Flag    string
	Account ast.Account
	Units   Units
	Cost    *inventory.Cost
	Price   *Price
	Meta    []*ast.Metadata

	// Interpolated marks postings whose Units were filled in by step B3
	// rather than stated explicitly in the source.
	Interpolated bool
}

// Transaction is a Transaction after booking: every posting balances within
// tolerance and every Units field is resolved.
type Transaction struct {
	Pos       ast.Position
	Date      *ast.Date
	Flag      string
	Payee     string
	Narration string
	Tags      []ast.Tag
	Links     []ast.Link
	Meta      []*ast.Metadata
	Postings  []*Posting
}
