package ledger

import (
	"fmt"

	"github.com/ledgerfold/beancore/ast"
	"github.com/ledgerfold/beancore/booking"
	"github.com/shopspring/decimal"
)

// Delta Architecture
//
// Handlers validate a directive with read-only access to ledger state and
// return a delta describing the mutation to apply. This keeps validation
// pure: a directive that fails validation never touches graph, store, or
// account state, and every successful validation produces a plain struct
// that Apply can replay without re-deriving anything.

// OpenDelta carries the properties of an account being opened.
type OpenDelta struct {
	Account              ast.Account
	BookingMethod        string
	OpenDate             *ast.Date
	ConstraintCurrencies []string
	Metadata             []*ast.Metadata
}

func (d *OpenDelta) String() string {
	return fmt.Sprintf("open %s on %s", d.Account, d.OpenDate.Format("2006-01-02"))
}

// CloseDelta carries the account being closed and its close date.
type CloseDelta struct {
	AccountName string
	CloseDate   *ast.Date
}

func (d *CloseDelta) String() string {
	return fmt.Sprintf("close %s on %s", d.AccountName, d.CloseDate.Format("2006-01-02"))
}

// TransactionDelta carries the already-booked transaction (every posting's
// Units and Cost fully resolved by the booking engine) to be recorded
// against each touched account's history.
type TransactionDelta struct {
	Booked *booking.Transaction
}

func (d *TransactionDelta) String() string {
	return fmt.Sprintf("booked transaction on %s with %d posting(s)", d.Booked.Date.Format("2006-01-02"), len(d.Booked.Postings))
}

// BalanceDelta carries the outcome of a balance assertion: the actual and
// expected amounts, and, when a pad directive preceded it, the synthetic
// padding transaction needed to reconcile them.
type BalanceDelta struct {
	AccountName string
	Currency    string

	ExpectedAmount decimal.Decimal
	ActualAmount   decimal.Decimal
	DiffAmount     decimal.Decimal

	PadAccountName       string
	SyntheticTransaction *ast.Transaction
}

// HasPadding reports whether this assertion consumed a pad directive.
func (d *BalanceDelta) HasPadding() bool {
	return d.SyntheticTransaction != nil
}

func (d *BalanceDelta) String() string {
	return fmt.Sprintf("balance %s: expected %s %s, actual %s %s",
		d.AccountName, d.ExpectedAmount.String(), d.Currency, d.ActualAmount.String(), d.Currency)
}

// PadDelta carries a pad directive to be stored for the next balance
// assertion against the same account.
type PadDelta struct {
	AccountName string
	Pad         *ast.Pad
}

func (d *PadDelta) String() string {
	return fmt.Sprintf("pad %s from %s", d.Pad.Account, d.Pad.AccountPad)
}

// NoteDelta carries a note directive through to Apply, which is a no-op:
// notes are documentation only and mutate no ledger state.
type NoteDelta struct {
	Note *ast.Note
}

func (d *NoteDelta) String() string {
	return fmt.Sprintf("note on %s: %s", d.Note.Account, d.Note.Description)
}

// DocumentDelta carries a document directive through to Apply, which is a
// no-op: documents are documentation only and mutate no ledger state.
type DocumentDelta struct {
	Document *ast.Document
}

func (d *DocumentDelta) String() string {
	return fmt.Sprintf("document on %s: %s", d.Document.Account, d.Document.PathToDocument)
}

// CommodityDelta carries the properties of a commodity declaration.
type CommodityDelta struct {
	CommodityID string
	Date        *ast.Date
	Metadata    []*ast.Metadata
}

func (d *CommodityDelta) String() string {
	return fmt.Sprintf("commodity %s on %s", d.CommodityID, d.Date.Format("2006-01-02"))
}
