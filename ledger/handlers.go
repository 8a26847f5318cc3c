package ledger

import (
	"context"
	"fmt"

	"github.com/ledgerfold/beancore/ast"
	"github.com/ledgerfold/beancore/booking"
	"github.com/shopspring/decimal"
)

// Handler dispatches the two halves of processing a single directive kind.
// Validate runs with read-only access to ledger state and either returns
// errors (the directive is dropped, nothing mutates) or a delta describing
// the mutation Apply should replay. Apply is only ever called with a delta
// Validate itself produced, so it never needs to re-derive or re-check
// anything: it just plays the mutation back.
type Handler interface {
	Validate(ctx context.Context, l *Ledger, directive ast.Directive) ([]error, interface{})
	Apply(ctx context.Context, l *Ledger, directive ast.Directive, delta interface{})
}

var handlers = map[ast.DirectiveKind]Handler{
	ast.KindOpen:        openHandler{},
	ast.KindClose:       closeHandler{},
	ast.KindCommodity:   commodityHandler{},
	ast.KindBalance:     balanceHandler{},
	ast.KindPad:         padHandler{},
	ast.KindTransaction: transactionHandler{},
	ast.KindNote:        noteHandler{},
	ast.KindDocument:    documentHandler{},
	ast.KindPrice:       priceHandler{},
	ast.KindEvent:       eventHandler{},
	ast.KindQuery:       queryHandler{},
	ast.KindCustom:      customHandler{},
}

// GetHandler returns the Handler responsible for validating and applying
// directives of the given kind, or nil if the kind is unrecognized.
func GetHandler(kind ast.DirectiveKind) Handler {
	return handlers[kind]
}

// openHandler processes Open directives: an account may only be opened once.
type openHandler struct{}

func (openHandler) Validate(ctx context.Context, l *Ledger, directive ast.Directive) ([]error, interface{}) {
	open := directive.(*ast.Open)

	if existing, ok := l.GetAccount(string(open.Account)); ok {
		return []error{&AccountAlreadyOpenError{
			Account:    open.Account,
			Date:       open.Date,
			OpenedDate: existing.OpenDate,
		}}, nil
	}

	return nil, &OpenDelta{
		Account:              open.Account,
		BookingMethod:        open.BookingMethod,
		OpenDate:             open.Date,
		ConstraintCurrencies: open.ConstraintCurrencies,
		Metadata:             open.Metadata,
	}
}

func (openHandler) Apply(ctx context.Context, l *Ledger, directive ast.Directive, delta interface{}) {
	open := directive.(*ast.Open)
	l.applyOpen(open, delta.(*OpenDelta), l.config)
}

// closeHandler processes Close directives: an account must have been opened,
// and only once, before it can be closed.
type closeHandler struct{}

func (closeHandler) Validate(ctx context.Context, l *Ledger, directive ast.Directive) ([]error, interface{}) {
	closeDir := directive.(*ast.Close)

	account, ok := l.GetAccount(string(closeDir.Account))
	if !ok {
		return []error{&AccountNotClosedError{Account: closeDir.Account, Date: closeDir.Date}}, nil
	}
	if account.IsClosed() {
		return []error{&AccountAlreadyClosedError{
			Account:    closeDir.Account,
			Date:       closeDir.Date,
			ClosedDate: account.CloseDate,
		}}, nil
	}

	return nil, &CloseDelta{AccountName: string(closeDir.Account), CloseDate: closeDir.Date}
}

func (closeHandler) Apply(ctx context.Context, l *Ledger, directive ast.Directive, delta interface{}) {
	l.applyClose(delta.(*CloseDelta))
}

// transactionHandler processes Transaction directives: every touched account
// must be open on the transaction date, and the booking engine must be able
// to resolve and balance every posting.
type transactionHandler struct{}

func (transactionHandler) Validate(ctx context.Context, l *Ledger, directive ast.Directive) ([]error, interface{}) {
	txn := directive.(*ast.Transaction)

	var errs []error
	for _, posting := range txn.Postings {
		account, ok := l.GetAccount(string(posting.Account))
		if !ok || !account.IsOpen(txn.Date) {
			errs = append(errs, &AccountNotOpenError{Account: posting.Account, Date: txn.Date, Pos: posting.Pos})
		}
	}
	if len(errs) > 0 {
		return errs, nil
	}

	booked, bookErrs := l.store.Book(txn)
	if len(bookErrs) > 0 {
		errs = make([]error, 0, len(bookErrs))
		for _, be := range bookErrs {
			errs = append(errs, translateBookingError(txn, be))
		}
		return errs, nil
	}

	return nil, &TransactionDelta{Booked: booked}
}

func (transactionHandler) Apply(ctx context.Context, l *Ledger, directive ast.Directive, delta interface{}) {
	txn := directive.(*ast.Transaction)
	l.applyTransaction(txn, delta.(*TransactionDelta))
}

// translateBookingError maps a booking.Error onto the ledger's own error
// taxonomy so callers never need to import the booking package to inspect
// processing failures.
func translateBookingError(txn *ast.Transaction, be *booking.Error) error {
	switch be.Kind {
	case booking.KindTransactionDoesNotBalance:
		return &TransactionNotBalancedError{
			Pos:       be.Pos,
			Message:   be.Message,
			Residuals: be.Residuals,
		}
	case booking.KindNoMatchingLots, booking.KindAmbiguousMatch:
		return NewInsufficientInventoryError(txn, accountAtPosition(txn, be.Pos), be)
	}
	return be
}

// accountAtPosition finds the posting in txn whose position matches pos, for
// attributing a booking error raised against a specific leg back to its
// account. Falls back to the transaction's first posting's account when no
// exact match is found (e.g. the error was raised against a synthesized leg).
func accountAtPosition(txn *ast.Transaction, pos ast.Position) ast.Account {
	for _, p := range txn.Postings {
		if p.Pos == pos {
			return p.Account
		}
	}
	if len(txn.Postings) > 0 {
		return txn.Postings[0].Account
	}
	return ""
}

// balanceHandler processes Balance directives: the account must be open
// (once, ever — the active window doesn't apply to balance assertions), and
// the asserted amount must match the account's actual inventory balance
// within tolerance. A pending pad directive on the account absorbs a
// mismatch instead of failing, producing a synthetic padding transaction.
type balanceHandler struct{}

func (balanceHandler) Validate(ctx context.Context, l *Ledger, directive ast.Directive) ([]error, interface{}) {
	bal := directive.(*ast.Balance)

	account, ok := l.GetAccount(string(bal.Account))
	if !ok {
		return []error{&AccountNotOpenError{Account: bal.Account, Date: bal.Date, Pos: bal.Pos}}, nil
	}

	expected, err := ParseAmount(bal.Amount)
	if err != nil {
		return []error{err}, nil
	}
	currency := bal.Amount.Currency
	actual := account.Inventory.Get(currency)

	cfg := l.config
	if cfg == nil {
		cfg = NewConfig()
	}
	// Tolerance comes from the asserted amount's own decimal scale, not the
	// accumulated inventory's: the inventory can carry more decimal places
	// than the user ever typed, and booking computes no tolerance of its
	// own for Balance directives.
	tolerance := InferTolerance([]decimal.Decimal{expected}, currency, cfg.Tolerance)
	diff := actual.Sub(expected)

	delta := &BalanceDelta{
		AccountName:    string(bal.Account),
		Currency:       currency,
		ExpectedAmount: expected,
		ActualAmount:   actual,
		DiffAmount:     diff,
	}

	if diff.Abs().LessThanOrEqual(tolerance) {
		return nil, delta
	}

	if pad, ok := l.padEntries[string(bal.Account)]; ok {
		shortfall := expected.Sub(actual)
		places := -expected.Exponent()
		if places < 0 {
			places = 0
		}
		txn := buildPadTransaction(pad, bal.Account, currency, shortfall, int32(places))

		delta.PadAccountName = string(pad.AccountPad)
		delta.SyntheticTransaction = txn
		return nil, delta
	}

	return []error{&BalanceMismatchError{
		Date:     bal.Date,
		Account:  bal.Account,
		Expected: expected.String(),
		Actual:   actual.String(),
		Currency: currency,
	}}, nil
}

func (balanceHandler) Apply(ctx context.Context, l *Ledger, directive ast.Directive, delta interface{}) {
	bd := delta.(*BalanceDelta)
	l.applyBalance(bd)
	// A pending pad is consumed by the next balance assertion on its account,
	// even when the balance already matches and no padding is needed.
	if _, pending := l.padEntries[bd.AccountName]; pending {
		l.usedPads[bd.AccountName] = true
	}
	if bd.HasPadding() {
		l.usedPads[bd.AccountName] = true
		l.syntheticTransactions = append(l.syntheticTransactions, bd.SyntheticTransaction)
	}
}

// buildPadTransaction synthesizes the "P"-flagged transaction that carries a
// pad's shortfall from AccountPad into account, dated to the pad directive
// (not the balance assertion that triggered it).
func buildPadTransaction(pad *ast.Pad, account ast.Account, currency string, shortfall decimal.Decimal, places int32) *ast.Transaction {
	amountStr := shortfall.StringFixed(places)
	narration := fmt.Sprintf("Padding inserted for balance of %s: %s %s", account, amountStr, currency)

	return &ast.Transaction{
		Pos:       pad.Pos,
		Date:      pad.Date,
		Flag:      "P",
		Narration: ast.NewRawString(narration),
		Postings: []*ast.Posting{
			{
				Pos:     pad.Pos,
				Account: account,
				Amount:  &ast.Amount{Value: amountStr, Currency: currency},
			},
			{
				Pos:     pad.Pos,
				Account: pad.AccountPad,
				Amount:  &ast.Amount{Value: shortfall.Neg().StringFixed(places), Currency: currency},
			},
		},
	}
}

// padHandler processes Pad directives: the pad is recorded against its
// account and consumed by the account's next out-of-tolerance balance
// assertion, in any currency.
type padHandler struct{}

func (padHandler) Validate(ctx context.Context, l *Ledger, directive ast.Directive) ([]error, interface{}) {
	pad := directive.(*ast.Pad)
	return nil, &PadDelta{AccountName: string(pad.Account), Pad: pad}
}

func (padHandler) Apply(ctx context.Context, l *Ledger, directive ast.Directive, delta interface{}) {
	pd := delta.(*PadDelta)
	l.padEntries[pd.AccountName] = pd.Pad
	if _, seen := l.usedPads[pd.AccountName]; !seen {
		l.usedPads[pd.AccountName] = false
	}
}

// commodityHandler processes Commodity directives, which declare or upgrade
// a currency node with descriptive metadata. Multiple declarations of the
// same currency are allowed here; duplicate_commodities is a separate,
// opt-in validator (see validators.go).
type commodityHandler struct{}

func (commodityHandler) Validate(ctx context.Context, l *Ledger, directive ast.Directive) ([]error, interface{}) {
	commodity := directive.(*ast.Commodity)
	return nil, &CommodityDelta{
		CommodityID: commodity.Currency,
		Date:        commodity.Date,
		Metadata:    commodity.Metadata,
	}
}

func (commodityHandler) Apply(ctx context.Context, l *Ledger, directive ast.Directive, delta interface{}) {
	commodity := directive.(*ast.Commodity)
	l.applyCommodity(commodity, delta.(*CommodityDelta))
}

// priceHandler processes Price directives, recording a currency conversion
// edge for the date forward-fill lookups in GetPrice/PriceAt.
type priceHandler struct{}

func (priceHandler) Validate(ctx context.Context, l *Ledger, directive ast.Directive) ([]error, interface{}) {
	price := directive.(*ast.Price)
	if _, err := ParseAmount(price.Amount); err != nil {
		return []error{err}, nil
	}
	return nil, price
}

func (priceHandler) Apply(ctx context.Context, l *Ledger, directive ast.Directive, delta interface{}) {
	l.applyPrice(delta.(*ast.Price))
}

// noteHandler processes Note directives. Notes are documentation only and
// exempt from the active-account window: they attach to an account whether
// or not it's currently open.
type noteHandler struct{}

func (noteHandler) Validate(ctx context.Context, l *Ledger, directive ast.Directive) ([]error, interface{}) {
	note := directive.(*ast.Note)
	return nil, &NoteDelta{Note: note}
}

func (noteHandler) Apply(ctx context.Context, l *Ledger, directive ast.Directive, delta interface{}) {
	// No-op: notes carry no ledger state beyond the AST entry itself.
}

// documentHandler processes Document directives. Like notes, documents are
// exempt from the active-account window; file existence is checked
// separately by the document_files_exist validator.
type documentHandler struct{}

func (documentHandler) Validate(ctx context.Context, l *Ledger, directive ast.Directive) ([]error, interface{}) {
	document := directive.(*ast.Document)
	return nil, &DocumentDelta{Document: document}
}

func (documentHandler) Apply(ctx context.Context, l *Ledger, directive ast.Directive, delta interface{}) {
	// No-op: documents carry no ledger state beyond the AST entry itself.
}

// eventHandler processes Event directives, which record point-in-time
// key/value state with no effect on accounts or inventories.
type eventHandler struct{}

func (eventHandler) Validate(ctx context.Context, l *Ledger, directive ast.Directive) ([]error, interface{}) {
	return nil, nil
}

func (eventHandler) Apply(ctx context.Context, l *Ledger, directive ast.Directive, delta interface{}) {
}

// queryHandler processes Query directives, which declare a named report for
// reporting tools to run on demand; they have no effect during processing.
type queryHandler struct{}

func (queryHandler) Validate(ctx context.Context, l *Ledger, directive ast.Directive) ([]error, interface{}) {
	return nil, nil
}

func (queryHandler) Apply(ctx context.Context, l *Ledger, directive ast.Directive, delta interface{}) {
}

// customHandler processes Custom directives, the generic plugin-data escape
// hatch. Plugins that recognize a given Type read these back out of the
// processed AST; the ledger itself doesn't interpret them.
type customHandler struct{}

func (customHandler) Validate(ctx context.Context, l *Ledger, directive ast.Directive) ([]error, interface{}) {
	return nil, nil
}

func (customHandler) Apply(ctx context.Context, l *Ledger, directive ast.Directive, delta interface{}) {
}
