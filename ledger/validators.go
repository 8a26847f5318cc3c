package ledger

import (
	"context"
	"os"

	"github.com/ledgerfold/beancore/ast"
	"github.com/ledgerfold/beancore/booking"
	"github.com/shopspring/decimal"
)

// RunValidations runs every read-only validator over the processed ledger,
// appending findings to l.errors. Validators never halt the pipeline and
// never mutate ledger state; they run once, after booking, plugins, and
// pad resolution have all settled.
//
// account_names, duplicate_balances, duplicate_commodities,
// currency_constraints, transaction_balances, and document_files_exist each
// check something handler-time processing never checks on its own.
// active_accounts re-confirms what transactionHandler already checked when
// booking each posting. open_close and check_balance_assertions re-examine the
// same directives openHandler/balanceHandler already validated, so they
// consult l.failed to avoid reporting the same problem twice.
func (l *Ledger) RunValidations(ctx context.Context) {
	l.validateAccountNames()
	l.validateOpenClose()
	l.validateDuplicateBalances()
	l.validateDuplicateCommodities()
	l.validateActiveAccounts()
	l.validateCurrencyConstraints()
	l.validateTransactionBalances()
	l.validateBalanceAssertions()
	l.validateDocumentFilesExist()
}

// validateAccountNames flags accounts whose root segment doesn't match one
// of the five configured account types.
func (l *Ledger) validateAccountNames() {
	cfg := l.config
	if cfg == nil {
		cfg = NewConfig()
	}
	for _, acc := range l.Accounts() {
		if !cfg.IsValidAccountName(acc.Name) {
			l.errors = append(l.errors, &BadAccountNameError{Account: acc.Name})
		}
	}
}

// validateOpenClose re-walks Open/Close directives that passed handler-time
// validation, confirming the handler's own open/close bookkeeping is
// internally consistent. Directives openHandler or closeHandler already
// rejected are skipped via l.failed so their errors aren't counted twice.
func (l *Ledger) validateOpenClose() {
	opened := make(map[ast.Account]*ast.Date)
	closed := make(map[ast.Account]*ast.Date)
	for _, directive := range l.Entries() {
		if l.failed[directive] {
			continue
		}
		switch d := directive.(type) {
		case *ast.Open:
			if existing, ok := opened[d.Account]; ok {
				l.errors = append(l.errors, &AccountAlreadyOpenError{
					Account: d.Account, Date: d.Date, OpenedDate: existing,
				})
				continue
			}
			opened[d.Account] = d.Date
		case *ast.Close:
			if _, ok := opened[d.Account]; !ok {
				l.errors = append(l.errors, &AccountNotClosedError{Account: d.Account, Date: d.Date})
				continue
			}
			if existing, ok := closed[d.Account]; ok {
				l.errors = append(l.errors, &AccountAlreadyClosedError{
					Account: d.Account, Date: d.Date, ClosedDate: existing,
				})
				continue
			}
			closed[d.Account] = d.Date
		}
	}
}

// validateDuplicateBalances flags a second balance assertion for the same
// account, date, and currency that disagrees with the first.
func (l *Ledger) validateDuplicateBalances() {
	type key struct {
		account  ast.Account
		date     string
		currency string
	}
	seen := make(map[key]string)
	for _, directive := range l.Entries() {
		bal, ok := directive.(*ast.Balance)
		if !ok || bal.Amount == nil {
			continue
		}
		k := key{account: bal.Account, date: bal.Date.Format("2006-01-02"), currency: bal.Amount.Currency}
		if prior, ok := seen[k]; ok {
			if prior != bal.Amount.Value {
				l.errors = append(l.errors, &DuplicateBalanceError{
					Account: bal.Account, Currency: bal.Amount.Currency, Date: bal.Date,
				})
			}
			continue
		}
		seen[k] = bal.Amount.Value
	}
}

// validateDuplicateCommodities flags a currency declared by more than one
// commodity directive.
func (l *Ledger) validateDuplicateCommodities() {
	seen := make(map[string]*ast.Date)
	for _, directive := range l.Entries() {
		com, ok := directive.(*ast.Commodity)
		if !ok {
			continue
		}
		if firstDate, ok := seen[com.Currency]; ok {
			l.errors = append(l.errors, &DuplicateCommodityError{
				Currency: com.Currency, FirstDate: firstDate, Date: com.Date,
			})
			continue
		}
		seen[com.Currency] = com.Date
	}
}

// validateActiveAccounts confirms every booked posting against an account
// falls within that account's open/close window. Postings only ever reach
// Account.Postings after transactionHandler already confirmed this, so this
// is a consistency check against the booking path rather than a new find.
func (l *Ledger) validateActiveAccounts() {
	for _, acc := range l.Accounts() {
		for _, ap := range acc.Postings {
			date := ap.Transaction.GetDate()
			if !acc.IsOpen(date) {
				l.errors = append(l.errors, &AccountNotOpenError{
					Account: acc.Name, Date: date, Pos: ap.Transaction.Position(),
				})
			}
		}
	}
}

// validateCurrencyConstraints flags a booked posting whose currency isn't
// among the account's declared constraint currencies.
func (l *Ledger) validateCurrencyConstraints() {
	for _, acc := range l.Accounts() {
		if len(acc.ConstraintCurrencies) == 0 {
			continue
		}
		allowed := make(map[string]bool, len(acc.ConstraintCurrencies))
		for _, cur := range acc.ConstraintCurrencies {
			allowed[cur] = true
		}
		for _, ap := range acc.Postings {
			currency := ap.Posting.Units.Currency
			if !allowed[currency] {
				l.errors = append(l.errors, NewCurrencyConstraintError(
					ap.Transaction, acc.Name, currency, acc.ConstraintCurrencies,
				))
			}
		}
	}
}

// validateTransactionBalances re-sums each booked transaction's postings by
// weight currency, confirming the booking engine actually left every
// transaction balanced within tolerance. Tolerance is inferred from the
// observed decimal scale of that currency's postings in that transaction
// (the same derivation booking's own toleranceFromResidualLegs uses), not a
// flat global default — otherwise this could flag a residual the booking
// path itself already accepted as within scale.
func (l *Ledger) validateTransactionBalances() {
	cfg := l.config
	if cfg == nil {
		cfg = NewConfig()
	}

	byTxn := make(map[*ast.Transaction][]*booking.Posting)
	var order []*ast.Transaction
	for _, acc := range l.Accounts() {
		for _, ap := range acc.Postings {
			if _, ok := byTxn[ap.Transaction]; !ok {
				order = append(order, ap.Transaction)
			}
			byTxn[ap.Transaction] = append(byTxn[ap.Transaction], ap.Posting)
		}
	}

	for _, txn := range order {
		sums := make(map[string]decimal.Decimal)
		amounts := make(map[string][]decimal.Decimal)
		for _, p := range byTxn[txn] {
			w, currency := postingWeight(p)
			sums[currency] = sums[currency].Add(w)
			amounts[currency] = append(amounts[currency], w)
		}
		for currency, sum := range sums {
			tolerance := InferTolerance(amounts[currency], currency, cfg.Tolerance)
			if !AmountEqual(sum, decimal.Zero, tolerance) {
				l.errors = append(l.errors, &TransactionNotBalancedError{
					Pos:       txn.Position(),
					Date:      txn.GetDate(),
					Message:   "residual after booking",
					Residuals: map[string]decimal.Decimal{currency: sum},
				})
			}
		}
	}
}

// postingWeight mirrors the booking engine's own notion of a posting's
// contribution to a transaction's balance: cost-converted if a cost was
// resolved, price-converted if only a price annotation was given, or the
// raw units otherwise.
func postingWeight(p *booking.Posting) (decimal.Decimal, string) {
	switch {
	case p.Cost != nil:
		return p.Units.Number.Mul(p.Cost.Number), p.Cost.Currency
	case p.Price != nil:
		if p.Price.IsTotal {
			w := p.Price.Number
			if p.Units.Number.IsNegative() {
				w = w.Neg()
			}
			return w, p.Price.Currency
		}
		return p.Units.Number.Mul(p.Price.Number), p.Price.Currency
	default:
		return p.Units.Number, p.Units.Currency
	}
}

// validateBalanceAssertions re-walks Balance directives that passed
// handler-time validation, confirming the recorded inventory still agrees
// with the assertion. Directives balanceHandler already rejected are
// skipped via l.failed so mismatches aren't reported twice. Tolerance is
// inferred from the asserted amount's own decimal scale, not the
// accumulated inventory's — the inventory can carry more decimal places
// than the user ever typed, and booking never computes a tolerance for
// Balance directives the way it does for transactions.
func (l *Ledger) validateBalanceAssertions() {
	for _, directive := range l.Entries() {
		bal, ok := directive.(*ast.Balance)
		if !ok || l.failed[directive] || bal.Amount == nil {
			continue
		}
		acc, ok := l.GetAccount(string(bal.Account))
		if !ok || acc.Inventory == nil {
			continue
		}
		expected, err := ParseAmount(bal.Amount)
		if err != nil {
			continue
		}
		actual := acc.Inventory.Balance(bal.Amount.Currency)
		cfg := l.config
		if cfg == nil {
			cfg = NewConfig()
		}
		tolerance := InferTolerance([]decimal.Decimal{expected}, bal.Amount.Currency, cfg.Tolerance)
		if !AmountEqual(expected, actual, tolerance) {
			l.errors = append(l.errors, &BalanceMismatchError{
				Date: bal.Date, Account: bal.Account,
				Expected: expected.String(), Actual: actual.String(), Currency: bal.Amount.Currency,
			})
		}
	}
}

// validateDocumentFilesExist flags a document directive whose referenced
// path doesn't exist on disk.
func (l *Ledger) validateDocumentFilesExist() {
	for _, directive := range l.Entries() {
		doc, ok := directive.(*ast.Document)
		if !ok {
			continue
		}
		path := doc.PathToDocument.String()
		if _, err := os.Stat(path); err != nil {
			l.errors = append(l.errors, &DocumentMissingError{
				Account: doc.Account, Path: path, Date: doc.Date,
			})
		}
	}
}
