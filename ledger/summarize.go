package ledger

import (
	"fmt"

	"github.com/ledgerfold/beancore/ast"
	"github.com/shopspring/decimal"
)

// SummarizeClamp restricts a booked directive sequence to the window [begin, end).
// Activity dated before begin is folded into a single opening-balance transaction
// dated begin, posted against Equity:Opening-Balances; activity dated on or after
// end is folded into a closing conversion transaction dated end, posted against
// Equity:Conversions. Open and Close directives always pass through unchanged so
// later validators can still see an account's declared lifetime. Either bound may
// be nil to leave that side of the window unclamped.
func (l *Ledger) SummarizeClamp(tree *ast.AST, begin, end *ast.Date) ([]ast.Directive, error) {
	if begin != nil && end != nil && begin.After(end.Time) {
		return nil, fmt.Errorf("begin %s is after end %s", begin.String(), end.String())
	}

	openingBalances := make(map[string]*Balance)
	closingBalances := make(map[string]*Balance)

	l.forEachAccount(func(account *Account) bool {
		if begin != nil {
			if bal := balanceBefore(account, begin); !bal.IsZero() {
				openingBalances[string(account.Name)] = bal
			}
		}
		if end != nil {
			if bal := balanceOnOrAfter(account, end); !bal.IsZero() {
				closingBalances[string(account.Name)] = bal
			}
		}
		return true
	})

	kept := make([]ast.Directive, 0, len(tree.Directives)+2)
	for _, d := range tree.Directives {
		switch d.(type) {
		case *ast.Open, *ast.Close:
			kept = append(kept, d)
			continue
		}

		date := d.GetDate()
		if date == nil {
			kept = append(kept, d)
			continue
		}
		if begin != nil && date.Before(begin.Time) {
			continue
		}
		if end != nil && !date.Before(end.Time) {
			continue
		}
		kept = append(kept, d)
	}

	equity := l.config.AccountNames.Equity
	if begin != nil && len(openingBalances) > 0 {
		kept = append(kept, buildSummaryTransaction(begin, "Opening balances", openingBalances, ast.Account(equity+":Opening-Balances")))
	}
	if end != nil && len(closingBalances) > 0 {
		kept = append(kept, buildSummaryTransaction(end, "Conversion of balances before close", closingBalances, ast.Account(equity+":Conversions")))
	}

	result := &ast.AST{Directives: kept}
	if err := ast.SortDirectives(result); err != nil {
		return nil, err
	}
	return result.Directives, nil
}

// balanceBefore sums an account's booked postings strictly before the given date.
func balanceBefore(account *Account, date *ast.Date) *Balance {
	balance := NewBalance()
	for _, ap := range account.Postings {
		d := ap.Transaction.GetDate()
		if d == nil || !d.Before(date.Time) {
			continue
		}
		balance.Add(ap.Posting.Units.Currency, ap.Posting.Units.Number)
	}
	return balance
}

// balanceOnOrAfter sums an account's booked postings on or after the given date.
func balanceOnOrAfter(account *Account, date *ast.Date) *Balance {
	balance := NewBalance()
	for _, ap := range account.Postings {
		d := ap.Transaction.GetDate()
		if d == nil || d.Before(date.Time) {
			continue
		}
		balance.Add(ap.Posting.Units.Currency, ap.Posting.Units.Number)
	}
	return balance
}

// buildSummaryTransaction constructs a synthetic transaction carrying one posting
// per (account, currency) balance plus an offsetting posting per currency against
// the given equity account.
func buildSummaryTransaction(date *ast.Date, narration string, balances map[string]*Balance, equityAccount ast.Account) *ast.Transaction {
	offsets := make(map[string]decimal.Decimal)

	txn := &ast.Transaction{
		Date:      date,
		Flag:      "*",
		Narration: ast.NewRawString(narration),
	}

	accountNames := make([]string, 0, len(balances))
	for name := range balances {
		accountNames = append(accountNames, name)
	}
	sortStrings(accountNames)

	for _, name := range accountNames {
		balance := balances[name]
		for _, entry := range balance.Entries() {
			if entry.Amount.IsZero() {
				continue
			}
			txn.Postings = append(txn.Postings, &ast.Posting{
				Account: ast.Account(name),
				Amount: &ast.Amount{
					Value:    entry.Amount.String(),
					Currency: entry.Currency,
				},
			})
			current, ok := offsets[entry.Currency]
			if !ok {
				current = decimal.Zero
			}
			offsets[entry.Currency] = current.Sub(entry.Amount)
		}
	}

	currencies := make([]string, 0, len(offsets))
	for currency := range offsets {
		currencies = append(currencies, currency)
	}
	sortStrings(currencies)

	for _, currency := range currencies {
		amount := offsets[currency]
		if amount.IsZero() {
			continue
		}
		txn.Postings = append(txn.Postings, &ast.Posting{
			Account: equityAccount,
			Amount: &ast.Amount{
				Value:    amount.String(),
				Currency: currency,
			},
		})
	}

	return txn
}

// sortStrings sorts a string slice in place; kept local to avoid importing
// sort's generic helpers into the small sets used here.
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
