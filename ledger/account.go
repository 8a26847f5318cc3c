package ledger

import (
	"sort"
	"strings"

	"github.com/ledgerfold/beancore/ast"
	"github.com/ledgerfold/beancore/booking"
	"github.com/ledgerfold/beancore/inventory"
	"github.com/shopspring/decimal"
)

// AccountType classifies an account by its top-level name. Unlike
// ast.AccountType, ParseAccountType never panics: accounts whose root
// segment doesn't match one of the five categories classify as
// AccountTypeUnknown instead of failing validation outright.
type AccountType int

const (
	AccountTypeUnknown AccountType = iota
	AccountTypeAssets
	AccountTypeLiabilities
	AccountTypeEquity
	AccountTypeIncome
	AccountTypeExpenses
)

func (t AccountType) String() string {
	switch t {
	case AccountTypeAssets:
		return "Assets"
	case AccountTypeLiabilities:
		return "Liabilities"
	case AccountTypeEquity:
		return "Equity"
	case AccountTypeIncome:
		return "Income"
	case AccountTypeExpenses:
		return "Expenses"
	default:
		return "Unknown"
	}
}

// ParseAccountType classifies an account by its leading colon-separated
// segment. Accounts whose root doesn't match one of the five built-in
// categories return AccountTypeUnknown rather than an error.
func ParseAccountType(account ast.Account) AccountType {
	root := string(account)
	if idx := strings.IndexByte(root, ':'); idx >= 0 {
		root = root[:idx]
	}
	switch root {
	case "Assets":
		return AccountTypeAssets
	case "Liabilities":
		return AccountTypeLiabilities
	case "Equity":
		return AccountTypeEquity
	case "Income":
		return AccountTypeIncome
	case "Expenses":
		return AccountTypeExpenses
	default:
		return AccountTypeUnknown
	}
}

// astAccountType converts an ast.AccountType (the parser's own, panicking
// enum) to the ledger's AccountType.
func astAccountType(t ast.AccountType) AccountType {
	switch t {
	case ast.AccountTypeAssets:
		return AccountTypeAssets
	case ast.AccountTypeLiabilities:
		return AccountTypeLiabilities
	case ast.AccountTypeEquity:
		return AccountTypeEquity
	case ast.AccountTypeIncome:
		return AccountTypeIncome
	case ast.AccountTypeExpenses:
		return AccountTypeExpenses
	default:
		return AccountTypeUnknown
	}
}

// Account represents an account in the ledger
type Account struct {
	Name                 ast.Account
	Type                 AccountType
	OpenDate             *ast.Date
	CloseDate            *ast.Date
	ConstraintCurrencies []string
	BookingMethod        string
	Metadata             []*ast.Metadata
	Inventory            *inventory.Inventory // Inventory with lot tracking

	// Postings records booked postings against this account, in application order.
	Postings []*AccountPosting
}

// AccountPosting pairs a booked posting with the raw transaction it came
// from, for account-history queries.
type AccountPosting struct {
	Transaction *ast.Transaction
	Posting     *booking.Posting
}

// IsOpen returns true if the account is open at the given date
func (a *Account) IsOpen(date *ast.Date) bool {
	if a.OpenDate == nil {
		return false
	}

	// Account must be opened before or on the date
	if a.OpenDate.After(date.Time) {
		return false
	}

	// If there's a close date, check that the date is not after closing
	// Transactions are allowed ON the close date, but not AFTER
	if a.CloseDate != nil && date.After(a.CloseDate.Time) {
		return false
	}

	return true
}

// IsClosed returns true if the account has been closed
func (a *Account) IsClosed() bool {
	return a.CloseDate != nil
}

// HasMetadata returns true if the account has metadata
func (a *Account) HasMetadata() bool {
	return len(a.Metadata) > 0
}

// GetParent returns the account's parent, looked up by name through
// Ledger.GetAccount. Returns nil if the account has no parent segment or the
// parent was never opened (an implicit parent node carries no Account).
func (a *Account) GetParent(l *Ledger) *Account {
	parts := strings.Split(string(a.Name), ":")
	if len(parts) < 2 {
		return nil
	}
	parentPath := strings.Join(parts[:len(parts)-1], ":")
	acc, ok := l.GetAccount(parentPath)
	if !ok {
		return nil
	}
	return acc
}

// GetBalance returns the balance for this account (not including children).
// Returns a map of commodity to decimal amount.
func (a *Account) GetBalance() map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal)
	for _, currency := range a.Inventory.Currencies() {
		result[currency] = a.Inventory.Get(currency)
	}
	return result
}

// GetPostingsBefore returns every booked posting against this account whose
// transaction date is on or before the given date, in application order.
func (a *Account) GetPostingsBefore(date *ast.Date) []*AccountPosting {
	var result []*AccountPosting
	for _, ap := range a.Postings {
		d := ap.Transaction.GetDate()
		if d == nil || d.After(date.Time) {
			continue
		}
		result = append(result, ap)
	}
	return result
}

// GetPostingsInPeriod returns every booked posting against this account whose
// transaction date falls within [start, end] inclusive, in application order.
func (a *Account) GetPostingsInPeriod(start, end *ast.Date) []*AccountPosting {
	var result []*AccountPosting
	for _, ap := range a.Postings {
		d := ap.Transaction.GetDate()
		if d == nil || d.Before(start.Time) || d.After(end.Time) {
			continue
		}
		result = append(result, ap)
	}
	return result
}

// GetBalanceInPeriod returns the balance contributed by this account's
// postings over [start, end]. When start and end are the same date, this is
// a point-in-time cumulative balance (every posting on or before end); when
// they differ, it's the period's flow (only postings within the range).
func (a *Account) GetBalanceInPeriod(start, end ast.Date) *Balance {
	balance := NewBalance()
	pointInTime := start.Time.Equal(end.Time)
	for _, ap := range a.Postings {
		d := ap.Transaction.GetDate()
		if d == nil {
			continue
		}
		if pointInTime {
			if d.After(end.Time) {
				continue
			}
		} else if d.Before(start.Time) || d.After(end.Time) {
			continue
		}
		balance.Add(ap.Posting.Units.Currency, ap.Posting.Units.Number)
	}
	return balance
}

// GetChildren returns direct child accounts.
// For example, if this account is "Assets", returns child accounts like "Assets:US" and "Assets:Investments".
func (a *Account) GetChildren(l *Ledger) []*Account {
	parentPath := string(a.Name)
	prefix := parentPath + ":"
	seen := make(map[string]bool)
	byPath := make(map[string]*Account)

	l.forEachAccount(func(acc *Account) bool {
		accountName := string(acc.Name)
		byPath[accountName] = acc
		if strings.HasPrefix(accountName, prefix) {
			remainder := strings.TrimPrefix(accountName, prefix)
			// Extract only the first segment (direct child)
			firstSegment := strings.Split(remainder, ":")[0]
			childPath := parentPath + ":" + firstSegment
			seen[childPath] = true
		}
		return true
	})

	var childPaths []string
	for path := range seen {
		childPaths = append(childPaths, path)
	}
	sort.Strings(childPaths)

	var children []*Account
	for _, path := range childPaths {
		if child, ok := byPath[path]; ok {
			children = append(children, child)
		}
	}
	return children
}

// GetSubtreeBalance returns the aggregated balance for this account and all its descendants.
// Useful for balance sheet reporting where parent balances sum their children.
// Returns a map of commodity to total decimal amount.
func (a *Account) GetSubtreeBalance(l *Ledger) map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal)

	// Add this account's direct balance
	for currency, amount := range a.GetBalance() {
		result[currency] = amount
	}

	// Add all descendants recursively
	a.addDescendantBalances(l, result)
	return result
}

// addDescendantBalances accumulates balances from every opened account under
// this one, including those below an intermediate account that was never opened.
func (a *Account) addDescendantBalances(l *Ledger, result map[string]decimal.Decimal) {
	prefix := string(a.Name) + ":"
	l.forEachAccount(func(acc *Account) bool {
		if strings.HasPrefix(string(acc.Name), prefix) {
			for currency, amount := range acc.GetBalance() {
				result[currency] = result[currency].Add(amount)
			}
		}
		return true
	})
}
