package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledgerfold/beancore/ast"
	"github.com/shopspring/decimal"
)

// AccountNotOpenError is returned when a directive references an account
// that hasn't been opened (or was opened after the directive's date).
type AccountNotOpenError struct {
	Account ast.Account
	Date    *ast.Date
	Pos     ast.Position
}

func (e *AccountNotOpenError) Error() string {
	return fmt.Sprintf("%s: account %s is not open on %s", e.Pos, e.Account, e.Date.Format("2006-01-02"))
}

// AccountAlreadyOpenError is returned when trying to open an account that's already open.
type AccountAlreadyOpenError struct {
	Account    ast.Account
	Date       *ast.Date
	OpenedDate *ast.Date
}

func (e *AccountAlreadyOpenError) Error() string {
	return fmt.Sprintf("%s: account %s is already open (opened on %s)",
		e.Date.Format("2006-01-02"), e.Account, e.OpenedDate.Format("2006-01-02"))
}

// AccountAlreadyClosedError is returned when a directive uses an account after its close date.
type AccountAlreadyClosedError struct {
	Account    ast.Account
	Date       *ast.Date
	ClosedDate *ast.Date
}

func (e *AccountAlreadyClosedError) Error() string {
	return fmt.Sprintf("%s: account %s is already closed (closed on %s)",
		e.Date.Format("2006-01-02"), e.Account, e.ClosedDate.Format("2006-01-02"))
}

// AccountNotClosedError is returned when trying to close an account that was never opened.
type AccountNotClosedError struct {
	Account ast.Account
	Date    *ast.Date
}

func (e *AccountNotClosedError) Error() string {
	return fmt.Sprintf("%s: cannot close account %s that was never opened",
		e.Date.Format("2006-01-02"), e.Account)
}

// BalanceMismatchError is returned when a balance assertion fails.
type BalanceMismatchError struct {
	Date     *ast.Date
	Account  ast.Account
	Expected string
	Actual   string
	Currency string
}

func (e *BalanceMismatchError) Error() string {
	return fmt.Sprintf("%s: balance mismatch for %s: expected %s %s, got %s %s",
		e.Date.Format("2006-01-02"), e.Account, e.Expected, e.Currency, e.Actual, e.Currency)
}

// TransactionNotBalancedError is returned when the booking engine can't
// close a transaction's postings to zero in every currency, either because
// no single currency can absorb an interpolated posting or because the
// resolved weights leave a residual past tolerance.
type TransactionNotBalancedError struct {
	Pos       ast.Position
	Date      *ast.Date
	Message   string
	Residuals map[string]decimal.Decimal
}

func (e *TransactionNotBalancedError) Error() string {
	if len(e.Residuals) == 0 {
		return fmt.Sprintf("%s: transaction does not balance: %s", e.Pos, e.Message)
	}
	currencies := make([]string, 0, len(e.Residuals))
	for cur := range e.Residuals {
		currencies = append(currencies, cur)
	}
	sort.Strings(currencies)
	parts := make([]string, 0, len(currencies))
	for _, cur := range currencies {
		parts = append(parts, fmt.Sprintf("%s %s", e.Residuals[cur].String(), cur))
	}
	return fmt.Sprintf("%s: transaction does not balance: %s", e.Pos, strings.Join(parts, ", "))
}

// UnusedPadWarning is returned for a Pad directive that was never consumed
// by a following Balance assertion on the same account.
type UnusedPadWarning struct {
	Pad *ast.Pad
}

func (e *UnusedPadWarning) Error() string {
	return fmt.Sprintf("%s: pad for %s from %s was never used by a balance assertion",
		e.Pad.Date.Format("2006-01-02"), e.Pad.Account, e.Pad.AccountPad)
}

// NewUnusedPadWarning wraps a Pad directive as an UnusedPadWarning.
func NewUnusedPadWarning(pad *ast.Pad) error {
	return &UnusedPadWarning{Pad: pad}
}

// BadAccountNameError is returned by the account_names validator when an
// account's root segment doesn't match one of the five configured types.
type BadAccountNameError struct {
	Account ast.Account
	Pos     ast.Position
}

func (e *BadAccountNameError) Error() string {
	return fmt.Sprintf("%s: %q is not a valid account name (unknown root type)", e.Pos, e.Account)
}

// CurrencyNotAllowedError is returned by the currency_constraints validator
// when a posting's currency isn't among the account's constraint currencies.
type CurrencyNotAllowedError struct {
	Account  ast.Account
	Currency string
	Pos      ast.Position
}

func (e *CurrencyNotAllowedError) Error() string {
	return fmt.Sprintf("%s: currency %s is not allowed in account %s", e.Pos, e.Currency, e.Account)
}

// DuplicateBalanceError is returned by the duplicate_balances validator when
// two balance assertions target the same account, currency, and date.
type DuplicateBalanceError struct {
	Account  ast.Account
	Currency string
	Date     *ast.Date
}

func (e *DuplicateBalanceError) Error() string {
	return fmt.Sprintf("%s: duplicate balance assertion for %s %s",
		e.Date.Format("2006-01-02"), e.Account, e.Currency)
}

// DuplicateCommodityError is returned by the duplicate_commodities validator
// when a currency is declared by more than one commodity directive.
type DuplicateCommodityError struct {
	Currency  string
	FirstDate *ast.Date
	Date      *ast.Date
}

func (e *DuplicateCommodityError) Error() string {
	return fmt.Sprintf("%s: commodity %s already declared on %s",
		e.Date.Format("2006-01-02"), e.Currency, e.FirstDate.Format("2006-01-02"))
}

// DocumentMissingError is returned by the document_files_exist validator
// when a document directive references a path that doesn't exist on disk.
type DocumentMissingError struct {
	Account ast.Account
	Path    string
	Date    *ast.Date
}

func (e *DocumentMissingError) Error() string {
	return fmt.Sprintf("%s: document %q for account %s does not exist", e.Date.Format("2006-01-02"), e.Path, e.Account)
}

// InsufficientInventoryError is returned when a reducing posting can't find
// enough matching inventory to remove, carrying the transaction it occurred
// in so callers can report payee and position alongside the shortfall.
type InsufficientInventoryError struct {
	Transaction ast.Directive
	Account     ast.Account
	Payee       string
	Details     error
}

// NewInsufficientInventoryError builds an InsufficientInventoryError from the
// transaction that triggered the reduction, the account it happened against,
// and the underlying shortfall details.
func NewInsufficientInventoryError(txn *ast.Transaction, account ast.Account, details error) *InsufficientInventoryError {
	return &InsufficientInventoryError{
		Transaction: txn,
		Account:     account,
		Payee:       txn.Payee.String(),
		Details:     details,
	}
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("%s: Insufficient inventory for %s: %s", e.position(), e.Account, e.Details)
}

func (e *InsufficientInventoryError) position() string {
	pos := e.GetPosition()
	if pos.Filename == "" {
		return e.GetDate().Format("2006-01-02")
	}
	return pos.String()
}

// GetPosition returns the source position of the transaction that failed.
func (e *InsufficientInventoryError) GetPosition() ast.Position { return e.Transaction.Position() }

// GetDate returns the date of the transaction that failed.
func (e *InsufficientInventoryError) GetDate() *ast.Date { return e.Transaction.GetDate() }

// GetDirective returns the transaction directive that failed.
func (e *InsufficientInventoryError) GetDirective() ast.Directive { return e.Transaction }

// GetAccount returns the account the inventory shortfall occurred against.
func (e *InsufficientInventoryError) GetAccount() ast.Account { return e.Account }

// CurrencyConstraintError is returned when a posting's currency isn't among
// an account's declared constraint currencies, carrying the transaction it
// occurred in so callers can report payee and position alongside the list
// of currencies that would have been allowed.
type CurrencyConstraintError struct {
	Transaction       ast.Directive
	Account           ast.Account
	Payee             string
	Currency          string
	AllowedCurrencies []string
}

// NewCurrencyConstraintError builds a CurrencyConstraintError from the
// transaction that violated the constraint, the account it posted to, the
// disallowed currency, and the currencies the account does allow.
func NewCurrencyConstraintError(txn *ast.Transaction, account ast.Account, currency string, allowedCurrencies []string) *CurrencyConstraintError {
	return &CurrencyConstraintError{
		Transaction:       txn,
		Account:           account,
		Payee:             txn.Payee.String(),
		Currency:          currency,
		AllowedCurrencies: allowedCurrencies,
	}
}

func (e *CurrencyConstraintError) Error() string {
	return fmt.Sprintf("%s: Currency %s not allowed in account %s, allowed currencies: %v",
		e.position(), e.Currency, e.Account, e.AllowedCurrencies)
}

func (e *CurrencyConstraintError) position() string {
	pos := e.GetPosition()
	if pos.Filename == "" {
		return e.GetDate().Format("2006-01-02")
	}
	return pos.String()
}

// GetPosition returns the source position of the transaction that violated the constraint.
func (e *CurrencyConstraintError) GetPosition() ast.Position { return e.Transaction.Position() }

// GetDate returns the date of the transaction that violated the constraint.
func (e *CurrencyConstraintError) GetDate() *ast.Date { return e.Transaction.GetDate() }

// GetDirective returns the transaction directive that violated the constraint.
func (e *CurrencyConstraintError) GetDirective() ast.Directive { return e.Transaction }

// GetAccount returns the account the currency constraint was declared on.
func (e *CurrencyConstraintError) GetAccount() ast.Account { return e.Account }

// UnknownPluginError is returned when a plugin directive names a plugin the
// host has no implementation for.
type UnknownPluginError struct {
	Name string
}

func (e *UnknownPluginError) Error() string {
	return fmt.Sprintf("unknown plugin %q", e.Name)
}
