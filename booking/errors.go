package booking

import (
	"fmt"

	"github.com/ledgerfold/beancore/ast"
	"github.com/shopspring/decimal"
)

// Error is a diagnostic raised while booking a single transaction. Kind
// matches one of the error-kind names enumerated in the ledger's error
// taxonomy, so downstream rendering and the validators can switch on it.
type Error struct {
	Kind    string
	Pos     ast.Position
	Message string

	// Residuals holds the per-currency amounts left over when Kind is
	// KindTransactionDoesNotBalance, for callers that want to report the
	// exact shortfall rather than just the formatted message.
	Residuals map[string]decimal.Decimal
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Message)
}

func newError(kind string, pos ast.Position, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

const (
	KindUnresolvedCurrency      = "UnresolvedCurrency"
	KindMissingCostNumber       = "MissingCostNumber"
	KindTooManyAutoPostings     = "TooManyAutoPostings"
	KindTransactionDoesNotBalance = "TransactionDoesNotBalance"
	KindNoMatchingLots          = "NoMatchingLots"
	KindAmbiguousMatch          = "AmbiguousMatch"
)
