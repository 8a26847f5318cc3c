package ast

import "fmt"

// Positioned is implemented by any AST item that records its location in the
// source file.
type Positioned interface {
	Position() Position
}

// DirectiveKind identifies which of the directive variants a Directive value
// holds, for dispatch in places (handler registries, switch statements) that
// would otherwise need a type switch.
type DirectiveKind int

const (
	KindOpen DirectiveKind = iota + 1
	KindClose
	KindCommodity
	KindBalance
	KindPad
	KindTransaction
	KindNote
	KindDocument
	KindEvent
	KindPrice
	KindQuery
	KindCustom
)

func (k DirectiveKind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindClose:
		return "close"
	case KindCommodity:
		return "commodity"
	case KindBalance:
		return "balance"
	case KindPad:
		return "pad"
	case KindTransaction:
		return "transaction"
	case KindNote:
		return "note"
	case KindDocument:
		return "document"
	case KindEvent:
		return "event"
	case KindPrice:
		return "price"
	case KindQuery:
		return "query"
	case KindCustom:
		return "custom"
	default:
		panic(fmt.Sprintf("invalid directive kind: %d", int(k)))
	}
}

// Stateful is implemented by directives that affect the ledger's running
// account/currency state. AffectedNodes returns the account names and/or
// currency codes the directive references, for EnrichedAST's graph skeleton.
type Stateful interface {
	AffectedNodes() []string
}

// AccountType classifies an account by its top-level category. The zero
// value is invalid; use the AccountTypeXxx constants.
type AccountType int

const (
	AccountTypeAssets AccountType = iota + 1
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
		panic(fmt.Sprintf("invalid account type: %d", int(t)))
	}
}

// Type returns the account's top-level category, derived from the first
// colon-separated segment of its name. Panics if the account has no colon or
// an unrecognized first segment; callers that accept configurable root names
// should use Config.GetAccountTypeFromName instead.
func (a Account) Type() AccountType {
	idx := -1
	for i := 0; i < len(a); i++ {
		if a[i] == ':' {
			idx = i
			break
		}
	}
	if idx <= 0 {
		panic(fmt.Sprintf("account has no type prefix: %s", string(a)))
	}
	switch string(a[:idx]) {
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
		panic(fmt.Sprintf("unexpected account type prefix: %s", string(a)))
	}
}
