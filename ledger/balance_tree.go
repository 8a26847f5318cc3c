package ledger

// BalanceTree is a hierarchical view of account balances, rooted at the
// five top-level account types configured for the ledger. It is the shape
// consumed by reporting surfaces (the web balances endpoint, future CLI
// reports) that want a tree rather than a flat account map.
type BalanceTree struct {
	Roots      []*BalanceNode
	Currencies []string
	StartDate  *string
	EndDate    *string
}

// BalanceNode is a single account (or virtual type root) within a
// BalanceTree. Balance is aggregated bottom-up: a node's Balance includes
// the sum of all its descendants, not just its own postings.
type BalanceNode struct {
	Name     string
	Account  string
	Depth    int
	Balance  *Balance
	Children []*BalanceNode
}
