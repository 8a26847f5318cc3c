package ledger

import (
	"time"

	"github.com/ledgerfold/beancore/store"
)

// SaveSnapshot writes the ledger's current per-account balances to the given
// snapshot store under key, so a later run can compare against this state
// without re-booking the source file.
func (l *Ledger) SaveSnapshot(s *store.Store, key string) error {
	balances := make(map[string]map[string]string)

	l.forEachAccount(func(account *Account) bool {
		balance := l.getAccountCurrentBalance(account)
		if balance.IsZero() {
			return true
		}

		currencyAmounts := make(map[string]string)
		for _, entry := range balance.Entries() {
			currencyAmounts[entry.Currency] = entry.Amount.String()
		}
		balances[string(account.Name)] = currencyAmounts

		return true
	})

	snap := &store.Snapshot{
		SavedAt:    time.Now().UTC().Format(time.RFC3339),
		Balances:   balances,
		ErrorCount: len(l.errors),
	}

	return s.Save(key, snap)
}

// LoadSnapshot retrieves a previously saved snapshot by key. The bool return
// is false if no snapshot exists for the key.
func LoadSnapshot(s *store.Store, key string) (*store.Snapshot, bool, error) {
	return s.Load(key)
}
