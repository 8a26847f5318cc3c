package booking

import "github.com/ledgerfold/beancore/inventory"

// Store owns the per-account inventories and booking methods that persist
// across the whole booking pass. It is not safe for concurrent use: booking
// is sequential by design, inventories are shared mutable state across
// directives.
type Store struct {
	inventories map[string]*inventory.Inventory
	methods     map[string]inventory.BookingMethod
}

// NewStore returns an empty store; accounts default to STRICT booking until
// SetMethod is called (normally driven by an Open directive's booking option).
func NewStore() *Store {
	return &Store{
		inventories: make(map[string]*inventory.Inventory),
		methods:     make(map[string]inventory.BookingMethod),
	}
}

// Inventory returns the (lazily created) inventory for an account.
func (s *Store) Inventory(account string) *inventory.Inventory {
	inv, ok := s.inventories[account]
	if !ok {
		inv = inventory.New()
		s.inventories[account] = inv
	}
	return inv
}

// SetMethod records the booking method an account was opened with.
func (s *Store) SetMethod(account string, method inventory.BookingMethod) {
	s.methods[account] = method
}

// Method returns the account's configured booking method, defaulting to STRICT.
func (s *Store) Method(account string) inventory.BookingMethod {
	if m, ok := s.methods[account]; ok {
		return m
	}
	return inventory.STRICT
}
