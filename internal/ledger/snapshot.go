package ledger

import (
	"fmt"
	"sort"

	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/model"
)

// Snapshot is the plain-value form of a Ledger, as read and written by the
// persistence layer.
type Snapshot struct {
	Customers    []model.Customer
	Accounts     []model.AccountRecord
	Transactions []model.Transaction
}

// Export returns the current state as of a single instant. Transactions is
// the full cross-account list, not just the retained per-account history.
// Every account is locked in number order while the snapshot is taken, so
// each balance agrees with the journal.
func (l *Ledger) Export() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Snapshot{
		Customers: make([]model.Customer, 0, len(l.customers)),
		Accounts:  make([]model.AccountRecord, 0, len(l.accounts)),
	}
	for _, c := range l.customers {
		s.Customers = append(s.Customers, c)
	}
	sort.Slice(s.Customers, func(i, j int) bool { return s.Customers[i].ID < s.Customers[j].ID })

	numbers := make([]string, 0, len(l.accounts))
	for n := range l.accounts {
		numbers = append(numbers, n)
	}
	sort.Strings(numbers)
	for _, n := range numbers {
		a := l.accounts[n]
		a.mu.Lock()
		defer a.mu.Unlock()
		s.Accounts = append(s.Accounts, a.record())
	}

	s.Transactions = l.Transactions()
	return s
}

// Restore replaces the ledger's state with s. Each account's history is
// rebuilt from its most recent transactions in s, and the id generators are
// advanced past restored numbers. Restore must not run concurrently with
// other operations.
func (l *Ledger) Restore(s Snapshot) error {
	customers := make(map[string]model.Customer, len(s.Customers))
	for _, c := range s.Customers {
		if _, dup := customers[c.ID]; dup {
			return fmt.Errorf("duplicate customer id %s", c.ID)
		}
		customers[c.ID] = c
	}

	accounts := make(map[string]*Account, len(s.Accounts))
	for _, rec := range s.Accounts {
		if _, dup := accounts[rec.Number]; dup {
			return fmt.Errorf("duplicate account number %s", rec.Number)
		}
		if _, ok := customers[rec.CustomerID]; !ok {
			return fmt.Errorf("account %s: %w", rec.Number, &NotFoundError{Entity: "customer", Key: rec.CustomerID})
		}
		if rec.Balance.IsNegative() {
			return fmt.Errorf("account %s: negative balance %s", rec.Number, rec.Balance.StringFixed(2))
		}
		k, ok := model.ParseAccountKind(string(rec.Kind))
		if !ok {
			return fmt.Errorf("account %s: %w: %q", rec.Number, ErrInvalidKind, rec.Kind)
		}
		rec.Kind = k
		accounts[rec.Number] = newAccount(l.env, rec)
	}

	journal := make([]model.Transaction, len(s.Transactions))
	copy(journal, s.Transactions)
	for _, tx := range journal {
		if a, ok := accounts[tx.AccountNumber]; ok {
			a.log.Append(tx)
		}
	}

	l.mu.Lock()
	l.accounts = accounts
	l.customers = customers
	l.mu.Unlock()

	l.journalMu.Lock()
	l.journal = journal
	l.journalMu.Unlock()

	observe(l.accountIDs, s.Accounts, func(r model.AccountRecord) string { return r.Number })
	observe(l.customerIDs, s.Customers, func(c model.Customer) string { return c.ID })
	return nil
}

func observe[T any](g id.Generator, items []T, key func(T) string) {
	o, ok := g.(id.Observer)
	if !ok {
		return
	}
	for _, it := range items {
		o.Observe(key(it))
	}
}
