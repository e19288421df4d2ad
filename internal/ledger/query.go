package ledger

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/model"
)

// Stats summarizes the ledger.
type Stats struct {
	Accounts         int
	ActiveAccounts   int
	Customers        int
	Transactions     int
	TotalBalance     decimal.Decimal
	KindCounts       map[model.AccountKind]int
	TransactionTypes map[model.TransactionType]int
}

// Accounts returns snapshots of all accounts ordered by number.
func (l *Ledger) Accounts() []model.AccountRecord {
	return l.filter(func(model.AccountRecord) bool { return true })
}

// AccountsByKind returns accounts of the given kind (case-insensitive).
func (l *Ledger) AccountsByKind(kind string) []model.AccountRecord {
	return l.filter(func(r model.AccountRecord) bool {
		return strings.EqualFold(string(r.Kind), kind)
	})
}

// ActiveAccounts returns accounts that are not deactivated.
func (l *Ledger) ActiveAccounts() []model.AccountRecord {
	return l.filter(func(r model.AccountRecord) bool { return r.Active })
}

// Customers returns all customers ordered by id.
func (l *Ledger) Customers() []model.Customer {
	l.mu.RLock()
	out := make([]model.Customer, 0, len(l.customers))
	for _, c := range l.customers {
		out = append(out, c)
	}
	l.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindCustomerByName returns the first customer, by id, whose name contains
// name case-insensitively.
func (l *Ledger) FindCustomerByName(name string) (model.Customer, bool) {
	needle := strings.ToLower(name)
	for _, c := range l.Customers() {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			return c, true
		}
	}
	return model.Customer{}, false
}

// Transactions returns every recorded transaction across all accounts in
// the order they were applied. Unlike History it is unbounded.
func (l *Ledger) Transactions() []model.Transaction {
	l.journalMu.Lock()
	defer l.journalMu.Unlock()
	out := make([]model.Transaction, len(l.journal))
	copy(out, l.journal)
	return out
}

// TransactionsByType returns transactions of the given type (case-insensitive).
func (l *Ledger) TransactionsByType(typ string) []model.Transaction {
	var out []model.Transaction
	for _, tx := range l.Transactions() {
		if strings.EqualFold(string(tx.Type), typ) {
			out = append(out, tx)
		}
	}
	return out
}

// Stats computes totals and distributions over the current state.
func (l *Ledger) Stats() Stats {
	accts := l.Accounts()
	txs := l.Transactions()

	l.mu.RLock()
	customers := len(l.customers)
	l.mu.RUnlock()

	s := Stats{
		Accounts:         len(accts),
		Customers:        customers,
		Transactions:     len(txs),
		TotalBalance:     decimal.Zero,
		KindCounts:       make(map[model.AccountKind]int),
		TransactionTypes: make(map[model.TransactionType]int),
	}
	for _, a := range accts {
		if a.Active {
			s.ActiveAccounts++
		}
		s.TotalBalance = s.TotalBalance.Add(a.Balance)
		s.KindCounts[a.Kind]++
	}
	for _, tx := range txs {
		s.TransactionTypes[tx.Type]++
	}
	return s
}

func (l *Ledger) filter(keep func(model.AccountRecord) bool) []model.AccountRecord {
	l.mu.RLock()
	accts := make([]*Account, 0, len(l.accounts))
	for _, a := range l.accounts {
		accts = append(accts, a)
	}
	l.mu.RUnlock()

	out := make([]model.AccountRecord, 0, len(accts))
	for _, a := range accts {
		if r := a.snapshot(); keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
