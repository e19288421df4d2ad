package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/model"
)

// Ledger holds all accounts and customers. Each account is serialized by
// its own lock; the maps are guarded separately and that lock is only held
// for lookups and inserts.
type Ledger struct {
	mu        sync.RWMutex
	accounts  map[string]*Account
	customers map[string]model.Customer

	journalMu sync.Mutex
	journal   []model.Transaction

	accountIDs  id.Generator
	customerIDs id.Generator
	env         *env
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithAccountIDs sets the account number generator.
func WithAccountIDs(g id.Generator) Option {
	return func(l *Ledger) { l.accountIDs = g }
}

// WithCustomerIDs sets the customer id generator.
func WithCustomerIDs(g id.Generator) Option {
	return func(l *Ledger) { l.customerIDs = g }
}

// WithTransactionIDs sets the transaction id generator.
func WithTransactionIDs(g id.Generator) Option {
	return func(l *Ledger) { l.env.txIDs = g }
}

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.env.now = now }
}

// New creates an empty Ledger. Without options it numbers accounts
// ACC001001, ACC001002, ... and customers CUST001001, ...
func New(opts ...Option) *Ledger {
	l := &Ledger{
		accounts:    make(map[string]*Account),
		customers:   make(map[string]model.Customer),
		accountIDs:  id.NewSequence(id.AccountPrefix, id.DefaultWidth, id.DefaultStart),
		customerIDs: id.NewSequence(id.CustomerPrefix, id.DefaultWidth, id.DefaultStart),
		env:         &env{txIDs: id.Transactions(), now: time.Now},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CreateAccount registers a new customer and account and returns the
// account number. A positive initial deposit is recorded as a DEPOSIT.
func (l *Ledger) CreateAccount(profile model.Profile, kind model.AccountKind, initialDeposit decimal.Decimal, secret string) (string, error) {
	if initialDeposit.IsNegative() {
		return "", &AmountError{Amount: initialDeposit, Reason: "initial deposit cannot be negative"}
	}
	if err := checkScale(initialDeposit); err != nil {
		return "", err
	}
	k, ok := model.ParseAccountKind(string(kind))
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	customer := model.Customer{
		ID:      l.customerIDs.Next(),
		Name:    profile.Name,
		Email:   profile.Email,
		Phone:   profile.Phone,
		Address: profile.Address,
	}
	now := l.env.now()
	acct := newAccount(l.env, model.AccountRecord{
		Number:      l.accountIDs.Next(),
		Secret:      secret,
		CustomerID:  customer.ID,
		Kind:        k,
		DateCreated: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		Active:      true,
	})

	l.mu.Lock()
	if _, dup := l.accounts[acct.number]; dup {
		l.mu.Unlock()
		return "", fmt.Errorf("account number %s already in use", acct.number)
	}
	if _, dup := l.customers[customer.ID]; dup {
		l.mu.Unlock()
		return "", fmt.Errorf("customer id %s already in use", customer.ID)
	}
	l.customers[customer.ID] = customer
	l.accounts[acct.number] = acct
	acct.mu.Lock()
	l.mu.Unlock()
	defer acct.mu.Unlock()

	if initialDeposit.IsPositive() {
		l.record(acct.apply(model.TxDeposit, initialDeposit, descInitialDeposit))
	}
	return acct.number, nil
}

// GetAccount returns a snapshot of the account.
func (l *Ledger) GetAccount(number string) (model.AccountRecord, error) {
	a, err := l.lookup(number)
	if err != nil {
		return model.AccountRecord{}, err
	}
	return a.snapshot(), nil
}

// Customer returns the customer with the given id.
func (l *Ledger) Customer(customerID string) (model.Customer, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.customers[customerID]
	if !ok {
		return model.Customer{}, &NotFoundError{Entity: "customer", Key: customerID}
	}
	return c, nil
}

// Balance returns the current balance of an account.
func (l *Ledger) Balance(number string) (decimal.Decimal, error) {
	a, err := l.lookup(number)
	if err != nil {
		return decimal.Zero, err
	}
	return a.currentBalance(), nil
}

// History returns the retained transactions of an account, oldest first.
func (l *Ledger) History(number string) ([]model.Transaction, error) {
	a, err := l.lookup(number)
	if err != nil {
		return nil, err
	}
	return a.history(), nil
}

// Deposit credits an account.
func (l *Ledger) Deposit(number string, amount decimal.Decimal) (model.Transaction, error) {
	return l.DepositMemo(number, amount, "")
}

// DepositMemo is Deposit with memo as the transaction description. An empty
// memo records "Cash deposit".
func (l *Ledger) DepositMemo(number string, amount decimal.Decimal, memo string) (model.Transaction, error) {
	a, err := l.lookup(number)
	if err != nil {
		return model.Transaction{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	tx, err := a.deposit(amount, orDefault(memo, descDeposit))
	if err != nil {
		return model.Transaction{}, err
	}
	l.record(tx)
	return tx, nil
}

// Withdraw debits an account.
func (l *Ledger) Withdraw(number string, amount decimal.Decimal) (model.Transaction, error) {
	return l.WithdrawMemo(number, amount, "")
}

// WithdrawMemo is Withdraw with memo as the transaction description. An
// empty memo records "Cash withdrawal".
func (l *Ledger) WithdrawMemo(number string, amount decimal.Decimal, memo string) (model.Transaction, error) {
	a, err := l.lookup(number)
	if err != nil {
		return model.Transaction{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	tx, err := a.withdraw(amount, orDefault(memo, descWithdrawal))
	if err != nil {
		return model.Transaction{}, err
	}
	l.record(tx)
	return tx, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Receipt holds both legs of a completed transfer.
type Receipt struct {
	Withdrawal model.Transaction
	Deposit    model.Transaction
}

// Transfer moves amount from one account to another. Both legs are
// validated under both account locks before either is applied, so a failed
// transfer changes nothing. Locks are taken in account-number order.
func (l *Ledger) Transfer(from, to string, amount decimal.Decimal) (Receipt, error) {
	return l.TransferMemo(from, to, amount, "")
}

// TransferMemo is Transfer with memo appended to both leg descriptions.
func (l *Ledger) TransferMemo(from, to string, amount decimal.Decimal, memo string) (Receipt, error) {
	if from == to {
		return Receipt{}, &AmountError{Amount: amount, Reason: "cannot transfer to the same account"}
	}
	if !amount.IsPositive() {
		return Receipt{}, &AmountError{Amount: amount, Reason: "transfer amount must be positive"}
	}
	if err := checkScale(amount); err != nil {
		return Receipt{}, err
	}
	src, err := l.lookup(from)
	if err != nil {
		return Receipt{}, err
	}
	dst, err := l.lookup(to)
	if err != nil {
		return Receipt{}, err
	}

	first, second := src, dst
	if to < from {
		first, second = dst, src
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if err := src.checkWithdraw(amount); err != nil {
		return Receipt{}, err
	}
	if err := dst.checkDeposit(amount); err != nil {
		return Receipt{}, err
	}

	out, in := "Transfer to "+to, "Transfer from "+from
	if memo != "" {
		out += ": " + memo
		in += ": " + memo
	}
	r := Receipt{
		Withdrawal: src.apply(model.TxWithdrawal, amount, out),
		Deposit:    dst.apply(model.TxDeposit, amount, in),
	}
	l.record(r.Withdrawal, r.Deposit)
	return r, nil
}

// ChangePassword replaces an account's secret when old matches.
func (l *Ledger) ChangePassword(number, old, replacement string) error {
	return l.WithAccount(number, func(h Locked) error {
		return h.ChangePassword(old, replacement)
	})
}

// Authenticate checks secret against the account's stored secret.
func (l *Ledger) Authenticate(number, secret string) error {
	a, err := l.lookup(number)
	if err != nil {
		return err
	}
	if !a.verify(secret) {
		return &CredentialsError{Number: number, Message: "invalid password"}
	}
	return nil
}

// Activate re-enables a deactivated account.
func (l *Ledger) Activate(number string) error {
	return l.setActive(number, true)
}

// Deactivate soft-deletes an account; it stays in the ledger.
func (l *Ledger) Deactivate(number string) error {
	return l.setActive(number, false)
}

func (l *Ledger) setActive(number string, active bool) error {
	return l.WithAccount(number, func(h Locked) error {
		h.a.active = active
		return nil
	})
}

// WithAccount runs fn while holding the account's lock. fn must not call
// back into the Ledger for the same account.
func (l *Ledger) WithAccount(number string, fn func(h Locked) error) error {
	a, err := l.lookup(number)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return fn(Locked{a: a})
}

func (l *Ledger) lookup(number string) (*Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.accounts[number]
	if !ok {
		return nil, &NotFoundError{Entity: "account", Key: number}
	}
	return a, nil
}

func (l *Ledger) record(txs ...model.Transaction) {
	l.journalMu.Lock()
	defer l.journalMu.Unlock()
	l.journal = append(l.journal, txs...)
}
