package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/model"
)

// MaxScale is the number of decimal places an amount may carry.
const MaxScale = 2

const (
	descInitialDeposit = "Initial deposit"
	descDeposit        = "Cash deposit"
	descWithdrawal     = "Cash withdrawal"
)

// env is shared by all accounts of one Ledger.
type env struct {
	txIDs id.Generator
	now   func() time.Time
}

// Account is a customer account. mu serializes every change to it.
type Account struct {
	mu sync.Mutex

	number     string
	customerID string
	kind       model.AccountKind
	created    time.Time

	secret  string
	balance decimal.Decimal
	active  bool
	log     TransactionLog

	env *env
}

func newAccount(e *env, rec model.AccountRecord) *Account {
	return &Account{
		number:     rec.Number,
		customerID: rec.CustomerID,
		kind:       rec.Kind,
		created:    rec.DateCreated,
		secret:     rec.Secret,
		balance:    rec.Balance,
		active:     rec.Active,
		env:        e,
	}
}

// The methods below take a.mu themselves.

func (a *Account) snapshot() model.AccountRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.record()
}

func (a *Account) currentBalance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// history returns a copy of the retained transactions, oldest first.
func (a *Account) history() []model.Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.log.Entries()
}

func (a *Account) verify(secret string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authenticate(secret)
}

// The methods below assume a.mu is held.

func (a *Account) record() model.AccountRecord {
	return model.AccountRecord{
		Number:      a.number,
		Secret:      a.secret,
		CustomerID:  a.customerID,
		Kind:        a.kind,
		Balance:     a.balance,
		DateCreated: a.created,
		Active:      a.active,
	}
}

func (a *Account) authenticate(secret string) bool {
	return a.secret == secret
}

// checkScale rejects amounts finer than a cent.
func checkScale(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(MaxScale)) {
		return &AmountError{Amount: amount, Reason: fmt.Sprintf("amount has more than %d decimal places", MaxScale)}
	}
	return nil
}

func (a *Account) checkDeposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &AmountError{Amount: amount, Reason: "deposit amount must be positive"}
	}
	if err := checkScale(amount); err != nil {
		return err
	}
	if !a.active {
		return inactive(a.number)
	}
	return nil
}

func (a *Account) checkWithdraw(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &AmountError{Amount: amount, Reason: "withdrawal amount must be positive"}
	}
	if err := checkScale(amount); err != nil {
		return err
	}
	if !a.active {
		return inactive(a.number)
	}
	if amount.GreaterThan(a.balance) {
		return &InsufficientBalanceError{Number: a.number, Available: a.balance, Requested: amount}
	}
	return nil
}

func (a *Account) deposit(amount decimal.Decimal, desc string) (model.Transaction, error) {
	if err := a.checkDeposit(amount); err != nil {
		return model.Transaction{}, err
	}
	return a.apply(model.TxDeposit, amount, desc), nil
}

func (a *Account) withdraw(amount decimal.Decimal, desc string) (model.Transaction, error) {
	if err := a.checkWithdraw(amount); err != nil {
		return model.Transaction{}, err
	}
	return a.apply(model.TxWithdrawal, amount, desc), nil
}

// apply mutates the balance and appends the transaction. Callers validate first.
func (a *Account) apply(typ model.TransactionType, amount decimal.Decimal, desc string) model.Transaction {
	if typ == model.TxDeposit {
		a.balance = a.balance.Add(amount)
	} else {
		a.balance = a.balance.Sub(amount)
	}
	tx := model.Transaction{
		ID:            a.env.txIDs.Next(),
		AccountNumber: a.number,
		Type:          typ,
		Amount:        amount,
		BalanceAfter:  a.balance,
		Timestamp:     a.env.now(),
		Description:   desc,
	}
	a.log.Append(tx)
	return tx
}

// Locked is an account whose lock is held by the caller of Ledger.WithAccount.
// Its methods must not be used after the callback returns.
type Locked struct {
	a *Account
}

// Number returns the account number.
func (h Locked) Number() string { return h.a.number }

// Active reports whether the account is active.
func (h Locked) Active() bool { return h.a.active }

// Authenticate compares secret with the stored one.
func (h Locked) Authenticate(secret string) bool { return h.a.authenticate(secret) }

// ChangePassword replaces the secret when old matches. It applies no
// strength policy.
func (h Locked) ChangePassword(old, replacement string) error {
	if !h.a.authenticate(old) {
		return &CredentialsError{Number: h.a.number, Message: "current password is incorrect"}
	}
	h.a.secret = replacement
	return nil
}
