package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Error kinds. Detailed errors below match these with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInactive            = errors.New("account is inactive")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrLockedOut           = errors.New("account is locked")
	ErrInvalidKind         = errors.New("invalid account kind")
)

// NotFoundError reports a missing account or customer.
type NotFoundError struct {
	Entity string // "account" or "customer"
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AmountError reports a rejected amount.
type AmountError struct {
	Amount decimal.Decimal
	Reason string
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("%s (amount: %s)", e.Reason, e.Amount.String())
}

func (e *AmountError) Is(target error) bool { return target == ErrInvalidAmount }

// InsufficientBalanceError reports a withdrawal larger than the balance.
type InsufficientBalanceError struct {
	Number    string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance in %s (available: %s, requested: %s)",
		e.Number, e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientBalanceError) Is(target error) bool { return target == ErrInsufficientBalance }

// CredentialsError reports a failed secret check. Attempts is the failed
// attempt count so far (0 when not tracked). Locked is set when the account
// is, or has just become, locked; Remaining is the time left on the lock.
type CredentialsError struct {
	Number    string
	Message   string
	Attempts  int
	Locked    bool
	Remaining time.Duration
}

func (e *CredentialsError) Error() string {
	msg := e.Message
	if e.Number != "" {
		msg += " (account: " + e.Number + ")"
	}
	if e.Attempts > 0 {
		msg += fmt.Sprintf(" [attempt: %d]", e.Attempts)
	}
	return msg
}

func (e *CredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials || (e.Locked && target == ErrLockedOut)
}

func inactive(number string) error {
	return fmt.Errorf("account %s: %w", number, ErrInactive)
}
