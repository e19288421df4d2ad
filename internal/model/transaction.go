package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a monetary event.
type TransactionType string

const (
	TxDeposit    TransactionType = "DEPOSIT"
	TxWithdrawal TransactionType = "WITHDRAWAL"
)

// ParseTransactionType normalizes s, case-insensitively.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch t := TransactionType(strings.ToUpper(strings.TrimSpace(s))); t {
	case TxDeposit, TxWithdrawal:
		return t, true
	default:
		return "", false
	}
}

// Transaction is an immutable monetary event on one account.
type Transaction struct {
	ID            string
	AccountNumber string
	Type          TransactionType
	Amount        decimal.Decimal // always positive
	BalanceAfter  decimal.Decimal
	Timestamp     time.Time
	Description   string
}
