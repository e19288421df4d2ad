package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind classifies customer accounts.
type AccountKind string

const (
	KindSavings AccountKind = "SAVINGS"
	KindCurrent AccountKind = "CURRENT"
)

// ParseAccountKind normalizes s to a known kind. The second result is false
// for anything other than SAVINGS or CURRENT.
func ParseAccountKind(s string) (AccountKind, bool) {
	switch k := AccountKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindSavings, KindCurrent:
		return k, true
	default:
		return "", false
	}
}

// AccountRecord is the flat shape of an account, one row in accounts.csv.
type AccountRecord struct {
	Number      string
	Secret      string
	CustomerID  string
	Kind        AccountKind
	Balance     decimal.Decimal
	DateCreated time.Time // date only
	Active      bool
}
