package server

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/model"
)

type accountView struct {
	Number      string          `json:"number"`
	CustomerID  string          `json:"customer_id"`
	Kind        string          `json:"kind"`
	Balance     decimal.Decimal `json:"balance"`
	DateCreated string          `json:"date_created"`
	Active      bool            `json:"active"`
}

func newAccountView(r model.AccountRecord) accountView {
	return accountView{
		Number:      r.Number,
		CustomerID:  r.CustomerID,
		Kind:        string(r.Kind),
		Balance:     r.Balance,
		DateCreated: r.DateCreated.Format("2006-01-02"),
		Active:      r.Active,
	}
}

type transactionView struct {
	ID           string          `json:"id"`
	Account      string          `json:"account"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Timestamp    time.Time       `json:"timestamp"`
	Description  string          `json:"description"`
}

func newTransactionViews(txs []model.Transaction) []transactionView {
	out := make([]transactionView, len(txs))
	for i, tx := range txs {
		out[i] = transactionView{
			ID:           tx.ID,
			Account:      tx.AccountNumber,
			Type:         string(tx.Type),
			Amount:       tx.Amount,
			BalanceAfter: tx.BalanceAfter,
			Timestamp:    tx.Timestamp,
			Description:  tx.Description,
		}
	}
	return out
}

type statsView struct {
	Accounts         int             `json:"accounts"`
	ActiveAccounts   int             `json:"active_accounts"`
	Customers        int             `json:"customers"`
	Transactions     int             `json:"transactions"`
	TotalBalance     decimal.Decimal `json:"total_balance"`
	KindCounts       map[string]int  `json:"kinds"`
	TransactionTypes map[string]int  `json:"transaction_types"`
}

func newStatsView(s ledger.Stats) statsView {
	v := statsView{
		Accounts:         s.Accounts,
		ActiveAccounts:   s.ActiveAccounts,
		Customers:        s.Customers,
		Transactions:     s.Transactions,
		TotalBalance:     s.TotalBalance,
		KindCounts:       make(map[string]int, len(s.KindCounts)),
		TransactionTypes: make(map[string]int, len(s.TransactionTypes)),
	}
	for k, n := range s.KindCounts {
		v.KindCounts[string(k)] = n
	}
	for t, n := range s.TransactionTypes {
		v.TransactionTypes[string(t)] = n
	}
	return v
}
