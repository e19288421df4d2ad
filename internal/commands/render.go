package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/model"
)

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...string) {
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
}

func money(currency string, d decimal.Decimal) string {
	return currency + d.StringFixed(2)
}

func status(active bool) string {
	if active {
		return "ACTIVE"
	}
	return "INACTIVE"
}

func printAccounts(w io.Writer, currency string, recs []model.AccountRecord) error {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No accounts found.")
		return nil
	}
	tw := newTable(w, "NUMBER", "CUSTOMER", "KIND", "BALANCE", "CREATED", "STATUS")
	for _, r := range recs {
		row(tw, r.Number, r.CustomerID, string(r.Kind), money(currency, r.Balance), r.DateCreated.Format("2006-01-02"), status(r.Active))
	}
	return tw.Flush()
}

func printTransactions(w io.Writer, currency string, txs []model.Transaction) error {
	if len(txs) == 0 {
		fmt.Fprintln(w, "No transactions found.")
		return nil
	}
	tw := newTable(w, "ID", "ACCOUNT", "TYPE", "AMOUNT", "BALANCE", "TIMESTAMP", "DESCRIPTION")
	for _, tx := range txs {
		row(tw, tx.ID, tx.AccountNumber, string(tx.Type),
			money(currency, tx.Amount), money(currency, tx.BalanceAfter),
			tx.Timestamp.Local().Format("2006-01-02 15:04:05"), tx.Description)
	}
	return tw.Flush()
}

func printAccount(w io.Writer, currency string, r model.AccountRecord, c model.Customer) {
	fmt.Fprintf(w, "Account Number: %s\n", r.Number)
	fmt.Fprintf(w, "Holder:         %s (%s)\n", c.Name, c.ID)
	if c.Email != "" {
		fmt.Fprintf(w, "Email:          %s\n", c.Email)
	}
	if c.Phone != "" {
		fmt.Fprintf(w, "Phone:          %s\n", c.Phone)
	}
	if c.Address != "" {
		fmt.Fprintf(w, "Address:        %s\n", c.Address)
	}
	fmt.Fprintf(w, "Kind:           %s\n", r.Kind)
	fmt.Fprintf(w, "Balance:        %s\n", money(currency, r.Balance))
	fmt.Fprintf(w, "Created:        %s\n", r.DateCreated.Format("2006-01-02"))
	fmt.Fprintf(w, "Status:         %s\n", status(r.Active))
}
