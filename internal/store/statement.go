package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cleared-dev/teller/internal/model"
)

// Statement is the content of an exported account statement.
type Statement struct {
	Bank         string
	Currency     string
	Account      model.AccountRecord
	Holder       model.Customer
	Transactions []model.Transaction
	Generated    time.Time
}

// WriteStatement renders st as plain text.
func WriteStatement(w io.Writer, st Statement) error {
	var b strings.Builder
	title := "ACCOUNT STATEMENT"
	if st.Bank != "" {
		title = strings.ToUpper(st.Bank) + " " + title
	}
	fmt.Fprintln(&b, title)
	fmt.Fprintln(&b, strings.Repeat("=", len(title)))
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Account Number:  %s\n", st.Account.Number)
	fmt.Fprintf(&b, "Account Holder:  %s\n", st.Holder.Name)
	fmt.Fprintf(&b, "Account Type:    %s\n", st.Account.Kind)
	fmt.Fprintf(&b, "Current Balance: %s%s\n", st.Currency, st.Account.Balance.StringFixed(2))
	fmt.Fprintf(&b, "Date Created:    %s\n", st.Account.DateCreated.Format("02-01-2006"))
	if !st.Account.Active {
		fmt.Fprintln(&b, "Status:          INACTIVE")
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "TRANSACTION HISTORY")
	fmt.Fprintln(&b, "===================")

	if len(st.Transactions) == 0 {
		fmt.Fprintln(&b, "No transactions found.")
	} else {
		fmt.Fprintf(&b, "%-30s %-12s %12s %12s  %-19s  %s\n", "Transaction ID", "Type", "Amount", "Balance", "Timestamp", "Description")
		fmt.Fprintln(&b, strings.Repeat("-", 110))
		for _, tx := range st.Transactions {
			fmt.Fprintf(&b, "%-30s %-12s %12s %12s  %-19s  %s\n",
				tx.ID, tx.Type, tx.Amount.StringFixed(2), tx.BalanceAfter.StringFixed(2),
				tx.Timestamp.Format("02-01-2006 15:04:05"), tx.Description)
		}
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "End of Statement")
	fmt.Fprintf(&b, "Generated on: %s\n", st.Generated.Format("02-01-2006 15:04:05"))

	_, err := io.WriteString(w, b.String())
	return err
}

// ExportStatement writes st to statement_<number>_<timestamp>.txt in the
// data directory and returns the path.
func (s *Store) ExportStatement(st Statement) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	name := fmt.Sprintf("statement_%s_%s.txt", st.Account.Number, st.Generated.Format("20060102-150405"))
	path := filepath.Join(s.dir, name)
	if err := writeFile(path, func(w io.Writer) error { return WriteStatement(w, st) }); err != nil {
		return "", fmt.Errorf("exporting statement: %w", err)
	}
	return path, nil
}
