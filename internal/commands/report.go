package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/model"
)

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show ledger statistics and data file sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open()
			if err != nil {
				return err
			}
			s := ws.ledger.Stats()
			out := cmd.OutOrStdout()
			cur := ws.cfg.Bank.Currency

			fmt.Fprintf(out, "Accounts:       %d (%d active)\n", s.Accounts, s.ActiveAccounts)
			fmt.Fprintf(out, "Customers:      %d\n", s.Customers)
			fmt.Fprintf(out, "Transactions:   %d\n", s.Transactions)
			fmt.Fprintf(out, "Total balance:  %s\n", money(cur, s.TotalBalance))

			kinds := make([]string, 0, len(s.KindCounts))
			for k := range s.KindCounts {
				kinds = append(kinds, string(k))
			}
			sort.Strings(kinds)
			for _, k := range kinds {
				fmt.Fprintf(out, "  %-12s  %d\n", k, s.KindCounts[model.AccountKind(k)])
			}
			types := make([]string, 0, len(s.TransactionTypes))
			for t := range s.TransactionTypes {
				types = append(types, string(t))
			}
			sort.Strings(types)
			for _, t := range types {
				fmt.Fprintf(out, "  %-12s  %d\n", t, s.TransactionTypes[model.TransactionType(t)])
			}

			files, err := ws.store.FileInfo()
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			tw := newTable(out, "FILE", "SIZE")
			for _, f := range files {
				size := "missing"
				if f.Exists {
					size = fmt.Sprintf("%d bytes", f.Size)
				}
				row(tw, f.Name, size)
			}
			return tw.Flush()
		},
	}
}

func newCustomersCommand(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "customers",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open()
			if err != nil {
				return err
			}
			customers := ws.ledger.Customers()
			if name != "" {
				c, ok := ws.ledger.FindCustomerByName(name)
				if !ok {
					return fmt.Errorf("no customer matching %q", name)
				}
				customers = []model.Customer{c}
			}

			out := cmd.OutOrStdout()
			if len(customers) == 0 {
				fmt.Fprintln(out, "No customers found.")
				return nil
			}
			tw := newTable(out, "ID", "NAME", "EMAIL", "PHONE", "ADDRESS")
			for _, c := range customers {
				row(tw, c.ID, c.Name, c.Email, c.Phone, c.Address)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "first customer whose name contains this text")
	return cmd
}

func newTransactionsCommand(a *app) *cobra.Command {
	var typ string

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List all recorded transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open()
			if err != nil {
				return err
			}
			txs := ws.ledger.Transactions()
			if typ != "" {
				if _, ok := model.ParseTransactionType(typ); !ok {
					return fmt.Errorf("unknown transaction type %q (want DEPOSIT or WITHDRAWAL)", typ)
				}
				txs = ws.ledger.TransactionsByType(typ)
			}
			return printTransactions(cmd.OutOrStdout(), ws.cfg.Bank.Currency, txs)
		},
	}

	cmd.Flags().StringVar(&typ, "type", "", "DEPOSIT or WITHDRAWAL")
	return cmd
}
