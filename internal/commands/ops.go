package commands

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/store"
)

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

func newLoginCommand(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <number>",
		Short: "Check an account's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number := args[0]
			ws, err := a.open()
			if err != nil {
				return err
			}
			if err := ws.finish("login", number, "", ws.guard.Login(number, password)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Login successful")
			return nil
		},
	}

	passwordFlag(cmd, &password)
	return cmd
}

// newCashCommand builds deposit and withdraw, which differ only in the
// ledger call.
func newCashCommand(a *app, use, short string, op func(ws *workspace, number string, amount decimal.Decimal) (model.Transaction, error)) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   use + " <number> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			number := args[0]
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			ws, err := a.open()
			if err != nil {
				return err
			}
			if err := ws.login(number, password); err != nil {
				return ws.finish(use, number, "", err)
			}

			tx, err := op(ws, number, amount)
			details := amount.StringFixed(2)
			if err := ws.finish(use, number, details, err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s. New balance: %s (transaction %s)\n",
				tx.Type, money(ws.cfg.Bank.Currency, amount), money(ws.cfg.Bank.Currency, tx.BalanceAfter), tx.ID)
			return nil
		},
	}

	passwordFlag(cmd, &password)
	return cmd
}

func newDepositCommand(a *app) *cobra.Command {
	return newCashCommand(a, "deposit", "Deposit money into an account",
		func(ws *workspace, number string, amount decimal.Decimal) (model.Transaction, error) {
			return ws.ledger.Deposit(number, amount)
		})
}

func newWithdrawCommand(a *app) *cobra.Command {
	return newCashCommand(a, "withdraw", "Withdraw money from an account",
		func(ws *workspace, number string, amount decimal.Decimal) (model.Transaction, error) {
			return ws.ledger.Withdraw(number, amount)
		})
}

func newTransferCommand(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "transfer <from> <to> <amount>",
		Short: "Move money between two accounts",
		Long:  "Move money between two accounts. --password is the source account's password.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to := args[0], args[1]
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			ws, err := a.open()
			if err != nil {
				return err
			}
			if err := ws.login(from, password); err != nil {
				return ws.finish("transfer", from, "", err)
			}

			_, err = ws.ledger.Transfer(from, to, amount)
			details := fmt.Sprintf("%s to %s", amount.StringFixed(2), to)
			if err := ws.finish("transfer", from, details, err); err != nil {
				return err
			}

			src, err := ws.ledger.GetAccount(from)
			if err != nil {
				return err
			}
			cur := ws.cfg.Bank.Currency
			fmt.Fprintf(cmd.OutOrStdout(), "Transferred %s from %s to %s. New balance: %s\n",
				money(cur, amount), from, to, money(cur, src.Balance))
			return nil
		},
	}

	passwordFlag(cmd, &password)
	return cmd
}

func newHistoryCommand(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "history <number>",
		Short: "Show an account's recent transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number := args[0]
			ws, err := a.open()
			if err != nil {
				return err
			}
			if err := ws.login(number, password); err != nil {
				return ws.finish("history", number, "", err)
			}
			txs, err := ws.ledger.History(number)
			if err != nil {
				return err
			}
			if err := ws.finish("history", number, "", nil); err != nil {
				return err
			}
			return printTransactions(cmd.OutOrStdout(), ws.cfg.Bank.Currency, txs)
		},
	}

	passwordFlag(cmd, &password)
	return cmd
}

func newPasswdCommand(a *app) *cobra.Command {
	var oldPassword, newPassword string

	cmd := &cobra.Command{
		Use:   "passwd <number>",
		Short: "Change an account's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number := args[0]
			ws, err := a.open()
			if err != nil {
				return err
			}
			err = ws.guard.ChangePassword(number, oldPassword, newPassword)
			if err := ws.finish("passwd", number, "", err); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password changed")
			return nil
		},
	}

	cmd.Flags().StringVar(&oldPassword, "old", "", "current password (required)")
	cmd.Flags().StringVar(&newPassword, "new", "", "new password (required)")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}

func newStatementCommand(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "statement <number>",
		Short: "Export an account statement to the data directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number := args[0]
			ws, err := a.open()
			if err != nil {
				return err
			}
			if err := ws.login(number, password); err != nil {
				return ws.finish("statement", number, "", err)
			}

			rec, err := ws.ledger.GetAccount(number)
			if err != nil {
				return err
			}
			holder, err := ws.ledger.Customer(rec.CustomerID)
			if err != nil {
				return err
			}
			txs, err := ws.ledger.History(number)
			if err != nil {
				return err
			}
			path, err := ws.store.ExportStatement(store.Statement{
				Bank:         ws.cfg.Bank.Name,
				Currency:     ws.cfg.Bank.Currency,
				Account:      rec,
				Holder:       holder,
				Transactions: txs,
				Generated:    time.Now(),
			})
			if err := ws.finish("statement", number, path, err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Statement written to %s\n", path)
			return nil
		},
	}

	passwordFlag(cmd, &password)
	return cmd
}
