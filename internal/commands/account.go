package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/model"
)

func newAccountCommand(a *app) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Open, inspect and manage accounts",
	}
	accountCmd.AddCommand(
		newAccountCreateCommand(a),
		newAccountShowCommand(a),
		newAccountListCommand(a),
		newAccountStatusCommand(a, "activate", "Reactivate an account", true),
		newAccountStatusCommand(a, "deactivate", "Deactivate an account", false),
	)
	return accountCmd
}

func newAccountCreateCommand(a *app) *cobra.Command {
	var profile model.Profile
	var kind, deposit, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new account for a new customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(deposit)
			if err != nil {
				return fmt.Errorf("invalid initial deposit %q: %w", deposit, err)
			}
			ws, err := a.open()
			if err != nil {
				return err
			}
			if err := ws.guard.ValidatePassword(password); err != nil {
				return err
			}

			number, err := ws.ledger.CreateAccount(profile, model.AccountKind(kind), amount, password)
			if err != nil {
				return err
			}
			details := fmt.Sprintf("%s %s for %s", kind, amount.StringFixed(2), profile.Name)
			if err := ws.finish("account_create", number, details, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created: %s\n", number)
			return nil
		},
	}

	cmd.Flags().StringVar(&profile.Name, "name", "", "customer name (required)")
	cmd.Flags().StringVar(&profile.Email, "email", "", "customer email")
	cmd.Flags().StringVar(&profile.Phone, "phone", "", "customer phone")
	cmd.Flags().StringVar(&profile.Address, "address", "", "customer address")
	cmd.Flags().StringVar(&kind, "kind", string(model.KindSavings), "account kind: SAVINGS or CURRENT")
	cmd.Flags().StringVar(&deposit, "deposit", "0", "initial deposit")
	cmd.Flags().StringVar(&password, "password", "", "account password (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newAccountShowCommand(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "show <number>",
		Short: "Show account details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number := args[0]
			ws, err := a.open()
			if err != nil {
				return err
			}
			if err := ws.login(number, password); err != nil {
				return ws.finish("account_show", number, "", err)
			}
			rec, err := ws.ledger.GetAccount(number)
			if err != nil {
				return err
			}
			cust, err := ws.ledger.Customer(rec.CustomerID)
			if err != nil {
				return err
			}
			if err := ws.finish("account_show", number, "", nil); err != nil {
				return err
			}
			printAccount(cmd.OutOrStdout(), ws.cfg.Bank.Currency, rec, cust)
			return nil
		},
	}

	passwordFlag(cmd, &password)
	return cmd
}

func newAccountListCommand(a *app) *cobra.Command {
	var kind string
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open()
			if err != nil {
				return err
			}
			recs := ws.ledger.Accounts()
			if kind != "" {
				recs = ws.ledger.AccountsByKind(kind)
			}
			if activeOnly {
				active := recs[:0]
				for _, r := range recs {
					if r.Active {
						active = append(active, r)
					}
				}
				recs = active
			}
			return printAccounts(cmd.OutOrStdout(), ws.cfg.Bank.Currency, recs)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "only accounts of this kind")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only active accounts")
	return cmd
}

// newAccountStatusCommand builds activate and deactivate. These are
// bank-side operations and take no password.
func newAccountStatusCommand(a *app, use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <number>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number := args[0]
			ws, err := a.open()
			if err != nil {
				return err
			}
			if active {
				err = ws.ledger.Activate(number)
			} else {
				err = ws.ledger.Deactivate(number)
			}
			if err != nil {
				return err
			}
			if err := ws.finish("account_"+use, number, "", nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s %sd\n", number, use)
			return nil
		},
	}
}

func passwordFlag(cmd *cobra.Command, password *string) {
	cmd.Flags().StringVar(password, "password", "", "account password (required)")
	_ = cmd.MarkFlagRequired("password")
}
