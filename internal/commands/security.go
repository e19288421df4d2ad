package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/guard"
)

func newSecurityCommand(a *app) *cobra.Command {
	securityCmd := &cobra.Command{
		Use:   "security",
		Short: "Inspect and clear login lockouts",
	}
	securityCmd.AddCommand(
		newSecurityStatusCommand(a),
		newSecurityUnlockCommand(a),
		newSecurityResetCommand(a),
	)
	return securityCmd
}

func newSecurityStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [number]",
		Short: "Show failed attempts and locks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open()
			if err != nil {
				return err
			}
			var report []guard.Status
			if len(args) == 1 {
				st, err := ws.guard.Status(args[0])
				if err != nil {
					return err
				}
				report = []guard.Status{st}
			} else {
				report = ws.guard.Report()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Max attempts: %d, lockout: %s\n", ws.cfg.Security.MaxAttempts, ws.cfg.Security.LockoutDuration)
			if len(report) == 0 {
				fmt.Fprintln(out, "No failed attempts or locked accounts.")
				return nil
			}
			tw := newTable(out, "ACCOUNT", "ATTEMPTS", "STATE", "REMAINING")
			for _, st := range report {
				state, remaining := "OPEN", "-"
				if st.Locked {
					state = "LOCKED"
					remaining = st.Remaining.Round(time.Second).String()
				}
				row(tw, st.Number, fmt.Sprint(st.Attempts), state, remaining)
			}
			return tw.Flush()
		},
	}
}

func newSecurityUnlockCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <number>",
		Short: "Clear an account's lock and failed attempts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number := args[0]
			ws, err := a.open()
			if err != nil {
				return err
			}
			if err := ws.guard.Unlock(number); err != nil {
				return err
			}
			if err := ws.finish("unlock", number, "", nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s unlocked\n", number)
			return nil
		},
	}
}

func newSecurityResetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear all locks and failed attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open()
			if err != nil {
				return err
			}
			ws.guard.Reset()
			if err := ws.finish("security_reset", "", "", nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All lockouts cleared")
			return nil
		},
	}
}
