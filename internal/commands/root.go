package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/teller/internal/buildinfo"
)

// Viper keys. Each is also read from TELLER_<KEY>.
const (
	keyHome     = "home"
	keyLogLevel = "log_level"
)

// app carries settings shared by every command.
type app struct {
	v *viper.Viper
}

func (a *app) home() string     { return a.v.GetString(keyHome) }
func (a *app) logLevel() string { return a.v.GetString(keyLogLevel) }

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix("TELLER")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	a.v.SetDefault(keyHome, ".")

	rootCmd := &cobra.Command{
		Use:     "teller",
		Short:   "Single-process banking ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("home", ".", "workspace directory (env TELLER_HOME)")
	flags.String("log-level", "", "log level: debug, info, warn, error (env TELLER_LOG_LEVEL)")
	_ = a.v.BindPFlag(keyHome, flags.Lookup("home"))
	_ = a.v.BindPFlag(keyLogLevel, flags.Lookup("log-level"))

	rootCmd.AddCommand(
		newInitCommand(a),
		newAccountCommand(a),
		newLoginCommand(a),
		newDepositCommand(a),
		newWithdrawCommand(a),
		newTransferCommand(a),
		newHistoryCommand(a),
		newPasswdCommand(a),
		newStatementCommand(a),
		newStatsCommand(a),
		newCustomersCommand(a),
		newTransactionsCommand(a),
		newSecurityCommand(a),
		newBackupCommand(a),
		newBatchCommand(a),
		newServeCommand(a),
	)

	return rootCmd
}
