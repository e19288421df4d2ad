package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

func newBackupCommand(a *app) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy the data files into a timestamped backup directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if list {
				backups, err := ws.store.Backups()
				if err != nil {
					return err
				}
				if len(backups) == 0 {
					fmt.Fprintln(out, "No backups found.")
				}
				for _, b := range backups {
					fmt.Fprintln(out, filepath.Base(b))
				}
				return nil
			}

			dir, err := ws.store.Backup(ws.state(), time.Now(), ws.cfg.Backup.Keep)
			if err := ws.finish("backup", "", filepath.Base(dir), err); err != nil {
				return err
			}
			fmt.Fprintf(out, "Backup written to %s\n", dir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list existing backups instead")
	return cmd
}
