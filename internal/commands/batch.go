package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/teller/internal/auditlog"
	"github.com/cleared-dev/teller/internal/batch"
)

func newBatchCommand(a *app) *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Apply files of operations",
	}
	batchCmd.AddCommand(newBatchRunCommand(a))
	return batchCmd
}

func newBatchRunCommand(a *app) *cobra.Command {
	var format string
	var defaults batch.Defaults

	cmd := &cobra.Command{
		Use:   "run [file...]",
		Short: "Apply operation files (default: every CSV in import/)",
		Long: "Apply operation files. Without arguments every CSV in import/ is applied\n" +
			"and moved to import/processed/. Each row logs in as its account first;\n" +
			"rows that fail are reported and the rest still run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := batch.DefaultRegistry().Get(format)
			if parser == nil {
				return fmt.Errorf("unknown format %q (want ops or chase)", format)
			}
			ws, err := a.open()
			if err != nil {
				return err
			}

			fromImport := len(args) == 0
			paths := args
			if fromImport {
				files, err := batch.Scan(ws.home)
				if err != nil {
					return err
				}
				for _, f := range files {
					paths = append(paths, f.Path)
				}
			}
			if len(paths) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No files to process.")
				return nil
			}

			var total batch.Summary
			for _, path := range paths {
				sum, err := runBatchFile(cmd, ws, parser, path, defaults)
				if err != nil {
					return ws.finish("batch_run", defaults.Account, "", err)
				}
				total.Applied += sum.Applied
				total.Failed += sum.Failed
				if fromImport {
					if err := batch.MarkProcessed(ws.home, filepath.Base(path)); err != nil {
						return ws.finish("batch_run", defaults.Account, "", err)
					}
				}
			}

			details := fmt.Sprintf("%d files, %d applied, %d failed", len(paths), total.Applied, total.Failed)
			if err := ws.finish("batch_run", defaults.Account, details, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d operations, %d failed\n", total.Applied, total.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "ops", "file format: ops or chase")
	cmd.Flags().StringVar(&defaults.Account, "account", "", "account for rows that name none")
	cmd.Flags().StringVar(&defaults.Password, "password", "", "password for rows that carry none")
	return cmd
}

func runBatchFile(cmd *cobra.Command, ws *workspace, parser batch.Parser, path string, d batch.Defaults) (batch.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return batch.Summary{}, fmt.Errorf("opening %s: %w", path, err)
	}
	ops, err := parser.Parse(f)
	f.Close()
	if err != nil {
		return batch.Summary{}, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	results, sum := batch.Run(ws.ledger, ws.guard, ops, d)
	ws.log.Info("batch file applied",
		zap.String("file", filepath.Base(path)),
		zap.Int("applied", sum.Applied),
		zap.Int("failed", sum.Failed))

	out := cmd.OutOrStdout()
	now := time.Now().UTC()
	entries := make([]auditlog.Entry, 0, len(results))
	for _, r := range results {
		e := auditlog.Entry{
			Timestamp: now,
			Actor:     auditlog.ActorBatch,
			Action:    string(r.Op.Kind),
			Account:   r.Op.Account,
			Outcome:   auditlog.OutcomeOK,
			Details:   fmt.Sprintf("%s line %d: %s", filepath.Base(path), r.Op.Line, r.Op.Amount.StringFixed(2)),
		}
		if r.Err != nil {
			e.Outcome = auditlog.OutcomeFailed
			e.Details = r.Err.Error()
			fmt.Fprintf(out, "FAILED %s\n", r.Err)
		} else {
			ids := make([]string, len(r.Transactions))
			for i, tx := range r.Transactions {
				ids[i] = tx.ID
			}
			fmt.Fprintf(out, "ok     line %d: %s %s %s (%s)\n", r.Op.Line, r.Op.Kind, r.Op.Account, r.Op.Amount.StringFixed(2), strings.Join(ids, ", "))
		}
		entries = append(entries, e)
	}
	if err := auditlog.Append(ws.home, entries...); err != nil {
		ws.log.Warn("failed to write audit log", zap.Error(err))
	}
	return sum, nil
}
