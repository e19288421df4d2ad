package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/teller/internal/auditlog"
	"github.com/cleared-dev/teller/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open()
			if err != nil {
				return err
			}
			defer func() { _ = ws.log.Sync() }()

			if addr == "" {
				addr = ws.cfg.Server.Addr
			}
			tokens, err := server.NewTokens(ws.cfg.Server.JWTSecret, ws.cfg.Server.TokenTTL, nil)
			if err != nil {
				return fmt.Errorf("configuring tokens: %w", err)
			}

			srv := server.New(ws.ledger, ws.guard, tokens,
				server.WithLogger(ws.log),
				server.WithPersist(ws.persist),
			)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from teller.yaml)")
	return cmd
}

// persist saves the workspace after a server request changed it.
func (ws *workspace) persist(action, account string) error {
	hash, err := ws.save(action + ": " + account)
	if err != nil {
		return err
	}
	entry := auditlog.Entry{
		Timestamp:  time.Now().UTC(),
		Actor:      auditlog.ActorServer,
		Action:     action,
		Account:    account,
		Outcome:    auditlog.OutcomeOK,
		CommitHash: hash,
	}
	if strings.HasSuffix(action, "_failed") {
		entry.Outcome = auditlog.OutcomeFailed
	}
	if err := auditlog.Append(ws.home, entry); err != nil {
		ws.log.Warn("failed to write audit log", zap.Error(err))
	}
	return nil
}
