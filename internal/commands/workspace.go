package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/teller/internal/auditlog"
	"github.com/cleared-dev/teller/internal/config"
	"github.com/cleared-dev/teller/internal/gitops"
	"github.com/cleared-dev/teller/internal/guard"
	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/logging"
	"github.com/cleared-dev/teller/internal/store"
)

// ConfigFile is the workspace configuration file name.
const ConfigFile = "teller.yaml"

// workspace is a loaded teller home directory.
type workspace struct {
	home   string
	cfg    *config.Config
	log    *zap.Logger
	ledger *ledger.Ledger
	guard  *guard.Guard
	store  *store.Store
}

// open loads the workspace at the configured home.
func (a *app) open() (*workspace, error) {
	home, err := filepath.Abs(a.home())
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(filepath.Join(home, ConfigFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s is not a teller workspace (run `teller init` first)", home)
	}
	if err != nil {
		return nil, err
	}

	ws, err := newWorkspace(home, cfg, a.logLevel())
	if err != nil {
		return nil, err
	}
	if !ws.store.Exists() {
		return ws, nil
	}
	st, err := ws.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading data: %w", err)
	}
	if err := ws.ledger.Restore(st.Ledger); err != nil {
		return nil, fmt.Errorf("restoring ledger: %w", err)
	}
	ws.guard.Restore(st.Locks)
	ws.log.Debug("workspace loaded",
		zap.String("home", home),
		zap.Int("accounts", len(st.Ledger.Accounts)),
		zap.Int("transactions", len(st.Ledger.Transactions)))
	return ws, nil
}

// newWorkspace wires an empty ledger and guard from cfg. level overrides
// the configured log level when set.
func newWorkspace(home string, cfg *config.Config, level string) (*workspace, error) {
	if level == "" {
		level = cfg.Logging.Level
	}
	log, err := logging.New(level)
	if err != nil {
		return nil, err
	}

	l := ledger.New(
		ledger.WithAccountIDs(idGenerator(cfg.IDs.Scheme, cfg.IDs.AccountPrefix, id.AccountPrefix)),
		ledger.WithCustomerIDs(idGenerator(cfg.IDs.Scheme, cfg.IDs.CustomerPrefix, id.CustomerPrefix)),
	)
	g := guard.New(l,
		guard.WithMaxAttempts(cfg.Security.MaxAttempts),
		guard.WithLockout(cfg.Security.LockoutDuration),
		guard.WithMinPasswordLength(cfg.Security.MinPasswordLength),
	)
	return &workspace{
		home:   home,
		cfg:    cfg,
		log:    log,
		ledger: l,
		guard:  g,
		store:  store.New(home),
	}, nil
}

func idGenerator(scheme, prefix, fallback string) id.Generator {
	if prefix == "" {
		prefix = fallback
	}
	if scheme == config.SchemeUUID {
		return id.UUID{Prefix: prefix}
	}
	return id.NewSequence(prefix, id.DefaultWidth, id.DefaultStart)
}

func (ws *workspace) state() store.State {
	return store.State{Ledger: ws.ledger.Export(), Locks: ws.guard.Export()}
}

// save writes the data files, commits them when git.auto_commit is on, and
// returns the commit hash (empty when nothing was committed).
func (ws *workspace) save(message string) (string, error) {
	if err := ws.store.Save(ws.state()); err != nil {
		return "", fmt.Errorf("saving data: %w", err)
	}
	ws.log.Debug("workspace saved", zap.String("dir", ws.store.Dir()))

	if !ws.cfg.Git.AutoCommit {
		return "", nil
	}
	repo := ws.repo()
	if !repo.IsRepo() {
		return "", nil
	}
	hash, err := repo.Commit(message)
	if errors.Is(err, gitops.ErrNothingToCommit) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	ws.log.Debug("committed", zap.String("hash", hash), zap.String("message", message))
	return hash, nil
}

func (ws *workspace) repo() gitops.Repo {
	return gitops.Repo{Dir: ws.home, AuthorName: ws.cfg.Git.AuthorName, AuthorEmail: ws.cfg.Git.AuthorEmail}
}

// finish persists the workspace after action ran against account and records
// it in the audit log. The state is saved even when opErr is set, since
// failed logins change the lockout state. opErr is returned unchanged.
func (ws *workspace) finish(action, account, details string, opErr error) error {
	message := action
	if account != "" {
		message += ": " + account
	}
	hash, err := ws.save(message)
	if err != nil {
		if opErr != nil {
			ws.log.Error("save failed", zap.Error(err))
			return opErr
		}
		return err
	}

	entry := auditlog.Entry{
		Timestamp:  time.Now().UTC(),
		Actor:      auditlog.ActorCLI,
		Action:     action,
		Account:    account,
		Outcome:    auditlog.OutcomeOK,
		Details:    details,
		CommitHash: hash,
	}
	if opErr != nil {
		entry.Outcome = auditlog.OutcomeFailed
		entry.Details = opErr.Error()
	}
	if err := auditlog.Append(ws.home, entry); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to write audit log: %v\n", err)
	}
	return opErr
}

// login authenticates the account owner and checks the account is not
// locked, as every account-scoped command must.
func (ws *workspace) login(number, password string) error {
	if err := ws.guard.Login(number, password); err != nil {
		return err
	}
	return ws.guard.Authorize(number)
}
