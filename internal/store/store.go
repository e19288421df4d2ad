// Package store persists a workspace's ledger and guard state as CSV files
// under <home>/data.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/model"
)

const (
	DataDir          = "data"
	CustomersFile    = "customers.csv"
	AccountsFile     = "accounts.csv"
	TransactionsFile = "transactions.csv"
	LocksFile        = "lockouts.csv"

	backupPrefix = "backup_"
	backupLayout = "20060102-150405.000"
)

// DataFiles lists the files written by Save, in write order.
var DataFiles = []string{CustomersFile, AccountsFile, TransactionsFile, LocksFile}

// State is everything persisted for a workspace.
type State struct {
	Ledger ledger.Snapshot
	Locks  []model.LockRecord
}

// Store reads and writes the data directory of one workspace.
type Store struct {
	dir string
}

// New returns a Store for the workspace rooted at home.
func New(home string) *Store {
	return &Store{dir: filepath.Join(home, DataDir)}
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// Exists reports whether any data file has been written.
func (s *Store) Exists() bool {
	for _, name := range DataFiles {
		if _, err := os.Stat(filepath.Join(s.dir, name)); err == nil {
			return true
		}
	}
	return false
}

// Load reads all data files. Missing files load as empty.
func (s *Store) Load() (State, error) {
	return readState(s.dir)
}

// Save writes all data files, replacing each one atomically.
func (s *Store) Save(st State) error {
	return writeState(s.dir, st)
}

// Backup writes st into a new backup_<timestamp> directory and removes the
// oldest backups beyond keep. keep <= 0 keeps everything.
func (s *Store) Backup(st State, now time.Time, keep int) (string, error) {
	dir := filepath.Join(s.dir, backupPrefix+now.Format(backupLayout))
	if _, err := os.Stat(dir); err == nil {
		return "", fmt.Errorf("backup %s already exists", filepath.Base(dir))
	}
	if err := writeState(dir, st); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	if keep <= 0 {
		return dir, nil
	}

	backups, err := s.Backups()
	if err != nil {
		return "", err
	}
	for len(backups) > keep {
		if err := os.RemoveAll(backups[0]); err != nil {
			return "", fmt.Errorf("removing old backup: %w", err)
		}
		backups = backups[1:]
	}
	return dir, nil
}

// Backups returns backup directories, oldest first.
func (s *Store) Backups() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing data dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), backupPrefix) {
			out = append(out, filepath.Join(s.dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// LoadBackup reads the state saved in a backup directory.
func LoadBackup(dir string) (State, error) {
	return readState(dir)
}

// FileStat is the size of one data file; Size is 0 when it is missing.
type FileStat struct {
	Name   string
	Size   int64
	Exists bool
}

// FileInfo reports the size of each data file.
func (s *Store) FileInfo() ([]FileStat, error) {
	out := make([]FileStat, 0, len(DataFiles))
	for _, name := range DataFiles {
		st := FileStat{Name: name}
		info, err := os.Stat(filepath.Join(s.dir, name))
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("stat %s: %w", name, err)
		default:
			st.Size = info.Size()
			st.Exists = true
		}
		out = append(out, st)
	}
	return out, nil
}

func readState(dir string) (State, error) {
	var st State
	var err error
	if st.Ledger.Customers, err = readFile(filepath.Join(dir, CustomersFile), ReadCustomers); err != nil {
		return State{}, err
	}
	if st.Ledger.Accounts, err = readFile(filepath.Join(dir, AccountsFile), ReadAccounts); err != nil {
		return State{}, err
	}
	if st.Ledger.Transactions, err = readFile(filepath.Join(dir, TransactionsFile), ReadTransactions); err != nil {
		return State{}, err
	}
	if st.Locks, err = readFile(filepath.Join(dir, LocksFile), ReadLocks); err != nil {
		return State{}, err
	}
	return st, nil
}

func writeState(dir string, st State) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{CustomersFile, func(w io.Writer) error { return WriteCustomers(w, st.Ledger.Customers) }},
		{AccountsFile, func(w io.Writer) error { return WriteAccounts(w, st.Ledger.Accounts) }},
		{TransactionsFile, func(w io.Writer) error { return WriteTransactions(w, st.Ledger.Transactions) }},
		{LocksFile, func(w io.Writer) error { return WriteLocks(w, st.Locks) }},
	}
	for _, wr := range writers {
		if err := writeFile(filepath.Join(dir, wr.name), wr.write); err != nil {
			return err
		}
	}
	return nil
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	rows, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// writeFile writes through a temp file and renames it into place.
func writeFile(path string, write func(io.Writer) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
