// Package gitops commits workspace changes to a local git repository so the
// data directory carries its own history.
package gitops

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNothingToCommit is returned by Commit when the tree is clean.
var ErrNothingToCommit = errors.New("nothing to commit")

// Repo is a git working tree with a fixed author.
type Repo struct {
	Dir         string
	AuthorName  string
	AuthorEmail string
}

// Available reports whether a git binary is on PATH.
func Available() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Init initializes a new git repository at r.Dir and writes a .gitignore
// that keeps temp files out of history.
func (r Repo) Init() error {
	if _, err := r.run("init", "-q"); err != nil {
		return err
	}
	ignore := filepath.Join(r.Dir, ".gitignore")
	if _, err := os.Stat(ignore); os.IsNotExist(err) {
		if err := os.WriteFile(ignore, []byte("*.tmp\n"), 0o644); err != nil {
			return fmt.Errorf("writing .gitignore: %w", err)
		}
	}
	return nil
}

// IsRepo reports whether r.Dir is the root of a git repository.
func (r Repo) IsRepo() bool {
	_, err := os.Stat(filepath.Join(r.Dir, ".git"))
	return err == nil
}

// Commit stages paths (everything when empty) and creates a commit.
// Returns the short commit hash.
func (r Repo) Commit(message string, paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = []string{"-A"}
	}
	if _, err := r.run(append([]string{"add"}, paths...)...); err != nil {
		return "", err
	}

	staged, err := r.run("diff", "--cached", "--name-only")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(staged) == "" {
		return "", ErrNothingToCommit
	}

	author := fmt.Sprintf("%s <%s>", r.AuthorName, r.AuthorEmail)
	if _, err := r.run("commit", "-q", "-m", message, "--author", author); err != nil {
		return "", err
	}

	out, err := r.run("rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// run executes git in r.Dir. The committer identity is taken from the
// author so commits work without a global git config.
func (r Repo) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(),
		"GIT_COMMITTER_NAME="+r.AuthorName,
		"GIT_COMMITTER_EMAIL="+r.AuthorEmail,
		"GIT_AUTHOR_NAME="+r.AuthorName,
		"GIT_AUTHOR_EMAIL="+r.AuthorEmail,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return string(out), nil
}
