package gitops

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) Repo {
	t.Helper()
	if !Available() {
		t.Skip("git not installed")
	}
	return Repo{Dir: t.TempDir(), AuthorName: "Test Author", AuthorEmail: "test@example.com"}
}

func TestInit(t *testing.T) {
	r := newRepo(t)
	require.NoError(t, r.Init())

	_, err := os.Stat(filepath.Join(r.Dir, ".git"))
	require.NoError(t, err, ".git directory should exist")

	data, err := os.ReadFile(filepath.Join(r.Dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "*.tmp")
}

func TestIsRepo(t *testing.T) {
	r := newRepo(t)
	assert.False(t, r.IsRepo(), "empty dir should not be a repo")

	require.NoError(t, r.Init())
	assert.True(t, r.IsRepo(), "initialized dir should be a repo")
}

func TestCommit(t *testing.T) {
	r := newRepo(t)
	require.NoError(t, r.Init())

	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "accounts.csv"), []byte("number\n"), 0o644))

	hash, err := r.Commit("teller: init")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	log := exec.Command("git", "log", "--format=%s|%an <%ae>", "-1")
	log.Dir = r.Dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "teller: init|Test Author <test@example.com>")
}

func TestCommit_Clean(t *testing.T) {
	r := newRepo(t)
	require.NoError(t, r.Init())
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "a.csv"), []byte("x\n"), 0o644))
	_, err := r.Commit("first")
	require.NoError(t, err)

	_, err = r.Commit("second")
	assert.ErrorIs(t, err, ErrNothingToCommit)
}

func TestCommit_Paths(t *testing.T) {
	r := newRepo(t)
	require.NoError(t, r.Init())
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "a.csv"), []byte("x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "b.csv"), []byte("y\n"), 0o644))

	_, err := r.Commit("only a", "a.csv")
	require.NoError(t, err)

	status := exec.Command("git", "status", "--porcelain")
	status.Dir = r.Dir
	out, err := status.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "b.csv")
	assert.NotContains(t, string(out), "a.csv")
}

func TestCommit_NotRepo(t *testing.T) {
	r := newRepo(t)
	_, err := r.Commit("nope")
	assert.Error(t, err)
}
