package batch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/teller/internal/guard"
	"github.com/cleared-dev/teller/internal/ledger"
)

func openTestdata(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestOpsParser_Parse(t *testing.T) {
	ops, err := (&OpsParser{}).Parse(openTestdata(t, "operations.csv"))
	require.NoError(t, err)
	require.Len(t, ops, 4)

	assert.Equal(t, KindDeposit, ops[0].Kind)
	assert.Equal(t, "ACC001001", ops[0].Account)
	assert.Equal(t, "250.00", ops[0].Amount.StringFixed(2))
	assert.Equal(t, "payroll", ops[0].Memo)
	assert.Equal(t, 2, ops[0].Line)

	assert.Equal(t, KindTransfer, ops[2].Kind)
	assert.Equal(t, "ACC001001", ops[2].Target)
	assert.Equal(t, 4, ops[2].Line)
}

func TestOpsParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"unknown op", "refund,ACC1,,1,pw,", "unknown operation"},
		{"bad amount", "deposit,ACC1,,ten,pw,", "parsing amount"},
		{"transfer without target", "transfer,ACC1,,1,pw,", "target"},
	}
	for _, tt := range tests {
		_, err := (&OpsParser{}).Parse(strings.NewReader(OpsHeader + "\n" + tt.row + "\n"))
		require.Error(t, err, tt.name)
		assert.Contains(t, err.Error(), tt.want, tt.name)
		assert.Contains(t, err.Error(), "row 2", tt.name)
	}
}

func TestOpsParser_HeaderOnly(t *testing.T) {
	ops, err := (&OpsParser{}).Parse(strings.NewReader(OpsHeader + "\n"))
	require.NoError(t, err)
	assert.Nil(t, ops)
}

func TestChaseParser_Parse(t *testing.T) {
	ops, err := (&ChaseParser{}).Parse(openTestdata(t, "chase_checking.csv"))
	require.NoError(t, err)
	require.Len(t, ops, 6)

	assert.Equal(t, KindWithdraw, ops[0].Kind)
	assert.Equal(t, "4.00", ops[0].Amount.StringFixed(2))
	assert.Equal(t, "2025-01-03 GITHUB *PRO SUBSCRIPTION", ops[0].Memo)
	assert.Empty(t, ops[0].Account)

	assert.Equal(t, KindDeposit, ops[3].Kind)
	assert.Equal(t, "3500.00", ops[3].Amount.StringFixed(2))

	for _, op := range ops {
		assert.True(t, op.Amount.IsPositive(), "line %d", op.Line)
	}
}

func TestChaseParser_BadRows(t *testing.T) {
	header := "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n"

	_, err := (&ChaseParser{}).Parse(strings.NewReader(header + "DEBIT,NOTADATE,desc,-4.00,ACH_DEBIT,100.00,\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing date")

	_, err = (&ChaseParser{}).Parse(strings.NewReader(header + "DEBIT,01/03/2025,desc,NOTANUMBER,ACH_DEBIT,100.00,\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing amount")
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get("OPS"))
	assert.NotNil(t, r.Get("chase"))
	assert.Nil(t, r.Get("nonexistent"))
	assert.Panics(t, func() { r.Register(&OpsParser{}) })
}

func TestRun(t *testing.T) {
	l := ledger.New()
	_, err := l.Seed()
	require.NoError(t, err)
	g := guard.New(l)

	ops, err := (&OpsParser{}).Parse(openTestdata(t, "operations.csv"))
	require.NoError(t, err)

	results, sum := Run(l, g, ops, Defaults{})
	assert.Equal(t, Summary{Applied: 3, Failed: 1}, sum)
	require.Len(t, results, 4)

	assert.Len(t, results[2].Transactions, 2)
	assert.Equal(t, "payroll", results[0].Transactions[0].Description)
	assert.Equal(t, "Cash withdrawal", results[1].Transactions[0].Description)
	assert.Equal(t, "Transfer to ACC001001: rent share", results[2].Transactions[0].Description)
	assert.Equal(t, "Transfer from ACC001003: rent share", results[2].Transactions[1].Description)
	assert.ErrorIs(t, results[3].Err, ledger.ErrInsufficientBalance)
	assert.Contains(t, results[3].Err.Error(), "line 5")

	bal, _ := l.Balance("ACC001001")
	assert.True(t, bal.Equal(decimal.RequireFromString("5750")))
	bal, _ = l.Balance("ACC001003")
	assert.True(t, bal.Equal(decimal.RequireFromString("2000")))
}

func TestRun_Defaults(t *testing.T) {
	l := ledger.New()
	_, err := l.Seed()
	require.NoError(t, err)
	g := guard.New(l)

	ops, err := (&ChaseParser{}).Parse(openTestdata(t, "chase_checking.csv"))
	require.NoError(t, err)

	_, sum := Run(l, g, ops, Defaults{Account: "ACC001001", Password: "password123"})
	assert.Equal(t, Summary{Applied: 6}, sum)

	bal, _ := l.Balance("ACC001001")
	assert.True(t, bal.Equal(decimal.RequireFromString("8311.34")))

	hist, err := l.History("ACC001001")
	require.NoError(t, err)
	require.Len(t, hist, 7)
	assert.Equal(t, "Initial deposit", hist[0].Description)
	assert.Equal(t, ops[0].Memo, hist[1].Description)
	assert.Equal(t, "2025-01-03 GITHUB *PRO SUBSCRIPTION", hist[1].Description)
}

func TestRun_WrongPasswordLocks(t *testing.T) {
	l := ledger.New()
	_, err := l.Seed()
	require.NoError(t, err)
	g := guard.New(l)

	op := Operation{Kind: KindDeposit, Account: "ACC001001", Amount: decimal.NewFromInt(1), Password: "nope"}
	results, sum := Run(l, g, []Operation{op, op, op, op}, Defaults{})
	assert.Equal(t, 4, sum.Failed)
	assert.ErrorIs(t, results[2].Err, guard.ErrLockedOut)
	assert.ErrorIs(t, results[3].Err, guard.ErrLockedOut)

	_, sum = Run(l, g, []Operation{{Kind: KindDeposit, Amount: decimal.NewFromInt(1)}}, Defaults{})
	assert.Equal(t, 1, sum.Failed, "no account")
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	processedDir := filepath.Join(importDir, "processed")
	require.NoError(t, os.MkdirAll(processedDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(importDir, "ops.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "notes.txt"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(processedDir, "old.csv"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "ops.csv", files[0].Name)
	assert.Equal(t, int64(4), files[0].Size)
}

func TestScan_NoImportDir(t *testing.T) {
	files, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "ops.csv"), []byte("data"), 0o644))

	require.NoError(t, MarkProcessed(dir, "ops.csv"))

	_, err := os.Stat(filepath.Join(importDir, "ops.csv"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "import", "processed", "ops.csv"))
	assert.NoError(t, err)

	// A second file with the same name is refused.
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "ops.csv"), []byte("data"), 0o644))
	assert.Error(t, MarkProcessed(dir, "ops.csv"))
}
