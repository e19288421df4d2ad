package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/model"
)

var testTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestLedger() *Ledger {
	return New(
		WithTransactionIDs(id.NewSequence("TXN", 4, 0)),
		WithClock(func() time.Time { return testTime }),
	)
}

func mustCreate(t *testing.T, l *Ledger, name string, kind model.AccountKind, deposit string) string {
	t.Helper()
	n, err := l.CreateAccount(model.Profile{Name: name, Email: name + "@example.com"}, kind, dec(deposit), "secret1")
	require.NoError(t, err)
	return n
}

func requireBalance(t *testing.T, l *Ledger, number, want string) {
	t.Helper()
	got, err := l.Balance(number)
	require.NoError(t, err)
	require.True(t, got.Equal(dec(want)), "balance of %s = %s, want %s", number, got, want)
}
