package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseAccountKind(t *testing.T) {
	tests := []struct {
		input  string
		want   AccountKind
		wantOK bool
	}{
		{"SAVINGS", KindSavings, true},
		{"savings", KindSavings, true},
		{" Current ", KindCurrent, true},
		{"checking", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseAccountKind(tt.input)
		assert.Equal(t, tt.wantOK, ok, "ParseAccountKind(%q)", tt.input)
		assert.Equal(t, tt.want, got, "ParseAccountKind(%q)", tt.input)
	}
}

func TestParseTransactionType(t *testing.T) {
	got, ok := ParseTransactionType("withdrawal")
	assert.True(t, ok)
	assert.Equal(t, TxWithdrawal, got)

	_, ok = ParseTransactionType("TRANSFER")
	assert.False(t, ok)
}

func TestLockRecordLocked(t *testing.T) {
	assert.False(t, LockRecord{AccountNumber: "ACC001001", FailedAttempts: 2}.Locked())
	assert.True(t, LockRecord{AccountNumber: "ACC001001", FailedAttempts: 3, LockedAt: time.Now()}.Locked())
}
