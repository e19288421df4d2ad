package model

import "time"

// LockRecord is a row in lockouts.csv: the guard state of one account.
type LockRecord struct {
	AccountNumber  string
	FailedAttempts int
	LockedAt       time.Time // zero when not locked
}

// Locked reports whether the record carries a lock timestamp.
func (r LockRecord) Locked() bool {
	return !r.LockedAt.IsZero()
}
