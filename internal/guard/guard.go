// Package guard tracks failed credential checks per account and suspends
// accounts that fail too often.
package guard

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
	"unicode"

	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/model"
)

const (
	DefaultMaxAttempts       = 3
	DefaultLockout           = 5 * time.Minute
	DefaultMinPasswordLength = 6
)

var (
	// ErrLockedOut matches errors returned for a suspended account.
	ErrLockedOut = ledger.ErrLockedOut
	// ErrWeakPassword is returned when a new password fails the policy.
	ErrWeakPassword = errors.New("password must contain letters and digits")
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Accounts is the part of the ledger the guard needs.
type Accounts interface {
	WithAccount(number string, fn func(h ledger.Locked) error) error
}

type entry struct {
	attempts int
	lockedAt time.Time
}

// Guard gates access to ledger accounts. Per-account state is only changed
// while the account's ledger lock is held; mu protects the map itself.
type Guard struct {
	accounts    Accounts
	clock       Clock
	maxAttempts int
	lockout     time.Duration
	minLength   int

	mu    sync.Mutex
	state map[string]*entry
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock sets the time source for lock expiry.
func WithClock(c Clock) Option {
	return func(g *Guard) { g.clock = c }
}

// WithMaxAttempts sets how many failed logins lock an account.
func WithMaxAttempts(n int) Option {
	return func(g *Guard) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithLockout sets how long a locked account stays locked.
func WithLockout(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.lockout = d
		}
	}
}

// WithMinPasswordLength sets the shortest accepted new password.
func WithMinPasswordLength(n int) Option {
	return func(g *Guard) {
		if n > 0 {
			g.minLength = n
		}
	}
}

// New returns a Guard over accounts.
func New(accounts Accounts, opts ...Option) *Guard {
	g := &Guard{
		accounts:    accounts,
		clock:       wallClock{},
		maxAttempts: DefaultMaxAttempts,
		lockout:     DefaultLockout,
		minLength:   DefaultMinPasswordLength,
		state:       make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Login checks secret for the account. A locked account is rejected without
// looking at the secret. Reaching the attempt limit locks the account.
func (g *Guard) Login(number, secret string) error {
	return g.accounts.WithAccount(number, func(h ledger.Locked) error {
		now := g.clock.Now()
		if err := g.checkLock(number, now); err != nil {
			return err
		}
		if h.Authenticate(secret) {
			g.clear(number)
			return nil
		}
		attempts := g.fail(number)
		if attempts >= g.maxAttempts {
			g.lock(number, now)
			return &ledger.CredentialsError{
				Number:    number,
				Message:   fmt.Sprintf("account locked due to %d failed login attempts", g.maxAttempts),
				Attempts:  attempts,
				Locked:    true,
				Remaining: g.lockout,
			}
		}
		return &ledger.CredentialsError{
			Number:   number,
			Message:  fmt.Sprintf("invalid credentials, attempt %d of %d", attempts, g.maxAttempts),
			Attempts: attempts,
		}
	})
}

// ChangePassword replaces the account's secret. A wrong old password counts
// as a failed attempt but never locks the account by itself.
func (g *Guard) ChangePassword(number, old, replacement string) error {
	return g.accounts.WithAccount(number, func(h ledger.Locked) error {
		if err := g.checkLock(number, g.clock.Now()); err != nil {
			return err
		}
		if !h.Authenticate(old) {
			return &ledger.CredentialsError{
				Number:   number,
				Message:  "current password is incorrect",
				Attempts: g.fail(number),
			}
		}
		if err := g.ValidatePassword(replacement); err != nil {
			return err
		}
		return h.ChangePassword(old, replacement)
	})
}

// ValidatePassword applies the strength policy: a minimum length and at
// least one letter and one digit.
func (g *Guard) ValidatePassword(pw string) error {
	if len([]rune(pw)) < g.minLength {
		return fmt.Errorf("%w: need at least %d characters", ErrWeakPassword, g.minLength)
	}
	var letter, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return ErrWeakPassword
	}
	return nil
}

// Authorize fails if the account is currently locked. Call it before any
// mutating ledger operation.
func (g *Guard) Authorize(number string) error {
	return g.accounts.WithAccount(number, func(ledger.Locked) error {
		return g.checkLock(number, g.clock.Now())
	})
}

// Unlock clears the account's lock and attempt counter.
func (g *Guard) Unlock(number string) error {
	return g.accounts.WithAccount(number, func(ledger.Locked) error {
		g.clear(number)
		return nil
	})
}

// Reset forgets all attempt counters and locks.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = make(map[string]*entry)
}

// Status is the guard's view of one account.
type Status struct {
	Number    string
	Attempts  int
	Locked    bool
	Remaining time.Duration
}

// Status returns the account's current attempts and lock state. An expired
// lock is cleared.
func (g *Guard) Status(number string) (Status, error) {
	var st Status
	err := g.accounts.WithAccount(number, func(ledger.Locked) error {
		now := g.clock.Now()
		g.mu.Lock()
		defer g.mu.Unlock()
		st = g.status(number, g.evictExpired(number, now), now)
		return nil
	})
	return st, err
}

// Report lists every account with failed attempts or an unexpired lock,
// ordered by account number.
func (g *Guard) Report() []Status {
	now := g.clock.Now()
	g.mu.Lock()
	out := make([]Status, 0, len(g.state))
	for number, e := range g.state {
		if st := g.status(number, e, now); st.Attempts > 0 || st.Locked {
			out = append(out, st)
		}
	}
	g.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Export returns the raw guard state for persistence.
func (g *Guard) Export() []model.LockRecord {
	g.mu.Lock()
	out := make([]model.LockRecord, 0, len(g.state))
	for number, e := range g.state {
		out = append(out, model.LockRecord{AccountNumber: number, FailedAttempts: e.attempts, LockedAt: e.lockedAt})
	}
	g.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
	return out
}

// Restore replaces the guard state with recs. Records with no attempts and
// no lock are dropped.
func (g *Guard) Restore(recs []model.LockRecord) {
	state := make(map[string]*entry, len(recs))
	for _, r := range recs {
		if r.FailedAttempts <= 0 && !r.Locked() {
			continue
		}
		state[r.AccountNumber] = &entry{attempts: r.FailedAttempts, lockedAt: r.LockedAt}
	}
	g.mu.Lock()
	g.state = state
	g.mu.Unlock()
}

// The helpers below are called with the account's ledger lock held.

func (g *Guard) checkLock(number string, now time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := g.evictExpired(number, now)
	if e == nil || e.lockedAt.IsZero() {
		return nil
	}
	remaining := g.lockout - now.Sub(e.lockedAt)
	return &ledger.CredentialsError{
		Number:    number,
		Message:   fmt.Sprintf("account is locked due to multiple failed attempts, try again in %d seconds", int(remaining/time.Second)),
		Attempts:  e.attempts,
		Locked:    true,
		Remaining: remaining,
	}
}

// evictExpired drops the account's entry once its lock has run out and
// returns whatever entry remains. g.mu must be held.
func (g *Guard) evictExpired(number string, now time.Time) *entry {
	e, ok := g.state[number]
	if !ok {
		return nil
	}
	if !e.lockedAt.IsZero() && now.Sub(e.lockedAt) >= g.lockout {
		delete(g.state, number)
		return nil
	}
	return e
}

func (g *Guard) fail(number string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.state[number]
	if !ok {
		e = &entry{}
		g.state[number] = e
	}
	e.attempts++
	return e.attempts
}

func (g *Guard) lock(number string, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.state[number]; ok {
		e.lockedAt = now
	}
}

func (g *Guard) clear(number string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.state, number)
}

// status assumes g.mu is held.
func (g *Guard) status(number string, e *entry, now time.Time) Status {
	st := Status{Number: number}
	if e == nil {
		return st
	}
	if !e.lockedAt.IsZero() {
		remaining := g.lockout - now.Sub(e.lockedAt)
		if remaining <= 0 {
			return st
		}
		st.Locked = true
		st.Remaining = remaining
	}
	st.Attempts = e.attempts
	return st
}
