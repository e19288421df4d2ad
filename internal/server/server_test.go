package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/teller/internal/guard"
	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/model"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

type persistLog struct {
	mu      sync.Mutex
	actions []string
}

func (p *persistLog) record(action, account string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, action+":"+account)
	return nil
}

func (p *persistLog) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

type fixture struct {
	handler http.Handler
	ledger  *ledger.Ledger
	persist *persistLog
	alice   string
	bob     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	l := ledger.New()
	alice, err := l.CreateAccount(model.Profile{Name: "Alice"}, model.KindSavings, decimal.NewFromInt(1000), "alice1")
	require.NoError(t, err)
	bob, err := l.CreateAccount(model.Profile{Name: "Bob"}, model.KindCurrent, decimal.NewFromInt(500), "bob123")
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)}
	g := guard.New(l, guard.WithClock(clock))
	tokens, err := NewTokens("test-secret", 15*time.Minute, nil)
	require.NoError(t, err)

	p := &persistLog{}
	s := New(l, g, tokens, WithPersist(p.record))
	return &fixture{handler: s.Router(), ledger: l, persist: p, alice: alice, bob: bob}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(t *testing.T, account, password string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/login", "", loginRequest{Account: account, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, rec)["status"])
}

func TestCreateAccount(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/accounts", "", map[string]any{
		"name":            "Carol",
		"kind":            "savings",
		"initial_deposit": "250.00",
		"password":        "carol9",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	acct := decodeBody[accountView](t, rec)
	assert.Equal(t, "SAVINGS", acct.Kind)
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(250)))
	assert.NotContains(t, rec.Body.String(), "carol9")
	assert.Equal(t, []string{"create_account:" + acct.Number}, f.persist.all())
}

func TestCreateAccount_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		code int
	}{
		{"weak password", map[string]any{"name": "C", "kind": "SAVINGS", "initial_deposit": "0", "password": "abc"}, http.StatusBadRequest},
		{"unknown kind", map[string]any{"name": "C", "kind": "GOLD", "initial_deposit": "0", "password": "abc123"}, http.StatusBadRequest},
		{"negative deposit", map[string]any{"name": "C", "kind": "SAVINGS", "initial_deposit": "-1", "password": "abc123"}, http.StatusBadRequest},
		{"missing name", map[string]any{"kind": "SAVINGS", "initial_deposit": "0", "password": "abc123"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(t, http.MethodPost, "/accounts", "", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.Empty(t, f.persist.all())
			assert.Len(t, f.ledger.Accounts(), 2)
		})
	}
}

func TestListAccounts_Filters(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deactivate(f.bob))

	all := decodeBody[[]accountView](t, f.do(t, http.MethodGet, "/accounts", "", nil))
	assert.Len(t, all, 2)

	current := decodeBody[[]accountView](t, f.do(t, http.MethodGet, "/accounts?kind=current", "", nil))
	require.Len(t, current, 1)
	assert.Equal(t, f.bob, current[0].Number)

	active := decodeBody[[]accountView](t, f.do(t, http.MethodGet, "/accounts?active=true", "", nil))
	require.Len(t, active, 1)
	assert.Equal(t, f.alice, active[0].Number)

	rec := f.do(t, http.MethodGet, "/accounts?active=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.login(t, f.alice, "alice1")
	assert.Equal(t, []string{"login:" + f.alice}, f.persist.all())

	rec := f.do(t, http.MethodPost, "/login", "", loginRequest{Account: f.alice, Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "attempt 1 of 3")

	rec = f.do(t, http.MethodPost, "/login", "", loginRequest{Account: "ACC999999", Password: "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/login", "", loginRequest{Account: f.alice})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_LockedOut(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 2; i++ {
		rec := f.do(t, http.MethodPost, "/login", "", loginRequest{Account: f.alice, Password: "bad"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := f.do(t, http.MethodPost, "/login", "", loginRequest{Account: f.alice, Password: "bad"})
	assert.Equal(t, http.StatusLocked, rec.Code)

	// Correct password is refused while locked.
	rec = f.do(t, http.MethodPost, "/login", "", loginRequest{Account: f.alice, Password: "alice1"})
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Contains(t, rec.Body.String(), "try again in 300 seconds")
	assert.Len(t, f.persist.all(), 4)
}

func TestAuth_Required(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/accounts/"+f.alice, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/accounts/"+f.alice, "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_OtherAccountForbidden(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, f.alice, "alice1")

	rec := f.do(t, http.MethodGet, "/accounts/"+f.bob, token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/accounts/"+f.bob+"/withdraw", token, amountRequest{Amount: decimal.NewFromInt(10)})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	bal, err := f.ledger.Balance(f.bob)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(500)))
}

func TestGetAccountAndHistory(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, f.alice, "alice1")

	rec := f.do(t, http.MethodGet, "/accounts/"+f.alice, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, f.alice, decodeBody[accountView](t, rec).Number)

	rec = f.do(t, http.MethodGet, "/accounts/"+f.alice+"/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hist := decodeBody[[]transactionView](t, rec)
	require.Len(t, hist, 1)
	assert.Equal(t, "Initial deposit", hist[0].Description)
}

func TestDepositWithdraw(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, f.alice, "alice1")

	rec := f.do(t, http.MethodPost, "/accounts/"+f.alice+"/deposit", token, amountRequest{Amount: decimal.RequireFromString("200.50")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tx := decodeBody[transactionView](t, rec)
	assert.Equal(t, "DEPOSIT", tx.Type)
	assert.True(t, tx.BalanceAfter.Equal(decimal.RequireFromString("1200.50")))

	rec = f.do(t, http.MethodPost, "/accounts/"+f.alice+"/withdraw", token, amountRequest{Amount: decimal.NewFromInt(5000)})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/accounts/"+f.alice+"/withdraw", token, amountRequest{Amount: decimal.Zero})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/accounts/"+f.alice+"/withdraw", token, amountRequest{Amount: decimal.NewFromInt(200)})
	require.Equal(t, http.StatusOK, rec.Code)

	bal, err := f.ledger.Balance(f.alice)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("1000.50")))
	assert.Equal(t, []string{"login:" + f.alice, "deposit:" + f.alice, "withdraw:" + f.alice}, f.persist.all())
}

func TestDeposit_BadBody(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, f.alice, "alice1")

	req := httptest.NewRequest(http.MethodPost, "/accounts/"+f.alice+"/deposit", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransfer(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, f.alice, "alice1")

	rec := f.do(t, http.MethodPost, "/transfer", token, transferRequest{To: f.bob, Amount: decimal.NewFromInt(300)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[transferResponse](t, rec)
	assert.True(t, resp.From.Balance.Equal(decimal.NewFromInt(700)))
	assert.True(t, resp.To.Balance.Equal(decimal.NewFromInt(800)))
	require.Len(t, resp.Transactions, 2)
	assert.Equal(t, "WITHDRAWAL", resp.Transactions[0].Type)
	assert.Equal(t, "DEPOSIT", resp.Transactions[1].Type)
}

func TestTransfer_Rejects(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, f.alice, "alice1")

	rec := f.do(t, http.MethodPost, "/transfer", token, transferRequest{From: f.bob, To: f.alice, Amount: decimal.NewFromInt(1)})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/transfer", token, transferRequest{To: "ACC999999", Amount: decimal.NewFromInt(1)})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, f.ledger.Deactivate(f.bob))
	rec = f.do(t, http.MethodPost, "/transfer", token, transferRequest{To: f.bob, Amount: decimal.NewFromInt(1)})
	assert.Equal(t, http.StatusConflict, rec.Code)

	bal, err := f.ledger.Balance(f.alice)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(1000)))
}

func TestMutation_RefusedWhileLocked(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, f.alice, "alice1")
	for i := 0; i < 3; i++ {
		f.do(t, http.MethodPost, "/login", "", loginRequest{Account: f.alice, Password: "bad"})
	}

	rec := f.do(t, http.MethodPost, "/accounts/"+f.alice+"/deposit", token, amountRequest{Amount: decimal.NewFromInt(1)})
	assert.Equal(t, http.StatusLocked, rec.Code)

	rec = f.do(t, http.MethodPost, "/transfer", token, transferRequest{To: f.bob, Amount: decimal.NewFromInt(1)})
	assert.Equal(t, http.StatusLocked, rec.Code)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, f.alice, "alice1")
	path := "/accounts/" + f.alice + "/password"

	rec := f.do(t, http.MethodPost, path, token, passwordRequest{OldPassword: "alice1", NewPassword: "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, path, token, passwordRequest{OldPassword: "wrong", NewPassword: "better99"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, path, token, passwordRequest{OldPassword: "alice1", NewPassword: "better99"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	f.login(t, f.alice, "better99")
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decodeBody[statsView](t, rec)
	assert.Equal(t, 2, stats.Accounts)
	assert.Equal(t, 2, stats.Transactions)
	assert.True(t, stats.TotalBalance.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, 1, stats.KindCounts["SAVINGS"])
	assert.Equal(t, 2, stats.TransactionTypes["DEPOSIT"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ledger.ErrNotFound, http.StatusNotFound},
		{ledger.ErrInvalidAmount, http.StatusBadRequest},
		{ledger.ErrInsufficientBalance, http.StatusConflict},
		{ledger.ErrInactive, http.StatusConflict},
		{ledger.ErrInvalidCredentials, http.StatusUnauthorized},
		{&ledger.CredentialsError{Number: "A", Locked: true}, http.StatusLocked},
		{guard.ErrWeakPassword, http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
