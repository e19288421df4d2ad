package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/teller/internal/model"
)

type createAccountRequest struct {
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	Address        string          `json:"address"`
	Kind           string          `json:"kind"`
	InitialDeposit decimal.Decimal `json:"initial_deposit"`
	Password       string          `json:"password"`
}

type loginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type passwordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type transferResponse struct {
	From         accountView       `json:"from"`
	To           accountView       `json:"to"`
	Transactions []transactionView `json:"transactions"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStatsView(s.ledger.Stats()))
}

// listAccounts supports ?kind= and ?active=true filters.
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	recs := s.ledger.Accounts()
	if kind := r.URL.Query().Get("kind"); kind != "" {
		recs = s.ledger.AccountsByKind(kind)
	}
	if v := r.URL.Query().Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "active must be true or false")
			return
		}
		filtered := recs[:0]
		for _, rec := range recs {
			if rec.Active == active {
				filtered = append(filtered, rec)
			}
		}
		recs = filtered
	}
	out := make([]accountView, len(recs))
	for i, rec := range recs {
		out[i] = newAccountView(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.guard.ValidatePassword(req.Password); err != nil {
		writeErr(w, err)
		return
	}

	profile := model.Profile{Name: req.Name, Email: req.Email, Phone: req.Phone, Address: req.Address}
	number, err := s.ledger.CreateAccount(profile, model.AccountKind(req.Kind), req.InitialDeposit, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	rec, err := s.ledger.GetAccount(number)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAccountView(rec))
	s.saved("create_account", number)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Account == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "account and password are required")
		return
	}

	// Failed attempts change guard state, so persist either way.
	err := s.guard.Login(req.Account, req.Password)
	if err != nil {
		s.log.Info("login failed", zap.String("account", req.Account), zap.Error(err))
		writeErr(w, err)
		s.saved("login_failed", req.Account)
		return
	}

	token, exp, err := s.tokens.Issue(req.Account)
	if err != nil {
		s.log.Error("failed to sign jwt", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: exp})
	s.saved("login", req.Account)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	rec, err := s.ledger.GetAccount(sessionAccount(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountView(rec))
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.History(sessionAccount(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionViews(txs))
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	s.cash(w, r, "deposit", s.ledger.Deposit)
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	s.cash(w, r, "withdraw", s.ledger.Withdraw)
}

func (s *Server) cash(w http.ResponseWriter, r *http.Request, action string, op func(string, decimal.Decimal) (model.Transaction, error)) {
	account := sessionAccount(r)
	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.guard.Authorize(account); err != nil {
		writeErr(w, err)
		return
	}
	tx, err := op(account, req.Amount)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionViews([]model.Transaction{tx})[0])
	s.saved(action, account)
}

func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decode(w, r, &req) {
		return
	}
	account := sessionAccount(r)
	if req.From == "" {
		req.From = account
	}
	if req.From != account {
		writeError(w, http.StatusForbidden, "token does not grant access to the source account")
		return
	}
	if err := s.guard.Authorize(account); err != nil {
		writeErr(w, err)
		return
	}

	receipt, err := s.ledger.Transfer(req.From, req.To, req.Amount)
	if err != nil {
		writeErr(w, err)
		return
	}
	from, _ := s.ledger.GetAccount(req.From)
	to, _ := s.ledger.GetAccount(req.To)
	writeJSON(w, http.StatusOK, transferResponse{
		From:         newAccountView(from),
		To:           newAccountView(to),
		Transactions: newTransactionViews([]model.Transaction{receipt.Withdrawal, receipt.Deposit}),
	})
	s.saved("transfer", account)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	account := sessionAccount(r)
	var req passwordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.guard.ChangePassword(account, req.OldPassword, req.NewPassword); err != nil {
		writeErr(w, err)
		s.saved("passwd_failed", account)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
	s.saved("passwd", account)
}
