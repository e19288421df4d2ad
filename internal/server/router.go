package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey struct{}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Get("/stats", s.stats)
	r.Get("/accounts", s.listAccounts)
	r.Post("/accounts", s.createAccount)
	r.Post("/login", s.login)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticated)

		r.Route("/accounts/{number}", func(r chi.Router) {
			r.Use(s.ownAccount)
			r.Get("/", s.getAccount)
			r.Get("/history", s.history)
			r.Post("/deposit", s.deposit)
			r.Post("/withdraw", s.withdraw)
			r.Post("/password", s.changePassword)
		})
		r.Post("/transfer", s.transfer)
	})

	return r
}

// authenticated requires a valid bearer token and stores its account number
// in the request context.
func (s *Server) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		account, err := s.tokens.Verify(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ownAccount rejects requests for an account other than the token's.
func (s *Server) ownAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "number") != sessionAccount(r) {
			writeError(w, http.StatusForbidden, "token does not grant access to this account")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionAccount(r *http.Request) string {
	account, _ := r.Context().Value(ctxKey{}).(string)
	return account
}
