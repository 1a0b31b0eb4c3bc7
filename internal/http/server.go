// Package http exposes the JSON API: authentication, controls, ledger
// entries, aggregates and advice.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fincontrol/internal/advice"
	"fincontrol/internal/app"
	"fincontrol/internal/auth"
	applog "fincontrol/internal/log"
	"fincontrol/internal/store"
)

type Server struct {
	http.Server
	auth        *auth.Local
	svc         *app.Service
	users       store.UserStore
	advisor     *advice.Advisor // nil disables the advice endpoint
	logger      *applog.Logger
	rateLimiter *rateLimiter

	// defaultLanguage is used when no language preference is stored.
	defaultLanguage string

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, authProvider *auth.Local, svc *app.Service, users store.UserStore, advisor *advice.Advisor, defaultLanguage string, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		auth:        authProvider,
		svc:         svc,
		users:       users,
		advisor:         advisor,
		logger:          logger,
		rateLimiter:     newRateLimiter(),
		defaultLanguage: defaultLanguage,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/auth/signup", s.handleSignUp)
	mux.HandleFunc("POST /api/auth/signin", s.handleSignIn)
	mux.HandleFunc("POST /api/auth/signout", s.authed(s.handleSignOut))

	mux.HandleFunc("GET /api/me", s.authed(s.handleMe))
	mux.HandleFunc("PUT /api/me", s.authed(s.handleUpdateProfile))

	mux.HandleFunc("GET /api/controls", s.authed(s.handleListControls))
	mux.HandleFunc("POST /api/controls", s.authed(s.handleCreateControl))
	mux.HandleFunc("DELETE /api/controls/{id}", s.authed(s.handleDeleteControl))
	mux.HandleFunc("POST /api/controls/{id}/select", s.authed(s.handleSelectControl))

	mux.HandleFunc("GET /api/controls/{id}/transactions", s.authed(s.handleListTransactions))
	mux.HandleFunc("POST /api/controls/{id}/transactions", s.authed(s.handleAddTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.authed(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/controls/{id}/summary", s.authed(s.handleSummary))
	mux.HandleFunc("GET /api/controls/{id}/categories", s.authed(s.handleCategoryBreakdown))
	mux.HandleFunc("GET /api/controls/{id}/advice", s.authed(s.handleAdvice))

	mux.HandleFunc("POST /api/controls/{id}/reminders", s.authed(s.handleAddReminder))
	mux.HandleFunc("DELETE /api/reminders/{id}", s.authed(s.handleDeleteReminder))
	mux.HandleFunc("POST /api/reminders/{id}/pay", s.authed(s.handlePayReminder))

	mux.HandleFunc("POST /api/controls/{id}/investments", s.authed(s.handleAddInvestment))
	mux.HandleFunc("DELETE /api/investments/{id}", s.authed(s.handleDeleteInvestment))

	mux.HandleFunc("GET /api/settings/language", s.handleGetLanguage)
	mux.HandleFunc("PUT /api/settings/language", s.authed(s.handleSetLanguage))

	s.Server.Handler = s.withRateLimit(s.withRequestLog(mux))

	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Shutdown stops the rate limiter cleanup goroutine and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type ctxKey int

const sessionKey ctxKey = iota

// authed verifies the bearer token and loads the user's session before
// invoking the handler.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, s.logger, auth.ErrInvalidToken)
			return
		}
		userID, err := s.auth.VerifyToken(token)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		user, err := s.users.UserByID(r.Context(), userID)
		if err != nil {
			writeError(w, s.logger, auth.ErrInvalidToken)
			return
		}
		sess, err := s.svc.Open(r.Context(), user)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	}
}

func (s *Server) session(r *http.Request) *app.Session {
	sess, _ := r.Context().Value(sessionKey).(*app.Session)
	return sess
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if s.logger != nil {
			s.logger.InfoContext(r.Context(), "Request handled",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldStatusCode, rec.status,
				applog.FieldDuration, time.Since(start).Milliseconds())
		}
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.allow(clientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
