// Package mockapi is a local stand-in for the downstream record, code and
// preference service. It answers with the same statuses and payloads as the
// real service for a fixed set of users, so the gateway client and the whole
// journey can be exercised without it.
package mockapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"consentflow/internal/counter"
	"consentflow/internal/gateway"
	"consentflow/internal/platform/middleware"
	"consentflow/internal/retry"
	"consentflow/pkg/platform/middleware/requesttime"
)

// Poll gates.
const (
	resourceSearch     = "search"
	resourcePreference = "preference"
	resourceStore      = "store"
)

const (
	defaultMinimumAge = 13
	defaultSessionTTL = 59 * time.Minute
)

// Server serves the mock endpoints.
type Server struct {
	users      []User
	sessions   *sessionStore
	counters   counter.Store
	evaluator  *retry.Evaluator
	polls      *counter.Countdown
	logger     *slog.Logger
	minimumAge int
	sessionTTL time.Duration
	now        func() time.Time
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithPollCountdown sets how many "incomplete" answers each poll endpoint
// gives before the result is ready.
func WithPollCountdown(n int) Option {
	return func(s *Server) {
		s.polls = counter.NewCountdown(n, nil)
	}
}

func WithMinimumAge(age int) Option {
	return func(s *Server) {
		if age > 0 {
			s.minimumAge = age
		}
	}
}

// WithSessionTTL sets how long a created session stays valid.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.sessionTTL = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCounterStore replaces the in-memory counter store.
func WithCounterStore(store counter.Store) Option {
	return func(s *Server) {
		if store != nil {
			s.counters = store
		}
	}
}

// New creates a Server for users under policy.
func New(users []User, policy retry.Policy, opts ...Option) (*Server, error) {
	if len(users) == 0 {
		return nil, errors.New("at least one user is required")
	}
	for _, name := range []string{retry.CounterResendCode, retry.CounterVerifyCode} {
		if _, ok := policy.Max(name); !ok {
			return nil, errors.New("policy must define " + name)
		}
	}
	s := &Server{
		users:      users,
		sessions:   newSessionStore(),
		counters:   counter.NewInMemoryStore(),
		polls:      counter.NewCountdown(counter.DefaultCountdown, nil),
		logger:     slog.Default(),
		minimumAge: defaultMinimumAge,
		sessionTTL: defaultSessionTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	evaluator, err := retry.NewEvaluator(s.counters, policy, retry.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	s.evaluator = evaluator
	return s, nil
}

// Handler returns the routed mock API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(s.logger))

	r.Get("/createsession", s.handleCreateSession)
	r.Get("/checksession", s.handleCheckSession)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.With(requireJSON).Post("/"+gateway.OpLookupRecord, s.handleDetails)
		r.Get("/"+gateway.OpPollLookupResult, s.handleSearchResult)
		r.With(requireJSON).Post("/"+gateway.OpRequestCode, s.handleRequestCode)
		r.Get("/"+gateway.OpResendCode, s.handleResendCode)
		r.With(requireJSON).Post("/"+gateway.OpVerifyCode, s.handleVerifyCode)
		r.Get("/"+gateway.OpGetPreference, s.handleGetPreference)
		r.With(requireJSON).Post("/"+gateway.OpSetPreference, s.handleSetPreference)
		r.Get("/"+gateway.OpConfirmationDelivery, s.handleConfirmationDelivery)
		r.Get("/"+gateway.OpConfirmationSender, s.handleConfirmationSender)
		r.Get("/"+gateway.OpStorePreferenceResult, s.handleStoreResult)
		r.Post("/"+gateway.OpPutStateModel, s.handlePutStateModel)
	})
	return r
}
