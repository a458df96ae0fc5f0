package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"household/internal/adapters/events"
	"household/internal/adapters/http/middleware"
	"household/internal/application/directory"
	"household/internal/application/orchestrators"
	"household/internal/application/wizard"
	"household/internal/domain/account"
)

// DefaultRateLimitPerSecond is the per-IP rate limit when Options leaves it unset.
const DefaultRateLimitPerSecond = 10

// Deps holds the collaborators the handlers run against.
type Deps struct {
	Directory directory.Directory
	Workflows *wizard.Registry
	Clock     clockwork.Clock                // real clock when nil
	Notifier  orchestrators.GuardianNotifier // optional
	Events    events.Publisher               // optional
	Verifier  middleware.TokenVerifier       // nil rejects every guarded route
	Health    func(ctx context.Context) error
	NewID     func() string // wizard member keys; random UUIDs when nil
}

// Options tunes the middleware chain.
type Options struct {
	CSRFKey            []byte // 32 bytes
	TrustedOrigins     []string
	AllowedOrigins     []string // CORS
	RateLimitPerSecond int
	SlowRequest        time.Duration                  // DefaultSlowRequest when zero
	ObserveRequest     func(middleware.RequestTiming) // optional
}

// Server serves the household JSON API.
type Server struct {
	deps Deps
}

// NewMux wires HTTP handlers for the app.
func NewMux(deps Deps, opts Options) http.Handler {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Workflows == nil {
		deps.Workflows = wizard.NewRegistry(nil)
	}
	if deps.Events == nil {
		deps.Events = events.NoopPublisher{}
	}
	s := &Server{deps: deps}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	rate := opts.RateLimitPerSecond
	if rate <= 0 {
		rate = DefaultRateLimitPerSecond
	}
	limiter := middleware.NewRateLimiter(rate, time.Second)

	// Apply middleware: Timing -> RateLimit -> CORS -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, opts.TrustedOrigins),
		middleware.Auth(deps.Verifier),
		middleware.CORS(opts.AllowedOrigins),
		middleware.RateLimit(limiter),
		middleware.Timing(opts.SlowRequest, opts.ObserveRequest),
	)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	bearer := middleware.RequireBearer()
	admin := middleware.RequireBearer(account.RoleAdmin)

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("PUT /api/accounts/{id}", s.handleUpdateAccount)

	mux.HandleFunc("GET /api/families", s.handleSearchFamilies)
	mux.HandleFunc("POST /api/families", s.handleCreateFamily)
	mux.HandleFunc("GET /api/families/{id}", s.handleGetFamily)
	mux.HandleFunc("PUT /api/families/{id}", s.handleUpdateFamily)
	mux.HandleFunc("POST /api/families/{id}/archive", s.handleArchiveFamily)
	mux.Handle("DELETE /api/families/{id}", admin(http.HandlerFunc(s.handleDeleteFamily)))

	mux.HandleFunc("POST /api/members", s.handleCreateMember)
	mux.HandleFunc("PUT /api/members/{id}", s.handleUpdateMember)
	mux.HandleFunc("GET /api/members/{id}/enrollments", s.handleListEnrollments)
	mux.HandleFunc("GET /api/programs", s.handleListPrograms)

	mux.Handle("PUT /api/enrollments", bearer(http.HandlerFunc(s.handleUpsertEnrollment)))
	mux.Handle("DELETE /api/enrollments/{id}", bearer(http.HandlerFunc(s.handleDeleteEnrollment)))

	mux.HandleFunc("POST /api/workflows", s.handleOpenWorkflow)
	mux.HandleFunc("GET /api/workflows/{id}", s.handleGetWorkflow)
	mux.HandleFunc("POST /api/workflows/{id}/members", s.handleAddWorkflowMember)
	mux.HandleFunc("DELETE /api/workflows/{id}/members/{key}", s.handleRemoveWorkflowMember)
	mux.HandleFunc("POST /api/workflows/{id}/members/{key}/actions", s.handleWorkflowAction)
	mux.HandleFunc("POST /api/workflows/{id}/submit", s.handleSubmitWorkflow)
	mux.HandleFunc("POST /api/workflows/{id}/decision", s.handleWorkflowDecision)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
