package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"tierdir.org/internal/audit"
	"tierdir.org/internal/auth"
	"tierdir.org/internal/directory"
	"tierdir.org/internal/obs"
	"tierdir.org/internal/tier"
)

// ReadyProbe reports readiness, pinging the database when one is attached.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options wires the HTTP layer. Directory, Model, Policies and Tokens are
// required; the rest have usable defaults.
type Options struct {
	ReadyProbe ReadyProbe
	Version    string

	Directory *directory.Service
	Model     *tier.Model
	Policies  *tier.Registry
	Tokens    *auth.Tokens
	Recorder  *audit.Recorder

	DefaultPageSize int
	MaxPageSize     int
	RatePerSec      float64
	RateBurst       int
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	dir      *directory.Service
	model    *tier.Model
	policies *tier.Registry
	tokens   *auth.Tokens
	recorder *audit.Recorder

	defaultPageSize int
	maxPageSize     int
	ratePerSec      float64
	rateBurst       int
}

func New(opts Options) (*API, error) {
	if opts.Directory == nil {
		return nil, errors.New("httpapi: directory service is required")
	}
	if opts.Model == nil {
		return nil, errors.New("httpapi: tier model is required")
	}
	if opts.Policies == nil {
		return nil, errors.New("httpapi: policy registry is required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("httpapi: token issuer is required")
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 10
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 100
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 5
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 10
	}

	a := &API{
		mux:             http.NewServeMux(),
		readyProbe:      opts.ReadyProbe,
		version:         opts.Version,
		dir:             opts.Directory,
		model:           opts.Model,
		policies:        opts.Policies,
		tokens:          opts.Tokens,
		recorder:        opts.Recorder,
		defaultPageSize: opts.DefaultPageSize,
		maxPageSize:     opts.MaxPageSize,
		ratePerSec:      opts.RatePerSec,
		rateBurst:       opts.RateBurst,
	}

	// health/ready
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// account surface
	a.mux.HandleFunc("/api/account/register", a.handleRegister)
	a.mux.HandleFunc("/api/account/login", a.handleLogin)
	a.mux.HandleFunc("/api/account/me", a.handleMe)

	// admin surface
	a.mux.HandleFunc("/api/admin/users", a.handleAdminUsers)
	a.mux.HandleFunc("/api/admin/users/", a.handleAdminUser)

	// executive surface
	a.mux.HandleFunc("/api/executive/users", a.handleExecutiveUsers)
	a.mux.HandleFunc("/api/executive/users/", a.handleExecutiveUser)

	// reports
	a.mux.HandleFunc("/api/report/", a.handleReport)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a, nil
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = Honeypot(h, a.recorder)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- health handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "tierdir-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}
