package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"pazaauto.id/internal/auth"
	"pazaauto.id/internal/backoffice"
	"pazaauto.id/internal/obs"
)

const serviceName = "backoffice-api"

type readinessChecker interface {
	Check(ctx context.Context) error
}

// Pinger is satisfied by the record store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyProbe checks the database connection.
type ReadyProbe struct {
	DB Pinger
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.Ping(ctx)
}

// Options tune the transport layer.
type Options struct {
	Version      string
	CORSOrigins  []string
	MaxBodyBytes int64
	RateLimit    bool
	RatePerSec   float64
	RateBurst    int

	// Accounts mounts the admin account activation route when set.
	Accounts AccountActivator
}

// API is the HTTP layer.
type API struct {
	router   *chi.Mux
	ready    readinessChecker
	authn    *auth.Authenticator
	tokens   *auth.TokenService
	catalog  *backoffice.Catalog
	validate *validator.Validate
	opts     Options
	log      *slog.Logger
}

// New builds the router. catalog may be nil, which leaves only the auth and
// ops endpoints mounted.
func New(rp readinessChecker, authn *auth.Authenticator, catalog *backoffice.Catalog, opts Options) *API {
	if rp == nil {
		rp = ReadyProbe{}
	}
	a := &API{
		router:   chi.NewRouter(),
		ready:    rp,
		authn:    authn,
		tokens:   authn.Tokens(),
		catalog:  catalog,
		validate: newValidator(),
		opts:     opts,
		log:      obs.Logger().With("component", "httpapi"),
	}
	a.routes()
	return a
}

func (a *API) routes() {
	r := a.router
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	// health/ready/info
	r.Get("/healthz", a.Healthz)
	r.Get("/readyz", a.Ready)
	r.Get("/v1/info", a.Info)

	// Prometheus metrics
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", a.handleLogin)
		r.Post("/refresh", a.handleRefresh)
		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth)
			r.Get("/me", a.handleMe)
			r.Post("/logout", a.handleLogout)
		})
	})

	if a.opts.Accounts != nil {
		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth, a.requireRole(auth.RoleAdmin))
			r.Put("/accounts/{username}/active", a.handleSetAccountActive)
		})
	}

	if a.catalog == nil {
		return
	}
	r.Group(func(r chi.Router) {
		r.Use(a.requireAuth)
		mountResource(r, a, a.catalog.Employees, resourceOptions{
			partialUpdate: true,
			extra: func(r chi.Router) {
				r.With(a.requirePermission(backoffice.ResourceEmployees, auth.ActionRead)).
					Get("/unregistered", a.handleUnregisteredEmployees)
			},
		})
		mountResource(r, a, a.catalog.Positions, resourceOptions{})
		mountResource(r, a, a.catalog.Customers, resourceOptions{})
		mountResource(r, a, a.catalog.Vehicles, resourceOptions{
			extra: func(r chi.Router) {
				read := a.requirePermission(backoffice.ResourceVehicles, auth.ActionRead)
				r.With(read).Get("/brands", a.handleVehicleBrands)
				r.With(read).Get("/kinds", a.handleVehicleKinds)
			},
		})
		mountResource(r, a, a.catalog.Suppliers, resourceOptions{})
	})
}

// Handler wraps the router with the middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	if a.opts.RateLimit && a.opts.RatePerSec > 0 && a.opts.RateBurst > 0 {
		h = RateLimit(h, a.opts.RateBurst, a.opts.RatePerSec)
	}
	if a.opts.MaxBodyBytes > 0 {
		h = MaxBodyBytes(h, a.opts.MaxBodyBytes)
	}
	h = CORS(a.opts.CORSOrigins)(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.opts.Version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.ready.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    serviceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.opts.Version,
	})
}
