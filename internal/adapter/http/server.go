package adapthttp

import (
	"context"
	"fmt"
	"net/http"

	"trimtrack/internal/app"
	"trimtrack/internal/telemetry/metrics"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"
)

// Services are the application services the adapter routes to.
type Services struct {
	Auth    *app.AuthService
	Weight  *app.WeightService
	Profile *app.ProfileService
	Calorie *app.CalorieService
	Advice  *app.AdviceService
	Charts  *app.ChartsService
}

// OIDCConfig holds the SSO provider and client settings.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// NewOIDCConfig discovers issuer and builds the OAuth2 client config.
func NewOIDCConfig(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (*OIDCConfig, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	return &OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth    *app.AuthService
	weight  *app.WeightService
	profile *app.ProfileService
	calorie *app.CalorieService
	advice  *app.AdviceService
	charts  *app.ChartsService
	webDir  string

	oidcConfig       *OIDCConfig
	trustForwardAuth bool
	metrics          *metrics.Manager
	gatherer         prometheus.Gatherer
	limiter          RequestRateLimiter
	aiPerMin         int
}

// New creates a Server wired to the given application services.
func New(svc Services, webDir string) *Server {
	return &Server{
		auth:       svc.Auth,
		weight:     svc.Weight,
		profile:    svc.Profile,
		calorie:    svc.Calorie,
		advice:     svc.Advice,
		charts:     svc.Charts,
		webDir:     webDir,
		oidcConfig: &OIDCConfig{},
	}
}

// WithOIDC enables SSO login.
func (s *Server) WithOIDC(cfg *OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// WithForwardAuth trusts the Remote-User header set by an authenticating
// reverse proxy.
func (s *Server) WithForwardAuth(trust bool) *Server {
	s.trustForwardAuth = trust
	return s
}

// WithMetrics records request metrics into m and serves g on /metrics.
func (s *Server) WithMetrics(m *metrics.Manager, g prometheus.Gatherer) *Server {
	s.metrics = m
	s.gatherer = g
	return s
}

// WithRateLimit limits the advisory endpoints to perMin requests per user
// and minute.
func (s *Server) WithRateLimit(l RequestRateLimiter, perMin int) *Server {
	s.limiter = l
	s.aiPerMin = perMin
	return s
}

func (s *Server) authed(h http.HandlerFunc) http.Handler {
	return s.authMiddleware(h)
}

// advisory protects handlers that call the remote advisor.
func (s *Server) advisory(h http.HandlerFunc) http.Handler {
	var next http.Handler = h
	if s.limiter != nil && s.aiPerMin > 0 {
		next = RateLimit(s.limiter, "advisor", s.aiPerMin, s.metrics)(next)
	}
	return s.authMiddleware(next)
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("POST /auth/register", s.handleRegister)
	api.HandleFunc("POST /auth/login", s.handleLogin)
	api.HandleFunc("POST /auth/logout", s.handleLogout)
	api.Handle("GET /auth/me", s.authed(s.handleMe))
	api.HandleFunc("GET /auth/config", s.handleConfig)
	api.HandleFunc("GET /auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("GET /auth/sso/callback", s.handleSSOCallback)

	api.Handle("GET /weights", s.authed(s.handleWeightList))
	api.Handle("POST /weights", s.authed(s.handleWeightRecord))
	api.Handle("GET /weights/latest", s.authed(s.handleWeightLatest))
	api.Handle("GET /weights/stats", s.authed(s.handleWeightStats))
	api.Handle("PUT /weights/target", s.authed(s.handleWeightTarget))
	api.Handle("PATCH /weights/{id}", s.authed(s.handleWeightUpdate))
	api.Handle("DELETE /weights/{id}", s.authed(s.handleWeightDelete))

	api.Handle("GET /charts/daily", s.authed(s.handleChartsDaily))

	api.Handle("GET /profile", s.authed(s.handleProfileGet))
	api.Handle("PUT /profile", s.authed(s.handleProfileUpdate))
	api.Handle("GET /profile/metrics", s.authed(s.handleProfileMetrics))
	api.HandleFunc("GET /user/profile/{username}", s.handlePublicProfile)

	api.Handle("POST /food/analyze", s.advisory(s.handleFoodAnalyze))
	api.Handle("GET /food/history", s.authed(s.handleFoodHistory))
	api.Handle("GET /food/today", s.authed(s.handleFoodToday))
	api.Handle("PUT /food/goals", s.authed(s.handleFoodGoals))
	api.Handle("DELETE /food/{id}", s.authed(s.handleFoodDelete))

	api.Handle("POST /advice/diet", s.advisory(s.handleAdviceDiet))
	api.Handle("POST /advice/plan", s.advisory(s.handleAdvicePlan))

	var apiHandler http.Handler = api
	if s.metrics != nil {
		apiHandler = RequestMetrics(s.metrics)(apiHandler)
	}

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", withNoCache(apiHandler)))
	if s.gatherer != nil {
		root.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.webDir != "" {
		root.Handle("/", withNoCache(spaFromDisk(s.webDir)))
	}

	return PanicRecovery(s.metrics)(s.loggingMiddleware(root))
}
