package adapthttp

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"trimtrack/internal/domain"
	"trimtrack/internal/telemetry/metrics"

	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const userContextKey contextKey = "user"

const sessionCookie = "session"

func userFromContext(r *http.Request) *domain.User {
	u, _ := r.Context().Value(userContextKey).(*domain.User)
	return u
}

// requestToken returns the bearer token, falling back to the session cookie.
func requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// authMiddleware validates bearer tokens, session cookies and forward auth
// headers.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check for forward auth header first
		if remoteUser := r.Header.Get("Remote-User"); remoteUser != "" && s.trustForwardAuth {
			user, err := s.auth.ValidateForwardAuth(r.Context(), remoteUser)
			if err == nil && user != nil {
				ctx := context.WithValue(r.Context(), userContextKey, user)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		token := requestToken(r)
		if token == "" {
			writeFailure(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := s.auth.ValidateSession(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.statusCode = statusCode
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		begin := time.Now()
		rec := &statusRecorder{w, http.StatusOK}
		next.ServeHTTP(rec, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.statusCode,
			"duration": time.Since(begin).String(),
		}).Info("request")
	})
}

// RequestMetrics records request counts and durations. It must wrap the mux
// directly so the matched pattern can be read after serving.
func RequestMetrics(m *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.GaugeRequests.Inc()
			defer m.GaugeRequests.Dec()

			begin := time.Now()
			rec := &statusRecorder{w, http.StatusOK}

			// handler call
			next.ServeHTTP(rec, r)

			status := strconv.Itoa(rec.statusCode)
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.CounterRequests.With(prometheus.Labels{
				"method": r.Method,
				"status": status,
			}).Inc()
			m.HistogramRequestDuration.WithLabelValues(route, r.Method, status).
				Observe(time.Since(begin).Seconds())
		})
	}
}

// PanicRecovery turns a handler panic into a 500 response.
func PanicRecovery(m *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				if rv := recover(); rv != nil {
					if rv == http.ErrAbortHandler {
						panic(rv)
					}
					log.Errorf("http: panic serving %s: %v\n%s", req.URL.Path, rv, debug.Stack())
					if m != nil {
						m.CounterHandleRequestPanic.Inc()
					}
					writeFailure(w, http.StatusInternalServerError, "internal error")
				}
			}()

			// handler call
			next.ServeHTTP(w, req)
		})
	}
}

// RequestRateLimiter is satisfied by *redis_rate.Limiter.
type RequestRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RateLimit allows allowedPerMin requests per user and minute. It runs after
// authentication and keys on the user id.
func RateLimit(limiter RequestRateLimiter, name string, allowedPerMin int, m *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := name
			if u := userFromContext(r); u != nil {
				key = fmt.Sprintf("%s:%d", name, u.ID)
			}

			res, err := limiter.Allow(r.Context(), key, redis_rate.PerMinute(allowedPerMin))
			if err != nil {
				log.WithError(err).Error("rate limiter")
				writeFailure(w, http.StatusInternalServerError, "rate limit internal error")
				return
			}

			if res.Allowed > 0 {
				next.ServeHTTP(w, r)
				return
			}

			if m != nil {
				m.CounterRateLimitedRequests.Inc()
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds()+0.5)))
			writeFailure(w, http.StatusTooManyRequests,
				fmt.Sprintf("retry after %.0f seconds", res.RetryAfter.Seconds()))
		})
	}
}
