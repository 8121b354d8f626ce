package adapthttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"trimtrack/internal/app"
	"trimtrack/internal/domain"
	"trimtrack/internal/telemetry/metrics"

	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	original := log.StandardLogger().Out
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(original) })
	return &buf
}

func TestLoggingMiddleware(t *testing.T) {
	s := &Server{}
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("OK"))
	})
	handler := s.loggingMiddleware(nextHandler)

	buf := captureLog(t)

	req := httptest.NewRequest("GET", "/test-path", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status %d, got %d", http.StatusTeapot, w.Code)
	}

	logOutput := buf.String()
	for _, want := range []string{"method=GET", "path=/test-path", "status=418", "msg=request"} {
		if !strings.Contains(logOutput, want) {
			t.Errorf("Log output missing %q. Got: %s", want, logOutput)
		}
	}
}

func TestPanicRecovery(t *testing.T) {
	m := metrics.NewTestManager()
	buf := captureLog(t)

	handler := PanicRecovery(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/explode", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"success":false`) {
		t.Errorf("expected failure envelope, got %s", w.Body.String())
	}
	if got := testutil.ToFloat64(m.CounterHandleRequestPanic); got != 1 {
		t.Errorf("expected panic counter 1, got %v", got)
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("expected panic to be logged, got %s", buf.String())
	}
}

func TestPanicRecoveryAbortHandler(t *testing.T) {
	handler := PanicRecovery(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rv := recover(); rv != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rv)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
}

type testRequestRateLimiter struct {
	Limits map[string]int
	err    error
}

func (l *testRequestRateLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	if l.err != nil {
		return nil, l.err
	}
	res := &redis_rate.Result{Limit: limit}
	if l.Limits[key] > 0 {
		res.Allowed = 1
		res.Remaining = l.Limits[key] - 1
		l.Limits[key]--
		return res, nil
	}
	res.RetryAfter = limit.Period / 2
	return res, nil
}

func TestRateLimit(t *testing.T) {
	m := metrics.NewTestManager()
	limiter := &testRequestRateLimiter{Limits: map[string]int{"advisor:7": 2}}
	handler := RateLimit(limiter, "advisor", 10, m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/food/analyze", nil)
		req = req.WithContext(context.WithValue(req.Context(), userContextKey, &domain.User{ID: 7}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := send(); w.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, w.Code)
		}
	}

	w := send()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "30" {
		t.Errorf("expected Retry-After 30, got %q", got)
	}
	if got := testutil.ToFloat64(m.CounterRateLimitedRequests); got != 1 {
		t.Errorf("expected 1 rate limited request, got %v", got)
	}
}

func TestRateLimitLimiterError(t *testing.T) {
	limiter := &testRequestRateLimiter{err: errors.New("redis down")}
	called := false
	handler := RateLimit(limiter, "advisor", 10, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	captureLog(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/advice/plan", nil))
	if w.Code != http.StatusInternalServerError || called {
		t.Fatalf("expected 500 without calling next, got %d (called=%v)", w.Code, called)
	}
}

func TestRequestMetrics(t *testing.T) {
	m := metrics.NewTestManager()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /weights/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	handler := RequestMetrics(m)(mux)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/weights/abc", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nothing", nil))

	if got := testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "202")); got != 1 {
		t.Errorf("expected one 202, got %v", got)
	}
	if got := testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "404")); got != 1 {
		t.Errorf("expected one 404, got %v", got)
	}
	if got := testutil.CollectAndCount(m.HistogramRequestDuration); got != 2 {
		t.Errorf("expected 2 histogram series, got %d", got)
	}
	if got := testutil.ToFloat64(m.GaugeRequests); got != 0 {
		t.Errorf("expected no in-flight requests, got %v", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{app.ErrInvalidCredentials, http.StatusUnauthorized},
		{app.ErrSessionExpired, http.StatusUnauthorized},
		{fmt.Errorf("wrap: %w", domain.ErrInvalidValue), http.StatusBadRequest},
		{app.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrEmptyLedger, http.StatusConflict},
		{domain.ErrAnalysisInProgress, http.StatusConflict},
		{domain.ErrIncompleteProfile, http.StatusConflict},
		{domain.ErrUsernameTaken, http.StatusConflict},
		{domain.ErrMalformedAIResponse, http.StatusBadGateway},
		{domain.ErrTransport, http.StatusBadGateway},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestWriteErrorHidesInternal(t *testing.T) {
	buf := captureLog(t)
	w := httptest.NewRecorder()
	writeError(w, httptest.NewRequest("GET", "/x", nil), errors.New("secret dsn leaked"))

	if strings.Contains(w.Body.String(), "secret") {
		t.Errorf("internal error echoed to caller: %s", w.Body.String())
	}
	if !strings.Contains(buf.String(), "secret dsn leaked") {
		t.Errorf("expected internal error to be logged")
	}
}

func TestRequestToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "from-cookie"})
	if got := requestToken(req); got != "from-cookie" {
		t.Errorf("expected cookie token, got %q", got)
	}
	req.Header.Set("Authorization", "Bearer from-header")
	if got := requestToken(req); got != "from-header" {
		t.Errorf("expected header token to win, got %q", got)
	}
}
