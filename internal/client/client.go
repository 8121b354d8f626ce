// Package client is a Go client for the trimtrack HTTP API. It attaches the
// stored bearer token, unwraps response envelopes and maps failure statuses
// onto the domain error kinds.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trimtrack/internal/advisor"
	"trimtrack/internal/app"
	"trimtrack/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Timeout bounds every call, including reading the body.
const Timeout = 10 * time.Second

// Error is returned for any non-successful API call.
type Error struct {
	Status  int
	Message string
	kind    error
}

// Error returns the user-facing message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the domain error behind the status, if any.
func (e *Error) Unwrap() error {
	return e.kind
}

// Client calls the API rooted at baseURL.
type Client struct {
	baseURL string
	http    *http.Client
	store   Store
}

// New returns a client that persists its token in store.
func New(baseURL string, store Store) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		store: store,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// Token returns the stored bearer token, if any.
func (c *Client) Token() (string, error) {
	return c.store.Get(TokenKey)
}

type responseEnvelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func statusError(status int, body []byte) *Error {
	switch status {
	case http.StatusUnauthorized:
		return &Error{Status: status, Message: "session expired, please log in again", kind: domain.ErrAuthExpired}
	case http.StatusForbidden:
		return &Error{Status: status, Message: "forbidden"}
	case http.StatusNotFound:
		return &Error{Status: status, Message: "resource not found", kind: domain.ErrNotFound}
	case http.StatusInternalServerError:
		return &Error{Status: status, Message: "server error"}
	}
	var env responseEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return &Error{Status: status, Message: env.Message}
	}
	return &Error{Status: status, Message: fmt.Sprintf("request failed (%d)", status)}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	token, err := c.store.Get(TokenKey)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log.Debugf("client: %s %s", method, path)
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Message: "network unreachable: " + err.Error(), kind: domain.ErrTransport}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: "network unreachable: " + err.Error(), kind: domain.ErrTransport}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized {
			if err := c.store.Delete(TokenKey); err != nil {
				log.WithError(err).Warn("client: clear token")
			}
		}
		return statusError(resp.StatusCode, respBody)
	}

	payload := json.RawMessage(respBody)
	var env responseEnvelope
	if err := json.Unmarshal(respBody, &env); err == nil && env.Success != nil {
		if !*env.Success {
			msg := env.Message
			if msg == "" {
				msg = "request failed"
			}
			return &Error{Status: resp.StatusCode, Message: msg}
		}
		payload = env.Data
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// RegisterRequest carries the credentials and optional initial profile.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	domain.ProfilePatch
}

func (c *Client) authenticate(ctx context.Context, path string, in any) (*domain.AuthResult, error) {
	var res domain.AuthResult
	if err := c.do(ctx, http.MethodPost, path, in, &res); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, &Error{Message: "no token in response"}
	}
	if err := c.store.Set(TokenKey, res.Token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	return &res, nil
}

// Login authenticates and stores the session token.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.AuthResult, error) {
	return c.authenticate(ctx, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
}

// Register creates an account and stores its session token.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*domain.AuthResult, error) {
	return c.authenticate(ctx, "/api/auth/register", req)
}

// Logout ends the server session. The local token is dropped even when the
// server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	if derr := c.store.Delete(TokenKey); derr != nil && err == nil {
		err = fmt.Errorf("clear token: %w", derr)
	}
	return err
}

// Me returns the user the stored token belongs to.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// RecordWeight adds a weight for day ("" for today).
func (c *Client) RecordWeight(ctx context.Context, value float64, unit domain.Unit, day, note string) (*app.RecordResult, error) {
	var res app.RecordResult
	err := c.do(ctx, http.MethodPost, "/api/weights", map[string]any{
		"value": value,
		"unit":  unit,
		"date":  day,
		"note":  note,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListWeights returns up to limit entries, newest first. A zero limit
// returns all of them.
func (c *Client) ListWeights(ctx context.Context, limit int) ([]domain.WeightEntry, error) {
	path := "/api/weights"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var res struct {
		Items []domain.WeightEntry `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

// UpdateWeight applies patch to the entry with id.
func (c *Client) UpdateWeight(ctx context.Context, id string, patch domain.WeightPatch) (*domain.WeightEntry, error) {
	var e domain.WeightEntry
	if err := c.do(ctx, http.MethodPatch, "/api/weights/"+url.PathEscape(id), patch, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteWeight removes the entry with id.
func (c *Client) DeleteWeight(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/weights/"+url.PathEscape(id), nil, nil)
}

func unitParam(unit domain.Unit) string {
	if unit == "" {
		return ""
	}
	return "?unit=" + url.QueryEscape(string(unit))
}

// Latest returns the newest entry and its change from the one before.
func (c *Client) Latest(ctx context.Context, unit domain.Unit) (*app.LatestView, error) {
	var v app.LatestView
	if err := c.do(ctx, http.MethodGet, "/api/weights/latest"+unitParam(unit), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Stats returns progress statistics in unit.
func (c *Client) Stats(ctx context.Context, unit domain.Unit) (*app.StatsView, error) {
	var v app.StatsView
	if err := c.do(ctx, http.MethodGet, "/api/weights/stats"+unitParam(unit), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SetTarget stores the goal weight.
func (c *Client) SetTarget(ctx context.Context, value float64, unit domain.Unit) error {
	return c.do(ctx, http.MethodPut, "/api/weights/target", map[string]any{"value": value, "unit": unit}, nil)
}

// Chart returns one point per day for the last days days.
func (c *Client) Chart(ctx context.Context, days int, unit domain.Unit) ([]app.DayPoint, error) {
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))
	if unit != "" {
		q.Set("unit", string(unit))
	}
	var res struct {
		Items []app.DayPoint `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/charts/daily?"+q.Encode(), nil, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

type profileResponse struct {
	Profile  domain.Profile `json:"profile"`
	Complete bool           `json:"complete"`
}

// Profile returns the caller's profile.
func (c *Client) Profile(ctx context.Context) (*domain.Profile, error) {
	var res profileResponse
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, &res); err != nil {
		return nil, err
	}
	return &res.Profile, nil
}

// UpdateProfile applies patch and returns the merged profile.
func (c *Client) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) (*domain.Profile, error) {
	var res profileResponse
	if err := c.do(ctx, http.MethodPut, "/api/profile", patch, &res); err != nil {
		return nil, err
	}
	return &res.Profile, nil
}

// HealthMetrics returns BMI, BMR and daily calorie needs.
func (c *Client) HealthMetrics(ctx context.Context) (*app.MetricsView, error) {
	var m app.MetricsView
	if err := c.do(ctx, http.MethodGet, "/api/profile/metrics", nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// AnalyzeFood submits a meal description for calorie analysis.
func (c *Client) AnalyzeFood(ctx context.Context, input string) (*domain.CalorieAnalysis, error) {
	var a domain.CalorieAnalysis
	if err := c.do(ctx, http.MethodPost, "/api/food/analyze", map[string]string{"input": input}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// FoodToday summarizes today's analyzed meals.
func (c *Client) FoodToday(ctx context.Context) (*app.DailySummary, error) {
	var s app.DailySummary
	if err := c.do(ctx, http.MethodGet, "/api/food/today", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// FoodHistory returns recent analyses bucketed by period.
func (c *Client) FoodHistory(ctx context.Context) (*app.CalorieHistory, error) {
	var h app.CalorieHistory
	if err := c.do(ctx, http.MethodGet, "/api/food/history", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// DietSuggestions requests personalized diet advice.
func (c *Client) DietSuggestions(ctx context.Context) (*advisor.DietAdvice, error) {
	var a advisor.DietAdvice
	if err := c.do(ctx, http.MethodPost, "/api/advice/diet", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// WeightLossPlan requests a plan toward the target weight.
func (c *Client) WeightLossPlan(ctx context.Context) (*advisor.PlanAnalysis, error) {
	var p advisor.PlanAnalysis
	if err := c.do(ctx, http.MethodPost, "/api/advice/plan", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// IsAuthExpired reports whether err means the caller must log in again.
func IsAuthExpired(err error) bool {
	return errors.Is(err, domain.ErrAuthExpired)
}
