package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	adapthttp "trimtrack/internal/adapter/http"
	"trimtrack/internal/adapter/memory"
	"trimtrack/internal/advisor"
	"trimtrack/internal/app"
	"trimtrack/internal/client"
	"trimtrack/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scripted(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
		wantIs  error
	}{
		{"unauthorized", 401, `{"success":false,"message":"x"}`, "session expired, please log in again", domain.ErrAuthExpired},
		{"forbidden", 403, `{}`, "forbidden", nil},
		{"not found", 404, `{}`, "resource not found", domain.ErrNotFound},
		{"server error", 500, `{"message":"boom"}`, "server error", nil},
		{"envelope message", 409, `{"code":409,"message":"empty ledger","success":false}`, "empty ledger", nil},
		{"bare status", 418, `teapot`, "request failed (418)", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := scripted(t, tc.status, tc.body)
			c := client.New(srv.URL, client.NewMemoryStore())

			_, err := c.Me(context.Background())
			require.Error(t, err)
			assert.Equal(t, tc.wantMsg, err.Error())
			var apiErr *client.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.Status)
			if tc.wantIs != nil {
				assert.ErrorIs(t, err, tc.wantIs)
			}
		})
	}
}

func TestUnauthorizedClearsToken(t *testing.T) {
	srv := scripted(t, 401, `{}`)
	store := client.NewMemoryStore()
	require.NoError(t, store.Set(client.TokenKey, "stale"))
	c := client.New(srv.URL, store)

	_, err := c.ListWeights(context.Background(), 0)
	assert.True(t, client.IsAuthExpired(err))
	tok, err := c.Token()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestLogicalFailure(t *testing.T) {
	srv := scripted(t, 200, `{"code":200,"message":"quota exceeded","success":false}`)
	c := client.New(srv.URL, client.NewMemoryStore())

	_, err := c.Stats(context.Background(), domain.Kilograms)
	require.Error(t, err)
	assert.Equal(t, "quota exceeded", err.Error())
}

func TestBareBodyWithoutEnvelope(t *testing.T) {
	srv := scripted(t, 200, `{"id":7,"username":"plain"}`)
	c := client.New(srv.URL, client.NewMemoryStore())

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "plain", u.Username)
}

func TestNetworkUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := client.New(addr, client.NewMemoryStore())
	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestBearerHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"success":true,"data":{"items":[]}}`))
	}))
	defer srv.Close()

	store := client.NewMemoryStore()
	c := client.New(srv.URL, store)
	_, err := c.ListWeights(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Set(client.TokenKey, "abc"))
	_, err = c.ListWeights(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got)
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	db := memory.New()
	adv := advisor.New(advisor.Config{})
	calorie := app.NewCalorieService(db, db, adv, nil)
	h := adapthttp.New(adapthttp.Services{
		Auth:    app.NewAuthService(db, db.NewSessionRepo(), db),
		Weight:  app.NewWeightService(db, db),
		Profile: app.NewProfileService(db, db, db),
		Calorie: calorie,
		Advice:  app.NewAdviceService(adv, db, db, calorie),
		Charts:  app.NewChartsService(db),
	}, "").Handler()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func ptr[T any](v T) *T { return &v }

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	srv := newAPI(t)
	store := client.NewFileStore(filepath.Join(t.TempDir(), "trimctl", "store.json"))
	c := client.New(srv.URL, store)

	res, err := c.Register(ctx, client.RegisterRequest{
		Username: "alice",
		Password: "secret1",
		ProfilePatch: domain.ProfilePatch{
			Age:      ptr(30),
			HeightCm: ptr(165.0),
			Gender:   ptr(domain.Female),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.User.Username)

	// Token survives a fresh client over the same file.
	c = client.New(srv.URL, store)
	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, me.ID)

	_, err = c.Latest(ctx, domain.Kilograms)
	assert.ErrorContains(t, err, "empty ledger")

	_, err = c.RecordWeight(ctx, 72.5, domain.Kilograms, "2024-01-01", "")
	require.NoError(t, err)
	rec, err := c.RecordWeight(ctx, 70.2, domain.Kilograms, "2024-01-15", "")
	require.NoError(t, err)
	assert.False(t, rec.Replaced)

	stats, err := c.Stats(ctx, domain.Kilograms)
	require.NoError(t, err)
	assert.InDelta(t, 2.3, stats.TotalLoss, 1e-9)
	assert.Equal(t, 2, stats.EntryCount)

	items, err := c.ListWeights(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2024-01-15", items[0].Day)

	updated, err := c.UpdateWeight(ctx, items[0].ID, domain.WeightPatch{Note: ptr("weekly")})
	require.NoError(t, err)
	assert.Equal(t, "weekly", updated.Note)

	a, err := c.AnalyzeFood(ctx, "rice and an egg")
	require.NoError(t, err)
	assert.Equal(t, 308.0, a.TotalCalories)

	plan, err := c.WeightLossPlan(ctx)
	require.NoError(t, err)
	assert.NotNil(t, plan)

	require.NoError(t, c.DeleteWeight(ctx, items[0].ID))
	err = c.DeleteWeight(ctx, items[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, c.Logout(ctx))
	tok, err := c.Token()
	require.NoError(t, err)
	assert.Empty(t, tok)

	_, err = c.Me(ctx)
	assert.ErrorIs(t, err, domain.ErrAuthExpired)

	_, err = c.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	p, err := c.UpdateProfile(ctx, domain.ProfilePatch{Name: ptr("Alice")})
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
}
