package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfoligo/api-server/db"
	"github.com/portfoligo/api-server/db/dbtest"
	"github.com/portfoligo/api-server/internals/draft"
	"github.com/portfoligo/api-server/internals/leagues"
	"github.com/portfoligo/api-server/internals/stocks"
	"github.com/portfoligo/api-server/pkg/conf"
	"github.com/portfoligo/api-server/pkg/kvstore"
)

type envelope struct {
	Status  int             `json:"status"`
	IsError bool            `json:"is_error"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func testConfig() *conf.Config {
	return &conf.Config{
		Server: conf.ServerConfig{AllowedOrigins: []string{"*"}, PicksPerSecond: 100, PickBurst: 100},
		Auth:   conf.AuthConfig{Secret: "test-secret", TokenTTL: time.Hour},
		Draft:  conf.DraftConfig{PickSeconds: 0, TickInterval: time.Hour},
		Season: conf.SeasonConfig{Weeks: 2, SettleCron: "@every 1h"},
	}
}

func newTestApp(t *testing.T, cfg *conf.Config) *App {
	t.Helper()
	gdb := dbtest.New(t, db.Models()...)
	app := NewApp(cfg, zerolog.Nop(), gdb, kvstore.NewMemory())
	t.Cleanup(app.Close)

	list := make([]stocks.Stock, 12)
	for i := range list {
		list[i] = stocks.Stock{
			ID:         fmt.Sprintf("s%02d", i+1),
			Symbol:     fmt.Sprintf("T%02d", i+1),
			Company:    fmt.Sprintf("Company %d", i+1),
			TotalScore: float64(40 + i),
		}
	}
	require.NoError(t, stocks.New(gdb).Upsert(context.Background(), list))
	return app
}

func do(t *testing.T, app *App, method, path, token string, body interface{}) envelope {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.R.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.Equal(t, rec.Code, env.Status)
	return env
}

func login(t *testing.T, app *App, name string) string {
	t.Helper()
	env := do(t, app, http.MethodPost, "/auth/signup", "", map[string]string{
		"user_name": name, "mail_id": name + "@example.com", "password": "pw-" + name,
	})
	require.Equal(t, http.StatusCreated, env.Status, env.Error)

	env = do(t, app, http.MethodPost, "/auth/login", "", map[string]string{"user_name": name, "password": "pw-" + name})
	require.Equal(t, http.StatusOK, env.Status, env.Error)
	var out struct {
		Data string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out.Data
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, testConfig())
	rec := httptest.NewRecorder()
	app.R.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth(t *testing.T) {
	app := newTestApp(t, testConfig())

	env := do(t, app, http.MethodGet, "/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, env.Status)
	env = do(t, app, http.MethodGet, "/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, env.Status)

	token := login(t, app, "ada")
	env = do(t, app, http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, env.Status, env.Error)
	assert.Contains(t, string(env.Data), `"user_name":"ada"`)

	env = do(t, app, http.MethodPost, "/auth/login", "", map[string]string{"user_name": "ada", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, env.Status)

	env = do(t, app, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, env.Status)
	env = do(t, app, http.MethodGet, "/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, env.Status, "logged out tokens stop working")
}

func TestDraftOverHTTP(t *testing.T) {
	app := newTestApp(t, testConfig())
	ada, bob := login(t, app, "ada"), login(t, app, "bob")

	env := do(t, app, http.MethodPost, "/leagues/create", ada, map[string]interface{}{
		"name": "Desk", "roster_size": 5, "team_name": "Ada FC",
	})
	require.Equal(t, http.StatusCreated, env.Status, env.Error)
	var league leagues.League
	require.NoError(t, json.Unmarshal(env.Data, &league))

	env = do(t, app, http.MethodPost, "/leagues/join", bob, map[string]string{"code": league.Code, "team_name": "Bob FC"})
	require.Equal(t, http.StatusOK, env.Status, env.Error)
	env = do(t, app, http.MethodPost, "/leagues/join", bob, map[string]string{"code": league.Code})
	assert.Equal(t, http.StatusBadRequest, env.Status)

	q := "?league_id=" + league.ID
	env = do(t, app, http.MethodGet, "/draft"+q, ada, nil)
	assert.Equal(t, http.StatusNotFound, env.Status)
	env = do(t, app, http.MethodGet, "/draft/available"+q+"&min_score=50", ada, nil)
	require.Equal(t, http.StatusOK, env.Status)
	var available []stocks.Stock
	require.NoError(t, json.Unmarshal(env.Data, &available))
	assert.Len(t, available, 2)

	env = do(t, app, http.MethodPost, "/draft/start"+q, bob, nil)
	assert.Equal(t, http.StatusForbidden, env.Status)
	env = do(t, app, http.MethodPost, "/draft/start"+q, ada, nil)
	require.Equal(t, http.StatusOK, env.Status, env.Error)
	var state draft.State
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, draft.StatusActive, state.Status)
	assert.Equal(t, 1, state.CurrentPick)
	assert.Equal(t, 10, state.TotalPicks)

	env = do(t, app, http.MethodPost, "/draft/pick"+q, bob, map[string]string{"stock_id": "s01"})
	assert.Equal(t, http.StatusConflict, env.Status, "bob is not on the clock")
	env = do(t, app, http.MethodPost, "/draft/pick"+q, ada, map[string]string{"stock_id": "s01"})
	require.Equal(t, http.StatusOK, env.Status, env.Error)
	env = do(t, app, http.MethodPost, "/draft/pick"+q, bob, map[string]string{"stock_id": "s01"})
	assert.Equal(t, http.StatusConflict, env.Status, "s01 is gone")
	env = do(t, app, http.MethodPost, "/draft/pick"+q, bob, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, env.Status)

	env = do(t, app, http.MethodPost, "/draft/pause"+q, ada, nil)
	require.Equal(t, http.StatusOK, env.Status, env.Error)
	env = do(t, app, http.MethodPost, "/draft/pick"+q, bob, map[string]string{"stock_id": "s02"})
	assert.Equal(t, http.StatusConflict, env.Status, "paused drafts take no picks")
	env = do(t, app, http.MethodPost, "/draft/pause"+q, ada, nil)
	assert.Equal(t, http.StatusBadRequest, env.Status)
	env = do(t, app, http.MethodPost, "/draft/resume"+q, ada, nil)
	require.Equal(t, http.StatusOK, env.Status)

	env = do(t, app, http.MethodPost, "/draft/autopick"+q, bob, nil)
	require.Equal(t, http.StatusOK, env.Status, env.Error)
	var pick draft.Pick
	require.NoError(t, json.Unmarshal(env.Data, &pick))
	assert.Equal(t, "s12", pick.StockID, "best remaining score")
	assert.True(t, pick.Auto)

	env = do(t, app, http.MethodGet, "/draft/picks"+q, bob, nil)
	var picks []draft.Pick
	require.NoError(t, json.Unmarshal(env.Data, &picks))
	assert.Len(t, picks, 2)

	env = do(t, app, http.MethodGet, "/portfolio"+q, ada, nil)
	require.Equal(t, http.StatusOK, env.Status, env.Error)
	assert.Contains(t, string(env.Data), `"roster_size":1`)

	env = do(t, app, http.MethodPost, "/trade/transaction"+q+"&stock_id=s03&transaction_type=add", ada, nil)
	assert.Equal(t, http.StatusBadRequest, env.Status, "free agency opens after the draft")

	env = do(t, app, http.MethodPost, "/draft/end"+q, ada, nil)
	require.Equal(t, http.StatusOK, env.Status, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, draft.StatusCompleted, state.Status)

	env = do(t, app, http.MethodGet, "/matchups"+q, ada, nil)
	require.Equal(t, http.StatusOK, env.Status, env.Error)
	assert.Contains(t, string(env.Data), `"week":2`, "completion schedules the season")

	env = do(t, app, http.MethodPost, "/trade/transaction"+q+"&stock_id=s03&transaction_type=add", ada, nil)
	require.Equal(t, http.StatusOK, env.Status, env.Error)

	env = do(t, app, http.MethodGet, "/leaderboard"+q, bob, nil)
	require.Equal(t, http.StatusOK, env.Status, env.Error)

	env = do(t, app, http.MethodGet, "/notifications", bob, nil)
	require.Equal(t, http.StatusOK, env.Status)
	assert.Contains(t, string(env.Data), "auto-drafted")

	env = do(t, app, http.MethodGet, "/leagues/delete"+q, bob, nil)
	assert.Equal(t, http.StatusForbidden, env.Status)
	env = do(t, app, http.MethodGet, "/leagues/delete"+q, ada, nil)
	require.Equal(t, http.StatusOK, env.Status, env.Error)
	env = do(t, app, http.MethodGet, "/draft"+q, ada, nil)
	assert.Equal(t, http.StatusNotFound, env.Status)
}

func TestDraftWritesAreRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Server.PicksPerSecond = 0.001
	cfg.Server.PickBurst = 1
	app := newTestApp(t, cfg)
	ada := login(t, app, "ada")

	env := do(t, app, http.MethodPost, "/draft/pause?league_id=x", ada, nil)
	assert.NotEqual(t, http.StatusTooManyRequests, env.Status)
	env = do(t, app, http.MethodPost, "/draft/pause?league_id=x", ada, nil)
	assert.Equal(t, http.StatusTooManyRequests, env.Status)

	env = do(t, app, http.MethodGet, "/draft?league_id=x", ada, nil)
	assert.NotEqual(t, http.StatusTooManyRequests, env.Status, "reads are not limited")
}

func TestMissingLeagueID(t *testing.T) {
	app := newTestApp(t, testConfig())
	ada := login(t, app, "ada")
	for _, path := range []string{"/draft", "/portfolio", "/leaderboard", "/standings", "/matchups", "/leagues/settings"} {
		env := do(t, app, http.MethodGet, path, ada, nil)
		assert.Equal(t, http.StatusBadRequest, env.Status, path)
	}
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{draft.ErrNotYourTurn, http.StatusConflict},
		{draft.ErrStockUnavailable, http.StatusConflict},
		{draft.ErrSessionNotActive, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", draft.ErrRosterFull), http.StatusBadRequest},
		{draft.ErrInvalidTransition, http.StatusBadRequest},
		{leagues.ErrNotCommissioner, http.StatusForbidden},
		{leagues.ErrLeagueNotFound, http.StatusNotFound},
		{draft.ErrDraftNotFound, http.StatusNotFound},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, errorStatus(c.err), c.err.Error())
	}
}

func TestInternalErrorsHideDetails(t *testing.T) {
	app := newTestApp(t, testConfig())
	rec := httptest.NewRecorder()
	app.sendError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), errors.New("pq: password authentication failed"))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, http.StatusInternalServerError, env.Status)
	assert.Equal(t, internalErrorMessage, env.Error)
}
