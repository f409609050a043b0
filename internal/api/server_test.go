package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/grantdesk/internal/backend"
	"github.com/edvin/grantdesk/internal/config"
	"github.com/edvin/grantdesk/internal/dashboard"
	"github.com/edvin/grantdesk/internal/n8n"
)

type testStack struct {
	server   *Server
	resolver *config.Resolver
	store    *dashboard.Store
}

func newTestStack(t *testing.T) testStack {
	t.Helper()

	supabase := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/rest/v1/grants":
			w.Write([]byte(`[{"id":"1","title":"Kit Digital","amount":12000}]`))
		case "/rest/v1/grants_test":
			w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(supabase.Close)

	cfg := &config.Config{
		Environment:            config.Development,
		N8NBaseURL:             "http://127.0.0.1:1/",
		N8NWebhookURL:          "http://127.0.0.1:1/webhook",
		SupabaseURL:            supabase.URL,
		SupabaseAnonKey:        "anon-key",
		GrantsTable:            "grants",
		GrantsTestTable:        "grants_test",
		BackendDriver:          config.DriverREST,
		WorkflowsFailurePolicy: config.PolicyIgnore,
		CORSOrigins:            []string{"http://localhost:5173"},
	}
	logger := zerolog.Nop()
	resolver := config.NewResolver(cfg, logger)
	grants := backend.NewClient(resolver, backend.NewRESTStore(cfg.SupabaseURL, cfg.SupabaseAnonKey), logger)
	automation := n8n.NewClient(resolver, logger)
	store := dashboard.NewStore(resolver, grants, automation, cfg.WorkflowsFailurePolicy, logger)

	return testStack{
		server:   NewServer(logger, cfg, resolver, store, automation, nil),
		resolver: resolver,
		store:    store,
	}
}

func (ts testStack) do(method, target, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, r)
	return rec
}

func TestHealthz(t *testing.T) {
	ts := newTestStack(t)

	rec := ts.do(http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	ts := newTestStack(t)

	rec := ts.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, ts.resolver.Initialize(context.Background()))

	rec = ts.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"config":"ok"}`, rec.Body.String())
}

func TestStateAndTableToggle(t *testing.T) {
	ts := newTestStack(t)
	require.NoError(t, ts.store.Initialize(context.Background()))

	rec := ts.do(http.MethodGet, "/api/v1/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	var state dashboard.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, dashboard.PhaseReady, state.Phase)
	assert.Equal(t, "grants", state.Table)
	assert.False(t, state.TestMode)
	require.Len(t, state.Grants, 1)
	assert.Equal(t, "Kit Digital", state.Grants[0]["title"])
	assert.Empty(t, state.Workflows)

	rec = ts.do(http.MethodPost, "/api/v1/table-mode/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var toggled struct {
		Success bool               `json:"success"`
		Data    dashboard.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &toggled))
	assert.True(t, toggled.Success)
	assert.True(t, toggled.Data.TestMode)
	assert.Equal(t, "grants_test", toggled.Data.Table)
	assert.Empty(t, toggled.Data.Grants)
}

func TestAutomationConfigHidesKey(t *testing.T) {
	ts := newTestStack(t)
	require.NoError(t, ts.store.Initialize(context.Background()))

	rec := ts.do(http.MethodGet, "/api/v1/automation/config", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"baseUrl":"http://127.0.0.1:1/","webhookUrl":"http://127.0.0.1:1/webhook","hasApiKey":false,"environment":"development"}`, rec.Body.String())
}

func TestWorkflowsWithoutAPIKey(t *testing.T) {
	ts := newTestStack(t)
	require.NoError(t, ts.store.Initialize(context.Background()))

	rec := ts.do(http.MethodGet, "/api/v1/workflows", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "VALIDATION", body["errorType"])
}

func TestEnvironmentSwitchRoute(t *testing.T) {
	ts := newTestStack(t)
	require.NoError(t, ts.store.Initialize(context.Background()))

	rec := ts.do(http.MethodPut, "/api/v1/environment", `{"environment":"staging"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, config.Development, ts.resolver.Environment())

	rec = ts.do(http.MethodPut, "/api/v1/environment", `{"environment":"production"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, config.Production, ts.resolver.Environment())
}

func TestPreflight(t *testing.T) {
	ts := newTestStack(t)

	rec := ts.do(http.MethodOptions, "/api/v1/grants", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
}
